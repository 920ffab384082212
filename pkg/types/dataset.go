package types

type Dataset struct {
	ID            string `json:"id" db:"id"`
	ProjectID     string `json:"projectId" db:"project_id"`
	QuestionID    string `json:"questionId" db:"question_id"`
	Question      string `json:"question" db:"question"`
	Answer        string `json:"answer" db:"answer"`
	COT           string `json:"cot" db:"cot"`
	QuestionLabel string `json:"questionLabel" db:"question_label"`
	ChunkID       string `json:"chunkId" db:"chunk_id"`
	ChunkName     string `json:"chunkName" db:"chunk_name"`
	Model         string `json:"model" db:"model"`
	Confirmed     bool   `json:"confirmed" db:"confirmed"`
	CreatedAt     int64  `json:"createAt" db:"created_at"`
}
