package types

// 蒸馏问题统一挂在一个虚拟分块上
const (
	DISTILLED_CHUNK_NAME     = "Distilled Content"
	DISTILLED_CHUNK_FILE_ID  = "distilled"
	DISTILLED_CHUNK_FILENAME = "distilled.md"
)

type Chunk struct {
	ID        string `json:"id" db:"id"`
	ProjectID string `json:"projectId" db:"project_id"`
	FileID    string `json:"fileId" db:"file_id"`
	FileName  string `json:"fileName" db:"file_name"`
	Name      string `json:"name" db:"name"`
	Content   string `json:"content" db:"content"`
	Summary   string `json:"summary" db:"summary"`
	Size      int    `json:"size" db:"size"`
	CreatedAt int64  `json:"createAt" db:"created_at"`
}

type ListChunkOptions struct {
	ProjectID string
	FileID    string
	ChunkIDs  []string
}
