package types

import (
	"database/sql"
	"encoding/json"
)

type Question struct {
	ID        string         `json:"id" db:"id"`
	ProjectID string         `json:"projectId" db:"project_id"`
	ChunkID   string         `json:"chunkId" db:"chunk_id"`
	GaPairID  sql.NullString `json:"-" db:"ga_pair_id"`
	Label     string         `json:"label" db:"label"`
	Question  string         `json:"question" db:"question"`
	Answered  bool           `json:"answered" db:"answered"`
	CreatedAt int64          `json:"createAt" db:"created_at"`
}

type ListQuestionOptions struct {
	ProjectID   string
	ChunkID     string
	Label       string
	QuestionIDs []string
	Answered    *bool
}

func (q Question) MarshalJSON() ([]byte, error) {
	type alias Question
	return json.Marshal(struct {
		alias
		GaPairID *string `json:"gaPairId"`
	}{
		alias:    alias(q),
		GaPairID: nullableString(q.GaPairID),
	})
}
