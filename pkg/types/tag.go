package types

import (
	"database/sql"
	"encoding/json"
)

// Tag 领域树节点，ParentID 为空表示根节点
type Tag struct {
	ID        string         `json:"id" db:"id"`
	ProjectID string         `json:"projectId" db:"project_id"`
	ParentID  sql.NullString `json:"-" db:"parent_id"`
	Label     string         `json:"label" db:"label"`
	CreatedAt int64          `json:"createAt" db:"created_at"`
}

func (t *Tag) Parent() string {
	if t.ParentID.Valid {
		return t.ParentID.String
	}
	return ""
}

func NewParentID(id string) sql.NullString {
	return sql.NullString{String: id, Valid: id != ""}
}

// TagNode 嵌套形式的标签树，用于 LLM 输出与接口返回
type TagNode struct {
	ID       string     `json:"id,omitempty"`
	Label    string     `json:"label"`
	ParentID string     `json:"parentId,omitempty"`
	Child    []*TagNode `json:"child,omitempty"`
}

func (t Tag) MarshalJSON() ([]byte, error) {
	type alias Tag
	return json.Marshal(struct {
		alias
		ParentID *string `json:"parentId"`
	}{
		alias:    alias(t),
		ParentID: nullableString(t.ParentID),
	})
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
