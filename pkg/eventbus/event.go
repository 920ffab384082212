package eventbus

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/easy-dataset/easy-dataset/pkg/types"
)

type Kind string

const (
	KindTaskCreated  Kind = "task.created"
	KindTaskProgress Kind = "task.progress"
	KindTaskFinished Kind = "task.finished"
	KindDistillLog   Kind = "distill.log"
	KindFileReady    Kind = "file.ready"
)

// Event 总线上传递的消息，Payload 为具体事件结构的 JSON
type Event struct {
	ID        string          `json:"id"`
	Kind      Kind            `json:"kind"`
	ProjectID string          `json:"projectId"`
	TaskID    string          `json:"taskId,omitempty"`
	Time      int64           `json:"time"`
	Payload   json.RawMessage `json:"payload"`
	Origin    string          `json:"origin,omitempty"`
}

// TaskProgress task.progress / task.created / task.finished 的载荷
type TaskProgress struct {
	TaskType       string           `json:"taskType"`
	Status         types.TaskStatus `json:"status"`
	CompletedCount int64            `json:"completedCount"`
	TotalCount     int64            `json:"totalCount"`
	Detail         string           `json:"detail,omitempty"`
}

// DistillLog distill.log 的载荷
type DistillLog struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// FileReady 文档转换完成后发布
type FileReady struct {
	FileID   string `json:"fileId"`
	FileName string `json:"fileName"`
	Chunks   int    `json:"chunks"`
}

func NewEvent[T any](kind Kind, projectID, taskID string, payload T) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		ProjectID: projectID,
		TaskID:    taskID,
		Time:      time.Now().UnixMilli(),
		Payload:   raw,
	}, nil
}

func Decode[T any](e Event) (T, error) {
	var v T
	err := json.Unmarshal(e.Payload, &v)
	return v, err
}
