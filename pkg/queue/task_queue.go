package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// 任务执行入口
	TaskTypeRun = "task:run"

	TaskQueueName = "tasks"

	// 任务失败只记录在 task 表中，不自动重试
	TaskMaxRetries = 0
	TaskTimeout    = 6 * time.Hour
	TaskRetention  = 24 * time.Hour
)

// RunTaskPayload 队列中只传递任务 id，参数从 task.note 读取
type RunTaskPayload struct {
	TaskID    string `json:"task_id"`
	ProjectID string `json:"project_id"`
	TaskType  string `json:"task_type"`
}

type TaskQueue struct {
	client    *asynq.Client
	keyPrefix string
}

func NewTaskQueueWithClient(keyPrefix string, client *asynq.Client) *TaskQueue {
	if keyPrefix == "" {
		keyPrefix = "eds"
	}
	return &TaskQueue{
		keyPrefix: keyPrefix,
		client:    client,
	}
}

func NewRunTask(payload RunTaskPayload) (*asynq.Task, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task: %w", err)
	}
	return asynq.NewTask(TaskTypeRun, raw,
		asynq.MaxRetry(TaskMaxRetries),
		asynq.Timeout(TaskTimeout),
		asynq.Retention(TaskRetention),
		asynq.Queue(TaskQueueName),
	), nil
}

func ParseRunTask(task *asynq.Task) (RunTaskPayload, error) {
	var payload RunTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal task payload: %w", err)
	}
	if payload.TaskID == "" {
		return payload, errors.New("task payload without task id")
	}
	return payload, nil
}

// Enqueue 以 task id 作为 asynq 任务 id，同一任务不会重复入队
func (q *TaskQueue) Enqueue(ctx context.Context, payload RunTaskPayload) error {
	task, err := NewRunTask(payload)
	if err != nil {
		return err
	}

	_, err = q.client.EnqueueContext(ctx, task, asynq.TaskID(q.keyPrefix+":"+payload.TaskID))
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		slog.Warn("task already enqueued", slog.String("task_id", payload.TaskID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	slog.Info("task enqueued",
		slog.String("task_id", payload.TaskID),
		slog.String("task_type", payload.TaskType),
		slog.String("project_id", payload.ProjectID))
	return nil
}

func (q *TaskQueue) Shutdown() {
	slog.Info("Shutting down task queue")
	if q.client != nil {
		if err := q.client.Close(); err != nil {
			slog.Error("Failed to close task queue client", slog.String("error", err.Error()))
		}
	}
}
