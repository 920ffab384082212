package process

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/easy-dataset/easy-dataset/pkg/queue"
	"github.com/easy-dataset/easy-dataset/pkg/register"
)

func init() {
	register.RegisterFunc[*Process](ProcessKey{}, func(p *Process) {
		mux := p.AsynqServerMux()
		if mux == nil {
			slog.Warn("task queue is not configured, task consumer disabled")
			return
		}
		mux.HandleFunc(queue.TaskTypeRun, newTaskHandler(p.Core().Runner))
		slog.Info("task consumer registered", slog.String("queue", queue.TaskQueueName))
	})
}

type taskRunner interface {
	Run(ctx context.Context, projectID, taskID string) error
}

// newTaskHandler 任务的成败已经写入 task 表，这里只把无法处理的载荷交给 asynq
func newTaskHandler(runner taskRunner) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		payload, err := queue.ParseRunTask(t)
		if err != nil {
			slog.Error("invalid task payload", slog.String("error", err.Error()))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		slog.Info("processing task",
			slog.String("task_id", payload.TaskID),
			slog.String("task_type", payload.TaskType),
			slog.String("project_id", payload.ProjectID))

		if err = runner.Run(ctx, payload.ProjectID, payload.TaskID); err != nil {
			slog.Error("task run failed",
				slog.String("task_id", payload.TaskID),
				slog.String("error", err.Error()))
		}
		return nil
	}
}
