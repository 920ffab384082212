package process

import (
	"context"
	"log/slog"
	"time"

	"github.com/easy-dataset/easy-dataset/pkg/register"
	"github.com/easy-dataset/easy-dataset/pkg/safe"
	"github.com/easy-dataset/easy-dataset/pkg/types"
)

const interruptedSummary = "interrupted: no progress reported before the worker stopped"

func init() {
	register.RegisterFunc[*Process](ProcessKey{}, func(p *Process) {
		c := p.Core()
		sweeper := &StaleSweeper{
			store:   c.Store().TaskStore(),
			timeout: time.Duration(c.Cfg().Worker.StaleTaskMinutes) * time.Minute,
			now:     time.Now,
		}
		p.Cron().AddFunc("* * * * *", func() {
			safe.Run(func() {
				// 多个 worker 进程只需要一个执行清理
				ctx, cancel := context.WithTimeout(context.Background(), 50*time.Second)
				defer cancel()
				if ok, err := c.TryLock(ctx, "stale_task_sweeper", time.Minute); err != nil || !ok {
					return
				}
				sweeper.Sweep(ctx)
			})
		})
	})
}

type staleTaskStore interface {
	ListStale(ctx context.Context, updatedBefore int64) ([]types.Task, error)
	Finish(ctx context.Context, id string, status types.TaskStatus, data types.TaskProgressUpdate) (bool, error)
}

// StaleSweeper 把长时间没有进度写入的运行中任务标记为失败
type StaleSweeper struct {
	store   staleTaskStore
	timeout time.Duration
	now     func() time.Time
}

func (s *StaleSweeper) Sweep(ctx context.Context) int {
	if s.timeout <= 0 {
		return 0
	}
	list, err := s.store.ListStale(ctx, s.now().Add(-s.timeout).Unix())
	if err != nil {
		slog.Error("failed to list stale tasks", slog.String("error", err.Error()))
		return 0
	}

	marked := 0
	for _, task := range list {
		total := task.TotalCount
		ok, err := s.store.Finish(ctx, task.ID, types.TASK_STATUS_FAILED, types.TaskProgressUpdate{
			CompletedCount: task.CompletedCount,
			TotalCount:     &total,
			Detail:         interruptedDetail(task),
		})
		if err != nil {
			slog.Error("failed to mark stale task", slog.String("task_id", task.ID), slog.String("error", err.Error()))
			continue
		}
		if ok {
			marked++
			slog.Warn("stale task marked as failed",
				slog.String("task_id", task.ID),
				slog.String("task_type", task.TaskType),
				slog.Int64("updated_at", task.UpdatedAt))
		}
	}
	return marked
}

func interruptedDetail(task types.Task) string {
	detail, err := types.DecodeTaskDetail(task.TaskType, task.Detail)
	if err != nil {
		detail = types.NewTaskDetail(task.TaskType)
	}
	switch d := detail.(type) {
	case *types.PdfTaskProgress:
		d.Summary = interruptedSummary
	case *types.DistillProgress:
		d.Summary = interruptedSummary
		d.AppendLog(interruptedSummary)
	case *types.BatchProgress:
		d.Summary = interruptedSummary
	}
	return types.MarshalDetail(detail)
}
