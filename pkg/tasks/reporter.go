package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/easy-dataset/easy-dataset/pkg/eventbus"
	"github.com/easy-dataset/easy-dataset/pkg/types"
)

type TaskStore interface {
	GetTask(ctx context.Context, projectID, id string) (*types.Task, error)
	UpdateProgress(ctx context.Context, id string, data types.TaskProgressUpdate) (bool, error)
	Finish(ctx context.Context, id string, status types.TaskStatus, data types.TaskProgressUpdate) (bool, error)
}

// Reporter 负责任务的进度与终态写入。
// 所有写入都以 status = running 为条件，写入失败说明任务已被中止或已结束，此时取消任务 ctx
type Reporter struct {
	store  TaskStore
	bus    *eventbus.Bus
	task   types.Task
	cancel context.CancelCauseFunc

	mu        sync.Mutex
	total     int64
	completed int64
	finished  bool
}

func NewReporter(store TaskStore, bus *eventbus.Bus, task types.Task, cancel context.CancelCauseFunc) *Reporter {
	return &Reporter{
		store:     store,
		bus:       bus,
		task:      task,
		cancel:    cancel,
		total:     task.TotalCount,
		completed: task.CompletedCount,
	}
}

func (r *Reporter) Task() types.Task {
	return r.task
}

func (r *Reporter) SetTotal(total int64) {
	r.mu.Lock()
	r.total = max(0, total)
	r.completed = min(r.completed, r.total)
	r.mu.Unlock()
}

func (r *Reporter) Counts() (completed, total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed, r.total
}

// Progress 覆盖写入 completedCount 和 detail，completed 会被限制在 [0, total]
func (r *Reporter) Progress(ctx context.Context, completed int64, detail types.TaskDetail) error {
	r.mu.Lock()
	r.completed = min(max(0, completed), r.total)
	total := r.total
	upd := types.TaskProgressUpdate{
		CompletedCount: r.completed,
		TotalCount:     &total,
		Detail:         types.MarshalDetail(detail),
	}
	r.mu.Unlock()

	ok, err := r.store.UpdateProgress(ctx, r.task.ID, upd)
	if err != nil {
		// 进度写入失败不影响任务继续执行
		slog.Error("failed to update task progress", slog.String("task_id", r.task.ID), slog.String("error", err.Error()))
		return nil
	}
	if !ok {
		return r.abort()
	}
	r.publish(ctx, eventbus.KindTaskProgress, types.TASK_STATUS_RUNNING, upd)
	return nil
}

// Alive 读取任务当前状态，已不是 running 时取消任务
func (r *Reporter) Alive(ctx context.Context) error {
	if err := context.Cause(ctx); err != nil {
		return err
	}
	task, err := r.store.GetTask(ctx, r.task.ProjectID, r.task.ID)
	if err != nil {
		slog.Warn("failed to check task status", slog.String("task_id", r.task.ID), slog.String("error", err.Error()))
		return nil
	}
	if task.Status.Terminal() {
		return r.abort()
	}
	return nil
}

func (r *Reporter) abort() error {
	slog.Info("task is no longer running, stop processing", slog.String("task_id", r.task.ID))
	if r.cancel != nil {
		r.cancel(ErrAborted)
	}
	return ErrAborted
}

// Complete 成功结束任务，completedCount 置为 totalCount
func (r *Reporter) Complete(ctx context.Context, detail types.TaskDetail) error {
	r.mu.Lock()
	r.completed = r.total
	r.mu.Unlock()
	return r.finish(ctx, types.TASK_STATUS_COMPLETED, detail)
}

func (r *Reporter) Fail(ctx context.Context, detail types.TaskDetail) error {
	return r.finish(ctx, types.TASK_STATUS_FAILED, detail)
}

func (r *Reporter) finish(ctx context.Context, status types.TaskStatus, detail types.TaskDetail) error {
	r.mu.Lock()
	if r.finished {
		r.mu.Unlock()
		return nil
	}
	r.finished = true
	total := r.total
	upd := types.TaskProgressUpdate{
		CompletedCount: r.completed,
		TotalCount:     &total,
		Detail:         types.MarshalDetail(detail),
	}
	r.mu.Unlock()

	// 任务 ctx 可能已被取消，终态仍需写入
	ctx = context.WithoutCancel(ctx)
	ok, err := r.store.Finish(ctx, r.task.ID, status, upd)
	if err != nil {
		return fmt.Errorf("failed to finish task %s: %w", r.task.ID, err)
	}
	if !ok {
		slog.Info("task already reached a terminal status", slog.String("task_id", r.task.ID), slog.String("status", status.String()))
		return ErrAborted
	}
	r.publish(ctx, eventbus.KindTaskFinished, status, upd)
	slog.Info("task finished",
		slog.String("task_id", r.task.ID),
		slog.String("task_type", r.task.TaskType),
		slog.String("status", status.String()),
		slog.Duration("took", time.Since(time.Unix(r.task.StartTime, 0))))
	return nil
}

func (r *Reporter) publish(ctx context.Context, kind eventbus.Kind, status types.TaskStatus, upd types.TaskProgressUpdate) {
	eventbus.PublishPayload(ctx, r.bus, kind, r.task.ProjectID, r.task.ID, eventbus.TaskProgress{
		TaskType:       r.task.TaskType,
		Status:         status,
		CompletedCount: upd.CompletedCount,
		TotalCount:     *upd.TotalCount,
		Detail:         upd.Detail,
	})
}

// Log 发布一条蒸馏日志事件
func (r *Reporter) Log(ctx context.Context, stage, message string) {
	eventbus.PublishPayload(ctx, r.bus, eventbus.KindDistillLog, r.task.ProjectID, r.task.ID, eventbus.DistillLog{
		Stage:   stage,
		Message: message,
	})
}
