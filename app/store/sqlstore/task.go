package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/easy-dataset/easy-dataset/pkg/register"
	"github.com/easy-dataset/easy-dataset/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.TaskStore = NewTaskStore(provider)
	})
}

// TaskStore 任务表。进度与终态写入都带 status = running 条件，被中止的任务不会被覆盖
type TaskStore struct {
	CommonFields
}

func NewTaskStore(provider SqlProviderAchieve) *TaskStore {
	repo := &TaskStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_TASK)
	repo.SetAllColumns("id", "project_id", "task_type", "status", "model_info", "language", "detail", "note",
		"total_count", "completed_count", "start_time", "end_time", "created_at", "updated_at")
	return repo
}

func (s *TaskStore) Create(ctx context.Context, data types.Task) error {
	now := time.Now().Unix()
	if data.CreatedAt == 0 {
		data.CreatedAt = now
	}
	if data.StartTime == 0 {
		data.StartTime = now
	}
	data.UpdatedAt = now

	modelInfo := []byte("null")
	if len(data.ModelInfo) > 0 {
		modelInfo = data.ModelInfo
	}

	_, err := s.exec(ctx, sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.ProjectID, data.TaskType, data.Status, modelInfo, data.Language, data.Detail, data.Note,
			data.TotalCount, data.CompletedCount, data.StartTime, data.EndTime, data.CreatedAt, data.UpdatedAt))
	return err
}

func (s *TaskStore) GetTask(ctx context.Context, projectID, id string) (*types.Task, error) {
	var res types.Task
	err := s.get(ctx, &res, sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"project_id": projectID, "id": id}))
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *TaskStore) ListTasks(ctx context.Context, opts types.ListTaskOptions, page, pageSize uint64) ([]types.Task, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("created_at DESC", "id DESC")
	opts.Apply(&query)

	var res []types.Task
	if err := s.list(ctx, &res, paginate(query, page, pageSize)); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *TaskStore) Total(ctx context.Context, opts types.ListTaskOptions) (int64, error) {
	query := sq.Select("COUNT(*)").From(s.GetTable())
	opts.Apply(&query)

	var res int64
	if err := s.get(ctx, &res, query); err != nil {
		return 0, err
	}
	return res, nil
}

func (s *TaskStore) progressMap(data types.TaskProgressUpdate) map[string]interface{} {
	values := map[string]interface{}{
		"completed_count": data.CompletedCount,
		"detail":          data.Detail,
		"updated_at":      time.Now().Unix(),
	}
	if data.TotalCount != nil {
		values["total_count"] = *data.TotalCount
	}
	return values
}

func (s *TaskStore) UpdateProgress(ctx context.Context, id string, data types.TaskProgressUpdate) (bool, error) {
	affected, err := s.exec(ctx, sq.Update(s.GetTable()).
		SetMap(s.progressMap(data)).
		Where(sq.Eq{"id": id, "status": types.TASK_STATUS_RUNNING}))
	return affected > 0, err
}

func (s *TaskStore) Finish(ctx context.Context, id string, status types.TaskStatus, data types.TaskProgressUpdate) (bool, error) {
	values := s.progressMap(data)
	values["status"] = status
	values["end_time"] = time.Now().Unix()

	affected, err := s.exec(ctx, sq.Update(s.GetTable()).
		SetMap(values).
		Where(sq.Eq{"id": id, "status": types.TASK_STATUS_RUNNING}))
	return affected > 0, err
}

// UpdateStatus 只允许 running 的任务转入终态
func (s *TaskStore) UpdateStatus(ctx context.Context, projectID, id string, status types.TaskStatus) (bool, error) {
	now := time.Now().Unix()
	affected, err := s.exec(ctx, sq.Update(s.GetTable()).
		SetMap(map[string]interface{}{
			"status":     status,
			"end_time":   now,
			"updated_at": now,
		}).
		Where(sq.Eq{"project_id": projectID, "id": id, "status": types.TASK_STATUS_RUNNING}))
	return affected > 0, err
}

func (s *TaskStore) ListStale(ctx context.Context, updatedBefore int64) ([]types.Task, error) {
	var res []types.Task
	err := s.list(ctx, &res, sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"status": types.TASK_STATUS_RUNNING}).
		Where(sq.Lt{"updated_at": updatedBefore}))
	if err != nil {
		return nil, err
	}
	return res, nil
}
