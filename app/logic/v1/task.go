package v1

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/easy-dataset/easy-dataset/app/core"
	"github.com/easy-dataset/easy-dataset/pkg/errors"
	"github.com/easy-dataset/easy-dataset/pkg/eventbus"
	"github.com/easy-dataset/easy-dataset/pkg/i18n"
	"github.com/easy-dataset/easy-dataset/pkg/types"
	"github.com/easy-dataset/easy-dataset/pkg/utils"
)

type TaskLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewTaskLogic(ctx context.Context, core *core.Core) *TaskLogic {
	return &TaskLogic{
		ctx:  ctx,
		core: core,
	}
}

type CreateTaskRequest struct {
	TaskType      string          `json:"taskType" binding:"required"`
	ModelConfigID string          `json:"modelConfigId"`
	ModelInfo     json.RawMessage `json:"modelInfo"`
	Language      string          `json:"language"`
	Note          json.RawMessage `json:"note"`
	TotalCount    int64           `json:"totalCount"`
}

// TaskView 接口返回的任务，附带解析后的进度结构
type TaskView struct {
	types.Task
	Progress types.TaskDetail `json:"progress,omitempty"`
}

func newTaskView(task types.Task) TaskView {
	view := TaskView{Task: task}
	if detail, err := types.DecodeTaskDetail(task.TaskType, task.Detail); err == nil {
		view.Progress = detail
	}
	return view
}

// CreateTask 创建任务记录后立即投递，投递失败的任务直接标记为失败
func (l *TaskLogic) CreateTask(projectID string, req CreateTaskRequest) (*TaskView, error) {
	if !types.IsValidTaskType(req.TaskType) {
		return nil, errors.New("TaskLogic.CreateTask.IsValidTaskType", i18n.ERROR_TASK_TYPE_UNSUPPORTED, nil).Code(http.StatusBadRequest)
	}
	if len(req.Note) > 0 && !json.Valid(req.Note) {
		return nil, errors.New("TaskLogic.CreateTask.Note", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
	}

	if _, err := l.core.Store().ProjectStore().GetProject(l.ctx, projectID); err != nil {
		return nil, translateError("TaskLogic.CreateTask.ProjectStore.GetProject", err, i18n.ERROR_PROJECT_NOT_FOUND)
	}

	modelInfo := req.ModelInfo
	if len(modelInfo) == 0 || string(modelInfo) == "null" {
		model, err := l.core.GetActiveModel(l.ctx, projectID, req.ModelConfigID)
		if err != nil {
			return nil, errors.New("TaskLogic.CreateTask.GetActiveModel", i18n.ERROR_MODEL_NOT_CONFIGURED, err).Code(http.StatusBadRequest)
		}
		if modelInfo, err = json.Marshal(model); err != nil {
			return nil, errors.New("TaskLogic.CreateTask.MarshalModel", i18n.ERROR_INTERNAL, err)
		}
	}

	now := time.Now().Unix()
	task := types.Task{
		ID:         utils.GenUniqIDStr(),
		ProjectID:  projectID,
		TaskType:   req.TaskType,
		Status:     types.TASK_STATUS_RUNNING,
		ModelInfo:  modelInfo,
		Language:   types.NormalizeLanguage(req.Language),
		Detail:     types.MarshalDetail(types.NewTaskDetail(req.TaskType)),
		Note:       string(req.Note),
		TotalCount: req.TotalCount,
		StartTime:  now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := l.core.Store().TaskStore().Create(l.ctx, task); err != nil {
		return nil, errors.New("TaskLogic.CreateTask.TaskStore.Create", i18n.ERROR_INTERNAL, err)
	}

	eventbus.PublishPayload(l.ctx, l.core.Bus(), eventbus.KindTaskCreated, projectID, task.ID, eventbus.TaskProgress{
		TaskType:   task.TaskType,
		Status:     task.Status,
		TotalCount: task.TotalCount,
	})

	if err := l.core.Dispatch(l.ctx, task); err != nil {
		slog.Error("failed to dispatch task", slog.String("task_id", task.ID), slog.String("error", err.Error()))
		if _, ferr := l.core.Store().TaskStore().Finish(l.ctx, task.ID, types.TASK_STATUS_FAILED, types.TaskProgressUpdate{
			Detail: task.Detail,
		}); ferr != nil {
			slog.Error("failed to mark undispatched task", slog.String("task_id", task.ID), slog.String("error", ferr.Error()))
		}
		return nil, errors.New("TaskLogic.CreateTask.Dispatch", i18n.ERROR_TASK_ENQUEUE_FAILED, err).Code(http.StatusServiceUnavailable)
	}

	view := newTaskView(task)
	return &view, nil
}

type ListTasksRequest struct {
	TaskType string `form:"taskType"`
	Status   *int   `form:"status"`
	Page     uint64 `form:"page"`
	Limit    uint64 `form:"limit"`
}

func (l *TaskLogic) ListTasks(projectID string, req ListTasksRequest) ([]TaskView, int64, error) {
	opts := types.ListTaskOptions{
		ProjectID: projectID,
		TaskType:  req.TaskType,
	}
	if req.Status != nil {
		status := types.TaskStatus(*req.Status)
		if !status.Valid() {
			return nil, 0, errors.New("TaskLogic.ListTasks.Status", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
		}
		opts.Status = &status
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.Limit == 0 {
		req.Limit = types.DEFAULT_PAGE_SIZE
	}

	list, err := l.core.Store().TaskStore().ListTasks(l.ctx, opts, req.Page, req.Limit)
	if err != nil {
		return nil, 0, errors.New("TaskLogic.ListTasks.TaskStore.ListTasks", i18n.ERROR_INTERNAL, err)
	}
	total, err := l.core.Store().TaskStore().Total(l.ctx, opts)
	if err != nil {
		return nil, 0, errors.New("TaskLogic.ListTasks.TaskStore.Total", i18n.ERROR_INTERNAL, err)
	}

	views := make([]TaskView, 0, len(list))
	for _, t := range list {
		views = append(views, newTaskView(t))
	}
	return views, total, nil
}

func (l *TaskLogic) GetTask(projectID, taskID string) (*TaskView, error) {
	task, err := l.core.Store().TaskStore().GetTask(l.ctx, projectID, taskID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New("TaskLogic.GetTask.TaskStore.GetTask", i18n.ERROR_TASK_NOT_FOUND, err).Code(http.StatusNotFound)
		}
		return nil, errors.New("TaskLogic.GetTask.TaskStore.GetTask", i18n.ERROR_INTERNAL, err)
	}
	view := newTaskView(*task)
	return &view, nil
}

type UpdateTaskRequest struct {
	Status int `json:"status"`
}

// UpdateTaskStatus 只允许把运行中的任务改为终态，通常用于中止
func (l *TaskLogic) UpdateTaskStatus(projectID, taskID string, req UpdateTaskRequest) (*TaskView, error) {
	status := types.TaskStatus(req.Status)
	if !status.Valid() || !status.Terminal() {
		return nil, errors.New("TaskLogic.UpdateTaskStatus.Status", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
	}

	task, err := l.GetTask(projectID, taskID)
	if err != nil {
		return nil, errors.Trace("TaskLogic.UpdateTaskStatus", err)
	}

	ok, err := l.core.Store().TaskStore().UpdateStatus(l.ctx, projectID, taskID, status)
	if err != nil {
		return nil, errors.New("TaskLogic.UpdateTaskStatus.TaskStore.UpdateStatus", i18n.ERROR_INTERNAL, err)
	}
	if !ok {
		return nil, errors.New("TaskLogic.UpdateTaskStatus.TaskStore.UpdateStatus", i18n.ERROR_TASK_ALREADY_FINISHED, nil).Code(http.StatusConflict)
	}

	eventbus.PublishPayload(l.ctx, l.core.Bus(), eventbus.KindTaskFinished, projectID, taskID, eventbus.TaskProgress{
		TaskType:       task.TaskType,
		Status:         status,
		CompletedCount: task.CompletedCount,
		TotalCount:     task.TotalCount,
	})
	slog.Info("task status updated", slog.String("task_id", taskID), slog.String("status", status.String()))

	return l.GetTask(projectID, taskID)
}
