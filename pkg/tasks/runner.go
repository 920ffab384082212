package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/easy-dataset/easy-dataset/pkg/ai"
	"github.com/easy-dataset/easy-dataset/pkg/distill"
	"github.com/easy-dataset/easy-dataset/pkg/document"
	"github.com/easy-dataset/easy-dataset/pkg/domaintree"
	"github.com/easy-dataset/easy-dataset/pkg/errors"
	"github.com/easy-dataset/easy-dataset/pkg/eventbus"
	"github.com/easy-dataset/easy-dataset/pkg/generate"
	"github.com/easy-dataset/easy-dataset/pkg/splitter"
	"github.com/easy-dataset/easy-dataset/pkg/types"
)

type ProjectStore interface {
	GetProject(ctx context.Context, id string) (*types.Project, error)
}

type ModelStore interface {
	Get(ctx context.Context, projectID, id string) (*types.ModelConfig, error)
}

type ChunkStore interface {
	List(ctx context.Context, opts types.ListChunkOptions) ([]types.Chunk, error)
}

type QuestionStore interface {
	List(ctx context.Context, opts types.ListQuestionOptions) ([]types.Question, error)
}

type FileSplitter interface {
	SplitProjectFile(ctx context.Context, projectID string, file types.TaskFile, markdownPath string, opts splitter.Options) (*splitter.Result, error)
}

type DomainTree interface {
	Handle(ctx context.Context, req domaintree.Request) ([]*types.TagNode, error)
}

type QuestionGenerator interface {
	Generate(ctx context.Context, llm ai.LLM, chunk types.Chunk, opts generate.QuestionOptions) ([]types.Question, error)
}

type AnswerGenerator interface {
	Generate(ctx context.Context, llm ai.LLM, lang, projectID, questionID string) (*types.Dataset, error)
}

type Dependencies struct {
	Tasks     TaskStore
	Projects  ProjectStore
	Models    ModelStore
	Chunks    ChunkStore
	Questions QuestionStore

	Splitter    FileSplitter
	DomainTree  DomainTree
	QuestionGen QuestionGenerator
	AnswerGen   AnswerGenerator

	// Distill 为一次蒸馏任务绑定模型与语言
	Distill func(llm ai.LLM, lang string) distill.Backend

	Documents   document.Dependencies
	NewStrategy func(name string, deps document.Dependencies) (document.Strategy, error)

	// FilesDir 项目源文件目录
	FilesDir func(projectID string) string

	NewLLM    func(cfg *types.ModelConfig) (ai.LLM, error)
	PageCount func(path string) (int, error)
	Bus       *eventbus.Bus

	// OnFinish 任务结束后回调，用于指标统计
	OnFinish func(taskType string, status types.TaskStatus, took time.Duration)
}

type handlerFunc func(ctx context.Context, rep *Reporter) (types.TaskDetail, error)

// Runner 按 taskType 执行任务，任务在同一进程内顺序推进，终态只写一次
type Runner struct {
	deps     Dependencies
	handlers map[string]handlerFunc
}

func NewRunner(deps Dependencies) *Runner {
	if deps.PageCount == nil {
		deps.PageCount = document.PageCount
	}
	if deps.NewStrategy == nil {
		deps.NewStrategy = document.New
	}
	r := &Runner{deps: deps}
	r.handlers = map[string]handlerFunc{
		types.TASK_TYPE_PDF_PROCESSING:      r.processFiles,
		types.TASK_TYPE_TEXT_PROCESSING:     r.processFiles,
		types.TASK_TYPE_QUESTION_GENERATION: r.generateQuestions,
		types.TASK_TYPE_ANSWER_GENERATION:   r.generateAnswers,
		types.TASK_TYPE_DATA_DISTILLATION:   r.distill,
	}
	return r
}

// Run 执行一个任务。已处于终态的任务直接跳过，被中止的任务不再写入
func (r *Runner) Run(ctx context.Context, projectID, taskID string) error {
	task, err := r.deps.Tasks.GetTask(ctx, projectID, taskID)
	if err != nil {
		return fmt.Errorf("get task %s: %w", taskID, err)
	}
	if task.Status.Terminal() {
		slog.Info("task is not running, skip", slog.String("task_id", taskID), slog.String("status", task.Status.String()))
		return nil
	}

	handler, ok := r.handlers[task.TaskType]
	if !ok {
		return r.failEarly(ctx, *task, errors.Parameter("unsupported task type %q", task.TaskType))
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	rep := NewReporter(r.deps.Tasks, r.deps.Bus, *task, cancel)

	start := time.Now()
	slog.Info("task started",
		slog.String("task_id", task.ID),
		slog.String("task_type", task.TaskType),
		slog.String("project_id", task.ProjectID))

	detail, err := r.safeRun(ctx, handler, rep)
	if detail == nil {
		detail = types.NewTaskDetail(task.TaskType)
	}

	status := types.TASK_STATUS_COMPLETED
	switch {
	case aborted(ctx, err):
		slog.Info("task aborted", slog.String("task_id", task.ID))
		r.observe(task.TaskType, types.TASK_STATUS_ABORTED, time.Since(start))
		return nil
	case err != nil:
		status = types.TASK_STATUS_FAILED
		recordError(detail, err)
		slog.Error("task failed", slog.String("task_id", task.ID), slog.String("error", err.Error()))
		if ferr := rep.Fail(ctx, detail); ferr != nil && !errors.Is(ferr, ErrAborted) {
			return ferr
		}
	default:
		if ferr := rep.Complete(ctx, detail); ferr != nil && !errors.Is(ferr, ErrAborted) {
			return ferr
		}
	}
	r.observe(task.TaskType, status, time.Since(start))
	return err
}

func (r *Runner) safeRun(ctx context.Context, h handlerFunc, rep *Reporter) (detail types.TaskDetail, err error) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("task handler panic", slog.String("task_id", rep.Task().ID), slog.Any("panic", p))
			err = fmt.Errorf("task panic: %v", p)
		}
	}()
	return h(ctx, rep)
}

func aborted(ctx context.Context, err error) bool {
	return errors.Is(err, ErrAborted) || errors.Is(context.Cause(ctx), ErrAborted)
}

// failEarly 在处理开始前拒绝任务，例如参数缺失
func (r *Runner) failEarly(ctx context.Context, task types.Task, cause error) error {
	detail := types.NewTaskDetail(task.TaskType)
	recordError(detail, cause)
	rep := NewReporter(r.deps.Tasks, r.deps.Bus, task, nil)
	if err := rep.Fail(ctx, detail); err != nil && !errors.Is(err, ErrAborted) {
		return err
	}
	r.observe(task.TaskType, types.TASK_STATUS_FAILED, 0)
	return cause
}

func (r *Runner) observe(taskType string, status types.TaskStatus, took time.Duration) {
	if r.deps.OnFinish != nil {
		r.deps.OnFinish(taskType, status, took)
	}
}

func recordError(detail types.TaskDetail, err error) {
	msg := err.Error()
	switch d := detail.(type) {
	case *types.PdfTaskProgress:
		if !lo.Contains(d.Errors, msg) {
			d.Errors = append(d.Errors, msg)
		}
		d.Summary = "failed: " + msg
	case *types.DistillProgress:
		d.AppendLog("Distillation failed: " + msg)
		d.Summary = "failed: " + msg
	case *types.BatchProgress:
		d.Errors = append(d.Errors, msg)
		d.Summary = "failed: " + msg
	}
}

func decodeNote[T any](task types.Task) (T, error) {
	var note T
	if task.Note == "" {
		return note, nil
	}
	if err := json.Unmarshal([]byte(task.Note), &note); err != nil {
		return note, errors.Parameter("invalid task note: %s", err)
	}
	return note, nil
}

// taskLLM 使用任务创建时记录的模型快照
func (r *Runner) taskLLM(task types.Task) (ai.LLM, *types.ModelConfig, error) {
	model, err := task.Model()
	if err != nil {
		return nil, nil, errors.Configuration("invalid model info: %s", err)
	}
	if model == nil {
		return nil, nil, errors.Configuration("task has no model configured")
	}
	if err = model.Validate(); err != nil {
		return nil, nil, errors.Configuration("%s", err)
	}
	if r.deps.NewLLM == nil {
		return nil, nil, errors.Configuration("llm factory is not set")
	}
	llm, err := r.deps.NewLLM(model)
	if err != nil {
		return nil, nil, errors.Kind(errors.ErrConfiguration, err, "create llm")
	}
	return llm, model, nil
}

func (r *Runner) settings(ctx context.Context, projectID string) (types.TaskConfig, error) {
	if r.deps.Projects == nil {
		return types.DefaultTaskConfig(), nil
	}
	project, err := r.deps.Projects.GetProject(ctx, projectID)
	if err != nil {
		return types.TaskConfig{}, fmt.Errorf("get project %s: %w", projectID, err)
	}
	return project.TaskSettings(), nil
}
