package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/easy-dataset/easy-dataset/pkg/errors"
	"github.com/easy-dataset/easy-dataset/pkg/generate"
	"github.com/easy-dataset/easy-dataset/pkg/types"
)

const (
	BATCH_STAGE_QUESTIONS = "questions"
	BATCH_STAGE_ANSWERS   = "answers"
	BATCH_STAGE_COMPLETED = "completed"
)

// batch 并发处理一组条目，单个条目失败只记录到 detail
type batch[T any] struct {
	rep    *Reporter
	detail *types.BatchProgress
	limit  int
	name   func(T) string
	work   func(ctx context.Context, item T) error

	mu sync.Mutex
}

func (b *batch[T]) run(ctx context.Context, items []T) error {
	b.detail.Total = len(items)
	b.rep.SetTotal(int64(len(items)))
	if err := b.rep.Progress(ctx, 0, b.detail); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, b.limit))
	for _, item := range items {
		g.Go(func() error {
			if err := context.Cause(gctx); err != nil {
				return err
			}
			err := b.work(gctx, item)
			if aborted(ctx, err) {
				return ErrAborted
			}

			b.mu.Lock()
			defer b.mu.Unlock()
			b.detail.Processed++
			if err != nil {
				b.detail.Failed++
				b.detail.Errors = append(b.detail.Errors, fmt.Sprintf("%s: %s", b.name(item), err))
				slog.Error("batch item failed",
					slog.String("task_id", b.rep.Task().ID),
					slog.String("item", b.name(item)),
					slog.String("error", err.Error()))
			} else {
				b.detail.Succeeded++
			}
			return b.rep.Progress(ctx, int64(b.detail.Processed), b.detail)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	b.detail.Stage = BATCH_STAGE_COMPLETED
	b.detail.Summary = fmt.Sprintf("processed %d, succeeded %d, failed %d", b.detail.Processed, b.detail.Succeeded, b.detail.Failed)
	return nil
}

// generateQuestions 为分块生成问题，未指定分块时处理所有还没有问题的分块
func (r *Runner) generateQuestions(ctx context.Context, rep *Reporter) (types.TaskDetail, error) {
	task := rep.Task()
	detail := &types.BatchProgress{Stage: BATCH_STAGE_QUESTIONS, Errors: []string{}}

	note, err := decodeNote[types.QuestionGenerationNote](task)
	if err != nil {
		return detail, err
	}
	if task.ProjectID == "" {
		return detail, errors.Parameter("projectId is required")
	}
	llm, _, err := r.taskLLM(task)
	if err != nil {
		return detail, err
	}
	settings, err := r.settings(ctx, task.ProjectID)
	if err != nil {
		return detail, err
	}

	chunks, err := r.deps.Chunks.List(ctx, types.ListChunkOptions{ProjectID: task.ProjectID, ChunkIDs: note.ChunkIDs})
	if err != nil {
		return detail, fmt.Errorf("list chunks: %w", err)
	}
	chunks = lo.Filter(chunks, func(c types.Chunk, _ int) bool { return c.Name != types.DISTILLED_CHUNK_NAME })
	if len(note.ChunkIDs) == 0 {
		questions, err := r.deps.Questions.List(ctx, types.ListQuestionOptions{ProjectID: task.ProjectID})
		if err != nil {
			return detail, fmt.Errorf("list questions: %w", err)
		}
		asked := lo.SliceToMap(questions, func(q types.Question) (string, bool) { return q.ChunkID, true })
		chunks = lo.Reject(chunks, func(c types.Chunk, _ int) bool { return asked[c.ID] })
	}

	b := &batch[types.Chunk]{
		rep:    rep,
		detail: detail,
		limit:  settings.ConcurrencyLimit,
		name:   func(c types.Chunk) string { return c.Name },
		work: func(ctx context.Context, c types.Chunk) error {
			_, err := r.deps.QuestionGen.Generate(ctx, llm, c, generate.QuestionOptions{
				Language:    task.Language,
				Settings:    settings,
				EnableGaExp: note.EnableGaExp,
			})
			return err
		},
	}
	return detail, b.run(ctx, chunks)
}

// generateAnswers 为未回答的问题生成数据集
func (r *Runner) generateAnswers(ctx context.Context, rep *Reporter) (types.TaskDetail, error) {
	task := rep.Task()
	detail := &types.BatchProgress{Stage: BATCH_STAGE_ANSWERS, Errors: []string{}}

	note, err := decodeNote[types.AnswerGenerationNote](task)
	if err != nil {
		return detail, err
	}
	if task.ProjectID == "" {
		return detail, errors.Parameter("projectId is required")
	}
	llm, _, err := r.taskLLM(task)
	if err != nil {
		return detail, err
	}
	settings, err := r.settings(ctx, task.ProjectID)
	if err != nil {
		return detail, err
	}

	questions, err := r.deps.Questions.List(ctx, types.ListQuestionOptions{
		ProjectID:   task.ProjectID,
		QuestionIDs: note.QuestionIDs,
		Answered:    lo.ToPtr(false),
	})
	if err != nil {
		return detail, fmt.Errorf("list questions: %w", err)
	}

	b := &batch[types.Question]{
		rep:    rep,
		detail: detail,
		limit:  settings.ConcurrencyLimit,
		name:   func(q types.Question) string { return q.ID },
		work: func(ctx context.Context, q types.Question) error {
			_, err := r.deps.AnswerGen.Generate(ctx, llm, task.Language, task.ProjectID, q.ID)
			return err
		},
	}
	return detail, b.run(ctx, questions)
}
