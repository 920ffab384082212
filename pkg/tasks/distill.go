package tasks

import (
	"context"

	"github.com/easy-dataset/easy-dataset/pkg/distill"
	"github.com/easy-dataset/easy-dataset/pkg/errors"
	"github.com/easy-dataset/easy-dataset/pkg/types"
)

// distillObserver 把蒸馏进度写入任务，计数为三个阶段之和
type distillObserver struct {
	ctx   context.Context
	rep   *Reporter
	stage string
}

func (o *distillObserver) OnProgress(p types.DistillProgress) {
	o.stage = p.Stage
	total := int64(p.TagsTotal + p.QuestionsTotal + p.DatasetsTotal)
	completed := int64(p.TagsBuilt + p.QuestionsBuilt + p.DatasetsBuilt)
	o.rep.SetTotal(total)
	_ = o.rep.Progress(o.ctx, completed, &p)
}

func (o *distillObserver) OnLog(message string) {
	o.rep.Log(o.ctx, o.stage, message)
}

func (r *Runner) distill(ctx context.Context, rep *Reporter) (types.TaskDetail, error) {
	task := rep.Task()
	note, err := decodeNote[types.DistillationNote](task)
	if err != nil {
		return nil, err
	}
	if r.deps.Distill == nil {
		return nil, errors.Configuration("distill backend is not set")
	}
	cfg := distill.Config{ProjectID: task.ProjectID, DistillationNote: note}

	llm, _, err := r.taskLLM(task)
	if err != nil {
		return nil, err
	}

	observer := &distillObserver{ctx: ctx, rep: rep, stage: distill.STAGE_INITIALIZING}
	progress, err := distill.NewOrchestrator(r.deps.Distill(llm, task.Language), observer, cfg).Run(ctx)
	return &progress, err
}
