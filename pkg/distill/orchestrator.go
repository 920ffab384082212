package distill

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/samber/lo"

	"github.com/easy-dataset/easy-dataset/pkg/errors"
	"github.com/easy-dataset/easy-dataset/pkg/types"
)

const (
	STAGE_INITIALIZING = "initializing"
	STAGE_QUESTIONS    = "questions"
	STAGE_DATASETS     = "datasets"
	STAGE_COMPLETED    = "completed"
)

func LevelStage(level int) string {
	return fmt.Sprintf("level%d", level)
}

// Backend 自动蒸馏依赖的生成操作，由 Session 实现
type Backend interface {
	ListTags(ctx context.Context, projectID string) ([]types.Tag, error)
	GenerateTags(ctx context.Context, req TagRequest) ([]types.Tag, error)
	ListDistilledQuestions(ctx context.Context, projectID string) ([]types.Question, error)
	GenerateQuestions(ctx context.Context, req QuestionRequest) ([]types.Question, error)
	GenerateDataset(ctx context.Context, projectID, questionID string) error
}

type Observer interface {
	OnProgress(progress types.DistillProgress)
	OnLog(message string)
}

type Config struct {
	ProjectID string
	types.DistillationNote
}

func (c Config) validate() error {
	if c.ProjectID == "" {
		return errors.Parameter("projectId is required")
	}
	if strings.TrimSpace(c.Topic) == "" {
		return errors.Parameter("topic is required")
	}
	if c.Levels <= 0 || c.TagsPerLevel <= 0 || c.QuestionsPerTag <= 0 {
		return errors.Parameter("levels, tagsPerLevel and questionsPerTag must be positive")
	}
	return nil
}

// NeededCount 目标数量与已有数量的差值，不为负
func NeededCount(target, existing int) int {
	return max(0, target-existing)
}

// TagsTotal is the number of leaf tags a full tree holds.
func TagsTotal(tagsPerLevel, levels int) int {
	return int(math.Pow(float64(tagsPerLevel), float64(levels)))
}

type Orchestrator struct {
	backend  Backend
	observer Observer
	cfg      Config
	progress types.DistillProgress
	tree     *Tree
}

func NewOrchestrator(backend Backend, observer Observer, cfg Config) *Orchestrator {
	return &Orchestrator{backend: backend, observer: observer, cfg: cfg}
}

func (o *Orchestrator) Progress() types.DistillProgress {
	return o.progress
}

func (o *Orchestrator) emit() {
	if o.observer != nil {
		o.observer.OnProgress(o.progress)
	}
}

func (o *Orchestrator) logf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	o.progress.AppendLog(msg)
	slog.Debug("distill", slog.String("project_id", o.cfg.ProjectID), slog.String("message", msg))
	if o.observer != nil {
		o.observer.OnLog(msg)
	}
}

func (o *Orchestrator) setStage(stage string) {
	o.progress.Stage = stage
	o.emit()
}

// Run executes tags, questions and datasets in order. Item level failures are
// logged and skipped; a cancelled context stops the run between items.
func (o *Orchestrator) Run(ctx context.Context) (types.DistillProgress, error) {
	if err := o.cfg.validate(); err != nil {
		return o.progress, err
	}

	o.progress = types.DistillProgress{Stage: STAGE_INITIALIZING}
	o.emit()
	o.logf("Distillation started, topic: %s, levels: %d, tags per level: %d, questions per tag: %d",
		o.cfg.Topic, o.cfg.Levels, o.cfg.TagsPerLevel, o.cfg.QuestionsPerTag)

	tags, err := o.backend.ListTags(ctx, o.cfg.ProjectID)
	if err != nil {
		return o.progress, fmt.Errorf("list tags: %w", err)
	}
	o.tree = NewTree(tags)

	o.progress.TagsTotal = TagsTotal(o.cfg.TagsPerLevel, o.cfg.Levels)
	o.emit()
	if err = o.buildLevel(ctx, nil, o.cfg.Topic, 1); err != nil {
		return o.progress, err
	}

	if err = o.generateQuestions(ctx); err != nil {
		return o.progress, err
	}

	if !o.cfg.SkipDatasets {
		if err = o.generateDatasets(ctx); err != nil {
			return o.progress, err
		}
	}

	o.progress.Summary = fmt.Sprintf("tags: %d, questions: %d, datasets: %d",
		o.progress.TagsBuilt, o.progress.QuestionsBuilt, o.progress.DatasetsBuilt)
	o.logf("Distillation finished")
	o.setStage(STAGE_COMPLETED)
	return o.progress, nil
}

func (o *Orchestrator) buildLevel(ctx context.Context, parent *types.Tag, parentPath string, level int) error {
	if level > o.cfg.Levels {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	o.setStage(LevelStage(level))

	parentID, parentName := "", o.cfg.Topic
	if parent != nil {
		parentID, parentName = parent.ID, parent.Label
	}

	current := o.tree.Children(parentID)
	if needed := NeededCount(o.cfg.TagsPerLevel, len(current)); needed > 0 {
		o.logf("Building %d sub-tags for %q", needed, parentName)
		created, err := o.backend.GenerateTags(ctx, TagRequest{
			ProjectID:   o.cfg.ProjectID,
			ParentTag:   parentName,
			ParentTagID: parentID,
			TagPath:     parentPath,
			Count:       needed,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			o.logf("Failed to build level %d tags for %q: %s", level, parentName, err)
		} else {
			for _, t := range created {
				o.tree.Add(t)
			}
			o.progress.TagsBuilt += len(created)
			o.logf("Built %d tags: %s", len(created), strings.Join(lo.Map(created, func(t types.Tag, _ int) string { return t.Label }), ", "))
			o.emit()
			current = append(current, created...)
		}
	}

	if level == o.cfg.Levels {
		return nil
	}
	for _, tag := range current {
		if err := o.buildLevel(ctx, &tag, parentPath+" > "+tag.Label, level+1); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) generateQuestions(ctx context.Context) error {
	o.setStage(STAGE_QUESTIONS)
	o.logf("Tag tree ready, generating questions for leaf tags")

	leaves := o.tree.Leaves(o.cfg.Levels)
	o.logf("Found %d leaf tags", len(leaves))

	all, err := o.backend.ListDistilledQuestions(ctx, o.cfg.ProjectID)
	if err != nil {
		return fmt.Errorf("list distilled questions: %w", err)
	}
	perLabel := lo.CountValuesBy(all, func(q types.Question) string { return q.Label })

	o.progress.QuestionsTotal = len(leaves) * o.cfg.QuestionsPerTag
	o.emit()

	for _, leaf := range leaves {
		if err := ctx.Err(); err != nil {
			return err
		}
		existing := perLabel[leaf.Label]
		needed := NeededCount(o.cfg.QuestionsPerTag, existing)
		if needed == 0 {
			o.logf("Tag %q already has %d questions, no generation needed", leaf.Label, existing)
			continue
		}

		o.logf("Generating %d questions for tag %q", needed, leaf.Label)
		created, err := o.backend.GenerateQuestions(ctx, QuestionRequest{
			ProjectID:  o.cfg.ProjectID,
			TagPath:    o.tree.Path(leaf.ID),
			CurrentTag: leaf.Label,
			TagID:      leaf.ID,
			Count:      needed,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			o.logf("Failed to generate questions for tag %q: %s", leaf.Label, err)
			continue
		}
		o.progress.QuestionsBuilt += len(created)
		perLabel[leaf.Label] += len(created)
		o.logf("Generated %d questions for tag %q", len(created), leaf.Label)
		o.emit()
	}
	return nil
}

func (o *Orchestrator) generateDatasets(ctx context.Context) error {
	o.setStage(STAGE_DATASETS)
	o.logf("Questions ready, generating answers")

	all, err := o.backend.ListDistilledQuestions(ctx, o.cfg.ProjectID)
	if err != nil {
		return fmt.Errorf("list distilled questions: %w", err)
	}
	unanswered, answered := lo.FilterReject(all, func(q types.Question, _ int) bool { return !q.Answered })

	o.progress.DatasetsTotal = len(all)
	o.progress.DatasetsBuilt = len(answered)
	o.emit()
	o.logf("Found %d unanswered questions", len(unanswered))

	for _, q := range unanswered {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.backend.GenerateDataset(ctx, o.cfg.ProjectID, q.ID); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			o.logf("Failed to answer question %s under %q: %s", q.ID, q.Label, err)
			continue
		}
		o.progress.DatasetsBuilt++
		o.emit()
	}
	return nil
}
