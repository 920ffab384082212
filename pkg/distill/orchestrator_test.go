package distill

import (
	"context"
	"fmt"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easy-dataset/easy-dataset/pkg/errors"
	"github.com/easy-dataset/easy-dataset/pkg/types"
)

type mockBackend struct {
	tags          []types.Tag
	questions     []types.Question
	tagCalls      []TagRequest
	questionCalls []QuestionRequest
	datasetCalls  []string
	failTagsFor   string
	failDataset   string
	seq           int
}

func (m *mockBackend) ListTags(ctx context.Context, projectID string) ([]types.Tag, error) {
	return m.tags, nil
}

func (m *mockBackend) GenerateTags(ctx context.Context, req TagRequest) ([]types.Tag, error) {
	m.tagCalls = append(m.tagCalls, req)
	if req.ParentTag == m.failTagsFor {
		return nil, fmt.Errorf("model unavailable")
	}
	var out []types.Tag
	for i := 0; i < req.Count; i++ {
		m.seq++
		t := types.Tag{
			ID:        fmt.Sprintf("t%d", m.seq),
			ProjectID: req.ProjectID,
			ParentID:  types.NewParentID(req.ParentTagID),
			Label:     fmt.Sprintf("%d %s-%d", i+1, req.ParentTag, i+1),
		}
		m.tags = append(m.tags, t)
		out = append(out, t)
	}
	return out, nil
}

func (m *mockBackend) ListDistilledQuestions(ctx context.Context, projectID string) ([]types.Question, error) {
	return m.questions, nil
}

func (m *mockBackend) GenerateQuestions(ctx context.Context, req QuestionRequest) ([]types.Question, error) {
	m.questionCalls = append(m.questionCalls, req)
	var out []types.Question
	for i := 0; i < req.Count; i++ {
		m.seq++
		q := types.Question{ID: fmt.Sprintf("q%d", m.seq), ProjectID: req.ProjectID, Label: req.CurrentTag, Question: "Q?"}
		m.questions = append(m.questions, q)
		out = append(out, q)
	}
	return out, nil
}

func (m *mockBackend) GenerateDataset(ctx context.Context, projectID, questionID string) error {
	m.datasetCalls = append(m.datasetCalls, questionID)
	if questionID == m.failDataset {
		return fmt.Errorf("answer failed")
	}
	for i := range m.questions {
		if m.questions[i].ID == questionID {
			m.questions[i].Answered = true
		}
	}
	return nil
}

type recordObserver struct {
	stages []string
	logs   []string
	last   types.DistillProgress
}

func (r *recordObserver) OnProgress(p types.DistillProgress) {
	if len(r.stages) == 0 || r.stages[len(r.stages)-1] != p.Stage {
		r.stages = append(r.stages, p.Stage)
	}
	r.last = p
}

func (r *recordObserver) OnLog(message string) {
	r.logs = append(r.logs, message)
}

func newConfig(levels, tags, questions int) Config {
	return Config{
		ProjectID: "p1",
		DistillationNote: types.DistillationNote{
			Topic:           "Cars",
			Levels:          levels,
			TagsPerLevel:    tags,
			QuestionsPerTag: questions,
		},
	}
}

func TestNeededCount(t *testing.T) {
	assert.Equal(t, 3, NeededCount(10, 7))
	assert.Equal(t, 0, NeededCount(10, 10))
	assert.Equal(t, 0, NeededCount(10, 12))
	assert.Equal(t, 8, TagsTotal(2, 3))
}

func TestRunBuildsFullTree(t *testing.T) {
	backend := &mockBackend{}
	obs := &recordObserver{}

	progress, err := NewOrchestrator(backend, obs, newConfig(2, 2, 3)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"initializing", "level1", "level2", "questions", "datasets", "completed"}, obs.stages)
	assert.Equal(t, 4, progress.TagsTotal)
	assert.Equal(t, 6, progress.TagsBuilt)
	assert.Equal(t, 12, progress.QuestionsTotal)
	assert.Equal(t, 12, progress.QuestionsBuilt)
	assert.Equal(t, 12, progress.DatasetsTotal)
	assert.Equal(t, 12, progress.DatasetsBuilt)
	assert.Equal(t, progress, obs.last)

	// 第一层的父标签为主题
	assert.Equal(t, "Cars", backend.tagCalls[0].ParentTag)
	assert.Equal(t, "", backend.tagCalls[0].ParentTagID)
	assert.Equal(t, "Cars > 1 Cars-1", backend.tagCalls[1].TagPath)
	assert.Equal(t, "1 Cars-1 > 1 1 Cars-1-1", backend.questionCalls[0].TagPath)
}

func TestRunSkipsSatisfiedTagsAndQuestions(t *testing.T) {
	backend := &mockBackend{
		tags: []types.Tag{
			{ID: "a", ProjectID: "p1", Label: "1 A"},
			{ID: "b", ProjectID: "p1", Label: "2 B"},
		},
	}
	for i := 0; i < 10; i++ {
		backend.questions = append(backend.questions, types.Question{ID: fmt.Sprintf("a%d", i), Label: "1 A", Answered: true})
	}
	for i := 0; i < 7; i++ {
		backend.questions = append(backend.questions, types.Question{ID: fmt.Sprintf("b%d", i), Label: "2 B", Answered: true})
	}
	obs := &recordObserver{}

	progress, err := NewOrchestrator(backend, obs, newConfig(1, 2, 10)).Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, backend.tagCalls)
	require.Len(t, backend.questionCalls, 1)
	assert.Equal(t, "2 B", backend.questionCalls[0].CurrentTag)
	assert.Equal(t, 3, backend.questionCalls[0].Count)
	assert.True(t, lo.SomeBy(obs.logs, func(l string) bool { return l == `Tag "1 A" already has 10 questions, no generation needed` }))

	assert.Equal(t, 20, progress.DatasetsTotal)
	assert.Equal(t, 20, progress.DatasetsBuilt)
	assert.Len(t, backend.datasetCalls, 3)
}

func TestRunContinuesAfterItemFailures(t *testing.T) {
	backend := &mockBackend{failTagsFor: "1 Cars-1"}
	obs := &recordObserver{}

	progress, err := NewOrchestrator(backend, obs, newConfig(2, 2, 1)).Run(context.Background())
	require.NoError(t, err)

	// 第一个一级标签下的子标签生成失败，只剩第二个分支的叶子
	assert.Equal(t, 4, progress.TagsBuilt)
	assert.Equal(t, 2, progress.QuestionsTotal)
	assert.Equal(t, 2, progress.QuestionsBuilt)
	assert.True(t, lo.SomeBy(obs.logs, func(l string) bool { return l == `Failed to build level 2 tags for "1 Cars-1": model unavailable` }))
	assert.Equal(t, STAGE_COMPLETED, progress.Stage)
}

func TestRunDatasetFailureIsLogged(t *testing.T) {
	backend := &mockBackend{failDataset: "q4"}
	obs := &recordObserver{}

	progress, err := NewOrchestrator(backend, obs, newConfig(1, 2, 1)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, progress.DatasetsTotal)
	assert.Equal(t, 1, progress.DatasetsBuilt)
}

func TestRunSkipDatasets(t *testing.T) {
	backend := &mockBackend{}
	cfg := newConfig(1, 1, 1)
	cfg.SkipDatasets = true
	obs := &recordObserver{}

	_, err := NewOrchestrator(backend, obs, cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, backend.datasetCalls)
	assert.NotContains(t, obs.stages, STAGE_DATASETS)
}

func TestRunStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewOrchestrator(&mockBackend{}, nil, newConfig(1, 1, 1)).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	_, err := NewOrchestrator(&mockBackend{}, nil, newConfig(0, 1, 1)).Run(context.Background())
	assert.True(t, errors.Is(err, errors.ErrParameter))

	cfg := newConfig(1, 1, 1)
	cfg.Topic = " "
	_, err = NewOrchestrator(&mockBackend{}, nil, cfg).Run(context.Background())
	assert.True(t, errors.Is(err, errors.ErrParameter))
}
