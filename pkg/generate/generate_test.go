package generate

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easy-dataset/easy-dataset/pkg/ai"
	"github.com/easy-dataset/easy-dataset/pkg/errors"
	"github.com/easy-dataset/easy-dataset/pkg/types"
)

// scriptLLM 根据提示词中的关键字返回预设内容
type scriptLLM struct {
	replies map[string]string
	prompts []string
	err     error
}

func (m *scriptLLM) Chat(ctx context.Context, msgs []ai.MessageContext, opts ...ai.ChatOption) (ai.GenerateResponse, error) {
	prompt := msgs[len(msgs)-1].Content
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return ai.GenerateResponse{}, m.err
	}
	for key, reply := range m.replies {
		if strings.Contains(prompt, key) {
			return ai.GenerateResponse{Received: []string{reply}, Model: "mock"}, nil
		}
	}
	return ai.GenerateResponse{Received: []string{"[]"}, Model: "mock"}, nil
}

func (m *scriptLLM) ModelName() string { return "mock" }

type memoryStore struct {
	questions map[string]types.Question
	chunks    map[string]types.Chunk
	datasets  []types.Dataset
	pairs     []types.GaPair
	tags      []types.Tag
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		questions: map[string]types.Question{},
		chunks:    map[string]types.Chunk{},
	}
}

func (s *memoryStore) Get(ctx context.Context, projectID, id string) (*types.Question, error) {
	q, ok := s.questions[id]
	if !ok || q.ProjectID != projectID {
		return nil, sql.ErrNoRows
	}
	return &q, nil
}

func (s *memoryStore) List(ctx context.Context, opts types.ListQuestionOptions) ([]types.Question, error) {
	return lo.Values(s.questions), nil
}

func (s *memoryStore) BatchCreate(ctx context.Context, data []types.Question) error {
	for _, q := range data {
		s.questions[q.ID] = q
	}
	return nil
}

func (s *memoryStore) SetAnswered(ctx context.Context, projectID, id string, answered bool) error {
	q := s.questions[id]
	q.Answered = answered
	s.questions[id] = q
	return nil
}

type chunkStore struct{ *memoryStore }

func (s chunkStore) Get(ctx context.Context, projectID, id string) (*types.Chunk, error) {
	c, ok := s.chunks[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

type datasetStore struct{ *memoryStore }

func (s datasetStore) Create(ctx context.Context, data types.Dataset) error {
	s.datasets = append(s.datasets, data)
	return nil
}

type pairStore struct{ *memoryStore }

func (s pairStore) List(ctx context.Context, projectID, fileID string) ([]types.GaPair, error) {
	return lo.Filter(s.pairs, func(p types.GaPair, _ int) bool { return p.FileID == fileID }), nil
}

type tagStore struct{ *memoryStore }

func (s tagStore) List(ctx context.Context, projectID string) ([]types.Tag, error) {
	return s.tags, nil
}

func TestQuestionCount(t *testing.T) {
	assert.Equal(t, 1, QuestionCount("short", 240))
	assert.Equal(t, 4, QuestionCount(strings.Repeat("字", 1000), 240))
	assert.Equal(t, 2, QuestionCount(strings.Repeat("a", 480), 0))
}

func TestGenerateQuestionsWithLabels(t *testing.T) {
	store := newMemoryStore()
	store.tags = []types.Tag{
		{ID: "t1", ProjectID: "p1", Label: "1 Vehicles"},
		{ID: "t2", ProjectID: "p1", ParentID: types.NewParentID("t1"), Label: "1.1 Engines"},
	}
	llm := &scriptLLM{replies: map[string]string{
		"Choose the best matching label": `[{"question":"How does an engine work?","label":"1.1 Engines"},{"question":"Why?","label":"unknown"}]`,
		"Role Mission":                   "```json\n[\"How does an engine work?\", \"Why?\"]\n```",
	}}

	g := NewQuestionGenerator(store, tagStore{store}, pairStore{store}, nil)
	g.random = func() float64 { return 0.99 }

	chunk := types.Chunk{ID: "c1", ProjectID: "p1", FileID: "f1", Name: "doc-part-1", Content: "engines are machines"}
	created, err := g.Generate(context.Background(), llm, chunk, QuestionOptions{Language: "en", Settings: types.DefaultTaskConfig()})
	require.NoError(t, err)
	require.Len(t, created, 2)

	labels := lo.SliceToMap(created, func(q types.Question) (string, string) { return q.Question, q.Label })
	assert.Equal(t, "1.1 Engines", labels["How does an engine work?"])
	assert.Equal(t, "Other", labels["Why?"])
	assert.Len(t, store.questions, 2)
	// 只把叶子标签交给模型
	assert.NotContains(t, llm.prompts[1], "1 Vehicles\n")
}

func TestGenerateQuestionsMasksQuestionMarks(t *testing.T) {
	store := newMemoryStore()
	llm := &scriptLLM{replies: map[string]string{"角色使命": `["什么是发动机？", "为什么?"]`}}

	g := NewQuestionGenerator(store, nil, nil, nil)
	g.random = func() float64 { return 0.1 }

	settings := types.DefaultTaskConfig()
	created, err := g.Generate(context.Background(), llm, types.Chunk{ID: "c1", ProjectID: "p1", Content: "中文内容"}, QuestionOptions{Settings: settings})
	require.NoError(t, err)
	texts := lo.Map(created, func(q types.Question, _ int) string { return q.Question })
	assert.ElementsMatch(t, []string{"什么是发动机", "为什么"}, texts)
	assert.True(t, lo.EveryBy(created, func(q types.Question) bool { return q.Label == "其他" }))
}

func TestGenerateQuestionsPerActiveGaPair(t *testing.T) {
	store := newMemoryStore()
	store.pairs = []types.GaPair{
		{ID: "g1", FileID: "f1", GenreTitle: "Manual", AudienceTitle: "Engineers", IsActive: true},
		{ID: "g2", FileID: "f1", GenreTitle: "Poem", AudienceTitle: "Kids", IsActive: false},
		{ID: "g3", FileID: "f1", GenreTitle: "Guide", AudienceTitle: "Students", IsActive: true},
	}
	llm := &scriptLLM{replies: map[string]string{"Role Mission": `["Q?"]`}}

	g := NewQuestionGenerator(store, nil, pairStore{store}, nil)
	created, err := g.Generate(context.Background(), llm, types.Chunk{ID: "c1", ProjectID: "p1", FileID: "f1", Content: "text"},
		QuestionOptions{Language: "en", EnableGaExp: true})
	require.NoError(t, err)

	require.Len(t, created, 2)
	assert.Equal(t, []string{"g1", "g3"}, lo.Map(created, func(q types.Question, _ int) string { return q.GaPairID.String }))
	require.Len(t, llm.prompts, 2)
	assert.Contains(t, llm.prompts[0], "Manual")
	assert.Contains(t, llm.prompts[1], "Students")
}

func TestGenerateQuestionsModelFailure(t *testing.T) {
	store := newMemoryStore()
	llm := &scriptLLM{err: assert.AnError}
	g := NewQuestionGenerator(store, nil, nil, nil)

	_, err := g.Generate(context.Background(), llm, types.Chunk{ID: "c1", ProjectID: "p1", Content: "text"}, QuestionOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrExternalService))
	assert.Empty(t, store.questions)
}

func TestAnswerGenerator(t *testing.T) {
	store := newMemoryStore()
	store.chunks["c1"] = types.Chunk{ID: "c1", ProjectID: "p1", FileID: "f1", Name: "doc-part-1", Content: "The sky is blue."}
	store.questions["q1"] = types.Question{ID: "q1", ProjectID: "p1", ChunkID: "c1", Label: "Sky", Question: "What color is the sky?"}
	llm := &scriptLLM{replies: map[string]string{"What color": "<think>look up</think>Blue."}}

	g := NewAnswerGenerator(store, chunkStore{store}, datasetStore{store}, pairStore{store}, nil)
	ds, err := g.Generate(context.Background(), llm, "en", "p1", "q1")
	require.NoError(t, err)

	assert.Equal(t, "Blue.", ds.Answer)
	assert.Equal(t, "look up", ds.COT)
	assert.Equal(t, "doc-part-1", ds.ChunkName)
	assert.Equal(t, "Sky", ds.QuestionLabel)
	assert.True(t, store.questions["q1"].Answered)
	assert.Contains(t, llm.prompts[0], "The sky is blue.")
}

func TestAnswerGeneratorDistilledQuestionUsesLabel(t *testing.T) {
	store := newMemoryStore()
	store.chunks["c1"] = types.Chunk{ID: "c1", ProjectID: "p1", Name: types.DISTILLED_CHUNK_NAME, Content: "placeholder"}
	store.questions["q1"] = types.Question{ID: "q1", ProjectID: "p1", ChunkID: "c1", Label: "1.1 Engines", Question: "How?"}
	llm := &scriptLLM{replies: map[string]string{"How?": "Like this."}}

	g := NewAnswerGenerator(store, chunkStore{store}, datasetStore{store}, nil, nil)
	_, err := g.Generate(context.Background(), llm, "en", "p1", "q1")
	require.NoError(t, err)
	assert.Contains(t, llm.prompts[0], "1.1 Engines")
	assert.NotContains(t, llm.prompts[0], "placeholder")
}

func TestAnswerGeneratorErrors(t *testing.T) {
	store := newMemoryStore()
	g := NewAnswerGenerator(store, chunkStore{store}, datasetStore{store}, nil, nil)

	_, err := g.Generate(context.Background(), &scriptLLM{}, "en", "p1", "")
	assert.True(t, errors.Is(err, errors.ErrParameter))

	_, err = g.Generate(context.Background(), &scriptLLM{}, "en", "p1", "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
