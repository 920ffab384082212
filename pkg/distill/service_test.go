package distill

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

type replyLLM struct {
	reply   string
	prompts []string
}

func (m *replyLLM) Chat(ctx context.Context, msgs []ai.MessageContext, opts ...ai.ChatOption) (ai.GenerateResponse, error) {
	m.prompts = append(m.prompts, msgs[len(msgs)-1].Content)
	return ai.GenerateResponse{Received: []string{m.reply}}, nil
}

func (m *replyLLM) ModelName() string { return "mock" }

type memStore struct {
	tags      []types.Tag
	chunks    []types.Chunk
	questions []types.Question
}

func (s *memStore) List(ctx context.Context, projectID string) ([]types.Tag, error) {
	return s.tags, nil
}

func (s *memStore) ListByParent(ctx context.Context, projectID, parentID string) ([]types.Tag, error) {
	return lo.Filter(s.tags, func(t types.Tag, _ int) bool { return t.Parent() == parentID }), nil
}

func (s *memStore) BatchCreate(ctx context.Context, data []types.Tag) error {
	s.tags = append(s.tags, data...)
	return nil
}

type memChunks struct{ *memStore }

func (s memChunks) GetByName(ctx context.Context, projectID, name string) (*types.Chunk, error) {
	c, ok := lo.Find(s.chunks, func(c types.Chunk) bool { return c.Name == name })
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (s memChunks) Create(ctx context.Context, data types.Chunk) error {
	s.chunks = append(s.chunks, data)
	return nil
}

type memQuestions struct{ *memStore }

func (s memQuestions) List(ctx context.Context, opts types.ListQuestionOptions) ([]types.Question, error) {
	return lo.Filter(s.questions, func(q types.Question, _ int) bool {
		return q.ChunkID == opts.ChunkID && (opts.Label == "" || q.Label == opts.Label)
	}), nil
}

func (s memQuestions) BatchCreate(ctx context.Context, data []types.Question) error {
	s.questions = append(s.questions, data...)
	return nil
}

func newTestService(store *memStore) *Service {
	return NewService(store, memChunks{store}, memQuestions{store}, nil, nil)
}

func TestGenerateTags(t *testing.T) {
	store := &memStore{tags: []types.Tag{{ID: "r", Label: "1 Cars"}, {ID: "x", ParentID: types.NewParentID("r"), Label: "1.1 Brands"}}}
	llm := &replyLLM{reply: `["1.1 Brands", "1.2 Models", "1.3 Engines", "1.4 Tyres"]`}

	tags, err := newTestService(store).Bind(llm, "en").GenerateTags(context.Background(), TagRequest{
		ProjectID: "p1", ParentTag: "1 Cars", ParentTagID: "r", Count: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"1.2 Models", "1.3 Engines"}, lo.Map(tags, func(t types.Tag, _ int) string { return t.Label }))
	assert.True(t, lo.EveryBy(tags, func(t types.Tag) bool { return t.Parent() == "r" && t.ID != "" }))
	assert.Len(t, store.tags, 4)
	assert.Contains(t, llm.prompts[0], "Existing tags: 1.1 Brands")
	assert.Contains(t, llm.prompts[0], "Tag hierarchy path: 1 Cars")
}

func TestGenerateTagsFallsBackToQuotedStrings(t *testing.T) {
	store := &memStore{}
	llm := &replyLLM{reply: `Sure! Here are the tags: "1 Physics" and "2 Chemistry"`}

	tags, err := newTestService(store).Bind(llm, "zh-CN").GenerateTags(context.Background(), TagRequest{
		ProjectID: "p1", ParentTag: "Science", Count: 5,
	})
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "1 Physics", tags[0].Label)
	assert.False(t, tags[0].ParentID.Valid)
}

func TestGenerateTagsRequiresParent(t *testing.T) {
	_, err := newTestService(&memStore{}).Bind(&replyLLM{}, "en").GenerateTags(context.Background(), TagRequest{ProjectID: "p1"})
	assert.True(t, errors.Is(err, errors.ErrParameter))
}

func TestGenerateQuestionsCreatesDistilledChunkAndDedups(t *testing.T) {
	store := &memStore{}
	svc := newTestService(store)
	llm := &replyLLM{reply: "```json\n[\"What is torque?\", \"What is torque?\", \"How do pistons move?\"]\n```"}

	session := svc.Bind(llm, "en")
	req := QuestionRequest{ProjectID: "p1", TagPath: "1 Cars > 1.1 Engines", CurrentTag: "1.1 Engines", Count: 3}
	first, err := session.GenerateQuestions(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, first, 2)

	require.Len(t, store.chunks, 1)
	assert.Equal(t, types.DISTILLED_CHUNK_NAME, store.chunks[0].Name)
	assert.Equal(t, types.DISTILLED_CHUNK_FILE_ID, store.chunks[0].FileID)
	assert.True(t, lo.EveryBy(first, func(q types.Question) bool { return q.ChunkID == store.chunks[0].ID }))

	// 第二次调用复用蒸馏分块，已有问题不会重复保存
	second, err := session.GenerateQuestions(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, second)
	assert.Len(t, store.chunks, 1)
	assert.True(t, strings.Contains(llm.prompts[1], "What is torque?"))

	all, err := svc.DistilledQuestions(context.Background(), "p1")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDistilledQuestionsWithoutChunk(t *testing.T) {
	all, err := newTestService(&memStore{}).DistilledQuestions(context.Background(), "p1")
	require.NoError(t, err)
	assert.Empty(t, all)
}
