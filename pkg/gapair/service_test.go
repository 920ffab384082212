package gapair

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easy-dataset/easy-dataset/pkg/ai"
	"github.com/easy-dataset/easy-dataset/pkg/errors"
	"github.com/easy-dataset/easy-dataset/pkg/types"
)

type mockLLM struct {
	reply   string
	err     error
	prompts []string
	opts    []ai.ChatOptions
}

func (m *mockLLM) Chat(ctx context.Context, msgs []ai.MessageContext, opts ...ai.ChatOption) (ai.GenerateResponse, error) {
	m.prompts = append(m.prompts, msgs[len(msgs)-1].Content)
	m.opts = append(m.opts, ai.NewChatOptions(opts...))
	if m.err != nil {
		return ai.GenerateResponse{}, m.err
	}
	return ai.GenerateResponse{Received: []string{m.reply}}, nil
}

func (m *mockLLM) ModelName() string { return "mock" }

type memFiles struct {
	files []types.UploadFile
}

func (s *memFiles) Get(ctx context.Context, projectID, id string) (*types.UploadFile, error) {
	f, ok := lo.Find(s.files, func(f types.UploadFile) bool { return f.ID == id && f.ProjectID == projectID })
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &f, nil
}

func (s *memFiles) List(ctx context.Context, opts types.ListUploadFileOptions) ([]types.UploadFile, error) {
	return lo.Filter(s.files, func(f types.UploadFile, _ int) bool {
		return f.ProjectID == opts.ProjectID && (len(opts.FileIDs) == 0 || lo.Contains(opts.FileIDs, f.ID))
	}), nil
}

type memPairs struct {
	pairs map[string][]types.GaPair
}

func (s *memPairs) List(ctx context.Context, projectID, fileID string) ([]types.GaPair, error) {
	return s.pairs[fileID], nil
}

func (s *memPairs) FilesWithPairs(ctx context.Context, projectID string, fileIDs []string) ([]string, error) {
	return lo.Filter(fileIDs, func(id string, _ int) bool { return len(s.pairs[id]) > 0 }), nil
}

func (s *memPairs) Replace(ctx context.Context, projectID, fileID string, pairs []types.GaPair) error {
	s.pairs[fileID] = pairs
	return nil
}

func (s *memPairs) SetActive(ctx context.Context, projectID, fileID, id string, active bool) error {
	for i, p := range s.pairs[fileID] {
		if p.ID == id {
			s.pairs[fileID][i].IsActive = active
			return nil
		}
	}
	return sql.ErrNoRows
}

type memLoader map[string]string

func (l memLoader) ReadFile(ctx context.Context, projectID, relPath string) ([]byte, error) {
	content, ok := l[relPath]
	if !ok {
		return nil, fmt.Errorf("open %s: no such file", relPath)
	}
	return []byte(content), nil
}

func newTestService() (*Service, *memFiles, *memPairs, memLoader) {
	files := &memFiles{files: []types.UploadFile{
		{ID: "f1", ProjectID: "p1", FileName: "guide.pdf", Path: "guide.pdf"},
		{ID: "f2", ProjectID: "p1", FileName: "notes.md", Path: "notes.md"},
		{ID: "f3", ProjectID: "p1", FileName: "reports/q1.docx", Path: "reports/q1.docx"},
	}}
	pairs := &memPairs{pairs: map[string][]types.GaPair{}}
	loader := memLoader{
		"guide.md":      "a guide about engines",
		"notes.md":      "some notes",
		"reports/q1.md": "quarterly report",
	}
	return NewService(files, pairs, loader), files, pairs, loader
}

func TestTruncateContent(t *testing.T) {
	assert.Equal(t, "short", TruncateContent("short"))
	long := strings.Repeat("字", MAX_CONTENT_LENGTH+10)
	got := TruncateContent(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, MAX_CONTENT_LENGTH+3, len([]rune(got)))
}

func TestGenerateOptions(t *testing.T) {
	svc, _, _, _ := newTestService()
	llm := &mockLLM{reply: validPairs}

	pairs, err := svc.Generate(context.Background(), llm, "en", "content")
	require.NoError(t, err)
	assert.Len(t, pairs, PAIR_COUNT)
	require.Len(t, llm.opts, 1)
	assert.InDelta(t, 0.7, *llm.opts[0].Temperature, 0.001)
	assert.Equal(t, 2000, llm.opts[0].MaxTokens)
	assert.Contains(t, llm.prompts[0], "content")
}

func TestGenerateModelErrors(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Generate(context.Background(), nil, "en", "content")
	assert.True(t, errors.Is(err, errors.ErrConfiguration))

	_, err = svc.Generate(context.Background(), &mockLLM{err: assert.AnError}, "en", "content")
	assert.True(t, errors.Is(err, errors.ErrExternalService))

	_, err = svc.Generate(context.Background(), &mockLLM{reply: "  "}, "en", "content")
	assert.True(t, errors.Is(err, errors.ErrExternalService))

	// 无法解析时回退为默认组合而不是报错
	pairs, err := svc.Generate(context.Background(), &mockLLM{reply: "sorry"}, "en", "content")
	require.NoError(t, err)
	assert.Equal(t, Fallbacks(), pairs)
}

func TestGenerateForFileReadsConvertedMarkdown(t *testing.T) {
	svc, _, pairs, _ := newTestService()
	llm := &mockLLM{reply: validPairs}

	res, err := svc.GenerateForFile(context.Background(), llm, "en", "p1", "f1", GenerateOptions{})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.False(t, res.Skipped)
	assert.Contains(t, llm.prompts[0], "a guide about engines")

	saved := pairs.pairs["f1"]
	require.Len(t, saved, PAIR_COUNT)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, lo.Map(saved, func(p types.GaPair, _ int) int { return p.PairNumber }))
	assert.True(t, lo.EveryBy(saved, func(p types.GaPair) bool { return p.IsActive && p.FileID == "f1" }))
}

func TestGenerateForFileReturnsExisting(t *testing.T) {
	svc, _, pairs, _ := newTestService()
	pairs.pairs["f2"] = []types.GaPair{{ID: "x", FileID: "f2", GenreTitle: "G", AudienceTitle: "A", IsActive: true}}
	llm := &mockLLM{reply: validPairs}

	res, err := svc.GenerateForFile(context.Background(), llm, "en", "p1", "f2", GenerateOptions{})
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Len(t, res.GaPairs, 1)
	assert.Empty(t, llm.prompts)

	res, err = svc.GenerateForFile(context.Background(), llm, "en", "p1", "f2", GenerateOptions{Regenerate: true})
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Len(t, pairs.pairs["f2"], PAIR_COUNT)
}

func TestMerge(t *testing.T) {
	existing := []types.GaPair{
		{ID: "a", GenreTitle: "Tutorial", AudienceTitle: "beginners", IsActive: true},
		{ID: "b", GenreTitle: "Poem", AudienceTitle: "Kids", IsActive: false},
	}
	merged := Merge(existing, Parse(validPairs))

	titles := lo.Map(merged, func(p types.GaPair, _ int) string { return p.GenreTitle })
	// Tutorial|Beginners 已存在，停用的 Poem 被丢弃
	assert.Equal(t, []string{"Tutorial", "Reference", "Professional Manual", "Popular Science", "Technical Documentation"}, titles)
	assert.Equal(t, "a", merged[0].ID)
}

func TestGenerateForFileAppendMode(t *testing.T) {
	svc, _, pairs, _ := newTestService()
	pairs.pairs["f2"] = []types.GaPair{
		{ID: "x", FileID: "f2", PairNumber: 1, GenreTitle: "Tutorial", AudienceTitle: "Beginners", IsActive: true},
		{ID: "y", FileID: "f2", PairNumber: 2, GenreTitle: "Story", AudienceTitle: "Kids", IsActive: true},
	}

	_, err := svc.GenerateForFile(context.Background(), &mockLLM{reply: validPairs}, "en", "p1", "f2", GenerateOptions{AppendMode: true})
	require.NoError(t, err)

	saved := pairs.pairs["f2"]
	require.Len(t, saved, 6)
	assert.Equal(t, "Story", saved[1].GenreTitle)
	assert.Equal(t, "Reference", saved[2].GenreTitle)
	assert.Equal(t, 6, saved[5].PairNumber)
}

func TestReplace(t *testing.T) {
	svc, _, pairs, _ := newTestService()

	saved, err := svc.Replace(context.Background(), "p1", "f1", []PairUpdate{
		{GenreTitle: "G1", AudienceTitle: "A1"},
		{GenreTitle: "G2", AudienceTitle: "A2", GenreDesc: "desc", IsActive: lo.ToPtr(false)},
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, 1, saved[0].PairNumber)
	assert.True(t, saved[0].IsActive)
	assert.Equal(t, "", saved[0].GenreDesc)
	assert.Equal(t, 2, saved[1].PairNumber)
	assert.False(t, saved[1].IsActive)
	assert.Equal(t, saved, pairs.pairs["f1"])

	_, err = svc.Replace(context.Background(), "p1", "f1", []PairUpdate{{GenreTitle: "only genre"}})
	assert.True(t, errors.Is(err, errors.ErrParameter))
}

func TestToggle(t *testing.T) {
	svc, _, pairs, _ := newTestService()
	pairs.pairs["f1"] = []types.GaPair{{ID: "g1", FileID: "f1", IsActive: true}}

	p, err := svc.Toggle(context.Background(), "p1", "f1", "g1", false)
	require.NoError(t, err)
	assert.False(t, p.IsActive)

	_, err = svc.Toggle(context.Background(), "p1", "f1", "", false)
	assert.True(t, errors.Is(err, errors.ErrParameter))
}

func TestBatchGenerate(t *testing.T) {
	svc, _, pairs, loader := newTestService()
	pairs.pairs["f2"] = []types.GaPair{{ID: "x", FileID: "f2", GenreTitle: "G", AudienceTitle: "A", IsActive: true}}
	delete(loader, "reports/q1.md")
	llm := &mockLLM{reply: validPairs}

	res, err := svc.BatchGenerate(context.Background(), llm, "en", "p1", BatchRequest{FileIDs: []string{"f1", "f2", "f3"}})
	require.NoError(t, err)
	require.Len(t, res.Results, 3)

	byID := lo.KeyBy(res.Results, func(r FileResult) string { return r.FileID })
	assert.True(t, byID["f1"].Success)
	assert.True(t, byID["f2"].Skipped)
	assert.False(t, byID["f3"].Success)
	assert.NotEmpty(t, byID["f3"].Error)

	assert.Equal(t, BatchSummary{Total: 3, Success: 2, Failure: 1, Skipped: 1}, res.Summary)
	assert.Len(t, llm.prompts, 1)
}

func TestBatchGeneratePattern(t *testing.T) {
	svc, _, pairs, _ := newTestService()
	llm := &mockLLM{reply: validPairs}

	res, err := svc.BatchGenerate(context.Background(), llm, "en", "p1", BatchRequest{Pattern: "reports/**"})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "f3", res.Results[0].FileID)
	assert.Len(t, pairs.pairs["f3"], PAIR_COUNT)

	_, err = svc.BatchGenerate(context.Background(), llm, "en", "p1", BatchRequest{Pattern: "*.xlsx"})
	assert.True(t, errors.Is(err, errors.ErrParameter))

	_, err = svc.BatchGenerate(context.Background(), llm, "en", "p1", BatchRequest{})
	assert.True(t, errors.Is(err, errors.ErrParameter))

	_, err = svc.BatchGenerate(context.Background(), nil, "en", "p1", BatchRequest{FileIDs: []string{"f1"}})
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}
