package tasks

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

// memTaskStore 与 sqlstore 一致：只有 running 的任务可以被写入
type memTaskStore struct {
	mu    sync.Mutex
	tasks map[string]types.Task
	// abortAfter 第 n 次进度写入后把任务标记为 aborted
	abortAfter int
	writes     int
}

func newMemTaskStore(tasks ...types.Task) *memTaskStore {
	s := &memTaskStore{tasks: map[string]types.Task{}}
	for _, t := range tasks {
		s.tasks[t.ID] = t
	}
	return s
}

func (s *memTaskStore) GetTask(ctx context.Context, projectID, id string) (*types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.ProjectID != projectID {
		return nil, sql.ErrNoRows
	}
	return &t, nil
}

func (s *memTaskStore) UpdateProgress(ctx context.Context, id string, data types.TaskProgressUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tasks[id]
	if t.Status != types.TASK_STATUS_RUNNING {
		return false, nil
	}
	t.CompletedCount = data.CompletedCount
	if data.TotalCount != nil {
		t.TotalCount = *data.TotalCount
	}
	t.Detail = data.Detail
	s.writes++
	if s.abortAfter > 0 && s.writes >= s.abortAfter {
		t.Status = types.TASK_STATUS_ABORTED
	}
	s.tasks[id] = t
	return true, nil
}

func (s *memTaskStore) Finish(ctx context.Context, id string, status types.TaskStatus, data types.TaskProgressUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tasks[id]
	if t.Status != types.TASK_STATUS_RUNNING {
		return false, nil
	}
	t.Status = status
	t.CompletedCount = data.CompletedCount
	if data.TotalCount != nil {
		t.TotalCount = *data.TotalCount
	}
	t.Detail = data.Detail
	t.EndTime = 1
	s.tasks[id] = t
	return true, nil
}

func (s *memTaskStore) get(id string) types.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks[id]
}

// fakeStrategy 写出 Markdown，failing 中的文件返回失败
type fakeStrategy struct {
	failing map[string]bool
	seen    []string
}

func (s *fakeStrategy) Name() string { return "fake" }

func (s *fakeStrategy) Process(ctx context.Context, req document.Request) document.Result {
	s.seen = append(s.seen, req.FileName)
	if s.failing[req.FileName] {
		return document.Failed(fmt.Errorf("cannot parse %s", req.FileName))
	}
	path := filepath.Join(req.FilesDir, document.MarkdownName(req.FileName))
	if err := os.WriteFile(path, []byte("# "+req.FileName+"\n\ncontent"), 0o644); err != nil {
		return document.Failed(err)
	}
	return document.Succeeded(&document.Output{MarkdownName: document.MarkdownName(req.FileName), MarkdownPath: path})
}

type fakeSplitter struct{ calls int }

func (s *fakeSplitter) SplitProjectFile(ctx context.Context, projectID string, file types.TaskFile, markdownPath string, opts splitter.Options) (*splitter.Result, error) {
	s.calls++
	return &splitter.Result{TOC: "# " + file.FileName, TotalChunks: 1}, nil
}

type fakeTree struct {
	err  error
	reqs []domaintree.Request
}

func (t *fakeTree) Handle(ctx context.Context, req domaintree.Request) ([]*types.TagNode, error) {
	t.reqs = append(t.reqs, req)
	if req.Action == types.DOMAIN_TREE_KEEP {
		return nil, nil
	}
	if t.err != nil {
		return nil, t.err
	}
	return []*types.TagNode{{Label: "1 Root"}}, nil
}

type nopLLM struct{}

func (nopLLM) Chat(ctx context.Context, msgs []ai.MessageContext, opts ...ai.ChatOption) (ai.GenerateResponse, error) {
	return ai.GenerateResponse{Received: []string{"ok"}}, nil
}

func (nopLLM) ModelName() string { return "mock" }

func modelInfo(t *testing.T) json.RawMessage {
	raw, err := json.Marshal(types.ModelConfig{ProviderID: "openai", Endpoint: "http://localhost", ApiKey: "sk", ModelName: "gpt"})
	require.NoError(t, err)
	return raw
}

func fileTask(t *testing.T, action string) types.Task {
	note, err := json.Marshal(types.FileProcessingNote{
		FileList: []types.TaskFile{
			{FileID: "f1", FileName: "a.pdf"},
			{FileID: "f2", FileName: "b.pdf"},
		},
		Strategy:         types.PDF_STRATEGY_DEFAULT,
		DomainTreeAction: action,
	})
	require.NoError(t, err)
	return types.Task{
		ID:        "t1",
		ProjectID: "p1",
		TaskType:  types.TASK_TYPE_PDF_PROCESSING,
		Status:    types.TASK_STATUS_RUNNING,
		ModelInfo: modelInfo(t),
		Language:  "en",
		Note:      string(note),
	}
}

type fileFixture struct {
	store    *memTaskStore
	strategy *fakeStrategy
	split    *fakeSplitter
	tree     *fakeTree
	runner   *Runner
	bus      *eventbus.Bus
}

func newFileFixture(t *testing.T, task types.Task) *fileFixture {
	dir := t.TempDir()
	f := &fileFixture{
		store:    newMemTaskStore(task),
		strategy: &fakeStrategy{failing: map[string]bool{"b.pdf": true}},
		split:    &fakeSplitter{},
		tree:     &fakeTree{},
		bus:      eventbus.New(),
	}
	t.Cleanup(func() { f.bus.Close() })
	pages := map[string]int{"a.pdf": 5, "b.pdf": 3}
	f.runner = NewRunner(Dependencies{
		Tasks:      f.store,
		Splitter:   f.split,
		DomainTree: f.tree,
		FilesDir:   func(string) string { return dir },
		NewLLM:     func(*types.ModelConfig) (ai.LLM, error) { return nopLLM{}, nil },
		PageCount: func(path string) (int, error) {
			n, ok := pages[filepath.Base(path)]
			if !ok {
				return 0, fmt.Errorf("no pages")
			}
			return n, nil
		},
		NewStrategy: func(string, document.Dependencies) (document.Strategy, error) { return f.strategy, nil },
		Bus:         f.bus,
	})
	return f
}

func decodePdfDetail(t *testing.T, task types.Task) *types.PdfTaskProgress {
	var d types.PdfTaskProgress
	require.NoError(t, json.Unmarshal([]byte(task.Detail), &d))
	return &d
}

func TestPdfProcessingKeepCompletesDespiteFileFailure(t *testing.T) {
	f := newFileFixture(t, fileTask(t, types.DOMAIN_TREE_KEEP))

	require.NoError(t, f.runner.Run(context.Background(), "p1", "t1"))

	task := f.store.get("t1")
	assert.Equal(t, types.TASK_STATUS_COMPLETED, task.Status)
	assert.EqualValues(t, 8, task.TotalCount)
	assert.EqualValues(t, 8, task.CompletedCount)

	detail := decodePdfDetail(t, task)
	assert.Equal(t, []string{"a.pdf"}, detail.Finished)
	require.Len(t, detail.Errors, 1)
	assert.Contains(t, detail.Errors[0], "b.pdf")
	assert.Equal(t, 2, detail.ProcessedFiles)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, f.strategy.seen)
	assert.Equal(t, 1, f.split.calls)
}

func TestPdfProcessingRebuildFailsOnDomainTree(t *testing.T) {
	f := newFileFixture(t, fileTask(t, types.DOMAIN_TREE_REBUILD))
	f.tree.err = fmt.Errorf("model unavailable")

	err := f.runner.Run(context.Background(), "p1", "t1")
	require.Error(t, err)
	stage, ok := StageOf(err)
	require.True(t, ok)
	assert.Equal(t, STAGE_DOMAIN_TREE, stage)

	task := f.store.get("t1")
	assert.Equal(t, types.TASK_STATUS_FAILED, task.Status)
	assert.EqualValues(t, 5, task.CompletedCount)
	assert.EqualValues(t, 8, task.TotalCount)
	assert.NotZero(t, task.EndTime)

	require.Len(t, f.tree.reqs, 1)
	assert.Equal(t, "# a.pdf", f.tree.reqs[0].TOC)
	assert.Contains(t, decodePdfDetail(t, task).Summary, "model unavailable")
}

func TestPdfProcessingRebuildSucceeds(t *testing.T) {
	f := newFileFixture(t, fileTask(t, types.DOMAIN_TREE_REBUILD))
	f.strategy.failing = nil
	sub := f.bus.Subscribe("p1", eventbus.KindFileReady, eventbus.KindTaskFinished)
	defer sub.Close()

	require.NoError(t, f.runner.Run(context.Background(), "p1", "t1"))
	task := f.store.get("t1")
	assert.Equal(t, types.TASK_STATUS_COMPLETED, task.Status)
	assert.Equal(t, "# a.pdf\n\n# b.pdf", f.tree.reqs[0].TOC)

	var kinds []eventbus.Kind
	for len(kinds) < 3 {
		kinds = append(kinds, (<-sub.C()).Kind)
	}
	assert.Equal(t, []eventbus.Kind{eventbus.KindFileReady, eventbus.KindFileReady, eventbus.KindTaskFinished}, kinds)
}

func TestPdfProcessingAllFilesFailKeepsTags(t *testing.T) {
	for _, action := range []string{types.DOMAIN_TREE_REBUILD, types.DOMAIN_TREE_APPEND, types.DOMAIN_TREE_KEEP} {
		t.Run(action, func(t *testing.T) {
			f := newFileFixture(t, fileTask(t, action))
			f.strategy.failing = map[string]bool{"a.pdf": true, "b.pdf": true}

			err := f.runner.Run(context.Background(), "p1", "t1")
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrPartialBatch))
			assert.Contains(t, err.Error(), "a.pdf")
			assert.Contains(t, err.Error(), "b.pdf")
			assert.Empty(t, f.tree.reqs)

			task := f.store.get("t1")
			assert.Equal(t, types.TASK_STATUS_FAILED, task.Status)
			assert.EqualValues(t, 0, task.CompletedCount)
			assert.EqualValues(t, 8, task.TotalCount)

			detail := decodePdfDetail(t, task)
			assert.Empty(t, detail.Finished)
			assert.Equal(t, 2, detail.ProcessedFiles)
			assert.Contains(t, detail.Summary, "no file processed")
		})
	}
}

func TestPdfProcessingProbeFailureIsOmitted(t *testing.T) {
	task := fileTask(t, types.DOMAIN_TREE_KEEP)
	note := types.FileProcessingNote{
		FileList:         []types.TaskFile{{FileID: "f1", FileName: "a.pdf"}, {FileID: "f3", FileName: "broken.pdf"}},
		DomainTreeAction: types.DOMAIN_TREE_KEEP,
	}
	raw, _ := json.Marshal(note)
	task.Note = string(raw)
	f := newFileFixture(t, task)

	require.NoError(t, f.runner.Run(context.Background(), "p1", "t1"))
	got := f.store.get("t1")
	assert.Equal(t, types.TASK_STATUS_COMPLETED, got.Status)
	assert.EqualValues(t, 5, got.TotalCount)
	assert.Equal(t, []string{"a.pdf", "broken.pdf"}, f.strategy.seen)
}

func TestPdfProcessingAbortStopsBetweenFiles(t *testing.T) {
	f := newFileFixture(t, fileTask(t, types.DOMAIN_TREE_KEEP))
	f.strategy.failing = nil
	// 初始写入 + 第一个文件完成后被中止
	f.store.abortAfter = 2

	require.NoError(t, f.runner.Run(context.Background(), "p1", "t1"))

	task := f.store.get("t1")
	assert.Equal(t, types.TASK_STATUS_ABORTED, task.Status)
	assert.Equal(t, []string{"a.pdf"}, f.strategy.seen)
	assert.Empty(t, f.tree.reqs)
	assert.Zero(t, task.EndTime)
}

func TestPdfProcessingParameterErrors(t *testing.T) {
	task := fileTask(t, types.DOMAIN_TREE_KEEP)
	task.Note = `{"fileList": []}`
	f := newFileFixture(t, task)

	err := f.runner.Run(context.Background(), "p1", "t1")
	assert.True(t, errors.Is(err, errors.ErrParameter))
	assert.Equal(t, types.TASK_STATUS_FAILED, f.store.get("t1").Status)
	assert.Empty(t, f.strategy.seen)
}

func TestPdfProcessingMissingModel(t *testing.T) {
	task := fileTask(t, types.DOMAIN_TREE_REBUILD)
	task.ModelInfo = nil
	f := newFileFixture(t, task)

	err := f.runner.Run(context.Background(), "p1", "t1")
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
	assert.Empty(t, f.strategy.seen)
}

func TestRunSkipsTerminalTask(t *testing.T) {
	task := fileTask(t, types.DOMAIN_TREE_KEEP)
	task.Status = types.TASK_STATUS_ABORTED
	f := newFileFixture(t, task)

	require.NoError(t, f.runner.Run(context.Background(), "p1", "t1"))
	assert.Empty(t, f.strategy.seen)
}

func TestRunUnknownTaskType(t *testing.T) {
	task := fileTask(t, types.DOMAIN_TREE_KEEP)
	task.TaskType = "export"
	f := newFileFixture(t, task)

	err := f.runner.Run(context.Background(), "p1", "t1")
	assert.True(t, errors.Is(err, errors.ErrParameter))
	assert.Equal(t, types.TASK_STATUS_FAILED, f.store.get("t1").Status)
}

func TestReporterClampsCompleted(t *testing.T) {
	store := newMemTaskStore(types.Task{ID: "t1", ProjectID: "p1", Status: types.TASK_STATUS_RUNNING})
	rep := NewReporter(store, nil, store.get("t1"), nil)
	rep.SetTotal(3)

	require.NoError(t, rep.Progress(context.Background(), 10, &types.BatchProgress{}))
	assert.EqualValues(t, 3, store.get("t1").CompletedCount)

	require.NoError(t, rep.Progress(context.Background(), -1, &types.BatchProgress{}))
	assert.EqualValues(t, 0, store.get("t1").CompletedCount)

	require.NoError(t, rep.Complete(context.Background(), &types.BatchProgress{}))
	got := store.get("t1")
	assert.Equal(t, types.TASK_STATUS_COMPLETED, got.Status)
	assert.EqualValues(t, 3, got.CompletedCount)

	// 终态不会被覆盖
	assert.ErrorIs(t, rep.Progress(context.Background(), 1, &types.BatchProgress{}), ErrAborted)
}

func TestReporterCancelsOnAbort(t *testing.T) {
	store := newMemTaskStore(types.Task{ID: "t1", ProjectID: "p1", Status: types.TASK_STATUS_ABORTED})
	ctx, cancel := context.WithCancelCause(context.Background())
	rep := NewReporter(store, nil, store.get("t1"), cancel)

	assert.ErrorIs(t, rep.Progress(ctx, 1, &types.BatchProgress{}), ErrAborted)
	assert.ErrorIs(t, context.Cause(ctx), ErrAborted)
	assert.ErrorIs(t, rep.Fail(ctx, &types.BatchProgress{}), ErrAborted)
	assert.Equal(t, types.TASK_STATUS_ABORTED, store.get("t1").Status)
}

type memChunks []types.Chunk

func (m memChunks) List(ctx context.Context, opts types.ListChunkOptions) ([]types.Chunk, error) {
	return m, nil
}

type memQuestions struct {
	questions []types.Question
	opts      []types.ListQuestionOptions
}

func (m *memQuestions) List(ctx context.Context, opts types.ListQuestionOptions) ([]types.Question, error) {
	m.opts = append(m.opts, opts)
	return m.questions, nil
}

type fakeQuestionGen struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls []string
}

func (g *fakeQuestionGen) Generate(ctx context.Context, llm ai.LLM, chunk types.Chunk, opts generate.QuestionOptions) ([]types.Question, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, chunk.ID)
	if g.fail[chunk.ID] {
		return nil, errors.External(fmt.Errorf("timeout"), "generate questions")
	}
	return []types.Question{{ChunkID: chunk.ID}}, nil
}

func TestQuestionGenerationTask(t *testing.T) {
	task := types.Task{
		ID: "t1", ProjectID: "p1", TaskType: types.TASK_TYPE_QUESTION_GENERATION,
		Status: types.TASK_STATUS_RUNNING, ModelInfo: modelInfo(t),
	}
	store := newMemTaskStore(task)
	gen := &fakeQuestionGen{fail: map[string]bool{"c3": true}}
	runner := NewRunner(Dependencies{
		Tasks: store,
		Chunks: memChunks{
			{ID: "c1", Name: "a-part-1"},
			{ID: "c2", Name: "a-part-2"},
			{ID: "c3", Name: "a-part-3"},
			{ID: "d", Name: types.DISTILLED_CHUNK_NAME},
		},
		Questions:   &memQuestions{questions: []types.Question{{ChunkID: "c2"}}},
		QuestionGen: gen,
		NewLLM:      func(*types.ModelConfig) (ai.LLM, error) { return nopLLM{}, nil },
	})

	require.NoError(t, runner.Run(context.Background(), "p1", "t1"))
	got := store.get("t1")
	assert.Equal(t, types.TASK_STATUS_COMPLETED, got.Status)
	assert.EqualValues(t, 2, got.TotalCount)
	assert.EqualValues(t, 2, got.CompletedCount)
	assert.ElementsMatch(t, []string{"c1", "c3"}, gen.calls)

	var detail types.BatchProgress
	require.NoError(t, json.Unmarshal([]byte(got.Detail), &detail))
	assert.Equal(t, 1, detail.Succeeded)
	assert.Equal(t, 1, detail.Failed)
	require.Len(t, detail.Errors, 1)
	assert.Contains(t, detail.Errors[0], "a-part-3")
}

type fakeAnswerGen struct {
	mu    sync.Mutex
	calls []string
}

func (g *fakeAnswerGen) Generate(ctx context.Context, llm ai.LLM, lang, projectID, questionID string) (*types.Dataset, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, questionID)
	return &types.Dataset{QuestionID: questionID}, nil
}

func TestAnswerGenerationTask(t *testing.T) {
	task := types.Task{
		ID: "t1", ProjectID: "p1", TaskType: types.TASK_TYPE_ANSWER_GENERATION,
		Status: types.TASK_STATUS_RUNNING, ModelInfo: modelInfo(t), Note: `{"questionIds":["q1","q2"]}`,
	}
	store := newMemTaskStore(task)
	questions := &memQuestions{questions: []types.Question{{ID: "q1"}, {ID: "q2"}}}
	gen := &fakeAnswerGen{}
	runner := NewRunner(Dependencies{
		Tasks:     store,
		Questions: questions,
		AnswerGen: gen,
		NewLLM:    func(*types.ModelConfig) (ai.LLM, error) { return nopLLM{}, nil },
	})

	require.NoError(t, runner.Run(context.Background(), "p1", "t1"))
	assert.Equal(t, types.TASK_STATUS_COMPLETED, store.get("t1").Status)
	assert.ElementsMatch(t, []string{"q1", "q2"}, gen.calls)
	require.Len(t, questions.opts, 1)
	assert.Equal(t, []string{"q1", "q2"}, questions.opts[0].QuestionIDs)
	require.NotNil(t, questions.opts[0].Answered)
	assert.False(t, *questions.opts[0].Answered)
}

// distillBackend 每次生成请求的数量，问题与数据集只计数
type distillBackend struct {
	mu        sync.Mutex
	tags      []types.Tag
	questions []types.Question
	seq       int
}

func (b *distillBackend) ListTags(ctx context.Context, projectID string) ([]types.Tag, error) {
	return b.tags, nil
}

func (b *distillBackend) GenerateTags(ctx context.Context, req distill.TagRequest) ([]types.Tag, error) {
	var out []types.Tag
	for i := 0; i < req.Count; i++ {
		b.seq++
		tag := types.Tag{ID: fmt.Sprintf("t%d", b.seq), ProjectID: req.ProjectID, Label: fmt.Sprintf("%d %s", i+1, req.ParentTag)}
		if req.ParentTagID != "" {
			tag.ParentID = types.NewParentID(req.ParentTagID)
		}
		out = append(out, tag)
	}
	b.tags = append(b.tags, out...)
	return out, nil
}

func (b *distillBackend) ListDistilledQuestions(ctx context.Context, projectID string) ([]types.Question, error) {
	return b.questions, nil
}

func (b *distillBackend) GenerateQuestions(ctx context.Context, req distill.QuestionRequest) ([]types.Question, error) {
	var out []types.Question
	for i := 0; i < req.Count; i++ {
		b.seq++
		out = append(out, types.Question{ID: fmt.Sprintf("q%d", b.seq), Label: req.CurrentTag})
	}
	b.questions = append(b.questions, out...)
	return out, nil
}

func (b *distillBackend) GenerateDataset(ctx context.Context, projectID, questionID string) error {
	return nil
}

func TestDistillationTask(t *testing.T) {
	note, _ := json.Marshal(types.DistillationNote{Topic: "Cars", Levels: 2, TagsPerLevel: 2, QuestionsPerTag: 1})
	task := types.Task{
		ID: "t1", ProjectID: "p1", TaskType: types.TASK_TYPE_DATA_DISTILLATION,
		Status: types.TASK_STATUS_RUNNING, ModelInfo: modelInfo(t), Note: string(note),
	}
	store := newMemTaskStore(task)
	backend := &distillBackend{}
	bus := eventbus.New()
	defer bus.Close()
	logs := bus.Subscribe("p1", eventbus.KindDistillLog)
	defer logs.Close()

	runner := NewRunner(Dependencies{
		Tasks:   store,
		Bus:     bus,
		NewLLM:  func(*types.ModelConfig) (ai.LLM, error) { return nopLLM{}, nil },
		Distill: func(llm ai.LLM, lang string) distill.Backend { return backend },
	})

	require.NoError(t, runner.Run(context.Background(), "p1", "t1"))
	got := store.get("t1")
	assert.Equal(t, types.TASK_STATUS_COMPLETED, got.Status)
	assert.Equal(t, got.TotalCount, got.CompletedCount)
	assert.Positive(t, got.TotalCount)

	var detail types.DistillProgress
	require.NoError(t, json.Unmarshal([]byte(got.Detail), &detail))
	assert.Equal(t, distill.STAGE_COMPLETED, detail.Stage)
	assert.Equal(t, 6, detail.TagsBuilt)
	assert.Equal(t, 4, detail.QuestionsBuilt)
	assert.NotEmpty(t, detail.Logs)

	ev := <-logs.C()
	msg, err := eventbus.Decode[eventbus.DistillLog](ev)
	require.NoError(t, err)
	assert.Contains(t, msg.Message, "Cars")
}

func TestDistillationInvalidConfig(t *testing.T) {
	task := types.Task{
		ID: "t1", ProjectID: "p1", TaskType: types.TASK_TYPE_DATA_DISTILLATION,
		Status: types.TASK_STATUS_RUNNING, ModelInfo: modelInfo(t), Note: `{"topic":""}`,
	}
	store := newMemTaskStore(task)
	runner := NewRunner(Dependencies{
		Tasks:   store,
		NewLLM:  func(*types.ModelConfig) (ai.LLM, error) { return nopLLM{}, nil },
		Distill: func(llm ai.LLM, lang string) distill.Backend { return &distillBackend{} },
	})

	err := runner.Run(context.Background(), "p1", "t1")
	assert.True(t, errors.Is(err, errors.ErrParameter))
	assert.Equal(t, types.TASK_STATUS_FAILED, store.get("t1").Status)
}
