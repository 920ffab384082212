package process

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easy-dataset/easy-dataset/pkg/queue"
	"github.com/easy-dataset/easy-dataset/pkg/types"
)

type mockStaleStore struct {
	tasks    []types.Task
	before   int64
	finished map[string]types.TaskProgressUpdate
	terminal map[string]bool
}

func (m *mockStaleStore) ListStale(ctx context.Context, updatedBefore int64) ([]types.Task, error) {
	m.before = updatedBefore
	return m.tasks, nil
}

func (m *mockStaleStore) Finish(ctx context.Context, id string, status types.TaskStatus, data types.TaskProgressUpdate) (bool, error) {
	if m.terminal[id] {
		return false, nil
	}
	if m.finished == nil {
		m.finished = make(map[string]types.TaskProgressUpdate)
	}
	m.finished[id] = data
	return true, nil
}

func TestStaleSweeper(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	store := &mockStaleStore{
		tasks: []types.Task{
			{ID: "t1", TaskType: types.TASK_TYPE_PDF_PROCESSING, CompletedCount: 2, TotalCount: 5, Detail: `{"stage":"converting"}`},
			{ID: "t2", TaskType: types.TASK_TYPE_DATA_DISTILLATION},
			{ID: "t3", TaskType: types.TASK_TYPE_ANSWER_GENERATION},
		},
		terminal: map[string]bool{"t3": true},
	}
	s := &StaleSweeper{store: store, timeout: 30 * time.Minute, now: func() time.Time { return now }}

	assert.Equal(t, 2, s.Sweep(context.Background()))
	assert.Equal(t, now.Add(-30*time.Minute).Unix(), store.before)

	upd := store.finished["t1"]
	assert.EqualValues(t, 2, upd.CompletedCount)
	require.NotNil(t, upd.TotalCount)
	assert.EqualValues(t, 5, *upd.TotalCount)

	var pdf types.PdfTaskProgress
	require.NoError(t, json.Unmarshal([]byte(upd.Detail), &pdf))
	assert.Equal(t, "converting", pdf.Stage)
	assert.Equal(t, interruptedSummary, pdf.Summary)

	var distill types.DistillProgress
	require.NoError(t, json.Unmarshal([]byte(store.finished["t2"].Detail), &distill))
	assert.Equal(t, []string{interruptedSummary}, distill.Logs)
}

func TestStaleSweeperDisabled(t *testing.T) {
	store := &mockStaleStore{tasks: []types.Task{{ID: "t1"}}}
	s := &StaleSweeper{store: store, now: time.Now}
	assert.Zero(t, s.Sweep(context.Background()))
	assert.Empty(t, store.finished)
}

type mockRunner struct {
	projectID string
	taskID    string
	err       error
}

func (m *mockRunner) Run(ctx context.Context, projectID, taskID string) error {
	m.projectID, m.taskID = projectID, taskID
	return m.err
}

func TestTaskHandler(t *testing.T) {
	runner := &mockRunner{err: errors.New("model timeout")}
	handler := newTaskHandler(runner)

	task, err := queue.NewRunTask(queue.RunTaskPayload{TaskID: "task-1", ProjectID: "p1", TaskType: types.TASK_TYPE_ANSWER_GENERATION})
	require.NoError(t, err)

	// 运行失败已经记录在任务上，不交给 asynq 重试
	assert.NoError(t, handler(context.Background(), task))
	assert.Equal(t, "p1", runner.projectID)
	assert.Equal(t, "task-1", runner.taskID)

	err = handler(context.Background(), asynq.NewTask(queue.TaskTypeRun, []byte(`{}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
