package types

import (
	"encoding/json"

	sq "github.com/Masterminds/squirrel"
)

type TaskStatus int

const (
	TASK_STATUS_RUNNING   TaskStatus = 0
	TASK_STATUS_COMPLETED TaskStatus = 1
	TASK_STATUS_FAILED    TaskStatus = 2
	TASK_STATUS_ABORTED   TaskStatus = 3
)

// Terminal 除 running 以外的状态都是终态
func (s TaskStatus) Terminal() bool {
	return s != TASK_STATUS_RUNNING
}

func (s TaskStatus) Valid() bool {
	return s >= TASK_STATUS_RUNNING && s <= TASK_STATUS_ABORTED
}

func (s TaskStatus) String() string {
	switch s {
	case TASK_STATUS_RUNNING:
		return "running"
	case TASK_STATUS_COMPLETED:
		return "completed"
	case TASK_STATUS_FAILED:
		return "failed"
	case TASK_STATUS_ABORTED:
		return "aborted"
	default:
		return "unknown"
	}
}

const (
	TASK_TYPE_PDF_PROCESSING      = "pdf-processing"
	TASK_TYPE_TEXT_PROCESSING     = "text-processing"
	TASK_TYPE_QUESTION_GENERATION = "question-generation"
	TASK_TYPE_ANSWER_GENERATION   = "answer-generation"
	TASK_TYPE_DATA_DISTILLATION   = "data-distillation"
)

var taskTypes = map[string]bool{
	TASK_TYPE_PDF_PROCESSING:      true,
	TASK_TYPE_TEXT_PROCESSING:     true,
	TASK_TYPE_QUESTION_GENERATION: true,
	TASK_TYPE_ANSWER_GENERATION:   true,
	TASK_TYPE_DATA_DISTILLATION:   true,
}

func IsValidTaskType(t string) bool {
	return taskTypes[t]
}

// Task 异步任务记录，对应 eds_task 表
type Task struct {
	ID             string          `json:"id" db:"id"`
	ProjectID      string          `json:"projectId" db:"project_id"`
	TaskType       string          `json:"taskType" db:"task_type"`
	Status         TaskStatus      `json:"status" db:"status"`
	ModelInfo      json.RawMessage `json:"modelInfo" db:"model_info"`
	Language       string          `json:"language" db:"language"`
	Detail         string          `json:"detail" db:"detail"` // 进度信息，每次整体覆盖
	Note           string          `json:"note" db:"note"`     // 创建时的输入参数，只读
	TotalCount     int64           `json:"totalCount" db:"total_count"`
	CompletedCount int64           `json:"completedCount" db:"completed_count"`
	StartTime      int64           `json:"startTime" db:"start_time"`
	EndTime        int64           `json:"endTime" db:"end_time"`
	CreatedAt      int64           `json:"createAt" db:"created_at"`
	UpdatedAt      int64           `json:"updatedAt" db:"updated_at"`
}

// Model decodes the model snapshot the task was created with.
func (t *Task) Model() (*ModelConfig, error) {
	if len(t.ModelInfo) == 0 || string(t.ModelInfo) == "null" {
		return nil, nil
	}
	var m ModelConfig
	if err := json.Unmarshal(t.ModelInfo, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

type ListTaskOptions struct {
	ProjectID string
	TaskType  string
	Status    *TaskStatus
}

func (opts ListTaskOptions) Apply(query *sq.SelectBuilder) {
	if opts.ProjectID != "" {
		*query = query.Where(sq.Eq{"project_id": opts.ProjectID})
	}
	if opts.TaskType != "" {
		*query = query.Where(sq.Eq{"task_type": opts.TaskType})
	}
	if opts.Status != nil {
		*query = query.Where(sq.Eq{"status": *opts.Status})
	}
}

// TaskProgressUpdate 一次进度写入，detail 为已序列化的进度结构
type TaskProgressUpdate struct {
	CompletedCount int64
	TotalCount     *int64
	Detail         string
}

// TaskFile 任务引用的文件
type TaskFile struct {
	FileID    string `json:"fileId"`
	FileName  string `json:"fileName"`
	PageCount int    `json:"pageCount,omitempty"`
}

const (
	PDF_STRATEGY_DEFAULT = "default"
	PDF_STRATEGY_MINERU  = "mineru"
	PDF_STRATEGY_VISION  = "vision"

	DOMAIN_TREE_REBUILD = "rebuild"
	DOMAIN_TREE_APPEND  = "append"
	DOMAIN_TREE_KEEP    = "keep"
)

// FileProcessingNote pdf-processing / text-processing 任务的输入参数
type FileProcessingNote struct {
	FileList         []TaskFile `json:"fileList"`
	Strategy         string     `json:"strategy"`
	DomainTreeAction string     `json:"domainTreeAction"`
	VisionModelID    string     `json:"visionModelId,omitempty"`
}

// QuestionGenerationNote question-generation 任务的输入参数，ChunkIDs 为空时处理全部未生成问题的分块
type QuestionGenerationNote struct {
	ChunkIDs    []string `json:"chunkIds,omitempty"`
	EnableGaExp bool     `json:"enableGaExpansion,omitempty"`
}

// AnswerGenerationNote answer-generation 任务的输入参数
type AnswerGenerationNote struct {
	QuestionIDs []string `json:"questionIds,omitempty"`
}

// DistillationNote data-distillation 任务的输入参数
type DistillationNote struct {
	Topic           string `json:"topic"`
	Levels          int    `json:"levels"`
	TagsPerLevel    int    `json:"tagsPerLevel"`
	QuestionsPerTag int    `json:"questionsPerTag"`
	SkipDatasets    bool   `json:"skipDatasets,omitempty"`
}
