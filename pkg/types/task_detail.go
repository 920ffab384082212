package types

import "encoding/json"

// TaskDetail 每种任务类型对应一个进度结构，写入 task.detail 时整体序列化
type TaskDetail interface {
	DetailKind() string
}

// PdfTaskProgress pdf-processing / text-processing
type PdfTaskProgress struct {
	Stage          string   `json:"stage"`
	CurrentFile    string   `json:"currentFile"`
	ProcessedPages int      `json:"processedPages"`
	TotalPages     int      `json:"totalPages"`
	ProcessedFiles int      `json:"processedFiles"`
	TotalFiles     int      `json:"totalFiles"`
	Finished       []string `json:"finished"`
	Errors         []string `json:"errors"`
	Summary        string   `json:"summary,omitempty"`
}

func (*PdfTaskProgress) DetailKind() string { return "pdf" }

// DistillProgress data-distillation
type DistillProgress struct {
	Stage          string   `json:"stage"`
	TagsTotal      int      `json:"tagsTotal"`
	TagsBuilt      int      `json:"tagsBuilt"`
	QuestionsTotal int      `json:"questionsTotal"`
	QuestionsBuilt int      `json:"questionsBuilt"`
	DatasetsTotal  int      `json:"datasetsTotal"`
	DatasetsBuilt  int      `json:"datasetsBuilt"`
	Logs           []string `json:"logs"`
	Summary        string   `json:"summary,omitempty"`
}

func (*DistillProgress) DetailKind() string { return "distill" }

// BatchProgress question-generation / answer-generation
type BatchProgress struct {
	Stage     string   `json:"stage"`
	Total     int      `json:"total"`
	Processed int      `json:"processed"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors"`
	Summary   string   `json:"summary,omitempty"`
}

func (*BatchProgress) DetailKind() string { return "batch" }

const maxDetailLogs = 200

// AppendLog keeps the most recent log lines only.
func (p *DistillProgress) AppendLog(line string) {
	p.Logs = append(p.Logs, line)
	if len(p.Logs) > maxDetailLogs {
		p.Logs = p.Logs[len(p.Logs)-maxDetailLogs:]
	}
}

func MarshalDetail(d TaskDetail) string {
	if d == nil {
		return ""
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return ""
	}
	return string(raw)
}

// NewTaskDetail 根据任务类型返回对应的进度结构
func NewTaskDetail(taskType string) TaskDetail {
	switch taskType {
	case TASK_TYPE_PDF_PROCESSING, TASK_TYPE_TEXT_PROCESSING:
		return &PdfTaskProgress{}
	case TASK_TYPE_DATA_DISTILLATION:
		return &DistillProgress{}
	default:
		return &BatchProgress{}
	}
}

// DecodeTaskDetail parses a stored detail into the record type of taskType.
func DecodeTaskDetail(taskType, raw string) (TaskDetail, error) {
	d := NewTaskDetail(taskType)
	if raw == "" {
		return d, nil
	}
	if err := json.Unmarshal([]byte(raw), d); err != nil {
		return nil, err
	}
	return d, nil
}
