package document

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/easy-dataset/easy-dataset/pkg/errors"
	"github.com/easy-dataset/easy-dataset/pkg/types"
)

// Strategy 将项目内的一个源文件转换为 Markdown
type Strategy interface {
	Name() string
	Process(ctx context.Context, req Request) Result
}

type ProgressFunc func(current, total int)

type Request struct {
	TaskID    string
	ProjectID string
	FileName  string
	// FilesDir 项目文件目录 <root>/<projectId>/files
	FilesDir string
	Language string
	// Model 仅 vision 策略使用
	Model      *types.ModelConfig
	Settings   types.TaskConfig
	OnProgress ProgressFunc
}

func (r Request) SourcePath() string {
	return filepath.Join(r.FilesDir, r.FileName)
}

func (r Request) progress(current, total int) {
	if r.OnProgress != nil {
		r.OnProgress(current, total)
	}
}

type Output struct {
	MarkdownName string `json:"markdownName"`
	MarkdownPath string `json:"markdownPath"`
	Pages        int    `json:"pages"`
}

// Result 策略执行结果，失败时 Error 为可读的错误信息
type Result struct {
	Success bool    `json:"success"`
	Data    *Output `json:"data,omitempty"`
	Error   string  `json:"error,omitempty"`

	err error
}

func Succeeded(out *Output) Result {
	return Result{Success: true, Data: out}
}

func Failed(err error) Result {
	if err == nil {
		err = fmt.Errorf("unknown strategy failure")
	}
	return Result{Success: false, Error: err.Error(), err: err}
}

// Err returns nil on success, otherwise the underlying error.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	if r.err != nil {
		return r.err
	}
	return fmt.Errorf("%s", r.Error)
}

// MarkdownName 转换后的文件名：a.pdf -> a.md
func MarkdownName(fileName string) string {
	ext := filepath.Ext(fileName)
	return strings.TrimSuffix(fileName, ext) + ".md"
}

type Dependencies struct {
	Vision VisionOptions
	MinerU MinerUOptions
}

// New 在任务入口处选择策略，未知策略视为参数错误
func New(name string, deps Dependencies) (Strategy, error) {
	switch name {
	case "", types.PDF_STRATEGY_DEFAULT:
		return NewDefaultStrategy(), nil
	case types.PDF_STRATEGY_MINERU:
		return NewMinerUStrategy(deps.MinerU), nil
	case types.PDF_STRATEGY_VISION:
		return NewVisionStrategy(deps.Vision), nil
	default:
		return nil, errors.Parameter("unsupported pdf strategy %q", name)
	}
}

// IsPDF reports whether fileName is processed by a pdf strategy.
func IsPDF(fileName string) bool {
	return strings.EqualFold(filepath.Ext(fileName), ".pdf")
}

var supportedExts = map[string]bool{
	".pdf":      true,
	".md":       true,
	".markdown": true,
	".txt":      true,
	".html":     true,
	".htm":      true,
	".docx":     true,
}

// IsSupported reports whether fileName can be turned into markdown by some strategy.
func IsSupported(fileName string) bool {
	return supportedExts[strings.ToLower(filepath.Ext(fileName))]
}
