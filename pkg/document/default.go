package document

import (
	"context"
	"log/slog"

	"github.com/easy-dataset/easy-dataset/pkg/types"
)

// DefaultStrategy 使用 MuPDF 本地提取文本，不调用模型
type DefaultStrategy struct{}

func NewDefaultStrategy() *DefaultStrategy {
	return &DefaultStrategy{}
}

func (s *DefaultStrategy) Name() string {
	return types.PDF_STRATEGY_DEFAULT
}

func (s *DefaultStrategy) Process(ctx context.Context, req Request) Result {
	if err := ctx.Err(); err != nil {
		return Failed(err)
	}
	content, pages, err := extractPDFMarkdown(req.SourcePath(), req.progress)
	if err != nil {
		slog.Error("default strategy failed", slog.String("file", req.FileName), slog.String("error", err.Error()))
		return Failed(err)
	}

	name := MarkdownName(req.FileName)
	path, err := writeMarkdown(req.FilesDir, name, content)
	if err != nil {
		return Failed(err)
	}
	return Succeeded(&Output{MarkdownName: name, MarkdownPath: path, Pages: pages})
}
