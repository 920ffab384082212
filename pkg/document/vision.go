package document

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/easy-dataset/easy-dataset/pkg/ai"
	"github.com/easy-dataset/easy-dataset/pkg/errors"
	"github.com/easy-dataset/easy-dataset/pkg/types"
)

// Limiter 跨进程的全局并发限制，例如基于 redis 的分布式信号量
type Limiter interface {
	TryAcquire() bool
	Release()
}

type VisionOptions struct {
	NewLLM  func(cfg *types.ModelConfig) (ai.LLM, error)
	Prompts *ai.PromptManager
	Limiter Limiter
	// OnPage 每页转换结束后回调
	OnPage func(err error)
}

type VisionStrategy struct {
	opts VisionOptions
}

func NewVisionStrategy(opts VisionOptions) *VisionStrategy {
	if opts.Prompts == nil {
		opts.Prompts = ai.NewPromptManager()
	}
	return &VisionStrategy{opts: opts}
}

func (s *VisionStrategy) Name() string {
	return types.PDF_STRATEGY_VISION
}

// ValidateVisionModel 视觉策略要求模型类型为 vision 且配置了 api key
func ValidateVisionModel(m *types.ModelConfig) error {
	if m == nil {
		return errors.Configuration("vision model is not configured")
	}
	if !m.IsVision() {
		return errors.Configuration("%s(%s) is not a vision model", m.ModelName, m.ProviderName)
	}
	if m.ApiKey == "" {
		return errors.Configuration("%s(%s) has no api key", m.ModelName, m.ProviderName)
	}
	return nil
}

func (s *VisionStrategy) Process(ctx context.Context, req Request) Result {
	if err := ValidateVisionModel(req.Model); err != nil {
		return Failed(err)
	}
	if s.opts.NewLLM == nil {
		return Failed(errors.Configuration("vision llm factory is not set"))
	}
	if req.TaskID == "" {
		return Failed(errors.Parameter("vision strategy requires a task id"))
	}
	llm, err := s.opts.NewLLM(req.Model)
	if err != nil {
		return Failed(err)
	}

	// 按任务隔离临时目录，避免同项目并发任务互相覆盖
	tempDir := filepath.Join(req.FilesDir, req.TaskID)
	if err = os.MkdirAll(tempDir, 0o755); err != nil {
		return Failed(err)
	}
	defer func() {
		if err := os.RemoveAll(tempDir); err != nil {
			slog.Error("failed to remove vision temp dir", slog.String("dir", tempDir), slog.String("error", err.Error()))
		}
	}()

	images, err := renderPages(req.SourcePath(), tempDir)
	if err != nil {
		return Failed(err)
	}

	pages, err := s.convertPages(ctx, llm, req, images)
	if err != nil {
		return Failed(err)
	}

	content := s.retitle(ctx, llm, req.Language, strings.Join(pages, "\n\n"))

	name := MarkdownName(req.FileName)
	tmp, err := writeMarkdown(tempDir, name, content)
	if err != nil {
		return Failed(err)
	}
	target := filepath.Join(req.FilesDir, name)
	if err = copyFile(tmp, target); err != nil {
		return Failed(err)
	}
	return Succeeded(&Output{MarkdownName: name, MarkdownPath: target, Pages: len(images)})
}

// convertPages 并发转换，结果按页序回填
func (s *VisionStrategy) convertPages(ctx context.Context, llm ai.LLM, req Request, images []string) ([]string, error) {
	var (
		total = len(images)
		pages = make([]string, total)
		mu    sync.Mutex
		done  int
	)

	limit := req.Settings.VisionConcurrencyLimit
	if limit <= 0 {
		limit = types.DefaultTaskConfig().VisionConcurrencyLimit
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, image := range images {
		g.Go(func() error {
			release, err := s.acquire(gctx)
			if err != nil {
				return err
			}
			defer release()

			text, err := s.convertPage(gctx, llm, req.Language, i+1, image)
			if s.opts.OnPage != nil {
				s.opts.OnPage(err)
			}
			if err != nil {
				return fmt.Errorf("page %d: %w", i+1, err)
			}

			mu.Lock()
			pages[i] = text
			done++
			req.progress(done, total)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}

func (s *VisionStrategy) acquire(ctx context.Context) (func(), error) {
	if s.opts.Limiter == nil {
		return func() {}, nil
	}
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()
	for !s.opts.Limiter.TryAcquire() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
	return s.opts.Limiter.Release, nil
}

func (s *VisionStrategy) convertPage(ctx context.Context, llm ai.LLM, lang string, page int, imagePath string) (string, error) {
	img, err := os.ReadFile(imagePath)
	if err != nil {
		return "", err
	}
	prompt := s.opts.Prompts.Template(ai.SCENE_VISION_CONVERT, lang).
		SetVar(ai.PROMPT_VAR_PAGE, fmt.Sprint(page)).
		Build()

	resp, err := llm.Chat(ctx, []ai.MessageContext{ai.ImageMessage(prompt, img, "image/png")})
	if err != nil {
		return "", err
	}
	answer, _ := ai.SplitThink(resp.Message())
	return trimMarkdownFence(answer), nil
}

// retitle 统一逐页识别造成的标题层级错乱，失败时保留原文
func (s *VisionStrategy) retitle(ctx context.Context, llm ai.LLM, lang, content string) string {
	lines := strings.Split(content, "\n")
	var (
		idx      []int
		headings []string
	)
	for i, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "#") {
			idx = append(idx, i)
			headings = append(headings, strings.TrimSpace(l))
		}
	}
	if len(headings) == 0 {
		return content
	}

	prompt := s.opts.Prompts.Template(ai.SCENE_VISION_RETITLE, lang).
		SetVar(ai.PROMPT_VAR_MARKDOWN_HEADINGS, strings.Join(headings, "\n")).
		Build()
	answer, err := ai.GetResponse(ctx, llm, prompt)
	if err != nil {
		slog.Warn("retitle failed, keep original headings", slog.String("error", err.Error()))
		return content
	}
	fixed, err := ai.ParseJSON[[]string](answer)
	if err != nil || len(fixed) != len(headings) {
		slog.Warn("retitle result mismatch, keep original headings", slog.Int("expected", len(headings)), slog.Int("got", len(fixed)))
		return content
	}
	for n, i := range idx {
		if h := strings.TrimSpace(fixed[n]); strings.HasPrefix(h, "#") {
			lines[i] = h
		}
	}
	return strings.Join(lines, "\n")
}

func trimMarkdownFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") {
		return s
	}
	s = strings.TrimSuffix(s, "```")
	if nl := strings.Index(s, "\n"); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	return strings.TrimSpace(s)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
