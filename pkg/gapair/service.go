package gapair

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/samber/lo"

	"github.com/easy-dataset/easy-dataset/pkg/ai"
	"github.com/easy-dataset/easy-dataset/pkg/document"
	"github.com/easy-dataset/easy-dataset/pkg/errors"
	"github.com/easy-dataset/easy-dataset/pkg/types"
	"github.com/easy-dataset/easy-dataset/pkg/utils"
)

const (
	MAX_CONTENT_LENGTH = 50000

	generationTemperature = 0.7
	generationMaxTokens   = 2000
)

type FileStore interface {
	Get(ctx context.Context, projectID, id string) (*types.UploadFile, error)
	List(ctx context.Context, opts types.ListUploadFileOptions) ([]types.UploadFile, error)
}

type PairStore interface {
	List(ctx context.Context, projectID, fileID string) ([]types.GaPair, error)
	FilesWithPairs(ctx context.Context, projectID string, fileIDs []string) ([]string, error)
	Replace(ctx context.Context, projectID, fileID string, pairs []types.GaPair) error
	SetActive(ctx context.Context, projectID, fileID, id string, active bool) error
}

// ContentLoader 读取项目目录下的文件内容
type ContentLoader interface {
	ReadFile(ctx context.Context, projectID, relPath string) ([]byte, error)
}

type TokenCounter func(text, model string) (int, error)

type Service struct {
	files   FileStore
	pairs   PairStore
	loader  ContentLoader
	prompts *ai.PromptManager
	counter TokenCounter
}

type Option func(*Service)

func WithTokenCounter(c TokenCounter) Option {
	return func(s *Service) { s.counter = c }
}

func WithPrompts(p *ai.PromptManager) Option {
	return func(s *Service) { s.prompts = p }
}

func NewService(files FileStore, pairs PairStore, loader ContentLoader, opts ...Option) *Service {
	s := &Service{files: files, pairs: pairs, loader: loader, prompts: ai.NewPromptManager()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// TruncateContent 超过 MAX_CONTENT_LENGTH 个字符时截断并追加 "..."
func TruncateContent(content string) string {
	return utils.TruncateRunes(content, MAX_CONTENT_LENGTH)
}

// Generate asks the model for genre-audience pairs. Only a failed model call
// is an error; unusable output degrades to the fallback pairs.
func (s *Service) Generate(ctx context.Context, llm ai.LLM, lang, content string) ([]Pair, error) {
	if llm == nil {
		return nil, errors.Configuration("no active model available for ga generation")
	}
	content = TruncateContent(content)
	if s.counter != nil {
		if n, err := s.counter(content, llm.ModelName()); err == nil {
			slog.Debug("ga generation content", slog.Int("tokens", n))
		}
	}

	prompt := s.prompts.Template(ai.SCENE_GA_GENERATION, lang).
		SetVar(ai.PROMPT_VAR_TEXT, content).
		Build()
	resp, err := llm.Chat(ctx, []ai.MessageContext{ai.UserMessage(prompt)},
		ai.WithTemperature(generationTemperature),
		ai.WithMaxTokens(generationMaxTokens))
	if err != nil {
		return nil, errors.External(err, "ga generation")
	}
	text := resp.Message()
	if strings.TrimSpace(text) == "" {
		return nil, errors.Kind(errors.ErrExternalService, nil, "invalid response from model")
	}
	answer, _ := ai.SplitThink(text)
	return Parse(answer), nil
}

func (s *Service) List(ctx context.Context, projectID, fileID string) ([]types.GaPair, error) {
	return s.pairs.List(ctx, projectID, fileID)
}

type GenerateOptions struct {
	Regenerate bool `json:"regenerate"`
	AppendMode bool `json:"appendMode"`
}

type FileResult struct {
	FileID   string         `json:"fileId"`
	FileName string         `json:"fileName"`
	Success  bool           `json:"success"`
	Skipped  bool           `json:"skipped"`
	Message  string         `json:"message"`
	Error    string         `json:"error,omitempty"`
	GaPairs  []types.GaPair `json:"gaPairs,omitempty"`
}

// GenerateForFile 已有 GA 对且既不重新生成也不追加时直接返回现有结果
func (s *Service) GenerateForFile(ctx context.Context, llm ai.LLM, lang, projectID, fileID string, opts GenerateOptions) (*FileResult, error) {
	if projectID == "" || fileID == "" {
		return nil, errors.Parameter("projectId and fileId are required")
	}
	file, err := s.files.Get(ctx, projectID, fileID)
	if err != nil {
		return nil, fmt.Errorf("get file %s: %w", fileID, err)
	}
	return s.generateForFile(ctx, llm, lang, *file, opts)
}

func (s *Service) generateForFile(ctx context.Context, llm ai.LLM, lang string, file types.UploadFile, opts GenerateOptions) (*FileResult, error) {
	result := &FileResult{FileID: file.ID, FileName: file.FileName}

	existing, err := s.pairs.List(ctx, file.ProjectID, file.ID)
	if err != nil {
		return nil, fmt.Errorf("list ga pairs: %w", err)
	}
	if len(existing) > 0 && !opts.Regenerate && !opts.AppendMode {
		result.Success, result.Skipped = true, true
		result.Message = "GA pairs already exist"
		result.GaPairs = existing
		return result, nil
	}

	content, err := s.fileContent(ctx, file)
	if err != nil {
		return nil, err
	}
	if lang == "" {
		lang = utils.DetectPromptLanguage(content)
	}
	generated, err := s.Generate(ctx, llm, lang, content)
	if err != nil {
		return nil, err
	}

	var pairs []types.GaPair
	if opts.AppendMode && len(existing) > 0 {
		pairs = Merge(existing, generated)
	} else {
		pairs = lo.Map(generated, func(p Pair, _ int) types.GaPair { return toRecord(p, true) })
	}
	saved, err := s.save(ctx, file.ProjectID, file.ID, pairs)
	if err != nil {
		return nil, err
	}

	result.Success = true
	result.Message = fmt.Sprintf("Generated %d GA pairs", len(generated))
	result.GaPairs = saved
	return result, nil
}

func (s *Service) fileContent(ctx context.Context, file types.UploadFile) (string, error) {
	path := file.Path
	if path == "" {
		path = file.FileName
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".txt", ".markdown":
	default:
		// 非文本文件读取转换后的 Markdown
		path = document.MarkdownName(path)
	}
	raw, err := s.loader.ReadFile(ctx, file.ProjectID, path)
	if err != nil {
		return "", fmt.Errorf("read file content: %w", err)
	}
	if len(raw) == 0 {
		return "", errors.Parameter("file %s has no content", file.FileName)
	}
	return string(raw), nil
}

func toRecord(p Pair, active bool) types.GaPair {
	return types.GaPair{
		GenreTitle:    p.Genre.Title,
		GenreDesc:     p.Genre.Description,
		AudienceTitle: p.Audience.Title,
		AudienceDesc:  p.Audience.Description,
		IsActive:      active,
	}
}

// Merge keeps the existing active pairs and appends generated pairs whose
// genre and audience titles are not already present.
func Merge(existing []types.GaPair, generated []Pair) []types.GaPair {
	out := lo.Filter(existing, func(p types.GaPair, _ int) bool { return p.IsActive })
	seen := lo.SliceToMap(out, func(p types.GaPair) (string, bool) {
		return normalizeKey(p.GenreTitle, p.AudienceTitle), true
	})
	for _, p := range generated {
		if seen[p.Key()] {
			continue
		}
		seen[p.Key()] = true
		out = append(out, toRecord(p, true))
	}
	return out
}

// save 重新编号后整体替换文件的 GA 对
func (s *Service) save(ctx context.Context, projectID, fileID string, pairs []types.GaPair) ([]types.GaPair, error) {
	now := time.Now().Unix()
	records := lo.Map(pairs, func(p types.GaPair, i int) types.GaPair {
		if p.ID == "" {
			p.ID = utils.GenUniqIDStr()
		}
		p.ProjectID = projectID
		p.FileID = fileID
		p.PairNumber = i + 1
		if p.CreatedAt == 0 {
			p.CreatedAt = now
		}
		p.UpdatedAt = now
		return p
	})
	if err := s.pairs.Replace(ctx, projectID, fileID, records); err != nil {
		return nil, fmt.Errorf("save ga pairs: %w", err)
	}
	return records, nil
}

type PairUpdate struct {
	GenreTitle    string `json:"genreTitle"`
	GenreDesc     string `json:"genreDesc"`
	AudienceTitle string `json:"audienceTitle"`
	AudienceDesc  string `json:"audienceDesc"`
	IsActive      *bool  `json:"isActive"`
}

// Replace 用 updates 替换文件的全部 GA 对，isActive 缺省为 true
func (s *Service) Replace(ctx context.Context, projectID, fileID string, updates []PairUpdate) ([]types.GaPair, error) {
	if projectID == "" || fileID == "" {
		return nil, errors.Parameter("projectId and fileId are required")
	}
	for i, u := range updates {
		if strings.TrimSpace(u.GenreTitle) == "" || strings.TrimSpace(u.AudienceTitle) == "" {
			return nil, errors.Parameter("pair %d requires genreTitle and audienceTitle", i+1)
		}
	}
	pairs := lo.Map(updates, func(u PairUpdate, _ int) types.GaPair {
		return types.GaPair{
			GenreTitle:    strings.TrimSpace(u.GenreTitle),
			GenreDesc:     u.GenreDesc,
			AudienceTitle: strings.TrimSpace(u.AudienceTitle),
			AudienceDesc:  u.AudienceDesc,
			IsActive:      lo.FromPtrOr(u.IsActive, true),
		}
	})
	return s.save(ctx, projectID, fileID, pairs)
}

func (s *Service) Toggle(ctx context.Context, projectID, fileID, pairID string, active bool) (*types.GaPair, error) {
	if pairID == "" {
		return nil, errors.Parameter("gaPairId is required")
	}
	if err := s.pairs.SetActive(ctx, projectID, fileID, pairID, active); err != nil {
		return nil, err
	}
	pairs, err := s.pairs.List(ctx, projectID, fileID)
	if err != nil {
		return nil, err
	}
	pair, ok := lo.Find(pairs, func(p types.GaPair) bool { return p.ID == pairID })
	if !ok {
		return nil, errors.Parameter("ga pair %s not found", pairID)
	}
	return &pair, nil
}

type BatchRequest struct {
	FileIDs []string `json:"fileIds"`
	// Pattern 以 glob 匹配文件名，例如 "**/*.pdf"
	Pattern    string `json:"pattern"`
	AppendMode bool   `json:"appendMode"`
}

type BatchSummary struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failure int `json:"failure"`
	Skipped int `json:"skipped"`
}

type BatchResult struct {
	Results []FileResult `json:"data"`
	Summary BatchSummary `json:"summary"`
	Message string       `json:"message"`
}

func (s *Service) selectFiles(ctx context.Context, projectID string, req BatchRequest) ([]types.UploadFile, error) {
	if len(req.FileIDs) == 0 && req.Pattern == "" {
		return nil, errors.Parameter("fileIds or pattern is required")
	}
	if req.Pattern != "" && !doublestar.ValidatePattern(req.Pattern) {
		return nil, errors.Parameter("invalid file pattern %q", req.Pattern)
	}

	files, err := s.files.List(ctx, types.ListUploadFileOptions{ProjectID: projectID, FileIDs: req.FileIDs})
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	if req.Pattern != "" {
		files = lo.Filter(files, func(f types.UploadFile, _ int) bool {
			ok, _ := doublestar.Match(req.Pattern, f.FileName)
			return ok
		})
	}
	if len(files) == 0 {
		return nil, errors.Parameter("no valid files found")
	}
	return files, nil
}

// BatchGenerate 顺序处理每个文件，单个文件失败只记录在对应结果中
func (s *Service) BatchGenerate(ctx context.Context, llm ai.LLM, lang, projectID string, req BatchRequest) (*BatchResult, error) {
	if projectID == "" {
		return nil, errors.Parameter("projectId is required")
	}
	if llm == nil {
		return nil, errors.Configuration("model configuration not found")
	}
	files, err := s.selectFiles(ctx, projectID, req)
	if err != nil {
		return nil, err
	}

	withPairs, err := s.pairs.FilesWithPairs(ctx, projectID, lo.Map(files, func(f types.UploadFile, _ int) string { return f.ID }))
	if err != nil {
		return nil, fmt.Errorf("check existing ga pairs: %w", err)
	}
	has := lo.SliceToMap(withPairs, func(id string) (string, bool) { return id, true })

	out := &BatchResult{}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if has[f.ID] && !req.AppendMode {
			slog.Info("ga pairs already exist, skipping", slog.String("file", f.FileName))
			existing, _ := s.pairs.List(ctx, projectID, f.ID)
			out.Results = append(out.Results, FileResult{
				FileID: f.ID, FileName: f.FileName, Success: true, Skipped: true,
				Message: "GA pairs already exist", GaPairs: existing,
			})
			continue
		}

		res, err := s.generateForFile(ctx, llm, lang, f, GenerateOptions{AppendMode: req.AppendMode, Regenerate: true})
		if err != nil {
			err = errors.Kind(errors.ErrPartialBatch, err, "file %s", f.FileName)
			slog.Error("failed to generate ga pairs", slog.String("file", f.FileName), slog.String("error", err.Error()))
			out.Results = append(out.Results, FileResult{
				FileID: f.ID, FileName: f.FileName, Error: err.Error(), Message: "Failed: " + err.Error(),
			})
			continue
		}
		out.Results = append(out.Results, *res)
	}

	out.Summary = BatchSummary{
		Total:   len(out.Results),
		Success: lo.CountBy(out.Results, func(r FileResult) bool { return r.Success }),
		Skipped: lo.CountBy(out.Results, func(r FileResult) bool { return r.Skipped }),
	}
	out.Summary.Failure = out.Summary.Total - out.Summary.Success
	out.Message = fmt.Sprintf("Generated GA pairs for %d files, %d failed", out.Summary.Success, out.Summary.Failure)
	return out, nil
}
