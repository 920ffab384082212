package distill

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/easy-dataset/easy-dataset/pkg/ai"
	"github.com/easy-dataset/easy-dataset/pkg/errors"
	"github.com/easy-dataset/easy-dataset/pkg/types"
	"github.com/easy-dataset/easy-dataset/pkg/utils"
)

type TagStore interface {
	List(ctx context.Context, projectID string) ([]types.Tag, error)
	ListByParent(ctx context.Context, projectID, parentID string) ([]types.Tag, error)
	BatchCreate(ctx context.Context, data []types.Tag) error
}

type ChunkStore interface {
	GetByName(ctx context.Context, projectID, name string) (*types.Chunk, error)
	Create(ctx context.Context, data types.Chunk) error
}

type QuestionStore interface {
	List(ctx context.Context, opts types.ListQuestionOptions) ([]types.Question, error)
	BatchCreate(ctx context.Context, data []types.Question) error
}

type DatasetGenerator interface {
	Generate(ctx context.Context, llm ai.LLM, lang, projectID, questionID string) (*types.Dataset, error)
}

// Service 蒸馏相关的生成操作，既供自动蒸馏任务使用，也直接暴露给接口
type Service struct {
	tags      TagStore
	chunks    ChunkStore
	questions QuestionStore
	datasets  DatasetGenerator
	prompts   *ai.PromptManager
}

func NewService(tags TagStore, chunks ChunkStore, questions QuestionStore, datasets DatasetGenerator, prompts *ai.PromptManager) *Service {
	return &Service{
		tags:      tags,
		chunks:    chunks,
		questions: questions,
		datasets:  datasets,
		prompts:   lo.Ternary(prompts != nil, prompts, ai.NewPromptManager()),
	}
}

type TagRequest struct {
	ProjectID   string `json:"projectId"`
	ParentTag   string `json:"parentTag"`
	ParentTagID string `json:"parentTagId"`
	TagPath     string `json:"tagPath"`
	Count       int    `json:"count"`
}

type QuestionRequest struct {
	ProjectID  string `json:"projectId"`
	TagPath    string `json:"tagPath"`
	CurrentTag string `json:"currentTag"`
	TagID      string `json:"tagId"`
	Count      int    `json:"count"`
}

// Session binds the service to one model and prompt language.
type Session struct {
	*Service
	llm  ai.LLM
	lang string
}

func (s *Service) Bind(llm ai.LLM, lang string) *Session {
	return &Session{Service: s, llm: llm, lang: lang}
}

func (s *Session) ListTags(ctx context.Context, projectID string) ([]types.Tag, error) {
	return s.tags.List(ctx, projectID)
}

func existingHint(lang string, items []string, kind string) string {
	if len(items) == 0 {
		return ""
	}
	joined := strings.Join(items, "、")
	if types.IsEnglish(lang) {
		return fmt.Sprintf("\nExisting %s: %s. Do not generate duplicates of these.", kind, strings.ReplaceAll(joined, "、", ", "))
	}
	name := lo.Ternary(kind == "tags", "标签", "问题")
	return fmt.Sprintf("\n已有%s：%s，请不要生成与这些重复的内容。", name, joined)
}

// GenerateTags 为父标签生成 count 个子标签并保存
func (s *Session) GenerateTags(ctx context.Context, req TagRequest) ([]types.Tag, error) {
	if req.ProjectID == "" || req.ParentTag == "" {
		return nil, errors.Parameter("projectId and parentTag are required")
	}
	if req.Count <= 0 {
		req.Count = 10
	}

	existing, err := s.tags.ListByParent(ctx, req.ProjectID, req.ParentTagID)
	if err != nil {
		return nil, fmt.Errorf("list existing tags: %w", err)
	}
	existingLabels := lo.Map(existing, func(t types.Tag, _ int) string { return t.Label })

	tpl := s.prompts.Template(ai.SCENE_DISTILL_TAGS, s.lang).
		SetVar(ai.PROMPT_VAR_TAG, req.ParentTag).
		SetVar(ai.PROMPT_VAR_TAG_PATH, lo.CoalesceOrEmpty(req.TagPath, req.ParentTag)).
		SetVar(ai.PROMPT_VAR_NUMBER, strconv.Itoa(req.Count)).
		SetVar(ai.PROMPT_VAR_EXISTING, existingHint(s.lang, existingLabels, "tags"))

	answer, err := ai.GetResponse(ctx, s.llm, tpl.Build())
	if err != nil {
		return nil, errors.External(err, "generate tags for %s", req.ParentTag)
	}
	labels, err := ai.ParseStringArray(answer)
	if err != nil {
		return nil, err
	}

	seen := lo.SliceToMap(existingLabels, func(l string) (string, bool) { return l, true })
	labels = lo.Filter(lo.Uniq(labels), func(l string, _ int) bool { return !seen[l] })
	if len(labels) > req.Count {
		labels = labels[:req.Count]
	}

	now := time.Now().Unix()
	tags := lo.Map(labels, func(label string, _ int) types.Tag {
		return types.Tag{
			ID:        utils.GenUniqIDStr(),
			ProjectID: req.ProjectID,
			ParentID:  types.NewParentID(req.ParentTagID),
			Label:     label,
			CreatedAt: now,
		}
	})
	if len(tags) == 0 {
		return tags, nil
	}
	if err = s.tags.BatchCreate(ctx, tags); err != nil {
		return nil, fmt.Errorf("save tags: %w", err)
	}
	return tags, nil
}

// DistilledChunk 返回项目的蒸馏虚拟分块，不存在时创建
func (s *Service) DistilledChunk(ctx context.Context, projectID string) (*types.Chunk, error) {
	chunk, err := s.chunks.GetByName(ctx, projectID, types.DISTILLED_CHUNK_NAME)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get distilled chunk: %w", err)
	}
	if chunk != nil {
		return chunk, nil
	}

	c := types.Chunk{
		ID:        utils.GenUniqIDStr(),
		ProjectID: projectID,
		FileID:    types.DISTILLED_CHUNK_FILE_ID,
		FileName:  types.DISTILLED_CHUNK_FILENAME,
		Name:      types.DISTILLED_CHUNK_NAME,
		Content:   "This chunk holds questions generated by data distillation and is not backed by a source document.",
		Summary:   "Distilled questions",
		CreatedAt: time.Now().Unix(),
	}
	if err = s.chunks.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create distilled chunk: %w", err)
	}
	return &c, nil
}

// DistilledQuestions lists questions attached to the distilled chunk.
func (s *Service) DistilledQuestions(ctx context.Context, projectID string) ([]types.Question, error) {
	chunk, err := s.chunks.GetByName(ctx, projectID, types.DISTILLED_CHUNK_NAME)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s.questions.List(ctx, types.ListQuestionOptions{ProjectID: projectID, ChunkID: chunk.ID})
}

func (s *Session) ListDistilledQuestions(ctx context.Context, projectID string) ([]types.Question, error) {
	return s.DistilledQuestions(ctx, projectID)
}

// GenerateQuestions 为标签生成问题，已有问题会告知模型并在结果中去重
func (s *Session) GenerateQuestions(ctx context.Context, req QuestionRequest) ([]types.Question, error) {
	if req.ProjectID == "" || req.CurrentTag == "" || req.TagPath == "" {
		return nil, errors.Parameter("projectId, currentTag and tagPath are required")
	}
	if req.Count <= 0 {
		req.Count = 10
	}

	chunk, err := s.DistilledChunk(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	existing, err := s.questions.List(ctx, types.ListQuestionOptions{
		ProjectID: req.ProjectID,
		ChunkID:   chunk.ID,
		Label:     req.CurrentTag,
	})
	if err != nil {
		return nil, fmt.Errorf("list existing questions: %w", err)
	}
	existingTexts := lo.Map(existing, func(q types.Question, _ int) string { return q.Question })

	tpl := s.prompts.Template(ai.SCENE_DISTILL_QUESTIONS, s.lang).
		SetVar(ai.PROMPT_VAR_TAG, req.CurrentTag).
		SetVar(ai.PROMPT_VAR_TAG_PATH, req.TagPath).
		SetVar(ai.PROMPT_VAR_NUMBER, strconv.Itoa(req.Count)).
		SetVar(ai.PROMPT_VAR_GLOBAL_PROMPT, "").
		SetVar(ai.PROMPT_VAR_EXISTING, existingHint(s.lang, existingTexts, "questions"))

	answer, err := ai.GetResponse(ctx, s.llm, tpl.Build())
	if err != nil {
		return nil, errors.External(err, "generate questions for %s", req.CurrentTag)
	}
	texts, err := ai.ParseStringArray(answer)
	if err != nil {
		return nil, err
	}

	seen := lo.SliceToMap(existingTexts, func(q string) (string, bool) { return q, true })
	texts = lo.Filter(lo.Uniq(texts), func(q string, _ int) bool { return !seen[q] })

	now := time.Now().Unix()
	questions := lo.Map(texts, func(text string, _ int) types.Question {
		return types.Question{
			ID:        utils.GenUniqIDStr(),
			ProjectID: req.ProjectID,
			ChunkID:   chunk.ID,
			Label:     req.CurrentTag,
			Question:  text,
			CreatedAt: now,
		}
	})
	if len(questions) == 0 {
		return questions, nil
	}
	if err = s.questions.BatchCreate(ctx, questions); err != nil {
		return nil, fmt.Errorf("save questions: %w", err)
	}
	return questions, nil
}

func (s *Session) GenerateDataset(ctx context.Context, projectID, questionID string) error {
	_, err := s.datasets.Generate(ctx, s.llm, s.lang, projectID, questionID)
	return err
}
