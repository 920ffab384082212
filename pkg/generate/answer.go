package generate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/easy-dataset/easy-dataset/pkg/ai"
	"github.com/easy-dataset/easy-dataset/pkg/errors"
	"github.com/easy-dataset/easy-dataset/pkg/types"
	"github.com/easy-dataset/easy-dataset/pkg/utils"
)

type QuestionStore interface {
	Get(ctx context.Context, projectID, id string) (*types.Question, error)
	List(ctx context.Context, opts types.ListQuestionOptions) ([]types.Question, error)
	BatchCreate(ctx context.Context, data []types.Question) error
	SetAnswered(ctx context.Context, projectID, id string, answered bool) error
}

type ChunkStore interface {
	Get(ctx context.Context, projectID, id string) (*types.Chunk, error)
}

type DatasetStore interface {
	Create(ctx context.Context, data types.Dataset) error
}

type GaPairStore interface {
	List(ctx context.Context, projectID, fileID string) ([]types.GaPair, error)
}

type TagStore interface {
	List(ctx context.Context, projectID string) ([]types.Tag, error)
}

// AnswerGenerator 为问题生成答案并写入数据集
type AnswerGenerator struct {
	questions QuestionStore
	chunks    ChunkStore
	datasets  DatasetStore
	pairs     GaPairStore
	prompts   *ai.PromptManager
}

func NewAnswerGenerator(questions QuestionStore, chunks ChunkStore, datasets DatasetStore, pairs GaPairStore, prompts *ai.PromptManager) *AnswerGenerator {
	return &AnswerGenerator{
		questions: questions,
		chunks:    chunks,
		datasets:  datasets,
		pairs:     pairs,
		prompts:   lo.Ternary(prompts != nil, prompts, ai.NewPromptManager()),
	}
}

func (g *AnswerGenerator) Generate(ctx context.Context, llm ai.LLM, lang, projectID, questionID string) (*types.Dataset, error) {
	if projectID == "" || questionID == "" {
		return nil, errors.Parameter("projectId and questionId are required")
	}
	question, err := g.questions.Get(ctx, projectID, questionID)
	if err != nil {
		return nil, fmt.Errorf("get question %s: %w", questionID, err)
	}
	chunk, err := g.chunks.Get(ctx, projectID, question.ChunkID)
	if err != nil {
		return nil, fmt.Errorf("get chunk %s: %w", question.ChunkID, err)
	}

	text := chunk.Content
	if chunk.Name == types.DISTILLED_CHUNK_NAME {
		// 蒸馏问题没有原文，以标签作为参考内容
		text = question.Label
	}
	if lang == "" {
		lang = utils.DetectPromptLanguage(question.Question)
	}

	tpl := g.prompts.Template(ai.SCENE_ANSWER, lang).
		SetVar(ai.PROMPT_VAR_TEXT, text).
		SetVar(ai.PROMPT_VAR_QUESTION, question.Question).
		SetVar(ai.PROMPT_VAR_GLOBAL_PROMPT, "").
		SetVar(ai.PROMPT_VAR_GA_PROMPT, g.gaPrompt(ctx, lang, question, chunk))

	resp, err := ai.GetResponseWithCOT(ctx, llm, tpl.Build())
	if err != nil {
		return nil, errors.External(err, "generate answer")
	}
	if resp.Answer == "" {
		return nil, errors.Kind(errors.ErrExternalService, nil, "model returned an empty answer")
	}

	dataset := types.Dataset{
		ID:            utils.GenUniqIDStr(),
		ProjectID:     projectID,
		QuestionID:    question.ID,
		Question:      question.Question,
		Answer:        resp.Answer,
		COT:           resp.COT,
		QuestionLabel: question.Label,
		ChunkID:       chunk.ID,
		ChunkName:     chunk.Name,
		Model:         resp.Model,
		CreatedAt:     time.Now().Unix(),
	}
	if err = g.datasets.Create(ctx, dataset); err != nil {
		return nil, fmt.Errorf("save dataset: %w", err)
	}
	if err = g.questions.SetAnswered(ctx, projectID, question.ID, true); err != nil {
		return nil, fmt.Errorf("mark question answered: %w", err)
	}
	return &dataset, nil
}

func (g *AnswerGenerator) gaPrompt(ctx context.Context, lang string, question *types.Question, chunk *types.Chunk) string {
	if !question.GaPairID.Valid || g.pairs == nil {
		return ""
	}
	pairs, err := g.pairs.List(ctx, question.ProjectID, chunk.FileID)
	if err != nil {
		slog.Warn("failed to load ga pair for answer", slog.String("question_id", question.ID), slog.String("error", err.Error()))
		return ""
	}
	pair, ok := lo.Find(pairs, func(p types.GaPair) bool { return p.ID == question.GaPairID.String })
	if !ok {
		return ""
	}
	return GaPrompt(g.prompts, lang, pair)
}

// GaPrompt 体裁与受众的补充提示词
func GaPrompt(prompts *ai.PromptManager, lang string, pair types.GaPair) string {
	return prompts.Template(ai.SCENE_QUESTION_GA, lang).
		SetVar(ai.PROMPT_VAR_GENRE, pair.GenreTitle+": "+pair.GenreDesc).
		SetVar(ai.PROMPT_VAR_AUDIENCE, pair.AudienceTitle+": "+pair.AudienceDesc).
		Build()
}
