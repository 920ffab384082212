package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/easy-dataset/easy-dataset/pkg/ai"
	"github.com/easy-dataset/easy-dataset/pkg/errors"
	"github.com/easy-dataset/easy-dataset/pkg/types"
	"github.com/easy-dataset/easy-dataset/pkg/utils"
)

// QuestionGenerator 从文本块生成问题，并为问题匹配领域标签
type QuestionGenerator struct {
	questions QuestionStore
	tags      TagStore
	pairs     GaPairStore
	prompts   *ai.PromptManager
	random    func() float64
}

func NewQuestionGenerator(questions QuestionStore, tags TagStore, pairs GaPairStore, prompts *ai.PromptManager) *QuestionGenerator {
	return &QuestionGenerator{
		questions: questions,
		tags:      tags,
		pairs:     pairs,
		prompts:   lo.Ternary(prompts != nil, prompts, ai.NewPromptManager()),
		random:    rand.Float64,
	}
}

type QuestionOptions struct {
	Language    string
	Settings    types.TaskConfig
	EnableGaExp bool
}

// QuestionCount 每 questionGenerationLength 个字符生成一个问题，至少一个
func QuestionCount(content string, per int) int {
	if per <= 0 {
		per = types.DefaultTaskConfig().QuestionGenerationLength
	}
	return max(1, utf8.RuneCountInString(content)/per)
}

// Generate creates questions for chunk. With GA expansion enabled, one round
// runs per active genre-audience pair of the chunk's file.
func (g *QuestionGenerator) Generate(ctx context.Context, llm ai.LLM, chunk types.Chunk, opts QuestionOptions) ([]types.Question, error) {
	lang := opts.Language
	if lang == "" {
		lang = utils.DetectPromptLanguage(chunk.Content)
	}

	rounds := []*types.GaPair{nil}
	if opts.EnableGaExp && g.pairs != nil {
		pairs, err := g.pairs.List(ctx, chunk.ProjectID, chunk.FileID)
		if err != nil {
			return nil, fmt.Errorf("list ga pairs: %w", err)
		}
		active := lo.Filter(pairs, func(p types.GaPair, _ int) bool { return p.IsActive })
		if len(active) > 0 {
			rounds = lo.Map(active, func(p types.GaPair, _ int) *types.GaPair { return &p })
		}
	}

	labels, err := g.leafLabels(ctx, chunk.ProjectID)
	if err != nil {
		return nil, err
	}

	number := QuestionCount(chunk.Content, opts.Settings.QuestionGenerationLength)
	var created []types.Question
	for _, pair := range rounds {
		texts, err := g.ask(ctx, llm, lang, chunk, number, pair)
		if err != nil {
			return created, err
		}
		texts = g.maskQuestions(texts, opts.Settings.QuestionMaskRemovingProbability)
		assigned := g.assignLabels(ctx, llm, lang, texts, labels)

		now := time.Now().Unix()
		batch := lo.Map(texts, func(q string, _ int) types.Question {
			item := types.Question{
				ID:        utils.GenUniqIDStr(),
				ProjectID: chunk.ProjectID,
				ChunkID:   chunk.ID,
				Label:     assigned[q],
				Question:  q,
				CreatedAt: now,
			}
			if pair != nil {
				item.GaPairID = types.NewParentID(pair.ID)
			}
			return item
		})
		if len(batch) == 0 {
			continue
		}
		if err = g.questions.BatchCreate(ctx, batch); err != nil {
			return created, fmt.Errorf("save questions: %w", err)
		}
		created = append(created, batch...)
	}
	return created, nil
}

func (g *QuestionGenerator) ask(ctx context.Context, llm ai.LLM, lang string, chunk types.Chunk, number int, pair *types.GaPair) ([]string, error) {
	tpl := g.prompts.Template(ai.SCENE_QUESTION, lang).
		SetVar(ai.PROMPT_VAR_TEXT, chunk.Content).
		SetVar(ai.PROMPT_VAR_TEXT_LENGTH, strconv.Itoa(utf8.RuneCountInString(chunk.Content))).
		SetVar(ai.PROMPT_VAR_NUMBER, strconv.Itoa(number)).
		SetVar(ai.PROMPT_VAR_GLOBAL_PROMPT, "").
		SetVar(ai.PROMPT_VAR_GA_PROMPT, "")
	if pair != nil {
		tpl.SetVar(ai.PROMPT_VAR_GA_PROMPT, GaPrompt(g.prompts, lang, *pair))
	}

	answer, err := ai.GetResponse(ctx, llm, tpl.Build())
	if err != nil {
		return nil, errors.External(err, "generate questions for chunk %s", chunk.Name)
	}
	list, err := ai.ParseStringArray(answer)
	if err != nil {
		return nil, err
	}
	return lo.Uniq(list), nil
}

// maskQuestions 按概率去掉问题末尾的问号
func (g *QuestionGenerator) maskQuestions(list []string, probability int) []string {
	if probability <= 0 {
		return list
	}
	return lo.Map(list, func(q string, _ int) string {
		if g.random()*100 < float64(probability) {
			return strings.TrimRight(q, "?？")
		}
		return q
	})
}

func (g *QuestionGenerator) leafLabels(ctx context.Context, projectID string) ([]string, error) {
	if g.tags == nil {
		return nil, nil
	}
	tags, err := g.tags.List(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	parents := lo.SliceToMap(tags, func(t types.Tag) (string, bool) { return t.Parent(), true })
	leaves := lo.FilterMap(tags, func(t types.Tag, _ int) (string, bool) {
		return t.Label, !parents[t.ID]
	})
	return lo.Uniq(leaves), nil
}

type labeledQuestion struct {
	Question string `json:"question"`
	Label    string `json:"label"`
}

func otherLabel(lang string) string {
	return lo.Ternary(types.IsEnglish(lang), "Other", "其他")
}

func (g *QuestionGenerator) assignLabels(ctx context.Context, llm ai.LLM, lang string, questions, labels []string) map[string]string {
	out := lo.SliceToMap(questions, func(q string) (string, string) { return q, otherLabel(lang) })
	if len(labels) == 0 || len(questions) == 0 {
		return out
	}

	raw, _ := json.Marshal(questions)
	tpl := g.prompts.Template(ai.SCENE_QUESTION_LABEL, lang).
		SetVar(ai.PROMPT_VAR_EXISTING_TAGS, strings.Join(labels, "\n")).
		SetVar(ai.PROMPT_VAR_QUESTION, string(raw))

	answer, err := ai.GetResponse(ctx, llm, tpl.Build())
	if err != nil {
		slog.Warn("failed to label questions", slog.String("error", err.Error()))
		return out
	}
	parsed, err := ai.ParseJSON[[]labeledQuestion](answer)
	if err != nil {
		slog.Warn("failed to parse question labels", slog.String("error", err.Error()))
		return out
	}

	valid := lo.SliceToMap(labels, func(l string) (string, bool) { return l, true })
	for _, item := range parsed {
		if _, ok := out[item.Question]; ok && valid[item.Label] {
			out[item.Question] = item.Label
		}
	}
	return out
}
