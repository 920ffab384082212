package gapair

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/easy-dataset/easy-dataset/pkg/ai"
	"github.com/easy-dataset/easy-dataset/pkg/errors"
)

// PAIR_COUNT 每次生成固定返回的 GA 对数量
const PAIR_COUNT = 5

type Facet struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Pair struct {
	Genre    Facet `json:"genre"`
	Audience Facet `json:"audience"`
}

// Key 用于追加模式下的去重
func (p Pair) Key() string {
	return normalizeKey(p.Genre.Title, p.Audience.Title)
}

func normalizeKey(genre, audience string) string {
	return strings.ToLower(strings.Join(strings.Fields(genre), " ")) + "|" + strings.ToLower(strings.Join(strings.Fields(audience), " "))
}

var fallbackPairs = []Pair{
	{
		Genre:    Facet{"Academic Research", "Scholarly, research-oriented content with formal tone and detailed analysis"},
		Audience: Facet{"Researchers", "Academic researchers and graduate students seeking in-depth knowledge"},
	},
	{
		Genre:    Facet{"Educational Guide", "Structured learning material with clear explanations and examples"},
		Audience: Facet{"Students", "Undergraduate students and learners new to the subject"},
	},
	{
		Genre:    Facet{"Professional Manual", "Practical, implementation-focused content for workplace application"},
		Audience: Facet{"Practitioners", "Industry professionals applying knowledge in practice"},
	},
	{
		Genre:    Facet{"Popular Science", "Accessible content that makes complex topics understandable"},
		Audience: Facet{"General Public", "Curious readers without specialized background"},
	},
	{
		Genre:    Facet{"Technical Documentation", "Detailed specifications and implementation guidelines"},
		Audience: Facet{"Developers", "Technical specialists and system implementers"},
	},
}

// Fallbacks returns a copy of the default pairs used when parsing fails.
func Fallbacks() []Pair {
	out := make([]Pair, len(fallbackPairs))
	copy(out, fallbackPairs)
	return out
}

var (
	objectArrayRegexp = regexp.MustCompile(`(?s)\[\s*\{.*\}\s*\]`)
	leadingJunkRegexp = regexp.MustCompile(`^[^\[{]*`)
	trailingJunk      = regexp.MustCompile(`[^}\]]*$`)
	trailingComma     = regexp.MustCompile(`,\s*([}\]])`)
)

// Parse 解析模型返回的 GA 对，结果总是 PAIR_COUNT 个，任何解析或校验失败都返回默认组合
func Parse(text string) []Pair {
	pairs, err := parse(text)
	if err != nil {
		slog.Warn("failed to parse ga pairs, using fallbacks", slog.String("error", err.Error()))
		return Fallbacks()
	}
	if len(pairs) > PAIR_COUNT {
		return pairs[:PAIR_COUNT]
	}
	if len(pairs) < PAIR_COUNT {
		slog.Warn("model returned too few ga pairs, padding with fallbacks", slog.Int("count", len(pairs)))
	}
	for len(pairs) < PAIR_COUNT {
		pairs = append(pairs, fallbackPairs[len(pairs)])
	}
	return pairs
}

func parse(text string) ([]Pair, error) {
	cleaned := ai.StripCodeFence(text)
	if m := objectArrayRegexp.FindString(cleaned); m != "" {
		cleaned = m
	}
	cleaned = leadingJunkRegexp.ReplaceAllString(cleaned, "")
	cleaned = trailingJunk.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(trailingComma.ReplaceAllString(cleaned, "$1"))

	var raw json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, errors.Parse(err, "invalid ga pairs json")
	}

	items, err := unwrap(raw)
	if err != nil {
		return nil, err
	}

	pairs := make([]Pair, 0, len(items))
	for i, item := range items {
		p, err := validate(item)
		if err != nil {
			return nil, errors.Parse(err, "ga pair %d", i+1)
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

// unwrap 兼容 {"gaPairs": [...]} / {"pairs": [...]} / {"results": [...]}
func unwrap(raw json.RawMessage) ([]json.RawMessage, error) {
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, errors.Parse(err, "ga pairs response is neither array nor object")
	}
	for _, key := range []string{"gaPairs", "pairs", "results"} {
		if v, ok := obj[key]; ok {
			if err := json.Unmarshal(v, &list); err == nil {
				return list, nil
			}
		}
	}
	return nil, errors.Parse(nil, "response is not an array and no array property found")
}

type rawFacet struct {
	Title       any `json:"title"`
	Description any `json:"description"`
}

type rawPair struct {
	Genre    *rawFacet `json:"genre"`
	Audience *rawFacet `json:"audience"`
}

func validate(item json.RawMessage) (Pair, error) {
	var rp rawPair
	if err := json.Unmarshal(item, &rp); err != nil {
		return Pair{}, err
	}
	if rp.Genre == nil || rp.Audience == nil {
		return Pair{}, fmt.Errorf("missing genre or audience")
	}
	p := Pair{
		Genre:    Facet{Title: stringify(rp.Genre.Title), Description: stringify(rp.Genre.Description)},
		Audience: Facet{Title: stringify(rp.Audience.Title), Description: stringify(rp.Audience.Description)},
	}
	if p.Genre.Title == "" || p.Genre.Description == "" || p.Audience.Title == "" || p.Audience.Description == "" {
		return Pair{}, fmt.Errorf("missing required fields")
	}
	return p, nil
}

// stringify 非字符串的标量转为文本，false、0 和空串都视为缺失
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == 0 {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if !t {
			return ""
		}
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
