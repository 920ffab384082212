package ai

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/samber/lo"

	"github.com/easy-dataset/easy-dataset/pkg/errors"
)

var (
	fenceRegexp         = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)\\s*```")
	trailingCommaRegexp = regexp.MustCompile(`,\s*([}\]])`)
	quotedRegexp        = regexp.MustCompile(`"([^"]+)"`)
)

// StripCodeFence returns the body of the first markdown code block, or text unchanged.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if m := fenceRegexp.FindStringSubmatch(text); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	return text
}

// CleanJSON 去掉模型输出中 JSON 之外的说明文字以及多余的尾逗号
func CleanJSON(text string) string {
	text = StripCodeFence(text)

	start := strings.IndexAny(text, "[{")
	if start < 0 {
		return text
	}
	end := strings.LastIndexAny(text, "]}")
	if end < start {
		return text[start:]
	}
	text = text[start : end+1]
	return strings.TrimSpace(trailingCommaRegexp.ReplaceAllString(text, "$1"))
}

func ParseJSON[T any](text string) (T, error) {
	var out T
	if err := json.Unmarshal([]byte(CleanJSON(text)), &out); err != nil {
		return out, errors.Parse(err, "invalid json in model response")
	}
	return out, nil
}

// ExtractQuotedStrings 兜底解析：提取所有双引号包裹的内容
func ExtractQuotedStrings(text string) []string {
	matches := quotedRegexp.FindAllStringSubmatch(text, -1)
	return lo.Map(matches, func(m []string, _ int) string {
		return m[1]
	})
}

// ParseStringArray parses a JSON string array, falling back to quoted-string extraction.
func ParseStringArray(text string) ([]string, error) {
	list, err := ParseJSON[[]string](text)
	if err == nil {
		return compactStrings(list), nil
	}
	if fallback := compactStrings(ExtractQuotedStrings(text)); len(fallback) > 0 {
		return fallback, nil
	}
	return nil, err
}

func compactStrings(list []string) []string {
	list = lo.Map(list, func(s string, _ int) string {
		return strings.TrimSpace(s)
	})
	return lo.Compact(list)
}
