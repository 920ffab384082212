package types

import "strings"

const (
	NO_PAGINATION = 0

	DEFAULT_PAGE_SIZE = 10
)

const (
	LANGUAGE_EN_KEY = "en"
	LANGUAGE_CN_KEY = "zh-CN"
)

// NormalizeLanguage 兼容前端传入的展示名称（中文 / English）
func NormalizeLanguage(lang string) string {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "en", "english", "en-us", "en_us":
		return LANGUAGE_EN_KEY
	case "zh-cn", "zh", "中文", "zh_cn", "cn":
		return LANGUAGE_CN_KEY
	case "":
		return ""
	default:
		return LANGUAGE_CN_KEY
	}
}

// IsEnglish reports whether lang resolves to the english prompt set.
func IsEnglish(lang string) bool {
	return NormalizeLanguage(lang) == LANGUAGE_EN_KEY
}
