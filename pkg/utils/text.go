package utils

// TruncateRunes 超过 max 个字符时截断并追加省略号
func TruncateRunes(content string, max int) string {
	if max <= 0 {
		return content
	}
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	return string(runes[:max]) + "..."
}
