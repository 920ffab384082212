package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/easy-dataset/easy-dataset/pkg/types"
)

func TestParseAcceptLanguage(t *testing.T) {
	res := ParseAcceptLanguage("en-US;q=0.8,zh-CN,fr;q=0.3")
	assert.Len(t, res, 3)
	assert.Equal(t, "zh-CN", res[0].Tag)
	assert.Equal(t, "en-US", res[1].Tag)
	assert.Equal(t, "fr", res[2].Tag)

	assert.Empty(t, ParseAcceptLanguage(""))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", TruncateRunes("abc", 3))
	assert.Equal(t, "ab...", TruncateRunes("abc", 2))
	assert.Equal(t, "中文...", TruncateRunes("中文内容", 2))

	long := strings.Repeat("x", 50010)
	out := TruncateRunes(long, 50000)
	assert.Len(t, out, 50003)
	assert.True(t, strings.HasSuffix(out, "..."))
}

func TestRandom(t *testing.T) {
	for i := 0; i < 100; i++ {
		v := Random(1, 3)
		assert.GreaterOrEqual(t, v, 1)
		assert.LessOrEqual(t, v, 3)
	}
	assert.Equal(t, 5, Random(5, 5))
}

func TestDetectPromptLanguage(t *testing.T) {
	assert.Equal(t, types.LANGUAGE_EN_KEY, DetectPromptLanguage("The quick brown fox jumps over the lazy dog near the river bank"))
	assert.Equal(t, types.LANGUAGE_CN_KEY, DetectPromptLanguage("这是一段用于测试语言识别的中文内容，包含足够多的汉字"))
}

func TestGenUniqIDStr(t *testing.T) {
	a, b := GenUniqIDStr(), GenUniqIDStr()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
