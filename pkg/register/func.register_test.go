package register

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type testKey struct{}

func TestResolveFuncHandlersKeepsOrder(t *testing.T) {
	var got []string
	RegisterFunc[*[]string](testKey{}, func(s *[]string) { *s = append(*s, "a") })
	RegisterFunc[*[]string](testKey{}, func(s *[]string) { *s = append(*s, "b") })
	// 类型不匹配的 handler 会被忽略
	RegisterFunc[string](testKey{}, func(string) {})

	for _, h := range ResolveFuncHandlers[*[]string](testKey{}) {
		h(&got)
	}
	assert.Equal(t, []string{"a", "b"}, got)
}
