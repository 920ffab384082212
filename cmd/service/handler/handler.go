package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/easy-dataset/easy-dataset/app/core"
	"github.com/easy-dataset/easy-dataset/app/response"
)

// HttpSrv HTTP服务结构
type HttpSrv struct {
	Core   *core.Core
	Engine *gin.Engine
}

// requestLanguage 请求体未指定语言时使用 Accept-Language
func requestLanguage(c *gin.Context, lang string) string {
	if lang != "" {
		return lang
	}
	return response.GetLangFromRequestOrDefault(c)
}
