package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/easy-dataset/easy-dataset/app/logic/v1"
	"github.com/easy-dataset/easy-dataset/app/response"
	"github.com/easy-dataset/easy-dataset/pkg/errors"
	"github.com/easy-dataset/easy-dataset/pkg/i18n"
)

// 单个源文件上限
const maxUploadSize = 200 << 20

// UploadFile multipart 上传，字段名为 file
func (s *HttpSrv) UploadFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)
	fh, err := c.FormFile("file")
	if err != nil {
		response.APIError(c, errors.New("api.UploadFile.FormFile", i18n.ERROR_INVALIDARGUMENT, err).Code(http.StatusBadRequest))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.APIError(c, errors.New("api.UploadFile.Open", i18n.ERROR_INTERNAL, err))
		return
	}
	defer f.Close()

	file, err := v1.NewFileLogic(c.Request.Context(), s.Core).Upload(c.Param("projectId"), fh.Filename, f)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, file)
}

func (s *HttpSrv) ListFiles(c *gin.Context) {
	list, err := v1.NewFileLogic(c.Request.Context(), s.Core).ListFiles(c.Param("projectId"))
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, list)
}

func (s *HttpSrv) ListChunks(c *gin.Context) {
	list, err := v1.NewFileLogic(c.Request.Context(), s.Core).ListChunks(c.Param("projectId"), c.Query("fileId"))
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, list)
}
