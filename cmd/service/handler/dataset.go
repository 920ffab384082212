package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/easy-dataset/easy-dataset/app/logic/v1"
	"github.com/easy-dataset/easy-dataset/app/response"
	"github.com/easy-dataset/easy-dataset/cmd/service/middleware"
	"github.com/easy-dataset/easy-dataset/pkg/types"
	"github.com/easy-dataset/easy-dataset/pkg/utils"
)

func (s *HttpSrv) GenerateDataset(c *gin.Context) {
	var req v1.GenerateDatasetRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}
	req.Language = requestLanguage(c, req.Language)

	dataset, err := v1.NewDatasetLogic(c.Request.Context(), s.Core).GenerateDataset(c.Param("projectId"), req)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, dataset)
}

func (s *HttpSrv) ListDatasets(c *gin.Context) {
	page := middleware.ParsePage(c, "page", 1)
	limit := middleware.ParsePage(c, "limit", types.DEFAULT_PAGE_SIZE)

	list, err := v1.NewDatasetLogic(c.Request.Context(), s.Core).ListDatasets(c.Param("projectId"), page, limit)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, list)
}
