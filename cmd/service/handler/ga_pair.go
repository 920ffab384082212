package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/easy-dataset/easy-dataset/app/logic/v1"
	"github.com/easy-dataset/easy-dataset/app/response"
	"github.com/easy-dataset/easy-dataset/pkg/utils"
)

func (s *HttpSrv) GenerateGaPairs(c *gin.Context) {
	var req v1.GenerateGaPairsRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	res, err := v1.NewGaPairLogic(c.Request.Context(), s.Core).Generate(c.Param("projectId"), c.Param("fileId"), req)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, res)
}

func (s *HttpSrv) ListGaPairs(c *gin.Context) {
	list, err := v1.NewGaPairLogic(c.Request.Context(), s.Core).List(c.Param("projectId"), c.Param("fileId"))
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, list)
}

func (s *HttpSrv) ReplaceGaPairs(c *gin.Context) {
	var req v1.ReplaceGaPairsRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	list, err := v1.NewGaPairLogic(c.Request.Context(), s.Core).Replace(c.Param("projectId"), c.Param("fileId"), req)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, list)
}

func (s *HttpSrv) ToggleGaPair(c *gin.Context) {
	var req v1.ToggleGaPairRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	pair, err := v1.NewGaPairLogic(c.Request.Context(), s.Core).Toggle(c.Param("projectId"), c.Param("fileId"), req)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, pair)
}

func (s *HttpSrv) BatchGenerateGaPairs(c *gin.Context) {
	var req v1.BatchGenerateGaPairsRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	res, err := v1.NewGaPairLogic(c.Request.Context(), s.Core).BatchGenerate(c.Param("projectId"), req)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, res)
}
