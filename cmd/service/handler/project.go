package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/easy-dataset/easy-dataset/app/logic/v1"
	"github.com/easy-dataset/easy-dataset/app/response"
	"github.com/easy-dataset/easy-dataset/pkg/types"
	"github.com/easy-dataset/easy-dataset/pkg/utils"
)

func (s *HttpSrv) CreateProject(c *gin.Context) {
	var req v1.UpsertProjectRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	project, err := v1.NewProjectLogic(c.Request.Context(), s.Core).CreateProject(req)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, project)
}

func (s *HttpSrv) ListProjects(c *gin.Context) {
	list, err := v1.NewProjectLogic(c.Request.Context(), s.Core).ListProjects()
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, list)
}

func (s *HttpSrv) GetProject(c *gin.Context) {
	project, err := v1.NewProjectLogic(c.Request.Context(), s.Core).GetProject(c.Param("projectId"))
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, project)
}

func (s *HttpSrv) UpdateProject(c *gin.Context) {
	var req v1.UpsertProjectRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	project, err := v1.NewProjectLogic(c.Request.Context(), s.Core).UpdateProject(c.Param("projectId"), req)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, project)
}

func (s *HttpSrv) CreateModelConfig(c *gin.Context) {
	var req types.ModelConfig
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	model, err := v1.NewProjectLogic(c.Request.Context(), s.Core).CreateModelConfig(c.Param("projectId"), req)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, model)
}

func (s *HttpSrv) ListModelConfigs(c *gin.Context) {
	list, err := v1.NewProjectLogic(c.Request.Context(), s.Core).ListModelConfigs(c.Param("projectId"))
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, list)
}
