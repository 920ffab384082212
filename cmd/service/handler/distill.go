package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/easy-dataset/easy-dataset/app/logic/v1"
	"github.com/easy-dataset/easy-dataset/app/response"
	"github.com/easy-dataset/easy-dataset/pkg/types"
	"github.com/easy-dataset/easy-dataset/pkg/utils"
)

func (s *HttpSrv) GenerateDistillTags(c *gin.Context) {
	var req v1.GenerateTagsRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}
	req.Language = requestLanguage(c, req.Language)

	tags, err := v1.NewDistillLogic(c.Request.Context(), s.Core).GenerateTags(c.Param("projectId"), req)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, tags)
}

func (s *HttpSrv) GenerateDistillQuestions(c *gin.Context) {
	var req v1.GenerateQuestionsRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}
	req.Language = requestLanguage(c, req.Language)

	questions, err := v1.NewDistillLogic(c.Request.Context(), s.Core).GenerateQuestions(c.Param("projectId"), req)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, questions)
}

type AllTagsResponse struct {
	Tags []types.Tag      `json:"tags"`
	Tree []*types.TagNode `json:"tree"`
}

func (s *HttpSrv) AllDistillTags(c *gin.Context) {
	tags, tree, err := v1.NewDistillLogic(c.Request.Context(), s.Core).AllTags(c.Param("projectId"))
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, AllTagsResponse{
		Tags: tags,
		Tree: tree,
	})
}

func (s *HttpSrv) QuestionsTree(c *gin.Context) {
	var req struct {
		IsDistill bool `form:"isDistill"`
	}
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	list, err := v1.NewDistillLogic(c.Request.Context(), s.Core).QuestionsTree(c.Param("projectId"), req.IsDistill)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, list)
}
