package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/easy-dataset/easy-dataset/app/logic/v1"
	"github.com/easy-dataset/easy-dataset/app/response"
	"github.com/easy-dataset/easy-dataset/pkg/utils"
)

func (s *HttpSrv) CreateTask(c *gin.Context) {
	var req v1.CreateTaskRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}
	req.Language = requestLanguage(c, req.Language)

	task, err := v1.NewTaskLogic(c.Request.Context(), s.Core).CreateTask(c.Param("projectId"), req)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, task)
}

func (s *HttpSrv) ListTasks(c *gin.Context) {
	var req v1.ListTasksRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	list, total, err := v1.NewTaskLogic(c.Request.Context(), s.Core).ListTasks(c.Param("projectId"), req)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, response.ListResponse[v1.TaskView]{
		List:  list,
		Total: total,
	})
}

func (s *HttpSrv) GetTask(c *gin.Context) {
	task, err := v1.NewTaskLogic(c.Request.Context(), s.Core).GetTask(c.Param("projectId"), c.Param("taskId"))
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, task)
}

func (s *HttpSrv) UpdateTask(c *gin.Context) {
	var req v1.UpdateTaskRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	task, err := v1.NewTaskLogic(c.Request.Context(), s.Core).UpdateTaskStatus(c.Param("projectId"), c.Param("taskId"), req)
	if err != nil {
		response.APIError(c, err)
		return
	}
	response.APISuccess(c, task)
}
