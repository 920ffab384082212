package service

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/easy-dataset/easy-dataset/app/core"
	"github.com/easy-dataset/easy-dataset/app/response"
	"github.com/easy-dataset/easy-dataset/cmd/service/handler"
	"github.com/easy-dataset/easy-dataset/cmd/service/middleware"
	"github.com/easy-dataset/easy-dataset/pkg/metrics"
)

func serve(core *core.Core) *http.Server {
	httpSrv := &handler.HttpSrv{
		Core:   core,
		Engine: core.HttpEngine(),
	}
	setupHttpRouter(httpSrv)

	srv := &http.Server{
		Addr:    core.Cfg().Addr,
		Handler: core.HttpEngine(),
	}
	go func() {
		slog.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server stopped", slog.String("error", err.Error()))
		}
	}()
	return srv
}

// GetProjectLimitBuilder 按项目限制生成类接口的调用频率
func GetProjectLimitBuilder(appCore *core.Core) middleware.LimiterFunc {
	return func(key string, opts ...core.LimitOption) gin.HandlerFunc {
		return middleware.UseLimit(appCore, key, func(c *gin.Context) string {
			return c.Param("projectId")
		}, opts...)
	}
}

func setupHttpRouter(s *handler.HttpSrv) {
	projectLimit := GetProjectLimitBuilder(s.Core)

	s.Engine.Use(gin.Recovery())
	s.Engine.GET("/metrics", metrics.DefaultExportHandler())
	s.Engine.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	s.Engine.Use(middleware.I18n(), response.NewResponse())
	s.Engine.Use(middleware.Cors)
	s.Engine.Use(middleware.Metrics(s.Core))

	apiV1 := s.Engine.Group("/api/v1")
	{
		apiV1.GET("/projects", s.ListProjects)
		apiV1.POST("/projects", s.CreateProject)

		project := apiV1.Group("/projects/:projectId")
		project.GET("", s.GetProject)
		project.PUT("", s.UpdateProject)
		project.GET("/events", handler.Events(s.Core))

		models := project.Group("/model-configs")
		{
			models.GET("", s.ListModelConfigs)
			models.POST("", s.CreateModelConfig)
		}

		tasks := project.Group("/tasks")
		{
			tasks.POST("", projectLimit("task"), s.CreateTask)
			tasks.GET("/list", s.ListTasks)
			tasks.GET("/:taskId", s.GetTask)
			tasks.PATCH("/:taskId", s.UpdateTask)
		}

		distill := project.Group("/distill")
		{
			distill.POST("/tags", projectLimit("generate"), s.GenerateDistillTags)
			distill.POST("/questions", projectLimit("generate"), s.GenerateDistillQuestions)
			distill.GET("/tags/all", s.AllDistillTags)
		}
		project.GET("/questions/tree", s.QuestionsTree)

		datasets := project.Group("/datasets")
		{
			datasets.POST("", projectLimit("generate"), s.GenerateDataset)
			datasets.GET("", s.ListDatasets)
		}

		files := project.Group("/files")
		{
			files.POST("", s.UploadFile)
			files.GET("", s.ListFiles)

			files.POST("/:fileId/ga-pairs", projectLimit("generate"), s.GenerateGaPairs)
			files.GET("/:fileId/ga-pairs", s.ListGaPairs)
			files.PUT("/:fileId/ga-pairs", s.ReplaceGaPairs)
			files.PATCH("/:fileId/ga-pairs", s.ToggleGaPair)
		}
		project.POST("/ga-pairs/batch-generate", projectLimit("generate"), s.BatchGenerateGaPairs)
		project.GET("/chunks", s.ListChunks)
	}
}
