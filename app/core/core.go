package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/easy-dataset/easy-dataset/app/store/sqlstore"
	"github.com/easy-dataset/easy-dataset/pkg/ai"
	"github.com/easy-dataset/easy-dataset/pkg/distill"
	"github.com/easy-dataset/easy-dataset/pkg/document"
	"github.com/easy-dataset/easy-dataset/pkg/domaintree"
	"github.com/easy-dataset/easy-dataset/pkg/eventbus"
	"github.com/easy-dataset/easy-dataset/pkg/gapair"
	"github.com/easy-dataset/easy-dataset/pkg/generate"
	"github.com/easy-dataset/easy-dataset/pkg/i18n"
	"github.com/easy-dataset/easy-dataset/pkg/object-storage/s3"
	"github.com/easy-dataset/easy-dataset/pkg/queue"
	"github.com/easy-dataset/easy-dataset/pkg/safe"
	"github.com/easy-dataset/easy-dataset/pkg/splitter"
	"github.com/easy-dataset/easy-dataset/pkg/tasks"
	"github.com/easy-dataset/easy-dataset/pkg/types"
)

type Core struct {
	cfg CoreConfig

	stores     func() *sqlstore.Provider
	redis      redis.UniversalClient
	bus        *eventbus.Bus
	storage    *FileStorage
	httpEngine *gin.Engine
	metrics    *Metrics
	registry   *prometheus.Registry
	prompts    *ai.PromptManager
	i18n       i18n.Localizer

	taskQueue *queue.TaskQueue

	limiters   limiterRegistry
	localLocks SingleLock

	Services
}

// Services 业务层共享的领域服务
type Services struct {
	Runner     *tasks.Runner
	Distill    *distill.Service
	GaPairs    *gapair.Service
	Questions  *generate.QuestionGenerator
	Answers    *generate.AnswerGenerator
	DomainTree *domaintree.Builder
	Splitter   *splitter.ProjectSplitter
}

func MustSetupCore(cfg CoreConfig) *Core {
	slog.SetDefault(NewLogger(cfg.Log))

	registry := prometheus.NewRegistry()
	core := &Core{
		cfg:        cfg,
		registry:   registry,
		metrics:    NewMetrics("eds", "core", registry),
		httpEngine: gin.New(),
		prompts:    ai.NewPromptManager(),
		i18n:       i18n.NewLocalizer(types.LANGUAGE_CN_KEY, types.LANGUAGE_EN_KEY),
		bus:        eventbus.New(),
		limiters:   limiterRegistry{limiters: make(map[string]*rate.Limiter)},
	}

	// setup store
	setupSqlStore(core)
	setupRedis(core)
	setupStorage(core)
	setupServices(core)

	return core
}

func setupSqlStore(core *Core) {
	core.stores = sqlstore.MustSetup(core.cfg.Postgres)
	// 执行数据库表初始化
	if err := core.stores().Install(); err != nil {
		panic(err)
	}
	slog.Info("setupSqlStore done")
}

// setupRedis 未配置 redis 时事件只在进程内流转，任务在进程内执行
func setupRedis(core *Core) {
	cfg := core.cfg.Redis
	switch {
	case cfg.Cluster:
		core.redis = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:    cfg.ClusterAddrs,
			Password: cfg.Password,
		})
	case cfg.Addr != "":
		core.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	default:
		slog.Warn("redis is not configured, running in single process mode")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := core.redis.Ping(ctx).Err(); err != nil {
		panic(fmt.Errorf("failed to connect redis: %w", err))
	}

	core.bus.AttachRelay(eventbus.NewRedisRelay(core.redis, cfg.Prefix()))
	core.taskQueue = queue.NewTaskQueueWithClient(cfg.Prefix(), asynq.NewClient(core.AsynqRedisOpt()))
}

func setupStorage(core *Core) {
	var mirror Mirror
	if c := core.cfg.Storage.S3; c != nil && c.Bucket != "" {
		cli, err := s3.NewS3Client(c.Endpoint, c.Region, c.Bucket, c.AccessKey, c.SecretKey, s3.WithPathStyle(c.UsePathStyle))
		if err != nil {
			panic(fmt.Errorf("failed to setup s3 mirror: %w", err))
		}
		mirror = cli
	}
	core.storage = NewFileStorage(core.cfg.Storage.Root, mirror)
}

func setupServices(core *Core) {
	st := core.Store()

	answers := generate.NewAnswerGenerator(st.QuestionStore(), st.ChunkStore(), st.DatasetStore(), st.GaPairStore(), core.prompts)
	distillSrv := distill.NewService(st.TagStore(), st.ChunkStore(), st.QuestionStore(), answers, core.prompts)

	core.Services = Services{
		Distill:    distillSrv,
		Answers:    answers,
		Questions:  generate.NewQuestionGenerator(st.QuestionStore(), st.TagStore(), st.GaPairStore(), core.prompts),
		DomainTree: domaintree.NewBuilder(st.TagStore(), st, core.prompts),
		Splitter:   splitter.NewProjectSplitter(st.ChunkStore(), st),
		GaPairs: gapair.NewService(st.UploadFileStore(), st.GaPairStore(), core.storage,
			gapair.WithTokenCounter(ai.CountTokens),
			gapair.WithPrompts(core.prompts)),
	}

	core.Services.Runner = tasks.NewRunner(tasks.Dependencies{
		Tasks:     st.TaskStore(),
		Projects:  st.ProjectStore(),
		Models:    st.ModelConfigStore(),
		Chunks:    st.ChunkStore(),
		Questions: st.QuestionStore(),

		Splitter:    core.Services.Splitter,
		DomainTree:  core.Services.DomainTree,
		QuestionGen: core.Services.Questions,
		AnswerGen:   answers,

		Distill: func(llm ai.LLM, lang string) distill.Backend {
			return distillSrv.Bind(llm, lang)
		},

		Documents: document.Dependencies{
			Vision: document.VisionOptions{
				NewLLM:  core.NewLLM,
				Prompts: core.prompts,
				Limiter: core.VisionLimiter(),
				OnPage:  core.metrics.VisionPage,
			},
			MinerU: document.MinerUOptions{
				Endpoint: core.cfg.MinerU.Endpoint,
			},
		},

		FilesDir: core.storage.FilesDir,
		NewLLM:   core.NewLLM,
		Bus:      core.bus,
		OnFinish: core.metrics.ObserveTask,
	})
}

// VisionLimiter 多进程共享的视觉识别并发上限，未配置 redis 时只做进程内限制
func (s *Core) VisionLimiter() document.Limiter {
	if s.redis == nil {
		return nil
	}
	return NewDistributedSemaphore(s.redis, VisionSemaphoreKey(s.cfg.Redis.Prefix()), s.cfg.Vision.GlobalMaxConcurrency, 5*time.Minute)
}

func (s *Core) AsynqRedisOpt() asynq.RedisConnOpt {
	cfg := s.cfg.Redis
	if cfg.Cluster {
		return asynq.RedisClusterClientOpt{
			Addrs:    cfg.ClusterAddrs,
			Password: cfg.Password,
		}
	}
	return asynq.RedisClientOpt{
		Network:  "tcp",
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// Dispatch 投递任务；没有队列时在当前进程异步执行
func (s *Core) Dispatch(ctx context.Context, task types.Task) error {
	payload := queue.RunTaskPayload{
		TaskID:    task.ID,
		ProjectID: task.ProjectID,
		TaskType:  task.TaskType,
	}
	if s.taskQueue != nil {
		return s.taskQueue.Enqueue(ctx, payload)
	}

	safe.Go("core.dispatch", func() {
		if err := s.Runner.Run(context.Background(), payload.ProjectID, payload.TaskID); err != nil {
			slog.Error("task failed", slog.String("task_id", payload.TaskID), slog.String("error", err.Error()))
		}
	})
	return nil
}

func (s *Core) HasQueue() bool {
	return s.taskQueue != nil
}

func (s *Core) Cfg() CoreConfig {
	return s.cfg
}

func (s *Core) HttpEngine() *gin.Engine {
	return s.httpEngine
}

func (s *Core) Metrics() *Metrics {
	return s.metrics
}

func (s *Core) MetricsRegistry() *prometheus.Registry {
	return s.registry
}

func (s *Core) Store() *sqlstore.Provider {
	return s.stores()
}

func (s *Core) Redis() redis.UniversalClient {
	return s.redis
}

func (s *Core) Bus() *eventbus.Bus {
	return s.bus
}

func (s *Core) Storage() *FileStorage {
	return s.storage
}

func (s *Core) Prompts() *ai.PromptManager {
	return s.prompts
}

func (s *Core) I18n() i18n.Localizer {
	return s.i18n
}

func (s *Core) Close() {
	if s.taskQueue != nil {
		s.taskQueue.Shutdown()
	}
	if err := s.bus.Close(); err != nil {
		slog.Error("failed to close event bus", slog.String("error", err.Error()))
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if err := s.Store().Close(); err != nil {
		slog.Error("failed to close sql store", slog.String("error", err.Error()))
	}
}
