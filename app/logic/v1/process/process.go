package process

import (
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"

	"github.com/easy-dataset/easy-dataset/app/core"
	"github.com/easy-dataset/easy-dataset/pkg/queue"
	"github.com/easy-dataset/easy-dataset/pkg/register"
)

type Process struct {
	cron        *cron.Cron
	core        *core.Core
	asynqServer *asynq.Server
	asynqMux    *asynq.ServeMux
}

type ProcessKey struct{}

// NewProcess 未配置 redis 时只启动定时任务，任务由 API 进程内执行
func NewProcess(core *core.Core) *Process {
	p := &Process{
		cron: cron.New(),
		core: core,
	}

	if core.HasQueue() {
		p.asynqServer = asynq.NewServer(core.AsynqRedisOpt(), asynq.Config{
			Concurrency: core.Cfg().Worker.Concurrency,
			Queues: map[string]int{
				queue.TaskQueueName: 1,
			},
			Logger: newAsynqLogger(),
		})
		p.asynqMux = asynq.NewServeMux()
	}

	for _, h := range register.ResolveFuncHandlers[*Process](ProcessKey{}) {
		h(p)
	}

	return p
}

func (p *Process) Cron() *cron.Cron {
	return p.cron
}

func (p *Process) Core() *core.Core {
	return p.core
}

// AsynqServerMux 为 nil 表示当前没有任务队列
func (p *Process) AsynqServerMux() *asynq.ServeMux {
	return p.asynqMux
}

func (p *Process) Start() {
	p.cron.Start()
	if p.asynqServer != nil {
		go func() {
			if err := p.asynqServer.Run(p.asynqMux); err != nil {
				slog.Error("asynq server stopped", slog.String("error", err.Error()))
			}
		}()
	}
}

func (p *Process) Stop() {
	if p.cron != nil {
		ctx := p.cron.Stop()
		<-ctx.Done()
	}
	if p.asynqServer != nil {
		p.asynqServer.Shutdown()
	}
}
