package eventbus

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/easy-dataset/easy-dataset/pkg/safe"
)

const defaultBuffer = 64

// Relay 跨进程转发事件，API 进程与 worker 进程通过它共享同一条总线
type Relay interface {
	Forward(ctx context.Context, e Event) error
	Listen(ctx context.Context, fn func(Event)) error
	Close() error
}

type Bus struct {
	origin string
	subs   cmap.ConcurrentMap[string, *Subscription]
	relay  Relay
	cancel context.CancelFunc
	closed atomic.Bool
	wg     sync.WaitGroup
}

func New() *Bus {
	return &Bus{
		origin: uuid.NewString(),
		subs:   cmap.New[*Subscription](),
	}
}

// AttachRelay starts forwarding published events through r and dispatching remote ones locally.
func (b *Bus) AttachRelay(r Relay) {
	ctx, cancel := context.WithCancel(context.Background())
	b.relay = r
	b.cancel = cancel
	b.wg.Add(1)
	go safe.RunWithLog(func() {
		defer b.wg.Done()
		err := r.Listen(ctx, func(e Event) {
			if e.Origin == b.origin {
				return
			}
			b.dispatch(e)
		})
		if err != nil && ctx.Err() == nil {
			slog.Error("event relay stopped", slog.String("error", err.Error()))
		}
	}, "eventbus.relay")
}

// Subscribe projectID 为空时接收全部项目的事件，kinds 为空时接收全部类型
func (b *Bus) Subscribe(projectID string, kinds ...Kind) *Subscription {
	s := &Subscription{
		id:        uuid.NewString(),
		projectID: projectID,
		ch:        make(chan Event, defaultBuffer),
		bus:       b,
	}
	if len(kinds) > 0 {
		s.kinds = make(map[Kind]bool, len(kinds))
		for _, k := range kinds {
			s.kinds[k] = true
		}
	}
	if b.closed.Load() {
		s.done = true
		close(s.ch)
		return s
	}
	b.subs.Set(s.id, s)
	return s
}

func (b *Bus) Publish(ctx context.Context, e Event) {
	if b.closed.Load() {
		return
	}
	e.Origin = b.origin
	b.dispatch(e)
	if b.relay != nil {
		if err := b.relay.Forward(ctx, e); err != nil {
			slog.Warn("failed to forward event", slog.String("kind", string(e.Kind)), slog.String("error", err.Error()))
		}
	}
}

// PublishPayload builds a typed event and publishes it.
func PublishPayload[T any](ctx context.Context, b *Bus, kind Kind, projectID, taskID string, payload T) {
	if b == nil {
		return
	}
	e, err := NewEvent(kind, projectID, taskID, payload)
	if err != nil {
		slog.Error("failed to build event", slog.String("kind", string(kind)), slog.String("error", err.Error()))
		return
	}
	b.Publish(ctx, e)
}

func (b *Bus) dispatch(e Event) {
	b.subs.IterCb(func(_ string, s *Subscription) {
		if !s.match(e) {
			return
		}
		s.deliver(e)
	})
}

func (b *Bus) Subscribers() int {
	return b.subs.Count()
}

// Close 关闭所有订阅并停止 relay，之后的 Publish 被忽略
func (b *Bus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	if b.cancel != nil {
		b.cancel()
	}
	var err error
	if b.relay != nil {
		err = b.relay.Close()
	}
	b.wg.Wait()
	for _, s := range b.subs.Items() {
		s.Close()
	}
	return err
}

type Subscription struct {
	id        string
	projectID string
	kinds     map[Kind]bool
	ch        chan Event
	bus       *Bus
	mu        sync.Mutex
	done      bool
}

func (s *Subscription) C() <-chan Event {
	return s.ch
}

func (s *Subscription) match(e Event) bool {
	if s.projectID != "" && s.projectID != e.ProjectID {
		return false
	}
	return s.kinds == nil || s.kinds[e.Kind]
}

// deliver 订阅者处理过慢时丢弃事件，不阻塞发布方
func (s *Subscription) deliver(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	select {
	case s.ch <- e:
	default:
		slog.Warn("event dropped, subscriber too slow", slog.String("subscription", s.id), slog.String("kind", string(e.Kind)))
	}
}

// Close 先从总线摘除再关闭 channel，避免与 dispatch 互相持锁
func (s *Subscription) Close() {
	s.bus.subs.Remove(s.id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.done = true
	close(s.ch)
}
