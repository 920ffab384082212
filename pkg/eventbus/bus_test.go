package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easy-dataset/easy-dataset/pkg/types"
)

func receive(t *testing.T, s *Subscription) Event {
	t.Helper()
	select {
	case e, ok := <-s.C():
		require.True(t, ok, "subscription closed")
		return e
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
	return Event{}
}

func TestSubscribeFiltersByProjectAndKind(t *testing.T) {
	bus := New()
	defer bus.Close()

	all := bus.Subscribe("")
	p1 := bus.Subscribe("p1")
	p1Finished := bus.Subscribe("p1", KindTaskFinished)

	ctx := context.Background()
	PublishPayload(ctx, bus, KindTaskProgress, "p2", "t2", TaskProgress{CompletedCount: 1, TotalCount: 2})
	PublishPayload(ctx, bus, KindTaskProgress, "p1", "t1", TaskProgress{CompletedCount: 3, TotalCount: 8})
	PublishPayload(ctx, bus, KindTaskFinished, "p1", "t1", TaskProgress{Status: types.TASK_STATUS_COMPLETED})

	assert.Equal(t, "p2", receive(t, all).ProjectID)
	assert.Equal(t, "p1", receive(t, all).ProjectID)

	e := receive(t, p1)
	assert.Equal(t, KindTaskProgress, e.Kind)
	payload, err := Decode[TaskProgress](e)
	require.NoError(t, err)
	assert.EqualValues(t, 3, payload.CompletedCount)
	assert.EqualValues(t, 8, payload.TotalCount)

	e = receive(t, p1Finished)
	assert.Equal(t, KindTaskFinished, e.Kind)
	assert.NotEmpty(t, e.ID)
}

func TestCloseStopsDelivery(t *testing.T) {
	bus := New()
	s := bus.Subscribe("p1")
	assert.Equal(t, 1, bus.Subscribers())

	s.Close()
	s.Close()
	assert.Equal(t, 0, bus.Subscribers())
	_, ok := <-s.C()
	assert.False(t, ok)

	require.NoError(t, bus.Close())
	late := bus.Subscribe("p1")
	_, ok = <-late.C()
	assert.False(t, ok)

	// 关闭后发布不会 panic
	PublishPayload(context.Background(), bus, KindTaskProgress, "p1", "t1", TaskProgress{})
}

func TestSlowSubscriberDoesNotBlockPublisher(t *testing.T) {
	bus := New()
	defer bus.Close()
	s := bus.Subscribe("p1")

	for i := 0; i < defaultBuffer+10; i++ {
		PublishPayload(context.Background(), bus, KindTaskProgress, "p1", "t1", TaskProgress{CompletedCount: int64(i)})
	}
	assert.Len(t, s.C(), defaultBuffer)
}

// memoryRelay 模拟两个进程共享的 redis channel
type memoryRelay struct {
	mu        sync.Mutex
	listeners []func(Event)
	ready     chan struct{}
}

type relayEnd struct {
	hub *memoryRelay
}

func (r relayEnd) Forward(_ context.Context, e Event) error {
	r.hub.mu.Lock()
	ls := append([]func(Event){}, r.hub.listeners...)
	r.hub.mu.Unlock()
	for _, l := range ls {
		l(e)
	}
	return nil
}

func (r relayEnd) Listen(ctx context.Context, fn func(Event)) error {
	r.hub.mu.Lock()
	r.hub.listeners = append(r.hub.listeners, fn)
	r.hub.mu.Unlock()
	r.hub.ready <- struct{}{}
	<-ctx.Done()
	return nil
}

func (r relayEnd) Close() error { return nil }

func TestRelayDeliversAcrossBuses(t *testing.T) {
	hub := &memoryRelay{ready: make(chan struct{}, 2)}
	api, worker := New(), New()
	api.AttachRelay(relayEnd{hub: hub})
	worker.AttachRelay(relayEnd{hub: hub})
	<-hub.ready
	<-hub.ready
	defer api.Close()
	defer worker.Close()

	s := api.Subscribe("p1")
	PublishPayload(context.Background(), worker, KindTaskProgress, "p1", "t1", TaskProgress{CompletedCount: 5})

	e := receive(t, s)
	assert.Equal(t, "t1", e.TaskID)

	// 自己发布的事件不会经 relay 重复投递
	PublishPayload(context.Background(), api, KindTaskFinished, "p1", "t1", TaskProgress{})
	assert.Equal(t, KindTaskFinished, receive(t, s).Kind)
	select {
	case e := <-s.C():
		t.Fatalf("unexpected duplicate event %s", e.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}
