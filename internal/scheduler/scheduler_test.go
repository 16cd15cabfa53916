package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"nirvana_backend/internal/intake/domain"
	"nirvana_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type recordingHandler struct {
	mu      sync.Mutex
	events  []domain.InboundEvent
	err     error
	block   chan struct{}
	running atomic.Int32
	peak    atomic.Int32
}

func (h *recordingHandler) Handle(_ context.Context, evt domain.InboundEvent) (domain.Reply, error) {
	n := h.running.Add(1)
	defer h.running.Add(-1)
	for {
		p := h.peak.Load()
		if n <= p || h.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if h.block != nil {
		<-h.block
	}

	h.mu.Lock()
	h.events = append(h.events, evt)
	h.mu.Unlock()
	return domain.Reply{To: evt.SenderID}, h.err
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func sampleEvent() domain.InboundEvent {
	return domain.InboundEvent{
		MessageID:  "wamid.1",
		SenderID:   "919876543210",
		Type:       domain.EventLocation,
		Location:   &domain.Coordinates{Latitude: 12.9716, Longitude: 77.5946},
		ReceivedAt: time.Unix(1700000000, 0).UTC(),
	}
}

func TestInboundMessageTask_PreservesEvent(t *testing.T) {
	evt := sampleEvent()
	task, err := NewInboundMessageTask(evt)
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if task.Type() != TaskInboundMessage {
		t.Fatalf("unexpected task type %q", task.Type())
	}

	payload, err := ParseInboundMessagePayload(task)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := payload.Event
	if got.SenderID != evt.SenderID || got.Type != evt.Type || got.Location == nil || *got.Location != *evt.Location {
		t.Fatalf("event not preserved: %+v", got)
	}
	if !got.ReceivedAt.Equal(evt.ReceivedAt) {
		t.Fatalf("timestamp not preserved: %v", got.ReceivedAt)
	}
}

func TestParseInboundMessagePayload_RejectsMissingSender(t *testing.T) {
	task := asynq.NewTask(TaskInboundMessage, []byte(`{"event":{"type":"text","text":"hi"}}`))
	if _, err := ParseInboundMessagePayload(task); err == nil {
		t.Fatalf("expected error for task without sender")
	}
}

func TestWorker_MalformedTaskSkipsRetry(t *testing.T) {
	h := &recordingHandler{}
	w := &Worker{handler: h, log: logger.New("test")}

	err := w.handleInboundMessage(context.Background(), asynq.NewTask(TaskInboundMessage, []byte("{")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
	if h.count() != 0 {
		t.Fatalf("handler must not run for malformed task")
	}
}

func TestWorker_HandlesEvent(t *testing.T) {
	h := &recordingHandler{}
	w := &Worker{handler: h, log: logger.New("test")}

	task, _ := NewInboundMessageTask(sampleEvent())
	if err := w.handleInboundMessage(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if h.count() != 1 {
		t.Fatalf("expected one handled event, got %d", h.count())
	}
}

func TestWorker_PropagatesHandlerError(t *testing.T) {
	h := &recordingHandler{err: errors.New("lock timeout")}
	w := &Worker{handler: h, log: logger.New("test")}

	task, _ := NewInboundMessageTask(sampleEvent())
	if err := w.handleInboundMessage(context.Background(), task); err == nil {
		t.Fatalf("expected error to trigger a retry")
	}
}

func TestInlineDispatcher_BoundsConcurrency(t *testing.T) {
	h := &recordingHandler{block: make(chan struct{})}
	d := NewInlineDispatcher(h, 2, time.Second, logger.New("test"))

	for i := 0; i < 2; i++ {
		if err := d.Dispatch(context.Background(), sampleEvent()); err != nil {
			t.Fatalf("dispatch %d: %v", i, err)
		}
	}

	// Both slots are taken; a third dispatch must wait for one to free up.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := d.Dispatch(ctx, sampleEvent()); err == nil {
		t.Fatalf("expected dispatch to block while workers are busy")
	}

	close(h.block)
	waitCtx, waitCancel := context.WithTimeout(context.Background(), time.Second)
	defer waitCancel()
	if err := d.Wait(waitCtx); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if h.count() != 2 {
		t.Fatalf("expected 2 handled events, got %d", h.count())
	}
	if h.peak.Load() > 2 {
		t.Fatalf("concurrency bound exceeded: %d", h.peak.Load())
	}
}

func TestInlineDispatcher_OutlivesRequestContext(t *testing.T) {
	h := &recordingHandler{}
	d := NewInlineDispatcher(h, 1, time.Second, logger.New("test"))

	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Dispatch(ctx, sampleEvent()); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	cancel()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), time.Second)
	defer waitCancel()
	if err := d.Wait(waitCtx); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if h.count() != 1 {
		t.Fatalf("event dropped after request context was cancelled")
	}
}

type countingSweeper struct{ calls atomic.Int32 }

func (s *countingSweeper) Sweep() int {
	s.calls.Add(1)
	return 1
}

func TestSessionSweep_RunsUntilCancelled(t *testing.T) {
	store := &countingSweeper{}
	sweep := NewSessionSweep(store, logger.New("test"), 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweep.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for store.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if store.calls.Load() < 2 {
		t.Fatalf("expected repeated sweeps, got %d", store.calls.Load())
	}
}
