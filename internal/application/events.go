package application

import (
	"sync"
	"time"

	"github.com/gammazero/workerpool"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

// defaultNotifierWorkers bounds concurrent sink deliveries so one slow
// subscriber cannot starve the rest.
const defaultNotifierWorkers = 4

// EventNotifier fans run events out to registered sinks on a bounded
// worker pool. Emit never blocks the caller; delivery is fire-and-forget
// and ordering across sinks is not guaranteed.
type EventNotifier struct {
	pool    *workerpool.WorkerPool
	metrics ports.MetricsCollector

	mu    sync.RWMutex
	sinks []ports.RunEventSink
}

// NewEventNotifier creates a notifier with the given worker count;
// non-positive counts use the default.
func NewEventNotifier(workers int, metrics ports.MetricsCollector) *EventNotifier {
	if workers <= 0 {
		workers = defaultNotifierWorkers
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &EventNotifier{
		pool:    workerpool.New(workers),
		metrics: metrics,
	}
}

// Subscribe registers a sink for all subsequent events.
func (n *EventNotifier) Subscribe(sink ports.RunEventSink) {
	n.mu.Lock()
	n.sinks = append(n.sinks, sink)
	n.mu.Unlock()
}

// Emit enqueues one event for delivery to every registered sink.
func (n *EventNotifier) Emit(kind ports.RunEventKind, evalID domain.EvaluationID, taskID domain.TaskRunID) {
	event := ports.RunEvent{
		Kind:         kind,
		EvaluationID: evalID,
		TaskID:       taskID,
		Timestamp:    time.Now(),
	}
	n.metrics.RecordRunEvent(kind)

	n.mu.RLock()
	sinks := make([]ports.RunEventSink, len(n.sinks))
	copy(sinks, n.sinks)
	n.mu.RUnlock()

	for _, sink := range sinks {
		n.pool.Submit(func() { sink.Notify(event) })
	}
}

// Stop waits for in-flight deliveries to drain and releases the pool.
func (n *EventNotifier) Stop() { n.pool.StopWait() }
