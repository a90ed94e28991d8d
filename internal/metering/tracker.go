// Package metering accumulates coarse usage counters per LLM stage and tool
// and flushes them to Postgres on an interval. Recording is fire-and-forget:
// a request with no tracker in its context meters nothing.
package metering

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"chandler/pkg/logging"
)

type contextKey struct{}

// WithContext attaches a tracker to the request context.
func WithContext(ctx context.Context, tracker *UsageTracker) context.Context {
	if tracker == nil {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, tracker)
}

// FromContext returns the tracker carried by ctx, if any.
func FromContext(ctx context.Context) (*UsageTracker, bool) {
	if ctx == nil {
		return nil, false
	}
	tracker, ok := ctx.Value(contextKey{}).(*UsageTracker)
	return tracker, ok && tracker != nil
}

// RecordLLMCall counts one model completion for the named pipeline stage.
func RecordLLMCall(ctx context.Context, stage string) {
	if tracker, ok := FromContext(ctx); ok {
		tracker.Record("llm_" + stage)
	}
}

// RecordToolCall counts one tool dispatch through the gateway.
func RecordToolCall(ctx context.Context, tool string) {
	if tracker, ok := FromContext(ctx); ok {
		tracker.Record("tool_" + tool)
	}
}

// RecordEmbedding counts one embedding request.
func RecordEmbedding(ctx context.Context) {
	if tracker, ok := FromContext(ctx); ok {
		tracker.Record("embedding")
	}
}

// UsageTrackerConfig wires a tracker to its sink.
type UsageTrackerConfig struct {
	DB     *sql.DB
	Logger logging.Logger
	// Model is stamped on llm_* rows.
	Model string
	// FlushInterval defaults to one minute.
	FlushInterval time.Duration
}

// UsageTracker buffers event counts in memory and persists them periodically.
// Counters survive a failed flush by being folded back into the buffer.
type UsageTracker struct {
	db            *sql.DB
	logger        logging.Logger
	model         string
	flushInterval time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}

	mu     sync.Mutex
	counts map[string]int
}

// NewUsageTracker creates a tracker. Call Start to begin the flush loop.
func NewUsageTracker(cfg UsageTrackerConfig) *UsageTracker {
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = time.Minute
	}
	return &UsageTracker{
		db:            cfg.DB,
		logger:        cfg.Logger,
		model:         cfg.Model,
		flushInterval: flushInterval,
		stopCh:        make(chan struct{}),
		counts:        make(map[string]int),
	}
}

// Start launches the background flush loop.
func (t *UsageTracker) Start() {
	if t == nil {
		return
	}
	go t.loop()
}

// Stop halts the flush loop after one final flush.
func (t *UsageTracker) Stop() {
	if t == nil {
		return
	}
	t.stopOnce.Do(func() {
		close(t.stopCh)
	})
}

// Record increments the counter for eventType.
func (t *UsageTracker) Record(eventType string) {
	if t == nil || eventType == "" {
		return
	}
	t.mu.Lock()
	t.counts[eventType]++
	t.mu.Unlock()
}

func (t *UsageTracker) loop() {
	ticker := time.NewTicker(t.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.Flush(context.Background())
		case <-t.stopCh:
			t.Flush(context.Background())
			return
		}
	}
}

// Flush persists and clears the buffered counters. Rows that fail to insert
// are requeued for the next flush.
func (t *UsageTracker) Flush(ctx context.Context) {
	if t == nil || t.db == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	t.mu.Lock()
	if len(t.counts) == 0 {
		t.mu.Unlock()
		return
	}
	snapshot := t.counts
	t.counts = make(map[string]int)
	t.mu.Unlock()

	for eventType, count := range snapshot {
		if err := t.insertEvent(ctx, eventType, count); err != nil {
			t.requeue(eventType, count)
			if t.logger != nil {
				t.logger.WithError(err).WithField("event_type", eventType).Warn("Failed to persist usage event")
			}
		}
	}
}

func (t *UsageTracker) insertEvent(ctx context.Context, eventType string, count int) error {
	if count <= 0 {
		return nil
	}
	model := ""
	if len(eventType) > 4 && eventType[:4] == "llm_" {
		model = t.model
	}
	_, err := t.db.ExecContext(ctx, `
		INSERT INTO usage_events (event_type, event_count, model, created_at)
		VALUES ($1, $2, $3, NOW())
	`, eventType, count, model)
	if err != nil {
		return fmt.Errorf("insert usage event: %w", err)
	}
	return nil
}

func (t *UsageTracker) requeue(eventType string, count int) {
	t.mu.Lock()
	t.counts[eventType] += count
	t.mu.Unlock()
}
