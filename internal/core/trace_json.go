package core

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// SpanRecord is one finished service span.
type SpanRecord struct {
	Operation  string    `json:"operation"`
	Entity     string    `json:"entity"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Start      time.Time `json:"start"`
	DurationMS float64   `json:"duration_ms"`
}

// JSONTracer appends one JSON line per finished span to a writer and keeps
// the records in memory.
type JSONTracer struct {
	mu    sync.Mutex
	out   io.Writer
	spans []SpanRecord
	now   func() time.Time
}

// NewJSONTracer returns a tracer writing to w; a nil w only keeps records.
func NewJSONTracer(w io.Writer) *JSONTracer {
	return &JSONTracer{out: w, now: time.Now}
}

// Spans returns the finished spans in completion order.
func (t *JSONTracer) Spans() []SpanRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]SpanRecord(nil), t.spans...)
}

func (t *JSONTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &jsonSpan{tracer: t, operation: operation, start: t.now().UTC()}
}

type jsonSpan struct {
	tracer    *JSONTracer
	operation string
	start     time.Time
}

func (s *jsonSpan) End(err error) {
	rec := SpanRecord{
		Operation:  s.operation,
		Entity:     OperationEntity(s.operation),
		Status:     string(AuditStatusSuccess),
		Start:      s.start,
		DurationMS: float64(s.tracer.now().Sub(s.start)) / float64(time.Millisecond),
	}
	if err != nil {
		rec.Status = string(AuditStatusError)
		rec.Error = err.Error()
	}

	t := s.tracer
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spans = append(t.spans, rec)
	if t.out == nil {
		return
	}
	line, mErr := json.Marshal(rec)
	if mErr != nil {
		return
	}
	_, _ = t.out.Write(append(line, '\n'))
}
