package core

import (
	"context"
	"expvar"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var expvarSeq atomic.Uint64

// OperationStats aggregates outcomes for one operation or one entity.
type OperationStats struct {
	Success int64   `json:"success"`
	Error   int64   `json:"error"`
	TotalMS float64 `json:"total_ms"`
}

// ExpvarMetricsSnapshot is the recorder state split two ways: by full
// operation name ("plot.set_cell") and by entity ("plot").
type ExpvarMetricsSnapshot struct {
	Operations map[string]OperationStats `json:"operations"`
	Entities   map[string]OperationStats `json:"entities"`
}

// ExpvarMetricsRecorder publishes an expvar map with "operations" and
// "entities" sub-maps, each holding success/error counts and total_ms.
type ExpvarMetricsRecorder struct {
	name       string
	mu         sync.Mutex
	operations *expvar.Map
	entities   *expvar.Map
}

// NewExpvarMetricsRecorder publishes a recorder under name, or under
// potager_operations_<n> when name is empty. Names must be unique per process.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		name = fmt.Sprintf("potager_operations_%d", expvarSeq.Add(1))
	}
	r := &ExpvarMetricsRecorder{
		name:       name,
		operations: new(expvar.Map).Init(),
		entities:   new(expvar.Map).Init(),
	}
	root := expvar.NewMap(name)
	root.Set("operations", r.operations)
	root.Set("entities", r.entities)
	return r
}

// Name returns the published expvar name.
func (r *ExpvarMetricsRecorder) Name() string { return r.name }

func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := string(AuditStatusError)
	if success {
		status = string(AuditStatusSuccess)
	}
	ms := float64(duration) / float64(time.Millisecond)
	for _, stats := range []*expvar.Map{
		r.stats(r.operations, operation),
		r.stats(r.entities, OperationEntity(operation)),
	} {
		stats.Add(status, 1)
		stats.AddFloat("total_ms", ms)
	}
}

func (r *ExpvarMetricsRecorder) stats(parent *expvar.Map, key string) *expvar.Map {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := parent.Get(key).(*expvar.Map); ok {
		return m
	}
	m := new(expvar.Map).Init()
	parent.Set(key, m)
	return m
}

// Snapshot copies the published counters.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	return ExpvarMetricsSnapshot{
		Operations: collectStats(r.operations),
		Entities:   collectStats(r.entities),
	}
}

func collectStats(parent *expvar.Map) map[string]OperationStats {
	out := make(map[string]OperationStats)
	parent.Do(func(kv expvar.KeyValue) {
		m, ok := kv.Value.(*expvar.Map)
		if !ok {
			return
		}
		var s OperationStats
		if v, ok := m.Get(string(AuditStatusSuccess)).(*expvar.Int); ok {
			s.Success = v.Value()
		}
		if v, ok := m.Get(string(AuditStatusError)).(*expvar.Int); ok {
			s.Error = v.Value()
		}
		if v, ok := m.Get("total_ms").(*expvar.Float); ok {
			s.TotalMS = v.Value()
		}
		out[kv.Key] = s
	})
	return out
}
