package core

import (
	"context"
	"errors"
	"time"

	"potager/internal/infra/persistence/memory"
	"potager/pkg/domain"
)

// Service exposes the transactional garden operations on top of a
// PersistentStore. Every call is traced, timed and logged; writes are audited.
type Service struct {
	store   PersistentStore
	logger  Logger
	clock   Clock
	audit   AuditRecorder
	metrics MetricsRecorder
	tracer  Tracer
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	o := defaultServiceOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if setter, ok := store.(interface{ SetNowFunc(func() time.Time) }); ok {
		setter.SetNowFunc(o.clock.Now)
	}
	return &Service{
		store:   store,
		logger:  o.logger,
		clock:   o.clock,
		audit:   o.audit,
		metrics: o.metrics,
		tracer:  o.tracer,
	}
}

// NewInMemoryService creates a service over a fresh in-memory store. A nil
// engine selects NewDefaultRulesEngine.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// Now returns the service clock reading.
func (s *Service) Now() time.Time {
	return s.clock.Now()
}

// write runs fn in a store transaction. fn returns the id of the entity it
// touched so the audit entry and logs can reference it.
func (s *Service) write(ctx context.Context, op string, entity EntityType, action domain.Action, fn func(tx Transaction) (string, error)) (Result, error) {
	start := s.clock.Now()
	ctx, span := s.tracer.Start(ctx, op)
	var entityID string
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		id, err := fn(tx)
		entityID = id
		return err
	})
	duration := s.clock.Now().Sub(start)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, duration)

	entry := AuditEntry{
		Operation: op,
		Entity:    entity,
		Action:    string(action),
		EntityID:  entityID,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: start,
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
	}
	s.audit.Record(ctx, entry)

	if err != nil {
		s.logFailure(op, entityID, err)
		return res, err
	}
	for _, w := range res.Warnings() {
		s.logger.Info("rule warning", "operation", op, "rule", w.Rule, "entity_id", w.EntityID, "message", w.Message)
	}
	s.logger.Debug("operation complete", "operation", op, "entity_id", entityID, "duration", duration)
	return res, nil
}

// read runs fn against a store snapshot.
func (s *Service) read(ctx context.Context, op string, fn func(view TransactionView) error) error {
	start := s.clock.Now()
	ctx, span := s.tracer.Start(ctx, op)
	err := s.store.View(ctx, fn)
	duration := s.clock.Now().Sub(start)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, duration)
	if err != nil {
		s.logFailure(op, "", err)
	}
	return err
}

func (s *Service) logFailure(op, entityID string, err error) {
	var violation domain.RuleViolationError
	switch {
	case IsValidation(err), IsNotFound(err), errors.As(err, &violation):
		s.logger.Warn("operation rejected", "operation", op, "entity_id", entityID, "error", err)
	default:
		s.logger.Error("operation failed", "operation", op, "entity_id", entityID, "error", err)
	}
}
