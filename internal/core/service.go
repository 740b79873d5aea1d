package core

import (
	"context"
	"fmt"
	"time"

	"monkeycore/internal/archive"
	"monkeycore/internal/currency"
	"monkeycore/internal/infra/persistence/memory"
	"monkeycore/pkg/domain"
)

// Service exposes the ledger operations. Every mutating call runs as one
// transaction on the store: it either commits completely, including its
// currency movements, or leaves no trace.
type Service struct {
	store   PersistentStore
	cfg     Config
	fees    Currency
	sales   Currency
	archive *archive.Archive

	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
	audit   AuditRecorder
	clock   Clock
	events  EventSink
}

// NewService wraps store and initialises the sentinel asset and domain
// controls if the store is empty.
func NewService(store PersistentStore, cfg Config, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	s := &Service{
		store: store,
		cfg:   cfg,
		fees: currency.NewLedger(
			currency.WithName("banana"),
			currency.WithSpender(cfg.Treasury),
			currency.WithCollector(cfg.Treasury),
		),
		sales:   currency.NewLedger(currency.WithName("wei")),
		logger:  noopLogger{},
		metrics: noopMetrics{},
		tracer:  noopTracer{},
		audit:   noopAudit{},
		clock:   systemClock{},
		events:  noopSink{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if err := s.genesis(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// NewInMemoryService builds a service over a fresh in-memory store using the
// default rules.
func NewInMemoryService(cfg Config, opts ...ServiceOption) (*Service, error) {
	return NewService(memory.NewStore(NewDefaultRulesEngine()), cfg, opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore { return s.store }

// Config returns the effective configuration.
func (s *Service) Config() Config { return s.cfg }

// FeeCurrency returns the currency breeding fees are charged in.
func (s *Service) FeeCurrency() Currency { return s.fees }

// SaleCurrency returns the currency purchases settle in.
func (s *Service) SaleCurrency() Currency { return s.sales }

func (s *Service) genesis(ctx context.Context) error {
	var needed bool
	if err := s.store.View(ctx, func(v TransactionView) error {
		needed = v.NextID() == 0
		for _, d := range domain.Domains {
			if _, ok := v.Control(d); !ok {
				needed = true
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("%s: %w", opGenesis, err)
	}
	if !needed {
		return nil
	}
	_, err := s.mutate(ctx, opGenesis, s.cfg.RegistryOwner, func(tx Transaction, op *operation) error {
		if tx.NextID() == 0 {
			if _, err := tx.CreateAsset(Asset{Genes: s.cfg.SentinelGenes}); err != nil {
				return err
			}
		}
		for _, d := range domain.Domains {
			if _, ok := tx.Control(d); ok {
				continue
			}
			owner := s.cfg.RegistryOwner
			if d == DomainMarket {
				owner = s.cfg.MarketOwner
			}
			if err := tx.PutControl(Control{Domain: d, Owner: owner}); err != nil {
				return err
			}
		}
		return nil
	})
	return err
}

// operation carries per-call bookkeeping through a transaction body.
type operation struct {
	name     string
	actor    Identity
	entityID AssetID
	events   []Event
}

func (op *operation) emit(e Event) { op.events = append(op.events, e) }

// mutate runs fn in a transaction and reports the outcome to the tracer,
// metrics, audit log and logger. Events emitted by fn are published only
// after commit.
func (s *Service) mutate(ctx context.Context, name string, actor Identity, fn func(tx Transaction, op *operation) error) (Result, error) {
	start := s.clock.Now()
	ctx, span := s.tracer.Start(ctx, name)
	op := &operation{name: name, actor: actor}
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		return fn(tx, op)
	})
	duration := s.clock.Now().Sub(start)
	span.End(err)
	s.metrics.Observe(ctx, name, err == nil, duration)
	s.recordAudit(ctx, op, err, duration)

	if err != nil {
		s.logger.Warn("operation rejected",
			"operation", name,
			"actor", string(actor),
			"kind", string(domain.KindOf(err)),
			"error", err,
		)
		return res, fmt.Errorf("%s: %w", name, err)
	}
	for _, v := range res.Violations {
		if v.Severity == domain.SeverityBlock {
			continue
		}
		s.logger.Warn("rule violation", "operation", name, "rule", v.Rule, "severity", string(v.Severity), "message", v.Message)
	}
	s.logger.Debug("operation committed", "operation", name, "actor", string(actor), "events", len(op.events))
	for _, e := range op.events {
		s.events.Publish(ctx, e)
	}
	return res, nil
}

func (s *Service) recordAudit(ctx context.Context, op *operation, err error, duration time.Duration) {
	meta, ok := operationMetadata[op.name]
	if !ok {
		return
	}
	entry := AuditEntry{
		Operation: op.name,
		Actor:     op.actor,
		Entity:    meta.entity,
		Action:    meta.action,
		EntityID:  op.entityID,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.clock.Now(),
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
	}
	s.audit.Record(ctx, entry)
}

// view runs fn against committed state.
func (s *Service) view(ctx context.Context, fn func(TransactionView) error) error {
	return s.store.View(ctx, fn)
}
