package core

import (
	"context"
	"time"

	"monkeycore/pkg/domain"
)

// Logger is the structured logging surface used by the service. It matches
// the method set of *slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MetricsRecorder observes the outcome and latency of every operation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}

// Tracer starts a span around every operation.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan is finished exactly once with the operation's error.
type TraceSpan interface {
	End(err error)
}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

// AuditStatus is the outcome recorded in an AuditEntry.
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusError   AuditStatus = "error"
)

// AuditEntry describes one attempted state mutation.
type AuditEntry struct {
	Operation string
	Actor     Identity
	Entity    domain.EntityType
	Action    domain.Action
	EntityID  AssetID
	Status    AuditStatus
	Error     string
	Duration  time.Duration
	Timestamp time.Time
}

// AuditRecorder receives an entry for every mutating operation.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

type noopAudit struct{}

func (noopAudit) Record(context.Context, AuditEntry) {}

// EventSink receives events after the transaction that produced them
// commits. Events from rejected operations are never published.
type EventSink interface {
	Publish(ctx context.Context, event Event)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(ctx context.Context, event Event)

// Publish calls f.
func (f EventSinkFunc) Publish(ctx context.Context, event Event) { f(ctx, event) }

type noopSink struct{}

func (noopSink) Publish(context.Context, Event) {}

// Clock supplies timestamps.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// operationMeta maps operations to the entity and action they audit as.
type operationMeta struct {
	entity domain.EntityType
	action domain.Action
}

const (
	opGenesis                 = "genesis"
	opTransfer                = "transfer"
	opApprove                 = "approve"
	opSetApprovalForAll       = "set_approval_for_all"
	opPause                   = "pause"
	opUnpause                 = "unpause"
	opTransferDomainOwnership = "transfer_domain_ownership"
	opMintFounder             = "mint_founder"
	opBreed                   = "breed"
	opMintDemo                = "mint_demo"
	opSetOffer                = "set_offer"
	opRemoveOffer             = "remove_offer"
	opBuyMonkey               = "buy_monkey"
	opRestoreSnapshot         = "restore_snapshot"
)

var operationMetadata = map[string]operationMeta{
	opGenesis:                 {domain.EntityAsset, domain.ActionCreate},
	opTransfer:                {domain.EntityAsset, domain.ActionUpdate},
	opApprove:                 {domain.EntityApproval, domain.ActionUpdate},
	opSetApprovalForAll:       {domain.EntityApproval, domain.ActionUpdate},
	opPause:                   {domain.EntityControl, domain.ActionUpdate},
	opUnpause:                 {domain.EntityControl, domain.ActionUpdate},
	opTransferDomainOwnership: {domain.EntityControl, domain.ActionUpdate},
	opMintFounder:             {domain.EntityAsset, domain.ActionCreate},
	opBreed:                   {domain.EntityAsset, domain.ActionCreate},
	opMintDemo:                {domain.EntityAsset, domain.ActionCreate},
	opSetOffer:                {domain.EntityOffer, domain.ActionCreate},
	opRemoveOffer:             {domain.EntityOffer, domain.ActionDelete},
	opBuyMonkey:               {domain.EntityOffer, domain.ActionDelete},
	opRestoreSnapshot:         {domain.EntityAsset, domain.ActionUpdate},
}
