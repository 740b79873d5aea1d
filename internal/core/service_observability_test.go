package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"monkeycore/internal/infra/persistence/memory"
	"monkeycore/pkg/domain"
)

type captureAuditRecorder struct {
	entries []AuditEntry
}

func (c *captureAuditRecorder) Record(_ context.Context, entry AuditEntry) {
	c.entries = append(c.entries, entry)
}

func (c *captureAuditRecorder) has(op string, status AuditStatus, predicate func(AuditEntry) bool) bool {
	for _, entry := range c.entries {
		if entry.Operation == op && entry.Status == status {
			if predicate == nil || predicate(entry) {
				return true
			}
		}
	}
	return false
}

type metricsCall struct {
	op      string
	success bool
}

type captureMetricsRecorder struct {
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	c.calls = append(c.calls, metricsCall{op: op, success: success})
}

type captureLogger struct {
	warns  []string
	debugs []string
}

func (l *captureLogger) Debug(msg string, _ ...any) { l.debugs = append(l.debugs, msg) }
func (l *captureLogger) Info(string, ...any)        {}
func (l *captureLogger) Warn(msg string, args ...any) {
	l.warns = append(l.warns, msg)
	for i := 0; i+1 < len(args); i += 2 {
		if args[i] == "kind" {
			l.warns = append(l.warns, "kind="+args[i+1].(string))
		}
	}
}
func (l *captureLogger) Error(string, ...any) {}

func TestServiceObservabilityHooks(t *testing.T) {
	ctx := context.Background()
	audit := &captureAuditRecorder{}
	metrics := &captureMetricsRecorder{}
	logger := &captureLogger{}
	tracer := NewJSONTracer(nil)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t,
		WithAuditRecorder(audit),
		WithMetricsRecorder(metrics),
		WithLogger(logger),
		WithTracer(tracer),
		WithClock(ClockFunc(func() time.Time { return now })),
	)
	a := mustFounder(t, svc, 1)
	if _, err := svc.Transfer(ctx, bob, root, bob, a.ID); err == nil {
		t.Fatalf("expected unauthorized transfer")
	}

	if !audit.has(opGenesis, AuditStatusSuccess, nil) {
		t.Fatalf("genesis not audited: %+v", audit.entries)
	}
	if !audit.has(opMintFounder, AuditStatusSuccess, func(e AuditEntry) bool {
		return e.EntityID == a.ID && e.Entity == domain.EntityAsset && e.Action == domain.ActionCreate && e.Timestamp.Equal(now)
	}) {
		t.Fatalf("mint not audited: %+v", audit.entries)
	}
	if !audit.has(opTransfer, AuditStatusError, func(e AuditEntry) bool {
		return e.Actor == bob && strings.Contains(e.Error, "not authorized")
	}) {
		t.Fatalf("rejected transfer not audited: %+v", audit.entries)
	}
	want := []metricsCall{{opGenesis, true}, {opMintFounder, true}, {opTransfer, false}}
	if diff := cmp.Diff(want, metrics.calls, cmp.AllowUnexported(metricsCall{})); diff != "" {
		t.Fatalf("metrics (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"operation rejected", "kind=authorization"}, logger.warns); diff != "" {
		t.Fatalf("warn logs (-want +got):\n%s", diff)
	}
	if len(logger.debugs) != 2 {
		t.Fatalf("expected a commit debug log per success, got %v", logger.debugs)
	}
	entries := tracer.Entries()
	if len(entries) != 3 || entries[2].Operation != opTransfer || entries[2].Status != "error" || entries[2].Error == "" {
		t.Fatalf("unexpected trace entries %+v", entries)
	}
}

func TestEventsPublishedAfterCommitOnly(t *testing.T) {
	ctx := context.Background()
	events := NewEventLog()
	svc := newTestService(t, WithEventSink(events))
	if len(events.Events()) != 0 {
		t.Fatalf("genesis must not publish events, got %v", events.Names())
	}
	a := mustFounder(t, svc, 1)
	listForSale(t, svc, root, a.ID, 2)
	fundSales(t, svc, bob, 2)
	if _, err := svc.BuyMonkey(ctx, bob, a.ID, domain.NewAmount(3)); err == nil {
		t.Fatalf("expected wrong amount")
	}
	if _, err := svc.BuyMonkey(ctx, bob, a.ID, domain.NewAmount(2)); err != nil {
		t.Fatalf("buy: %v", err)
	}
	wantNames := []string{
		domain.EventAssetCreated,
		domain.EventApprovalForAll,
		domain.EventMarketTransaction, domain.EventOfferCreated,
		domain.EventMarketTransaction, domain.EventAssetSold, domain.EventAssetTransferred,
	}
	if diff := cmp.Diff(wantNames, events.Names()); diff != "" {
		t.Fatalf("event names (-want +got):\n%s", diff)
	}
	all := events.Events()
	sold, ok := all[5].(domain.AssetSold)
	if !ok || sold.Buyer != bob || sold.Seller != root || !sold.Price.Equal(domain.NewAmount(2)) {
		t.Fatalf("unexpected sale event %#v", all[5])
	}
	if mt := all[4].(domain.MarketTransaction); mt.Kind != domain.MarketBuy || mt.Actor != bob {
		t.Fatalf("unexpected market transaction %+v", mt)
	}
	events.Reset()
	if len(events.Names()) != 0 {
		t.Fatalf("reset did not clear log")
	}
}

func TestNilOptionsFallBackToNoops(t *testing.T) {
	svc := newTestService(t,
		WithLogger(nil), WithMetricsRecorder(nil), WithTracer(nil),
		WithAuditRecorder(nil), WithClock(nil), WithEventSink(nil),
		WithFeeCurrency(nil), WithSaleCurrency(nil), nil,
	)
	mustFounder(t, svc, 1)
	if svc.FeeCurrency() == nil || svc.SaleCurrency() == nil {
		t.Fatalf("nil currencies must keep the defaults")
	}
}

func TestNoopLogger(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("noop logger panicked: %v", r)
		}
	}()
	logger := noopLogger{}
	logger.Debug("msg", "k", "v")
	logger.Info("msg", "k", "v")
	logger.Warn("msg", "k", "v")
	logger.Error("msg", "k", "v")
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	svc := newTestService(t, WithMetricsRecorder(rec))
	mustFounder(t, svc, 1)
	if _, _, err := svc.MintFounder(context.Background(), alice, 2); err == nil {
		t.Fatalf("expected unauthorized mint")
	}
	expected := `
# HELP monkeycore_service_operations_total Ledger operations by outcome.
# TYPE monkeycore_service_operations_total counter
monkeycore_service_operations_total{operation="genesis",status="success"} 1
monkeycore_service_operations_total{operation="mint_founder",status="error"} 1
monkeycore_service_operations_total{operation="mint_founder",status="success"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "monkeycore_service_operations_total"); err != nil {
		t.Fatalf("metrics mismatch: %v", err)
	}
	if n := testutil.CollectAndCount(rec.Collectors()[1]); n != 3 {
		t.Fatalf("expected 3 histogram series, got %d", n)
	}
}

func TestOTelTracerRecordsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	svc := newTestService(t, WithTracer(NewOTelTracer(tp)))
	mustFounder(t, svc, 1)
	if _, err := svc.Pause(context.Background(), alice, DomainMarket); err == nil {
		t.Fatalf("expected unauthorized pause")
	}
	spans := exporter.GetSpans()
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(spans))
	}
	if spans[1].Name != "monkeycore."+opMintFounder || spans[1].Status.Code != codes.Ok {
		t.Fatalf("unexpected mint span %s %v", spans[1].Name, spans[1].Status)
	}
	failed := spans[2]
	if failed.Name != "monkeycore."+opPause || failed.Status.Code != codes.Error || len(failed.Events) == 0 {
		t.Fatalf("failed span not marked: %s %v events=%d", failed.Name, failed.Status, len(failed.Events))
	}
	if NewOTelTracer(nil) == nil {
		t.Fatalf("global provider fallback returned nil")
	}
}

func TestExpvarMetricsRecorder(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	svc := newTestService(t, WithMetricsRecorder(rec))
	mustFounder(t, svc, 1)
	if _, _, err := svc.MintFounder(context.Background(), alice, 1); err == nil {
		t.Fatalf("expected unauthorized mint")
	}
	rec.Observe(context.Background(), "", true, time.Second)
	snap := rec.Snapshot()
	if snap.Results[opMintFounder]["success"] != 1 || snap.Results[opMintFounder]["error"] != 1 {
		t.Fatalf("unexpected results %+v", snap.Results)
	}
	if _, ok := snap.Results[""]; ok {
		t.Fatalf("empty operation must be ignored")
	}
	published := expvar.Get(rec.Name())
	if published == nil {
		t.Fatalf("recorder not published as %s", rec.Name())
	}
	var decoded ExpvarMetricsSnapshot
	if err := json.Unmarshal([]byte(published.String()), &decoded); err != nil {
		t.Fatalf("decode expvar: %v", err)
	}
	if decoded.Results[opGenesis]["success"] != 1 {
		t.Fatalf("expvar export missing genesis: %+v", decoded.Results)
	}
}

func TestJSONTracerWritesLines(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)
	_, span := tracer.Start(context.Background(), "op")
	span.End(errors.New("boom"))
	var entry JSONTraceEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode line: %v", err)
	}
	if entry.Operation != "op" || entry.Status != "error" || entry.Error != "boom" {
		t.Fatalf("unexpected entry %+v", entry)
	}
}

type failingViewStore struct {
	*memory.Store
	err error
}

func (s failingViewStore) View(context.Context, func(TransactionView) error) error { return s.err }

func TestNewServiceSurfacesGenesisViewError(t *testing.T) {
	boom := errors.New("view unavailable")
	_, err := NewService(failingViewStore{Store: memory.NewStore(nil), err: boom}, Config{RegistryOwner: root})
	if !errors.Is(err, boom) {
		t.Fatalf("expected view error, got %v", err)
	}
}
