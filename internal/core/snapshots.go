package core

import (
	"context"
	"errors"
	"fmt"

	"monkeycore/internal/archive"
	"monkeycore/pkg/domain"
)

// ErrArchiveDisabled is returned by the snapshot operations when the service
// was built without WithArchive.
var ErrArchiveDisabled = errors.New("snapshot archive not configured")

// ArchiveSnapshot writes the committed ledger state to the archive.
func (s *Service) ArchiveSnapshot(ctx context.Context) (archive.Ref, error) {
	if s.archive == nil {
		return archive.Ref{}, ErrArchiveDisabled
	}
	ref, err := s.archive.Save(ctx, s.store.ExportState())
	if err != nil {
		s.logger.Error("snapshot archive failed", "error", err)
		return archive.Ref{}, err
	}
	s.logger.Info("snapshot archived", "key", ref.Key, "supply", ref.Supply, "size_bytes", ref.Size)
	return ref, nil
}

// ListSnapshots returns the archived snapshots, oldest first.
func (s *Service) ListSnapshots(ctx context.Context) ([]archive.Ref, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	return s.archive.List(ctx)
}

// RestoreSnapshot replaces the ledger state with the archive at key. Only the
// registry owner may restore; ownership is checked again under the store's
// exclusive section at replacement time. The archive is schema-validated and
// checked for consistency before anything is replaced; missing domain
// controls are recreated afterwards.
func (s *Service) RestoreSnapshot(ctx context.Context, caller Identity, key string) (Result, error) {
	if s.archive == nil {
		return Result{}, ErrArchiveDisabled
	}
	start := s.clock.Now()
	ctx, span := s.tracer.Start(ctx, opRestoreSnapshot)
	op := &operation{name: opRestoreSnapshot, actor: caller}

	err := s.view(ctx, func(v TransactionView) error {
		return requireOwner(v, DomainRegistry, caller)
	})
	var snap Snapshot
	if err == nil {
		snap, err = s.archive.Load(ctx, key)
	}
	if err == nil {
		err = s.store.ReplaceState(snap, func(v TransactionView) error {
			return requireOwner(v, DomainRegistry, caller)
		})
	}
	if err == nil {
		err = s.genesis(ctx)
	}

	duration := s.clock.Now().Sub(start)
	span.End(err)
	s.metrics.Observe(ctx, opRestoreSnapshot, err == nil, duration)
	s.recordAudit(ctx, op, err, duration)
	if err != nil {
		s.logger.Warn("operation rejected",
			"operation", opRestoreSnapshot,
			"actor", string(caller),
			"kind", string(domain.KindOf(err)),
			"error", err,
		)
		return Result{}, fmt.Errorf("%s: %w", opRestoreSnapshot, err)
	}
	s.logger.Info("snapshot restored", "key", key, "supply", len(snap.All))
	return Result{}, nil
}
