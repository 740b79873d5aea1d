// Package memory provides an in-memory implementation of the ledger
// persistence store used for tests, ephemeral environments and as the
// transactional engine behind the durable backends.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"monkeycore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Asset aliases domain.Asset.
	Asset = domain.Asset
	// AssetID aliases domain.AssetID.
	AssetID = domain.AssetID
	// Identity aliases domain.Identity.
	Identity = domain.Identity
	// Offer aliases domain.Offer.
	Offer = domain.Offer
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Snapshot aliases domain.Snapshot.
	Snapshot = domain.Snapshot
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

// Store provides an in-memory transactional store for the ledger. Each
// transaction holds the write lock for its whole duration and mutates state
// in place, journaling an undo step per mutation so that any failure can
// restore the exact prior state.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
	}
}

// ExportState copies the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(&s.state)
}

// ImportState replaces the store state with the provided snapshot. The
// current state is kept when the snapshot is inconsistent.
func (s *Store) ImportState(snapshot Snapshot) error {
	return s.ReplaceState(snapshot, nil)
}

// ReplaceState is ImportState with a precondition: a non-nil guard sees the
// state being replaced and can veto the import while the write lock is held.
func (s *Store) ReplaceState(snapshot Snapshot, guard func(TransactionView) error) error {
	state, err := memoryStateFromSnapshot(migrateSnapshot(snapshot))
	if err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if guard != nil {
		if err := guard(view{state: &s.state}); err != nil {
			return err
		}
	}
	s.state = state
	return nil
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// RunInTransaction executes fn under the store's exclusive lock. When fn
// fails, a rule blocks, or ctx is already done, every state mutation and
// currency movement made by fn is undone before returning.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := newTransaction(ctx, &s.state)

	if err := fn(tx); err != nil {
		return Result{}, tx.abort(err)
	}

	var result Result
	if s.engine != nil {
		res, err := s.engine.Evaluate(ctx, tx.Snapshot(), tx.changes)
		if err != nil {
			return Result{}, tx.abort(err)
		}
		result = res
		if res.HasBlocking() {
			return res, tx.abort(domain.RuleViolationError{Result: res})
		}
	}
	return result, nil
}

// View executes fn against a read-only view of the committed state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(view{state: &s.state})
}

// abort rolls back tx and returns cause joined with any compensation failure.
func (tx *transaction) abort(cause error) error {
	if rbErr := tx.rollback(); rbErr != nil {
		return errors.Join(cause, fmt.Errorf("rollback: %w", rbErr))
	}
	return cause
}
