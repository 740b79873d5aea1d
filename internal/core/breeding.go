package core

import (
	"context"
	"math"

	"monkeycore/pkg/domain"
)

// MintFounder mints a generation-0 asset with the given genes to the
// registry owner. At most FounderCap founders can exist.
func (s *Service) MintFounder(ctx context.Context, caller Identity, genes uint64) (Asset, Result, error) {
	var created Asset
	res, err := s.mutate(ctx, opMintFounder, caller, func(tx Transaction, op *operation) error {
		if err := requireNotPaused(tx, DomainRegistry); err != nil {
			return err
		}
		if err := requireOwner(tx, DomainRegistry, caller); err != nil {
			return err
		}
		if tx.Founders() >= s.cfg.FounderCap {
			return domain.ErrFounderCapReached
		}
		var err error
		if created, err = s.mint(tx, op, Asset{Genes: genes, Owner: caller}); err != nil {
			return err
		}
		tx.IncrementFounders()
		return nil
	})
	return created, res, err
}

// Breed mints a child of a and b to caller, who must own both parents and
// pay the breeding fee. The child's generation is one above the older
// parent's.
func (s *Service) Breed(ctx context.Context, caller Identity, a, b AssetID) (Asset, Result, error) {
	var created Asset
	res, err := s.mutate(ctx, opBreed, caller, func(tx Transaction, op *operation) error {
		if err := requireNotPaused(tx, DomainRegistry); err != nil {
			return err
		}
		if a == b {
			return domain.ErrSameParent
		}
		pa, okA := tx.FindAsset(a)
		pb, okB := tx.FindAsset(b)
		if !okA || !okB || caller.IsNull() || pa.Owner != caller || pb.Owner != caller {
			return domain.ErrNotOwnerOfBothParents
		}
		generation := max(pa.Generation, pb.Generation)
		if generation == math.MaxUint32 {
			return domain.ErrCapacityExceeded
		}
		if err := s.checkCapacity(tx); err != nil {
			return err
		}
		if err := tx.Charge(s.fees, caller, s.cfg.BreedingFee); err != nil {
			return err
		}
		var err error
		created, err = s.mint(tx, op, Asset{
			Genes:      MixGenes(pa.Genes, pb.Genes, tx.NextID()),
			Generation: generation + 1,
			ParentA:    a,
			ParentB:    b,
			Owner:      caller,
		})
		return err
	})
	return created, res, err
}

// MintDemo mints a non-lineage asset with the given genes to to, charging
// caller the breeding fee. Demo assets carry DemoGeneration and no parents.
func (s *Service) MintDemo(ctx context.Context, caller, to Identity, genes uint64) (Asset, Result, error) {
	var created Asset
	res, err := s.mutate(ctx, opMintDemo, caller, func(tx Transaction, op *operation) error {
		if err := requireNotPaused(tx, DomainRegistry); err != nil {
			return err
		}
		if to.IsNull() {
			return domain.ErrNullRecipient
		}
		if err := s.checkCapacity(tx); err != nil {
			return err
		}
		if err := tx.Charge(s.fees, caller, s.cfg.BreedingFee); err != nil {
			return err
		}
		var err error
		created, err = s.mint(tx, op, Asset{Genes: genes, Generation: s.cfg.DemoGeneration, Owner: to})
		return err
	})
	return created, res, err
}

// FounderCount returns the number of founders minted so far.
func (s *Service) FounderCount(ctx context.Context) (uint32, error) {
	var n uint32
	err := s.view(ctx, func(v TransactionView) error {
		n = v.Founders()
		return nil
	})
	return n, err
}

// FounderCap returns the configured founder limit.
func (s *Service) FounderCap() uint32 { return s.cfg.FounderCap }

// BreedingFee returns the fee charged by Breed and MintDemo.
func (s *Service) BreedingFee() Amount { return s.cfg.BreedingFee }

func (s *Service) checkCapacity(v TransactionView) error {
	if s.cfg.AssetCapacity > 0 && uint64(v.NextID()) > s.cfg.AssetCapacity {
		return domain.ErrCapacityExceeded
	}
	return nil
}

// mint creates a and emits AssetCreated. AssetCapacity is enforced here for
// every mint path.
func (s *Service) mint(tx Transaction, op *operation, a Asset) (Asset, error) {
	if err := s.checkCapacity(tx); err != nil {
		return Asset{}, err
	}
	created, err := tx.CreateAsset(a)
	if err != nil {
		return Asset{}, err
	}
	op.entityID = created.ID
	op.emit(domain.AssetCreated{
		Owner:   created.Owner,
		ID:      created.ID,
		ParentA: created.ParentA,
		ParentB: created.ParentB,
		Genes:   created.Genes,
	})
	return created, nil
}
