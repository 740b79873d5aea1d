package core

import (
	"context"

	"monkeycore/pkg/domain"
)

// Transfer moves id from from to to on behalf of caller, who must be the
// owner, the asset's approved identity, or an operator of the owner. Checks
// run in the order Paused, NotOwner, NullRecipient, Unauthorized,
// StillListed.
func (s *Service) Transfer(ctx context.Context, caller, from, to Identity, id AssetID) (Result, error) {
	return s.mutate(ctx, opTransfer, caller, func(tx Transaction, op *operation) error {
		op.entityID = id
		if err := requireNotPaused(tx, DomainRegistry); err != nil {
			return err
		}
		a, ok := tx.FindAsset(id)
		if !ok || id == domain.SentinelAssetID || a.Owner != from {
			return domain.ErrNotOwner
		}
		if to.IsNull() {
			return domain.ErrNullRecipient
		}
		level := domain.ResolveAuthority(caller, a.Owner, tx.Approved(id), tx.IsOperator(a.Owner, caller))
		if !level.CanTransfer() {
			return domain.ErrUnauthorized
		}
		if _, err := tx.TransferAsset(id, to); err != nil {
			return err
		}
		op.emit(domain.AssetTransferred{From: from, To: to, ID: id})
		return nil
	})
}

// Approve lets approved transfer id. The caller must own the asset or be an
// operator of its owner. Approving the null identity clears the approval.
func (s *Service) Approve(ctx context.Context, caller, approved Identity, id AssetID) (Result, error) {
	return s.mutate(ctx, opApprove, caller, func(tx Transaction, op *operation) error {
		op.entityID = id
		if err := requireNotPaused(tx, DomainRegistry); err != nil {
			return err
		}
		a, ok := tx.FindAsset(id)
		if !ok || id == domain.SentinelAssetID {
			return domain.ErrAssetNotFound
		}
		level := domain.ResolveAuthority(caller, a.Owner, tx.Approved(id), tx.IsOperator(a.Owner, caller))
		if !level.CanApprove() {
			return domain.ErrUnauthorized
		}
		if err := tx.SetApproval(id, approved); err != nil {
			return err
		}
		op.emit(domain.Approval{Owner: a.Owner, Approved: approved, ID: id})
		return nil
	})
}

// SetApprovalForAll grants or revokes operator's authority over every asset
// of owner. The marketplace needs this grant before a seller can list.
func (s *Service) SetApprovalForAll(ctx context.Context, owner, operator Identity, approved bool) (Result, error) {
	return s.mutate(ctx, opSetApprovalForAll, owner, func(tx Transaction, op *operation) error {
		if err := requireNotPaused(tx, DomainRegistry); err != nil {
			return err
		}
		if owner.IsNull() || operator.IsNull() {
			return domain.ErrNullRecipient
		}
		if owner == operator {
			return domain.ErrUnauthorized
		}
		if err := tx.SetOperator(owner, operator, approved); err != nil {
			return err
		}
		op.emit(domain.ApprovalForAll{Owner: owner, Operator: operator, Approved: approved})
		return nil
	})
}

// OwnerOf returns the owner of id. The sentinel is owned by the null
// identity.
func (s *Service) OwnerOf(ctx context.Context, id AssetID) (Identity, error) {
	a, err := s.AssetDetails(ctx, id)
	return a.Owner, err
}

// AssetDetails returns the full record for id.
func (s *Service) AssetDetails(ctx context.Context, id AssetID) (Asset, error) {
	var a Asset
	err := s.view(ctx, func(v TransactionView) error {
		var ok bool
		if a, ok = v.FindAsset(id); !ok {
			return domain.ErrAssetNotFound
		}
		return nil
	})
	return a, err
}

// EnumerateOwned returns a copy of owner's asset list in its current
// internal order. The order changes as assets leave the list.
func (s *Service) EnumerateOwned(ctx context.Context, owner Identity) ([]AssetID, error) {
	var ids []AssetID
	err := s.view(ctx, func(v TransactionView) error {
		ids = v.OwnedAssets(owner)
		return nil
	})
	return ids, err
}

// AllAssets returns every non-sentinel asset id in global enumeration order.
func (s *Service) AllAssets(ctx context.Context) ([]AssetID, error) {
	var ids []AssetID
	err := s.view(ctx, func(v TransactionView) error {
		ids = v.AllAssets()
		return nil
	})
	return ids, err
}

// TotalSupply counts assets, excluding the sentinel.
func (s *Service) TotalSupply(ctx context.Context) (int, error) {
	var n int
	err := s.view(ctx, func(v TransactionView) error {
		n = v.TotalSupply()
		return nil
	})
	return n, err
}

// BalanceOf counts the assets held by owner.
func (s *Service) BalanceOf(ctx context.Context, owner Identity) (int, error) {
	var n int
	err := s.view(ctx, func(v TransactionView) error {
		n = v.BalanceOf(owner)
		return nil
	})
	return n, err
}

// GetApproved returns the per-asset approval of id.
func (s *Service) GetApproved(ctx context.Context, id AssetID) (Identity, error) {
	var approved Identity
	err := s.view(ctx, func(v TransactionView) error {
		if _, ok := v.FindAsset(id); !ok {
			return domain.ErrAssetNotFound
		}
		approved = v.Approved(id)
		return nil
	})
	return approved, err
}

// IsApprovedForAll reports whether operator may transfer every asset of
// owner.
func (s *Service) IsApprovedForAll(ctx context.Context, owner, operator Identity) (bool, error) {
	var ok bool
	err := s.view(ctx, func(v TransactionView) error {
		ok = v.IsOperator(owner, operator)
		return nil
	})
	return ok, err
}
