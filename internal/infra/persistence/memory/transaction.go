package memory

import (
	"context"
	"errors"
	"fmt"
	"math"

	"monkeycore/pkg/domain"
)

// transaction mutates the live state in place. Every mutation appends its
// inverse to undo; rollback replays undo in reverse order.
type transaction struct {
	view
	ctx     context.Context
	changes []Change
	undo    []func() error
}

func newTransaction(ctx context.Context, state *memoryState) *transaction {
	return &transaction{view: view{state: state}, ctx: ctx}
}

func (tx *transaction) journal(fn func()) {
	tx.undo = append(tx.undo, func() error {
		fn()
		return nil
	})
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

func (tx *transaction) rollback() error {
	var errs []error
	for i := len(tx.undo) - 1; i >= 0; i-- {
		if err := tx.undo[i](); err != nil {
			errs = append(errs, err)
		}
	}
	tx.undo = nil
	tx.changes = nil
	return errors.Join(errs...)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return tx.view
}

// CreateAsset assigns the next id and indexes the asset for its owner.
func (tx *transaction) CreateAsset(a Asset) (Asset, error) {
	st := tx.state
	if st.nextID == AssetID(math.MaxUint64) {
		return Asset{}, domain.ErrCapacityExceeded
	}
	a.ID = st.nextID
	switch {
	case a.ID == domain.SentinelAssetID && !a.Owner.IsNull():
		return Asset{}, fmt.Errorf("sentinel asset %s cannot be owned", a.ID)
	case a.ID != domain.SentinelAssetID && a.Owner.IsNull():
		return Asset{}, domain.ErrNullRecipient
	}
	prevNext := st.nextID
	st.nextID++
	st.assets[a.ID] = a
	tx.journal(func() {
		delete(st.assets, a.ID)
		st.nextID = prevNext
	})
	if !a.Owner.IsNull() {
		st.all.Add(a.ID)
		tx.journal(func() { st.all.Remove(a.ID) })
		owned := st.ownedSet(a.Owner)
		owned.Add(a.ID)
		tx.journal(func() { owned.Remove(a.ID) })
	}
	tx.recordChange(Change{Entity: domain.EntityAsset, Action: domain.ActionCreate, After: a})
	return a, nil
}

// TransferAsset moves an unlisted asset to a new owner.
func (tx *transaction) TransferAsset(id AssetID, to Identity) (Asset, error) {
	a, ok := tx.state.assets[id]
	if !ok || id == domain.SentinelAssetID {
		return Asset{}, domain.ErrAssetNotFound
	}
	if to.IsNull() {
		return Asset{}, domain.ErrNullRecipient
	}
	if _, listed := tx.state.offers[id]; listed {
		return Asset{}, domain.ErrStillListed
	}
	return tx.move(a, to), nil
}

// SettleOffer closes the active offer for id and hands the asset to buyer.
func (tx *transaction) SettleOffer(id AssetID, buyer Identity) (Offer, error) {
	o, ok := tx.state.offer(id)
	if !ok {
		return Offer{}, domain.ErrNoActiveOffer
	}
	if buyer.IsNull() {
		return Offer{}, domain.ErrNullRecipient
	}
	a := tx.state.assets[id]
	if a.Owner != o.Seller {
		return Offer{}, domain.ErrNotOwner
	}
	closed, err := tx.DeleteOffer(id)
	if err != nil {
		return Offer{}, err
	}
	tx.move(a, buyer)
	return closed, nil
}

// move swap-pops the asset out of its owner's list, appends it to the new
// owner's list and clears any per-asset approval.
func (tx *transaction) move(a Asset, to Identity) Asset {
	st := tx.state
	before := a
	from := st.owned[a.Owner]
	if removal, ok := from.Remove(a.ID); ok {
		tx.journal(func() { from.Restore(removal) })
	}
	dest := st.ownedSet(to)
	dest.Add(a.ID)
	tx.journal(func() { dest.Remove(a.ID) })

	if prev, had := st.approvals[a.ID]; had {
		delete(st.approvals, a.ID)
		tx.journal(func() { st.approvals[a.ID] = prev })
	}

	a.Owner = to
	st.assets[a.ID] = a
	tx.journal(func() { st.assets[a.ID] = before })
	tx.recordChange(Change{Entity: domain.EntityAsset, Action: domain.ActionUpdate, Before: before, After: a})
	return a
}

// SetApproval records approved for id; the null identity clears it.
func (tx *transaction) SetApproval(id AssetID, approved Identity) error {
	st := tx.state
	if _, ok := st.assets[id]; !ok || id == domain.SentinelAssetID {
		return domain.ErrAssetNotFound
	}
	prev, had := st.approvals[id]
	if approved.IsNull() {
		delete(st.approvals, id)
	} else {
		st.approvals[id] = approved
	}
	tx.journal(func() {
		if had {
			st.approvals[id] = prev
		} else {
			delete(st.approvals, id)
		}
	})
	tx.recordChange(Change{Entity: domain.EntityApproval, Action: domain.ActionUpdate, Before: prev, After: approved})
	return nil
}

// SetOperator grants or revokes blanket approval of operator over owner's assets.
func (tx *transaction) SetOperator(owner, operator Identity, approved bool) error {
	if owner.IsNull() || operator.IsNull() {
		return domain.ErrNullRecipient
	}
	st := tx.state
	ops, ok := st.operators[owner]
	if !ok {
		ops = make(map[Identity]struct{})
		st.operators[owner] = ops
	}
	_, had := ops[operator]
	if approved {
		ops[operator] = struct{}{}
	} else {
		delete(ops, operator)
	}
	tx.journal(func() {
		if had {
			ops[operator] = struct{}{}
		} else {
			delete(ops, operator)
		}
	})
	tx.recordChange(Change{Entity: domain.EntityApproval, Action: domain.ActionUpdate, Before: had, After: approved})
	return nil
}

// PutOffer appends a new active offer to the offer array.
func (tx *transaction) PutOffer(o Offer) (Offer, error) {
	st := tx.state
	a, ok := st.assets[o.TokenID]
	if !ok || o.TokenID == domain.SentinelAssetID {
		return Offer{}, domain.ErrAssetNotFound
	}
	if _, exists := st.offers[o.TokenID]; exists {
		return Offer{}, domain.ErrOfferAlreadyActive
	}
	if a.Owner != o.Seller {
		return Offer{}, domain.ErrNotOwner
	}
	o.Active = true
	o.Index, _ = st.offerIDs.Add(o.TokenID)
	st.offers[o.TokenID] = o
	tx.journal(func() {
		st.offerIDs.Remove(o.TokenID)
		delete(st.offers, o.TokenID)
	})
	tx.recordChange(Change{Entity: domain.EntityOffer, Action: domain.ActionCreate, After: o})
	return o, nil
}

// DeleteOffer swap-pops the offer for id out of the offer array and returns
// it deactivated, carrying the position it held.
func (tx *transaction) DeleteOffer(id AssetID) (Offer, error) {
	st := tx.state
	o, ok := st.offer(id)
	if !ok {
		return Offer{}, domain.ErrNoActiveOffer
	}
	stored := st.offers[id]
	removal, _ := st.offerIDs.Remove(id)
	delete(st.offers, id)
	tx.journal(func() {
		st.offers[id] = stored
		st.offerIDs.Restore(removal)
	})
	o.Active = false
	tx.recordChange(Change{Entity: domain.EntityOffer, Action: domain.ActionDelete, Before: o})
	return o, nil
}

// IncrementFounders bumps the founder counter and returns the new value.
func (tx *transaction) IncrementFounders() uint32 {
	st := tx.state
	prev := st.founders
	st.founders++
	tx.journal(func() { st.founders = prev })
	return st.founders
}

// PutControl replaces the control record of a domain.
func (tx *transaction) PutControl(c domain.Control) error {
	if !c.Domain.Valid() {
		return domain.ErrInvalidDomain
	}
	st := tx.state
	prev, had := st.controls[c.Domain]
	st.controls[c.Domain] = c
	tx.journal(func() {
		if had {
			st.controls[c.Domain] = prev
		} else {
			delete(st.controls, c.Domain)
		}
	})
	action := domain.ActionUpdate
	if !had {
		action = domain.ActionCreate
	}
	tx.recordChange(Change{Entity: domain.EntityControl, Action: action, Before: prev, After: c})
	return nil
}

// Charge debits payer and journals a refund.
func (tx *transaction) Charge(c domain.Currency, payer Identity, amount domain.Amount) error {
	if err := c.Debit(tx.ctx, payer, amount); err != nil {
		return err
	}
	ctx := context.WithoutCancel(tx.ctx)
	tx.undo = append(tx.undo, func() error {
		if comp, ok := c.(domain.Compensator); ok {
			return comp.RefundDebit(ctx, payer, amount)
		}
		return c.Credit(ctx, payer, amount)
	})
	return nil
}

// Pay credits payee and journals a reversal. Currencies that do not
// implement domain.Compensator cannot be reverted; rollback reports it.
func (tx *transaction) Pay(c domain.Currency, payee Identity, amount domain.Amount) error {
	if err := c.Credit(tx.ctx, payee, amount); err != nil {
		return err
	}
	ctx := context.WithoutCancel(tx.ctx)
	tx.undo = append(tx.undo, func() error {
		if comp, ok := c.(domain.Compensator); ok {
			return comp.RevertCredit(ctx, payee, amount)
		}
		return fmt.Errorf("cannot revert credit of %s to %q", amount, payee)
	})
	return nil
}
