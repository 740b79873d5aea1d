package core

import (
	"context"

	"monkeycore/pkg/domain"
)

func requireNotPaused(v TransactionView, d Domain) error {
	if c, _ := v.Control(d); c.Paused {
		return domain.ErrPaused
	}
	return nil
}

func requireOwner(v TransactionView, d Domain, caller Identity) error {
	c, ok := v.Control(d)
	if !ok || caller.IsNull() || c.Owner != caller {
		return domain.ErrUnauthorized
	}
	return nil
}

// Pause sets the pause flag of d. Only the domain owner may pause, and
// pausing a paused domain fails with ErrAlreadyPaused.
func (s *Service) Pause(ctx context.Context, caller Identity, d Domain) (Result, error) {
	return s.setPaused(ctx, opPause, caller, d, true)
}

// Unpause clears the pause flag of d, failing with ErrAlreadyUnpaused when
// it is not set.
func (s *Service) Unpause(ctx context.Context, caller Identity, d Domain) (Result, error) {
	return s.setPaused(ctx, opUnpause, caller, d, false)
}

func (s *Service) setPaused(ctx context.Context, name string, caller Identity, d Domain, paused bool) (Result, error) {
	return s.mutate(ctx, name, caller, func(tx Transaction, op *operation) error {
		if !d.Valid() {
			return domain.ErrInvalidDomain
		}
		if err := requireOwner(tx, d, caller); err != nil {
			return err
		}
		c, _ := tx.Control(d)
		switch {
		case paused && c.Paused:
			return domain.ErrAlreadyPaused
		case !paused && !c.Paused:
			return domain.ErrAlreadyUnpaused
		}
		c.Paused = paused
		if err := tx.PutControl(c); err != nil {
			return err
		}
		if paused {
			op.emit(domain.Paused{Domain: d, Actor: caller})
		} else {
			op.emit(domain.Unpaused{Domain: d, Actor: caller})
		}
		return nil
	})
}

// TransferDomainOwnership hands the owner role of d to newOwner.
func (s *Service) TransferDomainOwnership(ctx context.Context, caller Identity, d Domain, newOwner Identity) (Result, error) {
	return s.mutate(ctx, opTransferDomainOwnership, caller, func(tx Transaction, op *operation) error {
		if !d.Valid() {
			return domain.ErrInvalidDomain
		}
		if err := requireOwner(tx, d, caller); err != nil {
			return err
		}
		if newOwner.IsNull() {
			return domain.ErrNullRecipient
		}
		c, _ := tx.Control(d)
		previous := c.Owner
		c.Owner = newOwner
		if err := tx.PutControl(c); err != nil {
			return err
		}
		op.emit(domain.OwnershipTransferred{Domain: d, Previous: previous, New: newOwner})
		return nil
	})
}

// IsPaused reports the pause flag of d.
func (s *Service) IsPaused(ctx context.Context, d Domain) (bool, error) {
	c, err := s.control(ctx, d)
	return c.Paused, err
}

// DomainOwner returns the owner role holder of d.
func (s *Service) DomainOwner(ctx context.Context, d Domain) (Identity, error) {
	c, err := s.control(ctx, d)
	return c.Owner, err
}

func (s *Service) control(ctx context.Context, d Domain) (Control, error) {
	if !d.Valid() {
		return Control{}, domain.ErrInvalidDomain
	}
	var c Control
	err := s.view(ctx, func(v TransactionView) error {
		c, _ = v.Control(d)
		return nil
	})
	return c, err
}
