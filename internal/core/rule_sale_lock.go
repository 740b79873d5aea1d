package core

import (
	"context"
	"fmt"

	"monkeycore/pkg/domain"
)

// SaleLockRule blocks any transaction that leaves an active offer whose
// seller no longer owns the listed asset.
func SaleLockRule() domain.Rule {
	return saleLockRule{}
}

type saleLockRule struct{}

func (saleLockRule) Name() string { return "sale_lock" }

func (saleLockRule) Evaluate(_ context.Context, view domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		var id AssetID
		switch v := change.After.(type) {
		case Asset:
			id = v.ID
		case Offer:
			id = v.TokenID
		default:
			continue
		}
		offer, listed := view.FindOffer(id)
		if !listed {
			continue
		}
		a, ok := view.FindAsset(id)
		if !ok || a.Owner != offer.Seller {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "sale_lock",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("asset %s is listed by %q but owned by %q", id, offer.Seller, a.Owner),
				Entity:   domain.EntityOffer,
				EntityID: id,
			})
		}
	}
	return res, nil
}
