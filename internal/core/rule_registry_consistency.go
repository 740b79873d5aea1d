package core

import (
	"context"
	"fmt"
	"slices"

	"monkeycore/pkg/domain"
)

// RegistryConsistencyRule verifies that every asset touched by a
// transaction sits at its recorded index in its owner's list and has left
// its previous owner's list.
func RegistryConsistencyRule() domain.Rule {
	return registryConsistencyRule{}
}

type registryConsistencyRule struct{}

func (registryConsistencyRule) Name() string { return "registry_consistency" }

func (registryConsistencyRule) Evaluate(_ context.Context, view domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	seen := make(map[AssetID]struct{})
	for _, change := range changes {
		if change.Entity != domain.EntityAsset {
			continue
		}
		after, ok := change.After.(Asset)
		if !ok {
			continue
		}
		if _, dup := seen[after.ID]; dup {
			continue
		}
		seen[after.ID] = struct{}{}

		current, ok := view.FindAsset(after.ID)
		if !ok {
			res.Violations = append(res.Violations, registryViolation(after.ID, fmt.Sprintf("asset %s vanished", after.ID)))
			continue
		}
		if current.ID == domain.SentinelAssetID {
			if _, indexed := view.OwnedIndex(current.ID); indexed {
				res.Violations = append(res.Violations, registryViolation(current.ID, "sentinel asset is enumerable"))
			}
			continue
		}
		owned := view.OwnedAssets(current.Owner)
		idx, ok := view.OwnedIndex(current.ID)
		if !ok || idx >= len(owned) || owned[idx] != current.ID {
			res.Violations = append(res.Violations, registryViolation(current.ID, fmt.Sprintf("asset %s is not at its recorded index for %q", current.ID, current.Owner)))
		}
		if before, ok := change.Before.(Asset); ok && before.Owner != current.Owner {
			if slices.Contains(view.OwnedAssets(before.Owner), current.ID) {
				res.Violations = append(res.Violations, registryViolation(current.ID, fmt.Sprintf("asset %s still listed for previous owner %q", current.ID, before.Owner)))
			}
		}
	}
	return res, nil
}

func registryViolation(id AssetID, message string) domain.Violation {
	return domain.Violation{
		Rule:     "registry_consistency",
		Severity: domain.SeverityBlock,
		Message:  message,
		Entity:   domain.EntityAsset,
		EntityID: id,
	}
}
