package core

import (
	"context"
	"fmt"

	"monkeycore/pkg/domain"
)

// LineageIntegrityRule checks bred assets: both parents exist, differ,
// predate the child, and the child is exactly one generation above the
// older parent.
func LineageIntegrityRule() domain.Rule {
	return lineageIntegrityRule{}
}

type lineageIntegrityRule struct{}

func (lineageIntegrityRule) Name() string { return "lineage_integrity" }

func (lineageIntegrityRule) Evaluate(_ context.Context, view domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityAsset || change.Action != domain.ActionCreate {
			continue
		}
		child, ok := change.After.(Asset)
		if !ok || child.IsFounderLineage() {
			continue
		}
		if child.ParentA == child.ParentB {
			res.Violations = append(res.Violations, lineageViolation(child.ID, fmt.Sprintf("asset %s lists parent %s twice", child.ID, child.ParentA)))
			continue
		}
		var generation uint32
		valid := true
		for _, parentID := range []AssetID{child.ParentA, child.ParentB} {
			parent, ok := view.FindAsset(parentID)
			if !ok || parentID == domain.SentinelAssetID || parentID >= child.ID {
				res.Violations = append(res.Violations, lineageViolation(child.ID, fmt.Sprintf("asset %s references invalid parent %s", child.ID, parentID)))
				valid = false
				continue
			}
			generation = max(generation, parent.Generation)
		}
		if valid && child.Generation != generation+1 {
			res.Violations = append(res.Violations, lineageViolation(child.ID, fmt.Sprintf("asset %s has generation %d, want %d", child.ID, child.Generation, generation+1)))
		}
	}
	return res, nil
}

func lineageViolation(id AssetID, message string) domain.Violation {
	return domain.Violation{
		Rule:     "lineage_integrity",
		Severity: domain.SeverityBlock,
		Message:  message,
		Entity:   domain.EntityAsset,
		EntityID: id,
	}
}
