package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"monkeycore/internal/archive"
	"monkeycore/internal/core"
	"monkeycore/pkg/domain"
)

// scenario is a YAML list of steps executed against one opened ledger, so
// currency balances carry from step to step.
type scenario struct {
	Steps []step `yaml:"steps"`
}

// step is one scenario operation. As switches the caller for this and later
// steps. Expect names the error code the step must fail with.
type step struct {
	Op       string           `yaml:"op"`
	As       domain.Identity  `yaml:"as"`
	Genes    uint64           `yaml:"genes"`
	ID       domain.AssetID   `yaml:"id"`
	Parents  []domain.AssetID `yaml:"parents"`
	From     domain.Identity  `yaml:"from"`
	To       domain.Identity  `yaml:"to"`
	Operator domain.Identity  `yaml:"operator"`
	Revoke   bool             `yaml:"revoke"`
	Amount   domain.Amount    `yaml:"amount"`
	Domain   domain.Domain    `yaml:"domain"`
	Key      string           `yaml:"key"`
	Expect   string           `yaml:"expect"`
}

type stepReport struct {
	Index   int      `json:"index"`
	Op      string   `json:"op"`
	Outcome *outcome `json:"outcome,omitempty"`
	Code    string   `json:"rejected,omitempty"`
}

func loadScenario(path string) (scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return scenario{}, err
	}
	var sc scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return scenario{}, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	for i, s := range sc.Steps {
		if s.Op == "" {
			return scenario{}, fmt.Errorf("step %d: op is required", i+1)
		}
	}
	return sc, nil
}

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run SCENARIO.yaml",
		Short: "Execute a YAML scenario of ledger operations in one session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := loadScenario(args[0])
			if err != nil {
				return err
			}
			return a.ledger(true, func(ctx context.Context, _ []string) error {
				reports := make([]stepReport, 0, len(sc.Steps))
				for i, s := range sc.Steps {
					rep, err := a.runStep(ctx, i+1, s)
					if err != nil {
						return err
					}
					reports = append(reports, rep)
				}
				return a.write(reports)
			})(cmd, args)
		},
	}
}

// runStep executes s. A rejection matching s.Expect is reported and the
// scenario continues; any other outcome that differs from the expectation
// stops the run.
func (a *app) runStep(ctx context.Context, idx int, s step) (stepReport, error) {
	if s.As != domain.NullIdentity {
		a.caller = string(s.As)
	}
	rep := stepReport{Index: idx, Op: s.Op}
	out, err := a.apply(ctx, s)
	switch {
	case err != nil && s.Expect != "" && domain.CodeOf(err) == s.Expect:
		a.events.Reset()
		rep.Code = s.Expect
		return rep, nil
	case err != nil:
		return rep, fmt.Errorf("step %d (%s): %w", idx, s.Op, err)
	case s.Expect != "":
		return rep, fmt.Errorf("step %d (%s): expected %s, got success", idx, s.Op, s.Expect)
	}
	rep.Outcome = &out
	return rep, nil
}

func (a *app) apply(ctx context.Context, s step) (outcome, error) {
	caller := a.as()
	var (
		res   core.Result
		asset domain.Asset
		offer domain.Offer
		err   error
	)
	switch s.Op {
	case "fund_fees":
		err = a.fundFees(ctx, caller, s.Amount)
	case "fund_sales":
		err = a.fundSales(ctx, caller, s.Amount)
	case "mint_founder":
		asset, res, err = a.svc.MintFounder(ctx, caller, s.Genes)
	case "mint_demo":
		to := s.To
		if to.IsNull() {
			to = caller
		}
		asset, res, err = a.svc.MintDemo(ctx, caller, to, s.Genes)
	case "breed":
		if len(s.Parents) != 2 {
			return outcome{}, fmt.Errorf("breed needs two parents, got %d", len(s.Parents))
		}
		asset, res, err = a.svc.Breed(ctx, caller, s.Parents[0], s.Parents[1])
	case "transfer":
		from := s.From
		if from.IsNull() {
			from = caller
		}
		res, err = a.svc.Transfer(ctx, caller, from, s.To, s.ID)
	case "approve":
		res, err = a.svc.Approve(ctx, caller, s.To, s.ID)
	case "approve_all":
		res, err = a.svc.SetApprovalForAll(ctx, caller, s.Operator, !s.Revoke)
	case "set_offer":
		offer, res, err = a.svc.SetOffer(ctx, caller, s.Amount, s.ID)
	case "remove_offer":
		res, err = a.svc.RemoveOffer(ctx, caller, s.ID)
	case "buy":
		res, err = a.svc.BuyMonkey(ctx, caller, s.ID, s.Amount)
	case "pause":
		res, err = a.svc.Pause(ctx, caller, s.Domain)
	case "unpause":
		res, err = a.svc.Unpause(ctx, caller, s.Domain)
	case "transfer_domain":
		res, err = a.svc.TransferDomainOwnership(ctx, caller, s.Domain, s.To)
	case "archive":
		var ref archive.Ref
		if ref, err = a.svc.ArchiveSnapshot(ctx); err == nil {
			a.logger.Info("scenario archived snapshot", "key", ref.Key)
		}
	case "restore":
		res, err = a.svc.RestoreSnapshot(ctx, caller, s.Key)
	default:
		return outcome{}, fmt.Errorf("unknown op %q", s.Op)
	}
	if err != nil {
		return outcome{}, err
	}
	out := a.outcome(s.Op, res)
	if asset.ID != domain.SentinelAssetID {
		out.Asset = &asset
	}
	if offer.Active {
		out.Offer = &offer
	}
	return out, nil
}
