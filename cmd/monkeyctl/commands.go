package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"monkeycore/internal/core"
	"monkeycore/pkg/domain"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "monkeyctl",
		Short:         "Operate a monkeycore creature ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&a.output, "output", "o", formatJSON, "output format (json|yaml)")
	flags.StringVar(&a.caller, "as", "", "caller identity (defaults to the registry owner)")
	flags.BoolVar(&a.trace, "trace", false, "write operation spans to stderr as JSON lines")

	root.AddCommand(
		newMintFounderCmd(a),
		newMintDemoCmd(a),
		newBreedCmd(a),
		newTransferCmd(a),
		newApproveCmd(a),
		newApproveAllCmd(a),
		newOfferCmd(a),
		newBuyCmd(a),
		newPauseCmd(a, true),
		newPauseCmd(a, false),
		newDomainCmd(a),
		newAssetCmd(a),
		newAssetsCmd(a),
		newSupplyCmd(a),
		newSnapshotCmd(a),
		newRunCmd(a),
	)
	return root
}

// ledger opens the ledger around fn and closes it afterwards.
func (a *app) ledger(withArchive bool, fn func(ctx context.Context, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := a.open(ctx, withArchive); err != nil {
			return err
		}
		return errors.Join(fn(ctx, args), a.close())
	}
}

func parseAssetID(s string) (domain.AssetID, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("asset id %q: %w", s, err)
	}
	return domain.AssetID(v), nil
}

func parseDomain(s string) (domain.Domain, error) {
	d := domain.Domain(strings.ToLower(s))
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidDomain, s)
	}
	return d, nil
}

func parseGenes(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("genes %q: %w", s, err)
	}
	return v, nil
}

func newMintFounderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mint-founder GENES",
		Short: "Mint a generation-0 founder to the caller",
		Args:  cobra.ExactArgs(1),
		RunE: a.ledger(false, func(ctx context.Context, args []string) error {
			genes, err := parseGenes(args[0])
			if err != nil {
				return err
			}
			asset, res, err := a.svc.MintFounder(ctx, a.as(), genes)
			if err != nil {
				return err
			}
			out := a.outcome("mint-founder", res)
			out.Asset = &asset
			return a.write(out)
		}),
	}
}

func newMintDemoCmd(a *app) *cobra.Command {
	var to string
	var fund bool
	cmd := &cobra.Command{
		Use:   "mint-demo GENES",
		Short: "Pay the breeding fee to mint a demo creature",
		Args:  cobra.ExactArgs(1),
		RunE: a.ledger(false, func(ctx context.Context, args []string) error {
			genes, err := parseGenes(args[0])
			if err != nil {
				return err
			}
			recipient := domain.Identity(to)
			if to == "" {
				recipient = a.as()
			}
			if fund {
				if err := a.fundFees(ctx, a.as(), a.svc.BreedingFee()); err != nil {
					return err
				}
			}
			asset, res, err := a.svc.MintDemo(ctx, a.as(), recipient, genes)
			if err != nil {
				return err
			}
			out := a.outcome("mint-demo", res)
			out.Asset = &asset
			return a.write(out)
		}),
	}
	cmd.Flags().StringVar(&to, "to", "", "recipient (defaults to the caller)")
	cmd.Flags().BoolVar(&fund, "fund", false, "mint and approve the fee before paying")
	return cmd
}

func newBreedCmd(a *app) *cobra.Command {
	var fund bool
	cmd := &cobra.Command{
		Use:   "breed PARENT_A PARENT_B",
		Short: "Breed two creatures owned by the caller",
		Args:  cobra.ExactArgs(2),
		RunE: a.ledger(false, func(ctx context.Context, args []string) error {
			pa, err := parseAssetID(args[0])
			if err != nil {
				return err
			}
			pb, err := parseAssetID(args[1])
			if err != nil {
				return err
			}
			if fund {
				if err := a.fundFees(ctx, a.as(), a.svc.BreedingFee()); err != nil {
					return err
				}
			}
			child, res, err := a.svc.Breed(ctx, a.as(), pa, pb)
			if err != nil {
				return err
			}
			out := a.outcome("breed", res)
			out.Asset = &child
			return a.write(out)
		}),
	}
	cmd.Flags().BoolVar(&fund, "fund", false, "mint and approve the fee before paying")
	return cmd
}

func newTransferCmd(a *app) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "transfer ID",
		Short: "Transfer a creature",
		Args:  cobra.ExactArgs(1),
		RunE: a.ledger(false, func(ctx context.Context, args []string) error {
			id, err := parseAssetID(args[0])
			if err != nil {
				return err
			}
			owner := domain.Identity(from)
			if from == "" {
				owner = a.as()
			}
			res, err := a.svc.Transfer(ctx, a.as(), owner, domain.Identity(to), id)
			if err != nil {
				return err
			}
			return a.write(a.outcome("transfer", res))
		}),
	}
	cmd.Flags().StringVar(&from, "from", "", "current owner (defaults to the caller)")
	cmd.Flags().StringVar(&to, "to", "", "recipient")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newApproveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "approve ID SPENDER",
		Short: "Approve SPENDER to transfer one creature",
		Args:  cobra.ExactArgs(2),
		RunE: a.ledger(false, func(ctx context.Context, args []string) error {
			id, err := parseAssetID(args[0])
			if err != nil {
				return err
			}
			res, err := a.svc.Approve(ctx, a.as(), domain.Identity(args[1]), id)
			if err != nil {
				return err
			}
			return a.write(a.outcome("approve", res))
		}),
	}
}

func newApproveAllCmd(a *app) *cobra.Command {
	var revoke bool
	cmd := &cobra.Command{
		Use:   "approve-all OPERATOR",
		Short: "Grant or revoke operator approval over all of the caller's creatures",
		Args:  cobra.ExactArgs(1),
		RunE: a.ledger(false, func(ctx context.Context, args []string) error {
			res, err := a.svc.SetApprovalForAll(ctx, a.as(), domain.Identity(args[0]), !revoke)
			if err != nil {
				return err
			}
			return a.write(a.outcome("approve-all", res))
		}),
	}
	cmd.Flags().BoolVar(&revoke, "revoke", false, "revoke instead of grant")
	return cmd
}

func newOfferCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "offer", Short: "Manage marketplace offers"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set ID PRICE",
			Short: "List a creature at a fixed price",
			Args:  cobra.ExactArgs(2),
			RunE: a.ledger(false, func(ctx context.Context, args []string) error {
				id, err := parseAssetID(args[0])
				if err != nil {
					return err
				}
				price, err := domain.ParseAmount(args[1])
				if err != nil {
					return err
				}
				offer, res, err := a.svc.SetOffer(ctx, a.as(), price, id)
				if err != nil {
					return err
				}
				out := a.outcome("offer-set", res)
				out.Offer = &offer
				return a.write(out)
			}),
		},
		&cobra.Command{
			Use:   "remove ID",
			Short: "Withdraw an active offer",
			Args:  cobra.ExactArgs(1),
			RunE: a.ledger(false, func(ctx context.Context, args []string) error {
				id, err := parseAssetID(args[0])
				if err != nil {
					return err
				}
				res, err := a.svc.RemoveOffer(ctx, a.as(), id)
				if err != nil {
					return err
				}
				return a.write(a.outcome("offer-remove", res))
			}),
		},
		&cobra.Command{
			Use:   "get ID",
			Short: "Show the active offer for a creature",
			Args:  cobra.ExactArgs(1),
			RunE: a.ledger(false, func(ctx context.Context, args []string) error {
				id, err := parseAssetID(args[0])
				if err != nil {
					return err
				}
				offer, err := a.svc.GetOffer(ctx, id)
				if err != nil {
					return err
				}
				return a.write(offer)
			}),
		},
		&cobra.Command{
			Use:   "at INDEX",
			Short: "Show the offer at a position of the offer array (market owner only)",
			Args:  cobra.ExactArgs(1),
			RunE: a.ledger(false, func(ctx context.Context, args []string) error {
				idx, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("index %q: %w", args[0], err)
				}
				offer, err := a.svc.OfferAt(ctx, a.as(), idx)
				if err != nil {
					return err
				}
				return a.write(offer)
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List ids with an active offer",
			Args:  cobra.NoArgs,
			RunE: a.ledger(false, func(ctx context.Context, _ []string) error {
				ids, err := a.svc.GetAllActiveOfferIDs(ctx)
				if err != nil {
					return err
				}
				return a.write(nonNil(ids))
			}),
		},
	)
	return cmd
}

func newBuyCmd(a *app) *cobra.Command {
	var paid string
	var fund bool
	cmd := &cobra.Command{
		Use:   "buy ID",
		Short: "Buy a listed creature at exactly its price",
		Args:  cobra.ExactArgs(1),
		RunE: a.ledger(false, func(ctx context.Context, args []string) error {
			id, err := parseAssetID(args[0])
			if err != nil {
				return err
			}
			amount, err := domain.ParseAmount(paid)
			if err != nil {
				return err
			}
			if fund {
				if err := a.fundSales(ctx, a.as(), amount); err != nil {
					return err
				}
			}
			res, err := a.svc.BuyMonkey(ctx, a.as(), id, amount)
			if err != nil {
				return err
			}
			return a.write(a.outcome("buy", res))
		}),
	}
	cmd.Flags().StringVar(&paid, "paid", "", "amount sent with the purchase")
	cmd.Flags().BoolVar(&fund, "fund", false, "mint the payment to the buyer first")
	_ = cmd.MarkFlagRequired("paid")
	return cmd
}

func newPauseCmd(a *app, pause bool) *cobra.Command {
	use, short := "pause DOMAIN", "Pause a control domain (registry|market)"
	if !pause {
		use, short = "unpause DOMAIN", "Unpause a control domain (registry|market)"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: a.ledger(false, func(ctx context.Context, args []string) error {
			d, err := parseDomain(args[0])
			if err != nil {
				return err
			}
			var res core.Result
			if pause {
				res, err = a.svc.Pause(ctx, a.as(), d)
			} else {
				res, err = a.svc.Unpause(ctx, a.as(), d)
			}
			if err != nil {
				return err
			}
			return a.write(a.outcome(strings.Fields(use)[0], res))
		}),
	}
}

type domainStatus struct {
	Domain domain.Domain   `json:"domain"`
	Owner  domain.Identity `json:"owner"`
	Paused bool            `json:"paused"`
}

func newDomainCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "domain", Short: "Inspect and hand over control domains"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show owner and pause state of each domain",
			Args:  cobra.NoArgs,
			RunE: a.ledger(false, func(ctx context.Context, _ []string) error {
				var out []domainStatus
				for _, d := range domain.Domains {
					owner, err := a.svc.DomainOwner(ctx, d)
					if err != nil {
						return err
					}
					paused, err := a.svc.IsPaused(ctx, d)
					if err != nil {
						return err
					}
					out = append(out, domainStatus{Domain: d, Owner: owner, Paused: paused})
				}
				return a.write(out)
			}),
		},
		&cobra.Command{
			Use:   "transfer DOMAIN NEW_OWNER",
			Short: "Hand a domain to a new owner",
			Args:  cobra.ExactArgs(2),
			RunE: a.ledger(false, func(ctx context.Context, args []string) error {
				d, err := parseDomain(args[0])
				if err != nil {
					return err
				}
				res, err := a.svc.TransferDomainOwnership(ctx, a.as(), d, domain.Identity(args[1]))
				if err != nil {
					return err
				}
				return a.write(a.outcome("domain-transfer", res))
			}),
		},
	)
	return cmd
}

type assetView struct {
	domain.Asset
	Approved domain.Identity `json:"approved,omitempty"`
	Listed   bool            `json:"listed"`
}

func newAssetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "asset ID",
		Short: "Show a creature",
		Args:  cobra.ExactArgs(1),
		RunE: a.ledger(false, func(ctx context.Context, args []string) error {
			id, err := parseAssetID(args[0])
			if err != nil {
				return err
			}
			asset, err := a.svc.AssetDetails(ctx, id)
			if err != nil {
				return err
			}
			approved, err := a.svc.GetApproved(ctx, id)
			if err != nil {
				return err
			}
			_, offerErr := a.svc.GetOffer(ctx, id)
			if offerErr != nil && !errors.Is(offerErr, domain.ErrNoActiveOffer) {
				return offerErr
			}
			return a.write(assetView{Asset: asset, Approved: approved, Listed: offerErr == nil})
		}),
	}
}

func newAssetsCmd(a *app) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "List creature ids, optionally for one owner",
		Args:  cobra.NoArgs,
		RunE: a.ledger(false, func(ctx context.Context, _ []string) error {
			var (
				ids []domain.AssetID
				err error
			)
			if owner != "" {
				ids, err = a.svc.EnumerateOwned(ctx, domain.Identity(owner))
			} else {
				ids, err = a.svc.AllAssets(ctx)
			}
			if err != nil {
				return err
			}
			return a.write(nonNil(ids))
		}),
	}
	cmd.Flags().StringVar(&owner, "owner", "", "only list assets held by this identity")
	return cmd
}

type supplyView struct {
	TotalSupply int           `json:"total_supply"`
	Founders    uint32        `json:"founders"`
	FounderCap  uint32        `json:"founder_cap"`
	BreedingFee domain.Amount `json:"breeding_fee"`
	ActiveOffer int           `json:"active_offers"`
}

func newSupplyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "supply",
		Short: "Show supply counters and policy",
		Args:  cobra.NoArgs,
		RunE: a.ledger(false, func(ctx context.Context, _ []string) error {
			total, err := a.svc.TotalSupply(ctx)
			if err != nil {
				return err
			}
			founders, err := a.svc.FounderCount(ctx)
			if err != nil {
				return err
			}
			offers, err := a.svc.GetAllActiveOfferIDs(ctx)
			if err != nil {
				return err
			}
			return a.write(supplyView{
				TotalSupply: total,
				Founders:    founders,
				FounderCap:  a.svc.FounderCap(),
				BreedingFee: a.svc.BreedingFee(),
				ActiveOffer: len(offers),
			})
		}),
	}
}

func newSnapshotCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "snapshot", Short: "Archive and restore ledger snapshots"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "archive",
			Short: "Write the current state to the blob store",
			Args:  cobra.NoArgs,
			RunE: a.ledger(true, func(ctx context.Context, _ []string) error {
				ref, err := a.svc.ArchiveSnapshot(ctx)
				if err != nil {
					return err
				}
				return a.write(ref)
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List archived snapshots, oldest first",
			Args:  cobra.NoArgs,
			RunE: a.ledger(true, func(ctx context.Context, _ []string) error {
				refs, err := a.svc.ListSnapshots(ctx)
				if err != nil {
					return err
				}
				return a.write(nonNil(refs))
			}),
		},
		&cobra.Command{
			Use:   "restore KEY",
			Short: "Replace the ledger state with an archived snapshot (registry owner only)",
			Args:  cobra.ExactArgs(1),
			RunE: a.ledger(true, func(ctx context.Context, args []string) error {
				res, err := a.svc.RestoreSnapshot(ctx, a.as(), args[0])
				if err != nil {
					return err
				}
				return a.write(a.outcome("snapshot-restore", res))
			}),
		},
	)
	return cmd
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
