package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"monkeycore/internal/archive"
	"monkeycore/internal/blob"
	"monkeycore/internal/config"
	"monkeycore/internal/core"
	"monkeycore/internal/currency"
	"monkeycore/internal/logging"
	"monkeycore/pkg/domain"
)

// app holds the flags and the opened ledger for a single invocation.
type app struct {
	vars   map[string]string
	stdout io.Writer
	stderr io.Writer

	output string
	caller string
	trace  bool

	cfg    config.Config
	logger *logging.Logger
	store  core.PersistentStore
	svc    *core.Service
	events *core.EventLog
}

func (a *app) loadConfig() (config.Config, error) {
	if a.vars != nil {
		return config.LoadFrom(a.vars)
	}
	return config.Load()
}

// open loads configuration and opens the store. The blob store backing the
// snapshot archive is only touched when withArchive is set.
func (a *app) open(ctx context.Context, withArchive bool) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(a.stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	events := core.NewEventLog()
	opts := []core.ServiceOption{core.WithLogger(logger), core.WithEventSink(events)}
	if a.trace {
		opts = append(opts, core.WithTracer(core.NewJSONTracer(a.stderr)))
	}
	if withArchive {
		bs, err := blob.Open(ctx, cfg.Blob)
		if err != nil {
			return fmt.Errorf("open blob store: %w", err)
		}
		arc, err := archive.New(bs, archive.WithPrefix(cfg.ArchivePrefix))
		if err != nil {
			return err
		}
		opts = append(opts, core.WithArchive(arc))
	}
	store, err := core.OpenPersistentStore(ctx, cfg.Storage(), core.NewDefaultRulesEngine())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	svc, err := core.NewService(store, cfg.Ledger(), opts...)
	if err != nil {
		_ = core.CloseStore(store)
		return err
	}
	logger.Debug("ledger opened", "driver", string(cfg.StorageDriver), "archive", withArchive)
	a.cfg, a.logger, a.store, a.svc, a.events = cfg, logger, store, svc, events
	return nil
}

func (a *app) close() error {
	var err error
	if a.store != nil {
		err = core.CloseStore(a.store)
		a.store = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return err
}

// as returns the --as identity, defaulting to the registry owner.
func (a *app) as() domain.Identity {
	if a.caller != "" {
		return domain.Identity(a.caller)
	}
	return a.cfg.RegistryOwner
}

// fundFees mints amount of the fee currency to who and approves the
// treasury to collect it. The reference ledgers are process-local, so
// single-shot commands fund themselves on request.
func (a *app) fundFees(ctx context.Context, who domain.Identity, amount domain.Amount) error {
	fees, ok := a.svc.FeeCurrency().(*currency.Ledger)
	if !ok {
		return errors.New("fee currency cannot be funded")
	}
	if err := fees.Mint(ctx, who, amount); err != nil {
		return err
	}
	allowance := fees.Allowance(ctx, who, fees.Spender())
	total, ok := allowance.Add(amount)
	if !ok {
		return domain.ErrImpossibleOverflow
	}
	return fees.Approve(ctx, who, fees.Spender(), total)
}

func (a *app) fundSales(ctx context.Context, who domain.Identity, amount domain.Amount) error {
	sales, ok := a.svc.SaleCurrency().(*currency.Ledger)
	if !ok {
		return errors.New("sale currency cannot be funded")
	}
	return sales.Mint(ctx, who, amount)
}
