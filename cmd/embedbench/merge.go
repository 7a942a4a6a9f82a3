package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"github.com/poiesic/embedbench"
	"github.com/poiesic/embedbench/metrics"
	"github.com/poiesic/embedbench/storage"
	"github.com/poiesic/embedbench/storage/badger"
	"github.com/poiesic/embedbench/storage/csvledger"
	"github.com/urfave/cli/v2"
)

func ledgerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "ledger",
			Usage: "Run history CSV file",
		},
		&cli.StringFlag{
			Name:  "ledger-db",
			Usage: "Run history BadgerDB directory",
		},
	}
}

// openLedgers opens every ledger named by the ledger flags. The returned
// function closes them.
func openLedgers(c *cli.Context) ([]storage.LedgerRepository, func(), error) {
	var ledgers []storage.LedgerRepository
	var closers []func() error
	closeAll := func() {
		for _, closeFn := range slices.Backward(closers) {
			if err := closeFn(); err != nil {
				slog.Error("error closing ledger", "err", err)
			}
		}
	}

	if path := c.String("ledger"); path != "" {
		l, err := csvledger.Open(path)
		if err != nil {
			return nil, nil, err
		}
		ledgers = append(ledgers, l)
		closers = append(closers, l.Close)
	}
	if path := c.String("ledger-db"); path != "" {
		backend, err := badger.OpenBackend(path, false)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to open ledger database: %w", err)
		}
		closers = append(closers, backend.Close)
		repo, err := badger.NewLedgerRepository(backend)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to create ledger repository: %w", err)
		}
		ledgers = append(ledgers, repo)
		closers = append(closers, repo.Close)
	}
	return ledgers, closeAll, nil
}

// summaryPaths expands glob arguments. Arguments without glob
// metacharacters are kept as they are so a missing file is reported.
func summaryPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			matches = []string{arg}
		}
		paths = append(paths, matches...)
	}
	return paths, nil
}

func mergeCommand(c *cli.Context) error {
	if !c.Args().Present() {
		return cli.Exit("at least one summary file is required", embedbench.ExitConfiguration)
	}
	paths, err := summaryPaths(c.Args().Slice())
	if err != nil {
		return cli.Exit(err, embedbench.ExitConfiguration)
	}

	summaries, err := metrics.LoadSummaries(c.Context, paths)
	if err != nil {
		return cli.Exit(err, embedbench.ExitFatal)
	}
	report, err := metrics.Merge(summaries)
	if err != nil {
		return cli.Exit(err, embedbench.ExitFatal)
	}
	if err := metrics.WriteReport(c.App.Writer, report); err != nil {
		return err
	}
	if len(report.MissingShards) > 0 {
		slog.Warn("merging an incomplete run", "run", report.RunID, "missing", report.MissingShards)
	}

	ledgers, closeLedgers, err := openLedgers(c)
	if err != nil {
		return cli.Exit(err, embedbench.ExitFatal)
	}
	defer closeLedgers()

	record := report.Record(time.Now())
	var errs []error
	for _, l := range ledgers {
		if err := l.Append(c.Context, record); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return cli.Exit(fmt.Errorf("failed to append run history: %w", err), embedbench.ExitFatal)
	}
	if len(ledgers) > 0 {
		slog.Info("run history updated", "run", report.RunID, "ledgers", len(ledgers))
	}

	if c.Bool("fail-on-errors") && report.Failed() {
		return cli.Exit(fmt.Sprintf("%d documents failed", report.Totals.DocumentsFailed), embedbench.ExitPartial)
	}
	return nil
}
