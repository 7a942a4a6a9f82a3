package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/poiesic/embedbench"
	"github.com/poiesic/embedbench/core"
	"github.com/urfave/cli/v2"
)

func historyCommand(c *cli.Context) error {
	ledgers, closeLedgers, err := openLedgers(c)
	if err != nil {
		return cli.Exit(err, embedbench.ExitFatal)
	}
	defer closeLedgers()
	if len(ledgers) == 0 {
		return cli.Exit("one of --ledger or --ledger-db is required", embedbench.ExitConfiguration)
	}

	// With both flags the CSV ledger wins.
	records, err := ledgers[0].List(c.Context)
	if err != nil {
		return cli.Exit(err, embedbench.ExitFatal)
	}
	records = filterHistory(records, c.String("chunker"), c.Int("limit"))
	writeHistory(c.App.Writer, records)
	return nil
}

// filterHistory keeps the rows with the given chunker, or all rows when
// chunker is empty, then the last limit of them.
func filterHistory(records []core.RunRecord, chunker string, limit int) []core.RunRecord {
	var out []core.RunRecord
	for _, r := range records {
		if chunker == "" || r.Chunker == chunker {
			out = append(out, r)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

func writeHistory(w io.Writer, records []core.RunRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "no runs recorded")
		return
	}

	header := color.New(color.FgCyan, color.Bold)
	failed := color.New(color.FgRed)
	header.Fprintf(w, "%-20s %-12s %-9s %6s %7s %5s %7s %6s %8s %9s %9s %9s\n",
		"timestamp", "run", "chunker", "size", "overlap", "inst", "workers", "failed", "docs", "docs/s", "chunks/s", "api ms")

	for _, r := range records {
		line := fmt.Sprintf("%-20s %-12s %-9s %6d %7d %5d %7d %6d %8d %9.2f %9.2f %9.1f",
			r.Timestamp.Format("2006-01-02 15:04:05"), shortID(r.RunID), r.Chunker, r.ChunkSize, r.Overlap,
			r.Instances, r.Workers, r.DocumentsFailed, r.Documents, r.DocsPerSecond, r.ChunksPerSecond, r.AvgAPIMillis)
		if r.DocumentsFailed > 0 {
			failed.Fprintln(w, line)
			continue
		}
		fmt.Fprintln(w, line)
	}
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
