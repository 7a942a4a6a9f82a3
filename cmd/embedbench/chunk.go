package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/poiesic/embedbench"
	"github.com/poiesic/embedbench/chunking"
	"github.com/poiesic/embedbench/core"
	"github.com/poiesic/embedbench/ingestion"
	"github.com/urfave/cli/v2"
)

const previewChars = 120

func chunkCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("exactly one file is required", embedbench.ExitConfiguration)
	}
	path := c.Args().First()
	doc, err := ingestion.LoadDocument(core.DocumentRef{Path: path, RelPath: path})
	if err != nil {
		return cli.Exit(err, embedbench.ExitConfiguration)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "%s: %d bytes, %d characters, ~%d tokens\n\n",
		path, doc.SizeBytes, len([]rune(doc.Text)), chunking.EstimateTokens(doc.Text))

	for _, strategy := range []chunking.Strategy{chunking.StrategyFixed, chunking.StrategyParagraph} {
		chunker, err := chunking.New(chunking.Config{
			Strategy:  strategy,
			ChunkSize: c.Int("chunk-size"),
			Overlap:   c.Int("overlap"),
		})
		if err != nil {
			return cli.Exit(err, embedbench.ExitConfiguration)
		}
		writeChunkStats(w, string(strategy), chunker.Unit(), chunking.Split(chunker, doc.Text), c.Int("show"))
	}
	return nil
}

func writeChunkStats(w io.Writer, name, unit string, chunks []core.ChunkCandidate, show int) {
	color.New(color.FgCyan, color.Bold).Fprintf(w, "%s\n", name)
	if len(chunks) == 0 {
		fmt.Fprintf(w, "  no chunks\n\n")
		return
	}

	total := 0
	minSize, maxSize := chunks[0].Size, chunks[0].Size
	for _, ch := range chunks {
		total += ch.Size
		minSize = min(minSize, ch.Size)
		maxSize = max(maxSize, ch.Size)
	}
	fmt.Fprintf(w, "  chunks: %d\n", len(chunks))
	fmt.Fprintf(w, "  size:   avg %.1f, min %d, max %d %s\n", float64(total)/float64(len(chunks)), minSize, maxSize, unit)

	for _, ch := range chunks[:min(show, len(chunks))] {
		fmt.Fprintf(w, "  [%d] %q\n", ch.Index, preview(ch.Text))
	}
	fmt.Fprintln(w)
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= previewChars {
		return text
	}
	return string(runes[:previewChars]) + "..."
}
