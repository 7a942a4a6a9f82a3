package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/poiesic/embedbench"
	"github.com/poiesic/embedbench/core"
	"github.com/poiesic/embedbench/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func testApp(out *bytes.Buffer) *cli.App {
	color.NoColor = true
	app := newApp()
	app.Writer = out
	app.ErrWriter = io.Discard
	app.ExitErrHandler = func(*cli.Context, error) {}
	return app
}

func exitCode(err error) int {
	var ec cli.ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	if err != nil {
		return -1
	}
	return 0
}

// embedServer returns a 4-dimensional vector for every text and a 503 for
// texts containing "poison".
func embedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Inputs string `json:"inputs"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if strings.Contains(req.Inputs, "poison") {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[1, 0, 0, 0]`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func corpusDir(t *testing.T, docs map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, text := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(text), 0644))
	}
	return dir
}

func TestSetupLogger_Invalid(t *testing.T) {
	var out bytes.Buffer
	err := testApp(&out).Run([]string{"embedbench", "--log-level", "loud", "history"})
	assert.ErrorContains(t, err, "invalid log level")

	err = testApp(&out).Run([]string{"embedbench", "--log-format", "xml", "history"})
	assert.ErrorContains(t, err, "invalid log format")
}

func TestRunCommand_DryRun(t *testing.T) {
	srv := embedServer(t)
	dir := corpusDir(t, map[string]string{"a.txt": "first", "b.txt": "second"})
	summaries := t.TempDir()

	var out bytes.Buffer
	err := testApp(&out).Run([]string{"embedbench", "run",
		"--api-url", srv.URL, "--dry-run", "--no-progress", "--vector-dims", "4",
		"--summary-path", summaries, "--run-id", "cli-run", "--workers", "2", dir})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Run cli-run")
	assert.Contains(t, out.String(), "processed:        2")
	s, err := metrics.ReadSummary(filepath.Join(summaries, metrics.SummaryFileName("cli-run", 0, 1)))
	require.NoError(t, err)
	assert.Equal(t, 2, s.Settings.Workers)
	assert.True(t, s.Settings.DryRun)
}

func TestRunCommand_ShardReportOmitsOtherShards(t *testing.T) {
	srv := embedServer(t)
	dir := corpusDir(t, map[string]string{"a.txt": "first", "b.txt": "second", "c.txt": "third"})

	var out bytes.Buffer
	err := testApp(&out).Run([]string{"embedbench", "run",
		"--api-url", srv.URL, "--dry-run", "--no-progress", "--shard-id", "1", "--shard-count", "3",
		"--summary-path", t.TempDir(), dir})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "1 of 3 shards")
	assert.NotContains(t, out.String(), "missing shards")
}

func TestRunCommand_PartialFailureExitCode(t *testing.T) {
	srv := embedServer(t)
	dir := corpusDir(t, map[string]string{"a.txt": "fine", "b.txt": "poison"})

	var out bytes.Buffer
	err := testApp(&out).Run([]string{"embedbench", "run",
		"--api-url", srv.URL, "--dry-run", "--no-progress", "--max-retries", "1",
		"--summary-path", t.TempDir(), dir})
	assert.Equal(t, embedbench.ExitPartial, exitCode(err))
	assert.Contains(t, out.String(), "failed:           1")
}

func TestRunCommand_ConfigurationExitCode(t *testing.T) {
	var out bytes.Buffer
	err := testApp(&out).Run([]string{"embedbench", "run", "--no-progress", t.TempDir()})
	assert.Equal(t, embedbench.ExitConfiguration, exitCode(err), "api-url is required")

	err = testApp(&out).Run([]string{"embedbench", "run", "--api-url", "http://localhost:8080",
		"--chunk-size", "10", "--overlap", "10", t.TempDir()})
	assert.Equal(t, embedbench.ExitConfiguration, exitCode(err))

	err = testApp(&out).Run([]string{"embedbench", "run", "--config", "missing.yaml", t.TempDir()})
	assert.Equal(t, embedbench.ExitConfiguration, exitCode(err))
}

func writeShardSummaries(t *testing.T, dir, runID, chunker string, failed int) {
	t.Helper()
	for id := range 2 {
		c := metrics.NewCollector(runID, core.ShardAssignment{ID: id, Count: 2}, metrics.RunSettings{Chunker: chunker, ChunkSize: 256, Workers: 4})
		c.RecordSuccess(&metrics.DocumentStats{DocumentID: "doc", SizeBytes: 100, ChunkChars: []int{50, 50}, ChunkSizes: []int{50, 50}, Duration: time.Millisecond})
		if id == 0 {
			for range failed {
				c.RecordFailure("bad", nil, errors.New("boom"))
			}
		}
		require.NoError(t, c.Summary().WriteFile(filepath.Join(dir, metrics.SummaryFileName(runID, id, 2))))
	}
}

func TestMergeAndHistory(t *testing.T) {
	dir := t.TempDir()
	ledger := filepath.Join(dir, "history.csv")
	ledgerDB := filepath.Join(dir, "history.db")
	writeShardSummaries(t, dir, "run-fixed", "fixed", 0)
	writeShardSummaries(t, dir, "run-para", "paragraph", 1)

	var out bytes.Buffer
	err := testApp(&out).Run([]string{"embedbench", "merge", "--ledger", ledger, "--ledger-db", ledgerDB,
		filepath.Join(dir, "summary-run-fixed-*.json")})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "instances:        2 of 2 shards")

	out.Reset()
	err = testApp(&out).Run([]string{"embedbench", "merge", "--ledger", ledger, "--ledger-db", ledgerDB, "--fail-on-errors",
		filepath.Join(dir, "summary-run-para-*.json")})
	assert.Equal(t, embedbench.ExitPartial, exitCode(err))

	out.Reset()
	require.NoError(t, testApp(&out).Run([]string{"embedbench", "history", "--ledger", ledger}))
	assert.Contains(t, out.String(), "run-fixed")
	assert.Contains(t, out.String(), "run-para")

	out.Reset()
	require.NoError(t, testApp(&out).Run([]string{"embedbench", "history", "--ledger-db", ledgerDB, "--chunker", "paragraph"}))
	assert.Contains(t, out.String(), "run-para")
	assert.NotContains(t, out.String(), "run-fixed")
}

func TestMergeCommand_Errors(t *testing.T) {
	var out bytes.Buffer
	err := testApp(&out).Run([]string{"embedbench", "merge"})
	assert.Equal(t, embedbench.ExitConfiguration, exitCode(err))

	err = testApp(&out).Run([]string{"embedbench", "merge", filepath.Join(t.TempDir(), "missing.json")})
	assert.Equal(t, embedbench.ExitFatal, exitCode(err))

	err = testApp(&out).Run([]string{"embedbench", "history"})
	assert.Equal(t, embedbench.ExitConfiguration, exitCode(err))

	dir := t.TempDir()
	ledger := filepath.Join(dir, "history.csv")
	writeShardSummaries(t, dir, "run-a", "fixed", 0)
	writeShardSummaries(t, dir, "run-b", "fixed", 0)
	err = testApp(&out).Run([]string{"embedbench", "merge", "--ledger", ledger, filepath.Join(dir, "summary-*.json")})
	assert.Equal(t, embedbench.ExitFatal, exitCode(err))
	assert.NoFileExists(t, ledger, "mixed runs never reach the ledger")
}

func TestFilterHistory(t *testing.T) {
	records := []core.RunRecord{
		{RunID: "1", Chunker: "fixed"},
		{RunID: "2", Chunker: "paragraph"},
		{RunID: "3", Chunker: "fixed"},
		{RunID: "4", Chunker: "fixed"},
	}
	ids := func(rs []core.RunRecord) []string {
		var out []string
		for _, r := range rs {
			out = append(out, r.RunID)
		}
		return out
	}
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(filterHistory(records, "", 0)))
	assert.Equal(t, []string{"3", "4"}, ids(filterHistory(records, "fixed", 2)))
	assert.Equal(t, []string{"2"}, ids(filterHistory(records, "paragraph", 5)))

	var out bytes.Buffer
	writeHistory(&out, nil)
	assert.Equal(t, "no runs recorded\n", out.String())
}

func TestChunkCommand(t *testing.T) {
	dir := corpusDir(t, map[string]string{"doc.txt": strings.Repeat("A sentence of text. ", 40) + "\n\n" + strings.Repeat("More words here. ", 30)})

	var out bytes.Buffer
	err := testApp(&out).Run([]string{"embedbench", "chunk", "--chunk-size", "100", "--overlap", "10", filepath.Join(dir, "doc.txt")})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "fixed")
	assert.Contains(t, out.String(), "paragraph")
	assert.Contains(t, out.String(), "chunks:")
	assert.Contains(t, out.String(), "[0]")

	err = testApp(&out).Run([]string{"embedbench", "chunk"})
	assert.Equal(t, embedbench.ExitConfiguration, exitCode(err))
}

func TestPingCommand(t *testing.T) {
	srv := embedServer(t)

	var out bytes.Buffer
	require.NoError(t, testApp(&out).Run([]string{"embedbench", "ping", "--api-url", srv.URL}))
	assert.Contains(t, out.String(), "4 dimensions")

	err := testApp(&out).Run([]string{"embedbench", "ping", "--api-url", srv.URL, "--vector-dims", "8"})
	assert.Equal(t, embedbench.ExitConfiguration, exitCode(err))

	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"OK"}`))
	}))
	defer store.Close()
	out.Reset()
	require.NoError(t, testApp(&out).Run([]string{"embedbench", "ping", "--api-url", srv.URL, "--store", "--store-url", store.URL}))
	assert.Contains(t, out.String(), "collections documents and vectors ok")
}
