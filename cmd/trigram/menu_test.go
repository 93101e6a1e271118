package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/artifact"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/bulk"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/projection"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/projection/memstore"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/service"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/stats"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/health"
)

func newTestCLI(t *testing.T) (*cli, *bytes.Buffer) {
	t.Helper()
	root := t.TempDir()
	dirs := config.ArtifactsConfig{
		Root:           root,
		SelectDir:      filepath.Join(root, "query-results", "select"),
		InsertDir:      filepath.Join(root, "query-results", "insert"),
		SelectStatsDir: filepath.Join(root, "stats", "select"),
		InsertStatsDir: filepath.Join(root, "stats", "insert"),
		InputDir:       filepath.Join(root, "query-inputs"),
	}
	writer := artifact.NewWriter(dirs, nil)
	backend := memstore.New()
	svc := service.New(projection.NewStore(backend, nil, nil), writer, nil)
	checker := health.NewChecker()
	checker.Register("store", health.Ping(backend.Ping))
	out := &bytes.Buffer{}
	return &cli{
		svc:     svc,
		runner:  bulk.NewRunner(svc, nil),
		engine:  stats.NewEngine(dirs, 90, writer, nil),
		checker: checker,
		dirs:    dirs,
		out:     out,
	}, out
}

func TestMenuInsertQueryStatsExit(t *testing.T) {
	c, out := newTestCLI(t)
	input := strings.Join([]string{
		"2", "the quick fox",
		"2", "the quick fox",
		"1", "1", "the quick fox",
		"3", "1",
		"3", "2",
		"4",
	}, "\n") + "\n"

	if err := c.menu(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatalf("menu: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"Inserted 3-gram: the quick fox = 2 in ",
		"Given 3-gram: the quick fox = 2",
		"Statistics for INSERT queries: ",
		"Statistics for SELECT queries: ",
		"90th Percentile Time for Exact Frequency:",
		"Exiting...",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestMenuMalformedInputContinues(t *testing.T) {
	c, out := newTestCLI(t)
	input := "2\nonly two\n9\n4\n"
	if err := c.menu(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatalf("menu: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Error: malformed input") {
		t.Errorf("expected malformed input error in output:\n%s", got)
	}
	if !strings.Contains(got, "Invalid input") || !strings.Contains(got, "Exiting...") {
		t.Errorf("menu did not continue after errors:\n%s", got)
	}
}

func TestMenuEndsOnEOF(t *testing.T) {
	c, _ := newTestCLI(t)
	if err := c.menu(context.Background(), strings.NewReader("")); err != nil {
		t.Fatalf("menu: %v", err)
	}
}

func TestMenuBulkDefaultFile(t *testing.T) {
	c, out := newTestCLI(t)
	if err := os.MkdirAll(c.dirs.InputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(c.dirs.InputDir, defaultInputFile), []byte("a b c\nd e f\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := c.menu(context.Background(), strings.NewReader("1\n2\n1\n4\n")); err != nil {
		t.Fatalf("menu: %v", err)
	}
	if !strings.Contains(out.String(), "Processed 2 three-grams") {
		t.Fatalf("output:\n%s", out.String())
	}
	for _, name := range []string{"a-b-c", "d-e-f"} {
		if _, err := os.Stat(filepath.Join(c.dirs.SelectDir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}
}

func TestMenuBulkRejectsPathEscape(t *testing.T) {
	c, out := newTestCLI(t)
	if err := c.menu(context.Background(), strings.NewReader("1\n2\n2\n../etc/passwd\n4\n")); err != nil {
		t.Fatalf("menu: %v", err)
	}
	if !strings.Contains(out.String(), "is not a file name") {
		t.Fatalf("output:\n%s", out.String())
	}
}

func TestStatsWithoutData(t *testing.T) {
	c, out := newTestCLI(t)
	if err := c.stats(context.Background(), artifact.KindInsert); err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out.String(), "No INSERT timings recorded yet") {
		t.Fatalf("output = %q", out.String())
	}
	if err := c.stats(context.Background(), "bogus"); !errors.Is(err, apperrors.ErrMalformedInput) {
		t.Fatalf("error = %v, want ErrMalformedInput", err)
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	c, _ := newTestCLI(t)
	err := dispatch(context.Background(), c, []string{"frobnicate"})
	if apperrors.ExitCode(err) != apperrors.ExitMalformedInput {
		t.Fatalf("exit code = %d", apperrors.ExitCode(err))
	}
	err = dispatch(context.Background(), c, []string{"query", "a", "b"})
	if !errors.Is(err, apperrors.ErrMalformedInput) {
		t.Fatalf("error = %v", err)
	}
	if err := dispatch(context.Background(), c, []string{"insert", "a", "b", "c"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
}

type stubPurger struct {
	n   int64
	err error
}

func (p stubPurger) Purge(context.Context) (int64, error) { return p.n, p.err }

func TestPurgeTokens(t *testing.T) {
	c, out := newTestCLI(t)
	if err := c.purgeTokens(context.Background()); !errors.Is(err, apperrors.ErrMalformedInput) {
		t.Fatalf("without ledger: error = %v", err)
	}

	c.purger = stubPurger{n: 3}
	if err := c.purgeTokens(context.Background()); err != nil {
		t.Fatalf("purgeTokens: %v", err)
	}
	if !strings.Contains(out.String(), "Removed 3 increment tokens") {
		t.Fatalf("output = %q", out.String())
	}

	c.purger = stubPurger{err: errors.New("redis down")}
	if err := c.purgeTokens(context.Background()); !errors.Is(err, apperrors.ErrStoreUnavailable) {
		t.Fatalf("error = %v, want ErrStoreUnavailable", err)
	}
}

func TestHealthCommand(t *testing.T) {
	c, out := newTestCLI(t)
	if err := dispatch(context.Background(), c, []string{"health"}); err != nil {
		t.Fatalf("health: %v", err)
	}
	if !strings.Contains(out.String(), `"status": "up"`) {
		t.Fatalf("output = %s", out.String())
	}

	checker := health.NewChecker()
	checker.Register("store", func(context.Context) error { return errors.New("unreachable") })
	c.checker = checker
	if err := c.health(context.Background()); !errors.Is(err, apperrors.ErrStoreUnavailable) {
		t.Fatalf("error = %v, want ErrStoreUnavailable", err)
	}
}
