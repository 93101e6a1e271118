package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/trigram"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/errors"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0.000"},
		{5 * time.Millisecond, "0.005"},
		{1234 * time.Millisecond, "1.234"},
		{62*time.Second + 7*time.Millisecond + 900*time.Microsecond, "62.007"},
		{-time.Second, "0.000"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestRenderInsert(t *testing.T) {
	got := RenderInsert(trigram.InsertOutcome{
		Key:     trigram.Key{Word1: "a", Word2: "b", Word3: "c"},
		Freq:    5,
		Latency: 12 * time.Millisecond,
	})
	want := "Inserted 3-gram: a b c = 5 in 0.012 seconds\n"
	if got != want {
		t.Fatalf("RenderInsert = %q, want %q", got, want)
	}
	// The statistics engine reads the latency from the ninth token.
	if tok := strings.Split(got, " ")[8]; tok != "0.012" {
		t.Fatalf("token 8 = %q", tok)
	}
}

func TestRenderQuery(t *testing.T) {
	o := trigram.QueryOutcome{
		Key:          trigram.Key{Word1: "the", Word2: "quick", Word3: "fox"},
		ExactFreq:    3,
		Found:        true,
		ExactLatency: 2 * time.Millisecond,
		ScanLatency:  1500 * time.Millisecond,
	}
	o.ByFirstSecond = trigram.PairResult{
		Pair:  trigram.WordPair{First: "the", Second: "quick"},
		Words: trigram.CoOccurrences{"fox": 3, "dog": 7, "cat": 3},
	}
	o.ByFirstThird = trigram.PairResult{
		Pair:  trigram.WordPair{First: "the", Second: "fox"},
		Words: trigram.CoOccurrences{"quick": 3},
	}
	o.BySecondThird = trigram.PairResult{
		Pair:  trigram.WordPair{First: "quick", Second: "fox"},
		Words: trigram.CoOccurrences{},
	}

	want := strings.Join([]string{
		"Given 3-gram: the quick fox = 3",
		"Time taken to get the exact frequency: 0.002 seconds",
		"Time taken to get all values: 1.500 seconds",
		"--- query executed based on first and second word ---",
		"words: the quick _____",
		" dog: 7",
		" cat: 3",
		" fox: 3",
		"--- query executed based on first and third word ---",
		"words: the _____ fox",
		" quick: 3",
		"--- query executed based on second and third word ---",
		"words: _____ quick fox",
		"",
	}, "\n")
	if got := RenderQuery(o); got != want {
		t.Fatalf("RenderQuery mismatch\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderQueryTruncatesListing(t *testing.T) {
	words := trigram.CoOccurrences{}
	for i := 0; i < 13; i++ {
		words[fmt.Sprintf("w%02d", i)] = int64(100 - i)
	}
	o := trigram.QueryOutcome{Key: trigram.Key{Word1: "a", Word2: "b", Word3: "c"}}
	o.ByFirstSecond = trigram.PairResult{Pair: trigram.WordPair{First: "a", Second: "b"}, Words: words}

	out := RenderQuery(o)
	section := out[strings.Index(out, "words: a b _____"):strings.Index(out, "--- query executed based on first and third")]
	lines := strings.Split(strings.TrimSpace(section), "\n")
	// header, ten entries, trailer
	if len(lines) != 12 {
		t.Fatalf("section has %d lines:\n%s", len(lines), section)
	}
	if lines[1] != " w00: 100" || lines[10] != " w09: 91" {
		t.Fatalf("unexpected listing order: %q ... %q", lines[1], lines[10])
	}
	if lines[11] != " ... and 3 more" {
		t.Fatalf("trailer = %q", lines[11])
	}
}

func TestRenderQueryExactlyTenHasNoTrailer(t *testing.T) {
	words := trigram.CoOccurrences{}
	for i := 0; i < MaxListed; i++ {
		words[fmt.Sprintf("w%d", i)] = 1
	}
	o := trigram.QueryOutcome{}
	o.BySecondThird = trigram.PairResult{Words: words}
	if out := RenderQuery(o); strings.Contains(out, "more") {
		t.Fatalf("unexpected trailer:\n%s", out)
	}
}

func newTestWriter(t *testing.T) *Writer {
	t.Helper()
	root := t.TempDir()
	w := NewWriter(config.ArtifactsConfig{
		Root:           root,
		SelectDir:      filepath.Join(root, "query-results", "select"),
		InsertDir:      filepath.Join(root, "query-results", "insert"),
		SelectStatsDir: filepath.Join(root, "stats", "select"),
		InsertStatsDir: filepath.Join(root, "stats", "insert"),
	}, nil)
	w.now = func() time.Time {
		return time.Date(2024, 3, 9, 14, 5, 7, 0, time.FixedZone("X", 3600))
	}
	return w
}

func TestWriterPaths(t *testing.T) {
	w := newTestWriter(t)
	key := trigram.Key{Word1: "a", Word2: "b/c", Word3: "d"}

	if got := filepath.Base(w.QueryPath(key)); got != "a-b%2Fc-d" {
		t.Errorf("query file = %q", got)
	}
	if got := filepath.Base(w.InsertPath(key, 7)); got != "a-b%2Fc-d-7" {
		t.Errorf("insert file = %q", got)
	}
}

func TestWriteInsertAndOverwrite(t *testing.T) {
	w := newTestWriter(t)
	o := trigram.InsertOutcome{Key: trigram.Key{Word1: "a", Word2: "b", Word3: "c"}, Freq: 1, Latency: time.Millisecond}

	path, err := w.WriteInsert(o)
	if err != nil {
		t.Fatalf("WriteInsert: %v", err)
	}
	o.Latency = 2 * time.Millisecond
	if _, err := w.WriteInsert(o); err != nil {
		t.Fatalf("second WriteInsert: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "Inserted 3-gram: a b c = 1 in 0.002 seconds\n" {
		t.Fatalf("content = %q", data)
	}
	if _, err := os.Stat(path + TempSuffix); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestWriteReport(t *testing.T) {
	w := newTestWriter(t)
	path, err := w.WriteReport(KindInsert, []string{"one", "two"})
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if filepath.Base(path) != "2024-03-09T13:05:07" {
		t.Fatalf("report name = %q", filepath.Base(path))
	}
	if filepath.Base(filepath.Dir(path)) != "insert" {
		t.Fatalf("report dir = %q", filepath.Dir(path))
	}
	data, _ := os.ReadFile(path)
	if string(data) != "one\ntwo\n" {
		t.Fatalf("content = %q", data)
	}
}

func TestWriteFailureIsArtifactIO(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	w := NewWriter(config.ArtifactsConfig{SelectDir: filepath.Join(blocker, "select")}, nil)

	_, err := w.WriteQuery(trigram.QueryOutcome{Key: trigram.Key{Word1: "a", Word2: "b", Word3: "c"}})
	if !errors.Is(err, apperrors.ErrArtifactIO) {
		t.Fatalf("error = %v, want ErrArtifactIO", err)
	}
}
