// Command inputgen writes a bulk input file of random three-grams. Words are
// drawn from a Zipf distribution so that popular keys repeat, which gives
// bulk insert runs a realistic mix of creates and increments.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/trigram"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/logger"
)

var vocabulary = []string{
	"the", "of", "and", "to", "in", "is", "that", "for", "it", "as",
	"was", "with", "be", "by", "on", "not", "he", "this", "are", "or",
	"his", "from", "at", "which", "but", "have", "an", "had", "they", "you",
	"were", "their", "one", "all", "we", "can", "her", "has", "there", "been",
	"store", "query", "frequency", "word", "table", "partition", "column", "index", "count", "value",
}

type params struct {
	lines int
	skew  float64
	seed  int64
}

func main() {
	configPath := flag.String("config", "", "path to config file")
	name := flag.String("name", "input", "file name inside the input directory")
	lines := flag.Int("lines", 1000, "number of three-grams to write")
	skew := flag.Float64("skew", 1.2, "zipf exponent, must be > 1")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	path := filepath.Join(cfg.Artifacts.InputDir, filepath.Base(*name))
	if err := writeFile(path, params{lines: *lines, skew: *skew, seed: *seed}); err != nil {
		slog.Error("failed to write input file", "path", path, "error", err)
		os.Exit(1)
	}
	slog.Info("input file written", "path", path, "lines", *lines)
}

func writeFile(path string, p params) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := generate(f, p); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func generate(w io.Writer, p params) error {
	if p.skew <= 1 {
		return fmt.Errorf("skew %.2f must be greater than 1", p.skew)
	}
	rng := rand.New(rand.NewSource(p.seed))
	zipf := rand.NewZipf(rng, p.skew, 1, uint64(len(vocabulary)-1))
	word := func() string { return vocabulary[zipf.Uint64()] }

	bw := bufio.NewWriter(w)
	for i := 0; i < p.lines; i++ {
		key := trigram.Key{Word1: word(), Word2: word(), Word3: word()}
		if _, err := fmt.Fprintln(bw, key.String()); err != nil {
			return err
		}
	}
	return bw.Flush()
}
