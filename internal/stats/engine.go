package stats

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/artifact"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/samples"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/errors"
)

const (
	labelExact     = "Exact Frequency"
	labelAllValues = "All Values"
)

// ReportWriter persists report lines and returns where they went.
type ReportWriter interface {
	WriteReport(kind string, lines []string) (string, error)
}

// SampleSource returns the recorded seconds of one metric.
type SampleSource interface {
	Values(ctx context.Context, metric string) ([]float64, error)
}

// Report is a finished statistics report.
type Report struct {
	Kind  string
	Lines []string
	Path  string
}

// Engine builds SELECT and INSERT reports.
type Engine struct {
	dirs       config.ArtifactsConfig
	percentile int
	writer     ReportWriter
	source     SampleSource
	logger     *slog.Logger
}

// NewEngine creates an Engine. source may be nil when no sample store is
// configured; the FromSamples methods then fail.
func NewEngine(dirs config.ArtifactsConfig, percentile int, writer ReportWriter, source SampleSource) *Engine {
	return &Engine{
		dirs:       dirs,
		percentile: percentile,
		writer:     writer,
		source:     source,
		logger:     slog.Default().With("component", "stats-engine"),
	}
}

// SelectStats scans every query artifact. Each contributes the first exact
// frequency timing and the first all-values timing it holds; a line that does
// not parse drops only that sample. With no samples at all the result is
// (nil, nil) and no report is written.
func (e *Engine) SelectStats(ctx context.Context) (*Report, error) {
	var exact, all []float64
	err := e.eachArtifact(ctx, e.dirs.SelectDir, func(path string, sc *bufio.Scanner) {
		exactSeen := false
		for sc.Scan() {
			line := sc.Text()
			switch {
			case !exactSeen && strings.HasPrefix(line, artifact.ExactFreqPrefix):
				exactSeen = true
				if v, ok := e.parse(path, line, ParseSelectTime); ok {
					exact = append(exact, v)
				}
			case strings.HasPrefix(line, artifact.AllValuesPrefix):
				if v, ok := e.parse(path, line, ParseSelectTime); ok {
					all = append(all, v)
				}
				return
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return e.selectReport(exact, all)
}

// InsertStats scans every insert artifact line. An empty sample set is
// reported as ErrNoData.
func (e *Engine) InsertStats(ctx context.Context) (*Report, error) {
	var times []float64
	err := e.eachArtifact(ctx, e.dirs.InsertDir, func(path string, sc *bufio.Scanner) {
		for sc.Scan() {
			line := sc.Text()
			if !strings.HasPrefix(line, artifact.InsertPrefix) {
				continue
			}
			if v, ok := e.parse(path, line, ParseInsertTime); ok {
				times = append(times, v)
			}
		}
	})
	if err != nil {
		return nil, err
	}
	if len(times) == 0 {
		return nil, apperrors.New(apperrors.ErrNoData, "no insert timings in "+e.dirs.InsertDir)
	}
	return e.insertReport(times)
}

// SelectStatsFromSamples aggregates recorded samples instead of artifacts.
func (e *Engine) SelectStatsFromSamples(ctx context.Context) (*Report, error) {
	if e.source == nil {
		return nil, errors.New("no sample store configured")
	}
	exact, err := e.source.Values(ctx, samples.MetricExactFrequency)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreUnavailable, "reading exact frequency samples", err)
	}
	all, err := e.source.Values(ctx, samples.MetricAllValues)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreUnavailable, "reading all values samples", err)
	}
	return e.selectReport(exact, all)
}

// InsertStatsFromSamples aggregates recorded insert samples.
func (e *Engine) InsertStatsFromSamples(ctx context.Context) (*Report, error) {
	if e.source == nil {
		return nil, errors.New("no sample store configured")
	}
	times, err := e.source.Values(ctx, samples.MetricInsert)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreUnavailable, "reading insert samples", err)
	}
	if len(times) == 0 {
		return nil, apperrors.New(apperrors.ErrNoData, "no insert samples recorded")
	}
	return e.insertReport(times)
}

func (e *Engine) selectReport(exact, all []float64) (*Report, error) {
	if len(exact) == 0 && len(all) == 0 {
		e.logger.Info("no select timings found")
		return nil, nil
	}
	ex := metricLines(labelExact, exact, e.percentile)
	av := metricLines(labelAllValues, all, e.percentile)
	lines := make([]string, 0, 2*len(ex))
	for i := range ex {
		lines = append(lines, ex[i], av[i])
	}
	return e.write(artifact.KindSelect, lines)
}

func (e *Engine) insertReport(times []float64) (*Report, error) {
	lines := metricLines(labelExact, times, e.percentile)
	return e.write(artifact.KindInsert, lines[:])
}

func (e *Engine) write(kind string, lines []string) (*Report, error) {
	path, err := e.writer.WriteReport(kind, lines)
	if err != nil {
		return nil, err
	}
	return &Report{Kind: kind, Lines: lines, Path: path}, nil
}

func metricLines(label string, values []float64, percentile int) [5]string {
	pct := fmt.Sprintf("%s Percentile Time for %s", Ordinal(percentile), label)
	s, ok := Summarize(values, percentile)
	if !ok {
		return [5]string{
			"Average Time Taken for " + label + ": no data",
			"Median Time Taken for " + label + ": no data",
			"Min/Max Time Taken for " + label + ": no data",
			pct + ": no data",
			"Throughput for " + label + ": no data",
		}
	}
	throughput := "Throughput for " + label + ": n/a"
	if s.ThroughputOK {
		throughput = fmt.Sprintf("Throughput for %s: %.3f queries/second", label, s.Throughput)
	}
	return [5]string{
		fmt.Sprintf("Average Time Taken for %s: %.3f seconds (Std Dev: %.3f)", label, s.Mean, s.StdDev),
		fmt.Sprintf("Median Time Taken for %s: %.3f seconds", label, s.Median),
		fmt.Sprintf("Min/Max Time Taken for %s: %.3f/%.3f seconds", label, s.Min, s.Max),
		fmt.Sprintf("%s: %.3f seconds", pct, s.Percentile),
		throughput,
	}
}

// Ordinal renders n as "1st", "2nd", "90th" and so on.
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

func (e *Engine) parse(path, line string, fn func(string) (float64, error)) (float64, bool) {
	v, err := fn(line)
	if err != nil {
		e.logger.Debug("skipping timing line", "file", path, "error", err)
		return 0, false
	}
	return v, true
}

// eachArtifact calls fn for every regular file in dir, in name order. A
// missing directory holds no artifacts.
func (e *Engine) eachArtifact(ctx context.Context, dir string, fn func(path string, sc *bufio.Scanner)) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrArtifactIO, "listing "+dir, err)
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !entry.Type().IsRegular() || strings.HasSuffix(entry.Name(), artifact.TempSuffix) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := scanFile(path, fn); err != nil {
			return err
		}
	}
	return nil
}

func scanFile(path string, fn func(path string, sc *bufio.Scanner)) error {
	f, err := os.Open(path)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrArtifactIO, "opening "+path, err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	fn(path, sc)
	if err := sc.Err(); err != nil {
		return apperrors.Wrap(apperrors.ErrArtifactIO, "reading "+path, err)
	}
	return nil
}
