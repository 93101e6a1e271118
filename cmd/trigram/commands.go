package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/artifact"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/bulk"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/stats"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/trigram"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/health"
	apperrors "github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/errors"
)

type queryInserter interface {
	Query(ctx context.Context, key trigram.Key) (trigram.QueryOutcome, string, error)
	InsertWithToken(ctx context.Context, key trigram.Key, token string) (trigram.InsertOutcome, string, error)
}

type batchRunner interface {
	Query(ctx context.Context, keys []trigram.Key) (bulk.Summary, error)
	Insert(ctx context.Context, keys []trigram.Key) (bulk.Summary, error)
}

type statsEngine interface {
	SelectStats(ctx context.Context) (*stats.Report, error)
	InsertStats(ctx context.Context) (*stats.Report, error)
	SelectStatsFromSamples(ctx context.Context) (*stats.Report, error)
	InsertStatsFromSamples(ctx context.Context) (*stats.Report, error)
}

type healthChecker interface {
	Run(ctx context.Context) health.Report
}

type tokenPurger interface {
	Purge(ctx context.Context) (int64, error)
}

// cli runs operator commands and prints their results to out.
type cli struct {
	svc         queryInserter
	runner      batchRunner
	engine      statsEngine
	checker     healthChecker
	purger      tokenPurger
	dirs        config.ArtifactsConfig
	token       string
	fromSamples bool
	out         io.Writer
}

const seeFile = "This information can also be found in file:"

func (c *cli) query(ctx context.Context, text string) error {
	key, err := trigram.ParseKey(text)
	if err != nil {
		return err
	}
	outcome, path, err := c.svc.Query(ctx, key)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "\n%s", artifact.RenderQuery(outcome))
	if path != "" {
		fmt.Fprintf(c.out, "%s\n%s\n", seeFile, path)
	}
	return nil
}

func (c *cli) insert(ctx context.Context, text string) error {
	key, err := trigram.ParseKey(text)
	if err != nil {
		return err
	}
	outcome, path, err := c.svc.InsertWithToken(ctx, key, c.token)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "\n%s", artifact.RenderInsert(outcome))
	if path != "" {
		fmt.Fprintf(c.out, "%s\n%s\n", seeFile, path)
	}
	return nil
}

func (c *cli) bulk(ctx context.Context, path string, insert bool) error {
	keys, err := trigram.LoadKeys(path)
	if err != nil {
		return err
	}
	run, dir := c.runner.Query, c.dirs.SelectDir
	if insert {
		run, dir = c.runner.Insert, c.dirs.InsertDir
	}
	summary, err := run(ctx, keys)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "\nProcessed %d three-grams in %s seconds\n", summary.Processed, artifact.FormatDuration(summary.Elapsed))
	fmt.Fprintf(c.out, "Results can be found in directory:\n%s\n", dir)
	return nil
}

func (c *cli) stats(ctx context.Context, kind string) error {
	var (
		rep   *stats.Report
		err   error
		title string
	)
	switch kind {
	case artifact.KindSelect:
		title = "SELECT"
		if c.fromSamples {
			rep, err = c.engine.SelectStatsFromSamples(ctx)
		} else {
			rep, err = c.engine.SelectStats(ctx)
		}
	case artifact.KindInsert:
		title = "INSERT"
		if c.fromSamples {
			rep, err = c.engine.InsertStatsFromSamples(ctx)
		} else {
			rep, err = c.engine.InsertStats(ctx)
		}
	default:
		return apperrors.Newf(apperrors.ErrMalformedInput, "unknown stats kind %q, want select or insert", kind)
	}
	if errors.Is(err, apperrors.ErrNoData) {
		fmt.Fprintf(c.out, "No %s timings recorded yet\n", title)
		return nil
	}
	if err != nil {
		return err
	}
	if rep == nil {
		fmt.Fprintf(c.out, "No %s timings recorded yet\n", title)
		return nil
	}
	fmt.Fprintf(c.out, "Statistics for %s queries: \n\n", title)
	for _, line := range rep.Lines {
		fmt.Fprintln(c.out, line)
	}
	fmt.Fprintf(c.out, "\n%s\n%s\n", seeFile, rep.Path)
	return nil
}

// health prints the probe report as JSON. A required backend being down is
// ErrStoreUnavailable.
func (c *cli) health(ctx context.Context) error {
	report := c.checker.Run(ctx)
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	if report.Status == health.StatusDown {
		return apperrors.New(apperrors.ErrStoreUnavailable, "a required backend is down")
	}
	return nil
}

func (c *cli) purgeTokens(ctx context.Context) error {
	if c.purger == nil {
		return apperrors.New(apperrors.ErrMalformedInput, "increment ledger is not enabled")
	}
	n, err := c.purger.Purge(ctx)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStoreUnavailable, "purging increment tokens", err)
	}
	fmt.Fprintf(c.out, "Removed %d increment tokens\n", n)
	return nil
}
