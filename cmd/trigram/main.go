package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/logger"
)

const usage = `usage: trigram [flags] <command> [args]

commands:
  menu                     interactive menu (default)
  query  <w1> <w2> <w3>    frequency and co-occurrences of a three-gram
  insert <w1> <w2> <w3>    increment a three-gram, creating it at 1
  bulk   [-insert] <file>  query (or insert) every three-gram in file
  stats  select|insert     timing statistics report
  health                   probe the configured backends
  purge-tokens             drop every stored increment token

flags:
`

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("trigram", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	configPath := fs.String("config", "", "path to config file")
	token := fs.String("token", "", "increment token; retrying with the same token completes the original increment")
	fromSamples := fs.Bool("from-samples", false, "compute stats from recorded samples instead of artifacts")
	initSchema := fs.Bool("init-schema", false, "create the SQL tables before running")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return apperrors.ExitMalformedInput
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return apperrors.ExitFailure
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, *initSchema)
	if err != nil {
		slog.Error("failed to start", "error", err)
		return apperrors.ExitCode(apperrors.Wrap(apperrors.ErrStoreUnavailable, "connecting backends", err))
	}
	defer a.Close()

	c := &cli{
		svc:         a.svc,
		runner:      a.runner,
		engine:      a.engine,
		checker:     a.checker,
		dirs:        cfg.Artifacts,
		token:       *token,
		fromSamples: *fromSamples,
		out:         os.Stdout,
	}
	if a.ledger != nil {
		c.purger = a.ledger
	}

	if err := dispatch(ctx, c, fs.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return apperrors.ExitCode(err)
	}
	return apperrors.ExitOK
}

func dispatch(ctx context.Context, c *cli, args []string) error {
	if len(args) == 0 {
		args = []string{"menu"}
	}
	cmd, rest := args[0], args[1:]
	ctx = logger.WithOperation(ctx, fmt.Sprintf("%s-%d", cmd, os.Getpid()))

	switch cmd {
	case "menu":
		return c.menu(ctx, os.Stdin)
	case "query":
		return c.query(ctx, strings.Join(rest, " "))
	case "insert":
		return c.insert(ctx, strings.Join(rest, " "))
	case "bulk":
		bfs := flag.NewFlagSet("bulk", flag.ContinueOnError)
		insert := bfs.Bool("insert", false, "increment instead of query")
		if err := bfs.Parse(rest); err != nil {
			return apperrors.Wrap(apperrors.ErrMalformedInput, "bulk flags", err)
		}
		if bfs.NArg() != 1 {
			return apperrors.New(apperrors.ErrMalformedInput, "bulk needs exactly one input file")
		}
		return c.bulk(ctx, bfs.Arg(0), *insert)
	case "stats":
		if len(rest) != 1 {
			return apperrors.New(apperrors.ErrMalformedInput, "stats needs select or insert")
		}
		return c.stats(ctx, rest[0])
	case "health":
		return c.health(ctx)
	case "purge-tokens":
		return c.purgeTokens(ctx)
	default:
		return apperrors.Newf(apperrors.ErrMalformedInput, "unknown command %q", cmd)
	}
}
