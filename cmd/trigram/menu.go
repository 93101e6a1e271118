package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/artifact"
	apperrors "github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/errors"
)

// defaultInputFile is the bulk input read when the operator accepts the
// default.
const defaultInputFile = "input"

// menu runs the interactive loop until the operator exits or input ends.
// Errors that only concern one action are printed and the loop continues;
// store failures end the session.
func (c *cli) menu(ctx context.Context, in io.Reader) error {
	r := bufio.NewReader(in)
	for {
		fmt.Fprintln(c.out, "\nPlease choose an action:")
		fmt.Fprintln(c.out, "[1]: Get frequencies for certain three-grams")
		fmt.Fprintln(c.out, "[2]: Insert a three-gram (or increment its frequency)")
		fmt.Fprintln(c.out, "[3]: Get statistics about the speed of queries")
		fmt.Fprintln(c.out, "[4]: Exit")
		choice, ok := c.prompt(r)
		if !ok {
			return nil
		}

		var err error
		switch choice {
		case "1":
			err = c.menuLookup(ctx, r)
		case "2":
			fmt.Fprintln(c.out, "\nPlease enter the three-gram you want to insert")
			fmt.Fprintln(c.out, `Example: "word_1 word_2 word_3"`)
			if line, ok := c.prompt(r); ok {
				err = c.insert(ctx, line)
			}
		case "3":
			err = c.menuStats(ctx, r)
		case "4":
			fmt.Fprintln(c.out, "Exiting...")
			return nil
		default:
			fmt.Fprintln(c.out, "Invalid input")
		}
		if err != nil && isFatal(err) {
			return err
		}
		if err != nil {
			fmt.Fprintf(c.out, "Error: %v\n", err)
		}
	}
}

func (c *cli) menuLookup(ctx context.Context, r *bufio.Reader) error {
	fmt.Fprintln(c.out, "\nGet frequencies about a specific three-gram or run a bulk query?")
	fmt.Fprintln(c.out, "[1]: Get frequencies about a specific three-gram")
	fmt.Fprintln(c.out, "[2]: Run a bulk query")
	choice, ok := c.prompt(r)
	if !ok {
		return nil
	}
	switch choice {
	case "1":
		fmt.Fprintln(c.out, "\nPlease enter the three-gram you want to get data about")
		fmt.Fprintln(c.out, `Example: "word_1 word_2 word_3"`)
		line, ok := c.prompt(r)
		if !ok {
			return nil
		}
		return c.query(ctx, line)
	case "2":
		defaultPath := filepath.Join(c.dirs.InputDir, defaultInputFile)
		fmt.Fprintf(c.out, "\nDefault input file is %s\n", defaultPath)
		fmt.Fprintln(c.out, "Do you want to use the default input file?")
		fmt.Fprintln(c.out, "(If you choose no, the file still has to be in the same directory)")
		fmt.Fprintln(c.out, "[1]: Yes")
		fmt.Fprintln(c.out, "[2]: No")
		choice, ok := c.prompt(r)
		if !ok {
			return nil
		}
		switch choice {
		case "1":
			return c.bulk(ctx, defaultPath, false)
		case "2":
			fmt.Fprintln(c.out, "\nPlease enter the file name")
			name, ok := c.prompt(r)
			if !ok {
				return nil
			}
			if name == "" || name != filepath.Base(name) {
				return apperrors.Newf(apperrors.ErrMalformedInput, "%q is not a file name in %s", name, c.dirs.InputDir)
			}
			return c.bulk(ctx, filepath.Join(c.dirs.InputDir, name), false)
		}
	}
	fmt.Fprintln(c.out, "Invalid input")
	return nil
}

func (c *cli) menuStats(ctx context.Context, r *bufio.Reader) error {
	fmt.Fprintln(c.out, "\nDo you want information about insert or select queries?")
	fmt.Fprintln(c.out, "[1]: Insert")
	fmt.Fprintln(c.out, "[2]: Select")
	choice, ok := c.prompt(r)
	if !ok {
		return nil
	}
	switch choice {
	case "1":
		return c.stats(ctx, artifact.KindInsert)
	case "2":
		return c.stats(ctx, artifact.KindSelect)
	}
	fmt.Fprintln(c.out, "Invalid input")
	return nil
}

// prompt reads one trimmed line. ok is false once input is exhausted.
func (c *cli) prompt(r *bufio.Reader) (string, bool) {
	fmt.Fprint(c.out, "> ")
	line, err := r.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", false
	}
	return strings.TrimSpace(line), true
}

// isFatal reports whether err must end an interactive session.
func isFatal(err error) bool {
	return errors.Is(err, apperrors.ErrStoreUnavailable) ||
		errors.Is(err, apperrors.ErrPartialWrite) ||
		errors.Is(err, context.Canceled)
}
