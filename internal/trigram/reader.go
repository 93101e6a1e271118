package trigram

import (
	"bufio"
	"fmt"
	"io"
	"os"

	apperrors "github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/errors"
)

// ReadKeys reads one three-gram per line. Any line that does not hold exactly
// three tokens, blank lines included, fails the whole read.
func ReadKeys(r io.Reader) ([]Key, error) {
	var keys []Key
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		key, err := ParseKey(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		keys = append(keys, key)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input after line %d: %w", lineNo, err)
	}
	return keys, nil
}

// LoadKeys reads the bulk input file at path.
func LoadKeys(path string) ([]Key, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrArtifactIO, "opening bulk input "+path, err)
	}
	defer f.Close()
	keys, err := ReadKeys(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return keys, nil
}
