package stats

import (
	"strconv"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/errors"
)

// insertTimeField is the index of the latency among the space-separated
// tokens of "Inserted 3-gram: w1 w2 w3 = freq in S.mmm seconds".
const insertTimeField = 8

// ParseSelectTime reads the number between ": " and "seconds" of a query
// artifact timing line.
func ParseSelectTime(line string) (float64, error) {
	head, _, _ := strings.Cut(line, "seconds")
	parts := strings.Split(head, ": ")
	if len(parts) < 2 {
		return 0, apperrors.Newf(apperrors.ErrParse, "no value in %q", line)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrParse, "parsing "+strconv.Quote(line), err)
	}
	return v, nil
}

// ParseInsertTime reads the latency token of an insert artifact line.
func ParseInsertTime(line string) (float64, error) {
	fields := strings.Split(line, " ")
	if len(fields) <= insertTimeField {
		return 0, apperrors.Newf(apperrors.ErrParse, "too few fields in %q", line)
	}
	v, err := strconv.ParseFloat(fields[insertTimeField], 64)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrParse, "parsing "+strconv.Quote(line), err)
	}
	return v, nil
}
