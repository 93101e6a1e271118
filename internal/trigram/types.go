// Package trigram defines the value types for three-word sequences, their
// frequency records, and the outcomes of queries and increments.
package trigram

import (
	"strings"
	"time"
	"unicode"

	apperrors "github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/errors"
)

// Key is the ordered word triple identifying one logical record.
type Key struct {
	Word1 string `json:"word_1"`
	Word2 string `json:"word_2"`
	Word3 string `json:"word_3"`
}

// NewKey builds a Key from three words, rejecting empty or whitespace-bearing
// tokens.
func NewKey(word1, word2, word3 string) (Key, error) {
	for _, w := range []string{word1, word2, word3} {
		if w == "" || strings.IndexFunc(w, unicode.IsSpace) >= 0 {
			return Key{}, apperrors.Newf(apperrors.ErrMalformedInput, "invalid token %q", w)
		}
	}
	return Key{Word1: word1, Word2: word2, Word3: word3}, nil
}

// ParseKey splits text on whitespace and requires exactly three tokens.
func ParseKey(text string) (Key, error) {
	words := strings.Fields(text)
	if len(words) != 3 {
		return Key{}, apperrors.Newf(apperrors.ErrMalformedInput, "input must contain 3 words, got %d", len(words))
	}
	return Key{Word1: words[0], Word2: words[1], Word3: words[2]}, nil
}

func (k Key) String() string {
	return k.Word1 + " " + k.Word2 + " " + k.Word3
}

// Record is one logical three-gram with its occurrence count.
type Record struct {
	Key
	Freq int64 `json:"freq"`
}

// WordPair is the two-word partition key of one projection, in column order.
type WordPair struct {
	First  string `json:"first"`
	Second string `json:"second"`
}

// CoOccurrences maps each word found in a partition to its frequency.
type CoOccurrences map[string]int64

// PairResult is the outcome of one partition scan.
type PairResult struct {
	Pair  WordPair      `json:"pair"`
	Words CoOccurrences `json:"words"`
}

// CoOccurrenceSet holds one scan result per projection.
type CoOccurrenceSet struct {
	ByFirstSecond PairResult
	ByFirstThird  PairResult
	BySecondThird PairResult
}

// QueryOutcome is the full answer to a frequency query.
type QueryOutcome struct {
	CoOccurrenceSet
	Key          Key
	ExactFreq    int64
	Found        bool
	ExactLatency time.Duration
	ScanLatency  time.Duration
}

// InsertOutcome is the result of one increment-or-create.
type InsertOutcome struct {
	Key     Key
	Freq    int64
	Created bool
	Latency time.Duration
}
