// Package projection keeps three differently keyed copies of the three-gram
// table consistent under read-modify-write increments and answers exact and
// co-occurrence lookups against them.
//
// Each projection is partitioned by a different pair of words so that any
// two-word sub-key lookup is a single-partition scan:
//
//	A  three_grams_1_2_pk  (word_1, word_2) -> word_3, freq
//	B  three_grams_1_3_pk  (word_1, word_3) -> word_2, freq
//	C  three_grams_2_3_pk  (word_2, word_3) -> word_1, freq
package projection

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/trigram"
)

// Projection identifies one physical copy of the three-gram table.
type Projection int

const (
	ByFirstSecond Projection = iota
	ByFirstThird
	BySecondThird
)

// All lists the projections in write order.
var All = [...]Projection{ByFirstSecond, ByFirstThird, BySecondThird}

func (p Projection) String() string {
	switch p {
	case ByFirstSecond:
		return "A"
	case ByFirstThird:
		return "B"
	case BySecondThird:
		return "C"
	default:
		return "unknown"
	}
}

// Table is the table name of the projection.
func (p Projection) Table() string {
	switch p {
	case ByFirstSecond:
		return "three_grams_1_2_pk"
	case ByFirstThird:
		return "three_grams_1_3_pk"
	default:
		return "three_grams_2_3_pk"
	}
}

// PartitionColumns names the two columns forming the partition key.
func (p Projection) PartitionColumns() (string, string) {
	switch p {
	case ByFirstSecond:
		return "word_1", "word_2"
	case ByFirstThird:
		return "word_1", "word_3"
	default:
		return "word_2", "word_3"
	}
}

// FreeColumn names the word column that is not part of the partition key.
func (p Projection) FreeColumn() string {
	switch p {
	case ByFirstSecond:
		return "word_3"
	case ByFirstThird:
		return "word_2"
	default:
		return "word_1"
	}
}

// Pair extracts the partition key of key for this projection.
func (p Projection) Pair(key trigram.Key) trigram.WordPair {
	switch p {
	case ByFirstSecond:
		return trigram.WordPair{First: key.Word1, Second: key.Word2}
	case ByFirstThird:
		return trigram.WordPair{First: key.Word1, Second: key.Word3}
	default:
		return trigram.WordPair{First: key.Word2, Second: key.Word3}
	}
}

// Free extracts the non-partition word of key for this projection.
func (p Projection) Free(key trigram.Key) string {
	switch p {
	case ByFirstSecond:
		return key.Word3
	case ByFirstThird:
		return key.Word2
	default:
		return key.Word1
	}
}

// Backend performs point reads, partition scans, and point writes against
// one projection at a time.
type Backend interface {
	// Get reads the frequency of key from projection p. A missing row is
	// reported as found == false with a nil error.
	Get(ctx context.Context, p Projection, key trigram.Key) (freq int64, found bool, err error)
	// Scan returns every free word stored under pair in projection p.
	Scan(ctx context.Context, p Projection, pair trigram.WordPair) (trigram.CoOccurrences, error)
	// Insert writes a new row. Writing the same record twice leaves one row.
	Insert(ctx context.Context, p Projection, rec trigram.Record) error
	// Update sets the frequency of an existing row.
	Update(ctx context.Context, p Projection, rec trigram.Record) error
	Ping(ctx context.Context) error
	Close() error
}

// Plan is the intended outcome of one increment: the frequency every
// projection must end up holding and which projections already hold it.
type Plan struct {
	Key     trigram.Key
	Freq    int64
	Created bool
	Applied map[Projection]bool
}

// Ledger remembers increment plans by caller-supplied token so that a retried
// increment finishes the original plan instead of incrementing again.
type Ledger interface {
	Load(ctx context.Context, token string) (Plan, bool, error)
	Begin(ctx context.Context, token string, plan Plan) error
	MarkApplied(ctx context.Context, token string, p Projection) error
}
