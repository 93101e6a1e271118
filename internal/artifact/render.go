// Package artifact renders query and insert outcomes as the plain-text
// artifacts the statistics engine later re-reads, and persists them.
package artifact

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/trigram"
)

// MaxListed is how many co-occurring words each section lists.
const MaxListed = 10

// Line prefixes shared with the statistics engine.
const (
	ExactFreqPrefix = "Time taken to get the exact frequency:"
	AllValuesPrefix = "Time taken to get all values:"
	InsertPrefix    = "Inserted 3-gram:"
)

const blank = "_____"

// FormatDuration renders d as whole seconds and zero-padded milliseconds.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%d.%03d", d/time.Second, (d%time.Second)/time.Millisecond)
}

// RenderInsert renders the single-line insert artifact.
func RenderInsert(o trigram.InsertOutcome) string {
	return fmt.Sprintf("%s %s = %d in %s seconds\n", InsertPrefix, o.Key, o.Freq, FormatDuration(o.Latency))
}

// RenderQuery renders the query artifact.
func RenderQuery(o trigram.QueryOutcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Given 3-gram: %s = %d\n", o.Key, o.ExactFreq)
	fmt.Fprintf(&b, "%s %s seconds\n", ExactFreqPrefix, FormatDuration(o.ExactLatency))
	fmt.Fprintf(&b, "%s %s seconds\n", AllValuesPrefix, FormatDuration(o.ScanLatency))

	a := o.ByFirstSecond
	b.WriteString("--- query executed based on first and second word ---\n")
	fmt.Fprintf(&b, "words: %s %s %s\n", a.Pair.First, a.Pair.Second, blank)
	writeWords(&b, a.Words)

	bb := o.ByFirstThird
	b.WriteString("--- query executed based on first and third word ---\n")
	fmt.Fprintf(&b, "words: %s %s %s\n", bb.Pair.First, blank, bb.Pair.Second)
	writeWords(&b, bb.Words)

	c := o.BySecondThird
	b.WriteString("--- query executed based on second and third word ---\n")
	fmt.Fprintf(&b, "words: %s %s %s\n", blank, c.Pair.First, c.Pair.Second)
	writeWords(&b, c.Words)

	return b.String()
}

type wordFreq struct {
	word string
	freq int64
}

// topWords returns up to n entries by descending frequency, ties broken by
// word, and how many entries were left out.
func topWords(words trigram.CoOccurrences, n int) ([]wordFreq, int) {
	list := make([]wordFreq, 0, len(words))
	for w, f := range words {
		list = append(list, wordFreq{word: w, freq: f})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].freq != list[j].freq {
			return list[i].freq > list[j].freq
		}
		return list[i].word < list[j].word
	})
	if len(list) <= n {
		return list, 0
	}
	return list[:n], len(list) - n
}

func writeWords(b *strings.Builder, words trigram.CoOccurrences) {
	top, more := topWords(words, MaxListed)
	for _, wf := range top {
		fmt.Fprintf(b, " %s: %d\n", wf.word, wf.freq)
	}
	if more > 0 {
		fmt.Fprintf(b, " ... and %d more\n", more)
	}
}
