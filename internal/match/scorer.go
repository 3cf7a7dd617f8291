// Package match scores completion candidates against a typed filter.
//
// All algorithms compare user-perceived characters (grapheme clusters) and
// ignore case. Scores are in [0, 1]; Filter applies the usual policy of
// keeping candidates above a threshold, best first.
package match

import (
	"fmt"
	"strings"

	"github.com/rivo/uniseg"
)

// maxSuffix is the unmatched suffix length at which PrefixSuffixSorted stops
// matching.
const maxSuffix = 90

// Scorer scores candidates with one algorithm. It is immutable and safe for
// concurrent use.
type Scorer struct {
	alg   Algorithm
	score func(candidate, filter []string) float64
}

// NewScorer returns a Scorer for alg, or ErrUnknownAlgorithm.
func NewScorer(alg Algorithm) (*Scorer, error) {
	var fn func(candidate, filter []string) float64
	switch alg {
	case Prefix:
		fn = scorePrefix
	case PrefixSuffixSorted:
		fn = scorePrefixSuffixSorted
	case Substring:
		fn = scoreSubstring
	case DiceCoefficient:
		fn = scoreDice
	case Subletters:
		fn = scoreSubletters
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, alg)
	}
	return &Scorer{alg: alg, score: fn}, nil
}

// Algorithm returns the scorer's algorithm.
func (s *Scorer) Algorithm() Algorithm { return s.alg }

// Score returns how well candidate matches filter, in [0, 1].
func (s *Scorer) Score(candidate, filter string) float64 {
	return s.score(clusters(candidate), clusters(filter))
}

// clusters lowercases s and splits it into grapheme clusters.
func clusters(s string) []string {
	s = strings.ToLower(s)
	out := make([]string, 0, len(s))
	state := -1
	for s != "" {
		var c string
		c, s, _, state = uniseg.FirstGraphemeClusterInString(s, state)
		out = append(out, c)
	}
	return out
}

func hasPrefix(s, prefix []string) bool {
	if len(prefix) > len(s) {
		return false
	}
	for i := range prefix {
		if s[i] != prefix[i] {
			return false
		}
	}
	return true
}

func scorePrefix(candidate, filter []string) float64 {
	if hasPrefix(candidate, filter) {
		return 1
	}
	return 0
}

// scorePrefixSuffixSorted loses 0.01 per unmatched trailing character.
func scorePrefixSuffixSorted(candidate, filter []string) float64 {
	if !hasPrefix(candidate, filter) {
		return 0
	}
	suffix := len(candidate) - len(filter)
	if suffix > maxSuffix {
		return 0
	}
	return 1 - float64(suffix)/100
}

func scoreSubstring(candidate, filter []string) float64 {
	for i := 0; i+len(filter) <= len(candidate); i++ {
		if hasPrefix(candidate[i:], filter) {
			return 1
		}
	}
	return 0
}

type bigram [2]string

func bigrams(s []string) map[bigram]int {
	pairs := make(map[bigram]int, len(s))
	for i := 0; i+1 < len(s); i++ {
		pairs[bigram{s[i], s[i+1]}]++
	}
	return pairs
}

// scoreDice is the Sørensen–Dice coefficient over adjacent character pairs.
// Two strings too short to have pairs score 1 only when equal.
func scoreDice(candidate, filter []string) float64 {
	cn, fn := max(len(candidate)-1, 0), max(len(filter)-1, 0)
	if cn+fn == 0 {
		if equal(candidate, filter) {
			return 1
		}
		return 0
	}
	cp := bigrams(candidate)
	shared := 0
	for pair, n := range bigrams(filter) {
		shared += min(n, cp[pair])
	}
	return 2 * float64(shared) / float64(cn+fn)
}

func equal(a, b []string) bool {
	return len(a) == len(b) && hasPrefix(a, b)
}

// scoreSubletters divides the filter length by the length of the shortest
// stretch of candidate containing the filter as a subsequence.
func scoreSubletters(candidate, filter []string) float64 {
	if len(filter) == 0 {
		return 1
	}
	window := shortestWindow(candidate, filter)
	if window == 0 {
		return 0
	}
	return float64(len(filter)) / float64(window)
}

// shortestWindow returns the length of the shortest stretch of s containing
// sub as a subsequence, or 0 when there is none.
func shortestWindow(s, sub []string) int {
	// start[j] is the latest start of a window holding sub[:j+1] as a
	// subsequence and ending at or before the current position.
	start := make([]int, len(sub))
	for j := range start {
		start[j] = -1
	}
	best := 0
	for i, c := range s {
		for j := len(sub) - 1; j >= 0; j-- {
			if c != sub[j] {
				continue
			}
			switch {
			case j == 0:
				start[0] = i
			case start[j-1] >= 0:
				start[j] = start[j-1]
			default:
				continue
			}
			if j == len(sub)-1 {
				if w := i - start[j] + 1; best == 0 || w < best {
					best = w
				}
			}
		}
	}
	return best
}
