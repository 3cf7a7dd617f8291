package match

import (
	"errors"
	"fmt"
	"strings"
)

// Algorithm selects how a candidate is scored against a filter.
type Algorithm int

const (
	// Prefix scores 1 when the filter is a prefix of the candidate.
	Prefix Algorithm = iota
	// PrefixSuffixSorted is Prefix with a penalty for the unmatched suffix,
	// so shorter candidates rank first.
	PrefixSuffixSorted
	// Substring scores 1 when the filter occurs anywhere in the candidate.
	Substring
	// DiceCoefficient scores the overlap of adjacent character pairs.
	DiceCoefficient
	// Subletters scores ordered subsequence matches by how tightly the
	// filter's characters cluster in the candidate.
	Subletters
)

// ErrUnknownAlgorithm is returned for an algorithm name or value that does
// not exist.
var ErrUnknownAlgorithm = errors.New("unknown match algorithm")

var algorithmNames = map[Algorithm]string{
	Prefix:             "prefix",
	PrefixSuffixSorted: "prefix-suffix-sorted",
	Substring:          "substring",
	DiceCoefficient:    "dice",
	Subletters:         "subletters",
}

// Algorithms returns every algorithm in declaration order.
func Algorithms() []Algorithm {
	return []Algorithm{Prefix, PrefixSuffixSorted, Substring, DiceCoefficient, Subletters}
}

func (a Algorithm) String() string {
	if name, ok := algorithmNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// Valid reports whether a is a known algorithm.
func (a Algorithm) Valid() bool {
	_, ok := algorithmNames[a]
	return ok
}

// ParseAlgorithm resolves an algorithm name. Matching ignores case, dashes
// and underscores, so "PrefixSuffixSorted" and "prefix_suffix_sorted" are
// both accepted. "dice-coefficient" is an alias of "dice".
func ParseAlgorithm(name string) (Algorithm, error) {
	key := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(name))
	switch key {
	case "prefix":
		return Prefix, nil
	case "prefixsuffixsorted":
		return PrefixSuffixSorted, nil
	case "substring":
		return Substring, nil
	case "dice", "dicecoefficient":
		return DiceCoefficient, nil
	case "subletters":
		return Subletters, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}
