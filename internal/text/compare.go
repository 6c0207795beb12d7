package text

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Comparer decides whether two names are the same.
type Comparer interface {
	Equal(a, b string) bool
}

type ordinal struct{}

func (ordinal) Equal(a, b string) bool { return a == b }

func (ordinal) String() string { return "ordinal" }

type ignoreCase struct{}

func (ignoreCase) Equal(a, b string) bool { return Fold(a) == Fold(b) }

func (ignoreCase) String() string { return "ignore-case" }

var (
	// Ordinal compares code point by code point.
	Ordinal Comparer = ordinal{}
	// IgnoreCase compares the case-folded NFC forms.
	IgnoreCase Comparer = ignoreCase{}
)

// Fold returns the case-folded NFC form of s.
func Fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// ComparerByName resolves "ordinal" or "ignore-case". An empty name is
// Ordinal.
func ComparerByName(name string) (Comparer, error) {
	switch strings.ToLower(name) {
	case "", "ordinal":
		return Ordinal, nil
	case "ignore-case", "ignorecase", "fold":
		return IgnoreCase, nil
	}
	return nil, fmt.Errorf("unknown comparer %q", name)
}
