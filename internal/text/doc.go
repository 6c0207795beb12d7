// Package text holds character-level parsers: character classes, white space,
// words and identifiers, each a thin composition of parse.Next, a predicate
// and repetition. Names can be compared ordinally or case-insensitively with a
// Comparer.
package text
