// Package parse is the combinator algebra evaluated over a cursor.
//
// ARCHITECTURE:
//
// A Parser evaluates at a cursor position and returns its interpretations as
// a lazy iter.Seq of Results. Each Result carries the produced value and the
// number of elements consumed from the evaluation position. Combinators read
// ahead through branches of the cursor they are given and never move it, so
// the caller decides how far to advance.
//
//	Next         one element
//	Then/Bind    sequencing; lengths add
//	Any          ordered alternation, first match wins
//	Ambiguous    every alternation yields all of its matches
//	Not/Ahead    zero-length lookahead built on Probe
//	Exactly      fixed repetition
//	OneOrMore    greedy repetition
//	AllUnordered every parser once, in any order
//
// Failing to match is not an error: it is an empty sequence. Errors (a
// rejected conversion, malformed input, a failed source, cancellation) are
// raised with Raise and unwind every open branch on their way to the driver.
//
// INVARIANTS:
//
//   - A result's Length is never negative and never exceeds what the
//     sequence can supply from the evaluation position.
//   - The length of a sequenced result is the sum of its parts.
//   - Every branch a parser opens is disposed on every exit path, including
//     early termination by the consumer and raised errors.
//   - Outside ambiguous evaluation an alternation yields the results of at
//     most one alternative.
package parse
