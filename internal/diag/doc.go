// Package diag carries parse-session diagnostics: the Event record, the Hooks
// that observe events, and the logical Clock that orders them.
//
// Hooks are pure observers. Nothing they do can change a parse outcome, and
// the engine shields the parse from hooks that panic.
package diag
