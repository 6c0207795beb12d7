// Package xml is a streaming XML grammar built from the combinators in
// package parse. It reads a character stream and produces a small document
// tree of elements, attributes, text, CDATA sections, comments, processing
// instructions and directives.
//
// Elements are recursive: an element's content may hold elements. The
// recursion goes through a lazily built parser, so a Grammar is built once
// and reused for every nesting level.
//
// Nodes encode to encoding/xml tokens; Render and Element.String use that to
// serialize a tree, and Outline prints it as an indented listing.
package xml
