// Package grammars names the grammars the command line and the scenario
// harness can run: words, lines, xml, single binary values and compiled
// record layouts. Run wires a grammar to an input reader through an engine
// driver and collects every match.
package grammars
