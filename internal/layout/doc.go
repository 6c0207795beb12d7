// Package layout compiles declarative binary record layouts into parsers.
//
// Layouts are written in CUE:
//
//	layout: Header: {
//		byte_order: "big"
//		encoding:   "utf-8"
//		fields: [
//			{name: "magic", type: "uint32"},
//			{name: "title", type: "string"},
//			{name: "tag", type: "fixed_string", length: 4},
//			{name: "kind", type: "enum8", values: {none: 0, text: 1}},
//		]
//	}
//
// byte_order defaults to little and encoding to utf-8. A string field is
// prefixed with a 7-bit encoded length. Enum fields decode to their symbolic
// name when one is declared and to the number otherwise.
//
// Each compiled Layout yields a parse.Parser[byte, Record] built from the
// binary grammar, so records run through the same engine as any other
// grammar.
package layout
