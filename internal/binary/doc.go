// Package binary parses typed values out of a byte stream.
//
// Fixed-width numbers are read as exactly as many bytes as they are wide and
// decoded in host order, after reversing the bytes when the grammar's declared
// byte order is not the host's. Strings are either a 7-bit encoded length
// followed by that many bytes, or a fixed number of bytes, and are decoded
// with a golang.org/x/text encoding.
//
//	g := binary.New(binary.WithByteOrder(binary.BigEndian))
//	p := parse.Then(g.Int32(), g.String(), ...)
package binary
