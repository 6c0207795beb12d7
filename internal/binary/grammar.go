package binary

import (
	stdbinary "encoding/binary"
	"fmt"
	"math"
	"slices"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"

	"github.com/roach88/rxparse/internal/parse"
)

// Byte orders accepted by WithByteOrder.
var (
	LittleEndian stdbinary.ByteOrder = stdbinary.LittleEndian
	BigEndian    stdbinary.ByteOrder = stdbinary.BigEndian
)

// Grammar builds parsers over a byte stream. Its byte order applies to every
// multi-byte value and its encoding to every string.
type Grammar struct {
	order    stdbinary.ByteOrder
	encoding encoding.Encoding
}

// Option configures a Grammar.
type Option func(*Grammar)

// WithByteOrder sets the declared byte order. The default is little-endian.
func WithByteOrder(order stdbinary.ByteOrder) Option {
	return func(g *Grammar) {
		g.order = order
	}
}

// WithEncoding sets the text encoding strings are decoded with. The default
// is UTF-8.
func WithEncoding(enc encoding.Encoding) Option {
	return func(g *Grammar) {
		g.encoding = enc
	}
}

// New creates a Grammar.
func New(opts ...Option) *Grammar {
	g := &Grammar{
		order:    stdbinary.LittleEndian,
		encoding: unicode.UTF8,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ByteOrder returns the declared byte order.
func (g *Grammar) ByteOrder() stdbinary.ByteOrder {
	return g.order
}

var (
	host             = stdbinary.NativeEndian
	hostLittleEndian = littleEndian(host)
)

func littleEndian(order stdbinary.ByteOrder) bool {
	return order.Uint16([]byte{1, 0}) == 1
}

// orderBytes puts b into host order. The bytes are reversed when the declared
// order disagrees with the host's; b itself is left alone.
func (g *Grammar) orderBytes(b []byte) []byte {
	if littleEndian(g.order) == hostLittleEndian {
		return b
	}
	r := slices.Clone(b)
	slices.Reverse(r)
	return r
}

// Bytes matches exactly n bytes.
func (g *Grammar) Bytes(n int) parse.Parser[byte, []byte] {
	return parse.Exactly(n, parse.Next[byte]())
}

// fixed reads width bytes in host order.
func fixed[T any](g *Grammar, width int, decode func([]byte) T) parse.Parser[byte, T] {
	return parse.Map(g.Bytes(width), func(b []byte) T {
		return decode(g.orderBytes(b))
	})
}

// Bool reads one byte; any nonzero byte is true.
func (g *Grammar) Bool() parse.Parser[byte, bool] {
	return parse.Map(parse.Next[byte](), func(b byte) bool { return b != 0 })
}

// Uint8 reads one byte.
func (g *Grammar) Uint8() parse.Parser[byte, uint8] {
	return parse.Next[byte]()
}

// Int8 reads one byte as a two's complement value.
func (g *Grammar) Int8() parse.Parser[byte, int8] {
	return parse.Map(parse.Next[byte](), func(b byte) int8 { return int8(b) })
}

// Uint16 reads two bytes in the declared byte order.
func (g *Grammar) Uint16() parse.Parser[byte, uint16] {
	return fixed(g, 2, host.Uint16)
}

// Int16 reads two bytes in the declared byte order.
func (g *Grammar) Int16() parse.Parser[byte, int16] {
	return fixed(g, 2, func(b []byte) int16 { return int16(host.Uint16(b)) })
}

// Uint32 reads four bytes in the declared byte order.
func (g *Grammar) Uint32() parse.Parser[byte, uint32] {
	return fixed(g, 4, host.Uint32)
}

// Int32 reads four bytes in the declared byte order.
func (g *Grammar) Int32() parse.Parser[byte, int32] {
	return fixed(g, 4, func(b []byte) int32 { return int32(host.Uint32(b)) })
}

// Uint64 reads eight bytes in the declared byte order.
func (g *Grammar) Uint64() parse.Parser[byte, uint64] {
	return fixed(g, 8, host.Uint64)
}

// Int64 reads eight bytes in the declared byte order.
func (g *Grammar) Int64() parse.Parser[byte, int64] {
	return fixed(g, 8, func(b []byte) int64 { return int64(host.Uint64(b)) })
}

// Float32 reads an IEEE 754 single in the declared byte order.
func (g *Grammar) Float32() parse.Parser[byte, float32] {
	return fixed(g, 4, func(b []byte) float32 { return math.Float32frombits(host.Uint32(b)) })
}

// Float64 reads an IEEE 754 double in the declared byte order.
func (g *Grammar) Float64() parse.Parser[byte, float64] {
	return fixed(g, 8, func(b []byte) float64 { return math.Float64frombits(host.Uint64(b)) })
}

// Char16 reads one UTF-16 code unit. Surrogate halves are returned as they
// are; pairing them is left to the caller.
func (g *Grammar) Char16() parse.Parser[byte, uint16] {
	return g.Uint16()
}

// Length7Bit reads a length written seven bits per byte, least significant
// group first, with the high bit of each byte set while more bytes follow. At
// most five bytes are read. The fifth byte may only carry the top four bits
// of a 32-bit value: a fifth byte above 0x0f, with or without a continuation
// bit, is malformed and raised as a parse error.
func (g *Grammar) Length7Bit() parse.Parser[byte, int] {
	return parse.Map(length7(0), func(v uint32) int { return int(int32(v)) })
}

func length7(shift int) parse.Parser[byte, uint32] {
	return parse.Bind(parse.Next[byte](), func(b byte) parse.Parser[byte, uint32] {
		if shift == 28 && b > 0x0f {
			return parse.Fail[byte, uint32](fmt.Errorf("%w: 7-bit length prefix overflows 32 bits (fifth byte %#02x)", parse.ErrMalformed, b))
		}
		group := uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return parse.Return[byte](group)
		}
		return parse.Map(length7(shift+7), func(rest uint32) uint32 { return group | rest })
	})
}

// String reads a 7-bit length prefix and then that many bytes, decoded with
// the grammar's encoding.
func (g *Grammar) String() parse.Parser[byte, string] {
	return parse.Bind(g.Length7Bit(), func(n int) parse.Parser[byte, string] {
		if n < 0 {
			return parse.Failf[byte, string]("%w: negative string length %d", parse.ErrMalformed, n)
		}
		return parse.Convert(g.Bytes(n), g.decode)
	})
}

// FixedString reads n bytes and decodes them with the grammar's encoding.
// Trailing NUL padding is dropped.
func (g *Grammar) FixedString(n int) parse.Parser[byte, string] {
	return parse.Convert(g.Bytes(n), func(b []byte) (string, error) {
		s, err := g.decode(b)
		if err != nil {
			return "", err
		}
		return strings.TrimRight(s, "\x00"), nil
	})
}

func (g *Grammar) decode(b []byte) (string, error) {
	out, err := g.encoding.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decode string: %w", err)
	}
	return string(out), nil
}

// Integer is the set of types an enum can be declared over.
type Integer interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Enum reads a value of an integer-backed enum type. The width and signedness
// come from E's underlying type.
func Enum[E Integer](g *Grammar) parse.Parser[byte, E] {
	var zero E
	signed := ^zero < 0
	switch stdbinary.Size(zero) {
	case 1:
		if signed {
			return parse.Map(g.Int8(), func(v int8) E { return E(v) })
		}
		return parse.Map(g.Uint8(), func(v uint8) E { return E(v) })
	case 2:
		if signed {
			return parse.Map(g.Int16(), func(v int16) E { return E(v) })
		}
		return parse.Map(g.Uint16(), func(v uint16) E { return E(v) })
	case 4:
		if signed {
			return parse.Map(g.Int32(), func(v int32) E { return E(v) })
		}
		return parse.Map(g.Uint32(), func(v uint32) E { return E(v) })
	default:
		if signed {
			return parse.Map(g.Int64(), func(v int64) E { return E(v) })
		}
		return parse.Map(g.Uint64(), func(v uint64) E { return E(v) })
	}
}
