package binary

import (
	"bytes"
	stdbinary "encoding/binary"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/roach88/rxparse/internal/cursor"
	"github.com/roach88/rxparse/internal/parse"
	"github.com/roach88/rxparse/internal/testutil"
)

func decode[T any](t *testing.T, p parse.Parser[byte, T], data ...byte) parse.Result[T] {
	t.Helper()
	rs := slices.Collect(p.Parse(testutil.Cursor(t, data...)))
	require.Len(t, rs, 1)
	return rs[0]
}

func decodeErr[T any](t *testing.T, p parse.Parser[byte, T], data ...byte) (err error) {
	t.Helper()
	c := testutil.Cursor(t, data...)
	defer cursor.Recover(&err)
	for range p.Parse(c) {
	}
	return nil
}

func roundTrip[T comparable](t *testing.T, g *Grammar, p parse.Parser[byte, T], v T) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, stdbinary.Write(&buf, g.ByteOrder(), v))
	r := decode(t, p, buf.Bytes()...)
	assert.Equal(t, v, r.Value)
	assert.Equal(t, buf.Len(), r.Length)
}

func TestGrammar_RoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name  string
		order stdbinary.ByteOrder
	}{
		{"little", LittleEndian},
		{"big", BigEndian},
	} {
		t.Run(tc.name, func(t *testing.T) {
			g := New(WithByteOrder(tc.order))
			roundTrip(t, g, g.Bool(), true)
			roundTrip(t, g, g.Int8(), int8(-5))
			roundTrip(t, g, g.Uint8(), uint8(200))
			roundTrip(t, g, g.Int16(), int16(-1234))
			roundTrip(t, g, g.Uint16(), uint16(65000))
			roundTrip(t, g, g.Char16(), uint16('é'))
			roundTrip(t, g, g.Int32(), int32(-123456789))
			roundTrip(t, g, g.Uint32(), uint32(4000000000))
			roundTrip(t, g, g.Int64(), int64(-1<<40))
			roundTrip(t, g, g.Uint64(), uint64(1<<63+5))
			roundTrip(t, g, g.Float32(), float32(3.25))
			roundTrip(t, g, g.Float64(), -2.5e10)
			roundTrip(t, g, g.Float64(), math.Inf(1))
		})
	}
}

func TestGrammar_Int32ByteOrder(t *testing.T) {
	data := []byte{0x01, 0x00, 0x00, 0x00}

	le := New(WithByteOrder(LittleEndian))
	assert.Equal(t, int32(1), decode(t, le.Int32(), data...).Value)

	be := New(WithByteOrder(BigEndian))
	assert.Equal(t, int32(16777216), decode(t, be.Int32(), data...).Value)
}

func TestGrammar_ShortInput(t *testing.T) {
	g := New()
	rs := slices.Collect(g.Int64().Parse(testutil.Cursor[byte](t, 1, 2, 3)))
	assert.Empty(t, rs)
}

func TestGrammar_Length7Bit(t *testing.T) {
	g := New()
	for _, tc := range []struct {
		name   string
		data   []byte
		want   int
		length int
	}{
		{"zero", []byte{0x00}, 0, 1},
		{"one byte", []byte{0x7f, 0xaa}, 127, 1},
		{"two bytes", []byte{0x80, 0x01}, 128, 2},
		{"three bytes", []byte{0xff, 0xff, 0x03}, 65535, 3},
		{"five bytes", []byte{0xff, 0xff, 0xff, 0xff, 0x07}, math.MaxInt32, 5},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := decode(t, g.Length7Bit(), tc.data...)
			assert.Equal(t, tc.want, r.Value)
			assert.Equal(t, tc.length, r.Length)
		})
	}
}

func TestGrammar_Length7BitMalformed(t *testing.T) {
	g := New()
	for _, tc := range []struct {
		name string
		data []byte
	}{
		{"continuation on fifth byte", []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}},
		{"fifth byte overflows", []byte{0x80, 0x80, 0x80, 0x80, 0x10}},
		{"fifth byte 0x7f", []byte{0xff, 0xff, 0xff, 0xff, 0x7f}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := decodeErr(t, g.Length7Bit(), tc.data...)
			require.Error(t, err)
			assert.ErrorIs(t, err, parse.ErrMalformed)
			assert.True(t, parse.IsError(err))
		})
	}
}

func TestGrammar_Length7BitFifthByteLimit(t *testing.T) {
	r := decode(t, New().Length7Bit(), 0xff, 0xff, 0xff, 0xff, 0x0f)
	assert.Equal(t, -1, r.Value)
	assert.Equal(t, 5, r.Length)
}

func TestGrammar_Length7BitTruncated(t *testing.T) {
	g := New()
	rs := slices.Collect(g.Length7Bit().Parse(testutil.Cursor[byte](t, 0x80, 0x80)))
	assert.Empty(t, rs)
}

func TestGrammar_String(t *testing.T) {
	g := New()
	r := decode(t, g.String(), 3, 'a', 'b', 'c', 'z')
	assert.Equal(t, "abc", r.Value)
	assert.Equal(t, 4, r.Length)

	r = decode(t, g.String(), 0)
	assert.Equal(t, "", r.Value)
	assert.Equal(t, 1, r.Length)
}

func TestGrammar_StringNegativeLength(t *testing.T) {
	g := New()
	err := decodeErr(t, g.String(), 0xff, 0xff, 0xff, 0xff, 0x0f)
	assert.ErrorIs(t, err, parse.ErrMalformed)
}

func TestGrammar_StringEncoding(t *testing.T) {
	utf16 := New(WithEncoding(unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)))
	assert.Equal(t, "hi", decode(t, utf16.String(), 4, 'h', 0, 'i', 0).Value)

	enc, err := EncodingByName("windows-1252")
	require.NoError(t, err)
	latin := New(WithEncoding(enc))
	assert.Equal(t, "café", decode(t, latin.String(), 4, 'c', 'a', 'f', 0xe9).Value)
}

func TestGrammar_FixedString(t *testing.T) {
	g := New()
	r := decode(t, g.FixedString(4), 'a', 'b', 0, 0, 'x')
	assert.Equal(t, "ab", r.Value)
	assert.Equal(t, 4, r.Length)
}

type color uint16

type level int8

type offset int64

func TestEnum(t *testing.T) {
	le := New()
	assert.Equal(t, color(2), decode(t, Enum[color](le), 2, 0).Value)
	assert.Equal(t, level(-1), decode(t, Enum[level](le), 0xff).Value)

	be := New(WithByteOrder(BigEndian))
	r := decode(t, Enum[offset](be), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xfe)
	assert.Equal(t, offset(-2), r.Value)
	assert.Equal(t, 8, r.Length)
}

func TestEncodingByName(t *testing.T) {
	enc, err := EncodingByName("UTF-8")
	require.NoError(t, err)
	assert.Equal(t, "utf-8", EncodingName(enc))

	enc, err = EncodingByName("latin1")
	require.NoError(t, err)
	assert.Equal(t, "windows-1252", EncodingName(enc))

	_, err = EncodingByName("no-such-encoding")
	assert.Error(t, err)
}
