package layout

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rxparse/internal/binary"
	"github.com/roach88/rxparse/internal/engine"
	"github.com/roach88/rxparse/internal/parse"
	"github.com/roach88/rxparse/internal/sequence"
	"github.com/roach88/rxparse/internal/testutil"
)

const headerSrc = `
layout: Header: {
	byte_order: "big"
	fields: [
		{name: "magic", type: "uint32"},
		{name: "title", type: "string"},
		{name: "tag", type: "fixed_string", length: 4},
		{name: "kind", type: "enum8", values: {none: 0, text: 1}},
	]
}

layout: Point: {
	fields: [
		{name: "x", type: "int16"},
		{name: "y", type: "int16"},
	]
}
`

// header encodes a Header record.
var header = []byte{
	0xca, 0xfe, 0xba, 0xbe,
	0x02, 'h', 'i',
	'a', 'b', 0, 0,
	0x01,
}

func compileHeader(t *testing.T) *Set {
	t.Helper()
	set, err := CompileString(headerSrc, "layouts.cue")
	require.NoError(t, err)
	return set
}

func decode(t *testing.T, l *Layout, data ...byte) []parse.Result[Record] {
	t.Helper()
	c := testutil.Cursor(t, data...)
	return slices.Collect(l.Parser().Parse(c))
}

func TestCompile_DeclarationOrder(t *testing.T) {
	set := compileHeader(t)
	assert.Equal(t, []string{"Header", "Point"}, set.Names())

	l, ok := set.Lookup("Header")
	require.True(t, ok)
	assert.Equal(t, "Header", l.Name)
	assert.Equal(t, binary.BigEndian, l.ByteOrder)
	assert.Equal(t, "utf-8", binary.EncodingName(l.Encoding))

	require.Len(t, l.Fields, 4)
	assert.Equal(t, TypeFixedString, l.Fields[2].Type)
	assert.Equal(t, 4, l.Fields[2].Length)
	assert.Equal(t, map[int64]string{0: "none", 1: "text"}, l.Fields[3].Values)

	_, ok = set.Lookup("Missing")
	assert.False(t, ok)
}

func TestCompile_DefaultsToLittleEndian(t *testing.T) {
	l, _ := compileHeader(t).Lookup("Point")
	assert.Equal(t, binary.LittleEndian, l.ByteOrder)
}

func TestParser_DecodesRecord(t *testing.T) {
	l, _ := compileHeader(t).Lookup("Header")

	rs := decode(t, l, header...)
	require.Len(t, rs, 1)
	assert.Equal(t, len(header), rs[0].Length)

	rec := rs[0].Value
	assert.Equal(t, "Header", rec.Layout)
	assert.Equal(t, []Value{
		{Name: "magic", Value: uint32(0xcafebabe)},
		{Name: "title", Value: "hi"},
		{Name: "tag", Value: "ab"},
		{Name: "kind", Value: "text"},
	}, rec.Fields)
}

func TestParser_ShortInputDoesNotMatch(t *testing.T) {
	l, _ := compileHeader(t).Lookup("Header")
	assert.Empty(t, decode(t, l, header[:len(header)-1]...))
}

func TestParser_UnnamedEnumValue(t *testing.T) {
	l, _ := compileHeader(t).Lookup("Header")

	data := slices.Clone(header)
	data[len(data)-1] = 7
	rs := decode(t, l, data...)
	require.Len(t, rs, 1)

	kind, ok := rs[0].Value.Get("kind")
	require.True(t, ok)
	assert.Equal(t, int64(7), kind)
}

func TestParser_AllFieldTypes(t *testing.T) {
	set, err := CompileString(`
layout: All: {
	encoding: "utf-16le"
	fields: [
		{name: "b", type: "bool"},
		{name: "i8", type: "int8"},
		{name: "u8", type: "uint8"},
		{name: "i16", type: "int16"},
		{name: "u16", type: "uint16"},
		{name: "i32", type: "int32"},
		{name: "u32", type: "uint32"},
		{name: "i64", type: "int64"},
		{name: "u64", type: "uint64"},
		{name: "f32", type: "float32"},
		{name: "f64", type: "float64"},
		{name: "c", type: "char16"},
		{name: "s", type: "string"},
		{name: "raw", type: "bytes", length: 2},
		{name: "e16", type: "enum16"},
		{name: "e32", type: "enum32", values: {neg: -1}},
	]
}
`, "all.cue")
	require.NoError(t, err)
	l, _ := set.Lookup("All")

	data := []byte{
		1,
		0xff,
		0xfe,
		0xfe, 0xff,
		0x02, 0x01,
		0xfd, 0xff, 0xff, 0xff,
		0x04, 0, 0, 0,
		0xfc, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0x08, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0xc0, 0x3f, // 1.5
		0, 0, 0, 0, 0, 0, 0x04, 0x40, // 2.5
		'Z', 0,
		0x04, 'o', 0, 'k', 0,
		0xaa, 0xbb,
		0x05, 0x00,
		0xff, 0xff, 0xff, 0xff,
	}
	rs := decode(t, l, data...)
	require.Len(t, rs, 1)
	assert.Equal(t, len(data), rs[0].Length)

	want := map[string]any{
		"b":   true,
		"i8":  int8(-1),
		"u8":  uint8(0xfe),
		"i16": int16(-2),
		"u16": uint16(0x0102),
		"i32": int32(-3),
		"u32": uint32(4),
		"i64": int64(-4),
		"u64": uint64(8),
		"f32": float32(1.5),
		"f64": float64(2.5),
		"c":   "Z",
		"s":   "ok",
		"raw": []byte{0xaa, 0xbb},
		"e16": int64(5),
		"e32": "neg",
	}
	for name, v := range want {
		got, ok := rs[0].Value.Get(name)
		require.True(t, ok, name)
		assert.Equal(t, v, got, name)
	}
}

func TestRecord_StringAndJSON(t *testing.T) {
	rec := Record{Layout: "Point", Fields: []Value{
		{Name: "y", Value: int16(2)},
		{Name: "x", Value: int16(-1)},
	}}
	assert.Equal(t, "Point{y=2 x=-1}", rec.String())

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"y":2,"x":-1}`, string(data))
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{
			name:  "unknown type",
			src:   `layout: L: fields: [{name: "a", type: "int128"}]`,
			field: "fields.a.type",
		},
		{
			name:  "missing length",
			src:   `layout: L: fields: [{name: "a", type: "bytes"}]`,
			field: "fields.a.length",
		},
		{
			name:  "unexpected length",
			src:   `layout: L: fields: [{name: "a", type: "uint8", length: 2}]`,
			field: "fields.a.length",
		},
		{
			name:  "negative length",
			src:   `layout: L: fields: [{name: "a", type: "fixed_string", length: -1}]`,
			field: "fields.a.length",
		},
		{
			name: "duplicate field",
			src: `layout: L: fields: [
				{name: "a", type: "uint8"},
				{name: "a", type: "uint16"},
			]`,
			field: "fields.a",
		},
		{
			name:  "missing name",
			src:   `layout: L: fields: [{type: "uint8"}]`,
			field: "name",
		},
		{
			name:  "bad byte order",
			src:   `layout: L: {byte_order: "middle", fields: [{name: "a", type: "uint8"}]}`,
			field: "byte_order",
		},
		{
			name:  "unknown encoding",
			src:   `layout: L: {encoding: "klingon", fields: [{name: "a", type: "uint8"}]}`,
			field: "encoding",
		},
		{
			name:  "enum value out of range",
			src:   `layout: L: fields: [{name: "a", type: "enum8", values: {big: 256}}]`,
			field: "fields.a.values.big",
		},
		{
			name:  "values on non-enum",
			src:   `layout: L: fields: [{name: "a", type: "uint8", values: {x: 1}}]`,
			field: "fields.a.values",
		},
		{
			name:  "no fields",
			src:   `layout: L: fields: []`,
			field: "fields",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileString(tt.src, "bad.cue")
			require.Error(t, err)

			var ce *CompileError
			require.True(t, errors.As(err, &ce), "got %v", err)
			assert.Equal(t, tt.field, ce.Field)
			assert.Contains(t, err.Error(), "layout L")
		})
	}
}

func TestCompile_ErrorCarriesPosition(t *testing.T) {
	_, err := CompileString("layout: L: fields: [\n\t{name: \"a\", type: \"nope\"},\n]\n", "pos.cue")
	require.Error(t, err)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	require.True(t, ce.Pos.IsValid())
	assert.Equal(t, 2, ce.Pos.Line())
	assert.Contains(t, err.Error(), "pos.cue:2:")
}

func TestCompile_NoLayouts(t *testing.T) {
	_, err := CompileString(`other: 1`, "empty.cue")
	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "layout", ce.Field)
}

func TestLoad_Directory(t *testing.T) {
	dir := t.TempDir()
	src := "package layouts\n" + headerSrc
	require.NoError(t, os.WriteFile(filepath.Join(dir, "header.cue"), []byte(src), 0o644))

	set, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"Header", "Point"}, set.Names())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	_, err = Load(t.TempDir())
	assert.ErrorContains(t, err, "no CUE files")
}

func TestLayout_ThroughDriver(t *testing.T) {
	l, _ := compileHeader(t).Lookup("Point")
	d := engine.New(func(parse.Parser[byte, byte]) parse.Parser[byte, Record] {
		return l.Parser()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	got, err := d.Collect(ctx, sequence.FromSlice([]byte{1, 0, 2, 0, 0xff, 0xff, 0x10, 0}))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Point{x=1 y=2}", got[0].String())
	assert.Equal(t, "Point{x=-1 y=16}", got[1].String())
}
