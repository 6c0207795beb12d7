package layout

import (
	"bytes"
	stdbinary "encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	"cuelang.org/go/cue/token"
	"golang.org/x/text/encoding"

	"github.com/roach88/rxparse/internal/binary"
	"github.com/roach88/rxparse/internal/parse"
)

// Type is the wire type of a field.
type Type string

const (
	TypeBool        Type = "bool"
	TypeInt8        Type = "int8"
	TypeInt16       Type = "int16"
	TypeInt32       Type = "int32"
	TypeInt64       Type = "int64"
	TypeUint8       Type = "uint8"
	TypeUint16      Type = "uint16"
	TypeUint32      Type = "uint32"
	TypeUint64      Type = "uint64"
	TypeFloat32     Type = "float32"
	TypeFloat64     Type = "float64"
	TypeChar16      Type = "char16"
	TypeString      Type = "string"
	TypeFixedString Type = "fixed_string"
	TypeBytes       Type = "bytes"
	TypeEnum8       Type = "enum8"
	TypeEnum16      Type = "enum16"
	TypeEnum32      Type = "enum32"
)

// Valid reports whether t is a known field type.
func (t Type) Valid() bool {
	return knownTypes[t]
}

// Sized reports whether the type needs a length.
func (t Type) Sized() bool {
	return t == TypeFixedString || t == TypeBytes
}

// enumRange is the range of values an enum type can hold. enum8 is unsigned,
// enum16 and enum32 are signed.
func (t Type) enumRange() (lo, hi int64, ok bool) {
	switch t {
	case TypeEnum8:
		return 0, 1<<8 - 1, true
	case TypeEnum16:
		return -1 << 15, 1<<15 - 1, true
	case TypeEnum32:
		return -1 << 31, 1<<31 - 1, true
	}
	return 0, 0, false
}

var knownTypes = map[Type]bool{
	TypeBool: true, TypeInt8: true, TypeInt16: true, TypeInt32: true, TypeInt64: true,
	TypeUint8: true, TypeUint16: true, TypeUint32: true, TypeUint64: true,
	TypeFloat32: true, TypeFloat64: true, TypeChar16: true, TypeString: true,
	TypeFixedString: true, TypeBytes: true, TypeEnum8: true, TypeEnum16: true, TypeEnum32: true,
}

// Field is one field of a record layout.
type Field struct {
	Name string
	Type Type

	// Length is the byte length of fixed_string and bytes fields.
	Length int

	// Values maps enum values to their symbolic names.
	Values map[int64]string

	Pos token.Pos
}

// Layout describes a binary record as an ordered list of fields.
type Layout struct {
	Name      string
	ByteOrder stdbinary.ByteOrder
	Encoding  encoding.Encoding
	Fields    []Field
}

// Grammar returns the binary grammar the layout's fields are read with.
func (l *Layout) Grammar() *binary.Grammar {
	return binary.New(binary.WithByteOrder(l.ByteOrder), binary.WithEncoding(l.Encoding))
}

// Parser returns a parser that reads one record.
func (l *Layout) Parser() parse.Parser[byte, Record] {
	g := l.Grammar()
	fields := make([]parse.Parser[byte, any], len(l.Fields))
	for i, f := range l.Fields {
		fields[i] = f.Parser(g)
	}
	return parse.Map(parse.And(fields...), func(vs []any) Record {
		rec := Record{Layout: l.Name, Fields: make([]Value, len(vs))}
		for i, v := range vs {
			rec.Fields[i] = Value{Name: l.Fields[i].Name, Value: v}
		}
		return rec
	})
}

func box[T any](p parse.Parser[byte, T]) parse.Parser[byte, any] {
	return parse.Map(p, func(v T) any { return v })
}

func enum[E binary.Integer](g *binary.Grammar, names map[int64]string) parse.Parser[byte, any] {
	return parse.Map(binary.Enum[E](g), func(v E) any {
		if name, ok := names[int64(v)]; ok {
			return name
		}
		return int64(v)
	})
}

// Parser returns a parser that reads the field's value with g.
func (f Field) Parser(g *binary.Grammar) parse.Parser[byte, any] {
	switch f.Type {
	case TypeBool:
		return box(g.Bool())
	case TypeInt8:
		return box(g.Int8())
	case TypeInt16:
		return box(g.Int16())
	case TypeInt32:
		return box(g.Int32())
	case TypeInt64:
		return box(g.Int64())
	case TypeUint8:
		return box(g.Uint8())
	case TypeUint16:
		return box(g.Uint16())
	case TypeUint32:
		return box(g.Uint32())
	case TypeUint64:
		return box(g.Uint64())
	case TypeFloat32:
		return box(g.Float32())
	case TypeFloat64:
		return box(g.Float64())
	case TypeChar16:
		return box(parse.Map(g.Char16(), func(c uint16) string { return string(rune(c)) }))
	case TypeString:
		return box(g.String())
	case TypeFixedString:
		return box(g.FixedString(f.Length))
	case TypeBytes:
		return box(g.Bytes(f.Length))
	case TypeEnum8:
		return enum[uint8](g, f.Values)
	case TypeEnum16:
		return enum[int16](g, f.Values)
	case TypeEnum32:
		return enum[int32](g, f.Values)
	default:
		panic(fmt.Sprintf("layout: field %s has unknown type %q", f.Name, f.Type))
	}
}

// Value is one decoded field.
type Value struct {
	Name  string
	Value any
}

// Record is one decoded instance of a layout. Fields keep layout order.
type Record struct {
	Layout string
	Fields []Value
}

// Get returns the value of the named field.
func (r Record) Get(name string) (any, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

func (r Record) String() string {
	var b strings.Builder
	b.WriteString(r.Layout)
	b.WriteByte('{')
	for i, f := range r.Fields {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%v", f.Name, f.Value)
	}
	b.WriteByte('}')
	return b.String()
}

// MarshalJSON encodes the record as an object with its fields in layout
// order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
