package layout

import (
	stdbinary "encoding/binary"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"golang.org/x/text/encoding"

	"github.com/roach88/rxparse/internal/binary"
)

// CompileLayout parses a CUE value into a Layout.
//
// The CUE value should be the layout struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`layout: Header: { fields: [...] }`)
//	l, err := CompileLayout(v.LookupPath(cue.ParsePath("layout.Header")))
func CompileLayout(v cue.Value) (*Layout, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	l := &Layout{}
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		l.Name = labels[len(labels)-1].String()
	}

	var err error
	if l.ByteOrder, err = parseByteOrder(v); err != nil {
		return nil, err
	}

	if l.Encoding, err = parseEncoding(v); err != nil {
		return nil, err
	}

	if l.Fields, err = parseFields(v); err != nil {
		return nil, err
	}
	if len(l.Fields) == 0 {
		return nil, &CompileError{
			Field:   "fields",
			Message: "at least one field is required",
			Pos:     v.Pos(),
		}
	}

	return l, nil
}

func parseByteOrder(v cue.Value) (stdbinary.ByteOrder, error) {
	orderVal := v.LookupPath(cue.ParsePath("byte_order"))
	if !orderVal.Exists() {
		return binary.LittleEndian, nil
	}
	order, err := orderVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	switch strings.ToLower(order) {
	case "little", "little_endian", "le":
		return binary.LittleEndian, nil
	case "big", "big_endian", "be":
		return binary.BigEndian, nil
	default:
		return nil, &CompileError{
			Field:   "byte_order",
			Message: fmt.Sprintf("unknown byte order %q (want little or big)", order),
			Pos:     orderVal.Pos(),
		}
	}
}

func parseEncoding(v cue.Value) (encoding.Encoding, error) {
	encVal := v.LookupPath(cue.ParsePath("encoding"))
	if !encVal.Exists() {
		return binary.EncodingByName("")
	}
	name, err := encVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	enc, err := binary.EncodingByName(name)
	if err != nil {
		return nil, &CompileError{Field: "encoding", Message: err.Error(), Pos: encVal.Pos()}
	}
	return enc, nil
}

func parseFields(v cue.Value) ([]Field, error) {
	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, &CompileError{
			Field:   "fields",
			Message: "fields is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := fieldsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var fields []Field
	seen := make(map[string]bool)
	for iter.Next() {
		f, err := parseField(iter.Value())
		if err != nil {
			return nil, err
		}
		if seen[f.Name] {
			return nil, &CompileError{
				Field:   "fields." + f.Name,
				Message: "duplicate field name",
				Pos:     f.Pos,
			}
		}
		seen[f.Name] = true
		fields = append(fields, f)
	}
	return fields, nil
}

func parseField(v cue.Value) (Field, error) {
	f := Field{Pos: v.Pos()}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return f, &CompileError{Field: "name", Message: "field name is required", Pos: v.Pos()}
	}
	name, err := nameVal.String()
	if err != nil {
		return f, formatCUEError(err)
	}
	f.Name = name

	typeVal := v.LookupPath(cue.ParsePath("type"))
	if !typeVal.Exists() {
		return f, &CompileError{Field: "fields." + name, Message: "field type is required", Pos: v.Pos()}
	}
	typ, err := typeVal.String()
	if err != nil {
		return f, formatCUEError(err)
	}
	f.Type = Type(typ)
	if !f.Type.Valid() {
		return f, &CompileError{
			Field:   "fields." + name + ".type",
			Message: fmt.Sprintf("unsupported field type %q", typ),
			Pos:     typeVal.Pos(),
		}
	}

	lengthVal := v.LookupPath(cue.ParsePath("length"))
	switch {
	case f.Type.Sized() && !lengthVal.Exists():
		return f, &CompileError{
			Field:   "fields." + name + ".length",
			Message: fmt.Sprintf("%s needs a length", f.Type),
			Pos:     v.Pos(),
		}
	case f.Type.Sized():
		n, err := lengthVal.Int64()
		if err != nil {
			return f, formatCUEError(err)
		}
		if n < 0 {
			return f, &CompileError{
				Field:   "fields." + name + ".length",
				Message: fmt.Sprintf("length must not be negative, got %d", n),
				Pos:     lengthVal.Pos(),
			}
		}
		f.Length = int(n)
	case lengthVal.Exists():
		return f, &CompileError{
			Field:   "fields." + name + ".length",
			Message: fmt.Sprintf("%s does not take a length", f.Type),
			Pos:     lengthVal.Pos(),
		}
	}

	if valuesVal := v.LookupPath(cue.ParsePath("values")); valuesVal.Exists() {
		values, err := parseEnumValues(name, f.Type, valuesVal)
		if err != nil {
			return f, err
		}
		f.Values = values
	}

	return f, nil
}

// parseEnumValues reads the symbolic names of an enum: a struct from name to
// value, e.g. values: {none: 0, text: 1}.
func parseEnumValues(field string, t Type, v cue.Value) (map[int64]string, error) {
	lo, hi, ok := t.enumRange()
	if !ok {
		return nil, &CompileError{
			Field:   "fields." + field + ".values",
			Message: fmt.Sprintf("%s does not take values", t),
			Pos:     v.Pos(),
		}
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	values := make(map[int64]string)
	for iter.Next() {
		n, err := iter.Value().Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if n < lo || n > hi {
			return nil, &CompileError{
				Field:   "fields." + field + ".values." + iter.Label(),
				Message: fmt.Sprintf("value %d does not fit %s", n, t),
				Pos:     iter.Value().Pos(),
			}
		}
		if prev, dup := values[n]; dup {
			return nil, &CompileError{
				Field:   "fields." + field + ".values." + iter.Label(),
				Message: fmt.Sprintf("value %d already named %s", n, prev),
				Pos:     iter.Value().Pos(),
			}
		}
		values[n] = iter.Label()
	}
	return values, nil
}

// CompileError represents a layout compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
