package grammars

import (
	"context"
	stdbinary "encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/encoding"

	"github.com/roach88/rxparse/internal/binary"
	"github.com/roach88/rxparse/internal/engine"
	"github.com/roach88/rxparse/internal/layout"
	"github.com/roach88/rxparse/internal/parse"
	"github.com/roach88/rxparse/internal/sequence"
	"github.com/roach88/rxparse/internal/text"
	"github.com/roach88/rxparse/internal/xml"
)

// Names of the built-in grammars. Binary and layout grammars take a suffix:
// "binary:uint32", "binary:fixed_string:8", "layout:Header".
const (
	Words        = "words"
	Lines        = "lines"
	XML          = "xml"
	BinaryPrefix = "binary:"
	LayoutPrefix = "layout:"
)

// Config selects how a grammar reads its input.
type Config struct {
	// ByteOrder and Encoding configure binary grammars. Defaults:
	// little-endian, UTF-8.
	ByteOrder stdbinary.ByteOrder
	Encoding  encoding.Encoding

	// Names compares XML names. Default: ordinal.
	Names text.Comparer

	// Layouts resolves layout grammars.
	Layouts *layout.Set

	// Pace, when positive, delivers one element per tick instead of
	// streaming the input as fast as it can be read.
	Pace time.Duration
}

// Match is one produced value and the input span it covers.
type Match struct {
	Index  int `json:"index"`
	Length int `json:"length"`
	Value  any `json:"value"`
}

func (m Match) String() string {
	return Render(m.Value)
}

// Run parses everything r delivers with the named grammar. On failure the
// matches produced before the error are returned with it.
func Run(ctx context.Context, name string, r io.Reader, cfg Config, opts ...engine.Option) ([]Match, error) {
	opts = append([]engine.Option{engine.WithName(name)}, opts...)

	switch {
	case name == Words:
		return collect(ctx, runeSource(r, cfg.Pace), words(), opts)
	case name == Lines:
		return collect(ctx, runeSource(r, cfg.Pace), text.Line(), opts)
	case name == XML:
		return collect(ctx, runeSource(r, cfg.Pace), xml.New(cfg.Names).Document(), opts)
	case strings.HasPrefix(name, BinaryPrefix):
		p, err := Binary(strings.TrimPrefix(name, BinaryPrefix), cfg)
		if err != nil {
			return nil, err
		}
		return collect(ctx, byteSource(r, cfg.Pace), p, opts)
	case strings.HasPrefix(name, LayoutPrefix):
		record := strings.TrimPrefix(name, LayoutPrefix)
		if cfg.Layouts == nil {
			return nil, fmt.Errorf("grammar %s: no layouts loaded", name)
		}
		l, ok := cfg.Layouts.Lookup(record)
		if !ok {
			return nil, fmt.Errorf("grammar %s: unknown layout %q", name, record)
		}
		return collect(ctx, byteSource(r, cfg.Pace), l.Parser(), opts)
	default:
		return nil, fmt.Errorf("unknown grammar %q", name)
	}
}

// words skips anything that is not a letter and produces the next run of
// letters.
func words() parse.Parser[rune, string] {
	gap := parse.NoneOrMore(text.CharWhere(func(r rune) bool { return !unicode.IsLetter(r) }))
	return parse.Right(gap, text.Letters())
}

// Binary returns the parser for one value of a binary field type, written
// "type" or "type:length" for sized types.
func Binary(spec string, cfg Config) (parse.Parser[byte, any], error) {
	typ, length, hasLength := strings.Cut(spec, ":")
	f := layout.Field{Name: typ, Type: layout.Type(typ)}
	if !f.Type.Valid() {
		return nil, fmt.Errorf("unknown binary type %q", typ)
	}
	switch {
	case f.Type.Sized() && !hasLength:
		return nil, fmt.Errorf("binary type %s needs a length, e.g. %s:4", typ, typ)
	case f.Type.Sized():
		n, err := strconv.Atoi(length)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("binary type %s: invalid length %q", typ, length)
		}
		f.Length = n
	case hasLength:
		return nil, fmt.Errorf("binary type %s does not take a length", typ)
	}

	var opts []binary.Option
	if cfg.ByteOrder != nil {
		opts = append(opts, binary.WithByteOrder(cfg.ByteOrder))
	}
	if cfg.Encoding != nil {
		opts = append(opts, binary.WithEncoding(cfg.Encoding))
	}
	return f.Parser(binary.New(opts...)), nil
}

func collect[S, R any](ctx context.Context, src sequence.Sequence[S], p parse.Parser[S, R], opts []engine.Option) ([]Match, error) {
	d := engine.New(func(parse.Parser[S, S]) parse.Parser[S, R] { return p }, opts...)
	ms, err := sequence.Collect(ctx, d.Matches(src))
	out := make([]Match, len(ms))
	for i, m := range ms {
		out[i] = Match{Index: m.Index, Length: m.Length, Value: m.Value}
	}
	return out, err
}

func runeSource(r io.Reader, pace time.Duration) sequence.Sequence[rune] {
	if pace <= 0 {
		return sequence.FromRuneReader(r)
	}
	return paced(r, pace, func(b []byte) []rune { return []rune(string(b)) })
}

func byteSource(r io.Reader, pace time.Duration) sequence.Sequence[byte] {
	if pace <= 0 {
		return sequence.FromReader(r)
	}
	return paced(r, pace, func(b []byte) []byte { return b })
}

// paced reads all of r up front and replays it one element per tick. A read
// error is delivered after the elements read before it.
func paced[T any](r io.Reader, pace time.Duration, split func([]byte) []T) sequence.Sequence[T] {
	return sequence.SequenceFunc[T](func(o sequence.Observer[T]) sequence.Subscription {
		data, err := io.ReadAll(r)
		items := split(data)
		if err != nil {
			return sequence.Create(func(_ context.Context, out sequence.Observer[T]) {
				for _, v := range items {
					out.OnNext(v)
				}
				out.OnError(err)
			}).Subscribe(o)
		}
		return sequence.Paced(pace, items).Subscribe(o)
	})
}

// Render formats a produced value for display.
func Render(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []byte:
		return hex.EncodeToString(v)
	case xml.Node:
		if s, err := xml.Render(v); err == nil {
			return s
		}
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(v)
}
