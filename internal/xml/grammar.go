package xml

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/roach88/rxparse/internal/parse"
	"github.com/roach88/rxparse/internal/text"
)

// Grammar recognizes XML over a character stream. Element and attribute
// names are compared with its Comparer, both when a close tag is matched to
// its open tag and when attributes are looked up on the resulting tree.
type Grammar struct {
	names   text.Comparer
	element parse.Parser[rune, *Element]
}

// New creates a Grammar. A nil comparer means text.Ordinal.
func New(names text.Comparer) *Grammar {
	if names == nil {
		names = text.Ordinal
	}
	g := &Grammar{names: names}
	g.element = parse.Lazy(g.buildElement)
	return g
}

// Names returns the name comparer.
func (g *Grammar) Names() text.Comparer {
	return g.names
}

func isNameStart(r rune) bool {
	return r == '_' || r == ':' || unicode.IsLetter(r)
}

func isNameChar(r rune) bool {
	return isNameStart(r) || r == '-' || r == '.' || unicode.IsDigit(r)
}

// Name matches an element or attribute name.
func (g *Grammar) Name() parse.Parser[rune, string] {
	return parse.Then(text.CharWhere(isNameStart), parse.NoneOrMore(text.CharWhere(isNameChar)), func(h rune, t []rune) string {
		return string(h) + string(t)
	})
}

var predefined = map[string]string{
	"lt":   "<",
	"gt":   ">",
	"amp":  "&",
	"quot": `"`,
	"apos": "'",
}

// reference matches an entity or character reference and produces the text
// it stands for. An unknown entity is a parse error.
func reference() parse.Parser[rune, string] {
	name := text.Join(parse.OneOrMore(text.CharWhere(func(r rune) bool {
		return r == '#' || unicode.IsLetter(r) || unicode.IsDigit(r)
	})))
	return parse.Convert(parse.Between(text.Char('&'), name, text.Char(';')), resolve)
}

func resolve(ref string) (string, error) {
	if s, ok := predefined[ref]; ok {
		return s, nil
	}
	num, ok := strings.CutPrefix(ref, "#")
	if !ok {
		return "", fmt.Errorf("unknown entity &%s;", ref)
	}
	base := 10
	if hex, ok := strings.CutPrefix(num, "x"); ok {
		num, base = hex, 16
	}
	n, err := strconv.ParseUint(num, base, 32)
	if err != nil || !utf8.ValidRune(rune(n)) {
		return "", fmt.Errorf("invalid character reference &%s;", ref)
	}
	return string(rune(n)), nil
}

// chars matches one or more characters outside exclude, decoding references.
// '&' always starts a reference.
func chars(exclude string) parse.Parser[rune, string] {
	var piece parse.Parser[rune, string] = parse.Any(
		reference(),
		parse.Map(text.CharNotIn(exclude+"&"), func(r rune) string { return string(r) }),
	)
	return parse.Map(parse.OneOrMore(piece), func(parts []string) string {
		return strings.Join(parts, "")
	})
}

func quoted(q rune) parse.Parser[rune, string] {
	return parse.Between(text.Char(q), parse.Maybe(chars("<"+string(q)), ""), text.Char(q))
}

// Attribute matches name="value" or name='value'.
func (g *Grammar) Attribute() parse.Parser[rune, Attr] {
	ws := text.InsignificantWhitespace()
	eq := parse.Between(ws, text.Char('='), ws)
	var value parse.Parser[rune, string] = parse.Any(quoted('"'), quoted('\''))
	return parse.Then(parse.Left(g.Name(), eq), value, func(name, v string) Attr {
		return Attr{Name: name, Value: v}
	})
}

// OpenTag matches <name attr="v" ...> or the self-closing <name ... />. The
// element it produces has no children. A repeated attribute is a parse error.
func (g *Grammar) OpenTag() parse.Parser[rune, *Element] {
	attrs := parse.NoneOrMore(parse.Right(text.Whitespace(), g.Attribute()))
	head := parse.Then(parse.Right(text.Char('<'), g.Name()), attrs, func(name string, as []Attr) *Element {
		return &Element{Name: name, Attrs: as, names: g.names}
	})
	unique := parse.Convert(parse.Left(head, text.InsignificantWhitespace()), g.checkAttrs)

	var end parse.Parser[rune, bool] = parse.Any(
		parse.Map(text.Word("/>"), func(string) bool { return true }),
		parse.Map(text.Char('>'), func(rune) bool { return false }),
	)
	return parse.Then(unique, end, func(e *Element, selfClosing bool) *Element {
		el := *e
		el.SelfClosing = selfClosing
		return &el
	})
}

func (g *Grammar) checkAttrs(e *Element) (*Element, error) {
	for i, a := range e.Attrs {
		for _, b := range e.Attrs[:i] {
			if g.names.Equal(a.Name, b.Name) {
				return nil, fmt.Errorf("element %s: attribute %s repeated", e.Name, a.Name)
			}
		}
	}
	return e, nil
}

// CloseTag matches </name> for a name the comparer considers equal to name.
func (g *Grammar) CloseTag(name string) parse.Parser[rune, string] {
	tag := parse.Between(text.Word("</"), g.Name(), parse.Right(text.InsignificantWhitespace(), text.Char('>')))
	return parse.Where(tag, func(n string) bool { return g.names.Equal(n, name) })
}

// Comment matches <!-- ... -->.
func (g *Grammar) Comment() parse.Parser[rune, Comment] {
	body := parse.Between(text.Word("<!--"), text.Until(text.Word("-->")), text.Word("-->"))
	return parse.Map(body, func(s string) Comment { return Comment(s) })
}

// CData matches <![CDATA[ ... ]]>.
func (g *Grammar) CData() parse.Parser[rune, CData] {
	body := parse.Between(text.Word("<![CDATA["), text.Until(text.Word("]]>")), text.Word("]]>"))
	return parse.Map(body, func(s string) CData { return CData(s) })
}

// Text matches character data up to the next markup.
func (g *Grammar) Text() parse.Parser[rune, Text] {
	return parse.Map(chars("<"), func(s string) Text { return Text(s) })
}

// ProcInst matches <?target instruction?>, the XML declaration included.
func (g *Grammar) ProcInst() parse.Parser[rune, ProcInst] {
	inst := parse.Maybe(parse.Right(text.Whitespace(), text.Until(text.Word("?>"))), "")
	body := parse.Then(parse.Right(text.Word("<?"), g.Name()), inst, func(target, in string) ProcInst {
		return ProcInst{Target: target, Inst: strings.TrimRightFunc(in, unicode.IsSpace)}
	})
	return parse.Left(body, text.Word("?>"))
}

// Directive matches <!NAME ...>, such as a document type declaration. Nested
// markup inside the declaration is not supported.
func (g *Grammar) Directive() parse.Parser[rune, Directive] {
	body := parse.Right(parse.Right(text.Word("<!"), parse.Ahead(g.Name())), text.Until(text.Char('>')))
	return parse.Map(parse.Left(body, text.Char('>')), func(s string) Directive { return Directive(s) })
}

func asNode[T Node](p parse.Parser[rune, T]) parse.Parser[rune, Node] {
	return parse.Map(p, func(v T) Node { return v })
}

// Content matches the nodes between an open and a close tag, choosing the
// first kind of node that matches at each step.
func (g *Grammar) Content() parse.Parser[rune, []Node] {
	var item parse.Parser[rune, Node] = parse.Any(
		asNode(g.element),
		asNode(g.Comment()),
		asNode(g.CData()),
		asNode(g.ProcInst()),
		asNode(g.Text()),
	)
	return parse.NoneOrMore(item)
}

// Element matches a complete element: a self-closing tag, or an open tag,
// content and a close tag with the same name.
func (g *Grammar) Element() parse.Parser[rune, *Element] {
	return g.element
}

func (g *Grammar) buildElement() parse.Parser[rune, *Element] {
	content := g.Content()
	return parse.Bind(g.OpenTag(), func(open *Element) parse.Parser[rune, *Element] {
		if open.SelfClosing {
			return parse.Return[rune](open)
		}
		return parse.Map(parse.Left(content, g.CloseTag(open.Name)), func(children []Node) *Element {
			el := *open
			el.Children = children
			return &el
		})
	})
}

// Document matches one top-level node after optional white space: a
// declaration or other processing instruction, a comment, a directive or an
// element. White space running to the end of the input is produced as Text so
// that a document can be consumed completely.
func (g *Grammar) Document() parse.Parser[rune, Node] {
	ws := text.InsignificantWhitespace()
	var node parse.Parser[rune, Node] = parse.Any(
		asNode(g.element),
		asNode(g.ProcInst()),
		asNode(g.Comment()),
		asNode(g.Directive()),
	)
	trailing := parse.Left(text.Whitespace(), parse.Not(parse.Next[rune]()))
	return parse.Any(
		parse.Right(ws, node),
		parse.Map(trailing, func(s string) Node { return Text(s) }),
	)
}
