package xml

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/roach88/rxparse/internal/text"
)

// Node is one node of a parsed document. Encode writes it as encoding/xml
// tokens, which is how the tree is handed to code built on the standard
// library's token model.
type Node interface {
	Encode(enc *xml.Encoder) error
}

// Attr is a name="value" pair with entity references already decoded.
type Attr struct {
	Name  string
	Value string
}

// Element is a tagged node with its attributes in document order.
type Element struct {
	Name        string
	Attrs       []Attr
	Children    []Node
	SelfClosing bool

	names text.Comparer
}

// Text is character data with entity references decoded.
type Text string

// CData is the body of a CDATA section.
type CData string

// Comment is the body of a comment.
type Comment string

// ProcInst is a processing instruction, the XML declaration included.
type ProcInst struct {
	Target string
	Inst   string
}

// Directive is a markup declaration such as <!DOCTYPE ...>, without the
// surrounding <! and >.
type Directive string

func (e *Element) comparer() text.Comparer {
	if e.names == nil {
		return text.Ordinal
	}
	return e.names
}

// Attr returns the value of the first attribute named name.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if e.comparer().Equal(a.Name, name) {
			return a.Value, true
		}
	}
	return "", false
}

// Elements returns the child elements named name, or every child element
// when name is empty.
func (e *Element) Elements(name string) []*Element {
	var out []*Element
	for _, n := range e.Children {
		child, ok := n.(*Element)
		if !ok {
			continue
		}
		if name == "" || e.comparer().Equal(child.Name, name) {
			out = append(out, child)
		}
	}
	return out
}

// InnerText concatenates the text and CDATA content of e and its
// descendants.
func (e *Element) InnerText() string {
	var b strings.Builder
	var walk func(nodes []Node)
	walk = func(nodes []Node) {
		for _, n := range nodes {
			switch v := n.(type) {
			case Text:
				b.WriteString(string(v))
			case CData:
				b.WriteString(string(v))
			case *Element:
				walk(v.Children)
			}
		}
	}
	walk(e.Children)
	return b.String()
}

func (e *Element) Encode(enc *xml.Encoder) error {
	start := xml.StartElement{Name: xml.Name{Local: e.Name}}
	for _, a := range e.Attrs {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: a.Name}, Value: a.Value})
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, child := range e.Children {
		if err := child.Encode(enc); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

func (t Text) Encode(enc *xml.Encoder) error {
	return enc.EncodeToken(xml.CharData(t))
}

// Encode writes the section as escaped character data; the token model has
// no CDATA token.
func (t CData) Encode(enc *xml.Encoder) error {
	return enc.EncodeToken(xml.CharData(t))
}

func (c Comment) Encode(enc *xml.Encoder) error {
	return enc.EncodeToken(xml.Comment(c))
}

func (p ProcInst) Encode(enc *xml.Encoder) error {
	return enc.EncodeToken(xml.ProcInst{Target: p.Target, Inst: []byte(p.Inst)})
}

func (d Directive) Encode(enc *xml.Encoder) error {
	return enc.EncodeToken(xml.Directive(d))
}

// Render serializes n with encoding/xml.
func Render(n Node) (string, error) {
	var b strings.Builder
	enc := xml.NewEncoder(&b)
	if err := n.Encode(enc); err != nil {
		return "", fmt.Errorf("render xml: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return "", fmt.Errorf("render xml: %w", err)
	}
	return b.String(), nil
}

func (e *Element) String() string {
	s, err := Render(e)
	if err != nil {
		return "<!-- " + err.Error() + " -->"
	}
	return s
}

// Outline renders n as an indented tree, one node per line.
func Outline(n Node) string {
	var b strings.Builder
	outline(&b, n, 0)
	return b.String()
}

func outline(b *strings.Builder, n Node, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	switch v := n.(type) {
	case *Element:
		b.WriteString("element " + v.Name)
		if v.SelfClosing {
			b.WriteString(" (empty)")
		}
		b.WriteByte('\n')
		for _, a := range v.Attrs {
			fmt.Fprintf(b, "%s  @%s=%q\n", strings.Repeat("  ", depth), a.Name, a.Value)
		}
		for _, child := range v.Children {
			outline(b, child, depth+1)
		}
	case Text:
		fmt.Fprintf(b, "text %q\n", string(v))
	case CData:
		fmt.Fprintf(b, "cdata %q\n", string(v))
	case Comment:
		fmt.Fprintf(b, "comment %q\n", string(v))
	case ProcInst:
		fmt.Fprintf(b, "pi %s %q\n", v.Target, v.Inst)
	case Directive:
		fmt.Fprintf(b, "directive %q\n", string(v))
	default:
		fmt.Fprintf(b, "%T\n", n)
	}
}
