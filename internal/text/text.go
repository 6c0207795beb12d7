package text

import (
	"strings"
	"unicode"

	"github.com/roach88/rxparse/internal/parse"
)

// CharWhere matches one character satisfying pred.
func CharWhere(pred func(rune) bool) parse.Parser[rune, rune] {
	return parse.Where(parse.Next[rune](), pred)
}

// Char matches the character r.
func Char(r rune) parse.Parser[rune, rune] {
	return CharWhere(func(c rune) bool { return c == r })
}

// CharIn matches any one character of set.
func CharIn(set string) parse.Parser[rune, rune] {
	return CharWhere(func(c rune) bool { return strings.ContainsRune(set, c) })
}

// CharNotIn matches any one character not in set.
func CharNotIn(set string) parse.Parser[rune, rune] {
	return CharWhere(func(c rune) bool { return !strings.ContainsRune(set, c) })
}

// Join turns matched characters into a string.
func Join(p parse.Parser[rune, []rune]) parse.Parser[rune, string] {
	return parse.Map(p, func(rs []rune) string { return string(rs) })
}

// Whitespace matches one or more white space characters.
func Whitespace() parse.Parser[rune, string] {
	return Join(parse.OneOrMore(CharWhere(unicode.IsSpace)))
}

// InsignificantWhitespace matches any amount of white space, including none.
func InsignificantWhitespace() parse.Parser[rune, string] {
	return Join(parse.NoneOrMore(CharWhere(unicode.IsSpace)))
}

// Letters matches one or more letters.
func Letters() parse.Parser[rune, string] {
	return Join(parse.OneOrMore(CharWhere(unicode.IsLetter)))
}

// Digits matches one or more decimal digits.
func Digits() parse.Parser[rune, string] {
	return Join(parse.OneOrMore(CharWhere(unicode.IsDigit)))
}

// Identifier matches a letter or underscore followed by any letters, digits
// and underscores.
func Identifier() parse.Parser[rune, string] {
	head := CharWhere(func(r rune) bool { return r == '_' || unicode.IsLetter(r) })
	tail := parse.NoneOrMore(CharWhere(func(r rune) bool {
		return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
	}))
	return parse.Then(head, tail, func(h rune, t []rune) string {
		return string(h) + string(t)
	})
}

// Word matches w exactly.
func Word(w string) parse.Parser[rune, string] {
	chars := make([]parse.Parser[rune, rune], 0, len(w))
	for _, r := range w {
		chars = append(chars, Char(r))
	}
	return Join(parse.And(chars...))
}

// WordFold matches as many characters as w has and accepts them when cmp
// considers them equal to w. The matched text is produced as it appeared in
// the input.
func WordFold(w string, cmp Comparer) parse.Parser[rune, string] {
	n := len([]rune(w))
	return parse.Where(Join(parse.Exactly(n, parse.Next[rune]())), func(s string) bool {
		return cmp.Equal(s, w)
	})
}

// Until matches characters up to, not including, the first place terminator
// matches. It matches nothing at all if the input ends first.
func Until[T any](terminator parse.Parser[rune, T]) parse.Parser[rune, string] {
	body := Join(parse.NoneOrMore(parse.Right(parse.Not(terminator), parse.Next[rune]())))
	return parse.Left(body, parse.Ahead(terminator))
}

// Line matches the rest of the current line and the line break after it, if
// any. The value excludes the line break.
func Line() parse.Parser[rune, string] {
	body := Join(parse.NoneOrMore(CharNotIn("\r\n")))
	var eol parse.Parser[rune, string] = parse.Any(Word("\r\n"), Word("\n"), Word("\r"), parse.Return[rune](""))
	return parse.Left(body, eol)
}
