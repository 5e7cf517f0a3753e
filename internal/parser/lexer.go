package parser

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// sqlLexer tokenizes SQL text. Order matters: the first matching rule wins,
// so comments and quoted text are recognised before punctuation. The final
// catch-all rule means lexing never fails on unexpected input.
var sqlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `--[^\n]*|/\*[\s\S]*?\*/`},
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "DollarString", Pattern: `\$\$[\s\S]*?\$\$`},
	{Name: "QuotedIdent", Pattern: `"(?:[^"]|"")*"|` + "`[^`]*`"},
	{Name: "Number", Pattern: `\d+(?:\.\d+)?`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_$]*`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Punct", Pattern: `[(),;.]`},
	{Name: "Other", Pattern: `[^\s]`},
})

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokQuoted
	tokString
	tokNumber
	tokPunct
	tokOther
)

// token is a significant lexeme. Comments and whitespace are dropped;
// spaceBefore records whether either preceded it.
type token struct {
	kind        tokenKind
	text        string
	line        int
	spaceBefore bool
}

// tokenize returns the significant tokens of text. Comment tokens are
// discarded here, before any statement structure is looked at.
func tokenize(text string) []token {
	symbols := sqlLexer.Symbols()
	kinds := map[lexer.TokenType]tokenKind{
		symbols["String"]:       tokString,
		symbols["DollarString"]: tokString,
		symbols["QuotedIdent"]:  tokQuoted,
		symbols["Number"]:       tokNumber,
		symbols["Ident"]:        tokIdent,
		symbols["Punct"]:        tokPunct,
		symbols["Other"]:        tokOther,
	}
	skip := map[lexer.TokenType]bool{
		symbols["Comment"]:    true,
		symbols["Whitespace"]: true,
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")

	lex, err := sqlLexer.LexString("", text)
	if err != nil {
		return nil
	}

	var (
		toks  []token
		space bool
	)
	for {
		tok, err := lex.Next()
		if err != nil || tok.EOF() {
			break
		}
		if skip[tok.Type] {
			space = true
			continue
		}
		toks = append(toks, token{
			kind:        kinds[tok.Type],
			text:        tok.Value,
			line:        tok.Pos.Line,
			spaceBefore: space,
		})
		space = false
	}
	return toks
}

func (t token) isKeyword(words ...string) bool {
	if t.kind != tokIdent {
		return false
	}
	for _, w := range words {
		if strings.EqualFold(t.text, w) {
			return true
		}
	}
	return false
}

func (t token) isPunct(p string) bool {
	return t.kind == tokPunct && t.text == p
}

func (t token) isIdentifier() bool {
	return t.kind == tokIdent || t.kind == tokQuoted
}

// identValue returns the identifier with surrounding quotes removed,
// doubled quote characters unescaped, and lower-cased.
func (t token) identValue() string {
	s := t.text
	if t.kind == tokQuoted && len(s) >= 2 {
		q := s[:1]
		s = strings.ReplaceAll(s[1:len(s)-1], q+q, q)
	}
	return strings.ToLower(strings.TrimSpace(s))
}
