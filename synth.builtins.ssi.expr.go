package synth

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// SSI expression errors
var (
	errSSIExprEmpty       = errors.New("empty expression")
	errSSIExprUnclosed    = errors.New("unclosed quote or regular expression")
	errSSIExprParen       = errors.New("unbalanced parenthesis")
	errSSIExprUnexpected  = errors.New("unexpected token")
	errSSIExprMissingTerm = errors.New("missing operand")
)

type ssiTokenKind int

const (
	ssiTokString ssiTokenKind = iota
	ssiTokRegex
	ssiTokLParen
	ssiTokRParen
	ssiTokNot
	ssiTokAnd
	ssiTokOr
	ssiTokEq
	ssiTokNe
	ssiTokLt
	ssiTokLe
	ssiTokGt
	ssiTokGe
)

type ssiToken struct {
	kind ssiTokenKind
	text string
}

// tokenizeSSIExpr splits an if-directive expression. A '/' directly after
// '=' or '!=' opens a regular expression.
func tokenizeSSIExpr(s string) ([]ssiToken, error) {
	var tokens []ssiToken
	last := func() ssiTokenKind {
		if len(tokens) == 0 {
			return ssiTokLParen
		}
		return tokens[len(tokens)-1].kind
	}

	for i := 0; i < len(s); {
		ch := s[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == '(':
			tokens = append(tokens, ssiToken{kind: ssiTokLParen})
			i++
		case ch == ')':
			tokens = append(tokens, ssiToken{kind: ssiTokRParen})
			i++
		case strings.HasPrefix(s[i:], "&&"):
			tokens = append(tokens, ssiToken{kind: ssiTokAnd})
			i += 2
		case strings.HasPrefix(s[i:], "||"):
			tokens = append(tokens, ssiToken{kind: ssiTokOr})
			i += 2
		case strings.HasPrefix(s[i:], "!="):
			tokens = append(tokens, ssiToken{kind: ssiTokNe})
			i += 2
		case ch == '!':
			tokens = append(tokens, ssiToken{kind: ssiTokNot})
			i++
		case strings.HasPrefix(s[i:], "=="):
			tokens = append(tokens, ssiToken{kind: ssiTokEq})
			i += 2
		case ch == '=':
			tokens = append(tokens, ssiToken{kind: ssiTokEq})
			i++
		case strings.HasPrefix(s[i:], "<="):
			tokens = append(tokens, ssiToken{kind: ssiTokLe})
			i += 2
		case ch == '<':
			tokens = append(tokens, ssiToken{kind: ssiTokLt})
			i++
		case strings.HasPrefix(s[i:], ">="):
			tokens = append(tokens, ssiToken{kind: ssiTokGe})
			i += 2
		case ch == '>':
			tokens = append(tokens, ssiToken{kind: ssiTokGt})
			i++
		case ch == '/' && (last() == ssiTokEq || last() == ssiTokNe):
			text, next, err := scanDelimited(s, i, '/')
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, ssiToken{kind: ssiTokRegex, text: text})
			i = next
		case ch == '\'' || ch == '"':
			text, next, err := scanDelimited(s, i, ch)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, ssiToken{kind: ssiTokString, text: text})
			i = next
		default:
			start := i
			for i < len(s) && !strings.ContainsRune(" \t\n\r()!&|=<>'\"", rune(s[i])) {
				i++
			}
			if i == start {
				return nil, fmt.Errorf("%w: %q", errSSIExprUnexpected, s[i:i+1])
			}
			tokens = append(tokens, ssiToken{kind: ssiTokString, text: s[start:i]})
		}
	}
	return tokens, nil
}

// scanDelimited reads the text between s[start] and the next unescaped
// delim. Escaped delimiters lose their backslash.
func scanDelimited(s string, start int, delim byte) (string, int, error) {
	var sb strings.Builder
	for i := start + 1; i < len(s); i++ {
		switch {
		case s[i] == '\\' && i+1 < len(s) && s[i+1] == delim:
			sb.WriteByte(delim)
			i++
		case s[i] == delim:
			return sb.String(), i + 1, nil
		default:
			sb.WriteByte(s[i])
		}
	}
	return "", 0, errSSIExprUnclosed
}

// ssiExpr is a compiled if-directive expression
type ssiExpr interface {
	eval(ctx *Context) bool
}

// ssiString is a run of adjacent words, joined by single spaces after
// variable substitution.
type ssiString []string

func (s ssiString) value(ctx *Context) string {
	parts := make([]string, len(s))
	for i, word := range s {
		parts[i] = substitute(ctx, word)
	}
	return strings.Join(parts, " ")
}

type ssiOr struct{ left, right ssiExpr }

func (e ssiOr) eval(ctx *Context) bool { return e.left.eval(ctx) || e.right.eval(ctx) }

type ssiAnd struct{ left, right ssiExpr }

func (e ssiAnd) eval(ctx *Context) bool { return e.left.eval(ctx) && e.right.eval(ctx) }

type ssiNot struct{ inner ssiExpr }

func (e ssiNot) eval(ctx *Context) bool { return !e.inner.eval(ctx) }

type ssiTruth struct{ operand ssiString }

func (e ssiTruth) eval(ctx *Context) bool { return e.operand.value(ctx) != "" }

type ssiCompare struct {
	op          ssiTokenKind
	left, right ssiString
}

func (e ssiCompare) eval(ctx *Context) bool {
	cmp := strings.Compare(e.left.value(ctx), e.right.value(ctx))
	switch e.op {
	case ssiTokEq:
		return cmp == 0
	case ssiTokNe:
		return cmp != 0
	case ssiTokLt:
		return cmp < 0
	case ssiTokLe:
		return cmp <= 0
	case ssiTokGt:
		return cmp > 0
	default:
		return cmp >= 0
	}
}

type ssiMatch struct {
	left   ssiString
	re     *regexp.Regexp
	negate bool
}

func (e ssiMatch) eval(ctx *Context) bool {
	return e.re.MatchString(e.left.value(ctx)) != e.negate
}

// ssiParser is a recursive-descent parser:
//
//	or    := and ("||" and)*
//	and   := unary ("&&" unary)*
//	unary := "!" unary | "(" or ")" | cmp
//	cmp   := string (op (string | regex))?
type ssiParser struct {
	tokens []ssiToken
	pos    int
}

func parseSSIExpr(s string) (ssiExpr, error) {
	tokens, err := tokenizeSSIExpr(s)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, errSSIExprEmpty
	}
	p := &ssiParser{tokens: tokens}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		if p.tokens[p.pos].kind == ssiTokRParen {
			return nil, errSSIExprParen
		}
		return nil, errSSIExprUnexpected
	}
	return expr, nil
}

func (p *ssiParser) peek() (ssiToken, bool) {
	if p.pos >= len(p.tokens) {
		return ssiToken{}, false
	}
	return p.tokens[p.pos], true
}

func (p *ssiParser) accept(kind ssiTokenKind) bool {
	if tok, ok := p.peek(); ok && tok.kind == kind {
		p.pos++
		return true
	}
	return false
}

func (p *ssiParser) parseOr() (ssiExpr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.accept(ssiTokOr) {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = ssiOr{left, right}
	}
	return left, nil
}

func (p *ssiParser) parseAnd() (ssiExpr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.accept(ssiTokAnd) {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = ssiAnd{left, right}
	}
	return left, nil
}

func (p *ssiParser) parseUnary() (ssiExpr, error) {
	if p.accept(ssiTokNot) {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ssiNot{inner}, nil
	}
	if p.accept(ssiTokLParen) {
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.accept(ssiTokRParen) {
			return nil, errSSIExprParen
		}
		return inner, nil
	}
	return p.parseCompare()
}

func (p *ssiParser) parseCompare() (ssiExpr, error) {
	left := p.parseString()
	if left == nil {
		return nil, errSSIExprMissingTerm
	}

	tok, ok := p.peek()
	if !ok {
		return ssiTruth{left}, nil
	}
	switch tok.kind {
	case ssiTokEq, ssiTokNe, ssiTokLt, ssiTokLe, ssiTokGt, ssiTokGe:
		p.pos++
	default:
		return ssiTruth{left}, nil
	}

	if next, ok := p.peek(); ok && next.kind == ssiTokRegex {
		p.pos++
		if tok.kind != ssiTokEq && tok.kind != ssiTokNe {
			return nil, errSSIExprUnexpected
		}
		re, err := regexp.Compile(next.text)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgRegexp, err)
		}
		return ssiMatch{left: left, re: re, negate: tok.kind == ssiTokNe}, nil
	}

	right := p.parseString()
	if right == nil {
		return nil, errSSIExprMissingTerm
	}
	return ssiCompare{op: tok.kind, left: left, right: right}, nil
}

func (p *ssiParser) parseString() ssiString {
	var words ssiString
	for {
		tok, ok := p.peek()
		if !ok || tok.kind != ssiTokString {
			return words
		}
		words = append(words, tok.text)
		p.pos++
	}
}
