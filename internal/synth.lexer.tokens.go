package internal

import "fmt"

// Position represents a location in the source template
type Position struct {
	Offset int // Byte offset from start
	Line   int // 1-indexed line number
	Column int // 1-indexed column number
}

// String returns a human-readable position string
func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d (offset %d)", p.Line, p.Column, p.Offset)
}

// Token represents a lexical token produced by the lexer.
// For TAG_OPEN tokens Value holds the tag name and Args the raw argument text;
// for INTERP_START tokens Value holds the raw expression text.
type Token struct {
	Type     TokenType
	Value    string
	Args     string
	Position Position
}

// String returns a human-readable representation of the token
func (t Token) String() string {
	if t.Args != "" {
		return fmt.Sprintf("Token{%s: %q %q @ %s}", t.Type, t.Value, t.Args, t.Position)
	}
	if t.Value == "" {
		return fmt.Sprintf("Token{%s @ %s}", t.Type, t.Position)
	}
	return fmt.Sprintf("Token{%s: %q @ %s}", t.Type, t.Value, t.Position)
}

// IsEOF returns true if this is an end-of-file token
func (t Token) IsEOF() bool {
	return t.Type == TokenTypeEOF
}

// NewTextToken creates a text token with the given content
func NewTextToken(content string, pos Position) Token {
	return Token{
		Type:     TokenTypeText,
		Value:    content,
		Position: pos,
	}
}

// NewInterpStartToken creates an interpolation start token carrying the expression
func NewInterpStartToken(expr string, pos Position) Token {
	return Token{
		Type:     TokenTypeInterpStart,
		Value:    expr,
		Position: pos,
	}
}

// NewTagOpenToken creates a tag open token
func NewTagOpenToken(name, args string, pos Position) Token {
	return Token{
		Type:     TokenTypeTagOpen,
		Value:    name,
		Args:     args,
		Position: pos,
	}
}

// NewMarkerToken creates a token without content (closers and comments)
func NewMarkerToken(tokenType TokenType, pos Position) Token {
	return Token{
		Type:     tokenType,
		Position: pos,
	}
}

// NewEOFToken creates an EOF token at the given position
func NewEOFToken(pos Position) Token {
	return NewMarkerToken(TokenTypeEOF, pos)
}
