package internal

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ExprTokenType represents the type of an expression token
type ExprTokenType string

// Expression token type constants
const (
	ExprTokenTypeIdentifier ExprTokenType = "IDENT"
	ExprTokenTypeString     ExprTokenType = "STRING"
	ExprTokenTypeNumber     ExprTokenType = "NUMBER"
	ExprTokenTypeBool       ExprTokenType = "BOOL"
	ExprTokenTypeNil        ExprTokenType = "NIL"
	ExprTokenTypeDot        ExprTokenType = "DOT"
	ExprTokenTypeLBracket   ExprTokenType = "LBRACKET"
	ExprTokenTypeRBracket   ExprTokenType = "RBRACKET"
	ExprTokenTypePipe       ExprTokenType = "PIPE"
	ExprTokenTypeColon      ExprTokenType = "COLON"
	ExprTokenTypeComma      ExprTokenType = "COMMA"
	ExprTokenTypeEOF        ExprTokenType = "EOF"
)

// ExprToken represents a token in an expression
type ExprToken struct {
	Type    ExprTokenType
	Value   string
	Pos     int
	Literal any // Parsed value for literals (string, int, float64, bool, nil)
}

// String returns the string representation of the token
func (t ExprToken) String() string {
	if t.Value != "" {
		return fmt.Sprintf("%s(%s)", t.Type, t.Value)
	}
	return string(t.Type)
}

// ExprTokenizer tokenizes expression strings
type ExprTokenizer struct {
	input    string
	pos      int
	len      int
	afterDot bool // A number directly after '.' is a path index, never a decimal
}

// NewExprTokenizer creates a new expression tokenizer
func NewExprTokenizer(input string) *ExprTokenizer {
	return &ExprTokenizer{
		input: input,
		len:   len(input),
	}
}

// Tokenize converts the input string into a slice of tokens
func (t *ExprTokenizer) Tokenize() ([]ExprToken, error) {
	var tokens []ExprToken

	for {
		t.skipWhitespace()

		if t.pos >= t.len {
			tokens = append(tokens, ExprToken{Type: ExprTokenTypeEOF, Pos: t.pos})
			break
		}

		token, err := t.nextToken()
		if err != nil {
			return nil, err
		}
		t.afterDot = token.Type == ExprTokenTypeDot
		tokens = append(tokens, token)
	}

	return tokens, nil
}

// nextToken reads the next token from the input
func (t *ExprTokenizer) nextToken() (ExprToken, error) {
	startPos := t.pos
	ch := t.peek()

	if ch == CharDoubleQuote || ch == CharSingleQuote {
		return t.readString()
	}

	if isDigit(ch) || (ch == CharMinus && t.pos+1 < t.len && isDigit(t.input[t.pos+1])) {
		return t.readNumber()
	}

	if unicode.IsLetter(rune(ch)) || ch == '_' {
		return t.readIdentifier(), nil
	}

	t.pos++
	switch ch {
	case CharDot:
		return ExprToken{Type: ExprTokenTypeDot, Value: ".", Pos: startPos}, nil
	case CharLBracket:
		return ExprToken{Type: ExprTokenTypeLBracket, Value: "[", Pos: startPos}, nil
	case CharRBracket:
		return ExprToken{Type: ExprTokenTypeRBracket, Value: "]", Pos: startPos}, nil
	case CharPipe:
		return ExprToken{Type: ExprTokenTypePipe, Value: "|", Pos: startPos}, nil
	case CharColon:
		return ExprToken{Type: ExprTokenTypeColon, Value: ":", Pos: startPos}, nil
	case CharComma:
		return ExprToken{Type: ExprTokenTypeComma, Value: ",", Pos: startPos}, nil
	}

	return ExprToken{}, NewExprError(ErrMsgExprUnexpectedChar, startPos, string(ch))
}

// readString reads a quoted string literal
func (t *ExprTokenizer) readString() (ExprToken, error) {
	startPos := t.pos
	quote := t.input[t.pos]
	t.pos++

	var sb strings.Builder
	for t.pos < t.len {
		ch := t.input[t.pos]
		if ch == quote {
			t.pos++
			value := sb.String()
			return ExprToken{
				Type:    ExprTokenTypeString,
				Value:   value,
				Pos:     startPos,
				Literal: value,
			}, nil
		}
		if ch == CharBackslash && t.pos+1 < t.len {
			t.pos++
			switch escaped := t.input[t.pos]; escaped {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				sb.WriteByte(escaped)
			}
			t.pos++
			continue
		}
		sb.WriteByte(ch)
		t.pos++
	}

	return ExprToken{}, NewExprError(ErrMsgUnterminatedStr, startPos, "")
}

// readNumber reads an integer or decimal literal with an optional sign
func (t *ExprTokenizer) readNumber() (ExprToken, error) {
	startPos := t.pos
	if t.input[t.pos] == CharMinus {
		t.pos++
	}
	hasDecimal := false

	for t.pos < t.len {
		ch := t.input[t.pos]
		if ch == CharDot && !hasDecimal && !t.afterDot && t.pos+1 < t.len && isDigit(t.input[t.pos+1]) {
			hasDecimal = true
			t.pos++
			continue
		}
		if !isDigit(ch) {
			break
		}
		t.pos++
	}

	value := t.input[startPos:t.pos]
	if hasDecimal {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return ExprToken{}, NewExprError(ErrMsgExprInvalidNumber, startPos, value)
		}
		return ExprToken{Type: ExprTokenTypeNumber, Value: value, Pos: startPos, Literal: f}, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return ExprToken{}, NewExprError(ErrMsgExprInvalidNumber, startPos, value)
	}
	return ExprToken{Type: ExprTokenTypeNumber, Value: value, Pos: startPos, Literal: n}, nil
}

// readIdentifier reads an identifier or keyword
func (t *ExprTokenizer) readIdentifier() ExprToken {
	startPos := t.pos

	for t.pos < t.len {
		ch := rune(t.input[t.pos])
		if !unicode.IsLetter(ch) && !unicode.IsDigit(ch) && ch != '_' {
			break
		}
		t.pos++
	}

	value := t.input[startPos:t.pos]
	if t.afterDot {
		return ExprToken{Type: ExprTokenTypeIdentifier, Value: value, Pos: startPos}
	}

	switch value {
	case KeywordTrue, KeywordTrueLower:
		return ExprToken{Type: ExprTokenTypeBool, Value: value, Pos: startPos, Literal: true}
	case KeywordFalse, KeywordFalseLower:
		return ExprToken{Type: ExprTokenTypeBool, Value: value, Pos: startPos, Literal: false}
	case KeywordNone, KeywordNoneLower, KeywordNil:
		return ExprToken{Type: ExprTokenTypeNil, Value: value, Pos: startPos}
	}

	return ExprToken{Type: ExprTokenTypeIdentifier, Value: value, Pos: startPos}
}

// peek returns the current character without advancing
func (t *ExprTokenizer) peek() byte {
	if t.pos >= t.len {
		return 0
	}
	return t.input[t.pos]
}

// skipWhitespace skips whitespace characters
func (t *ExprTokenizer) skipWhitespace() {
	for t.pos < t.len && unicode.IsSpace(rune(t.input[t.pos])) {
		t.pos++
	}
}

// ExprError represents a malformed expression. Offset is relative to the
// start of the expression text.
type ExprError struct {
	Message string
	Offset  int
	Detail  string
}

// NewExprError creates a new expression error
func NewExprError(message string, offset int, detail string) *ExprError {
	return &ExprError{
		Message: message,
		Offset:  offset,
		Detail:  detail,
	}
}

// Error implements the error interface
func (e *ExprError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s at expression offset %d: %s", e.Message, e.Offset, e.Detail)
	}
	return fmt.Sprintf("%s at expression offset %d", e.Message, e.Offset)
}

// Unwrap classifies expression errors as syntax errors
func (e *ExprError) Unwrap() error {
	return ErrSyntax
}

// Expression error messages
const (
	ErrMsgExprUnexpectedChar  = "unexpected character"
	ErrMsgExprInvalidNumber   = "invalid number format"
	ErrMsgExprUnexpectedToken = "unexpected token"
	ErrMsgExprEmpty           = "empty expression"
	ErrMsgExprExpectedName    = "expected identifier"
	ErrMsgExprExpectedClose   = "expected ']'"
	ErrMsgExprExpectedPrimary = "expected literal or variable"
)
