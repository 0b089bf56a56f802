package internal

import (
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Delimiter describes one delimiter pair recognised by a dialect
type Delimiter struct {
	Open       string
	Close      string
	Kind       DelimiterKind
	NamePrefix string // Prepended to tag names opened by this delimiter (e.g. "end")
}

// LexerConfig holds the delimiter set of a dialect
type LexerConfig struct {
	Delimiters []Delimiter
	FoldCase   bool // Match delimiters case-insensitively and lower tag names
}

// Validate checks that every delimiter has non-empty open and close text
func (c LexerConfig) Validate() error {
	if len(c.Delimiters) == 0 {
		return &LexerError{Message: ErrMsgInvalidDelimiter}
	}
	for _, d := range c.Delimiters {
		if d.Open == "" || d.Close == "" {
			return &LexerError{Message: ErrMsgInvalidDelimiter}
		}
	}
	return nil
}

// DjangoLexerConfig returns the Django-like delimiter set
func DjangoLexerConfig() LexerConfig {
	return LexerConfig{
		Delimiters: []Delimiter{
			{Open: StrDjangoInterpOpen, Close: StrDjangoInterpClose, Kind: DelimiterInterpolation},
			{Open: StrDjangoTagOpen, Close: StrDjangoTagClose, Kind: DelimiterTag},
			{Open: StrDjangoCommentOpen, Close: StrDjangoCommentClose, Kind: DelimiterComment},
		},
	}
}

// SSILexerConfig returns the server-side-include delimiter set
func SSILexerConfig() LexerConfig {
	return LexerConfig{
		Delimiters: []Delimiter{
			{Open: StrSSITagOpen, Close: StrSSITagClose, Kind: DelimiterTag},
		},
	}
}

// TmplLexerConfig returns the HTML::Template style delimiter set
func TmplLexerConfig() LexerConfig {
	return LexerConfig{
		Delimiters: []Delimiter{
			{Open: StrTmplEndTagOpen, Close: StrTmplTagClose, Kind: DelimiterTag, NamePrefix: StrTmplEndTagPrefix},
			{Open: StrTmplTagOpen, Close: StrTmplTagClose, Kind: DelimiterTag},
		},
		FoldCase: true,
	}
}

// Lexer tokenizes template source into a token stream
type Lexer struct {
	source     string
	config     LexerConfig
	delimiters []Delimiter // Longest opener first
	pos        int         // Current byte position
	line       int         // Current line (1-indexed)
	column     int         // Current column (1-indexed)
	logger     *zap.Logger
}

// NewLexer creates a lexer for the Django-like dialect
func NewLexer(source string, logger *zap.Logger) *Lexer {
	return NewLexerWithConfig(source, DjangoLexerConfig(), logger)
}

// NewLexerWithConfig creates a lexer with a custom delimiter set
func NewLexerWithConfig(source string, config LexerConfig, logger *zap.Logger) *Lexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	delims := make([]Delimiter, len(config.Delimiters))
	copy(delims, config.Delimiters)
	sort.SliceStable(delims, func(i, j int) bool {
		return len(delims[i].Open) > len(delims[j].Open)
	})
	logger.Debug(LogMsgLexerCreated, zap.Int(LogFieldSource, len(source)))
	return &Lexer{
		source:     source,
		config:     config,
		delimiters: delims,
		line:       1,
		column:     1,
		logger:     logger,
	}
}

// Tokenize processes the source and returns a token stream terminated by EOF
func (l *Lexer) Tokenize() ([]Token, error) {
	l.logger.Debug(LogMsgTokenizerStart)
	var tokens []Token

	for !l.isAtEnd() {
		if d, ok := l.matchDelimiter(); ok {
			delimTokens, err := l.scanDelimited(d)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, delimTokens...)
			continue
		}

		if text := l.scanText(); text.Value != "" {
			tokens = append(tokens, text)
		}
	}

	tokens = append(tokens, NewEOFToken(l.currentPosition()))
	l.logger.Debug(LogMsgTokenizerEnd, zap.Int(LogFieldTokens, len(tokens)))
	return tokens, nil
}

// scanText scans literal text up to the next opening delimiter
func (l *Lexer) scanText() Token {
	startPos := l.currentPosition()
	start := l.pos
	for !l.isAtEnd() {
		if _, ok := l.matchDelimiter(); ok {
			break
		}
		l.advance()
	}
	return NewTextToken(l.source[start:l.pos], startPos)
}

// scanDelimited consumes one delimiter pair and the content between them
func (l *Lexer) scanDelimited(d Delimiter) ([]Token, error) {
	startPos := l.currentPosition()
	l.advanceN(len(d.Open))
	contentStart := l.pos

	for {
		if l.isAtEnd() {
			return nil, &LexerError{Message: ErrMsgUnterminatedDelim, Position: startPos}
		}
		if l.matchStr(d.Close) {
			break
		}
		ch := l.peek()
		if d.Kind != DelimiterComment && (ch == CharDoubleQuote || ch == CharSingleQuote) {
			if !l.skipQuoted(ch) {
				return nil, &LexerError{Message: ErrMsgUnterminatedDelim, Position: startPos}
			}
			continue
		}
		l.advance()
	}

	content := l.source[contentStart:l.pos]
	closePos := l.currentPosition()
	l.advanceN(len(d.Close))

	switch d.Kind {
	case DelimiterInterpolation:
		return []Token{
			NewInterpStartToken(strings.TrimSpace(content), startPos),
			NewMarkerToken(TokenTypeInterpEnd, closePos),
		}, nil
	case DelimiterComment:
		return []Token{NewMarkerToken(TokenTypeComment, startPos)}, nil
	}

	name, args := splitTagContent(content)
	if name == "" {
		return nil, &LexerError{Message: ErrMsgEmptyTag, Position: startPos}
	}
	if l.config.FoldCase {
		name = strings.ToLower(name)
	}
	return []Token{
		NewTagOpenToken(d.NamePrefix+name, args, startPos),
		NewMarkerToken(TokenTypeTagClose, closePos),
	}, nil
}

// skipQuoted advances past a quoted run, reporting whether it was closed
func (l *Lexer) skipQuoted(quote byte) bool {
	l.advance()
	for !l.isAtEnd() {
		ch := l.advance()
		if ch == CharBackslash && !l.isAtEnd() {
			l.advance()
			continue
		}
		if ch == quote {
			return true
		}
	}
	return false
}

// splitTagContent separates a tag name from its raw argument text
func splitTagContent(content string) (string, string) {
	content = strings.TrimSpace(content)
	idx := strings.IndexAny(content, " \t\r\n")
	if idx < 0 {
		return content, ""
	}
	return content[:idx], strings.TrimSpace(content[idx+1:])
}

// matchDelimiter returns the opening delimiter at the current position
func (l *Lexer) matchDelimiter() (Delimiter, bool) {
	for _, d := range l.delimiters {
		if l.matchStr(d.Open) {
			return d, true
		}
	}
	return Delimiter{}, false
}

// currentPosition returns the current position
func (l *Lexer) currentPosition() Position {
	return Position{
		Offset: l.pos,
		Line:   l.line,
		Column: l.column,
	}
}

// isAtEnd returns true if we've reached the end of source
func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

// peek returns the current character without advancing
func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

// advance consumes and returns the current character
func (l *Lexer) advance() byte {
	if l.isAtEnd() {
		return 0
	}
	ch := l.source[l.pos]
	l.pos++
	if ch == CharNewline {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

// advanceN advances by n characters
func (l *Lexer) advanceN(n int) {
	for i := 0; i < n && !l.isAtEnd(); i++ {
		l.advance()
	}
}

// matchStr returns true if the remaining source starts with s
func (l *Lexer) matchStr(s string) bool {
	rest := l.source[l.pos:]
	if l.config.FoldCase {
		return len(rest) >= len(s) && strings.EqualFold(rest[:len(s)], s)
	}
	return strings.HasPrefix(rest, s)
}
