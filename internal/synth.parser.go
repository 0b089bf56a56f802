package internal

import (
	"errors"
	"strings"

	"go.uber.org/zap"
)

// ParserConfig holds dialect-level parser settings
type ParserConfig struct {
	LoadDirective string // Tag name of the library load directive; empty disables it
}

// DefaultParserConfig returns the parser configuration shared by the builtin dialects
func DefaultParserConfig() ParserConfig {
	return ParserConfig{LoadDirective: DirectiveLoad}
}

// frame is an open block awaiting its end tag
type frame struct {
	spec *TagSpec
	pos  Position
}

// Parser produces an AST from a token stream, resolving tags and filters
// through its session as it goes.
type Parser struct {
	tokens  []Token
	pos     int
	session *Session
	config  ParserConfig
	frames  []frame
	logger  *zap.Logger
}

// NewParser creates a new parser for the given token stream
func NewParser(tokens []Token, session *Session, config ParserConfig, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	if session == nil {
		session = NewSession(nil, logger)
	}
	logger.Debug(LogMsgParserCreated, zap.Int(LogFieldTokens, len(tokens)))
	return &Parser{
		tokens:  tokens,
		session: session,
		config:  config,
		logger:  logger,
	}
}

// Parse produces the AST root node from the token stream. Any error aborts
// the parse; no partial tree is returned.
func (p *Parser) Parse() (*RootNode, error) {
	p.logger.Debug(LogMsgParserStart)

	nodes, _, err := p.parseBody()
	if err != nil {
		return nil, err
	}

	root := &RootNode{Children: nodes}
	p.logger.Debug(LogMsgParserEnd, zap.Int(LogFieldNodes, CountNodes(nodes)))
	return root, nil
}

// parseBody parses nodes until end of input or a tag that terminates the
// innermost open frame. The terminating TAG_OPEN token (or EOF) is returned.
func (p *Parser) parseBody() ([]Node, Token, error) {
	var nodes []Node

	for {
		tok := p.advance()

		switch tok.Type {
		case TokenTypeEOF:
			return nodes, tok, nil

		case TokenTypeText:
			nodes = append(nodes, NewTextNode(tok.Value, tok.Position))

		case TokenTypeComment:
			continue

		case TokenTypeInterpStart:
			node, err := p.parseInterpolation(tok)
			if err != nil {
				return nil, tok, err
			}
			nodes = append(nodes, node)

		case TokenTypeTagOpen:
			if err := p.expectClose(TokenTypeTagClose, tok); err != nil {
				return nil, tok, err
			}
			if p.terminatesInnermost(tok.Value) {
				return nodes, tok, nil
			}
			node, err := p.parseTag(tok)
			if err != nil {
				return nil, tok, err
			}
			if node != nil {
				nodes = append(nodes, node)
			}

		default:
			return nil, tok, &ParserError{Kind: ErrSyntax, Message: ErrMsgUnexpectedToken, TagName: string(tok.Type), Position: tok.Position}
		}
	}
}

// parseInterpolation parses the expression carried by an INTERP_START token
func (p *Parser) parseInterpolation(tok Token) (Node, error) {
	if err := p.expectClose(TokenTypeInterpEnd, tok); err != nil {
		return nil, err
	}
	expr, err := ParseExpression(tok.Value, p.session, tok.Position)
	if err != nil {
		return nil, p.wrapError(err, ErrMsgInvalidInterp, tok.Value, tok.Position)
	}
	return NewInterpolationNode(expr, tok.Position), nil
}

// parseTag resolves and parses one tag invocation, including any body.
// The load directive is handled here and produces no node.
func (p *Parser) parseTag(tok Token) (Node, error) {
	name := tok.Value

	if p.config.LoadDirective != "" && name == p.config.LoadDirective {
		return nil, p.parseLoad(tok)
	}

	for i := len(p.frames) - 2; i >= 0; i-- {
		outer := p.frames[i].spec
		if outer.IsEndTag(name) || outer.IsIntermediate(name) {
			inner := p.frames[len(p.frames)-1]
			msg := ErrMsgMismatchedEndTag
			if outer.IsIntermediate(name) {
				msg = ErrMsgOuterIntermediate
			}
			return nil, &ParserError{
				Kind:     ErrUnbalancedBlock,
				Message:  msg,
				TagName:  inner.spec.Name,
				Position: inner.pos,
			}
		}
	}

	spec, ok := p.session.LookupTag(name)
	if !ok {
		if p.session.IsReserved(name) {
			return nil, &ParserError{Kind: ErrUnexpectedTag, Message: ErrMsgStrayTag, TagName: name, Position: tok.Position}
		}
		return nil, &LookupError{Kind: ErrLookup, Message: ErrMsgTagNotFound, Name: name, Position: tok.Position}
	}

	first, err := p.newSegment(tok)
	if err != nil {
		return nil, err
	}
	segments := []Segment{first}

	if spec.Arity.HasBody() {
		segments, err = p.parseSegments(spec, tok, segments)
		if err != nil {
			return nil, err
		}
	}

	render, err := spec.Factory(segments)
	if err != nil {
		return nil, &ParserError{Kind: kindOf(err), Message: ErrMsgTagShapeRejected, TagName: name, Position: tok.Position, Cause: err}
	}
	if render == nil {
		return nil, &ParserError{Kind: ErrSyntax, Message: ErrMsgTagShapeRejected, TagName: name, Position: tok.Position}
	}
	return NewTagNode(spec, segments, render, tok.Position), nil
}

// parseSegments fills the bodies of a block or variadic tag. The first
// segment's body runs to the first intermediate or end tag; each
// intermediate starts a new segment.
func (p *Parser) parseSegments(spec *TagSpec, open Token, segments []Segment) ([]Segment, error) {
	p.frames = append(p.frames, frame{spec: spec, pos: open.Position})
	defer func() { p.frames = p.frames[:len(p.frames)-1] }()

	for {
		body, stop, err := p.parseBody()
		if err != nil {
			return nil, err
		}
		segments[len(segments)-1].Body = body

		if stop.IsEOF() {
			return nil, &ParserError{
				Kind:     ErrUnbalancedBlock,
				Message:  ErrMsgUnclosedBlock,
				TagName:  spec.Name,
				Position: open.Position,
			}
		}
		if spec.IsEndTag(stop.Value) {
			return segments, nil
		}

		next, err := p.newSegment(stop)
		if err != nil {
			return nil, err
		}
		segments = append(segments, next)
	}
}

// newSegment parses the arguments of an opening or intermediate tag
func (p *Parser) newSegment(tok Token) (Segment, error) {
	args, err := ParseArguments(tok.Args, tok.Position)
	if err != nil {
		return Segment{}, p.wrapError(err, ErrMsgInvalidArgument, tok.Value, tok.Position)
	}
	return Segment{
		Name: tok.Value,
		Args: args,
		Raw:  tok.Args,
		Pos:  tok.Position,
	}, nil
}

// parseLoad handles "load lib ..." and "load name ... from lib"
func (p *Parser) parseLoad(tok Token) error {
	pieces, err := SplitArguments(tok.Args)
	if err != nil || len(pieces) == 0 {
		return &ParserError{Kind: ErrSyntax, Message: ErrMsgLoadSyntax, TagName: tok.Value, Position: tok.Position, Cause: err}
	}
	for i, piece := range pieces {
		pieces[i] = strings.Trim(piece, `"'`)
	}

	if n := len(pieces); n >= 2 && pieces[n-2] == DirectiveLoadFrom {
		if n == 2 {
			return &ParserError{Kind: ErrSyntax, Message: ErrMsgLoadSyntax, TagName: tok.Value, Position: tok.Position}
		}
		if err := p.session.Load(pieces[n-1], pieces[:n-2]...); err != nil {
			return p.wrapError(err, ErrMsgLoadSyntax, tok.Value, tok.Position)
		}
		return nil
	}

	for _, library := range pieces {
		if err := p.session.Load(library); err != nil {
			return p.wrapError(err, ErrMsgLoadSyntax, tok.Value, tok.Position)
		}
	}
	return nil
}

// terminatesInnermost reports whether name ends or splits the innermost open frame
func (p *Parser) terminatesInnermost(name string) bool {
	if len(p.frames) == 0 {
		return false
	}
	spec := p.frames[len(p.frames)-1].spec
	return spec.IsEndTag(name) || spec.IsIntermediate(name)
}

// expectClose consumes the closer paired with an opening token
func (p *Parser) expectClose(closer TokenType, open Token) error {
	if p.current().Type != closer {
		return &ParserError{Kind: ErrSyntax, Message: ErrMsgUnexpectedToken, TagName: string(p.current().Type), Position: open.Position}
	}
	p.advance()
	return nil
}

// wrapError anchors lookup errors at pos and wraps anything else as a
// parser error of the matching kind.
func (p *Parser) wrapError(err error, message, name string, pos Position) error {
	var lookupErr *LookupError
	if errors.As(err, &lookupErr) {
		if lookupErr.Position.Line == 0 {
			return lookupErr.withPosition(pos)
		}
		return lookupErr
	}
	var parserErr *ParserError
	if errors.As(err, &parserErr) {
		return parserErr
	}
	return &ParserError{Kind: kindOf(err), Message: message, TagName: name, Position: pos, Cause: err}
}

// kindOf returns the error kind sentinel carried by err, defaulting to ErrSyntax
func kindOf(err error) error {
	for _, kind := range []error{ErrUnbalancedBlock, ErrUnexpectedTag, ErrUndefinedVariable, ErrUnknownFilter, ErrLookup, ErrRender} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrSyntax
}

// current returns the current token without advancing
func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return NewEOFToken(Position{})
	}
	return p.tokens[p.pos]
}

// advance consumes and returns the current token; EOF is never consumed
func (p *Parser) advance() Token {
	tok := p.current()
	if !tok.IsEOF() {
		p.pos++
	}
	return tok
}

// Parser error message constants
const (
	ErrMsgUnexpectedToken = "unexpected token"
)

// ParseSource tokenizes and parses source with the given dialect settings
func ParseSource(source string, lexer LexerConfig, parser ParserConfig, session *Session, logger *zap.Logger) (*RootNode, error) {
	tokens, err := NewLexerWithConfig(source, lexer, logger).Tokenize()
	if err != nil {
		return nil, err
	}
	return NewParser(tokens, session, parser, logger).Parse()
}
