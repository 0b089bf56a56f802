package internal

// FilterResolver resolves filter names while an expression is parsed
type FilterResolver interface {
	ResolveFilter(name string) (*FilterSpec, error)
}

// ExprParser parses expression tokens into an AST.
//
//	pipeline      := primary ('|' filter-call)*
//	filter-call   := identifier (':' primary (',' primary)*)?
//	primary       := literal | variable-path
//	variable-path := identifier ('.' identifier | '.' integer | '[' pipeline ']')*
type ExprParser struct {
	tokens  []ExprToken
	pos     int
	filters FilterResolver // nil disables the pipeline form
	at      Position       // Source position of the enclosing construct
}

// NewExprParser creates a new expression parser. A nil resolver restricts
// the grammar to a single primary.
func NewExprParser(tokens []ExprToken, filters FilterResolver, at Position) *ExprParser {
	return &ExprParser{
		tokens:  tokens,
		filters: filters,
		at:      at,
	}
}

// Parse parses the expression and returns the root AST node
func (p *ExprParser) Parse() (ExprNode, error) {
	if p.isAtEnd() {
		return nil, NewExprError(ErrMsgExprEmpty, 0, "")
	}

	var (
		node ExprNode
		err  error
	)
	if p.filters != nil {
		node, err = p.parsePipeline()
	} else {
		node, err = p.parsePrimary()
	}
	if err != nil {
		return nil, err
	}

	if !p.isAtEnd() {
		if p.filters == nil && p.check(ExprTokenTypePipe) {
			return nil, NewExprError(ErrMsgFiltersInTagArgs, p.peek().Pos, "")
		}
		return nil, NewExprError(ErrMsgExprUnexpectedToken, p.peek().Pos, p.peek().Value)
	}

	return node, nil
}

// parsePipeline parses a primary followed by any number of filter calls
func (p *ExprParser) parsePipeline() (ExprNode, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for p.match(ExprTokenTypePipe) {
		if !p.check(ExprTokenTypeIdentifier) {
			return nil, NewExprError(ErrMsgExprExpectedName, p.currentPos(), p.peek().Value)
		}
		name := p.advance().Value

		spec, err := p.filters.ResolveFilter(name)
		if err != nil {
			return nil, err
		}

		var args []ExprNode
		if p.match(ExprTokenTypeColon) {
			for {
				arg, err := p.parsePrimary()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if !p.match(ExprTokenTypeComma) {
					break
				}
			}
		}

		node = &FilterNode{Inner: node, Name: name, Filter: spec, Args: args, Pos: p.at}
	}

	return node, nil
}

// parsePrimary parses a literal or a variable path
func (p *ExprParser) parsePrimary() (ExprNode, error) {
	switch {
	case p.match(ExprTokenTypeString), p.match(ExprTokenTypeNumber), p.match(ExprTokenTypeBool):
		return NewLiteral(p.previous().Literal), nil
	case p.match(ExprTokenTypeNil):
		return NewLiteral(nil), nil
	case p.match(ExprTokenTypeIdentifier):
		return p.finishPath(p.previous().Value)
	}

	if p.isAtEnd() {
		return nil, NewExprError(ErrMsgExprExpectedPrimary, p.currentPos(), "")
	}
	return nil, NewExprError(ErrMsgExprExpectedPrimary, p.peek().Pos, p.peek().Value)
}

// finishPath parses the member and subscript accessors after a root name
func (p *ExprParser) finishPath(root string) (ExprNode, error) {
	path := NewPath(root, p.at)

	for {
		switch {
		case p.match(ExprTokenTypeDot):
			if !p.check(ExprTokenTypeIdentifier) && !p.check(ExprTokenTypeNumber) {
				return nil, NewExprError(ErrMsgExprExpectedName, p.currentPos(), p.peek().Value)
			}
			path.Segments = append(path.Segments, PathSegment{Name: p.advance().Value})

		case p.match(ExprTokenTypeLBracket):
			var (
				index ExprNode
				err   error
			)
			if p.filters != nil {
				index, err = p.parsePipeline()
			} else {
				index, err = p.parsePrimary()
			}
			if err != nil {
				return nil, err
			}
			if !p.match(ExprTokenTypeRBracket) {
				return nil, NewExprError(ErrMsgExprExpectedClose, p.currentPos(), p.peek().Value)
			}
			path.Segments = append(path.Segments, PathSegment{Index: index})

		default:
			return path, nil
		}
	}
}

// Helper methods

// match checks if the current token matches and advances if so
func (p *ExprParser) match(tokenType ExprTokenType) bool {
	if p.check(tokenType) {
		p.advance()
		return true
	}
	return false
}

// check returns true if the current token is of the given type
func (p *ExprParser) check(tokenType ExprTokenType) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Type == tokenType
}

// advance moves to the next token and returns the consumed one
func (p *ExprParser) advance() ExprToken {
	if !p.isAtEnd() {
		p.pos++
	}
	return p.previous()
}

// peek returns the current token
func (p *ExprParser) peek() ExprToken {
	if p.pos >= len(p.tokens) {
		return ExprToken{Type: ExprTokenTypeEOF, Pos: p.currentPos()}
	}
	return p.tokens[p.pos]
}

// previous returns the previous token
func (p *ExprParser) previous() ExprToken {
	if p.pos == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.pos-1]
}

// isAtEnd returns true if we've consumed all tokens
func (p *ExprParser) isAtEnd() bool {
	return p.pos >= len(p.tokens) || p.tokens[p.pos].Type == ExprTokenTypeEOF
}

// currentPos returns the current offset for error reporting
func (p *ExprParser) currentPos() int {
	if p.pos >= len(p.tokens) {
		if len(p.tokens) > 0 {
			return p.tokens[len(p.tokens)-1].Pos
		}
		return 0
	}
	return p.tokens[p.pos].Pos
}

// ParseExpression tokenizes and parses a full filter pipeline, resolving
// every filter through filters.
func ParseExpression(expr string, filters FilterResolver, at Position) (ExprNode, error) {
	if filters == nil {
		filters = noFilters{}
	}
	tokens, err := NewExprTokenizer(expr).Tokenize()
	if err != nil {
		return nil, err
	}
	return NewExprParser(tokens, filters, at).Parse()
}

// ParsePrimary tokenizes and parses a single literal or variable path
func ParsePrimary(expr string, at Position) (ExprNode, error) {
	tokens, err := NewExprTokenizer(expr).Tokenize()
	if err != nil {
		return nil, err
	}
	return NewExprParser(tokens, nil, at).Parse()
}

// noFilters rejects every filter name
type noFilters struct{}

func (noFilters) ResolveFilter(name string) (*FilterSpec, error) {
	return nil, &LookupError{Kind: ErrUnknownFilter, Message: ErrMsgFilterNotFound, Name: name}
}
