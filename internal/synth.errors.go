package internal

import (
	"errors"
	"fmt"
)

// Error kind sentinels. Every error produced by this package wraps exactly one
// of them so callers can classify failures with errors.Is.
var (
	ErrSyntax            = errors.New("syntax error")
	ErrLookup            = errors.New("lookup error")
	ErrUndefinedVariable = fmt.Errorf("undefined variable: %w", ErrLookup)
	ErrUnknownFilter     = fmt.Errorf("unknown filter: %w", ErrLookup)
	ErrUnbalancedBlock   = errors.New("unbalanced block")
	ErrUnexpectedTag     = errors.New("unexpected tag")
	ErrRender            = errors.New("render error")
)

// LexerError represents a malformed delimiter in the template source
type LexerError struct {
	Message  string
	Position Position
}

func (e *LexerError) Error() string {
	return fmt.Sprintf(ErrFmtWithPosition, e.Message, e.Position.String())
}

// Unwrap classifies lexer errors as syntax errors
func (e *LexerError) Unwrap() error {
	return ErrSyntax
}

// LookupError reports an identifier (library, tag, filter, variable or
// template) that could not be resolved.
type LookupError struct {
	Kind     error // ErrLookup, ErrUnknownFilter or ErrUndefinedVariable
	Message  string
	Name     string
	Position Position
	Cause    error
}

// NewLookupError creates a lookup error for the given missing identifier
func NewLookupError(message, name string) *LookupError {
	return &LookupError{Kind: ErrLookup, Message: message, Name: name}
}

func (e *LookupError) Error() string {
	msg := fmt.Sprintf(ErrFmtWithName, e.Message, e.Name)
	if e.Position.Line > 0 {
		msg = fmt.Sprintf(ErrFmtNameAtPosition, e.Message, e.Name, e.Position.String())
	}
	if e.Cause != nil {
		return fmt.Sprintf(ErrFmtWithCause, msg, e.Cause)
	}
	return msg
}

// Unwrap returns the kind sentinel and, when present, the underlying cause
func (e *LookupError) Unwrap() []error {
	kind := e.Kind
	if kind == nil {
		kind = ErrLookup
	}
	if e.Cause != nil {
		return []error{kind, e.Cause}
	}
	return []error{kind}
}

// withPosition returns a copy of the error anchored at pos
func (e *LookupError) withPosition(pos Position) *LookupError {
	cp := *e
	cp.Position = pos
	return &cp
}

// ParserError represents a structural template error found while building the AST
type ParserError struct {
	Kind     error // ErrSyntax, ErrUnbalancedBlock or ErrUnexpectedTag
	Message  string
	TagName  string
	Position Position
	Cause    error
}

func (e *ParserError) Error() string {
	msg := e.Message
	if e.TagName != StringValueEmpty {
		msg = fmt.Sprintf(ErrFmtWithName, e.Message, e.TagName)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf(ErrFmtWithCause, msg, e.Cause)
	}
	return fmt.Sprintf(ErrFmtWithPosition, msg, e.Position.String())
}

// Unwrap returns the kind sentinel and, when present, the underlying cause
func (e *ParserError) Unwrap() []error {
	kind := e.Kind
	if kind == nil {
		kind = ErrSyntax
	}
	if e.Cause != nil {
		return []error{kind, e.Cause}
	}
	return []error{kind}
}

// RenderError represents a failure raised by a tag's or filter's own logic
type RenderError struct {
	Message  string
	Name     string // tag or filter name
	Position Position
	Cause    error
}

// NewRenderError creates a new render error with a cause
func NewRenderError(message, name string, pos Position, cause error) *RenderError {
	return &RenderError{
		Message:  message,
		Name:     name,
		Position: pos,
		Cause:    cause,
	}
}

func (e *RenderError) Error() string {
	msg := e.Message
	if e.Name != StringValueEmpty {
		msg = fmt.Sprintf(ErrFmtWithName, e.Message, e.Name)
	}
	if e.Position.Line > 0 {
		msg = fmt.Sprintf(ErrFmtWithPosition, msg, e.Position.String())
	}
	if e.Cause != nil {
		return fmt.Sprintf(ErrFmtWithCause, msg, e.Cause)
	}
	return msg
}

// Unwrap returns ErrRender and the underlying cause. A cause that is itself a
// classified lookup failure (an undefined variable inside a tag, for example)
// keeps its own kind reachable through errors.Is.
func (e *RenderError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrRender, e.Cause}
	}
	return []error{ErrRender}
}

// Error message constants
const (
	ErrMsgUnterminatedDelim = "unterminated delimiter"
	ErrMsgEmptyTag          = "tag name missing"
	ErrMsgUnterminatedStr   = "unterminated string literal"
	ErrMsgLibraryNotFound   = "library not found"
	ErrMsgNilLibrary        = "loader returned no library"
	ErrMsgNoLoader          = "no library loader configured"
	ErrMsgTagNotFound       = "unknown tag"
	ErrMsgFilterNotFound    = "unknown filter"
	ErrMsgNameNotInLibrary  = "name not found in library"
	ErrMsgVariableUndefined = "undefined variable"
	ErrMsgTemplateNotFound  = "template not found"
	ErrMsgUnclosedBlock     = "block not closed before end of input"
	ErrMsgMismatchedEndTag  = "end tag closes an outer block"
	ErrMsgOuterIntermediate = "tag continues an outer block"
	ErrMsgStrayTag          = "tag used outside of its block"
	ErrMsgInvalidArgument   = "invalid tag argument"
	ErrMsgFiltersInTagArgs  = "filters are not allowed in tag arguments"
	ErrMsgLoadSyntax        = "invalid load directive"
	ErrMsgTagShapeRejected  = "tag rejected its arguments or segments"
	ErrMsgInvalidInterp     = "invalid interpolation"
	ErrMsgTagFailed         = "tag render failed"
	ErrMsgFilterFailed      = "filter failed"
	ErrMsgMaxDepthExceeded  = "maximum render depth exceeded"
	ErrMsgInvalidSpec       = "invalid tag or filter specification"
	ErrMsgNotIndexable      = "value is not indexable"
	ErrMsgIndexOutOfRange   = "index out of range"
	ErrMsgInvalidIndex      = "invalid index"
	ErrMsgNoRenderer        = "context is not bound to a renderer"
	ErrMsgScopeUnderflow    = "cannot pop the base scope"
	ErrMsgUnknownNodeType   = "unknown node type"
	ErrMsgInvalidDelimiter  = "invalid delimiter configuration"
)
