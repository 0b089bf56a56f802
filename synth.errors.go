package synth

import (
	"errors"
	"strconv"

	"github.com/itsatony/go-cuserr"
	"github.com/itsatony/go-synth/internal"
)

// Error kinds. Every error returned by the engine matches exactly one of
// ErrSyntax, ErrLookup, ErrUnbalancedBlock, ErrUnexpectedTag or ErrRender
// through errors.Is; ErrUndefinedVariable and ErrUnknownFilter refine
// ErrLookup.
var (
	ErrSyntax            = internal.ErrSyntax
	ErrLookup            = internal.ErrLookup
	ErrUndefinedVariable = internal.ErrUndefinedVariable
	ErrUnknownFilter     = internal.ErrUnknownFilter
	ErrUnbalancedBlock   = internal.ErrUnbalancedBlock
	ErrUnexpectedTag     = internal.ErrUnexpectedTag
	ErrRender            = internal.ErrRender
)

// Error message constants
const (
	ErrMsgSyntax             = "template syntax error"
	ErrMsgLookup             = "name could not be resolved"
	ErrMsgUnbalanced         = "unbalanced block"
	ErrMsgUnexpectedTag      = "unexpected tag"
	ErrMsgRender             = "template render failed"
	ErrMsgUnknownDialect     = "unknown dialect"
	ErrMsgDialectExists      = "dialect already registered"
	ErrMsgInvalidDialect     = "invalid dialect"
	ErrMsgInvalidMaxDepth    = "max depth must not be negative"
	ErrMsgTemplateNotFound   = "template not found"
	ErrMsgInvalidName        = "invalid template name"
	ErrMsgNoSource           = "no template source configured"
	ErrMsgSourceClosed       = "template source is closed"
	ErrMsgSourceFailed       = "template source failed"
	ErrMsgEmptyConnString    = "connection string is empty"
	ErrMsgConnectionFailed   = "database connection failed"
	ErrMsgMigrationFailed    = "database migration failed"
	ErrMsgTypeMismatch       = "type mismatch"
	ErrMsgNotANumber         = "value is not a number"
	ErrMsgNotASequence       = "value is not a sequence"
	ErrMsgMissingArgument    = "missing argument"
	ErrMsgTooManyArguments   = "too many arguments"
	ErrMsgBadCondition       = "invalid condition"
	ErrMsgBadLoop            = "invalid loop header"
	ErrMsgBadBranchOrder     = "branch out of order"
	ErrMsgRegexp             = "invalid regular expression"
	ErrMsgMarkdown           = "markdown conversion failed"
	ErrMsgUnknownSourceKind  = "unknown template source driver"
	ErrMsgSourceDriverExists = "template source driver already registered"
)

// Error codes
const (
	ErrCodeSyntax        = "SYNTH_SYNTAX"
	ErrCodeLookup        = "SYNTH_LOOKUP"
	ErrCodeUnbalanced    = "SYNTH_UNBALANCED"
	ErrCodeUnexpectedTag = "SYNTH_UNEXPECTED_TAG"
	ErrCodeRender        = "SYNTH_RENDER"
	ErrCodeConfig        = "SYNTH_CONFIG"
	ErrCodeSource        = "SYNTH_SOURCE"
)

// Error kind names stored under MetaKeyKind
const (
	KindNameSyntax            = "syntax"
	KindNameLookup            = "lookup"
	KindNameUndefinedVariable = "undefined_variable"
	KindNameUnknownFilter     = "unknown_filter"
	KindNameUnbalanced        = "unbalanced_block"
	KindNameUnexpectedTag     = "unexpected_tag"
	KindNameRender            = "render"
)

// Position is a location in template source
type Position = internal.Position

// errorKind pairs a sentinel with its code and message. Order matters:
// refinements come before the kinds they refine.
type errorKind struct {
	sentinel error
	code     string
	message  string
	name     string
}

var errorKinds = []errorKind{
	{ErrUnbalancedBlock, ErrCodeUnbalanced, ErrMsgUnbalanced, KindNameUnbalanced},
	{ErrUnexpectedTag, ErrCodeUnexpectedTag, ErrMsgUnexpectedTag, KindNameUnexpectedTag},
	{ErrRender, ErrCodeRender, ErrMsgRender, KindNameRender},
	{ErrUndefinedVariable, ErrCodeLookup, ErrMsgLookup, KindNameUndefinedVariable},
	{ErrUnknownFilter, ErrCodeLookup, ErrMsgLookup, KindNameUnknownFilter},
	{ErrLookup, ErrCodeLookup, ErrMsgLookup, KindNameLookup},
	{ErrSyntax, ErrCodeSyntax, ErrMsgSyntax, KindNameSyntax},
}

func classify(err error) errorKind {
	for _, kind := range errorKinds {
		if errors.Is(err, kind.sentinel) {
			return kind
		}
	}
	return errorKind{ErrRender, ErrCodeRender, ErrMsgRender, KindNameRender}
}

// wrapError converts an error from the internal machinery into a
// *cuserr.CustomError carrying the error kind, position and offending name
// as metadata. The original error stays reachable through errors.Is/As.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*cuserr.CustomError); ok {
		return err
	}

	kind := classify(err)
	out := cuserr.WrapStdError(err, kind.code, kind.message).
		WithMetadata(MetaKeyKind, kind.name)
	if pos, ok := positionOf(err); ok {
		out = withPosition(out, pos)
	}
	if name := nameOf(err); name != "" {
		out = out.WithMetadata(MetaKeyName, name)
	}
	return out
}

func withPosition(err *cuserr.CustomError, pos Position) *cuserr.CustomError {
	return err.
		WithMetadata(MetaKeyLine, strconv.Itoa(pos.Line)).
		WithMetadata(MetaKeyColumn, strconv.Itoa(pos.Column)).
		WithMetadata(MetaKeyOffset, strconv.Itoa(pos.Offset))
}

func positionOf(err error) (Position, bool) {
	var (
		lexErr    *internal.LexerError
		parseErr  *internal.ParserError
		lookupErr *internal.LookupError
		renderErr *internal.RenderError
	)
	switch {
	case errors.As(err, &parseErr):
		return parseErr.Position, true
	case errors.As(err, &lexErr):
		return lexErr.Position, true
	case errors.As(err, &lookupErr) && lookupErr.Position.Line > 0:
		return lookupErr.Position, true
	case errors.As(err, &renderErr) && renderErr.Position.Line > 0:
		return renderErr.Position, true
	}
	return Position{}, false
}

func nameOf(err error) string {
	var (
		lookupErr *internal.LookupError
		parseErr  *internal.ParserError
		renderErr *internal.RenderError
	)
	switch {
	case errors.As(err, &lookupErr):
		return lookupErr.Name
	case errors.As(err, &parseErr):
		return parseErr.TagName
	case errors.As(err, &renderErr):
		return renderErr.Name
	}
	return ""
}

// NewSyntaxError creates a syntax error at pos
func NewSyntaxError(msg string, pos Position) error {
	return wrapError(&internal.ParserError{Kind: ErrSyntax, Message: msg, Position: pos})
}

// NewLookupError creates a lookup error naming the missing identifier. Tags
// and loaders return it so the failure is reported as a lookup failure
// rather than a render failure.
func NewLookupError(msg, name string) error {
	return wrapError(internal.NewLookupError(msg, name))
}

// NewUnbalancedBlockError creates an error for a block missing its end tag
func NewUnbalancedBlockError(tag string, pos Position) error {
	return wrapError(&internal.ParserError{Kind: ErrUnbalancedBlock, Message: internal.ErrMsgUnclosedBlock, TagName: tag, Position: pos})
}

// NewUnexpectedTagError creates an error for a tag used out of context
func NewUnexpectedTagError(tag string, pos Position) error {
	return wrapError(&internal.ParserError{Kind: ErrUnexpectedTag, Message: internal.ErrMsgStrayTag, TagName: tag, Position: pos})
}

// NewRenderError creates an error for a failing tag or filter
func NewRenderError(msg, name string, cause error) error {
	return wrapError(internal.NewRenderError(msg, name, Position{}, cause))
}

// NewTemplateNotFoundError reports a template missing from a source
func NewTemplateNotFoundError(name string) error {
	return NewLookupError(ErrMsgTemplateNotFound, name)
}

// NewUnknownDialectError reports an unregistered dialect name
func NewUnknownDialectError(name string) error {
	return cuserr.NewNotFoundError(MetaKeyDialect, ErrMsgUnknownDialect).
		WithMetadata(MetaKeyDialect, name)
}

// NewConfigError reports an invalid engine or dialect configuration
func NewConfigError(msg string, cause error) error {
	if cause != nil {
		return cuserr.WrapStdError(cause, ErrCodeConfig, msg)
	}
	return cuserr.NewValidationError(ErrCodeConfig, msg)
}

// NewSourceError reports a failing template source
func NewSourceError(msg, name string, cause error) error {
	if cause == nil {
		cause = errors.New(msg)
	}
	err := cuserr.WrapStdError(cause, ErrCodeSource, msg)
	if name != "" {
		err = err.WithMetadata(MetaKeyTemplate, name)
	}
	return err
}

// ErrorKind returns the kind name of an engine error, or "" for errors the
// engine did not produce.
func ErrorKind(err error) string {
	var custom *cuserr.CustomError
	if errors.As(err, &custom) {
		if kind, ok := custom.GetMetadata(MetaKeyKind); ok {
			return kind
		}
	}
	for _, kind := range errorKinds {
		if errors.Is(err, kind.sentinel) {
			return kind.name
		}
	}
	return ""
}
