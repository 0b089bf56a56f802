package synth

import (
	"github.com/itsatony/go-synth/internal"
)

// Lexer and parser configuration types
type (
	LexerConfig   = internal.LexerConfig
	Delimiter     = internal.Delimiter
	DelimiterKind = internal.DelimiterKind
	ParserConfig  = internal.ParserConfig
)

// Delimiter kinds
const (
	DelimiterInterpolation = internal.DelimiterInterpolation
	DelimiterTag           = internal.DelimiterTag
	DelimiterComment       = internal.DelimiterComment
)

// Dialect is a concrete template syntax: its delimiters, the library that is
// in scope before any load directive, and how undefined variables and
// binding tags behave.
type Dialect struct {
	Name           string
	Lexer          LexerConfig
	Parser         ParserConfig
	Builtins       *Library // May be nil
	UndefinedValue any
	Strict         bool
	Policy         MutationPolicy
}

// Validate checks that the dialect can be used by an engine
func (d *Dialect) Validate() error {
	if d == nil || d.Name == "" {
		return NewConfigError(ErrMsgInvalidDialect, nil)
	}
	if err := d.Lexer.Validate(); err != nil {
		return NewConfigError(ErrMsgInvalidDialect, err)
	}
	if d.Builtins != nil {
		if err := d.Builtins.Validate(); err != nil {
			return NewConfigError(ErrMsgInvalidDialect, err)
		}
	}
	return nil
}

// DjangoDialect returns the Django-like dialect: {{ expr }}, {% tag %} and
// {# comment #}. Undefined variables render as the empty string.
func DjangoDialect() *Dialect {
	return &Dialect{
		Name:           DialectDjango,
		Lexer:          internal.DjangoLexerConfig(),
		Parser:         internal.DefaultParserConfig(),
		Builtins:       DjangoLibrary(),
		UndefinedValue: DjangoUndefinedValue,
		Policy:         MutateOutermost,
	}
}

// SSIDialect returns the server-side-include dialect: <!--#directive args -->.
// Undefined variables echo as "(none)".
func SSIDialect() *Dialect {
	return &Dialect{
		Name:           DialectSSI,
		Lexer:          internal.SSILexerConfig(),
		Parser:         internal.DefaultParserConfig(),
		Builtins:       SSILibrary(),
		UndefinedValue: SSIUndefinedValue,
		Policy:         MutateOutermost,
	}
}

// TmplDialect returns the HTML::Template-like dialect: <TMPL_NAME args> and
// </TMPL_NAME>, matched case-insensitively. Loops bind their row variables
// in their own scope, and so do binding tags.
func TmplDialect() *Dialect {
	return &Dialect{
		Name:           DialectTmpl,
		Lexer:          internal.TmplLexerConfig(),
		Parser:         internal.DefaultParserConfig(),
		Builtins:       TmplLibrary(),
		UndefinedValue: TmplUndefinedValue,
		Policy:         MutateInnermost,
	}
}

// BuiltinDialects returns fresh copies of the builtin dialects
func BuiltinDialects() []*Dialect {
	return []*Dialect{DjangoDialect(), SSIDialect(), TmplDialect()}
}
