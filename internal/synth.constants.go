package internal

// TokenType represents the type of a lexical token
type TokenType string

// Token type constants
const (
	TokenTypeText        TokenType = "TEXT"
	TokenTypeInterpStart TokenType = "INTERP_START"
	TokenTypeInterpEnd   TokenType = "INTERP_END"
	TokenTypeTagOpen     TokenType = "TAG_OPEN"
	TokenTypeTagClose    TokenType = "TAG_CLOSE"
	TokenTypeComment     TokenType = "COMMENT"
	TokenTypeEOF         TokenType = "EOF"
)

// DelimiterKind identifies what a delimiter pair encloses
type DelimiterKind int

// Delimiter kind constants
const (
	DelimiterInterpolation DelimiterKind = iota
	DelimiterTag
	DelimiterComment
)

// NodeType identifies AST node types
type NodeType int

// Node type constants
const (
	NodeTypeRoot NodeType = iota
	NodeTypeText
	NodeTypeInterpolation
	NodeTypeTag
)

// Node type string names for debugging
const (
	NodeTypeNameRoot          = "ROOT"
	NodeTypeNameText          = "TEXT"
	NodeTypeNameInterpolation = "INTERPOLATION"
	NodeTypeNameTag           = "TAG"
)

// String returns the string representation of the node type
func (n NodeType) String() string {
	switch n {
	case NodeTypeText:
		return NodeTypeNameText
	case NodeTypeInterpolation:
		return NodeTypeNameInterpolation
	case NodeTypeTag:
		return NodeTypeNameTag
	default:
		return NodeTypeNameRoot
	}
}

// Character constants
const (
	CharEquals      = '='
	CharDoubleQuote = '"'
	CharSingleQuote = '\''
	CharBackslash   = '\\'
	CharNewline     = '\n'
	CharSpace       = ' '
	CharTab         = '\t'
	CharCarriageRet = '\r'
	CharPipe        = '|'
	CharColon       = ':'
	CharComma       = ','
	CharDot         = '.'
	CharLBracket    = '['
	CharRBracket    = ']'
	CharMinus       = '-'
)

// Django dialect delimiters
const (
	StrDjangoInterpOpen   = "{{"
	StrDjangoInterpClose  = "}}"
	StrDjangoTagOpen      = "{%"
	StrDjangoTagClose     = "%}"
	StrDjangoCommentOpen  = "{#"
	StrDjangoCommentClose = "#}"
)

// SSI dialect delimiters
const (
	StrSSITagOpen  = "<!--#"
	StrSSITagClose = "-->"
)

// TMPL dialect delimiters
const (
	StrTmplTagOpen      = "<TMPL_"
	StrTmplEndTagOpen   = "</TMPL_"
	StrTmplTagClose     = ">"
	StrTmplEndTagPrefix = "end"
)

// Directive names handled by the parser itself
const (
	DirectiveLoad     = "load"
	DirectiveLoadFrom = "from"
)

// Default end tag prefix for block and variadic tags
const EndTagPrefix = "end"

// Default values
const (
	DefaultMaxDepth    = 100
	DefaultFloatDigits = 12
)

// Log message constants
const (
	LogMsgLexerCreated      = "lexer created"
	LogMsgTokenizerStart    = "starting tokenization"
	LogMsgTokenizerEnd      = "tokenization complete"
	LogMsgParserCreated     = "parser created"
	LogMsgParserStart       = "starting parse"
	LogMsgParserEnd         = "parse complete"
	LogMsgRendererCreated   = "renderer created"
	LogMsgRenderStart       = "starting render"
	LogMsgRenderEnd         = "render complete"
	LogMsgSessionCreated    = "parse session created"
	LogMsgLibraryLoaded     = "library loaded"
	LogMsgLibraryCached     = "library served from session cache"
	LogMsgLibraryUsed       = "library entries added to session"
	LogMsgTagShadowed       = "tag shadowed by later library"
	LogMsgFilterShadowed    = "filter shadowed by later library"
	LogMsgLoaderCacheHit    = "loader cache hit"
	LogMsgLoaderCacheFilled = "loader cache filled"
	LogMsgTagInvoked        = "tag invoked"
	LogMsgTagComplete       = "tag complete"
)

// Log field names
const (
	LogFieldSource   = "source_length"
	LogFieldTokens   = "token_count"
	LogFieldNodes    = "node_count"
	LogFieldTag      = "tag"
	LogFieldFilter   = "filter"
	LogFieldLibrary  = "library"
	LogFieldNames    = "names"
	LogFieldLine     = "line"
	LogFieldColumn   = "column"
	LogFieldDepth    = "depth"
	LogFieldSegments = "segments"
	LogFieldOutput   = "output_length"
)

// String value constants for stringification
const (
	StringValueEmpty = ""
	StringValueTrue  = "True"
	StringValueFalse = "False"
	StringValueNone  = "None"
)

// Literal keywords accepted by the expression tokenizer
const (
	KeywordTrue       = "True"
	KeywordTrueLower  = "true"
	KeywordFalse      = "False"
	KeywordFalseLower = "false"
	KeywordNone       = "None"
	KeywordNoneLower  = "none"
	KeywordNil        = "nil"
)

// Error format string constants (for Error() methods)
const (
	ErrFmtWithPosition   = "%s at %s"
	ErrFmtWithName       = "%s: %s"
	ErrFmtNameAtPosition = "%s: %s at %s"
	ErrFmtWithCause      = "%s: %v"
)

// String format constants for AST String() methods
const (
	FmtOpenBrace   = "{"
	FmtCloseBrace  = "}"
	FmtOpenSquare  = "["
	FmtCloseSquare = "]"
	FmtCommaSep    = ", "
	FmtKeyValueSep = ": "
)
