package synth

import "github.com/itsatony/go-synth/internal"

// Dialect names
const (
	DialectDjango = "django"
	DialectSSI    = "ssi"
	DialectTmpl   = "tmpl"
)

// Engine defaults
const (
	DefaultDialect  = DialectDjango
	DefaultMaxDepth = internal.DefaultMaxDepth
)

// Undefined-variable substitutions of the builtin dialects
const (
	DjangoUndefinedValue = ""
	SSIUndefinedValue    = "(none)"
	TmplUndefinedValue   = ""
)

// Metadata keys attached to errors
const (
	MetaKeyLine     = "line"
	MetaKeyColumn   = "column"
	MetaKeyOffset   = "offset"
	MetaKeyName     = "name"
	MetaKeyTag      = "tag"
	MetaKeyKind     = "kind"
	MetaKeyDialect  = "dialect"
	MetaKeyTemplate = "template"
	MetaKeyPath     = "path"
)

// Log messages
const (
	LogMsgEngineCreated     = "engine created"
	LogMsgDialectRegistered = "dialect registered"
	LogMsgTemplateParsed    = "template parsed"
	LogMsgTemplateRendered  = "template rendered"
	LogMsgIncludeStart      = "including template"
	LogMsgSourceMiss        = "template source miss"
	LogMsgSourceHit         = "template source hit"
	LogMsgMigrationApplied  = "template source migration applied"
)

// Log field names
const (
	LogFieldDialect  = "dialect"
	LogFieldTemplate = "template"
	LogFieldLength   = "length"
	LogFieldDir      = "dir"
	LogFieldVersion  = "version"
	LogFieldPolicy   = "policy"
)

// Tag and filter names used by several builtin libraries
const (
	TagNameIf      = "if"
	TagNameElif    = "elif"
	TagNameElse    = "else"
	TagNameSet     = "set"
	TagNameInclude = "include"
)

// Keyword argument names of the SSI and TMPL builtins
const (
	ArgKeyVar     = "var"
	ArgKeyValue   = "value"
	ArgKeyExpr    = "expr"
	ArgKeyVirtual = "virtual"
	ArgKeyFile    = "file"
	ArgKeyName    = "name"
	ArgKeyDefault = "default"
	ArgKeyEscape  = "escape"
	ArgKeyEchoMsg = "echomsg"
)
