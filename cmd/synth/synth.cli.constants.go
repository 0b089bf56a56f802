package main

// Command names
const (
	CmdNameRender   = "render"
	CmdNameValidate = "validate"
	CmdNameVersion  = "version"
	CmdNameHelp     = "help"
)

// Flag names - long form
const (
	FlagTemplate   = "template"
	FlagDialect    = "dialect"
	FlagData       = "data"
	FlagDataFile   = "data-file"
	FlagOutput     = "output"
	FlagIncludeDir = "include-dir"
	FlagSource     = "source"
	FlagSourceDSN  = "dsn"
	FlagStrict     = "strict"
	FlagPolicy     = "policy"
	FlagMaxDepth   = "max-depth"
	FlagVerbose    = "verbose"
	FlagFormat     = "format"
)

// Flag names - short form
const (
	FlagTemplateShort   = "t"
	FlagDialectShort    = "D"
	FlagDataShort       = "d"
	FlagDataFileShort   = "f"
	FlagOutputShort     = "o"
	FlagIncludeDirShort = "I"
	FlagVerboseShort    = "v"
	FlagFormatShort     = "F"
)

// Flag default values
const (
	FlagDefaultOutput = "-" // stdout
	FlagDefaultFormat = "text"
)

// Output formats
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
)

// Exit codes
const (
	ExitCodeSuccess         = 0
	ExitCodeError           = 1
	ExitCodeUsageError      = 2
	ExitCodeValidationError = 3
	ExitCodeInputError      = 4
)

// Input source indicators
const (
	InputSourceStdin = "-"
)

// Data file extensions decoded as YAML; everything else is JSON
const (
	ExtYAML = ".yaml"
	ExtYML  = ".yml"
)

// Error messages
const (
	ErrMsgUnknownCommand    = "unknown command"
	ErrMsgMissingTemplate   = "template source required"
	ErrMsgInvalidFlags      = "invalid arguments"
	ErrMsgInvalidData       = "invalid data"
	ErrMsgReadFileFailed    = "failed to read file"
	ErrMsgWriteOutputFailed = "failed to write output"
	ErrMsgEngineFailed      = "failed to configure engine"
	ErrMsgSourceFailed      = "failed to open template source"
	ErrMsgRenderFailed      = "template rendering failed"
	ErrMsgInvalidFormat     = "invalid output format"
	ErrMsgInvalidPolicy     = "invalid mutation policy"
	ErrMsgDSNWithoutSource  = "dsn given without source driver"
)

// Help text
const (
	HelpMainUsage = `synth - multi-dialect template rendering CLI

Usage:
    synth <command> [options]

Commands:
    render      Render a template with data
    validate    Parse a template without rendering it
    version     Show version information
    help        Show help for a command

Dialects: django (default), ssi, tmpl

Use "synth help <command>" for more information about a command.`

	HelpRenderUsage = `Render a template with data

Usage:
    synth render [options]

Options:
    -t, --template <file>     Template file (use "-" for stdin)
    -D, --dialect <name>      Template dialect: django, ssi, tmpl (default: django)
    -d, --data <json>         JSON data string
    -f, --data-file <file>    JSON or YAML (.yaml, .yml) data file
    -o, --output <file>       Output file (default: stdout)
    -I, --include-dir <dir>   Directory searched by include tags (repeatable)
    --source <driver>         Template source driver for includes (memory, dir, postgres)
    --dsn <conn>              Connection string for --source
    --strict                  Fail on undefined variables
    --policy <name>           Variable mutation policy: outermost, innermost
    --max-depth <n>           Maximum include depth
    -v, --verbose             Log engine activity to stderr

Includes are searched in the -I directories, then in --source. Without
either, includes resolve against the template file's directory.

Examples:
    synth render -t page.html -d '{"name": "Alice"}'
    synth render -t page.shtml -D ssi -f data.yaml
    cat page.tmpl | synth render -t - -D tmpl -d '{"rows": [{"n": 1}]}'
    synth render -t page.html -I partials -I shared -o out.html`

	HelpValidateUsage = `Parse a template without rendering it

Usage:
    synth validate [options]

Options:
    -t, --template <file>   Template file (use "-" for stdin)
    -D, --dialect <name>    Template dialect (default: django)
    -F, --format <format>   Output format: text, json (default: text)

Examples:
    synth validate -t page.html
    synth validate -t page.shtml -D ssi -F json`

	HelpVersionUsage = `Show version information

Usage:
    synth version [options]

Options:
    -F, --format <format>   Output format: text, json (default: text)`

	HelpHelpUsage = `Show help for a command

Usage:
    synth help [command]

Commands:
    render      Show help for render command
    validate    Show help for validate command
    version     Show help for version command`
)

// Version output
const (
	VersionTextTemplate = "go-synth version %s\nCommit: %s\nBranch: %s\nBuilt: %s\nGo: %s"
	VersionUnknown      = "unknown"
)

// Validation output
const (
	ValidationTextSuccess     = "Template is valid"
	ValidationTextIssueHeader = "Validation issues:"
	ValidationTextIssueFormat = "  [%s] %s at line %d, column %d"
	ValidationTextIssueNoPos  = "  [%s] %s"
)

// CLI metadata
const (
	CLIName        = "synth"
	CLIDescription = "multi-dialect template rendering CLI"
)

// File permission constant
const (
	FilePermissions = 0644
)

// Format string constants
const (
	FmtErrorWithDetail = "%s: %s\n"
	FmtErrorWithCause  = "%s: %v\n"
	FmtNewline         = "\n"
)
