package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/itsatony/go-cuserr"

	"github.com/itsatony/go-synth"
)

// SeverityNameError labels every reported issue; parsing stops at the first
const SeverityNameError = "ERROR"

// validateConfig holds parsed validate command configuration
type validateConfig struct {
	templatePath string
	dialect      string
	format       string
}

// validationOutput is the JSON form of a validation result
type validationOutput struct {
	Valid   bool                    `json:"valid"`
	Dialect string                  `json:"dialect"`
	Issues  []validationIssueOutput `json:"issues,omitempty"`
}

type validationIssueOutput struct {
	Severity string `json:"severity"`
	Kind     string `json:"kind"`
	Message  string `json:"message"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
	Name     string `json:"name,omitempty"`
}

func runValidate(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseValidateFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidFlags, err)
		return ExitCodeUsageError
	}

	templateSource, err := readInput(cfg.templatePath, stdin)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgReadFileFailed, err)
		return ExitCodeInputError
	}

	engine := synth.MustNew()
	if _, err := engine.Dialect(cfg.dialect); err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidFlags, err)
		return ExitCodeUsageError
	}

	output := validationOutput{Valid: true, Dialect: cfg.dialect}
	if err := engine.Validate(string(templateSource), cfg.dialect); err != nil {
		output.Valid = false
		output.Issues = append(output.Issues, issueFromError(err))
	}

	if cfg.format == OutputFormatJSON {
		jsonBytes, _ := json.MarshalIndent(output, "", "  ")
		fmt.Fprintln(stdout, string(jsonBytes))
	} else {
		writeValidationText(output, stdout)
	}

	if !output.Valid {
		return ExitCodeValidationError
	}
	return ExitCodeSuccess
}

func parseValidateFlags(args []string) (*validateConfig, error) {
	fs := flag.NewFlagSet(CmdNameValidate, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := &validateConfig{}

	fs.StringVar(&cfg.templatePath, FlagTemplate, "", "")
	fs.StringVar(&cfg.templatePath, FlagTemplateShort, "", "")
	fs.StringVar(&cfg.dialect, FlagDialect, synth.DefaultDialect, "")
	fs.StringVar(&cfg.dialect, FlagDialectShort, synth.DefaultDialect, "")
	fs.StringVar(&cfg.format, FlagFormat, FlagDefaultFormat, "")
	fs.StringVar(&cfg.format, FlagFormatShort, FlagDefaultFormat, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.templatePath == "" {
		return nil, errors.New(ErrMsgMissingTemplate)
	}

	if cfg.format != OutputFormatText && cfg.format != OutputFormatJSON {
		return nil, errors.New(ErrMsgInvalidFormat)
	}

	return cfg, nil
}

// issueFromError reads the kind, position and name an engine error carries
func issueFromError(err error) validationIssueOutput {
	issue := validationIssueOutput{
		Severity: SeverityNameError,
		Kind:     synth.ErrorKind(err),
		Message:  err.Error(),
	}

	var custom *cuserr.CustomError
	if !errors.As(err, &custom) {
		return issue
	}
	if v, ok := custom.GetMetadata(synth.MetaKeyLine); ok {
		issue.Line, _ = strconv.Atoi(v)
	}
	if v, ok := custom.GetMetadata(synth.MetaKeyColumn); ok {
		issue.Column, _ = strconv.Atoi(v)
	}
	if v, ok := custom.GetMetadata(synth.MetaKeyName); ok {
		issue.Name = v
	}
	return issue
}

func writeValidationText(output validationOutput, stdout io.Writer) {
	if output.Valid {
		fmt.Fprintln(stdout, ValidationTextSuccess)
		return
	}

	fmt.Fprintln(stdout, ValidationTextIssueHeader)
	for _, issue := range output.Issues {
		if issue.Line > 0 {
			fmt.Fprintf(stdout, ValidationTextIssueFormat+FmtNewline,
				issue.Severity, issue.Message, issue.Line, issue.Column)
			continue
		}
		fmt.Fprintf(stdout, ValidationTextIssueNoPos+FmtNewline, issue.Severity, issue.Message)
	}
}
