package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/itsatony/go-synth"
)

// renderConfig holds parsed render command configuration
type renderConfig struct {
	templatePath string
	dialect      string
	dataJSON     string
	dataFilePath string
	outputPath   string
	includeDirs  stringList
	sourceDriver string
	sourceDSN    string
	strict       bool
	policy       string
	maxDepth     int
	verbose      bool
}

func runRender(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseRenderFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidFlags, err)
		return ExitCodeUsageError
	}

	templateSource, err := readInput(cfg.templatePath, stdin)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgReadFileFailed, err)
		return ExitCodeInputError
	}

	data, err := loadData(cfg.dataJSON, cfg.dataFilePath)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidData, err)
		return ExitCodeInputError
	}

	logger := newLogger(cfg.verbose, stderr)
	defer func() { _ = logger.Sync() }()

	source, closeSource, err := openIncludeSource(cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgSourceFailed, err)
		return ExitCodeError
	}
	defer closeSource()

	opts := []synth.Option{
		synth.WithLogger(logger),
		synth.WithTemplateSource(source),
	}
	if cfg.strict {
		opts = append(opts, synth.WithStrictVariables(true))
	}
	if cfg.policy != "" {
		policy, _ := synth.ParseMutationPolicy(cfg.policy)
		opts = append(opts, synth.WithMutationPolicy(policy))
	}
	if cfg.maxDepth > 0 {
		opts = append(opts, synth.WithMaxDepth(cfg.maxDepth))
	}

	engine, err := synth.New(opts...)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgEngineFailed, err)
		return ExitCodeError
	}

	result, err := engine.Render(context.Background(), string(templateSource), cfg.dialect, data)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgRenderFailed, err)
		return ExitCodeError
	}

	if err := writeOutput(cfg.outputPath, []byte(result), stdout); err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgWriteOutputFailed, err)
		return ExitCodeError
	}

	return ExitCodeSuccess
}

func parseRenderFlags(args []string) (*renderConfig, error) {
	fs := flag.NewFlagSet(CmdNameRender, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := &renderConfig{}

	fs.StringVar(&cfg.templatePath, FlagTemplate, "", "")
	fs.StringVar(&cfg.templatePath, FlagTemplateShort, "", "")
	fs.StringVar(&cfg.dialect, FlagDialect, synth.DefaultDialect, "")
	fs.StringVar(&cfg.dialect, FlagDialectShort, synth.DefaultDialect, "")
	fs.StringVar(&cfg.dataJSON, FlagData, "", "")
	fs.StringVar(&cfg.dataJSON, FlagDataShort, "", "")
	fs.StringVar(&cfg.dataFilePath, FlagDataFile, "", "")
	fs.StringVar(&cfg.dataFilePath, FlagDataFileShort, "", "")
	fs.StringVar(&cfg.outputPath, FlagOutput, FlagDefaultOutput, "")
	fs.StringVar(&cfg.outputPath, FlagOutputShort, FlagDefaultOutput, "")
	fs.Var(&cfg.includeDirs, FlagIncludeDir, "")
	fs.Var(&cfg.includeDirs, FlagIncludeDirShort, "")
	fs.StringVar(&cfg.sourceDriver, FlagSource, "", "")
	fs.StringVar(&cfg.sourceDSN, FlagSourceDSN, "", "")
	fs.BoolVar(&cfg.strict, FlagStrict, false, "")
	fs.StringVar(&cfg.policy, FlagPolicy, "", "")
	fs.IntVar(&cfg.maxDepth, FlagMaxDepth, 0, "")
	fs.BoolVar(&cfg.verbose, FlagVerbose, false, "")
	fs.BoolVar(&cfg.verbose, FlagVerboseShort, false, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.templatePath == "" {
		return nil, errors.New(ErrMsgMissingTemplate)
	}
	if cfg.policy != "" {
		if _, ok := synth.ParseMutationPolicy(cfg.policy); !ok {
			return nil, fmt.Errorf("%s: %q", ErrMsgInvalidPolicy, cfg.policy)
		}
	}
	if cfg.sourceDSN != "" && cfg.sourceDriver == "" {
		return nil, errors.New(ErrMsgDSNWithoutSource)
	}

	return cfg, nil
}

// openIncludeSource builds the template source used by include tags. The
// returned function releases any source that holds resources.
func openIncludeSource(cfg *renderConfig, logger *zap.Logger) (synth.TemplateSource, func(), error) {
	var chain chainSource
	closeAll := func() {}

	if len(cfg.includeDirs) > 0 {
		chain = append(chain, synth.NewDirSource(logger, cfg.includeDirs...))
	}

	if cfg.sourceDriver != "" {
		src, err := synth.OpenSource(cfg.sourceDriver, cfg.sourceDSN)
		if err != nil {
			return nil, closeAll, err
		}
		if closer, ok := src.(io.Closer); ok {
			closeAll = func() { _ = closer.Close() }
		}
		chain = append(chain, src)
	}

	if len(chain) == 0 {
		dir := "."
		if cfg.templatePath != InputSourceStdin {
			dir = filepath.Dir(cfg.templatePath)
		}
		chain = append(chain, synth.NewDirSource(logger, dir))
	}

	return chain, closeAll, nil
}
