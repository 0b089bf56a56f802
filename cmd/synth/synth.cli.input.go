package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/itsatony/go-synth"
)

// readInput reads content from a file or stdin
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == InputSourceStdin {
		return io.ReadAll(stdin)
	}

	return os.ReadFile(path)
}

// writeOutput writes content to a file or stdout
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == FlagDefaultOutput {
		_, err := stdout.Write(data)
		return err
	}

	return os.WriteFile(path, data, FilePermissions)
}

// loadData decodes the render context from a data file or an inline JSON
// string. Files ending in .yaml or .yml are decoded as YAML.
func loadData(jsonStr, filePath string) (map[string]any, error) {
	result := make(map[string]any)

	switch {
	case filePath != "":
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, err
		}
		ext := strings.ToLower(filepath.Ext(filePath))
		if ext == ExtYAML || ext == ExtYML {
			if err := yaml.Unmarshal(data, &result); err != nil {
				return nil, err
			}
			return result, nil
		}
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, err
		}
	case jsonStr != "":
		if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
			return nil, err
		}
	}

	if result == nil {
		result = make(map[string]any)
	}
	return result, nil
}

// stringList is a repeatable string flag
type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// chainSource asks each source in turn; a lookup miss falls through to the
// next one.
type chainSource []synth.TemplateSource

func (c chainSource) Get(ctx context.Context, name string) (string, error) {
	for _, src := range c {
		out, err := src.Get(ctx, name)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, synth.ErrLookup) {
			return "", err
		}
	}
	return "", synth.NewTemplateNotFoundError(name)
}

// newLogger writes human-readable debug logs to w when verbose is set
func newLogger(verbose bool, w io.Writer) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(w),
		zapcore.DebugLevel,
	)
	return zap.New(core)
}
