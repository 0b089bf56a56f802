package synth

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// DirSource reads templates from an ordered list of directories; the first
// directory containing the name wins. Names are slash-separated paths
// relative to each directory and may not escape it.
type DirSource struct {
	dirs   []string
	logger *zap.Logger
}

type dirSourceDriver struct{}

func init() {
	RegisterSourceDriver(SourceDriverNameDir, dirSourceDriver{})
}

// Open creates a DirSource from a list of directories separated by the OS
// path list separator.
func (dirSourceDriver) Open(connectionString string) (TemplateSource, error) {
	return NewDirSource(nil, filepath.SplitList(connectionString)...), nil
}

// NewDirSource creates a source searching dirs in order
func NewDirSource(logger *zap.Logger, dirs ...string) *DirSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirSource{dirs: dirs, logger: logger}
}

// Dirs returns the search directories
func (s *DirSource) Dirs() []string {
	return append([]string(nil), s.dirs...)
}

// Get reads the named template from the first directory that has it
func (s *DirSource) Get(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rel, err := cleanTemplateName(name)
	if err != nil {
		return "", err
	}

	for _, dir := range s.dirs {
		path := filepath.Join(dir, rel)
		data, err := os.ReadFile(path)
		if err == nil {
			s.logger.Debug(LogMsgSourceHit, zap.String(LogFieldTemplate, name), zap.String(LogFieldDir, dir))
			return string(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", NewSourceError(ErrMsgSourceFailed, name, err)
		}
	}

	s.logger.Debug(LogMsgSourceMiss, zap.String(LogFieldTemplate, name))
	return "", NewTemplateNotFoundError(name)
}

// cleanTemplateName turns a template name into a relative OS path, rejecting
// absolute paths and paths leaving the search directory.
func cleanTemplateName(name string) (string, error) {
	if name == "" || strings.ContainsRune(name, 0) {
		return "", NewLookupError(ErrMsgInvalidName, name)
	}
	if !fs.ValidPath(strings.TrimPrefix(filepath.ToSlash(name), "./")) {
		return "", NewLookupError(ErrMsgInvalidName, name)
	}
	return filepath.FromSlash(strings.TrimPrefix(filepath.ToSlash(name), "./")), nil
}
