package synth

import (
	"context"
	"sort"
	"sync"

	"github.com/itsatony/go-cuserr"
)

// TemplateSource supplies template text by name to include tags and
// Engine.RenderNamed. Get must fail with a lookup error (see
// NewTemplateNotFoundError) for unknown names.
type TemplateSource interface {
	Get(ctx context.Context, name string) (string, error)
}

// TemplateSourceFunc adapts a function to the TemplateSource interface
type TemplateSourceFunc func(ctx context.Context, name string) (string, error)

// Get calls f(ctx, name)
func (f TemplateSourceFunc) Get(ctx context.Context, name string) (string, error) {
	return f(ctx, name)
}

// SourceDriver opens a TemplateSource from a connection string
type SourceDriver interface {
	Open(connectionString string) (TemplateSource, error)
}

// Source driver names
const (
	SourceDriverNameMemory   = "memory"
	SourceDriverNameDir      = "dir"
	SourceDriverNamePostgres = "postgres"
)

var (
	sourceDriversMu sync.RWMutex
	sourceDrivers   = make(map[string]SourceDriver)
)

// RegisterSourceDriver makes a source driver available to OpenSource.
// It panics if the name is taken or the driver is nil.
func RegisterSourceDriver(name string, driver SourceDriver) {
	sourceDriversMu.Lock()
	defer sourceDriversMu.Unlock()

	if driver == nil {
		panic(ErrMsgUnknownSourceKind + ": " + name)
	}
	if _, exists := sourceDrivers[name]; exists {
		panic(ErrMsgSourceDriverExists + ": " + name)
	}
	sourceDrivers[name] = driver
}

// OpenSource opens a template source with a registered driver
func OpenSource(driverName, connectionString string) (TemplateSource, error) {
	sourceDriversMu.RLock()
	driver, ok := sourceDrivers[driverName]
	sourceDriversMu.RUnlock()

	if !ok {
		return nil, cuserr.NewNotFoundError(MetaKeyName, ErrMsgUnknownSourceKind).
			WithMetadata(MetaKeyName, driverName)
	}
	return driver.Open(connectionString)
}

// SourceDrivers returns the registered driver names in sorted order
func SourceDrivers() []string {
	sourceDriversMu.RLock()
	defer sourceDriversMu.RUnlock()

	names := make([]string, 0, len(sourceDrivers))
	for name := range sourceDrivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MapSource is an in-memory TemplateSource. It is safe for concurrent use.
type MapSource struct {
	mu        sync.RWMutex
	templates map[string]string
}

type memorySourceDriver struct{}

func init() {
	RegisterSourceDriver(SourceDriverNameMemory, memorySourceDriver{})
}

// Open returns an empty MapSource; the connection string is ignored.
func (memorySourceDriver) Open(string) (TemplateSource, error) {
	return NewMapSource(nil), nil
}

// NewMapSource creates a source holding a copy of templates
func NewMapSource(templates map[string]string) *MapSource {
	s := &MapSource{templates: make(map[string]string, len(templates))}
	for name, source := range templates {
		s.templates[name] = source
	}
	return s
}

// Get returns the named template
func (s *MapSource) Get(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	source, ok := s.templates[name]
	if !ok {
		return "", NewTemplateNotFoundError(name)
	}
	return source, nil
}

// Set adds or replaces a template
func (s *MapSource) Set(name, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[name] = source
}

// Delete removes a template, reporting whether it existed
func (s *MapSource) Delete(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.templates[name]; !ok {
		return false
	}
	delete(s.templates, name)
	return true
}

// Names returns the template names in sorted order
func (s *MapSource) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
