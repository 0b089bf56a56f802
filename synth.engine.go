package synth

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/itsatony/go-synth/internal"
)

// Engine parses and renders templates in any registered dialect. It is safe
// for concurrent use; parsed Templates may be executed concurrently.
type Engine struct {
	config   *engineConfig
	dialects map[string]*Dialect
	mu       sync.RWMutex // Protects dialects
	loader   Loader
	renderer *internal.Renderer
	logger   *zap.Logger
}

// New creates a new Engine with the builtin dialects and the given options.
func New(opts ...Option) (*Engine, error) {
	config := defaultEngineConfig()
	for _, opt := range opts {
		opt(config)
	}
	if config.maxDepth < 0 {
		return nil, NewConfigError(ErrMsgInvalidMaxDepth, nil)
	}

	logger := config.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		config:   config,
		dialects: make(map[string]*Dialect),
		renderer: internal.NewRenderer(logger),
		logger:   logger,
	}
	if config.loader != nil {
		e.loader = internal.NewCachingLoader(config.loader, logger)
	}

	for _, d := range append(BuiltinDialects(), config.dialects...) {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		e.dialects[d.Name] = d
		logger.Debug(LogMsgDialectRegistered, zap.String(LogFieldDialect, d.Name))
	}
	if _, ok := e.dialects[config.defaultDialect]; !ok {
		return nil, NewUnknownDialectError(config.defaultDialect)
	}

	logger.Debug(LogMsgEngineCreated,
		zap.String(LogFieldDialect, config.defaultDialect),
		zap.Int(internal.LogFieldDepth, config.maxDepth),
	)
	return e, nil
}

// MustNew creates a new Engine and panics if there's an error.
func MustNew(opts ...Option) *Engine {
	engine, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return engine
}

// RegisterDialect adds a dialect. Names already registered are rejected.
func (e *Engine) RegisterDialect(d *Dialect) error {
	if err := d.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.dialects[d.Name]; exists {
		return NewConfigError(ErrMsgDialectExists, nil)
	}
	e.dialects[d.Name] = d
	e.logger.Debug(LogMsgDialectRegistered, zap.String(LogFieldDialect, d.Name))
	return nil
}

// Dialect returns the named dialect; "" selects the default dialect.
func (e *Engine) Dialect(name string) (*Dialect, error) {
	if name == "" {
		name = e.config.defaultDialect
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	d, ok := e.dialects[name]
	if !ok {
		return nil, NewUnknownDialectError(name)
	}
	return d, nil
}

// Dialects returns the registered dialect names in sorted order.
func (e *Engine) Dialects() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.dialects))
	for name := range e.dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse parses source in the named dialect ("" for the default). The
// returned Template can be executed many times, concurrently, with
// different data.
func (e *Engine) Parse(source, dialect string) (*Template, error) {
	d, err := e.Dialect(dialect)
	if err != nil {
		return nil, err
	}
	root, err := e.parse(source, d)
	if err != nil {
		return nil, wrapError(err)
	}
	e.logger.Debug(LogMsgTemplateParsed,
		zap.String(LogFieldDialect, d.Name),
		zap.Int(LogFieldLength, len(source)),
	)
	return newTemplate(source, d, root, e), nil
}

// MustParse parses source and panics on error.
func (e *Engine) MustParse(source, dialect string) *Template {
	tmpl, err := e.Parse(source, dialect)
	if err != nil {
		panic(err)
	}
	return tmpl
}

// Validate reports whether source parses in the named dialect.
func (e *Engine) Validate(source, dialect string) error {
	_, err := e.Parse(source, dialect)
	return err
}

// Render is a convenience method that parses and executes in one step.
// For templates that will be rendered multiple times, use Parse instead.
func (e *Engine) Render(ctx context.Context, source, dialect string, data map[string]any) (string, error) {
	tmpl, err := e.Parse(source, dialect)
	if err != nil {
		return "", err
	}
	return tmpl.Execute(ctx, data)
}

// RenderNamed fetches a template from the configured source and renders it.
func (e *Engine) RenderNamed(ctx context.Context, name, dialect string, data map[string]any) (string, error) {
	if e.config.source == nil {
		return "", NewLookupError(ErrMsgNoSource, name)
	}
	source, err := e.config.source.Get(ctx, name)
	if err != nil {
		return "", err
	}
	return e.Render(ctx, source, dialect, data)
}

// parse runs one parse session: the dialect's builtins first, then whatever
// the template loads through the engine's loader.
func (e *Engine) parse(source string, d *Dialect) (*internal.RootNode, error) {
	session := internal.NewSession(e.loader, e.logger)
	if d.Builtins != nil {
		if err := session.Use(d.Builtins); err != nil {
			return nil, err
		}
	}
	return internal.ParseSource(source, d.Lexer, d.Parser, session, e.logger)
}

// contextOptions resolves the render settings for a dialect
func (e *Engine) contextOptions(d *Dialect) internal.ContextOptions {
	opts := internal.ContextOptions{
		Policy:         d.Policy,
		Strict:         d.Strict,
		UndefinedValue: d.UndefinedValue,
		MaxDepth:       e.config.maxDepth,
		Logger:         e.logger,
	}
	if e.config.policy != nil {
		opts.Policy = *e.config.policy
	}
	if e.config.strict != nil {
		opts.Strict = *e.config.strict
	}
	if e.config.source != nil {
		opts.Includer = &includer{engine: e, dialect: d}
	}
	return opts
}

// includer renders templates from the engine's source into an ongoing
// render, sharing its context. Included templates use the dialect of the
// template that includes them.
type includer struct {
	engine  *Engine
	dialect *Dialect
}

func (i *includer) Include(ctx *Context, name string) (string, error) {
	i.engine.logger.Debug(LogMsgIncludeStart,
		zap.String(LogFieldTemplate, name),
		zap.String(LogFieldDialect, i.dialect.Name),
	)
	source, err := i.engine.config.source.Get(ctx.Std(), name)
	if err != nil {
		return "", err
	}
	root, err := i.engine.parse(source, i.dialect)
	if err != nil {
		return "", err
	}
	return i.engine.renderer.Render(root, ctx)
}
