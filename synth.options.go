package synth

import (
	"go.uber.org/zap"
)

// Option is a functional option for configuring the Engine.
type Option func(*engineConfig)

// engineConfig holds the internal configuration for an Engine.
type engineConfig struct {
	loader         Loader
	source         TemplateSource
	policy         *MutationPolicy
	strict         *bool
	maxDepth       int
	dialects       []*Dialect
	defaultDialect string
	logger         *zap.Logger
}

// defaultEngineConfig returns the default engine configuration.
func defaultEngineConfig() *engineConfig {
	return &engineConfig{
		maxDepth:       DefaultMaxDepth,
		defaultDialect: DefaultDialect,
	}
}

// WithLogger sets the logger for the engine.
// Default: nil (no logging)
func WithLogger(logger *zap.Logger) Option {
	return func(c *engineConfig) {
		c.logger = logger
	}
}

// WithLoader sets the loader resolving "load" directives. The engine wraps
// it in a CachingLoader, so each library is loaded once per engine.
// Default: none; every load directive fails with a lookup error.
func WithLoader(loader Loader) Option {
	return func(c *engineConfig) {
		c.loader = loader
	}
}

// WithLibraries is shorthand for WithLoader(MapLoader{...}).
func WithLibraries(libs ...*Library) Option {
	return func(c *engineConfig) {
		m := make(MapLoader, len(libs))
		for _, lib := range libs {
			m[lib.Name] = lib
		}
		c.loader = m
	}
}

// WithTemplateSource sets where include tags fetch templates from.
// Default: none; every include fails with a lookup error.
func WithTemplateSource(source TemplateSource) Option {
	return func(c *engineConfig) {
		c.source = source
	}
}

// WithMutationPolicy overrides the binding target of every dialect.
// Default: each dialect's own policy (innermost for TMPL, outermost otherwise).
func WithMutationPolicy(policy MutationPolicy) Option {
	return func(c *engineConfig) {
		c.policy = &policy
	}
}

// WithStrictVariables makes undefined variables fail the render instead of
// rendering the dialect's substitute value.
// Default: each dialect's own setting (lenient for the builtin dialects).
func WithStrictVariables(strict bool) Option {
	return func(c *engineConfig) {
		c.strict = &strict
	}
}

// WithMaxDepth bounds tag nesting and include recursion.
// Default: 100
func WithMaxDepth(depth int) Option {
	return func(c *engineConfig) {
		c.maxDepth = depth
	}
}

// WithDialect registers an additional dialect, replacing a builtin one of
// the same name.
func WithDialect(d *Dialect) Option {
	return func(c *engineConfig) {
		c.dialects = append(c.dialects, d)
	}
}

// WithDefaultDialect selects the dialect used when none is named.
// Default: "django"
func WithDefaultDialect(name string) Option {
	return func(c *engineConfig) {
		if name != "" {
			c.defaultDialect = name
		}
	}
}
