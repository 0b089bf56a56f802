package internal

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// MutationPolicy selects the scope binding tags write to
type MutationPolicy int

// Mutation policy constants
const (
	// MutateOutermost writes to the base scope, so bindings outlive the
	// block that made them.
	MutateOutermost MutationPolicy = iota
	// MutateInnermost writes to the current scope; bindings vanish when
	// the enclosing block pops it.
	MutateInnermost
)

// Mutation policy names
const (
	MutationPolicyNameOutermost = "outermost"
	MutationPolicyNameInnermost = "innermost"
)

// String returns the policy name
func (p MutationPolicy) String() string {
	if p == MutateInnermost {
		return MutationPolicyNameInnermost
	}
	return MutationPolicyNameOutermost
}

// ParseMutationPolicy converts a policy name to a MutationPolicy
func ParseMutationPolicy(name string) (MutationPolicy, bool) {
	switch strings.ToLower(name) {
	case MutationPolicyNameOutermost:
		return MutateOutermost, true
	case MutationPolicyNameInnermost:
		return MutateInnermost, true
	}
	return MutateOutermost, false
}

// Includer renders another template by name into the current render
type Includer interface {
	Include(ctx *Context, name string) (string, error)
}

// ContextOptions configures a render context
type ContextOptions struct {
	Policy         MutationPolicy
	Strict         bool // Undefined variables fail the render
	UndefinedValue any  // Substituted for undefined variables when not strict
	MaxDepth       int
	Includer       Includer
	Logger         *zap.Logger
}

// Context is the variable environment of one render call: an ordered stack
// of scopes searched innermost first. It is created per render and must not
// be shared between concurrent renders.
type Context struct {
	scopes []map[string]any
	opts   ContextOptions
	depth  int
	std    context.Context
	logger *zap.Logger
	state  map[string]any // Per-render scratch storage for tags
}

// NewContext creates a context whose base scope is a copy of data
func NewContext(ctx context.Context, data map[string]any, opts ContextOptions) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Context{
		scopes: []map[string]any{copyBindings(data)},
		opts:   opts,
		std:    ctx,
		logger: logger,
	}
}

func copyBindings(data map[string]any) map[string]any {
	scope := make(map[string]any, len(data))
	for k, v := range data {
		scope[k] = v
	}
	return scope
}

// Get looks name up from the innermost scope outwards
func (c *Context) Get(name string) (any, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if v, ok := c.scopes[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Has reports whether name is bound in any scope
func (c *Context) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

// Resolve evaluates a variable path such as "user.name" or "items[0]"
func (c *Context) Resolve(path string) (any, error) {
	expr, err := ParsePrimary(path, Position{})
	if err != nil {
		return nil, err
	}
	return EvaluateExpr(expr, c)
}

// Lookup walks a variable path without substituting for undefined names.
// It reports false when any step of the path is missing.
func (c *Context) Lookup(path string) (any, bool, error) {
	expr, err := ParsePrimary(path, Position{})
	if err != nil {
		return nil, false, err
	}
	node, ok := expr.(*PathNode)
	if !ok {
		v, err := EvaluateExpr(expr, c)
		return v, err == nil, err
	}
	return lookupPath(node, c)
}

// Push opens a new innermost scope holding a copy of bindings
func (c *Context) Push(bindings map[string]any) {
	c.scopes = append(c.scopes, copyBindings(bindings))
}

// Pop discards the innermost scope. The base scope cannot be popped.
func (c *Context) Pop() error {
	if len(c.scopes) <= 1 {
		return NewRenderError(ErrMsgScopeUnderflow, "", Position{}, nil)
	}
	c.scopes = c.scopes[:len(c.scopes)-1]
	return nil
}

// Depth returns the number of scopes on the stack
func (c *Context) Depth() int {
	return len(c.scopes)
}

// Set binds name in the scope selected by the mutation policy
func (c *Context) Set(name string, value any) {
	c.target()[name] = value
}

// SetLocal binds name in the innermost scope regardless of policy
func (c *Context) SetLocal(name string, value any) {
	c.scopes[len(c.scopes)-1][name] = value
}

// Unset removes name from the scope selected by the mutation policy
func (c *Context) Unset(name string) {
	delete(c.target(), name)
}

func (c *Context) target() map[string]any {
	if c.opts.Policy == MutateInnermost {
		return c.scopes[len(c.scopes)-1]
	}
	return c.scopes[0]
}

// Policy returns the mutation policy of this context
func (c *Context) Policy() MutationPolicy {
	return c.opts.Policy
}

// Flatten returns every visible binding, inner scopes shadowing outer ones
func (c *Context) Flatten() map[string]any {
	flat := make(map[string]any)
	for _, scope := range c.scopes {
		for k, v := range scope {
			flat[k] = v
		}
	}
	return flat
}

// Undefined returns the substitute for an undefined variable, or a lookup
// error when the context is strict.
func (c *Context) Undefined(name string, pos Position) (any, error) {
	if c.opts.Strict {
		return nil, &LookupError{
			Kind:     ErrUndefinedVariable,
			Message:  ErrMsgVariableUndefined,
			Name:     name,
			Position: pos,
		}
	}
	return c.opts.UndefinedValue, nil
}

// Std returns the context.Context the render was started with
func (c *Context) Std() context.Context {
	return c.std
}

// Logger returns the render logger
func (c *Context) Logger() *zap.Logger {
	return c.logger
}

// State returns per-render scratch storage keyed by name, creating it with
// init on first use.
func (c *Context) State(key string, init func() any) any {
	if c.state == nil {
		c.state = make(map[string]any)
	}
	v, ok := c.state[key]
	if !ok {
		v = init()
		c.state[key] = v
	}
	return v
}

// RenderNodes renders a node list against this context
func (c *Context) RenderNodes(nodes []Node) (string, error) {
	return renderNodes(nodes, c)
}

// Include renders the named template through the configured includer
func (c *Context) Include(name string, pos Position) (string, error) {
	if c.opts.Includer == nil {
		return "", &LookupError{Kind: ErrLookup, Message: ErrMsgTemplateNotFound, Name: name, Position: pos}
	}
	if err := c.enter(pos); err != nil {
		return "", err
	}
	defer c.leave()
	return c.opts.Includer.Include(c, name)
}

// enter increments the nesting depth, failing past MaxDepth
func (c *Context) enter(pos Position) error {
	if c.depth >= c.opts.MaxDepth {
		return NewRenderError(ErrMsgMaxDepthExceeded, "", pos, nil)
	}
	c.depth++
	return nil
}

func (c *Context) leave() {
	c.depth--
}
