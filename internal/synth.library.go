package internal

import (
	"fmt"
	"strings"
)

// Arity classifies how many body segments a tag consumes
type Arity int

// Arity constants
const (
	AritySimple       Arity = iota // Arguments only, evaluated before the call
	ArityContextAware              // Arguments only, raw pieces plus the live context
	ArityBlock                     // One body terminated by an end tag
	ArityVariadic                  // Bodies separated by intermediate tags, then an end tag
)

// Arity names for debugging
const (
	ArityNameSimple       = "simple"
	ArityNameContextAware = "context"
	ArityNameBlock        = "block"
	ArityNameVariadic     = "variadic"
)

// String returns the arity name
func (a Arity) String() string {
	switch a {
	case ArityContextAware:
		return ArityNameContextAware
	case ArityBlock:
		return ArityNameBlock
	case ArityVariadic:
		return ArityNameVariadic
	default:
		return ArityNameSimple
	}
}

// HasBody reports whether tags of this arity consume a body
func (a Arity) HasBody() bool {
	return a == ArityBlock || a == ArityVariadic
}

// RenderFunc produces the output of one tag invocation
type RenderFunc func(ctx *Context) (string, error)

// RenderFactory binds a tag to its parsed segments. It runs once at parse
// time; an error rejects the tag's shape and aborts the parse.
type RenderFactory func(segments []Segment) (RenderFunc, error)

// FilterFunc transforms a value with the filter's evaluated arguments
type FilterFunc func(value any, args []any) (any, error)

// TagSpec describes a tag a library contributes
type TagSpec struct {
	Name          string
	Arity         Arity
	Intermediates []string // Variadic only, in expected order
	EndTags       []string // Block and Variadic; defaults to "end" + Name
	Factory       RenderFactory
}

// Terminators returns the end tag names, applying the default when none are set
func (s *TagSpec) Terminators() []string {
	if !s.Arity.HasBody() {
		return nil
	}
	if len(s.EndTags) == 0 {
		return []string{EndTagPrefix + s.Name}
	}
	return s.EndTags
}

// IsEndTag reports whether name closes this tag
func (s *TagSpec) IsEndTag(name string) bool {
	for _, end := range s.Terminators() {
		if end == name {
			return true
		}
	}
	return false
}

// IsIntermediate reports whether name starts a new segment of this tag
func (s *TagSpec) IsIntermediate(name string) bool {
	if s.Arity != ArityVariadic {
		return false
	}
	for _, mid := range s.Intermediates {
		if mid == name {
			return true
		}
	}
	return false
}

// Validate checks the registration shape of the tag
func (s *TagSpec) Validate() error {
	switch {
	case s.Name == "":
		return fmt.Errorf(ErrFmtWithName, ErrMsgInvalidSpec, "empty tag name")
	case s.Factory == nil:
		return fmt.Errorf(ErrFmtWithName, ErrMsgInvalidSpec, s.Name+": missing render factory")
	case s.Arity < AritySimple || s.Arity > ArityVariadic:
		return fmt.Errorf(ErrFmtWithName, ErrMsgInvalidSpec, s.Name+": unknown arity")
	case !s.Arity.HasBody() && (len(s.Intermediates) > 0 || len(s.EndTags) > 0):
		return fmt.Errorf(ErrFmtWithName, ErrMsgInvalidSpec, s.Name+": tags without a body take no end or intermediate tags")
	case s.Arity == ArityBlock && len(s.Intermediates) > 0:
		return fmt.Errorf(ErrFmtWithName, ErrMsgInvalidSpec, s.Name+": block tags take no intermediate tags")
	}
	for _, mid := range s.Intermediates {
		if s.IsEndTag(mid) || mid == s.Name {
			return fmt.Errorf(ErrFmtWithName, ErrMsgInvalidSpec, s.Name+": intermediate "+mid+" collides with the tag or its end tag")
		}
	}
	return nil
}

// FilterSpec describes a filter a library contributes
type FilterSpec struct {
	Name string
	Fn   FilterFunc
}

// Validate checks the filter registration
func (s *FilterSpec) Validate() error {
	if s.Name == "" || s.Fn == nil {
		return fmt.Errorf(ErrFmtWithName, ErrMsgInvalidSpec, "filter "+s.Name)
	}
	return nil
}

// Library is a named bundle of tags and filters. It is never mutated once a
// loader hands it out.
type Library struct {
	Name    string
	Tags    map[string]*TagSpec
	Filters map[string]*FilterSpec
}

// NewLibrary builds and validates a library from its specs
func NewLibrary(name string, tags []*TagSpec, filters []*FilterSpec) (*Library, error) {
	lib := &Library{
		Name:    name,
		Tags:    make(map[string]*TagSpec, len(tags)),
		Filters: make(map[string]*FilterSpec, len(filters)),
	}
	for _, tag := range tags {
		if _, dup := lib.Tags[tag.Name]; dup {
			return nil, fmt.Errorf(ErrFmtWithName, ErrMsgInvalidSpec, "duplicate tag "+tag.Name)
		}
		lib.Tags[tag.Name] = tag
	}
	for _, filter := range filters {
		if _, dup := lib.Filters[filter.Name]; dup {
			return nil, fmt.Errorf(ErrFmtWithName, ErrMsgInvalidSpec, "duplicate filter "+filter.Name)
		}
		lib.Filters[filter.Name] = filter
	}
	if err := lib.Validate(); err != nil {
		return nil, err
	}
	return lib, nil
}

// Validate checks every spec and that map keys match spec names
func (l *Library) Validate() error {
	for key, tag := range l.Tags {
		if tag == nil || key != tag.Name {
			return fmt.Errorf(ErrFmtWithName, ErrMsgInvalidSpec, "tag key "+key)
		}
		if err := tag.Validate(); err != nil {
			return err
		}
	}
	for key, filter := range l.Filters {
		if filter == nil || key != filter.Name {
			return fmt.Errorf(ErrFmtWithName, ErrMsgInvalidSpec, "filter key "+key)
		}
		if err := filter.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Loader resolves library names to libraries. Unknown names must fail.
type Loader interface {
	Load(name string) (*Library, error)
}

// LoaderFunc adapts a function to the Loader interface
type LoaderFunc func(name string) (*Library, error)

// Load calls f(name)
func (f LoaderFunc) Load(name string) (*Library, error) {
	return f(name)
}

// Argument is one whitespace-separated piece of a tag's argument text.
// Expr is nil when the piece is not a literal or variable path (operators
// such as "==" or "in"), leaving its meaning to the tag.
type Argument struct {
	Key  string // Set for key=value pieces
	Raw  string // Value text as written
	Expr ExprNode
}

// Eval evaluates the argument; pieces without an expression yield Raw
func (a Argument) Eval(ctx *Context) (any, error) {
	if a.Expr == nil {
		return a.Raw, nil
	}
	return EvaluateExpr(a.Expr, ctx)
}

// EvalOrRaw evaluates the argument, falling back to Raw when it names a
// variable that is not bound anywhere in ctx.
func (a Argument) EvalOrRaw(ctx *Context) (any, error) {
	if path, ok := a.Expr.(*PathNode); ok && !ctx.Has(path.Root) {
		return a.Raw, nil
	}
	return a.Eval(ctx)
}

// Segment is one branch of a tag: the opening (or intermediate) tag name,
// its arguments and the body that follows it.
type Segment struct {
	Name string
	Args []Argument
	Raw  string // Raw argument text
	Pos  Position
	Body []Node
}

// Render renders the segment's body against ctx. Nothing in the body runs
// until this is called.
func (s Segment) Render(ctx *Context) (string, error) {
	return ctx.RenderNodes(s.Body)
}

// Arg returns the argument with the given key (matched case-insensitively)
func (s Segment) Arg(key string) (Argument, bool) {
	for _, arg := range s.Args {
		if strings.EqualFold(arg.Key, key) {
			return arg, true
		}
	}
	return Argument{}, false
}
