package synth

import (
	"go.uber.org/zap"

	"github.com/itsatony/go-synth/internal"
)

// Tag and library protocol types. Libraries built from these are immutable
// once handed to a loader.
type (
	TagSpec       = internal.TagSpec
	FilterSpec    = internal.FilterSpec
	Library       = internal.Library
	Loader        = internal.Loader
	LoaderFunc    = internal.LoaderFunc
	MapLoader     = internal.MapLoader
	CachingLoader = internal.CachingLoader
	Segment       = internal.Segment
	Argument      = internal.Argument
	Context       = internal.Context
	RenderFunc    = internal.RenderFunc
	RenderFactory = internal.RenderFactory
	FilterFunc    = internal.FilterFunc
	Arity         = internal.Arity
)

// Arity classes
const (
	AritySimple       = internal.AritySimple
	ArityContextAware = internal.ArityContextAware
	ArityBlock        = internal.ArityBlock
	ArityVariadic     = internal.ArityVariadic
)

// MutationPolicy selects the scope binding tags such as set and unset write to
type MutationPolicy = internal.MutationPolicy

// Mutation policies
const (
	MutateOutermost = internal.MutateOutermost
	MutateInnermost = internal.MutateInnermost
)

// ParseMutationPolicy converts "outermost" or "innermost" to a policy
func ParseMutationPolicy(name string) (MutationPolicy, bool) {
	return internal.ParseMutationPolicy(name)
}

// NewLibrary builds and validates a library from tag and filter specs
func NewLibrary(name string, tags []*TagSpec, filters []*FilterSpec) (*Library, error) {
	return internal.NewLibrary(name, tags, filters)
}

// MustLibrary is like NewLibrary but panics on an invalid registration
func MustLibrary(name string, tags []*TagSpec, filters []*FilterSpec) *Library {
	lib, err := NewLibrary(name, tags, filters)
	if err != nil {
		panic(err)
	}
	return lib
}

// NewCachingLoader wraps inner so each library is loaded at most once for
// the lifetime of the loader. Failed loads are not cached.
func NewCachingLoader(inner Loader, logger *zap.Logger) *CachingLoader {
	return internal.NewCachingLoader(inner, logger)
}

// Stringify converts a value to its template output form
func Stringify(v any) string {
	return internal.Stringify(v)
}

// Truthy reports whether a value counts as true in a condition
func Truthy(v any) bool {
	return internal.Truthy(v)
}

// SimpleFunc receives the tag's positional arguments and key=value
// arguments, evaluated against the context before the call.
type SimpleFunc func(args []any, kwargs map[string]any) (string, error)

// ContextFunc receives the unevaluated arguments and the live context
type ContextFunc func(ctx *Context, seg Segment) (string, error)

// BlockFunc receives the live context and the tag's single body segment.
// The body renders only if the function calls seg.Render.
type BlockFunc func(ctx *Context, seg Segment) (string, error)

// SimpleTag registers a tag without a body whose arguments are evaluated
// before fn runs.
func SimpleTag(name string, fn SimpleFunc) *TagSpec {
	return &TagSpec{
		Name:  name,
		Arity: AritySimple,
		Factory: func(segments []Segment) (RenderFunc, error) {
			seg := segments[0]
			return func(ctx *Context) (string, error) {
				args, kwargs, err := EvalArgs(ctx, seg.Args)
				if err != nil {
					return "", err
				}
				return fn(args, kwargs)
			}, nil
		},
	}
}

// ContextTag registers a tag without a body that reads and mutates the
// context itself.
func ContextTag(name string, fn ContextFunc) *TagSpec {
	return &TagSpec{
		Name:  name,
		Arity: ArityContextAware,
		Factory: func(segments []Segment) (RenderFunc, error) {
			seg := segments[0]
			return func(ctx *Context) (string, error) {
				return fn(ctx, seg)
			}, nil
		},
	}
}

// BlockTag registers a tag with one body closed by "end"+name, or by one of
// endTags when given.
func BlockTag(name string, fn BlockFunc, endTags ...string) *TagSpec {
	return &TagSpec{
		Name:    name,
		Arity:   ArityBlock,
		EndTags: endTags,
		Factory: func(segments []Segment) (RenderFunc, error) {
			seg := segments[0]
			return func(ctx *Context) (string, error) {
				return fn(ctx, seg)
			}, nil
		},
	}
}

// VariadicTag registers a tag whose body is split into segments by the
// intermediate tags. The factory sees every segment at parse time and
// rejects orderings it does not accept.
func VariadicTag(name string, intermediates, endTags []string, factory RenderFactory) *TagSpec {
	return &TagSpec{
		Name:          name,
		Arity:         ArityVariadic,
		Intermediates: intermediates,
		EndTags:       endTags,
		Factory:       factory,
	}
}

// Filter registers a filter
func Filter(name string, fn FilterFunc) *FilterSpec {
	return &FilterSpec{Name: name, Fn: fn}
}

// EvalArgs evaluates tag arguments, splitting positional from key=value ones
func EvalArgs(ctx *Context, args []Argument) ([]any, map[string]any, error) {
	var (
		positional []any
		keyed      map[string]any
	)
	for _, arg := range args {
		v, err := arg.Eval(ctx)
		if err != nil {
			return nil, nil, err
		}
		if arg.Key == "" {
			positional = append(positional, v)
			continue
		}
		if keyed == nil {
			keyed = make(map[string]any)
		}
		keyed[arg.Key] = v
	}
	return positional, keyed, nil
}
