package synth

import (
	"fmt"
	"regexp"
	"strings"
)

// Django builtin tag names
const (
	TagNameFor         = "for"
	TagNameEmpty       = "empty"
	TagNameWith        = "with"
	TagNameComment     = "comment"
	TagNameSpaceless   = "spaceless"
	TagNameFirstOf     = "firstof"
	TagNameIfEqual     = "ifequal"
	TagNameIfNotEqual  = "ifnotequal"
	TagNameUnset       = "unset"
	TagNameCycle       = "cycle"
	TagNameTemplateTag = "templatetag"
)

// Loop keywords and variables
const (
	loopIn         = "in"
	loopReversed   = "reversed"
	withAs         = "as"
	includeWith    = "with"
	VarForLoop     = "forloop"
	LoopCounter    = "counter"
	LoopCounter0   = "counter0"
	LoopRevCounter = "revcounter"
	LoopRevCount0  = "revcounter0"
	LoopFirst      = "first"
	LoopLast       = "last"
	LoopLength     = "length"
	LoopParent     = "parentloop"
)

// LibraryNameDjango is the name of the Django builtin library
const LibraryNameDjango = "django.builtins"

var (
	spacelessRe = regexp.MustCompile(`>\s+<`)

	templateTagOutputs = map[string]string{
		"openblock":     "{%",
		"closeblock":    "%}",
		"openvariable":  "{{",
		"closevariable": "}}",
		"openbrace":     "{",
		"closebrace":    "}",
		"opencomment":   "{#",
		"closecomment":  "#}",
	}
)

// DjangoLibrary returns the tags and filters in scope in every Django
// dialect template.
func DjangoLibrary() *Library {
	return MustLibrary(LibraryNameDjango,
		[]*TagSpec{
			VariadicTag(TagNameIf, []string{TagNameElif, TagNameElse}, nil, ifFactory),
			VariadicTag(TagNameFor, []string{TagNameEmpty}, nil, forFactory),
			{Name: TagNameWith, Arity: ArityBlock, Factory: withFactory},
			BlockTag(TagNameComment, func(*Context, Segment) (string, error) { return "", nil }),
			BlockTag(TagNameSpaceless, spacelessTag),
			SimpleTag(TagNameFirstOf, firstOfTag),
			VariadicTag(TagNameIfEqual, []string{TagNameElse}, nil, ifEqualFactory(true)),
			VariadicTag(TagNameIfNotEqual, []string{TagNameElse}, nil, ifEqualFactory(false)),
			{Name: TagNameSet, Arity: ArityContextAware, Factory: setFactory},
			{Name: TagNameUnset, Arity: ArityContextAware, Factory: unsetFactory},
			{Name: TagNameInclude, Arity: ArityContextAware, Factory: djangoIncludeFactory},
			{Name: TagNameCycle, Arity: ArityContextAware, Factory: cycleFactory},
			{Name: TagNameTemplateTag, Arity: AritySimple, Factory: templateTagFactory},
		},
		DjangoFilters(),
	)
}

func shapeError(tag, msg string) error {
	return fmt.Errorf("%s: %s", tag, msg)
}

// branch is one conditional segment; a nil condition always matches
type branch struct {
	cond condition
	seg  Segment
}

func renderBranches(ctx *Context, branches []branch) (string, error) {
	for _, b := range branches {
		if b.cond == nil {
			return b.seg.Render(ctx)
		}
		ok, err := b.cond.eval(ctx)
		if err != nil {
			return "", err
		}
		if ok {
			return b.seg.Render(ctx)
		}
	}
	return "", nil
}

// ifFactory accepts if (elif)* (else)?
func ifFactory(segments []Segment) (RenderFunc, error) {
	branches := make([]branch, 0, len(segments))
	for i, seg := range segments {
		if i > 0 && branches[i-1].cond == nil {
			return nil, shapeError(TagNameIf, ErrMsgBadBranchOrder)
		}
		if seg.Name == TagNameElse {
			if len(seg.Args) > 0 {
				return nil, shapeError(TagNameElse, ErrMsgTooManyArguments)
			}
			branches = append(branches, branch{seg: seg})
			continue
		}
		cond, err := parseCondition(seg.Args)
		if err != nil {
			return nil, err
		}
		branches = append(branches, branch{cond: cond, seg: seg})
	}
	return func(ctx *Context) (string, error) {
		return renderBranches(ctx, branches)
	}, nil
}

// ifEqualFactory accepts ifequal a b (else)?
func ifEqualFactory(equal bool) RenderFactory {
	return func(segments []Segment) (RenderFunc, error) {
		head := segments[0]
		if len(head.Args) != 2 {
			return nil, shapeError(head.Name, ErrMsgMissingArgument)
		}
		if len(segments) > 2 {
			return nil, shapeError(head.Name, ErrMsgBadBranchOrder)
		}
		return func(ctx *Context) (string, error) {
			a, err := head.Args[0].Eval(ctx)
			if err != nil {
				return "", err
			}
			b, err := head.Args[1].Eval(ctx)
			if err != nil {
				return "", err
			}
			if Equal(a, b) == equal {
				return head.Render(ctx)
			}
			if len(segments) == 2 {
				return segments[1].Render(ctx)
			}
			return "", nil
		}, nil
	}
}

// loopHeader is a parsed "for a, b in seq [reversed]"
type loopHeader struct {
	names    []string
	seq      Argument
	reversed bool
}

func parseLoopHeader(args []Argument) (loopHeader, error) {
	in := -1
	for i, arg := range args {
		if arg.Key == "" && arg.Raw == loopIn {
			in = i
			break
		}
	}
	if in < 1 || in+1 >= len(args) {
		return loopHeader{}, shapeError(TagNameFor, ErrMsgBadLoop)
	}

	var header loopHeader
	var raw []string
	for _, arg := range args[:in] {
		raw = append(raw, arg.Raw)
	}
	for _, name := range strings.Split(strings.Join(raw, ""), ",") {
		if name = strings.TrimSpace(name); name != "" {
			header.names = append(header.names, name)
		}
	}
	if len(header.names) == 0 {
		return loopHeader{}, shapeError(TagNameFor, ErrMsgBadLoop)
	}

	rest := args[in+1:]
	header.seq = rest[0]
	switch {
	case len(rest) == 2 && rest[1].Raw == loopReversed:
		header.reversed = true
	case len(rest) > 1:
		return loopHeader{}, shapeError(TagNameFor, ErrMsgTooManyArguments)
	}
	return header, nil
}

// forFactory accepts for (empty)?
func forFactory(segments []Segment) (RenderFunc, error) {
	if len(segments) > 2 || (len(segments) == 2 && len(segments[1].Args) > 0) {
		return nil, shapeError(TagNameFor, ErrMsgBadBranchOrder)
	}
	header, err := parseLoopHeader(segments[0].Args)
	if err != nil {
		return nil, err
	}
	body := segments[0]

	return func(ctx *Context) (string, error) {
		seq, err := header.seq.Eval(ctx)
		if err != nil {
			return "", err
		}
		items, err := loopItems(seq, len(header.names))
		if err != nil {
			return "", err
		}
		if len(items) == 0 {
			if len(segments) == 2 {
				return segments[1].Render(ctx)
			}
			return "", nil
		}
		if header.reversed {
			reversed := make([]any, len(items))
			for i, item := range items {
				reversed[len(items)-1-i] = item
			}
			items = reversed
		}

		parent, _ := ctx.Get(VarForLoop)
		var sb strings.Builder
		for i, item := range items {
			scope := map[string]any{
				VarForLoop: map[string]any{
					LoopCounter:    i + 1,
					LoopCounter0:   i,
					LoopRevCounter: len(items) - i,
					LoopRevCount0:  len(items) - i - 1,
					LoopFirst:      i == 0,
					LoopLast:       i == len(items)-1,
					LoopLength:     len(items),
					LoopParent:     parent,
				},
			}
			if err := bindLoopVars(scope, header.names, item); err != nil {
				return "", err
			}

			ctx.Push(scope)
			out, err := body.Render(ctx)
			if popErr := ctx.Pop(); err == nil {
				err = popErr
			}
			if err != nil {
				return "", err
			}
			sb.WriteString(out)
		}
		return sb.String(), nil
	}, nil
}

// loopItems turns a loop subject into its items; with two loop variables a
// mapping yields key/value pairs.
func loopItems(seq any, vars int) ([]any, error) {
	if vars == 2 {
		if entries, ok := Entries(seq); ok {
			items := make([]any, len(entries))
			for i, e := range entries {
				items[i] = []any{e.Key, e.Value}
			}
			return items, nil
		}
	}
	items, ok := Items(seq)
	if !ok {
		return nil, shapeError(TagNameFor, fmt.Sprintf("%s: %T", ErrMsgNotASequence, seq))
	}
	return items, nil
}

func bindLoopVars(scope map[string]any, names []string, item any) error {
	if len(names) == 1 {
		scope[names[0]] = item
		return nil
	}
	parts, ok := Items(item)
	if !ok || len(parts) != len(names) {
		return shapeError(TagNameFor, fmt.Sprintf("cannot unpack %s into %d variables", Stringify(item), len(names)))
	}
	for i, name := range names {
		scope[name] = parts[i]
	}
	return nil
}

// withFactory accepts "with a=x b=y" and "with x as a"
func withFactory(segments []Segment) (RenderFunc, error) {
	seg := segments[0]
	type binding struct {
		name string
		arg  Argument
	}
	var bindings []binding

	switch {
	case len(seg.Args) == 3 && seg.Args[1].Key == "" && seg.Args[1].Raw == withAs:
		bindings = append(bindings, binding{name: seg.Args[2].Raw, arg: seg.Args[0]})
	default:
		for _, arg := range seg.Args {
			if arg.Key == "" {
				return nil, shapeError(TagNameWith, fmt.Sprintf("unexpected %q", arg.Raw))
			}
			bindings = append(bindings, binding{name: arg.Key, arg: arg})
		}
	}
	if len(bindings) == 0 {
		return nil, shapeError(TagNameWith, ErrMsgMissingArgument)
	}

	return func(ctx *Context) (string, error) {
		scope := make(map[string]any, len(bindings))
		for _, b := range bindings {
			v, err := b.arg.Eval(ctx)
			if err != nil {
				return "", err
			}
			scope[b.name] = v
		}
		ctx.Push(scope)
		out, err := seg.Render(ctx)
		if popErr := ctx.Pop(); err == nil {
			err = popErr
		}
		return out, err
	}, nil
}

func spacelessTag(ctx *Context, seg Segment) (string, error) {
	out, err := seg.Render(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(spacelessRe.ReplaceAllString(out, "><")), nil
}

func firstOfTag(args []any, _ map[string]any) (string, error) {
	for _, arg := range args {
		if Truthy(arg) {
			return Stringify(arg), nil
		}
	}
	return "", nil
}

// setFactory accepts "set name value" and "set a=x b=y". A value naming an
// unbound variable binds its own text.
func setFactory(segments []Segment) (RenderFunc, error) {
	seg := segments[0]
	type binding struct {
		name string
		arg  Argument
	}
	var bindings []binding

	switch {
	case len(seg.Args) == 2 && seg.Args[0].Key == "" && seg.Args[1].Key == "":
		bindings = append(bindings, binding{name: seg.Args[0].Raw, arg: seg.Args[1]})
	case len(seg.Args) > 0:
		for _, arg := range seg.Args {
			if arg.Key == "" {
				return nil, shapeError(TagNameSet, fmt.Sprintf("unexpected %q", arg.Raw))
			}
			bindings = append(bindings, binding{name: arg.Key, arg: arg})
		}
	default:
		return nil, shapeError(TagNameSet, ErrMsgMissingArgument)
	}

	return func(ctx *Context) (string, error) {
		for _, b := range bindings {
			v, err := b.arg.EvalOrRaw(ctx)
			if err != nil {
				return "", err
			}
			ctx.Set(b.name, v)
		}
		return "", nil
	}, nil
}

// unsetFactory accepts "unset name ..."
func unsetFactory(segments []Segment) (RenderFunc, error) {
	seg := segments[0]
	if len(seg.Args) == 0 {
		return nil, shapeError(TagNameUnset, ErrMsgMissingArgument)
	}
	names := make([]string, len(seg.Args))
	for i, arg := range seg.Args {
		if arg.Key != "" {
			return nil, shapeError(TagNameUnset, fmt.Sprintf("unexpected %q", arg.Raw))
		}
		names[i] = arg.Raw
	}
	return func(ctx *Context) (string, error) {
		for _, name := range names {
			ctx.Unset(name)
		}
		return "", nil
	}, nil
}

// djangoIncludeFactory accepts `include name [with a=x ...]`
func djangoIncludeFactory(segments []Segment) (RenderFunc, error) {
	seg := segments[0]
	if len(seg.Args) == 0 {
		return nil, shapeError(TagNameInclude, ErrMsgMissingArgument)
	}
	name := seg.Args[0]
	extra := seg.Args[1:]
	if len(extra) > 0 {
		if extra[0].Key != "" || extra[0].Raw != includeWith || len(extra) == 1 {
			return nil, shapeError(TagNameInclude, fmt.Sprintf("unexpected %q", extra[0].Raw))
		}
		extra = extra[1:]
		for _, arg := range extra {
			if arg.Key == "" {
				return nil, shapeError(TagNameInclude, fmt.Sprintf("unexpected %q", arg.Raw))
			}
		}
	}

	return func(ctx *Context) (string, error) {
		v, err := name.Eval(ctx)
		if err != nil {
			return "", err
		}
		if len(extra) == 0 {
			return ctx.Include(Stringify(v), seg.Pos)
		}
		_, scope, err := EvalArgs(ctx, extra)
		if err != nil {
			return "", err
		}
		ctx.Push(scope)
		out, err := ctx.Include(Stringify(v), seg.Pos)
		if popErr := ctx.Pop(); err == nil {
			err = popErr
		}
		return out, err
	}, nil
}

// cycleFactory outputs its arguments in turn, one per invocation within a render
func cycleFactory(segments []Segment) (RenderFunc, error) {
	seg := segments[0]
	if len(seg.Args) == 0 {
		return nil, shapeError(TagNameCycle, ErrMsgMissingArgument)
	}
	key := fmt.Sprintf("%s@%d:%s", TagNameCycle, seg.Pos.Offset, seg.Raw)
	return func(ctx *Context) (string, error) {
		counter := ctx.State(key, func() any { return new(int) }).(*int)
		arg := seg.Args[*counter%len(seg.Args)]
		*counter++
		v, err := arg.Eval(ctx)
		if err != nil {
			return "", err
		}
		return Stringify(v), nil
	}, nil
}

// templateTagFactory outputs one of the Django delimiters literally
func templateTagFactory(segments []Segment) (RenderFunc, error) {
	seg := segments[0]
	if len(seg.Args) != 1 {
		return nil, shapeError(TagNameTemplateTag, ErrMsgMissingArgument)
	}
	out, ok := templateTagOutputs[seg.Args[0].Raw]
	if !ok {
		return nil, shapeError(TagNameTemplateTag, fmt.Sprintf("unknown delimiter %q", seg.Args[0].Raw))
	}
	return func(*Context) (string, error) { return out, nil }, nil
}
