package synth

import (
	"fmt"
	"html"
	"net/url"
	"strings"
)

// TMPL builtin tag names
const (
	TagNameVar    = "var"
	TagNameUnless = "unless"
	TagNameLoop   = "loop"
)

// Loop context variables bound in each TMPL loop iteration
const (
	TmplLoopFirst   = "__first__"
	TmplLoopLast    = "__last__"
	TmplLoopInner   = "__inner__"
	TmplLoopOdd     = "__odd__"
	TmplLoopCounter = "__counter__"
)

// TMPL escape modes
const (
	EscapeHTML = "html"
	EscapeURL  = "url"
	EscapeNone = "none"
)

// LibraryNameTmpl is the name of the TMPL builtin library
const LibraryNameTmpl = "tmpl.builtins"

// TmplLibrary returns the tags in scope in every TMPL dialect template.
// Variable names are matched case-insensitively when no exact binding exists.
func TmplLibrary() *Library {
	return MustLibrary(LibraryNameTmpl,
		[]*TagSpec{
			{Name: TagNameVar, Arity: ArityContextAware, Factory: tmplVarFactory},
			VariadicTag(TagNameIf, []string{TagNameElse}, nil, tmplIfFactory(true)),
			VariadicTag(TagNameUnless, []string{TagNameElse}, nil, tmplIfFactory(false)),
			{Name: TagNameLoop, Arity: ArityBlock, Factory: tmplLoopFactory},
			{Name: TagNameInclude, Arity: ArityContextAware, Factory: tmplIncludeFactory},
		},
		nil,
	)
}

// tmplAttrs reads a TMPL tag's variable name, given as NAME= or as a single
// bare argument, and its other attributes. Keys are lowered.
func tmplAttrs(seg Segment, allowed ...string) (string, map[string]string, error) {
	var name string
	attrs := make(map[string]string)
	for _, arg := range seg.Args {
		key := strings.ToLower(arg.Key)
		switch {
		case key == "" && name == "":
			name = attrText(arg)
		case key == ArgKeyName && name == "":
			name = attrText(arg)
		case key == "" || key == ArgKeyName:
			return "", nil, shapeError(seg.Name, ErrMsgTooManyArguments)
		default:
			known := false
			for _, a := range allowed {
				if key == a {
					known = true
					break
				}
			}
			if !known {
				return "", nil, shapeError(seg.Name, fmt.Sprintf("unknown attribute %q", arg.Key))
			}
			attrs[key] = attrText(arg)
		}
	}
	if name == "" {
		return "", nil, shapeError(seg.Name, ErrMsgMissingArgument)
	}
	return name, attrs, nil
}

// tmplLookup finds a variable, falling back to a case-insensitive match
func tmplLookup(ctx *Context, name string) (any, bool) {
	if v, ok := lookupVar(ctx, name); ok {
		return v, true
	}
	entries, _ := Entries(ctx.Flatten())
	for _, e := range entries {
		if strings.EqualFold(e.Key, name) {
			return e.Value, true
		}
	}
	return nil, false
}

func tmplEscaper(mode string) (func(string) string, error) {
	switch strings.ToLower(mode) {
	case "", EscapeNone, "0":
		return func(s string) string { return s }, nil
	case EscapeHTML, "1":
		return html.EscapeString, nil
	case EscapeURL:
		return url.QueryEscape, nil
	}
	return nil, fmt.Errorf("unknown escape %q", mode)
}

// tmplVarFactory accepts var NAME=x [DEFAULT=text] [ESCAPE=html|url|none]
func tmplVarFactory(segments []Segment) (RenderFunc, error) {
	seg := segments[0]
	name, attrs, err := tmplAttrs(seg, ArgKeyDefault, ArgKeyEscape)
	if err != nil {
		return nil, err
	}
	escape, err := tmplEscaper(attrs[ArgKeyEscape])
	if err != nil {
		return nil, shapeError(TagNameVar, err.Error())
	}
	def, hasDefault := attrs[ArgKeyDefault]

	return func(ctx *Context) (string, error) {
		v, ok := tmplLookup(ctx, name)
		switch {
		case ok && v != nil:
			return escape(Stringify(v)), nil
		case hasDefault:
			return escape(def), nil
		case ok:
			return "", nil
		}
		v, err := ctx.Undefined(name, seg.Pos)
		if err != nil {
			return "", err
		}
		return escape(Stringify(v)), nil
	}, nil
}

// tmplIfFactory accepts if NAME=x (else)? and, negated, unless
func tmplIfFactory(want bool) RenderFactory {
	return func(segments []Segment) (RenderFunc, error) {
		head := segments[0]
		if len(segments) > 2 || (len(segments) == 2 && len(segments[1].Args) > 0) {
			return nil, shapeError(head.Name, ErrMsgBadBranchOrder)
		}
		name, _, err := tmplAttrs(head)
		if err != nil {
			return nil, err
		}
		return func(ctx *Context) (string, error) {
			v, _ := tmplLookup(ctx, name)
			if Truthy(v) == want {
				return head.Render(ctx)
			}
			if len(segments) == 2 {
				return segments[1].Render(ctx)
			}
			return "", nil
		}, nil
	}
}

// tmplLoopFactory accepts loop NAME=rows. Each row must be a mapping; it
// is pushed as a scope together with the loop context variables.
func tmplLoopFactory(segments []Segment) (RenderFunc, error) {
	seg := segments[0]
	name, _, err := tmplAttrs(seg)
	if err != nil {
		return nil, err
	}

	return func(ctx *Context) (string, error) {
		v, ok := tmplLookup(ctx, name)
		if !ok || v == nil {
			return "", nil
		}
		rows, ok := Items(v)
		if !ok {
			return "", shapeError(TagNameLoop, fmt.Sprintf("%s: %T", ErrMsgNotASequence, v))
		}

		var sb strings.Builder
		for i, row := range rows {
			entries, ok := Entries(row)
			if !ok {
				return "", shapeError(TagNameLoop, fmt.Sprintf("%s: row %d is %T", ErrMsgTypeMismatch, i, row))
			}
			scope := make(map[string]any, len(entries)+5)
			for _, e := range entries {
				scope[e.Key] = e.Value
			}
			scope[TmplLoopFirst] = i == 0
			scope[TmplLoopLast] = i == len(rows)-1
			scope[TmplLoopInner] = i > 0 && i < len(rows)-1
			scope[TmplLoopOdd] = i%2 == 0
			scope[TmplLoopCounter] = i + 1

			ctx.Push(scope)
			out, err := seg.Render(ctx)
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

// tmplIncludeFactory accepts include NAME="file"
func tmplIncludeFactory(segments []Segment) (RenderFunc, error) {
	seg := segments[0]
	name, _, err := tmplAttrs(seg)
	if err != nil {
		return nil, err
	}
	return func(ctx *Context) (string, error) {
		return ctx.Include(name, seg.Pos)
	}, nil
}
