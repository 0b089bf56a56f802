package synth

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/itsatony/go-synth/internal"
)

// SSI builtin directive names
const (
	TagNameEcho     = "echo"
	TagNamePrintEnv = "printenv"
	TagNameConfig   = "config"
)

// Echo encodings
const (
	EncodingNone   = "none"
	EncodingURL    = "url"
	EncodingEntity = "entity"
	argKeyEncoding = "encoding"
)

// LibraryNameSSI is the name of the SSI builtin library
const LibraryNameSSI = "ssi.builtins"

const ssiConfigStateKey = "ssi.config"

// ssiConfig holds the settings of config directives for one render
type ssiConfig struct {
	echoMsg    string
	hasEchoMsg bool
}

// SSILibrary returns the directives in scope in every SSI dialect template
func SSILibrary() *Library {
	return MustLibrary(LibraryNameSSI,
		[]*TagSpec{
			{Name: TagNameEcho, Arity: ArityContextAware, Factory: echoFactory},
			{Name: TagNameSet, Arity: ArityContextAware, Factory: ssiSetFactory},
			VariadicTag(TagNameIf, []string{TagNameElif, TagNameElse}, nil, ssiIfFactory),
			{Name: TagNameInclude, Arity: ArityContextAware, Factory: ssiIncludeFactory},
			ContextTag(TagNamePrintEnv, printEnvTag),
			{Name: TagNameConfig, Arity: ArityContextAware, Factory: configFactory},
		},
		nil,
	)
}

// ssiAttrs collects the attributes of a directive, rejecting positional
// arguments and attributes not in allowed. Keys are lowered.
func ssiAttrs(seg Segment, allowed ...string) (map[string]Argument, error) {
	attrs := make(map[string]Argument, len(seg.Args))
	for _, arg := range seg.Args {
		key := strings.ToLower(arg.Key)
		if key == "" {
			return nil, shapeError(seg.Name, fmt.Sprintf("unexpected %q", arg.Raw))
		}
		known := false
		for _, a := range allowed {
			if key == a {
				known = true
				break
			}
		}
		if !known {
			return nil, shapeError(seg.Name, fmt.Sprintf("unknown attribute %q", arg.Key))
		}
		attrs[key] = arg
	}
	return attrs, nil
}

// attrText returns the text of an attribute value with its quotes removed
func attrText(arg Argument) string {
	if lit, ok := arg.Expr.(*internal.LiteralNode); ok {
		if s, ok := lit.Value.(string); ok {
			return s
		}
	}
	return arg.Raw
}

// lookupVar finds a variable by plain name or by path. Missing variables
// and unreadable paths report false.
func lookupVar(ctx *Context, name string) (any, bool) {
	if v, ok := ctx.Get(name); ok {
		return v, true
	}
	if !strings.ContainsAny(name, ".[") {
		return nil, false
	}
	v, ok, err := ctx.Lookup(name)
	if err != nil {
		return nil, false
	}
	return v, ok
}

// substitute expands $name and ${name} references. Undefined variables
// expand to nothing and \$ is a literal dollar sign.
func substitute(ctx *Context, s string) string {
	if !strings.ContainsRune(s, '$') {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '\\' && i+1 < len(s) && s[i+1] == '$':
			sb.WriteByte('$')
			i++
		case ch == '$' && i+1 < len(s) && s[i+1] == '{':
			end := strings.IndexByte(s[i+2:], '}')
			if end < 0 {
				sb.WriteString(s[i:])
				return sb.String()
			}
			if v, ok := lookupVar(ctx, s[i+2:i+2+end]); ok {
				sb.WriteString(Stringify(v))
			}
			i += end + 2
		case ch == '$':
			j := i + 1
			for j < len(s) && isVarChar(s[j]) {
				j++
			}
			if j == i+1 {
				sb.WriteByte(ch)
				continue
			}
			if v, ok := lookupVar(ctx, s[i+1:j]); ok {
				sb.WriteString(Stringify(v))
			}
			i = j - 1
		default:
			sb.WriteByte(ch)
		}
	}
	return sb.String()
}

func isVarChar(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}

func ssiState(ctx *Context) *ssiConfig {
	return ctx.State(ssiConfigStateKey, func() any { return &ssiConfig{} }).(*ssiConfig)
}

// echoFactory accepts echo var="name" [encoding="none|url|entity"]
func echoFactory(segments []Segment) (RenderFunc, error) {
	seg := segments[0]
	attrs, err := ssiAttrs(seg, ArgKeyVar, argKeyEncoding)
	if err != nil {
		return nil, err
	}
	arg, ok := attrs[ArgKeyVar]
	if !ok {
		return nil, shapeError(TagNameEcho, ErrMsgMissingArgument)
	}
	name := attrText(arg)

	encode := func(s string) string { return s }
	if enc, ok := attrs[argKeyEncoding]; ok {
		switch strings.ToLower(attrText(enc)) {
		case EncodingNone:
		case EncodingURL:
			encode = url.QueryEscape
		case EncodingEntity:
			encode = html.EscapeString
		default:
			return nil, shapeError(TagNameEcho, fmt.Sprintf("unknown encoding %q", attrText(enc)))
		}
	}

	return func(ctx *Context) (string, error) {
		if v, ok := lookupVar(ctx, name); ok {
			return encode(Stringify(v)), nil
		}
		if cfg := ssiState(ctx); cfg.hasEchoMsg {
			return cfg.echoMsg, nil
		}
		v, err := ctx.Undefined(name, seg.Pos)
		if err != nil {
			return "", err
		}
		return Stringify(v), nil
	}, nil
}

// ssiSetFactory accepts set var="name" value="text with $refs"
func ssiSetFactory(segments []Segment) (RenderFunc, error) {
	seg := segments[0]
	attrs, err := ssiAttrs(seg, ArgKeyVar, ArgKeyValue)
	if err != nil {
		return nil, err
	}
	name, ok := attrs[ArgKeyVar]
	if !ok {
		return nil, shapeError(TagNameSet, ErrMsgMissingArgument)
	}
	value, ok := attrs[ArgKeyValue]
	if !ok {
		return nil, shapeError(TagNameSet, ErrMsgMissingArgument)
	}
	varName, text := attrText(name), attrText(value)
	if varName == "" {
		return nil, shapeError(TagNameSet, ErrMsgMissingArgument)
	}

	return func(ctx *Context) (string, error) {
		ctx.Set(varName, substitute(ctx, text))
		return "", nil
	}, nil
}

// ssiIfFactory accepts if expr= (elif expr=)* (else)?
func ssiIfFactory(segments []Segment) (RenderFunc, error) {
	type ssiBranch struct {
		cond ssiExpr
		seg  Segment
	}
	branches := make([]ssiBranch, 0, len(segments))
	for i, seg := range segments {
		if i > 0 && branches[i-1].cond == nil {
			return nil, shapeError(TagNameIf, ErrMsgBadBranchOrder)
		}
		if seg.Name == TagNameElse {
			if len(seg.Args) > 0 {
				return nil, shapeError(TagNameElse, ErrMsgTooManyArguments)
			}
			branches = append(branches, ssiBranch{seg: seg})
			continue
		}
		attrs, err := ssiAttrs(seg, ArgKeyExpr)
		if err != nil {
			return nil, err
		}
		arg, ok := attrs[ArgKeyExpr]
		if !ok {
			return nil, shapeError(seg.Name, ErrMsgMissingArgument)
		}
		cond, err := parseSSIExpr(attrText(arg))
		if err != nil {
			return nil, shapeError(seg.Name, err.Error())
		}
		branches = append(branches, ssiBranch{cond: cond, seg: seg})
	}

	return func(ctx *Context) (string, error) {
		for _, b := range branches {
			if b.cond == nil || b.cond.eval(ctx) {
				return b.seg.Render(ctx)
			}
		}
		return "", nil
	}, nil
}

// ssiIncludeFactory accepts include virtual="path" or include file="path"
func ssiIncludeFactory(segments []Segment) (RenderFunc, error) {
	seg := segments[0]
	attrs, err := ssiAttrs(seg, ArgKeyVirtual, ArgKeyFile)
	if err != nil {
		return nil, err
	}
	if len(attrs) != 1 {
		return nil, shapeError(TagNameInclude, ErrMsgMissingArgument)
	}
	var (
		name    string
		virtual bool
	)
	if arg, ok := attrs[ArgKeyVirtual]; ok {
		name, virtual = attrText(arg), true
	} else {
		name = attrText(attrs[ArgKeyFile])
	}

	return func(ctx *Context) (string, error) {
		target := substitute(ctx, name)
		if virtual {
			target = strings.TrimLeft(target, "/")
		}
		return ctx.Include(target, seg.Pos)
	}, nil
}

// printEnvTag lists every visible binding as name=value lines
func printEnvTag(ctx *Context, seg Segment) (string, error) {
	if len(seg.Args) > 0 {
		return "", shapeError(TagNamePrintEnv, ErrMsgTooManyArguments)
	}
	entries, _ := Entries(ctx.Flatten())
	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(e.Key)
		sb.WriteByte('=')
		sb.WriteString(Stringify(e.Value))
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// configFactory accepts config echomsg="text"
func configFactory(segments []Segment) (RenderFunc, error) {
	seg := segments[0]
	attrs, err := ssiAttrs(seg, ArgKeyEchoMsg)
	if err != nil {
		return nil, err
	}
	arg, ok := attrs[ArgKeyEchoMsg]
	if !ok {
		return nil, shapeError(TagNameConfig, ErrMsgMissingArgument)
	}
	msg := attrText(arg)
	return func(ctx *Context) (string, error) {
		cfg := ssiState(ctx)
		cfg.echoMsg, cfg.hasEchoMsg = msg, true
		return "", nil
	}, nil
}
