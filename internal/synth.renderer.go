package internal

import (
	"errors"
	"strings"

	"go.uber.org/zap"
)

// Renderer walks an AST and produces output text. It holds no per-render
// state; all mutable state lives in the Context.
type Renderer struct {
	logger *zap.Logger
}

// NewRenderer creates a new renderer
func NewRenderer(logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgRendererCreated)
	return &Renderer{logger: logger}
}

// Render renders root against ctx. The AST is never modified, so the same
// root may be rendered concurrently with distinct contexts.
func (r *Renderer) Render(root *RootNode, ctx *Context) (string, error) {
	r.logger.Debug(LogMsgRenderStart, zap.Int(LogFieldNodes, len(root.Children)))
	out, err := renderNodes(root.Children, ctx)
	if err != nil {
		return "", err
	}
	r.logger.Debug(LogMsgRenderEnd, zap.Int(LogFieldOutput, len(out)))
	return out, nil
}

// renderNodes renders nodes depth-first, left to right
func renderNodes(nodes []Node, ctx *Context) (string, error) {
	var sb strings.Builder
	for _, node := range nodes {
		out, err := renderNode(node, ctx)
		if err != nil {
			return "", err
		}
		sb.WriteString(out)
	}
	return sb.String(), nil
}

func renderNode(node Node, ctx *Context) (string, error) {
	switch n := node.(type) {
	case *TextNode:
		return n.Content, nil

	case *InterpolationNode:
		v, err := EvaluateExpr(n.Expr, ctx)
		if err != nil {
			return "", err
		}
		return Stringify(v), nil

	case *TagNode:
		return renderTag(n, ctx)

	default:
		return "", NewRenderError(ErrMsgUnknownNodeType, node.Type().String(), node.Pos(), nil)
	}
}

// renderTag invokes a tag's bound render function. Failures the tag did not
// classify itself become render errors naming the tag and its position.
func renderTag(n *TagNode, ctx *Context) (string, error) {
	if err := ctx.enter(n.Pos()); err != nil {
		return "", err
	}
	defer ctx.leave()

	ctx.logger.Debug(LogMsgTagInvoked,
		zap.String(LogFieldTag, n.Name),
		zap.Int(LogFieldSegments, len(n.Segments)),
		zap.Int(LogFieldLine, n.Pos().Line),
	)
	out, err := n.Render(ctx)
	if err != nil {
		if IsClassified(err) {
			return "", err
		}
		return "", NewRenderError(ErrMsgTagFailed, n.Name, n.Pos(), err)
	}
	ctx.logger.Debug(LogMsgTagComplete, zap.String(LogFieldTag, n.Name), zap.Int(LogFieldOutput, len(out)))
	return out, nil
}

// IsClassified reports whether err already carries one of the error kinds
func IsClassified(err error) bool {
	for _, kind := range []error{ErrSyntax, ErrLookup, ErrUnbalancedBlock, ErrUnexpectedTag, ErrRender} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
