package internal

import "fmt"

// Expression evaluator error messages
const (
	ErrMsgExprNilNode         = "nil expression node"
	ErrMsgExprUnknownNodeType = "unknown expression node type"
)

// EvaluateExpr evaluates an expression against ctx, strictly left to right:
// the primary first, then each filter on the running value.
func EvaluateExpr(node ExprNode, ctx *Context) (any, error) {
	switch n := node.(type) {
	case nil:
		return nil, NewRenderError(ErrMsgExprNilNode, "", Position{}, nil)

	case *LiteralNode:
		return n.Value, nil

	case *PathNode:
		return evaluatePath(n, ctx)

	case *FilterNode:
		return evaluateFilter(n, ctx)

	default:
		return nil, NewRenderError(ErrMsgExprUnknownNodeType, fmt.Sprintf("%T", node), Position{}, nil)
	}
}

// evaluatePath walks a variable path. Any missing step makes the whole path
// undefined, which the context turns into a substitute or an error.
func evaluatePath(n *PathNode, ctx *Context) (any, error) {
	value, ok, err := lookupPath(n, ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return ctx.Undefined(n.String(), n.Pos)
	}
	return value, nil
}

// lookupPath walks a variable path, reporting whether every step exists
func lookupPath(n *PathNode, ctx *Context) (any, bool, error) {
	value, ok := ctx.Get(n.Root)
	if !ok {
		return nil, false, nil
	}

	for _, seg := range n.Segments {
		if seg.Index != nil {
			key, err := EvaluateExpr(seg.Index, ctx)
			if err != nil {
				return nil, false, err
			}
			value, ok = Subscript(value, key)
		} else {
			value, ok = Member(value, seg.Name)
		}
		if !ok {
			return nil, false, nil
		}
	}
	return value, true, nil
}

// evaluateFilter applies a resolved filter to its evaluated input
func evaluateFilter(n *FilterNode, ctx *Context) (any, error) {
	input, err := EvaluateExpr(n.Inner, ctx)
	if err != nil {
		return nil, err
	}

	args := make([]any, len(n.Args))
	for i, arg := range n.Args {
		args[i], err = EvaluateExpr(arg, ctx)
		if err != nil {
			return nil, err
		}
	}

	out, err := n.Filter.Fn(input, args)
	if err != nil {
		if IsClassified(err) {
			return nil, err
		}
		return nil, NewRenderError(ErrMsgFilterFailed, n.Name, n.Pos, err)
	}
	return out, nil
}
