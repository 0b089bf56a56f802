package synth

import (
	"fmt"
)

// Condition keywords of the Django if tag
const (
	condOr    = "or"
	condAnd   = "and"
	condNot   = "not"
	condIn    = "in"
	condNotIn = "not in"
)

// Comparison operators of the Django if tag
const (
	opEq = "=="
	opNe = "!="
	opLt = "<"
	opGt = ">"
	opLe = "<="
	opGe = ">="
)

// condition is a compiled if-tag condition. It is built once at parse time
// and evaluated against each render's context.
type condition interface {
	eval(ctx *Context) (bool, error)
}

type orCond struct{ left, right condition }

func (c orCond) eval(ctx *Context) (bool, error) {
	ok, err := c.left.eval(ctx)
	if err != nil || ok {
		return ok, err
	}
	return c.right.eval(ctx)
}

type andCond struct{ left, right condition }

func (c andCond) eval(ctx *Context) (bool, error) {
	ok, err := c.left.eval(ctx)
	if err != nil || !ok {
		return false, err
	}
	return c.right.eval(ctx)
}

type notCond struct{ inner condition }

func (c notCond) eval(ctx *Context) (bool, error) {
	ok, err := c.inner.eval(ctx)
	return !ok, err
}

type valueCond struct{ operand Argument }

func (c valueCond) eval(ctx *Context) (bool, error) {
	v, err := c.operand.Eval(ctx)
	if err != nil {
		return false, err
	}
	return Truthy(v), nil
}

type compareCond struct {
	op          string
	left, right Argument
}

func (c compareCond) eval(ctx *Context) (bool, error) {
	left, err := c.left.Eval(ctx)
	if err != nil {
		return false, err
	}
	right, err := c.right.Eval(ctx)
	if err != nil {
		return false, err
	}
	return compareValues(c.op, left, right)
}

func compareValues(op string, left, right any) (bool, error) {
	switch op {
	case opEq:
		return Equal(left, right), nil
	case opNe:
		return !Equal(left, right), nil
	case condIn:
		return Contains(right, left)
	case condNotIn:
		in, err := Contains(right, left)
		return !in, err
	}

	cmp, err := Compare(left, right)
	if err != nil {
		return false, err
	}
	switch op {
	case opLt:
		return cmp < 0, nil
	case opGt:
		return cmp > 0, nil
	case opLe:
		return cmp <= 0, nil
	default:
		return cmp >= 0, nil
	}
}

// condParser is a recursive-descent parser over tag arguments:
//
//	or      := and ("or" and)*
//	and     := not ("and" not)*
//	not     := "not" not | compare
//	compare := operand (op operand)?
type condParser struct {
	args []Argument
	pos  int
}

func parseCondition(args []Argument) (condition, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%s: %s", ErrMsgBadCondition, ErrMsgMissingArgument)
	}
	p := &condParser{args: args}
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.args) {
		return nil, fmt.Errorf("%s: unexpected %q", ErrMsgBadCondition, p.args[p.pos].Raw)
	}
	return cond, nil
}

func (p *condParser) parseOr() (condition, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.word() == condOr {
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orCond{left, right}
	}
	return left, nil
}

func (p *condParser) parseAnd() (condition, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.word() == condAnd {
		p.pos++
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = andCond{left, right}
	}
	return left, nil
}

func (p *condParser) parseNot() (condition, error) {
	if p.word() == condNot {
		p.pos++
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return notCond{inner}, nil
	}
	return p.parseCompare()
}

func (p *condParser) parseCompare() (condition, error) {
	left, err := p.operand()
	if err != nil {
		return nil, err
	}

	op := p.word()
	switch op {
	case opEq, opNe, opLt, opGt, opLe, opGe, condIn:
		p.pos++
	case condNot:
		if p.pos+1 >= len(p.args) || p.args[p.pos+1].Raw != condIn {
			return valueCond{left}, nil
		}
		op = condNotIn
		p.pos += 2
	default:
		return valueCond{left}, nil
	}

	right, err := p.operand()
	if err != nil {
		return nil, err
	}
	return compareCond{op: op, left: left, right: right}, nil
}

func (p *condParser) operand() (Argument, error) {
	if p.pos >= len(p.args) {
		return Argument{}, fmt.Errorf("%s: %s", ErrMsgBadCondition, ErrMsgMissingArgument)
	}
	arg := p.args[p.pos]
	if arg.Key != "" || arg.Expr == nil || isCondKeyword(arg.Raw) {
		return Argument{}, fmt.Errorf("%s: unexpected %q", ErrMsgBadCondition, arg.Raw)
	}
	p.pos++
	return arg, nil
}

// word returns the current argument text if it is a bare piece
func (p *condParser) word() string {
	if p.pos >= len(p.args) || p.args[p.pos].Key != "" {
		return ""
	}
	return p.args[p.pos].Raw
}

func isCondKeyword(s string) bool {
	switch s {
	case condOr, condAnd, condNot, condIn:
		return true
	}
	return false
}
