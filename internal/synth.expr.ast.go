package internal

import (
	"fmt"
	"strings"
)

// ExprNodeType identifies the type of expression AST node
type ExprNodeType int

// Expression node type constants
const (
	ExprNodeTypeLiteral ExprNodeType = iota
	ExprNodeTypePath
	ExprNodeTypeFilter
)

// Expression node type names for debugging
const (
	ExprNodeTypeNameLiteral = "LITERAL"
	ExprNodeTypeNamePath    = "PATH"
	ExprNodeTypeNameFilter  = "FILTER"
)

// String returns the string representation of the node type
func (t ExprNodeType) String() string {
	switch t {
	case ExprNodeTypePath:
		return ExprNodeTypeNamePath
	case ExprNodeTypeFilter:
		return ExprNodeTypeNameFilter
	default:
		return ExprNodeTypeNameLiteral
	}
}

// ExprNode is the interface for all expression AST nodes
type ExprNode interface {
	// Type returns the node type
	Type() ExprNodeType
	// String returns a string representation for debugging
	String() string
	// exprNode is a marker method to ensure type safety
	exprNode()
}

// LiteralNode represents a literal scalar (string, int, float64, bool or nil)
type LiteralNode struct {
	Value any
}

func (n *LiteralNode) Type() ExprNodeType { return ExprNodeTypeLiteral }
func (n *LiteralNode) exprNode()          {}

func (n *LiteralNode) String() string {
	switch v := n.Value.(type) {
	case nil:
		return KeywordNone
	case string:
		return fmt.Sprintf("%q", v)
	default:
		return Stringify(v)
	}
}

// PathSegment is one step of a variable path: a name (".field" or ".0")
// or a computed subscript ("[expr]").
type PathSegment struct {
	Name  string
	Index ExprNode
}

// PathNode represents a variable path such as user.roles[0].name
type PathNode struct {
	Root     string
	Segments []PathSegment
	Pos      Position
}

func (n *PathNode) Type() ExprNodeType { return ExprNodeTypePath }
func (n *PathNode) exprNode()          {}

func (n *PathNode) String() string {
	var sb strings.Builder
	sb.WriteString(n.Root)
	for _, seg := range n.Segments {
		if seg.Index != nil {
			sb.WriteString(FmtOpenSquare)
			sb.WriteString(seg.Index.String())
			sb.WriteString(FmtCloseSquare)
			continue
		}
		sb.WriteByte(CharDot)
		sb.WriteString(seg.Name)
	}
	return sb.String()
}

// FilterNode applies a resolved filter to the value of Inner
type FilterNode struct {
	Inner  ExprNode
	Name   string
	Filter *FilterSpec
	Args   []ExprNode
	Pos    Position
}

func (n *FilterNode) Type() ExprNodeType { return ExprNodeTypeFilter }
func (n *FilterNode) exprNode()          {}

func (n *FilterNode) String() string {
	if len(n.Args) == 0 {
		return fmt.Sprintf("%s|%s", n.Inner.String(), n.Name)
	}
	args := make([]string, len(n.Args))
	for i, arg := range n.Args {
		args[i] = arg.String()
	}
	return fmt.Sprintf("%s|%s:%s", n.Inner.String(), n.Name, strings.Join(args, ","))
}

// NewLiteral creates a literal node
func NewLiteral(value any) *LiteralNode {
	return &LiteralNode{Value: value}
}

// NewPath creates a variable path node rooted at name
func NewPath(root string, pos Position, segments ...PathSegment) *PathNode {
	return &PathNode{Root: root, Segments: segments, Pos: pos}
}
