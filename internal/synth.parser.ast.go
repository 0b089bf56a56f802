package internal

import (
	"fmt"
	"strings"
)

// Display limits for node String output
const (
	MaxStringDisplayLength = 40
	TruncatedStringLength  = 37
	TruncationSuffix       = "..."
)

// Node is the interface all AST nodes implement
type Node interface {
	// Type returns the node type identifier
	Type() NodeType
	// Pos returns the source position of this node
	Pos() Position
	// String returns a human-readable representation
	String() string
}

// RootNode is the top-level container for an AST
type RootNode struct {
	Children []Node
}

// Type returns NodeTypeRoot
func (n *RootNode) Type() NodeType {
	return NodeTypeRoot
}

// Pos returns the start of the source
func (n *RootNode) Pos() Position {
	return Position{Offset: 0, Line: 1, Column: 1}
}

// String returns a string representation of the root node
func (n *RootNode) String() string {
	var sb strings.Builder
	sb.WriteString("RootNode{\n")
	for i, child := range n.Children {
		sb.WriteString(fmt.Sprintf("  [%d] %s\n", i, child.String()))
	}
	sb.WriteString("}")
	return sb.String()
}

// TextNode represents literal text content
type TextNode struct {
	pos     Position
	Content string
}

// Type returns NodeTypeText
func (n *TextNode) Type() NodeType {
	return NodeTypeText
}

// Pos returns the source position
func (n *TextNode) Pos() Position {
	return n.pos
}

// String returns a string representation
func (n *TextNode) String() string {
	content := n.Content
	if len(content) > MaxStringDisplayLength {
		content = content[:TruncatedStringLength] + TruncationSuffix
	}
	return fmt.Sprintf("TextNode{%q @ %s}", content, n.pos)
}

// NewTextNode creates a new text node
func NewTextNode(content string, pos Position) *TextNode {
	return &TextNode{
		pos:     pos,
		Content: content,
	}
}

// InterpolationNode outputs the stringified value of an expression
type InterpolationNode struct {
	pos  Position
	Expr ExprNode
}

// Type returns NodeTypeInterpolation
func (n *InterpolationNode) Type() NodeType {
	return NodeTypeInterpolation
}

// Pos returns the source position
func (n *InterpolationNode) Pos() Position {
	return n.pos
}

// String returns a string representation
func (n *InterpolationNode) String() string {
	return fmt.Sprintf("InterpolationNode{%s @ %s}", n.Expr.String(), n.pos)
}

// NewInterpolationNode creates a new interpolation node
func NewInterpolationNode(expr ExprNode, pos Position) *InterpolationNode {
	return &InterpolationNode{
		pos:  pos,
		Expr: expr,
	}
}

// TagNode is a resolved tag invocation. Render is the function the tag's
// factory bound to Segments at parse time.
type TagNode struct {
	pos      Position
	Name     string
	Spec     *TagSpec
	Segments []Segment
	Render   RenderFunc
}

// Type returns NodeTypeTag
func (n *TagNode) Type() NodeType {
	return NodeTypeTag
}

// Pos returns the source position
func (n *TagNode) Pos() Position {
	return n.pos
}

// String returns a string representation
func (n *TagNode) String() string {
	names := make([]string, len(n.Segments))
	for i, seg := range n.Segments {
		names[i] = fmt.Sprintf("%s(%d)", seg.Name, len(seg.Body))
	}
	return fmt.Sprintf("TagNode{%s, %s, segments=[%s] @ %s}",
		n.Name, n.Spec.Arity, strings.Join(names, FmtCommaSep), n.pos)
}

// NewTagNode creates a new tag node
func NewTagNode(spec *TagSpec, segments []Segment, render RenderFunc, pos Position) *TagNode {
	return &TagNode{
		pos:      pos,
		Name:     spec.Name,
		Spec:     spec,
		Segments: segments,
		Render:   render,
	}
}

// CountNodes returns the number of nodes in a subtree, segment bodies included
func CountNodes(nodes []Node) int {
	count := 0
	for _, node := range nodes {
		count++
		if tag, ok := node.(*TagNode); ok {
			for _, seg := range tag.Segments {
				count += CountNodes(seg.Body)
			}
		}
	}
	return count
}
