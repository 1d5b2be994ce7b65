// Package ast defines the tree produced by the expression parser.
//
// Every node records the byte offset of the source text it originates from.
// Operator nodes record the offset of their operator and Parenthesized
// records the offset of its opening parenthesis.
package ast

import (
	"strconv"
	"strings"
)

type Node interface {
	Pos() int
	String() string
	writeTo(b *strings.Builder)
}

type Number struct {
	Value    float64
	Position int
}

type Identifier struct {
	Name     string
	Position int
}

type Binary struct {
	Op       byte
	Left     Node
	Right    Node
	Position int
}

type Prefix struct {
	Op       byte
	Operand  Node
	Position int
}

// Postfix is never produced by the parser; no postfix operator is lexed.
type Postfix struct {
	Op       byte
	Operand  Node
	Position int
}

type Parenthesized struct {
	Inner    Node
	Position int
}

func (n *Number) Pos() int        { return n.Position }
func (n *Identifier) Pos() int    { return n.Position }
func (n *Binary) Pos() int        { return n.Position }
func (n *Prefix) Pos() int        { return n.Position }
func (n *Postfix) Pos() int       { return n.Position }
func (n *Parenthesized) Pos() int { return n.Position }

func (n *Number) String() string        { return render(n) }
func (n *Identifier) String() string    { return render(n) }
func (n *Binary) String() string        { return render(n) }
func (n *Prefix) String() string        { return render(n) }
func (n *Postfix) String() string       { return render(n) }
func (n *Parenthesized) String() string { return render(n) }

// render writes the whole tree into a single builder so the cost stays
// linear in the number of nodes.
func render(n Node) string {
	var b strings.Builder
	n.writeTo(&b)
	return b.String()
}

func (n *Number) writeTo(b *strings.Builder) {
	b.WriteString(strconv.FormatFloat(n.Value, 'g', -1, 64))
}

func (n *Identifier) writeTo(b *strings.Builder) {
	b.WriteString(n.Name)
}

func (n *Binary) writeTo(b *strings.Builder) {
	b.WriteByte('(')
	b.WriteByte(n.Op)
	b.WriteByte(' ')
	n.Left.writeTo(b)
	b.WriteByte(' ')
	n.Right.writeTo(b)
	b.WriteByte(')')
}

func (n *Prefix) writeTo(b *strings.Builder) {
	b.WriteByte('(')
	b.WriteByte(n.Op)
	b.WriteByte(' ')
	n.Operand.writeTo(b)
	b.WriteByte(')')
}

func (n *Postfix) writeTo(b *strings.Builder) {
	b.WriteByte('(')
	n.Operand.writeTo(b)
	b.WriteByte(' ')
	b.WriteByte(n.Op)
	b.WriteByte(')')
}

func (n *Parenthesized) writeTo(b *strings.Builder) {
	b.WriteString("(group ")
	n.Inner.writeTo(b)
	b.WriteByte(')')
}

// Walk visits node and its descendants in pre-order. Returning false from fn
// skips the children of the visited node.
func Walk(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}

	switch n := node.(type) {
	case *Binary:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *Prefix:
		Walk(n.Operand, fn)
	case *Postfix:
		Walk(n.Operand, fn)
	case *Parenthesized:
		Walk(n.Inner, fn)
	}
}

// Depth returns the height of the tree; a single leaf has depth 1.
func Depth(node Node) int {
	switch n := node.(type) {
	case nil:
		return 0
	case *Binary:
		l, r := Depth(n.Left), Depth(n.Right)
		if l > r {
			return l + 1
		}
		return r + 1
	case *Prefix:
		return Depth(n.Operand) + 1
	case *Postfix:
		return Depth(n.Operand) + 1
	case *Parenthesized:
		return Depth(n.Inner) + 1
	default:
		return 1
	}
}
