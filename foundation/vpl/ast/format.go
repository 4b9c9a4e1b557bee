package ast

import (
	"fmt"
	"strings"
)

// Format renders a tree as indented text, one statement per line:
//
//	loop 3
//	  right
//	if path_clear
//	  up
//	else
//	  action jump
func Format(n Node) string {
	var b strings.Builder
	write(&b, n, 0)
	return b.String()
}

func write(b *strings.Builder, n Node, depth int) {
	indent := strings.Repeat("  ", depth)
	switch n := n.(type) {
	case *Sequence:
		if n == nil {
			return
		}
		for _, child := range n.Nodes {
			write(b, child, depth)
		}
	case *Direction:
		fmt.Fprintf(b, "%s%s\n", indent, n.Vector.Name())
	case *Action:
		fmt.Fprintf(b, "%saction %s\n", indent, n.Label)
	case *Loop:
		fmt.Fprintf(b, "%sloop %d\n", indent, n.Count)
		write(b, n.Body, depth+1)
	case *Conditional:
		fmt.Fprintf(b, "%sif %s\n", indent, n.Condition)
		write(b, n.Then, depth+1)
		if n.Else != nil {
			fmt.Fprintf(b, "%selse\n", indent)
			write(b, n.Else, depth+1)
		}
	default:
		panic(fmt.Sprintf("ast: unhandled node %T", n))
	}
}

// Walk calls fn for n and every descendant in document order. Returning
// false from fn skips the node's children.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch n := n.(type) {
	case *Sequence:
		for _, child := range n.Nodes {
			Walk(child, fn)
		}
	case *Loop:
		if n.Body != nil {
			Walk(n.Body, fn)
		}
	case *Conditional:
		if n.Then != nil {
			Walk(n.Then, fn)
		}
		if n.Else != nil {
			Walk(n.Else, fn)
		}
	}
}
