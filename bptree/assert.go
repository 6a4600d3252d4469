//go:build debug

package bptree

import "fmt"

// assertNodeShape panics if the node's payload shape does not match its kind.
// Only enabled with -tags debug.
func assertNodeShape(n *node) {
	switch n.kind {
	case leafKind:
		if len(n.vals) != len(n.keys) {
			panic(fmt.Sprintf("leaf node: %d vals, %d keys", len(n.vals), len(n.keys)))
		}
		if n.children != nil {
			panic("leaf node: has children")
		}
	case branchKind:
		if len(n.children) != len(n.keys)+1 {
			panic(fmt.Sprintf("branch node: %d children, %d keys", len(n.children), len(n.keys)))
		}
		if n.vals != nil {
			panic("branch node: has vals")
		}
	default:
		panic(fmt.Sprintf("unknown node kind %d", n.kind))
	}
}
