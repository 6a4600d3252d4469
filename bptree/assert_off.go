//go:build !debug

package bptree

// assertNodeShape is a no-op in production.
// Enable with -tags debug for runtime checks.
func assertNodeShape(*node) {}
