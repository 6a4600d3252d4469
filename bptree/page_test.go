package bptree

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"testing"
)

func TestLeafPageRoundTrip(t *testing.T) {
	pageSize := 512 + rand.IntN(8*1024)
	t.Logf("pageSize=%d", pageSize)

	leaf := &node{kind: leafKind, next: 2 + rand.Uint32()}
	used := HeadSize
	for i := 0; ; i++ {
		key := fmt.Appendf(nil, "%04d-%x", i, rand.Uint64())
		val := make([]byte, rand.IntN(64))
		for j := range val {
			val[j] = byte(rand.IntN(256))
		}
		if used += leafItemSize(len(key), len(val)); used > pageSize {
			break
		}
		leaf.keys = append(leaf.keys, key)
		leaf.vals = append(leaf.vals, val)
	}
	t.Logf("itemCount=%d", len(leaf.keys))

	buffer := make([]byte, pageSize)
	if err := leaf.encode(buffer); err != nil {
		t.Fatalf("encode: %v", err)
	}
	page := Page(buffer)

	if !page.IsLeaf() {
		t.Fatal("page should be a leaf page")
	}
	if page.Count() != len(leaf.keys) {
		t.Fatalf("expected %d items, got %d", len(leaf.keys), page.Count())
	}
	if page.Aux() != leaf.next {
		t.Fatalf("expected next %d, got %d", leaf.next, page.Aux())
	}

	got, err := decodePage(1, page)
	if err != nil {
		t.Fatalf("decodePage: %v", err)
	}
	for i := range leaf.keys {
		if !bytes.Equal(got.keys[i], leaf.keys[i]) {
			t.Errorf("item %d: key mismatch\nexpected: %x\ngot:      %x", i, leaf.keys[i], got.keys[i])
		}
		if !bytes.Equal(got.vals[i], leaf.vals[i]) {
			t.Errorf("item %d: val mismatch\nexpected: %x\ngot:      %x", i, leaf.vals[i], got.vals[i])
		}
	}
}

func TestBranchPageRoundTrip(t *testing.T) {
	pageSize := 512 + rand.IntN(8*1024)
	t.Logf("pageSize=%d", pageSize)

	branch := &node{kind: branchKind, children: []PageID{1 + rand.Uint32()}}
	used := HeadSize
	for i := 0; ; i++ {
		key := fmt.Appendf(nil, "%04d-%x", i, rand.Uint64())
		if used += branchItemSize(len(key)); used > pageSize {
			break
		}
		branch.keys = append(branch.keys, key)
		branch.children = append(branch.children, 1+rand.Uint32())
	}
	t.Logf("itemCount=%d", len(branch.keys))

	buffer := make([]byte, pageSize)
	if err := branch.encode(buffer); err != nil {
		t.Fatalf("encode: %v", err)
	}
	page := Page(buffer)

	if page.IsLeaf() {
		t.Fatal("page should be a branch page")
	}
	if page.Count() != len(branch.keys) {
		t.Fatalf("expected %d items, got %d", len(branch.keys), page.Count())
	}

	got, err := decodePage(1, page)
	if err != nil {
		t.Fatalf("decodePage: %v", err)
	}
	for i := range branch.keys {
		if !bytes.Equal(got.keys[i], branch.keys[i]) {
			t.Errorf("item %d: key mismatch\nexpected: %x\ngot:      %x", i, branch.keys[i], got.keys[i])
		}
	}
	for i := range branch.children {
		if got.children[i] != branch.children[i] {
			t.Errorf("child %d: expected %d, got %d", i, branch.children[i], got.children[i])
		}
	}
}

func TestEmptyLeafPage(t *testing.T) {
	buffer := make([]byte, 256)
	empty := node{kind: leafKind}
	if err := empty.encode(buffer); err != nil {
		t.Fatalf("encode: %v", err)
	}

	page := Page(buffer)
	if page.Count() != 0 {
		t.Errorf("empty page Count() = %d, want 0", page.Count())
	}
	if !page.IsLeaf() {
		t.Error("empty page IsLeaf() = false, want true")
	}
	if page.Size() != HeadSize {
		t.Errorf("empty page Size() = %d, want %d", page.Size(), HeadSize)
	}

	got, err := decodePage(1, page)
	if err != nil {
		t.Fatalf("decodePage: %v", err)
	}
	if len(got.keys) != 0 || got.next != 0 {
		t.Errorf("decoded empty leaf = %+v", got)
	}
}

func TestDecodeShortPage(t *testing.T) {
	if _, err := decodePage(7, Page(make([]byte, 4))); err == nil {
		t.Fatal("decodePage should reject a short page")
	}
}
