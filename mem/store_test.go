package mem

import (
	"errors"
	"testing"

	"github.com/dacapoday/grove"
)

func TestAllocateReusesFreedIDs(t *testing.T) {
	store := NewStore(64)

	a, _ := store.Allocate()
	b, _ := store.Allocate()
	c, _ := store.Allocate()
	if a != 1 || b != 2 || c != 3 {
		t.Fatalf("fresh ids = %d %d %d, want 1 2 3", a, b, c)
	}

	if err := store.Free(b); err != nil {
		t.Fatal(err)
	}
	if err := store.Free(a); err != nil {
		t.Fatal(err)
	}

	// Last freed, first reused.
	id, _ := store.Allocate()
	if id != a {
		t.Fatalf("reused id = %d, want %d", id, a)
	}
	id, _ = store.Allocate()
	if id != b {
		t.Fatalf("reused id = %d, want %d", id, b)
	}
	id, _ = store.Allocate()
	if id != 4 {
		t.Fatalf("fresh id after reuse = %d, want 4", id)
	}
}

func TestReadWriteCopySemantics(t *testing.T) {
	store := NewStore(8)
	id, _ := store.Allocate()

	page := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if err := store.Write(id, page); err != nil {
		t.Fatal(err)
	}
	page[0] = 0xff // must not leak into the store

	got := make([]byte, 8)
	if err := store.Read(id, got); err != nil {
		t.Fatal(err)
	}
	if got[0] != 1 {
		t.Fatalf("stored page aliases the caller buffer: %v", got)
	}
}

func TestOutOfRange(t *testing.T) {
	store := NewStore(8)
	page := make([]byte, 8)

	if err := store.Read(9, page); !errors.Is(err, grove.ErrOutOfRange) {
		t.Fatalf("Read(9) = %v, want ErrOutOfRange", err)
	}
	if err := store.Write(9, page); !errors.Is(err, grove.ErrOutOfRange) {
		t.Fatalf("Write(9) = %v, want ErrOutOfRange", err)
	}

	id, _ := store.Allocate()
	if err := store.Free(id); err != nil {
		t.Fatal(err)
	}
	if err := store.Read(id, page); !errors.Is(err, grove.ErrOutOfRange) {
		t.Fatalf("Read of freed page = %v, want ErrOutOfRange", err)
	}
	// Double free is a no-op, not an error.
	if err := store.Free(id); err != nil {
		t.Fatalf("second Free = %v", err)
	}
}

func TestReset(t *testing.T) {
	store := NewStore(8)
	store.Allocate()
	store.Allocate()
	if store.Len() != 2 {
		t.Fatalf("Len = %d, want 2", store.Len())
	}

	store.Reset()
	if store.Len() != 0 {
		t.Fatalf("Len after Reset = %d, want 0", store.Len())
	}
	if id, _ := store.Allocate(); id != 1 {
		t.Fatalf("first id after Reset = %d, want 1", id)
	}
}
