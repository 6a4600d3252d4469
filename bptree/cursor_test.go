package bptree_test

import (
	"testing"

	"github.com/dacapoday/grove/bptree"
	"github.com/dacapoday/grove/mem"
)

func collect(t *testing.T, cursor *bptree.Cursor) (keys []string) {
	t.Helper()
	defer cursor.Close()
	for cursor.Next() {
		keys = append(keys, string(cursor.Key()))
	}
	if err := cursor.Err(); err != nil {
		t.Fatalf("cursor failed: %v", err)
	}
	return keys
}

func TestScanAcrossLeaves(t *testing.T) {
	tree, _ := newTestTree(t, 4)
	var want []string
	for k := range 50 {
		insertAll(t, tree, k)
		want = append(want, string(key(k)))
	}
	if tree.Height() < 2 {
		t.Fatalf("expected a multi-level tree, got height %d", tree.Height())
	}

	got := collect(t, tree.Scan(nil, nil))
	if len(got) != len(want) {
		t.Fatalf("scanned %d keys, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("key %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestScanBounds(t *testing.T) {
	tree, _ := newTestTree(t, 4)
	for _, k := range []int{10, 20, 30, 40, 50} {
		insertAll(t, tree, k)
	}

	for _, test := range []struct {
		low, high []byte
		want      []string
	}{
		{key(20), key(40), []string{"020", "030", "040"}},
		{key(15), key(45), []string{"020", "030", "040"}},
		{nil, key(25), []string{"010", "020"}},
		{key(35), nil, []string{"040", "050"}},
		{key(60), nil, nil},
		{nil, key(5), nil},
	} {
		got := collect(t, tree.Scan(test.low, test.high))
		if len(got) != len(test.want) {
			t.Fatalf("Scan(%q, %q) = %v, want %v", test.low, test.high, got, test.want)
		}
		for i := range test.want {
			if got[i] != test.want[i] {
				t.Fatalf("Scan(%q, %q) = %v, want %v", test.low, test.high, got, test.want)
			}
		}
	}
}

func TestScanEarlyClose(t *testing.T) {
	tree, _ := newTestTree(t, 4)
	for k := range 30 {
		insertAll(t, tree, k)
	}

	cursor := tree.Scan(nil, nil)
	for range 5 {
		if !cursor.Next() {
			t.Fatal("cursor exhausted early")
		}
	}
	cursor.Close()
	if cursor.Next() {
		t.Fatal("Next after Close should report false")
	}

	// The tree stays fully usable after an abandoned scan.
	if err := tree.Delete(key(7)); err != nil {
		t.Fatalf("Delete after Close: %v", err)
	}
	if err := tree.Check(); err != nil {
		t.Fatalf("Check: %v", err)
	}
}

func TestCursorSeq(t *testing.T) {
	tree, _ := newTestTree(t, 4)
	for k := range 20 {
		insertAll(t, tree, k)
	}

	cursor := tree.Scan(key(3), key(12))
	count := 0
	for k, v := range cursor.Seq() {
		if string(k) != string(key(3+count)) {
			t.Fatalf("key %d = %q, want %q", count, k, key(3+count))
		}
		if string(v) != string(val(3+count)) {
			t.Fatalf("val %d = %q, want %q", count, v, val(3+count))
		}
		count++
		if count == 4 {
			break
		}
	}
	if count != 4 {
		t.Fatalf("yielded %d entries before break, want 4", count)
	}
	if err := cursor.Err(); err != nil {
		t.Fatalf("cursor failed: %v", err)
	}
}

func TestScanSurvivesValueCopy(t *testing.T) {
	store := mem.NewStore(512)
	tree, err := bptree.Create(store, bptree.Config{Order: 4})
	if err != nil {
		t.Fatal(err)
	}
	insertAll(t, tree, 1)

	cursor := tree.Scan(nil, nil)
	defer cursor.Close()
	if !cursor.Next() {
		t.Fatal("empty scan")
	}
	k := append([]byte(nil), cursor.Key()...)
	cursor.Next()
	if string(k) != "001" {
		t.Fatalf("retained key = %q, want %q", k, "001")
	}
}
