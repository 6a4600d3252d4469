package bptree

import (
	"encoding/binary"

	"github.com/dacapoday/grove"
)

type PageID = grove.PageID

// Page is the serialized form of a single tree node.
// Use IsLeaf to distinguish branch and leaf pages, then call the respective
// methods (Branch or Leaf prefix). Incorrect calls are undefined behavior.
type Page []byte

// Page uses LittleEndian encoding.
// Head is {byte[0:2]:count|flags, byte[2:6]:aux, byte[6:8]:end}
//   - count|flags: MSB{bit0:reserved, bit1:IsBranch, bit[2:]:Count}LSB
//   - aux: next-leaf PageID on a leaf page, leftmost child PageID on a branch page
//   - end: end offset of the item area, relative to HeadSize
//
// The slot array byte[8:8+Count*2] holds item begin offsets (relative to
// HeadSize); items are packed backward from the page tail, so item i spans
// [slot[i], slot[i-1]) with slot[-1] read from the end field.
// LeafItem is {uvarint(klen), key, val}.
// BranchItem is {PageID, key}, the PageID being the child to the right of key.
const HeadSize = 8

const flagBranch = 0x4000

// Count returns the number of keys stored in the page.
func (page Page) Count() int {
	if len(page) < HeadSize {
		return 0
	}
	return int(binary.LittleEndian.Uint16(page) & 0x3FFF)
}

// IsLeaf reports whether the page is a leaf page.
func (page Page) IsLeaf() bool {
	if len(page) < HeadSize {
		return true
	}
	return binary.LittleEndian.Uint16(page)&flagBranch == 0
}

// Aux returns the auxiliary page id from the head: the next-leaf link of a
// leaf page, or the leftmost child of a branch page.
func (page Page) Aux() PageID {
	if len(page) < HeadSize {
		return 0
	}
	return binary.LittleEndian.Uint32(page[2:])
}

// Size returns the total number of used bytes in the page.
func (page Page) Size() int {
	if len(page) < HeadSize {
		return len(page)
	}
	count := page.Count()
	if count == 0 {
		return HeadSize
	}
	beg := int(binary.LittleEndian.Uint16(page[HeadSize+2*(count-1):]))
	return HeadSize + 2*count + page.end() - beg
}

func (page Page) end() int {
	return int(binary.LittleEndian.Uint16(page[6:]))
}

func (page Page) item(index int) []byte {
	offset := HeadSize + 2*index
	beg := int(binary.LittleEndian.Uint16(page[offset:])) + HeadSize
	var end int
	if index == 0 {
		end = page.end() + HeadSize
	} else {
		end = int(binary.LittleEndian.Uint16(page[offset-2:])) + HeadSize
	}
	return page[beg:end]
}

// LeafKey returns the key at the given index in a leaf page.
func (page Page) LeafKey(index int) []byte {
	item := page.item(index)
	klen, n := binary.Uvarint(item)
	if n <= 0 {
		return nil
	}
	return item[n : uint64(n)+klen]
}

// LeafVal returns the value at the given index in a leaf page.
func (page Page) LeafVal(index int) []byte {
	item := page.item(index)
	klen, n := binary.Uvarint(item)
	if n <= 0 {
		return nil
	}
	return item[uint64(n)+klen:]
}

// BranchKey returns the separator key at the given index in a branch page.
func (page Page) BranchKey(index int) []byte {
	return page.item(index)[4:]
}

// BranchChild returns the child page id to the right of the separator at
// the given index in a branch page. The leftmost child is Aux.
func (page Page) BranchChild(index int) PageID {
	return binary.LittleEndian.Uint32(page.item(index))
}

// child returns the child page id at position index in 0..Count().
func (page Page) child(index int) PageID {
	if index == 0 {
		return page.Aux()
	}
	return page.BranchChild(index - 1)
}

// searchBranch returns the index of the child to descend for key: the
// number of separators less than or equal to key.
func (page Page) searchBranch(cmp grove.Compare, key []byte) int {
	n := page.Count()
	i, j := 0, n
	for i < j {
		h := (i + j) >> 1
		if cmp(key, page.BranchKey(h)) >= 0 {
			i = h + 1
		} else {
			j = h
		}
	}
	return i
}

// searchLeaf returns the index of the first entry with a key not less than
// key, and whether that entry matches key exactly.
func (page Page) searchLeaf(cmp grove.Compare, key []byte) (int, bool) {
	n := page.Count()
	i, j := 0, n
	for i < j {
		h := (i + j) >> 1
		if cmp(page.LeafKey(h), key) < 0 {
			i = h + 1
		} else {
			j = h
		}
	}
	return i, i < n && cmp(page.LeafKey(i), key) == 0
}

func leafItemSize(klen, vlen int) int {
	// slot + uvarint(klen) + key + val
	return 2 + sizeUvarint(klen) + klen + vlen
}

func branchItemSize(klen int) int {
	// slot + PageID + key
	return 2 + 4 + klen
}

func sizeUvarint(x int) int {
	switch {
	case x < 1<<7:
		return 1
	case x < 1<<14:
		return 2
	case x < 1<<21:
		return 3
	case x < 1<<28:
		return 4
	default:
		return 5
	}
}
