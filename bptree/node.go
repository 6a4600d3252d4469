package bptree

import (
	"encoding/binary"

	"github.com/dacapoday/grove"
)

type nodeKind uint8

const (
	leafKind nodeKind = iota
	branchKind
)

// node is the decoded form of one page, held only for the duration of a
// single mutating operation. A leaf carries vals and the next sibling link;
// a branch carries len(keys)+1 children. The two shapes never mix.
type node struct {
	kind     nodeKind
	keys     [][]byte
	vals     [][]byte       // leaf only
	children []grove.PageID // branch only
	next     grove.PageID   // leaf only
}

// decodePage materializes a page into a node. Key and value slices alias
// the page buffer; callers that outlive the buffer must copy.
func decodePage(id PageID, page Page) (*node, error) {
	if len(page) < HeadSize {
		return nil, errCorruptedPage(id, "short page")
	}
	count := page.Count()
	end := page.end()
	if HeadSize+2*count > len(page) || end > len(page)-HeadSize {
		return nil, errCorruptedPage(id, "bad layout")
	}
	prev := end
	for i := range count {
		beg := int(binary.LittleEndian.Uint16(page[HeadSize+2*i:]))
		if beg > prev {
			return nil, errCorruptedPage(id, "bad item offset")
		}
		prev = beg
	}
	if HeadSize+2*count > HeadSize+prev {
		return nil, errCorruptedPage(id, "item area overlaps slots")
	}

	n := new(node)
	n.keys = make([][]byte, count)
	if page.IsLeaf() {
		n.kind = leafKind
		n.vals = make([][]byte, count)
		n.next = page.Aux()
		for i := range count {
			item := page.item(i)
			klen, m := binary.Uvarint(item)
			if m <= 0 || uint64(m)+klen > uint64(len(item)) {
				return nil, errCorruptedPage(id, "bad leaf item")
			}
			n.keys[i] = item[m : uint64(m)+klen]
			n.vals[i] = item[uint64(m)+klen:]
		}
	} else {
		n.kind = branchKind
		if count == 0 {
			return nil, errCorruptedPage(id, "branch without keys")
		}
		n.children = make([]grove.PageID, count+1)
		n.children[0] = page.Aux()
		for i := range count {
			item := page.item(i)
			if len(item) < 4 {
				return nil, errCorruptedPage(id, "bad branch item")
			}
			n.keys[i] = item[4:]
			n.children[i+1] = binary.LittleEndian.Uint32(item)
		}
	}
	return n, nil
}

// encode serializes the node into page, which must be a full page buffer.
func (n *node) encode(page []byte) error {
	assertNodeShape(n)

	count := len(n.keys)
	head := uint16(count)
	aux := n.next
	if n.kind == branchKind {
		head |= flagBranch
		aux = n.children[0]
	}

	end := len(page) - HeadSize
	binary.LittleEndian.PutUint16(page, head)
	binary.LittleEndian.PutUint32(page[2:], aux)
	binary.LittleEndian.PutUint16(page[6:], uint16(end))

	body := page[HeadSize:]
	beg := end
	for i := range count {
		key := n.keys[i]
		switch n.kind {
		case leafKind:
			val := n.vals[i]
			beg -= sizeUvarint(len(key)) + len(key) + len(val)
			if beg < 2*count {
				return errNodeOverflow
			}
			item := body[beg:end]
			item = item[binary.PutUvarint(item, uint64(len(key))):]
			copy(item, key)
			copy(item[len(key):], val)
		case branchKind:
			beg -= 4 + len(key)
			if beg < 2*count {
				return errNodeOverflow
			}
			item := body[beg:end]
			binary.LittleEndian.PutUint32(item, n.children[i+1])
			copy(item[4:], key)
		}
		binary.LittleEndian.PutUint16(body[2*i:], uint16(beg))
		end = beg
	}
	return nil
}

// size returns the encoded byte size of the node, head included.
func (n *node) size() int {
	total := HeadSize
	switch n.kind {
	case leafKind:
		for i, key := range n.keys {
			total += leafItemSize(len(key), len(n.vals[i]))
		}
	case branchKind:
		for _, key := range n.keys {
			total += branchItemSize(len(key))
		}
	}
	return total
}

func (n *node) insertLeafEntry(index int, key, val []byte) {
	n.keys = append(n.keys, nil)
	copy(n.keys[index+1:], n.keys[index:])
	n.keys[index] = key
	n.vals = append(n.vals, nil)
	copy(n.vals[index+1:], n.vals[index:])
	n.vals[index] = val
}

func (n *node) removeLeafEntry(index int) {
	n.keys = append(n.keys[:index], n.keys[index+1:]...)
	n.vals = append(n.vals[:index], n.vals[index+1:]...)
}

// insertSeparator places key at index and child to its right, at index+1.
func (n *node) insertSeparator(index int, key []byte, child grove.PageID) {
	n.keys = append(n.keys, nil)
	copy(n.keys[index+1:], n.keys[index:])
	n.keys[index] = key
	n.children = append(n.children, 0)
	copy(n.children[index+2:], n.children[index+1:])
	n.children[index+1] = child
}

// removeSeparator drops key index and the child to its right.
func (n *node) removeSeparator(index int) {
	n.keys = append(n.keys[:index], n.keys[index+1:]...)
	n.children = append(n.children[:index+1], n.children[index+2:]...)
}
