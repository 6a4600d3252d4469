package block

// lru is a doubly-linked LRU of page payloads, sized in pages.
type lru struct {
	items map[PageID]*lruEntry
	head  *lruEntry // most recent
	tail  *lruEntry // least recent
	cap   int
}

type lruEntry struct {
	prev, next *lruEntry
	payload    []byte
	id         PageID
}

func newLRU(cap int) *lru {
	return &lru{
		items: make(map[PageID]*lruEntry, cap),
		cap:   cap,
	}
}

func (c *lru) get(id PageID) []byte {
	e, ok := c.items[id]
	if !ok {
		return nil
	}
	c.moveToFront(e)
	return e.payload
}

func (c *lru) put(id PageID, payload []byte) {
	if e, ok := c.items[id]; ok {
		e.payload = payload
		c.moveToFront(e)
		return
	}
	e := &lruEntry{id: id, payload: payload}
	c.items[id] = e
	c.pushFront(e)
	if len(c.items) > c.cap {
		c.evict()
	}
}

func (c *lru) drop(id PageID) {
	e, ok := c.items[id]
	if !ok {
		return
	}
	c.unlink(e)
	delete(c.items, id)
}

func (c *lru) pushFront(e *lruEntry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lru) moveToFront(e *lruEntry) {
	if c.head == e {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

func (c *lru) unlink(e *lruEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lru) evict() {
	if c.tail == nil {
		return
	}
	delete(c.items, c.tail.id)
	c.unlink(c.tail)
}
