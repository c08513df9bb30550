package agent

import (
	"container/list"
	"sync"
)

// dedup is a bounded LRU set of recently announced token ids. It is a
// fast in-memory guard in front of the store's conditional update, not
// the source of truth: losing it on restart only costs one extra
// re-validation read per token.
type dedup struct {
	mu    sync.Mutex
	limit int
	order *list.List // front = most recent
	items map[string]*list.Element
}

func newDedup(limit int) *dedup {
	if limit <= 0 {
		limit = 64
	}
	return &dedup{
		limit: limit,
		order: list.New(),
		items: make(map[string]*list.Element, limit),
	}
}

// Seen reports whether id is in the set and refreshes its recency.
func (d *dedup) Seen(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.items[id]
	if ok {
		d.order.MoveToFront(el)
	}
	return ok
}

// Add inserts id, evicting the least recently seen entry when full.
func (d *dedup) Add(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if el, ok := d.items[id]; ok {
		d.order.MoveToFront(el)
		return
	}
	d.items[id] = d.order.PushFront(id)
	for d.order.Len() > d.limit {
		oldest := d.order.Back()
		d.order.Remove(oldest)
		delete(d.items, oldest.Value.(string))
	}
}

// Resize changes the capacity, evicting from the old end if shrinking.
func (d *dedup) Resize(limit int) {
	if limit <= 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.limit = limit
	for d.order.Len() > d.limit {
		oldest := d.order.Back()
		d.order.Remove(oldest)
		delete(d.items, oldest.Value.(string))
	}
}

func (d *dedup) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.order.Len()
}
