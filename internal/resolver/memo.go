package resolver

import (
	"container/list"
	"sync"
	"time"

	"adsb_speech/internal/models"
)

// MemoConfig bounds the in-memory route table. The zero value keeps every
// route for the lifetime of the process.
type MemoConfig struct {
	MaxEntries int           // evict the oldest route beyond this many, 0 = unbounded
	TTL        time.Duration // routes older than this are dropped by Prune, 0 = never
}

// memo maps flight designators to their first resolved route. Entries are
// never refreshed; a configured bound only removes them.
type memo struct {
	cfg MemoConfig

	mu      sync.Mutex
	items   map[string]*list.Element
	byAge   *list.List // front = newest
	evicted int64
}

type memoEntry struct {
	designator string
	route      *models.RouteInfo
	storedAt   time.Time
}

func newMemo(cfg MemoConfig) *memo {
	return &memo{
		cfg:   cfg,
		items: make(map[string]*list.Element),
		byAge: list.New(),
	}
}

func (m *memo) get(designator string) (*models.RouteInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.items[designator]
	if !ok {
		return nil, false
	}
	return elem.Value.(*memoEntry).route, true
}

// put stores route unless the designator already has one, and returns the
// route that is now memoized.
func (m *memo) put(designator string, route *models.RouteInfo, now time.Time) *models.RouteInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.items[designator]; ok {
		return elem.Value.(*memoEntry).route
	}

	m.items[designator] = m.byAge.PushFront(&memoEntry{
		designator: designator,
		route:      route,
		storedAt:   now,
	})

	for m.cfg.MaxEntries > 0 && m.byAge.Len() > m.cfg.MaxEntries {
		m.removeElement(m.byAge.Back())
	}
	return route
}

// prune drops entries older than the TTL and returns how many were removed
func (m *memo) prune(now time.Time) int {
	if m.cfg.TTL <= 0 {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for elem := m.byAge.Back(); elem != nil; elem = m.byAge.Back() {
		if now.Sub(elem.Value.(*memoEntry).storedAt) < m.cfg.TTL {
			break
		}
		m.removeElement(elem)
		removed++
	}
	return removed
}

func (m *memo) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// removeElement must be called with the lock held
func (m *memo) removeElement(elem *list.Element) {
	entry := m.byAge.Remove(elem).(*memoEntry)
	delete(m.items, entry.designator)
	m.evicted++
}
