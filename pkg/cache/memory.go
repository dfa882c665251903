package cache

import (
	"container/list"
	"sync"

	"github.com/sandrolain/goexpr/pkg/ast"
)

// DefaultCapacity is the Memory capacity used when none is given.
const DefaultCapacity = 256

// slot is the value held by each recency list element. Slots are stored by
// value and replaced as a whole, never mutated in place.
type slot struct {
	key    string
	parsed *ast.ParsedExpression
}

// Memory keeps parsed expressions in process, dropping the least recently
// used one when full. It is safe for concurrent use.
type Memory struct {
	capacity int

	mu     sync.Mutex
	recent *list.List // front is the most recently used slot
	byKey  map[string]*list.Element
}

// NewMemory creates a Memory holding up to capacity expressions, or
// DefaultCapacity when capacity is not positive.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memory{
		capacity: capacity,
		recent:   list.New(),
		byKey:    make(map[string]*list.Element, capacity),
	}
}

// Get returns the expression stored under key and marks it as recently
// used. The error is always nil.
func (m *Memory) Get(key string) (*ast.ParsedExpression, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.byKey[key]
	if !ok {
		return nil, false, nil
	}
	m.recent.MoveToFront(el)
	return el.Value.(slot).parsed, true, nil
}

// Put stores parsed under key, evicting the least recently used
// expression when a new key does not fit.
func (m *Memory) Put(key string, parsed *ast.ParsedExpression) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.byKey[key]; ok {
		el.Value = slot{key: key, parsed: parsed}
		m.recent.MoveToFront(el)
		return nil
	}
	for m.recent.Len() >= m.capacity {
		oldest := m.recent.Back()
		m.recent.Remove(oldest)
		delete(m.byKey, oldest.Value.(slot).key)
	}
	m.byKey[key] = m.recent.PushFront(slot{key: key, parsed: parsed})
	return nil
}

// Delete drops the expression stored under key, if any.
func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.byKey[key]; ok {
		m.recent.Remove(el)
		delete(m.byKey, key)
	}
}

// Clear drops every expression.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.recent.Init()
	clear(m.byKey)
}

// Len returns the number of stored expressions.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byKey)
}

// Capacity returns the maximum number of stored expressions.
func (m *Memory) Capacity() int {
	return m.capacity
}
