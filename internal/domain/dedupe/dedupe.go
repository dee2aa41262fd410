// Package dedupe tracks keys that were already seen.
package dedupe

import (
	"sync"
)

// Deduper records seen keys so repeated rows are processed at most once.
type Deduper[K comparable] interface {
	// SeenAndRecord atomically checks if k was seen and records it if not.
	// Returns true if k was already seen, false if it was newly recorded.
	SeenAndRecord(k K) bool

	// Unrecord forgets k so it may be recorded again.
	Unrecord(k K)

	Size() int
}

// node is an entry in the insertion-ordered list used by bounded sets.
type node[K comparable] struct {
	key  K
	next *node[K]
}

// Set implements Deduper with a map. In bounded mode (maxSize > 0) it also
// keeps a linked list, newest first, and evicts the oldest key when full.
type Set[K comparable] struct {
	mu      sync.Mutex
	seen    map[K]*node[K]
	head    *node[K]
	maxSize int
}

// Option applies a configuration option to a Set.
type Option func(*settings)

type settings struct {
	maxSize int
}

// WithMaxSize bounds the number of remembered keys.
// maxSize <= 0 means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(s *settings) {
		s.maxSize = maxSize
	}
}

// NewSet creates an unbounded set unless WithMaxSize says otherwise.
func NewSet[K comparable](opts ...Option) *Set[K] {
	var cfg settings
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Set[K]{
		seen:    make(map[K]*node[K]),
		maxSize: cfg.maxSize,
	}
}

// SeenAndRecord implements Deduper.
func (s *Set[K]) SeenAndRecord(k K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[k]; exists {
		return true
	}

	if s.maxSize <= 0 {
		s.seen[k] = nil
		return false
	}

	if len(s.seen) >= s.maxSize {
		s.evictOldest()
	}
	n := &node[K]{key: k, next: s.head}
	s.head = n
	s.seen[k] = n
	return false
}

// Unrecord implements Deduper.
func (s *Set[K]) Unrecord(k K) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, exists := s.seen[k]
	if !exists {
		return
	}
	delete(s.seen, k)
	if n == nil {
		return
	}

	if s.head == n {
		s.head = n.next
		return
	}
	for cur := s.head; cur != nil; cur = cur.next {
		if cur.next == n {
			cur.next = n.next
			return
		}
	}
}

// evictOldest drops the tail of the list. Must be called with s.mu held.
func (s *Set[K]) evictOldest() {
	if s.head == nil {
		return
	}
	if s.head.next == nil {
		delete(s.seen, s.head.key)
		s.head = nil
		return
	}
	prev := s.head
	for prev.next.next != nil {
		prev = prev.next
	}
	delete(s.seen, prev.next.key)
	prev.next = nil
}

// Size returns the number of remembered keys.
func (s *Set[K]) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
