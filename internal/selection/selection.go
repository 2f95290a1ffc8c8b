// Package selection holds the shared multi-select state used by list
// screens with bulk actions (moderation approve/delete). The active flag
// and the selected-id set change together under one lock: no reader can
// observe "flag off, set non-empty" or the reverse.
package selection

import (
	"sort"
	"sync"
)

type Selection struct {
	mu     sync.Mutex
	active bool
	ids    map[int64]bool
}

func New() *Selection {
	return &Selection{ids: make(map[int64]bool)}
}

// Enter activates selection mode, seeding the set with the long-pressed
// items, if any.
func (s *Selection) Enter(seed ...int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = true
	for _, id := range seed {
		s.ids[id] = true
	}
}

// Toggle flips one id's membership. A no-op outside selection mode.
func (s *Selection) Toggle(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	if s.ids[id] {
		delete(s.ids, id)
	} else {
		s.ids[id] = true
	}
}

// Exit leaves selection mode, clearing the flag and the set atomically.
func (s *Selection) Exit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
	s.ids = make(map[int64]bool)
}

func (s *Selection) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Selection) Selected(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids[id]
}

func (s *Selection) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// IDs snapshots the selected set in ascending order.
func (s *Selection) IDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
