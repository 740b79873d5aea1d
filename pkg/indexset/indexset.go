// Package indexset provides an ordered set with O(1) insertion, removal and
// position lookup.
//
// Elements are kept in a dense slice with a parallel key→position map.
// Removal overwrites the vacated slot with the last element and shrinks the
// slice by one, so element order is not stable across removals.
package indexset

import (
	"encoding/json"
	"fmt"
)

// Set is an indexed set of comparable keys. The zero value is ready to use.
type Set[K comparable] struct {
	items []K
	index map[K]int
}

// Removal describes the effect of a Remove call. It is enough to undo the
// removal exactly via Restore.
type Removal[K comparable] struct {
	Key   K
	Index int
	// Moved is the former last element relocated into Index, valid when DidMove is set.
	Moved   K
	DidMove bool
}

// New returns an empty set.
func New[K comparable]() *Set[K] {
	return &Set[K]{index: make(map[K]int)}
}

// From builds a set preserving the order of items. Duplicate keys are rejected.
func From[K comparable](items []K) (*Set[K], error) {
	s := &Set[K]{items: make([]K, 0, len(items)), index: make(map[K]int, len(items))}
	for _, k := range items {
		if _, ok := s.Add(k); !ok {
			return nil, fmt.Errorf("indexset: duplicate key %v", k)
		}
	}
	return s, nil
}

// Len returns the number of elements.
func (s *Set[K]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Contains reports whether k is present.
func (s *Set[K]) Contains(k K) bool {
	_, ok := s.IndexOf(k)
	return ok
}

// IndexOf returns the current position of k.
func (s *Set[K]) IndexOf(k K) (int, bool) {
	if s == nil || s.index == nil {
		return 0, false
	}
	i, ok := s.index[k]
	return i, ok
}

// At returns the element at position i. It panics when i is out of range.
func (s *Set[K]) At(i int) K {
	return s.items[i]
}

// Add appends k and returns its position. The boolean is false, and the set
// unchanged, when k is already present.
func (s *Set[K]) Add(k K) (int, bool) {
	if s.index == nil {
		s.index = make(map[K]int)
	}
	if i, ok := s.index[k]; ok {
		return i, false
	}
	s.items = append(s.items, k)
	i := len(s.items) - 1
	s.index[k] = i
	return i, true
}

// Remove deletes k by swap-and-pop.
func (s *Set[K]) Remove(k K) (Removal[K], bool) {
	i, ok := s.IndexOf(k)
	if !ok {
		return Removal[K]{}, false
	}
	r := Removal[K]{Key: k, Index: i}
	last := len(s.items) - 1
	if i != last {
		moved := s.items[last]
		s.items[i] = moved
		s.index[moved] = i
		r.Moved = moved
		r.DidMove = true
	}
	var zero K
	s.items[last] = zero
	s.items = s.items[:last]
	delete(s.index, k)
	return r, true
}

// Restore reverts the Removal r. It must be applied to the set state that
// immediately followed the removal.
func (s *Set[K]) Restore(r Removal[K]) {
	if s.index == nil {
		s.index = make(map[K]int)
	}
	if !r.DidMove {
		s.items = append(s.items, r.Key)
		s.index[r.Key] = len(s.items) - 1
		return
	}
	s.items = append(s.items, r.Moved)
	s.index[r.Moved] = len(s.items) - 1
	s.items[r.Index] = r.Key
	s.index[r.Key] = r.Index
}

// Items returns a copy of the elements in current order.
func (s *Set[K]) Items() []K {
	if s == nil {
		return nil
	}
	out := make([]K, len(s.items))
	copy(out, s.items)
	return out
}

// Clone returns an independent copy.
func (s *Set[K]) Clone() *Set[K] {
	cp := &Set[K]{items: s.Items(), index: make(map[K]int, s.Len())}
	for i, k := range cp.items {
		cp.index[k] = i
	}
	return cp
}

// MarshalJSON encodes the set as an array in current order.
func (s *Set[K]) MarshalJSON() ([]byte, error) {
	items := s.Items()
	if items == nil {
		items = []K{}
	}
	return json.Marshal(items)
}

// UnmarshalJSON decodes an array, rejecting duplicates.
func (s *Set[K]) UnmarshalJSON(data []byte) error {
	var items []K
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	built, err := From(items)
	if err != nil {
		return err
	}
	*s = *built
	return nil
}
