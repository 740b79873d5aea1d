package indexset

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSetAddAndIndex(t *testing.T) {
	s := New[uint64]()
	for _, k := range []uint64{10, 20, 30} {
		if _, ok := s.Add(k); !ok {
			t.Fatalf("add %d: expected insert", k)
		}
	}
	if pos, ok := s.Add(20); ok || pos != 1 {
		t.Fatalf("duplicate add: got pos=%d ok=%v", pos, ok)
	}
	if s.Len() != 3 {
		t.Fatalf("expected 3 items, got %d", s.Len())
	}
	for i, want := range []uint64{10, 20, 30} {
		if got := s.At(i); got != want {
			t.Fatalf("At(%d) = %d, want %d", i, got, want)
		}
		if idx, ok := s.IndexOf(want); !ok || idx != i {
			t.Fatalf("IndexOf(%d) = %d,%v", want, idx, ok)
		}
	}
}

func TestSetRemoveSwapsLastIntoSlot(t *testing.T) {
	s, err := From([]uint64{1, 2, 3, 4, 5})
	if err != nil {
		t.Fatalf("from: %v", err)
	}
	r, ok := s.Remove(2)
	if !ok {
		t.Fatalf("expected removal")
	}
	if !r.DidMove || r.Moved != 5 || r.Index != 1 {
		t.Fatalf("unexpected removal record %+v", r)
	}
	if diff := cmp.Diff([]uint64{1, 5, 3, 4}, s.Items()); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
	if idx, _ := s.IndexOf(5); idx != 1 {
		t.Fatalf("moved element index not updated: %d", idx)
	}
	if s.Contains(2) {
		t.Fatalf("removed key still present")
	}

	// removing the tail element moves nothing
	r, _ = s.Remove(4)
	if r.DidMove {
		t.Fatalf("tail removal should not move: %+v", r)
	}
	if _, ok := s.Remove(42); ok {
		t.Fatalf("expected missing key removal to fail")
	}
}

func TestSetRestoreUndoesRemoval(t *testing.T) {
	orig := []uint64{7, 8, 9, 10}
	for _, victim := range orig {
		s, _ := From(orig)
		r, ok := s.Remove(victim)
		if !ok {
			t.Fatalf("remove %d failed", victim)
		}
		s.Restore(r)
		if diff := cmp.Diff(orig, s.Items()); diff != "" {
			t.Fatalf("restore after removing %d (-want +got):\n%s", victim, diff)
		}
		for i, k := range orig {
			if idx, _ := s.IndexOf(k); idx != i {
				t.Fatalf("index of %d = %d, want %d", k, idx, i)
			}
		}
	}
}

func TestSetItemsIsACopy(t *testing.T) {
	s, _ := From([]string{"a", "b"})
	items := s.Items()
	items[0] = "z"
	if s.At(0) != "a" {
		t.Fatalf("Items leaked internal slice")
	}
	cl := s.Clone()
	cl.Add("c")
	if s.Len() != 2 {
		t.Fatalf("clone shares state with original")
	}
}

func TestSetZeroValueAndNil(t *testing.T) {
	var nilSet *Set[int]
	if nilSet.Len() != 0 || nilSet.Contains(1) || nilSet.Items() != nil {
		t.Fatalf("nil set should behave as empty")
	}
	var s Set[int]
	if _, ok := s.Add(3); !ok {
		t.Fatalf("zero value set must accept inserts")
	}
}

func TestSetJSON(t *testing.T) {
	s, _ := From([]uint64{3, 1, 2})
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "[3,1,2]" {
		t.Fatalf("unexpected encoding %s", data)
	}
	var decoded Set[uint64]
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if idx, _ := decoded.IndexOf(2); idx != 2 {
		t.Fatalf("index not rebuilt")
	}
	if err := json.Unmarshal([]byte("[1,1]"), &decoded); err == nil {
		t.Fatalf("expected duplicate rejection")
	}
}
