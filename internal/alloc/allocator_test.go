package alloc

import "testing"

func TestAllocateIsDenseFromOne(t *testing.T) {
	ns := NewNamespace("test", 10)
	for i := uint32(1); i <= 5; i++ {
		id, err := ns.Allocate()
		if err != nil {
			t.Fatalf("Allocate: %v", err)
		}
		if id != i {
			t.Fatalf("Allocate() = %d, want %d (dense from 1)", id, i)
		}
	}
}

func TestReleaseThenAllocateReusesSmallestFreed(t *testing.T) {
	ns := NewNamespace("test", 10)
	ids := make([]uint32, 3)
	for i := range ids {
		ids[i], _ = ns.Allocate()
	}
	ns.Release(ids[1]) // free the middle id
	got, err := ns.Allocate()
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if got != ids[1] {
		t.Fatalf("expected reclaimed id %d, got %d", ids[1], got)
	}
}

func TestAllocateExhaustsAtCap(t *testing.T) {
	ns := NewNamespace("tiny", 2)
	if _, err := ns.Allocate(); err != nil {
		t.Fatal(err)
	}
	if _, err := ns.Allocate(); err != nil {
		t.Fatal(err)
	}
	if _, err := ns.Allocate(); err == nil {
		t.Fatal("expected ErrExhausted")
	}
}

func TestReleaseUnallocatedIsNoop(t *testing.T) {
	ns := NewNamespace("test", 10)
	ns.Release(42)
	if ns.Len() != 0 {
		t.Fatalf("expected no ids in use, got %d", ns.Len())
	}
	id, err := ns.Allocate()
	if err != nil || id != 1 {
		t.Fatalf("expected fresh allocation to start at 1, got id=%d err=%v", id, err)
	}
}
