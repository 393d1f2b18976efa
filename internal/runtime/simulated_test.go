package runtime

import (
	"context"
	"errors"
	"testing"
)

func TestSimulatedRequiresTableLoaded(t *testing.T) {
	s := NewSimulated()
	ctx := context.Background()
	err := s.Add(ctx, "pre.mgid", Entry{Match: Match{Fields: []KeyField{ExactKey{Name: "$MGID", Value: []byte{1}}}}})
	if err == nil {
		t.Fatal("expected error for unloaded table")
	}
}

func TestSimulatedAddGetDelete(t *testing.T) {
	s := NewSimulated()
	ctx := context.Background()
	const table = "pre.node"
	if err := s.LoadTable(ctx, table); err != nil {
		t.Fatal(err)
	}

	entry := Entry{
		Match:  Match{Fields: []KeyField{ExactKey{Name: "$MULTICAST_NODE_ID", Value: []byte{0, 0, 0, 1}}}},
		Action: Action{Name: "set_port", Fields: []DataField{IntData{Name: "$DEV_PORT", Value: 2}}},
	}
	if err := s.Add(ctx, table, entry); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(ctx, table, entry); err == nil {
		t.Fatal("expected duplicate-key error on second Add")
	}

	got, err := s.Get(ctx, table, entry.Match)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "set_port" {
		t.Fatalf("Get returned wrong action: %+v", got)
	}

	if err := s.Delete(ctx, table, entry.Match); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, table, entry.Match); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// deleting again is not an error
	if err := s.Delete(ctx, table, entry.Match); err != nil {
		t.Fatalf("Delete on absent entry should be no-op, got %v", err)
	}
}

func TestSimulatedFlushAndGetAll(t *testing.T) {
	s := NewSimulated()
	ctx := context.Background()
	const table = "pre.prune"
	s.LoadTable(ctx, table)

	for i := 0; i < 3; i++ {
		s.Add(ctx, table, Entry{
			Match:  Match{Fields: []KeyField{IntKeyFor(i)}},
			Action: Action{Name: "noop"},
		})
	}
	all, err := s.GetAll(ctx, table)
	if err != nil || len(all) != 3 {
		t.Fatalf("GetAll: len=%d err=%v", len(all), err)
	}

	if err := s.FlushTable(ctx, table); err != nil {
		t.Fatalf("FlushTable: %v", err)
	}
	all, _ = s.GetAll(ctx, table)
	if len(all) != 0 {
		t.Fatalf("expected empty table after flush, got %d entries", len(all))
	}
}

// IntKeyFor builds a distinct ExactKey for table-population tests.
func IntKeyFor(i int) KeyField {
	return ExactKey{Name: "$ID", Value: []byte{byte(i)}}
}
