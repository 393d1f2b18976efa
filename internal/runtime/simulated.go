package runtime

import (
	"bytes"
	"context"
	"fmt"
	"sync"
)

// Simulated is an in-memory Client used for tests and for running the
// control plane without a real switch attached. It enforces the
// "table must be loaded before use" rule and rejects duplicate keys on
// Add; it does not validate field names or kinds.
type Simulated struct {
	mu      sync.Mutex
	tables  map[string]bool
	entries map[string][]Entry
}

// NewSimulated builds an empty Simulated client.
func NewSimulated() *Simulated {
	return &Simulated{
		tables:  make(map[string]bool),
		entries: make(map[string][]Entry),
	}
}

func (s *Simulated) LoadTable(ctx context.Context, table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = true
	if s.entries[table] == nil {
		s.entries[table] = []Entry{}
	}
	return nil
}

func (s *Simulated) requireLoaded(table string) error {
	if !s.tables[table] {
		return fmt.Errorf("runtime: table %s not loaded", table)
	}
	return nil
}

func (s *Simulated) Add(ctx context.Context, table string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLoaded(table); err != nil {
		return err
	}
	for _, existing := range s.entries[table] {
		if matchEqual(existing.Match, e.Match) {
			return wrapFailure(table, "add", fmt.Errorf("duplicate key"))
		}
	}
	s.entries[table] = append(s.entries[table], e)
	return nil
}

func (s *Simulated) Modify(ctx context.Context, table string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLoaded(table); err != nil {
		return err
	}
	for i, existing := range s.entries[table] {
		if matchEqual(existing.Match, e.Match) {
			s.entries[table][i] = e
			return nil
		}
	}
	return wrapFailure(table, "modify", fmt.Errorf("no such entry"))
}

func (s *Simulated) Delete(ctx context.Context, table string, m Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLoaded(table); err != nil {
		return err
	}
	rows := s.entries[table]
	for i, existing := range rows {
		if matchEqual(existing.Match, m) {
			s.entries[table] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return nil // deleting an absent entry is not an error
}

func (s *Simulated) Get(ctx context.Context, table string, m Match) (Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLoaded(table); err != nil {
		return Action{}, err
	}
	for _, existing := range s.entries[table] {
		if matchEqual(existing.Match, m) {
			return existing.Action, nil
		}
	}
	return Action{}, ErrNotFound
}

func (s *Simulated) GetAll(ctx context.Context, table string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLoaded(table); err != nil {
		return nil, err
	}
	out := make([]Entry, len(s.entries[table]))
	copy(out, s.entries[table])
	return out, nil
}

func (s *Simulated) FlushTable(ctx context.Context, table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLoaded(table); err != nil {
		return err
	}
	s.entries[table] = nil
	return nil
}

func matchEqual(a, b Match) bool {
	if len(a.Fields) != len(b.Fields) {
		return false
	}
	for i := range a.Fields {
		if fieldName(a.Fields[i]) != fieldName(b.Fields[i]) {
			return false
		}
		if !keyValueEqual(a.Fields[i], b.Fields[i]) {
			return false
		}
	}
	return true
}

func keyValueEqual(a, b KeyField) bool {
	switch av := a.(type) {
	case ExactKey:
		bv, ok := b.(ExactKey)
		return ok && bytes.Equal(av.Value, bv.Value)
	case TernaryKey:
		bv, ok := b.(TernaryKey)
		return ok && bytes.Equal(av.Value, bv.Value) && bytes.Equal(av.Mask, bv.Mask)
	case LPMKey:
		bv, ok := b.(LPMKey)
		return ok && bytes.Equal(av.Value, bv.Value) && av.Prefix == bv.Prefix
	case RangeKey:
		bv, ok := b.(RangeKey)
		return ok && bytes.Equal(av.Low, bv.Low) && bytes.Equal(av.Hi, bv.Hi)
	case BoolKey:
		bv, ok := b.(BoolKey)
		return ok && av.Value == bv.Value
	default:
		return false
	}
}
