package qrange

import (
	"fmt"
	"sync"
)

// Linear keeps records in a slice and scans all of them on every query.
type Linear[V any] struct {
	mu      sync.RWMutex
	records []Record[V]
}

func NewLinear[V any]() *Linear[V] {
	return &Linear[V]{}
}

func (l *Linear[V]) Insert(low, high float64, value V) error {
	if err := checkRange(low, high); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, Record[V]{Low: low, High: high, Value: value})
	return nil
}

func (l *Linear[V]) Query(point float64) ([]V, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []V
	for _, r := range l.records {
		if r.Contains(point) {
			out = append(out, r.Value)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %g", ErrNotFound, point)
	}
	return out, nil
}

func (l *Linear[V]) Records() []Record[V] {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Record[V], len(l.records))
	copy(out, l.records)
	return out
}

func (l *Linear[V]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
