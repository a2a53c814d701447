package qrange

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRange is returned by Insert when low is not strictly below high.
	ErrInvalidRange = errors.New("qrange: invalid range")

	// ErrNotFound is returned by Query when no range covers the point.
	ErrNotFound = errors.New("qrange: not found")
)

const (
	KindLinear = "linear"
	KindTree   = "tree"
)

// Record is one stored range and its value.
type Record[V any] struct {
	Low   float64
	High  float64
	Value V
}

// Contains reports whether p lies in [Low, High).
func (r Record[V]) Contains(p float64) bool {
	return r.Low <= p && p < r.High
}

type Store[V any] interface {
	Insert(low, high float64, value V) error
	Query(point float64) ([]V, error)
	Records() []Record[V]
	Len() int
}

// New returns an empty store of the given kind. An empty kind selects the tree.
func New[V any](kind string) (Store[V], error) {
	switch kind {
	case "", KindTree:
		return NewTree[V](), nil
	case KindLinear:
		return NewLinear[V](), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

// Kinds lists the accepted backend names.
func Kinds() []string {
	return []string{KindTree, KindLinear}
}

func checkRange(low, high float64) error {
	// written as a negation so NaN bounds fail too
	if !(low < high) {
		return fmt.Errorf("%w: [%g, %g)", ErrInvalidRange, low, high)
	}
	return nil
}
