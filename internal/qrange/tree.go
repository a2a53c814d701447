package qrange

import (
	"fmt"
	"slices"
	"sync"
)

// Tree indexes records in an AVL tree ordered by (low, insertion sequence).
// Each node also tracks the largest high in its subtree, which lets a query
// skip every subtree that ends at or before the point.
type Tree[V any] struct {
	mu      sync.RWMutex
	root    *node
	records []Record[V]
}

type node struct {
	low, high float64
	seq       int
	maxHigh   float64
	height    int
	left      *node
	right     *node
}

func NewTree[V any]() *Tree[V] {
	return &Tree[V]{}
}

func (t *Tree[V]) Insert(low, high float64, value V) error {
	if err := checkRange(low, high); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	seq := len(t.records)
	t.records = append(t.records, Record[V]{Low: low, High: high, Value: value})
	t.root = insert(t.root, &node{low: low, high: high, seq: seq, maxHigh: high, height: 1})
	return nil
}

func (t *Tree[V]) Query(point float64) ([]V, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var hits []int
	collect(t.root, point, &hits)
	if len(hits) == 0 {
		return nil, fmt.Errorf("%w: %g", ErrNotFound, point)
	}

	slices.Sort(hits)
	out := make([]V, len(hits))
	for i, seq := range hits {
		out[i] = t.records[seq].Value
	}
	return out, nil
}

func (t *Tree[V]) Records() []Record[V] {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Record[V], len(t.records))
	copy(out, t.records)
	return out
}

func (t *Tree[V]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// Height is the height of the index, 0 when empty.
func (t *Tree[V]) Height() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return height(t.root)
}

func collect(n *node, p float64, hits *[]int) {
	if n == nil || n.maxHigh <= p {
		return
	}
	collect(n.left, p, hits)
	// right subtree lows are >= n.low
	if n.low > p {
		return
	}
	if p < n.high {
		*hits = append(*hits, n.seq)
	}
	collect(n.right, p, hits)
}

func less(a, b *node) bool {
	if a.low != b.low {
		return a.low < b.low
	}
	return a.seq < b.seq
}

func insert(root, n *node) *node {
	if root == nil {
		return n
	}
	if less(n, root) {
		root.left = insert(root.left, n)
	} else {
		root.right = insert(root.right, n)
	}
	return rebalance(root)
}

func height(n *node) int {
	if n == nil {
		return 0
	}
	return n.height
}

func update(n *node) {
	n.height = 1 + max(height(n.left), height(n.right))
	n.maxHigh = n.high
	if n.left != nil && n.left.maxHigh > n.maxHigh {
		n.maxHigh = n.left.maxHigh
	}
	if n.right != nil && n.right.maxHigh > n.maxHigh {
		n.maxHigh = n.right.maxHigh
	}
}

func rotateLeft(n *node) *node {
	r := n.right
	n.right = r.left
	r.left = n
	update(n)
	update(r)
	return r
}

func rotateRight(n *node) *node {
	l := n.left
	n.left = l.right
	l.right = n
	update(n)
	update(l)
	return l
}

func rebalance(n *node) *node {
	update(n)
	switch balance := height(n.left) - height(n.right); {
	case balance > 1:
		if height(n.left.left) < height(n.left.right) {
			n.left = rotateLeft(n.left)
		}
		return rotateRight(n)
	case balance < -1:
		if height(n.right.right) < height(n.right.left) {
			n.right = rotateRight(n.right)
		}
		return rotateLeft(n)
	}
	return n
}
