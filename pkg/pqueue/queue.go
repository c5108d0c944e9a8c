// Package pqueue implements a small bounded priority queue used for partial
// k-best selection. Ordering is stable: entries with equal priority keep
// their insertion order, which makes tie behavior observable and testable.
package pqueue

import (
	"sort"
)

type Option func(*Queue)

// WithOrderAsc keeps the entries with the smallest priorities (the default,
// "closer is better" for distance measures).
func WithOrderAsc() Option {
	return func(q *Queue) {
		q.desc = false
	}
}

// WithOrderDesc keeps the entries with the largest priorities, for
// similarity-style measures.
func WithOrderDesc() Option {
	return func(q *Queue) {
		q.desc = true
	}
}

// WithCap bounds the queue to the n best entries; pushes beyond the bound
// evict the worst entry.
func WithCap(n int) Option {
	return func(q *Queue) {
		q.cap = n
	}
}

type entry struct {
	value interface{}
	prior float64
}

type Queue struct {
	items []entry
	cap   int
	desc  bool
}

func New(opts ...Option) *Queue {
	q := &Queue{cap: -1}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Push inserts a value with its priority, re-establishing order and, when
// capped, truncating to the cap. An entry at the boundary with a priority
// equal to the last kept one is evicted only if it was inserted later.
func (q *Queue) Push(val interface{}, prior float64) {
	q.items = append(q.items, entry{value: val, prior: prior})
	sort.SliceStable(q.items, func(i, j int) bool {
		if q.desc {
			return q.items[i].prior > q.items[j].prior
		}
		return q.items[i].prior < q.items[j].prior
	})
	if q.cap >= 0 && len(q.items) > q.cap {
		q.items = q.items[:q.cap]
	}
}

func (q *Queue) Len() int {
	return len(q.items)
}

func (q *Queue) Cap() int {
	return q.cap
}

// Seek returns the entry at position idx without removing it.
func (q *Queue) Seek(idx int) (interface{}, float64) {
	it := q.items[idx]
	return it.value, it.prior
}

// PopAll drains the queue in priority order.
func (q *Queue) PopAll() []interface{} {
	pulled := make([]interface{}, len(q.items))
	for i := range q.items {
		pulled[i] = q.items[i].value
	}
	q.items = q.items[:0]
	return pulled
}
