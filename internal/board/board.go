// Package board is the synchronization core behind the kanban screen: the
// view model that groups orders into columns and tracks in-flight work, the
// scheduler that keeps the periodic poll from racing user actions, and the
// gate that decides how a requested transition is carried out.
//
// None of it renders anything, so all of it is testable without a terminal.
package board

import (
	"sync"

	"github.com/rodri-oliveira/atendeja/internal/api"
	"github.com/rodri-oliveira/atendeja/internal/config"
	"github.com/rodri-oliveira/atendeja/internal/order"
)

// Column pairs a lifecycle status with its rendered header.
type Column struct {
	Status order.Status
	Title  string
}

// Bucket is one rendered column: its spec plus the orders currently in it,
// in the server's order.
type Bucket struct {
	Column Column
	Orders []order.Order
}

// Model owns the board's shared mutable state: the cached order list, the
// busy set, and the current filter parameters. A mutex guards it because
// mutations arrive from command goroutines while the render loop reads.
type Model struct {
	mu      sync.Mutex
	columns []Column
	orders  []order.Order
	busy    map[order.ID]struct{}
	filters Filters
	seq     uint64
}

// Filters are the list-query parameters held by the view. Search is matched
// server-side; the client never filters locally.
type Filters struct {
	Status order.Status
	Search string
	Limit  int
}

// New builds a model over the configured columns. Column specs with unknown
// statuses were already dropped by the config loader.
func New(columns []config.Column, defaultLimit int) *Model {
	m := &Model{
		busy:    map[order.ID]struct{}{},
		filters: Filters{Limit: defaultLimit},
	}
	for _, col := range columns {
		status, err := order.ParseStatus(col.Status)
		if err != nil {
			continue
		}
		m.columns = append(m.columns, Column{Status: status, Title: col.Title})
	}
	return m
}

// Columns returns the configured column specs in board order.
func (m *Model) Columns() []Column {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Column, len(m.columns))
	copy(out, m.columns)
	return out
}

// BeginFetch allocates the sequence id for a list fetch about to be issued.
// Only the response carrying the latest id may be applied, so an
// earlier-issued fetch that resolves late can never clobber newer data.
func (m *Model) BeginFetch() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return m.seq
}

// ApplyFetch replaces the cached list wholesale if seq is still the latest
// issued fetch. It reports whether the response was applied.
func (m *Model) ApplyFetch(seq uint64, orders []order.Order) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if seq != m.seq {
		return false
	}
	m.orders = orders
	return true
}

// Buckets partitions the cached list into the configured columns. Every
// order whose status has a column lands in exactly one bucket, keeping its
// relative position; orders with unconfigured statuses are dropped from the
// view, which is not an error.
func (m *Model) Buckets() []Bucket {
	m.mu.Lock()
	defer m.mu.Unlock()
	index := make(map[order.Status]int, len(m.columns))
	buckets := make([]Bucket, len(m.columns))
	for i, col := range m.columns {
		index[col.Status] = i
		buckets[i] = Bucket{Column: col}
	}
	for _, o := range m.orders {
		i, ok := index[o.Status]
		if !ok {
			continue
		}
		buckets[i].Orders = append(buckets[i].Orders, o)
	}
	return buckets
}

// OrderCount reports how many orders the last applied fetch returned.
func (m *Model) OrderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

// MarkBusy adds id to the busy set and reports whether it was newly added.
// Marking an already-busy order is a no-op, so duplicate submissions of the
// same mutation cannot stack.
func (m *Model) MarkBusy(id order.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.busy[id]; exists {
		return false
	}
	m.busy[id] = struct{}{}
	return true
}

// ClearBusy removes id from the busy set, however many times it was marked.
func (m *Model) ClearBusy(id order.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.busy, id)
}

// Busy reports whether a mutation is in flight for id. A busy card keeps
// rendering its data but its action keys are disabled.
func (m *Model) Busy(id order.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.busy[id]
	return exists
}

// Filters returns the current view parameters.
func (m *Model) Filters() Filters {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filters
}

// SetFilters replaces the view parameters. The caller is expected to issue
// an immediate refetch; the next fetch issued always carries the newest
// values, and the sequence guard discards anything older.
func (m *Model) SetFilters(f Filters) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.Limit <= 0 {
		f.Limit = m.filters.Limit
	}
	m.filters = f
}

// ResetFilters restores the default parameters.
func (m *Model) ResetFilters(defaultLimit int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = Filters{Limit: defaultLimit}
}

// Query translates the current filters into the client's list query.
func (m *Model) Query() api.ListQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return api.ListQuery{
		Status: m.filters.Status,
		Search: m.filters.Search,
		Limit:  m.filters.Limit,
	}
}
