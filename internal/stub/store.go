// Package stub is a small in-memory order service used for development and
// demos. It mirrors the real backend's transition table and the
// address-presence precondition on confirm, so the board behaves the same
// against it.
package stub

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rodri-oliveira/atendeja/internal/order"
)

// ErrNotFound reports an unknown order id.
var ErrNotFound = errors.New("stub: order not found")

// Rejection is a business-rule refusal. Detail travels to the client
// verbatim in the response body.
type Rejection struct {
	Detail string
}

func (r *Rejection) Error() string { return r.Detail }

// allowed is the server-side transition table. Confirm is the only way out
// of draft besides cancel.
var allowed = map[order.Status][]order.Status{
	order.StatusDraft:          {order.StatusCanceled},
	order.StatusPendingPayment: {order.StatusPaid, order.StatusCanceled},
	order.StatusPaid:           {order.StatusInKitchen, order.StatusCanceled},
	order.StatusInKitchen:      {order.StatusOutForDelivery, order.StatusCanceled},
	order.StatusOutForDelivery: {order.StatusDelivered, order.StatusCanceled},
	order.StatusDelivered:      {},
	order.StatusCanceled:       {},
}

type record struct {
	detail    order.Detail
	contact   string
	createdAt time.Time
	events    []order.Event
	source    *order.ID
	reorders  []order.ID
}

// Store holds the order book. Safe for concurrent handlers.
type Store struct {
	mu        sync.Mutex
	orders    map[order.ID]*record
	listOrder []order.ID
	nextEvent int64
	now       func() time.Time
}

// NewStore builds an empty store.
func NewStore() *Store {
	return &Store{
		orders: map[order.ID]*record{},
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SeedDemo loads a handful of orders spread across the lifecycle.
func (s *Store) SeedDemo() {
	base := s.now().Add(-2 * time.Hour)
	seeds := []struct {
		id      order.ID
		status  order.Status
		total   float64
		items   int
		contact string
		addr    *order.Address
	}{
		{"101", order.StatusDraft, 64.90, 2, "5511988887777", nil},
		{"102", order.StatusDraft, 39.00, 1, "5511977776666", &order.Address{
			Street: "Av. Brasil", Number: "1200", District: "Centro",
			City: "Campinas", State: "SP", CEP: "13010-001",
		}},
		{"103", order.StatusPendingPayment, 89.50, 3, "5519966665555", nil},
		{"104", order.StatusPaid, 120.00, 4, "5519955554444", nil},
		{"105", order.StatusInKitchen, 45.00, 1, "5511944443333", nil},
		{"106", order.StatusOutForDelivery, 77.80, 2, "5511933332222", nil},
		{"107", order.StatusDelivered, 52.30, 2, "5511922221111", nil},
	}
	for i, seed := range seeds {
		detail := order.Detail{
			OrderID:         seed.id,
			Status:          seed.status,
			TotalItems:      seed.items,
			DeliveryFee:     8.0,
			TotalAmount:     seed.total,
			DeliveryAddress: seed.addr,
			Items: []order.Item{
				{ID: int64(i*10 + 1), MenuItemID: int64(i + 1), Qty: seed.items, UnitPrice: seed.total / float64(seed.items)},
			},
		}
		s.put(seed.id, detail, seed.contact, base.Add(time.Duration(i)*10*time.Minute))
	}
	// 104 reordered from 107.
	s.Link("107", "104")
}

func (s *Store) put(id order.ID, detail order.Detail, contact string, createdAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[id] = &record{detail: detail, contact: contact, createdAt: createdAt}
	s.listOrder = append(s.listOrder, id)
}

// Link marks target as a reorder of source.
func (s *Store) Link(source, target order.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, okSrc := s.orders[source]
	tgt, okTgt := s.orders[target]
	if !okSrc || !okTgt {
		return
	}
	from := source
	tgt.source = &from
	src.reorders = append(src.reorders, target)
}

// ListQuery narrows List results server-side.
type ListQuery struct {
	Status order.Status
	Search string
	Limit  int
	Since  time.Time
	Until  time.Time
}

// List returns summaries in insertion order, filtered and limited.
func (s *Store) List(q ListQuery) []order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []order.Order{}
	for _, id := range s.listOrder {
		rec := s.orders[id]
		if q.Status != "" && rec.detail.Status != q.Status {
			continue
		}
		if q.Search != "" && !strings.Contains(rec.contact, q.Search) && !strings.Contains(string(id), q.Search) {
			continue
		}
		if !q.Since.IsZero() && rec.createdAt.Before(q.Since) {
			continue
		}
		if !q.Until.IsZero() && rec.createdAt.After(q.Until) {
			continue
		}
		out = append(out, s.summaryLocked(id))
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out
}

func (s *Store) summaryLocked(id order.ID) order.Order {
	rec := s.orders[id]
	return order.Order{
		ID:          id,
		Status:      rec.detail.Status,
		TotalAmount: rec.detail.TotalAmount,
		TotalItems:  rec.detail.TotalItems,
		CreatedAt:   rec.createdAt,
	}
}

// Get returns the full detail for one order.
func (s *Store) Get(id order.ID) (order.Detail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.orders[id]
	if !ok {
		return order.Detail{}, ErrNotFound
	}
	return rec.detail, nil
}

// Events returns the status-change log, oldest first.
func (s *Store) Events(id order.ID) ([]order.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]order.Event, len(rec.events))
	copy(out, rec.events)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Relation returns the originating-order link.
func (s *Store) Relation(id order.ID) (order.Relation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.orders[id]
	if !ok {
		return order.Relation{}, ErrNotFound
	}
	return order.Relation{OrderID: id, SourceOrderID: rec.source}, nil
}

// Reorders returns summaries of follow-up orders.
func (s *Store) Reorders(id order.ID) ([]order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]order.Order, 0, len(rec.reorders))
	for _, rid := range rec.reorders {
		out = append(out, s.summaryLocked(rid))
	}
	return out, nil
}

// SetStatus applies a transition if the table allows it.
func (s *Store) SetStatus(id order.ID, target order.Status) (order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.orders[id]
	if !ok {
		return order.Order{}, ErrNotFound
	}
	if !target.Valid() {
		return order.Order{}, &Rejection{Detail: fmt.Sprintf("unknown_status:%s", target)}
	}
	current := rec.detail.Status
	if !transitionAllowed(current, target) {
		return order.Order{}, &Rejection{Detail: fmt.Sprintf("invalid_transition:%s->%s", current, target)}
	}
	s.moveLocked(rec, id, target)
	return s.summaryLocked(id), nil
}

// SetAddress stores the delivery address.
func (s *Store) SetAddress(id order.ID, addr order.Address) (order.Detail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.orders[id]
	if !ok {
		return order.Detail{}, ErrNotFound
	}
	copied := addr
	rec.detail.DeliveryAddress = &copied
	return rec.detail, nil
}

// Confirm moves a draft to pending_payment, provided an address is present.
func (s *Store) Confirm(id order.ID) (order.Detail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.orders[id]
	if !ok {
		return order.Detail{}, ErrNotFound
	}
	if rec.detail.Status != order.StatusDraft {
		return order.Detail{}, &Rejection{
			Detail: fmt.Sprintf("invalid_transition:%s->%s", rec.detail.Status, order.StatusPendingPayment),
		}
	}
	addr := rec.detail.DeliveryAddress
	if addr == nil || strings.TrimSpace(addr.Street) == "" ||
		strings.TrimSpace(addr.Number) == "" || strings.TrimSpace(addr.City) == "" {
		return order.Detail{}, &Rejection{Detail: "address_required"}
	}
	s.moveLocked(rec, id, order.StatusPendingPayment)
	return rec.detail, nil
}

func (s *Store) moveLocked(rec *record, id order.ID, target order.Status) {
	s.nextEvent++
	rec.events = append(rec.events, order.Event{
		ID:         s.nextEvent,
		OrderID:    id,
		FromStatus: rec.detail.Status,
		ToStatus:   target,
		CreatedAt:  s.now(),
	})
	rec.detail.Status = target
}

func transitionAllowed(from, to order.Status) bool {
	for _, next := range allowed[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ParseListQuery builds a ListQuery from raw query parameters, ignoring
// anything unparseable the way the real service does.
func ParseListQuery(get func(string) string) ListQuery {
	q := ListQuery{}
	if raw := strings.TrimSpace(get("status")); raw != "" {
		if status, err := order.ParseStatus(raw); err == nil {
			q.Status = status
		}
	}
	q.Search = strings.TrimSpace(get("search"))
	if raw := strings.TrimSpace(get("limit")); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			q.Limit = limit
		}
	}
	if raw := strings.TrimSpace(get("since")); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			q.Since = ts
		}
	}
	if raw := strings.TrimSpace(get("until")); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			q.Until = ts
		}
	}
	return q
}
