package order

import "time"

// ID identifies one order. Opaque and stable; minted by the remote service.
type ID string

// Order is the summary shape returned by list queries. The board renders
// cards from these without fetching details.
type Order struct {
	ID          ID        `json:"id"`
	Status      Status    `json:"status"`
	TotalAmount float64   `json:"total_amount"`
	TotalItems  int       `json:"total_items"`
	CreatedAt   time.Time `json:"created_at"`
}

// Item is a single order line.
type Item struct {
	ID         int64          `json:"id"`
	MenuItemID int64          `json:"menu_item_id"`
	Qty        int            `json:"qty"`
	UnitPrice  float64        `json:"unit_price"`
	Options    map[string]any `json:"options,omitempty"`
}

// Detail is the full order view shown in the drawer: summary fields plus
// line items and the delivery-address sub-resource.
type Detail struct {
	OrderID         ID       `json:"order_id"`
	Status          Status   `json:"status"`
	TotalItems      int      `json:"total_items"`
	DeliveryFee     float64  `json:"delivery_fee"`
	TotalAmount     float64  `json:"total_amount"`
	DeliveryAddress *Address `json:"delivery_address,omitempty"`
	Items           []Item   `json:"items"`
}

// Event records one status change, ordered by creation time.
type Event struct {
	ID         int64     `json:"id"`
	OrderID    ID        `json:"order_id"`
	FromStatus Status    `json:"from_status"`
	ToStatus   Status    `json:"to_status"`
	CreatedAt  time.Time `json:"created_at"`
}

// Relation links an order to the order it was created from, if any.
type Relation struct {
	OrderID       ID  `json:"order_id"`
	SourceOrderID *ID `json:"source_order_id"`
}
