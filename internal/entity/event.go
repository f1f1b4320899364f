package entity

import "time"

// PriceChangeEvent is published to the price change topic after every
// successful mutation and delivered to realtime subscribers in commit order.
type PriceChangeEvent struct {
	ProductID   int       `json:"product_id"`
	ProductName string    `json:"product_name"`
	OldPrice    float64   `json:"old_price"`
	NewPrice    float64   `json:"new_price"`
	Reason      string    `json:"reason"`
	ChangedBy   string    `json:"changed_by"`
	ChangedAt   time.Time `json:"changed_at"`
}
