package entity

import "time"

// Actor types recorded in the price history ledger.
const (
	ChangedByAutomatic = "automatic"
	ChangedByManual    = "manual"
)

// PriceHistory is one entry in the append-only price change ledger.
// OldPrice and NewPrice are snapshots taken at mutation time and are never
// recomputed; entries are never updated or deleted.
type PriceHistory struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	ProductID int       `json:"product_id"`
	OldPrice  float64   `json:"old_price"`
	NewPrice  float64   `json:"new_price"`
	Reason    string    `json:"reason"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}
