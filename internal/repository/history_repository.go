package repository

import (
	"context"
	"database/sql"

	"pricing-service/internal/entity"
)

// PriceHistoryRepository reads the append-only price change ledger. Ledger
// rows are written exclusively by ProductRepository.ApplyPriceChange; no
// update or delete statements exist for them.
type PriceHistoryRepository struct {
	db *sql.DB
}

// NewPriceHistoryRepository creates a new instance of PriceHistoryRepository.
func NewPriceHistoryRepository(db *sql.DB) *PriceHistoryRepository {
	return &PriceHistoryRepository{db}
}

// GetHistory fetches the user's ledger entries, newest first. A non-nil
// productID narrows the result to a single product.
func (r *PriceHistoryRepository) GetHistory(ctx context.Context, userID int, productID *int) ([]entity.PriceHistory, error) {
	query := `SELECT id, user_id, product_id, old_price, new_price, reason, changed_by, changed_at
		FROM price_history WHERE user_id = ?`
	args := []interface{}{userID}
	if productID != nil {
		query += ` AND product_id = ?`
		args = append(args, *productID)
	}
	query += ` ORDER BY changed_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []entity.PriceHistory
	for rows.Next() {
		var entry entity.PriceHistory
		err := rows.Scan(&entry.ID, &entry.UserID, &entry.ProductID, &entry.OldPrice, &entry.NewPrice, &entry.Reason, &entry.ChangedBy, &entry.ChangedAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
