package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pricing-service/internal/entity"
)

// ProductRepository handles the interactions with the products table and
// owns the two-write price mutation transaction.
type ProductRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository.
func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db}
}

const productColumns = `id, user_id, name, category, base_price, current_price, cost, quantity, expiration_date, location_zone, last_price_update, price_version`

func scanProduct(row interface{ Scan(dest ...interface{}) error }) (*entity.Product, error) {
	var p entity.Product
	var currentPrice sql.NullFloat64
	var expirationDate, lastPriceUpdate sql.NullTime
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Category, &p.BasePrice, &currentPrice, &p.Cost, &p.Quantity, &expirationDate, &p.LocationZone, &lastPriceUpdate, &p.PriceVersion)
	if err != nil {
		return nil, err
	}
	if currentPrice.Valid {
		p.CurrentPrice = &currentPrice.Float64
	}
	if expirationDate.Valid {
		t := expirationDate.Time
		p.ExpirationDate = &t
	}
	if lastPriceUpdate.Valid {
		t := lastPriceUpdate.Time
		p.LastPriceUpdate = &t
	}
	return &p, nil
}

// GetProductByID fetches a single product scoped to the given user.
func (r *ProductRepository) GetProductByID(ctx context.Context, userID, id int) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ? AND user_id = ?`
	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product %d not found: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return product, nil
}

// GetPricedProducts returns all of the user's products that carry a base price.
func (r *ProductRepository) GetPricedProducts(ctx context.Context, userID int) ([]entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE user_id = ? AND base_price > 0`
	return r.queryProducts(ctx, query, userID)
}

// GetProductsByZone returns the user's products assigned to the given zone code.
func (r *ProductRepository) GetProductsByZone(ctx context.Context, userID int, zoneCode string) ([]entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE user_id = ? AND location_zone = ?`
	return r.queryProducts(ctx, query, userID, zoneCode)
}

// ListUserIDs returns the distinct user IDs that own priced products. The
// scheduler uses it to fan evaluation runs out per tenant.
func (r *ProductRepository) ListUserIDs(ctx context.Context) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM products WHERE base_price > 0`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ApplyPriceChange updates the product's current price and appends the
// matching ledger entry in a single transaction. The UPDATE is guarded by
// the product's price version; when another writer got there first no row
// matches and ErrVersionConflict is returned, leaving the ledger untouched.
func (r *ProductRepository) ApplyPriceChange(ctx context.Context, product *entity.Product, newPrice float64, reason, changedBy string, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	updateQuery := `UPDATE products SET current_price = ?, last_price_update = ?, price_version = price_version + 1
		WHERE id = ? AND user_id = ? AND price_version = ?`
	res, err := tx.ExecContext(ctx, updateQuery, newPrice, at, product.ID, product.UserID, product.PriceVersion)
	if err != nil {
		tx.Rollback()
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return err
	}
	if affected == 0 {
		tx.Rollback()
		return fmt.Errorf("product %d at version %d: %w", product.ID, product.PriceVersion, ErrVersionConflict)
	}

	historyQuery := `INSERT INTO price_history (user_id, product_id, old_price, new_price, reason, changed_by, changed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, historyQuery, product.UserID, product.ID, product.EffectivePrice(), newPrice, reason, changedBy, at)
	if err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (r *ProductRepository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]entity.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []entity.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *product)
	}
	return products, rows.Err()
}
