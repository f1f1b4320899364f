package migrations

import (
	"database/sql"
	"time"
)

// AutoMigrateProducts creates the products table if it does not exist.
func AutoMigrateProducts(retries int, db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS products (
			id INT AUTO_INCREMENT PRIMARY KEY,
			user_id INT NOT NULL,
			name VARCHAR(255) NOT NULL,
			category VARCHAR(100) NOT NULL DEFAULT '',
			base_price DOUBLE NOT NULL,
			current_price DOUBLE NULL,
			cost DOUBLE NOT NULL DEFAULT 0,
			quantity INT NOT NULL DEFAULT 0,
			expiration_date DATETIME NULL,
			location_zone VARCHAR(50) NOT NULL DEFAULT '',
			last_price_update DATETIME NULL,
			price_version INT NOT NULL DEFAULT 0,
			INDEX idx_products_user (user_id),
			INDEX idx_products_zone (user_id, location_zone)
		);
	`
	return execWithRetry(query, retries, db)
}

// AutoMigratePricingRules creates the pricing_rules table if it does not exist.
func AutoMigratePricingRules(retries int, db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS pricing_rules (
			id INT AUTO_INCREMENT PRIMARY KEY,
			user_id INT NOT NULL,
			rule_name VARCHAR(255) NOT NULL,
			rule_type VARCHAR(20) NOT NULL,
			conditions JSON NOT NULL,
			discount_percentage DOUBLE NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			INDEX idx_pricing_rules_user (user_id, rule_type, is_active)
		);
	`
	return execWithRetry(query, retries, db)
}

// AutoMigrateZoneMultipliers creates the zone_multipliers table if it does not exist.
func AutoMigrateZoneMultipliers(retries int, db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS zone_multipliers (
			id INT AUTO_INCREMENT PRIMARY KEY,
			user_id INT NOT NULL,
			zone_name VARCHAR(255) NOT NULL,
			zone_code VARCHAR(50) NOT NULL,
			price_multiplier DOUBLE NOT NULL,
			demand_level VARCHAR(10) NOT NULL,
			UNIQUE KEY uq_zone_multipliers_code (user_id, zone_code)
		);
	`
	return execWithRetry(query, retries, db)
}

// AutoMigratePriceHistory creates the price_history table if it does not exist.
func AutoMigratePriceHistory(retries int, db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS price_history (
			id INT AUTO_INCREMENT PRIMARY KEY,
			user_id INT NOT NULL,
			product_id INT NOT NULL,
			old_price DOUBLE NOT NULL,
			new_price DOUBLE NOT NULL,
			reason TEXT NOT NULL,
			changed_by VARCHAR(20) NOT NULL,
			changed_at DATETIME NOT NULL,
			INDEX idx_price_history_product (user_id, product_id, changed_at)
		);
	`
	return execWithRetry(query, retries, db)
}

func execWithRetry(query string, retries int, db *sql.DB) error {
	_, err := db.Exec(query)
	if err != nil {
		// Retry creating the table
		for i := 0; i < retries; i++ {
			time.Sleep(1 * time.Second)
			_, err = db.Exec(query)
			if err == nil {
				break
			}
		}
	}
	return err
}
