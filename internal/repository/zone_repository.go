package repository

import (
	"context"
	"database/sql"
	"fmt"

	"pricing-service/internal/entity"
)

// ZoneRepository handles the interactions with the zone multipliers table.
type ZoneRepository struct {
	db *sql.DB
}

// NewZoneRepository creates a new instance of ZoneRepository.
func NewZoneRepository(db *sql.DB) *ZoneRepository {
	return &ZoneRepository{db}
}

// CreateZone inserts a new zone multiplier and fills in its generated ID.
func (r *ZoneRepository) CreateZone(ctx context.Context, zone *entity.ZoneMultiplier) error {
	query := `INSERT INTO zone_multipliers (user_id, zone_name, zone_code, price_multiplier, demand_level)
		VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, zone.UserID, zone.ZoneName, zone.ZoneCode, zone.PriceMultiplier, zone.DemandLevel)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	zone.ID = int(id)
	return nil
}

// UpdateZone updates a zone's name, multiplier and demand level. The zone
// code is left alone: products reference zones by code.
func (r *ZoneRepository) UpdateZone(ctx context.Context, zone *entity.ZoneMultiplier) error {
	query := `UPDATE zone_multipliers SET zone_name = ?, price_multiplier = ?, demand_level = ?
		WHERE id = ? AND user_id = ?`
	res, err := r.db.ExecContext(ctx, query, zone.ZoneName, zone.PriceMultiplier, zone.DemandLevel, zone.ID, zone.UserID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("zone multiplier %d not found: %w", zone.ID, ErrNotFound)
	}
	return nil
}

// GetZones fetches all of the user's zone multipliers.
func (r *ZoneRepository) GetZones(ctx context.Context, userID int) ([]entity.ZoneMultiplier, error) {
	query := `SELECT id, user_id, zone_name, zone_code, price_multiplier, demand_level
		FROM zone_multipliers WHERE user_id = ?`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []entity.ZoneMultiplier
	for rows.Next() {
		var zone entity.ZoneMultiplier
		err := rows.Scan(&zone.ID, &zone.UserID, &zone.ZoneName, &zone.ZoneCode, &zone.PriceMultiplier, &zone.DemandLevel)
		if err != nil {
			return nil, err
		}
		zones = append(zones, zone)
	}
	return zones, rows.Err()
}
