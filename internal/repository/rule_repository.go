package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"pricing-service/internal/entity"
)

// PricingRuleRepository handles the interactions with the pricing rules table.
type PricingRuleRepository struct {
	db *sql.DB
}

// NewPricingRuleRepository creates a new instance of PricingRuleRepository.
func NewPricingRuleRepository(db *sql.DB) *PricingRuleRepository {
	return &PricingRuleRepository{db}
}

// CreateRule inserts a new pricing rule and fills in its generated ID.
func (r *PricingRuleRepository) CreateRule(ctx context.Context, rule *entity.PricingRule) error {
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return err
	}

	now := time.Now()
	query := `INSERT INTO pricing_rules (user_id, rule_name, rule_type, conditions, discount_percentage, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, rule.UserID, rule.RuleName, rule.RuleType, conditions, rule.DiscountPercentage, rule.IsActive, now, now)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rule.ID = int(id)
	rule.CreatedAt = now
	rule.UpdatedAt = now
	return nil
}

// UpdateRule updates an existing pricing rule scoped to its owner.
func (r *PricingRuleRepository) UpdateRule(ctx context.Context, rule *entity.PricingRule) error {
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return err
	}

	query := `UPDATE pricing_rules SET rule_name = ?, rule_type = ?, conditions = ?, discount_percentage = ?, is_active = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`
	res, err := r.db.ExecContext(ctx, query, rule.RuleName, rule.RuleType, conditions, rule.DiscountPercentage, rule.IsActive, time.Now(), rule.ID, rule.UserID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("pricing rule %d not found: %w", rule.ID, ErrNotFound)
	}
	return nil
}

// DeleteRule deletes a pricing rule scoped to its owner.
func (r *PricingRuleRepository) DeleteRule(ctx context.Context, userID, id int) error {
	query := `DELETE FROM pricing_rules WHERE id = ? AND user_id = ?`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("pricing rule %d not found: %w", id, ErrNotFound)
	}
	return nil
}

// GetRules fetches all of the user's pricing rules.
func (r *PricingRuleRepository) GetRules(ctx context.Context, userID int) ([]entity.PricingRule, error) {
	query := `SELECT id, user_id, rule_name, rule_type, conditions, discount_percentage, is_active, created_at, updated_at
		FROM pricing_rules WHERE user_id = ?`
	return r.queryRules(ctx, query, userID)
}

// GetActiveRulesByType fetches the user's active rules of one rule type.
func (r *PricingRuleRepository) GetActiveRulesByType(ctx context.Context, userID int, ruleType string) ([]entity.PricingRule, error) {
	query := `SELECT id, user_id, rule_name, rule_type, conditions, discount_percentage, is_active, created_at, updated_at
		FROM pricing_rules WHERE user_id = ? AND rule_type = ? AND is_active = TRUE`
	return r.queryRules(ctx, query, userID, ruleType)
}

func (r *PricingRuleRepository) queryRules(ctx context.Context, query string, args ...interface{}) ([]entity.PricingRule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []entity.PricingRule
	for rows.Next() {
		var rule entity.PricingRule
		var conditions []byte
		err := rows.Scan(&rule.ID, &rule.UserID, &rule.RuleName, &rule.RuleType, &conditions, &rule.DiscountPercentage, &rule.IsActive, &rule.CreatedAt, &rule.UpdatedAt)
		if err != nil {
			return nil, err
		}
		if len(conditions) > 0 {
			if err := json.Unmarshal(conditions, &rule.Conditions); err != nil {
				return nil, fmt.Errorf("could not decode conditions for rule %d: %v", rule.ID, err)
			}
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}
