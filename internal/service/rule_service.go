package service

import (
	"context"
	"fmt"

	"pricing-service/internal/entity"
)

// GetPricingRules returns all of the user's pricing rules.
func (s *PricingService) GetPricingRules(ctx context.Context, userID int) ([]entity.PricingRule, error) {
	return s.rules.GetRules(ctx, userID)
}

// CreatePricingRule validates and persists a new pricing rule.
func (s *PricingService) CreatePricingRule(ctx context.Context, rule *entity.PricingRule) error {
	if err := validateRule(rule); err != nil {
		return err
	}
	if err := s.rules.CreateRule(ctx, rule); err != nil {
		return err
	}
	s.invalidateRuleCache(ctx, rule.UserID)
	return nil
}

// UpdatePricingRule validates and persists changes to an existing rule.
func (s *PricingService) UpdatePricingRule(ctx context.Context, rule *entity.PricingRule) error {
	if err := validateRule(rule); err != nil {
		return err
	}
	if err := s.rules.UpdateRule(ctx, rule); err != nil {
		return err
	}
	s.invalidateRuleCache(ctx, rule.UserID)
	return nil
}

// DeletePricingRule deletes a pricing rule. Deactivating via is_active is
// the usual route; deletion stays supported.
func (s *PricingService) DeletePricingRule(ctx context.Context, userID, id int) error {
	if err := s.rules.DeleteRule(ctx, userID, id); err != nil {
		return err
	}
	s.invalidateRuleCache(ctx, userID)
	return nil
}

// GetZoneMultipliers returns all of the user's zone multipliers.
func (s *PricingService) GetZoneMultipliers(ctx context.Context, userID int) ([]entity.ZoneMultiplier, error) {
	return s.zones.GetZones(ctx, userID)
}

// CreateZoneMultiplier validates and persists a new zone multiplier.
func (s *PricingService) CreateZoneMultiplier(ctx context.Context, zone *entity.ZoneMultiplier) error {
	if err := validateZone(zone); err != nil {
		return err
	}
	return s.zones.CreateZone(ctx, zone)
}

// UpdateZoneMultiplier validates and persists changes to an existing zone.
// Repricing the zone's products is a separate, explicit ApplyZonePricing
// call by the caller.
func (s *PricingService) UpdateZoneMultiplier(ctx context.Context, zone *entity.ZoneMultiplier) error {
	if err := validateZone(zone); err != nil {
		return err
	}
	return s.zones.UpdateZone(ctx, zone)
}

func validateRule(rule *entity.PricingRule) error {
	if rule.RuleName == "" {
		return fmt.Errorf("%w: rule name is required", ErrInvalidRule)
	}
	if !entity.ValidRuleType(rule.RuleType) {
		return fmt.Errorf("%w: unknown rule type %q", ErrInvalidRule, rule.RuleType)
	}
	if rule.DiscountPercentage < 0 || rule.DiscountPercentage > 100 {
		return fmt.Errorf("%w: discount percentage %.2f outside [0,100]", ErrInvalidRule, rule.DiscountPercentage)
	}
	if rule.Conditions.MinDays != nil && rule.Conditions.MaxDays != nil && *rule.Conditions.MinDays > *rule.Conditions.MaxDays {
		return fmt.Errorf("%w: min_days greater than max_days", ErrInvalidRule)
	}
	return nil
}

func validateZone(zone *entity.ZoneMultiplier) error {
	if zone.ZoneName == "" || zone.ZoneCode == "" {
		return fmt.Errorf("%w: zone name and code are required", ErrInvalidZone)
	}
	if zone.PriceMultiplier <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidZone, ErrInvalidMultiplier)
	}
	if !entity.ValidDemandLevel(zone.DemandLevel) {
		return fmt.Errorf("%w: unknown demand level %q", ErrInvalidZone, zone.DemandLevel)
	}
	return nil
}
