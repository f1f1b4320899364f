package entity

import "time"

// Rule types supported by the pricing engine. Only expiration rules are
// evaluated automatically; the other types are stored for their callers.
const (
	RuleTypeExpiration  = "expiration"
	RuleTypeDemand      = "demand"
	RuleTypeGeolocation = "geolocation"
	RuleTypeStock       = "stock"
)

// PricingRule maps a named, typed condition to a discount percentage.
// Inactive rules are never evaluated.
type PricingRule struct {
	ID                 int            `json:"id"`
	UserID             int            `json:"user_id"`
	RuleName           string         `json:"rule_name"`
	RuleType           string         `json:"rule_type"`
	Conditions         RuleConditions `json:"conditions"`
	DiscountPercentage float64        `json:"discount_percentage"`
	IsActive           bool           `json:"is_active"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// RuleConditions is the rule-type-specific condition payload. For
// expiration rules the bounds are days until expiry; a nil bound is
// unconstrained on that side.
type RuleConditions struct {
	MinDays *int `json:"min_days,omitempty"`
	MaxDays *int `json:"max_days,omitempty"`
}

// AppliesToDays reports whether daysUntilExpiry falls inside the rule's
// [min_days, max_days] window.
func (r *PricingRule) AppliesToDays(days int) bool {
	if r.Conditions.MinDays != nil && days < *r.Conditions.MinDays {
		return false
	}
	if r.Conditions.MaxDays != nil && days > *r.Conditions.MaxDays {
		return false
	}
	return true
}

// ValidRuleType reports whether t is one of the supported rule types.
func ValidRuleType(t string) bool {
	switch t {
	case RuleTypeExpiration, RuleTypeDemand, RuleTypeGeolocation, RuleTypeStock:
		return true
	}
	return false
}
