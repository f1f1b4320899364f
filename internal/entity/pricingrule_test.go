package entity

import "testing"

func TestAppliesToDays(t *testing.T) {
	bound := func(v int) *int { return &v }

	tests := []struct {
		name    string
		minDays *int
		maxDays *int
		days    int
		want    bool
	}{
		{"inside window", bound(0), bound(3), 2, true},
		{"at lower bound", bound(2), bound(5), 2, true},
		{"at upper bound", bound(2), bound(5), 5, true},
		{"below window", bound(2), bound(5), 1, false},
		{"above window", bound(2), bound(5), 6, false},
		{"open lower bound", nil, bound(7), 0, true},
		{"open upper bound", bound(10), nil, 365, true},
		{"unbounded", nil, nil, 42, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := PricingRule{Conditions: RuleConditions{MinDays: tt.minDays, MaxDays: tt.maxDays}}
			if got := rule.AppliesToDays(tt.days); got != tt.want {
				t.Errorf("AppliesToDays(%d) = %v, want %v", tt.days, got, tt.want)
			}
		})
	}
}

func TestEffectivePrice(t *testing.T) {
	p := Product{BasePrice: 100}
	if got := p.EffectivePrice(); got != 100 {
		t.Fatalf("expected base price 100, got %.2f", got)
	}

	current := 75.0
	p.CurrentPrice = &current
	if got := p.EffectivePrice(); got != 75 {
		t.Fatalf("expected current price 75, got %.2f", got)
	}
}
