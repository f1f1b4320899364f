package entity

// Demand levels a zone can be classified as.
const (
	DemandLevelHigh   = "high"
	DemandLevelMedium = "medium"
	DemandLevelLow    = "low"
)

// ZoneMultiplier is a named geographic/demand zone. Products reference it
// by zone code; the code is treated as immutable once products point at it.
type ZoneMultiplier struct {
	ID              int     `json:"id"`
	UserID          int     `json:"user_id"`
	ZoneName        string  `json:"zone_name"`
	ZoneCode        string  `json:"zone_code"`
	PriceMultiplier float64 `json:"price_multiplier"`
	DemandLevel     string  `json:"demand_level"`
}

// ValidDemandLevel reports whether level is one of the supported levels.
func ValidDemandLevel(level string) bool {
	switch level {
	case DemandLevelHigh, DemandLevelMedium, DemandLevelLow:
		return true
	}
	return false
}
