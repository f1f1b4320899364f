package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"pricing-service/internal/entity"
	"pricing-service/internal/repository"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Validation errors surfaced to callers before any mutation happens.
var (
	ErrInvalidPrice      = errors.New("price must be a finite, non-negative number")
	ErrInvalidMultiplier = errors.New("price multiplier must be greater than zero")
	ErrInvalidRule       = errors.New("invalid pricing rule")
	ErrInvalidZone       = errors.New("invalid zone multiplier")
	ErrInvalidChangedBy  = errors.New("changed_by must be automatic or manual")
)

const (
	// Relative threshold for expiration repricing. Differences at or below
	// it are floating point noise, not a price change.
	expirationChangeThreshold = 0.01
	// Absolute threshold for zone repricing, in currency units.
	zoneChangeThreshold = 0.01

	ruleCacheTTL       = 5 * time.Minute
	priceConflictTries = 3
)

// ProductStore is the product persistence needed by the pricing engine.
type ProductStore interface {
	GetProductByID(ctx context.Context, userID, id int) (*entity.Product, error)
	GetPricedProducts(ctx context.Context, userID int) ([]entity.Product, error)
	GetProductsByZone(ctx context.Context, userID int, zoneCode string) ([]entity.Product, error)
	ApplyPriceChange(ctx context.Context, product *entity.Product, newPrice float64, reason, changedBy string, at time.Time) error
}

// RuleStore is the pricing rule persistence needed by the pricing engine.
type RuleStore interface {
	CreateRule(ctx context.Context, rule *entity.PricingRule) error
	UpdateRule(ctx context.Context, rule *entity.PricingRule) error
	DeleteRule(ctx context.Context, userID, id int) error
	GetRules(ctx context.Context, userID int) ([]entity.PricingRule, error)
	GetActiveRulesByType(ctx context.Context, userID int, ruleType string) ([]entity.PricingRule, error)
}

// ZoneStore is the zone multiplier persistence needed by the pricing engine.
type ZoneStore interface {
	CreateZone(ctx context.Context, zone *entity.ZoneMultiplier) error
	UpdateZone(ctx context.Context, zone *entity.ZoneMultiplier) error
	GetZones(ctx context.Context, userID int) ([]entity.ZoneMultiplier, error)
}

// HistoryStore reads the price change ledger.
type HistoryStore interface {
	GetHistory(ctx context.Context, userID int, productID *int) ([]entity.PriceHistory, error)
}

// EventWriter publishes price change events. *kafka.Writer satisfies it.
type EventWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// BatchResult reports the outcome of one evaluator or applicator run.
// Failed carries the products that could not be repriced so callers can
// retry or alert rather than only seeing an undercount.
type BatchResult struct {
	UpdatedCount        int            `json:"updated_count"`
	UpdatedProductNames []string       `json:"updated_product_names"`
	Failed              []BatchFailure `json:"failed,omitempty"`
}

// BatchFailure records one product that failed inside a batch run.
type BatchFailure struct {
	ProductID int    `json:"product_id"`
	Error     string `json:"error"`
}

// PricingService implements the dynamic pricing engine: rule and zone
// management, the price mutator, the expiration discount evaluator and the
// zone price applicator.
type PricingService struct {
	products    ProductStore
	rules       RuleStore
	zones       ZoneStore
	history     HistoryStore
	kafkaWriter EventWriter
	rdb         *redis.Client
}

// NewPricingService creates a new instance of PricingService. kafkaWriter
// and rdb may be nil; event publication and rule caching are then skipped.
func NewPricingService(products ProductStore, rules RuleStore, zones ZoneStore, history HistoryStore, kafkaWriter EventWriter, rdb *redis.Client) *PricingService {
	return &PricingService{
		products:    products,
		rules:       rules,
		zones:       zones,
		history:     history,
		kafkaWriter: kafkaWriter,
		rdb:         rdb,
	}
}

// MutatePrice applies a validated new price to a product. The product
// update and the ledger append run in one transaction; a concurrent writer
// is detected through the product's price version and the mutation is
// retried against the fresh row. One price change event is published after
// a successful commit.
func (s *PricingService) MutatePrice(ctx context.Context, userID, productID int, newPrice float64, reason, changedBy string) error {
	if math.IsNaN(newPrice) || math.IsInf(newPrice, 0) || newPrice < 0 {
		return ErrInvalidPrice
	}
	if changedBy != entity.ChangedByAutomatic && changedBy != entity.ChangedByManual {
		return ErrInvalidChangedBy
	}

	product, err := s.products.GetProductByID(ctx, userID, productID)
	if err != nil {
		return err
	}

	if newPrice < product.Cost {
		logger.Warn().Msgf("Product %d priced at %.2f, below cost %.2f", productID, newPrice, product.Cost)
	}

	for attempt := 0; ; attempt++ {
		err = s.products.ApplyPriceChange(ctx, product, newPrice, reason, changedBy, time.Now())
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrVersionConflict) || attempt == priceConflictTries-1 {
			return err
		}
		logger.Warn().Msgf("Price version conflict on product %d, retrying", productID)

		product, err = s.products.GetProductByID(ctx, userID, productID)
		if err != nil {
			return err
		}
	}

	s.publishPriceEvent(ctx, product, newPrice, reason, changedBy)
	return nil
}

// EvaluateExpirationDiscounts scans the user's priced products against the
// active expiration rules and reprices those approaching expiry. When no
// active expiration rules exist it returns immediately without reading a
// single product. Per-product failures are logged and collected; the batch
// always runs to the end.
func (s *PricingService) EvaluateExpirationDiscounts(ctx context.Context, userID int) (*BatchResult, error) {
	result := &BatchResult{UpdatedProductNames: []string{}}

	rules, err := s.activeExpirationRules(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return result, nil
	}

	products, err := s.products.GetPricedProducts(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range products {
		product := &products[i]
		if product.BasePrice <= 0 || product.ExpirationDate == nil {
			continue
		}

		daysUntilExpiry := int(math.Floor(product.ExpirationDate.Sub(now).Hours() / 24))
		// Expired inventory is not repriced; disposal is an external concern.
		if daysUntilExpiry < 0 {
			continue
		}

		// Rules are not additive: the highest applicable discount wins.
		maxDiscount := 0.0
		for _, rule := range rules {
			if rule.AppliesToDays(daysUntilExpiry) && rule.DiscountPercentage > maxDiscount {
				maxDiscount = rule.DiscountPercentage
			}
		}
		if maxDiscount <= 0 {
			continue
		}

		candidate := product.BasePrice * (1 - maxDiscount/100)
		current := product.EffectivePrice()
		if current > 0 {
			if math.Abs(candidate-current)/current <= expirationChangeThreshold {
				continue
			}
		} else if candidate <= 0 {
			// A fully discounted product stays at zero; repricing it to
			// zero again would only grow the ledger.
			continue
		}

		reason := fmt.Sprintf("expiration discount %.0f%% applied (%d days until expiry)", maxDiscount, daysUntilExpiry)
		if err := s.MutatePrice(ctx, userID, product.ID, candidate, reason, entity.ChangedByAutomatic); err != nil {
			logger.Error().Err(err).Msgf("Error applying expiration discount to product %d", product.ID)
			result.Failed = append(result.Failed, BatchFailure{ProductID: product.ID, Error: err.Error()})
			continue
		}

		result.UpdatedCount++
		result.UpdatedProductNames = append(result.UpdatedProductNames, product.Name)
	}

	return result, nil
}

// ApplyZonePricing recomputes the price of every product assigned to the
// given zone from its base price and the multiplier. Changes below one
// cent are skipped. The caller persists the zone multiplier itself; the
// two writes are not transactionally linked.
func (s *PricingService) ApplyZonePricing(ctx context.Context, userID int, zoneCode string, multiplier float64) (*BatchResult, error) {
	if math.IsNaN(multiplier) || math.IsInf(multiplier, 0) || multiplier <= 0 {
		return nil, ErrInvalidMultiplier
	}

	products, err := s.products.GetProductsByZone(ctx, userID, zoneCode)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{UpdatedProductNames: []string{}}
	for i := range products {
		product := &products[i]
		if product.BasePrice <= 0 {
			continue
		}

		candidate := product.BasePrice * multiplier
		if math.Abs(candidate-product.EffectivePrice()) <= zoneChangeThreshold {
			continue
		}

		reason := fmt.Sprintf("zone multiplier %.2fx applied to zone %s", multiplier, zoneCode)
		if err := s.MutatePrice(ctx, userID, product.ID, candidate, reason, entity.ChangedByAutomatic); err != nil {
			logger.Error().Err(err).Msgf("Error applying zone pricing to product %d", product.ID)
			result.Failed = append(result.Failed, BatchFailure{ProductID: product.ID, Error: err.Error()})
			continue
		}

		result.UpdatedCount++
		result.UpdatedProductNames = append(result.UpdatedProductNames, product.Name)
	}

	return result, nil
}

// GetProductsWithPricing returns the user's priced products.
func (s *PricingService) GetProductsWithPricing(ctx context.Context, userID int) ([]entity.Product, error) {
	return s.products.GetPricedProducts(ctx, userID)
}

// GetPriceHistory returns the user's ledger entries, optionally narrowed
// to one product.
func (s *PricingService) GetPriceHistory(ctx context.Context, userID int, productID *int) ([]entity.PriceHistory, error) {
	return s.history.GetHistory(ctx, userID, productID)
}

func (s *PricingService) publishPriceEvent(ctx context.Context, product *entity.Product, newPrice float64, reason, changedBy string) {
	if s.kafkaWriter == nil {
		return
	}

	event := entity.PriceChangeEvent{
		ProductID:   product.ID,
		ProductName: product.Name,
		OldPrice:    product.EffectivePrice(),
		NewPrice:    newPrice,
		Reason:      reason,
		ChangedBy:   changedBy,
		ChangedAt:   time.Now(),
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msgf("Error marshalling price event for product %d", product.ID)
		return
	}

	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("price-changed-%d", product.ID)),
		Value: eventJSON,
	}

	// The mutation is already committed and the ledger has the change;
	// a publish failure is logged, not propagated.
	if err := s.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		logger.Error().Err(err).Msgf("Error publishing price event for product %d", product.ID)
	}
}

func (s *PricingService) activeExpirationRules(ctx context.Context, userID int) ([]entity.PricingRule, error) {
	key := fmt.Sprintf("pricing-rules:active-expiration:%d", userID)

	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			logger.Warn().Err(err).Msg("Error reading rule cache, falling back to database")
		}
		if cached != "" {
			var rules []entity.PricingRule
			if err := json.Unmarshal([]byte(cached), &rules); err == nil {
				return rules, nil
			}
			logger.Warn().Msg("Discarding unreadable rule cache entry")
		}
	}

	rules, err := s.rules.GetActiveRulesByType(ctx, userID, entity.RuleTypeExpiration)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		rulesJSON, err := json.Marshal(rules)
		if err == nil {
			if err := s.rdb.Set(ctx, key, rulesJSON, ruleCacheTTL).Err(); err != nil {
				logger.Warn().Err(err).Msg("Error writing rule cache")
			}
		}
	}

	return rules, nil
}

func (s *PricingService) invalidateRuleCache(ctx context.Context, userID int) {
	if s.rdb == nil {
		return
	}
	key := fmt.Sprintf("pricing-rules:active-expiration:%d", userID)
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		logger.Warn().Err(err).Msgf("Error invalidating rule cache for user %d", userID)
	}
}
