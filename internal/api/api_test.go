package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"pricing-service/internal/entity"
	"pricing-service/internal/service"
)

// fakeStores backs the service with in-memory state for handler tests.
type fakeStores struct {
	products map[int]*entity.Product
	ledger   []entity.PriceHistory
	rules    []entity.PricingRule
	zones    []entity.ZoneMultiplier
}

func (f *fakeStores) GetProductByID(ctx context.Context, userID, id int) (*entity.Product, error) {
	p := f.products[id]
	cp := *p
	return &cp, nil
}

func (f *fakeStores) GetPricedProducts(ctx context.Context, userID int) ([]entity.Product, error) {
	var out []entity.Product
	for _, p := range f.products {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeStores) GetProductsByZone(ctx context.Context, userID int, zoneCode string) ([]entity.Product, error) {
	return nil, nil
}

func (f *fakeStores) ApplyPriceChange(ctx context.Context, product *entity.Product, newPrice float64, reason, changedBy string, at time.Time) error {
	stored := f.products[product.ID]
	old := stored.EffectivePrice()
	price := newPrice
	stored.CurrentPrice = &price
	stored.PriceVersion++
	f.ledger = append(f.ledger, entity.PriceHistory{
		UserID: product.UserID, ProductID: product.ID,
		OldPrice: old, NewPrice: newPrice,
		Reason: reason, ChangedBy: changedBy, ChangedAt: at,
	})
	return nil
}

func (f *fakeStores) CreateRule(ctx context.Context, rule *entity.PricingRule) error {
	rule.ID = len(f.rules) + 1
	f.rules = append(f.rules, *rule)
	return nil
}

func (f *fakeStores) UpdateRule(ctx context.Context, rule *entity.PricingRule) error { return nil }

func (f *fakeStores) DeleteRule(ctx context.Context, userID, id int) error { return nil }

func (f *fakeStores) GetRules(ctx context.Context, userID int) ([]entity.PricingRule, error) {
	return f.rules, nil
}

func (f *fakeStores) GetActiveRulesByType(ctx context.Context, userID int, ruleType string) ([]entity.PricingRule, error) {
	return nil, nil
}

func (f *fakeStores) CreateZone(ctx context.Context, zone *entity.ZoneMultiplier) error { return nil }

func (f *fakeStores) UpdateZone(ctx context.Context, zone *entity.ZoneMultiplier) error { return nil }

func (f *fakeStores) GetZones(ctx context.Context, userID int) ([]entity.ZoneMultiplier, error) {
	return f.zones, nil
}

func (f *fakeStores) GetHistory(ctx context.Context, userID int, productID *int) ([]entity.PriceHistory, error) {
	return f.ledger, nil
}

func newTestHandler(stores *fakeStores) *PricingHandler {
	svc := service.NewPricingService(stores, stores, stores, stores, nil, nil)
	return NewPricingHandler(svc)
}

func newTestContext(t *testing.T, method, target, body string, userID int) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": float64(userID)})
	c.Set("user", token)
	return c, rec
}

func TestUpdateProductPrice(t *testing.T) {
	stores := &fakeStores{products: map[int]*entity.Product{
		1: {ID: 1, UserID: 7, Name: "Apple", BasePrice: 100},
	}}
	h := newTestHandler(stores)

	c, rec := newTestContext(t, http.MethodPut, "/pricing/products/1/price", `{"new_price":80,"reason":"markdown","changed_by":"manual"}`, 7)
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := h.UpdateProductPrice(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(stores.ledger) != 1 || stores.ledger[0].NewPrice != 80 {
		t.Fatalf("unexpected ledger: %+v", stores.ledger)
	}
}

func TestUpdateProductPriceRejectsInvalidPrice(t *testing.T) {
	stores := &fakeStores{products: map[int]*entity.Product{
		1: {ID: 1, UserID: 7, Name: "Apple", BasePrice: 100},
	}}
	h := newTestHandler(stores)

	c, rec := newTestContext(t, http.MethodPut, "/pricing/products/1/price", `{"new_price":-5,"reason":"bad"}`, 7)
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := h.UpdateProductPrice(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != 400 {
		t.Fatalf("expected 400 for invalid price, got %d", rec.Code)
	}
	if len(stores.ledger) != 0 {
		t.Fatal("rejected price reached the ledger")
	}
}

func TestCreatePricingRule(t *testing.T) {
	stores := &fakeStores{products: map[int]*entity.Product{}}
	h := newTestHandler(stores)

	body := `{"rule_name":"near expiry","rule_type":"expiration","conditions":{"min_days":0,"max_days":3},"discount_percentage":50,"is_active":true}`
	c, rec := newTestContext(t, http.MethodPost, "/pricing/rules", body, 7)

	if err := h.CreatePricingRule(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != 201 {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created entity.PricingRule
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.UserID != 7 {
		t.Fatalf("expected rule scoped to caller, got user %d", created.UserID)
	}
	if created.Conditions.MaxDays == nil || *created.Conditions.MaxDays != 3 {
		t.Fatalf("conditions not carried: %+v", created.Conditions)
	}
}

func TestMissingTokenRejected(t *testing.T) {
	h := newTestHandler(&fakeStores{products: map[int]*entity.Product{}})

	req := httptest.NewRequest(http.MethodGet, "/pricing/rules", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	if err := h.GetPricingRules(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != 401 {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}
