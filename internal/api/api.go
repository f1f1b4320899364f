package api

import (
	"errors"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"pricing-service/internal/entity"
	"pricing-service/internal/repository"
	"pricing-service/internal/service"
)

// PricingHandler handles pricing-related requests.
type PricingHandler struct {
	pricingService *service.PricingService
}

// NewPricingHandler creates a new PricingHandler instance.
func NewPricingHandler(pricingService *service.PricingService) *PricingHandler {
	return &PricingHandler{pricingService: pricingService}
}

// Register attaches the pricing routes to the given group.
func (h *PricingHandler) Register(g *echo.Group) {
	g.GET("/rules", h.GetPricingRules)
	g.POST("/rules", h.CreatePricingRule)
	g.PUT("/rules/:id", h.UpdatePricingRule)
	g.DELETE("/rules/:id", h.DeletePricingRule)

	g.GET("/zones", h.GetZoneMultipliers)
	g.POST("/zones", h.CreateZoneMultiplier)
	g.PUT("/zones/:id", h.UpdateZoneMultiplier)
	g.POST("/zones/:code/apply", h.ApplyZonePricing)

	g.GET("/history", h.GetPriceHistory)
	g.GET("/products", h.GetProductsWithPricing)
	g.PUT("/products/:id/price", h.UpdateProductPrice)
	g.POST("/expiration/check", h.CheckExpirationPricing)
}

// GetPricingRules returns all of the caller's pricing rules.
func (h *PricingHandler) GetPricingRules(c echo.Context) error {
	userID, err := userIDFromContext(c)
	if err != nil {
		return c.JSON(401, map[string]string{"error": err.Error()})
	}

	rules, err := h.pricingService.GetPricingRules(c.Request().Context(), userID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(200, rules)
}

// CreatePricingRule creates a new pricing rule for the caller.
func (h *PricingHandler) CreatePricingRule(c echo.Context) error {
	userID, err := userIDFromContext(c)
	if err != nil {
		return c.JSON(401, map[string]string{"error": err.Error()})
	}

	rule := entity.PricingRule{}
	if err := c.Bind(&rule); err != nil {
		return c.JSON(400, map[string]string{"error": "invalid request payload"})
	}
	rule.UserID = userID

	if err := h.pricingService.CreatePricingRule(c.Request().Context(), &rule); err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(201, rule)
}

// UpdatePricingRule updates one of the caller's pricing rules.
func (h *PricingHandler) UpdatePricingRule(c echo.Context) error {
	userID, err := userIDFromContext(c)
	if err != nil {
		return c.JSON(401, map[string]string{"error": err.Error()})
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(400, map[string]string{"error": "invalid ID"})
	}

	rule := entity.PricingRule{}
	if err := c.Bind(&rule); err != nil {
		return c.JSON(400, map[string]string{"error": "invalid request payload"})
	}
	rule.ID = id
	rule.UserID = userID

	if err := h.pricingService.UpdatePricingRule(c.Request().Context(), &rule); err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(200, rule)
}

// DeletePricingRule deletes one of the caller's pricing rules.
func (h *PricingHandler) DeletePricingRule(c echo.Context) error {
	userID, err := userIDFromContext(c)
	if err != nil {
		return c.JSON(401, map[string]string{"error": err.Error()})
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(400, map[string]string{"error": "invalid ID"})
	}

	if err := h.pricingService.DeletePricingRule(c.Request().Context(), userID, id); err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(200, map[string]string{"status": "deleted"})
}

// GetZoneMultipliers returns all of the caller's zone multipliers.
func (h *PricingHandler) GetZoneMultipliers(c echo.Context) error {
	userID, err := userIDFromContext(c)
	if err != nil {
		return c.JSON(401, map[string]string{"error": err.Error()})
	}

	zones, err := h.pricingService.GetZoneMultipliers(c.Request().Context(), userID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(200, zones)
}

// CreateZoneMultiplier creates a new zone multiplier for the caller.
func (h *PricingHandler) CreateZoneMultiplier(c echo.Context) error {
	userID, err := userIDFromContext(c)
	if err != nil {
		return c.JSON(401, map[string]string{"error": err.Error()})
	}

	zone := entity.ZoneMultiplier{}
	if err := c.Bind(&zone); err != nil {
		return c.JSON(400, map[string]string{"error": "invalid request payload"})
	}
	zone.UserID = userID

	if err := h.pricingService.CreateZoneMultiplier(c.Request().Context(), &zone); err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(201, zone)
}

// UpdateZoneMultiplier updates one of the caller's zone multipliers. It
// does not reprice the zone's products; callers follow up with the apply
// endpoint.
func (h *PricingHandler) UpdateZoneMultiplier(c echo.Context) error {
	userID, err := userIDFromContext(c)
	if err != nil {
		return c.JSON(401, map[string]string{"error": err.Error()})
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(400, map[string]string{"error": "invalid ID"})
	}

	zone := entity.ZoneMultiplier{}
	if err := c.Bind(&zone); err != nil {
		return c.JSON(400, map[string]string{"error": "invalid request payload"})
	}
	zone.ID = id
	zone.UserID = userID

	if err := h.pricingService.UpdateZoneMultiplier(c.Request().Context(), &zone); err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(200, zone)
}

// ApplyZonePricing reprices every product in the zone from the multiplier.
func (h *PricingHandler) ApplyZonePricing(c echo.Context) error {
	userID, err := userIDFromContext(c)
	if err != nil {
		return c.JSON(401, map[string]string{"error": err.Error()})
	}

	var req struct {
		Multiplier float64 `json:"multiplier"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "invalid request payload"})
	}

	result, err := h.pricingService.ApplyZonePricing(c.Request().Context(), userID, c.Param("code"), req.Multiplier)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(200, result)
}

// GetPriceHistory returns the caller's ledger entries, optionally filtered
// by the product_id query parameter.
func (h *PricingHandler) GetPriceHistory(c echo.Context) error {
	userID, err := userIDFromContext(c)
	if err != nil {
		return c.JSON(401, map[string]string{"error": err.Error()})
	}

	var productID *int
	if raw := c.QueryParam("product_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(400, map[string]string{"error": "invalid product_id"})
		}
		productID = &id
	}

	entries, err := h.pricingService.GetPriceHistory(c.Request().Context(), userID, productID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(200, entries)
}

// GetProductsWithPricing returns the caller's priced products.
func (h *PricingHandler) GetProductsWithPricing(c echo.Context) error {
	userID, err := userIDFromContext(c)
	if err != nil {
		return c.JSON(401, map[string]string{"error": err.Error()})
	}

	products, err := h.pricingService.GetProductsWithPricing(c.Request().Context(), userID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(200, products)
}

// UpdateProductPrice applies a manual price change to one product.
func (h *PricingHandler) UpdateProductPrice(c echo.Context) error {
	userID, err := userIDFromContext(c)
	if err != nil {
		return c.JSON(401, map[string]string{"error": err.Error()})
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(400, map[string]string{"error": "invalid ID"})
	}

	var req struct {
		NewPrice  float64 `json:"new_price"`
		Reason    string  `json:"reason"`
		ChangedBy string  `json:"changed_by"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "invalid request payload"})
	}
	if req.ChangedBy == "" {
		req.ChangedBy = entity.ChangedByManual
	}

	if err := h.pricingService.MutatePrice(c.Request().Context(), userID, id, req.NewPrice, req.Reason, req.ChangedBy); err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(200, map[string]string{"status": "price updated"})
}

// CheckExpirationPricing runs one expiration discount evaluation for the caller.
func (h *PricingHandler) CheckExpirationPricing(c echo.Context) error {
	userID, err := userIDFromContext(c)
	if err != nil {
		return c.JSON(401, map[string]string{"error": err.Error()})
	}

	result, err := h.pricingService.EvaluateExpirationDiscounts(c.Request().Context(), userID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(200, result)
}

func errorJSON(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrInvalidMultiplier),
		errors.Is(err, service.ErrInvalidRule),
		errors.Is(err, service.ErrInvalidZone),
		errors.Is(err, service.ErrInvalidChangedBy):
		return c.JSON(400, map[string]string{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(404, map[string]string{"error": err.Error()})
	case errors.Is(err, repository.ErrVersionConflict):
		return c.JSON(409, map[string]string{"error": err.Error()})
	}
	return c.JSON(500, map[string]string{"error": err.Error()})
}

func userIDFromContext(c echo.Context) (int, error) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return 0, errors.New("missing or invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid token claims")
	}
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, errors.New("token missing user_id claim")
	}
	return int(userID), nil
}
