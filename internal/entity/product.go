package entity

import "time"

// Product is the pricing-relevant view of an inventory product.
// Products are created by inventory management; within this service they
// are only ever mutated through the price mutator.
type Product struct {
	ID              int        `json:"id"`
	UserID          int        `json:"user_id"`
	Name            string     `json:"name"`
	Category        string     `json:"category"`
	BasePrice       float64    `json:"base_price"`
	CurrentPrice    *float64   `json:"current_price"`
	Cost            float64    `json:"cost"`
	Quantity        int        `json:"quantity"`
	ExpirationDate  *time.Time `json:"expiration_date"`
	LocationZone    string     `json:"location_zone"`
	LastPriceUpdate *time.Time `json:"last_price_update"`
	PriceVersion    int        `json:"price_version"`
}

// EffectivePrice returns the price currently in effect: the current price
// when one is set, otherwise the base price. All discount math starts from
// BasePrice, never from a previously discounted price.
func (p *Product) EffectivePrice() float64 {
	if p.CurrentPrice != nil {
		return *p.CurrentPrice
	}
	return p.BasePrice
}
