package domain

import "time"

// Category groups products on the storefront. Hidden categories and their products are not browsable.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Image       string    `json:"image,omitempty"`
	Visible     bool      `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// Product is a sellable item. Prices are in minor currency units (paise).
type Product struct {
	ID                 string    `json:"id"`
	CategoryID         string    `json:"category_id"`
	Name               string    `json:"name"`
	Vendor             string    `json:"vendor"`
	Image              string    `json:"image,omitempty"`
	Description        string    `json:"description"`
	Quantity           int       `json:"quantity"`
	OriginalPriceCents int64     `json:"original_price_cents"`
	SellingPriceCents  int64     `json:"selling_price_cents"`
	Visible            bool      `json:"-"`
	Trending           bool      `json:"trending"`
	CreatedAt          time.Time `json:"created_at"`
}

// InStock reports whether qty units can currently be sold.
func (p Product) InStock(qty int) bool {
	return qty > 0 && p.Quantity >= qty
}

// DiscountCents is how much cheaper the selling price is than the original price.
func (p Product) DiscountCents() int64 {
	if p.OriginalPriceCents <= p.SellingPriceCents {
		return 0
	}
	return p.OriginalPriceCents - p.SellingPriceCents
}
