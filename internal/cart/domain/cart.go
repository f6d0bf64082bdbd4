package domain

import "time"

// Line is one product in a user's cart. A user holds at most one line per product.
type Line struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// Favourite marks a product on a user's wishlist.
type Favourite struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	ProductID string    `json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
}

// BuyNowSelection is a single-use purchase of one product that bypasses the cart.
// It is consumed by the order that uses it and is worthless after ExpiresAt.
type BuyNowSelection struct {
	Token     string    `json:"token"`
	UserID    string    `json:"-"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (s BuyNowSelection) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Outcome is the status string the cart and favourite endpoints answer with.
type Outcome string

const (
	OutcomeAddedToCart        Outcome = "Product Added to Cart"
	OutcomeAlreadyInCart      Outcome = "Product Already in Cart"
	OutcomeStockNotAvailable  Outcome = "Product Stock Not Available"
	OutcomeLoginToAddCart     Outcome = "Login to Add Cart"
	OutcomeAddedToFavourite   Outcome = "Product Added to Favourite"
	OutcomeAlreadyInFavourite Outcome = "Product Already in Favourite"
	OutcomeLoginToAddFav      Outcome = "Login to Add Favourite"
	OutcomeSomethingWrong     Outcome = "Something went wrong"
	OutcomeInvalidRequest     Outcome = "Invalid Request"
)
