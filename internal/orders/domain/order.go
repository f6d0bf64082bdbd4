package domain

import (
	"strings"
	"time"

	"github.com/dejobratic/shopkart/internal/apperrors"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPlaced         Status = "PLACED"
	StatusShipped        Status = "SHIPPED"
	StatusOutForDelivery Status = "OUT_FOR_DELIVERY"
	StatusDelivered      Status = "DELIVERED"
	StatusCancelled      Status = "CANCELLED"
)

type PaymentMode string

const (
	PaymentCashOnDelivery PaymentMode = "CASH_ON_DELIVERY"
	PaymentOnline         PaymentMode = "ONLINE"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentSuccess PaymentStatus = "SUCCESS"
)

var (
	ErrInvalidPaymentMode = apperrors.Validation("payment_mode must be CASH_ON_DELIVERY or ONLINE")
	ErrInvalidStatus      = apperrors.Validation("status must be one of SHIPPED, OUT_FOR_DELIVERY, DELIVERED, CANCELLED")
	ErrCannotCancel       = apperrors.New(apperrors.ErrInvalidState, "this order cannot be cancelled now")
	ErrNoItems            = apperrors.Validation("order must contain at least one item")
	ErrTotalMismatch      = apperrors.New(apperrors.ErrInvalidState, "order total does not match its items")
)

// ParsePaymentMode accepts the canonical names case-insensitively, plus "COD".
func ParsePaymentMode(s string) (PaymentMode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "COD", string(PaymentCashOnDelivery):
		return PaymentCashOnDelivery, nil
	case string(PaymentOnline):
		return PaymentOnline, nil
	default:
		return "", ErrInvalidPaymentMode
	}
}

// Item snapshots what was bought at purchase time. Later catalog edits never touch it.
type Item struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	PriceCents  int64  `json:"price_cents"`
}

func (i Item) LineTotalCents() int64 {
	return int64(i.Quantity) * i.PriceCents
}

// ItemsTotal sums quantity times snapshot price.
func ItemsTotal(items []Item) int64 {
	var total int64
	for _, item := range items {
		total += item.LineTotalCents()
	}
	return total
}

// Order is a placed purchase. AddressID is empty once the referenced address has been deleted.
type Order struct {
	ID               string        `json:"id"`
	UserID           string        `json:"user_id"`
	AddressID        string        `json:"address_id,omitempty"`
	TotalCents       int64         `json:"total_cents"`
	PaymentMode      PaymentMode   `json:"payment_mode"`
	PaymentStatus    PaymentStatus `json:"payment_status"`
	UPIApp           string        `json:"upi_app,omitempty"`
	Status           Status        `json:"status"`
	Items            []Item        `json:"items"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
	PlacedAt         time.Time     `json:"placed_at"`
	ShippedAt        *time.Time    `json:"shipped_at,omitempty"`
	OutForDeliveryAt *time.Time    `json:"out_for_delivery_at,omitempty"`
	DeliveredAt      *time.Time    `json:"delivered_at,omitempty"`
	CancelledAt      *time.Time    `json:"cancelled_at,omitempty"`
}

// Validate checks that the order has items and that its stored total equals their sum.
func (o Order) Validate() error {
	if len(o.Items) == 0 {
		return ErrNoItems
	}
	for _, item := range o.Items {
		if item.Quantity <= 0 {
			return apperrors.Validation("item quantity must be positive")
		}
		if item.PriceCents < 0 {
			return apperrors.Validation("item price must not be negative")
		}
	}
	if ItemsTotal(o.Items) != o.TotalCents {
		return ErrTotalMismatch
	}
	return nil
}

// IsTerminal reports whether the order can no longer change status.
func (o Order) IsTerminal() bool {
	return o.Status.IsTerminal()
}

func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Cancel is the customer-initiated transition, only allowed while the order is PLACED.
func (o *Order) Cancel(now time.Time) error {
	if o.Status != StatusPlaced {
		return ErrCannotCancel
	}
	o.setStatus(StatusCancelled, now)
	return nil
}

// ApplyOperatorStatus moves the order to target under policy and stamps the matching timestamp.
func (o *Order) ApplyOperatorStatus(target Status, policy TransitionPolicy, now time.Time) error {
	if !IsOperatorTarget(target) {
		return ErrInvalidStatus
	}
	if o.IsTerminal() {
		return apperrors.Newf(apperrors.ErrInvalidState, "order is already %s", o.Status)
	}
	if !policy.Allows(o.Status, target) {
		return apperrors.Newf(apperrors.ErrInvalidState, "cannot move order from %s to %s", o.Status, target)
	}
	o.setStatus(target, now)
	return nil
}

func (o *Order) setStatus(status Status, now time.Time) {
	o.Status = status
	o.UpdatedAt = now

	stamp := now
	switch status {
	case StatusShipped:
		o.ShippedAt = &stamp
	case StatusOutForDelivery:
		o.OutForDeliveryAt = &stamp
	case StatusDelivered:
		o.DeliveredAt = &stamp
	case StatusCancelled:
		o.CancelledAt = &stamp
	}
}
