package domain

import (
	"strings"
	"time"

	"github.com/dejobratic/shopkart/internal/apperrors"
)

// Address is a shipping address owned by one user. Orders reference it but do not own it.
type Address struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	FullName    string    `json:"full_name"`
	Phone       string    `json:"phone"`
	AddressLine string    `json:"address_line"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	Pincode     string    `json:"pincode"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate reports the first blank field.
func (a Address) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"full_name", a.FullName},
		{"phone", a.Phone},
		{"address_line", a.AddressLine},
		{"city", a.City},
		{"state", a.State},
		{"pincode", a.Pincode},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return apperrors.Validation(f.name + " is required")
		}
	}
	return nil
}

// Lines renders the address as a printable block.
func (a Address) Lines() []string {
	return []string{
		a.FullName,
		a.AddressLine,
		a.City + ", " + a.State + " - " + a.Pincode,
		"Phone: " + a.Phone,
	}
}
