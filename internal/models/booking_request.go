package models

import (
	"errors"
	"strings"
)

// GuestName is one traveller on a booking.
type GuestName struct {
	First string `json:"first_name"`
	Last  string `json:"last_name"`
}

// BookingRequest carries everything needed to submit a booking for a
// prebooked rate.
type BookingRequest struct {
	BookHash string      `json:"book_hash"`
	Email    string      `json:"email"`
	Phone    string      `json:"phone"`
	Guests   []GuestName `json:"guests"`
	Currency string      `json:"currency"`
}

// Validate fails fast before any provider call is attempted.
func (r *BookingRequest) Validate() error {
	var errs []string
	if r.BookHash == "" {
		errs = append(errs, "book_hash is required")
	}
	if r.Email == "" || !strings.Contains(r.Email, "@") {
		errs = append(errs, "valid email is required")
	}
	if r.Phone == "" {
		errs = append(errs, "phone is required")
	}
	if len(r.Guests) == 0 {
		errs = append(errs, "at least one guest is required")
	}
	for _, g := range r.Guests {
		if g.First == "" || g.Last == "" {
			errs = append(errs, "guest first and last name are required")
			break
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, ", "))
	}
	return nil
}

// FinishRequest starts finalization of a submitted booking.
type FinishRequest struct {
	PaymentType string `json:"payment_type"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
}

func (r *FinishRequest) Validate() error {
	if r.PaymentType == "" {
		return errors.New("payment_type is required")
	}
	return nil
}
