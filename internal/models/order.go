package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultCountry        = "United States"
	DefaultBillingAddress = "same"
)

// ShippingInfo is the shipping form of the checkout.
type ShippingInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
}

// Trimmed returns a copy with surrounding whitespace removed and the country defaulted.
func (s ShippingInfo) Trimmed() ShippingInfo {
	out := ShippingInfo{
		FirstName: strings.TrimSpace(s.FirstName),
		LastName:  strings.TrimSpace(s.LastName),
		Email:     strings.TrimSpace(s.Email),
		Phone:     strings.TrimSpace(s.Phone),
		Address:   strings.TrimSpace(s.Address),
		City:      strings.TrimSpace(s.City),
		State:     strings.TrimSpace(s.State),
		ZipCode:   strings.TrimSpace(s.ZipCode),
		Country:   strings.TrimSpace(s.Country),
	}
	if out.Country == "" {
		out.Country = DefaultCountry
	}
	return out
}

// PaymentInfo is the payment form of the checkout.
type PaymentInfo struct {
	CardNumber     string `json:"cardNumber"`
	ExpiryDate     string `json:"expiryDate"`
	CVV            string `json:"cvv,omitempty"`
	CardName       string `json:"cardName"`
	BillingAddress string `json:"billingAddress"`
}

// Trimmed returns a copy with whitespace removed and the billing address defaulted.
func (p PaymentInfo) Trimmed() PaymentInfo {
	out := PaymentInfo{
		CardNumber:     strings.Join(strings.Fields(p.CardNumber), ""),
		ExpiryDate:     strings.TrimSpace(p.ExpiryDate),
		CVV:            strings.TrimSpace(p.CVV),
		CardName:       strings.TrimSpace(p.CardName),
		BillingAddress: strings.TrimSpace(p.BillingAddress),
	}
	if out.BillingAddress == "" {
		out.BillingAddress = DefaultBillingAddress
	}
	return out
}

// Masked keeps the last four card digits and drops the CVV.
func (p PaymentInfo) Masked() PaymentInfo {
	out := p
	out.CVV = ""
	digits := strings.Join(strings.Fields(p.CardNumber), "")
	if n := len(digits); n > 4 {
		out.CardNumber = strings.Repeat("*", n-4) + digits[n-4:]
	} else {
		out.CardNumber = digits
	}
	return out
}

// Order is the immutable record produced when checkout completes.
type Order struct {
	ID        int64           `json:"id"`
	Reference string          `json:"reference"`
	Items     []CartLine      `json:"items"`
	Shipping  ShippingInfo    `json:"shipping"`
	Payment   PaymentInfo     `json:"payment"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"date"`
}
