package models

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// UnspecifiedSeller is the catch-all attribution bucket for purchases
// that arrive without a seller name. The French label is kept because
// existing exports and the deployed front-end rely on it.
const UnspecifiedSeller = "Non spécifié"

// Cents is a euro amount in minor units. It crosses the JSON boundary
// as a decimal euro value (2 fraction digits), which is what the
// front-end and the historical data files use.
type Cents int64

// CentsFromEuros converts a decimal euro amount to minor units,
// rounding half away from zero.
func CentsFromEuros(v float64) Cents {
	return Cents(math.Round(v * 100))
}

// Euros returns the amount as a decimal euro value.
func (c Cents) Euros() float64 {
	return float64(c) / 100
}

func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(c.Euros(), 'f', 2, 64)), nil
}

func (c *Cents) UnmarshalJSON(data []byte) error {
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("parse amount: %w", err)
	}
	*c = CentsFromEuros(v)
	return nil
}

// Payment is one raffle entry. A checkout of N tickets produces N
// Payment rows sharing the buyer identity, with the paid total split
// across them.
type Payment struct {
	Ticket    int64     `json:"ticket"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Seller    string    `json:"vendeur"`
	Amount    Cents     `json:"amount"`
	Date      time.Time `json:"date"`
}

// Buyer is the customer identity collected by the checkout form.
type Buyer struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"required,len=10,number"`
	Seller    string `json:"vendeur"`
}

// SellerStats is the running aggregate for one seller.
type SellerStats struct {
	Tickets int64 `json:"tickets"`
	Revenue Cents `json:"montant"`
}

// Stats is the admin dashboard summary.
type Stats struct {
	TotalTickets int64                  `json:"totalTickets"`
	TotalRevenue Cents                  `json:"totalRevenue"`
	Sellers      map[string]SellerStats `json:"vendeurs"`
}

// PrizeSlot is the editable text attached to one prize card on the
// public page.
type PrizeSlot struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// SiteContent is the single editable document behind the public page:
// hero image plus per-slot prize text and small prize images. Images
// are data URLs or plain URLs, the store does not care which.
type SiteContent struct {
	HeroImage   *string              `json:"heroImage"`
	Prizes      map[string]PrizeSlot `json:"prizes"`
	SmallPrizes map[string]string    `json:"smallPrizes"`
}

// EmptyContent returns the document served before anyone has edited
// the page.
func EmptyContent() SiteContent {
	return SiteContent{
		Prizes:      map[string]PrizeSlot{},
		SmallPrizes: map[string]string{},
	}
}
