package stripeprovider

import (
	"context"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"

	"github.com/Lyham67/Tombobach/internal/models"
)

// Provider creates Stripe Checkout sessions for raffle purchases.
type Provider struct {
	successURL string
	cancelURL  string
}

func New(secretKey, successURL, cancelURL string) *Provider {
	stripe.Key = secretKey
	return &Provider{successURL: successURL, cancelURL: cancelURL}
}

func (p *Provider) Name() string { return "stripe" }

func (p *Provider) CreateSession(ctx context.Context, tickets int, amount models.Cents, buyer models.Buyer) (string, string, error) {
	name := fmt.Sprintf("Tombobach - %d ticket", tickets)
	if tickets > 1 {
		name += "s"
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(p.successURL),
		CancelURL:          stripe.String(p.cancelURL),
		CustomerEmail:      stripe.String(buyer.Email),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyEUR)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(name),
						Description: stripe.String("La grande Tombola des Bachelor Arts et Métiers"),
					},
					UnitAmount: stripe.Int64(int64(amount)),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("tickets", strconv.Itoa(tickets))
	params.AddMetadata("firstName", buyer.FirstName)
	params.AddMetadata("lastName", buyer.LastName)
	params.AddMetadata("phone", buyer.Phone)
	params.AddMetadata("vendeur", buyer.Seller)

	s, err := session.New(params)
	if err != nil {
		return "", "", fmt.Errorf("create stripe checkout session: %w", err)
	}
	return s.ID, s.URL, nil
}
