package payments

import (
	"context"

	"github.com/Lyham67/Tombobach/internal/models"
)

type Provider interface {
	Name() string

	// CreateSession registers the purchase with the provider and
	// returns the opaque session id plus the hosted checkout URL to
	// redirect the buyer to.
	CreateSession(ctx context.Context, tickets int, amount models.Cents, buyer models.Buyer) (id string, url string, err error)
}
