package payments

import (
	"fmt"

	"github.com/Lyham67/Tombobach/internal/config"
	"github.com/Lyham67/Tombobach/internal/payments/stripeprovider"
	"github.com/Lyham67/Tombobach/internal/payments/stub"
)

func NewProvider(cfg config.Config) (Provider, error) {
	switch cfg.PaymentProvider {
	case "stripe":
		return stripeprovider.New(cfg.StripeSecretKey, cfg.SuccessURL, cfg.CancelURL), nil
	case "stub":
		return stub.New(cfg.BasePublicURL), nil
	default:
		return nil, fmt.Errorf("unknown payment provider: %s", cfg.PaymentProvider)
	}
}
