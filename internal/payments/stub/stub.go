package stub

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Lyham67/Tombobach/internal/models"
)

// Stub provider for local development and tests: no real checkout,
// just a generated session id and a /pay/stub URL.
type Provider struct {
	baseURL string
}

func New(baseURL string) *Provider {
	return &Provider{baseURL: strings.TrimRight(baseURL, "/")}
}

func (p *Provider) Name() string { return "stub" }

func (p *Provider) CreateSession(ctx context.Context, tickets int, amount models.Cents, buyer models.Buyer) (string, string, error) {
	id := "stub_" + uuid.NewString()
	url := "/pay/stub?session=" + id
	if p.baseURL != "" {
		url = p.baseURL + url
	}
	return id, url, nil
}
