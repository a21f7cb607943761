package config

import (
	"fmt"
	"os"
	"strings"
)

type Config struct {
	HTTPAddr string
	DBPath   string

	AdminPassword string

	PaymentProvider string
	StripeSecretKey string
	SuccessURL      string
	CancelURL       string
	BasePublicURL   string

	ResendAPIKey string
	EmailFrom    string

	AllowedOrigins []string
}

func FromEnv() (Config, error) {
	var c Config

	c.HTTPAddr = strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if c.HTTPAddr == "" {
		if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
			c.HTTPAddr = ":" + port
		} else {
			c.HTTPAddr = ":3000"
		}
	}

	c.DBPath = strings.TrimSpace(os.Getenv("DB_PATH"))
	if c.DBPath == "" {
		c.DBPath = "tombobach.db"
	}

	c.AdminPassword = strings.TrimSpace(os.Getenv("ADMIN_PASSWORD"))
	if c.AdminPassword == "" {
		return c, fmt.Errorf("ADMIN_PASSWORD is empty")
	}

	c.PaymentProvider = strings.TrimSpace(os.Getenv("PAYMENT_PROVIDER"))
	if c.PaymentProvider == "" {
		c.PaymentProvider = "stripe"
	}
	c.StripeSecretKey = strings.TrimSpace(os.Getenv("STRIPE_SECRET_KEY"))
	if c.PaymentProvider == "stripe" && c.StripeSecretKey == "" {
		return c, fmt.Errorf("STRIPE_SECRET_KEY is empty")
	}

	c.SuccessURL = strings.TrimSpace(os.Getenv("SUCCESS_URL"))
	if c.SuccessURL == "" {
		c.SuccessURL = "https://lyham67.github.io/Tombobach/success.html?session_id={CHECKOUT_SESSION_ID}"
	}
	c.CancelURL = strings.TrimSpace(os.Getenv("CANCEL_URL"))
	if c.CancelURL == "" {
		c.CancelURL = "https://lyham67.github.io/Tombobach/?canceled=true"
	}
	c.BasePublicURL = strings.TrimRight(strings.TrimSpace(os.Getenv("BASE_PUBLIC_URL")), "/")

	c.ResendAPIKey = strings.TrimSpace(os.Getenv("RESEND_API_KEY"))
	c.EmailFrom = strings.TrimSpace(os.Getenv("EMAIL_FROM"))
	if c.EmailFrom == "" {
		c.EmailFrom = "Tombola Bachelor <onboarding@resend.dev>"
	}

	c.AllowedOrigins = parseOrigins(os.Getenv("ALLOWED_ORIGINS"))

	return c, nil
}

// parseOrigins splits a comma-separated origin list; empty means any
// origin (the front-end is a static site hosted elsewhere).
func parseOrigins(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var origins []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			origins = append(origins, strings.TrimRight(p, "/"))
		}
	}
	return origins
}
