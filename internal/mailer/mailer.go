package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

var confirmationTmpl = template.Must(template.ParseFS(templateFS, "templates/confirmation.html"))

// Confirmation carries everything the purchase confirmation email
// needs. The purchase is already committed when this is sent.
type Confirmation struct {
	Email         string
	Name          string
	Phone         string
	Tickets       int
	TicketNumbers []int64
}

type Mailer interface {
	// SendConfirmation sends the ticket confirmation. Callers treat a
	// failure as log-and-forget, the purchase never rolls back.
	SendConfirmation(ctx context.Context, conf Confirmation) error
}

// RenderConfirmation produces the HTML body for a confirmation email.
func RenderConfirmation(conf Confirmation) (string, error) {
	numbers := make([]string, len(conf.TicketNumbers))
	for i, n := range conf.TicketNumbers {
		numbers[i] = fmt.Sprintf("%d", n)
	}
	data := struct {
		Name          string
		Email         string
		Phone         string
		Tickets       int
		TicketNumbers string
	}{
		Name:          conf.Name,
		Email:         conf.Email,
		Phone:         conf.Phone,
		Tickets:       conf.Tickets,
		TicketNumbers: strings.Join(numbers, ", "),
	}

	buf := new(bytes.Buffer)
	if err := confirmationTmpl.Execute(buf, data); err != nil {
		return "", fmt.Errorf("render confirmation email: %w", err)
	}
	return buf.String(), nil
}

// Noop discards every email. Used in tests and when no mail API key is
// configured.
type Noop struct{}

func (Noop) SendConfirmation(ctx context.Context, conf Confirmation) error { return nil }
