package services

import (
	"context"
	"time"

	"github.com/google/logger"

	"github.com/Lyham67/Tombobach/internal/mailer"
	"github.com/Lyham67/Tombobach/internal/models"
	"github.com/Lyham67/Tombobach/internal/store"
)

// SalesService owns the purchase ledger: recording completed
// purchases, the admin corrections, and the stats view. Administrative
// operations are gated by the shared secret.
type SalesService struct {
	store  *store.Store
	mail   mailer.Mailer
	secret string
}

// NewSalesService creates and initializes a new SalesService.
func NewSalesService(st *store.Store, mail mailer.Mailer, secret string) *SalesService {
	return &SalesService{
		store:  st,
		mail:   mail,
		secret: secret,
	}
}

// RecordPurchase assigns ticket numbers, writes the ledger rows and
// bumps the seller aggregate, then dispatches the confirmation email.
// The email is fire-and-forget: a send failure is logged and never
// surfaced, the purchase is already committed.
func (s *SalesService) RecordPurchase(ctx context.Context, buyer models.Buyer, tickets int, amount models.Cents) ([]int64, error) {
	numbers, err := s.store.RecordPurchase(ctx, buyer, tickets, amount)
	if err != nil {
		return nil, err
	}
	logger.Infof("Recorded purchase: %d ticket(s) %v for %s, seller %q", tickets, numbers, buyer.Email, store.NormalizeSeller(buyer.Seller))

	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		conf := mailer.Confirmation{
			Email:         buyer.Email,
			Name:          buyer.FirstName + " " + buyer.LastName,
			Phone:         buyer.Phone,
			Tickets:       tickets,
			TicketNumbers: numbers,
		}
		if err := s.mail.SendConfirmation(sendCtx, conf); err != nil {
			logger.Errorf("Confirmation email to %s failed: %v", buyer.Email, err)
			return
		}
		logger.Infof("Confirmation email sent to %s", buyer.Email)
	}()

	return numbers, nil
}

// ListPayments returns the full ledger. Password-gated: the list
// carries buyer emails and phone numbers.
func (s *SalesService) ListPayments(ctx context.Context, password string) ([]models.Payment, error) {
	if err := verifySecret(s.secret, password); err != nil {
		logger.Warningf("Rejected payment list request: bad password")
		return nil, err
	}
	return s.store.ListPayments(ctx)
}

// Stats returns the per-seller aggregates and the totals.
func (s *SalesService) Stats(ctx context.Context) (models.Stats, error) {
	return s.store.Stats(ctx)
}

// ImportAll replaces the whole ledger and recomputes every seller
// aggregate from the replacement set. The only supported correction
// mechanism for historical data beyond BackfillDefaults.
func (s *SalesService) ImportAll(ctx context.Context, password string, records []models.Payment) error {
	if err := verifySecret(s.secret, password); err != nil {
		logger.Warningf("Rejected import: bad password")
		return err
	}
	if err := s.store.ReplaceAllPayments(ctx, records); err != nil {
		return err
	}
	logger.Infof("Imported %d payments, seller stats recomputed", len(records))
	return nil
}

// BackfillDefaults sweeps the ledger once, filling missing seller and
// amount fields with their defaults.
func (s *SalesService) BackfillDefaults(ctx context.Context, password string) (int64, error) {
	if err := verifySecret(s.secret, password); err != nil {
		logger.Warningf("Rejected backfill: bad password")
		return 0, err
	}
	fixed, err := s.store.BackfillDefaults(ctx)
	if err != nil {
		return 0, err
	}
	logger.Infof("Backfilled %d payment rows", fixed)
	return fixed, nil
}
