package services

import (
	"context"

	"github.com/google/logger"

	"github.com/Lyham67/Tombobach/internal/models"
	"github.com/Lyham67/Tombobach/internal/store"
)

// ContentService serves the editable page content: public reads,
// password-gated wholesale replacement.
type ContentService struct {
	store  *store.Store
	secret string
}

// NewContentService creates and initializes a new ContentService.
func NewContentService(st *store.Store, secret string) *ContentService {
	return &ContentService{
		store:  st,
		secret: secret,
	}
}

// Get returns the current document. No auth, anyone can read the page.
func (s *ContentService) Get(ctx context.Context) (models.SiteContent, error) {
	return s.store.GetContent(ctx)
}

// Replace overwrites the whole document. Last writer wins, no merge,
// no version check.
func (s *ContentService) Replace(ctx context.Context, password string, content models.SiteContent) error {
	if err := verifySecret(s.secret, password); err != nil {
		logger.Warningf("Rejected content update: bad password")
		return err
	}
	if err := s.store.ReplaceContent(ctx, content); err != nil {
		return err
	}
	logger.Infof("Site content replaced")
	return nil
}
