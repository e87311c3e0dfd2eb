package orders

import (
	"context"
	"time"

	"github.com/campusfreestore/freestore-backend/pkg/config"
	"github.com/campusfreestore/freestore-backend/pkg/db/models"
	pkgerrors "github.com/campusfreestore/freestore-backend/pkg/errors"
)

// Service exposes order reporting.
type Service interface {
	Recent(ctx context.Context) ([]models.Order, error)
}

type service struct {
	repo Repository
	days int
	now  func() time.Time
}

// NewService builds the orders reporting service.
func NewService(repo Repository, cfg config.CheckoutConfig) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository required")
	}
	days := cfg.RecentOrdersDays
	if days <= 0 {
		days = 30
	}
	return &service{repo: repo, days: days, now: time.Now}, nil
}

// Recent returns orders placed within the configured window, newest first,
// with their line items.
func (s *service) Recent(ctx context.Context) ([]models.Order, error) {
	cutoff := s.now().AddDate(0, 0, -s.days)
	list, err := s.repo.ListSince(ctx, cutoff)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recent orders")
	}
	return list, nil
}
