package ledgerevents

import (
	"context"

	"estate-backend/internal/domain"
	"estate-backend/internal/infrastructure/events"

	"gorm.io/gorm"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Filter selects events in sequence order. Zero values mean "any".
type Filter struct {
	Ledger  domain.Ledger
	Subject string
	Actor   domain.Account
	After   int64
	Limit   int
}

type Service struct {
	DB *gorm.DB
}

var knownLedgers = map[domain.Ledger]bool{
	domain.LedgerProperty:    true,
	domain.LedgerMarketplace: true,
	domain.LedgerEscrow:      true,
	domain.LedgerShares:      true,
	domain.LedgerFunds:       true,
}

// ListEvents returns events with seq greater than f.After, oldest first.
func (s *Service) ListEvents(ctx context.Context, f Filter) ([]domain.LedgerEvent, error) {
	if f.Ledger != "" && !knownLedgers[f.Ledger] {
		return nil, domain.Errorf(domain.KindInvalidArgument, "unknown ledger %q", f.Ledger)
	}
	if f.After < 0 {
		return nil, domain.Errorf(domain.KindInvalidArgument, "after must not be negative")
	}
	limit := f.Limit
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	q := s.DB.WithContext(ctx).Where("seq > ?", f.After)
	if f.Ledger != "" {
		q = q.Where("ledger = ?", f.Ledger)
	}
	if f.Subject != "" {
		q = q.Where("subject = ?", f.Subject)
	}
	if !f.Actor.IsZero() {
		q = q.Where("actor = ?", f.Actor)
	}
	var out []domain.LedgerEvent
	if err := q.Order("seq ASC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Republish sends stored events to the publisher again, for consumers that
// missed them. Returns the number of events sent.
func (s *Service) Republish(ctx context.Context, pub events.Publisher, f Filter) (int, error) {
	evts, err := s.ListEvents(ctx, f)
	if err != nil {
		return 0, err
	}
	if len(evts) == 0 {
		return 0, nil
	}
	if err := pub.Publish(ctx, evts); err != nil {
		return 0, err
	}
	return len(evts), nil
}
