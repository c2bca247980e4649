package property

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	policies "estate-backend/internal/application/policies/access"
	"estate-backend/internal/application/txn"
	"estate-backend/internal/constants"
	"estate-backend/internal/domain"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

// Service is the Property Registry.
type Service struct {
	DB    *gorm.DB
	Exec  *txn.Executor
	Cache *cache.Cache

	mu   sync.Mutex
	gens map[int64]uint64 // invalidations per property id
}

// NewService wires the registry with a read cache of the given TTL (0 disables it).
func NewService(db *gorm.DB, exec *txn.Executor, cacheTTL time.Duration) *Service {
	s := &Service{DB: db, Exec: exec}
	if cacheTTL > 0 {
		s.Cache = cache.New(cacheTTL, 2*cacheTTL)
	}
	return s
}

func cacheKey(id int64) string {
	return fmt.Sprintf("property:%d", id)
}

// cacheGen is read before the database query; remember only caches the row
// if no update invalidated the id in between.
func (s *Service) cacheGen(id int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[id]
}

func (s *Service) remember(id int64, gen uint64, p domain.Property) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens[id] == gen {
		s.Cache.SetDefault(cacheKey(id), p)
	}
}

func (s *Service) forget(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens == nil {
		s.gens = make(map[int64]uint64)
	}
	s.gens[id]++
	s.Cache.Delete(cacheKey(id))
}

func findProperty(db *gorm.DB, id int64) (*domain.Property, error) {
	var p domain.Property
	if err := db.Where("property_id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.Errorf(domain.KindNotFound, "Property %d not found", id)
		}
		return nil, err
	}
	return &p, nil
}

// AddProperty registers a new property owned by the caller.
func (s *Service) AddProperty(ctx context.Context, caller domain.Account, id int64, details string) (*domain.Property, *txn.Receipt, error) {
	if id <= 0 {
		return nil, nil, domain.Errorf(domain.KindInvalidArgument, "property id must be positive")
	}
	if caller.IsZero() {
		return nil, nil, domain.ErrUnauthorized
	}

	var created *domain.Property
	receipt, err := s.Exec.Run(ctx, caller, "property.add", func(tx *txn.Tx) error {
		var count int64
		if err := tx.Model(&domain.Property{}).Where("property_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.Errorf(domain.KindDuplicateID, "Property %d already exists", id)
		}
		p := &domain.Property{PropertyID: id, Details: details, Owner: caller}
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		created = p
		return tx.Emit(domain.LedgerProperty, domain.EventPropertyAdded, id, map[string]interface{}{
			"property_id": id,
			"details":     details,
			"owner":       caller.Checksum(),
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return created, receipt, nil
}

// UpdateProperty replaces the details of a property. Owner only.
func (s *Service) UpdateProperty(ctx context.Context, caller domain.Account, id int64, details string) (*domain.Property, *txn.Receipt, error) {
	var updated *domain.Property
	receipt, err := s.Exec.Run(ctx, caller, "property.update", func(tx *txn.Tx) error {
		p, err := findProperty(tx.Locked(), id)
		if err != nil {
			return err
		}
		if err := policies.Authorize(constants.UpdateProperty, caller, p.Owner); err != nil {
			return err
		}
		if err := tx.Model(p).Update("details", details).Error; err != nil {
			return err
		}
		p.Details = details
		updated = p
		return tx.Emit(domain.LedgerProperty, domain.EventPropertyUpdated, id, map[string]interface{}{
			"property_id": id,
			"details":     details,
		})
	})
	if err != nil {
		return nil, nil, err
	}
	if s.Cache != nil {
		s.forget(id)
	}
	return updated, receipt, nil
}

// GetProperty returns a property record.
func (s *Service) GetProperty(ctx context.Context, id int64) (*domain.Property, error) {
	if s.Cache == nil {
		return findProperty(s.DB.WithContext(ctx), id)
	}
	if v, ok := s.Cache.Get(cacheKey(id)); ok {
		p := v.(domain.Property)
		return &p, nil
	}
	gen := s.cacheGen(id)
	p, err := findProperty(s.DB.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	s.remember(id, gen, *p)
	return p, nil
}

// AuthorizeDocumentUpload returns the property if caller owns it.
func (s *Service) AuthorizeDocumentUpload(ctx context.Context, caller domain.Account, id int64) (*domain.Property, error) {
	p, err := s.GetProperty(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policies.Authorize(constants.UploadPropertyDocument, caller, p.Owner); err != nil {
		return nil, err
	}
	return p, nil
}
