package marketplace

import (
	"context"
	"errors"

	"estate-backend/internal/application/funds"
	policies "estate-backend/internal/application/policies/access"
	"estate-backend/internal/application/txn"
	"estate-backend/internal/constants"
	"estate-backend/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service is the Marketplace ledger. Admin is the single account allowed to
// add listings; every other operation is gated by the listing's seller.
type Service struct {
	DB    *gorm.DB
	Exec  *txn.Executor
	Admin domain.Account
}

func findListing(db *gorm.DB, id int64) (*domain.MarketListing, error) {
	var l domain.MarketListing
	if err := db.Where("property_id = ?", id).First(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.Errorf(domain.KindNotFound, "Listing for property %d not found", id)
		}
		return nil, err
	}
	return &l, nil
}

// Owner returns the marketplace administrator.
func (s *Service) Owner() domain.Account {
	return s.Admin
}

// AddProperty creates a listed record for id with the caller as seller.
func (s *Service) AddProperty(ctx context.Context, caller domain.Account, id int64, price decimal.Decimal) (*domain.MarketListing, *txn.Receipt, error) {
	var listing *domain.MarketListing
	receipt, err := s.Exec.Run(ctx, caller, "marketplace.add_property", func(tx *txn.Tx) error {
		if err := policies.Authorize(constants.AddListing, caller, s.Admin); err != nil {
			return err
		}
		if id <= 0 {
			return domain.Errorf(domain.KindInvalidArgument, "property id must be positive")
		}
		if err := domain.CheckAmount("price", price); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&domain.MarketListing{}).Where("property_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.Errorf(domain.KindDuplicateID, "Listing for property %d already exists", id)
		}
		l := &domain.MarketListing{
			PropertyID: id,
			Price:      price,
			Seller:     caller,
			IsListed:   true,
			Status:     domain.ListingListed,
		}
		if err := tx.Create(l).Error; err != nil {
			return err
		}
		listing = l
		return tx.Emit(domain.LedgerMarketplace, domain.EventListingAdded, id, map[string]interface{}{
			"property_id": id,
			"price":       price.String(),
			"seller":      caller.Checksum(),
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return listing, receipt, nil
}

// ListProperty (re)opens a listing at the given price. Seller only.
func (s *Service) ListProperty(ctx context.Context, caller domain.Account, id int64, price decimal.Decimal) (*domain.MarketListing, *txn.Receipt, error) {
	var listing *domain.MarketListing
	receipt, err := s.Exec.Run(ctx, caller, "marketplace.list_property", func(tx *txn.Tx) error {
		l, err := findListing(tx.Locked(), id)
		if err != nil {
			return err
		}
		if err := policies.Authorize(constants.ListProperty, caller, l.Seller); err != nil {
			return err
		}
		if err := domain.CheckAmount("price", price); err != nil {
			return err
		}
		if err := tx.Model(l).Updates(map[string]interface{}{
			"price":     price,
			"is_listed": true,
			"status":    domain.ListingListed,
		}).Error; err != nil {
			return err
		}
		l.Price, l.IsListed, l.Status = price, true, domain.ListingListed
		listing = l
		return tx.Emit(domain.LedgerMarketplace, domain.EventPropertyListed, id, map[string]interface{}{
			"property_id": id,
			"price":       price.String(),
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return listing, receipt, nil
}

// UnlistProperty withdraws an open listing. Seller only.
func (s *Service) UnlistProperty(ctx context.Context, caller domain.Account, id int64) (*domain.MarketListing, *txn.Receipt, error) {
	var listing *domain.MarketListing
	receipt, err := s.Exec.Run(ctx, caller, "marketplace.unlist_property", func(tx *txn.Tx) error {
		l, err := findListing(tx.Locked(), id)
		if err != nil {
			return err
		}
		if err := policies.Authorize(constants.UnlistProperty, caller, l.Seller); err != nil {
			return err
		}
		if !l.IsListed {
			return domain.ErrNotListed
		}
		if err := tx.Model(l).Updates(map[string]interface{}{
			"is_listed": false,
			"status":    domain.ListingUnlisted,
		}).Error; err != nil {
			return err
		}
		l.IsListed, l.Status = false, domain.ListingUnlisted
		listing = l
		return tx.Emit(domain.LedgerMarketplace, domain.EventPropertyUnlisted, id, map[string]interface{}{
			"property_id": id,
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return listing, receipt, nil
}

// PurchaseProperty settles a sale: the exact price moves from the buyer's
// wallet to the seller's and the listing closes, in one transaction. The
// buyer becomes the listing's seller so only they can re-list it.
func (s *Service) PurchaseProperty(ctx context.Context, caller domain.Account, id int64, payment decimal.Decimal) (*domain.MarketListing, *txn.Receipt, error) {
	if caller.IsZero() {
		return nil, nil, domain.ErrUnauthorized
	}

	var listing *domain.MarketListing
	receipt, err := s.Exec.Run(ctx, caller, "marketplace.purchase_property", func(tx *txn.Tx) error {
		l, err := findListing(tx.Locked(), id)
		if err != nil {
			return err
		}
		if !l.IsListed {
			return domain.ErrNotListed
		}
		if !payment.Equal(l.Price) {
			return domain.Errorf(domain.KindWrongAmount, "Incorrect payment amount: price is %s, got %s", l.Price.String(), payment.String())
		}
		seller := l.Seller
		if err := funds.Transfer(tx.DB, caller, seller, payment); err != nil {
			return err
		}
		buyer := caller
		if err := tx.Model(l).Updates(map[string]interface{}{
			"is_listed":  false,
			"status":     domain.ListingSold,
			"seller":     buyer,
			"last_buyer": buyer,
		}).Error; err != nil {
			return err
		}
		l.IsListed, l.Status, l.Seller, l.LastBuyer = false, domain.ListingSold, buyer, &buyer
		listing = l
		return tx.Emit(domain.LedgerMarketplace, domain.EventPropertyPurchased, id, map[string]interface{}{
			"property_id": id,
			"buyer":       buyer.Checksum(),
			"seller":      seller.Checksum(),
			"price":       payment.String(),
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return listing, receipt, nil
}

// GetListing is the properties(id) read.
func (s *Service) GetListing(ctx context.Context, id int64) (*domain.MarketListing, error) {
	return findListing(s.DB.WithContext(ctx), id)
}

// ListedProperties returns every listing currently open for purchase.
func (s *Service) ListedProperties(ctx context.Context) ([]domain.MarketListing, error) {
	var out []domain.MarketListing
	if err := s.DB.WithContext(ctx).Where("is_listed = ?", true).Order("property_id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
