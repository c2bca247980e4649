package shares

import (
	"context"
	"errors"

	policies "estate-backend/internal/application/policies/access"
	"estate-backend/internal/application/txn"
	"estate-backend/internal/constants"
	"estate-backend/internal/domain"

	"gorm.io/gorm"
)

// Service is the Share Ledger. Balances are kept per (basket, account) so
// every basket's holdings add up to its issued shares.
type Service struct {
	DB    *gorm.DB
	Exec  *txn.Executor
	Admin domain.Account
}

// Owner returns the account allowed to create baskets and issue shares.
func (s *Service) Owner() domain.Account {
	return s.Admin
}

func findBasket(db *gorm.DB, id int64) (*domain.Basket, error) {
	var b domain.Basket
	if err := db.Where("basket_id = ?", id).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.Errorf(domain.KindNotFound, "Basket %d not found", id)
		}
		return nil, err
	}
	return &b, nil
}

func loadPropertyIDs(db *gorm.DB, b *domain.Basket) error {
	var rows []domain.BasketProperty
	if err := db.Where("basket_id = ?", b.BasketID).Order("position ASC").Find(&rows).Error; err != nil {
		return err
	}
	b.PropertyIDs = make([]int64, 0, len(rows))
	for _, r := range rows {
		b.PropertyIDs = append(b.PropertyIDs, r.PropertyID)
	}
	return nil
}

func loadBalance(db *gorm.DB, basketID int64, account domain.Account) (domain.ShareBalance, bool, error) {
	var sb domain.ShareBalance
	err := db.Where("basket_id = ? AND account = ?", basketID, account).First(&sb).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ShareBalance{BasketID: basketID, Account: account}, false, nil
	}
	if err != nil {
		return sb, false, err
	}
	return sb, true, nil
}

func adjustBalance(db *gorm.DB, basketID int64, account domain.Account, delta int64) error {
	sb, exists, err := loadBalance(db, basketID, account)
	if err != nil {
		return err
	}
	sb.Balance += delta
	if !exists {
		return db.Create(&sb).Error
	}
	return db.Model(&domain.ShareBalance{}).
		Where("basket_id = ? AND account = ?", basketID, account).
		Update("balance", sb.Balance).Error
}

// CreateBasket registers a basket over the given property ids. Owner only.
func (s *Service) CreateBasket(ctx context.Context, caller domain.Account, basketID int64, propertyIDs []int64, totalShares int64) (*domain.Basket, *txn.Receipt, error) {
	var basket *domain.Basket
	receipt, err := s.Exec.Run(ctx, caller, "shares.create_basket", func(tx *txn.Tx) error {
		if err := policies.Authorize(constants.CreateBasket, caller, s.Admin); err != nil {
			return err
		}
		if err := validateBasket(basketID, propertyIDs, totalShares); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&domain.Basket{}).Where("basket_id = ?", basketID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.Errorf(domain.KindDuplicateID, "Basket %d already exists", basketID)
		}

		b := &domain.Basket{BasketID: basketID, TotalShares: totalShares, IssuedShares: 0}
		if err := tx.Create(b).Error; err != nil {
			return err
		}
		rows := make([]domain.BasketProperty, len(propertyIDs))
		for i, pid := range propertyIDs {
			rows[i] = domain.BasketProperty{BasketID: basketID, Position: i, PropertyID: pid}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		b.PropertyIDs = append([]int64(nil), propertyIDs...)
		basket = b
		return tx.Emit(domain.LedgerShares, domain.EventBasketCreated, basketID, map[string]interface{}{
			"basket_id":    basketID,
			"property_ids": propertyIDs,
			"total_shares": totalShares,
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return basket, receipt, nil
}

func validateBasket(basketID int64, propertyIDs []int64, totalShares int64) error {
	if basketID <= 0 {
		return domain.Errorf(domain.KindInvalidArgument, "basket id must be positive")
	}
	if totalShares <= 0 {
		return domain.Errorf(domain.KindInvalidArgument, "total shares must be positive")
	}
	if len(propertyIDs) == 0 {
		return domain.Errorf(domain.KindInvalidArgument, "a basket needs at least one property id")
	}
	seen := make(map[int64]struct{}, len(propertyIDs))
	for _, pid := range propertyIDs {
		if pid <= 0 {
			return domain.Errorf(domain.KindInvalidArgument, "property ids must be positive")
		}
		if _, dup := seen[pid]; dup {
			return domain.Errorf(domain.KindInvalidArgument, "property %d appears twice in the basket", pid)
		}
		seen[pid] = struct{}{}
	}
	return nil
}

// IssueShares credits newly issued shares of a basket to account. Owner only.
func (s *Service) IssueShares(ctx context.Context, caller domain.Account, basketID int64, account domain.Account, amount int64) (*domain.Basket, *txn.Receipt, error) {
	var basket *domain.Basket
	receipt, err := s.Exec.Run(ctx, caller, "shares.issue_shares", func(tx *txn.Tx) error {
		if err := policies.Authorize(constants.IssueShares, caller, s.Admin); err != nil {
			return err
		}
		b, err := findBasket(tx.Locked(), basketID)
		if err != nil {
			return err
		}
		if amount <= 0 {
			return domain.Errorf(domain.KindInvalidArgument, "amount must be positive")
		}
		if account.IsZero() {
			return domain.Errorf(domain.KindInvalidArgument, "account is required")
		}
		if amount > b.Available() {
			return domain.Errorf(domain.KindInsufficientSharesAvailable, "Insufficient shares available: %d requested, %d available", amount, b.Available())
		}
		if err := adjustBalance(tx.DB, basketID, account, amount); err != nil {
			return err
		}
		b.IssuedShares += amount
		if err := tx.Model(b).Update("issued_shares", b.IssuedShares).Error; err != nil {
			return err
		}
		basket = b
		return tx.Emit(domain.LedgerShares, domain.EventSharesIssued, basketID, map[string]interface{}{
			"account":   account.Checksum(),
			"basket_id": basketID,
			"amount":    amount,
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return basket, receipt, nil
}

// TransferShares moves amount of a basket's shares from the caller to another account.
func (s *Service) TransferShares(ctx context.Context, caller domain.Account, basketID int64, to domain.Account, amount int64) (*txn.Receipt, error) {
	return s.Exec.Run(ctx, caller, "shares.transfer_shares", func(tx *txn.Tx) error {
		if caller.IsZero() {
			return domain.ErrUnauthorized
		}
		if _, err := findBasket(tx.Locked(), basketID); err != nil {
			return err
		}
		if amount <= 0 {
			return domain.Errorf(domain.KindInvalidArgument, "amount must be positive")
		}
		if to.IsZero() {
			return domain.Errorf(domain.KindInvalidArgument, "recipient account is required")
		}
		from, _, err := loadBalance(tx.DB, basketID, caller)
		if err != nil {
			return err
		}
		if from.Balance < amount {
			return domain.Errorf(domain.KindInsufficientBalance, "Not enough shares to transfer: balance %d, requested %d", from.Balance, amount)
		}
		if err := adjustBalance(tx.DB, basketID, caller, -amount); err != nil {
			return err
		}
		if err := adjustBalance(tx.DB, basketID, to, amount); err != nil {
			return err
		}
		return tx.Emit(domain.LedgerShares, domain.EventSharesTransferred, basketID, map[string]interface{}{
			"from":      caller.Checksum(),
			"to":        to.Checksum(),
			"basket_id": basketID,
			"amount":    amount,
		})
	})
}

// GetBasketDetails returns a basket with its ordered property ids.
func (s *Service) GetBasketDetails(ctx context.Context, basketID int64) (*domain.Basket, error) {
	db := s.DB.WithContext(ctx)
	b, err := findBasket(db, basketID)
	if err != nil {
		return nil, err
	}
	if err := loadPropertyIDs(db, b); err != nil {
		return nil, err
	}
	return b, nil
}

// BalanceOf returns the account's shares summed over every basket. Unknown accounts hold zero.
func (s *Service) BalanceOf(ctx context.Context, account domain.Account) (int64, error) {
	var total int64
	err := s.DB.WithContext(ctx).Model(&domain.ShareBalance{}).
		Where("account = ?", account).
		Select("COALESCE(SUM(balance), 0)").
		Scan(&total).Error
	return total, err
}

// BalanceOfBasket returns the account's shares in one basket.
func (s *Service) BalanceOfBasket(ctx context.Context, basketID int64, account domain.Account) (int64, error) {
	sb, _, err := loadBalance(s.DB.WithContext(ctx), basketID, account)
	if err != nil {
		return 0, err
	}
	return sb.Balance, nil
}
