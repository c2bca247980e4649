package funds

import (
	"context"
	"errors"

	"estate-backend/internal/application/txn"
	"estate-backend/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service exposes wallet reads and the development faucet. Value moves
// between wallets only through Credit, Debit and Transfer, which run inside
// the caller's ledger transaction.
type Service struct {
	DB   *gorm.DB
	Exec *txn.Executor
}

func loadWallet(db *gorm.DB, account domain.Account) (domain.Wallet, bool, error) {
	var w domain.Wallet
	err := db.Where("account = ?", account).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Wallet{Account: account, Balance: decimal.Zero}, false, nil
	}
	if err != nil {
		return w, false, err
	}
	return w, true, nil
}

func storeWallet(db *gorm.DB, w *domain.Wallet, exists bool) error {
	if !exists {
		return db.Create(w).Error
	}
	return db.Model(w).Update("balance", w.Balance).Error
}

// Credit adds amount to the account's wallet.
func Credit(db *gorm.DB, account domain.Account, amount decimal.Decimal) (*domain.Wallet, error) {
	if err := domain.CheckAmount("credit amount", amount); err != nil {
		return nil, err
	}
	w, exists, err := loadWallet(db.Scopes(txn.ForUpdate), account)
	if err != nil {
		return nil, err
	}
	w.Balance = w.Balance.Add(amount)
	if err := storeWallet(db, &w, exists); err != nil {
		return nil, err
	}
	return &w, nil
}

// Debit removes amount from the account's wallet; it fails with
// InsufficientFunds rather than going negative.
func Debit(db *gorm.DB, account domain.Account, amount decimal.Decimal) (*domain.Wallet, error) {
	if err := domain.CheckAmount("debit amount", amount); err != nil {
		return nil, err
	}
	w, exists, err := loadWallet(db.Scopes(txn.ForUpdate), account)
	if err != nil {
		return nil, err
	}
	if w.Balance.LessThan(amount) {
		return nil, domain.Errorf(domain.KindInsufficientFunds, "Insufficient funds: balance %s, required %s", w.Balance.String(), amount.String())
	}
	w.Balance = w.Balance.Sub(amount)
	if err := storeWallet(db, &w, exists); err != nil {
		return nil, err
	}
	return &w, nil
}

// Transfer moves amount from one wallet to another.
func Transfer(db *gorm.DB, from, to domain.Account, amount decimal.Decimal) error {
	if _, err := Debit(db, from, amount); err != nil {
		return err
	}
	_, err := Credit(db, to, amount)
	return err
}

// BalanceOf returns the wallet balance; unknown accounts hold zero.
func (s *Service) BalanceOf(ctx context.Context, account domain.Account) (decimal.Decimal, error) {
	w, _, err := loadWallet(s.DB.WithContext(ctx), account)
	if err != nil {
		return decimal.Zero, err
	}
	return w.Balance, nil
}

// Faucet credits a wallet without a payment. Only routed when enabled in config.
func (s *Service) Faucet(ctx context.Context, caller, account domain.Account, amount decimal.Decimal) (*domain.Wallet, *txn.Receipt, error) {
	var wallet *domain.Wallet
	receipt, err := s.Exec.Run(ctx, caller, "funds.faucet", func(tx *txn.Tx) error {
		w, err := Credit(tx.DB, account, amount)
		if err != nil {
			return err
		}
		wallet = w
		return tx.Emit(domain.LedgerFunds, domain.EventWalletCredited, account, map[string]interface{}{
			"account": account.Checksum(),
			"amount":  amount.String(),
			"source":  "faucet",
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return wallet, receipt, nil
}
