package escrow

import (
	"context"
	"errors"

	"estate-backend/internal/application/funds"
	policies "estate-backend/internal/application/policies/access"
	"estate-backend/internal/application/txn"
	"estate-backend/internal/constants"
	"estate-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service operates escrow vaults. Each vault is independent of property ids.
type Service struct {
	DB   *gorm.DB
	Exec *txn.Executor
}

func findVault(db *gorm.DB, id uuid.UUID) (*domain.EscrowVault, error) {
	var v domain.EscrowVault
	if err := db.Where("vault_id = ?", id).First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.Errorf(domain.KindNotFound, "Vault %s not found", id)
		}
		return nil, err
	}
	return &v, nil
}

// CreateVault provisions an empty vault owned by the caller.
func (s *Service) CreateVault(ctx context.Context, caller domain.Account) (*domain.EscrowVault, *txn.Receipt, error) {
	if caller.IsZero() {
		return nil, nil, domain.ErrUnauthorized
	}
	var vault *domain.EscrowVault
	receipt, err := s.Exec.Run(ctx, caller, "escrow.create_vault", func(tx *txn.Tx) error {
		v := &domain.EscrowVault{Owner: caller, Balance: decimal.Zero, Withdrawn: decimal.Zero}
		if err := tx.Create(v).Error; err != nil {
			return err
		}
		vault = v
		return tx.Emit(domain.LedgerEscrow, domain.EventVaultCreated, v.VaultID, map[string]interface{}{
			"vault_id": v.VaultID.String(),
			"owner":    caller.Checksum(),
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return vault, receipt, nil
}

// SetBuyer assigns the buyer, replacing any previous one. Vault owner only.
func (s *Service) SetBuyer(ctx context.Context, caller domain.Account, vaultID uuid.UUID, buyer domain.Account) (*domain.EscrowVault, *txn.Receipt, error) {
	return s.setParty(ctx, caller, vaultID, buyer, constants.SetBuyer)
}

// SetSeller assigns the seller, replacing any previous one. Vault owner only.
func (s *Service) SetSeller(ctx context.Context, caller domain.Account, vaultID uuid.UUID, seller domain.Account) (*domain.EscrowVault, *txn.Receipt, error) {
	return s.setParty(ctx, caller, vaultID, seller, constants.SetSeller)
}

func (s *Service) setParty(ctx context.Context, caller domain.Account, vaultID uuid.UUID, party domain.Account, permission string) (*domain.EscrowVault, *txn.Receipt, error) {
	column, event, field := "buyer", domain.EventBuyerSet, "buyer"
	if permission == constants.SetSeller {
		column, event, field = "seller", domain.EventSellerSet, "seller"
	}

	var vault *domain.EscrowVault
	receipt, err := s.Exec.Run(ctx, caller, "escrow."+permission, func(tx *txn.Tx) error {
		v, err := findVault(tx.Locked(), vaultID)
		if err != nil {
			return err
		}
		if err := policies.Authorize(permission, caller, v.Owner); err != nil {
			return err
		}
		if party.IsZero() {
			return domain.Errorf(domain.KindInvalidArgument, "%s account is required", field)
		}
		if err := tx.Model(v).Update(column, party).Error; err != nil {
			return err
		}
		p := party
		if permission == constants.SetSeller {
			v.Seller = &p
		} else {
			v.Buyer = &p
		}
		vault = v
		return tx.Emit(domain.LedgerEscrow, event, vaultID, map[string]interface{}{
			"vault_id": vaultID.String(),
			field:      party.Checksum(),
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return vault, receipt, nil
}

// Deposit moves amount from the buyer's wallet into the vault. Deposits accumulate.
func (s *Service) Deposit(ctx context.Context, caller domain.Account, vaultID uuid.UUID, amount decimal.Decimal) (*domain.EscrowVault, *txn.Receipt, error) {
	var vault *domain.EscrowVault
	receipt, err := s.Exec.Run(ctx, caller, "escrow.deposit", func(tx *txn.Tx) error {
		v, err := findVault(tx.Locked(), vaultID)
		if err != nil {
			return err
		}
		if err := policies.AuthorizeOptional(constants.Deposit, caller, v.Buyer); err != nil {
			return err
		}
		if err := domain.CheckAmount("deposit amount", amount); err != nil {
			return err
		}
		if _, err := funds.Debit(tx.DB, caller, amount); err != nil {
			return err
		}
		v.Balance = v.Balance.Add(amount)
		if err := tx.Model(v).Update("balance", v.Balance).Error; err != nil {
			return err
		}
		vault = v
		return tx.Emit(domain.LedgerEscrow, domain.EventDeposited, vaultID, map[string]interface{}{
			"vault_id": vaultID.String(),
			"buyer":    caller.Checksum(),
			"amount":   amount.String(),
			"balance":  v.Balance.String(),
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return vault, receipt, nil
}

// Withdraw pays the whole vault balance to the seller and zeroes it.
// Checks run in order: seller set, caller is seller, balance non-zero.
func (s *Service) Withdraw(ctx context.Context, caller domain.Account, vaultID uuid.UUID) (*domain.EscrowVault, *txn.Receipt, error) {
	var vault *domain.EscrowVault
	receipt, err := s.Exec.Run(ctx, caller, "escrow.withdraw", func(tx *txn.Tx) error {
		v, err := findVault(tx.Locked(), vaultID)
		if err != nil {
			return err
		}
		if v.Seller == nil {
			return domain.ErrSellerNotSet
		}
		if err := policies.Authorize(constants.Withdraw, caller, *v.Seller); err != nil {
			return err
		}
		if !v.Balance.IsPositive() {
			return domain.ErrNothingToWithdraw
		}
		amount := v.Balance
		v.Balance = decimal.Zero
		v.Withdrawn = v.Withdrawn.Add(amount)
		if err := tx.Model(v).Updates(map[string]interface{}{
			"balance":         v.Balance,
			"withdrawn_total": v.Withdrawn,
		}).Error; err != nil {
			return err
		}
		if _, err := funds.Credit(tx.DB, *v.Seller, amount); err != nil {
			return err
		}
		vault = v
		return tx.Emit(domain.LedgerEscrow, domain.EventWithdrawn, vaultID, map[string]interface{}{
			"vault_id": vaultID.String(),
			"seller":   v.Seller.Checksum(),
			"amount":   amount.String(),
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return vault, receipt, nil
}

// GetVault returns the vault state: owner, buyer, seller and balance.
func (s *Service) GetVault(ctx context.Context, vaultID uuid.UUID) (*domain.EscrowVault, error) {
	return findVault(s.DB.WithContext(ctx), vaultID)
}
