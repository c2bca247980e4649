package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VaultState is derived from the vault fields, it is not stored.
type VaultState string

const (
	VaultUninitialized VaultState = "uninitialized"
	VaultBuyerSet      VaultState = "buyer_set"
	VaultSellerSet     VaultState = "seller_set"
	VaultFunded        VaultState = "funded"
	VaultWithdrawn     VaultState = "withdrawn"
)

// EscrowVault custodies funds for one buyer/seller pair.
type EscrowVault struct {
	VaultID   uuid.UUID       `gorm:"column:vault_id;type:uuid;primaryKey" json:"vault_id"`
	Owner     Account         `gorm:"column:owner;type:varchar(42);not null;index" json:"owner"`
	Buyer     *Account        `gorm:"column:buyer;type:varchar(42)" json:"buyer"`
	Seller    *Account        `gorm:"column:seller;type:varchar(42)" json:"seller"`
	Balance   decimal.Decimal `gorm:"column:balance;type:decimal(38,18);not null" json:"balance"`
	Withdrawn decimal.Decimal `gorm:"column:withdrawn_total;type:decimal(38,18);not null" json:"withdrawn_total"`
	CreatedAt time.Time       `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt time.Time       `gorm:"column:updatedAt" json:"updatedAt"`
}

func (EscrowVault) TableName() string {
	return "EscrowVaults"
}

func (v *EscrowVault) BeforeCreate(tx *gorm.DB) error {
	if v.VaultID == uuid.Nil {
		v.VaultID = uuid.New()
	}
	return nil
}

func (v *EscrowVault) State() VaultState {
	switch {
	case v.Balance.IsPositive():
		return VaultFunded
	case v.Withdrawn.IsPositive():
		return VaultWithdrawn
	case v.Seller != nil:
		return VaultSellerSet
	case v.Buyer != nil:
		return VaultBuyerSet
	default:
		return VaultUninitialized
	}
}
