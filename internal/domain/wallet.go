package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds an account's spendable funds.
type Wallet struct {
	Account   Account         `gorm:"column:account;type:varchar(42);primaryKey" json:"account"`
	Balance   decimal.Decimal `gorm:"column:balance;type:decimal(38,18);not null" json:"balance"`
	CreatedAt time.Time       `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt time.Time       `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Wallet) TableName() string {
	return "Wallets"
}
