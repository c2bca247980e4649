package domain

import "time"

// Basket groups property ids against which fractional shares are issued.
type Basket struct {
	BasketID     int64     `gorm:"column:basket_id;primaryKey;autoIncrement:false" json:"basket_id"`
	TotalShares  int64     `gorm:"column:total_shares;not null" json:"total_shares"`
	IssuedShares int64     `gorm:"column:issued_shares;not null;default:0" json:"issued_shares"`
	PropertyIDs  []int64   `gorm:"-" json:"property_ids"`
	CreatedAt    time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Basket) TableName() string {
	return "Baskets"
}

// Available is the number of shares that can still be issued.
func (b *Basket) Available() int64 {
	return b.TotalShares - b.IssuedShares
}

// BasketProperty keeps the ordered property ids of a basket.
type BasketProperty struct {
	BasketID   int64 `gorm:"column:basket_id;primaryKey;autoIncrement:false"`
	Position   int   `gorm:"column:position;primaryKey;autoIncrement:false"`
	PropertyID int64 `gorm:"column:property_id;not null;index"`
}

func (BasketProperty) TableName() string {
	return "BasketProperties"
}

// ShareBalance is an account's share count within one basket.
type ShareBalance struct {
	BasketID  int64     `gorm:"column:basket_id;primaryKey;autoIncrement:false" json:"basket_id"`
	Account   Account   `gorm:"column:account;type:varchar(42);primaryKey" json:"account"`
	Balance   int64     `gorm:"column:balance;not null;default:0" json:"balance"`
	UpdatedAt time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (ShareBalance) TableName() string {
	return "ShareBalances"
}
