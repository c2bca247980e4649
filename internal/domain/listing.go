package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ListingStatus is the Marketplace state of a property id.
type ListingStatus string

const (
	ListingUnlisted ListingStatus = "unlisted"
	ListingListed   ListingStatus = "listed"
	ListingSold     ListingStatus = "sold"
)

// MarketListing is the Marketplace's own record for a property id. It is
// independent of the Property Registry record with the same id.
type MarketListing struct {
	PropertyID int64           `gorm:"column:property_id;primaryKey;autoIncrement:false" json:"property_id"`
	Price      decimal.Decimal `gorm:"column:price;type:decimal(38,18);not null" json:"price"`
	Seller     Account         `gorm:"column:seller;type:varchar(42);not null;index" json:"seller"`
	IsListed   bool            `gorm:"column:is_listed;not null;index" json:"is_listed"`
	Status     ListingStatus   `gorm:"column:status;type:varchar(20);not null" json:"status"`
	LastBuyer  *Account        `gorm:"column:last_buyer;type:varchar(42)" json:"last_buyer"`
	CreatedAt  time.Time       `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt  time.Time       `gorm:"column:updatedAt" json:"updatedAt"`
}

func (MarketListing) TableName() string {
	return "MarketListings"
}
