package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Ledger names the independent record stores.
type Ledger string

const (
	LedgerProperty    Ledger = "property"
	LedgerMarketplace Ledger = "marketplace"
	LedgerEscrow      Ledger = "escrow"
	LedgerShares      Ledger = "shares"
	LedgerFunds       Ledger = "funds"
)

// Event names.
const (
	EventPropertyAdded     = "PropertyAdded"
	EventPropertyUpdated   = "PropertyUpdated"
	EventListingAdded      = "ListingAdded"
	EventPropertyListed    = "PropertyListed"
	EventPropertyUnlisted  = "PropertyUnlisted"
	EventPropertyPurchased = "PropertyPurchased"
	EventVaultCreated      = "VaultCreated"
	EventBuyerSet          = "BuyerSet"
	EventSellerSet         = "SellerSet"
	EventDeposited         = "Deposited"
	EventWithdrawn         = "Withdrawn"
	EventBasketCreated     = "BasketCreated"
	EventSharesIssued      = "SharesIssued"
	EventSharesTransferred = "SharesTransferred"
	EventWalletCredited    = "WalletCredited"
)

// LedgerEvent is an emitted event. Rows are written in the same database
// transaction as the mutation that emits them; Seq gives the global order.
type LedgerEvent struct {
	Seq       int64          `gorm:"column:seq;primaryKey;autoIncrement" json:"seq"`
	EventID   uuid.UUID      `gorm:"column:event_id;type:uuid;uniqueIndex;not null" json:"event_id"`
	TxID      uuid.UUID      `gorm:"column:tx_id;type:uuid;index;not null" json:"tx_id"`
	Ledger    Ledger         `gorm:"column:ledger;type:varchar(20);index;not null" json:"ledger"`
	Name      string         `gorm:"column:name;type:varchar(40);not null" json:"name"`
	Subject   string         `gorm:"column:subject;index;not null" json:"subject"`
	Actor     Account        `gorm:"column:actor;type:varchar(42)" json:"actor"`
	Payload   datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	CreatedAt time.Time      `gorm:"column:createdAt" json:"createdAt"`
}

func (LedgerEvent) TableName() string {
	return "LedgerEvents"
}

func (e *LedgerEvent) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}

// Models lists every table owned by the service, in migration order.
func Models() []interface{} {
	return []interface{}{
		&Property{},
		&MarketListing{},
		&EscrowVault{},
		&Basket{},
		&BasketProperty{},
		&ShareBalance{},
		&Wallet{},
		&Payment{},
		&LedgerEvent{},
	}
}
