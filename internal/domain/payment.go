package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Payment records a settled Stripe top-up. One row per PaymentIntent.
type Payment struct {
	ID                    uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	StripePaymentIntentID string          `gorm:"column:stripe_payment_intent_id;uniqueIndex;not null" json:"stripe_payment_intent_id"`
	StripeEventID         string          `gorm:"column:stripe_event_id;uniqueIndex;not null" json:"stripe_event_id"`
	Account               Account         `gorm:"column:account;type:varchar(42);not null;index" json:"account"`
	Amount                decimal.Decimal `gorm:"column:amount;type:decimal(38,18);not null" json:"amount"`
	AmountPaidCents       int64           `gorm:"column:amount_paid_cents;not null" json:"amount_paid_cents"`
	Currency              string          `gorm:"column:currency;not null" json:"currency"`
	Status                string          `gorm:"column:status;not null" json:"status"`
	RawPaymentIntent      datatypes.JSON  `gorm:"column:raw_payment_intent;type:jsonb;not null" json:"raw_payment_intent"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}

func (Payment) TableName() string {
	return "Payments"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
