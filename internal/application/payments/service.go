package payments

import (
	"context"
	"encoding/json"
	"errors"

	"estate-backend/internal/application/funds"
	"estate-backend/internal/application/txn"
	"estate-backend/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Metadata keys carried on top-up PaymentIntents.
const (
	MetaAccount = "account"
	MetaAmount  = "amount"
)

// DefaultCurrency is used when no top-up currency is configured.
const DefaultCurrency = "usd"

// Service turns card payments into wallet credit: it creates PaymentIntents
// for top-ups and credits the wallet when Stripe reports the payment settled.
type Service struct {
	DB       *gorm.DB
	Exec     *txn.Executor
	Creator  IntentCreator
	Currency string
}

// Succeeded is the part of a settled PaymentIntent the service needs.
type Succeeded struct {
	PaymentIntentID string
	EventID         string
	AmountReceived  int64
	Currency        string
	Status          string
	Metadata        map[string]string
	Raw             json.RawMessage
}

func (s *Service) currency() string {
	if s.Currency == "" {
		return DefaultCurrency
	}
	return s.Currency
}

// CreateTopUp starts a card payment that will credit amount to account.
// One wallet unit is charged as one unit of the configured currency.
func (s *Service) CreateTopUp(ctx context.Context, account domain.Account, amount decimal.Decimal) (*IntentResult, error) {
	if account.IsZero() {
		return nil, domain.Errorf(domain.KindInvalidArgument, "account is required")
	}
	cents := amount.Shift(2)
	if !cents.IsInteger() || !cents.IsPositive() {
		return nil, domain.Errorf(domain.KindInvalidArgument, "top-up amount must be positive with at most two decimals")
	}
	if s.Creator == nil {
		return nil, fiber.NewError(fiber.StatusNotImplemented, "Stripe not configured")
	}
	return s.Creator.Create(ctx, cents.IntPart(), s.currency(), map[string]string{
		MetaAccount: account.String(),
		MetaAmount:  amount.String(),
	})
}

// HandleSucceeded credits the wallet named in the intent metadata. Replays
// of an already recorded intent are ignored. Intents without top-up
// metadata are skipped and reported as (false, nil).
func (s *Service) HandleSucceeded(ctx context.Context, pi Succeeded) (bool, error) {
	account, err := domain.ParseAccount(pi.Metadata[MetaAccount])
	if err != nil {
		log.Warn().Str("payment_intent", pi.PaymentIntentID).Msg("Top-up skipped: no account in metadata")
		return false, nil
	}
	amount, err := decimal.NewFromString(pi.Metadata[MetaAmount])
	if err != nil || !amount.IsPositive() {
		log.Warn().Str("payment_intent", pi.PaymentIntentID).Msg("Top-up skipped: bad amount in metadata")
		return false, nil
	}
	if got := decimal.NewFromInt(pi.AmountReceived).Shift(-2); !got.Equal(amount) {
		log.Warn().Str("payment_intent", pi.PaymentIntentID).
			Str("expected", amount.String()).Str("received", got.String()).
			Msg("Top-up skipped: amount received does not match metadata")
		return false, nil
	}

	credited := false
	_, err = s.Exec.Run(ctx, account, "funds.stripe_top_up", func(tx *txn.Tx) error {
		var count int64
		if err := tx.Model(&domain.Payment{}).Where("stripe_payment_intent_id = ?", pi.PaymentIntentID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		raw := pi.Raw
		if len(raw) == 0 {
			raw = json.RawMessage("{}")
		}
		payment := domain.Payment{
			StripePaymentIntentID: pi.PaymentIntentID,
			StripeEventID:         pi.EventID,
			Account:               account,
			Amount:                amount,
			AmountPaidCents:       pi.AmountReceived,
			Currency:              pi.Currency,
			Status:                pi.Status,
			RawPaymentIntent:      datatypes.JSON(raw),
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		if _, err := funds.Credit(tx.DB, account, amount); err != nil {
			return err
		}
		credited = true
		return tx.Emit(domain.LedgerFunds, domain.EventWalletCredited, account, map[string]interface{}{
			"account":        account.Checksum(),
			"amount":         amount.String(),
			"source":         "stripe",
			"payment_intent": pi.PaymentIntentID,
		})
	})
	if err != nil {
		return false, err
	}
	return credited, nil
}

// GetPayment returns the recorded payment for an intent.
func (s *Service) GetPayment(ctx context.Context, paymentIntentID string) (*domain.Payment, error) {
	var p domain.Payment
	if err := s.DB.WithContext(ctx).Where("stripe_payment_intent_id = ?", paymentIntentID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.Errorf(domain.KindNotFound, "Payment %s not found", paymentIntentID)
		}
		return nil, err
	}
	return &p, nil
}
