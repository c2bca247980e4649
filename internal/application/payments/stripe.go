package payments

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

// IntentCreator abstracts Stripe PaymentIntent creation for testability.
type IntentCreator interface {
	Create(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*IntentResult, error)
}

type IntentResult struct {
	ID           string `json:"payment_intent_id"`
	ClientSecret string `json:"client_secret"`
}

// StripeCreator creates PaymentIntents through the Stripe SDK. Calls go
// through the breaker so a Stripe outage fails fast instead of piling up.
type StripeCreator struct {
	SecretKey string
	Breaker   *gobreaker.CircuitBreaker
}

func (s *StripeCreator) Create(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*IntentResult, error) {
	if s.SecretKey == "" {
		return nil, fiber.NewError(fiber.StatusNotImplemented, "Stripe integration pending")
	}
	client := paymentintent.Client{B: stripe.GetBackend(stripe.APIBackend), Key: s.SecretKey}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		Metadata: metadata,
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx

	create := func() (interface{}, error) { return client.New(params) }
	var (
		out interface{}
		err error
	)
	if s.Breaker != nil {
		out, err = s.Breaker.Execute(create)
	} else {
		out, err = create()
	}
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, fiber.NewError(fiber.StatusServiceUnavailable, "Payment provider unavailable")
		}
		return nil, err
	}
	pi := out.(*stripe.PaymentIntent)
	return &IntentResult{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}
