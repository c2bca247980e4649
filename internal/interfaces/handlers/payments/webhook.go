package payments

import (
	"encoding/json"
	"fmt"

	paysvc "estate-backend/internal/application/payments"
	"estate-backend/internal/domain"
	"estate-backend/internal/middleware"
	"estate-backend/internal/pkg/response"
	"estate-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

type Handlers struct {
	Service       *paysvc.Service
	WebhookSecret string
}

// POST /api/v1/wallets/top-up: creates a PaymentIntent; the wallet is credited by the webhook.
func (h *Handlers) TopUp(c *fiber.Ctx) error {
	var body struct {
		Account string          `json:"account" validate:"omitempty,account"`
		Amount  decimal.Decimal `json:"amount" validate:"positive_decimal"`
	}
	if err := validation.ParseBody(c, &body); err != nil {
		return middleware.WriteError(c, err)
	}
	account := middleware.GetCaller(c)
	if body.Account != "" {
		account = domain.MustAccount(body.Account)
	}
	pi, err := h.Service.CreateTopUp(c.Context(), account, body.Amount)
	if err != nil {
		return middleware.WriteError(c, err)
	}
	return response.Success(c, "Payment intent created", pi, nil)
}

// HandleWebhook POST /api/v1/stripe/webhook: raw body, signature verification, then process.
func (h *Handlers) HandleWebhook(c *fiber.Ctx) error {
	if h.WebhookSecret == "" {
		// an empty secret would accept any payload signed with an empty key
		log.Error().Msg("Stripe webhook called but STRIPE_WEBHOOK_SECRET is not set")
		return c.Status(fiber.StatusServiceUnavailable).SendString("Webhook Error: Stripe webhook not configured")
	}

	rawBody := c.BodyRaw()
	sig := c.Get("Stripe-Signature")

	if len(rawBody) == 0 {
		log.Warn().Msg("Stripe webhook received empty body")
		return c.Status(400).SendString("Webhook Error: empty body")
	}

	event, err := webhook.ConstructEventWithOptions(rawBody, sig, h.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		log.Warn().Err(err).Bool("has_sig", sig != "").Msg("Stripe webhook signature verification failed")
		return c.Status(400).SendString(fmt.Sprintf("Webhook Error: %s", err.Error()))
	}

	if event.Type != stripe.EventTypePaymentIntentSucceeded || event.Data == nil {
		return c.Status(200).SendString("ok")
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		log.Warn().Err(err).Str("event_id", event.ID).Msg("Stripe webhook payment intent parse failed")
		return c.Status(200).SendString("ok")
	}

	_, err = h.Service.HandleSucceeded(c.Context(), paysvc.Succeeded{
		PaymentIntentID: pi.ID,
		EventID:         event.ID,
		AmountReceived:  pi.AmountReceived,
		Currency:        string(pi.Currency),
		Status:          string(pi.Status),
		Metadata:        pi.Metadata,
		Raw:             event.Data.Raw,
	})
	if err != nil {
		// 500 makes Stripe retry; the credit is idempotent per intent
		log.Error().Err(err).Str("event_id", event.ID).Str("payment_intent", pi.ID).Msg("Stripe top-up failed")
		return c.Status(500).SendString("retry")
	}
	return c.Status(200).SendString("ok")
}
