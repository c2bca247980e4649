package wallets

import (
	"estate-backend/internal/application/funds"
	"estate-backend/internal/middleware"
	"estate-backend/internal/pkg/response"
	"estate-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type Handlers struct {
	Service *funds.Service
}

// GET /api/v1/wallets/balance/:account
func (h *Handlers) Balance(c *fiber.Ctx) error {
	account, err := validation.AccountParam(c.Params("account"), "account")
	if err != nil {
		return middleware.WriteError(c, err)
	}
	balance, err := h.Service.BalanceOf(c.Context(), account)
	if err != nil {
		return middleware.WriteError(c, err)
	}
	return response.Success(c, "Wallet balance fetched successfully", fiber.Map{
		"account": account,
		"balance": balance,
	}, nil)
}

// POST /api/v1/wallets/faucet. Only mounted when FAUCET_ENABLED is set.
func (h *Handlers) Faucet(c *fiber.Ctx) error {
	var body struct {
		Account string          `json:"account" validate:"omitempty,account"`
		Amount  decimal.Decimal `json:"amount" validate:"positive_decimal"`
	}
	if err := validation.ParseBody(c, &body); err != nil {
		return middleware.WriteError(c, err)
	}
	caller := middleware.GetCaller(c)
	account := caller
	if body.Account != "" {
		a, err := validation.AccountParam(body.Account, "account")
		if err != nil {
			return middleware.WriteError(c, err)
		}
		account = a
	}
	wallet, receipt, err := h.Service.Faucet(c.Context(), caller, account, body.Amount)
	if err != nil {
		return middleware.WriteError(c, err)
	}
	return response.Success(c, "Wallet credited", fiber.Map{"wallet": wallet, "receipt": receipt}, nil)
}
