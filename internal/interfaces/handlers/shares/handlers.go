package shares

import (
	sharesvc "estate-backend/internal/application/shares"
	"estate-backend/internal/middleware"
	"estate-backend/internal/pkg/response"
	"estate-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *sharesvc.Service
}

type basketRequest struct {
	BasketID    int64   `json:"basket_id"`
	PropertyIDs []int64 `json:"property_ids"`
	TotalShares int64   `json:"total_shares"`
}

type issueRequest struct {
	BasketID int64  `json:"basket_id"`
	Account  string `json:"account" validate:"required,account"`
	Amount   int64  `json:"amount"`
}

type transferRequest struct {
	BasketID int64  `json:"basket_id"`
	To       string `json:"to" validate:"required,account"`
	Amount   int64  `json:"amount"`
}

// GET /api/v1/shares/owner
func (h *Handlers) Owner(c *fiber.Ctx) error {
	return response.Success(c, "Share ledger owner", fiber.Map{"owner": h.Service.Owner()}, nil)
}

// POST /api/v1/shares/create-basket: owner only.
func (h *Handlers) CreateBasket(c *fiber.Ctx) error {
	var body basketRequest
	if err := validation.ParseBody(c, &body); err != nil {
		return middleware.WriteError(c, err)
	}
	b, receipt, err := h.Service.CreateBasket(c.Context(), middleware.GetCaller(c), body.BasketID, body.PropertyIDs, body.TotalShares)
	if err != nil {
		return middleware.WriteError(c, err)
	}
	return response.SuccessCreated(c, "Basket created successfully", fiber.Map{"basket": b, "receipt": receipt}, nil)
}

// POST /api/v1/shares/issue-shares: owner only; bounded by the basket's unissued shares.
func (h *Handlers) IssueShares(c *fiber.Ctx) error {
	var body issueRequest
	if err := validation.ParseBody(c, &body); err != nil {
		return middleware.WriteError(c, err)
	}
	to, err := validation.AccountParam(body.Account, "account")
	if err != nil {
		return middleware.WriteError(c, err)
	}
	b, receipt, err := h.Service.IssueShares(c.Context(), middleware.GetCaller(c), body.BasketID, to, body.Amount)
	if err != nil {
		return middleware.WriteError(c, err)
	}
	return response.Success(c, "Shares issued successfully", fiber.Map{"basket": b, "receipt": receipt}, nil)
}

// POST /api/v1/shares/transfer-shares: moves the caller's shares.
func (h *Handlers) TransferShares(c *fiber.Ctx) error {
	var body transferRequest
	if err := validation.ParseBody(c, &body); err != nil {
		return middleware.WriteError(c, err)
	}
	to, err := validation.AccountParam(body.To, "to")
	if err != nil {
		return middleware.WriteError(c, err)
	}
	receipt, err := h.Service.TransferShares(c.Context(), middleware.GetCaller(c), body.BasketID, to, body.Amount)
	if err != nil {
		return middleware.WriteError(c, err)
	}
	return response.Success(c, "Shares transferred successfully", fiber.Map{"receipt": receipt}, nil)
}

// GET /api/v1/shares/baskets/:basket_id
func (h *Handlers) GetBasket(c *fiber.Ctx) error {
	id, err := validation.ParamInt64(c, "basket_id")
	if err != nil {
		return middleware.WriteError(c, err)
	}
	b, err := h.Service.GetBasketDetails(c.Context(), id)
	if err != nil {
		return middleware.WriteError(c, err)
	}
	return response.Success(c, "Basket fetched successfully", fiber.Map{
		"basket_id":     b.BasketID,
		"property_ids":  b.PropertyIDs,
		"total_shares":  b.TotalShares,
		"issued_shares": b.IssuedShares,
		"available":     b.Available(),
	}, nil)
}

// GET /api/v1/shares/balance/:account: optional ?basket_id narrows to one basket.
func (h *Handlers) Balance(c *fiber.Ctx) error {
	account, err := validation.AccountParam(c.Params("account"), "account")
	if err != nil {
		return middleware.WriteError(c, err)
	}
	basketID, err := validation.QueryInt64(c, "basket_id", 0)
	if err != nil {
		return middleware.WriteError(c, err)
	}
	var balance int64
	if basketID > 0 {
		balance, err = h.Service.BalanceOfBasket(c.Context(), basketID, account)
	} else {
		balance, err = h.Service.BalanceOf(c.Context(), account)
	}
	if err != nil {
		return middleware.WriteError(c, err)
	}
	data := fiber.Map{"account": account, "balance": balance}
	if basketID > 0 {
		data["basket_id"] = basketID
	}
	return response.Success(c, "Balance fetched successfully", data, nil)
}
