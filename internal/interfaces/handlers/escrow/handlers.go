package escrow

import (
	"context"

	escrowsvc "estate-backend/internal/application/escrow"
	"estate-backend/internal/application/txn"
	"estate-backend/internal/domain"
	"estate-backend/internal/middleware"
	"estate-backend/internal/pkg/response"
	"estate-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Handlers struct {
	Service *escrowsvc.Service
}

type partyRequest struct {
	Account string `json:"account" validate:"required,account"`
}

type depositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// vaultView adds the derived state to the stored vault.
type vaultView struct {
	*domain.EscrowVault
	State domain.VaultState `json:"state"`
}

func view(v *domain.EscrowVault) vaultView {
	return vaultView{EscrowVault: v, State: v.State()}
}

func vaultID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("vault_id"))
	if err != nil {
		return uuid.Nil, domain.Errorf(domain.KindInvalidArgument, "Invalid vault_id format")
	}
	return id, nil
}

// POST /api/v1/escrow/create-vault: the caller owns the new vault.
func (h *Handlers) CreateVault(c *fiber.Ctx) error {
	v, receipt, err := h.Service.CreateVault(c.Context(), middleware.GetCaller(c))
	if err != nil {
		return middleware.WriteError(c, err)
	}
	return response.SuccessCreated(c, "Vault created successfully", fiber.Map{"vault": view(v), "receipt": receipt}, nil)
}

// GET /api/v1/escrow/vaults/:vault_id
func (h *Handlers) GetVault(c *fiber.Ctx) error {
	id, err := vaultID(c)
	if err != nil {
		return middleware.WriteError(c, err)
	}
	v, err := h.Service.GetVault(c.Context(), id)
	if err != nil {
		return middleware.WriteError(c, err)
	}
	return response.Success(c, "Vault fetched successfully", view(v), nil)
}

// POST /api/v1/escrow/vaults/:vault_id/set-buyer: vault owner only.
func (h *Handlers) SetBuyer(c *fiber.Ctx) error {
	return h.setParty(c, "Buyer set", h.Service.SetBuyer)
}

// POST /api/v1/escrow/vaults/:vault_id/set-seller: vault owner only.
func (h *Handlers) SetSeller(c *fiber.Ctx) error {
	return h.setParty(c, "Seller set", h.Service.SetSeller)
}

type setPartyFunc = func(ctx context.Context, caller domain.Account, id uuid.UUID, party domain.Account) (*domain.EscrowVault, *txn.Receipt, error)

func (h *Handlers) setParty(c *fiber.Ctx, msg string, set setPartyFunc) error {
	id, err := vaultID(c)
	if err != nil {
		return middleware.WriteError(c, err)
	}
	var body partyRequest
	if err := validation.ParseBody(c, &body); err != nil {
		return middleware.WriteError(c, err)
	}
	party, err := validation.AccountParam(body.Account, "account")
	if err != nil {
		return middleware.WriteError(c, err)
	}
	v, receipt, err := set(c.Context(), middleware.GetCaller(c), id, party)
	if err != nil {
		return middleware.WriteError(c, err)
	}
	return response.Success(c, msg, fiber.Map{"vault": view(v), "receipt": receipt}, nil)
}

// POST /api/v1/escrow/vaults/:vault_id/deposit: buyer only; deposits accumulate.
func (h *Handlers) Deposit(c *fiber.Ctx) error {
	id, err := vaultID(c)
	if err != nil {
		return middleware.WriteError(c, err)
	}
	var body depositRequest
	if err := validation.ParseBody(c, &body); err != nil {
		return middleware.WriteError(c, err)
	}
	v, receipt, err := h.Service.Deposit(c.Context(), middleware.GetCaller(c), id, body.Amount)
	if err != nil {
		return middleware.WriteError(c, err)
	}
	return response.Success(c, "Deposit received", fiber.Map{"vault": view(v), "receipt": receipt}, nil)
}

// POST /api/v1/escrow/vaults/:vault_id/withdraw: seller only; pays out the whole balance.
func (h *Handlers) Withdraw(c *fiber.Ctx) error {
	id, err := vaultID(c)
	if err != nil {
		return middleware.WriteError(c, err)
	}
	v, receipt, err := h.Service.Withdraw(c.Context(), middleware.GetCaller(c), id)
	if err != nil {
		return middleware.WriteError(c, err)
	}
	return response.Success(c, "Funds released to seller", fiber.Map{"vault": view(v), "receipt": receipt}, nil)
}
