package marketplace

import (
	mktsvc "estate-backend/internal/application/marketplace"
	"estate-backend/internal/middleware"
	"estate-backend/internal/pkg/response"
	"estate-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// Handlers bundles marketplace handlers.
type Handlers struct {
	Service *mktsvc.Service
}

type priceRequest struct {
	PropertyID int64           `json:"property_id"`
	Price      decimal.Decimal `json:"price"`
}

type purchaseRequest struct {
	PropertyID int64           `json:"property_id"`
	Payment    decimal.Decimal `json:"payment"`
}

type listingRequest struct {
	PropertyID int64 `json:"property_id"`
}

// GET /api/v1/marketplace/owner
func (h *Handlers) Owner(c *fiber.Ctx) error {
	return response.Success(c, "Marketplace owner", fiber.Map{"owner": h.Service.Owner()}, nil)
}

// POST /api/v1/marketplace/add-property: marketplace owner only.
func (h *Handlers) AddProperty(c *fiber.Ctx) error {
	var body priceRequest
	if err := validation.ParseBody(c, &body); err != nil {
		return middleware.WriteError(c, err)
	}
	l, receipt, err := h.Service.AddProperty(c.Context(), middleware.GetCaller(c), body.PropertyID, body.Price)
	if err != nil {
		return middleware.WriteError(c, err)
	}
	return response.SuccessCreated(c, "Listing created successfully", fiber.Map{"listing": l, "receipt": receipt}, nil)
}

// POST /api/v1/marketplace/list-property: seller only.
func (h *Handlers) ListProperty(c *fiber.Ctx) error {
	var body priceRequest
	if err := validation.ParseBody(c, &body); err != nil {
		return middleware.WriteError(c, err)
	}
	l, receipt, err := h.Service.ListProperty(c.Context(), middleware.GetCaller(c), body.PropertyID, body.Price)
	if err != nil {
		return middleware.WriteError(c, err)
	}
	return response.Success(c, "Property listed for sale", fiber.Map{"listing": l, "receipt": receipt}, nil)
}

// POST /api/v1/marketplace/unlist-property: seller only.
func (h *Handlers) UnlistProperty(c *fiber.Ctx) error {
	var body listingRequest
	if err := validation.ParseBody(c, &body); err != nil {
		return middleware.WriteError(c, err)
	}
	l, receipt, err := h.Service.UnlistProperty(c.Context(), middleware.GetCaller(c), body.PropertyID)
	if err != nil {
		return middleware.WriteError(c, err)
	}
	return response.Success(c, "Property withdrawn from sale", fiber.Map{"listing": l, "receipt": receipt}, nil)
}

// POST /api/v1/marketplace/purchase-property: payment must equal the price exactly.
func (h *Handlers) PurchaseProperty(c *fiber.Ctx) error {
	var body purchaseRequest
	if err := validation.ParseBody(c, &body); err != nil {
		return middleware.WriteError(c, err)
	}
	l, receipt, err := h.Service.PurchaseProperty(c.Context(), middleware.GetCaller(c), body.PropertyID, body.Payment)
	if err != nil {
		return middleware.WriteError(c, err)
	}
	return response.Success(c, "Property purchased successfully", fiber.Map{"listing": l, "receipt": receipt}, nil)
}

// GET /api/v1/marketplace/properties/:id
func (h *Handlers) GetListing(c *fiber.Ctx) error {
	id, err := validation.ParamInt64(c, "id")
	if err != nil {
		return middleware.WriteError(c, err)
	}
	l, err := h.Service.GetListing(c.Context(), id)
	if err != nil {
		return middleware.WriteError(c, err)
	}
	return response.Success(c, "Listing fetched successfully", l, nil)
}

// GET /api/v1/marketplace/listed
func (h *Handlers) ListedProperties(c *fiber.Ctx) error {
	listings, err := h.Service.ListedProperties(c.Context())
	if err != nil {
		return middleware.WriteError(c, err)
	}
	return response.Success(c, "Listed properties fetched", listings, nil)
}
