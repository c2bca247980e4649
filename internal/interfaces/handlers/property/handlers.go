package property

import (
	propsvc "estate-backend/internal/application/property"
	"estate-backend/internal/middleware"
	"estate-backend/internal/pkg/response"
	"estate-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *propsvc.Service
}

type propertyRequest struct {
	PropertyID int64  `json:"property_id"`
	Details    string `json:"details" validate:"max=65536"`
}

// POST /api/v1/properties/add-property: caller becomes the owner.
func (h *Handlers) AddProperty(c *fiber.Ctx) error {
	var body propertyRequest
	if err := validation.ParseBody(c, &body); err != nil {
		return middleware.WriteError(c, err)
	}
	p, receipt, err := h.Service.AddProperty(c.Context(), middleware.GetCaller(c), body.PropertyID, body.Details)
	if err != nil {
		return middleware.WriteError(c, err)
	}
	return response.SuccessCreated(c, "Property added successfully", fiber.Map{"property": p, "receipt": receipt}, nil)
}

// PUT /api/v1/properties/update-property: owner only.
func (h *Handlers) UpdateProperty(c *fiber.Ctx) error {
	var body propertyRequest
	if err := validation.ParseBody(c, &body); err != nil {
		return middleware.WriteError(c, err)
	}
	p, receipt, err := h.Service.UpdateProperty(c.Context(), middleware.GetCaller(c), body.PropertyID, body.Details)
	if err != nil {
		return middleware.WriteError(c, err)
	}
	return response.Success(c, "Property updated successfully", fiber.Map{"property": p, "receipt": receipt}, nil)
}

// GET /api/v1/properties/get-property/:id
func (h *Handlers) GetProperty(c *fiber.Ctx) error {
	id, err := validation.ParamInt64(c, "id")
	if err != nil {
		return middleware.WriteError(c, err)
	}
	p, err := h.Service.GetProperty(c.Context(), id)
	if err != nil {
		return middleware.WriteError(c, err)
	}
	return response.Success(c, "Property fetched successfully", p, nil)
}
