package uploads

import (
	uploadsvc "estate-backend/internal/application/uploads"
	"estate-backend/internal/domain"
	"estate-backend/internal/middleware"
	"estate-backend/internal/pkg/response"
	"estate-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Handlers bundles upload handlers with the service.
type Handlers struct {
	Service *uploadsvc.Service
}

type uploadRequest struct {
	PropertyID int64  `json:"property_id" validate:"required"`
	FileName   string `json:"file_name" validate:"required,max=255"`
}

// UploadPropertyDocument POST /api/v1/properties/upload-document
func (h *Handlers) UploadPropertyDocument(c *fiber.Ctx) error {
	var req uploadRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return middleware.WriteError(c, err)
	}

	res, err := h.Service.PropertyDocumentURL(c.Context(), middleware.GetCaller(c), req.PropertyID, req.FileName)
	if err != nil {
		if _, ok := err.(*domain.LedgerError); ok {
			return middleware.WriteError(c, err)
		}
		log.Error().Err(err).Str("bucket", uploadsvc.DocumentBucket).Msg("upload: failed to generate signed URL")
		return response.Error(c, "Failed to generate upload URL", 500)
	}
	return response.Success(c, "Upload URL generated", res, nil)
}
