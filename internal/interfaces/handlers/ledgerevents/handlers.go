package ledgerevents

import (
	eventsvc "estate-backend/internal/application/ledgerevents"
	"estate-backend/internal/domain"
	"estate-backend/internal/middleware"
	"estate-backend/internal/pkg/response"
	"estate-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *eventsvc.Service
}

// GetEvents GET /api/v1/events/get-events?ledger=&subject=&actor=&after=&limit=
// Events come back in sequence order; pass the last seq as after to page.
func (h *Handlers) GetEvents(c *fiber.Ctx) error {
	f := eventsvc.Filter{
		Ledger:  domain.Ledger(c.Query("ledger")),
		Subject: c.Query("subject"),
	}
	if raw := c.Query("actor"); raw != "" {
		actor, err := validation.AccountParam(raw, "actor")
		if err != nil {
			return middleware.WriteError(c, err)
		}
		f.Actor = actor
	}
	after, err := validation.QueryInt64(c, "after", 0)
	if err != nil {
		return middleware.WriteError(c, err)
	}
	limit, err := validation.QueryInt64(c, "limit", eventsvc.DefaultLimit)
	if err != nil {
		return middleware.WriteError(c, err)
	}
	f.After = after
	f.Limit = int(limit)

	evts, err := h.Service.ListEvents(c.Context(), f)
	if err != nil {
		return middleware.WriteError(c, err)
	}
	meta := fiber.Map{"count": len(evts)}
	if len(evts) > 0 {
		meta["last_seq"] = evts[len(evts)-1].Seq
	}
	return response.Success(c, "Events fetched successfully", evts, meta)
}
