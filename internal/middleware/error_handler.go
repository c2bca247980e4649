package middleware

import (
	"errors"

	"estate-backend/internal/domain"
	"estate-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

var kindStatus = map[domain.Kind]int{
	domain.KindUnauthorized:                fiber.StatusForbidden,
	domain.KindNotBuyer:                    fiber.StatusForbidden,
	domain.KindNotFound:                    fiber.StatusNotFound,
	domain.KindDuplicateID:                 fiber.StatusConflict,
	domain.KindNotListed:                   fiber.StatusConflict,
	domain.KindInsufficientSharesAvailable: fiber.StatusConflict,
	domain.KindInsufficientBalance:         fiber.StatusConflict,
	domain.KindSellerNotSet:                fiber.StatusConflict,
	domain.KindNothingToWithdraw:           fiber.StatusConflict,
	domain.KindWrongAmount:                 fiber.StatusBadRequest,
	domain.KindInvalidArgument:             fiber.StatusBadRequest,
	domain.KindInsufficientFunds:           fiber.StatusPaymentRequired,
}

// StatusFor maps a ledger error kind to its HTTP status.
func StatusFor(kind domain.Kind) int {
	if code, ok := kindStatus[kind]; ok {
		return code
	}
	return fiber.StatusInternalServerError
}

// WriteError sends err in the standard error format. Ledger rejections keep
// their message and carry the kind in details; anything else is a 500.
func WriteError(c *fiber.Ctx, err error) error {
	var le *domain.LedgerError
	if errors.As(err, &le) {
		return response.Rejected(c, StatusFor(le.Kind), string(le.Kind), le.Message)
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return response.Error(c, fe.Message, fe.Code)
	}
	log.Error().Err(err).Str("trace_id", GetTraceID(c)).Str("path", c.Path()).Msg("Unhandled error")
	return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError)
}

// ErrorHandler is the global error handler. Returns the standard error format.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return WriteError(c, err)
}
