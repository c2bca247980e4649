package response

import (
	"github.com/gofiber/fiber/v2"
)

// KindUnauthenticated is the error kind for a missing or rejected bearer token.
const KindUnauthenticated = "Unauthenticated"

// SuccessBody is the envelope of every 2xx response.
type SuccessBody struct {
	Status   string      `json:"status"`
	Message  string      `json:"message"`
	Data     interface{} `json:"data"`
	Metadata interface{} `json:"metadata,omitempty"`
}

// ErrorBody is the envelope of every error response.
type ErrorBody struct {
	Status string      `json:"status"`
	Error  ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Message    string       `json:"message"`
	StatusCode int          `json:"statusCode"`
	Details    ErrorDetails `json:"details"`
}

// ErrorDetails names the cause so clients can branch on it without parsing
// the message. Kind is empty for infrastructure failures.
type ErrorDetails struct {
	Kind string `json:"kind,omitempty"`
}

const (
	statusSuccess = "success"
	statusError   = "error"
)

func success(c *fiber.Ctx, code int, message string, data, metadata interface{}) error {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	return c.Status(code).JSON(SuccessBody{
		Status:   statusSuccess,
		Message:  message,
		Data:     data,
		Metadata: metadata,
	})
}

// Success sends 200 OK.
func Success(c *fiber.Ctx, message string, data interface{}, metadata interface{}) error {
	return success(c, fiber.StatusOK, message, data, metadata)
}

// SuccessCreated sends 201 Created.
func SuccessCreated(c *fiber.Ctx, message string, data interface{}, metadata interface{}) error {
	return success(c, fiber.StatusCreated, message, data, metadata)
}

// Rejected sends an error whose cause is named by kind.
func Rejected(c *fiber.Ctx, statusCode int, kind, message string) error {
	return c.Status(statusCode).JSON(ErrorBody{
		Status: statusError,
		Error: ErrorDetail{
			Message:    message,
			StatusCode: statusCode,
			Details:    ErrorDetails{Kind: kind},
		},
	})
}

// Error sends an error without a kind.
func Error(c *fiber.Ctx, message string, statusCode int) error {
	return Rejected(c, statusCode, "", message)
}

// Unauthorized sends 401 for bearer token failures.
func Unauthorized(c *fiber.Ctx, message string) error {
	return Rejected(c, fiber.StatusUnauthorized, KindUnauthenticated, message)
}
