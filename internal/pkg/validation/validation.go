package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"estate-backend/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
	errValidate  error
)

func initValidators() (*validator.Validate, error) {
	vld := validator.New(validator.WithRequiredStructEnabled())

	// report json names so messages match the request body
	vld.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	if err := vld.RegisterValidation("positive_decimal", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(decimal.Decimal)
		return ok && value.IsPositive() && domain.HasAmountScale(value)
	}); err != nil {
		return nil, fmt.Errorf("validation: register positive_decimal: %w", err)
	}

	// account accepts a 0x address; mixed case must carry a valid checksum
	if err := vld.RegisterValidation("account", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseAccount(fl.Field().String())
		return err == nil
	}); err != nil {
		return nil, fmt.Errorf("validation: register account: %w", err)
	}

	return vld, nil
}

// GetValidator returns the singleton validator instance.
func GetValidator() (*validator.Validate, error) {
	validateOnce.Do(func() {
		validate, errValidate = initValidators()
	})
	return validate, errValidate
}

var formatters = map[string]func(field, param string) string{
	"required":         func(f, _ string) string { return fmt.Sprintf("%s is required", f) },
	"gt":               func(f, p string) string { return fmt.Sprintf("%s must be greater than %s", f, p) },
	"gte":              func(f, p string) string { return fmt.Sprintf("%s must be at least %s", f, p) },
	"min":              func(f, p string) string { return fmt.Sprintf("%s must have at least %s entries", f, p) },
	"max":              func(f, p string) string { return fmt.Sprintf("%s must be at most %s long", f, p) },
	"positive_decimal": func(f, _ string) string { return fmt.Sprintf("%s must be a positive amount with at most %d decimal places", f, domain.AmountScale) },
	"account":          func(f, _ string) string { return fmt.Sprintf("%s must be a valid account address", f) },
	"uuid4":            func(f, _ string) string { return fmt.Sprintf("%s must be a valid UUID", f) },
}

// ValidateStruct checks validate tags and returns the first failure as an
// InvalidArgument ledger error.
func ValidateStruct(payload interface{}) error {
	vld, err := GetValidator()
	if err != nil {
		return err
	}
	if err := vld.Struct(payload); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			if f, ok := formatters[fe.Tag()]; ok {
				return domain.Errorf(domain.KindInvalidArgument, "%s", f(fe.Field(), fe.Param()))
			}
			return domain.Errorf(domain.KindInvalidArgument, "%s failed %s check", fe.Field(), fe.Tag())
		}
		return domain.Errorf(domain.KindInvalidArgument, "%s", err.Error())
	}
	return nil
}

// ParseBody decodes the JSON body into payload and validates it.
func ParseBody(c *fiber.Ctx, payload interface{}) error {
	if err := c.BodyParser(payload); err != nil {
		return domain.Errorf(domain.KindInvalidArgument, "Invalid request body")
	}
	return ValidateStruct(payload)
}

// ParamInt64 reads a numeric path parameter.
func ParamInt64(c *fiber.Ctx, name string) (int64, error) {
	v, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil {
		return 0, domain.Errorf(domain.KindInvalidArgument, "%s must be an integer", name)
	}
	return v, nil
}

// QueryInt64 reads an optional numeric query parameter.
func QueryInt64(c *fiber.Ctx, name string, def int64) (int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.Errorf(domain.KindInvalidArgument, "%s must be an integer", name)
	}
	return v, nil
}

// AccountParam parses an account from a path or body value.
func AccountParam(raw, name string) (domain.Account, error) {
	a, err := domain.ParseAccount(raw)
	if err != nil {
		return "", domain.Errorf(domain.KindInvalidArgument, "%s must be a valid account address", name)
	}
	return a, nil
}
