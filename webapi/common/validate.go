package common

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

var (
	minAmount = decimal.RequireFromString("0.01")
	maxAmount = decimal.RequireFromString("1000000")

	phonePattern = regexp.MustCompile(`^\+7\d{10}$`)
	namePattern  = regexp.MustCompile(`^[\p{L}\-\s]+$`)

	validate     *validator.Validate
	validateOnce sync.Once
)

const forbiddenChars = `<>"'&`

// Validator returns the shared validator with the banking tags registered:
//
//	amount   decimal in [0.01, 1000000] with at most two fraction digits
//	safetext no <>"'& characters
//	phone    +7 followed by ten digits
//	name     letters, spaces and hyphens
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				return d.String()
			}
			return nil
		}, decimal.Decimal{})
		_ = v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
			d, err := decimal.NewFromString(fl.Field().String())
			if err != nil {
				return false
			}
			return d.GreaterThanOrEqual(minAmount) && d.LessThanOrEqual(maxAmount) && d.Equal(d.Truncate(2))
		})
		_ = v.RegisterValidation("safetext", func(fl validator.FieldLevel) bool {
			return !strings.ContainsAny(fl.Field().String(), forbiddenChars)
		})
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("name", func(fl validator.FieldLevel) bool {
			return namePattern.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// BindAndValidate parses the JSON body into T and validates it.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		return nil, &ValidationError{Message: "invalid request body"}
	}
	if err := Validate(input); err != nil {
		return nil, err
	}
	return &input, nil
}

// Validate runs the shared validator on v and flattens the failures into
// one ValidationError.
func Validate(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Message: err.Error()}
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fe.Field()+" "+describe(fe))
	}
	return &ValidationError{Message: strings.Join(msgs, "; ")}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "amount":
		return "must be between 0.01 and 1000000 with at most 2 decimal places"
	case "safetext":
		return "must not contain any of " + forbiddenChars
	case "phone":
		return "must be in format +7XXXXXXXXXX"
	case "name":
		return "may contain only letters, spaces and hyphens"
	case "oneof":
		return "must be one of " + fe.Param()
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "numeric":
		return "must contain only digits"
	default:
		return "is invalid"
	}
}
