// Package validation validates request payloads with validator/v10 and converts
// failures into domain validation errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/spellbee/spellbee-server/internal/domain"
	domainerrors "github.com/spellbee/spellbee-server/internal/errors"
	"github.com/spellbee/spellbee-server/internal/normalize"
)

// Username length bounds, counted in runes after normalization.
const (
	UsernameMinLen = 3
	UsernameMaxLen = 20
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator with the game's custom tags registered:
// "username", "track", "mode", "input_method" and "avatar".
func New() *Validator {
	v := validator.New()

	// Use JSON tag names in error messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	mustRegister(v, "username", func(fl validator.FieldLevel) bool {
		return ValidUsername(fl.Field().String())
	})
	mustRegister(v, "track", func(fl validator.FieldLevel) bool {
		return domain.Track(fl.Field().String()).Valid()
	})
	mustRegister(v, "mode", func(fl validator.FieldLevel) bool {
		return domain.GameMode(fl.Field().String()).Valid()
	})
	mustRegister(v, "input_method", func(fl validator.FieldLevel) bool {
		return domain.InputMethod(fl.Field().String()).Valid()
	})
	mustRegister(v, "avatar", func(fl validator.FieldLevel) bool {
		return domain.AvatarID(fl.Field().Int()).Valid()
	})

	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %q validation: %v", tag, err))
	}
}

// ValidUsername reports whether raw, once normalized, is 3 to 20 runes of
// letters, digits, underscores, dots or hyphens.
func ValidUsername(raw string) bool {
	name := normalize.Username(raw)
	n := utf8.RuneCountInString(name)
	if n < UsernameMinLen || n > UsernameMaxLen {
		return false
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '.' && r != '-' {
			return false
		}
	}
	return true
}

// Validate validates a struct and returns a domain error.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// formatError converts validator errors to domain errors.
func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		fieldErrors[fieldPath(e)] = v.friendlyMessage(e)
	}

	return domainerrors.ValidationWithDetails("validation failed", fieldErrors)
}

// fieldPath drops the root struct name: "Request.rounds[2].timeMs" becomes "rounds[2].timeMs".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return e.Field()
}

//nolint:gocyclo // Switch statement covering validation tags is intentionally exhaustive.
func (v *Validator) friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s items", e.Param())
		}
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must not contain more than %s items", e.Param())
		}
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "lt":
		return "must be less than " + e.Param()
	case "username":
		return fmt.Sprintf("must be %d to %d letters, digits, '_', '.' or '-'", UsernameMinLen, UsernameMaxLen)
	case "track":
		return "must be one of: endless_voice endless_keyboard blitz_voice blitz_keyboard"
	case "mode":
		return "must be one of: endless blitz"
	case "input_method":
		return "must be one of: voice keyboard"
	case "avatar":
		return fmt.Sprintf("must be between %d and %d", domain.MinAvatar, domain.MaxAvatar)
	default:
		return "is invalid"
	}
}
