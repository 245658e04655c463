package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"lakeside/pkg/logger"
	"lakeside/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)

	log.Debug("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

// jsonFieldName reports fields by their wire name so clients can match
// errors to the payload they sent.
func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

// Validate checks the shape of a booking request. Calendar rules such as
// check-out after check-in belong to the conflict resolver.
func (v *BookingValidator) Validate(req *model.BookingRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

// ValidateID checks that id looks like a booking or room id.
func (v *BookingValidator) ValidateID(field, id string) error {
	if err := v.validate.Var(id, "required,uuid"); err != nil {
		return ValidationErrors{{Field: field, Message: fmt.Sprintf("%s must be a valid UUID", field)}}
	}
	return nil
}

// ValidateStatuses rejects unknown booking statuses in a filter.
func (v *BookingValidator) ValidateStatuses(statuses []model.BookingStatus) error {
	var errs ValidationErrors
	for _, s := range statuses {
		if !s.Valid() {
			errs = append(errs, ValidationError{
				Field:   "status",
				Message: fmt.Sprintf("unknown status %q, must be one of: pending confirmed cancelled", s),
			})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "uuid":
			message = fmt.Sprintf("%s must be a valid UUID", err.Field())
		case "datetime":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "gt":
			message = fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
