package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

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
	return fmt.Sprintf("validation failed: %d error(s)", len(v))
}

type RoomValidator struct {
	validate *validator.Validate
}

func NewRoomValidator() *RoomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	return &RoomValidator{
		validate: v,
	}
}

func (v *RoomValidator) Validate(room *model.Room) error {
	return v.check(v.validate.Struct(room))
}

func (v *RoomValidator) ValidateUpdate(update *model.RoomUpdate) error {
	if update.Type == "" && update.NightlyPrice == nil && update.PhotoRef == nil {
		return ValidationErrors{{Field: "body", Message: "at least one of room_type, nightly_price or photo_ref is required"}}
	}
	return v.check(v.validate.Struct(update))
}

func (v *RoomValidator) ValidateID(id string) error {
	if err := v.validate.Var(id, "required,uuid"); err != nil {
		return ValidationErrors{{Field: "id", Message: "id must be a valid UUID"}}
	}
	return nil
}

func (v *RoomValidator) check(err error) error {
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return v.translateValidationErrors(validationErrs)
	}
	return err
}

func (v *RoomValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "gt":
			message = fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
		case "uuid":
			message = fmt.Sprintf("%s must be a valid UUID", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
