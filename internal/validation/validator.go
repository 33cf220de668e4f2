package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"portfolio-backend/internal/schedule"

	"github.com/go-playground/validator/v10"
)

type Validator struct {
	v   *validator.Validate
	loc *time.Location
	now func() time.Time
}

func New(loc *time.Location) *Validator {
	return NewWithClock(loc, time.Now)
}

// NewWithClock lets callers pin "today" for the notpast rule.
func NewWithClock(loc *time.Location, now func() time.Time) *Validator {
	if loc == nil {
		loc = time.UTC
	}
	val := &Validator{v: validator.New(), loc: loc, now: now}

	val.v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	val.v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		_, err := time.Parse(schedule.DateLayout, value)
		return err == nil
	})

	val.v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		_, err := time.Parse(schedule.ClockLayout, value)
		return err == nil
	})

	val.v.RegisterValidation("slot", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		return schedule.IsSlot(value)
	})

	val.v.RegisterValidation("notpast", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		past, err := schedule.IsDatePast(value, val.loc, val.now())
		return err == nil && !past
	})

	return val
}

func (v *Validator) Struct(s interface{}) error {
	return v.v.Struct(s)
}

func (v *Validator) ValidationErrors(err error) validator.ValidationErrors {
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}

// Details turns a validation failure into field -> human readable reason.
func (v *Validator) Details(err error) map[string]string {
	errs := v.ValidationErrors(err)
	if len(errs) == 0 {
		return nil
	}
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		details[fe.Field()] = Reason(fe.Tag(), fe.Param())
	}
	return details
}

// Reason renders a rule tag as the message shown next to the form field.
func Reason(tag, param string) string {
	switch tag {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", param)
	case "max":
		return fmt.Sprintf("must be at most %s characters", param)
	case "email":
		return "must be a valid email address"
	case "date":
		return "must be a date in YYYY-MM-DD format"
	case "clock":
		return "must be a time in HH:MM format"
	case "slot":
		return "must be one of the available time slots"
	case "notpast":
		return "must not be in the past"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(param, " ", ", ")
	case "boolean":
		return "must be true or false"
	default:
		return "is invalid"
	}
}
