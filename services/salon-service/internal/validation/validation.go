// Package validation decodes JSON request bodies into typed values and
// checks them with struct tags.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/md-rashed-zaman/barberbook/services/salon-service/internal/schedule"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is returned by Decode and Struct when input is rejected.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		mustRegister(v, "hhmm", func(fl validator.FieldLevel) bool {
			_, err := schedule.ParseClock(fl.Field().String())
			return err == nil
		})
		mustRegister(v, "clockafter", clockAfter)
		mustRegister(v, "ymd", func(fl validator.FieldLevel) bool {
			_, err := time.Parse(schedule.DateLayout, fl.Field().String())
			return err == nil
		})
		mustRegister(v, "weekday", func(fl validator.FieldLevel) bool {
			_, ok := parseWeekday(fl.Field().String())
			return ok
		})
		mustRegister(v, "weekdays", validWeekdays)
		mustRegister(v, "password", func(fl validator.FieldLevel) bool {
			return StrongPassword(fl.Field().String())
		})
		mustRegister(v, "phone10", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			if len(s) != 10 {
				return false
			}
			for _, r := range s {
				if r < '0' || r > '9' {
					return false
				}
			}
			return true
		})
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s: %v", tag, err))
	}
}

func parseWeekday(s string) (time.Weekday, bool) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), s) {
			return d, true
		}
	}
	return 0, false
}

// clockAfter reports whether the field is a later HH:mm than the sibling
// field named by the tag parameter. An unparsable sibling is left to its own
// hhmm rule.
func clockAfter(fl validator.FieldLevel) bool {
	end, err := schedule.ParseClock(fl.Field().String())
	if err != nil {
		return false
	}
	parent := fl.Parent()
	if parent.Kind() == reflect.Pointer {
		parent = parent.Elem()
	}
	sibling := parent.FieldByName(fl.Param())
	if !sibling.IsValid() || sibling.Kind() != reflect.String {
		return false
	}
	start, err := schedule.ParseClock(sibling.String())
	if err != nil {
		return true
	}
	return end > start
}

// validWeekdays accepts an empty list or one covering Monday to Friday.
func validWeekdays(fl validator.FieldLevel) bool {
	hours, ok := fl.Field().Interface().([]schedule.OpeningHours)
	if !ok {
		return false
	}
	if len(hours) == 0 {
		return true
	}
	seen := map[time.Weekday]bool{}
	for _, h := range hours {
		if d, ok := parseWeekday(h.Day); ok {
			seen[d] = true
		}
	}
	for d := time.Monday; d <= time.Friday; d++ {
		if !seen[d] {
			return false
		}
	}
	return true
}

// StrongPassword requires eight characters with an upper case letter, a
// digit and a symbol.
func StrongPassword(s string) bool {
	if len(s) < 8 {
		return false
	}
	var upper, digit, special bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	return upper && digit && special
}

// Decode reads one JSON document from r into a T and validates it.
func Decode[T any](r io.Reader) (T, error) {
	var v T
	dec := json.NewDecoder(r)
	if err := dec.Decode(&v); err != nil {
		return v, Errors{{Field: "body", Message: decodeMessage(err)}}
	}
	return v, Struct(v)
}

func decodeMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return "request body is required"
	case errors.As(err, &typeErr):
		return fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type)
	default:
		return "invalid JSON"
	}
}

// Struct validates v, returning Errors for rule violations.
func Struct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fieldPath(fe.Namespace()), Message: message(fe)})
	}
	return out
}

// fieldPath drops the top-level type name from a namespace like "Request.breaks[0].start".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "hhmm":
		return "must be a time in HH:mm format"
	case "clockafter":
		return "must be later than " + strings.ToLower(fe.Param())
	case "ymd":
		return "must be a date in YYYY-MM-DD format"
	case "weekday":
		return "must be a day of the week"
	case "weekdays":
		return "must include Monday through Friday"
	case "password":
		return "must be at least 8 characters with an uppercase letter, a number and a special character"
	case "phone10":
		return "must be a 10 digit phone number"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}
