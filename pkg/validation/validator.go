package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	validate = validator.New()

	// Tickers are Yahoo-style symbols: uppercase letters, digits, and the
	// odd separator (BRK.B, ^GSPC, RELIANCE.NS).
	tickerPattern = regexp.MustCompile(`^[\^]?[A-Z0-9][A-Z0-9.\-]{0,11}$`)
	goalPattern   = regexp.MustCompile(`^[a-z][a-z0-9_]{1,49}$`)
)

// ValidationError carries a field-level validation failure.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}
	var messages []string
	for _, err := range ve {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

func init() {
	validate.RegisterValidation("ticker", validateTicker)
	validate.RegisterValidation("goalkey", validateGoalKey)
	validate.RegisterValidation("risk", validateRisk)
}

func validateTicker(fl validator.FieldLevel) bool {
	ticker, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return tickerPattern.MatchString(ticker)
}

func validateGoalKey(fl validator.FieldLevel) bool {
	goal, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return goalPattern.MatchString(goal)
}

func validateRisk(fl validator.FieldLevel) bool {
	risk, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	switch risk {
	case "low", "medium", "high":
		return true
	}
	return false
}

// ValidateStruct validates a struct using its validate tags.
func ValidateStruct(s interface{}) ValidationErrors {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var errors ValidationErrors
	for _, err := range err.(validator.ValidationErrors) {
		errors = append(errors, ValidationError{
			Field:   err.Field(),
			Message: getErrorMessage(err.Field(), err.Tag(), err.Param()),
			Value:   err.Value(),
		})
	}
	return errors
}

func getErrorMessage(field, tag, param string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "ticker":
		return fmt.Sprintf("%s must be a valid ticker symbol", field)
	case "goalkey":
		return fmt.Sprintf("%s must be a lowercase goal identifier", field)
	case "risk":
		return fmt.Sprintf("%s must be low, medium, or high", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, tag)
	}
}

// SanitizeString strips control characters and trims whitespace.
func SanitizeString(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
