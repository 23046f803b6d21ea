package validator

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	verticalNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)
	languageTagRegex  = regexp.MustCompile(`^[a-z]{2,3}(-[A-Z]{2})?$`)
)

func verticalNameValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	return verticalNameRegex.MatchString(val)
}

// languageTagValidator accepts BCP-47 style primary-language[-REGION]
// tags, e.g. "en" or "en-US".
func languageTagValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	return languageTagRegex.MatchString(val)
}

func vocabularyTermValidator(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	trimmed := strings.TrimSpace(val)
	return trimmed != "" && len(trimmed) <= 128
}
