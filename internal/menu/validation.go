package menu

import (
	"strings"

	"github.com/google/uuid"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidateCreateMenuItem validates a menu item before creation
func ValidateCreateMenuItem(item *MenuItem) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(item.Name) == "" {
		errors = append(errors, ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}

	if item.Price.Full < 0 {
		errors = append(errors, ValidationError{
			Field:   "price.full",
			Message: "full price cannot be negative",
		})
	}
	if item.Price.Half < 0 {
		errors = append(errors, ValidationError{
			Field:   "price.half",
			Message: "half price cannot be negative",
		})
	}
	if !item.NoPortion && item.Price.Half > item.Price.Full {
		errors = append(errors, ValidationError{
			Field:   "price.half",
			Message: "half price cannot exceed full price",
		})
	}

	if !validCategory(item.Category) {
		errors = append(errors, ValidationError{
			Field:   "category",
			Message: "category must be one of: " + strings.Join(Categories, ", "),
		})
	}

	return errors
}

// ValidateUpdateMenuItem validates a menu item before update
func ValidateUpdateMenuItem(item *MenuItem) []ValidationError {
	errors := ValidateCreateMenuItem(item)

	if item.ID == uuid.Nil {
		errors = append(errors, ValidationError{
			Field:   "id",
			Message: "id is required for update",
		})
	}

	return errors
}

func validCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}
