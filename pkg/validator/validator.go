package validator

import "strings"

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

// ValidateUser checks the fields accepted on create and update.
// Values are expected to be trimmed by the caller.
func ValidateUser(name, email string) ValidationErrors {
	errs := make(ValidationErrors)

	if strings.TrimSpace(name) == "" {
		errs.Add("name", "Name is required")
	}

	if strings.TrimSpace(email) == "" {
		errs.Add("email", "Email is required")
	}

	return errs
}
