package booking

import (
	"regexp"
	"strings"
)

// ClientInfo is the free-form client detail entered on the form.
type ClientInfo struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Notes    string `json:"notes"`
}

// FieldError is a submit-time validation failure for one field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var (
	phoneRe = regexp.MustCompile(`^\+?[0-9()\-\s.]{7,20}$`)
	emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// ValidateSubmission checks the selection and client details at submit time
// and returns one error per missing or invalid field. Availability is not
// re-checked here; the booking endpoint is authoritative and may still
// reject with a conflict.
func ValidateSubmission(sel Selection, info ClientInfo) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(info.FullName) == "" {
		errs = append(errs, FieldError{Field: "full_name", Message: "Name is required"})
	}
	phone := strings.TrimSpace(info.Phone)
	switch {
	case phone == "":
		errs = append(errs, FieldError{Field: "phone", Message: "Phone number is required"})
	case !phoneRe.MatchString(phone):
		errs = append(errs, FieldError{Field: "phone", Message: "Enter a valid phone number"})
	}
	if email := strings.TrimSpace(info.Email); email != "" && !emailRe.MatchString(email) {
		errs = append(errs, FieldError{Field: "email", Message: "Enter a valid email address"})
	}
	if len(sel.ServiceIDs) == 0 {
		errs = append(errs, FieldError{Field: "services", Message: "Pick at least one service"})
	}
	if sel.BarberID == 0 {
		errs = append(errs, FieldError{Field: "barber", Message: "Pick a barber"})
	}
	if sel.Date == nil {
		errs = append(errs, FieldError{Field: "date", Message: "Pick a date"})
	}
	if sel.Time == "" {
		errs = append(errs, FieldError{Field: "time", Message: "Pick a time slot"})
	}
	return errs
}
