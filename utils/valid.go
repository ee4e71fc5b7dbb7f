// utils/valid.go
package utils

import (
	"errors"
	"html"
	"mime/multipart"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/dkamau/unimart_backend/models"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	// Kenyan mobile numbers: +254 or 0 prefix, Safaricom/Airtel ranges.
	phoneRegex = regexp.MustCompile(`^(\+254|0)[17]\d{8}$`)
)

// SanitizeInput sanitizes user input to prevent XSS and injection attacks
func SanitizeInput(input string) string {
	input = strings.TrimSpace(input)
	input = html.EscapeString(input)

	input = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)

	return input
}

// SearchPattern prepares a user-supplied search term for a case-insensitive
// $regex filter: the term is sanitized the same way stored fields are, then
// regex metacharacters are quoted so it matches as a literal substring.
func SearchPattern(term string) string {
	return regexp.QuoteMeta(SanitizeInput(term))
}

// SanitizeEmail sanitizes and validates an email address
func SanitizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	email = strings.ToLower(email)

	if !emailRegex.MatchString(email) {
		return "", errors.New("invalid email format")
	}

	return email, nil
}

// ValidPhoneNumber reports whether the phone matches the permitted
// national prefixes followed by 8 digits.
func ValidPhoneNumber(phone string) bool {
	return phoneRegex.MatchString(phone)
}

// ApplicationForm is the parsed multipart submission before validation.
type ApplicationForm struct {
	FullName        string
	DateOfBirth     string
	PhoneNumber     string
	PhysicalAddress string
	IDType          string
	IDNumber        string
	UniversityName  string
	Campus          string
	StudentID       string
	Course          string
	YearOfStudy     string
	UniversityEmail string
	TermsAccepted   string

	IDDocument        *multipart.FileHeader
	StudentIDDocument *multipart.FileHeader
}

func addError(errs map[string][]string, field, msg string) {
	errs[field] = append(errs[field], msg)
}

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// ValidateApplicationForm applies the submission rules and returns
// per-field messages. An empty map means the form is valid. No file is
// touched here; document contents are only written after validation passes.
func ValidateApplicationForm(form *ApplicationForm) map[string][]string {
	errs := make(map[string][]string)

	if strings.TrimSpace(form.FullName) == "" {
		addError(errs, "full_name", "The full name field is required.")
	} else if len(form.FullName) > 255 {
		addError(errs, "full_name", "The full name may not be greater than 255 characters.")
	}

	if form.DateOfBirth == "" {
		addError(errs, "date_of_birth", "The date of birth field is required.")
	} else if dob, err := time.Parse("2006-01-02", form.DateOfBirth); err != nil {
		addError(errs, "date_of_birth", "The date of birth is not a valid date.")
	} else if !dob.Before(time.Now().Truncate(24 * time.Hour)) {
		addError(errs, "date_of_birth", "The date of birth must be a date before today.")
	}

	if form.PhoneNumber == "" {
		addError(errs, "phone_number", "The phone number field is required.")
	} else if !ValidPhoneNumber(form.PhoneNumber) {
		addError(errs, "phone_number", "The phone number format is invalid.")
	}

	if strings.TrimSpace(form.PhysicalAddress) == "" {
		addError(errs, "physical_address", "The physical address field is required.")
	} else if len(form.PhysicalAddress) > 500 {
		addError(errs, "physical_address", "The physical address may not be greater than 500 characters.")
	}

	if !oneOf(form.IDType, models.AllowedIDTypes) {
		addError(errs, "id_type", "The selected id type is invalid.")
	}

	if strings.TrimSpace(form.IDNumber) == "" {
		addError(errs, "id_number", "The id number field is required.")
	} else if len(form.IDNumber) > 50 {
		addError(errs, "id_number", "The id number may not be greater than 50 characters.")
	}

	if strings.TrimSpace(form.UniversityName) == "" {
		addError(errs, "university_name", "The university name field is required.")
	}
	if strings.TrimSpace(form.Campus) == "" {
		addError(errs, "campus", "The campus field is required.")
	}
	if strings.TrimSpace(form.StudentID) == "" {
		addError(errs, "student_id", "The student id field is required.")
	} else if len(form.StudentID) > 100 {
		addError(errs, "student_id", "The student id may not be greater than 100 characters.")
	}
	if strings.TrimSpace(form.Course) == "" {
		addError(errs, "course", "The course field is required.")
	}

	if !oneOf(form.YearOfStudy, models.AllowedStudyYears) {
		addError(errs, "year_of_study", "The selected year of study is invalid.")
	}

	if form.UniversityEmail == "" {
		addError(errs, "university_email", "The university email field is required.")
	} else if _, err := SanitizeEmail(form.UniversityEmail); err != nil {
		addError(errs, "university_email", "The university email must be a valid email address.")
	}

	if form.IDDocument == nil {
		addError(errs, "id_document", "The id document field is required.")
	} else if err := ValidateDocument(form.IDDocument); err != nil {
		addError(errs, "id_document", err.Error())
	}

	if form.StudentIDDocument == nil {
		addError(errs, "student_id_document", "The student id document field is required.")
	} else if err := ValidateDocument(form.StudentIDDocument); err != nil {
		addError(errs, "student_id_document", err.Error())
	}

	if form.TermsAccepted != "true" && form.TermsAccepted != "1" && form.TermsAccepted != "on" {
		addError(errs, "terms_accepted", "The terms accepted field must be accepted.")
	}

	return errs
}
