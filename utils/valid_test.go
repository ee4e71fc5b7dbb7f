package utils

import (
	"mime/multipart"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidPhoneNumber(t *testing.T) {
	valid := []string{
		"0712345678",
		"0112345678",
		"+254712345678",
		"+254112345678",
	}
	for _, phone := range valid {
		assert.True(t, ValidPhoneNumber(phone), "expected %s to be valid", phone)
	}

	invalid := []string{
		"",
		"0812345678",     // unsupported range
		"071234567",      // too short
		"07123456789",    // too long
		"254712345678",   // missing + prefix
		"+255712345678",  // wrong country code
		"07 1234 5678",   // spaces
		"abcdefghij",
	}
	for _, phone := range invalid {
		assert.False(t, ValidPhoneNumber(phone), "expected %s to be invalid", phone)
	}
}

func TestSanitizeEmail(t *testing.T) {
	email, err := SanitizeEmail("  Student@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "student@example.com", email)

	_, err = SanitizeEmail("not-an-email")
	assert.Error(t, err)
}

func TestSanitizeInputStripsMarkup(t *testing.T) {
	out := SanitizeInput("  <script>alert(1)</script>  ")
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "\n")
}

func TestSearchPattern(t *testing.T) {
	// Metacharacters in a search term must compile and match literally.
	re, err := regexp.Compile(SearchPattern("a(b["))
	require.NoError(t, err)
	assert.True(t, re.MatchString("a(b["))

	re, err = regexp.Compile(SearchPattern("jane.doe"))
	require.NoError(t, err)
	assert.True(t, re.MatchString("jane.doe@uni.ac.ke"))
	assert.False(t, re.MatchString("janeXdoe"))

	assert.Equal(t, "wanjiku", SearchPattern(" wanjiku "))
}

func documentHeader(name string, size int64) *multipart.FileHeader {
	return &multipart.FileHeader{Filename: name, Size: size}
}

func validForm() *ApplicationForm {
	return &ApplicationForm{
		FullName:          "Jane Wanjiku",
		DateOfBirth:       "2002-04-15",
		PhoneNumber:       "0712345678",
		PhysicalAddress:   "123 Riverside Drive, Nairobi",
		IDType:            "National ID",
		IDNumber:          "34567890",
		UniversityName:    "University of Nairobi",
		Campus:            "Main Campus",
		StudentID:         "UON/2021/1234",
		Course:            "Computer Science",
		YearOfStudy:       "Year 3",
		UniversityEmail:   "jane.wanjiku@students.uonbi.ac.ke",
		TermsAccepted:     "true",
		IDDocument:        documentHeader("id.pdf", 1024),
		StudentIDDocument: documentHeader("student.jpg", 2048),
	}
}

func TestValidateApplicationFormAccepts(t *testing.T) {
	errs := ValidateApplicationForm(validForm())
	assert.Empty(t, errs)
}

func TestValidateApplicationFormRequiredFields(t *testing.T) {
	errs := ValidateApplicationForm(&ApplicationForm{})

	for _, field := range []string{
		"full_name", "date_of_birth", "phone_number", "physical_address",
		"id_type", "id_number", "university_name", "campus", "student_id",
		"course", "year_of_study", "university_email",
		"id_document", "student_id_document", "terms_accepted",
	} {
		assert.Contains(t, errs, field, "expected an error for %s", field)
	}
}

func TestValidateApplicationFormRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ApplicationForm)
		field  string
	}{
		{"invalid phone", func(f *ApplicationForm) { f.PhoneNumber = "0812345678" }, "phone_number"},
		{"future date of birth", func(f *ApplicationForm) { f.DateOfBirth = "2100-01-01" }, "date_of_birth"},
		{"malformed date", func(f *ApplicationForm) { f.DateOfBirth = "15/04/2002" }, "date_of_birth"},
		{"unknown id type", func(f *ApplicationForm) { f.IDType = "Driving Licence" }, "id_type"},
		{"unknown study year", func(f *ApplicationForm) { f.YearOfStudy = "Year 7" }, "year_of_study"},
		{"bad university email", func(f *ApplicationForm) { f.UniversityEmail = "not-an-email" }, "university_email"},
		{"terms not accepted", func(f *ApplicationForm) { f.TermsAccepted = "false" }, "terms_accepted"},
		{"overlong name", func(f *ApplicationForm) { f.FullName = strings.Repeat("a", 256) }, "full_name"},
		{"oversized document", func(f *ApplicationForm) { f.IDDocument = documentHeader("id.pdf", 6*1024*1024) }, "id_document"},
		{"wrong document type", func(f *ApplicationForm) { f.StudentIDDocument = documentHeader("student.gif", 1024) }, "student_id_document"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			tt.mutate(form)
			errs := ValidateApplicationForm(form)
			assert.Contains(t, errs, tt.field)
		})
	}
}
