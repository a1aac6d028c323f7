package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRow(t *testing.T) {
	mapping := map[string]string{
		"First":   "first_name",
		"Last":    "last_name",
		"Name":    "full_name",
		"Email":   "email",
		"Company": "current_company",
		"Junk":    SkipField,
	}

	tests := []struct {
		name      string
		row       Row
		index     int
		wantValid bool
		wantErrs  []string
		wantData  map[string]string
	}{
		{
			name:      "first and last",
			row:       Row{"First": " Ada ", "Last": "Lovelace", "Email": "ada@example.com", "Junk": "x"},
			wantValid: true,
			wantData: map[string]string{
				"first_name": "Ada", "last_name": "Lovelace", "full_name": "",
				"email": "ada@example.com", "current_company": "",
			},
		},
		{
			name:      "full name split",
			row:       Row{"Name": "Grace  Brewster Hopper"},
			wantValid: true,
			wantData: map[string]string{
				"first_name": "Grace", "last_name": "Brewster Hopper",
				"email": "", "current_company": "",
			},
		},
		{
			name:      "last name promoted",
			row:       Row{"Last": "Turing"},
			wantValid: true,
			wantData: map[string]string{
				"first_name": "Turing", "last_name": "", "full_name": "",
				"email": "", "current_company": "",
			},
		},
		{
			name:      "missing name",
			row:       Row{"Email": "x@example.com"},
			index:     4,
			wantValid: false,
			wantErrs:  []string{"Row 5: Name is required (first_name or last_name)"},
		},
		{
			name:      "bad email",
			row:       Row{"First": "Ada", "Email": "not-an-email"},
			index:     1,
			wantValid: false,
			wantErrs:  []string{`Row 2: Invalid email "not-an-email"`},
		},
		{
			name:      "both errors",
			row:       Row{"Email": "a@b"},
			wantValid: false,
			wantErrs: []string{
				"Row 1: Name is required (first_name or last_name)",
				`Row 1: Invalid email "a@b"`,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateRow(tt.row, mapping, tt.index)
			assert.Equal(t, tt.index+1, got.Row)
			assert.Equal(t, tt.wantValid, got.Valid)
			if tt.wantErrs != nil {
				assert.Equal(t, tt.wantErrs, got.Errors)
			} else {
				assert.Empty(t, got.Errors)
			}
			if tt.wantData != nil {
				assert.Equal(t, tt.wantData, got.Data)
			}
		})
	}
}

func TestValidateRow_ValidIffNoErrors(t *testing.T) {
	mapping := map[string]string{"n": "full_name", "e": "email"}
	rows := []Row{
		{"n": "A B", "e": "a@b.co"},
		{"n": "", "e": "a@b.co"},
		{"n": "A", "e": "bad"},
		{"n": "   ", "e": ""},
	}
	for i, r := range rows {
		v := ValidateRow(r, mapping, i)
		assert.Equal(t, len(v.Errors) == 0, v.Valid, "row %d", i)
	}
}

func TestValidateRow_DuplicateTargetPrefersNonEmpty(t *testing.T) {
	mapping := map[string]string{"A Email": "email", "B Email": "email", "First": "first_name"}
	got := ValidateRow(Row{"A Email": "", "B Email": "b@example.com", "First": "Ada"}, mapping, 0)
	require.True(t, got.Valid)
	assert.Equal(t, "b@example.com", got.Data["email"])
}

func TestValidator_Phone(t *testing.T) {
	mapping := map[string]string{"First": "first_name", "Phone": "phone"}
	tests := []struct {
		name   string
		region string
		phone  string
		want   string
	}{
		{"us national", "US", "(650) 253-0000", "+16502530000"},
		{"already e164", "US", "+44 20 7031 3000", "+442070313000"},
		{"gb region", "gb", "020 7031 3000", "+442070313000"},
		{"unparseable kept", "US", "call me", "call me"},
		{"empty region defaults", "", "650-253-0000", "+16502530000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validator{Region: tt.region}.Validate(Row{"First": "Ada", "Phone": tt.phone}, mapping, 0)
			assert.True(t, got.Valid)
			assert.Equal(t, tt.want, got.Data["phone"])
		})
	}
}
