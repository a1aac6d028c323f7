package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func valid(data map[string]string) RowValidation {
	return RowValidation{Valid: true, Errors: []string{}, Data: data}
}

func TestDedupRows(t *testing.T) {
	rows := []RowValidation{
		valid(map[string]string{"first_name": "Ada", "last_name": "Lovelace", "email": "ADA@example.com"}),
		valid(map[string]string{"first_name": "Ada", "last_name": "L", "email": "ada@example.com"}),
		valid(map[string]string{"first_name": "Alan", "last_name": "Turing", "current_company": "Bletchley"}),
		valid(map[string]string{"first_name": "alan", "last_name": "TURING", "current_company": "bletchley"}),
		valid(map[string]string{"first_name": "Alan", "last_name": "Turing", "current_company": "NPL"}),
		{Valid: false, Errors: []string{"Row 6: bad"}, Data: map[string]string{"email": "ada@example.com"}},
		valid(map[string]string{"first_name": "Alan", "last_name": "Turing", "email": "alan@example.com", "current_company": "Bletchley"}),
	}

	DedupRows(rows)

	assert.Len(t, rows, 7)
	assert.True(t, rows[0].Valid)
	assert.False(t, rows[1].Valid)
	assert.Equal(t, []string{`Duplicate email "ada@example.com" in file`}, rows[1].Errors)
	assert.True(t, rows[2].Valid)
	assert.False(t, rows[3].Valid)
	assert.Equal(t, []string{`Duplicate person "alan TURING" in file`}, rows[3].Errors)
	assert.True(t, rows[4].Valid, "different company is a different person")
	assert.Equal(t, []string{"Row 6: bad"}, rows[5].Errors, "invalid rows untouched")
	assert.True(t, rows[6].Valid, "email rows are keyed on email only")
}
