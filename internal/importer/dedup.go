package importer

import (
	"fmt"
	"strings"

	"github.com/sells-group/crm/internal/model"
)

// DedupRows marks later duplicates inside one file as invalid. Rows with an
// email are keyed on it case-insensitively; rows without one on the
// first|last|company composite. Invalid rows are ignored and every row stays
// in the slice.
func DedupRows(rows []RowValidation) {
	seenEmails := make(map[string]bool)
	seenNames := make(map[string]bool)

	for i := range rows {
		v := &rows[i]
		if !v.Valid {
			continue
		}
		if email := strings.ToLower(v.Data["email"]); email != "" {
			if seenEmails[email] {
				v.Valid = false
				v.Errors = append(v.Errors, fmt.Sprintf("Duplicate email %q in file", v.Data["email"]))
				continue
			}
			seenEmails[email] = true
			continue
		}
		key := rowNameKey(v.Data)
		if seenNames[key] {
			v.Valid = false
			v.Errors = append(v.Errors, fmt.Sprintf("Duplicate person %q in file",
				v.Data["first_name"]+" "+v.Data["last_name"]))
			continue
		}
		seenNames[key] = true
	}
}

func rowNameKey(data map[string]string) string {
	return model.NameKey(data["first_name"], data["last_name"], data["current_company"])
}
