package importer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/sells-group/crm/internal/model"
)

// DefaultRegion is the phone region assumed for numbers without a country code.
const DefaultRegion = "US"

// RowValidation is the outcome of validating one data row.
type RowValidation struct {
	Row    int               `json:"row"`
	Valid  bool              `json:"valid"`
	Errors []string          `json:"errors"`
	Data   map[string]string `json:"data"`
}

// Validator validates mapped rows. Region is used to normalize phone numbers.
type Validator struct {
	Region string
}

// ValidateRow validates row with the default phone region.
func ValidateRow(row Row, mapping map[string]string, index int) RowValidation {
	return Validator{Region: DefaultRegion}.Validate(row, mapping, index)
}

// Validate projects row through mapping and checks it. index is zero-based;
// error strings use index+1.
func (v Validator) Validate(row Row, mapping map[string]string, index int) RowValidation {
	n := index + 1
	res := RowValidation{Row: n, Errors: []string{}, Data: make(map[string]string)}

	sources := make([]string, 0, len(mapping))
	for src := range mapping {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	data := res.Data
	for _, src := range sources {
		field := mapping[src]
		if field == SkipField || field == "" {
			continue
		}
		value := strings.TrimSpace(row[src])
		// two columns on one field: first non-empty wins
		if prev, ok := data[field]; ok && prev != "" {
			continue
		}
		data[field] = value
	}

	if data["full_name"] != "" && data["first_name"] == "" && data["last_name"] == "" {
		parts := strings.Fields(data["full_name"])
		data["first_name"] = parts[0]
		data["last_name"] = strings.Join(parts[1:], " ")
		delete(data, "full_name")
	}

	if data["first_name"] == "" && data["last_name"] == "" {
		res.Errors = append(res.Errors, fmt.Sprintf("Row %d: Name is required (first_name or last_name)", n))
	}

	if data["first_name"] == "" && data["last_name"] != "" {
		data["first_name"] = data["last_name"]
		data["last_name"] = ""
	}

	if email := data["email"]; email != "" && !model.ValidEmail(email) {
		res.Errors = append(res.Errors, fmt.Sprintf("Row %d: Invalid email %q", n, email))
	}

	if phone := data["phone"]; phone != "" {
		data["phone"] = v.normalizePhone(phone)
	}

	res.Valid = len(res.Errors) == 0
	return res
}

// normalizePhone formats phone as E.164 when it parses as a valid number and
// returns it unchanged otherwise.
func (v Validator) normalizePhone(phone string) string {
	region := v.Region
	if region == "" {
		region = DefaultRegion
	}
	num, err := phonenumbers.Parse(phone, strings.ToUpper(region))
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return phone
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}
