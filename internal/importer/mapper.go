package importer

import (
	_ "embed"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// SkipField marks a source column that should not be imported.
const SkipField = "__skip__"

// Fields lists the canonical person fields a column can map to.
var Fields = []string{
	"first_name", "last_name", "full_name", "email", "phone", "linkedin_url",
	"current_title", "current_company", "category", "notes",
}

//go:embed aliases.yaml
var aliasYAML []byte

type alias struct {
	text  string
	field string
}

var (
	aliasIndex map[string]string
	// aliasOrder is the containment fallback priority: longest alias first,
	// then alphabetical.
	aliasOrder []alias
)

func init() {
	idx, err := loadAliases(aliasYAML)
	if err != nil {
		panic(err)
	}
	aliasIndex = idx
	for text, field := range idx {
		aliasOrder = append(aliasOrder, alias{text: text, field: field})
	}
	sort.Slice(aliasOrder, func(i, j int) bool {
		a, b := aliasOrder[i], aliasOrder[j]
		if len(a.text) != len(b.text) {
			return len(a.text) > len(b.text)
		}
		return a.text < b.text
	})
}

func loadAliases(data []byte) (map[string]string, error) {
	var doc struct {
		Aliases map[string][]string `yaml:"aliases"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "importer: parse alias table")
	}

	known := make(map[string]bool, len(Fields))
	for _, f := range Fields {
		known[f] = true
	}

	idx := make(map[string]string)
	for field, list := range doc.Aliases {
		if !known[field] {
			return nil, eris.Errorf("importer: alias table names unknown field %q", field)
		}
		for _, a := range list {
			a = strings.ToLower(strings.TrimSpace(a))
			if prev, ok := idx[a]; ok && prev != field {
				return nil, eris.Errorf("importer: alias %q maps to both %s and %s", a, prev, field)
			}
			idx[a] = field
		}
	}
	return idx, nil
}

// AutoMapColumns guesses the canonical field for each header. Headers with
// no exact alias fall back to substring containment in either direction;
// unmatched headers map to SkipField.
func AutoMapColumns(headers []string) map[string]string {
	mapping := make(map[string]string, len(headers))
	for _, h := range headers {
		mapping[h] = matchHeader(h)
	}
	return mapping
}

func matchHeader(header string) string {
	normalized := strings.ToLower(strings.TrimSpace(header))
	if normalized == "" {
		return SkipField
	}
	if field, ok := aliasIndex[normalized]; ok {
		return field
	}
	for _, a := range aliasOrder {
		if strings.Contains(normalized, a.text) || strings.Contains(a.text, normalized) {
			return a.field
		}
	}
	return SkipField
}
