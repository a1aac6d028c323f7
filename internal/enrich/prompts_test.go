package enrich

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPersonPrompt(t *testing.T) {
	p := PersonPrompt(PersonHints{FullName: "Jane Doe", CurrentCompany: "Acme", Email: "jane@acme.co"})
	assert.Contains(t, p, "this person: Jane Doe, Acme, jane@acme.co.")
	assert.Contains(t, p, `"current_title"`)
}

func TestCompanyPrompt(t *testing.T) {
	t.Run("without roster", func(t *testing.T) {
		p := CompanyPrompt(CompanyHints{Name: "Acme", Domain: "acme.co"})
		assert.Contains(t, p, "this company: Acme, acme.co.")
		assert.NotContains(t, p, "known employees")
	})

	t.Run("with roster", func(t *testing.T) {
		p := CompanyPrompt(CompanyHints{
			Name: "Acme",
			People: []RosterEntry{
				{Name: "Jane Doe", Title: "CTO", Email: "jane@acme.co"},
				{Name: "Bob Roe", CurrentCompany: "Acme Logistics", LinkedInURL: "https://linkedin.com/in/bob"},
			},
		})
		assert.Contains(t, p, "known employees")
		assert.Contains(t, p, "- Jane Doe, title: CTO, email: jane@acme.co\n")
		assert.Contains(t, p, "- Bob Roe, listed employer: Acme Logistics, linkedin: https://linkedin.com/in/bob\n")
	})
}

func TestBatchCompanyPrompt(t *testing.T) {
	p := BatchCompanyPrompt([]CompanyInput{
		{ID: "c1", Hints: CompanyHints{Name: "Acme", Website: "https://acme.co"}},
		{ID: "c2", Hints: CompanyHints{Name: "Globex", People: []RosterEntry{{Name: "Hank Scorpio", Title: "CEO"}}}},
	})
	assert.Contains(t, p, "following 2 companies")
	assert.Contains(t, p, `1. "Acme" (id: c1): Acme, https://acme.co`)
	assert.Contains(t, p, `2. "Globex" (id: c2): Globex`)
	assert.Contains(t, p, "  - Hank Scorpio, title: CEO\n")
	assert.Contains(t, p, `"id" field`)
}

func TestExaQueries(t *testing.T) {
	q := ExaCompanyQuery(CompanyHints{
		Name: "Acme",
		People: []RosterEntry{
			{Name: "A One"}, {Name: "B Two"}, {Name: "C Three"}, {Name: "D Four"},
		},
	})
	assert.Contains(t, q, "Company profile for Acme.")
	assert.Contains(t, q, "Known employees: A One, B Two, C Three.")
	assert.NotContains(t, q, "D Four")

	q = ExaPersonQuery(PersonHints{FullName: "Jane Doe", CurrentTitle: "  "})
	assert.True(t, strings.HasPrefix(q, "Professional profile for Jane Doe."))
}
