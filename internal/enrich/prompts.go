package enrich

import (
	"fmt"
	"strings"
)

// extractionTemperature keeps search-backed answers close to the sources.
const extractionTemperature = 0.2

// systemPrompt steers search-backed models toward the exact company the
// hints describe and toward bare JSON output.
const systemPrompt = `You are a company research API. Identify the EXACT company or person described and return structured data about it.

Rules:
- When employee data is provided (names, emails, LinkedIn URLs, titles, listed employers), use it to identify the correct company. An @acme.co email means the company is acme.co, not another "Acme". Names and geography of employees indicate the company's country.
- Do not substitute a similarly named company.
- Respond with ONLY a valid JSON object or array as requested. No markdown, no code fences, no citations, no text before or after the JSON.`

// PersonPrompt asks for a person's current role and profile.
func PersonPrompt(h PersonHints) string {
	parts := nonEmpty(h.FullName, h.CurrentCompany, h.CurrentTitle, h.Email)

	return fmt.Sprintf(`Search for professional information about this person: %s.

Find their:
- Current job title
- Current company name
- LinkedIn profile URL
- A brief professional summary (1-2 sentences)

Return ONLY a JSON object with these fields (omit fields you can't find):
{
  "current_title": "...",
  "current_company": "...",
  "linkedin_url": "...",
  "notes": "..."
}`, strings.Join(parts, ", "))
}

// CompanyPrompt asks for a company profile. Known employees are listed so
// the model can tell apart companies that share a name.
func CompanyPrompt(h CompanyHints) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Search for information about this company: %s.", strings.Join(nonEmpty(h.Name, h.Domain, h.Website), ", "))

	if len(h.People) > 0 {
		sb.WriteString("\n\nIMPORTANT: known employees at this company. Use their names, email domains, LinkedIn profiles and listed employers to identify the EXACT company:\n")
		for _, p := range h.People {
			details := []string{p.Name}
			if p.Title != "" {
				details = append(details, "title: "+p.Title)
			}
			if p.CurrentCompany != "" {
				details = append(details, "listed employer: "+p.CurrentCompany)
			}
			if p.Email != "" {
				details = append(details, "email: "+p.Email)
			}
			if p.LinkedInURL != "" {
				details = append(details, "linkedin: "+p.LinkedInURL)
			}
			sb.WriteString("- " + strings.Join(details, ", ") + "\n")
		}
	}

	sb.WriteString(`
Find:
- Industry
- Brief description (1-2 sentences)
- Website URL
- LinkedIn company page URL
- Approximate employee count (number)
- Approximate annual revenue in USD (number, no currency symbols)
- Size tier: one of "Micro", "Small", "Medium", "Large", "Enterprise"

Return ONLY a JSON object with these fields (omit fields you can't find):
{
  "industry": "...",
  "description": "...",
  "website": "...",
  "domain": "...",
  "linkedin_url": "...",
  "employee_count": 0,
  "estimated_revenue": 0,
  "size_tier": "..."
}`)
	return sb.String()
}

// BatchCompanyPrompt asks for several companies at once, each tagged with
// its id so results can be matched back.
func BatchCompanyPrompt(items []CompanyInput) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Research the following %d companies and return information about each.\n\nCompanies:\n", len(items))

	for i, it := range items {
		h := it.Hints
		fmt.Fprintf(&sb, "%d. %q (id: %s): %s\n", i+1, h.Name, it.ID, strings.Join(nonEmpty(h.Name, h.Domain, h.Website), ", "))
		if len(h.People) > 0 {
			sb.WriteString("  Known employees:\n")
			for _, p := range h.People {
				details := []string{p.Name}
				if p.Title != "" {
					details = append(details, "title: "+p.Title)
				}
				if p.Email != "" {
					details = append(details, "email: "+p.Email)
				}
				sb.WriteString("  - " + strings.Join(details, ", ") + "\n")
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString(`For each company, find: industry, brief description (1-2 sentences), website URL, domain, LinkedIn company page URL, approximate employee count, approximate annual revenue in USD, and size tier (Micro/Small/Medium/Large/Enterprise).

Return ONLY a JSON array with one object per company, in the same order. Each object must include an "id" field matching the company id above:
[
  {
    "id": "...",
    "industry": "...",
    "description": "...",
    "website": "...",
    "domain": "...",
    "linkedin_url": "...",
    "employee_count": 0,
    "estimated_revenue": 0,
    "size_tier": "..."
  }
]`)
	return sb.String()
}

// ExaCompanyQuery is the natural-language question sent to answer engines.
func ExaCompanyQuery(h CompanyHints) string {
	var known string
	if len(h.People) > 0 {
		names := make([]string, 0, 3)
		for _, p := range h.People[:min(3, len(h.People))] {
			names = append(names, p.Name)
		}
		known = fmt.Sprintf(" Known employees: %s.", strings.Join(names, ", "))
	}
	return fmt.Sprintf("Company profile for %s.%s What is their industry, employee count, annual revenue, company size, website, LinkedIn page, and a brief description?",
		strings.Join(nonEmpty(h.Name, h.Domain, h.Website), ", "), known)
}

// ExaPersonQuery is the person counterpart of ExaCompanyQuery.
func ExaPersonQuery(h PersonHints) string {
	return fmt.Sprintf("Professional profile for %s. What is their current job title, company, LinkedIn URL, and a brief professional summary?",
		strings.Join(nonEmpty(h.FullName, h.CurrentCompany, h.CurrentTitle), ", "))
}

func nonEmpty(vals ...string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
