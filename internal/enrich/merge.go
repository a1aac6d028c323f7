package enrich

import "github.com/sells-group/crm/internal/model"

// MergePerson copies result fields into p where p's field is empty. It
// reports whether anything changed. Existing values are never replaced.
func MergePerson(p *model.Person, r *PersonResult) bool {
	if p == nil || r == nil {
		return false
	}
	changed := fill(&p.CurrentTitle, r.CurrentTitle)
	changed = fill(&p.CurrentCompany, r.CurrentCompany) || changed
	changed = fill(&p.LinkedInURL, r.LinkedInURL) || changed
	changed = fill(&p.AvatarURL, r.AvatarURL) || changed
	changed = fill(&p.Notes, r.Notes) || changed
	return changed
}

// MergeCompany copies result fields into c where c's field is empty or
// zero. It reports whether anything changed.
func MergeCompany(c *model.Company, r *CompanyResult) bool {
	if c == nil || r == nil {
		return false
	}
	changed := fill(&c.Industry, r.Industry)
	changed = fill(&c.Description, r.Description) || changed
	changed = fill(&c.Website, r.Website) || changed
	changed = fill(&c.Domain, r.Domain) || changed
	changed = fill(&c.LinkedInURL, r.LinkedInURL) || changed

	if r.EmployeeCount != nil && *r.EmployeeCount > 0 && (c.EmployeeCount == nil || *c.EmployeeCount == 0) {
		n := *r.EmployeeCount
		c.EmployeeCount = &n
		changed = true
	}
	if r.EstimatedRevenue != nil && *r.EstimatedRevenue > 0 && (c.EstimatedRevenue == nil || *c.EstimatedRevenue == 0) {
		v := *r.EstimatedRevenue
		c.EstimatedRevenue = &v
		changed = true
	}
	if r.SizeTier != "" && (c.SizeTier == nil || *c.SizeTier == "") {
		t := r.SizeTier
		c.SizeTier = &t
		changed = true
	}
	return changed
}

func fill(dst *string, v string) bool {
	if *dst != "" || v == "" {
		return false
	}
	*dst = v
	return true
}
