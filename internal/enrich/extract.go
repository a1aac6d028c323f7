package enrich

import (
	"encoding/json"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sells-group/crm/internal/model"
)

var (
	citeTagRe  = regexp.MustCompile(`</?cite[^>]*>`)
	linkCiteRe = regexp.MustCompile(`\[\d+\]\(https?://[^)]*\)`)
	numCiteRe  = regexp.MustCompile(`\[\d+\]`)
	fullCiteRe = regexp.MustCompile(`【[^】]*】`)

	fenceRe  = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	objectRe = regexp.MustCompile(`(?s)\{.*\}`)
	arrayRe  = regexp.MustCompile(`(?s)\[.*\]`)
)

// StripCitations removes cite tags, [n](url) and [n] markers, and 【…】
// footnotes that search-backed models interleave with their output.
func StripCitations(text string) string {
	text = citeTagRe.ReplaceAllString(text, "")
	text = linkCiteRe.ReplaceAllString(text, "")
	text = numCiteRe.ReplaceAllString(text, "")
	return fullCiteRe.ReplaceAllString(text, "")
}

// ExtractJSON returns the first JSON object found in text: the body of the
// first fenced block if it parses, else the span from the first '{' to the
// last '}'. It returns nil when nothing parses.
func ExtractJSON(text string) map[string]any {
	clean := StripCitations(text)
	if m := fenceRe.FindStringSubmatch(clean); m != nil {
		var obj map[string]any
		if json.Unmarshal([]byte(strings.TrimSpace(m[1])), &obj) == nil && obj != nil {
			return obj
		}
	}
	if span := objectRe.FindString(clean); span != "" {
		var obj map[string]any
		if json.Unmarshal([]byte(span), &obj) == nil && obj != nil {
			return obj
		}
	}
	return nil
}

// ExtractJSONArray is ExtractJSON for a top-level array of objects. Non-object
// elements are dropped.
func ExtractJSONArray(text string) []map[string]any {
	clean := StripCitations(text)
	if m := fenceRe.FindStringSubmatch(clean); m != nil {
		if arr, ok := parseObjectArray(strings.TrimSpace(m[1])); ok {
			return arr
		}
	}
	if span := arrayRe.FindString(clean); span != "" {
		if arr, ok := parseObjectArray(span); ok {
			return arr
		}
	}
	return nil
}

func parseObjectArray(s string) ([]map[string]any, bool) {
	var raw []any
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, false
	}
	out := make([]map[string]any, 0, len(raw))
	for _, v := range raw {
		if obj, ok := v.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out, true
}

// personFromMap reads the person fields of a decoded JSON object.
func personFromMap(m map[string]any) *PersonResult {
	return &PersonResult{
		CurrentTitle:   stringField(m, "current_title"),
		CurrentCompany: stringField(m, "current_company"),
		LinkedInURL:    stringField(m, "linkedin_url"),
		AvatarURL:      stringField(m, "avatar_url"),
		Notes:          stringField(m, "notes"),
	}
}

// companyFromMap reads the company fields of a decoded JSON object. Numbers
// may arrive as JSON numbers or as strings like "1,200".
func companyFromMap(m map[string]any) *CompanyResult {
	r := &CompanyResult{
		Industry:    stringField(m, "industry"),
		Description: stringField(m, "description"),
		Website:     stringField(m, "website"),
		Domain:      stringField(m, "domain"),
		LinkedInURL: stringField(m, "linkedin_url"),
	}
	if n, ok := numberField(m, "employee_count"); ok && n > 0 {
		c := int(math.Round(n))
		r.EmployeeCount = &c
	}
	if n, ok := numberField(m, "estimated_revenue"); ok && n > 0 {
		r.EstimatedRevenue = &n
	}
	if t, ok := model.ParseSizeTier(stringField(m, "size_tier")); ok {
		r.SizeTier = t
	}
	return r
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

func numberField(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case string:
		s := strings.NewReplacer(",", "", "$", "", " ", "").Replace(v)
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return 0, false
}

var (
	industryRe    = regexp.MustCompile(`(?i)(?:industry|sector|operates in|field)[:\s]+([^.,\n]+)`)
	employeesRe   = regexp.MustCompile(`(?i)(?:approximately|about|around|roughly|over|~)?\s*(\d[\d,]+)\s*(?:employees|workers|staff|people)`)
	revenueRe     = regexp.MustCompile(`(?i)\$\s*([\d.]+)\s*(billion|million|B|M)`)
	websiteRe     = regexp.MustCompile(`(?i)(?:website|site|homepage)[:\s]+(?:is\s+)?(https?://[^\s,)]+)`)
	anyURLRe      = regexp.MustCompile(`(?i)(https?://(?:www\.)?[a-z0-9][\w.-]*\.[a-z]{2,}(?:/[^\s,)]*)?)`)
	companyLIRe   = regexp.MustCompile(`(?i)(https?://(?:www\.)?linkedin\.com/company/[^\s,)]+)`)
	personLIRe    = regexp.MustCompile(`(?i)(https?://(?:www\.)?linkedin\.com/in/[^\s,)]+)`)
	titleRe       = regexp.MustCompile(`(?i)(?:title|role|position)[:\s]+([^.,\n]+)`)
	employerRe    = regexp.MustCompile(`(?i)(?:works at|employed at|company|employer)[:\s]+([^.,\n]+)`)
	sentenceSepRe = regexp.MustCompile(`[.!]\s+`)
)

// ParseCompanyText pulls company facts out of free prose. It is the fallback
// for answers that carry no JSON.
func ParseCompanyText(text string) *CompanyResult {
	r := &CompanyResult{}

	if m := industryRe.FindStringSubmatch(text); m != nil {
		r.Industry = strings.TrimSpace(m[1])
	}
	if m := employeesRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil {
			r.EmployeeCount = &n
		}
	}
	if m := revenueRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.ParseFloat(m[1], 64); err == nil {
			switch strings.ToLower(m[2]) {
			case "billion", "b":
				n *= 1_000_000_000
			case "million", "m":
				n *= 1_000_000
			}
			r.EstimatedRevenue = &n
		}
	}

	lower := strings.ToLower(text)
	for _, tier := range model.SizeTiers {
		t := strings.ToLower(string(tier))
		if strings.Contains(lower, t+" ") || strings.Contains(lower, t+"-size") {
			r.SizeTier = tier
			break
		}
	}
	if r.SizeTier == "" && r.EmployeeCount != nil && *r.EmployeeCount > 0 {
		r.SizeTier = model.TierForEmployees(*r.EmployeeCount)
	}

	if m := websiteRe.FindStringSubmatch(text); m != nil {
		r.Website = trimURL(m[1])
	} else if m := anyURLRe.FindStringSubmatch(text); m != nil {
		r.Website = trimURL(m[1])
	}
	if r.Website != "" {
		if u, err := url.Parse(r.Website); err == nil && u.Hostname() != "" {
			r.Domain = strings.TrimPrefix(u.Hostname(), "www.")
		}
	}
	if m := companyLIRe.FindStringSubmatch(text); m != nil {
		r.LinkedInURL = trimURL(m[1])
	}
	r.Description = firstSentence(text)
	return r
}

// ParsePersonText pulls person facts out of free prose.
func ParsePersonText(text string) *PersonResult {
	r := &PersonResult{}
	if m := titleRe.FindStringSubmatch(text); m != nil {
		r.CurrentTitle = strings.TrimSpace(m[1])
	}
	if m := employerRe.FindStringSubmatch(text); m != nil {
		r.CurrentCompany = strings.TrimSpace(m[1])
	}
	if m := personLIRe.FindStringSubmatch(text); m != nil {
		r.LinkedInURL = trimURL(m[1])
	}
	r.Notes = firstSentence(text)
	return r
}

// linkedInCitation returns the first citation that is a LinkedIn profile
// of the kind re matches.
func linkedInCitation(citations []string, re *regexp.Regexp) string {
	for _, c := range citations {
		if m := re.FindStringSubmatch(c); m != nil {
			return trimURL(m[1])
		}
	}
	return ""
}

func trimURL(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), ".")
}

// firstSentence returns the first sentence longer than 20 and shorter than
// 300 characters, terminated with a period.
func firstSentence(text string) string {
	for _, s := range sentenceSepRe.Split(text, -1) {
		n := utf8.RuneCountInString(s)
		if n > 20 && n < 300 {
			return strings.TrimRight(strings.TrimSpace(s), ".!") + "."
		}
	}
	return ""
}
