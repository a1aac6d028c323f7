package model

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrInvalid marks a record that fails its form rules.
var ErrInvalid = eris.New("model: invalid record")

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	colorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

// ValidEmail reports whether s has the shape local@domain.tld.
func ValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

// ValidURL reports whether s is an absolute http(s) URL.
func ValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ValidColor reports whether s is a #RRGGBB hex color.
func ValidColor(s string) bool {
	return colorRe.MatchString(s)
}

// Validate checks the person form rules.
func (p *Person) Validate() error {
	if strings.TrimSpace(p.FirstName) == "" {
		return eris.Wrap(ErrInvalid, "model: first name is required")
	}
	if p.Email != "" && !ValidEmail(p.Email) {
		return eris.Wrapf(ErrInvalid, "model: invalid email %q", p.Email)
	}
	if p.LinkedInURL != "" && !ValidURL(p.LinkedInURL) {
		return eris.Wrapf(ErrInvalid, "model: invalid linkedin url %q", p.LinkedInURL)
	}
	return nil
}

// Validate checks the company form rules.
func (c *Company) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return eris.Wrap(ErrInvalid, "model: company name is required")
	}
	if c.Website != "" && !ValidURL(c.Website) {
		return eris.Wrapf(ErrInvalid, "model: invalid website %q", c.Website)
	}
	if c.LinkedInURL != "" && !ValidURL(c.LinkedInURL) {
		return eris.Wrapf(ErrInvalid, "model: invalid linkedin url %q", c.LinkedInURL)
	}
	if c.SizeTier != nil {
		if _, ok := ParseSizeTier(string(*c.SizeTier)); !ok {
			return eris.Wrapf(ErrInvalid, "model: invalid size tier %q", *c.SizeTier)
		}
	}
	if c.EmployeeCount != nil && *c.EmployeeCount < 0 {
		return eris.Wrap(ErrInvalid, "model: employee count must not be negative")
	}
	return nil
}

// Validate checks the kanban column form rules.
func (k *KanbanColumn) Validate() error {
	if strings.TrimSpace(k.Title) == "" {
		return eris.Wrap(ErrInvalid, "model: column title is required")
	}
	if !ValidColor(k.Color) {
		return eris.Wrapf(ErrInvalid, "model: invalid column color %q", k.Color)
	}
	return nil
}
