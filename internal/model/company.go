// Package model defines the CRM records shared by the import pipeline, the
// enrichment service, the kanban board and the HTTP API.
package model

import (
	"strings"
	"time"
)

// SizeTier buckets a company by headcount.
type SizeTier string

const (
	SizeMicro      SizeTier = "Micro"
	SizeSmall      SizeTier = "Small"
	SizeMedium     SizeTier = "Medium"
	SizeLarge      SizeTier = "Large"
	SizeEnterprise SizeTier = "Enterprise"
)

// SizeTiers lists the tiers from smallest to largest.
var SizeTiers = []SizeTier{SizeMicro, SizeSmall, SizeMedium, SizeLarge, SizeEnterprise}

// ParseSizeTier matches s against the known tiers case-insensitively.
func ParseSizeTier(s string) (SizeTier, bool) {
	s = strings.TrimSpace(s)
	for _, t := range SizeTiers {
		if strings.EqualFold(s, string(t)) {
			return t, true
		}
	}
	return "", false
}

// TierForEmployees derives a size tier from a headcount.
func TierForEmployees(count int) SizeTier {
	switch {
	case count < 10:
		return SizeMicro
	case count < 50:
		return SizeSmall
	case count < 250:
		return SizeMedium
	case count < 1000:
		return SizeLarge
	default:
		return SizeEnterprise
	}
}

// Company is an organization owned by a single account.
type Company struct {
	ID               string     `json:"id" db:"id"`
	OwnerID          string     `json:"owner_id" db:"owner_id"`
	Name             string     `json:"name" db:"name"`
	Domain           string     `json:"domain,omitempty" db:"domain"`
	Website          string     `json:"website,omitempty" db:"website"`
	LinkedInURL      string     `json:"linkedin_url,omitempty" db:"linkedin_url"`
	Industry         string     `json:"industry,omitempty" db:"industry"`
	Description      string     `json:"description,omitempty" db:"description"`
	EmployeeCount    *int       `json:"employee_count,omitempty" db:"employee_count"`
	EstimatedRevenue *float64   `json:"estimated_revenue,omitempty" db:"estimated_revenue"`
	SizeTier         *SizeTier  `json:"size_tier,omitempty" db:"size_tier"`
	LogoURL          string     `json:"logo_url,omitempty" db:"logo_url"`
	KanbanColumnID   *string    `json:"kanban_column_id,omitempty" db:"kanban_column_id"`
	KanbanPosition   *float64   `json:"kanban_position,omitempty" db:"kanban_position"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// CompanyRef is the minimal projection used for name resolution.
type CompanyRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
