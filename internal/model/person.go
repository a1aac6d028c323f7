package model

import (
	"strings"
	"time"
)

// Person is a contact owned by a single account.
type Person struct {
	ID                 string     `json:"id" db:"id"`
	OwnerID            string     `json:"owner_id" db:"owner_id"`
	FirstName          string     `json:"first_name" db:"first_name"`
	LastName           string     `json:"last_name" db:"last_name"`
	Email              string     `json:"email,omitempty" db:"email"`
	Phone              string     `json:"phone,omitempty" db:"phone"`
	LinkedInURL        string     `json:"linkedin_url,omitempty" db:"linkedin_url"`
	CurrentTitle       string     `json:"current_title,omitempty" db:"current_title"`
	CurrentCompany     string     `json:"current_company,omitempty" db:"current_company"`
	CompanyID          *string    `json:"company_id,omitempty" db:"company_id"`
	Category           string     `json:"category,omitempty" db:"category"`
	Notes              string     `json:"notes,omitempty" db:"notes"`
	AvatarURL          string     `json:"avatar_url,omitempty" db:"avatar_url"`
	LinkedInEnrichedAt *time.Time `json:"linkedin_enriched_at,omitempty" db:"linkedin_enriched_at"`
	KanbanColumnID     *string    `json:"kanban_column_id,omitempty" db:"kanban_column_id"`
	KanbanPosition     *float64   `json:"kanban_position,omitempty" db:"kanban_position"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// FullName joins first and last name.
func (p Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// PersonKey is the projection used for duplicate detection.
type PersonKey struct {
	Email          string
	FirstName      string
	LastName       string
	CurrentCompany string
}

// NameKey is the lowercase first|last|company composite used when a person
// has no email.
func NameKey(first, last, company string) string {
	return strings.ToLower(first) + "|" + strings.ToLower(last) + "|" + strings.ToLower(company)
}
