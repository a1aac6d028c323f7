// Package store persists CRM records. Every query is scoped to an owner id.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/crm/internal/model"
)

// ErrNotFound is returned when a record does not exist for the owner.
var ErrNotFound = eris.New("store: not found")

// ListFilter specifies search and paging for list queries.
type ListFilter struct {
	Query  string `json:"q,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

func (f ListFilter) limit() int {
	if f.Limit <= 0 || f.Limit > 500 {
		return 100
	}
	return f.Limit
}

func (f ListFilter) pattern() string {
	return "%" + strings.ToLower(strings.TrimSpace(f.Query)) + "%"
}

// Counts is the dashboard summary for an owner.
type Counts struct {
	People         int `json:"people"`
	Companies      int `json:"companies"`
	Imports        int `json:"imports"`
	EnrichedPeople int `json:"enriched_people"`
}

// Store defines the persistence interface for the CRM.
type Store interface {
	// People
	CreatePerson(ctx context.Context, p *model.Person) error
	CreatePeople(ctx context.Context, people []model.Person) error
	GetPerson(ctx context.Context, owner, id string) (*model.Person, error)
	UpdatePerson(ctx context.Context, p *model.Person) error
	DeletePerson(ctx context.Context, owner, id string) error
	ListPeople(ctx context.Context, owner string, filter ListFilter) ([]model.Person, error)
	ListPeopleByCompanies(ctx context.Context, owner string, companyIDs []string, limit int) ([]model.Person, error)
	PersonKeys(ctx context.Context, owner string) ([]model.PersonKey, error)

	// Companies
	CreateCompany(ctx context.Context, c *model.Company) error
	CreateCompanies(ctx context.Context, companies []model.Company) error
	GetCompany(ctx context.Context, owner, id string) (*model.Company, error)
	UpdateCompany(ctx context.Context, c *model.Company) error
	DeleteCompany(ctx context.Context, owner, id string) error
	ListCompanies(ctx context.Context, owner string, filter ListFilter) ([]model.Company, error)
	CompanyRefs(ctx context.Context, owner string) ([]model.CompanyRef, error)
	ListBoardCompanies(ctx context.Context, owner string) ([]model.Company, error)
	SetCompanyPlacement(ctx context.Context, owner, id string, columnID *string, position *float64) error

	// Kanban columns
	CreateColumn(ctx context.Context, col *model.KanbanColumn) error
	GetColumn(ctx context.Context, owner, id string) (*model.KanbanColumn, error)
	ListColumns(ctx context.Context, owner string) ([]model.KanbanColumn, error)
	UpdateColumn(ctx context.Context, col *model.KanbanColumn) error
	DeleteColumn(ctx context.Context, owner, id string) error

	// Import history
	CreateImport(ctx context.Context, h *model.ImportHistory) error
	FinalizeImport(ctx context.Context, h *model.ImportHistory) error
	ListImports(ctx context.Context, owner string, limit int) ([]model.ImportHistory, error)

	Counts(ctx context.Context, owner string) (*Counts, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// Open returns the Store selected by driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "postgres":
		return NewPostgres(ctx, dsn, nil)
	case "sqlite":
		if dsn == "" {
			dsn = "crm.db"
		}
		return NewSQLite(dsn)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}

func requireOwner(owner string) error {
	if owner == "" {
		return eris.New("store: owner id is required")
	}
	return nil
}

// stamp fills id and timestamps for a new record.
func stamp(id *string, created, updated *time.Time) {
	if *id == "" {
		*id = uuid.New().String()
	}
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

func tierPtr(s *string) *model.SizeTier {
	if s == nil {
		return nil
	}
	t := model.SizeTier(*s)
	return &t
}

func tierString(t *model.SizeTier) *string {
	if t == nil {
		return nil
	}
	s := string(*t)
	return &s
}

type scannable interface {
	Scan(dest ...any) error
}

const personColumns = `id, owner_id, first_name, last_name, email, phone, linkedin_url, current_title,
	current_company, company_id, category, notes, avatar_url, linkedin_enriched_at,
	kanban_column_id, kanban_position, created_at, updated_at`

const companyColumns = `id, owner_id, name, domain, website, linkedin_url, industry, description,
	employee_count, estimated_revenue, size_tier, logo_url, kanban_column_id, kanban_position,
	created_at, updated_at`

// personCopyColumns is personColumns as a slice for COPY.
var personCopyColumns = []string{
	"id", "owner_id", "first_name", "last_name", "email", "phone", "linkedin_url", "current_title",
	"current_company", "company_id", "category", "notes", "avatar_url", "linkedin_enriched_at",
	"kanban_column_id", "kanban_position", "created_at", "updated_at",
}

var companyCopyColumns = []string{
	"id", "owner_id", "name", "domain", "website", "linkedin_url", "industry", "description",
	"employee_count", "estimated_revenue", "size_tier", "logo_url", "kanban_column_id", "kanban_position",
	"created_at", "updated_at",
}

func personArgs(p *model.Person) []any {
	return []any{
		p.ID, p.OwnerID, p.FirstName, p.LastName, p.Email, p.Phone, p.LinkedInURL, p.CurrentTitle,
		p.CurrentCompany, p.CompanyID, p.Category, p.Notes, p.AvatarURL, p.LinkedInEnrichedAt,
		p.KanbanColumnID, p.KanbanPosition, p.CreatedAt, p.UpdatedAt,
	}
}

func companyArgs(c *model.Company) []any {
	return []any{
		c.ID, c.OwnerID, c.Name, c.Domain, c.Website, c.LinkedInURL, c.Industry, c.Description,
		c.EmployeeCount, c.EstimatedRevenue, tierString(c.SizeTier), c.LogoURL, c.KanbanColumnID, c.KanbanPosition,
		c.CreatedAt, c.UpdatedAt,
	}
}

func scanPerson(row scannable) (*model.Person, error) {
	var p model.Person
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.LinkedInURL, &p.CurrentTitle,
		&p.CurrentCompany, &p.CompanyID, &p.Category, &p.Notes, &p.AvatarURL, &p.LinkedInEnrichedAt,
		&p.KanbanColumnID, &p.KanbanPosition, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanCompany(row scannable) (*model.Company, error) {
	var c model.Company
	var tier *string
	err := row.Scan(
		&c.ID, &c.OwnerID, &c.Name, &c.Domain, &c.Website, &c.LinkedInURL, &c.Industry, &c.Description,
		&c.EmployeeCount, &c.EstimatedRevenue, &tier, &c.LogoURL, &c.KanbanColumnID, &c.KanbanPosition,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.SizeTier = tierPtr(tier)
	return &c, nil
}

func scanColumn(row scannable) (*model.KanbanColumn, error) {
	var k model.KanbanColumn
	if err := row.Scan(&k.ID, &k.OwnerID, &k.Title, &k.Color, &k.Position, &k.CreatedAt, &k.UpdatedAt); err != nil {
		return nil, err
	}
	return &k, nil
}
