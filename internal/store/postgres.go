package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/crm/internal/db"
	"github.com/sells-group/crm/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS kanban_columns (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	owner_id   TEXT NOT NULL,
	title      TEXT NOT NULL,
	color      TEXT NOT NULL DEFAULT '#6366f1',
	position   INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS companies (
	id                TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	owner_id          TEXT NOT NULL,
	name              TEXT NOT NULL,
	domain            TEXT NOT NULL DEFAULT '',
	website           TEXT NOT NULL DEFAULT '',
	linkedin_url      TEXT NOT NULL DEFAULT '',
	industry          TEXT NOT NULL DEFAULT '',
	description       TEXT NOT NULL DEFAULT '',
	employee_count    INTEGER,
	estimated_revenue DOUBLE PRECISION,
	size_tier         TEXT CHECK (size_tier IN ('Micro', 'Small', 'Medium', 'Large', 'Enterprise')),
	logo_url          TEXT NOT NULL DEFAULT '',
	kanban_column_id  TEXT REFERENCES kanban_columns(id) ON DELETE SET NULL,
	kanban_position   DOUBLE PRECISION,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS people (
	id                   TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	owner_id             TEXT NOT NULL,
	first_name           TEXT NOT NULL,
	last_name            TEXT NOT NULL DEFAULT '',
	email                TEXT NOT NULL DEFAULT '',
	phone                TEXT NOT NULL DEFAULT '',
	linkedin_url         TEXT NOT NULL DEFAULT '',
	current_title        TEXT NOT NULL DEFAULT '',
	current_company      TEXT NOT NULL DEFAULT '',
	company_id           TEXT REFERENCES companies(id) ON DELETE SET NULL,
	category             TEXT NOT NULL DEFAULT '',
	notes                TEXT NOT NULL DEFAULT '',
	avatar_url           TEXT NOT NULL DEFAULT '',
	linkedin_enriched_at TIMESTAMPTZ,
	kanban_column_id     TEXT REFERENCES kanban_columns(id) ON DELETE SET NULL,
	kanban_position      DOUBLE PRECISION,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS import_history (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	owner_id       TEXT NOT NULL,
	filename       TEXT NOT NULL,
	file_type      TEXT NOT NULL,
	row_count      INTEGER NOT NULL DEFAULT 0,
	success_count  INTEGER NOT NULL DEFAULT 0,
	error_count    INTEGER NOT NULL DEFAULT 0,
	skipped_count  INTEGER NOT NULL DEFAULT 0,
	column_mapping JSONB,
	errors         JSONB,
	status         TEXT NOT NULL DEFAULT 'pending',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at   TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_people_owner ON people(owner_id);
CREATE INDEX IF NOT EXISTS idx_people_owner_email ON people(owner_id, lower(email));
CREATE INDEX IF NOT EXISTS idx_people_company ON people(company_id);
CREATE INDEX IF NOT EXISTS idx_companies_owner ON companies(owner_id);
CREATE INDEX IF NOT EXISTS idx_companies_owner_name ON companies(owner_id, lower(name));
CREATE INDEX IF NOT EXISTS idx_companies_column ON companies(kanban_column_id, kanban_position);
CREATE INDEX IF NOT EXISTS idx_columns_owner ON kanban_columns(owner_id, position);
CREATE INDEX IF NOT EXISTS idx_import_history_owner ON import_history(owner_id, created_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// --- People ---

func (s *PostgresStore) CreatePerson(ctx context.Context, p *model.Person) error {
	if err := requireOwner(p.OwnerID); err != nil {
		return err
	}
	stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO people (`+personColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		personArgs(p)...,
	)
	return eris.Wrap(err, "postgres: insert person")
}

// CreatePeople bulk-inserts with COPY; the batch fails as a unit.
func (s *PostgresStore) CreatePeople(ctx context.Context, people []model.Person) error {
	for i := range people {
		if err := requireOwner(people[i].OwnerID); err != nil {
			return err
		}
		stamp(&people[i].ID, &people[i].CreatedAt, &people[i].UpdatedAt)
	}
	_, err := db.CopyStructs(ctx, s.pool, "people", personCopyColumns, people, func(p model.Person) []any {
		return personArgs(&p)
	})
	return eris.Wrap(err, "postgres: insert people")
}

func (s *PostgresStore) GetPerson(ctx context.Context, owner, id string) (*model.Person, error) {
	p, err := scanPerson(s.pool.QueryRow(ctx,
		`SELECT `+personColumns+` FROM people WHERE owner_id = $1 AND id = $2`, owner, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: person %s", id)
	}
	return p, eris.Wrapf(err, "postgres: get person %s", id)
}

func (s *PostgresStore) UpdatePerson(ctx context.Context, p *model.Person) error {
	p.UpdatedAt = time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE people SET first_name = $1, last_name = $2, email = $3, phone = $4, linkedin_url = $5,
			current_title = $6, current_company = $7, company_id = $8, category = $9, notes = $10, avatar_url = $11,
			linkedin_enriched_at = $12, kanban_column_id = $13, kanban_position = $14, updated_at = $15
		 WHERE owner_id = $16 AND id = $17`,
		p.FirstName, p.LastName, p.Email, p.Phone, p.LinkedInURL,
		p.CurrentTitle, p.CurrentCompany, p.CompanyID, p.Category, p.Notes, p.AvatarURL,
		p.LinkedInEnrichedAt, p.KanbanColumnID, p.KanbanPosition, p.UpdatedAt,
		p.OwnerID, p.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update person %s", p.ID)
	}
	return checkTag(tag, "person", p.ID)
}

func (s *PostgresStore) DeletePerson(ctx context.Context, owner, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM people WHERE owner_id = $1 AND id = $2`, owner, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete person %s", id)
	}
	return checkTag(tag, "person", id)
}

func (s *PostgresStore) ListPeople(ctx context.Context, owner string, filter ListFilter) ([]model.Person, error) {
	if strings.TrimSpace(filter.Query) == "" {
		return s.queryPeople(ctx, "list people",
			`SELECT `+personColumns+` FROM people WHERE owner_id = $1
			 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`,
			owner, filter.limit(), filter.Offset)
	}
	return s.queryPeople(ctx, "list people",
		`SELECT `+personColumns+` FROM people WHERE owner_id = $1
		 AND ((first_name || ' ' || last_name) ILIKE $2 OR email ILIKE $2 OR current_company ILIKE $2)
		 ORDER BY created_at DESC, id LIMIT $3 OFFSET $4`,
		owner, filter.pattern(), filter.limit(), filter.Offset)
}

func (s *PostgresStore) ListPeopleByCompanies(ctx context.Context, owner string, companyIDs []string, limit int) ([]model.Person, error) {
	if len(companyIDs) == 0 {
		return nil, nil
	}
	return s.queryPeople(ctx, "list people by company",
		`SELECT `+personColumns+` FROM people WHERE owner_id = $1 AND company_id = ANY($2)
		 ORDER BY created_at, id LIMIT $3`,
		owner, companyIDs, limit)
}

func (s *PostgresStore) PersonKeys(ctx context.Context, owner string) ([]model.PersonKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT email, first_name, last_name, current_company FROM people WHERE owner_id = $1`, owner)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: person keys")
	}
	defer rows.Close()

	var keys []model.PersonKey
	for rows.Next() {
		var k model.PersonKey
		if err := rows.Scan(&k.Email, &k.FirstName, &k.LastName, &k.CurrentCompany); err != nil {
			return nil, eris.Wrap(err, "postgres: scan person key")
		}
		keys = append(keys, k)
	}
	return keys, eris.Wrap(rows.Err(), "postgres: person keys iterate")
}

func (s *PostgresStore) queryPeople(ctx context.Context, op, query string, args ...any) ([]model.Person, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: %s", op)
	}
	defer rows.Close()

	var people []model.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: %s scan", op)
		}
		people = append(people, *p)
	}
	return people, eris.Wrapf(rows.Err(), "postgres: %s iterate", op)
}

// --- Companies ---

func (s *PostgresStore) CreateCompany(ctx context.Context, c *model.Company) error {
	if err := requireOwner(c.OwnerID); err != nil {
		return err
	}
	stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO companies (`+companyColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		companyArgs(c)...,
	)
	return eris.Wrap(err, "postgres: insert company")
}

func (s *PostgresStore) CreateCompanies(ctx context.Context, companies []model.Company) error {
	for i := range companies {
		if err := requireOwner(companies[i].OwnerID); err != nil {
			return err
		}
		stamp(&companies[i].ID, &companies[i].CreatedAt, &companies[i].UpdatedAt)
	}
	_, err := db.CopyStructs(ctx, s.pool, "companies", companyCopyColumns, companies, func(c model.Company) []any {
		return companyArgs(&c)
	})
	return eris.Wrap(err, "postgres: insert companies")
}

func (s *PostgresStore) GetCompany(ctx context.Context, owner, id string) (*model.Company, error) {
	c, err := scanCompany(s.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE owner_id = $1 AND id = $2`, owner, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: company %s", id)
	}
	return c, eris.Wrapf(err, "postgres: get company %s", id)
}

func (s *PostgresStore) UpdateCompany(ctx context.Context, c *model.Company) error {
	c.UpdatedAt = time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE companies SET name = $1, domain = $2, website = $3, linkedin_url = $4, industry = $5,
			description = $6, employee_count = $7, estimated_revenue = $8, size_tier = $9, logo_url = $10,
			kanban_column_id = $11, kanban_position = $12, updated_at = $13
		 WHERE owner_id = $14 AND id = $15`,
		c.Name, c.Domain, c.Website, c.LinkedInURL, c.Industry,
		c.Description, c.EmployeeCount, c.EstimatedRevenue, tierString(c.SizeTier), c.LogoURL,
		c.KanbanColumnID, c.KanbanPosition, c.UpdatedAt,
		c.OwnerID, c.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update company %s", c.ID)
	}
	return checkTag(tag, "company", c.ID)
}

func (s *PostgresStore) DeleteCompany(ctx context.Context, owner, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM companies WHERE owner_id = $1 AND id = $2`, owner, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete company %s", id)
	}
	return checkTag(tag, "company", id)
}

func (s *PostgresStore) ListCompanies(ctx context.Context, owner string, filter ListFilter) ([]model.Company, error) {
	if strings.TrimSpace(filter.Query) == "" {
		return s.queryCompanies(ctx, "list companies",
			`SELECT `+companyColumns+` FROM companies WHERE owner_id = $1
			 ORDER BY name, id LIMIT $2 OFFSET $3`,
			owner, filter.limit(), filter.Offset)
	}
	return s.queryCompanies(ctx, "list companies",
		`SELECT `+companyColumns+` FROM companies WHERE owner_id = $1
		 AND (name ILIKE $2 OR domain ILIKE $2 OR industry ILIKE $2)
		 ORDER BY name, id LIMIT $3 OFFSET $4`,
		owner, filter.pattern(), filter.limit(), filter.Offset)
}

func (s *PostgresStore) CompanyRefs(ctx context.Context, owner string) ([]model.CompanyRef, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name FROM companies WHERE owner_id = $1 ORDER BY created_at, id`, owner)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: company refs")
	}
	defer rows.Close()

	var refs []model.CompanyRef
	for rows.Next() {
		var r model.CompanyRef
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, eris.Wrap(err, "postgres: scan company ref")
		}
		refs = append(refs, r)
	}
	return refs, eris.Wrap(rows.Err(), "postgres: company refs iterate")
}

func (s *PostgresStore) ListBoardCompanies(ctx context.Context, owner string) ([]model.Company, error) {
	return s.queryCompanies(ctx, "list board companies",
		`SELECT `+companyColumns+` FROM companies
		 WHERE owner_id = $1 AND kanban_column_id IS NOT NULL
		 ORDER BY kanban_column_id, COALESCE(kanban_position, 0), id`, owner)
}

func (s *PostgresStore) SetCompanyPlacement(ctx context.Context, owner, id string, columnID *string, position *float64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE companies SET kanban_column_id = $1, kanban_position = $2, updated_at = $3 WHERE owner_id = $4 AND id = $5`,
		columnID, position, time.Now().UTC(), owner, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: place company %s", id)
	}
	return checkTag(tag, "company", id)
}

func (s *PostgresStore) queryCompanies(ctx context.Context, op, query string, args ...any) ([]model.Company, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: %s", op)
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: %s scan", op)
		}
		companies = append(companies, *c)
	}
	return companies, eris.Wrapf(rows.Err(), "postgres: %s iterate", op)
}

// --- Kanban columns ---

func (s *PostgresStore) CreateColumn(ctx context.Context, col *model.KanbanColumn) error {
	if err := requireOwner(col.OwnerID); err != nil {
		return err
	}
	stamp(&col.ID, &col.CreatedAt, &col.UpdatedAt)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO kanban_columns (id, owner_id, title, color, position, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		col.ID, col.OwnerID, col.Title, col.Color, col.Position, col.CreatedAt, col.UpdatedAt)
	return eris.Wrap(err, "postgres: insert column")
}

func (s *PostgresStore) GetColumn(ctx context.Context, owner, id string) (*model.KanbanColumn, error) {
	k, err := scanColumn(s.pool.QueryRow(ctx,
		`SELECT id, owner_id, title, color, position, created_at, updated_at FROM kanban_columns WHERE owner_id = $1 AND id = $2`,
		owner, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: column %s", id)
	}
	return k, eris.Wrapf(err, "postgres: get column %s", id)
}

func (s *PostgresStore) ListColumns(ctx context.Context, owner string) ([]model.KanbanColumn, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_id, title, color, position, created_at, updated_at FROM kanban_columns
		 WHERE owner_id = $1 ORDER BY position, created_at`, owner)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list columns")
	}
	defer rows.Close()

	var cols []model.KanbanColumn
	for rows.Next() {
		k, err := scanColumn(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan column")
		}
		cols = append(cols, *k)
	}
	return cols, eris.Wrap(rows.Err(), "postgres: list columns iterate")
}

func (s *PostgresStore) UpdateColumn(ctx context.Context, col *model.KanbanColumn) error {
	col.UpdatedAt = time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE kanban_columns SET title = $1, color = $2, position = $3, updated_at = $4 WHERE owner_id = $5 AND id = $6`,
		col.Title, col.Color, col.Position, col.UpdatedAt, col.OwnerID, col.ID)
	if err != nil {
		return eris.Wrapf(err, "postgres: update column %s", col.ID)
	}
	return checkTag(tag, "column", col.ID)
}

// DeleteColumn removes the column and takes its cards off the board.
func (s *PostgresStore) DeleteColumn(ctx context.Context, owner, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: delete column: begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`UPDATE companies SET kanban_column_id = NULL, kanban_position = NULL WHERE owner_id = $1 AND kanban_column_id = $2`,
		owner, id); err != nil {
		return eris.Wrap(err, "postgres: delete column: clear companies")
	}
	if _, err := tx.Exec(ctx,
		`UPDATE people SET kanban_column_id = NULL, kanban_position = NULL WHERE owner_id = $1 AND kanban_column_id = $2`,
		owner, id); err != nil {
		return eris.Wrap(err, "postgres: delete column: clear people")
	}
	tag, err := tx.Exec(ctx, `DELETE FROM kanban_columns WHERE owner_id = $1 AND id = $2`, owner, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete column %s", id)
	}
	if err := checkTag(tag, "column", id); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: delete column: commit")
}

// --- Import history ---

func (s *PostgresStore) CreateImport(ctx context.Context, h *model.ImportHistory) error {
	if err := requireOwner(h.OwnerID); err != nil {
		return err
	}
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	mapping, err := json.Marshal(h.ColumnMapping)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal column mapping")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO import_history (id, owner_id, filename, file_type, row_count, column_mapping, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		h.ID, h.OwnerID, h.Filename, string(h.FileType), h.RowCount, mapping, string(h.Status), h.CreatedAt)
	return eris.Wrap(err, "postgres: insert import history")
}

func (s *PostgresStore) FinalizeImport(ctx context.Context, h *model.ImportHistory) error {
	errs, err := json.Marshal(h.Errors)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal import errors")
	}
	if h.CompletedAt == nil {
		now := time.Now().UTC()
		h.CompletedAt = &now
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE import_history SET success_count = $1, error_count = $2, skipped_count = $3, errors = $4,
			status = $5, completed_at = $6
		 WHERE owner_id = $7 AND id = $8`,
		h.SuccessCount, h.ErrorCount, h.SkippedCount, errs, string(h.Status), h.CompletedAt, h.OwnerID, h.ID)
	if err != nil {
		return eris.Wrapf(err, "postgres: finalize import %s", h.ID)
	}
	return checkTag(tag, "import", h.ID)
}

func (s *PostgresStore) ListImports(ctx context.Context, owner string, limit int) ([]model.ImportHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_id, filename, file_type, row_count, success_count, error_count, skipped_count,
			column_mapping, errors, status, created_at, completed_at
		 FROM import_history WHERE owner_id = $1 ORDER BY created_at DESC, id LIMIT $2`, owner, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list imports")
	}
	defer rows.Close()

	var out []model.ImportHistory
	for rows.Next() {
		var h model.ImportHistory
		var fileType, status string
		var mapping, errs []byte
		if err := rows.Scan(&h.ID, &h.OwnerID, &h.Filename, &fileType, &h.RowCount, &h.SuccessCount,
			&h.ErrorCount, &h.SkippedCount, &mapping, &errs, &status, &h.CreatedAt, &h.CompletedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan import")
		}
		h.FileType = model.FileType(fileType)
		h.Status = model.ImportStatus(status)
		if err := unmarshalNullable(string(mapping), &h.ColumnMapping); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal column mapping")
		}
		if err := unmarshalNullable(string(errs), &h.Errors); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal import errors")
		}
		out = append(out, h)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list imports iterate")
}

func (s *PostgresStore) Counts(ctx context.Context, owner string) (*Counts, error) {
	var c Counts
	err := s.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM people WHERE owner_id = $1),
			(SELECT COUNT(*) FROM companies WHERE owner_id = $1),
			(SELECT COUNT(*) FROM import_history WHERE owner_id = $1),
			(SELECT COUNT(*) FROM people WHERE owner_id = $1 AND linkedin_enriched_at IS NOT NULL)`,
		owner,
	).Scan(&c.People, &c.Companies, &c.Imports, &c.EnrichedPeople)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: counts")
	}
	return &c, nil
}

func checkTag(tag pgconn.CommandTag, entity, id string) error {
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}
