package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/crm/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS kanban_columns (
	id         TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL,
	title      TEXT NOT NULL,
	color      TEXT NOT NULL DEFAULT '#6366f1',
	position   INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS companies (
	id                TEXT PRIMARY KEY,
	owner_id          TEXT NOT NULL,
	name              TEXT NOT NULL,
	domain            TEXT NOT NULL DEFAULT '',
	website           TEXT NOT NULL DEFAULT '',
	linkedin_url      TEXT NOT NULL DEFAULT '',
	industry          TEXT NOT NULL DEFAULT '',
	description       TEXT NOT NULL DEFAULT '',
	employee_count    INTEGER,
	estimated_revenue REAL,
	size_tier         TEXT,
	logo_url          TEXT NOT NULL DEFAULT '',
	kanban_column_id  TEXT REFERENCES kanban_columns(id) ON DELETE SET NULL,
	kanban_position   REAL,
	created_at        DATETIME NOT NULL,
	updated_at        DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS people (
	id                   TEXT PRIMARY KEY,
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
	linkedin_enriched_at DATETIME,
	kanban_column_id     TEXT REFERENCES kanban_columns(id) ON DELETE SET NULL,
	kanban_position      REAL,
	created_at           DATETIME NOT NULL,
	updated_at           DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS import_history (
	id             TEXT PRIMARY KEY,
	owner_id       TEXT NOT NULL,
	filename       TEXT NOT NULL,
	file_type      TEXT NOT NULL,
	row_count      INTEGER NOT NULL DEFAULT 0,
	success_count  INTEGER NOT NULL DEFAULT 0,
	error_count    INTEGER NOT NULL DEFAULT 0,
	skipped_count  INTEGER NOT NULL DEFAULT 0,
	column_mapping TEXT,
	errors         TEXT,
	status         TEXT NOT NULL DEFAULT 'pending',
	created_at     DATETIME NOT NULL,
	completed_at   DATETIME
);

CREATE INDEX IF NOT EXISTS idx_people_owner ON people(owner_id);
CREATE INDEX IF NOT EXISTS idx_people_owner_email ON people(owner_id, lower(email));
CREATE INDEX IF NOT EXISTS idx_people_company ON people(company_id);
CREATE INDEX IF NOT EXISTS idx_companies_owner ON companies(owner_id);
CREATE INDEX IF NOT EXISTS idx_companies_column ON companies(kanban_column_id);
CREATE INDEX IF NOT EXISTS idx_columns_owner ON kanban_columns(owner_id);
CREATE INDEX IF NOT EXISTS idx_import_history_owner ON import_history(owner_id);
`

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- People ---

func (s *SQLiteStore) CreatePerson(ctx context.Context, p *model.Person) error {
	if err := requireOwner(p.OwnerID); err != nil {
		return err
	}
	stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO people (`+personColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		personArgs(p)...,
	)
	return eris.Wrap(err, "sqlite: insert person")
}

// CreatePeople inserts all people in one transaction; the batch fails as a unit.
func (s *SQLiteStore) CreatePeople(ctx context.Context, people []model.Person) error {
	if len(people) == 0 {
		return nil
	}
	return s.inTx(ctx, "insert people", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO people (`+personColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close() //nolint:errcheck
		for i := range people {
			p := &people[i]
			if err := requireOwner(p.OwnerID); err != nil {
				return err
			}
			stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt)
			if _, err := stmt.ExecContext(ctx, personArgs(p)...); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteStore) GetPerson(ctx context.Context, owner, id string) (*model.Person, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM people WHERE owner_id = ? AND id = ?`, owner, id)
	p, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: person %s", id)
	}
	return p, eris.Wrapf(err, "sqlite: get person %s", id)
}

func (s *SQLiteStore) UpdatePerson(ctx context.Context, p *model.Person) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE people SET first_name = ?, last_name = ?, email = ?, phone = ?, linkedin_url = ?,
			current_title = ?, current_company = ?, company_id = ?, category = ?, notes = ?, avatar_url = ?,
			linkedin_enriched_at = ?, kanban_column_id = ?, kanban_position = ?, updated_at = ?
		 WHERE owner_id = ? AND id = ?`,
		p.FirstName, p.LastName, p.Email, p.Phone, p.LinkedInURL,
		p.CurrentTitle, p.CurrentCompany, p.CompanyID, p.Category, p.Notes, p.AvatarURL,
		p.LinkedInEnrichedAt, p.KanbanColumnID, p.KanbanPosition, p.UpdatedAt,
		p.OwnerID, p.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update person %s", p.ID)
	}
	return checkRowsAffected(res, "person", p.ID)
}

func (s *SQLiteStore) DeletePerson(ctx context.Context, owner, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM people WHERE owner_id = ? AND id = ?`, owner, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete person %s", id)
	}
	return checkRowsAffected(res, "person", id)
}

func (s *SQLiteStore) ListPeople(ctx context.Context, owner string, filter ListFilter) ([]model.Person, error) {
	query := `SELECT ` + personColumns + ` FROM people WHERE owner_id = ?`
	args := []any{owner}
	if strings.TrimSpace(filter.Query) != "" {
		query += ` AND (lower(first_name || ' ' || last_name) LIKE ? OR lower(email) LIKE ? OR lower(current_company) LIKE ?)`
		pat := filter.pattern()
		args = append(args, pat, pat, pat)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	args = append(args, filter.limit(), filter.Offset)
	return s.queryPeople(ctx, "list people", query, args...)
}

func (s *SQLiteStore) ListPeopleByCompanies(ctx context.Context, owner string, companyIDs []string, limit int) ([]model.Person, error) {
	if len(companyIDs) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(companyIDs)), ", ")
	args := []any{owner}
	for _, id := range companyIDs {
		args = append(args, id)
	}
	args = append(args, limit)
	return s.queryPeople(ctx, "list people by company",
		`SELECT `+personColumns+` FROM people WHERE owner_id = ? AND company_id IN (`+placeholders+`)
		 ORDER BY created_at, id LIMIT ?`, args...)
}

func (s *SQLiteStore) PersonKeys(ctx context.Context, owner string) ([]model.PersonKey, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT email, first_name, last_name, current_company FROM people WHERE owner_id = ?`, owner)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: person keys")
	}
	defer rows.Close()

	var keys []model.PersonKey
	for rows.Next() {
		var k model.PersonKey
		if err := rows.Scan(&k.Email, &k.FirstName, &k.LastName, &k.CurrentCompany); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan person key")
		}
		keys = append(keys, k)
	}
	return keys, eris.Wrap(rows.Err(), "sqlite: person keys iterate")
}

func (s *SQLiteStore) queryPeople(ctx context.Context, op, query string, args ...any) ([]model.Person, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: %s", op)
	}
	defer rows.Close()

	var people []model.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: %s scan", op)
		}
		people = append(people, *p)
	}
	return people, eris.Wrapf(rows.Err(), "sqlite: %s iterate", op)
}

// --- Companies ---

func (s *SQLiteStore) CreateCompany(ctx context.Context, c *model.Company) error {
	if err := requireOwner(c.OwnerID); err != nil {
		return err
	}
	stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO companies (`+companyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		companyArgs(c)...,
	)
	return eris.Wrap(err, "sqlite: insert company")
}

func (s *SQLiteStore) CreateCompanies(ctx context.Context, companies []model.Company) error {
	if len(companies) == 0 {
		return nil
	}
	return s.inTx(ctx, "insert companies", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO companies (`+companyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close() //nolint:errcheck
		for i := range companies {
			c := &companies[i]
			if err := requireOwner(c.OwnerID); err != nil {
				return err
			}
			stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
			if _, err := stmt.ExecContext(ctx, companyArgs(c)...); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteStore) GetCompany(ctx context.Context, owner, id string) (*model.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE owner_id = ? AND id = ?`, owner, id)
	c, err := scanCompany(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: company %s", id)
	}
	return c, eris.Wrapf(err, "sqlite: get company %s", id)
}

func (s *SQLiteStore) UpdateCompany(ctx context.Context, c *model.Company) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE companies SET name = ?, domain = ?, website = ?, linkedin_url = ?, industry = ?,
			description = ?, employee_count = ?, estimated_revenue = ?, size_tier = ?, logo_url = ?,
			kanban_column_id = ?, kanban_position = ?, updated_at = ?
		 WHERE owner_id = ? AND id = ?`,
		c.Name, c.Domain, c.Website, c.LinkedInURL, c.Industry,
		c.Description, c.EmployeeCount, c.EstimatedRevenue, tierString(c.SizeTier), c.LogoURL,
		c.KanbanColumnID, c.KanbanPosition, c.UpdatedAt,
		c.OwnerID, c.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update company %s", c.ID)
	}
	return checkRowsAffected(res, "company", c.ID)
}

func (s *SQLiteStore) DeleteCompany(ctx context.Context, owner, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM companies WHERE owner_id = ? AND id = ?`, owner, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete company %s", id)
	}
	return checkRowsAffected(res, "company", id)
}

func (s *SQLiteStore) ListCompanies(ctx context.Context, owner string, filter ListFilter) ([]model.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE owner_id = ?`
	args := []any{owner}
	if strings.TrimSpace(filter.Query) != "" {
		query += ` AND (lower(name) LIKE ? OR lower(domain) LIKE ? OR lower(industry) LIKE ?)`
		pat := filter.pattern()
		args = append(args, pat, pat, pat)
	}
	query += ` ORDER BY name, id LIMIT ? OFFSET ?`
	args = append(args, filter.limit(), filter.Offset)
	return s.queryCompanies(ctx, "list companies", query, args...)
}

func (s *SQLiteStore) CompanyRefs(ctx context.Context, owner string) ([]model.CompanyRef, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM companies WHERE owner_id = ? ORDER BY created_at, id`, owner)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: company refs")
	}
	defer rows.Close()

	var refs []model.CompanyRef
	for rows.Next() {
		var r model.CompanyRef
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan company ref")
		}
		refs = append(refs, r)
	}
	return refs, eris.Wrap(rows.Err(), "sqlite: company refs iterate")
}

func (s *SQLiteStore) ListBoardCompanies(ctx context.Context, owner string) ([]model.Company, error) {
	return s.queryCompanies(ctx, "list board companies",
		`SELECT `+companyColumns+` FROM companies
		 WHERE owner_id = ? AND kanban_column_id IS NOT NULL
		 ORDER BY kanban_column_id, COALESCE(kanban_position, 0), id`, owner)
}

func (s *SQLiteStore) SetCompanyPlacement(ctx context.Context, owner, id string, columnID *string, position *float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE companies SET kanban_column_id = ?, kanban_position = ?, updated_at = ? WHERE owner_id = ? AND id = ?`,
		columnID, position, time.Now().UTC(), owner, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: place company %s", id)
	}
	return checkRowsAffected(res, "company", id)
}

func (s *SQLiteStore) queryCompanies(ctx context.Context, op, query string, args ...any) ([]model.Company, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: %s", op)
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: %s scan", op)
		}
		companies = append(companies, *c)
	}
	return companies, eris.Wrapf(rows.Err(), "sqlite: %s iterate", op)
}

// --- Kanban columns ---

func (s *SQLiteStore) CreateColumn(ctx context.Context, col *model.KanbanColumn) error {
	if err := requireOwner(col.OwnerID); err != nil {
		return err
	}
	stamp(&col.ID, &col.CreatedAt, &col.UpdatedAt)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kanban_columns (id, owner_id, title, color, position, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		col.ID, col.OwnerID, col.Title, col.Color, col.Position, col.CreatedAt, col.UpdatedAt)
	return eris.Wrap(err, "sqlite: insert column")
}

func (s *SQLiteStore) GetColumn(ctx context.Context, owner, id string) (*model.KanbanColumn, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, color, position, created_at, updated_at FROM kanban_columns WHERE owner_id = ? AND id = ?`,
		owner, id)
	k, err := scanColumn(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: column %s", id)
	}
	return k, eris.Wrapf(err, "sqlite: get column %s", id)
}

func (s *SQLiteStore) ListColumns(ctx context.Context, owner string) ([]model.KanbanColumn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, title, color, position, created_at, updated_at FROM kanban_columns
		 WHERE owner_id = ? ORDER BY position, created_at`, owner)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list columns")
	}
	defer rows.Close()

	var cols []model.KanbanColumn
	for rows.Next() {
		k, err := scanColumn(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan column")
		}
		cols = append(cols, *k)
	}
	return cols, eris.Wrap(rows.Err(), "sqlite: list columns iterate")
}

func (s *SQLiteStore) UpdateColumn(ctx context.Context, col *model.KanbanColumn) error {
	col.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE kanban_columns SET title = ?, color = ?, position = ?, updated_at = ? WHERE owner_id = ? AND id = ?`,
		col.Title, col.Color, col.Position, col.UpdatedAt, col.OwnerID, col.ID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update column %s", col.ID)
	}
	return checkRowsAffected(res, "column", col.ID)
}

// DeleteColumn removes the column and takes its cards off the board.
func (s *SQLiteStore) DeleteColumn(ctx context.Context, owner, id string) error {
	return s.inTx(ctx, "delete column", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE companies SET kanban_column_id = NULL, kanban_position = NULL WHERE owner_id = ? AND kanban_column_id = ?`,
			owner, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE people SET kanban_column_id = NULL, kanban_position = NULL WHERE owner_id = ? AND kanban_column_id = ?`,
			owner, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM kanban_columns WHERE owner_id = ? AND id = ?`, owner, id)
		if err != nil {
			return err
		}
		return checkRowsAffected(res, "column", id)
	})
}

// --- Import history ---

func (s *SQLiteStore) CreateImport(ctx context.Context, h *model.ImportHistory) error {
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
		return eris.Wrap(err, "sqlite: marshal column mapping")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO import_history (id, owner_id, filename, file_type, row_count, column_mapping, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.OwnerID, h.Filename, string(h.FileType), h.RowCount, string(mapping), string(h.Status), h.CreatedAt)
	return eris.Wrap(err, "sqlite: insert import history")
}

func (s *SQLiteStore) FinalizeImport(ctx context.Context, h *model.ImportHistory) error {
	errs, err := json.Marshal(h.Errors)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal import errors")
	}
	if h.CompletedAt == nil {
		now := time.Now().UTC()
		h.CompletedAt = &now
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE import_history SET success_count = ?, error_count = ?, skipped_count = ?, errors = ?,
			status = ?, completed_at = ?
		 WHERE owner_id = ? AND id = ?`,
		h.SuccessCount, h.ErrorCount, h.SkippedCount, string(errs), string(h.Status), h.CompletedAt, h.OwnerID, h.ID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finalize import %s", h.ID)
	}
	return checkRowsAffected(res, "import", h.ID)
}

func (s *SQLiteStore) ListImports(ctx context.Context, owner string, limit int) ([]model.ImportHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, filename, file_type, row_count, success_count, error_count, skipped_count,
			column_mapping, errors, status, created_at, completed_at
		 FROM import_history WHERE owner_id = ? ORDER BY created_at DESC, id LIMIT ?`, owner, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list imports")
	}
	defer rows.Close()

	var out []model.ImportHistory
	for rows.Next() {
		var h model.ImportHistory
		var mapping, errs sql.NullString
		if err := rows.Scan(&h.ID, &h.OwnerID, &h.Filename, &h.FileType, &h.RowCount, &h.SuccessCount,
			&h.ErrorCount, &h.SkippedCount, &mapping, &errs, &h.Status, &h.CreatedAt, &h.CompletedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan import")
		}
		if err := unmarshalNullable(mapping.String, &h.ColumnMapping); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal column mapping")
		}
		if err := unmarshalNullable(errs.String, &h.Errors); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal import errors")
		}
		out = append(out, h)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list imports iterate")
}

func (s *SQLiteStore) Counts(ctx context.Context, owner string) (*Counts, error) {
	var c Counts
	err := s.db.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM people WHERE owner_id = ?),
			(SELECT COUNT(*) FROM companies WHERE owner_id = ?),
			(SELECT COUNT(*) FROM import_history WHERE owner_id = ?),
			(SELECT COUNT(*) FROM people WHERE owner_id = ? AND linkedin_enriched_at IS NOT NULL)`,
		owner, owner, owner, owner,
	).Scan(&c.People, &c.Companies, &c.Imports, &c.EnrichedPeople)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: counts")
	}
	return &c, nil
}

func (s *SQLiteStore) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrapf(err, "sqlite: %s: begin", op)
	}
	if err := fn(tx); err != nil {
		tx.Rollback() //nolint:errcheck
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return eris.Wrapf(err, "sqlite: %s", op)
	}
	return eris.Wrapf(tx.Commit(), "sqlite: %s: commit", op)
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

func unmarshalNullable(s string, v any) error {
	if s == "" || s == "null" {
		return nil
	}
	return json.Unmarshal([]byte(s), v)
}
