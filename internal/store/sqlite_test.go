package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/crm/internal/model"
)

const owner = "owner-1"

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func ptr[T any](v T) *T { return &v }

// --- People ---

func TestSQLite_PersonCRUD(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	p := &model.Person{OwnerID: owner, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
	require.NoError(t, st.CreatePerson(ctx, p))
	assert.NotEmpty(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())

	got, err := st.GetPerson(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.FirstName)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.Nil(t, got.CompanyID)
	assert.Nil(t, got.LinkedInEnrichedAt)

	now := time.Now().UTC().Truncate(time.Second)
	got.CurrentTitle = "Analyst"
	got.LinkedInEnrichedAt = &now
	require.NoError(t, st.UpdatePerson(ctx, got))

	again, err := st.GetPerson(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Analyst", again.CurrentTitle)
	require.NotNil(t, again.LinkedInEnrichedAt)
	assert.True(t, now.Equal(*again.LinkedInEnrichedAt))

	require.NoError(t, st.DeletePerson(ctx, owner, p.ID))
	_, err = st.GetPerson(ctx, owner, p.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_PersonOwnerScoping(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	p := &model.Person{OwnerID: owner, FirstName: "Ada"}
	require.NoError(t, st.CreatePerson(ctx, p))

	_, err := st.GetPerson(ctx, "someone-else", p.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	err = st.DeletePerson(ctx, "someone-else", p.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	people, err := st.ListPeople(ctx, "someone-else", ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, people)
}

func TestSQLite_CreatePerson_RequiresOwner(t *testing.T) {
	st := newTestSQLiteStore(t)
	err := st.CreatePerson(context.Background(), &model.Person{FirstName: "Ada"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "owner id is required")
}

func TestSQLite_CreatePeople_Batch(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	people := []model.Person{
		{OwnerID: owner, FirstName: "Ada", Email: "ada@example.com"},
		{OwnerID: owner, FirstName: "Grace", LastName: "Hopper", CurrentCompany: "Navy"},
	}
	require.NoError(t, st.CreatePeople(ctx, people))
	assert.NotEmpty(t, people[0].ID)
	assert.NotEmpty(t, people[1].ID)

	keys, err := st.PersonKeys(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	assert.Contains(t, keys, model.PersonKey{FirstName: "Grace", LastName: "Hopper", CurrentCompany: "Navy"})
}

func TestSQLite_CreatePeople_FailsAsUnit(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	people := []model.Person{
		{ID: "dup", OwnerID: owner, FirstName: "A"},
		{ID: "dup", OwnerID: owner, FirstName: "B"},
	}
	require.Error(t, st.CreatePeople(ctx, people))

	keys, err := st.PersonKeys(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSQLite_ListPeople_Search(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreatePeople(ctx, []model.Person{
		{OwnerID: owner, FirstName: "Ada", LastName: "Lovelace"},
		{OwnerID: owner, FirstName: "Grace", LastName: "Hopper", Email: "grace@navy.mil"},
	}))

	people, err := st.ListPeople(ctx, owner, ListFilter{Query: "LOVE"})
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.Equal(t, "Ada", people[0].FirstName)

	people, err = st.ListPeople(ctx, owner, ListFilter{Query: "navy"})
	require.NoError(t, err)
	require.Len(t, people, 1)

	people, err = st.ListPeople(ctx, owner, ListFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, people, 1)
}

// --- Companies ---

func TestSQLite_CompanyCRUD(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	c := &model.Company{OwnerID: owner, Name: "Acme"}
	require.NoError(t, st.CreateCompany(ctx, c))

	got, err := st.GetCompany(ctx, owner, c.ID)
	require.NoError(t, err)
	assert.Nil(t, got.SizeTier)
	assert.Nil(t, got.EmployeeCount)

	tier := model.SizeMedium
	got.Industry = "Software"
	got.EmployeeCount = ptr(120)
	got.EstimatedRevenue = ptr(2.5e7)
	got.SizeTier = &tier
	require.NoError(t, st.UpdateCompany(ctx, got))

	again, err := st.GetCompany(ctx, owner, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Software", again.Industry)
	assert.Equal(t, 120, *again.EmployeeCount)
	assert.InDelta(t, 2.5e7, *again.EstimatedRevenue, 0.01)
	assert.Equal(t, model.SizeMedium, *again.SizeTier)

	require.NoError(t, st.DeleteCompany(ctx, owner, c.ID))
	_, err = st.GetCompany(ctx, owner, c.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_CompanyRefsAndRoster(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	companies := []model.Company{{OwnerID: owner, Name: "Acme"}, {OwnerID: owner, Name: "Globex"}}
	require.NoError(t, st.CreateCompanies(ctx, companies))

	refs, err := st.CompanyRefs(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, refs, 2)

	for i := 0; i < 3; i++ {
		require.NoError(t, st.CreatePerson(ctx, &model.Person{OwnerID: owner, FirstName: "P", CompanyID: &companies[0].ID}))
	}
	require.NoError(t, st.CreatePerson(ctx, &model.Person{OwnerID: owner, FirstName: "Q", CompanyID: &companies[1].ID}))

	roster, err := st.ListPeopleByCompanies(ctx, owner, []string{companies[0].ID}, 2)
	require.NoError(t, err)
	assert.Len(t, roster, 2)

	roster, err = st.ListPeopleByCompanies(ctx, owner, []string{companies[0].ID, companies[1].ID}, 50)
	require.NoError(t, err)
	assert.Len(t, roster, 4)
}

// --- Kanban ---

func TestSQLite_ColumnsAndPlacement(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	lead := &model.KanbanColumn{OwnerID: owner, Title: "Lead", Color: "#112233", Position: 2}
	won := &model.KanbanColumn{OwnerID: owner, Title: "Won", Color: "#445566", Position: 1}
	require.NoError(t, st.CreateColumn(ctx, lead))
	require.NoError(t, st.CreateColumn(ctx, won))

	cols, err := st.ListColumns(ctx, owner)
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "Won", cols[0].Title)

	c := &model.Company{OwnerID: owner, Name: "Acme"}
	require.NoError(t, st.CreateCompany(ctx, c))
	require.NoError(t, st.SetCompanyPlacement(ctx, owner, c.ID, &lead.ID, ptr(1.5)))

	board, err := st.ListBoardCompanies(ctx, owner)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, lead.ID, *board[0].KanbanColumnID)

	require.NoError(t, st.DeleteColumn(ctx, owner, lead.ID))
	board, err = st.ListBoardCompanies(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, board)

	_, err = st.GetColumn(ctx, owner, lead.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	err = st.DeleteColumn(ctx, owner, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

// --- Import history ---

func TestSQLite_ImportHistory(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	h := &model.ImportHistory{
		OwnerID:       owner,
		Filename:      "people.csv",
		FileType:      model.FileCSV,
		RowCount:      3,
		ColumnMapping: map[string]string{"Email": "email"},
		Status:        model.ImportProcessing,
	}
	require.NoError(t, st.CreateImport(ctx, h))

	h.SuccessCount = 2
	h.ErrorCount = 1
	h.Errors = []model.BatchError{{Batch: 0, Error: "boom"}}
	h.Status = model.ImportCompleted
	require.NoError(t, st.FinalizeImport(ctx, h))

	list, err := st.ListImports(ctx, owner, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	got := list[0]
	assert.Equal(t, model.ImportCompleted, got.Status)
	assert.Equal(t, model.FileCSV, got.FileType)
	assert.Equal(t, 2, got.SuccessCount)
	assert.Equal(t, map[string]string{"Email": "email"}, got.ColumnMapping)
	assert.Equal(t, []model.BatchError{{Batch: 0, Error: "boom"}}, got.Errors)
	assert.NotNil(t, got.CompletedAt)
}

func TestSQLite_Counts(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, st.CreatePeople(ctx, []model.Person{
		{OwnerID: owner, FirstName: "A"},
		{OwnerID: owner, FirstName: "B", LinkedInEnrichedAt: &now},
		{OwnerID: "other", FirstName: "C"},
	}))
	require.NoError(t, st.CreateCompany(ctx, &model.Company{OwnerID: owner, Name: "Acme"}))

	c, err := st.Counts(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, Counts{People: 2, Companies: 1, Imports: 0, EnrichedPeople: 1}, *c)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}
