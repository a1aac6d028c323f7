package importer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/crm/internal/model"
	"github.com/sells-group/crm/internal/store"
)

const owner = "owner-1"

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "crm.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

// flakyStore fails selected CreatePeople calls (1-based), company inserts
// or key loading.
type flakyStore struct {
	store.Store
	failPeopleCall map[int]bool
	failCompanies  bool
	failKeys       bool
	calls          int
}

func (f *flakyStore) CreateCompanies(ctx context.Context, companies []model.Company) error {
	if f.failCompanies {
		return errors.New("payload too large")
	}
	return f.Store.CreateCompanies(ctx, companies)
}

func (f *flakyStore) CreatePeople(ctx context.Context, people []model.Person) error {
	f.calls++
	if f.failPeopleCall[f.calls] {
		return errors.New("disk full")
	}
	return f.Store.CreatePeople(ctx, people)
}

func (f *flakyStore) PersonKeys(ctx context.Context, owner string) ([]model.PersonKey, error) {
	if f.failKeys {
		return nil, errors.New("connection reset")
	}
	return f.Store.PersonKeys(ctx, owner)
}

func prepare(t *testing.T, csv string) Job {
	t.Helper()
	res, err := Parse("people.csv", strings.NewReader(csv))
	require.NoError(t, err)
	mapping := AutoMapColumns(res.Headers)
	rows := make([]RowValidation, len(res.Rows))
	for i, r := range res.Rows {
		rows[i] = ValidateRow(r, mapping, i)
	}
	DedupRows(rows)
	return Job{Owner: owner, Filename: "people.csv", FileType: res.FileType, Mapping: mapping, Rows: rows}
}

const sampleCSV = `First Name,Last Name,Email,Company,Title
Ada,Lovelace,ada@example.com,Analytical Engines,Countess
Alan,Turing,alan@example.com,Bletchley Park,Cryptanalyst
Joan,Clarke,,BLETCHLEY PARK,Cryptanalyst
Grace,Hopper,not-an-email,Navy,Admiral
,,nobody@example.com,,
Ada,Byron,ADA@example.com,,
`

func TestExecutor_Run(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	var progress []int
	exec := NewExecutor(st, WithProgress(func(p int) { progress = append(progress, p) }))
	res, err := exec.Run(ctx, prepare(t, sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, 3, res.Success)
	assert.Equal(t, 3, res.Errors, "bad email, missing name, in-file duplicate")
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, 6, res.Total)
	assert.Equal(t, []int{100}, progress)

	companies, err := st.CompanyRefs(ctx, owner)
	require.NoError(t, err)
	require.Len(t, companies, 2, "Bletchley Park created once")

	people, err := st.ListPeople(ctx, owner, store.ListFilter{Query: "bletchley"})
	require.NoError(t, err)
	require.Len(t, people, 2)
	require.NotNil(t, people[0].CompanyID)
	require.NotNil(t, people[1].CompanyID)
	assert.Equal(t, *people[0].CompanyID, *people[1].CompanyID)
	assert.Nil(t, people[0].KanbanColumnID)

	imports, err := st.ListImports(ctx, owner, 10)
	require.NoError(t, err)
	require.Len(t, imports, 1)
	h := imports[0]
	assert.Equal(t, model.ImportCompleted, h.Status)
	assert.Equal(t, 6, h.RowCount)
	assert.Equal(t, 3, h.SuccessCount)
	assert.Equal(t, 3, h.ErrorCount)
	assert.NotNil(t, h.CompletedAt)
	assert.Equal(t, "current_company", h.ColumnMapping["Company"])
}

func TestExecutor_Idempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	exec := NewExecutor(st)

	first, err := exec.Run(ctx, prepare(t, sampleCSV))
	require.NoError(t, err)
	require.Equal(t, 3, first.Success)

	second, err := exec.Run(ctx, prepare(t, sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, 0, second.Success)
	assert.Equal(t, first.Success, second.Skipped)

	counts, err := st.Counts(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 3, counts.People)
	assert.Equal(t, 2, counts.Companies)
	assert.Equal(t, 2, counts.Imports)
}

func TestExecutor_ReusesExistingCompanyCaseInsensitive(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	existing := &model.Company{OwnerID: owner, Name: "Analytical Engines"}
	require.NoError(t, st.CreateCompany(ctx, existing))

	csv := "Name,Company\nAda Lovelace,ANALYTICAL ENGINES\nCharles Babbage,analytical engines \n"
	res, err := NewExecutor(st).Run(ctx, prepare(t, csv))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Success)

	refs, err := st.CompanyRefs(ctx, owner)
	require.NoError(t, err)
	require.Len(t, refs, 1)

	people, err := st.ListPeople(ctx, owner, store.ListFilter{})
	require.NoError(t, err)
	for _, p := range people {
		require.NotNil(t, p.CompanyID)
		assert.Equal(t, existing.ID, *p.CompanyID)
	}
}

func TestExecutor_ChunkFailureContinues(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	var b strings.Builder
	b.WriteString("First Name,Email\n")
	for i := range 5 {
		fmt.Fprintf(&b, "P%d,p%d@example.com\n", i, i)
	}

	flaky := &flakyStore{Store: st, failPeopleCall: map[int]bool{2: true}}
	var progress []int
	exec := NewExecutor(flaky, WithChunkSize(2), WithProgress(func(p int) { progress = append(progress, p) }))
	res, err := exec.Run(ctx, prepare(t, b.String()))
	require.NoError(t, err)

	assert.Equal(t, 3, res.Success)
	assert.Equal(t, 2, res.Errors)
	assert.Equal(t, []int{40, 80, 100}, progress)

	imports, err := st.ListImports(ctx, owner, 10)
	require.NoError(t, err)
	require.Len(t, imports, 1)
	assert.Equal(t, model.ImportCompleted, imports[0].Status)
	assert.Equal(t, []model.BatchError{{Batch: 1, Error: "disk full"}}, imports[0].Errors)
}

func TestExecutor_CompanyFailureStillWritesPeople(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	flaky := &flakyStore{Store: st, failCompanies: true}
	res, err := NewExecutor(flaky).Run(ctx, prepare(t, sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Success)

	refs, err := st.CompanyRefs(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, refs)

	people, err := st.ListPeople(ctx, owner, store.ListFilter{})
	require.NoError(t, err)
	require.Len(t, people, 3)
	for _, p := range people {
		assert.Nil(t, p.CompanyID, p.FirstName)
		assert.NotEmpty(t, p.CurrentCompany)
	}

	imports, err := st.ListImports(ctx, owner, 10)
	require.NoError(t, err)
	require.Len(t, imports, 1)
	assert.Equal(t, model.ImportCompleted, imports[0].Status)
	assert.Equal(t, 3, imports[0].SuccessCount)
	assert.Equal(t, []model.BatchError{{Batch: 0, Error: "companies: payload too large"}}, imports[0].Errors)
}

func TestExecutor_StorageFailureMarksFailed(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	flaky := &flakyStore{Store: st, failKeys: true}
	_, err := NewExecutor(flaky).Run(ctx, prepare(t, sampleCSV))
	require.Error(t, err)

	imports, err := st.ListImports(ctx, owner, 10)
	require.NoError(t, err)
	require.Len(t, imports, 1)
	assert.Equal(t, model.ImportFailed, imports[0].Status)
}

func TestExecutor_NoOwner(t *testing.T) {
	st := newTestStore(t)
	job := prepare(t, sampleCSV)
	job.Owner = ""

	_, err := NewExecutor(st).Run(context.Background(), job)
	require.ErrorIs(t, err, ErrNoOwner)

	imports, err := st.ListImports(context.Background(), owner, 10)
	require.NoError(t, err)
	assert.Empty(t, imports)
}

func TestWithChunkSize_Clamps(t *testing.T) {
	assert.Equal(t, MaxChunkSize, NewExecutor(nil, WithChunkSize(0)).chunkSize)
	assert.Equal(t, MaxChunkSize, NewExecutor(nil, WithChunkSize(5000)).chunkSize)
	assert.Equal(t, 50, NewExecutor(nil, WithChunkSize(50)).chunkSize)
}
