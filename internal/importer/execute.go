package importer

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/crm/internal/model"
	"github.com/sells-group/crm/internal/store"
)

// MaxChunkSize caps the number of rows written per insert.
const MaxChunkSize = 500

// ErrNoOwner is returned when an import is started without an owner.
var ErrNoOwner = eris.New("importer: owner id is required")

// ProgressFunc receives the percentage of rows written after each chunk.
type ProgressFunc func(percent int)

// Job is a validated file ready to be written.
type Job struct {
	Owner    string
	Filename string
	FileType model.FileType
	Mapping  map[string]string
	Rows     []RowValidation
}

// Result summarizes an import run.
type Result struct {
	ImportID string `json:"import_id,omitempty"`
	Success  int    `json:"success"`
	Errors   int    `json:"errors"`
	Skipped  int    `json:"skipped"`
	Total    int    `json:"total"`
}

// Executor writes validated rows to the store.
type Executor struct {
	store     store.Store
	chunkSize int
	progress  ProgressFunc
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithChunkSize sets the insert chunk size, clamped to 1..MaxChunkSize.
func WithChunkSize(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 && n <= MaxChunkSize {
			e.chunkSize = n
		}
	}
}

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) ExecutorOption {
	return func(e *Executor) { e.progress = fn }
}

// NewExecutor returns an Executor over s.
func NewExecutor(s store.Store, opts ...ExecutorOption) *Executor {
	e := &Executor{store: s, chunkSize: MaxChunkSize}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run imports job. People that already exist for the owner are skipped,
// missing companies are created, and people are inserted chunk by chunk. A
// failed chunk is recorded and the run continues.
func (e *Executor) Run(ctx context.Context, job Job) (*Result, error) {
	if strings.TrimSpace(job.Owner) == "" {
		return nil, ErrNoOwner
	}
	log := zap.L().With(
		zap.String("component", "importer"),
		zap.String("owner", job.Owner),
		zap.String("filename", job.Filename),
	)

	hist := &model.ImportHistory{
		OwnerID:       job.Owner,
		Filename:      job.Filename,
		FileType:      job.FileType,
		RowCount:      len(job.Rows),
		ColumnMapping: job.Mapping,
		Status:        model.ImportProcessing,
	}
	if err := e.store.CreateImport(ctx, hist); err != nil {
		return nil, eris.Wrap(err, "importer: create import history")
	}

	res, err := e.write(ctx, job, hist, log)
	if err != nil {
		hist.Status = model.ImportFailed
		hist.Errors = append(hist.Errors, model.BatchError{Batch: -1, Error: err.Error()})
		e.finalize(ctx, hist, log)
		return nil, err
	}

	hist.SuccessCount = res.Success
	hist.ErrorCount = res.Errors
	hist.SkippedCount = res.Skipped
	hist.Status = model.ImportCompleted
	e.finalize(ctx, hist, log)

	log.Info("import complete",
		zap.String("import_id", hist.ID),
		zap.Int("success", res.Success),
		zap.Int("errors", res.Errors),
		zap.Int("skipped", res.Skipped),
		zap.Int("total", res.Total),
	)
	return res, nil
}

func (e *Executor) write(ctx context.Context, job Job, hist *model.ImportHistory, log *zap.Logger) (*Result, error) {
	res := &Result{ImportID: hist.ID, Total: len(job.Rows)}

	var (
		keys []model.PersonKey
		refs []model.CompanyRef
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		keys, err = e.store.PersonKeys(gctx, job.Owner)
		return eris.Wrap(err, "importer: load existing people")
	})
	g.Go(func() error {
		var err error
		refs, err = e.store.CompanyRefs(gctx, job.Owner)
		return eris.Wrap(err, "importer: load existing companies")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	existingEmails := make(map[string]bool, len(keys))
	existingNames := make(map[string]bool, len(keys))
	for _, k := range keys {
		if k.Email != "" {
			existingEmails[strings.ToLower(k.Email)] = true
		}
		existingNames[model.NameKey(k.FirstName, k.LastName, k.CurrentCompany)] = true
	}

	invalid := 0
	var rows []map[string]string
	for _, v := range job.Rows {
		if !v.Valid {
			invalid++
			continue
		}
		email := strings.ToLower(v.Data["email"])
		if email != "" && existingEmails[email] {
			res.Skipped++
			continue
		}
		if email == "" && existingNames[rowNameKey(v.Data)] {
			res.Skipped++
			continue
		}
		rows = append(rows, v.Data)
	}

	companies, failed := e.resolveCompanies(ctx, job.Owner, rows, refs)
	for _, be := range failed {
		log.Warn("importer: company chunk insert failed", zap.Int("batch", be.Batch), zap.String("error", be.Error))
		hist.Errors = append(hist.Errors, be)
	}

	for i := 0; i < len(rows); i += e.chunkSize {
		end := min(i+e.chunkSize, len(rows))
		chunk := rows[i:end]

		people := make([]model.Person, len(chunk))
		for j, data := range chunk {
			people[j] = newPerson(job.Owner, data, companies)
		}

		if err := e.store.CreatePeople(ctx, people); err != nil {
			batch := i / e.chunkSize
			log.Warn("importer: chunk insert failed", zap.Int("batch", batch), zap.Error(err))
			res.Errors += len(chunk)
			hist.Errors = append(hist.Errors, model.BatchError{Batch: batch, Error: err.Error()})
		} else {
			res.Success += len(chunk)
		}

		if e.progress != nil {
			e.progress(int(math.Round(float64(end) / float64(len(rows)) * 100)))
		}
	}

	res.Errors += invalid
	return res, nil
}

// resolveCompanies maps folded company names to ids, creating companies the
// owner does not have yet. The first spelling seen in the file is kept. A
// failed chunk is reported and its names stay unresolved, so those people
// are written without a company id.
func (e *Executor) resolveCompanies(ctx context.Context, owner string, rows []map[string]string, refs []model.CompanyRef) (map[string]string, []model.BatchError) {
	ids := make(map[string]string, len(refs))
	for _, r := range refs {
		ids[model.FoldName(r.Name)] = r.ID
	}

	seen := make(map[string]bool)
	var missing []model.Company
	for _, data := range rows {
		name := strings.TrimSpace(data["current_company"])
		if name == "" {
			continue
		}
		key := model.FoldName(name)
		if _, ok := ids[key]; ok || seen[key] {
			continue
		}
		seen[key] = true
		missing = append(missing, model.Company{OwnerID: owner, Name: name})
	}

	var failed []model.BatchError
	for i := 0; i < len(missing); i += e.chunkSize {
		chunk := missing[i:min(i+e.chunkSize, len(missing))]
		if err := e.store.CreateCompanies(ctx, chunk); err != nil {
			failed = append(failed, model.BatchError{
				Batch: i / e.chunkSize,
				Error: "companies: " + err.Error(),
			})
			continue
		}
		for _, c := range chunk {
			ids[model.FoldName(c.Name)] = c.ID
		}
	}
	return ids, failed
}

func newPerson(owner string, data map[string]string, companies map[string]string) model.Person {
	p := model.Person{
		OwnerID:        owner,
		FirstName:      data["first_name"],
		LastName:       data["last_name"],
		Email:          data["email"],
		Phone:          data["phone"],
		LinkedInURL:    data["linkedin_url"],
		CurrentTitle:   data["current_title"],
		CurrentCompany: data["current_company"],
		Category:       data["category"],
		Notes:          data["notes"],
	}
	if p.FirstName == "" {
		p.FirstName = "Unknown"
	}
	if name := strings.TrimSpace(p.CurrentCompany); name != "" {
		if id, ok := companies[model.FoldName(name)]; ok {
			p.CompanyID = &id
		}
	}
	return p
}

func (e *Executor) finalize(ctx context.Context, hist *model.ImportHistory, log *zap.Logger) {
	now := time.Now().UTC()
	hist.CompletedAt = &now
	if err := e.store.FinalizeImport(context.WithoutCancel(ctx), hist); err != nil {
		log.Error("importer: finalize import history", zap.String("import_id", hist.ID), zap.Error(err))
	}
}
