package enrich

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/crm/internal/model"
	"github.com/sells-group/crm/internal/store"
)

const (
	// MaxBatch is the most companies one EnrichCompanies call accepts.
	MaxBatch = 5

	personRosterLimit = 10
	batchRosterLimit  = 50
)

var (
	// ErrNoOwner is returned when a call carries no owner id.
	ErrNoOwner = eris.New("enrich: owner id is required")
	// ErrBatchSize is returned for an empty or oversized batch.
	ErrBatchSize = eris.Errorf("enrich: batch must hold 1 to %d companies", MaxBatch)
)

// BatchSummary counts the outcome of a batch.
type BatchSummary struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Service applies provider results to stored records.
type Service struct {
	store     store.Store
	src       Source
	batchSize int
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithBatchSize sets the group size used by BulkEnrich, clamped to 1..MaxBatch.
func WithBatchSize(n int) ServiceOption {
	return func(s *Service) {
		if n >= 1 && n <= MaxBatch {
			s.batchSize = n
		}
	}
}

// NewService returns a Service over st that takes providers from src.
func NewService(st store.Store, src Source, opts ...ServiceOption) *Service {
	s := &Service{store: st, src: src, batchSize: MaxBatch}
	for _, o := range opts {
		o(s)
	}
	return s
}

// EnrichPerson fills the person's missing fields and links them to a
// company when the provider names one. Every precondition is checked before
// anything is written. It returns the stored record and the provider's raw
// result.
func (s *Service) EnrichPerson(ctx context.Context, owner, personID string, kind Kind, events chan<- Event) (*model.Person, *PersonResult, error) {
	if owner == "" {
		return nil, nil, ErrNoOwner
	}
	p, err := s.src.Provider(kind)
	if err != nil {
		return nil, nil, err
	}
	person, err := s.store.GetPerson(ctx, owner, personID)
	if err != nil {
		return nil, nil, eris.Wrap(err, "enrich: load person")
	}

	res, err := p.EnrichPerson(ctx, PersonHints{
		FullName:       person.FullName(),
		Email:          person.Email,
		CurrentTitle:   person.CurrentTitle,
		CurrentCompany: person.CurrentCompany,
		LinkedInURL:    person.LinkedInURL,
	}, events)
	if err != nil {
		return nil, nil, err
	}

	MergePerson(person, res)
	now := time.Now().UTC()
	person.LinkedInEnrichedAt = &now

	if person.CompanyID == nil && res.CurrentCompany != "" {
		id, err := s.findOrCreateCompany(ctx, owner, res.CurrentCompany)
		if err != nil {
			return nil, nil, err
		}
		person.CompanyID = &id
	}

	if err := s.store.UpdatePerson(ctx, person); err != nil {
		return nil, nil, eris.Wrap(err, "enrich: save person")
	}

	zap.L().Info("enrich: person enriched",
		zap.String("provider", string(p.Kind())),
		zap.String("person_id", person.ID),
	)
	send(ctx, events, Event{Type: EventResult, Success: true, Enriched: res, Record: person})
	return person, res, nil
}

// EnrichCompany fills the company's missing fields, using up to ten linked
// people to disambiguate it. Like EnrichPerson it returns both the stored
// record and the raw result.
func (s *Service) EnrichCompany(ctx context.Context, owner, companyID string, kind Kind, events chan<- Event) (*model.Company, *CompanyResult, error) {
	if owner == "" {
		return nil, nil, ErrNoOwner
	}
	p, err := s.src.Provider(kind)
	if err != nil {
		return nil, nil, err
	}
	company, err := s.store.GetCompany(ctx, owner, companyID)
	if err != nil {
		return nil, nil, eris.Wrap(err, "enrich: load company")
	}
	people, err := s.store.ListPeopleByCompanies(ctx, owner, []string{company.ID}, personRosterLimit)
	if err != nil {
		return nil, nil, eris.Wrap(err, "enrich: load roster")
	}

	res, err := p.EnrichCompany(ctx, companyHints(company, rosterFor(people)[company.ID]), events)
	if err != nil {
		return nil, nil, err
	}

	MergeCompany(company, res)
	if err := s.store.UpdateCompany(ctx, company); err != nil {
		return nil, nil, eris.Wrap(err, "enrich: save company")
	}

	zap.L().Info("enrich: company enriched",
		zap.String("provider", string(p.Kind())),
		zap.String("company_id", company.ID),
	)
	send(ctx, events, Event{Type: EventResult, Success: true, Enriched: res, Record: company})
	return company, res, nil
}

// EnrichCompanies enriches up to MaxBatch companies. A single batch request
// goes first; every company it did not resolve with headline data is then
// retried on its own. Each id produces exactly one batch_item event, and a
// done event closes the batch.
func (s *Service) EnrichCompanies(ctx context.Context, owner string, ids []string, kind Kind, events chan<- Event) (BatchSummary, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 || len(ids) > MaxBatch {
		return BatchSummary{}, ErrBatchSize
	}
	if owner == "" {
		return BatchSummary{}, ErrNoOwner
	}
	p, err := s.src.Provider(kind)
	if err != nil {
		return BatchSummary{}, err
	}

	sum := s.enrichGroup(ctx, p, owner, ids, events)
	send(ctx, events, Event{Type: EventDone, Succeeded: sum.Succeeded, Failed: sum.Failed})
	return sum, nil
}

// BulkEnrich runs ids through the batch path in groups. Cancellation is
// checked between groups; a group already in flight runs to completion.
func (s *Service) BulkEnrich(ctx context.Context, owner string, ids []string, kind Kind, events chan<- Event) (BatchSummary, error) {
	if owner == "" {
		return BatchSummary{}, ErrNoOwner
	}
	p, err := s.src.Provider(kind)
	if err != nil {
		return BatchSummary{}, err
	}

	ids = uniqueIDs(ids)
	var total BatchSummary
	for start := 0; start < len(ids); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			return total, eris.Wrap(err, "enrich: bulk cancelled")
		}
		end := min(start+s.batchSize, len(ids))
		sum := s.enrichGroup(context.WithoutCancel(ctx), p, owner, ids[start:end], events)
		total.Succeeded += sum.Succeeded
		total.Failed += sum.Failed

		zap.L().Info("enrich: bulk progress",
			zap.Int("done", end),
			zap.Int("total", len(ids)),
			zap.Int("succeeded", total.Succeeded),
			zap.Int("failed", total.Failed),
		)
	}

	send(ctx, events, Event{Type: EventDone, Succeeded: total.Succeeded, Failed: total.Failed})
	return total, nil
}

func (s *Service) enrichGroup(ctx context.Context, p Provider, owner string, ids []string, events chan<- Event) BatchSummary {
	log := zap.L().With(zap.String("component", "enrich"), zap.String("provider", string(p.Kind())))

	var sum BatchSummary
	reported := make(map[string]bool, len(ids))
	companies := make(map[string]*model.Company, len(ids))

	fail := func(id, reason string) {
		if reported[id] {
			return
		}
		reported[id] = true
		sum.Failed++
		log.Warn("enrich: batch item failed", zap.String("company_id", id), zap.String("reason", reason))
		send(ctx, events, Event{Type: EventBatchItem, ID: id, Success: false, Enriched: map[string]any{}})
	}
	finish := func(id string, res *CompanyResult) {
		c, ok := companies[id]
		if !ok || reported[id] || !res.HasHeadline() {
			return
		}
		MergeCompany(c, res)
		if err := s.store.UpdateCompany(ctx, c); err != nil {
			fail(id, err.Error())
			return
		}
		reported[id] = true
		sum.Succeeded++
		send(ctx, events, Event{Type: EventBatchItem, ID: id, Success: true, Enriched: res, Record: c})
	}

	found := make([]string, 0, len(ids))
	for _, id := range ids {
		c, err := s.store.GetCompany(ctx, owner, id)
		if err != nil {
			fail(id, err.Error())
			continue
		}
		companies[id] = c
		found = append(found, id)
	}
	if len(found) == 0 {
		return sum
	}

	people, err := s.store.ListPeopleByCompanies(ctx, owner, found, batchRosterLimit)
	if err != nil {
		log.Warn("enrich: roster unavailable", zap.Error(err))
	}
	roster := rosterFor(people)

	inputs := make([]CompanyInput, 0, len(found))
	for _, id := range found {
		inputs = append(inputs, CompanyInput{ID: id, Hints: companyHints(companies[id], roster[id])})
	}

	results, err := p.EnrichCompaniesBatch(ctx, inputs, events, finish)
	if err != nil {
		log.Warn("enrich: batch request failed, retrying individually", zap.Error(err))
	}
	for id, res := range results {
		finish(id, res)
	}

	for _, in := range inputs {
		if reported[in.ID] {
			continue
		}
		if err := ctx.Err(); err != nil {
			fail(in.ID, err.Error())
			continue
		}
		res, err := p.EnrichCompany(ctx, in.Hints, events)
		if err != nil {
			fail(in.ID, err.Error())
			continue
		}
		if !res.HasHeadline() {
			fail(in.ID, "no company data found")
			continue
		}
		finish(in.ID, res)
	}
	return sum
}

// findOrCreateCompany returns the id of the owner's company called name,
// compared case-insensitively, creating it when absent.
func (s *Service) findOrCreateCompany(ctx context.Context, owner, name string) (string, error) {
	refs, err := s.store.CompanyRefs(ctx, owner)
	if err != nil {
		return "", eris.Wrap(err, "enrich: load companies")
	}
	key := model.FoldName(name)
	for _, r := range refs {
		if model.FoldName(r.Name) == key {
			return r.ID, nil
		}
	}
	c := &model.Company{OwnerID: owner, Name: name}
	if err := s.store.CreateCompany(ctx, c); err != nil {
		return "", eris.Wrap(err, "enrich: create company")
	}
	return c.ID, nil
}

func companyHints(c *model.Company, people []RosterEntry) CompanyHints {
	return CompanyHints{Name: c.Name, Domain: c.Domain, Website: c.Website, People: people}
}

// rosterFor groups people by company id.
func rosterFor(people []model.Person) map[string][]RosterEntry {
	out := make(map[string][]RosterEntry)
	for _, p := range people {
		if p.CompanyID == nil {
			continue
		}
		out[*p.CompanyID] = append(out[*p.CompanyID], RosterEntry{
			Name:           p.FullName(),
			Title:          p.CurrentTitle,
			Email:          p.Email,
			LinkedInURL:    p.LinkedInURL,
			CurrentCompany: p.CurrentCompany,
		})
	}
	return out
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
