package api

import (
	"context"
	"net/http"

	"github.com/sells-group/crm/internal/enrich"
)

type enrichRequest struct {
	Type      string `json:"type"`
	PersonID  string `json:"personId"`
	CompanyID string `json:"companyId"`
	Provider  string `json:"provider"`
	Stream    bool   `json:"stream"`
}

type batchRequest struct {
	CompanyIDs []string `json:"companyIds"`
	Provider   string   `json:"provider"`
}

// enrichOne handles POST /api/enrich for a single person or company.
func (s *Server) enrichOne(w http.ResponseWriter, r *http.Request) {
	var req enrichRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	owner := OwnerFrom(r.Context())
	kind := enrich.Kind(req.Provider)

	// run returns the provider result and the stored record.
	var run func(ctx context.Context, events chan<- enrich.Event) (any, any, error)
	switch req.Type {
	case "person":
		if req.PersonID == "" {
			writeError(w, r, badRequest("api: personId is required"))
			return
		}
		run = func(ctx context.Context, events chan<- enrich.Event) (any, any, error) {
			rec, res, err := s.enrich.EnrichPerson(ctx, owner, req.PersonID, kind, events)
			return res, rec, err
		}
	case "company":
		if req.CompanyID == "" {
			writeError(w, r, badRequest("api: companyId is required"))
			return
		}
		run = func(ctx context.Context, events chan<- enrich.Event) (any, any, error) {
			rec, res, err := s.enrich.EnrichCompany(ctx, owner, req.CompanyID, kind, events)
			return res, rec, err
		}
	default:
		writeError(w, r, badRequest(`api: type must be "person" or "company"`))
		return
	}

	if wantsStream(r, req.Stream) {
		stream(w, r, func(ctx context.Context, events chan<- enrich.Event) error {
			_, _, err := run(ctx, events)
			return err
		})
		return
	}

	res, rec, err := run(r.Context(), nil)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "enriched": res, "record": rec})
}

// enrichBatch handles POST /api/enrich/batch for up to five companies. The
// response is always an event stream.
func (s *Server) enrichBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	owner := OwnerFrom(r.Context())
	stream(w, r, func(ctx context.Context, events chan<- enrich.Event) error {
		_, err := s.enrich.EnrichCompanies(ctx, owner, req.CompanyIDs, enrich.Kind(req.Provider), events)
		return err
	})
}

// enrichBulk handles POST /api/enrich/bulk for any number of companies.
func (s *Server) enrichBulk(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if len(req.CompanyIDs) == 0 {
		writeError(w, r, badRequest("api: companyIds is required"))
		return
	}
	owner := OwnerFrom(r.Context())
	stream(w, r, func(ctx context.Context, events chan<- enrich.Event) error {
		_, err := s.enrich.BulkEnrich(ctx, owner, req.CompanyIDs, enrich.Kind(req.Provider), events)
		return err
	})
}
