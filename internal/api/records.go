package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/crm/internal/model"
	"github.com/sells-group/crm/internal/store"
)

// record is the contract shared by people and companies for CRUD routes.
type record interface {
	model.Person | model.Company
}

// resource binds the generic CRUD handlers to one record type.
type resource[T record] struct {
	list   func(ctx context.Context, owner string, f store.ListFilter) ([]T, error)
	get    func(ctx context.Context, owner, id string) (*T, error)
	create func(ctx context.Context, rec *T) error
	update func(ctx context.Context, rec *T) error
	remove func(ctx context.Context, owner, id string) error
	// own pins the record's id and owner and validates it.
	own func(rec *T, owner, id string) error
}

func peopleResource(st store.Store) resource[model.Person] {
	return resource[model.Person]{
		list:   st.ListPeople,
		get:    st.GetPerson,
		create: st.CreatePerson,
		update: st.UpdatePerson,
		remove: st.DeletePerson,
		own: func(p *model.Person, owner, id string) error {
			p.ID, p.OwnerID = id, owner
			return p.Validate()
		},
	}
}

func companyResource(st store.Store) resource[model.Company] {
	return resource[model.Company]{
		list:   st.ListCompanies,
		get:    st.GetCompany,
		create: st.CreateCompany,
		update: st.UpdateCompany,
		remove: st.DeleteCompany,
		own: func(c *model.Company, owner, id string) error {
			c.ID, c.OwnerID = id, owner
			return c.Validate()
		},
	}
}

func (res resource[T]) routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", res.handleList)
	r.Post("/", res.handleCreate)
	r.Get("/{id}", res.handleGet)
	r.Patch("/{id}", res.handleUpdate)
	r.Delete("/{id}", res.handleDelete)
	return r
}

func (res resource[T]) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := res.list(r.Context(), OwnerFrom(r.Context()), listFilter(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (res resource[T]) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := res.get(r.Context(), OwnerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (res resource[T]) handleCreate(w http.ResponseWriter, r *http.Request) {
	var rec T
	if err := decode(r, &rec); err != nil {
		writeError(w, r, err)
		return
	}
	if err := res.own(&rec, OwnerFrom(r.Context()), ""); err != nil {
		writeError(w, r, err)
		return
	}
	if err := res.create(r.Context(), &rec); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// handleUpdate decodes the body over the stored record, so omitted fields
// keep their values.
func (res resource[T]) handleUpdate(w http.ResponseWriter, r *http.Request) {
	owner, id := OwnerFrom(r.Context()), chi.URLParam(r, "id")
	rec, err := res.get(r.Context(), owner, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := decode(r, rec); err != nil {
		writeError(w, r, err)
		return
	}
	if err := res.own(rec, owner, id); err != nil {
		writeError(w, r, err)
		return
	}
	if err := res.update(r.Context(), rec); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (res resource[T]) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := res.remove(r.Context(), OwnerFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
