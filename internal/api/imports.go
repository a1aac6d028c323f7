package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/crm/internal/importer"
	"github.com/sells-group/crm/internal/store"
)

const importHistoryLimit = 50

type importView struct {
	ID          string                   `json:"id"`
	State       importer.State           `json:"state"`
	Mapping     map[string]string        `json:"mapping,omitempty"`
	Validations []importer.RowValidation `json:"validations,omitempty"`
	Result      *importer.Result         `json:"result,omitempty"`
}

func viewOf(sess *importer.Session) importView {
	return importView{
		ID:          sess.ID,
		State:       sess.State(),
		Mapping:     sess.Mapping(),
		Validations: sess.Validations(),
		Result:      sess.Result(),
	}
}

func (s *Server) session(r *http.Request) (*importer.Session, error) {
	id := chi.URLParam(r, "id")
	sess, ok := s.sessions.Get(OwnerFrom(r.Context()), id)
	if !ok {
		return nil, eris.Wrapf(store.ErrNotFound, "api: import session %s", id)
	}
	return sess, nil
}

// uploadImport parses a multipart "file" field into a new session.
func (s *Server) uploadImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, badRequest("api: multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	sess := s.sessions.New(OwnerFrom(r.Context()))
	parsed, err := sess.Load(header.Filename, file)
	if err != nil {
		s.sessions.Delete(sess.Owner, sess.ID)
		writeError(w, r, eris.Wrapf(ErrBadRequest, "api: parse %s: %v", header.Filename, err))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":        sess.ID,
		"state":     sess.State(),
		"file_type": parsed.FileType,
		"headers":   parsed.Headers,
		"row_count": len(parsed.Rows),
		"mapping":   sess.Mapping(),
		"errors":    parsed.Errors,
	})
}

func (s *Server) getImport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) setImportMapping(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Mapping map[string]string `json:"mapping"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := sess.SetMapping(req.Mapping); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

// confirmImport validates every row and returns the preview.
func (s *Server) confirmImport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := sess.ConfirmMapping()
	if err != nil {
		writeError(w, r, err)
		return
	}
	valid := 0
	for _, v := range rows {
		if v.Valid {
			valid++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":          sess.ID,
		"state":       sess.State(),
		"valid":       valid,
		"invalid":     len(rows) - valid,
		"validations": rows,
	})
}

func (s *Server) executeImport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := sess.Execute(r.Context(), s.executor, OwnerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// deleteImport resets and forgets the session.
func (s *Server) deleteImport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sess.Reset()
	s.sessions.Delete(sess.Owner, sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listImports(w http.ResponseWriter, r *http.Request) {
	hist, err := s.store.ListImports(r.Context(), OwnerFrom(r.Context()), importHistoryLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hist)
}
