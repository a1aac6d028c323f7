package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/crm/internal/kanban"
	"github.com/sells-group/crm/internal/model"
)

type cardRequest struct {
	ColumnID string `json:"columnId"`
	Index    int    `json:"index"`
}

func (s *Server) loadBoard(w http.ResponseWriter, r *http.Request) {
	cols, err := s.board.Load(r.Context(), OwnerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if cols == nil {
		cols = []model.ColumnWithCards{}
	}
	writeJSON(w, http.StatusOK, cols)
}

func (s *Server) addColumn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
		Color string `json:"color"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	col, err := s.board.AddColumn(r.Context(), OwnerFrom(r.Context()), req.Title, req.Color)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, col)
}

func (s *Server) updateColumn(w http.ResponseWriter, r *http.Request) {
	var patch kanban.ColumnPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	col, err := s.board.UpdateColumn(r.Context(), OwnerFrom(r.Context()), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, col)
}

// deleteColumn drops a column. With ?moveTo= its cards go to that column,
// otherwise they leave the board.
func (s *Server) deleteColumn(w http.ResponseWriter, r *http.Request) {
	err := s.board.DeleteColumn(r.Context(), OwnerFrom(r.Context()), chi.URLParam(r, "id"), r.URL.Query().Get("moveTo"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) moveColumn(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	cols, err := s.board.ReorderColumns(r.Context(), OwnerFrom(r.Context()), chi.URLParam(r, "id"), req.Index)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cols)
}

func (s *Server) addCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	companyID := chi.URLParam(r, "companyId")
	pos, err := s.board.AddCompany(r.Context(), OwnerFrom(r.Context()), companyID, req.ColumnID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"companyId": companyID, "position": pos})
}

func (s *Server) moveCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.ColumnID == "" {
		writeError(w, r, badRequest("api: columnId is required"))
		return
	}
	companyID := chi.URLParam(r, "companyId")
	pos, err := s.board.MoveCard(r.Context(), OwnerFrom(r.Context()), companyID, req.ColumnID, req.Index)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"companyId": companyID, "columnId": req.ColumnID, "position": pos})
}

func (s *Server) removeCard(w http.ResponseWriter, r *http.Request) {
	if err := s.board.RemoveCard(r.Context(), OwnerFrom(r.Context()), chi.URLParam(r, "companyId")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
