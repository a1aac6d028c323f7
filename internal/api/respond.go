package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/crm/internal/enrich"
	"github.com/sells-group/crm/internal/importer"
	"github.com/sells-group/crm/internal/kanban"
	"github.com/sells-group/crm/internal/model"
	"github.com/sells-group/crm/internal/store"
)

// ErrBadRequest marks malformed input.
var ErrBadRequest = eris.New("api: bad request")

func badRequest(msg string) error {
	return eris.Wrap(ErrBadRequest, msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("api: write response", zap.Error(err))
	}
}

// statusFor maps domain errors onto HTTP status codes. A missing provider
// credential is a server configuration fault and falls through to 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, enrich.ErrNoOwner),
		errors.Is(err, importer.ErrNoOwner):
		return http.StatusUnauthorized
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, importer.ErrInvalidTransition),
		errors.Is(err, kanban.ErrNoColumn):
		return http.StatusConflict
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, model.ErrInvalid),
		errors.Is(err, importer.ErrUnknownField),
		errors.Is(err, enrich.ErrUnknownProvider),
		errors.Is(err, enrich.ErrBatchSize):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes {"error": message} with the mapped status. Server errors
// are logged with the request id.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("api: request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return eris.Wrapf(ErrBadRequest, "api: invalid request body: %v", err)
	}
	return nil
}

// listFilter reads q, limit and offset from the query string.
func listFilter(r *http.Request) store.ListFilter {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	return store.ListFilter{Query: q.Get("q"), Limit: limit, Offset: max(offset, 0)}
}
