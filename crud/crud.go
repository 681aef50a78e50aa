// Package crud exposes a model over HTTP as a plain JSON resource.
// Each registered model gets list, create, fetch, update and delete
// endpoints. Validation failures map to 400, missing rows to 404.
package crud

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/strata-db/strata"
	"github.com/strata-db/strata/driver"
)

// Handler serves a single model. Filtered fields never appear in
// responses.
type Handler struct {
	model  *strata.Model
	logger *zap.Logger
}

// New returns a Handler for the given model. A nil logger disables
// logging.
func New(m *strata.Model, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{model: m, logger: logger}
}

// Register mounts the handler's routes on mux under the given prefix,
// e.g. Register(mux, "/users") serves GET/POST /users and
// GET/PUT/DELETE /users/{id}.
func (h *Handler) Register(mux *http.ServeMux, prefix string) {
	prefix = strings.TrimSuffix(prefix, "/")
	mux.HandleFunc("GET "+prefix, h.list)
	mux.HandleFunc("POST "+prefix, h.create)
	mux.HandleFunc("GET "+prefix+"/{id}", h.fetch)
	mux.HandleFunc("PUT "+prefix+"/{id}", h.update)
	mux.HandleFunc("DELETE "+prefix+"/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q, err := h.query(r)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, err)
		return
	}
	rows, err := q.All()
	if err != nil {
		h.fail(w, r, status(err), err)
		return
	}
	h.respond(w, http.StatusOK, h.model.FilterAllForExport(rows))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	data, err := decodeBody(r)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, err)
		return
	}
	id, err := h.model.Insert(data)
	if err != nil {
		h.fail(w, r, status(err), err)
		return
	}
	row, err := h.model.Get(id)
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	h.respond(w, http.StatusCreated, h.model.FilterForExport(row))
}

func (h *Handler) fetch(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, err)
		return
	}
	row, err := h.model.Get(id)
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	if row == nil {
		h.fail(w, r, http.StatusNotFound, strata.ErrNotFound)
		return
	}
	h.respond(w, http.StatusOK, h.model.FilterForExport(row))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, err)
		return
	}
	row, err := h.model.Get(id)
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	if row == nil {
		h.fail(w, r, http.StatusNotFound, strata.ErrNotFound)
		return
	}
	data, err := decodeBody(r)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, err)
		return
	}
	if _, err := h.model.Update(id, data); err != nil {
		h.fail(w, r, status(err), err)
		return
	}
	if row, err = h.model.Get(id); err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	h.respond(w, http.StatusOK, h.model.FilterForExport(row))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, err)
		return
	}
	row, err := h.model.Get(id)
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	if row == nil {
		h.fail(w, r, http.StatusNotFound, strata.ErrNotFound)
		return
	}
	if err := h.model.Delete(id); err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// query maps URL parameters to a lookup. Plain parameters filter by
// equality on schema fields; _sort, _limit and _offset control the
// result set. A _sort value prefixed with "-" sorts descending.
func (h *Handler) query(r *http.Request) (*strata.Query, error) {
	q := h.model.Query(nil)
	where := strata.Where{}
	for k, vs := range r.URL.Query() {
		if len(vs) == 0 {
			continue
		}
		v := vs[0]
		switch k {
		case "_limit":
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, err
			}
			q.Limit(n)
		case "_offset":
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, err
			}
			q.Offset(n)
		case "_sort":
			for _, field := range strings.Split(v, ",") {
				dir := driver.ASC
				if strings.HasPrefix(field, "-") {
					dir = driver.DESC
					field = field[1:]
				}
				q.Sort(field, dir)
			}
		default:
			where[k] = paramValue(v)
		}
	}
	if len(where) > 0 {
		q.Filter(where)
	}
	return q, nil
}

// paramValue gives URL parameters the same shape a JSON body would:
// numbers, booleans and null decode, everything else stays a string.
func paramValue(v string) interface{} {
	switch v {
	case "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n
	}
	return v
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func decodeBody(r *http.Request) (strata.Row, error) {
	defer r.Body.Close()
	var data strata.Row
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		return nil, err
	}
	return data, nil
}

func status(err error) int {
	if strata.IsValidationError(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handler) respond(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("encoding response", zap.Error(err))
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, code int, err error) {
	if code >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	h.respond(w, code, map[string]string{"error": err.Error()})
}
