package annotator

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/annotator/annotation"
	"github.com/hazyhaar/annotator/shield"
)

// Handler returns the HTTP API of c. The caller strips any mount prefix:
//
//	r.Mount("/annotator", annotator.Handler(c, logger))
func Handler(c *Controller, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &httpAPI{c: c, logger: logger}
	r := chi.NewRouter()
	for _, mw := range shield.DefaultStack(logger) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/mode", h.mode)
	r.Post("/toggle", h.toggle)

	r.Route("/annotations", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Delete("/", h.requestClear)
		r.Get("/{id}", h.get)
		r.Patch("/{id}", h.edit)
		r.Delete("/{id}", h.remove)
	})

	r.Post("/clear-all", h.requestClear)
	r.Post("/clear-all/confirm", h.confirmClear)

	r.Get("/export.md", h.export("markdown", "text/markdown; charset=utf-8"))
	r.Get("/export.json", h.export("json", "application/json"))
	r.Get("/inspect", h.inspect)
	r.Get("/measure", h.measure)
	return r
}

type httpAPI struct {
	c      *Controller
	logger *slog.Logger
}

func (h *httpAPI) mode(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"mode": h.c.Mode().String()})
}

func (h *httpAPI) toggle(w http.ResponseWriter, _ *http.Request) {
	h.c.Toggle()
	writeJSON(w, http.StatusOK, map[string]string{"mode": h.c.Mode().String()})
}

func (h *httpAPI) list(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.c.Annotations())
}

func (h *httpAPI) get(w http.ResponseWriter, r *http.Request) {
	a, err := h.c.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *httpAPI) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Selector string `json:"selector"`
		Comment  string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	a, err := h.c.CreateAt(r.Context(), req.Selector, req.Comment)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *httpAPI) edit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	a, err := h.c.Edit(r.Context(), chi.URLParam(r, "id"), req.Comment)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *httpAPI) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.c.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requestClear is the two-step clear behind POST /clear-all and
// DELETE /annotations: the first call arms, a second one within the
// confirm window clears.
func (h *httpAPI) requestClear(w http.ResponseWriter, r *http.Request) {
	cleared := h.c.RequestClearAll(r.Context())
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": cleared, "armed": !cleared})
}

func (h *httpAPI) confirmClear(w http.ResponseWriter, r *http.Request) {
	if err := h.c.ConfirmClearAll(r.Context()); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *httpAPI) export(format, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		body, err := h.c.Export(format)
		if err != nil {
			h.fail(w, err)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Write(body)
	}
}

func (h *httpAPI) inspect(w http.ResponseWriter, r *http.Request) {
	var (
		in  Inspection
		err error
	)
	if sel := r.URL.Query().Get("selector"); sel != "" {
		in, err = h.c.InspectSelector(sel)
	} else {
		x, y, ok := point(r)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "x and y or selector required"})
			return
		}
		in, err = h.c.Inspect(x, y)
	}
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func (h *httpAPI) measure(w http.ResponseWriter, r *http.Request) {
	x, y, ok := point(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "x and y required"})
		return
	}
	writeJSON(w, http.StatusOK, h.c.Measure(x, y))
}

func point(r *http.Request) (x, y float64, ok bool) {
	q := r.URL.Query()
	x, errX := strconv.ParseFloat(q.Get("x"), 64)
	y, errY := strconv.ParseFloat(q.Get("y"), 64)
	return x, y, errX == nil && errY == nil
}

// fail maps controller errors to status codes.
func (h *httpAPI) fail(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoElement):
		code = http.StatusNotFound
	case errors.Is(err, annotation.ErrEmptyComment), errors.Is(err, ErrUnknownFormat):
		code = http.StatusBadRequest
	case errors.Is(err, ErrNotArmed):
		code = http.StatusConflict
	}
	if code == http.StatusInternalServerError {
		h.logger.Error("annotator: http", "error", err)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
