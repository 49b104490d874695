package scheme

import (
	"encoding/json"
	"errors"
	"html"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"themedmark/model"
)

// Handler serves the scheme CRUD endpoints.
type Handler struct {
	registry *Registry
	mode     func() model.Mode
	notify   func(msg string)
}

// NewHandler creates a new scheme handler. notify may be nil.
func NewHandler(registry *Registry, mode func() model.Mode, notify func(string)) *Handler {
	if notify == nil {
		notify = func(string) {}
	}
	return &Handler{
		registry: registry,
		mode:     mode,
		notify:   notify,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/schemes", h.HandleSchemes)
	mux.HandleFunc("/api/schemes/menu", h.HandleMenu)
	mux.HandleFunc("/api/schemes/", h.HandleSchemeByID)
}

// HandleSchemes lists or creates schemes.
func (h *Handler) HandleSchemes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.registry.List())

	case http.MethodPost:
		var in model.ColorScheme
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(in.Name) == "" {
			in.Name = DefaultName
		}
		created, err := h.registry.Add(in)
		if err != nil {
			writeError(w, err)
			return
		}
		h.notify(`Successfully created the scheme "` + created.Name + `"`)
		writeJSON(w, http.StatusCreated, created)

	default:
		w.Header().Set("Allow", http.MethodGet+", "+http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) HandleSchemeByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/schemes/")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s, err := h.registry.Get(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s)

	case http.MethodPut:
		var upd model.ColorScheme
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		s, err := h.registry.Update(id, upd)
		if err != nil {
			writeError(w, err)
			return
		}
		h.notify(`Successfully updated the scheme "` + s.Name + `"`)
		writeJSON(w, http.StatusOK, s)

	case http.MethodDelete:
		s, err := h.registry.Delete(id)
		if err != nil {
			writeError(w, err)
			return
		}
		h.notify(`Successfully deleted the scheme "` + s.Name + `"`)
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", http.MethodGet+", "+http.MethodPut+", "+http.MethodDelete)
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// HandleMenu serves the scheme swatch menu for the current mode.
func (h *Handler) HandleMenu(w http.ResponseWriter, r *http.Request) {
	m := h.mode()
	if q := r.URL.Query().Get("mode"); q != "" {
		if parsed, ok := model.ParseMode(q); ok {
			m = parsed
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(MenuHTML(h.registry.List(), m)))
}

// MenuHTML renders one button per scheme with a swatch in the color for m.
func MenuHTML(schemes []model.ColorScheme, m model.Mode) string {
	var builder strings.Builder
	desc := modeDescription(m)

	for _, s := range schemes {
		builder.WriteString(`<button data-scheme="`)
		builder.WriteString(html.EscapeString(s.ID))
		builder.WriteString(`" title="`)
		builder.WriteString(desc)
		builder.WriteString(`"><i class="swatch" style="background:`)
		builder.WriteString(html.EscapeString(s.Color(m)))
		builder.WriteString(`;"></i> `)
		builder.WriteString(html.EscapeString(s.Name))
		builder.WriteString(`</button>`)
	}

	return builder.String()
}

func modeDescription(m model.Mode) string {
	if m == model.Light {
		return "Light theme"
	}
	return "Dark theme"
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrDuplicateName):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrInvalidScheme):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("writeJSON failed", "err", err)
	}
}
