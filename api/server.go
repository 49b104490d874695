package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"themedmark/highlighter"
	"themedmark/mode"
	"themedmark/model"
	"themedmark/scheme"
	"themedmark/storage"
)

const maxDocumentBytes = 16 << 20

type Server struct {
	hl       *highlighter.Highlighter
	store    storage.DocumentStore
	ui       *mode.StaticState
	detector *mode.Detector
	schemes  *scheme.Handler
	hub      *NotificationHub
	log      *log.Logger
	upgrader websocket.Upgrader
}

func NewServer(hl *highlighter.Highlighter, store storage.DocumentStore, ui *mode.StaticState, schemes *scheme.Registry, hub *NotificationHub, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	detector := mode.NewDetector(ui)
	return &Server{
		hl:       hl,
		store:    store,
		ui:       ui,
		detector: detector,
		schemes:  scheme.NewHandler(schemes, detector.Mode, hub.Notify),
		hub:      hub,
		log:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/mode", s.handleMode)
	mux.HandleFunc("/api/ui", s.handleUI)
	mux.HandleFunc("/api/active", s.handleActive)
	mux.HandleFunc("/api/highlight", s.handleHighlight)
	mux.HandleFunc("/api/documents", s.handleDocuments)
	mux.HandleFunc("/api/documents/", s.handleDocument)
	mux.HandleFunc("/api/ws", s.handleWS)
	s.schemes.Register(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok", "clients": s.hub.Len()}
	writeJSON(w, http.StatusOK, resp)
}

// ---------- display mode ----------

type modeResponse struct {
	Mode  string `json:"mode"`
	Class string `json:"class"`
}

// handleMode reports the detected mode. PUT sets the host class list to the one a host
// in the requested mode would report.
func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:

	case http.MethodPut:
		var in modeResponse
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		m, ok := model.ParseMode(in.Mode)
		if !ok {
			http.Error(w, "mode must be light or dark", http.StatusBadRequest)
			return
		}
		s.ui.SetThemeClass(mode.ClassFor(m))

	default:
		w.Header().Set("Allow", http.MethodGet+", "+http.MethodPut)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, modeResponse{
		Mode:  s.detector.Mode().String(),
		Class: s.ui.ThemeClass(),
	})
}

type uiState struct {
	Class string `json:"class"`
}

// handleUI lets the host report its theme class list. The watcher picks the change up on
// its next tick.
func (s *Server) handleUI(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, uiState{Class: s.ui.ThemeClass()})

	case http.MethodPut:
		var in uiState
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		s.ui.SetThemeClass(in.Class)
		writeJSON(w, http.StatusOK, modeResponse{
			Mode:  s.detector.Mode().String(),
			Class: in.Class,
		})

	default:
		w.Header().Set("Allow", http.MethodGet+", "+http.MethodPut)
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// ---------- documents ----------

func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"document": s.hl.Active()})
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	names, err := s.store.List(r.Context())
	if err != nil {
		s.log.Error("list documents", "err", err)
		http.Error(w, "failed to list documents", http.StatusInternalServerError)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

type documentResponse struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/documents/")
	if name == "" {
		http.NotFound(w, r)
		return
	}

	if doc, ok := strings.CutSuffix(name, "/open"); ok {
		switch r.Method {
		case http.MethodPost:
			s.openDocument(w, r, doc)
		case http.MethodDelete:
			s.closeDocument(w, doc)
		default:
			w.Header().Set("Allow", http.MethodPost+", "+http.MethodDelete)
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		content, err := s.store.Read(r.Context(), name)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, documentResponse{Name: name, Content: content})

	case http.MethodPut:
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "document too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}
		if err := s.store.Write(r.Context(), name, string(body)); err != nil {
			s.writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", http.MethodGet+", "+http.MethodPut+", "+http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) openDocument(w http.ResponseWriter, r *http.Request, name string) {
	if err := s.hl.Open(r.Context(), name); err != nil {
		s.writeStoreError(w, err)
		return
	}
	content, err := s.store.Read(r.Context(), name)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentResponse{Name: name, Content: content})
}

// closeDocument handles a document-close event from the host.
func (s *Server) closeDocument(w http.ResponseWriter, name string) {
	clean, err := storage.CleanName(name)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.hl.Close(clean)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, storage.ErrInvalidName), errors.Is(err, highlighter.ErrNoActiveDocument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, context.Canceled):
		http.Error(w, "request cancelled", http.StatusServiceUnavailable)
	default:
		s.log.Error("document request failed", "err", err)
		http.Error(w, "document operation failed", http.StatusInternalServerError)
	}
}

// ---------- highlight ----------

type highlightRequest struct {
	Scheme    string `json:"scheme"`
	Selection string `json:"selection"`
}

type highlightResponse struct {
	Fragment string `json:"fragment"`
}

func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req highlightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	fragment, err := s.hl.Highlight(req.Scheme, req.Selection)
	if err != nil {
		if errors.Is(err, scheme.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, "highlight failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, highlightResponse{Fragment: fragment})
}

// ---------- notifications ----------

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	s.hub.Add(conn)
	defer func() {
		s.hub.Remove(conn)
		conn.Close()
	}()

	// Clients only listen; reading keeps control frames flowing and detects close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("writeJSON failed", "err", err)
	}
}
