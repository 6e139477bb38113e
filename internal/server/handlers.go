package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/permitscope/permitscope/pkg/errors"
	"github.com/permitscope/permitscope/pkg/pipeline"
	"github.com/permitscope/permitscope/pkg/store"
)

var formatContentTypes = map[string]string{
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	refresh := r.URL.Query().Get("refresh") == "true"
	users, err := s.runner.ListUsers(r.Context(), refresh)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (s *Server) handleGraphPages(w http.ResponseWriter, r *http.Request) {
	opts := graphOptions(r)
	opts.Selection = pipeline.SelectionPages
	opts.PageID = r.URL.Query().Get("page")
	s.serveGraph(w, r, opts)
}

func (s *Server) handleGraphUser(w http.ResponseWriter, r *http.Request) {
	opts := graphOptions(r)
	opts.Selection = pipeline.SelectionUser
	opts.UserID = chi.URLParam(r, "id")
	s.serveGraph(w, r, opts)
}

// graphOptions extracts the shared build/layout/render options from query
// parameters.
func graphOptions(r *http.Request) pipeline.Options {
	q := r.URL.Query()
	opts := pipeline.Options{
		Query:     q.Get("q"),
		Direction: q.Get("direction"),
		Refresh:   q.Get("refresh") == "true",
		ExpandAll: q.Get("expand") == "all",
	}
	if v := q.Get("expanded"); v != "" {
		opts.Expanded = strings.Split(v, ",")
	}
	format := q.Get("format")
	if format == "" {
		format = pipeline.FormatJSON
	}
	opts.Formats = []string{format}
	return opts
}

// serveGraph runs the pipeline and writes the single requested artifact
// with its content type. The graph hash doubles as an ETag.
func (s *Server) serveGraph(w http.ResponseWriter, r *http.Request, opts pipeline.Options) {
	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if result.GraphHash != "" {
		etag := `"` + result.GraphHash + `"`
		w.Header().Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	format := opts.Formats[0]
	w.Header().Set("Content-Type", formatContentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[format])
}

// =============================================================================
// Saved views
// =============================================================================

func (s *Server) handleListViews(w http.ResponseWriter, r *http.Request) {
	views, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"views": views})
}

func (s *Server) handleCreateView(w http.ResponseWriter, r *http.Request) {
	view, err := decodeView(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view.ID = ""
	if err := s.store.Save(r.Context(), view); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleGetView(w http.ResponseWriter, r *http.Request) {
	view, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleUpdateView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := decodeView(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view.ID = existing.ID
	view.CreatedAt = existing.CreatedAt
	if err := s.store.Save(r.Context(), view); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleDeleteView(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleViewGraph re-executes the pipeline from a saved view's state.
func (s *Server) handleViewGraph(w http.ResponseWriter, r *http.Request) {
	view, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatJSON
	}
	opts := pipeline.Options{
		Selection: view.Selection,
		UserID:    view.UserID,
		PageID:    view.PageID,
		Expanded:  view.Expanded,
		Query:     view.Query,
		Direction: view.Direction,
		Formats:   []string{format},
		Refresh:   r.URL.Query().Get("refresh") == "true",
	}
	s.serveGraph(w, r, opts)
}

func decodeView(r *http.Request) (*store.View, error) {
	var view store.View
	if err := json.NewDecoder(r.Body).Decode(&view); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode view body")
	}
	if view.Name == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "view name is required")
	}
	switch view.Selection {
	case pipeline.SelectionPages, pipeline.SelectionUser:
	default:
		return nil, errors.New(errors.ErrCodeInvalidSelection,
			"invalid selection %q (must be pages or user)", view.Selection)
	}
	if view.Selection == pipeline.SelectionUser && view.UserID == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "user_id is required for a user view")
	}
	return &view, nil
}
