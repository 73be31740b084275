package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/floorsmith/pkg/editor"
	"github.com/matzehuels/floorsmith/pkg/errors"
	"github.com/matzehuels/floorsmith/pkg/plan"
	"github.com/matzehuels/floorsmith/pkg/render"
	"github.com/matzehuels/floorsmith/pkg/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// createSessionRequest optionally seeds the new session with a plan.
type createSessionRequest struct {
	Name   string             `json:"name"`
	Spaces []plan.Space       `json:"spaces,omitempty"`
	Walls  *plan.WallSettings `json:"walls,omitempty"`
}

type sessionResponse struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Spaces []plan.Space      `json:"spaces"`
	Walls  plan.WallSettings `json:"walls"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decoding request"))
		return
	}

	walls := s.cfg.WallSettings()
	if req.Walls != nil && req.Walls.Thickness > 0 {
		walls = *req.Walls
	}

	sess := store.NewSession(req.Name, req.Spaces, walls)
	if err := s.store.Put(r.Context(), sess); err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		ID:     sess.ID,
		Name:   sess.Name,
		Spaces: sess.Spaces,
		Walls:  sess.Walls,
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, err := s.session(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	a.mu.Lock()
	resp := sessionResponse{
		ID:     id,
		Name:   a.name,
		Spaces: a.editor.Spaces(),
		Walls:  a.editor.Walls(),
	}
	a.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.evict(id)
	w.WriteHeader(http.StatusNoContent)
}

// handleCommand is the engine surface: it decodes one command envelope,
// applies it to the session's editor under the actor lock, and returns the
// full engine result.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	a, err := s.session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	var cmd editor.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decoding command"))
		return
	}

	a.mu.Lock()
	result, err := a.editor.Apply(cmd)
	a.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	a, err := s.session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	a.mu.Lock()
	result := a.editor.State()
	walls := a.editor.Walls()
	a.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"spaces": result.Spaces,
		"walls":  walls,
		"issues": result.Issues,
	})
}

// handleRender renders the current plan. Query parameters: view=plan|graph
// (default plan), format=svg|png|dot (default svg; plan view is svg only).
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	a, err := s.session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	a.mu.Lock()
	spaces := a.editor.Spaces()
	walls := a.editor.Walls()
	a.mu.Unlock()

	view := r.URL.Query().Get("view")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "svg"
	}

	if view == "" || view == "plan" {
		if format != "svg" {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "plan view only renders svg"))
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write(render.SVG(spaces, walls, render.DefaultSVGOptions()))
		return
	}
	if view != "graph" {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "unknown view %q", view))
		return
	}

	dot := render.ToDOT(spaces, render.DOTOptions{})
	switch format {
	case "dot":
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		_, _ = w.Write([]byte(dot))
	case "svg":
		out, err := render.RenderDOTSVG(dot)
		if err != nil {
			s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "rendering graph"))
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write(out)
	case "png":
		out, err := render.RenderDOTPNG(dot)
		if err != nil {
			s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "rendering graph"))
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(out)
	default:
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "unknown format %q", format))
	}
}

// handleSave writes the session's current in-memory state back to the store.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, err := s.session(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	sess, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	a.mu.Lock()
	sess.Spaces = a.editor.Spaces()
	sess.Walls = a.editor.Walls()
	a.mu.Unlock()

	if err := s.store.Put(r.Context(), sess); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "saved"})
}

// =============================================================================
// Response helpers
// =============================================================================

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, errorResponse{Error: errorBody{
		Code:    string(code),
		Message: errors.UserMessage(err),
	}})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeSessionNotFound, errors.ErrCodeSpaceNotFound, errors.ErrCodeDoorNotFound:
		return http.StatusNotFound
	case errors.ErrCodeDuplicateSpace:
		return http.StatusConflict
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errors.ErrCodeInvalidDoor, errors.ErrCodeLayoutInfeasible, errors.ErrCodeSyncUnsatisfiable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
