package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/floorsmith/pkg/config"
	"github.com/matzehuels/floorsmith/pkg/editor"
	"github.com/matzehuels/floorsmith/pkg/plan"
	"github.com/matzehuels/floorsmith/pkg/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return New(Options{
		Store:  store.NewMemoryStore(),
		Config: config.Default(),
	})
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

func createSession(t *testing.T, s *Server) string {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/sessions", createSessionRequest{
		Name: "keep",
		Spaces: []plan.Space{
			{Name: "hall", Size: plan.Size{Width: 40, Height: 30}},
			{Name: "armory", Size: plan.Size{Width: 20, Height: 20}},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[sessionResponse](t, rec).ID
}

func TestHealth(t *testing.T) {
	rec := doJSON(t, newTestServer(t), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	rec := doJSON(t, s, http.MethodGet, "/api/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]store.Summary](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, 2, list[0].Spaces)

	rec = doJSON(t, s, http.MethodGet, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[sessionResponse](t, rec)
	assert.Equal(t, "keep", got.Name)
	assert.Len(t, got.Spaces, 2)

	rec = doJSON(t, s, http.MethodDelete, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownSession(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/sessions/nope/commands",
		editor.Command{Op: editor.OpRecalculate})
	require.Equal(t, http.StatusNotFound, rec.Code)
	resp := decode[errorResponse](t, rec)
	assert.Equal(t, "SESSION_NOT_FOUND", resp.Error.Code)
}

func TestCommands(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)
	commands := "/api/sessions/" + id + "/commands"

	rec := doJSON(t, s, http.MethodPost, commands, editor.Command{
		Op:   editor.OpAddDoor,
		Key:  "hall",
		Door: &plan.Door{Wall: plan.WallEast, Position: 15, Width: 6, LeadsTo: "armory"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[editor.Result](t, rec)
	require.Len(t, result.Spaces, 2)

	armory := plan.FindSpace(result.Spaces, "armory")
	require.Len(t, armory.Doors, 1, "reciprocal door should be created")
	assert.True(t, armory.Doors[0].Reciprocal)
	assert.True(t, result.History.CanUndo)

	rec = doJSON(t, s, http.MethodPost, commands, editor.Command{Op: editor.OpRecalculate})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result = decode[editor.Result](t, rec)
	for _, sp := range result.Spaces {
		assert.NotNil(t, sp.Position, "space %s should be placed", sp.Key())
	}
}

func TestCommandErrors(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)
	commands := "/api/sessions/" + id + "/commands"

	tests := []struct {
		name   string
		cmd    editor.Command
		status int
		code   string
	}{
		{
			name:   "unknown op",
			cmd:    editor.Command{Op: "teleport"},
			status: http.StatusBadRequest,
			code:   "INVALID_INPUT",
		},
		{
			name:   "unknown space",
			cmd:    editor.Command{Op: editor.OpDeleteSpace, Key: "ghost"},
			status: http.StatusNotFound,
			code:   "SPACE_NOT_FOUND",
		},
		{
			name: "duplicate space",
			cmd: editor.Command{
				Op:    editor.OpAddSpace,
				Space: &plan.Space{Name: "hall", Size: plan.Size{Width: 5, Height: 5}},
			},
			status: http.StatusConflict,
			code:   "DUPLICATE_SPACE",
		},
		{
			name: "invalid door",
			cmd: editor.Command{
				Op:   editor.OpAddDoor,
				Key:  "hall",
				Door: &plan.Door{Wall: plan.WallNorth, Position: 1, Width: 10},
			},
			status: http.StatusUnprocessableEntity,
			code:   "INVALID_DOOR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, s, http.MethodPost, commands, tt.cmd)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			resp := decode[errorResponse](t, rec)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestMalformedCommandBody(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/commands",
		strings.NewReader("{nope"))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_FORMAT", decode[errorResponse](t, rec).Error.Code)
}

func TestGetPlanIncludesIssues(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	rec := doJSON(t, s, http.MethodGet, "/api/sessions/"+id+"/plan", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]json.RawMessage](t, rec)
	assert.Contains(t, body, "spaces")
	assert.Contains(t, body, "walls")
}

func TestRenderPlanSVG(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	rec := doJSON(t, s, http.MethodGet, "/api/sessions/"+id+"/render", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "<svg "))
}

func TestRenderGraphDOT(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	rec := doJSON(t, s, http.MethodGet,
		fmt.Sprintf("/api/sessions/%s/render?view=graph&format=dot", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "graph plan {")
}

func TestRenderRejectsUnknownView(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	rec := doJSON(t, s, http.MethodGet,
		"/api/sessions/"+id+"/render?view=hologram", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSavePersistsEditorState(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)
	commands := "/api/sessions/" + id + "/commands"

	rec := doJSON(t, s, http.MethodPost, commands, editor.Command{
		Op:    editor.OpAddSpace,
		Space: &plan.Space{Name: "crypt", Size: plan.Size{Width: 15, Height: 15}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, s, http.MethodPost, "/api/sessions/"+id+"/save", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// A fresh server over the same store sees the saved state.
	fresh := New(Options{Store: s.store, Config: config.Default()})
	rec = doJSON(t, fresh, http.MethodGet, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[sessionResponse](t, rec)
	assert.Len(t, got.Spaces, 3)
}
