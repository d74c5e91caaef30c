package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"familyfitness/wod-server/internal/domain"
	"familyfitness/wod-server/internal/repository/memory"
	"familyfitness/wod-server/internal/service"
	"familyfitness/wod-server/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret"
	testIssuer = "https://login.example.com/family"
)

type testServer struct {
	router *gin.Engine
	files  *storage.MemoryStorage
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repos := memory.NewRepositories()
	files := storage.NewMemoryStorage()
	sessions := service.NewSessionService(repos, nil)
	scores := service.NewScoreService(repos, nil)

	router := gin.New()
	SetupRoutes(router, AuthConfig{JWTSecret: testSecret, Issuer: testIssuer}, Services{
		Users:        service.NewUserService(repos.Users, nil),
		Groups:       service.NewGroupService(repos, nil),
		WorkoutTypes: service.NewWorkoutTypeService(repos.WorkoutTypes),
		Sessions:     sessions,
		Participants: service.NewParticipantService(repos, nil),
		Stations:     service.NewStationService(repos, nil),
		Scores:       scores,
		Exports:      service.NewExportService(sessions, scores, files, time.Minute, nil),
	}, nil)
	return &testServer{router: router, files: files}
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func userToken(t *testing.T, sub, name, email string) string {
	return signToken(t, jwt.MapClaims{
		"sub":   sub,
		"name":  name,
		"email": email,
		"iss":   testIssuer,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestPing(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_RejectsBadTokens(t *testing.T) {
	s := newTestServer(t)

	otherSecret, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "x", "iss": testIssuer, "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("not-the-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"wrong secret", otherSecret},
		{"expired", signToken(t, jwt.MapClaims{"sub": "x", "iss": testIssuer, "exp": time.Now().Add(-time.Minute).Unix()})},
		{"no expiry", signToken(t, jwt.MapClaims{"sub": "x", "iss": testIssuer})},
		{"wrong issuer", signToken(t, jwt.MapClaims{"sub": "x", "iss": "https://evil.example.com", "exp": time.Now().Add(time.Hour).Unix()})},
		{"no identity", signToken(t, jwt.MapClaims{"iss": testIssuer, "exp": time.Now().Add(time.Hour).Unix()})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodGet, "/api/v1/me", tt.token, nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())
		})
	}
}

func TestMe_ProvisionsUserFromClaims(t *testing.T) {
	s := newTestServer(t)
	token := userToken(t, "alice-sub", "Alice", "alice@example.com")

	w := s.do(t, http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decode[map[string]any](t, w)
	assert.Equal(t, "Alice", first["username"])
	assert.Equal(t, "alice@example.com", first["email"])

	// Same subject resolves to the same user
	w = s.do(t, http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, first["id"], decode[map[string]any](t, w)["id"])

	w = s.do(t, http.MethodPatch, "/api/v1/me", token, gin.H{"username": "Mum"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Mum", decode[map[string]any](t, w)["username"])
}

func TestSessionFlow(t *testing.T) {
	s := newTestServer(t)
	alice := userToken(t, "alice-sub", "Alice", "alice@example.com")
	bob := userToken(t, "bob-sub", "Bob", "bob@example.com")

	w := s.do(t, http.MethodPost, "/api/v1/groups", alice, gin.H{"name": "The Smiths"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	groupID := decode[map[string]any](t, w)["id"].(string)

	w = s.do(t, http.MethodPost, "/api/v1/workout-types", alice, gin.H{"name": "Burpees"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	workoutTypeID := decode[map[string]any](t, w)["id"].(string)

	w = s.do(t, http.MethodPost, "/api/v1/groups/"+groupID+"/sessions", alice, gin.H{"sessionDate": "2026-03-14T09:00:00Z"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	session := decode[map[string]any](t, w)
	sessionID := session["id"].(string)
	assert.Equal(t, "Pending", session["status"])

	// Bob is not in the group yet
	w = s.do(t, http.MethodGet, "/api/v1/sessions/"+sessionID, bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPut, "/api/v1/sessions/"+sessionID+"/stations/1", alice, gin.H{"workoutTypeId": workoutTypeID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(t, http.MethodPut, "/api/v1/sessions/"+sessionID+"/stations/5", alice, gin.H{"workoutTypeId": workoutTypeID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/sessions/"+sessionID+"/participants", alice, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	participantID := decode[map[string]any](t, w)["id"].(string)

	w = s.do(t, http.MethodGet, "/api/v1/groups/"+groupID+"/sessions/active", alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/sessions/"+sessionID+"/start", alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	started := decode[map[string]any](t, w)
	assert.Equal(t, "Active", started["status"])
	assert.NotEmpty(t, started["startedAt"])

	w = s.do(t, http.MethodPost, "/api/v1/sessions/"+sessionID+"/start", alice, nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "cannot start session: status is Active; only Pending sessions can be started",
		decode[map[string]string](t, w)["error"])

	w = s.do(t, http.MethodGet, "/api/v1/groups/"+groupID+"/sessions/active", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, sessionID, decode[map[string]any](t, w)["id"])

	w = s.do(t, http.MethodPost, "/api/v1/sessions/"+sessionID+"/scores", alice, gin.H{
		"participantId": participantID,
		"roundNumber":   2,
		"stationIndex":  1,
		"score":         12,
		"weight":        20.5,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/sessions/"+sessionID+"/complete", alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Completed", decode[map[string]any](t, w)["status"])

	w = s.do(t, http.MethodGet, "/api/v1/sessions/"+sessionID+"/scores", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	scores := decode[[]map[string]any](t, w)
	require.Len(t, scores, 3)
	byRound := map[float64]float64{}
	for _, sc := range scores {
		byRound[sc["roundNumber"].(float64)] = sc["score"].(float64)
	}
	assert.Equal(t, map[float64]float64{1: 0, 2: 12, 3: 0}, byRound)

	w = s.do(t, http.MethodGet, "/api/v1/groups/"+groupID+"/sessions/active", alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/sessions/"+sessionID+"/assignments", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[service.SessionAssignments](t, w)
	assert.Equal(t, "Completed", string(view.Status))
	require.Len(t, view.Participants, 1)
	assert.Equal(t, "Alice", view.Participants[0].UserName)
	require.Len(t, view.Stations, 1)
	assert.Equal(t, "Burpees", view.Stations[0].WorkoutTypeName)

	w = s.do(t, http.MethodPost, "/api/v1/sessions/"+sessionID+"/export", alice, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	export := decode[service.SessionExport](t, w)
	assert.Equal(t, 3, export.Rows)
	_, contentType, ok := s.files.Object(export.ObjectKey)
	require.True(t, ok)
	assert.Equal(t, "text/csv", contentType)

	// Join through an invite, then Bob can read the session
	w = s.do(t, http.MethodPost, "/api/v1/groups/"+groupID+"/invites", bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(t, http.MethodPost, "/api/v1/groups/"+groupID+"/invites", alice, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	inviteToken := decode[map[string]any](t, w)["token"].(string)

	w = s.do(t, http.MethodPost, "/api/v1/invites/"+inviteToken+"/accept", bob, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(t, http.MethodGet, "/api/v1/sessions/"+sessionID, bob, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCancelPendingSession_DeletesAfterwards(t *testing.T) {
	s := newTestServer(t)
	alice := userToken(t, "alice-sub", "Alice", "alice@example.com")

	w := s.do(t, http.MethodPost, "/api/v1/groups", alice, gin.H{"name": "The Smiths"})
	require.Equal(t, http.StatusCreated, w.Code)
	groupID := decode[map[string]any](t, w)["id"].(string)

	w = s.do(t, http.MethodPost, "/api/v1/groups/"+groupID+"/sessions", alice, gin.H{"sessionDate": "2026-03-15T09:00:00Z"})
	require.Equal(t, http.StatusCreated, w.Code)
	sessionID := decode[map[string]any](t, w)["id"].(string)

	w = s.do(t, http.MethodPost, "/api/v1/sessions/"+sessionID+"/complete", alice, nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "cannot complete session: status is Pending; only Active sessions can be completed",
		decode[map[string]string](t, w)["error"])

	w = s.do(t, http.MethodPost, "/api/v1/sessions/"+sessionID+"/cancel", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cancelled := decode[map[string]any](t, w)
	assert.Equal(t, "Cancelled", cancelled["status"])
	assert.NotEmpty(t, cancelled["endedAt"])
	assert.Nil(t, cancelled["startedAt"])

	w = s.do(t, http.MethodDelete, "/api/v1/sessions/"+sessionID, alice, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodGet, "/api/v1/sessions/"+sessionID, alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrSessionNotFound, http.StatusNotFound},
		{service.ErrNoActiveSession, http.StatusNotFound},
		{&service.InvalidTransitionError{Event: domain.EventStart, Current: domain.SessionActive}, http.StatusConflict},
		{service.ErrScoreExists, http.StatusConflict},
		{service.ErrInvalidRound, http.StatusBadRequest},
		{service.ErrNotGroupOwner, http.StatusForbidden},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusForError(tt.err), tt.err.Error())
	}
}
