package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bingohub/models"
	"bingohub/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var alice = service.Identity{UID: "alice", DisplayName: "Alice"}

func newTestRouter() (http.Handler, *service.MockLobbyService, *service.MockUserService) {
	lobbies := &service.MockLobbyService{}
	users := &service.MockUserService{}
	return SetupRoutes(lobbies, users), lobbies, users
}

func do(t *testing.T, h http.Handler, method, path, body string, identity *service.Identity) (*httptest.ResponseRecorder, DebugResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if identity != nil {
		req.Header.Set(HeaderUID, identity.UID)
		req.Header.Set(HeaderDisplayName, identity.DisplayName)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp DebugResponse
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestHealthz(t *testing.T) {
	h, _, _ := newTestRouter()
	rec, _ := do(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestCreateLobby(t *testing.T) {
	h, lobbies, _ := newTestRouter()
	lobbies.On("CreateLobby", mock.Anything, alice, int64(50)).
		Return(&models.Lobby{ID: "l1", HostUID: "alice", Stake: 50, Status: models.LobbyStatusWaiting}, nil)

	rec, resp := do(t, h, http.MethodPost, "/debug/lobbies", `{"stake":50}`, &alice)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "l1", data["id"])
	lobbies.AssertExpectations(t)
}

func TestCreateLobby_BadBody(t *testing.T) {
	h, lobbies, _ := newTestRouter()
	rec, resp := do(t, h, http.MethodPost, "/debug/lobbies", `{`, &alice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
	lobbies.AssertNotCalled(t, "CreateLobby", mock.Anything, mock.Anything, mock.Anything)
}

func TestActionsRequireIdentity(t *testing.T) {
	h, _, _ := newTestRouter()

	paths := []struct{ method, path string }{
		{http.MethodPost, "/debug/lobbies"},
		{http.MethodPost, "/debug/lobbies/l1/join"},
		{http.MethodPost, "/debug/lobbies/l1/call"},
		{http.MethodPost, "/debug/lobbies/l1/claim"},
		{http.MethodGet, "/debug/account"},
		{http.MethodPost, "/debug/account/deposit"},
		{http.MethodGet, "/debug/account/history"},
	}
	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			rec, resp := do(t, h, p.method, p.path, `{}`, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, service.ErrNotAuthenticated.Error(), resp.Error)
		})
	}
}

func TestLobbyActions(t *testing.T) {
	h, lobbies, _ := newTestRouter()
	lobby := &models.Lobby{ID: "l1", HostUID: "alice", Status: models.LobbyStatusWaiting, CalledNumbers: []int{7}}

	lobbies.On("JoinLobby", mock.Anything, alice, "l1").Return(lobby, nil)
	lobbies.On("CallNext", mock.Anything, alice, "l1").Return(lobby, nil)
	lobbies.On("ClaimWin", mock.Anything, alice, "l1").
		Return(&models.ClaimResult{Lobby: lobby, Pot: 100, NewBalance: 1050, WinningLines: []string{"row 0"}}, nil)
	lobbies.On("GetLobby", mock.Anything, "l1").Return(lobby, nil)
	lobbies.On("ListWaitingLobbies", mock.Anything).Return([]*models.Lobby{lobby}, nil)

	for _, action := range []string{"join", "call"} {
		rec, resp := do(t, h, http.MethodPost, "/debug/lobbies/l1/"+action, "", &alice)
		assert.Equal(t, http.StatusOK, rec.Code, action)
		assert.True(t, resp.Success, action)
	}

	rec, resp := do(t, h, http.MethodPost, "/debug/lobbies/l1/claim", "", &alice)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(100), resp.Data.(map[string]any)["pot"])

	rec, resp = do(t, h, http.MethodGet, "/debug/lobbies/l1", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{float64(7)}, resp.Data.(map[string]any)["calledNumbers"])

	rec, resp = do(t, h, http.MethodGet, "/debug/lobbies", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp.Data, 1)

	lobbies.AssertExpectations(t)
}

func TestAccountEndpoints(t *testing.T) {
	h, _, users := newTestRouter()
	account := &models.UserAccount{UID: "alice", DisplayName: "Alice", Balance: 1000}

	users.On("EnsureAccount", mock.Anything, alice).Return(account, nil)
	users.On("Deposit", mock.Anything, alice, int64(25)).Return(&models.UserAccount{UID: "alice", Balance: 1025}, nil)
	users.On("GetBalanceHistory", mock.Anything, alice, 5).Return([]*models.BalanceHistory{{UserUID: "alice"}}, nil)

	rec, resp := do(t, h, http.MethodGet, "/debug/account", "", &alice)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1000), resp.Data.(map[string]any)["balance"])

	rec, resp = do(t, h, http.MethodPost, "/debug/account/deposit", `{"amount":25}`, &alice)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1025), resp.Data.(map[string]any)["balance"])

	rec, resp = do(t, h, http.MethodGet, "/debug/account/history?limit=5", "", &alice)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp.Data, 1)

	rec, _ = do(t, h, http.MethodGet, "/debug/account/history?limit=many", "", &alice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	users.AssertExpectations(t)
}

func TestServiceErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{service.ErrNotAuthenticated, http.StatusUnauthorized},
		{service.ErrLobbyNotFound, http.StatusNotFound},
		{service.ErrAccountNotFound, http.StatusNotFound},
		{service.ErrNotHost, http.StatusForbidden},
		{service.ErrNotAPlayer, http.StatusForbidden},
		{service.ErrInvalidAmount, http.StatusBadRequest},
		{service.ErrInsufficientFunds, http.StatusBadRequest},
		{service.ErrAlreadyFinished, http.StatusConflict},
		{service.ErrExhaustedPool, http.StatusConflict},
		{service.ErrNoWinningLine, http.StatusConflict},
		{service.ErrConcurrentModification, http.StatusConflict},
		{errors.New("database down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			h, lobbies, _ := newTestRouter()
			wrapped := fmt.Errorf("failed to call number: %w", tt.err)
			lobbies.On("CallNext", mock.Anything, alice, "l1").Return(nil, wrapped)

			rec, resp := do(t, h, http.MethodPost, "/debug/lobbies/l1/call", "", &alice)
			assert.Equal(t, tt.status, rec.Code)
			assert.False(t, resp.Success)
			assert.Equal(t, wrapped.Error(), resp.Error)
		})
	}
}
