package debug

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bingohub/httpapi"
	"bingohub/models"
	"bingohub/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var bob = service.Identity{UID: "bob", DisplayName: "Bob"}

func newTestAPI(t *testing.T) (*DebugClient, *service.MockLobbyService, *service.MockUserService) {
	t.Helper()
	lobbies := &service.MockLobbyService{}
	users := &service.MockUserService{}
	server := httptest.NewServer(httpapi.SetupRoutes(lobbies, users))
	t.Cleanup(server.Close)

	client := NewDebugClient(server.URL)
	client.SetIdentity(bob.UID, bob.DisplayName)
	return client, lobbies, users
}

func TestDebugClient_CheckConnection(t *testing.T) {
	client, _, _ := newTestAPI(t)
	assert.NoError(t, client.CheckConnection())

	down := NewDebugClient("http://127.0.0.1:1")
	assert.Error(t, down.CheckConnection())
}

func TestDebugClient_LobbyRoundTrip(t *testing.T) {
	client, lobbies, _ := newTestAPI(t)

	board := models.Board{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25}
	lobby := &models.Lobby{
		ID:      "l1",
		HostUID: "bob",
		Stake:   20,
		Status:  models.LobbyStatusWaiting,
		Players: map[string]models.Player{"bob": {UID: "bob", DisplayName: "Bob", Board: board}},
	}
	lobbies.On("CreateLobby", mock.Anything, bob, int64(20)).Return(lobby, nil)
	lobbies.On("GetLobby", mock.Anything, "l1").Return(lobby, nil)

	created, err := client.CreateLobby(20)
	require.NoError(t, err)
	assert.Equal(t, "l1", created.ID)
	assert.Equal(t, int64(20), created.Pot())

	fetched, err := client.GetLobby("l1")
	require.NoError(t, err)
	assert.Equal(t, board, fetched.Players["bob"].Board)

	lobbies.AssertExpectations(t)
}

func TestDebugClient_ReturnsAPIError(t *testing.T) {
	client, lobbies, _ := newTestAPI(t)
	lobbies.On("CallNext", mock.Anything, bob, "l1").Return(nil, service.ErrNotHost)

	_, err := client.CallNext("l1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, service.ErrNotHost.Error(), apiErr.Message)
}

func TestDebugClient_AnonymousIsRejected(t *testing.T) {
	client, _, _ := newTestAPI(t)
	client.SetIdentity("", "")

	_, err := client.Account()
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestDebugClient_Account(t *testing.T) {
	client, _, users := newTestAPI(t)
	users.On("Deposit", mock.Anything, bob, int64(5)).Return(&models.UserAccount{UID: "bob", Balance: 1005}, nil)
	users.On("GetBalanceHistory", mock.Anything, bob, 3).Return([]*models.BalanceHistory{
		{UserUID: "bob", ChangeAmount: 5, TransactionType: models.TransactionTypeDeposit},
	}, nil)

	account, err := client.Deposit(5)
	require.NoError(t, err)
	assert.Equal(t, int64(1005), account.Balance)

	history, err := client.History(3)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.TransactionTypeDeposit, history[0].TransactionType)

	users.AssertExpectations(t)
}

func TestShell_PlaysThroughCommands(t *testing.T) {
	client, lobbies, users := newTestAPI(t)
	client.SetIdentity("", "")

	lobby := &models.Lobby{ID: "lobby-1234", HostUID: "bob", Stake: 10, Status: models.LobbyStatusWaiting,
		Players: map[string]models.Player{"bob": {UID: "bob"}}}
	called := &models.Lobby{ID: "lobby-1234", HostUID: "bob", Stake: 10, Status: models.LobbyStatusWaiting,
		Players: lobby.Players, CalledNumbers: []int{17}}

	users.On("EnsureAccount", mock.Anything, bob).Return(&models.UserAccount{UID: "bob", DisplayName: "Bob", Balance: 1200}, nil)
	lobbies.On("CreateLobby", mock.Anything, bob, int64(10)).Return(lobby, nil)
	lobbies.On("CallNext", mock.Anything, bob, "lobby-1234").Return(called, nil)

	var out bytes.Buffer
	shell, err := NewShell(client, strings.NewReader("as bob Bob\nbalance\ncreate 10\ncall\nnope\nexit\n"), &out)
	require.NoError(t, err)
	require.NoError(t, shell.Run(t.Context()))

	output := out.String()
	assert.Contains(t, output, "Acting as bob")
	assert.Contains(t, output, "Bob: 1,200 coins")
	assert.Contains(t, output, "Created lobby lobby-1234")
	assert.Contains(t, output, "Called 17 (1 of 25)")
	assert.Contains(t, output, "unknown command: nope")
	assert.Contains(t, output, "Exiting debug shell")
	assert.Equal(t, "lobby-1234", shell.currentLobby)

	lobbies.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestShell_LobbyCommandNeedsLobby(t *testing.T) {
	client, _, _ := newTestAPI(t)

	var out bytes.Buffer
	shell, err := NewShell(client, strings.NewReader(""), &out)
	require.NoError(t, err)

	shell.Execute("claim")
	assert.Contains(t, out.String(), "no lobby selected")
}
