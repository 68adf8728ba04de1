package httpapi

import (
	"net/http"

	"bingohub/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// SetupRoutes builds the debug API. Every /debug route acts as the identity
// named by the X-Debug-Uid header.
func SetupRoutes(lobbies service.LobbyService, users service.UserService) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", Healthz)

	r.Route("/debug", func(r chi.Router) {
		r.Use(WithDebugIdentity)

		r.Get("/lobbies", ListWaitingLobbies(lobbies))
		r.Post("/lobbies", CreateLobby(lobbies))
		r.Get("/lobbies/{lobbyID}", GetLobby(lobbies))
		r.Post("/lobbies/{lobbyID}/join", JoinLobby(lobbies))
		r.Post("/lobbies/{lobbyID}/call", CallNext(lobbies))
		r.Post("/lobbies/{lobbyID}/claim", ClaimWin(lobbies))

		r.Get("/account", GetAccount(users))
		r.Post("/account/deposit", Deposit(users))
		r.Get("/account/history", GetBalanceHistory(users))
	})
	return r
}
