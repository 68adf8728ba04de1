package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"bingohub/models"
	"bingohub/service"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

// Identity headers read by WithDebugIdentity
const (
	HeaderUID         = "X-Debug-Uid"
	HeaderDisplayName = "X-Debug-Name"
	HeaderEmail       = "X-Debug-Email"
)

// DebugResponse represents the response from a debug command
type DebugResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// StakeRequest is the body of POST /debug/lobbies
type StakeRequest struct {
	Stake int64 `json:"stake"`
}

// AmountRequest is the body of POST /debug/account/deposit
type AmountRequest struct {
	Amount int64 `json:"amount"`
}

// WithDebugIdentity attaches the identity named in the request headers
func WithDebugIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := r.Header.Get(HeaderUID)
		if uid == "" {
			next.ServeHTTP(w, r)
			return
		}
		identity := service.Identity{
			UID:         uid,
			DisplayName: r.Header.Get(HeaderDisplayName),
			Email:       r.Header.Get(HeaderEmail),
		}
		next.ServeHTTP(w, r.WithContext(service.WithIdentity(r.Context(), identity)))
	})
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func ListWaitingLobbies(lobbies service.LobbyService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := lobbies.ListWaitingLobbies(r.Context())
		if err != nil {
			respondWithServiceError(w, err)
			return
		}
		respondWithData(w, http.StatusOK, list)
	}
}

func GetLobby(lobbies service.LobbyService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lobby, err := lobbies.GetLobby(r.Context(), chi.URLParam(r, "lobbyID"))
		if err != nil {
			respondWithServiceError(w, err)
			return
		}
		respondWithData(w, http.StatusOK, lobby)
	}
}

func CreateLobby(lobbies service.LobbyService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := identityOrReject(w, r)
		if !ok {
			return
		}

		var req StakeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		lobby, err := lobbies.CreateLobby(r.Context(), identity, req.Stake)
		if err != nil {
			respondWithServiceError(w, err)
			return
		}
		respondWithData(w, http.StatusCreated, lobby)
	}
}

func JoinLobby(lobbies service.LobbyService) http.HandlerFunc {
	return lobbyAction(lobbies.JoinLobby)
}

func CallNext(lobbies service.LobbyService) http.HandlerFunc {
	return lobbyAction(lobbies.CallNext)
}

func ClaimWin(lobbies service.LobbyService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := identityOrReject(w, r)
		if !ok {
			return
		}

		result, err := lobbies.ClaimWin(r.Context(), identity, chi.URLParam(r, "lobbyID"))
		if err != nil {
			respondWithServiceError(w, err)
			return
		}
		respondWithData(w, http.StatusOK, result)
	}
}

func GetAccount(users service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := identityOrReject(w, r)
		if !ok {
			return
		}

		account, err := users.EnsureAccount(r.Context(), identity)
		if err != nil {
			respondWithServiceError(w, err)
			return
		}
		respondWithData(w, http.StatusOK, account)
	}
}

func Deposit(users service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := identityOrReject(w, r)
		if !ok {
			return
		}

		var req AmountRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		account, err := users.Deposit(r.Context(), identity, req.Amount)
		if err != nil {
			respondWithServiceError(w, err)
			return
		}
		respondWithData(w, http.StatusOK, account)
	}
}

func GetBalanceHistory(users service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := identityOrReject(w, r)
		if !ok {
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				respondWithError(w, "Invalid limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		history, err := users.GetBalanceHistory(r.Context(), identity, limit)
		if err != nil {
			respondWithServiceError(w, err)
			return
		}
		respondWithData(w, http.StatusOK, history)
	}
}

// lobbyAction serves the lobby operations that act as the caller and return the updated lobby
func lobbyAction(op func(ctx context.Context, identity service.Identity, lobbyID string) (*models.Lobby, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := identityOrReject(w, r)
		if !ok {
			return
		}

		lobby, err := op(r.Context(), identity, chi.URLParam(r, "lobbyID"))
		if err != nil {
			respondWithServiceError(w, err)
			return
		}
		respondWithData(w, http.StatusOK, lobby)
	}
}

func identityOrReject(w http.ResponseWriter, r *http.Request) (service.Identity, bool) {
	identity, ok := service.IdentityFromContext(r.Context())
	if !ok {
		respondWithError(w, service.ErrNotAuthenticated.Error(), http.StatusUnauthorized)
	}
	return identity, ok
}

// statusFor maps ledger errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrLobbyNotFound), errors.Is(err, service.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNotHost), errors.Is(err, service.ErrNotAPlayer):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidAmount), errors.Is(err, service.ErrInsufficientFunds):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAlreadyFinished),
		errors.Is(err, service.ErrExhaustedPool),
		errors.Is(err, service.ErrNoWinningLine),
		errors.Is(err, service.ErrStakeImmutable),
		errors.Is(err, service.ErrConcurrentModification):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondWithServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("Debug API request failed")
	}
	respondWithError(w, err.Error(), status)
}

func respondWithData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(DebugResponse{
		Success: true,
		Data:    data,
	})
}

func respondWithError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(DebugResponse{
		Success: false,
		Error:   message,
	})
}
