package debug

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"bingohub/httpapi"
	"bingohub/models"
)

// DebugClient provides access to the ledger's debug API
type DebugClient struct {
	baseURL string
	client  *http.Client

	uid  string
	name string
}

// NewDebugClient creates a new debug API client
func NewDebugClient(baseURL string) *DebugClient {
	return &DebugClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SetIdentity selects who subsequent requests act as
func (c *DebugClient) SetIdentity(uid, name string) {
	c.uid = uid
	c.name = name
}

// Identity returns the uid and display name requests act as
func (c *DebugClient) Identity() (string, string) {
	return c.uid, c.name
}

// CheckConnection verifies the debug API is accessible
func (c *DebugClient) CheckConnection() error {
	resp, err := c.client.Get(c.baseURL + "/health")
	if err != nil {
		return fmt.Errorf("debug API not accessible: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("debug API returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *DebugClient) ListLobbies() ([]*models.Lobby, error) {
	var lobbies []*models.Lobby
	return lobbies, c.do(http.MethodGet, "/debug/lobbies", nil, &lobbies)
}

func (c *DebugClient) GetLobby(lobbyID string) (*models.Lobby, error) {
	var lobby models.Lobby
	if err := c.do(http.MethodGet, "/debug/lobbies/"+url.PathEscape(lobbyID), nil, &lobby); err != nil {
		return nil, err
	}
	return &lobby, nil
}

func (c *DebugClient) CreateLobby(stake int64) (*models.Lobby, error) {
	var lobby models.Lobby
	if err := c.do(http.MethodPost, "/debug/lobbies", httpapi.StakeRequest{Stake: stake}, &lobby); err != nil {
		return nil, err
	}
	return &lobby, nil
}

func (c *DebugClient) JoinLobby(lobbyID string) (*models.Lobby, error) {
	return c.lobbyAction(lobbyID, "join")
}

func (c *DebugClient) CallNext(lobbyID string) (*models.Lobby, error) {
	return c.lobbyAction(lobbyID, "call")
}

func (c *DebugClient) ClaimWin(lobbyID string) (*models.ClaimResult, error) {
	var result models.ClaimResult
	if err := c.do(http.MethodPost, "/debug/lobbies/"+url.PathEscape(lobbyID)+"/claim", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *DebugClient) Account() (*models.UserAccount, error) {
	var account models.UserAccount
	if err := c.do(http.MethodGet, "/debug/account", nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (c *DebugClient) Deposit(amount int64) (*models.UserAccount, error) {
	var account models.UserAccount
	if err := c.do(http.MethodPost, "/debug/account/deposit", httpapi.AmountRequest{Amount: amount}, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (c *DebugClient) History(limit int) ([]*models.BalanceHistory, error) {
	path := "/debug/account/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var history []*models.BalanceHistory
	return history, c.do(http.MethodGet, path, nil, &history)
}

func (c *DebugClient) lobbyAction(lobbyID, action string) (*models.Lobby, error) {
	var lobby models.Lobby
	if err := c.do(http.MethodPost, "/debug/lobbies/"+url.PathEscape(lobbyID)+"/"+action, nil, &lobby); err != nil {
		return nil, err
	}
	return &lobby, nil
}

// debugEnvelope mirrors httpapi.DebugResponse with the data left raw
type debugEnvelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// do sends one request as the selected identity and decodes the data field into out
func (c *DebugClient) do(method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.uid != "" {
		req.Header.Set(httpapi.HeaderUID, c.uid)
		req.Header.Set(httpapi.HeaderDisplayName, c.name)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var envelope debugEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}
	if !envelope.Success {
		return &APIError{Status: resp.StatusCode, Message: envelope.Error}
	}
	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// APIError is a request the debug API rejected
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}
