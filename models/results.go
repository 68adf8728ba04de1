package models

// ClaimResult describes a paid claim
type ClaimResult struct {
	Lobby        *Lobby   `json:"lobby"`
	Pot          int64    `json:"pot"`
	NewBalance   int64    `json:"newBalance"`
	WinningLines []string `json:"winningLines"`
}
