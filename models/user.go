package models

import (
	"fmt"
	"strings"
	"time"
)

// UserAccount is a signed-in player's profile and coin balance
type UserAccount struct {
	UID         string    `db:"uid" json:"uid"`
	DisplayName string    `db:"display_name" json:"displayName"`
	Email       string    `db:"email" json:"email,omitempty"`
	PhotoURL    string    `db:"photo_url" json:"photoURL,omitempty"`
	Balance     int64     `db:"balance" json:"balance"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// Validate rejects accounts that could not have been written by the ledger
func (u *UserAccount) Validate() error {
	if err := ValidateUID(u.UID); err != nil {
		return err
	}
	if u.Balance < 0 {
		return fmt.Errorf("account %s has negative balance %d", u.UID, u.Balance)
	}
	return nil
}

// CanAfford reports whether the balance covers amount
func (u *UserAccount) CanAfford(amount int64) bool {
	return u.Balance >= amount
}

// ValidateUID checks an identity provider subject id. UIDs are used as
// message subject tokens, so separators and wildcards are not allowed.
func ValidateUID(uid string) error {
	if uid == "" {
		return fmt.Errorf("uid is empty")
	}
	if len(uid) > 128 {
		return fmt.Errorf("uid is longer than 128 characters")
	}
	if strings.ContainsAny(uid, ".*> \t\r\n") {
		return fmt.Errorf("uid %q contains reserved characters", uid)
	}
	return nil
}
