package events

import "strings"

const (
	lobbiesToken = "lobbies"
	usersToken   = "users"
)

// AllLobbiesSubject matches every lobby event
const AllLobbiesSubject = lobbiesToken + ".*.*"

// LobbySubject matches every event of one lobby
func LobbySubject(lobbyID string) string {
	return lobbySubject(lobbyID, "*")
}

// UserSubject matches every event of one account
func UserSubject(uid string) string {
	return userSubject(uid, "*")
}

func lobbySubject(lobbyID, action string) string {
	return lobbiesToken + "." + lobbyID + "." + action
}

func userSubject(uid, action string) string {
	return usersToken + "." + uid + "." + action
}

// MatchSubject reports whether subject matches pattern using NATS token rules:
// "*" matches exactly one token and a trailing ">" matches one or more.
func MatchSubject(pattern, subject string) bool {
	pTokens := strings.Split(pattern, ".")
	sTokens := strings.Split(subject, ".")

	for i, p := range pTokens {
		if p == ">" {
			return i == len(pTokens)-1 && len(sTokens) > i
		}
		if i >= len(sTokens) {
			return false
		}
		if p != "*" && p != sTokens[i] {
			return false
		}
	}
	return len(pTokens) == len(sTokens)
}
