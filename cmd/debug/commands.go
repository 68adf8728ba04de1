package debug

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"bingohub/models"
)

// initializeCommands sets up all available debug commands
func (s *Shell) initializeCommands() {
	s.commands = map[string]Command{
		"help": {
			Handler:     (*Shell).handleHelp,
			Description: "Show available commands",
			Usage:       "help [command]",
			Category:    "utility",
		},
		"as": {
			Handler:     (*Shell).handleAs,
			Description: "Act as a player",
			Usage:       "as <uid> [display name]",
			Category:    "utility",
		},
		"whoami": {
			Handler:     (*Shell).handleWhoami,
			Description: "Show the current player",
			Usage:       "whoami",
			Category:    "utility",
		},
		"balance": {
			Handler:     (*Shell).handleBalance,
			Description: "Show the current player's account, creating it on first use",
			Usage:       "balance",
			Category:    "player",
		},
		"deposit": {
			Handler:     (*Shell).handleDeposit,
			Description: "Add coins to the current player's balance",
			Usage:       "deposit <amount>",
			Category:    "player",
		},
		"history": {
			Handler:     (*Shell).handleHistory,
			Description: "Show recent balance changes",
			Usage:       "history [limit]",
			Category:    "player",
		},
		"lobbies": {
			Handler:     (*Shell).handleLobbies,
			Description: "List waiting lobbies",
			Usage:       "lobbies",
			Category:    "lobby",
		},
		"create": {
			Handler:     (*Shell).handleCreate,
			Description: "Open a lobby with the current player as host",
			Usage:       "create <stake>",
			Category:    "lobby",
		},
		"join": {
			Handler:     (*Shell).handleJoin,
			Description: "Pay the stake and take a board",
			Usage:       "join [lobby_id]",
			Category:    "lobby",
		},
		"call": {
			Handler:     (*Shell).handleCall,
			Description: "Call the next number (host only)",
			Usage:       "call [lobby_id]",
			Category:    "lobby",
		},
		"claim": {
			Handler:     (*Shell).handleClaim,
			Description: "Claim the pot with a completed line",
			Usage:       "claim [lobby_id]",
			Category:    "lobby",
		},
		"show": {
			Handler:     (*Shell).handleShow,
			Description: "Show a lobby and the current player's board",
			Usage:       "show [lobby_id]",
			Category:    "lobby",
		},
	}
}

// handleHelp displays help information
func (s *Shell) handleHelp(args []string) error {
	if len(args) > 0 {
		cmdName := args[0]
		cmd, exists := s.commands[cmdName]
		if !exists {
			return fmt.Errorf("unknown command: %s", cmdName)
		}
		fmt.Fprintf(s.out, "\n📖 %s\n", cmdName)
		fmt.Fprintf(s.out, "   %s\n", cmd.Description)
		fmt.Fprintf(s.out, "   Usage: %s\n", cmd.Usage)
		return nil
	}

	fmt.Fprintln(s.out, "\n📚 Available Commands:")
	fmt.Fprintln(s.out, "====================")
	for _, category := range []string{"player", "lobby", "utility"} {
		fmt.Fprintf(s.out, "\n%s:\n", colorText(strings.ToUpper(category), "yellow"))
		names := make([]string, 0, len(s.commands))
		for name, cmd := range s.commands {
			if cmd.Category == category {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(s.out, "  %-10s %s\n", name, s.commands[name].Description)
		}
	}
	fmt.Fprintf(s.out, "  %-10s %s\n", "exit", "Exit debug shell")
	fmt.Fprintln(s.out, "\nType 'help <command>' for detailed usage")
	return nil
}

func (s *Shell) handleAs(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: as <uid> [display name]")
	}
	name := strings.Join(args[1:], " ")
	s.debugClient.SetIdentity(args[0], name)
	s.printSuccess(fmt.Sprintf("Acting as %s", args[0]))
	return nil
}

func (s *Shell) handleWhoami(args []string) error {
	uid, name := s.debugClient.Identity()
	if uid == "" {
		s.printInfo("Anonymous. Use 'as <uid>' to pick a player")
		return nil
	}
	if name == "" {
		name = uid
	}
	fmt.Fprintf(s.out, "%s (%s)\n", name, uid)
	return nil
}

func (s *Shell) handleBalance(args []string) error {
	account, err := s.debugClient.Account()
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s: %s coins\n", account.DisplayName, formatNumber(account.Balance))
	return nil
}

func (s *Shell) handleDeposit(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: deposit <amount>")
	}
	amount, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	account, err := s.debugClient.Deposit(amount)
	if err != nil {
		return err
	}
	s.printSuccess(fmt.Sprintf("Deposited %s, balance is now %s", formatNumber(amount), formatNumber(account.Balance)))
	return nil
}

func (s *Shell) handleHistory(args []string) error {
	limit := 10
	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid limit: %w", err)
		}
		limit = parsed
	}

	history, err := s.debugClient.History(limit)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		s.printInfo("No balance history")
		return nil
	}

	rows := make([][]string, 0, len(history))
	for _, h := range history {
		lobby := ""
		if h.RelatedLobbyID != nil {
			lobby = shortID(*h.RelatedLobbyID)
		}
		rows = append(rows, []string{
			h.CreatedAt.Local().Format(time.DateTime),
			string(h.TransactionType),
			formatSignedNumber(h.ChangeAmount),
			formatNumber(h.BalanceAfter),
			lobby,
		})
	}
	fmt.Fprintln(s.out, formatTable([]string{"When", "Type", "Change", "Balance", "Lobby"}, rows))
	return nil
}

func (s *Shell) handleLobbies(args []string) error {
	lobbies, err := s.debugClient.ListLobbies()
	if err != nil {
		return err
	}
	if len(lobbies) == 0 {
		s.printInfo("No waiting lobbies")
		return nil
	}

	rows := make([][]string, 0, len(lobbies))
	for _, l := range lobbies {
		rows = append(rows, []string{
			l.ID,
			l.HostUID,
			formatNumber(l.Stake),
			strconv.Itoa(l.PlayerCount()),
			formatNumber(l.Pot()),
			strconv.Itoa(len(l.CalledNumbers)),
		})
	}
	fmt.Fprintln(s.out, formatTable([]string{"ID", "Host", "Stake", "Players", "Pot", "Called"}, rows))
	return nil
}

func (s *Shell) handleCreate(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: create <stake>")
	}
	stake, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid stake: %w", err)
	}

	lobby, err := s.debugClient.CreateLobby(stake)
	if err != nil {
		return err
	}
	s.currentLobby = lobby.ID
	s.printSuccess(fmt.Sprintf("Created lobby %s with stake %s", lobby.ID, formatNumber(stake)))
	return nil
}

func (s *Shell) handleJoin(args []string) error {
	lobbyID, err := s.lobbyArg(args)
	if err != nil {
		return err
	}
	lobby, err := s.debugClient.JoinLobby(lobbyID)
	if err != nil {
		return err
	}
	s.currentLobby = lobby.ID
	s.printSuccess(fmt.Sprintf("Seated in lobby %s, pot is %s", lobby.ID, formatNumber(lobby.Pot())))
	return nil
}

func (s *Shell) handleCall(args []string) error {
	lobbyID, err := s.lobbyArg(args)
	if err != nil {
		return err
	}
	lobby, err := s.debugClient.CallNext(lobbyID)
	if err != nil {
		return err
	}
	last := lobby.CalledNumbers[len(lobby.CalledNumbers)-1]
	s.printSuccess(fmt.Sprintf("Called %d (%d of %d)", last, len(lobby.CalledNumbers), models.BoardSize))
	return nil
}

func (s *Shell) handleClaim(args []string) error {
	lobbyID, err := s.lobbyArg(args)
	if err != nil {
		return err
	}
	result, err := s.debugClient.ClaimWin(lobbyID)
	if err != nil {
		return err
	}
	s.printSuccess(fmt.Sprintf("BINGO! Won %s with %s, balance is now %s",
		formatNumber(result.Pot), strings.Join(result.WinningLines, ", "), formatNumber(result.NewBalance)))
	return nil
}

func (s *Shell) handleShow(args []string) error {
	lobbyID, err := s.lobbyArg(args)
	if err != nil {
		return err
	}
	lobby, err := s.debugClient.GetLobby(lobbyID)
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "Lobby %s (%s)\n", lobby.ID, lobby.Status)
	fmt.Fprintf(s.out, "  Host:    %s\n", lobby.HostUID)
	fmt.Fprintf(s.out, "  Stake:   %s\n", formatNumber(lobby.Stake))
	fmt.Fprintf(s.out, "  Players: %s\n", strings.Join(lobby.PlayerUIDs(), ", "))
	fmt.Fprintf(s.out, "  Pot:     %s\n", formatNumber(lobby.Pot()))
	fmt.Fprintf(s.out, "  Called:  %s\n", formatCalled(lobby.CalledNumbers))
	if lobby.WinnerUID != nil && lobby.WinningPot != nil {
		fmt.Fprintf(s.out, "  Winner:  %s (%s)\n", *lobby.WinnerUID, formatNumber(*lobby.WinningPot))
	}

	uid, _ := s.debugClient.Identity()
	if player, ok := lobby.Players[uid]; ok {
		fmt.Fprintln(s.out)
		fmt.Fprintln(s.out, formatBoard(player.Board, lobby.CalledNumbers))
	}
	return nil
}

// lobbyArg returns the explicit lobby id or falls back to the current lobby
func (s *Shell) lobbyArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if s.currentLobby == "" {
		return "", fmt.Errorf("no lobby selected - create or join one, or pass a lobby id")
	}
	return s.currentLobby, nil
}
