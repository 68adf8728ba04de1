package debug

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Shell represents the debug shell interface
type Shell struct {
	debugClient  *DebugClient
	in           io.Reader
	out          io.Writer
	commands     map[string]Command
	history      []string
	currentLobby string // Lobby used when a lobby command omits its id
	running      bool
}

// Command represents a debug command
type Command struct {
	Handler     CommandHandler
	Description string
	Usage       string
	Category    string // "player", "lobby", "utility"
}

// CommandHandler is a function that handles a debug command
type CommandHandler func(s *Shell, args []string) error

// NewShell connects to the debug API and prepares the command table
func NewShell(client *DebugClient, in io.Reader, out io.Writer) (*Shell, error) {
	s := &Shell{
		debugClient: client,
		in:          in,
		out:         out,
		history:     []string{},
		running:     true,
	}

	fmt.Fprintln(s.out, "🎱 Bingo Ledger Debug Shell 🎱")
	fmt.Fprintln(s.out, "=============================")
	if err := client.CheckConnection(); err != nil {
		return nil, fmt.Errorf("failed to connect to debug API: %w", err)
	}
	fmt.Fprintln(s.out, "✅ Connected to debug API")
	fmt.Fprintln(s.out, "Tip: run 'as <uid> [name]' to pick who you play as, then 'help'")

	s.initializeCommands()
	return s, nil
}

// Run starts the interactive debug shell
func (s *Shell) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)

	for s.running {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		fmt.Fprint(s.out, s.prompt())

		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		s.history = append(s.history, input)
		s.Execute(input)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}
	return nil
}

// Execute runs one command line
func (s *Shell) Execute(input string) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return
	}
	cmdName, args := parts[0], parts[1:]

	// Handle built-in commands
	switch cmdName {
	case "exit", "quit":
		s.running = false
		fmt.Fprintln(s.out, "👋 Exiting debug shell. The ledger keeps running.")
		return
	case "clear":
		fmt.Fprint(s.out, "\033[H\033[2J")
		return
	}

	cmd, exists := s.commands[cmdName]
	if !exists {
		s.printError(fmt.Errorf("unknown command: %s. Type 'help' for available commands", cmdName))
		return
	}

	if err := cmd.Handler(s, args); err != nil {
		s.printError(err)
		return
	}

	if cmd.Category != "utility" {
		uid, _ := s.debugClient.Identity()
		log.WithFields(log.Fields{
			"command": cmdName,
			"uid":     uid,
			"source":  "debug_shell",
		}).Debug("Debug shell command executed")
	}
}

func (s *Shell) prompt() string {
	uid, _ := s.debugClient.Identity()
	switch {
	case uid != "" && s.currentLobby != "":
		return fmt.Sprintf("\n🎲 %s [%s]> ", uid, shortID(s.currentLobby))
	case uid != "":
		return fmt.Sprintf("\n🎲 %s> ", uid)
	default:
		return "\n🎲 debug> "
	}
}

// printError displays an error message in red
func (s *Shell) printError(err error) {
	fmt.Fprintln(s.out, colorText("❌ Error: "+err.Error(), "red"))
}

// printSuccess displays a success message in green
func (s *Shell) printSuccess(msg string) {
	fmt.Fprintln(s.out, colorText("✅ "+msg, "green"))
}

// printInfo displays an info message in blue
func (s *Shell) printInfo(msg string) {
	fmt.Fprintln(s.out, colorText("ℹ️  "+msg, "blue"))
}
