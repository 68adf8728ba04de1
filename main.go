package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"bingohub/cmd"
	"bingohub/cmd/debug"
	"bingohub/config"
	"bingohub/database"

	log "github.com/sirupsen/logrus"
)

func main() {
	// Check if invoked as debug-shell (via symlink)
	if filepath.Base(os.Args[0]) == "debug-shell" {
		if err := runDebugMode(); err != nil {
			log.Fatal("Debug mode error: ", err)
		}
		return
	}

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			if err := handleMigrationCommand(); err != nil {
				log.Fatal("Migration error: ", err)
			}
			return
		case "debug":
			if err := runDebugMode(); err != nil {
				log.Fatal("Debug mode error: ", err)
			}
			return
		case "deposit":
			if err := handleDeposit(); err != nil {
				log.Fatal("Deposit error: ", err)
			}
			return
		}
	}

	// Normal ledger operation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	// Run the application
	if err := cmd.Run(ctx); err != nil {
		log.Fatal("Application error: ", err)
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: bingohub migrate [up|down|status] [args...]")
	}

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}

func handleDeposit() error {
	if len(os.Args) < 4 {
		return fmt.Errorf("usage: bingohub deposit <uid> <amount>")
	}
	amount, err := strconv.ParseInt(os.Args[3], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", os.Args[3], err)
	}
	return cmd.Deposit(context.Background(), os.Args[2], amount)
}

// runDebugMode starts the debug shell against the running ledger's debug API
func runDebugMode() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	port := config.Get().DebugAPIPort
	if port <= 0 {
		return fmt.Errorf("debug API is disabled (DEBUG_API_PORT=%d)", port)
	}

	shell, err := debug.NewShell(debug.NewDebugClient(fmt.Sprintf("http://127.0.0.1:%d", port)), os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	return shell.Run(ctx)
}
