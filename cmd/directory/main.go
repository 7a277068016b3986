package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/peopledesk/directory-system/internal/client"
	"github.com/peopledesk/directory-system/internal/infrastructure/config"
	"github.com/peopledesk/directory-system/internal/tui"
	"github.com/peopledesk/directory-system/pkg/logger"
)

func main() {
	cfg := config.LoadClient()

	// Logs go to stderr so they never corrupt the terminal UI.
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Output: os.Stderr,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	creds := client.NewStore()
	api := client.New(cfg.ServerURL, creds, log)

	telemetry := client.NewTelemetry(cfg.ServerURL, creds, log)
	telemetry.Start(ctx)

	program := tea.NewProgram(tui.New(api, telemetry), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
