// cmd/atendeja/main.go
//
// Entry point for the order board TUI.
//
// Flow:
// 1. Load atendeja.yaml (or fall back to the built-in lifecycle)
// 2. Open the activity logbook under the user's home
// 3. Run the bubbletea program against the configured order service

package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rodri-oliveira/atendeja/internal/api"
	"github.com/rodri-oliveira/atendeja/internal/config"
	"github.com/rodri-oliveira/atendeja/internal/logbook"
	"github.com/rodri-oliveira/atendeja/internal/tui"
)

func main() {
	path := config.DefaultPath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	cfg, cfgErr := config.Load(path)

	lb, err := logbook.New(logPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening logbook: %v\n", err)
		os.Exit(1)
	}
	if cfgErr != nil {
		// Still usable: Load already fell back to defaults for the bad parts.
		lb.Warn("config: %v", cfgErr)
	}
	lb.Info("starting board against %s", cfg.API.BaseURL)

	client := api.New(cfg.API.BaseURL, api.WithMutationTimeout(cfg.MutationTimeout()))

	p := tea.NewProgram(
		tui.NewApp(cfg, client, lb),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

// logPath places the activity log under the home directory, falling back to
// the working directory when home is unavailable.
func logPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".atendeja", "activity.log")
	}
	return filepath.Join(home, ".atendeja", "activity.log")
}
