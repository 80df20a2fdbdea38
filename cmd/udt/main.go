// Package main is the entry point for the usage dashboard TUI.
// It loads configuration, starts the services and runs the Bubble Tea program.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/usage-dashboard-tui/internal/app"
	"github.com/j-veylop/usage-dashboard-tui/internal/config"
	"github.com/j-veylop/usage-dashboard-tui/internal/logger"
	"github.com/j-veylop/usage-dashboard-tui/internal/services"
	"github.com/j-veylop/usage-dashboard-tui/internal/ui/tabs/info"
	"github.com/j-veylop/usage-dashboard-tui/internal/ui/tabs/trends"
	"github.com/j-veylop/usage-dashboard-tui/internal/ui/tabs/usage"
	"github.com/j-veylop/usage-dashboard-tui/internal/version"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "-v", "--version":
			fmt.Println(version.Info())
			os.Exit(0)
		case "-h", "--help":
			printUsage()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "unknown flag %q\n\n", os.Args[1])
			printUsage()
			os.Exit(2)
		}
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if cfg.LogFile != "" {
		closer, err := logger.Init(cfg.LogFile, cfg.LogLevel)
		if err != nil {
			return err
		}
		defer closer.Close()
	}
	logger.Info("starting", "version", version.GetVersion(), "base_url", cfg.BaseURL, "env_file", cfg.EnvFile)

	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			logger.Warn("error closing services", "error", closeErr)
		}
	}()

	model := app.NewModel(svcManager)
	state, commands := model.GetState(), model.GetCommands()
	model.SetTabs([]app.Tab{
		usage.New(state, commands),
		trends.New(state, commands),
		info.New(state, commands),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

func printUsage() {
	fmt.Println(`usage-dashboard-tui - usage statistics for one-api style LLM gateways

Usage:
  udt [flags]

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information

Keyboard Shortcuts:
  1-3             Switch between tabs (Usage, Trends, Info)
  Tab/Shift+Tab   Next/previous tab
  /               Open the search form (enter searches, esc closes)
  Ctrl+R          Reset filters
  n/p             Next/previous page
  +/-             Change page size (10, 20, 50, 100)
  g               Toggle monthly/daily statistics
  c               Toggle compact table
  r               Refresh
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  ONEAPI_BASE_URL         Gateway URL (required)
  ONEAPI_ACCESS_TOKEN     Access token (required)
  ONEAPI_USER_ID          Value of the New-Api-User header
  ONEAPI_ROLE             admin, user, or empty to detect
  DATABASE_PATH           SQLite database path
  PAGE_SIZE               Rows per page (default: 10)
  REQUEST_TIMEOUT         HTTP timeout (default: 30s)
  QUOTA_PER_UNIT          Quota units per currency unit (default: 500000)
  DISPLAY_IN_CURRENCY     Show quota as currency (default: true)
  DESKTOP_NOTIFICATIONS   Desktop alerts on failures (default: false)
  LOG_FILE                Log file path
  LOG_LEVEL               debug, info, warn or error (default: info)

Configuration:
  The first .env file found is loaded and watched for changes:
  - Current directory
  - ~/.config/usage-dashboard-tui/.env
  - ~/.usage-dashboard/.env
  - Parent directories of the current directory`)
}
