package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"splitrelay/internal/config"
	"splitrelay/internal/dispatch"
	"splitrelay/internal/sessionlog"
	"splitrelay/internal/singleinstance"
	"splitrelay/internal/tui"
)

var version = "0.1.0"

// statusLines is how many recent warnings the window keeps for its status
// line.
const statusLines = 32

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "splitrelay",
	Short: "Speedrun split timer with a live WebSocket state relay",
	Long: `splitrelay is a terminal split timer. Hotkeys drive the timer either from
the focused terminal or, with use_global_hotkeys, from OS-level global hotkeys.
Every state change is broadcast as JSON to WebSocket subscribers.

Examples:
  splitrelay                         # Start the timer window
  splitrelay serve                   # Run without a window (global hotkeys)
  splitrelay keys                    # Show the resolved key bindings
  splitrelay --config ./run.yaml     # Use another config file`,
	Version:       version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, false)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the timer and relay without a window until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, true)
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Print the resolved key bindings for the configured mode",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(resolveConfigPath())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		printKeys(cmd.OutOrStdout(), cfg)
		return nil
	},
}

var flagConfig string

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Config file (default: per-user config directory)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(keysCmd)
}

func resolveConfigPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.DefaultPath()
}

// runApp runs one splitrelay session, with the window unless headless.
func runApp(cmd *cobra.Command, headless bool) error {
	status := sessionlog.NewRecent(statusLines)
	app := NewApp(appOptions{ConfigPath: resolveConfigPath()})
	cfg := app.loadStartupConfig()

	// One process per state file; a second instance would interleave writes.
	lockPath := config.ResolvePath(app.configPath, cfg.General.StateFile)
	if lockPath == "" {
		lockPath = app.configPath
	}
	lock, err := singleinstance.TryLock(lockPath)
	if errors.Is(err, singleinstance.ErrAlreadyRunning) {
		return fmt.Errorf("another splitrelay instance is using %s", lockPath)
	}
	if err != nil {
		slog.Warn("[DEBUG-SINGLE] instance lock failed, proceeding without single-instance guard", "error", err)
	}
	if lock != nil {
		defer func() {
			if releaseErr := lock.Release(); releaseErr != nil {
				slog.Warn("[DEBUG-SINGLE] instance lock release failed", "error", releaseErr)
			}
		}()
	}

	logOpts := sessionlog.Options{
		Path:  config.ResolvePath(app.configPath, cfg.Log.Path),
		Level: cfg.LogLevel(),
		Clear: cfg.Log.Clear,
	}
	if headless {
		logOpts.Fallback = os.Stderr
	} else {
		// The terminal belongs to the window; warnings go to the status line.
		logOpts.Tee = status.Add
		logOpts.TeeLevel = slog.LevelWarn
	}
	logger, logCloser, err := sessionlog.Setup(logOpts)
	if err != nil {
		app.addPendingConfigLoadWarning("Failed to open log file. Logging without it. Error: " + err.Error())
	}
	slog.SetDefault(logger)
	defer func() {
		if closeErr := logCloser.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "close log file: %v\n", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var ui *tui.UI
	if headless {
		app.quitFn = stop
	} else {
		ui = tui.New(tui.Options{
			Backend:         app,
			Status:          status,
			DigitsAsNumpad:  !cfg.General.DigitRowKeys,
			RefreshInterval: cfg.RefreshInterval(),
		})
		app.setPicker(ui)
		app.quitFn = ui.Quit
	}

	if err := app.startup(ctx, cfg); err != nil {
		return err
	}
	defer app.shutdown()

	if headless {
		slog.Info("[DEBUG-APP] running headless until interrupted")
		<-ctx.Done()
		return nil
	}
	return ui.Run(ctx)
}

// printKeys writes the window key table and, in Global mode, the OS-level
// registrations.
func printKeys(w io.Writer, cfg config.Config) {
	mode := cfg.Mode()
	window := dispatch.BuildTable(mode, cfg.Binding)

	fmt.Fprintf(w, "Mode: %s\n\nWindow keys\n", mode.String())
	fmt.Fprintln(w, bindingTable(window.Entries()))
	if mode != dispatch.ModeGlobal {
		return
	}
	fmt.Fprintln(w, "\nGlobal hotkeys")
	fmt.Fprintln(w, bindingTable(dispatch.GlobalBindings(cfg.Binding)))
}

func bindingTable(entries []dispatch.Entry) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("HOTKEY", "ACTION")
	for _, entry := range entries {
		t.Row(entry.Hotkey.String(), entry.Action.String())
	}
	return t.String()
}
