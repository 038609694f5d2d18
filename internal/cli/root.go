// Package cli wires the taskdeck command tree: the TUI by default, the REST
// service and scriptable task and comment commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/tgienger/taskdeck/internal/api"
	"github.com/tgienger/taskdeck/internal/config"
	"github.com/tgienger/taskdeck/internal/ui"
)

// BuildInfo is stamped in at link time
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", b.Version, b.Commit, b.Date)
}

// App holds the global flags and the loaded configuration
type App struct {
	ConfigPath string
	BaseURL    string
	PrettyJSON bool
	Verbose    bool

	cfg *config.Config
}

// NewRootCmd builds the command tree
func NewRootCmd(info BuildInfo) *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "taskdeck",
		Short:        "Terminal client for the task service",
		Version:      info.String(),
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  taskdeck

  # Run the REST service with sample data
  taskdeck serve --seed

  # Scriptable commands
  taskdeck tasks add --title "Write docs"
  taskdeck comments list 1 --pretty
`),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(app.ConfigPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			app.cfg = cfg
			if app.BaseURL == "" {
				app.BaseURL = cfg.API.BaseURL
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return cmd.Help()
			}
			return runTUI(cmd, app)
		},
	}
	cmd.SetVersionTemplate("taskdeck {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/taskdeck/config.yaml)")
	cmd.PersistentFlags().StringVar(&app.BaseURL, "api", "", "Base URL of the task service (overrides api.base_url)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().BoolVar(&app.Verbose, "verbose", false, "Log requests and failures to stderr")

	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newCommentsCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newVersionCmd(info))

	return cmd
}

func runTUI(cmd *cobra.Command, app *App) error {
	// the terminal belongs to the TUI, so diagnostics go to the log file
	if err := os.MkdirAll(filepath.Dir(app.cfg.LogFile), 0755); err != nil {
		return err
	}
	f, err := tea.LogToFile(app.cfg.LogFile, "taskdeck")
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()

	logger := log.Default()
	ctx := cmd.Context()
	client := api.New(app.BaseURL, api.WithLogger(logger))
	model := ui.NewApp(ctx, client, ui.Options{
		Author:        app.cfg.Author,
		MarkdownStyle: app.cfg.MarkdownStyle,
		Logger:        logger,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running application: %w", err)
	}
	return nil
}

func newVersionCmd(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "taskdeck %s\n", info)
			return err
		},
	}
}

func (app *App) logger(cmd *cobra.Command) *log.Logger {
	if !app.Verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
}

func (app *App) client(cmd *cobra.Command) *api.Client {
	return api.New(app.BaseURL, api.WithLogger(app.logger(cmd)))
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	if app.PrettyJSON {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
