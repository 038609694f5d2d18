package cli

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/tgienger/taskdeck/internal/db"
	"github.com/tgienger/taskdeck/internal/server"
)

func newServeCmd(app *App) *cobra.Command {
	var addr, dbPath string
	var seed bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the task REST service",
		Long: `Run the task REST service backed by a SQLite database.

Examples:
  taskdeck serve
  taskdeck serve --addr :8080 --db ./tasks.db --seed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.cfg.Server
			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.Addr = addr
			}
			if flags.Changed("db") {
				cfg.DBPath = dbPath
			}
			if flags.Changed("seed") {
				cfg.Seed = seed
			}

			if !app.Verbose {
				gin.SetMode(gin.ReleaseMode)
			}
			logger := log.New(cmd.ErrOrStderr(), "", log.LstdFlags)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			database, err := db.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer database.Close()

			if cfg.Seed {
				inserted, err := database.Seed(ctx)
				if err != nil {
					return fmt.Errorf("seeding database: %w", err)
				}
				if inserted {
					logger.Println("Seeded sample tasks")
				}
			}

			return server.NewServer(database, logger).Run(ctx, cfg.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":5000", "Listen address (overrides server.addr)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database file (overrides server.db_path)")
	cmd.Flags().BoolVar(&seed, "seed", false, "Insert sample data into an empty database")
	return cmd
}
