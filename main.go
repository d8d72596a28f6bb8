package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fenilmodi00/ipo-tracker/config"
	"github.com/fenilmodi00/ipo-tracker/database"
	"github.com/fenilmodi00/ipo-tracker/handlers"
	"github.com/fenilmodi00/ipo-tracker/jobs"
	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/fenilmodi00/ipo-tracker/services"
	"github.com/fenilmodi00/ipo-tracker/shared"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var cfg *config.Config

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "ipo-tracker",
	Short:         "IPO calendar tracker with Finnhub sync, GMP and news enrichment",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.LoadConfig()
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.LogLevel = level
		}
		shared.ConfigureLogging(cfg.LogLevel, cfg.LogFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(migrateCmd)

	syncCmd.Flags().String("from-date", "", "start date (YYYY-MM-DD), defaults to today")
	syncCmd.Flags().String("to-date", "", "end date (YYYY-MM-DD), defaults to 30 days after from-date")
	syncCmd.Flags().Bool("force", false, "create sample data when the Finnhub API key is not configured")
}

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the background jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := newApplication(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		gmpJob := jobs.NewGMPUpdateJob(app.gmp)
		newsJob := jobs.NewNewsUpdateJob(app.news)
		schedulers := app.schedulers(gmpJob, newsJob)

		server := handlers.NewApp(true)
		handlers.RegisterRoutes(server, app.handlers(gmpJob, newsJob))

		g, gctx := errgroup.WithContext(ctx)

		for _, scheduler := range schedulers {
			if err := scheduler.Start(gctx); err != nil {
				return err
			}
		}

		g.Go(func() error {
			logrus.WithField("port", cfg.ServerPort).Info("Server starting")
			if err := server.Listen(":" + cfg.ServerPort); err != nil {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			logrus.Info("Shutting down")

			for _, scheduler := range schedulers {
				scheduler.Stop()
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.ShutdownWithContext(shutdownCtx)
		})

		return g.Wait()
	},
}

// --- Sync Command ---

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the IPO calendar from Finnhub once",
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts services.SyncOptions
		for flag, dest := range map[string]*time.Time{"from-date": &opts.From, "to-date": &opts.To} {
			value, _ := cmd.Flags().GetString(flag)
			if value == "" {
				continue
			}
			parsed, err := time.Parse(models.DateLayout, value)
			if err != nil {
				return fmt.Errorf("invalid --%s %q, expected YYYY-MM-DD", flag, value)
			}
			*dest = parsed
		}
		opts.Force, _ = cmd.Flags().GetBool("force")

		ctx := cmd.Context()
		app, err := newApplication(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		out := cmd.OutOrStdout()
		if !app.sync.IsConfigured() {
			if !opts.Force {
				fmt.Fprintln(out, "Finnhub API key not configured. Set FINNHUB_API_KEY or use --force to create sample data.")
				return nil
			}
			fmt.Fprintln(out, "Finnhub API key not configured, creating sample data")
		}

		result, err := app.sync.Sync(ctx, opts)
		if err != nil {
			return err
		}

		stats := result.Stats
		fmt.Fprintf(out, "Mode: %s\n", result.Mode)
		if result.Mode == models.SyncModeAPI {
			fmt.Fprintf(out, "Window: %s to %s\n", result.From.Format(models.DateLayout), result.To.Format(models.DateLayout))
		}
		fmt.Fprintf(out, "Fetched: %d\nProcessed: %d\nCreated: %d\nUpdated: %d\nErrors: %d\n",
			stats.Fetched, stats.Processed, stats.Created, stats.Updated, stats.Errors)
		fmt.Fprintf(out, "Completed in %s\n", result.Duration.Round(time.Millisecond))
		return nil
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print integration state and stored row counts as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := newApplication(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := database.HealthCheck(ctx, app.db); err != nil {
			return err
		}
		report, err := app.status.Status(ctx)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

// --- Migrate Command ---

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.Migrate(cmd.Context(), db); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Schema applied")
		return nil
	},
}
