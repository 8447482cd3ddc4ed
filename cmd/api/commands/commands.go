package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/taskmaster/recurring/internal/application/services"
	"github.com/taskmaster/recurring/internal/infrastructure/config"
	"github.com/taskmaster/recurring/internal/infrastructure/database"
	"github.com/taskmaster/recurring/internal/infrastructure/scheduler"
	"github.com/taskmaster/recurring/internal/infrastructure/server"
)

// Set at build time with -ldflags "-X .../commands.Version=..."
var (
	Version   = "dev"
	GitCommit = "development"
)

const shutdownTimeout = 15 * time.Second

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and the generate-ahead job",
		Long:  "Start the HTTP API and a scheduler that keeps every active template materialized up to the configured horizon",
		Run: func(cmd *cobra.Command, args []string) {
			runServer(migrateFirst)
		},
	}

	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "Apply pending migrations before starting")
	return cmd
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage database migrations (up, down, version)",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		Run: func(cmd *cobra.Command, args []string) {
			runMigration("up", 0)
		},
	})

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Run: func(cmd *cobra.Command, args []string) {
			steps, _ := cmd.Flags().GetInt("steps")
			runMigration("down", steps)
		},
	}
	downCmd.Flags().Int("steps", 0, "Number of migrations to roll back (0 rolls back all)")
	migrateCmd.AddCommand(downCmd)

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		Run: func(cmd *cobra.Command, args []string) {
			showMigrationVersion()
		},
	})

	return migrateCmd
}

// NewGenerateCommand creates the one-shot generation command
func NewGenerateCommand() *cobra.Command {
	var templateID, ownerID, from, to string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Materialize recurring instances for a template or an owner",
		Long:  "Materialize the missing instances of one template (--template) or of every active template of an owner (--owner). The window defaults to [now, now+horizon].",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (templateID == "") == (ownerID == "") {
				return fmt.Errorf("exactly one of --template or --owner is required")
			}
			return runGenerate(cmd.Context(), templateID, ownerID, from, to)
		},
	}

	cmd.Flags().StringVar(&templateID, "template", "", "Template ID")
	cmd.Flags().StringVar(&ownerID, "owner", "", "Owner ID")
	cmd.Flags().StringVar(&from, "from", "", "Window start (RFC 3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Window end (RFC 3339 or YYYY-MM-DD)")
	return cmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("recurring %s\n", Version)
			fmt.Printf("Git Commit: %s\n", GitCommit)
		},
	}
}

func runServer(migrateFirst bool) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, true)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.close()

	if migrateFirst {
		if _, err := a.db.MigrateUp(); err != nil {
			a.logger.Fatalw("Failed to apply migrations", "error", err)
		}
	}

	srv, err := server.New(a.config, server.Dependencies{
		DB:         a.db,
		Redis:      a.redis,
		Registry:   a.registry,
		Recurrence: a.recurrence,
		Generation: a.generation,
	}, a.logger)
	if err != nil {
		a.logger.Fatalw("Failed to initialize server", "error", err)
	}

	sched := scheduler.New(a.logger)
	if a.config.Generation.Interval > 0 {
		job := services.NewGenerationJob(a.templates, a.generation, a.config.Generation.Horizon, a.logger)
		if _, err := sched.ScheduleInterval("generate-ahead", a.config.Generation.Interval, func(ctx context.Context) error {
			_, err := job.Run(ctx)
			return err
		}); err != nil {
			a.logger.Fatalw("Failed to schedule generation job", "error", err)
		}
	}
	sched.Start()

	a.logger.Infow("Starting recurring API server",
		"port", a.config.Server.Port,
		"environment", a.config.App.Environment,
		"driver", a.config.Database.Driver,
		"horizon", a.config.Generation.Horizon,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port))
	}()

	select {
	case err := <-errCh:
		if err != nil {
			a.logger.Errorw("Server failed", "error", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Errorw("Server shutdown failed", "error", err)
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		a.logger.Warnw("Generation job still running at shutdown", "error", err)
	}
}

func openDatabase() (*database.DB, func()) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	return db, func() { db.Close() }
}

func runMigration(direction string, steps int) {
	db, closeDB := openDatabase()
	defer closeDB()

	var (
		changed bool
		err     error
	)
	switch direction {
	case "up":
		changed, err = db.MigrateUp()
	case "down":
		changed, err = db.MigrateDown(steps)
	}
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	if !changed {
		fmt.Println("No migrations to run")
	} else {
		fmt.Printf("Migration %s completed successfully\n", direction)
	}
}

func showMigrationVersion() {
	db, closeDB := openDatabase()
	defer closeDB()

	version, dirty, err := db.MigrationVersion()
	if err != nil {
		log.Fatalf("Failed to get migration version: %v", err)
	}

	fmt.Printf("Current migration version: %d\n", version)
	fmt.Printf("Dirty: %t\n", dirty)
}

func runGenerate(ctx context.Context, templateID, ownerID, fromRaw, toRaw string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	now := time.Now().UTC()
	from, err := parseInstant(fromRaw, now)
	if err != nil {
		return fmt.Errorf("invalid --from: %w", err)
	}
	to, err := parseInstant(toRaw, from.Add(a.config.Generation.Horizon))
	if err != nil {
		return fmt.Errorf("invalid --to: %w", err)
	}

	out := json.NewEncoder(os.Stdout)
	out.SetIndent("", "  ")

	if templateID != "" {
		id, err := uuid.Parse(templateID)
		if err != nil {
			return fmt.Errorf("invalid --template: %w", err)
		}
		created, err := a.generation.Generate(ctx, id, from, to)
		if err != nil {
			return err
		}
		return out.Encode(map[string]interface{}{"template_id": id, "created": created})
	}

	id, err := uuid.Parse(ownerID)
	if err != nil {
		return fmt.Errorf("invalid --owner: %w", err)
	}
	result, err := a.generation.GenerateAllForOwner(ctx, id, from, to)
	if err != nil {
		return err
	}
	if err := out.Encode(result); err != nil {
		return err
	}
	return result.Err()
}

func parseInstant(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, raw)
}
