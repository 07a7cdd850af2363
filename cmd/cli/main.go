// Command storefront-cli runs maintenance tasks against the storefront
// database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/app"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/model"
	"storefront/internal/seed"
	"storefront/internal/worker"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const usage = `usage: storefront-cli <command> [flags]

commands:
  migrate up                 apply pending migrations
  migrate down -steps N      roll back N migrations
  seed                       load seed data from S3 or the local seed directory
  add-admin -email -password -name [-role]
                             create an admin account
  reconcile-ratings          repair product rating rollups that drifted
  check-db                   verify connectivity and report the schema version
`

var errUsage = errors.New("invalid usage")

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.NewLogger(cfg.Logger).With().Str("command", args[0]).Logger()

	switch args[0] {
	case "migrate":
		return migrateCmd(cfg, args[1:], stderr, logger)
	case "seed":
		return withApp(ctx, cfg, logger, func(a *app.App) error {
			return seedCmd(ctx, cfg, a, logger)
		})
	case "add-admin":
		req, err := parseAdminFlags(args[1:], stderr)
		if err != nil {
			return err
		}
		return withApp(ctx, cfg, logger, func(a *app.App) error {
			admin, err := a.Services.Accounts.CreateAdmin(ctx, req)
			if err != nil {
				return err
			}
			logger.Info().Int64("admin_id", admin.ID).Str("email", admin.Email).Msg("admin created")
			return nil
		})
	case "reconcile-ratings":
		return withApp(ctx, cfg, logger, func(a *app.App) error {
			r := worker.NewRatingReconciler(a.Repositories.Products, a.Services.Reviews, 0, logger)
			n, err := r.RunOnce(ctx)
			if err != nil {
				return err
			}
			logger.Info().Int("repaired", n).Msg("rating reconciliation finished")
			return nil
		})
	case "check-db":
		return checkDBCmd(ctx, cfg, logger)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func withApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, fn func(*app.App) error) error {
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(a)
}

func migrateCmd(cfg *config.Config, args []string, stderr io.Writer, logger zerolog.Logger) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: migrate needs up or down", errUsage)
	}

	switch args[0] {
	case "up":
		return database.Migrate(cfg.Database.ConnectionString(), logger)
	case "down":
		fs := flag.NewFlagSet("migrate down", flag.ContinueOnError)
		fs.SetOutput(stderr)
		steps := fs.Int("steps", 1, "number of migrations to roll back")
		if err := fs.Parse(args[1:]); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		if *steps < 1 {
			return fmt.Errorf("%w: -steps must be at least 1", errUsage)
		}
		return database.MigrateDown(cfg.Database.ConnectionString(), *steps, logger)
	default:
		return fmt.Errorf("%w: unknown migrate direction %q", errUsage, args[0])
	}
}

func parseAdminFlags(args []string, stderr io.Writer) (*model.CreateAdminRequest, error) {
	fs := flag.NewFlagSet("add-admin", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var req model.CreateAdminRequest
	fs.StringVar(&req.Email, "email", "", "admin email")
	fs.StringVar(&req.Password, "password", "", "admin password")
	fs.StringVar(&req.Name, "name", "", "display name")
	fs.StringVar(&req.Role, "role", "admin", "admin or super_admin")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return nil, fmt.Errorf("%w: -email, -password and -name are required", errUsage)
	}

	return &req, nil
}

func seedCmd(ctx context.Context, cfg *config.Config, a *app.App, logger zerolog.Logger) error {
	fileLoader := seed.NewFileLoader(logger)

	var s3Loader seed.Loader
	if cfg.S3.Enabled {
		l, err := seed.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialise S3 loader, falling back to local seed files")
		} else {
			s3Loader = l
		}
	}

	loader := seed.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, cfg.Seed.Dir, s3Loader != nil, logger)
	seeder := seed.NewSeeder(a.Pool, loader, a.Hasher, a.Validator, logger)

	_, err := seeder.Run(ctx)
	return err
}

func checkDBCmd(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	info, err := database.Describe(ctx, pool)
	if err != nil {
		return err
	}

	logger.Info().
		Str("database", info.Database).
		Str("server_version", info.ServerVersion).
		Int64("migration_version", info.MigrationVersion).
		Bool("dirty", info.Dirty).
		Msg("database reachable")

	if info.Dirty {
		return fmt.Errorf("migration %d is dirty", info.MigrationVersion)
	}
	return nil
}
