package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Coding-M1-AI/backend-flight-ai/config"
	"github.com/Coding-M1-AI/backend-flight-ai/logging"
	"github.com/Coding-M1-AI/backend-flight-ai/services"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

var importFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "data-dir",
		Aliases: []string{"d"},
		Usage:   "Directory holding airlines.csv, airports.csv, routes.csv and flights.csv",
		EnvVars: []string{"DATA_DIR"},
	},
	&cli.BoolFlag{
		Name:  "flights",
		Usage: "Also import flights.csv into flight_data (large)",
	},
	&cli.BoolFlag{
		Name:  "skip-cache",
		Usage: "Do not invalidate cached reference lists in Redis",
	},
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Replace reference tables with the CSV sources",
		Flags: importFlags,
		Action: func(c *cli.Context) error {
			cfg, log, err := loadRuntime(c)
			if err != nil {
				return err
			}
			return runImport(c.Context, cfg, c.Bool("flights"), c.Bool("skip-cache"), log)
		},
	}
}

func setupCommand() *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Check the database, migrate tables, import CSV data and verify counts",
		Flags: importFlags,
		Action: func(c *cli.Context) error {
			cfg, log, err := loadRuntime(c)
			if err != nil {
				return err
			}

			db, err := services.OpenDatabase(cfg.Database)
			if err != nil {
				return err
			}
			store := services.NewStore(db)
			if err := store.Migrate(); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info().Msg("tables migrated")

			if err := runImport(c.Context, cfg, c.Bool("flights"), c.Bool("skip-cache"), log); err != nil {
				return err
			}

			counts, err := store.Counts(c.Context)
			if err != nil {
				return err
			}
			if err := verifyCounts(counts); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "setup complete: %d airlines, %d airports\n", counts.Airlines, counts.Airports)
			return nil
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Issue a signed token for protected endpoints (requires AUTH_JWT_SECRET)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "subject",
				Value: "operator",
				Usage: "Token subject",
			},
			&cli.StringFlag{
				Name:  "role",
				Value: services.RoleAdmin,
				Usage: "Role claim",
			},
			&cli.IntFlag{
				Name:  "hours",
				Usage: "Validity in hours (default AUTH_JWT_EXPIRY_HOURS)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if !cfg.Auth.Enabled() {
				return errors.New("AUTH_JWT_SECRET is not set")
			}
			if c.IsSet("hours") {
				if c.Int("hours") <= 0 {
					return errors.New("--hours must be positive")
				}
				cfg.Auth.ExpiryHours = c.Int("hours")
			}

			token, err := services.NewAuthService(cfg.Auth).GenerateToken(c.String("subject"), c.String("role"))
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(c.App.Writer, token)
			return nil
		},
	}
}

func loadRuntime(c *cli.Context) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if dir := c.String("data-dir"); dir != "" {
		cfg.Data.Dir = strings.TrimSuffix(dir, "/")
	}
	log := logging.NewWithWriter(zerolog.ConsoleWriter{Out: os.Stderr}, c.String("log-level"))
	return cfg, log, nil
}

// runImport loads every available CSV into its table. Airlines and airports
// are required; routes come from routes.csv, or from flights.csv when only
// that file is present.
func runImport(ctx context.Context, cfg *config.Config, withFlights, skipCache bool, log zerolog.Logger) error {
	airlines, err := services.ReadAirlinesFile(cfg.Data.AirlinesCSV())
	if err != nil {
		return fmt.Errorf("read airlines: %w", err)
	}
	airports, err := services.ReadAirportsFile(cfg.Data.AirportsCSV())
	if err != nil {
		return fmt.Errorf("read airports: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.Database.GetDSN())
	if err != nil {
		return fmt.Errorf("db pool init: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}

	im := services.NewImporter(pool, log)
	if _, err := im.ImportAirlines(ctx, airlines); err != nil {
		return err
	}
	if _, err := im.ImportAirports(ctx, airports); err != nil {
		return err
	}

	routesPath := routesSource(cfg.Data, withFlights)
	if routesPath != "" {
		routes, err := services.ReadRoutesFile(routesPath)
		if err != nil {
			return fmt.Errorf("read routes: %w", err)
		}
		if _, err := im.ImportRoutes(ctx, routes); err != nil {
			return err
		}
	} else {
		log.Warn().Msg("no routes.csv found, destinations will be empty")
	}

	if withFlights {
		if err := importFlights(ctx, im, cfg.Data.FlightsCSV()); err != nil {
			return err
		}
	}

	if !skipCache {
		cache, err := services.NewCacheService(cfg.Redis, log)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, cached reference lists expire on their own")
		}
		defer cache.Close()
		if err := services.InvalidateReference(ctx, cache); err != nil {
			log.Warn().Err(err).Msg("cache invalidation failed")
		}
	}
	return nil
}

func importFlights(ctx context.Context, im *services.Importer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open flights: %w", err)
	}
	defer f.Close()

	reader, err := services.NewFlightReader(f)
	if err != nil {
		return fmt.Errorf("read flights: %w", err)
	}
	_, err = im.ImportFlights(ctx, reader)
	return err
}

func routesSource(data config.DataConfig, withFlights bool) string {
	if fileExists(data.RoutesCSV()) {
		return data.RoutesCSV()
	}
	if withFlights && fileExists(data.FlightsCSV()) {
		return data.FlightsCSV()
	}
	return ""
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func verifyCounts(counts services.ReferenceCounts) error {
	var missing []string
	if counts.Airlines == 0 {
		missing = append(missing, "airlines")
	}
	if counts.Airports == 0 {
		missing = append(missing, "airports")
	}
	if len(missing) > 0 {
		return fmt.Errorf("setup verification failed: no rows in %s", strings.Join(missing, ", "))
	}
	return nil
}
