// Package main provides the entry point for userdeck-server, the REST
// backend of the UserDeck account manager.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/userdeck/userdeck/api"
	"github.com/userdeck/userdeck/pkg/config"
	"github.com/userdeck/userdeck/pkg/interfaces"
	"github.com/userdeck/userdeck/pkg/logger"
	"github.com/userdeck/userdeck/pkg/metrics"
	"github.com/userdeck/userdeck/pkg/users"
)

// Build information, set via ldflags
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	app := &cli.App{
		Name:    "userdeck-server",
		Usage:   "UserDeck account service",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			migrateCommand(),
			runCommand(),
			configCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a YAML or JSON configuration file",
			EnvVars: []string{"USERDECK_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "host",
			Usage:   "Interface to bind",
			EnvVars: []string{"USERDECK_HOST"},
		},
		&cli.IntFlag{
			Name:    "port",
			Usage:   "Port to listen on",
			EnvVars: []string{"USERDECK_PORT"},
		},
		&cli.StringFlag{
			Name:    "db",
			Usage:   "Path to the sqlite database file",
			EnvVars: []string{"USERDECK_DB"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			EnvVars: []string{"USERDECK_LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "secret",
			Usage:   "HMAC secret used to sign access tokens",
			EnvVars: []string{"USERDECK_SECRET"},
		},
	}
}

// loadConfig builds the effective configuration: defaults, then the
// config file if one was named, then individual flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if path := c.String("config"); path != "" {
		loaded, err := config.FromFile(path)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if c.IsSet("host") {
		cfg.Server.Host = c.String("host")
	}
	if c.IsSet("port") {
		cfg.Server.Port = c.Int("port")
	}
	if c.IsSet("db") {
		cfg.Database.Path = c.String("db")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("secret") {
		cfg.Auth.Secret = c.String("secret")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openRepository(cfg *config.Config, log interfaces.Logger) (*users.Repository, error) {
	repo, err := users.NewRepository(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := repo.Migrate(); err != nil {
		repo.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	if err := repo.Seed(); err != nil {
		repo.Close()
		return nil, fmt.Errorf("seed database: %w", err)
	}

	log.Info("Database ready", map[string]interface{}{
		"path": cfg.Database.Path,
	})
	return repo, nil
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create the database schema and seed the initial superuser",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			log := logger.NewConsoleLogger(cfg.LogLevel)

			repo, err := openRepository(cfg, log)
			if err != nil {
				return err
			}
			defer repo.Close()

			fmt.Printf("database ready at %s\n", cfg.Database.Path)
			return nil
		},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the REST API server",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			log := logger.NewConsoleLogger(cfg.LogLevel)

			if cfg.Auth.Secret == config.DefaultConfig().Auth.Secret {
				log.Warn("Using the built-in development token secret")
			}

			repo, err := openRepository(cfg, log)
			if err != nil {
				return err
			}
			defer repo.Close()

			// Live log-level changes when running from a config file
			if path := c.String("config"); path != "" {
				err := config.Watch(path, func(next *config.Config) {
					if cl, ok := log.(*logger.ConsoleLogger); ok {
						cl.SetLevel(next.LogLevel)
					}
					log.Info("Configuration reloaded", map[string]interface{}{
						"log_level": next.LogLevel,
					})
				})
				if err != nil {
					log.Warn("Config watch unavailable", map[string]interface{}{
						"error": err.Error(),
					})
				}
			}

			srv := api.NewServer(cfg, repo, log, metrics.NewRecorder())

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := srv.Start(ctx); err != nil {
				return fmt.Errorf("server: %w", err)
			}
			log.Info("Server stopped")
			return nil
		},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration helpers",
		Subcommands: []*cli.Command{
			{
				Name:      "init",
				Usage:     "Write a starter configuration file",
				ArgsUsage: "[PATH]",
				Action: func(c *cli.Context) error {
					path := c.Args().First()
					if path == "" {
						path = "userdeck.yaml"
					}
					if _, err := os.Stat(path); err == nil {
						return fmt.Errorf("%s already exists", path)
					}
					if err := config.DefaultConfig().ToYAMLFile(path); err != nil {
						return err
					}
					fmt.Printf("wrote %s\n", path)
					return nil
				},
			},
		},
	}
}
