// Package main provides the entry point for userdeck-cli, an operator
// console for a UserDeck server. It drives the same client library, session
// file, and navigation guard the desktop frontend uses, so a scripted
// session behaves exactly like a clicked-through one.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/userdeck/userdeck/pkg/client"
	errs "github.com/userdeck/userdeck/pkg/errors"
	"github.com/userdeck/userdeck/pkg/guard"
	"github.com/userdeck/userdeck/pkg/interfaces"
	"github.com/userdeck/userdeck/pkg/logger"
	"github.com/userdeck/userdeck/pkg/session"
)

// Build information, set via ldflags
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Routes understood by the navigation guard. Commands resolve their route
// before acting, the way the web console gates its pages.
const (
	routeLogin = "/login"
	routeUsers = "/users"
)

func main() {
	app := &cli.App{
		Name:    "userdeck-cli",
		Usage:   "Operator console for a UserDeck server",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			loginCommand(),
			logoutCommand(),
			whoamiCommand(),
			usersCommand(),
			userCommand(),
			pingCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", errs.HumanMessage(err))
		os.Exit(1)
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Base URL of the UserDeck server",
			EnvVars: []string{"USERDECK_SERVER"},
			Value:   "http://localhost:8000",
		},
		&cli.StringFlag{
			Name:    "credentials",
			Usage:   "Path of the stored session token",
			EnvVars: []string{"USERDECK_CREDENTIALS"},
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Usage:   "Per-request timeout",
			EnvVars: []string{"USERDECK_TIMEOUT"},
			Value:   10 * time.Second,
		},
		&cli.BoolFlag{
			Name:    "json",
			Aliases: []string{"j"},
			Usage:   "Print raw JSON instead of tables",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable debug logging on stderr",
		},
	}
}

// newSessionStore opens the durable credential file, defaulting to
// ~/.userdeck/credentials.json.
func newSessionStore(c *cli.Context) (*session.FileStore, error) {
	path := c.String("credentials")
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, ".userdeck", "credentials.json")
	}
	return session.NewFileStore(path, cliLogger(c)), nil
}

// newGuard wires the navigation guard over a session store with the
// console's route table.
func newGuard(store session.Store) *guard.Guard {
	g := guard.New(store, routeLogin, routeUsers)
	g.Protect(routeUsers)
	return g
}

// newAPIClient builds the authenticated API client and its guard around a
// shared session store.
func newAPIClient(c *cli.Context) (*client.Client, *guard.Guard, error) {
	store, err := newSessionStore(c)
	if err != nil {
		return nil, nil, err
	}

	cl, err := client.New(client.Config{
		BaseURL: c.String("server"),
		Timeout: c.Duration("timeout"),
		Store:   store,
		Logger:  cliLogger(c),
		OnUnauthorized: func() {
			fmt.Fprintln(os.Stderr, "session expired, please log in again")
		},
	})
	if err != nil {
		return nil, nil, err
	}
	return cl, newGuard(store), nil
}

func cliLogger(c *cli.Context) interfaces.Logger {
	if c.Bool("verbose") {
		return logger.NewWriterLogger(os.Stderr, "debug")
	}
	return nil
}

// ensureRoute resolves a command's route before it runs. A redirect to the
// login route means the session is missing; any other redirect means the
// command only makes sense logged out.
func ensureRoute(g *guard.Guard, route string) error {
	d := g.Resolve(route)
	if d.Action != guard.Redirect {
		return nil
	}
	if d.Target == routeLogin {
		return fmt.Errorf("not logged in (run 'userdeck-cli login' first)")
	}
	return fmt.Errorf("already logged in (run 'userdeck-cli logout' first)")
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func prompt(label string) string {
	fmt.Print(label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
