package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/avast/retry-go"
	"github.com/golang-jwt/jwt/v5"
	"github.com/urfave/cli/v2"

	errs "github.com/userdeck/userdeck/pkg/errors"
	"github.com/userdeck/userdeck/pkg/guard"
	"github.com/userdeck/userdeck/pkg/types"
)

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:      "login",
		Usage:     "Authenticate and store the session token",
		ArgsUsage: "[USERNAME]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Password (prompted when omitted)",
			},
		},
		Action: cmdLogin,
	}
}

func cmdLogin(c *cli.Context) error {
	cl, g, err := newAPIClient(c)
	if err != nil {
		return err
	}

	// Mirror the login-page redirect: an authenticated visitor is sent home
	if d := g.Resolve(routeLogin); d.Action == guard.Redirect {
		fmt.Println("already logged in (run 'userdeck-cli logout' to switch accounts)")
		return nil
	}

	username := c.Args().First()
	if username == "" {
		username = prompt("username: ")
	}
	if username == "" {
		return fmt.Errorf("username is required")
	}

	password := c.String("password")
	if password == "" {
		password = prompt("password: ")
	}

	ctx, cancel := commandContext()
	defer cancel()

	grant, err := cl.Login(ctx, username, password)
	if err != nil {
		return err
	}

	fmt.Printf("logged in as %s (token valid for %s)\n", username, time.Duration(grant.ExpiresIn)*time.Second)
	return nil
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Discard the stored session token",
		Action: cmdLogout,
	}
}

func cmdLogout(c *cli.Context) error {
	cl, _, err := newAPIClient(c)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	// The stored credential is gone either way; a failed request only
	// means the server never saw the goodbye.
	if err := cl.Logout(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: logout request failed: %s\n", errs.HumanMessage(err))
	}
	fmt.Println("logged out")
	return nil
}

func whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:   "whoami",
		Usage:  "Report the stored session state",
		Action: cmdWhoami,
	}
}

func cmdWhoami(c *cli.Context) error {
	store, err := newSessionStore(c)
	if err != nil {
		return err
	}

	if !store.HasCredential() {
		fmt.Println("not logged in")
		return nil
	}

	// Display only; the server stays the authority on token validity
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(store.GetCredential(), &claims); err != nil {
		fmt.Println("logged in (stored token is opaque)")
		return nil
	}

	fmt.Printf("logged in as %s\n", claims.Subject)
	if claims.ExpiresAt != nil {
		fmt.Printf("token expires %s\n", claims.ExpiresAt.Time.Format(time.RFC3339))
		if time.Now().After(claims.ExpiresAt.Time) {
			fmt.Println("the token has expired; run 'userdeck-cli login'")
		}
	}
	return nil
}

func usersCommand() *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Work with the account list",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List accounts",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "page",
						Value: 1,
						Usage: "Page number",
					},
					&cli.IntFlag{
						Name:  "size",
						Value: 10,
						Usage: "Page size",
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Filter by name fragment",
					},
				},
				Action: cmdUsersList,
			},
		},
	}
}

func cmdUsersList(c *cli.Context) error {
	cl, g, err := newAPIClient(c)
	if err != nil {
		return err
	}
	if err := ensureRoute(g, routeUsers); err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	result, err := cl.ListUsers(ctx, c.Int("page"), c.Int("size"), c.String("name"))
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return printJSON(result)
	}

	printUserTable(result.Items)
	fmt.Printf("\nTotal: %d users (page %d, size %d)\n", result.Total, result.Page, result.Size)
	return nil
}

func userCommand() *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Manage a single account",
		Subcommands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Show one account",
				ArgsUsage: "ID",
				Action:    cmdUserGet,
			},
			{
				Name:  "create",
				Usage: "Create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Display name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "username",
						Aliases:  []string{"u"},
						Usage:    "Login name",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Password (prompted when omitted)",
					},
					&cli.StringFlag{
						Name:    "description",
						Aliases: []string{"d"},
						Usage:   "Free-form description",
					},
					&cli.BoolFlag{
						Name:  "disabled",
						Usage: "Create the account disabled",
					},
				},
				Action: cmdUserCreate,
			},
			{
				Name:      "update",
				Usage:     "Update an account",
				ArgsUsage: "ID",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "name",
						Usage: "New display name",
					},
					&cli.StringFlag{
						Name:    "username",
						Aliases: []string{"u"},
						Usage:   "New login name",
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "New password",
					},
					&cli.StringFlag{
						Name:    "description",
						Aliases: []string{"d"},
						Usage:   "New description",
					},
					&cli.BoolFlag{
						Name:  "enable",
						Usage: "Enable the account",
					},
					&cli.BoolFlag{
						Name:  "disable",
						Usage: "Disable the account",
					},
				},
				Action: cmdUserUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete an account",
				ArgsUsage: "ID",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Skip confirmation",
					},
				},
				Action: cmdUserDelete,
			},
		},
	}
}

func cmdUserGet(c *cli.Context) error {
	id, err := argID(c)
	if err != nil {
		return err
	}

	cl, g, err := newAPIClient(c)
	if err != nil {
		return err
	}
	if err := ensureRoute(g, routeUsers); err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	user, err := cl.GetUser(ctx, id)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return printJSON(user)
	}
	printUserTable([]types.User{user})
	return nil
}

func cmdUserCreate(c *cli.Context) error {
	cl, g, err := newAPIClient(c)
	if err != nil {
		return err
	}
	if err := ensureRoute(g, routeUsers); err != nil {
		return err
	}

	password := c.String("password")
	if password == "" {
		password = prompt("password for new account: ")
	}

	status := !c.Bool("disabled")
	input := types.UserInput{
		Name:        c.String("name"),
		Username:    c.String("username"),
		Password:    password,
		Status:      &status,
		Description: c.String("description"),
	}

	ctx, cancel := commandContext()
	defer cancel()

	user, err := cl.CreateUser(ctx, input)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return printJSON(user)
	}
	fmt.Printf("created user %d (%s)\n", user.ID, user.Username)
	return nil
}

func cmdUserUpdate(c *cli.Context) error {
	id, err := argID(c)
	if err != nil {
		return err
	}
	if c.Bool("enable") && c.Bool("disable") {
		return fmt.Errorf("--enable and --disable are mutually exclusive")
	}

	cl, g, err := newAPIClient(c)
	if err != nil {
		return err
	}
	if err := ensureRoute(g, routeUsers); err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	// Start from the current record so unset flags leave fields alone
	current, err := cl.GetUser(ctx, id)
	if err != nil {
		return err
	}

	status := current.Status
	if c.Bool("enable") {
		status = true
	}
	if c.Bool("disable") {
		status = false
	}

	input := types.UserInput{
		Name:        current.Name,
		Username:    current.Username,
		Description: current.Description,
		Status:      &status,
	}
	if c.IsSet("name") {
		input.Name = c.String("name")
	}
	if c.IsSet("username") {
		input.Username = c.String("username")
	}
	if c.IsSet("password") {
		input.Password = c.String("password")
	}
	if c.IsSet("description") {
		input.Description = c.String("description")
	}

	user, err := cl.UpdateUser(ctx, id, input)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return printJSON(user)
	}
	fmt.Printf("updated user %d (%s)\n", user.ID, user.Username)
	return nil
}

func cmdUserDelete(c *cli.Context) error {
	id, err := argID(c)
	if err != nil {
		return err
	}

	if !c.Bool("force") {
		fmt.Printf("Are you sure you want to delete user %d? [y/N]: ", id)
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "y" && confirm != "Y" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	cl, g, err := newAPIClient(c)
	if err != nil {
		return err
	}
	if err := ensureRoute(g, routeUsers); err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	result, err := cl.DeleteUser(ctx, id)
	if err != nil {
		return err
	}

	if result.Deleted {
		fmt.Printf("deleted user %d\n", id)
	}
	return nil
}

func pingCommand() *cli.Command {
	return &cli.Command{
		Name:  "ping",
		Usage: "Check that the server is reachable and healthy",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "wait",
				Aliases: []string{"w"},
				Usage:   "Keep polling until the server reports healthy",
			},
			&cli.UintFlag{
				Name:  "attempts",
				Value: 10,
				Usage: "Polling attempts with --wait",
			},
		},
		Action: cmdPing,
	}
}

func cmdPing(c *cli.Context) error {
	cl, _, err := newAPIClient(c)
	if err != nil {
		return err
	}

	check := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return cl.Health(ctx)
	}

	// The API client never retries on its own; readiness polling is the
	// one place a retry loop belongs.
	if c.Bool("wait") {
		err = retry.Do(
			check,
			retry.Attempts(c.Uint("attempts")),
			retry.Delay(time.Second),
			retry.DelayType(retry.BackOffDelay),
			retry.LastErrorOnly(true),
		)
	} else {
		err = check()
	}
	if err != nil {
		return err
	}

	fmt.Println("server is healthy")
	return nil
}

func argID(c *cli.Context) (uint, error) {
	raw := c.Args().First()
	if raw == "" {
		return 0, fmt.Errorf("a user id argument is required")
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid user id %q", raw)
	}
	return uint(id), nil
}

func printUserTable(items []types.User) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tUSERNAME\tSTATUS\tSUPERUSER\tCREATED\tDESCRIPTION")
	for _, u := range items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\t%s\t%s\n",
			u.ID, u.Name, u.Username, statusWord(u.Status), u.IsSuperuser, u.CreatedTime, u.Description)
	}
	w.Flush()
}

func statusWord(active bool) string {
	if active {
		return "active"
	}
	return "disabled"
}
