// Package cmd provides command-line interface commands for ShadowAgent.
package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"shadowagent/config"
	"shadowagent/storage"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// CLI output formatters
var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
)

var (
	noColor bool
	quiet   bool
)

// defaultTimeout bounds every CLI database operation.
const defaultTimeout = 30 * time.Second

// NewUserCmd creates the root user command with all subcommands.
//
// Admin rights are never granted through the HTTP API; promoting an account
// requires shell access to the host running the service.
func NewUserCmd() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
		Long: `Manage ShadowAgent user accounts from the command line.

Account creation through the API never grants admin rights; use
"user promote" on the host to elevate an existing account.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}

	userCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	userCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress non-essential output")

	userCmd.AddCommand(newUserCreateCmd())
	userCmd.AddCommand(newUserPromoteCmd())
	userCmd.AddCommand(newUserListCmd())
	userCmd.AddCommand(newUserDeleteCmd())

	return userCmd
}

// openUserStorage loads configuration and opens the SQLite-backed user store.
func openUserStorage() (*storage.SQLiteUserStorage, *storage.SQLite, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	sugar := zap.NewNop().Sugar()

	sqlite, err := storage.NewSQLite(cfg.Storage.SQLitePath, sugar)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	return storage.NewSQLiteUserStorage(sqlite, sugar), sqlite, nil
}

func newUserCreateCmd() *cobra.Command {
	var (
		email    string
		password string
		admin    bool
	)

	createCmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := args[0]

			if password == "" {
				return fmt.Errorf("--password is required")
			}
			if email == "" {
				return fmt.Errorf("--email is required")
			}

			userStorage, sqlite, err := openUserStorage()
			if err != nil {
				return err
			}
			defer sqlite.Close()

			ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
			defer cancel()

			user := &storage.User{
				Username: username,
				Email:    email,
				Password: password,
			}
			if err := userStorage.CreateUser(ctx, user); err != nil {
				errorColor.Fprintf(os.Stderr, "Failed to create user: %v\n", err)
				return err
			}

			if admin {
				if err := userStorage.SetAdmin(ctx, username, true); err != nil {
					errorColor.Fprintf(os.Stderr, "User created but promotion failed: %v\n", err)
					return err
				}
			}

			if !quiet {
				successColor.Printf("User %q created", username)
				if admin {
					infoColor.Print(" (admin)")
				}
				fmt.Println()
			}
			return nil
		},
	}

	createCmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	createCmd.Flags().StringVar(&password, "password", "", "Password (required)")
	createCmd.Flags().BoolVar(&admin, "admin", false, "Grant admin rights")

	return createCmd
}

func newUserPromoteCmd() *cobra.Command {
	var demote bool

	promoteCmd := &cobra.Command{
		Use:   "promote <username>",
		Short: "Grant admin rights to an existing account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := args[0]

			userStorage, sqlite, err := openUserStorage()
			if err != nil {
				return err
			}
			defer sqlite.Close()

			ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
			defer cancel()

			if err := userStorage.SetAdmin(ctx, username, !demote); err != nil {
				errorColor.Fprintf(os.Stderr, "Failed to update user: %v\n", err)
				return err
			}

			if !quiet {
				if demote {
					successColor.Printf("User %q demoted\n", username)
				} else {
					successColor.Printf("User %q promoted to admin\n", username)
				}
			}
			return nil
		},
	}

	promoteCmd.Flags().BoolVar(&demote, "demote", false, "Revoke admin rights instead")

	return promoteCmd
}

func newUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all user accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userStorage, sqlite, err := openUserStorage()
			if err != nil {
				return err
			}
			defer sqlite.Close()

			ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
			defer cancel()

			users, err := userStorage.ListUsers(ctx)
			if err != nil {
				errorColor.Fprintf(os.Stderr, "Failed to list users: %v\n", err)
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tACTIVE\tADMIN\tCREATED")
			for _, user := range users {
				fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%t\t%s\n",
					user.ID, user.Username, user.Email,
					user.IsActive, user.IsAdmin,
					user.CreatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
}

func newUserDeleteCmd() *cobra.Command {
	var yes bool

	deleteCmd := &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete a user account and its watched identities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := args[0]

			if !yes {
				return fmt.Errorf("refusing to delete %q without --yes", username)
			}

			userStorage, sqlite, err := openUserStorage()
			if err != nil {
				return err
			}
			defer sqlite.Close()

			ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
			defer cancel()

			if err := userStorage.DeleteUser(ctx, username); err != nil {
				errorColor.Fprintf(os.Stderr, "Failed to delete user: %v\n", err)
				return err
			}

			if !quiet {
				successColor.Printf("User %q deleted\n", username)
			}
			return nil
		},
	}

	deleteCmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")

	return deleteCmd
}
