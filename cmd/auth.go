package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/catht823/journal-club-calendar-bot/credentials"
	jcerrors "github.com/catht823/journal-club-calendar-bot/pkg/errors"
)

// AuthCommandDeps holds the dependencies for the auth commands.
type AuthCommandDeps struct {
	NewStore func() (*credentials.Store, error)
}

// DefaultAuthDeps returns the default dependencies for production use.
func DefaultAuthDeps() *AuthCommandDeps {
	return &AuthCommandDeps{NewStore: credentials.NewStore}
}

// NewAuthCommand creates the auth command with all subcommands.
func NewAuthCommand(deps *AuthCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultAuthDeps()
	}

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored API credentials",
		Long: `Auth manages the mail and calendar API tokens the bot authenticates with.

Tokens are encrypted at rest with AES-256-GCM. The encryption key comes from
the system keyring when available, or from the JCBOT_ENCRYPTION_KEY
environment variable (64 hex characters) in headless deployments.`,
	}

	cmd.AddCommand(newAuthSetCommand(deps))
	cmd.AddCommand(newAuthShowCommand(deps))
	cmd.AddCommand(newAuthClearCommand(deps))

	return cmd
}

func newAuthSetCommand(deps *AuthCommandDeps) *cobra.Command {
	var (
		mailToken     string
		calendarToken string
		refreshToken  string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store API tokens",
		Example: `  jcbot auth set --mail-token <token> --calendar-token <token>
  jcbot auth set --calendar-token <token>   # update one token, keep the rest`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if mailToken == "" && calendarToken == "" && refreshToken == "" {
				return fmt.Errorf("nothing to store (set --mail-token, --calendar-token or --refresh-token)")
			}

			store, err := deps.NewStore()
			if err != nil {
				return fmt.Errorf("opening credential store: %w", err)
			}

			creds, err := store.Load()
			if jcerrors.IsNotFound(err) {
				creds = &credentials.Credentials{}
			} else if err != nil {
				return err
			}

			if mailToken != "" {
				creds.MailToken = mailToken
			}
			if calendarToken != "" {
				creds.CalendarToken = calendarToken
			}
			if refreshToken != "" {
				creds.RefreshToken = refreshToken
			}

			if err := store.Save(creds); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Credentials saved to %s (key: %s)\n",
				store.Path(), store.KeySource())
			return nil
		},
	}

	cmd.Flags().StringVar(&mailToken, "mail-token", "", "Mail API token")
	cmd.Flags().StringVar(&calendarToken, "calendar-token", "", "Calendar API token")
	cmd.Flags().StringVar(&refreshToken, "refresh-token", "", "OAuth refresh token")

	return cmd
}

func newAuthShowCommand(deps *AuthCommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show stored credentials (tokens masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := deps.NewStore()
			if err != nil {
				return fmt.Errorf("opening credential store: %w", err)
			}

			creds, err := store.Load()
			if jcerrors.IsNotFound(err) {
				fmt.Fprintln(cmd.OutOrStdout(), "No credentials stored. Run 'jcbot auth set' first.")
				return nil
			}
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Mail token:     %s\n", maskToken(creds.MailToken))
			fmt.Fprintf(w, "Calendar token: %s\n", maskToken(creds.CalendarToken))
			fmt.Fprintf(w, "Refresh token:  %s\n", maskToken(creds.RefreshToken))
			fmt.Fprintf(w, "Updated:        %s\n", creds.UpdatedAt.Format(time.RFC3339))
			fmt.Fprintf(w, "Key source:     %s\n", store.KeySource())
			return nil
		},
	}
}

func newAuthClearCommand(deps *AuthCommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := deps.NewStore()
			if err != nil {
				return fmt.Errorf("opening credential store: %w", err)
			}
			if err := store.Delete(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Credentials cleared.")
			return nil
		},
	}
}
