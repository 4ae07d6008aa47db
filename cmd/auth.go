package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kvollmer/workdesk/internal/auth"
	"github.com/kvollmer/workdesk/internal/google"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage local Google account credentials",
		Long: `Manage the Google credentials used by the stdio transport.

Each named account holds its own tokens. 'login' runs the interactive
OAuth authorization flow in your browser and stores the resulting tokens;
'status' reports which accounts hold usable credentials; 'logout' deletes
an account's stored tokens.

The OAuth client is taken from --client-id/--client-secret or the
GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET environment variables. Omitting
the client secret entirely configures a public client, which authorizes
with PKCE alone.`,
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthLogoutCmd())

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var (
		account      string
		clientID     string
		clientSecret string
		useKeyring   bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize a Google account interactively",
		Long: `Run the interactive OAuth authorization flow for an account.

A browser window opens for Google consent; the flow completes through a
loopback redirect on this machine. Tokens are stored per account and
refreshed automatically afterwards.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, secret, err := resolveOAuthClient(clientID, clientSecret)
			if err != nil {
				return err
			}

			settings, err := auth.LoadSettings()
			if err != nil {
				return err
			}

			storage, err := newAuthStorage(account, useKeyring)
			if err != nil {
				return err
			}

			provider, err := auth.NewOAuth2Provider(auth.Config{
				ClientID:     id,
				ClientSecret: secret,
				Scopes:       google.DefaultOAuthScopes,
			}, auth.Options{
				Storage:  storage,
				Settings: &settings,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(),
				os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := provider.Authorize(ctx); err != nil {
				return fmt.Errorf("authorization failed for account %q: %w", resolveAccount(account), err)
			}

			info, err := provider.AuthInfo(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Account %q authorized.\n", resolveAccount(account))
			fmt.Printf("  Token expires: %s\n", info.Expiry.Format(time.RFC3339))
			fmt.Printf("  Refresh token: %t\n", info.HasRefreshToken)
			if info.PublicClient {
				fmt.Println("  Client type:   public (PKCE only)")
			}
			return nil
		},
	}

	addAuthClientFlags(cmd, &account, &clientID, &clientSecret, &useKeyring)

	return cmd
}

func newAuthStatusCmd() *cobra.Command {
	var (
		account      string
		clientID     string
		clientSecret string
		useKeyring   bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show authorization state of local accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, secret, err := resolveOAuthClient(clientID, clientSecret)
			if err != nil {
				// Without a client ID, token validity cannot be assessed
				// (stored tokens only apply to the client that issued them).
				// Fall back to listing what is on disk.
				dir, dirErr := auth.DefaultStorageDir()
				if dirErr != nil {
					return err
				}
				accounts, listErr := auth.ListFileAccounts(dir)
				if listErr != nil {
					return err
				}
				if len(accounts) == 0 {
					fmt.Println("No stored accounts.")
					return nil
				}
				fmt.Println("Stored accounts (set GOOGLE_CLIENT_ID to check token validity):")
				for _, a := range accounts {
					fmt.Printf("  %s\n", a)
				}
				return nil
			}

			opts := google.ManagerOptions{}
			if useKeyring {
				opts.NewStorage = func(account string) (auth.TokenStorage, error) {
					return auth.NewKeyringStorage(account), nil
				}
			}

			mgr, err := google.NewManager(auth.Config{
				ClientID:     id,
				ClientSecret: secret,
				Scopes:       google.DefaultOAuthScopes,
			}, opts)
			if err != nil {
				return err
			}

			accounts := mgr.KnownAccounts()
			if cmd.Flags().Changed("account") {
				accounts = []string{resolveAccount(account)}
			}
			if len(accounts) == 0 {
				fmt.Println("No stored accounts. Run 'workdesk auth login' to add one.")
				return nil
			}

			for _, a := range accounts {
				info, err := mgr.AuthInfoForAccount(cmd.Context(), a)
				if err != nil {
					fmt.Printf("%-20s error: %v\n", a, err)
					continue
				}
				line := fmt.Sprintf("%-20s authenticated=%t refreshToken=%t", a, info.Authenticated, info.HasRefreshToken)
				if info.HasToken && !info.Expiry.IsZero() {
					line += fmt.Sprintf(" expires=%s", info.Expiry.Format(time.RFC3339))
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	addAuthClientFlags(cmd, &account, &clientID, &clientSecret, &useKeyring)

	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	var (
		account    string
		useKeyring bool
	)

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Delete an account's stored tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			storage, err := newAuthStorage(account, useKeyring)
			if err != nil {
				return err
			}
			if err := storage.DeleteTokens(cmd.Context()); err != nil {
				return fmt.Errorf("failed to delete tokens for account %q: %w", resolveAccount(account), err)
			}
			fmt.Printf("Tokens deleted for account %q.\n", resolveAccount(account))
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "Account name (default: 'default')")
	cmd.Flags().BoolVar(&useKeyring, "keyring", false, "Use the OS keychain instead of token files")

	return cmd
}

func addAuthClientFlags(cmd *cobra.Command, account, clientID, clientSecret *string, useKeyring *bool) {
	cmd.Flags().StringVar(account, "account", "", "Account name (default: 'default')")
	cmd.Flags().StringVar(clientID, "client-id", "", "Google OAuth client ID. Can also use GOOGLE_CLIENT_ID env var.")
	cmd.Flags().StringVar(clientSecret, "client-secret", "", "Google OAuth client secret. Omit for a public client. Can also use GOOGLE_CLIENT_SECRET env var.")
	cmd.Flags().BoolVar(useKeyring, "keyring", false, "Store tokens in the OS keychain instead of token files")
}

// resolveOAuthClient merges flag and environment OAuth client settings. A
// client secret that is set but empty is rejected rather than silently
// treated as a public client: the operator should unset the variable to
// mean "no secret".
func resolveOAuthClient(clientID, clientSecret string) (string, string, error) {
	if clientID == "" {
		clientID = os.Getenv("GOOGLE_CLIENT_ID")
	}
	if clientSecret == "" {
		if v, ok := os.LookupEnv("GOOGLE_CLIENT_SECRET"); ok {
			if v == "" {
				return "", "", fmt.Errorf("GOOGLE_CLIENT_SECRET is set but empty; unset it for a public client or provide a value")
			}
			clientSecret = v
		}
	}
	if clientID == "" {
		return "", "", fmt.Errorf("google OAuth client ID is required (--client-id flag or GOOGLE_CLIENT_ID env var)")
	}
	return clientID, clientSecret, nil
}

func newAuthStorage(account string, useKeyring bool) (auth.TokenStorage, error) {
	if useKeyring {
		return auth.NewKeyringStorage(resolveAccount(account)), nil
	}
	storage, err := auth.NewFileStorage(resolveAccount(account))
	if err != nil {
		return nil, err
	}
	return storage, nil
}

func resolveAccount(account string) string {
	if account == "" {
		return google.DefaultAccount
	}
	return account
}
