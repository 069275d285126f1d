package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newLoginCommand() *cobra.Command {
	var (
		email     string
		password  string
		assertion string
		token     string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and persist the session",
		Long: `Authenticate against the API with email and password, exchange an
identity-provider assertion with --assertion, or adopt an already-issued
token with --token. The resulting session is persisted locally and reused
by every later command.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(false)
			if err != nil {
				return err
			}
			defer e.Close()

			switch {
			case token != "":
			case assertion != "":
				token, err = e.api.LoginWithIdentity(cmd.Context(), assertion)
				if err != nil {
					return fmt.Errorf("identity login: %w", err)
				}
			case email != "":
				if password == "" {
					fmt.Fprint(os.Stderr, "Password: ")
					line, err := bufio.NewReader(os.Stdin).ReadString('\n')
					if err != nil {
						return fmt.Errorf("read password: %w", err)
					}
					password = strings.TrimSpace(line)
				}
				token, err = e.api.Login(cmd.Context(), email, password)
				if err != nil {
					return fmt.Errorf("login: %w", err)
				}
			default:
				return fmt.Errorf("one of --email, --assertion or --token is required")
			}

			sess, err := e.session.LoginWithToken(token)
			if err != nil {
				return fmt.Errorf("adopt token: %w", err)
			}
			fmt.Printf("Logged in as %s (tenant %s)\n", sess.Email, sess.TenantID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when omitted)")
	cmd.Flags().StringVar(&assertion, "assertion", "", "Identity-provider assertion to exchange for a token")
	cmd.Flags().StringVar(&token, "token", "", "Adopt an already-issued token instead of logging in")
	return cmd
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the current token and clear the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(false)
			if err != nil {
				return err
			}
			defer e.Close()

			if !e.session.IsAuthenticated() {
				fmt.Println("Not logged in.")
				return nil
			}
			// Best effort server-side; the local session goes either way.
			if err := e.api.Logout(cmd.Context()); err != nil {
				fmt.Fprintln(os.Stderr, "Warning: server-side revocation failed:", err)
			}
			e.session.Logout()
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func newWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(_ *cobra.Command, _ []string) error {
			e, err := openEnv(true)
			if err != nil {
				return err
			}
			defer e.Close()

			cur := e.session.Current()
			if cur == nil {
				fmt.Println("Not logged in.")
				return nil
			}
			fmt.Printf("User:    %s <%s>\n", cur.DisplayName, cur.Email)
			fmt.Printf("Tenant:  %s\n", cur.TenantID)
			fmt.Printf("User ID: %s\n", cur.UserID)
			return nil
		},
	}
}

func newTenantCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Inspect or switch the active tenant",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "use <tenant-id>",
		Short: "Switch the session to another tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			e, err := openEnv(true)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.session.SwitchTenant(args[0]); err != nil {
				return err
			}
			fmt.Printf("Active tenant: %s\n", e.session.TenantID())
			return nil
		},
	})
	return cmd
}
