package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/laelblog/blogctl/auth"
	"github.com/laelblog/blogctl/client"
	"github.com/laelblog/blogctl/pkg/clierr"
	"github.com/laelblog/blogctl/pkg/validation"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// loginCmd signs in with an admin email and password.
func loginCmd(a *app) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the blog backend",
		Long:  "Sign in with your admin email and password. The password is read without echo.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			if email == "" {
				var err error
				if email, err = promptForInput(cmd, in, "Email: "); err != nil {
					return err
				}
			}
			if err := validation.ValidateEmail(email); err != nil {
				return invalid(err)
			}
			password, err := promptForPassword(cmd, in, "Password: ")
			if err != nil {
				return err
			}
			if err := validation.ValidateNonEmptyString("password", password); err != nil {
				return invalid(err)
			}

			admin, err := a.auth.Login(cmd.Context(), email, password)
			if client.IsUnauthorized(err) {
				return clierr.New(clierr.Auth, "Invalid email or password.", err)
			}
			if err != nil {
				return err
			}
			cmd.Printf("Logged in as %s.\n", admin.Email)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Admin email address (prompted for when empty)")

	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and remove stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.auth.Logout(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("Logged out.")
			return nil
		},
	}
}

// whoamiCmd shows the signed-in admin and the state of the stored token.
func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			admin, session, err := a.auth.WhoAmI(cmd.Context())
			if err != nil {
				if !session.Authenticated {
					return clierr.New(clierr.Auth, "Not logged in. Run 'blogctl login'.", err)
				}
				return err
			}
			return a.render(cmd, map[string]any{"admin": admin, "session": session}, func(w io.Writer) {
				fmt.Fprintf(w, "ID: %d\n", admin.ID)
				fmt.Fprintf(w, "Email: %s\n", admin.Email)
				if admin.Name != "" {
					fmt.Fprintf(w, "Name: %s\n", admin.Name)
				}
				fmt.Fprintf(w, "Token: %s\n", describeSession(session))
			})
		},
	}
}

func describeSession(s auth.Session) string {
	switch {
	case !s.Authenticated:
		return "none"
	case s.ExpiresAt.IsZero():
		return "valid"
	case s.Expired:
		return "expired at " + formatTime(s.ExpiresAt)
	case s.ExpiresSoon:
		return "expires soon (" + formatTime(s.ExpiresAt) + ")"
	default:
		return "valid until " + formatTime(s.ExpiresAt)
	}
}

func healthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			health, err := a.client.Health(cmd.Context())
			if err != nil {
				return err
			}
			return a.render(cmd, health, func(w io.Writer) {
				fmt.Fprintf(w, "Status: %s\n", health.Status)
				if health.Version != "" {
					fmt.Fprintf(w, "Version: %s\n", health.Version)
				}
				if health.Timestamp != "" {
					fmt.Fprintf(w, "Timestamp: %s\n", health.Timestamp)
				}
			})
		},
	}
}

// promptForInput prints prompt and returns the next trimmed line of input.
func promptForInput(cmd *cobra.Command, in *bufio.Reader, prompt string) (string, error) {
	cmd.Print(prompt)
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", clierr.New(clierr.Validation, "Failed to read input.", err)
	}
	return strings.TrimSpace(line), nil
}

// promptForPassword reads a password without echo from a terminal, or as a
// plain line when input is piped.
func promptForPassword(cmd *cobra.Command, in *bufio.Reader, prompt string) (string, error) {
	f, ok := cmd.InOrStdin().(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return promptForInput(cmd, in, prompt)
	}
	cmd.Print(prompt)
	password, err := term.ReadPassword(int(f.Fd()))
	cmd.Println()
	if err != nil {
		return "", clierr.New(clierr.Validation, "Failed to read password.", err)
	}
	return strings.TrimSpace(string(password)), nil
}
