package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/Sanskargoyal608/Eziii/internal/domain"
	"github.com/spf13/cobra"
)

type sessionView struct {
	Authenticated bool   `json:"authenticated" yaml:"authenticated"`
	Role          string `json:"role" yaml:"role"`
	StudentID     *int   `json:"student_id,omitempty" yaml:"student_id,omitempty"`
	Email         string `json:"email,omitempty" yaml:"email,omitempty"`
	Name          string `json:"name,omitempty" yaml:"name,omitempty"`
}

func newSessionView(session domain.Session) sessionView {
	return sessionView{
		Authenticated: session.Authenticated(),
		Role:          string(session.Identity.Role),
		StudentID:     session.Identity.StudentID,
		Email:         session.Identity.Email,
		Name:          session.Identity.Name,
	}
}

func newLoginCmd(app *app) *cobra.Command {
	var email string
	var password string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := resolvePassword(cmd, password, passwordStdin)
			if err != nil {
				return err
			}

			session, err := app.sessions.Login(cmd.Context(), email, secret)
			if err != nil {
				return err
			}
			return writeSession(cmd, "Signed in as", session)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prefer --password-stdin)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newRegisterCmd(app *app) *cobra.Command {
	var name string
	var email string
	var password string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := resolvePassword(cmd, password, passwordStdin)
			if err != nil {
				return err
			}

			session, err := app.sessions.Register(cmd.Context(), name, email, secret)
			if err != nil {
				return err
			}
			return writeSession(cmd, "Registered and signed in as", session)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prefer --password-stdin)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credential",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.sessions.Logout(cmd.Context()); err != nil {
				return err
			}
			if handled, err := writeStructured(cmd, newSessionView(app.sessions.Session())); handled {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return err
		},
	}
}

func newWhoamiCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current identity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session := app.sessions.Session()
			if handled, err := writeStructured(cmd, newSessionView(session)); handled {
				return err
			}
			if !session.Authenticated() {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
				return err
			}
			return writeSession(cmd, "Signed in as", session)
		},
	}
}

func writeSession(cmd *cobra.Command, prefix string, session domain.Session) error {
	if handled, err := writeStructured(cmd, newSessionView(session)); handled {
		return err
	}

	identity := session.Identity
	line := fmt.Sprintf("%s %s (%s)", prefix, identity.DisplayName(), identity.Role)
	if identity.StudentID != nil {
		line += fmt.Sprintf(", student %d", *identity.StudentID)
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), line)
	return err
}

func resolvePassword(cmd *cobra.Command, flagValue string, fromStdin bool) (string, error) {
	if !fromStdin {
		if flagValue == "" {
			return os.Getenv("EZ_PASSWORD"), nil
		}
		return flagValue, nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
