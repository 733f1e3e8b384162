package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/adapters/api"
	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/domain"
	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/export"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

const passwordEnv = "AIT_PASSWORD"

var errEmptyPassword = errors.New("password is empty")

func newLoginCmd(loader *appLoader) *cobra.Command {
	var (
		username      string
		password      string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session tokens",
		Long:  "Sign in with a username and password. The password is read from --password, --password-stdin, or the AIT_PASSWORD environment variable.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loader.load()
			if err != nil {
				return err
			}
			client, err := app.apiClient()
			if err != nil {
				return err
			}

			secret, err := resolvePassword(cmd.InOrStdin(), password, passwordStdin)
			if err != nil {
				return err
			}

			if _, err := app.session.Login(cmd.Context(), username, secret); err != nil {
				return fmt.Errorf("login: %w", err)
			}

			user, err := client.Profile(cmd.Context())
			if err != nil {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged in.")
				app.logger.Warn().Err(err).Msg("fetch profile after login")
				return nil
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", describeUser(user))
			return err
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Account username")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prefer --password-stdin)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func resolvePassword(stdin io.Reader, flagValue string, fromStdin bool) (string, error) {
	secret := flagValue
	switch {
	case fromStdin:
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read password from stdin: %w", err)
		}
		secret = strings.TrimRight(line, "\r\n")
	case secret == "":
		secret = os.Getenv(passwordEnv)
	}

	if secret == "" {
		return "", errEmptyPassword
	}
	return secret, nil
}

func newLogoutCmd(loader *appLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session tokens",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loader.load()
			if err != nil {
				return err
			}
			if err := app.session.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("logout: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return err
		},
	}
}

func newWhoamiCmd(loader *appLoader) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			outFormat, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			app, err := loader.load()
			if err != nil {
				return err
			}
			client, err := app.apiClient()
			if err != nil {
				return err
			}

			user, err := app.session.Bootstrap(cmd.Context(), client.Profile)
			if err != nil {
				return err
			}

			if outFormat != export.FormatTable {
				return export.WriteValue(cmd.OutOrStdout(), user, outFormat)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), describeUser(user))
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", "table", "Output format: table, json or yaml")

	return cmd
}

func newRegisterCmd(loader *appLoader) *cobra.Command {
	var (
		registration  domain.Registration
		role          string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loader.load()
			if err != nil {
				return err
			}
			client, err := app.apiClient()
			if err != nil {
				return err
			}

			secret, err := resolvePassword(cmd.InOrStdin(), registration.Password, passwordStdin)
			if err != nil {
				return err
			}
			registration.Password = secret
			registration.Password2 = secret
			registration.Role = domain.Role(role)

			user, err := client.Register(cmd.Context(), registration)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Registered %s; sign in with `ait login -u %s`\n", describeUser(user), user.Username)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&registration.Username, "username", "u", "", "Username")
	flags.StringVar(&registration.Email, "email", "", "Email address")
	flags.StringVar(&registration.Password, "password", "", "Password (prefer --password-stdin)")
	flags.BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	flags.StringVar(&registration.FirstName, "first-name", "", "First name")
	flags.StringVar(&registration.LastName, "last-name", "", "Last name")
	flags.StringVar(&role, "role", string(domain.RoleStudent), "Role: student, lecturer or registrar")
	flags.StringVar(&registration.College, "college", "", "College")
	flags.StringVar(&registration.StudentNumber, "student-number", "", "Student number")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newProfileCmd(loader *appLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the signed-in user's profile",
	}

	var update api.ProfileUpdate
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if update == (api.ProfileUpdate{}) {
				return errors.New("nothing to update: pass --email, --first-name or --last-name")
			}

			app, err := loader.load()
			if err != nil {
				return err
			}
			client, err := app.apiClient()
			if err != nil {
				return err
			}

			user, err := client.UpdateProfile(cmd.Context(), update)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", describeUser(user))
			return err
		},
	}
	updateCmd.Flags().StringVar(&update.Email, "email", "", "Email address")
	updateCmd.Flags().StringVar(&update.FirstName, "first-name", "", "First name")
	updateCmd.Flags().StringVar(&update.LastName, "last-name", "", "Last name")

	cmd.AddCommand(updateCmd)
	return cmd
}

func newSessionCmd(loader *appLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect the stored session",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show token subject and expiry without contacting the service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loader.load()
			if err != nil {
				return err
			}

			cred, err := app.session.Credential(cmd.Context())
			if errors.Is(err, domain.ErrCredentialNotFound) {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
				return err
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			claims, err := inspectToken(cred.AccessToken)
			if err != nil {
				_, _ = fmt.Fprintf(out, "access token: present (unreadable: %v)\n", err)
			} else {
				if claims.subject != "" {
					_, _ = fmt.Fprintf(out, "user: %s\n", claims.subject)
				}
				_, _ = fmt.Fprintf(out, "access token: %s\n", describeExpiry(claims.expiresAt, app.now()))
			}

			refresh := "absent"
			if cred.HasRefresh() {
				refresh = "present"
			}
			_, err = fmt.Fprintf(out, "refresh token: %s\n", refresh)
			return err
		},
	})

	return cmd
}

type tokenClaims struct {
	subject   string
	expiresAt time.Time
}

// inspectToken reads the claims of an access token without verifying its
// signature; the service remains the authority on validity.
func inspectToken(raw string) (tokenClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return tokenClaims{}, fmt.Errorf("parse access token: %w", err)
	}

	var out tokenClaims
	if subject, err := claims.GetSubject(); err == nil && subject != "" {
		out.subject = subject
	} else if userID, ok := claims["user_id"]; ok {
		out.subject = fmt.Sprint(userID)
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.expiresAt = exp.Time
	}
	return out, nil
}

func describeExpiry(expiresAt, now time.Time) string {
	if expiresAt.IsZero() {
		return "present (no expiry)"
	}
	if !expiresAt.After(now) {
		return fmt.Sprintf("expired at %s (refreshed on next request)", expiresAt.In(now.Location()).Format(time.RFC3339))
	}
	return fmt.Sprintf("valid until %s (%s left)", expiresAt.In(now.Location()).Format(time.RFC3339), expiresAt.Sub(now).Round(time.Second))
}

func describeUser(user domain.User) string {
	label := user.DisplayName()
	if user.Username != "" && label != user.Username {
		label = fmt.Sprintf("%s (%s)", label, user.Username)
	}
	if user.Role != "" {
		label += ", " + string(user.Role)
	}
	return label
}
