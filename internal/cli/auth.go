package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/orderdeck/orderdeck/internal/api"
	"github.com/orderdeck/orderdeck/internal/session"
)

// LoginOptions holds flags for the login command.
type LoginOptions struct {
	*RootOptions
	Password string
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoginOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Sign in and store the session on this device",
		Long: `Sign in to the platform and store the session on this device.

The password is read from --password or, when omitted, from stdin. One
session per device; logging in replaces any previous one.

Example:
  orderdeck login kitchen1
  orderdeck login admin --password "$ORDERDECK_PASSWORD"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Password, "password", "", "password (omit to read from stdin)")

	return cmd
}

func runLogin(opts *LoginOptions, username string, cmd *cobra.Command) error {
	app, err := openApp(opts.RootOptions)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			slog.Error("error closing device store", "error", closeErr)
		}
	}()
	if err := app.requireAPI(); err != nil {
		return err
	}

	password := opts.Password
	if password == "" {
		fmt.Fprint(cmd.OutOrStdout(), "Password: ")
		scanner := bufio.NewScanner(cmd.InOrStdin())
		if !scanner.Scan() {
			return NewExitError(ExitCommandError, "no password given")
		}
		password = strings.TrimSpace(scanner.Text())
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	client := api.New(app.cfg.APIBaseURL)
	res, err := client.Login(ctx, username, password)
	if err != nil {
		return WrapExitError(ExitFailure, "login failed", err)
	}
	if err := app.sessions.Save(session.Session{Token: res.Token, User: res.User}); err != nil {
		return WrapExitError(ExitCommandError, "store session", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return formatter.Success(res.User)
	}
	return formatter.Success(fmt.Sprintf("Logged in as %s (%s)", res.User.Username, res.User.EffectiveRole()))
}

// PasswdOptions holds flags for the passwd command.
type PasswdOptions struct {
	*RootOptions
	Current string
	New     string
}

// NewPasswdCommand creates the passwd command.
func NewPasswdCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PasswdOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change the logged-in user's password",
		Long: `Change the password of the stored session's user.

The session stays valid; only the credential changes.

Example:
  orderdeck passwd --current "$OLD" --new "$NEW"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPasswd(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Current, "current", "", "current password (required)")
	cmd.Flags().StringVar(&opts.New, "new", "", "new password (required)")
	_ = cmd.MarkFlagRequired("current")
	_ = cmd.MarkFlagRequired("new")

	return cmd
}

func runPasswd(opts *PasswdOptions, cmd *cobra.Command) error {
	app, err := openApp(opts.RootOptions)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			slog.Error("error closing device store", "error", closeErr)
		}
	}()

	client, _, err := app.bearerClient()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := app.checkBearer(client.ChangePassword(ctx, opts.Current, opts.New)); err != nil {
		return WrapExitError(ExitFailure, "change password", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	return formatter.Success("Password changed")
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and clear cached data",
		Long: `End the stored session.

The token, the user, and every cached menu are cleared; carts survive, a
customer's in-progress order is not tied to a staff login.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := app.Close(); closeErr != nil {
					slog.Error("error closing device store", "error", closeErr)
				}
			}()

			if err := app.sessions.Logout(); err != nil {
				return WrapExitError(ExitCommandError, "logout", err)
			}
			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout(), Verbose: rootOpts.Verbose}
			return formatter.Success("Logged out")
		},
	}
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "whoami",
		Short:         "Show the stored session",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := app.Close(); closeErr != nil {
					slog.Error("error closing device store", "error", closeErr)
				}
			}()

			sess, err := app.sessions.Current()
			if err != nil {
				return NewExitError(ExitFailure, "not logged in")
			}

			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout(), Verbose: rootOpts.Verbose}
			if rootOpts.Format == "json" {
				return formatter.Success(sess.User)
			}
			out := fmt.Sprintf("%s (%s)", sess.User.Username, sess.User.EffectiveRole())
			if sess.User.RestaurantID != "" {
				out += " restaurant=" + sess.User.RestaurantID
			}
			return formatter.Success(out)
		},
	}
}
