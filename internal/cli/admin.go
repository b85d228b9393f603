package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/orderdeck/orderdeck/internal/api"
	"github.com/orderdeck/orderdeck/internal/menu"
	"github.com/orderdeck/orderdeck/internal/session"
)

// AdminOptions holds flags shared by the admin subcommands.
type AdminOptions struct {
	*RootOptions
	Restaurant string
}

// NewAdminCommand creates the admin command group. Everything under it
// talks to the platform with the stored bearer session.
func NewAdminCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AdminOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage restaurants, users, and menus",
		Long: `Manage restaurants, users, and menus on the platform.

All admin commands require a stored login ('orderdeck login'); a 401
from the platform drops the session and asks you to log in again.`,
	}

	cmd.PersistentFlags().StringVar(&opts.Restaurant, "restaurant", "", "restaurant id (default from session or RESTAURANT_ID)")

	cmd.AddCommand(newAdminRestaurantsCommand(opts))
	cmd.AddCommand(newAdminUsersCommand(opts))
	cmd.AddCommand(newAdminCategoriesCommand(opts))
	cmd.AddCommand(newAdminItemsCommand(opts))
	cmd.AddCommand(newAdminUploadMenuCommand(opts))

	return cmd
}

// adminContext opens the app and the bearer client in one step.
func adminContext(opts *AdminOptions, cmd *cobra.Command) (*app, *api.Client, session.Session, context.Context, error) {
	app, err := openApp(opts.RootOptions)
	if err != nil {
		return nil, nil, session.Session{}, nil, err
	}
	client, sess, err := app.bearerClient()
	if err != nil {
		_ = app.Close()
		return nil, nil, session.Session{}, nil, err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return app, client, sess, ctx, nil
}

func closeApp(app *app) {
	if err := app.Close(); err != nil {
		slog.Error("error closing device store", "error", err)
	}
}

func newAdminRestaurantsCommand(opts *AdminOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restaurants",
		Short: "List or onboard restaurants",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "list",
		Short:         "List restaurants with their ordering slugs",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, client, _, ctx, err := adminContext(opts, cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			restaurants, err := client.ListRestaurants(ctx)
			if err := app.checkBearer(err); err != nil {
				return WrapExitError(ExitFailure, "list restaurants", err)
			}

			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			if opts.Format == "json" {
				return formatter.Success(restaurants)
			}
			var sb strings.Builder
			for _, r := range restaurants {
				fmt.Fprintf(&sb, "%s  %s  %s  /r/%s/menu\n", r.ID, r.Name, r.Phone, r.Slug())
			}
			return formatter.Success(strings.TrimRight(sb.String(), "\n"))
		},
	})

	var nr api.NewRestaurant
	create := &cobra.Command{
		Use:           "create",
		Short:         "Onboard a restaurant",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, client, _, ctx, err := adminContext(opts, cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			created, err := client.CreateRestaurant(ctx, nr)
			if err := app.checkBearer(err); err != nil {
				return WrapExitError(ExitFailure, "create restaurant", err)
			}

			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			if opts.Format == "json" {
				return formatter.Success(created)
			}
			return formatter.Success(fmt.Sprintf("Created %s (%s), ordering at /r/%s/menu", created.Name, created.ID, created.Slug()))
		},
	}
	create.Flags().StringVar(&nr.Name, "name", "", "restaurant name (required)")
	create.Flags().StringVar(&nr.Phone, "phone", "", "voice ordering phone (required)")
	create.Flags().StringVar(&nr.Address, "address", "", "street address")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("phone")
	cmd.AddCommand(create)

	return cmd
}

func newAdminUsersCommand(opts *AdminOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage staff and admin accounts",
	}

	var nu api.NewUser
	var role string
	create := &cobra.Command{
		Use:           "create <username>",
		Short:         "Create an account",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, client, _, ctx, err := adminContext(opts, cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			nu.Username = args[0]
			nu.Role = session.Role(role)
			if nu.RestaurantID == "" {
				nu.RestaurantID = opts.Restaurant
			}
			created, err := client.CreateUser(ctx, nu)
			if err := app.checkBearer(err); err != nil {
				return WrapExitError(ExitFailure, "create user", err)
			}

			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			if opts.Format == "json" {
				return formatter.Success(created)
			}
			return formatter.Success(fmt.Sprintf("Created %s (%s)", created.Username, created.Role))
		},
	}
	create.Flags().StringVar(&nu.Password, "password", "", "initial password (required)")
	create.Flags().StringVar(&role, "role", "", "super_admin|restaurant_admin|kds_user|frontdesk_user (required)")
	create.Flags().StringVar(&nu.Email, "email", "", "email address")
	create.Flags().StringVar(&nu.FullName, "full-name", "", "display name")
	create.Flags().StringVar(&nu.RestaurantID, "user-restaurant", "", "restaurant the account is scoped to")
	_ = create.MarkFlagRequired("password")
	_ = create.MarkFlagRequired("role")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{
		Use:           "list",
		Short:         "List accounts",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, client, _, ctx, err := adminContext(opts, cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			users, err := client.ListUsers(ctx, opts.Restaurant)
			if err := app.checkBearer(err); err != nil {
				return WrapExitError(ExitFailure, "list users", err)
			}

			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			if opts.Format == "json" {
				return formatter.Success(users)
			}
			var sb strings.Builder
			for _, u := range users {
				fmt.Fprintf(&sb, "%s  %s  %s", u.ID, u.Username, u.EffectiveRole())
				if u.RestaurantID != "" {
					fmt.Fprintf(&sb, "  restaurant=%s", u.RestaurantID)
				}
				sb.WriteString("\n")
			}
			return formatter.Success(strings.TrimRight(sb.String(), "\n"))
		},
	})

	var password string
	setPassword := &cobra.Command{
		Use:           "set-password <user-id>",
		Short:         "Reset an account's password",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, client, _, ctx, err := adminContext(opts, cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			if err := app.checkBearer(client.SetUserPassword(ctx, args[0], password)); err != nil {
				return WrapExitError(ExitFailure, "set password", err)
			}
			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			return formatter.Success("Password updated")
		},
	}
	setPassword.Flags().StringVar(&password, "password", "", "new password (required)")
	_ = setPassword.MarkFlagRequired("password")
	cmd.AddCommand(setPassword)

	cmd.AddCommand(&cobra.Command{
		Use:           "deactivate <user-id>",
		Short:         "Disable an account without deleting it",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, client, _, ctx, err := adminContext(opts, cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			if err := app.checkBearer(client.DeactivateUser(ctx, args[0])); err != nil {
				return WrapExitError(ExitFailure, "deactivate user", err)
			}
			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			return formatter.Success("Account deactivated")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "delete <user-id>",
		Short:         "Delete an account permanently",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, client, _, ctx, err := adminContext(opts, cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			if err := app.checkBearer(client.DeleteUser(ctx, args[0])); err != nil {
				return WrapExitError(ExitFailure, "delete user", err)
			}
			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			return formatter.Success("Account deleted")
		},
	})

	return cmd
}

func newAdminCategoriesCommand(opts *AdminOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage menu categories",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "list",
		Short:         "List a restaurant's categories",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, client, sess, ctx, err := adminContext(opts, cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			rid, err := adminRestaurant(app, sess, opts.Restaurant)
			if err != nil {
				return err
			}
			cats, err := client.Categories(ctx, rid)
			if err := app.checkBearer(err); err != nil {
				return WrapExitError(ExitFailure, "list categories", err)
			}

			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			if opts.Format == "json" {
				return formatter.Success(cats)
			}
			var sb strings.Builder
			for _, c := range cats {
				active := ""
				if !c.IsActive {
					active = "  (inactive)"
				}
				fmt.Fprintf(&sb, "%s  %d. %s%s\n", c.ID, c.DisplayOrder, c.Name, active)
			}
			return formatter.Success(strings.TrimRight(sb.String(), "\n"))
		},
	})

	var cat menu.Category
	create := &cobra.Command{
		Use:           "create <name>",
		Short:         "Add a category",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, client, sess, ctx, err := adminContext(opts, cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			rid, err := adminRestaurant(app, sess, opts.Restaurant)
			if err != nil {
				return err
			}
			cat.Name = args[0]
			cat.IsActive = true
			created, err := client.CreateCategory(ctx, rid, cat)
			if err := app.checkBearer(err); err != nil {
				return WrapExitError(ExitFailure, "create category", err)
			}

			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			if opts.Format == "json" {
				return formatter.Success(created)
			}
			return formatter.Success(fmt.Sprintf("Created category %s (%s)", created.Name, created.ID))
		},
	}
	create.Flags().IntVar(&cat.DisplayOrder, "order", 0, "display position")
	create.Flags().StringVar(&cat.Description, "description", "", "category description")
	cmd.AddCommand(create)

	var upd menu.Category
	update := &cobra.Command{
		Use:           "update <category-id>",
		Short:         "Edit a category",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, client, _, ctx, err := adminContext(opts, cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			// Only flags the caller set are sent; the platform keeps the
			// rest untouched.
			fields := map[string]any{}
			if cmd.Flags().Changed("name") {
				fields["name"] = upd.Name
			}
			if cmd.Flags().Changed("order") {
				fields["display_order"] = upd.DisplayOrder
			}
			if cmd.Flags().Changed("description") {
				fields["description"] = upd.Description
			}
			if cmd.Flags().Changed("active") {
				fields["is_active"] = upd.IsActive
			}
			if len(fields) == 0 {
				return NewExitError(ExitCommandError, "nothing to update: pass at least one field flag")
			}

			updated, err := client.UpdateCategory(ctx, args[0], fields)
			if err := app.checkBearer(err); err != nil {
				return WrapExitError(ExitFailure, "update category", err)
			}

			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			if opts.Format == "json" {
				return formatter.Success(updated)
			}
			return formatter.Success(fmt.Sprintf("Updated category %s", updated.Name))
		},
	}
	update.Flags().StringVar(&upd.Name, "name", "", "new name")
	update.Flags().IntVar(&upd.DisplayOrder, "order", 0, "display position")
	update.Flags().StringVar(&upd.Description, "description", "", "category description")
	update.Flags().BoolVar(&upd.IsActive, "active", true, "show the category to customers")
	cmd.AddCommand(update)

	cmd.AddCommand(&cobra.Command{
		Use:           "delete <category-id>",
		Short:         "Remove a category",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, client, _, ctx, err := adminContext(opts, cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			if err := app.checkBearer(client.DeleteCategory(ctx, args[0])); err != nil {
				return WrapExitError(ExitFailure, "delete category", err)
			}
			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			return formatter.Success("Category deleted")
		},
	})

	return cmd
}

func newAdminItemsCommand(opts *AdminOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Manage menu items",
	}

	var item menu.Item
	create := &cobra.Command{
		Use:           "create <name>",
		Short:         "Add a menu item",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, client, sess, ctx, err := adminContext(opts, cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			rid, err := adminRestaurant(app, sess, opts.Restaurant)
			if err != nil {
				return err
			}
			item.Name = args[0]
			item.IsAvailable = true
			created, err := client.CreateItem(ctx, rid, item)
			if err := app.checkBearer(err); err != nil {
				return WrapExitError(ExitFailure, "create item", err)
			}

			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			if opts.Format == "json" {
				return formatter.Success(created)
			}
			return formatter.Success(fmt.Sprintf("Created item %s (%s) at $%.2f", created.Name, created.ID, created.Price))
		},
	}
	create.Flags().StringVar(&item.CategoryID, "category", "", "category id (required)")
	create.Flags().Float64Var(&item.Price, "price", 0, "base price (required)")
	create.Flags().StringVar(&item.Description, "description", "", "item description")
	_ = create.MarkFlagRequired("category")
	_ = create.MarkFlagRequired("price")
	cmd.AddCommand(create)

	var upd menu.Item
	update := &cobra.Command{
		Use:           "update <item-id>",
		Short:         "Edit a menu item",
		Long: `Edit a menu item.

Only the flags you pass are changed; 86 a dish with --available=false
and bring it back the same way.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, client, _, ctx, err := adminContext(opts, cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			fields := map[string]any{}
			if cmd.Flags().Changed("name") {
				fields["name"] = upd.Name
			}
			if cmd.Flags().Changed("price") {
				fields["price"] = upd.Price
			}
			if cmd.Flags().Changed("description") {
				fields["description"] = upd.Description
			}
			if cmd.Flags().Changed("category") {
				fields["category_id"] = upd.CategoryID
			}
			if cmd.Flags().Changed("available") {
				fields["is_available"] = upd.IsAvailable
			}
			if len(fields) == 0 {
				return NewExitError(ExitCommandError, "nothing to update: pass at least one field flag")
			}

			updated, err := client.UpdateItem(ctx, args[0], fields)
			if err := app.checkBearer(err); err != nil {
				return WrapExitError(ExitFailure, "update item", err)
			}

			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			if opts.Format == "json" {
				return formatter.Success(updated)
			}
			return formatter.Success(fmt.Sprintf("Updated item %s at $%.2f", updated.Name, updated.Price))
		},
	}
	update.Flags().StringVar(&upd.Name, "name", "", "new name")
	update.Flags().Float64Var(&upd.Price, "price", 0, "base price")
	update.Flags().StringVar(&upd.Description, "description", "", "item description")
	update.Flags().StringVar(&upd.CategoryID, "category", "", "move to category id")
	update.Flags().BoolVar(&upd.IsAvailable, "available", true, "offer the item to customers")
	cmd.AddCommand(update)

	cmd.AddCommand(&cobra.Command{
		Use:           "delete <item-id>",
		Short:         "Remove a menu item",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, client, _, ctx, err := adminContext(opts, cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			if err := app.checkBearer(client.DeleteItem(ctx, args[0])); err != nil {
				return WrapExitError(ExitFailure, "delete item", err)
			}
			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			return formatter.Success("Item deleted")
		},
	})

	return cmd
}

func newAdminUploadMenuCommand(opts *AdminOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "upload-menu <file>",
		Short: "Upload a menu file for server-side parsing",
		Long: `Upload a raw menu file (PDF or image) for onboarding.

The platform parses it and replaces the restaurant's menu with the
result; this command only ships the bytes.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, client, sess, ctx, err := adminContext(opts, cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			rid, err := adminRestaurant(app, sess, opts.Restaurant)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "open menu file", err)
			}
			defer f.Close()

			if err := app.checkBearer(client.UploadMenu(ctx, rid, filepath.Base(args[0]), f)); err != nil {
				return WrapExitError(ExitFailure, "upload menu", err)
			}
			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			return formatter.Success("Menu uploaded; parsing runs on the platform")
		},
	}
}

// adminRestaurant scopes an admin command to a restaurant: the flag, then
// the logged-in user's own restaurant, then the device configuration.
func adminRestaurant(app *app, sess session.Session, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if sess.User.RestaurantID != "" {
		return sess.User.RestaurantID, nil
	}
	if app.cfg.RestaurantID != "" {
		return app.cfg.RestaurantID, nil
	}
	return "", NewExitError(ExitCommandError, "no restaurant selected: pass --restaurant or set RESTAURANT_ID")
}
