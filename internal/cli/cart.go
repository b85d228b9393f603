package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/orderdeck/orderdeck/internal/api"
	"github.com/orderdeck/orderdeck/internal/cart"
	"github.com/orderdeck/orderdeck/internal/menu"
)

// CartOptions holds flags shared by the cart subcommands.
type CartOptions struct {
	*RootOptions
	Restaurant string
}

// NewCartCommand creates the cart command group.
func NewCartCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CartOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the device-local cart",
		Long: `Manage the device-local cart.

The cart lives on this device, one per restaurant; the platform first
sees it at checkout. Lines are keyed by menu item plus the exact
modifier choices, so the same dish with different options stays on
separate lines.`,
	}

	cmd.PersistentFlags().StringVar(&opts.Restaurant, "restaurant", "", "restaurant id (default from RESTAURANT_ID)")

	cmd.AddCommand(newCartAddCommand(opts))
	cmd.AddCommand(newCartListCommand(opts))
	cmd.AddCommand(newCartRemoveCommand(opts))
	cmd.AddCommand(newCartClearCommand(opts))

	return cmd
}

// cartFor opens the cart for the selected restaurant.
func cartFor(app *app, restaurantFlag string) (*cart.Store, string, error) {
	rid, err := app.restaurantFor(restaurantFlag)
	if err != nil {
		return nil, "", err
	}
	ct, err := cart.Open(app.store, rid)
	if err != nil {
		return nil, "", WrapExitError(ExitCommandError, "open cart", err)
	}
	return ct, rid, nil
}

func newCartAddCommand(opts *CartOptions) *cobra.Command {
	var (
		qty  int
		mods []string
		note string
	)

	cmd := &cobra.Command{
		Use:   "add <item-id>",
		Short: "Add a menu item to the cart",
		Long: `Add a menu item to the cart.

Modifier choices are passed as --mod "Name=Option", repeated for each
choice; a multi-select modifier takes several --mod flags with the same
name.

Example:
  orderdeck cart add i1 --qty 2 --mod "Size=Large" --note "no peanuts"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			ct, rid, err := cartFor(app, opts.Restaurant)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cache := menu.NewCache(app.store, app.client.FullMenu, app.cfg.MenuTTL())
			m, err := cache.Get(ctx, rid, nil)
			if err != nil {
				return WrapExitError(ExitFailure, "fetch menu", err)
			}
			item, ok := m.FindItem(args[0])
			if !ok {
				return NewExitError(ExitFailure, fmt.Sprintf("no menu item %q", args[0]))
			}

			sel, err := parseSelections(mods)
			if err != nil {
				return WrapExitError(ExitCommandError, "parse --mod", err)
			}

			line, err := ct.Add(item, sel, qty, note)
			if err != nil {
				return WrapExitError(ExitCommandError, "update cart", err)
			}

			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			if opts.Format == "json" {
				return formatter.Success(line)
			}
			return formatter.Success(fmt.Sprintf("Added %dx %s ($%.2f each)", line.Quantity, line.Name, line.UnitPrice))
		},
	}

	cmd.Flags().IntVar(&qty, "qty", 1, "quantity")
	cmd.Flags().StringArrayVar(&mods, "mod", nil, `modifier choice as "Name=Option" (repeatable)`)
	cmd.Flags().StringVar(&note, "note", "", "special instructions")

	return cmd
}

// parseSelections turns repeated Name=Option flags into Selections.
func parseSelections(mods []string) (menu.Selections, error) {
	if len(mods) == 0 {
		return nil, nil
	}
	sel := menu.Selections{}
	for _, m := range mods {
		name, option, ok := strings.Cut(m, "=")
		if !ok || name == "" || option == "" {
			return nil, fmt.Errorf("%q is not Name=Option", m)
		}
		sel[name] = append(sel[name], option)
	}
	return sel, nil
}

func newCartListCommand(opts *CartOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "Show the cart with totals",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(opts.RootOptions)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := app.Close(); closeErr != nil {
					slog.Error("error closing device store", "error", closeErr)
				}
			}()

			ct, _, err := cartFor(app, opts.Restaurant)
			if err != nil {
				return err
			}

			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			if opts.Format == "json" {
				return formatter.Success(map[string]any{
					"lines":    ct.Lines(),
					"subtotal": ct.Subtotal(),
					"tax":      ct.Tax(),
					"total":    ct.Total(),
				})
			}

			lines := ct.Lines()
			if len(lines) == 0 {
				return formatter.Success("Cart is empty")
			}
			var sb strings.Builder
			for _, l := range lines {
				fmt.Fprintf(&sb, "%s  %dx %s  $%.2f\n", l.ID, l.Quantity, l.Name, l.Total())
				for mod, chosen := range l.Selections {
					fmt.Fprintf(&sb, "    %s: %s\n", mod, strings.Join(chosen, ", "))
				}
				if l.SpecialInstructions != "" {
					fmt.Fprintf(&sb, "    note: %s\n", l.SpecialInstructions)
				}
			}
			fmt.Fprintf(&sb, "subtotal $%.2f  tax $%.2f  total $%.2f", ct.Subtotal(), ct.Tax(), ct.Total())
			return formatter.Success(sb.String())
		},
	}
}

func newCartRemoveCommand(opts *CartOptions) *cobra.Command {
	var qty int

	cmd := &cobra.Command{
		Use:           "remove <line-id>",
		Short:         "Remove a line, or set its quantity with --qty",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(opts.RootOptions)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := app.Close(); closeErr != nil {
					slog.Error("error closing device store", "error", closeErr)
				}
			}()

			ct, _, err := cartFor(app, opts.Restaurant)
			if err != nil {
				return err
			}

			if err := ct.SetQuantity(args[0], qty); err != nil {
				return WrapExitError(ExitFailure, "update cart", err)
			}
			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			return formatter.Success("Cart updated")
		},
	}

	cmd.Flags().IntVar(&qty, "qty", 0, "new quantity (0 removes the line)")

	return cmd
}

func newCartClearCommand(opts *CartOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "clear",
		Short:         "Empty the cart",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(opts.RootOptions)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := app.Close(); closeErr != nil {
					slog.Error("error closing device store", "error", closeErr)
				}
			}()

			ct, _, err := cartFor(app, opts.Restaurant)
			if err != nil {
				return err
			}
			if err := ct.Clear(); err != nil {
				return WrapExitError(ExitCommandError, "clear cart", err)
			}
			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			return formatter.Success("Cart cleared")
		},
	}
}

// CheckoutOptions holds flags for the checkout command.
type CheckoutOptions struct {
	*RootOptions
	Restaurant string
	Name       string
	Phone      string
	Note       string
}

// NewCheckoutCommand creates the checkout command.
func NewCheckoutCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckoutOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Submit the cart as an order",
		Long: `Submit the cart as a self-service order.

Pricing is the platform's job: the cart's totals are a preview, the
charge comes from the created order. On success the cart is cleared and
the order number printed.

Example:
  orderdeck checkout --name Dana --phone +14155550134`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckout(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Restaurant, "restaurant", "", "restaurant id (default from RESTAURANT_ID)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "customer name")
	cmd.Flags().StringVar(&opts.Phone, "phone", "", "customer phone (required)")
	cmd.Flags().StringVar(&opts.Note, "note", "", "order-level note for the kitchen")
	_ = cmd.MarkFlagRequired("phone")

	return cmd
}

func runCheckout(opts *CheckoutOptions, cmd *cobra.Command) error {
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

	ct, rid, err := cartFor(app, opts.Restaurant)
	if err != nil {
		return err
	}
	lines := ct.Lines()
	if len(lines) == 0 {
		return NewExitError(ExitFailure, "cart is empty")
	}

	co := api.Checkout{
		RestaurantID:        rid,
		CustomerName:        opts.Name,
		CustomerPhone:       opts.Phone,
		SpecialInstructions: opts.Note,
	}
	for _, l := range lines {
		co.Items = append(co.Items, api.CheckoutItem{
			MenuItemID:          l.MenuItemID,
			Quantity:            l.Quantity,
			ModifierSelections:  l.Selections,
			SpecialInstructions: l.SpecialInstructions,
		})
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	created, err := app.client.CreateOrder(ctx, co)
	if err != nil {
		return WrapExitError(ExitFailure, "place order", err)
	}
	if err := ct.Clear(); err != nil {
		return WrapExitError(ExitCommandError, "clear cart after checkout", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return formatter.Success(created)
	}
	return formatter.Success(fmt.Sprintf("Order %s placed, total $%.2f", created.Number, created.TotalAmount))
}
