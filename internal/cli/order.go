package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/orderdeck/orderdeck/internal/api"
	"github.com/orderdeck/orderdeck/internal/order"
)

// OrderOptions holds flags for the order command.
type OrderOptions struct {
	*RootOptions
	Restaurant string
}

// NewOrderCommand creates the order lookup command.
func NewOrderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OrderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "order <order-number-or-id>",
		Short: "Look up one order",
		Long: `Look up one order by its number (ORD-...) or id and show its
current status and lines.

Example:
  orderdeck order ORD-20260901-003`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrder(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Restaurant, "restaurant", "", "restaurant id (default from RESTAURANT_ID)")

	return cmd
}

func runOrder(opts *OrderOptions, ref string, cmd *cobra.Command) error {
	app, err := openApp(opts.RootOptions)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			slog.Error("error closing device store", "error", closeErr)
		}
	}()
	if err := app.requireDisplay(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	o, err := lookupOrder(ctx, app, ref, opts.Restaurant)
	if err != nil {
		return err
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return formatter.Success(o)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s  %s  $%.2f\n", o.Number, o.Status.Label(), o.TotalAmount)
	if o.CustomerName != "" || o.CustomerPhone != "" {
		fmt.Fprintf(&sb, "%s %s\n", o.CustomerName, order.FormatPhone(o.CustomerPhone))
	}
	for _, it := range o.Items {
		fmt.Fprintf(&sb, "  %dx %s\n", it.Quantity, it.Name)
		if it.SpecialInstructions != "" {
			fmt.Fprintf(&sb, "     note: %s\n", it.SpecialInstructions)
		}
	}
	return formatter.Success(strings.TrimRight(sb.String(), "\n"))
}

// lookupOrder resolves an order number against the restaurant's order list,
// falling back to a direct fetch when ref is a raw id.
func lookupOrder(ctx context.Context, app *app, ref, restaurantFlag string) (order.Order, error) {
	if strings.HasPrefix(strings.ToUpper(ref), "ORD-") {
		rid, err := app.restaurantFor(restaurantFlag)
		if err != nil {
			return order.Order{}, err
		}
		orders, err := app.client.ListOrders(ctx, rid)
		if err != nil {
			return order.Order{}, WrapExitError(ExitFailure, "fetch orders", err)
		}
		for _, o := range orders {
			if strings.EqualFold(o.Number, ref) {
				return o, nil
			}
		}
		return order.Order{}, NewExitError(ExitFailure, fmt.Sprintf("no order %s", ref))
	}

	o, err := app.client.GetOrder(ctx, ref)
	if api.IsNotFound(err) {
		return order.Order{}, NewExitError(ExitFailure, fmt.Sprintf("no order %s", ref))
	}
	if err != nil {
		return order.Order{}, WrapExitError(ExitFailure, "fetch order", err)
	}
	return o, nil
}
