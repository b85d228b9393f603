package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/orderdeck/orderdeck/internal/menu"
)

// MenuOptions holds flags for the menu command.
type MenuOptions struct {
	*RootOptions
	Restaurant string
	NoCache    bool
}

// NewMenuCommand creates the menu command.
func NewMenuCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MenuOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Show a restaurant's menu",
		Long: `Show a restaurant's menu.

Menus are cached on the device for the configured TTL; a cached menu is
shown immediately while a background refetch keeps it fresh. --no-cache
forces a direct fetch.

Example:
  orderdeck menu
  orderdeck menu --restaurant 3f9c... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Restaurant, "restaurant", "", "restaurant id (default from RESTAURANT_ID)")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "bypass the device menu cache")

	return cmd
}

func runMenu(opts *MenuOptions, cmd *cobra.Command) error {
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

	rid, err := app.restaurantFor(opts.Restaurant)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var m menu.Menu
	if opts.NoCache {
		m, err = app.client.FullMenu(ctx, rid)
	} else {
		cache := menu.NewCache(app.store, app.client.FullMenu, app.cfg.MenuTTL())
		m, err = cache.Get(ctx, rid, nil)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "fetch menu", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return formatter.Success(m)
	}

	var sb strings.Builder
	for _, cat := range m.Categories {
		if !cat.IsActive {
			continue
		}
		fmt.Fprintf(&sb, "%s\n%s\n", cat.Name, strings.Repeat("-", len(cat.Name)))
		for _, item := range cat.Items {
			avail := ""
			if !item.IsAvailable {
				avail = "  (unavailable)"
			}
			fmt.Fprintf(&sb, "  %-9s %s  $%.2f%s\n", item.ID, item.Name, item.Price, avail)
			for _, mod := range item.Modifiers {
				var choices []string
				for _, o := range mod.Options {
					if o.PriceAdjustment != 0 {
						choices = append(choices, fmt.Sprintf("%s (%+.2f)", o.Name, o.PriceAdjustment))
					} else {
						choices = append(choices, o.Name)
					}
				}
				fmt.Fprintf(&sb, "            %s: %s\n", mod.Name, strings.Join(choices, ", "))
			}
		}
		sb.WriteString("\n")
	}
	return formatter.Success(strings.TrimRight(sb.String(), "\n"))
}
