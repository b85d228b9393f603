package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// AnalyticsOptions holds flags shared by the analytics subcommands.
type AnalyticsOptions struct {
	*RootOptions
	Restaurant string
	Days       int
}

// NewAnalyticsCommand creates the analytics command group.
func NewAnalyticsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyticsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Restaurant performance views",
	}

	cmd.PersistentFlags().StringVar(&opts.Restaurant, "restaurant", "", "restaurant id (default from session or RESTAURANT_ID)")
	cmd.PersistentFlags().IntVar(&opts.Days, "days", 7, "trailing window in days")

	cmd.AddCommand(newAnalyticsOverviewCommand(opts))
	cmd.AddCommand(newAnalyticsRevenueCommand(opts))
	cmd.AddCommand(newAnalyticsPopularCommand(opts))
	cmd.AddCommand(newAnalyticsTimelineCommand(opts))

	return cmd
}

func newAnalyticsOverviewCommand(opts *AnalyticsOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "overview",
		Short:         "Aggregate order and revenue stats",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			adminOpts := &AdminOptions{RootOptions: opts.RootOptions, Restaurant: opts.Restaurant}
			app, client, sess, ctx, err := adminContext(adminOpts, cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			rid, err := adminRestaurant(app, sess, opts.Restaurant)
			if err != nil {
				return err
			}
			ov, err := client.Overview(ctx, rid, opts.Days)
			if err := app.checkBearer(err); err != nil {
				return WrapExitError(ExitFailure, "fetch overview", err)
			}

			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			if opts.Format == "json" {
				return formatter.Success(ov)
			}
			var sb strings.Builder
			fmt.Fprintf(&sb, "last %d days\n", opts.Days)
			fmt.Fprintf(&sb, "  orders     %d (%d voice, %d self-service)\n", ov.TotalOrders, ov.VoiceOrders, ov.SelfServeOrders)
			fmt.Fprintf(&sb, "  revenue    $%.2f (avg $%.2f)\n", ov.TotalRevenue, ov.AverageOrder)
			fmt.Fprintf(&sb, "  completed  %d\n", ov.CompletedOrders)
			fmt.Fprintf(&sb, "  cancelled  %d", ov.CancelledOrders)
			return formatter.Success(sb.String())
		},
	}
}

func newAnalyticsRevenueCommand(opts *AnalyticsOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "revenue",
		Short:         "Per-day revenue series",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			adminOpts := &AdminOptions{RootOptions: opts.RootOptions, Restaurant: opts.Restaurant}
			app, client, sess, ctx, err := adminContext(adminOpts, cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			rid, err := adminRestaurant(app, sess, opts.Restaurant)
			if err != nil {
				return err
			}
			points, err := client.RevenueTrends(ctx, rid, opts.Days)
			if err := app.checkBearer(err); err != nil {
				return WrapExitError(ExitFailure, "fetch revenue trends", err)
			}

			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			if opts.Format == "json" {
				return formatter.Success(points)
			}
			var sb strings.Builder
			for _, p := range points {
				fmt.Fprintf(&sb, "%s  %3d orders  $%.2f\n", p.Date, p.Orders, p.Revenue)
			}
			return formatter.Success(strings.TrimRight(sb.String(), "\n"))
		},
	}
}

func newAnalyticsPopularCommand(opts *AnalyticsOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:           "popular",
		Short:         "Best-selling items",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			adminOpts := &AdminOptions{RootOptions: opts.RootOptions, Restaurant: opts.Restaurant}
			app, client, sess, ctx, err := adminContext(adminOpts, cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			rid, err := adminRestaurant(app, sess, opts.Restaurant)
			if err != nil {
				return err
			}
			items, err := client.PopularItems(ctx, rid, opts.Days, limit)
			if err := app.checkBearer(err); err != nil {
				return WrapExitError(ExitFailure, "fetch popular items", err)
			}

			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			if opts.Format == "json" {
				return formatter.Success(items)
			}
			var sb strings.Builder
			for i, it := range items {
				fmt.Fprintf(&sb, "%2d. %s  x%d  $%.2f\n", i+1, it.Name, it.Quantity, it.Revenue)
			}
			return formatter.Success(strings.TrimRight(sb.String(), "\n"))
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "how many items to show")

	return cmd
}

func newAnalyticsTimelineCommand(opts *AnalyticsOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:           "timeline",
		Short:         "Hour-by-hour order counts for one day",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			adminOpts := &AdminOptions{RootOptions: opts.RootOptions, Restaurant: opts.Restaurant}
			app, client, sess, ctx, err := adminContext(adminOpts, cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			rid, err := adminRestaurant(app, sess, opts.Restaurant)
			if err != nil {
				return err
			}
			points, err := client.Timeline(ctx, rid, date)
			if err := app.checkBearer(err); err != nil {
				return WrapExitError(ExitFailure, "fetch timeline", err)
			}

			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			if opts.Format == "json" {
				return formatter.Success(points)
			}
			var sb strings.Builder
			for _, p := range points {
				fmt.Fprintf(&sb, "%02d:00  %s (%d)\n", p.Hour, strings.Repeat("#", p.Orders), p.Orders)
			}
			return formatter.Success(strings.TrimRight(sb.String(), "\n"))
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "day to chart as YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}
