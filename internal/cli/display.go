package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/orderdeck/orderdeck/internal/display"
	"github.com/orderdeck/orderdeck/internal/order"
	"github.com/orderdeck/orderdeck/internal/orderfeed"
	"github.com/orderdeck/orderdeck/internal/realtime"
)

// DisplayOptions holds flags shared by the kds and frontdesk commands.
type DisplayOptions struct {
	*RootOptions
	Restaurant string
	Once       bool
}

// NewKDSCommand creates the kitchen display command.
func NewKDSCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DisplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "kds",
		Short: "Run the kitchen display",
		Long: `Run the kitchen display in the terminal.

Active orders are shown oldest first and refreshed every poll interval,
plus immediately on a change notification when a realtime endpoint is
configured. Type an order number and press enter to advance it to its
next status; type q to quit.

Example:
  orderdeck kds
  orderdeck kds --restaurant 3f9c... --once`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDisplay(opts, cmd, true)
		},
	}

	cmd.Flags().StringVar(&opts.Restaurant, "restaurant", "", "restaurant id (default from RESTAURANT_ID)")
	cmd.Flags().BoolVar(&opts.Once, "once", false, "render one snapshot and exit")

	return cmd
}

// NewFrontDeskCommand creates the front desk display command.
func NewFrontDeskCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DisplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "frontdesk",
		Short: "Run the front desk display",
		Long: `Run the front desk display in the terminal.

All of the day's orders are shown newest first. Type
"cancel <order-number> [reason]" to cancel an order that has not been
completed; type q to quit.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDisplay(opts, cmd, false)
		},
	}

	cmd.Flags().StringVar(&opts.Restaurant, "restaurant", "", "restaurant id (default from RESTAURANT_ID)")
	cmd.Flags().BoolVar(&opts.Once, "once", false, "render one snapshot and exit")

	return cmd
}

func runDisplay(opts *DisplayOptions, cmd *cobra.Command, kitchen bool) error {
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

	rid, err := app.restaurantFor(opts.Restaurant)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fetch := func(ctx context.Context) ([]order.Order, error) {
		return app.client.ListOrders(ctx, rid)
	}

	if opts.Once {
		onceCtx := cmd.Context()
		if onceCtx == nil {
			onceCtx = context.Background()
		}
		orders, err := fetch(onceCtx)
		if err != nil {
			return WrapExitError(ExitFailure, "fetch orders", err)
		}
		renderBoard(out, orders, kitchen)
		return nil
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	board := &boardSession{
		app:      app,
		out:      out,
		kitchen:  kitchen,
		inFlight: make(map[string]bool),
	}
	co := orderfeed.New(fetch, app.cfg.PollInterval())
	board.feed = co
	co.Subscribe(board.repaint)

	// The realtime subscription is best-effort: without it the poll
	// keeps the board fresh, just slower.
	if app.cfg.RealtimeURL != "" {
		rt, err := realtime.Dial(ctx, app.cfg.RealtimeURL, app.cfg.RealtimeKey, "orders",
			func(realtime.Event) { co.Poke() })
		if err != nil {
			slog.Warn("realtime feed unavailable, polling only", "error", err)
		} else {
			co.AttachCloser(rt.Close)
		}
	}

	co.Start(ctx)
	defer co.Stop()

	lines := make(chan string)
	go readLines(cmd.InOrStdin(), lines)

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := board.handleInput(ctx, line); quit {
				return nil
			}
		}
	}
}

// readLines feeds stdin lines into ch until EOF.
func readLines(r io.Reader, ch chan<- string) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		ch <- scanner.Text()
	}
	close(ch)
}

func renderBoard(w io.Writer, orders []order.Order, kitchen bool) {
	var buf bytes.Buffer
	if kitchen {
		display.RenderKDS(&buf, orders, time.Now())
	} else {
		display.RenderFrontDesk(&buf, orders, time.Now())
	}
	fmt.Fprint(w, buf.String())
}

// boardSession is the interactive state of one running display.
type boardSession struct {
	app     *app
	feed    *orderfeed.Coordinator
	out     io.Writer
	kitchen bool

	mu       sync.Mutex
	inFlight map[string]bool // order id -> action already running
	notice   string
}

// repaint redraws the whole board from the current snapshot. Lost-refresh
// errors keep the previous orders on screen with a warning line; the next
// poll heals on its own.
func (b *boardSession) repaint() {
	orders, err := b.feed.Snapshot()

	b.mu.Lock()
	notice := b.notice
	b.mu.Unlock()

	fmt.Fprint(b.out, "\033[2J\033[H")
	renderBoard(b.out, orders, b.kitchen)
	if err != nil {
		fmt.Fprintln(b.out, "! refresh failed, showing last known orders")
	}
	if notice != "" {
		fmt.Fprintln(b.out, "! "+notice)
	}
	if b.kitchen {
		fmt.Fprintln(b.out, "> type an order number to advance it, q to quit")
	} else {
		fmt.Fprintln(b.out, "> cancel <order-number> [reason], q to quit")
	}
}

// setNotice records a one-line message shown on the next repaint.
func (b *boardSession) setNotice(msg string) {
	b.mu.Lock()
	b.notice = msg
	b.mu.Unlock()
}

// handleInput reacts to one line of operator input. Returns true to quit.
func (b *boardSession) handleInput(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		b.repaint()
	case line == "q" || line == "quit":
		return true
	case b.kitchen:
		b.advance(ctx, line)
	case strings.HasPrefix(line, "cancel "):
		rest := strings.TrimSpace(strings.TrimPrefix(line, "cancel "))
		number, reason, _ := strings.Cut(rest, " ")
		b.cancel(ctx, number, reason)
	default:
		b.setNotice("unknown command: " + line)
		b.repaint()
	}
	return false
}

// findOrder resolves an order number against the current snapshot.
func (b *boardSession) findOrder(number string) (order.Order, bool) {
	orders, _ := b.feed.Snapshot()
	for _, o := range orders {
		if strings.EqualFold(o.Number, number) {
			return o, true
		}
	}
	return order.Order{}, false
}

// advance moves an order to its single legal next status. The action is
// ignored while a previous one for the same order is still in flight, and
// the board always refetches instead of patching the snapshot locally.
func (b *boardSession) advance(ctx context.Context, number string) {
	o, ok := b.findOrder(number)
	if !ok {
		b.setNotice("no active order " + number)
		b.repaint()
		return
	}
	next, ok := o.Status.Next()
	if !ok {
		b.setNotice(o.Number + " is already " + o.Status.Label())
		b.repaint()
		return
	}
	if !b.begin(o.ID) {
		return
	}

	go func() {
		defer b.end(o.ID)
		if err := b.app.client.UpdateOrderStatus(ctx, o.ID, next); err != nil {
			b.setNotice("could not update " + o.Number + ": " + err.Error())
		} else {
			b.setNotice("")
		}
		b.feed.Poke()
	}()
}

// cancel voids a non-completed order with an optional reason.
func (b *boardSession) cancel(ctx context.Context, number, reason string) {
	o, ok := b.findOrder(number)
	if !ok {
		b.setNotice("no order " + number)
		b.repaint()
		return
	}
	if !o.Status.CanCancel() {
		b.setNotice(o.Number + " can no longer be cancelled")
		b.repaint()
		return
	}
	if !b.begin(o.ID) {
		return
	}

	go func() {
		defer b.end(o.ID)
		if err := b.app.client.CancelOrder(ctx, o.ID, reason); err != nil {
			b.setNotice("could not cancel " + o.Number + ": " + err.Error())
		} else {
			b.setNotice("")
		}
		b.feed.Poke()
	}()
}

func (b *boardSession) begin(orderID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inFlight[orderID] {
		return false
	}
	b.inFlight[orderID] = true
	return true
}

func (b *boardSession) end(orderID string) {
	b.mu.Lock()
	delete(b.inFlight, orderID)
	b.mu.Unlock()
}
