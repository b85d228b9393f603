package order

import (
	"log/slog"
	"strings"
)

// Status is an order's position in the kitchen lifecycle.
//
// The lifecycle is strictly linear for the advance action:
//
//	pending -> preparing -> ready -> completed
//
// cancelled is a separate terminal state reachable from any non-completed
// state via the front-desk cancel action. There are no backward transitions
// and no skips.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// next is the fixed advance table. Terminal states have no entry.
var next = map[Status]Status{
	StatusPending:   StatusPreparing,
	StatusPreparing: StatusReady,
	StatusReady:     StatusCompleted,
}

// labels are the human-facing names shown on displays and buttons.
var labels = map[Status]string{
	StatusPending:   "Pending",
	StatusPreparing: "Preparing",
	StatusReady:     "Ready for Pickup",
	StatusCompleted: "Completed",
	StatusCancelled: "Cancelled",
}

// ParseStatus decodes an arbitrary status string from the order store.
// Matching is case-insensitive and ignores surrounding whitespace.
//
// Unrecognized values decode to StatusPending so that displays never drop
// an order on bad data; the raw value is logged so the source system can be
// chased instead of the coercion hiding it. ParseStatus is idempotent:
// ParseStatus(string(s)) == s for every Status it returns.
func ParseStatus(raw string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusPending:
		return StatusPending
	case StatusPreparing:
		return StatusPreparing
	case StatusReady:
		return StatusReady
	case StatusCompleted:
		return StatusCompleted
	case StatusCancelled:
		return StatusCancelled
	}
	slog.Warn("unrecognized order status, treating as pending", "status", raw)
	return StatusPending
}

// Next returns the single legal forward transition from s.
// ok is false for completed and cancelled (and anything else without an
// entry in the advance table); advancing a terminal order is a no-op.
func (s Status) Next() (Status, bool) {
	n, ok := next[s]
	return n, ok
}

// Terminal reports whether s admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanCancel reports whether the front-desk cancel action applies.
// Completed orders cannot be cancelled; cancelling twice is rejected.
func (s Status) CanCancel() bool {
	return !s.Terminal()
}

// Active reports whether s belongs on the kitchen display
// (everything before ready has been picked up or the order died).
func (s Status) Active() bool {
	return s == StatusPending || s == StatusPreparing || s == StatusReady
}

// Label returns the display name for s ("Ready for Pickup" for ready).
func (s Status) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}
	return labels[StatusPending]
}
