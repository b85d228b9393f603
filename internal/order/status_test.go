package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus_Known(t *testing.T) {
	cases := map[string]Status{
		"pending":   StatusPending,
		"preparing": StatusPreparing,
		"ready":     StatusReady,
		"completed": StatusCompleted,
		"cancelled": StatusCancelled,
	}
	for raw, want := range cases {
		assert.Equal(t, want, ParseStatus(raw), "raw=%q", raw)
	}
}

func TestParseStatus_NormalizesCaseAndWhitespace(t *testing.T) {
	assert.Equal(t, StatusPreparing, ParseStatus("Preparing "))
	assert.Equal(t, StatusReady, ParseStatus("  READY"))
	assert.Equal(t, StatusCancelled, ParseStatus("\tCancelled\n"))
}

func TestParseStatus_UnknownFallsBackToPending(t *testing.T) {
	for _, raw := range []string{"", "unknown", "in_progress", "42"} {
		assert.Equal(t, StatusPending, ParseStatus(raw), "raw=%q", raw)
	}
}

func TestParseStatus_Idempotent(t *testing.T) {
	for _, raw := range []string{"Preparing ", "ready", "bogus", "", "COMPLETED"} {
		once := ParseStatus(raw)
		assert.Equal(t, once, ParseStatus(string(once)), "raw=%q", raw)
	}
}

func TestStatus_Next(t *testing.T) {
	n, ok := StatusPending.Next()
	require.True(t, ok)
	assert.Equal(t, StatusPreparing, n)

	n, ok = StatusPreparing.Next()
	require.True(t, ok)
	assert.Equal(t, StatusReady, n)

	n, ok = StatusReady.Next()
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, n)
}

func TestStatus_Next_TerminalHasNoAction(t *testing.T) {
	_, ok := StatusCompleted.Next()
	assert.False(t, ok)

	_, ok = StatusCancelled.Next()
	assert.False(t, ok)
}

func TestStatus_AdvanceOffersReadyForPickup(t *testing.T) {
	// An order arriving as "Preparing " displays as preparing and the
	// advance action offers the ready label.
	s := ParseStatus("Preparing ")
	assert.Equal(t, "Preparing", s.Label())

	n, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, "Ready for Pickup", n.Label())
}

func TestStatus_CanCancel(t *testing.T) {
	assert.True(t, StatusPending.CanCancel())
	assert.True(t, StatusPreparing.CanCancel())
	assert.True(t, StatusReady.CanCancel())
	assert.False(t, StatusCompleted.CanCancel())
	assert.False(t, StatusCancelled.CanCancel())
}

func TestStatus_Active(t *testing.T) {
	assert.True(t, StatusPending.Active())
	assert.True(t, StatusPreparing.Active())
	assert.True(t, StatusReady.Active())
	assert.False(t, StatusCompleted.Active())
	assert.False(t, StatusCancelled.Active())
}
