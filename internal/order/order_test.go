package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOrder_Elapsed(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		age  time.Duration
		want string
	}{
		{30 * time.Second, "<1m"},
		{90 * time.Second, "1m"},
		{12 * time.Minute, "12m"},
		{65 * time.Minute, "1h05m"},
		{150 * time.Minute, "2h30m"},
	}
	for _, tc := range cases {
		o := Order{CreatedAt: now.Add(-tc.age)}
		assert.Equal(t, tc.want, o.Elapsed(now), "age=%s", tc.age)
	}
}

func TestOrder_Elapsed_FutureClockSkew(t *testing.T) {
	now := time.Now()
	o := Order{CreatedAt: now.Add(time.Minute)}
	assert.Equal(t, "<1m", o.Elapsed(now))
}

func TestFormatPhone(t *testing.T) {
	assert.Equal(t, "(415) 555-0134", FormatPhone("+14155550134"))
	assert.Equal(t, "(415) 555-0134", FormatPhone("4155550134"))
	assert.Equal(t, "+4915551234", FormatPhone("+4915551234"))
	assert.Equal(t, "", FormatPhone(""))
}
