package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Golden Dragon", "golden-dragon"},
		{"Café Zoë", "cafe-zoe"},
		{"  Joe's  BBQ & Grill  ", "joe-s-bbq-grill"},
		{"Pho #1", "pho-1"},
		{"---", ""},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Make(tc.name), "name=%q", tc.name)
	}
}

func TestMake_Idempotent(t *testing.T) {
	for _, name := range []string{"Golden Dragon", "Café Zoë", "Pho #1"} {
		s := Make(name)
		assert.Equal(t, s, Make(s), "name=%q", name)
	}
}
