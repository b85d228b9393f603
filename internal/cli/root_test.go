package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "orderdeck", cmd.Use)
	assert.Contains(t, cmd.Short, "OrderDeck")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{
		"serve", "kds", "frontdesk",
		"login", "logout", "whoami", "passwd",
		"menu", "order", "cart", "checkout",
		"admin", "analytics",
	}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
}

func TestDisplayCommandFlags(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"kds", "frontdesk"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)

		restaurantFlag := sub.Flags().Lookup("restaurant")
		require.NotNil(t, restaurantFlag)

		onceFlag := sub.Flags().Lookup("once")
		require.NotNil(t, onceFlag)
		assert.Equal(t, "false", onceFlag.DefValue)
	}
}

func TestCheckoutCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	checkoutCmd, _, err := cmd.Find([]string{"checkout"})
	require.NoError(t, err)

	phoneFlag := checkoutCmd.Flags().Lookup("phone")
	require.NotNil(t, phoneFlag)
	// --phone is required, so default is empty
	assert.Equal(t, "", phoneFlag.DefValue)
}

func TestCartSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"add", "list", "remove", "clear"} {
		sub, _, err := cmd.Find([]string{"cart", name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}

	addCmd, _, err := cmd.Find([]string{"cart", "add"})
	require.NoError(t, err)
	assert.NotNil(t, addCmd.Flags().Lookup("qty"))
	assert.NotNil(t, addCmd.Flags().Lookup("mod"))
	assert.NotNil(t, addCmd.Flags().Lookup("note"))
}

func TestAdminSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	for _, path := range [][]string{
		{"admin", "restaurants", "list"},
		{"admin", "restaurants", "create"},
		{"admin", "users", "create"},
		{"admin", "users", "list"},
		{"admin", "users", "set-password"},
		{"admin", "users", "deactivate"},
		{"admin", "users", "delete"},
		{"admin", "categories", "list"},
		{"admin", "categories", "create"},
		{"admin", "categories", "update"},
		{"admin", "categories", "delete"},
		{"admin", "items", "create"},
		{"admin", "items", "update"},
		{"admin", "items", "delete"},
		{"admin", "upload-menu"},
	} {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err, "command %v should exist", path)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}
}

func TestAnalyticsSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"overview", "revenue", "popular", "timeline"} {
		sub, _, err := cmd.Find([]string{"analytics", name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "invalid", "whoami"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
