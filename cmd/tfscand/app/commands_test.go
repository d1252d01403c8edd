package app

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd(t *testing.T) {
	root := NewRootCmd()

	assert.Equal(t, "tfscand", root.Use)

	subcommands := make(map[string]bool)
	for _, cmd := range root.Commands() {
		subcommands[cmd.Name()] = true
	}
	for _, name := range []string{"serve", "scan", "stats", "version"} {
		assert.True(t, subcommands[name], "missing subcommand %s", name)
	}

	debug := root.PersistentFlags().Lookup("debug")
	require.NotNil(t, debug)
	assert.Equal(t, "false", debug.DefValue)
}

func TestServeRequiresConfig(t *testing.T) {
	flag := serveCmd.Flags().Lookup("config")
	require.NotNil(t, flag)
	assert.Contains(t, flag.Annotations, cobra.BashCompOneRequiredFlag)
}
