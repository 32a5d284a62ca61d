package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApp(t *testing.T) {
	app := newApp()

	require.Len(t, app.Commands, 2)
	assert.Equal(t, progname, app.Name)

	archiveCmd := app.Command("archive")
	require.NotNil(t, archiveCmd)
	assert.True(t, archiveCmd.SkipFlagParsing)

	assert.NotNil(t, app.Command("settings"))
	assert.Nil(t, app.Command("utxostore"))
}
