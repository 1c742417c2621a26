package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
		assert.NotEmpty(t, cmd.Short, cmd.Name())
		assert.NotEmpty(t, cmd.Long, cmd.Name())
	}

	for _, want := range []string{"analyze", "seed", "serve", "history"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestAnalyzeMissingInput(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"analyze", filepath.Join(t.TempDir(), "missing.jpg")})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestAnalyzeRequiresArgument(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"analyze"})
	defer rootCmd.SetArgs(nil)

	assert.Error(t, rootCmd.Execute())
}
