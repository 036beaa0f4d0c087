//go:build !integration

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportCmd_Metadata(t *testing.T) {
	assert.Equal(t, "import [file]", importCmd.Use)
	assert.NotEmpty(t, importCmd.Short)

	for _, name := range []string{"carrier", "period", "dir", "match"} {
		require.NotNil(t, importCmd.Flags().Lookup(name), "missing flag %s", name)
	}
}

func TestImportCmd_RequiresFileOrDir(t *testing.T) {
	importDir = ""
	defer func() { importDir = "" }()

	err := importCmd.RunE(importCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one of")
}

func TestImportCmd_RejectsFileAndDir(t *testing.T) {
	importDir = t.TempDir()
	defer func() { importDir = "" }()

	err := importCmd.RunE(importCmd, []string{"statement.csv"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one of")
}

func TestRootCmd_CommandSet(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{
		"import", "imports", "detect", "carriers", "match", "match-line",
		"calculate", "pay", "sheet", "payroll", "tiers", "migrate", "serve",
	} {
		assert.True(t, names[want], "missing command %s", want)
	}
}
