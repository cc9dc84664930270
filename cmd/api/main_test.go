package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := rootCmd()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate", "seed", "version"}, names)

	seed, _, err := cmd.Find([]string{"seed"})
	assert.NoError(t, err)
	assert.NotNil(t, seed.Flags().Lookup("file"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("storage"))
}

func TestLoadConfigAppliesFlags(t *testing.T) {
	t.Setenv("STORAGE", "postgres")
	t.Setenv("GIN_MODE", "debug")

	cfg, _, err := loadConfig(globalFlags{storage: "memory", logLevel: "debug"})
	assert.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage)
	assert.Equal(t, "debug", cfg.Log.Level)

	_, _, err = loadConfig(globalFlags{storage: "sqlite"})
	assert.Error(t, err)
}
