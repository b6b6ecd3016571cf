package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sak85/API-Automation-POC/framework/scenario"
)

func TestReadDefaults(t *testing.T) {
	var p commandParams
	require.True(t, p.Read([]string{"harness"}))
	assert.Equal(t, pathList{"features"}, p.features)
	assert.Equal(t, "auto", p.mode)
	assert.Equal(t, 1, p.concurrency)
	assert.False(t, p.filters.IsDefined())
}

func TestReadOptions(t *testing.T) {
	var p commandParams
	require.True(t, p.Read([]string{"harness",
		"-features", "features/api", "-features", "features/ui",
		"-mode", "UI", "-tags", "@smoke", "-concurrency", "4",
		"-run", "Users/Create", "-junit", "reports/junit.xml", "-mock", "-stop-on-failure",
	}))
	assert.Equal(t, pathList{"features/api", "features/ui"}, p.features)
	assert.Equal(t, "ui", p.mode)
	assert.Equal(t, "@smoke", p.tags)
	assert.Equal(t, 4, p.concurrency)
	assert.Equal(t, "reports/junit.xml", p.jUnitFile)
	assert.True(t, p.mock)
	assert.True(t, p.stopOnFailure)
	assert.True(t, p.filters.Match(scenario.NewID("Users", "Create a user")))
	assert.False(t, p.filters.Match(scenario.NewID("Users", "Delete a user")))
}

func TestReadRejectsUnknownMode(t *testing.T) {
	var p commandParams
	assert.False(t, p.Read([]string{"harness", "-mode", "mobile"}))
}

func TestReadRejectsZeroConcurrency(t *testing.T) {
	var p commandParams
	assert.False(t, p.Read([]string{"harness", "-concurrency", "0"}))
}
