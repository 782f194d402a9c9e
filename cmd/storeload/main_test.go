package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storeload/storeload/pkg/config"
)

func TestResolveScenarioPredefined(t *testing.T) {
	scenario, err := resolveScenario(runFlags{
		host:     "http://gateway:9000",
		testType: "stress",
		rampUp:   -1,
	})
	require.NoError(t, err)
	assert.Equal(t, "stress-ramp", scenario.Name)
	assert.Equal(t, "http://gateway:9000", scenario.BaseURL)
	assert.Equal(t, 500, scenario.Users)
}

func TestResolveScenarioOverrides(t *testing.T) {
	scenario, err := resolveScenario(runFlags{
		host:       "http://gateway:9000",
		testType:   "load",
		users:      25,
		duration:   2 * time.Minute,
		rampUp:     30 * time.Second,
		statusPort: 9102,
		seed:       7,
	})
	require.NoError(t, err)
	assert.Equal(t, 25, scenario.Users)
	assert.Equal(t, 2*time.Minute, scenario.Duration.Std())
	assert.Equal(t, 30*time.Second, scenario.RampUp.Std())
	assert.Equal(t, 9102, scenario.StatusPort)
	assert.Equal(t, int64(7), scenario.Seed)
}

func TestResolveScenarioZeroRampOverride(t *testing.T) {
	scenario, err := resolveScenario(runFlags{
		host:     "http://gateway:9000",
		testType: "load",
		rampUp:   0,
	})
	require.NoError(t, err)
	assert.Zero(t, scenario.RampUp, "explicit zero disables the ramp")
}

func TestResolveScenarioFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- name: disabled-first
  testType: load
  baseUrl: http://svc:8080
  users: 5
  duration: 1m
  enabled: false
- name: picked
  testType: spike
  baseUrl: http://svc:8080
  users: 10
  duration: 2m
  enabled: true
`), 0o600))

	scenario, err := resolveScenario(runFlags{
		host:         "http://ignored:1",
		scenarioFile: path,
		rampUp:       -1,
	})
	require.NoError(t, err)
	assert.Equal(t, "picked", scenario.Name, "first enabled scenario wins")
	assert.Equal(t, "http://svc:8080", scenario.BaseURL, "file baseUrl is kept")

	byName, err := resolveScenario(runFlags{
		scenarioFile: path,
		scenarioName: "disabled-first",
		rampUp:       -1,
	})
	require.NoError(t, err)
	assert.Equal(t, "disabled-first", byName.Name)
}

func TestResolveScenarioNoMatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- name: only
  testType: load
  baseUrl: http://svc:8080
  users: 5
  duration: 1m
  enabled: false
`), 0o600))

	_, err := resolveScenario(runFlags{scenarioFile: path, scenarioName: "missing", rampUp: -1})
	assert.Error(t, err)

	_, err = resolveScenario(runFlags{scenarioFile: path, rampUp: -1})
	assert.Error(t, err, "no enabled scenario")
}

func TestResolveScenarioUnknownType(t *testing.T) {
	_, err := resolveScenario(runFlags{host: "http://x:1", testType: "chaos", rampUp: -1})
	assert.ErrorIs(t, err, config.ErrInvalidScenario)
}
