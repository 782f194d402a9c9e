// Package config defines load-test scenarios and loads them from YAML or
// JSON files.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Errors returned when loading or validating scenarios.
var (
	ErrUnsupportedFormat = errors.New("config: unsupported scenario file format")
	ErrInvalidScenario   = errors.New("config: invalid scenario")
)

// Scenario describes one test run: how many users, for how long, with which
// ramp shape and behavior mix (selected by TestType).
type Scenario struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// TestType selects the behavior profile mix and the verdict objective
	// table: load, stress, spike, endurance, or generic.
	TestType string `yaml:"testType" json:"testType"`

	BaseURL string `yaml:"baseUrl" json:"baseUrl"`

	Users    int      `yaml:"users" json:"users"`
	Duration Duration `yaml:"duration" json:"duration"`

	// RampUp spreads user starts linearly over its span; zero starts all
	// users at once (the spike shape).
	RampUp Duration `yaml:"rampUp,omitempty" json:"rampUp,omitempty"`

	// TrendInterval enables periodic trend sampling when positive.
	TrendInterval Duration `yaml:"trendInterval,omitempty" json:"trendInterval,omitempty"`

	// StatusPort serves /metrics and /status during the run when positive.
	StatusPort int `yaml:"statusPort,omitempty" json:"statusPort,omitempty"`

	// Seed fixes the randomness for reproducible runs; zero draws one.
	Seed int64 `yaml:"seed,omitempty" json:"seed,omitempty"`

	Enabled  bool `yaml:"enabled" json:"enabled"`
	Priority int  `yaml:"priority,omitempty" json:"priority,omitempty"`
}

// Validate checks the scenario is runnable.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidScenario)
	}
	if s.BaseURL == "" {
		return fmt.Errorf("%w: baseUrl is required", ErrInvalidScenario)
	}
	if s.Users <= 0 {
		return fmt.Errorf("%w: users must be positive", ErrInvalidScenario)
	}
	if s.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidScenario)
	}
	if s.RampUp < 0 || s.RampUp > s.Duration {
		return fmt.Errorf("%w: rampUp must be within the run duration", ErrInvalidScenario)
	}
	return nil
}

// Load reads scenarios from a .yaml/.yml/.json file.
func Load(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenarios file: %w", err)
	}

	var scenarios []Scenario
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &scenarios); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &scenarios); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	for i := range scenarios {
		if err := scenarios[i].Validate(); err != nil {
			return nil, fmt.Errorf("scenario %q: %w", scenarios[i].Name, err)
		}
	}
	return scenarios, nil
}

// Predefined returns the built-in scenario set, one per test type, matching
// the documented targets: load 100 users / 10 min, stress ramp to 500 over
// 15 min, spike burst to 300 for 5 min, endurance 150 users for 1 hour.
func Predefined(baseURL string) []Scenario {
	return []Scenario{
		{
			Name:        "load-standard",
			Description: "Standard load testing with realistic user traffic",
			TestType:    "load",
			BaseURL:     baseURL,
			Users:       100,
			Duration:    Duration(10 * time.Minute),
			RampUp:      Duration(time.Minute),
			Enabled:     true,
			Priority:    1,
		},
		{
			Name:        "stress-ramp",
			Description: "Gradually ramp up to 500 users to find breaking points",
			TestType:    "stress",
			BaseURL:     baseURL,
			Users:       500,
			Duration:    Duration(15 * time.Minute),
			RampUp:      Duration(15 * time.Minute),
			Enabled:     true,
			Priority:    2,
		},
		{
			Name:        "spike-burst",
			Description: "Sudden traffic spike to 300 users",
			TestType:    "spike",
			BaseURL:     baseURL,
			Users:       300,
			Duration:    Duration(5 * time.Minute),
			Enabled:     true,
			Priority:    3,
		},
		{
			Name:          "endurance-sustained",
			Description:   "Sustained load for stability and leak detection",
			TestType:      "endurance",
			BaseURL:       baseURL,
			Users:         150,
			Duration:      Duration(time.Hour),
			RampUp:        Duration(2 * time.Minute),
			TrendInterval: Duration(5 * time.Minute),
			Enabled:       true,
			Priority:      4,
		},
	}
}

// ByType returns the predefined scenario for a test type.
func ByType(baseURL, testType string) (Scenario, error) {
	for _, s := range Predefined(baseURL) {
		if s.TestType == testType {
			return s, nil
		}
	}
	return Scenario{}, fmt.Errorf("%w: no predefined scenario for test type %q", ErrInvalidScenario, testType)
}
