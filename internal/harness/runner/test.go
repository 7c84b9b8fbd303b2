// Package runner runs harness tests against a host: it opens each test's
// level, hands the body a T bound to the harness components, and always
// tears down game mode and notification handlers afterwards.
package runner

import (
	"time"

	"github.com/zeusync/editorharness/internal/harness/level"
)

// Suite markers understood by CI.
const (
	MarkerMain     = "SUITE_main"
	MarkerPeriodic = "SUITE_periodic"
)

// LevelRef addresses a level by category and name.
type LevelRef struct {
	Category string `yaml:"category"`
	Name     string `yaml:"name"`
}

func (l LevelRef) String() string { return l.Category + "/" + l.Name }

// Test is one runnable test. A zero Level skips level loading.
type Test struct {
	Name    string
	Suite   string
	Level   LevelRef
	Markers []string
	// Timeout bounds the whole test in wall-clock time; zero uses the
	// runner default.
	Timeout time.Duration
	Body    func(t *T) error
}

// Suite groups tests under one name.
type Suite struct {
	Name  string
	Tests []Test
}

// NewSuite stamps the suite name on every test.
func NewSuite(name string, tests ...Test) Suite {
	for i := range tests {
		tests[i].Suite = name
	}
	return Suite{Name: name, Tests: tests}
}

type Config struct {
	TestTimeout     time.Duration `yaml:"test_timeout" env:"TEST_TIMEOUT"`
	TeardownTimeout time.Duration `yaml:"teardown_timeout" env:"TEARDOWN_TIMEOUT"`
	Batches         int           `yaml:"batches" env:"BATCHES"`
	Level           level.Config  `yaml:"level" envPrefix:"LEVEL_"`
}

func DefaultConfig() Config {
	return Config{
		TestTimeout:     2 * time.Minute,
		TeardownTimeout: 15 * time.Second,
		Batches:         1,
		Level:           level.DefaultConfig(),
	}
}
