package script

import (
	"fmt"
	"io/fs"
	"path"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/editorharness/internal/harness/runner"
)

// Manifest lists script tests for the command line runner.
//
//	suite: smoke
//	scenarios: true
//	tests:
//	  - name: FallingSphere
//	    script: falling.js
//	    level: {category: Physics, name: GravityAwakens}
//	    markers: [SUITE_main]
//	    timeout: 30s
type Manifest struct {
	Suite string `yaml:"suite"`
	// Scenarios asks the runner to add the built-in scenarios.
	Scenarios bool    `yaml:"scenarios"`
	Tests     []Entry `yaml:"tests"`

	dir string
}

// Entry is one scripted test. Script is relative to the manifest.
type Entry struct {
	Name    string          `yaml:"name"`
	Script  string          `yaml:"script"`
	Level   runner.LevelRef `yaml:"level"`
	Markers []string        `yaml:"markers"`
	Timeout time.Duration   `yaml:"timeout"`
}

// LoadManifest reads a manifest from fsys.
func LoadManifest(fsys fs.FS, file string) (*Manifest, error) {
	raw, err := fs.ReadFile(fsys, file)
	if err != nil {
		return nil, fmt.Errorf("script: read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("script: parse manifest %s: %w", file, err)
	}
	m.dir = path.Dir(file)
	seen := make(map[string]bool, len(m.Tests))
	for i, e := range m.Tests {
		switch {
		case e.Name == "":
			return nil, fmt.Errorf("script: manifest %s: test %d has no name", file, i)
		case e.Script == "":
			return nil, fmt.Errorf("script: manifest %s: test %s has no script", file, e.Name)
		case seen[e.Name]:
			return nil, fmt.Errorf("script: manifest %s: duplicate test %s", file, e.Name)
		}
		seen[e.Name] = true
	}
	return &m, nil
}

// Build compiles every script and returns the tests in manifest order.
func (m *Manifest) Build(fsys fs.FS) (runner.Suite, error) {
	tests := make([]runner.Test, 0, len(m.Tests))
	for _, e := range m.Tests {
		s, err := Compile(fsys, path.Join(m.dir, e.Script))
		if err != nil {
			return runner.Suite{}, err
		}
		test := s.Test(e.Name, e.Level, e.Markers...)
		test.Timeout = e.Timeout
		tests = append(tests, test)
	}
	name := m.Suite
	if name == "" {
		name = "scripts"
	}
	return runner.NewSuite(name, tests...), nil
}
