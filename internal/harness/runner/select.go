package runner

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// selectEnv is the environment selection expressions are evaluated in.
type selectEnv struct {
	Name    string   `expr:"name"`
	Suite   string   `expr:"suite"`
	Markers []string `expr:"markers"`
	Level   string   `expr:"level"`
}

// Selector is a compiled test selection expression, for example
//
//	"SUITE_main" in markers && name matches "^Physics"
type Selector struct {
	source  string
	program *vm.Program
}

func Compile(source string) (*Selector, error) {
	program, err := expr.Compile(source, expr.Env(selectEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile selector %q: %w", source, err)
	}
	return &Selector{source: source, program: program}, nil
}

func (s *Selector) Match(t Test) (bool, error) {
	out, err := expr.Run(s.program, selectEnv{
		Name:    t.Name,
		Suite:   t.Suite,
		Markers: t.Markers,
		Level:   t.Level.String(),
	})
	if err != nil {
		return false, fmt.Errorf("selector %q on %s: %w", s.source, t.Name, err)
	}
	return out.(bool), nil
}

// Select keeps the tests matching source. An empty source keeps everything.
func Select(tests []Test, source string) ([]Test, error) {
	if source == "" {
		return tests, nil
	}
	s, err := Compile(source)
	if err != nil {
		return nil, err
	}
	var out []Test
	for _, t := range tests {
		ok, err := s.Match(t)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, t)
		}
	}
	return out, nil
}
