// Package script runs JavaScript harness tests. A script is plain CommonJS
// evaluated once per test; require("harness") returns the bindings of the
// running test and console output is reported as info lines.
package script

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/require"

	"github.com/zeusync/editorharness/internal/core/observability/log"
	"github.com/zeusync/editorharness/internal/harness/runner"
)

// ModuleName is the name scripts require the harness bindings by.
const ModuleName = "harness"

var (
	ErrCompile     = errors.New("script does not compile")
	ErrInterrupted = errors.New("script interrupted")
)

// Script is a compiled test script. Relative requires resolve against
// Dir inside FS.
type Script struct {
	Name    string
	FS      fs.FS
	Dir     string
	program *goja.Program
}

// Compile loads and compiles file from fsys.
func Compile(fsys fs.FS, file string) (*Script, error) {
	src, err := fs.ReadFile(fsys, file)
	if err != nil {
		return nil, fmt.Errorf("script: read %s: %w", file, err)
	}
	return CompileSource(fsys, file, string(src))
}

// CompileSource compiles src under name. fsys may be nil when the script
// requires nothing but the harness.
func CompileSource(fsys fs.FS, name, src string) (*Script, error) {
	program, err := goja.Compile(name, src, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCompile, name, err)
	}
	return &Script{Name: name, FS: fsys, Dir: path.Dir(name), program: program}, nil
}

// loader reads required modules from the script's tree.
func (s *Script) loader(p string) ([]byte, error) {
	if s.FS == nil {
		return nil, require.ModuleFileDoesNotExistError
	}
	p = path.Clean(p)
	data, err := fs.ReadFile(s.FS, p)
	if errors.Is(err, fs.ErrNotExist) && s.Dir != "." {
		data, err = fs.ReadFile(s.FS, path.Join(s.Dir, p))
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, require.ModuleFileDoesNotExistError
	}
	return data, err
}

// Run evaluates the script against t. An uncaught exception is returned as
// an error; a critical failure raised through the bindings has already been
// reported and ends the script without one.
func (s *Script) Run(t *runner.T) error {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	b := newBindings(vm, t)
	registry := require.NewRegistry(require.WithLoader(s.loader))
	registry.RegisterNativeModule(console.ModuleName, console.RequireWithPrinter(printer{t: t}))
	registry.RegisterNativeModule(ModuleName, b.require)
	registry.Enable(vm)
	console.Enable(vm)

	stop := context.AfterFunc(t.Context(), func() {
		vm.Interrupt(t.Context().Err())
	})
	defer stop()

	_, err := vm.RunProgram(s.program)
	if b.aborted {
		return nil
	}
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return fmt.Errorf("%w: %v", ErrInterrupted, interrupted.Value())
	}
	if err != nil {
		t.Logger().Debug("script failed", log.String("script", s.Name), log.Error(err))
		return fmt.Errorf("script %s: %w", s.Name, err)
	}
	return nil
}

// Test wraps the script as a runner test.
func (s *Script) Test(name string, level runner.LevelRef, markers ...string) runner.Test {
	return runner.Test{Name: name, Level: level, Markers: markers, Body: s.Run}
}

// printer routes console output into the test report.
type printer struct{ t *runner.T }

func (p printer) Log(s string) { p.t.Info(s) }

func (p printer) Warn(s string) {
	p.t.Logger().Warn(s, log.String("test", p.t.Name()))
	p.t.Info("console warning: " + s)
}

func (p printer) Error(s string) {
	p.t.Logger().Error(s, log.String("test", p.t.Name()))
	p.t.Info("console error: " + s)
}
