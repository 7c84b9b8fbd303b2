package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/zeusync/editorharness/internal/config"
	"github.com/zeusync/editorharness/internal/core/observability/log"
	"github.com/zeusync/editorharness/internal/harness/report"
	"github.com/zeusync/editorharness/internal/harness/runner"
	"github.com/zeusync/editorharness/internal/injector"
	"github.com/zeusync/editorharness/internal/scenarios"
	"github.com/zeusync/editorharness/internal/script"
)

func main() {
	configFile := flag.String("config", "", "YAML configuration file")
	manifest := flag.String("manifest", "", "script manifest; the built-in scenarios run when empty")
	remote := flag.String("remote", "", "websocket URL of a remote host; a simulated host is used when empty")
	levels := flag.String("levels", "", "project directory for the simulated host; the scenario levels when empty")
	selection := flag.String("select", "", `test selection expression, e.g. "SUITE_main" in markers`)
	batches := flag.Int("batches", 0, "number of hosts to spread tests over")
	list := flag.Bool("list", false, "list the selected tests and exit")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(2)
	}
	if *batches > 0 {
		cfg.Runner.Batches = *batches
	}

	tests, err := collect(*manifest)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading tests:", err)
		os.Exit(2)
	}
	tests, err = runner.Select(tests, *selection)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error selecting tests:", err)
		os.Exit(2)
	}
	if *list {
		for _, t := range tests {
			fmt.Printf("%s/%s\t%s\t%v\n", t.Suite, t.Name, t.Level, t.Markers)
		}
		return
	}

	var session *injector.Session
	if *remote != "" {
		session, err = injector.NewRemoteSession(cfg, injector.RemoteURL(*remote))
	} else {
		var project fs.FS = scenarios.FS()
		if *levels != "" {
			project = os.DirFS(*levels)
		}
		session, err = injector.NewLocalSession(cfg, project)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error creating session:", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stopCh
		cancel()
	}()

	summaries, err := session.Run(ctx, tests, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running tests:", err)
		os.Exit(2)
	}
	failed := printSummary(summaries)
	log.Provide().Info("run finished", log.Int("tests", len(summaries)), log.Int("failed", failed))
	if failed > 0 {
		os.Exit(1)
	}
}

// collect loads the manifest's scripts, adding the scenarios when the
// manifest asks for them or no manifest is given.
func collect(manifest string) ([]runner.Test, error) {
	if manifest == "" {
		return scenarios.Suite().Tests, nil
	}
	fsys := os.DirFS(filepath.Dir(manifest))
	m, err := script.LoadManifest(fsys, filepath.Base(manifest))
	if err != nil {
		return nil, err
	}
	suite, err := m.Build(fsys)
	if err != nil {
		return nil, err
	}
	tests := suite.Tests
	if m.Scenarios {
		tests = append(scenarios.Suite().Tests, tests...)
	}
	return tests, nil
}

func printSummary(summaries []report.Summary) int {
	failed := 0
	for _, s := range summaries {
		verdict := "ok"
		if !s.Passed {
			verdict = "FAIL"
			failed++
		}
		fmt.Printf("%-4s %s (%s)\n", verdict, s.Name, s.Duration.Round(1e6))
		for _, f := range s.Failures {
			fmt.Printf("     %s\n", f)
		}
	}
	fmt.Printf("%d tests, %d failed\n", len(summaries), failed)
	return failed
}
