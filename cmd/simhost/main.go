package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zeusync/editorharness/internal/config"
	"github.com/zeusync/editorharness/internal/injector"
	"github.com/zeusync/editorharness/internal/scenarios"
)

func main() {
	configFile := flag.String("config", "", "YAML configuration file")
	levels := flag.String("levels", "", "project directory to load levels from; the scenario levels when empty")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(2)
	}
	var project fs.FS = scenarios.FS()
	if *levels != "" {
		project = os.DirFS(*levels)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv, err := injector.NewSimServer(cfg, project)
	if err != nil {
		fmt.Println("Error creating server:", err)
		os.Exit(2)
	}

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	if err := srv.Start(ctx); err != nil {
		fmt.Println("Error starting server:", err)
		os.Exit(1)
	}
	fmt.Printf("Serving simulated hosts on ws://%s%s\n", cfg.Remote.Addr, cfg.Remote.Path)

	<-stopCh
	cancel()
	stopCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Stop(stopCtx); err != nil {
		fmt.Println("Error stopping server:", err)
	}
}
