package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskgate/taskgate/internal/server"
	"github.com/taskgate/taskgate/internal/telemetry"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Serve exposes the analysis engine over HTTP:

  POST /api/analyze       analyze a task (add ?save=true to persist)
  GET  /api/agents        list the agent catalog
  GET  /api/history       list saved analyses
  GET  /api/history/{id}  fetch one saved analysis
  GET  /api/health        liveness and catalog size

The catalog hot-reloads while serving when registry.watch is enabled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (default from config)")
}

func runServe() error {
	config := GetConfig()
	port := servePort
	if port == 0 {
		port = config.Server.Port
	}

	eng, handle, err := buildEngine()
	if err != nil {
		return err
	}

	watcher, err := maybeWatchRegistry(handle)
	if err != nil {
		return err
	}
	if watcher != nil {
		defer func() { _ = watcher.Close() }()
	}

	st, err := getAnalysisStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	pol, err := getPolicyEngine()
	if err != nil {
		return err
	}

	tel := getTelemetryClient()
	defer func() { _ = tel.Close() }()
	tel.Track(telemetry.EventServeStarted, telemetry.Properties{
		"port":     port,
		"policies": pol.Count(),
	})

	srv := server.New(eng, port, server.Options{
		Store:   st,
		Policy:  pol,
		Origins: config.Server.Origins,
		Version: version,
	})

	var wg sync.WaitGroup
	errChan := make(chan error, 1)
	srv.Start(&wg, errChan)
	fmt.Fprintf(os.Stderr, "taskgate API listening on :%d (%d agents)\n", port, eng.Snapshot().Len())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		fmt.Fprintf(os.Stderr, "received %s, shutting down\n", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	wg.Wait()
	return nil
}
