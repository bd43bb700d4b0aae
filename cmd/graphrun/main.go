// Package main provides the graphrun CLI application.
package main

import (
	"context"
	"expvar"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // register /debug/pprof
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/graphrun/graphrun/internal/app/dto"
	"github.com/graphrun/graphrun/internal/app/services"
	"github.com/graphrun/graphrun/internal/app/usecases"
	graphrepo "github.com/graphrun/graphrun/internal/adapters/repository/graph"
	"github.com/graphrun/graphrun/pkg/validation"
)

// Version information set during build
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	// Missing .env is fine; environment variables still apply.
	_ = godotenv.Load()

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("graphrun %s (commit: %s, built: %s)\n", Version, Commit, BuildTime)
			return
		case "serve":
			serve()
			return
		case "demo":
			if err := demo(); err != nil {
				fmt.Fprintf(os.Stderr, "demo failed: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	fmt.Println("graphrun - workflow graph execution scheduler")
	fmt.Println("commands: version | demo | serve")
}

// serve exposes expvar counters and pprof on a debug HTTP listener.
func serve() {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, "ok")
	})
	mux.Handle("/debug/vars", expvar.Handler())
	mux.Handle("/debug/pprof/", http.DefaultServeMux)

	addr := ":8080"
	if v := os.Getenv("GRAPHRUN_ADDR"); v != "" {
		addr = v
	}
	slog.Info("starting graphrun debug server", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// demo assembles a small diamond workflow, runs it, and prints the
// settlement order and per-node outcomes.
func demo() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	repo := graphrepo.NewInMemoryGraphRepository()
	validator := validation.NewStructureValidator(validation.Options{CheckCycles: true})
	tracker := services.NewStateTracker()
	stats := services.NewStatsService()
	history := services.NewHistoryRecorder(0)

	graphs := usecases.NewGraphService(repo, validator, history, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	g, err := graphs.CreateGraph(ctx, usecases.CreateGraphRequest{
		Name: "demo-diamond",
		Nodes: []usecases.NodeRequest{
			{ID: "start", Type: "start", Name: "Start"},
			{ID: "fetch", Type: "data", Name: "Fetch", Properties: map[string]interface{}{
				"mappings": map[string]interface{}{"payload": "input"},
			}},
			{ID: "check", Type: "condition", Name: "Check", Properties: map[string]interface{}{
				"condition": "always",
			}},
			{ID: "end", Type: "end", Name: "End"},
		},
		Edges: []usecases.EdgeRequest{
			{ID: "e1", Source: "start", Target: "fetch"},
			{ID: "e2", Source: "start", Target: "check"},
			{ID: "e3", Source: "fetch", Target: "end"},
			{ID: "e4", Source: "check", Target: "end"},
		},
	})
	if err != nil {
		return err
	}

	executors := usecases.NewDefaultNodeExecutorFactory()
	coordinator := usecases.NewNodeCoordinator(repo, executors, validator, logger, tracker, stats)

	result, err := coordinator.CoordinateNodeExecution(ctx, &dto.RunRequest{
		GraphID: g.ID,
		Input:   map[string]interface{}{"input": "hello"},
		Config:  dto.RunConfig{MaxParallelNodes: 4},
	})
	if err != nil {
		return err
	}

	fmt.Printf("execution %s finished with status %s\n", result.ExecutionID, result.Status)
	fmt.Printf("settlement order: %v\n", result.ExecutionPath)
	for _, nodeID := range result.ExecutionPath {
		res := result.Results[nodeID]
		fmt.Printf("  %-8s success=%-5v duration=%s\n", nodeID, res.Success, res.Duration)
	}
	return nil
}
