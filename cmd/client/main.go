package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"dem-fill-client/config"
	"dem-fill-client/core/clock"
	"dem-fill-client/core/models"
	"dem-fill-client/core/orchestrator"
	"dem-fill-client/core/poller"
	"dem-fill-client/core/repository"
	"dem-fill-client/core/spec"
	"dem-fill-client/providers/runpod"
	"dem-fill-client/storage"
)

func main() {
	filename := flag.String("filename", "", "filename to use in S3 (default: basename of input)")
	timeout := flag.Int("timeout", 1800, "job timeout in seconds")
	pollInterval := flag.Int("poll-interval", 10, "status check interval in seconds")
	skipUpload := flag.Bool("skip-upload", false, "skip upload step (file must already be in S3)")
	specFile := flag.String("spec", "", "YAML run spec (replaces flags and input path)")
	flag.Parse()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("ERROR: %v", err)
	}

	params, err := buildRunParams(*specFile, *filename, *timeout, *pollInterval, *skipUpload)
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewS3Store(ctx, storage.Options{
		Region:          cfg.AWSRegion,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	})
	if err != nil {
		log.Fatalf("Failed to create storage client: %v", err)
	}

	jobs := runpod.NewClient(runpod.Config{
		EndpointID: cfg.RunPodEndpointID,
		APIKey:     cfg.RunPodAPIKey,
	})

	orch := orchestrator.New(store, jobs, clock.Real{}, cfg.Bucket, cfg.InputPrefix, cfg.OutputPrefix)

	log.Printf("=== DEM Fill Serverless Client ===")
	log.Printf("S3 filename: %s", params.Filename)
	log.Printf("RunPod endpoint: %s", cfg.RunPodEndpointID)

	outcome := orch.Run(ctx, params)

	recordOutcome(cfg.DatabaseURL, outcome)
	printSummary(outcome)

	if !outcome.Success {
		os.Exit(1)
	}
}

// buildRunParams resolves the run definition from either a spec file or the
// flags plus the positional input path
func buildRunParams(specFile, filename string, timeout, pollInterval int, skipUpload bool) (orchestrator.RunParams, error) {
	if specFile != "" {
		data, err := os.ReadFile(specFile)
		if err != nil {
			return orchestrator.RunParams{}, fmt.Errorf("failed to read run spec %s: %w", specFile, err)
		}
		return spec.ParseRunSpec(string(data))
	}

	localPath := flag.Arg(0)
	if localPath == "" && !skipUpload {
		return orchestrator.RunParams{}, fmt.Errorf("usage: client [flags] <local-input-path>")
	}
	if filename == "" {
		if localPath == "" {
			return orchestrator.RunParams{}, fmt.Errorf("-filename is required with -skip-upload and no input path")
		}
		filename = filepath.Base(localPath)
	}

	policy := poller.DefaultPolicy()
	if timeout > 0 {
		policy.MaxWait = time.Duration(timeout) * time.Second
	}
	if pollInterval > 0 {
		policy.Interval = time.Duration(pollInterval) * time.Second
	}

	return orchestrator.RunParams{
		LocalPath:  localPath,
		Filename:   filename,
		SkipUpload: skipUpload,
		Policy:     policy,
	}, nil
}

// recordOutcome persists the run to the history table when a database is
// configured; history failures never change the run's exit status
func recordOutcome(databaseURL string, outcome *models.Outcome) {
	if databaseURL == "" {
		return
	}

	db, err := repository.NewDB(databaseURL)
	if err != nil {
		log.Printf("run history disabled: %v", err)
		return
	}
	defer db.Close()

	runRepo := repository.NewRunRepository(db)
	if err := runRepo.EnsureSchema(); err != nil {
		log.Printf("run history schema check failed: %v", err)
		return
	}
	if err := runRepo.RecordOutcome(outcome); err != nil {
		log.Printf("failed to record run %s: %v", outcome.RunID, err)
		return
	}
	log.Printf("recorded run %s", outcome.RunID)
}

func printSummary(outcome *models.Outcome) {
	fmt.Println()
	fmt.Println("=== Final Result ===")
	fmt.Printf("Run:     %s\n", outcome.RunID)
	if outcome.Job != nil {
		fmt.Printf("Job:     %s\n", outcome.Job.ID)
		fmt.Printf("Status:  %s\n", outcome.Job.Status)
		fmt.Printf("Elapsed: %.0fs\n", outcome.Job.ElapsedSeconds)
	}
	if outcome.Success {
		fmt.Printf("Output:  %s\n", outcome.OutputRef.URI())
		return
	}
	if outcome.Err != nil {
		fmt.Printf("Error:   %s\n", outcome.Err.Kind)
		fmt.Printf("Detail:  %s\n", outcome.Err.Message)
	}
}
