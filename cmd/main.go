package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/gridpulse/dsmrflow/internal/api"
	"github.com/gridpulse/dsmrflow/internal/config"
	"github.com/gridpulse/dsmrflow/internal/database"
	"github.com/gridpulse/dsmrflow/internal/dsmr"
	"github.com/gridpulse/dsmrflow/internal/scheduler"
	"github.com/gridpulse/dsmrflow/internal/web"
)

// parseFailureExitCode is the distinct status reported when the input
// stream fails to parse, decoupled from the error detail.
const parseFailureExitCode = 42

// Command dsmrflow ingests DSMR v10 telegram streams and serves the
// projected per-phase series over HTTP.
//
// Two modes:
//
//	dsmrflow -parse -          parse a stream from stdin, print the
//	                           telegrams as JSON, exit 42 on parse failure
//	dsmrflow -parse file.dsmr  same, reading from a file
//	dsmrflow                   serve mode: fetch the stream from the
//	                           configured meter bridge on a schedule, store
//	                           projections in TimescaleDB, serve the query API
//
// The flags are:
//
//	-config string
//	      path to config file (default "config.yaml")
//	-cache-size int
//	      size of the LRU response cache (default 1000)
//	-rate-limit float
//	      request rate limit per second (default 5)
//	-rate-limit-burst int
//	      maximum burst size for rate limiting (default 10)
func main() {
	cfg := parseFlags()

	if cfg.ParseInput != "" {
		os.Exit(runParse(cfg.ParseInput))
	}

	appConfig, err := config.Load(cfg.ConfigPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(appConfig.Logging)
	logger.WithFields(logrus.Fields{
		"port":   appConfig.Server.Port,
		"bridge": appConfig.Bridge.URL,
	}).Info("Starting server")

	repo, err := database.NewPostgresRepo(appConfig.Database.ConnString())
	if err != nil {
		logger.Fatalf("Failed to create repository: %v", err)
	}

	// Create a context that is canceled on shutdown signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fetcher := api.NewStreamFetcher(appConfig.Bridge.URL, repo, logger)
	sched := scheduler.NewScheduler(ctx, fetcher, logger, appConfig.Bridge.Schedule)

	serverConfig := web.ServerConfig{
		CacheSize:      cfg.CacheSize,
		RateLimit:      cfg.RateLimit,
		RateLimitBurst: cfg.RateLimitBurst,
	}
	addr := fmt.Sprintf("%s:%d", appConfig.Server.Host, appConfig.Server.Port)
	srv, err := web.NewServer(addr, repo, logger, serverConfig)
	if err != nil {
		logger.Fatalf("Failed to setup server: %v", err)
	}

	errChan := make(chan error, 1)

	// Fetch once up front so the API has data before the first tick
	go func() {
		if err := fetcher.FetchOnce(ctx); err != nil {
			logger.WithError(err).Error("Initial fetch failed")
		}
	}()

	go func() {
		if err := sched.Start(); err != nil {
			errChan <- fmt.Errorf("scheduler error: %w", err)
		}
	}()

	go func() {
		errChan <- srv.Run(ctx)
	}()

	// Run returns nil on graceful shutdown; anything else is fatal.
	if err := <-errChan; err != nil {
		logger.Fatalf("Service error: %v", err)
	}

	logger.Println("Gracefully stopping...")
	sched.Stop()
	repo.Close()
	logger.Println("Stopped")
}

// runParse is the one-shot mode: read a whole stream, parse it, and print
// the telegrams as JSON. Returns the process exit code.
func runParse(input string) int {
	var (
		raw []byte
		err error
	)
	if input == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(input)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read input: %v\n", err)
		return 1
	}

	telegrams, err := dsmr.Parse(string(raw))
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse failed: %v\n", err)
		return parseFailureExitCode
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(telegrams); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode output: %v\n", err)
		return 1
	}
	return 0
}

type Config struct {
	ConfigPath     string
	ParseInput     string
	CacheSize      int
	RateLimit      float64
	RateLimitBurst int
}

func parseFlags() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.ConfigPath, "config", "config.yaml", "Path to the config file")
	flag.StringVar(&cfg.ParseInput, "parse", "", "One-shot mode: parse this file (\"-\" for stdin) and exit")
	flag.IntVar(&cfg.CacheSize, "cache-size", 1000, "Size of the LRU response cache")
	flag.Float64Var(&cfg.RateLimit, "rate-limit", 5.0, "Rate limit in requests per second")
	flag.IntVar(&cfg.RateLimitBurst, "rate-limit-burst", 10, "Maximum burst size for rate limiting")

	flag.Parse()

	return cfg
}

func newLogger(cfg config.LoggingConfig) *logrus.Logger {
	logger := logrus.New()
	if cfg.Format != "text" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(level)
	}
	return logger
}
