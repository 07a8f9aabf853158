// Command empmaster imports the employee master export into the canonical
// analytics table. Each run appends only the rows the table does not hold
// yet, so it can be re-run or scheduled safely.
//
// Usage:
//
//	go run ./cmd/empmaster -config configs/pipelines/empmaster.json -once
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"empmaster/internal/config"
	"empmaster/internal/metrics"
	"empmaster/internal/metrics/datadog"
	"empmaster/internal/metrics/prompush"

	// register every storage backend; the pipeline file picks one.
	_ "empmaster/internal/storage/all"
)

const defaultPushgatewayURL = "http://localhost:9091"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("env: load .env: %v", err)
	}

	flags, err := config.LoadFlags(flag.CommandLine, os.Getenv, os.Args[1:])
	if err != nil {
		fatalf("flags: %v", err)
	}

	p, err := config.LoadFile(flags.ConfigPath)
	if err != nil {
		fatalf("%v", err)
	}
	config.ApplyEnv(&p, os.Getenv)

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		log.Printf("Configuration is invalid: %v", flags.ConfigPath)
		os.Exit(1)
	}
	if flags.ValidateOnly {
		log.Printf("Configuration is valid: %v", flags.ConfigPath)
		os.Exit(0)
	}

	if err := run(p, flags); err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}

func run(p config.Pipeline, flags *config.Flags) error {
	if p.LogFile != "" {
		f, err := os.OpenFile(p.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		log.SetOutput(io.MultiWriter(os.Stderr, f))
		defer log.SetOutput(os.Stderr)
	}

	setupMetrics(p.Job, flags)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opt := runOptions{verbose: flags.Verbose}
	if p.Schedule == "" || flags.Once {
		_, err := runOnce(ctx, p, opt)
		return err
	}
	return runScheduled(ctx, p, opt)
}

// setupMetrics installs the selected metrics backend. A backend that fails to
// initialise leaves metrics disabled rather than aborting the import.
func setupMetrics(job string, flags *config.Flags) {
	switch flags.MetricsBackend {
	case "prometheus", "pushgateway":
		url := flags.PushgatewayURL
		if url == "" {
			url = defaultPushgatewayURL
		}
		b, err := prompush.NewBackend(job, url)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: backend=prometheus url=%s job=%s", url, job)
		metrics.SetBackend(b)

	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       flags.StatsdAddr,
			GlobalTags: []string{"service:" + job},
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: backend=datadog addr=%s", flags.StatsdAddr)
		metrics.SetBackend(b)

	case "", "none":
		if flags.Verbose {
			log.Printf("metrics: disabled")
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", flags.MetricsBackend)
	}
}

// runScheduled runs the import on p.Schedule until ctx is canceled. A tick
// that fires while the previous run is still going is skipped. Failed runs
// are logged and retried on the next tick.
func runScheduled(ctx context.Context, p config.Pipeline, opt runOptions) error {
	logger := cron.PrintfLogger(log.Default())
	c := cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))

	if _, err := c.AddFunc(p.Schedule, func() {
		if _, err := runOnce(ctx, p, opt); err != nil {
			log.Printf("schedule: run failed, retrying next tick: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule %q: %w", p.Schedule, err)
	}

	c.Start()
	if entries := c.Entries(); len(entries) > 0 {
		log.Printf("schedule: %q next=%s", p.Schedule, entries[0].Schedule.Next(time.Now()).Format(time.RFC3339))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		log.Printf("schedule: stopping, waiting for running import")
		<-c.Stop().Done()
		return nil
	})
	return g.Wait()
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
