package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/samvad-hq/bookcart-smoke/internal/app"
	"github.com/samvad-hq/bookcart-smoke/internal/config"
	"github.com/samvad-hq/bookcart-smoke/internal/logger"
)

// errRunFailed marks a completed run with a failed step; main exits 1 without
// printing a startup error.
var errRunFailed = errors.New("smoke run failed")

func main() {
	if err := run(os.Args[1:]); err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintf(os.Stderr, "smoke failed: %v\n", err)
		}
		os.Exit(1)
	}
}

// run executes one smoke run, loops when run_interval_seconds is set, or with
// "history [n]" / "show <run-id>" prints stored reports.
func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("smoke starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := app.NewSmoke(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize smoke runtime", "error", err)
		return err
	}
	defer rt.Close()

	if len(args) > 0 {
		switch args[0] {
		case "history":
			return printHistory(rt, args[1:])
		case "show":
			return printReport(rt, args[1:])
		default:
			return fmt.Errorf("unknown command %q (want history or show)", args[0])
		}
	}

	if cfg.RunInterval > 0 {
		if err := rt.Watch(ctx, cfg.RunInterval); err != nil {
			return fmt.Errorf("smoke loop: %w", err)
		}
		return nil
	}

	report, err := rt.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", report.RunID, err)
		return errRunFailed
	}
	fmt.Fprintf(os.Stdout, "PASS %s: %d steps in %s\n", report.RunID, len(report.Steps), report.Duration())
	return nil
}

func printHistory(rt *app.Smoke, args []string) error {
	limit := 10
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid history limit %q", args[0])
		}
		limit = n
	}

	reports, err := rt.History(limit)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	return printJSON(reports)
}

func printReport(rt *app.Smoke, args []string) error {
	if len(args) == 0 || args[0] == "" {
		return errors.New("show requires a run id")
	}
	report, ok, err := rt.Report(args[0])
	if err != nil {
		return fmt.Errorf("read run %s: %w", args[0], err)
	}
	if !ok {
		return fmt.Errorf("run %s not found", args[0])
	}
	return printJSON(report)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
