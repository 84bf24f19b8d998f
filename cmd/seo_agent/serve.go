package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/seo-auditor/internal/server"
)

var (
	servePort     int
	serveNoFixes  bool
	serveNoWorker bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server exposing audit and fix endpoints.

When sqs_queue_url is configured the queue worker runs in the same process.
Fix endpoints require database_url.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().BoolVar(&serveNoFixes, "no-fixes", false, "Disable the fix endpoint")
	serveCmd.Flags().BoolVar(&serveNoWorker, "no-worker", false, "Do not consume the audit queue")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg)
	defer a.Close()

	manager, results, err := a.manager(ctx)
	if err != nil {
		return err
	}

	deps := server.Deps{Jobs: manager, Results: results}
	if !serveNoFixes {
		dispatcher, err := a.dispatcher(ctx)
		if err != nil {
			return fmt.Errorf("failed to build remediation (use --no-fixes to run audits only): %w", err)
		}
		deps.Fixes = dispatcher
	}
	if cfg.JWTSecret != "" {
		deps.Auth = server.NewJWTService(cfg.JWTSecret, server.DefaultTokenTTL)
	} else {
		a.logger.Warn("jwt_secret not set; mutating routes are unauthenticated")
	}

	srv := server.New(server.Config{Port: cfg.Port, MaxURLs: cfg.MaxURLs}, deps)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })

	if !serveNoWorker {
		consumer, err := a.consumer(ctx, manager)
		if err != nil {
			return err
		}
		if consumer != nil {
			g.Go(func() error { return consumer.Run(gctx) })
		}
	}

	runErr := g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := manager.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("audits did not finish before shutdown", "error", err)
	}
	return runErr
}
