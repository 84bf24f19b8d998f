package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var workerWait int32

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run audits from the queue",
	Long:  `Long-poll sqs_queue_url and run one audit per message, one at a time.`,
	RunE:  runWorker,
}

func init() {
	workerCmd.Flags().Int32Var(&workerWait, "wait-seconds", 20, "Long-poll wait per receive")
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.SQSQueueURL == "" {
		return fmt.Errorf("sqs_queue_url (SQS_QUEUE_URL) is required")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg)
	defer a.Close()

	manager, _, err := a.manager(ctx)
	if err != nil {
		return err
	}
	consumer, err := a.consumer(ctx, manager)
	if err != nil {
		return err
	}

	runErr := consumer.WithWaitSeconds(workerWait).Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := manager.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("audits did not finish before shutdown", "error", err)
	}
	return runErr
}
