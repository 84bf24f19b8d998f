package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/seo-auditor/internal/observability"
	"github.com/jonathan/seo-auditor/internal/queue"
)

var (
	auditSite     string
	auditMaxURLs  int
	auditJSON     bool
	auditMarkdown bool
	auditEnqueue  bool
	auditIssues   bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit a site and print its health report",
	Long: `Resolve the site's sitemap, crawl every listed page in order, run the SEO checks
and print the health score with per-page results.

With --enqueue the request is sent to the audit queue instead of running locally.`,
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().StringVarP(&auditSite, "site", "s", "", "Site root URL (required)")
	auditCmd.Flags().IntVar(&auditMaxURLs, "max-urls", 0, "Maximum URLs to crawl (0 uses config, which defaults to no limit)")
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "Print the full audit result as JSON")
	auditCmd.Flags().BoolVar(&auditMarkdown, "markdown", false, "Render tables as Markdown")
	auditCmd.Flags().BoolVar(&auditIssues, "issues", true, "List non-optimal issues per page")
	auditCmd.Flags().BoolVar(&auditEnqueue, "enqueue", false, "Send the audit to the queue instead of running it")
	_ = auditCmd.MarkFlagRequired("site")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	maxURLs := auditMaxURLs
	if maxURLs == 0 {
		maxURLs = cfg.MaxURLs
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg)
	defer a.Close()

	out := cmd.OutOrStdout()

	if auditEnqueue {
		if cfg.SQSQueueURL == "" {
			return fmt.Errorf("--enqueue requires sqs_queue_url (SQS_QUEUE_URL)")
		}
		consumer, err := a.consumer(ctx, nil)
		if err != nil {
			return err
		}
		if err := consumer.Enqueue(ctx, queue.AuditRequest{SiteURL: auditSite, MaxURLs: maxURLs}); err != nil {
			return err
		}
		fmt.Fprintf(out, "Queued audit for %s\n", auditSite)
		return nil
	}

	manager, _, err := a.manager(ctx)
	if err != nil {
		return err
	}

	result, err := manager.Run(ctx, auditSite, maxURLs)
	if err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}

	if auditJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printer := observability.NewPrinter(out)
	if auditMarkdown {
		printer = printer.Markdown()
	}
	printer.PrintAuditSummary(result)
	printer.PrintPageTable(result)
	if auditIssues {
		printer.PrintIssues(result)
	}
	return nil
}
