package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/seo-auditor/internal/observability"
)

var (
	fixSite  string
	fixIssue string
	fixJSON  bool
)

var fixCmd = &cobra.Command{
	Use:   "fix --issue TYPE URL...",
	Short: "Apply an automated fix to one or more URLs",
	Long: `Resolve each URL to its content item or term and apply the fix for the issue type.
Relative paths are resolved against --site. Results are reported one per URL in order.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFix,
}

func init() {
	fixCmd.Flags().StringVarP(&fixSite, "site", "s", "", "Site root URL used to resolve relative paths")
	fixCmd.Flags().StringVarP(&fixIssue, "issue", "i", "", "Issue type, e.g. title_presence (required)")
	fixCmd.Flags().BoolVar(&fixJSON, "json", false, "Print results as JSON")
	_ = fixCmd.MarkFlagRequired("issue")
	rootCmd.AddCommand(fixCmd)
}

func runFix(cmd *cobra.Command, args []string) error {
	urls, err := resolveURLs(fixSite, args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a := newApp(cfg)
	defer a.Close()

	dispatcher, err := a.dispatcher(cmd.Context())
	if err != nil {
		return err
	}
	if !dispatcher.Supports(fixIssue) {
		return fmt.Errorf("no automated fix available for %q", fixIssue)
	}

	results := dispatcher.FixBatch(cmd.Context(), fixIssue, urls)

	out := cmd.OutOrStdout()
	if fixJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	observability.NewPrinter(out).PrintFixResults(results)
	return nil
}

// resolveURLs turns each argument into an absolute URL, joining relative
// paths onto site.
func resolveURLs(site string, args []string) ([]string, error) {
	var base *url.URL
	if site != "" {
		parsed, err := url.Parse(site)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return nil, fmt.Errorf("invalid --site %q", site)
		}
		base = parsed
	}

	out := make([]string, 0, len(args))
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		u, err := url.Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid URL %q: %w", arg, err)
		}
		if u.IsAbs() {
			out = append(out, u.String())
			continue
		}
		if base == nil {
			return nil, fmt.Errorf("relative URL %q requires --site", arg)
		}
		out = append(out, base.ResolveReference(u).String())
	}
	return out, nil
}
