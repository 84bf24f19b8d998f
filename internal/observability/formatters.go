// Package observability renders audit and fix results for terminal output.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/jonathan/seo-auditor/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxURLWidth truncates URLs in tables
	maxURLWidth = 60
)

var (
	colorRed    = color.New(color.FgRed).SprintFunc()
	colorYellow = color.New(color.FgYellow).SprintFunc()
	colorGreen  = color.New(color.FgGreen).SprintFunc()
	colorCyan   = color.New(color.FgCyan).SprintFunc()
)

// Printer handles formatted terminal output
type Printer struct {
	out      io.Writer
	markdown bool
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// Markdown switches table rendering to GitHub-flavoured Markdown.
func (p *Printer) Markdown() *Printer {
	p.markdown = true
	return p
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if text.RuneWidthWithoutEscSequences(line) > boxWidth-4 {
			line = text.Trim(line, boxWidth-7) + "..."
		}
		pad := boxWidth - 4 - text.RuneWidthWithoutEscSequences(line)
		fmt.Fprintf(p.out, "│ %s%s │\n", line, strings.Repeat(" ", max(pad, 0)))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func (p *Printer) render(t table.Writer) {
	if p.markdown {
		fmt.Fprintln(p.out, t.RenderMarkdown()) //nolint:errcheck
		return
	}
	t.SetStyle(table.StyleLight)
	fmt.Fprintln(p.out, t.Render()) //nolint:errcheck
}

// HealthLabel colors a health score: green from 80, yellow from 50, else red.
func HealthLabel(score int) string {
	label := fmt.Sprintf("%d/100", score)
	switch {
	case score >= 80:
		return colorGreen(label)
	case score >= 50:
		return colorYellow(label)
	default:
		return colorRed(label)
	}
}

// StatusLabel colors an issue status.
func StatusLabel(s types.Status) string {
	switch s {
	case types.StatusCritical:
		return colorRed(string(s))
	case types.StatusWarning:
		return colorYellow(string(s))
	case types.StatusOptimal:
		return colorGreen(string(s))
	default:
		return colorCyan(string(s))
	}
}

// PrintAuditSummary outputs the headline numbers of an audit.
func (p *Printer) PrintAuditSummary(result *types.AuditResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Site:          %s\n", result.SiteURL))
	sb.WriteString(fmt.Sprintf("Audited:       %s\n", result.AuditDate.Format("2006-01-02 15:04 MST")))
	sb.WriteString(fmt.Sprintf("URLs checked:  %d\n", result.TotalURLsChecked))
	sb.WriteString(fmt.Sprintf("Health score:  %s\n", HealthLabel(result.Summary.HealthScore)))
	sb.WriteString(fmt.Sprintf("Critical:      %s\n", colorRed(result.Summary.CriticalCount)))
	sb.WriteString(fmt.Sprintf("Warnings:      %s\n", colorYellow(result.Summary.WarningCount)))
	sb.WriteString(fmt.Sprintf("Passed:        %d", result.Summary.PassedCount))

	p.printBox("SEO AUDIT SUMMARY", sb.String())
}

// PrintPageTable outputs one row per crawled page with its issue counts.
func (p *Printer) PrintPageTable(result *types.AuditResult) {
	if result == nil || len(result.Pages) == 0 {
		return
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"URL", "HTTP", "Critical", "Warnings", "Error"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMax: maxURLWidth},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})

	for _, page := range result.Pages {
		critical, warnings := 0, 0
		for _, issue := range page.AllIssues() {
			switch issue.Status {
			case types.StatusCritical:
				critical++
			case types.StatusWarning:
				warnings++
			}
		}
		t.AppendRow(table.Row{page.URL, page.StatusCode, critical, warnings, page.Error})
	}
	t.AppendFooter(table.Row{"TOTAL", "", result.Summary.CriticalCount, result.Summary.WarningCount, ""})

	p.render(t)
}

// PrintIssues lists every critical and warning issue grouped by check.
func (p *Printer) PrintIssues(result *types.AuditResult) {
	if result == nil {
		return
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Check", "Status", "URL", "Message"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: maxURLWidth},
		{Number: 4, WidthMax: 50},
	})

	rows := 0
	for _, page := range result.Pages {
		for _, issue := range page.AllIssues() {
			if issue.Status != types.StatusCritical && issue.Status != types.StatusWarning {
				continue
			}
			t.AppendRow(table.Row{issue.CheckName, StatusLabel(issue.Status), page.URL, issue.Message})
			rows++
		}
	}
	if rows == 0 {
		fmt.Fprintln(p.out, colorGreen("No issues found.")) //nolint:errcheck
		return
	}
	t.SortBy([]table.SortBy{{Number: 1, Mode: table.Asc}})

	p.render(t)
}

// PrintFixResults outputs one row per remediation attempt.
func (p *Printer) PrintFixResults(results []types.FixResult) {
	if len(results) == 0 {
		return
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"URL", "Result", "Source", "Message", "Value"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMax: maxURLWidth},
		{Number: 4, WidthMax: 50},
		{Number: 5, WidthMax: 50},
	})

	succeeded := 0
	for _, r := range results {
		outcome := colorRed("failed")
		if r.Success {
			outcome = colorGreen("fixed")
			succeeded++
		}
		t.AppendRow(table.Row{r.URL, outcome, string(r.Source), r.Message, r.Value})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d/%d", succeeded, len(results)), "", "", ""})

	p.render(t)
}

// PrintJob outputs a single-line job status.
func (p *Printer) PrintJob(job *types.SiteAuditJob) {
	if job == nil {
		return
	}
	line := fmt.Sprintf("[%s] %s %s %d%%", job.ID, job.SiteURL, job.Status, job.ProgressPercent)
	if job.CurrentURL != "" && !job.Status.Terminal() {
		line += " " + job.CurrentURL
	}
	if job.Error != "" {
		line += " " + colorRed(job.Error)
	}
	fmt.Fprintln(p.out, line) //nolint:errcheck
}
