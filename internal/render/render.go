package render

import (
	"fmt"
	"io"
	"time"

	"shipctl/internal/history"
	"shipctl/internal/verify"
)

// VerificationReport writes the full probe-by-probe report followed by
// the summary line and any recommendations.
func VerificationReport(w io.Writer, report *verify.Report) {
	fmt.Fprintln(w, Title.Render("Verification report"))
	fmt.Fprintln(w, MutedText.Render("target: "+report.Target))
	fmt.Fprintln(w)

	for _, result := range report.Results {
		line := fmt.Sprintf("%s  %s", StatusIndicator(result.Status), result.Name)
		if result.Duration > 0 {
			line += "  " + MutedText.Render(result.Duration.Round(time.Millisecond).String())
		}
		fmt.Fprintln(w, line)
		if result.Detail != "" && result.Status == verify.StatusFail {
			fmt.Fprintln(w, "    "+MutedText.Render(result.Detail))
		}
	}

	fmt.Fprintln(w)
	summary := fmt.Sprintf("%d/%d probes passed", report.Summary.Passed, report.Summary.Total)
	if report.Summary.Success {
		fmt.Fprintln(w, SuccessText.Render(summary))
	} else {
		fmt.Fprintln(w, ErrorText.Render(summary))
	}

	for _, rec := range report.Recommendations {
		fmt.Fprintln(w, WarningText.Render("→")+" "+rec)
	}
}

// DeploySummary writes the closing summary of a deploy or rollback run.
func DeploySummary(w io.Writer, command string, record *history.DeploymentRecord) {
	fmt.Fprintln(w)
	if record.Success {
		fmt.Fprintln(w, SuccessText.Render(fmt.Sprintf("%s succeeded", command)))
	} else {
		fmt.Fprintln(w, ErrorText.Render(fmt.Sprintf("%s failed", command)))
	}

	printField(w, "commit", AccentText.Render(shorten(record.Commit)))
	if record.PreviousCommit != "" {
		printField(w, "previous", shorten(record.PreviousCommit))
	}
	if record.TargetURL != "" {
		printField(w, "target", record.TargetURL)
	}
	printField(w, "duration", record.Duration().Round(time.Second).String())

	for _, step := range record.Steps {
		if step.Status != history.StepFailed {
			continue
		}
		fmt.Fprintf(w, "  %s %s: %s\n", ErrorText.Render("✗"), step.Name, step.Detail)
	}
}

// HistoryTable writes the history entries as an aligned listing,
// newest first.
func HistoryTable(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, MutedText.Render("no deploys recorded yet"))
		return
	}

	header := fmt.Sprintf("%-20s %-9s %-9s %-12s %s",
		"STARTED", "COMMAND", "COMMIT", "OUTCOME", "DURATION")
	fmt.Fprintln(w, Label.Render(header))

	for _, e := range entries {
		duration := (time.Duration(e.DurationMs) * time.Millisecond).Round(time.Second)
		fmt.Fprintf(w, "%-20s %-9s %-9s %-12s %s\n",
			e.StartedAt.Local().Format("2006-01-02 15:04:05"),
			e.Command,
			shorten(e.Commit),
			outcomeStyle(e.Outcome).Render(fmt.Sprintf("%-12s", e.Outcome)),
			duration,
		)
	}
}

func printField(w io.Writer, name, value string) {
	fmt.Fprintf(w, "  %s %s\n", Label.Render(name+":"), value)
}

func shorten(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}
