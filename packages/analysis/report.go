package analysis

import (
	"fmt"
	"io"
	"strings"

	"git-analyse/types"

	"github.com/fatih/color"
)

// Aggregate assembles the final report. Results keep their order.
func Aggregate(runID string, target types.ResolvedTarget, fileTypes map[string]struct{}, results []types.AnalysisResult) *types.Report {
	return &types.Report{
		RunID:     runID,
		Target:    target,
		FileTypes: types.SortedSet(fileTypes),
		Results:   results,
	}
}

// Render writes the report in "Part i of n" sections.
func Render(w io.Writer, report *types.Report) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed, color.Bold).SprintFunc()

	total := len(report.Results)

	fmt.Fprintf(w, "\n%s\n", cyan("=== Repository Analysis ==="))
	fmt.Fprintf(w, "Repository: %s (branch %s)\n", report.Target.Raw, report.Target.Branch)
	fmt.Fprintf(w, "Detected Technology Stack: [%s]\n", strings.Join(report.FileTypes, ", "))

	if total == 0 {
		fmt.Fprintln(w, "No readable source files found; nothing was analyzed.")
		return
	}

	for i, result := range report.Results {
		header := fmt.Sprintf("Part %d of %d:", i+1, total)
		if result.Failed() {
			fmt.Fprintf(w, "\n%s %s\n", yellow(header), red("FAILED: "+result.Err.Error()))
			continue
		}
		fmt.Fprintf(w, "\n%s\n%s\n", yellow(header), result.Text)
	}

	if failed := report.Failed(); failed > 0 {
		fmt.Fprintf(w, "\n%s\n", red(fmt.Sprintf("%d of %d parts failed", failed, total)))
	}
}
