package orchestrator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ganot/forgeline/internal/domain/artifact"
	"github.com/ganot/forgeline/internal/pipeline"
)

func DocumentSummary(doc *artifact.Document) string {
	return fmt.Sprintf("Generated %s document", doc.Type)
}

func CodeSummary(code *artifact.SourceCode) string {
	return "Generated " + code.FileName
}

// ReviewSummary renders either review kind.
func ReviewSummary(review *artifact.Review) string {
	switch {
	case review.Consistency != nil:
		return fmt.Sprintf("Consistency score: %d/100 (%d issues)", review.Consistency.Score, len(review.Consistency.Issues))
	case review.Quality != nil:
		lines := make([]string, 0, len(review.Quality.Items))
		for _, item := range review.Quality.Items {
			lines = append(lines, fmt.Sprintf("%s: %d points", item.Item, item.Score))
		}
		return strings.Join(lines, "\n")
	default:
		return ""
	}
}

func EstimateSummary(est artifact.Estimate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Estimated total: %sh", hours(est.TotalHours))
	for _, p := range est.Breakdown {
		fmt.Fprintf(&b, "\n- %s: %sh", p.Phase, hours(p.Hours))
	}
	return b.String()
}

func ProgressSummary(report artifact.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Overall progress: %d%%", report.OverallProgress)
	for i, issue := range report.Issues {
		fmt.Fprintf(&b, "\n%d. %s", i+1, issue)
	}
	return b.String()
}

func ProposalSummary(tmpl pipeline.Template) string {
	return "Created proposal using " + tmpl.Name
}

func hours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}
