package pipeline

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ganot/forgeline/internal/domain/artifact"
)

func fallbackDocument(docType string) artifact.Content {
	return artifact.Content{Text: fmt.Sprintf("Sample %s:\n\n1. Introduction\n2. Overview\n3. Details\n4. Summary", docType)}
}

var lineComments = map[string]string{
	"python": "#", "ruby": "#", "shell": "#", "bash": "#", "sh": "#", "perl": "#", "r": "#",
	"yaml": "#", "powershell": "#", "elixir": "#",
	"sql": "--", "haskell": "--", "lua": "--",
	"lisp": ";", "clojure": ";", "scheme": ";",
	"erlang": "%", "matlab": "%", "latex": "%",
	"vb": "'", "vba": "'",
}

var samplePrograms = map[string]string{
	"go":         "package main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(\"generated code goes here\")\n}",
	"python":     "print(\"generated code goes here\")",
	"javascript": "console.log(\"generated code goes here\");",
	"typescript": "console.log(\"generated code goes here\");",
	"java":       "public class Main {\n    public static void main(String[] args) {\n        System.out.println(\"generated code goes here\");\n    }\n}",
	"ruby":       "puts \"generated code goes here\"",
	"rust":       "fn main() {\n    println!(\"generated code goes here\");\n}",
	"sql":        "SELECT 'generated code goes here';",
}

// fallbackCode is a comment-led placeholder program in the language's own comment syntax.
func fallbackCode(language string) string {
	key := strings.ToLower(strings.TrimSpace(language))
	comment, ok := lineComments[key]
	if !ok {
		comment = "//"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s Sample %s code\n", comment, language)
	fmt.Fprintf(&b, "%s Generated code goes here\n", comment)
	if body, ok := samplePrograms[key]; ok {
		b.WriteString("\n")
		b.WriteString(body)
		b.WriteString("\n")
	}
	return b.String()
}

func fallbackConsistency() artifact.ConsistencyResult {
	return artifact.ConsistencyResult{
		Score: 0,
		Issues: []artifact.Issue{{
			Type:        "unavailable",
			Description: "Automated consistency analysis was unavailable for these documents.",
			Severity:    artifact.SeverityLow,
		}},
		Suggestions: []string{"Re-run the consistency check or review the documents manually."},
	}
}

func fallbackQuality(item artifact.QualityItem) artifact.QualityScore {
	return artifact.QualityScore{
		Item:       item,
		Score:      artifact.MinQualityScore,
		Result:     fmt.Sprintf("Quality check of %s could not be completed.", item.Label()),
		IsFallback: true,
	}
}

func fallbackEstimate() artifact.Estimate {
	est, _ := artifact.NewEstimate([]artifact.PhaseHours{
		{Phase: "requirements", Hours: 200},
		{Phase: "design", Hours: 300},
		{Phase: "implementation", Hours: 400},
		{Phase: "test", Hours: 100},
	})
	return est
}

// fallbackIssues names the least advanced phases, lowest first. Ties keep phase order.
func fallbackIssues(phases []artifact.PhaseProgress) []string {
	ordered := make([]artifact.PhaseProgress, len(phases))
	copy(ordered, phases)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Progress < ordered[j].Progress
	})

	issues := make([]string, 0, IssueCount)
	for _, p := range ordered {
		if len(issues) == IssueCount {
			break
		}
		issues = append(issues, phaseIssue(p))
	}
	for len(issues) < IssueCount {
		issues = append(issues, "Insufficient activity data to identify further issues.")
	}
	return issues
}

func phaseIssue(p artifact.PhaseProgress) string {
	switch p.Status {
	case artifact.StatusNotStarted:
		return fmt.Sprintf("The %s phase has not started.", p.Name)
	case artifact.StatusCompleted:
		return fmt.Sprintf("The %s phase is complete; confirm its outputs are handed over.", p.Name)
	default:
		return fmt.Sprintf("The %s phase is at %d%% (%d of %d tasks done).", p.Name, p.Progress, p.CompletedTasks, p.TotalTasks)
	}
}

// fallbackProposal fills the template outline with what is known about the project.
func fallbackProposal(proj string, description string, tmpl Template, est artifact.Estimate, progress *int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Proposal\n", proj)
	for i, section := range tmpl.Sections {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, section)
		switch section {
		case SectionOverview, SectionBackground:
			if description != "" {
				b.WriteString(description)
			} else {
				fmt.Fprintf(&b, "Project %s.", proj)
			}
			b.WriteString("\n")
		case SectionSchedule:
			if progress != nil {
				fmt.Fprintf(&b, "Current overall progress: %d%%.\n", *progress)
			} else {
				b.WriteString("Schedule to be agreed.\n")
			}
		case SectionCost:
			fmt.Fprintf(&b, "Estimated effort: %s hours.\n", formatHours(est.TotalHours))
			for _, ph := range est.Breakdown {
				fmt.Fprintf(&b, "- %s: %s hours\n", ph.Phase, formatHours(ph.Hours))
			}
		default:
			b.WriteString("To be completed.\n")
		}
	}
	return b.String()
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}
