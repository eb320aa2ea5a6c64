package pipeline

import (
	"strings"
	"testing"

	"github.com/ganot/forgeline/internal/domain/artifact"
	"github.com/stretchr/testify/require"
)

func TestFallbackDocument(t *testing.T) {
	got := fallbackDocument("requirements")
	require.True(t, strings.HasPrefix(got.Text, "Sample requirements:"))
	for _, heading := range []string{"1. Introduction", "2. Overview", "3. Details", "4. Summary"} {
		require.Contains(t, got.Text, heading)
	}
	require.Equal(t, got, fallbackDocument("requirements"))
}

func TestFallbackCode_CommentSyntax(t *testing.T) {
	tests := []struct {
		language string
		prefix   string
	}{
		{"Python", "# Sample Python code"},
		{"go", "// Sample go code"},
		{"SQL", "-- Sample SQL code"},
		{"COBOL", "// Sample COBOL code"},
	}
	for _, tt := range tests {
		t.Run(tt.language, func(t *testing.T) {
			got := fallbackCode(tt.language)
			require.True(t, strings.HasPrefix(got, tt.prefix), got)
		})
	}
	require.Contains(t, fallbackCode("go"), "package main")
}

func TestFallbackConsistency(t *testing.T) {
	got := fallbackConsistency()
	require.Equal(t, 0, got.Score)
	require.Len(t, got.Issues, 1)
	require.Equal(t, artifact.SeverityLow, got.Issues[0].Severity)
	require.Len(t, got.Suggestions, 1)
}

func TestFallbackEstimate(t *testing.T) {
	got := fallbackEstimate()
	require.Equal(t, 1000.0, got.TotalHours)
	require.True(t, got.Consistent())
	require.Equal(t, []artifact.PhaseHours{
		{Phase: "requirements", Hours: 200},
		{Phase: "design", Hours: 300},
		{Phase: "implementation", Hours: 400},
		{Phase: "test", Hours: 100},
	}, got.Breakdown)
}

func TestFallbackIssues_LowestProgressFirst(t *testing.T) {
	phases := artifact.ComputePhases(map[string]artifact.TaskCount{
		artifact.PhaseRequirements: {Total: 4, Completed: 4},
		artifact.PhaseDesign:       {Total: 5, Completed: 2},
	})
	got := fallbackIssues(phases)
	require.Len(t, got, IssueCount)
	require.Equal(t, "The development phase has not started.", got[0])
	require.Equal(t, "The test phase has not started.", got[1])
	require.Equal(t, "The design phase is at 40% (2 of 5 tasks done).", got[2])
}

func TestFallbackIssues_Pads(t *testing.T) {
	got := fallbackIssues(nil)
	require.Len(t, got, IssueCount)
	for _, issue := range got {
		require.NotEmpty(t, issue)
	}
}

func TestFallbackProposal(t *testing.T) {
	tmpl, ok := LookupTemplate("1")
	require.True(t, ok)
	progress := 35
	got := fallbackProposal("Atlas", "Inventory system", tmpl, fallbackEstimate(), &progress)

	require.True(t, strings.HasPrefix(got, "Atlas Proposal"))
	require.Contains(t, got, "1. Overview\nInventory system")
	require.Contains(t, got, "Current overall progress: 35%.")
	require.Contains(t, got, "Estimated effort: 1000 hours.")
	require.Contains(t, got, "- implementation: 400 hours")

	got = fallbackProposal("Atlas", "", tmpl, fallbackEstimate(), nil)
	require.Contains(t, got, "Schedule to be agreed.")
}

func TestTemplates(t *testing.T) {
	list := Templates()
	require.Len(t, list, 2)
	require.Equal(t, "1", list[0].ID)
	require.Equal(t, "basic", list[0].Name)
	require.Len(t, list[1].Sections, 9)

	_, ok := LookupTemplate("3")
	require.False(t, ok)
}
