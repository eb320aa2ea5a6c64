package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/ganot/forgeline/internal/domain/artifact"
	"github.com/ganot/forgeline/internal/llm"
)

func shapeErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrOutputShape, fmt.Sprintf(format, args...))
}

func parseText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", shapeErr("empty text")
	}
	return trimmed, nil
}

func parseDocument(text string) (artifact.Content, error) {
	body, err := parseText(text)
	if err != nil {
		return artifact.Content{}, err
	}
	return artifact.Content{Text: body}, nil
}

func parseCode(text string) (string, error) {
	return parseText(llm.StripCodeFence(text))
}

func decodeJSON(text string, v any) error {
	raw := llm.ExtractJSON(text)
	if raw == "" {
		return shapeErr("no JSON object found")
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return shapeErr("invalid JSON: %v", err)
	}
	return nil
}

type consistencyOutput struct {
	Score  *float64 `json:"score"`
	Issues *[]struct {
		Type        string `json:"type"`
		Description string `json:"description"`
		Severity    string `json:"severity"`
	} `json:"issues"`
	Suggestions *[]string `json:"suggestions"`
}

func parseConsistency(text string) (artifact.ConsistencyResult, error) {
	var out consistencyOutput
	if err := decodeJSON(text, &out); err != nil {
		return artifact.ConsistencyResult{}, err
	}
	if out.Score == nil || out.Issues == nil || out.Suggestions == nil {
		return artifact.ConsistencyResult{}, shapeErr("score, issues and suggestions are required")
	}
	if *out.Score < 0 || *out.Score > 100 || math.IsNaN(*out.Score) {
		return artifact.ConsistencyResult{}, shapeErr("score %v out of range", *out.Score)
	}

	result := artifact.ConsistencyResult{
		Score:       int(math.Round(*out.Score)),
		Issues:      make([]artifact.Issue, 0, len(*out.Issues)),
		Suggestions: make([]string, 0, len(*out.Suggestions)),
	}
	for i, issue := range *out.Issues {
		severity := artifact.Severity(strings.ToLower(strings.TrimSpace(issue.Severity)))
		if !severity.Valid() {
			return artifact.ConsistencyResult{}, shapeErr("issues[%d]: unknown severity %q", i, issue.Severity)
		}
		if strings.TrimSpace(issue.Description) == "" {
			return artifact.ConsistencyResult{}, shapeErr("issues[%d]: description is required", i)
		}
		result.Issues = append(result.Issues, artifact.Issue{
			Type:        strings.TrimSpace(issue.Type),
			Description: strings.TrimSpace(issue.Description),
			Severity:    severity,
		})
	}
	for _, s := range *out.Suggestions {
		if s = strings.TrimSpace(s); s != "" {
			result.Suggestions = append(result.Suggestions, s)
		}
	}
	return result, nil
}

type qualityOutput struct {
	Rating *float64 `json:"rating"`
	Result string   `json:"result"`
}

// QualityScore maps a 0-100 model rating into the persisted 60-100 range.
func QualityScore(rating float64) int {
	if rating < 0 {
		rating = 0
	}
	if rating > 100 {
		rating = 100
	}
	span := artifact.MaxQualityScore - artifact.MinQualityScore
	return artifact.MinQualityScore + int(math.Round(rating*float64(span)/100))
}

func parseQuality(item artifact.QualityItem) func(string) (artifact.QualityScore, error) {
	return func(text string) (artifact.QualityScore, error) {
		var out qualityOutput
		if err := decodeJSON(text, &out); err != nil {
			return artifact.QualityScore{}, err
		}
		if out.Rating == nil {
			return artifact.QualityScore{}, shapeErr("rating is required")
		}
		if *out.Rating < 0 || *out.Rating > 100 || math.IsNaN(*out.Rating) {
			return artifact.QualityScore{}, shapeErr("rating %v out of range", *out.Rating)
		}
		result := strings.TrimSpace(out.Result)
		if result == "" {
			return artifact.QualityScore{}, shapeErr("result is required")
		}
		return artifact.QualityScore{
			Item:   item,
			Score:  QualityScore(*out.Rating),
			Result: result,
		}, nil
	}
}

type estimateOutput struct {
	TotalHours *float64               `json:"totalHours"`
	Breakdown  *[]artifact.PhaseHours `json:"breakdown"`
}

// parseEstimate ignores the model's total: it is recomputed from the breakdown.
func parseEstimate(text string) (artifact.Estimate, error) {
	var out estimateOutput
	if err := decodeJSON(text, &out); err != nil {
		return artifact.Estimate{}, err
	}
	if out.Breakdown == nil || len(*out.Breakdown) == 0 {
		return artifact.Estimate{}, shapeErr("breakdown is required")
	}
	est, err := artifact.NewEstimate(*out.Breakdown)
	if err != nil {
		return artifact.Estimate{}, shapeErr("%v", err)
	}
	return est, nil
}

var bulletPattern = regexp.MustCompile(`^\s*(?:[-*•・]+\s*|\d+[.)]\s+|\d+、\s*|\(\d+\)\s*)`)

// IssueCount is the number of issues every progress report carries.
const IssueCount = 3

// parseIssues keeps the first three non-empty lines, with list markers removed.
func parseIssues(text string) ([]string, error) {
	issues := make([]string, 0, IssueCount)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(bulletPattern.ReplaceAllString(line, ""))
		line = strings.Trim(line, "*_ ")
		if line == "" {
			continue
		}
		issues = append(issues, line)
		if len(issues) == IssueCount {
			return issues, nil
		}
	}
	return nil, shapeErr("expected %d issues, got %d", IssueCount, len(issues))
}
