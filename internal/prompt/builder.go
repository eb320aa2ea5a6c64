// Package prompt turns typed stage inputs into system and user prompts.
// Building is pure: identical inputs always produce byte-identical prompts.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ganot/forgeline/internal/domain/artifact"
)

// Prompt is the two-part prompt sent to a provider.
type Prompt struct {
	System string
	User   string
}

// Build renders the prompt for stage.
func Build(stage artifact.Stage, in Input) (Prompt, error) {
	if in == nil {
		return Prompt{}, missing("input")
	}
	if in.stage() != stage {
		return Prompt{}, fmt.Errorf("%w: %s given %s input", ErrKindMismatch, stage, in.stage())
	}
	if err := in.validate(); err != nil {
		return Prompt{}, err
	}

	switch v := in.(type) {
	case DocumentInput:
		return documentPrompt(v), nil
	case CodeInput:
		return codePrompt(v)
	case ConsistencyInput:
		return consistencyPrompt(v)
	case QualityInput:
		return qualityPrompt(v)
	case EstimateInput:
		return estimatePrompt(v)
	case ProgressInput:
		return progressPrompt(v), nil
	case ProposalInput:
		return proposalPrompt(v)
	default:
		return Prompt{}, fmt.Errorf("%w: unsupported input %T", ErrKindMismatch, in)
	}
}

func documentPrompt(in DocumentInput) Prompt {
	return Prompt{
		System: fmt.Sprintf("You are an expert author of %s documents. Write a complete, well-structured %s document based on the information provided.", in.DocumentType, in.DocumentType),
		User:   fmt.Sprintf("Generate a %s document from the following material:\n\n%s", in.DocumentType, in.Source),
	}
}

func codePrompt(in CodeInput) (Prompt, error) {
	doc, err := encode(in.Document)
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{
		System: fmt.Sprintf("You are an experienced programmer. Write %s source code that implements the given document. Reply with code only.", in.Language),
		User:   fmt.Sprintf("Generate %s source code based on this document:\n\n%s", in.Language, doc),
	}, nil
}

const consistencySchema = `{"score": <integer 0-100>, "issues": [{"type": <string>, "description": <string>, "severity": "low"|"medium"|"high"}], "suggestions": [<string>]}`

func consistencyPrompt(in ConsistencyInput) (Prompt, error) {
	docs, err := encode(in.Documents)
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{
		System: "You are an expert in document consistency review. Analyze the documents for contradictions and gaps between them, and propose improvements. Reply with JSON only, in the form " + consistencySchema + ".",
		User:   "Check the consistency of the following documents:\n\n" + docs,
	}, nil
}

const qualitySchema = `{"rating": <integer 0-100>, "result": <string>}`

func qualityPrompt(in QualityInput) (Prompt, error) {
	artifacts, err := encode(in.Artifacts)
	if err != nil {
		return Prompt{}, err
	}
	label := in.Item.Label()
	return Prompt{
		System: "You are a software quality review expert. Reply with JSON only, in the form " + qualitySchema + ".",
		User: fmt.Sprintf("Review the quality of the following %s. Assess consistency, completeness and adherence to best practice, then list problems and improvements.\n\n%s",
			label, artifacts),
	}, nil
}

const estimateSchema = `{"totalHours": <number>, "breakdown": [{"phase": <string>, "hours": <number>}]}`

func estimatePrompt(in EstimateInput) (Prompt, error) {
	facts, err := encode(struct {
		Name            string         `json:"name"`
		Description     string         `json:"description"`
		DocumentCount   int            `json:"document_count"`
		SourceCodeCount int            `json:"source_code_count"`
		DocumentTypes   map[string]int `json:"document_types,omitempty"`
		Languages       map[string]int `json:"languages,omitempty"`
	}{in.ProjectName, in.ProjectDescription, in.DocumentCount, in.SourceCodeCount, in.DocumentTypes, in.Languages})
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{
		System: "You are an expert in software effort estimation. Estimate the work for the project described. Reply with JSON only, in the form " + estimateSchema + ".",
		User:   "Estimate the effort in hours for this project:\n\n" + facts,
	}, nil
}

func progressPrompt(in ProgressInput) Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the following project progress data and identify the three main issues or causes of delay, one per line.\n")
	if !in.Period.Start.IsZero() || !in.Period.End.IsZero() {
		fmt.Fprintf(&b, "Period: %s to %s\n", in.Period.Start.Format("2006-01-02"), in.Period.End.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "Overall progress: %d%%\nPhase progress:\n", in.OverallProgress)
	for _, p := range in.Phases {
		fmt.Fprintf(&b, "%s: %d%% (%s, %d/%d tasks done)\n", p.Name, p.Progress, p.Status, p.CompletedTasks, p.TotalTasks)
	}
	return Prompt{
		System: "You are a project manager.",
		User:   b.String(),
	}
}

type proposalFacts struct {
	Project         projectFacts      `json:"project"`
	Template        templateFacts     `json:"template"`
	Documents       []DocumentSource  `json:"documents"`
	Estimate        artifact.Estimate `json:"estimate"`
	OverallProgress *int              `json:"overall_progress,omitempty"`
}

type projectFacts struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type templateFacts struct {
	Name     string   `json:"name"`
	Sections []string `json:"sections"`
}

func proposalPrompt(in ProposalInput) (Prompt, error) {
	facts, err := encode(proposalFacts{
		Project:         projectFacts{Name: in.ProjectName, Description: in.ProjectDescription},
		Template:        templateFacts{Name: in.TemplateName, Sections: in.Sections},
		Documents:       in.Documents,
		Estimate:        in.Estimate,
		OverallProgress: in.OverallProgress,
	})
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{
		System: "You are an expert at writing persuasive project proposals. Write the proposal following the template sections in order, one heading per section.",
		User:   "Create a proposal from the following information:\n\n" + facts,
	}, nil
}

// encode serializes v with stable key order. Struct fields keep declaration
// order and map keys are sorted by encoding/json.
func encode(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode prompt input: %w", err)
	}
	return string(data), nil
}
