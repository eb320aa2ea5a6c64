package prompt

import (
	"strings"

	"github.com/ganot/forgeline/internal/domain/artifact"
)

// Input is a stage-specific prompt input. The set is closed.
type Input interface {
	stage() artifact.Stage
	validate() error
}

// DocumentSource is a document as presented to the model.
type DocumentSource struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// DocumentInput drives Document Generation.
type DocumentInput struct {
	DocumentType string
	// Source is the text of the uploaded file.
	Source string
}

func (DocumentInput) stage() artifact.Stage { return artifact.StageDocumentGeneration }

func (in DocumentInput) validate() error {
	if blank(in.DocumentType) {
		return missing("document_type")
	}
	if blank(in.Source) {
		return missing("source")
	}
	return nil
}

// CodeInput drives Code Generation.
type CodeInput struct {
	Language string
	Document artifact.Content
}

func (CodeInput) stage() artifact.Stage { return artifact.StageCodeGeneration }

func (in CodeInput) validate() error {
	if blank(in.Language) {
		return missing("language")
	}
	if in.Document.IsEmpty() {
		return missing("document")
	}
	return nil
}

// ConsistencyInput drives Consistency Check.
type ConsistencyInput struct {
	Documents []DocumentSource
}

func (ConsistencyInput) stage() artifact.Stage { return artifact.StageConsistencyCheck }

func (in ConsistencyInput) validate() error {
	if len(in.Documents) == 0 {
		return missing("documents")
	}
	return nil
}

// QualityArtifact is one document or source file submitted for rating.
type QualityArtifact struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// QualityInput drives one per-item Quality Check call.
type QualityInput struct {
	Item      artifact.QualityItem
	Artifacts []QualityArtifact
}

func (QualityInput) stage() artifact.Stage { return artifact.StageQualityCheck }

func (in QualityInput) validate() error {
	if in.Item == "" {
		return missing("item")
	}
	if len(in.Artifacts) == 0 {
		return missing("artifacts")
	}
	return nil
}

// EstimateInput drives Work Estimation.
type EstimateInput struct {
	ProjectName        string
	ProjectDescription string
	DocumentCount      int
	SourceCodeCount    int
	// DocumentTypes counts documents per type.
	DocumentTypes map[string]int
	Languages     map[string]int
}

func (EstimateInput) stage() artifact.Stage { return artifact.StageWorkEstimation }

func (in EstimateInput) validate() error {
	if blank(in.ProjectName) {
		return missing("project_name")
	}
	return nil
}

// ProgressInput drives the issue-finding part of Progress Report.
type ProgressInput struct {
	OverallProgress int
	Phases          []artifact.PhaseProgress
	Period          artifact.Period
}

func (ProgressInput) stage() artifact.Stage { return artifact.StageProgressReport }

func (in ProgressInput) validate() error {
	if len(in.Phases) == 0 {
		return missing("phases")
	}
	return nil
}

// ProposalInput drives Proposal Creation.
type ProposalInput struct {
	ProjectName        string
	ProjectDescription string
	TemplateName       string
	Sections           []string
	Documents          []DocumentSource
	Estimate           artifact.Estimate
	// OverallProgress is nil when no progress report exists.
	OverallProgress *int
}

func (ProposalInput) stage() artifact.Stage { return artifact.StageProposalCreation }

func (in ProposalInput) validate() error {
	if blank(in.ProjectName) {
		return missing("project_name")
	}
	if len(in.Sections) == 0 {
		return missing("sections")
	}
	if len(in.Documents) == 0 {
		return missing("documents")
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
