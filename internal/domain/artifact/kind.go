package artifact

import (
	"fmt"
	"strings"
)

// Stage identifies one pipeline operation. The set is closed.
type Stage string

const (
	StageDocumentGeneration Stage = "document_generation"
	StageCodeGeneration     Stage = "code_generation"
	StageConsistencyCheck   Stage = "consistency_check"
	StageQualityCheck       Stage = "quality_check"
	StageWorkEstimation     Stage = "work_estimation"
	StageProgressReport     Stage = "progress_report"
	StageProposalCreation   Stage = "proposal_creation"
)

// Stages lists every stage in pipeline order.
var Stages = []Stage{
	StageDocumentGeneration,
	StageCodeGeneration,
	StageConsistencyCheck,
	StageQualityCheck,
	StageWorkEstimation,
	StageProgressReport,
	StageProposalCreation,
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	for _, known := range Stages {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStage accepts both snake_case and kebab-case names.
func ParseStage(value string) (Stage, error) {
	s := Stage(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "-", "_"))
	if !s.Valid() {
		return "", fmt.Errorf("unknown stage %q", value)
	}
	return s, nil
}

// Kind identifies a persisted artifact type.
type Kind string

const (
	KindDocument       Kind = "document"
	KindSourceCode     Kind = "source_code"
	KindReview         Kind = "quality_check_result"
	KindWorkEstimate   Kind = "work_estimate"
	KindProgressReport Kind = "progress_report"
	KindProposal       Kind = "proposal"
)

// Output returns the artifact kind a stage persists.
func (s Stage) Output() Kind {
	switch s {
	case StageDocumentGeneration:
		return KindDocument
	case StageCodeGeneration:
		return KindSourceCode
	case StageConsistencyCheck, StageQualityCheck:
		return KindReview
	case StageWorkEstimation:
		return KindWorkEstimate
	case StageProgressReport:
		return KindProgressReport
	case StageProposalCreation:
		return KindProposal
	default:
		return ""
	}
}

// ReviewKind distinguishes the two structured review shapes sharing the reviews table.
type ReviewKind string

const (
	ReviewConsistency ReviewKind = "consistency"
	ReviewQuality     ReviewKind = "quality"
)

// Valid reports whether k is a known review kind.
func (k ReviewKind) Valid() bool {
	return k == ReviewConsistency || k == ReviewQuality
}

// QualityItem is an artifact family that Quality Check can rate.
type QualityItem string

const (
	QualityItemDocument   QualityItem = "document"
	QualityItemSourceCode QualityItem = "source_code"
)

// ParseQualityItem accepts the canonical keys and the Japanese UI labels.
func ParseQualityItem(value string) (QualityItem, error) {
	switch strings.TrimSpace(value) {
	case "document", "documents", "ドキュメント":
		return QualityItemDocument, nil
	case "source_code", "source-code", "code", "ソースコード":
		return QualityItemSourceCode, nil
	default:
		return "", fmt.Errorf("unknown quality item %q", value)
	}
}

// Label is the human-readable name used in summaries.
func (i QualityItem) Label() string {
	switch i {
	case QualityItemDocument:
		return "documents"
	case QualityItemSourceCode:
		return "source code"
	default:
		return string(i)
	}
}
