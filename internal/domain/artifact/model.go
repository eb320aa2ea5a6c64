package artifact

import (
	"strings"
	"time"
)

// Well-known document types. Document.Type is otherwise free-form.
const (
	DocTypeUploadedFile = "uploaded_file"
	DocTypeRequirements = "requirements"
	DocTypeDesign       = "design"
	DocTypeTest         = "test"
	DocTypeOther        = "other"
)

// Document is an uploaded file or a generated document.
type Document struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	Type       string    `json:"type"`
	Content    Content   `json:"content"`
	IsFallback bool      `json:"is_fallback"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Content holds either structured sections or raw text.
type Content struct {
	Title    string    `json:"title,omitempty"`
	Sections []Section `json:"sections,omitempty"`
	Text     string    `json:"content,omitempty"`
	FilePath string    `json:"file_path,omitempty"`
	MIMEType string    `json:"mime_type,omitempty"`
}

type Section struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// Plain renders the content as text suitable for a prompt.
func (c Content) Plain() string {
	var b strings.Builder
	if c.Title != "" {
		b.WriteString(c.Title)
		b.WriteString("\n\n")
	}
	for _, s := range c.Sections {
		if s.Heading != "" {
			b.WriteString(s.Heading)
			b.WriteString("\n")
		}
		if s.Body != "" {
			b.WriteString(s.Body)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(c.Text)
	return strings.TrimSpace(b.String())
}

// IsEmpty reports whether the content carries no text at all.
func (c Content) IsEmpty() bool {
	return c.Plain() == ""
}

// SourceCode is a generated source file. DocumentID is historical provenance only.
type SourceCode struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	DocumentID string    `json:"document_id"`
	FileName   string    `json:"file_name"`
	Content    string    `json:"content"`
	Language   string    `json:"language"`
	IsFallback bool      `json:"is_fallback"`
	CreatedAt  time.Time `json:"created_at"`
}

// Review is a persisted QualityCheckResult. Exactly one of Consistency or Quality is set,
// matching Kind.
type Review struct {
	ID          string             `json:"id"`
	ProjectID   string             `json:"project_id"`
	Kind        ReviewKind         `json:"kind"`
	Type        string             `json:"type"`
	Consistency *ConsistencyResult `json:"consistency,omitempty"`
	Quality     *QualityResult     `json:"quality,omitempty"`
	IsFallback  bool               `json:"is_fallback"`
	CreatedAt   time.Time          `json:"created_at"`
}

// Severity grades a consistency issue.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	return s == SeverityLow || s == SeverityMedium || s == SeverityHigh
}

type ConsistencyResult struct {
	Score       int      `json:"score"`
	Issues      []Issue  `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

type Issue struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

type QualityResult struct {
	Items []QualityScore `json:"items"`
}

// Quality scores are always reported within this range.
const (
	MinQualityScore = 60
	MaxQualityScore = 100
)

type QualityScore struct {
	Item       QualityItem `json:"item"`
	Score      int         `json:"score"`
	Result     string      `json:"result"`
	IsFallback bool        `json:"is_fallback"`
}

// WorkEstimate is a persisted estimate. Estimate.TotalHours always equals the breakdown sum.
type WorkEstimate struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	Estimate   Estimate  `json:"estimate"`
	IsFallback bool      `json:"is_fallback"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Estimate struct {
	TotalHours float64      `json:"totalHours"`
	Breakdown  []PhaseHours `json:"breakdown"`
}

type PhaseHours struct {
	Phase string  `json:"phase"`
	Hours float64 `json:"hours"`
}

// ProgressReport is a persisted progress snapshot.
type ProgressReport struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	Report     Report    `json:"report"`
	IsFallback bool      `json:"is_fallback"`
	CreatedAt  time.Time `json:"created_at"`
}

type Report struct {
	OverallProgress int             `json:"overall_progress"`
	Phases          []PhaseProgress `json:"phases"`
	Issues          []string        `json:"issues"`
	Period          Period          `json:"period"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

type PhaseProgress struct {
	Name           string `json:"name"`
	Progress       int    `json:"progress"`
	Status         string `json:"status"`
	TotalTasks     int    `json:"total_tasks"`
	CompletedTasks int    `json:"completed_tasks"`
}

type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Proposal is generated proposal text plus the location of its rendered PDF.
type Proposal struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	TemplateID string    `json:"template_id"`
	Content    string    `json:"content"`
	PDFURL     *string   `json:"pdf_url"`
	IsFallback bool      `json:"is_fallback"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
