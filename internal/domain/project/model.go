package project

import "time"

// Project owns every artifact the pipeline produces for it.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProjectSummary is a lightweight representation for listing
type ProjectSummary struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	DocumentCount   int       `json:"document_count"`
	SourceCodeCount int       `json:"source_code_count"`
	CreatedAt       time.Time `json:"created_at"`
}
