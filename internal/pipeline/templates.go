package pipeline

import "sort"

// Section headings shared by the proposal templates.
const (
	SectionOverview     = "Overview"
	SectionBackground   = "Background"
	SectionScope        = "Scope"
	SectionArchitecture = "Architecture"
	SectionSchedule     = "Schedule"
	SectionCost         = "Cost"
	SectionRisks        = "Risks"
	SectionTeam         = "Team"
	SectionTerms        = "Terms"
)

// Template is a proposal outline.
type Template struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Sections []string `json:"sections"`
}

var templates = map[string]Template{
	"1": {
		ID:       "1",
		Name:     "basic",
		Sections: []string{SectionOverview, SectionScope, SectionSchedule, SectionCost},
	},
	"2": {
		ID:   "2",
		Name: "detailed",
		Sections: []string{
			SectionOverview, SectionBackground, SectionScope, SectionArchitecture,
			SectionSchedule, SectionCost, SectionRisks, SectionTeam, SectionTerms,
		},
	},
}

// LookupTemplate returns the template with id.
func LookupTemplate(id string) (Template, bool) {
	t, ok := templates[id]
	return t, ok
}

// Templates lists the catalog ordered by id.
func Templates() []Template {
	out := make([]Template, 0, len(templates))
	for _, t := range templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
