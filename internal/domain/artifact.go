package domain

import "time"

// PropDescriptor describes one prop of a generated component.
type PropDescriptor struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Default     string `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
}

// UsageExample is a short snippet showing the component in use.
type UsageExample struct {
	Title string `json:"title"`
	Code  string `json:"code"`
}

// GeneratedArtifact is a candidate component before it becomes a stored Component.
type GeneratedArtifact struct {
	Category    Category         `json:"category"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Code        string           `json:"code"`
	Props       []PropDescriptor `json:"props,omitempty"`
	Examples    []UsageExample   `json:"examples,omitempty"`
	PreviewHTML string           `json:"preview_html,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
}

// Source records what produced a stored component.
type Source string

const (
	SourceModel    Source = "model"
	SourceTemplate Source = "template"
)

// ArtifactRef points from a job to its stored component.
type ArtifactRef struct {
	ComponentID string `json:"component_id"`
	Name        string `json:"name"`
}

// ValidationSummary is the persisted digest of a validation outcome.
type ValidationSummary struct {
	Valid              bool `json:"valid"`
	Errors             int  `json:"errors"`
	Warnings           int  `json:"warnings"`
	AccessibilityScore int  `json:"accessibility_score"`
}

// Component is a finalized artifact stored in the catalog.
type Component struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Category    Category          `json:"category"`
	Description string            `json:"description,omitempty"`
	Code        string            `json:"code"`
	Props       []PropDescriptor  `json:"props,omitempty"`
	Examples    []UsageExample    `json:"examples,omitempty"`
	PreviewHTML string            `json:"preview_html,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	GeneratedBy Source            `json:"generated_by"`
	JobID       string            `json:"job_id,omitempty"`
	OwnerID     string            `json:"owner_id,omitempty"`
	Validation  ValidationSummary `json:"validation"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// NewComponent builds a catalog entry from a validated artifact.
func NewComponent(id, name string, a GeneratedArtifact, src Source) *Component {
	now := time.Now().UTC()
	return &Component{
		ID:          id,
		Name:        name,
		Category:    a.Category,
		Description: a.Description,
		Code:        a.Code,
		Props:       a.Props,
		Examples:    a.Examples,
		PreviewHTML: a.PreviewHTML,
		Tags:        a.Tags,
		GeneratedBy: src,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
