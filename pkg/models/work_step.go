package models

import "time"

// WorkStep is one ordered stage within a case's hiring pipeline.
// Step numbers are positive, unique within a case, and dense starting at 1.
// At most one step per case carries the current marker at any time.
type WorkStep struct {
	ID                   int64      `json:"id" db:"id"`                                       // Unique identifier (PostgreSQL auto-increment)
	CaseID               int64      `json:"case_id" db:"case_id"`                             // Foreign key to Case
	StepNumber           int        `json:"step_number" db:"step_number"`                     // Position within the pipeline (1-based)
	Current              bool       `json:"current" db:"current"`                             // Marker for the currently active stage
	DueDate              *time.Time `json:"due_date,omitempty" db:"due_date"`                 // Nullable per-step deadline
	RequirementsComplete bool       `json:"requirements_complete" db:"requirements_complete"` // All completion requirements satisfied
	PanelName            string     `json:"panel_name" db:"panel_name"`                       // Display label shown to end users
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`                       // Creation timestamp
}

const (
	ScreeningPanel          string = "Screening"
	TechnicalInterviewPanel string = "Technical Interview"
	PanelInterviewPanel     string = "Panel Interview"
	OfferPanel              string = "Offer"
)

// DefaultPanels is the pipeline a case gets when no explicit panels are supplied.
var DefaultPanels = []string{ScreeningPanel, TechnicalInterviewPanel, PanelInterviewPanel, OfferPanel}
