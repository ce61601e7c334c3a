package models

import "time"

// Case represents one tracked hiring workflow for a single candidate.
// A case owns its work steps; deleting a case deletes its steps.
type Case struct {
	ID                int64      `json:"id" db:"id"`                                           // Unique identifier (PostgreSQL auto-increment)
	CandidateFullname string     `json:"candidate_fullname" db:"candidate_fullname"`           // Candidate display name
	CandidateEmail    string     `json:"candidate_email" db:"candidate_email"`                 // Candidate contact email
	DueDate           *time.Time `json:"due_date" db:"due_date"`                               // Nullable overall deadline
	ApplicantNotified bool       `json:"applicant_has_been_notified" db:"applicant_notified"`  // Whether the candidate was contacted
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`                           // Creation timestamp
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`                           // Last update timestamp
	Steps             []WorkStep `json:"steps,omitempty"`                                      // Ordered work steps (populated at load time)
}
