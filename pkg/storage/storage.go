package storage

import (
	"github.com/markliwag/casetrack/pkg/models"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when a requested case or work step does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the storage operations for casetrack.
// Begin returns a transactional view of the same interface; Commit and
// Rollback apply only to stores obtained from Begin.
type Store interface {
	Begin() (Store, error)
	Commit() error
	Rollback() error
	Close() error

	// Case operations
	SaveCase(c models.Case) (int64, error)
	GetCase(id int64) (models.Case, error)
	ListCases() ([]models.Case, error)
	UpdateApplicantNotified(id int64, notified bool) error

	// Work step operations
	SaveWorkStep(s models.WorkStep) (int64, error)
	GetWorkSteps(caseID int64) ([]models.WorkStep, error)
	// SetCurrentStep clears the case's current marker and, when stepNumber > 0,
	// sets it on the step with that number. stepNumber 0 leaves no step current.
	SetCurrentStep(caseID int64, stepNumber int) error
}
