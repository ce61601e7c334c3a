package service

import (
	"strings"
	"time"

	"github.com/markliwag/casetrack/pkg/models"
	"github.com/markliwag/casetrack/pkg/storage"
	"github.com/pkg/errors"
)

// Logger defines the logging interface for CaseService
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// CaseRecord is the rendered form of one case as exposed by the listing API.
// Sentinel handling follows the wire convention: current_step_number is 0
// when no step is current, previous/next serialize as null when absent.
type CaseRecord struct {
	ID                                 int64      `json:"id"`
	CandidateFullname                  string     `json:"candidate_fullname"`
	CandidateEmail                     string     `json:"candidate_email"`
	DueDate                            *time.Time `json:"due_date"`
	ApplicantHasBeenNotified           bool       `json:"applicant_has_been_notified"`
	CurrentStepNumber                  int        `json:"current_step_number"`
	PreviousStepNumber                 *int       `json:"previous_step_number"`
	NextStepNumber                     *int       `json:"next_step_number"`
	CurrentStepDueDate                 *time.Time `json:"current_step_due_date"`
	CurrentStepAllRequirementsComplete bool       `json:"current_step_all_requirements_complete"`
	CurrentPanelName                   string     `json:"current_panel_name"`
}

// CaseService manages hiring cases and their work-step pipelines.
// Each case moves through an ordered set of panels; advancement shifts the
// current marker forward one step at a time.
type CaseService struct {
	store  storage.Store
	logger Logger
}

func NewCaseService(store storage.Store, logger Logger) *CaseService {
	return &CaseService{
		store:  store,
		logger: logger,
	}
}

// CreateCase persists a new case together with its work-step pipeline.
// When panels is empty the default pipeline is used. The first step is
// marked current.
func (s *CaseService) CreateCase(fullname, email string, dueDate *time.Time, panels []string) (id int64, err error) {
	fullname = strings.TrimSpace(fullname)
	email = strings.TrimSpace(email)
	if fullname == "" {
		return 0, errors.New("candidate fullname cannot be empty")
	}
	if len(fullname) > 100 {
		return 0, errors.New("candidate fullname too long (max 100 characters)")
	}
	if email == "" {
		return 0, errors.New("candidate email cannot be empty")
	}
	if !strings.Contains(email, "@") {
		return 0, errors.New("candidate email is not a valid address")
	}
	for _, panel := range panels {
		if strings.TrimSpace(panel) == "" {
			return 0, errors.New("panel names cannot be empty")
		}
	}
	if len(panels) == 0 {
		panels = models.DefaultPanels
	}

	txStore, err := s.store.Begin()
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				s.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			s.logger.Errorf("Failed to commit: %v", commitErr)
			err = commitErr
		}
	}()

	now := time.Now()
	c := models.Case{
		CandidateFullname: fullname,
		CandidateEmail:    email,
		DueDate:           dueDate,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	id, err = txStore.SaveCase(c)
	if err != nil {
		return 0, err
	}

	for i, panel := range panels {
		step := models.WorkStep{
			CaseID:     id,
			StepNumber: i + 1,
			Current:    i == 0,
			PanelName:  panel,
			CreatedAt:  now,
		}
		if _, err = txStore.SaveWorkStep(step); err != nil {
			return 0, errors.Wrapf(err, "save step %d for case %d", i+1, id)
		}
	}

	s.logger.Infof("Created case for '%s' with ID %d and %d steps", fullname, id, len(panels))
	return id, nil
}

// GetCase fetches a case with its work steps.
func (s *CaseService) GetCase(caseID int64) (models.Case, error) {
	c, err := s.store.GetCase(caseID)
	if err != nil {
		return models.Case{}, errors.Wrapf(err, "get case %d", caseID)
	}
	return c, nil
}

// ListCases returns the raw cases with their steps loaded.
func (s *CaseService) ListCases() ([]models.Case, error) {
	return s.store.ListCases()
}

// ListCaseRecords renders every case into its listing record. Each case's
// steps are loaded before any derivation runs, so the sequencer always sees
// a consistent snapshot. A malformed case degrades to a best-effort record
// and a single warning instead of failing the whole listing.
func (s *CaseService) ListCaseRecords() ([]CaseRecord, error) {
	cases, err := s.store.ListCases()
	if err != nil {
		return nil, errors.Wrap(err, "list cases")
	}
	records := make([]CaseRecord, 0, len(cases))
	for _, c := range cases {
		records = append(records, s.renderCase(c))
	}
	return records, nil
}

// GetCaseRecord renders a single case into its listing record.
func (s *CaseService) GetCaseRecord(caseID int64) (CaseRecord, error) {
	c, err := s.store.GetCase(caseID)
	if err != nil {
		return CaseRecord{}, errors.Wrapf(err, "get case %d", caseID)
	}
	return s.renderCase(c), nil
}

func (s *CaseService) renderCase(c models.Case) CaseRecord {
	if issues := StepIntegrityIssues(c.Steps); len(issues) > 0 {
		s.logger.Warnf("Case %d has inconsistent steps: %s", c.ID, strings.Join(issues, "; "))
	}

	seq := ComputeStepSequence(c.Steps)
	record := CaseRecord{
		ID:                       c.ID,
		CandidateFullname:        c.CandidateFullname,
		CandidateEmail:           c.CandidateEmail,
		DueDate:                  c.DueDate,
		ApplicantHasBeenNotified: c.ApplicantNotified,
		CurrentStepNumber:        seq.Current,
		PreviousStepNumber:       seq.Previous,
		NextStepNumber:           seq.Next,
	}
	if current, ok := CurrentStep(c.Steps); ok {
		record.CurrentStepDueDate = current.DueDate
		record.CurrentStepAllRequirementsComplete = current.RequirementsComplete
		record.CurrentPanelName = current.PanelName
	}
	return record
}

// AdvanceCase moves the case's current marker forward exactly one step and
// returns the resulting sequence. A case that was never advanced starts at
// step 1; advancing from the last step clears the marker, which completes
// the case.
func (s *CaseService) AdvanceCase(caseID int64) (seq StepSequence, err error) {
	if caseID <= 0 {
		return StepSequence{}, errors.New("case ID must be positive")
	}

	txStore, err := s.store.Begin()
	if err != nil {
		return StepSequence{}, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				s.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			s.logger.Errorf("Failed to commit: %v", commitErr)
			err = commitErr
		}
	}()

	c, err := txStore.GetCase(caseID)
	if err != nil {
		return StepSequence{}, err
	}
	if len(c.Steps) == 0 {
		return StepSequence{}, errors.Errorf("case %d has no work steps", caseID)
	}

	before := ComputeStepSequence(c.Steps)
	target := 0
	switch {
	case before.Current == NoCurrentStep:
		target = 1
	case before.Next != nil:
		target = *before.Next
	default:
		// Last step: clear the marker, the case is complete.
		target = 0
	}

	if err = txStore.SetCurrentStep(caseID, target); err != nil {
		return StepSequence{}, errors.Wrapf(err, "advance case %d to step %d", caseID, target)
	}

	steps, err := txStore.GetWorkSteps(caseID)
	if err != nil {
		return StepSequence{}, err
	}
	seq = ComputeStepSequence(steps)
	s.logger.Infof("Advanced case %d from step %d to step %d", caseID, before.Current, seq.Current)
	return seq, nil
}

// UpdateApplicantNotified records whether the candidate has been contacted.
func (s *CaseService) UpdateApplicantNotified(caseID int64, notified bool) (err error) {
	if caseID <= 0 {
		return errors.New("case ID must be positive")
	}

	txStore, err := s.store.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				s.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			s.logger.Errorf("Failed to commit: %v", commitErr)
			err = commitErr
		}
	}()

	if _, err = txStore.GetCase(caseID); err != nil {
		return err
	}
	if err = txStore.UpdateApplicantNotified(caseID, notified); err != nil {
		return err
	}
	s.logger.Infof("Updated case %d applicant notified to %t", caseID, notified)
	return nil
}
