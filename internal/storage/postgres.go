package storage

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/markliwag/casetrack/pkg/models"
	"github.com/markliwag/casetrack/pkg/storage"
)

type DBInterface interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	QueryRowx(query string, args ...interface{}) *sqlx.Row
	Exec(query string, args ...interface{}) (sql.Result, error)
}

type PostgresStore struct {
	db DBInterface
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Begin() (storage.Store, error) {
	if db, ok := s.db.(*sqlx.DB); ok {
		tx, err := db.Beginx()
		if err != nil {
			return nil, err
		}
		return &PostgresStore{db: tx}, nil
	}
	return nil, fmt.Errorf("cannot begin transaction on unknown type")
}

func (s *PostgresStore) Commit() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Commit()
	}
	return fmt.Errorf("cannot commit: not a transaction")
}

func (s *PostgresStore) Rollback() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Rollback()
	}
	return fmt.Errorf("cannot rollback: not a transaction")
}

func (s *PostgresStore) Close() error {
	if db, ok := s.db.(*sqlx.DB); ok {
		return db.Close()
	}
	return nil // No-op for *sqlx.Tx
}

// SaveCase creates a new case and returns its ID (no steps)
func (s *PostgresStore) SaveCase(c models.Case) (int64, error) {
	var caseID int64
	err := s.db.QueryRowx(`
		INSERT INTO cases (candidate_fullname, candidate_email, due_date, applicant_notified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		c.CandidateFullname, c.CandidateEmail, c.DueDate, c.ApplicantNotified, c.CreatedAt, c.UpdatedAt).Scan(&caseID)
	if err != nil {
		return 0, fmt.Errorf("save case: %w", err)
	}
	return caseID, nil
}

// GetCase retrieves a case by ID, including its work steps
func (s *PostgresStore) GetCase(id int64) (models.Case, error) {
	var c models.Case
	err := s.db.Get(&c, "SELECT * FROM cases WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return models.Case{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Case{}, err
	}

	c.Steps, err = s.GetWorkSteps(id)
	if err != nil {
		return models.Case{}, fmt.Errorf("get case %d: %w", id, err)
	}
	return c, nil
}

// ListCases retrieves all cases with their work steps. Steps are fetched in
// one query for the whole page rather than per case, and each case's full
// step set is attached before the rows are handed to the caller.
func (s *PostgresStore) ListCases() ([]models.Case, error) {
	cases := []models.Case{}
	err := s.db.Select(&cases, `
		SELECT id, candidate_fullname, candidate_email, due_date, applicant_notified, created_at, updated_at
		FROM cases ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	if len(cases) == 0 {
		return cases, nil
	}

	ids := make([]int64, 0, len(cases))
	for _, c := range cases {
		ids = append(ids, c.ID)
	}
	steps := []models.WorkStep{}
	err = s.db.Select(&steps, `
		SELECT id, case_id, step_number, current, due_date, requirements_complete, panel_name, created_at
		FROM work_steps WHERE case_id = ANY($1) ORDER BY case_id, step_number`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("list case steps: %w", err)
	}

	byCase := make(map[int64][]models.WorkStep, len(cases))
	for _, step := range steps {
		byCase[step.CaseID] = append(byCase[step.CaseID], step)
	}
	for i := range cases {
		cases[i].Steps = byCase[cases[i].ID]
	}
	return cases, nil
}

// UpdateApplicantNotified updates the notification flag of a case
func (s *PostgresStore) UpdateApplicantNotified(id int64, notified bool) error {
	_, err := s.db.Exec(
		"UPDATE cases SET applicant_notified = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2",
		notified, id)
	return err
}

// SaveWorkStep creates a new work step within a case and returns its ID
func (s *PostgresStore) SaveWorkStep(step models.WorkStep) (int64, error) {
	var stepID int64
	err := s.db.QueryRowx(`
		INSERT INTO work_steps (case_id, step_number, current, due_date, requirements_complete, panel_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		step.CaseID, step.StepNumber, step.Current, step.DueDate, step.RequirementsComplete, step.PanelName, step.CreatedAt).Scan(&stepID)
	if err != nil {
		return 0, fmt.Errorf("save work step: %w", err)
	}
	return stepID, nil
}

// GetWorkSteps retrieves all work steps for a case in step-number order
func (s *PostgresStore) GetWorkSteps(caseID int64) ([]models.WorkStep, error) {
	steps := []models.WorkStep{}
	err := s.db.Select(&steps, `
		SELECT id, case_id, step_number, current, due_date, requirements_complete, panel_name, created_at
		FROM work_steps WHERE case_id = $1 ORDER BY step_number`, caseID)
	if err != nil {
		return nil, err
	}
	return steps, nil
}

// SetCurrentStep clears the case's current marker and sets it on the step
// with the given number. stepNumber 0 only clears, which marks completion.
func (s *PostgresStore) SetCurrentStep(caseID int64, stepNumber int) error {
	if _, err := s.db.Exec("UPDATE work_steps SET current = FALSE WHERE case_id = $1", caseID); err != nil {
		return fmt.Errorf("clear current step for case %d: %w", caseID, err)
	}
	if stepNumber == 0 {
		return nil
	}
	res, err := s.db.Exec(
		"UPDATE work_steps SET current = TRUE WHERE case_id = $1 AND step_number = $2",
		caseID, stepNumber)
	if err != nil {
		return fmt.Errorf("set current step %d for case %d: %w", stepNumber, caseID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
