package storage

import (
	"time"

	"github.com/markliwag/casetrack/pkg/models"
	"github.com/pkg/errors"
)

// mockStore implements Store with in-memory storage
type mockStore struct {
	cases      []models.Case
	steps      []models.WorkStep
	nextCaseID int64
	nextStepID int64
	committed  bool // Transaction state
}

func NewMockStore() Store {
	return &mockStore{}
}

func (m *mockStore) Begin() (Store, error) {
	return m, nil
}

func (m *mockStore) Commit() error {
	if m.committed {
		return errors.New("already committed")
	}
	m.committed = true
	return nil
}

func (m *mockStore) Rollback() error {
	if m.committed {
		return errors.New("cannot rollback committed transaction")
	}
	return nil
}

func (m *mockStore) Close() error {
	return nil
}

func (m *mockStore) SaveCase(c models.Case) (int64, error) {
	if m.committed {
		return 0, errors.New("transaction already committed")
	}
	m.nextCaseID++
	c.ID = m.nextCaseID
	m.cases = append(m.cases, c)
	return c.ID, nil
}

func (m *mockStore) GetCase(id int64) (models.Case, error) {
	for _, c := range m.cases {
		if c.ID == id {
			steps, _ := m.GetWorkSteps(id)
			c.Steps = steps
			return c, nil
		}
	}
	return models.Case{}, ErrNotFound
}

func (m *mockStore) ListCases() ([]models.Case, error) {
	out := make([]models.Case, 0, len(m.cases))
	for _, c := range m.cases {
		steps, _ := m.GetWorkSteps(c.ID)
		c.Steps = steps
		out = append(out, c)
	}
	return out, nil
}

func (m *mockStore) UpdateApplicantNotified(id int64, notified bool) error {
	if m.committed {
		return errors.New("transaction already committed")
	}
	for i, c := range m.cases {
		if c.ID == id {
			m.cases[i].ApplicantNotified = notified
			m.cases[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrNotFound
}

func (m *mockStore) SaveWorkStep(s models.WorkStep) (int64, error) {
	if m.committed {
		return 0, errors.New("transaction already committed")
	}
	for _, existing := range m.steps {
		if existing.CaseID == s.CaseID && existing.StepNumber == s.StepNumber {
			return 0, errors.New("work step already exists")
		}
	}
	m.nextStepID++
	s.ID = m.nextStepID
	m.steps = append(m.steps, s)
	return s.ID, nil
}

func (m *mockStore) GetWorkSteps(caseID int64) ([]models.WorkStep, error) {
	steps := []models.WorkStep{}
	for _, s := range m.steps {
		if s.CaseID == caseID {
			steps = append(steps, s)
		}
	}
	// Keep step-number order; insertion order already matches for the mock,
	// but advancement tests rely on it explicitly.
	for i := 1; i < len(steps); i++ {
		for j := i; j > 0 && steps[j].StepNumber < steps[j-1].StepNumber; j-- {
			steps[j], steps[j-1] = steps[j-1], steps[j]
		}
	}
	return steps, nil
}

func (m *mockStore) SetCurrentStep(caseID int64, stepNumber int) error {
	if m.committed {
		return errors.New("transaction already committed")
	}
	found := stepNumber == 0
	for i, s := range m.steps {
		if s.CaseID != caseID {
			continue
		}
		m.steps[i].Current = s.StepNumber == stepNumber && stepNumber > 0
		if s.StepNumber == stepNumber {
			found = true
		}
	}
	if !found {
		return ErrNotFound
	}
	return nil
}
