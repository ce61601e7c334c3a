package service

import (
	"fmt"

	"github.com/markliwag/casetrack/pkg/models"
)

// NoCurrentStep is the sentinel step number for a case that has no step
// marked current. Newly created cases that were never advanced are in this
// state, so it is not an error.
const NoCurrentStep = 0

// StepSequence is the derived position of a case within its pipeline:
// the current step number plus its immediate neighbors. It is computed once
// per loaded case and never mutated afterwards. Previous and Next are nil
// when no such step exists, so previous < current < next holds whenever
// both neighbors are present.
type StepSequence struct {
	Current  int
	Previous *int
	Next     *int
}

// ComputeStepSequence derives the step sequence for one case's work steps.
// The collection must be fully loaded before the call; the function performs
// no I/O and is safe for concurrent use on independent snapshots.
//
// Absence is not an error: a collection with no current marker yields
// Current == NoCurrentStep and nil neighbors. Neighbor numbers are only
// reported when a step with that number actually exists in the collection,
// which guards against gaps in the numbering. If the collection carries
// duplicate current markers, the lowest-numbered one wins so repeated calls
// stay deterministic; use StepIntegrityIssues to surface the violation.
func ComputeStepSequence(steps []models.WorkStep) StepSequence {
	byNumber := make(map[int]struct{}, len(steps))
	current := NoCurrentStep
	for _, s := range steps {
		byNumber[s.StepNumber] = struct{}{}
		if s.Current && (current == NoCurrentStep || s.StepNumber < current) {
			current = s.StepNumber
		}
	}

	seq := StepSequence{Current: current}
	if current == NoCurrentStep {
		return seq
	}
	prev := current - 1
	if _, ok := byNumber[prev]; ok && prev >= 1 {
		seq.Previous = &prev
	}
	next := current + 1
	if _, ok := byNumber[next]; ok {
		seq.Next = &next
	}
	return seq
}

// CurrentStep returns the step marked current, preferring the lowest step
// number when the marker is duplicated. The second return is false when no
// step is current.
func CurrentStep(steps []models.WorkStep) (models.WorkStep, bool) {
	var found models.WorkStep
	ok := false
	for _, s := range steps {
		if s.Current && (!ok || s.StepNumber < found.StepNumber) {
			found = s
			ok = true
		}
	}
	return found, ok
}

// StepIntegrityIssues reports data-integrity violations in a case's step
// collection: duplicate current markers, duplicate step numbers, and gaps in
// the 1..N numbering. The caller decides what to do with the report; the
// sequencer itself always degrades to a deterministic best-effort answer
// rather than failing the whole listing for one malformed case.
func StepIntegrityIssues(steps []models.WorkStep) []string {
	var issues []string

	currentCount := 0
	seen := make(map[int]int, len(steps))
	maxNumber := 0
	for _, s := range steps {
		if s.Current {
			currentCount++
		}
		seen[s.StepNumber]++
		if s.StepNumber > maxNumber {
			maxNumber = s.StepNumber
		}
	}

	if currentCount > 1 {
		issues = append(issues, fmt.Sprintf("%d steps marked current, expected at most 1", currentCount))
	}
	for number := 1; number <= maxNumber; number++ {
		switch count := seen[number]; {
		case count == 0:
			issues = append(issues, fmt.Sprintf("missing step number %d", number))
		case count > 1:
			issues = append(issues, fmt.Sprintf("duplicate step number %d (%d occurrences)", number, count))
		}
	}
	if _, ok := seen[0]; ok {
		issues = append(issues, "step number 0 is not a valid position")
	}
	return issues
}
