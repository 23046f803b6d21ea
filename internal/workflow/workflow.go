// Package workflow governs the status transitions a reader assignment can
// undergo. The legal path is assigned -> in_progress -> audio_submitted ->
// completed; every non-terminal state may bail out to skipped. A violation
// is a logic error, never retried, and leaves the assignment untouched.
package workflow

import (
	"fmt"
	"time"

	api "github.com/scriptvoice/narration-planner/api/v1alpha1"
)

type InvalidTransitionError struct {
	error
}

func NewInvalidTransitionError(from, to api.AssignmentStatus, reason string) *InvalidTransitionError {
	if reason == "" {
		return &InvalidTransitionError{fmt.Errorf("transition %s -> %s is not allowed", from, to)}
	}
	return &InvalidTransitionError{fmt.Errorf("transition %s -> %s is not allowed: %s", from, to, reason)}
}

// Guards carries the facts the state machine cannot derive from the
// assignment itself.
type Guards struct {
	// Blocked is the admission engine's verdict; a blocked assignment may
	// not be started.
	Blocked bool
	// ArtifactPresent reports whether the reader's recording interface
	// produced a non-empty artifact. Required to submit audio; recording
	// alone never changes status.
	ArtifactPresent bool
	// SkipReason is required for any transition to skipped.
	SkipReason string
}

var next = map[api.AssignmentStatus]api.AssignmentStatus{
	api.AssignmentStatusAssigned:       api.AssignmentStatusInProgress,
	api.AssignmentStatusInProgress:     api.AssignmentStatusAudioSubmitted,
	api.AssignmentStatusAudioSubmitted: api.AssignmentStatusCompleted,
}

// Validate reports whether from -> to is legal under the given guards.
func Validate(from, to api.AssignmentStatus, guards Guards) error {
	if from.IsTerminal() {
		return NewInvalidTransitionError(from, to, "assignment is in a terminal state")
	}

	if to == api.AssignmentStatusSkipped {
		if guards.SkipReason == "" {
			return NewInvalidTransitionError(from, to, "skipping requires a reason note")
		}
		return nil
	}

	if next[from] != to {
		return NewInvalidTransitionError(from, to, "")
	}

	switch to {
	case api.AssignmentStatusInProgress:
		if guards.Blocked {
			return NewInvalidTransitionError(from, to, "a higher-priority assignment is unresolved")
		}
	case api.AssignmentStatusAudioSubmitted:
		if !guards.ArtifactPresent {
			return NewInvalidTransitionError(from, to, "no recording artifact submitted")
		}
	}

	return nil
}

// Apply validates and performs the transition, mutating the assignment only
// on success. Completing sets CompletedAt; skipping records the reason in
// the notes.
func Apply(assignment *api.Assignment, to api.AssignmentStatus, guards Guards, now time.Time) error {
	if err := Validate(assignment.Status, to, guards); err != nil {
		return err
	}

	assignment.Status = to
	assignment.UpdatedAt = now

	switch to {
	case api.AssignmentStatusCompleted:
		completedAt := now
		assignment.CompletedAt = &completedAt
	case api.AssignmentStatusSkipped:
		reason := guards.SkipReason
		assignment.Notes = &reason
	}

	return nil
}
