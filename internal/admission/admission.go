// Package admission computes, at read time, which of a reader's
// assignments are actionable. Blocking is never persisted: it is a pure
// projection over the current assignment snapshot, so priority edits,
// reassignment or deletion change the verdict on the very next read with
// no migration step and no scheduler.
package admission

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	api "github.com/scriptvoice/narration-planner/api/v1alpha1"
	"github.com/thoas/go-funk"
)

// Decision is the admission verdict for one assignment.
type Decision struct {
	Blocked       bool
	BlockedReason *string
}

// Evaluate computes the decision for every assignment in the given set,
// which must all belong to the same reader. An assignment is blocked iff
// another assignment of the set with strictly higher priority is still
// unresolved. Equal priorities never block each other, so a whole tier
// becomes actionable at once; resolving the last blocker unblocks the next
// tier on the following evaluation.
func Evaluate(assignments []api.Assignment) map[uuid.UUID]Decision {
	open := funk.Filter(assignments, func(a api.Assignment) bool {
		return !a.Status.IsTerminal()
	}).([]api.Assignment)

	decisions := make(map[uuid.UUID]Decision, len(assignments))
	for _, assignment := range assignments {
		if assignment.Status.IsTerminal() {
			decisions[assignment.ID] = Decision{}
			continue
		}

		blocker := oldestBlocker(open, assignment)
		if blocker == nil {
			decisions[assignment.ID] = Decision{}
			continue
		}

		reason := fmt.Sprintf("waiting on %s priority %s assignment %s",
			priorityName(blocker.Priority), blocker.AssignmentType, shortID(blocker.ID))
		decisions[assignment.ID] = Decision{Blocked: true, BlockedReason: &reason}
	}
	return decisions
}

// Annotate returns a copy of the assignments with the Blocked and
// BlockedReason fields filled in.
func Annotate(assignments []api.Assignment) []api.Assignment {
	decisions := Evaluate(assignments)
	annotated := make([]api.Assignment, len(assignments))
	for i, assignment := range assignments {
		decision := decisions[assignment.ID]
		assignment.Blocked = decision.Blocked
		assignment.BlockedReason = decision.BlockedReason
		annotated[i] = assignment
	}
	return annotated
}

// SortForPresentation orders assignments the way readers work them:
// priority descending, then oldest first within a tier, ids as the final
// deterministic tie-break.
func SortForPresentation(assignments []api.Assignment) {
	sort.SliceStable(assignments, func(i, j int) bool {
		if assignments[i].Priority != assignments[j].Priority {
			return assignments[i].Priority > assignments[j].Priority
		}
		if !assignments[i].CreatedAt.Equal(assignments[j].CreatedAt) {
			return assignments[i].CreatedAt.Before(assignments[j].CreatedAt)
		}
		return assignments[i].ID.String() < assignments[j].ID.String()
	})
}

// oldestBlocker returns the unresolved assignment with strictly higher
// priority that has been waiting the longest, or nil when the candidate is
// unblocked.
func oldestBlocker(open []api.Assignment, candidate api.Assignment) *api.Assignment {
	var blocker *api.Assignment
	for i := range open {
		other := &open[i]
		if other.ID == candidate.ID || other.Priority <= candidate.Priority {
			continue
		}
		if blocker == nil || other.CreatedAt.Before(blocker.CreatedAt) ||
			(other.CreatedAt.Equal(blocker.CreatedAt) && other.ID.String() < blocker.ID.String()) {
			blocker = other
		}
	}
	return blocker
}

func priorityName(priority int) string {
	switch priority {
	case api.PriorityHigh:
		return "high"
	case api.PriorityMedium:
		return "medium"
	case api.PriorityLow:
		return "low"
	default:
		return fmt.Sprintf("%d", priority)
	}
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
