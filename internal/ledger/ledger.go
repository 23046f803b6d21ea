package ledger

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	api "github.com/scriptvoice/narration-planner/api/v1alpha1"
)

// MergeOutcome describes what a merge did to the ledger entry.
type MergeOutcome int

const (
	// MergeUnchanged means the incoming snapshot was stale or identical and
	// the entry was left untouched.
	MergeUnchanged MergeOutcome = iota
	// MergeInserted means the job was not tracked before.
	MergeInserted
	// MergeUpdated means a non-terminal field of the entry changed.
	MergeUpdated
	// MergeBecameTerminal means the entry crossed into completed or failed.
	// The caller must stop the job's poll loop.
	MergeBecameTerminal
)

// Ledger is the client-held map of job id to last-known snapshot. It is
// reconciled from two independent sources, the per-job poll loop and the
// bulk resync, so every mutation goes through the single atomic Merge
// function. No other component writes to it.
type Ledger struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*api.JobSnapshot
}

func NewLedger() *Ledger {
	return &Ledger{
		entries: make(map[uuid.UUID]*api.JobSnapshot),
	}
}

// Merge applies an incoming snapshot under the terminal-state invariant:
// an entry that reached completed or failed is never regressed, a terminal
// snapshot always wins over a tracked non-terminal entry, and a
// non-terminal snapshot only overwrites non-terminal fields. The entry's
// UpdatedAt reflects the last observed status change, not the last poll.
func (l *Ledger) Merge(incoming api.JobSnapshot) MergeOutcome {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, tracked := l.entries[incoming.ID]
	if !tracked {
		snapshot := incoming
		l.entries[incoming.ID] = &snapshot
		if incoming.Status.IsTerminal() {
			return MergeBecameTerminal
		}
		return MergeInserted
	}

	if current.Status.IsTerminal() {
		return MergeUnchanged
	}

	if incoming.Status.IsTerminal() {
		snapshot := incoming
		l.entries[incoming.ID] = &snapshot
		return MergeBecameTerminal
	}

	if current.Status == incoming.Status {
		return MergeUnchanged
	}

	current.Status = incoming.Status
	current.UpdatedAt = incoming.UpdatedAt
	return MergeUpdated
}

// Get returns a copy of the tracked snapshot.
func (l *Ledger) Get(id uuid.UUID) (api.JobSnapshot, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, found := l.entries[id]
	if !found {
		return api.JobSnapshot{}, false
	}
	return *entry, true
}

// List returns copies of every tracked snapshot, newest first.
func (l *Ledger) List() []api.JobSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshots := make([]api.JobSnapshot, 0, len(l.entries))
	for _, entry := range l.entries {
		snapshots = append(snapshots, *entry)
	}
	sort.Slice(snapshots, func(i, j int) bool {
		if snapshots[i].CreatedAt.Equal(snapshots[j].CreatedAt) {
			return snapshots[i].ID.String() < snapshots[j].ID.String()
		}
		return snapshots[i].CreatedAt.After(snapshots[j].CreatedAt)
	})
	return snapshots
}

// Remove drops a job from the ledger. Removing an untracked job is a no-op.
func (l *Ledger) Remove(id uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, id)
}

// IDs returns the ids of every tracked job.
func (l *Ledger) IDs() []uuid.UUID {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := make([]uuid.UUID, 0, len(l.entries))
	for id := range l.entries {
		ids = append(ids, id)
	}
	return ids
}

// StatusCounts returns the number of tracked jobs per status.
func (l *Ledger) StatusCounts() map[api.JobStatus]int {
	l.mu.Lock()
	defer l.mu.Unlock()

	counts := make(map[api.JobStatus]int)
	for _, entry := range l.entries {
		counts[entry.Status]++
	}
	return counts
}
