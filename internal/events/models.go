package events

// JobEvent is emitted on every job lifecycle change.
type JobEvent struct {
	JobID     string `json:"job_id"`
	OrgID     string `json:"org_id"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	WordCount int    `json:"word_count,omitempty"`
}

// AssignmentEvent is emitted on assignment creation and on every
// workflow transition, forming the audit trail of reader work.
type AssignmentEvent struct {
	AssignmentID string `json:"assignment_id"`
	JobID        string `json:"job_id"`
	OrgID        string `json:"org_id"`
	AssignedTo   string `json:"assigned_to"`
	Status       string `json:"status"`
	Priority     int    `json:"priority"`
	Actor        string `json:"actor"`
	Reason       string `json:"reason,omitempty"`
}
