package v1alpha1

func StringToJobStatus(s string) JobStatus {
	switch s {
	case string(JobStatusQueued):
		return JobStatusQueued
	case string(JobStatusProcessing):
		return JobStatusProcessing
	case string(JobStatusCompleted):
		return JobStatusCompleted
	case string(JobStatusFailed):
		return JobStatusFailed
	default:
		return JobStatusQueued
	}
}

func StringToAssignmentStatus(s string) AssignmentStatus {
	switch s {
	case string(AssignmentStatusAssigned):
		return AssignmentStatusAssigned
	case string(AssignmentStatusInProgress):
		return AssignmentStatusInProgress
	case string(AssignmentStatusAudioSubmitted):
		return AssignmentStatusAudioSubmitted
	case string(AssignmentStatusCompleted):
		return AssignmentStatusCompleted
	case string(AssignmentStatusSkipped):
		return AssignmentStatusSkipped
	default:
		return AssignmentStatusAssigned
	}
}

// Error is the generic error body returned by the API.
type Error struct {
	Message   string  `json:"message"`
	RequestId *string `json:"requestId,omitempty"`
}
