package entity

import "time"

// Phase is a UWS job execution phase as reported by a TAP service.
// The client never invents phases; it only reflects what the service says.
type Phase string

const (
	PhasePending   Phase = "PENDING"
	PhaseQueued    Phase = "QUEUED"
	PhaseExecuting Phase = "EXECUTING"
	PhaseCompleted Phase = "COMPLETED"
	PhaseError     Phase = "ERROR"
	PhaseAborted   Phase = "ABORTED"
	PhaseUnknown   Phase = "UNKNOWN"
)

// Valid reports whether the phase is one the UWS standard defines
func (p Phase) Valid() bool {
	switch p {
	case PhasePending, PhaseQueued, PhaseExecuting,
		PhaseCompleted, PhaseError, PhaseAborted, PhaseUnknown:
		return true
	}
	return false
}

// IsTerminal reports whether the job will make no further progress
func (p Phase) IsTerminal() bool {
	switch p {
	case PhaseCompleted, PhaseError, PhaseAborted:
		return true
	}
	return false
}

// Job is a handle to an asynchronous TAP query owned by the service.
// All fields reflect server state at the time of the last poll.
type Job struct {
	JobID     string `json:"jobId"`
	RunID     string `json:"runId,omitempty"`
	OwnerID   string `json:"ownerId,omitempty"`
	Phase     Phase  `json:"phase"`
	Query     string `json:"query"`
	Quote     string `json:"quote,omitempty"`
	ResultURL string `json:"resultUrl,omitempty"`

	StartTime         *time.Time `json:"startTime,omitempty"`
	EndTime           *time.Time `json:"endTime,omitempty"`
	ExecutionDuration int        `json:"executionDuration,omitempty"`
	DestructionTime   *time.Time `json:"destruction,omitempty"`

	// ErrorSummary is populated when Phase is ERROR
	ErrorSummary string `json:"errorSummary,omitempty"`
}
