// Package sim implements a small TAP service used for local development
// and integration testing: a sync endpoint, a UWS async job lifecycle over
// an in-memory store, and a canned catalog served as VOTable documents.
package sim

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/astrolab/voquery/internal/domain/entity"
)

// Job is one stored async job
type Job struct {
	ID           string
	Phase        entity.Phase
	Query        string
	Result       *entity.Table
	ErrorSummary string
	CreatedAt    time.Time
	StartedAt    time.Time
	EndedAt      time.Time
}

// JobStore keeps async jobs in memory and advances their phases on a
// timer, imitating a busy remote service
type JobStore struct {
	mu      sync.RWMutex
	jobs    map[string]*Job
	latency time.Duration
	execute func(query string) (*entity.Table, error)
}

// NewJobStore creates a store; latency is how long a job spends in
// EXECUTING before completing
func NewJobStore(latency time.Duration, execute func(string) (*entity.Table, error)) *JobStore {
	return &JobStore{
		jobs:    make(map[string]*Job),
		latency: latency,
		execute: execute,
	}
}

// Create registers a new job. When start is true the job begins executing
// immediately (PHASE=RUN on submit), otherwise it stays PENDING.
func (s *JobStore) Create(query string, start bool) *Job {
	job := &Job{
		ID:        uuid.New().String(),
		Phase:     entity.PhasePending,
		Query:     query,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	if start {
		s.Start(job.ID)
	}
	return s.snapshot(job.ID)
}

// Get returns a copy of the job, or nil
func (s *JobStore) Get(id string) *Job {
	return s.snapshot(id)
}

// Start moves a PENDING job to EXECUTING and schedules completion
func (s *JobStore) Start(id string) bool {
	s.mu.Lock()
	job, ok := s.jobs[id]
	if !ok || job.Phase != entity.PhasePending {
		s.mu.Unlock()
		return ok
	}
	job.Phase = entity.PhaseExecuting
	job.StartedAt = time.Now().UTC()
	s.mu.Unlock()

	time.AfterFunc(s.latency, func() { s.finish(id) })
	return true
}

// finish runs the query and records the terminal phase
func (s *JobStore) finish(id string) {
	s.mu.Lock()
	job, ok := s.jobs[id]
	if !ok || job.Phase != entity.PhaseExecuting {
		s.mu.Unlock()
		return
	}
	query := job.Query
	s.mu.Unlock()

	result, err := s.execute(query)

	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok = s.jobs[id]
	if !ok || job.Phase != entity.PhaseExecuting {
		// aborted while executing
		return
	}
	job.EndedAt = time.Now().UTC()
	if err != nil {
		job.Phase = entity.PhaseError
		job.ErrorSummary = err.Error()
		return
	}
	job.Phase = entity.PhaseCompleted
	job.Result = result
}

// Abort cancels a job that has not finished
func (s *JobStore) Abort(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return false
	}
	if !job.Phase.IsTerminal() {
		job.Phase = entity.PhaseAborted
		job.EndedAt = time.Now().UTC()
	}
	return true
}

// Delete removes a job
func (s *JobStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return false
	}
	delete(s.jobs, id)
	return true
}

// snapshot copies the job out from under the lock
func (s *JobStore) snapshot(id string) *Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}
