package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/user/leekcheck/internal/checker"
)

type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobRunning    JobStatus = "running"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
	JobTerminated JobStatus = "terminated"
)

// Finished reports whether the job will not change any more.
func (s JobStatus) Finished() bool {
	return s == JobCompleted || s == JobFailed || s == JobTerminated
}

type Job struct {
	ID          string           `json:"id"`
	Status      JobStatus        `json:"status"`
	Total       int              `json:"total"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Results     []checker.Result `json:"results,omitempty"`
	Summary     *checker.Summary `json:"summary,omitempty"`
	Error       string           `json:"error,omitempty"`
	Sources     []checker.Source `json:"-"`
}

const progressBuffer = 100

// JobStore keeps check jobs in memory. Getters return copies, so callers
// never race with the worker updating a job. Progress updates fan out to
// every subscriber of a job.
type JobStore struct {
	mu          sync.RWMutex
	jobs        map[string]*Job
	subscribers map[string][]chan checker.ProgressUpdate
}

func NewJobStore() *JobStore {
	return &JobStore{
		jobs:        make(map[string]*Job),
		subscribers: make(map[string][]chan checker.ProgressUpdate),
	}
}

func (js *JobStore) Create(sources []checker.Source) Job {
	now := time.Now()
	job := &Job{
		ID:        uuid.New().String(),
		Status:    JobQueued,
		Total:     len(sources),
		CreatedAt: now,
		UpdatedAt: now,
		Sources:   sources,
	}

	js.mu.Lock()
	js.jobs[job.ID] = job
	js.mu.Unlock()

	return *job
}

func (js *JobStore) Get(id string) (Job, bool) {
	js.mu.RLock()
	defer js.mu.RUnlock()

	job, exists := js.jobs[id]
	if !exists {
		return Job{}, false
	}
	return *job, true
}

// List returns all jobs, oldest first.
func (js *JobStore) List() []Job {
	js.mu.RLock()
	jobs := make([]Job, 0, len(js.jobs))
	for _, job := range js.jobs {
		jobs = append(jobs, *job)
	}
	js.mu.RUnlock()

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})
	return jobs
}

// UpdateStatus moves an unfinished job to status. It reports false when the
// job is unknown or already finished.
func (js *JobStore) UpdateStatus(id string, status JobStatus) bool {
	js.mu.Lock()
	defer js.mu.Unlock()

	job, exists := js.jobs[id]
	if !exists || job.Status.Finished() {
		return false
	}
	job.Status = status
	job.UpdatedAt = time.Now()
	if status.Finished() {
		completedAt := job.UpdatedAt
		job.CompletedAt = &completedAt
	}
	return true
}

// Complete records the outcome of a run. A job terminated meanwhile keeps
// its status but still receives the results gathered before it stopped.
func (js *JobStore) Complete(id string, results []checker.Result, err error) {
	js.mu.Lock()
	defer js.mu.Unlock()

	job, exists := js.jobs[id]
	if !exists {
		return
	}

	js.closeSubscribers(id)

	completedAt := time.Now()
	summary := checker.Summarize(results)
	job.Results = results
	job.Summary = &summary
	job.UpdatedAt = completedAt
	job.Sources = nil

	if job.Status == JobTerminated {
		return
	}
	job.CompletedAt = &completedAt
	if err != nil {
		job.Status = JobFailed
		job.Error = err.Error()
	} else {
		job.Status = JobCompleted
	}
}

// Delete removes a finished job. It reports whether a job was removed.
func (js *JobStore) Delete(id string) bool {
	js.mu.Lock()
	defer js.mu.Unlock()

	job, exists := js.jobs[id]
	if !exists || !job.Status.Finished() {
		return false
	}
	delete(js.jobs, id)
	js.closeSubscribers(id)
	return true
}

func (js *JobStore) Count() int {
	js.mu.RLock()
	defer js.mu.RUnlock()
	return len(js.jobs)
}

// Subscribe opens a progress feed for job id. The feed receives every update
// published after the call and is closed when the job completes or cancel is
// called. A finished job yields an already closed feed.
func (js *JobStore) Subscribe(id string) (<-chan checker.ProgressUpdate, func(), bool) {
	js.mu.Lock()
	defer js.mu.Unlock()

	job, exists := js.jobs[id]
	if !exists {
		return nil, nil, false
	}

	ch := make(chan checker.ProgressUpdate, progressBuffer)
	if job.Status.Finished() {
		close(ch)
		return ch, func() {}, true
	}
	js.subscribers[id] = append(js.subscribers[id], ch)

	var once sync.Once
	cancel := func() {
		once.Do(func() { js.unsubscribe(id, ch) })
	}
	return ch, cancel, true
}

// Publish hands update to every subscriber of job id. A subscriber whose
// buffer is full misses the update.
func (js *JobStore) Publish(id string, update checker.ProgressUpdate) {
	js.mu.RLock()
	defer js.mu.RUnlock()

	for _, ch := range js.subscribers[id] {
		select {
		case ch <- update:
		default:
		}
	}
}

func (js *JobStore) unsubscribe(id string, ch chan checker.ProgressUpdate) {
	js.mu.Lock()
	defer js.mu.Unlock()

	subs := js.subscribers[id]
	for i, sub := range subs {
		if sub != ch {
			continue
		}
		close(ch)
		subs = append(subs[:i:i], subs[i+1:]...)
		if len(subs) == 0 {
			delete(js.subscribers, id)
		} else {
			js.subscribers[id] = subs
		}
		return
	}
}

// closeSubscribers must be called with mu held.
func (js *JobStore) closeSubscribers(id string) {
	for _, ch := range js.subscribers[id] {
		close(ch)
	}
	delete(js.subscribers, id)
}
