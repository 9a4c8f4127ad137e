package server

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/user/leekcheck/internal/checker"
	"github.com/user/leekcheck/internal/storage"
)

var (
	ErrQueueFull    = errors.New("job queue is full")
	ErrPoolStopping = errors.New("worker pool is shutting down")
)

// WorkerPool runs queued check jobs on a fixed number of goroutines. Each job
// runs its keys through a checker.Runner and relays progress to the job
// store's subscribers.
type WorkerPool struct {
	workers     int
	jobQueue    chan string
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	jobStore    *storage.JobStore
	checkConfig checker.Config
	log         logrus.FieldLogger
	activeJobs  map[string]context.CancelFunc
	mu          sync.Mutex
	stopped     bool
}

func NewWorkerPool(numWorkers, queueSize int, checkConfig checker.Config, jobStore *storage.JobStore, log logrus.FieldLogger) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if queueSize < 1 {
		queueSize = numWorkers * 2
	}
	// The terminal progress bar has no place in a service.
	checkConfig.ShowProgress = false

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		workers:     numWorkers,
		jobQueue:    make(chan string, queueSize),
		ctx:         ctx,
		cancel:      cancel,
		jobStore:    jobStore,
		checkConfig: checkConfig,
		log:         log,
		activeJobs:  make(map[string]context.CancelFunc),
	}
}

// Start launches the workers.
func (wp *WorkerPool) Start() {
	wp.log.WithField("workers", wp.workers).Info("Starting worker pool")

	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop cancels running jobs and waits for the workers to exit. It is safe to
// call more than once.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if wp.stopped {
		wp.mu.Unlock()
		return
	}
	wp.stopped = true
	wp.cancel()
	close(wp.jobQueue)
	wp.mu.Unlock()

	wp.wg.Wait()
	wp.log.Info("Worker pool stopped")
}

// Submit queues jobID without blocking. It fails with ErrQueueFull when the
// queue is at capacity and ErrPoolStopping after Stop.
func (wp *WorkerPool) Submit(jobID string) error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.stopped {
		return ErrPoolStopping
	}
	select {
	case wp.jobQueue <- jobID:
		return nil
	default:
		return ErrQueueFull
	}
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	log := wp.log.WithField("worker", id)
	log.Debug("Worker started")

	for {
		select {
		case jobID, ok := <-wp.jobQueue:
			if !ok {
				log.Debug("Worker stopping")
				return
			}

			log.WithField("job_id", jobID).Debug("Processing job")
			wp.processJob(jobID)

		case <-wp.ctx.Done():
			log.Debug("Worker stopping due to context cancellation")
			return
		}
	}
}

// TerminateJob cancels the run of jobID if it is in progress. The job status
// is set by the caller; a job still in the queue is skipped when its status
// is no longer queued.
func (wp *WorkerPool) TerminateJob(jobID string) {
	wp.mu.Lock()
	if cancel, exists := wp.activeJobs[jobID]; exists {
		cancel()
		delete(wp.activeJobs, jobID)
	}
	wp.mu.Unlock()
}

func (wp *WorkerPool) processJob(jobID string) {
	job, exists := wp.jobStore.Get(jobID)
	if !exists {
		return
	}

	jobCtx, jobCancel := context.WithCancel(wp.ctx)

	wp.mu.Lock()
	wp.activeJobs[jobID] = jobCancel
	wp.mu.Unlock()

	defer func() {
		wp.mu.Lock()
		delete(wp.activeJobs, jobID)
		wp.mu.Unlock()
		jobCancel()
	}()

	log := wp.log.WithField("job_id", jobID)

	// A job terminated while queued never starts.
	if !wp.jobStore.UpdateStatus(jobID, storage.JobRunning) {
		wp.jobStore.Complete(jobID, nil, nil)
		log.Info("Job terminated before start")
		return
	}

	progress := make(chan checker.ProgressUpdate, job.Total)
	relayed := make(chan struct{})
	go func() {
		defer close(relayed)
		for update := range progress {
			wp.jobStore.Publish(jobID, update)
		}
	}()

	runner := checker.NewRunner(wp.checkConfig, log)
	runner.SetProgressChannel(progress)

	results, err := runner.Run(jobCtx, job.Sources)
	close(progress)
	<-relayed
	wp.jobStore.Complete(jobID, results, err)

	if err != nil {
		log.WithError(err).Warn("Job failed")
		return
	}
	summary := checker.Summarize(results)
	log.WithFields(logrus.Fields{
		"passed":     summary.Passed,
		"mismatched": summary.Mismatched,
		"errored":    summary.Errored,
	}).Info("Job completed")
}
