package workers

import (
	"context"
	"sync"
	"time"
)

// Worker defines the interface for background workers
type Worker interface {
	// Start begins processing jobs
	Start(ctx context.Context) error

	// Stop gracefully shuts down the worker
	Stop(ctx context.Context) error

	// Name returns the worker's name
	Name() string

	// IsRunning returns whether the worker is currently running
	IsRunning() bool

	// Stats returns worker statistics
	Stats() WorkerStats
}

// WorkerStats represents statistics about a worker
type WorkerStats struct {
	WorkerName         string        `json:"worker_name"`
	JobsProcessed      int64         `json:"jobs_processed"`
	JobsSucceeded      int64         `json:"jobs_succeeded"`
	JobsFailed         int64         `json:"jobs_failed"`
	JobsDropped        int64         `json:"jobs_dropped"`
	AverageProcessTime time.Duration `json:"average_process_time"`
	LastJobTime        time.Time     `json:"last_job_time,omitempty"`
	Uptime             time.Duration `json:"uptime"`
	IsRunning          bool          `json:"is_running"`
}

// WorkerConfig holds configuration for workers
type WorkerConfig struct {
	// WorkerName is a unique identifier for this worker instance
	WorkerName string

	// Concurrency is the number of jobs to process concurrently
	Concurrency int

	// QueueSize bounds the in-process job queue; enqueues beyond it are
	// dropped rather than blocking the producer
	QueueSize int

	// ShutdownTimeout is how long to wait for graceful shutdown
	ShutdownTimeout time.Duration
}

// DefaultWorkerConfig returns a worker configuration with sensible defaults
func DefaultWorkerConfig(workerName string) WorkerConfig {
	return WorkerConfig{
		WorkerName:      workerName,
		Concurrency:     3,
		QueueSize:       256,
		ShutdownTimeout: 10 * time.Second,
	}
}

// BaseWorker provides common functionality for workers
type BaseWorker struct {
	config  WorkerConfig
	running bool
	mu      sync.RWMutex

	// Stats tracking
	jobsProcessed    int64
	jobsSucceeded    int64
	jobsFailed       int64
	jobsDropped      int64
	totalProcessTime time.Duration
	startTime        time.Time
	lastJobTime      time.Time
	statsMu          sync.RWMutex
}

// NewBaseWorker creates a new base worker
func NewBaseWorker(config WorkerConfig) *BaseWorker {
	return &BaseWorker{
		config: config,
	}
}

// Name returns the worker's name
func (w *BaseWorker) Name() string {
	return w.config.WorkerName
}

// IsRunning returns whether the worker is currently running
func (w *BaseWorker) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// setRunning sets the running state
func (w *BaseWorker) setRunning(running bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.running = running
	if running {
		w.startTime = time.Now()
	}
}

// Stats returns worker statistics
func (w *BaseWorker) Stats() WorkerStats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()

	var avgProcessTime time.Duration
	if w.jobsProcessed > 0 {
		avgProcessTime = w.totalProcessTime / time.Duration(w.jobsProcessed)
	}

	var uptime time.Duration
	if !w.startTime.IsZero() {
		uptime = time.Since(w.startTime)
	}

	return WorkerStats{
		WorkerName:         w.config.WorkerName,
		JobsProcessed:      w.jobsProcessed,
		JobsSucceeded:      w.jobsSucceeded,
		JobsFailed:         w.jobsFailed,
		JobsDropped:        w.jobsDropped,
		AverageProcessTime: avgProcessTime,
		LastJobTime:        w.lastJobTime,
		Uptime:             uptime,
		IsRunning:          w.IsRunning(),
	}
}

// recordJobSuccess records a successful job completion
func (w *BaseWorker) recordJobSuccess(startTime time.Time) {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()

	duration := time.Since(startTime)
	w.jobsProcessed++
	w.jobsSucceeded++
	w.totalProcessTime += duration
	w.lastJobTime = time.Now()
}

// recordJobFailure records a failed job
func (w *BaseWorker) recordJobFailure(startTime time.Time) {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()

	duration := time.Since(startTime)
	w.jobsProcessed++
	w.jobsFailed++
	w.totalProcessTime += duration
	w.lastJobTime = time.Now()
}

// recordJobDropped records a job rejected because the queue was full
func (w *BaseWorker) recordJobDropped() {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.jobsDropped++
}

// Config returns the worker configuration
func (w *BaseWorker) Config() WorkerConfig {
	return w.config
}
