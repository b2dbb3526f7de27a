package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/akthammomani/maestro-finder/internal/errors"
	"github.com/akthammomani/maestro-finder/internal/pipeline"
	"github.com/akthammomani/maestro-finder/internal/progress"
)

// Job status constants
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusComplete   JobStatus = "complete"
	StatusRejected   JobStatus = "rejected"
	StatusFailed     JobStatus = "failed"
)

// Job represents one prediction request. Identity fields are written once
// before the processing goroutine starts; the mutable state behind the
// mutex is written by Process and read concurrently by the HTTP handlers.
type Job struct {
	ID        string
	Filename  string
	InputPath string
	WorkDir   string
	Updates   chan string
	CreatedAt time.Time

	mu     sync.RWMutex
	status JobStatus
	stage  string
	result *pipeline.Result
	errMsg string
	reason string
}

// jobState is a point-in-time view of a job's mutable state.
type jobState struct {
	Status JobStatus
	Stage  string
	Result *pipeline.Result
	Error  string
	Reason string // machine-readable rejection code, empty unless rejected
}

func (j *Job) state() jobState {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return jobState{
		Status: j.status,
		Stage:  j.stage,
		Result: j.result,
		Error:  j.errMsg,
		Reason: j.reason,
	}
}

func (j *Job) setProcessing(stage string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = StatusProcessing
	j.stage = stage
}

func (j *Job) setRejected(reason, msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = StatusRejected
	j.reason = reason
	j.errMsg = msg
}

func (j *Job) setFailed(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = StatusFailed
	j.errMsg = msg
}

func (j *Job) setComplete(result *pipeline.Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = StatusComplete
	j.stage = "Complete!"
	j.result = result
}

// JobManager manages prediction jobs
type JobManager struct {
	jobs       map[string]*Job
	mu         sync.RWMutex
	classifier pipeline.Predictor
	cfg        pipeline.Config
	logger     *slog.Logger
}

// NewJobManager creates a new job manager
func NewJobManager(classifier pipeline.Predictor, cfg pipeline.Config, logger *slog.Logger) *JobManager {
	return &JobManager{
		jobs:       make(map[string]*Job),
		classifier: classifier,
		cfg:        cfg,
		logger:     logger,
	}
}

// Create creates a new job with its own work directory
func (m *JobManager) Create() *Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	workDir, _ := os.MkdirTemp("", "maestro-job-*")

	job := &Job{
		ID:        uuid.New().String(),
		status:    StatusPending,
		stage:     "Uploading...",
		WorkDir:   workDir,
		Updates:   make(chan string, 10),
		CreatedAt: time.Now(),
	}

	m.jobs[job.ID] = job
	return job
}

// Get retrieves a job by ID
func (m *JobManager) Get(id string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

// Process runs the prediction pipeline for a job
func (m *JobManager) Process(job *Job) {
	defer close(job.Updates)
	defer func() {
		// evict after 10 minutes so result polling has a window
		time.AfterFunc(10*time.Minute, func() {
			os.RemoveAll(job.WorkDir)
			m.mu.Lock()
			delete(m.jobs, job.ID)
			m.mu.Unlock()
		})
	}()

	job.setProcessing("Analyzing composition...")
	job.Updates <- "Analyzing composition..."

	orch := pipeline.NewOrchestrator(m.classifier, m.cfg, progress.NewReporter(io.Discard, false))

	ctx := context.Background()
	result, err := orch.PredictFile(ctx, job.InputPath)
	if err != nil {
		if reason := apperrors.Reason(err); reason != "" {
			job.setRejected(reason, err.Error())
			job.Updates <- fmt.Sprintf("Rejected: %s", err)
			return
		}
		// contract violations and internal failures are logged, never
		// coerced into a default prediction
		m.logger.Error("prediction failed", slog.String("job", job.ID), slog.Any("error", err))
		job.setFailed("internal error during analysis")
		job.Updates <- "Error: internal error during analysis"
		return
	}

	job.setComplete(result)
	job.Updates <- "Complete!"
}
