package queue

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vaibh/video-analyzer/internal/types"
)

// ErrJobNotFound is returned when polling an unknown job id
var ErrJobNotFound = errors.New("job not found")

// JobSpec carries everything a worker needs to run one analysis
type JobSpec struct {
	FilePath          string
	VideoName         string
	VideoType         string
	Provider          string
	Model             string
	CustomPrompt      string
	WithKeyframes     bool
	KeyframesCriteria string
	ChunkDuration     float64
	SplitMode         string
}

// Job is one asynchronous analysis unit. All mutable state is guarded by
// the job's own lock: the owning worker writes, any number of pollers read
// consistent snapshots.
type Job struct {
	ID        string
	Spec      JobSpec
	CreatedAt time.Time

	mu        sync.RWMutex
	status    string
	progress  int
	step      string
	result    string
	errMsg    string
	cancelled bool
}

// View returns an atomic snapshot for pollers
func (j *Job) View() types.JobView {
	j.mu.RLock()
	defer j.mu.RUnlock()

	view := types.JobView{
		JobID:       j.ID,
		Status:      j.status,
		Progress:    j.progress,
		CurrentStep: j.step,
	}
	if j.status == types.StatusCompleted {
		result := j.result
		view.Result = &result
	}
	if j.status == types.StatusFailed {
		errMsg := j.errMsg
		view.Error = &errMsg
	}
	return view
}

// setProgress advances the job within the processing state. Progress never
// moves backwards.
func (j *Job) setProgress(progress int, step string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = types.StatusProcessing
	if progress > j.progress {
		j.progress = progress
	}
	j.step = step
}

// Complete transitions to the terminal completed state
func (j *Job) Complete(result string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = types.StatusCompleted
	j.progress = 100
	j.step = "Analysis complete"
	j.result = result
}

// Fail transitions to the terminal failed state with a classified message
func (j *Job) Fail(errMsg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = types.StatusFailed
	j.step = "Failed"
	j.errMsg = errMsg
}

// isCancelled reports whether the job was cancelled; workers check this
// before starting each stage
func (j *Job) isCancelled() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.cancelled
}

// Store keeps all jobs for the process lifetime, keyed by id. Jobs do not
// survive a restart.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewStore creates an empty job store
func NewStore() *Store {
	return &Store{jobs: make(map[string]*Job)}
}

// Create registers a new pending job and returns it
func (s *Store) Create(spec JobSpec) *Job {
	job := &Job{
		ID:        uuid.New().String(),
		Spec:      spec,
		CreatedAt: time.Now(),
		status:    types.StatusPending,
		step:      "Waiting for a worker",
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return job
}

// View returns a snapshot of the job or ErrJobNotFound
func (s *Store) View(jobID string) (types.JobView, error) {
	job, err := s.Lookup(jobID)
	if err != nil {
		return types.JobView{}, err
	}
	return job.View(), nil
}

// Lookup returns the job itself for collaborators that need its spec
func (s *Store) Lookup(jobID string) (*Job, error) {
	s.mu.RLock()
	job, ok := s.jobs[jobID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// Cancel marks a job so its worker stops before the next stage. In-flight
// external calls are not interrupted.
func (s *Store) Cancel(jobID string) error {
	job, err := s.Lookup(jobID)
	if err != nil {
		return err
	}

	job.mu.Lock()
	job.cancelled = true
	job.mu.Unlock()
	return nil
}
