package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/vaibh/video-analyzer/internal/analysis"
	"github.com/vaibh/video-analyzer/internal/media"
	"github.com/vaibh/video-analyzer/internal/prompts"
	"github.com/vaibh/video-analyzer/internal/storage"
	"github.com/vaibh/video-analyzer/internal/types"
)

// Pipeline stages. Each job advances through these in order; any stage can
// route to the terminal failed state.
type stage int

const (
	stagePlan stage = iota
	stageExtract
	stageAnalyze
	stageMerge
	stageSave
	stageDone
)

// Progress weights per stage boundary
const (
	progressPlanned   = 5
	progressExtracted = 20
	progressAnalyzed  = 95
)

// AnalyzerFactory builds a provider client for a job's provider/model pair
type AnalyzerFactory func(provider, model string) (analysis.Analyzer, error)

// PlannerConfig carries the silence-aware planning knobs
type PlannerConfig struct {
	SearchWindow float64
	MinSilence   float64
	NoiseDB      float64
}

// WorkerPool runs analysis jobs from a queue with a bounded worker count
type WorkerPool struct {
	jobQueue    chan *Job
	workerCount int
	tempDir     string

	planner      PlannerConfig
	detector     *media.SilenceDetector
	extractor    *media.Extractor
	prompts      *prompts.Manager
	newAnalyzer  AnalyzerFactory
	localStorage *storage.LocalStorage
	driveClient  *storage.DriveClient
	db           *storage.MetadataDB
}

// NewWorkerPool creates a worker pool over the given collaborators.
// driveClient and db may be nil; both are optional sinks.
func NewWorkerPool(
	workerCount int,
	tempDir string,
	planner PlannerConfig,
	extractor *media.Extractor,
	pm *prompts.Manager,
	newAnalyzer AnalyzerFactory,
	localStorage *storage.LocalStorage,
	driveClient *storage.DriveClient,
	db *storage.MetadataDB,
) *WorkerPool {
	return &WorkerPool{
		jobQueue:     make(chan *Job, 100),
		workerCount:  workerCount,
		tempDir:      tempDir,
		planner:      planner,
		detector:     media.NewSilenceDetector(planner.NoiseDB, planner.MinSilence),
		extractor:    extractor,
		prompts:      pm,
		newAnalyzer:  newAnalyzer,
		localStorage: localStorage,
		driveClient:  driveClient,
		db:           db,
	}
}

// Start launches the workers
func (wp *WorkerPool) Start() {
	log.Printf("Starting worker pool with %d workers", wp.workerCount)
	for i := 0; i < wp.workerCount; i++ {
		go wp.worker(i)
	}
}

// Enqueue hands a pending job to the pool
func (wp *WorkerPool) Enqueue(job *Job) {
	wp.jobQueue <- job
	log.Printf("Job %s enqueued (video: %s, provider: %s)", job.ID, job.Spec.VideoName, job.Spec.Provider)
}

func (wp *WorkerPool) worker(id int) {
	log.Printf("Worker %d started", id)

	for job := range wp.jobQueue {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("Worker %d: PANIC processing job %s: %v\n%s", id, job.ID, r, string(debug.Stack()))
					job.Fail(fmt.Sprintf("Internal error: %v", r))
				}
			}()
			wp.processJob(id, job)
		}()
	}
}

// pipelineState accumulates intermediates across stages of one job
type pipelineState struct {
	info     *types.VideoInfo
	prompt   string
	analyzer analysis.Analyzer
	spans    []media.ChunkSpan
	chunks   []media.Chunk
	analyses []analysis.ChunkAnalysis
	merged   string
}

// processJob drives one job through the stage machine. Cancellation and a
// deleted source file stop the job before the next stage starts; the stage
// already in flight is left to finish.
func (wp *WorkerPool) processJob(workerID int, job *Job) {
	log.Printf("Worker %d: Processing job %s", workerID, job.ID)

	ctx := context.Background()
	state := &pipelineState{}
	jobTempDir := filepath.Join(wp.tempDir, job.ID)
	defer func() {
		if err := os.RemoveAll(jobTempDir); err != nil {
			log.Printf("Failed to clean up temp dir %s: %v", jobTempDir, err)
		}
	}()

	for st := stagePlan; st != stageDone; {
		if job.isCancelled() {
			job.Fail("Job cancelled")
			return
		}
		if _, err := os.Stat(job.Spec.FilePath); err != nil {
			job.Fail("Job cancelled: source video no longer exists")
			return
		}

		var err error
		switch st {
		case stagePlan:
			err = wp.runPlan(ctx, job, state)
		case stageExtract:
			err = wp.runExtract(ctx, job, state, jobTempDir)
		case stageAnalyze:
			err = wp.runAnalyze(ctx, job, state)
		case stageMerge:
			err = wp.runMerge(job, state)
		case stageSave:
			err = wp.runSave(job, state)
		}
		if err != nil {
			log.Printf("Worker %d: Job %s failed at stage %d: %v", workerID, job.ID, st, err)
			job.Fail(err.Error())
			return
		}
		st++
	}

	job.Complete(state.merged)
	log.Printf("Worker %d: Job %s completed (%d chunks)", workerID, job.ID, len(state.chunks))
}

// runPlan probes the video, resolves the prompt and plans chunk boundaries
func (wp *WorkerPool) runPlan(ctx context.Context, job *Job, state *pipelineState) error {
	job.setProgress(1, "Probing video")

	info, err := media.Probe(ctx, job.Spec.FilePath)
	if err != nil {
		return fmt.Errorf("Failed to read video metadata: %v", err)
	}
	state.info = info

	if job.Spec.CustomPrompt != "" {
		state.prompt = job.Spec.CustomPrompt
		if job.Spec.WithKeyframes {
			if criteria := wp.keyframesCriteria(job); criteria != "" {
				state.prompt += "\n\n" + criteria
			}
		}
	} else {
		prompt, err := wp.prompts.Load(job.Spec.VideoType, job.Spec.WithKeyframes, job.Spec.KeyframesCriteria)
		if err != nil {
			return fmt.Errorf("Failed to load prompt template: %v", err)
		}
		state.prompt = prompt
	}

	analyzer, err := wp.newAnalyzer(job.Spec.Provider, job.Spec.Model)
	if err != nil {
		return fmt.Errorf("Failed to initialize provider: %v", err)
	}
	state.analyzer = analyzer

	job.setProgress(3, "Planning chunks")
	spans, err := media.PlanChunks(ctx, job.Spec.FilePath, info.Duration, media.PlanOptions{
		ChunkDuration: job.Spec.ChunkDuration,
		Mode:          job.Spec.SplitMode,
		SearchWindow:  wp.planner.SearchWindow,
		MinSilence:    wp.planner.MinSilence,
	}, wp.detector)
	if err != nil {
		return fmt.Errorf("Failed to plan chunks: %v", err)
	}
	state.spans = spans

	job.setProgress(progressPlanned, fmt.Sprintf("Planned %d chunk(s)", len(spans)))
	return nil
}

func (wp *WorkerPool) keyframesCriteria(job *Job) string {
	if job.Spec.KeyframesCriteria != "" {
		return job.Spec.KeyframesCriteria
	}
	return wp.prompts.KeyframesCriteriaDefault()
}

// runExtract materializes every planned chunk as an independent file
func (wp *WorkerPool) runExtract(ctx context.Context, job *Job, state *pipelineState, jobTempDir string) error {
	job.setProgress(progressPlanned+1, fmt.Sprintf("Extracting %d chunk(s)", len(state.spans)))

	chunks, err := wp.extractor.ExtractChunks(ctx, job.Spec.FilePath, state.spans, jobTempDir)
	if err != nil {
		var chunkErr *media.ChunkExtractionError
		if errors.As(err, &chunkErr) {
			return fmt.Errorf("Failed to extract chunk %d: %v", chunkErr.Index+1, chunkErr.Err)
		}
		return fmt.Errorf("Failed to extract chunks: %v", err)
	}
	state.chunks = chunks

	job.setProgress(progressExtracted, "Chunks extracted")
	return nil
}

// runAnalyze sends each chunk to the provider in chunk order, spreading
// progress evenly across chunks
func (wp *WorkerPool) runAnalyze(ctx context.Context, job *Job, state *pipelineState) error {
	total := len(state.chunks)

	for i, chunk := range state.chunks {
		if job.isCancelled() {
			return errors.New("Job cancelled")
		}

		job.setProgress(
			progressExtracted+int(float64(i)/float64(total)*float64(progressAnalyzed-progressExtracted)),
			fmt.Sprintf("Analyzing chunk %d/%d", i+1, total),
		)

		text, err := analysis.AnalyzeWithRetry(ctx, state.analyzer, chunk.Path, state.prompt, analysis.ChunkContext{
			Number:       chunk.Index + 1,
			Total:        total,
			StartSeconds: chunk.Start,
			EndSeconds:   chunk.End,
		})
		if err != nil {
			if errors.Is(err, analysis.ErrAuth) {
				return fmt.Errorf("Authentication error on chunk %d: %v", i+1, err)
			}
			return fmt.Errorf("Analysis failed on chunk %d: %v", i+1, err)
		}

		state.analyses = append(state.analyses, analysis.ChunkAnalysis{
			Index: chunk.Index,
			Start: chunk.Start,
			End:   chunk.End,
			Text:  text,
		})
	}

	job.setProgress(progressAnalyzed, "All chunks analyzed")
	return nil
}

// runMerge combines ordered chunk analyses into one document with global
// timecodes
func (wp *WorkerPool) runMerge(job *Job, state *pipelineState) error {
	job.setProgress(progressAnalyzed, "Combining analyses")
	state.merged = analysis.MergeAnalyses(state.analyses)
	if state.merged == "" {
		return errors.New("Analysis produced no output")
	}
	return nil
}

// runSave writes the report to disk, indexes it and optionally mirrors it
// to Drive. Drive and index failures are logged, not fatal.
func (wp *WorkerPool) runSave(job *Job, state *pipelineState) error {
	job.setProgress(progressAnalyzed+2, "Saving results")

	result := &types.AnalysisResult{
		JobID:       job.ID,
		VideoName:   job.Spec.VideoName,
		VideoType:   job.Spec.VideoType,
		Provider:    job.Spec.Provider,
		Model:       job.Spec.Model,
		Duration:    state.info.Duration,
		ChunkCount:  len(state.chunks),
		Markdown:    state.merged,
		ProcessedAt: time.Now(),
	}

	localPath, err := wp.localStorage.SaveReport(result)
	if err != nil {
		return fmt.Errorf("Failed to save report: %v", err)
	}
	result.LocalPath = localPath

	if wp.driveClient != nil {
		for attempt := 1; attempt <= 3; attempt++ {
			url, err := wp.driveClient.UploadReport(result)
			if err == nil {
				result.GDriveURL = url
				break
			}
			log.Printf("Google Drive upload attempt %d/3 failed for job %s: %v", attempt, job.ID, err)
			if attempt < 3 {
				time.Sleep(time.Duration(attempt*attempt) * time.Second)
			}
		}
	}

	if wp.db != nil {
		if err := wp.db.SaveAnalysis(result); err != nil {
			log.Printf("Failed to index analysis for job %s: %v", job.ID, err)
		}
	}

	return nil
}
