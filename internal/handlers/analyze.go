package handlers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/vaibh/video-analyzer/internal/prompts"
	"github.com/vaibh/video-analyzer/internal/queue"
	"github.com/vaibh/video-analyzer/internal/types"
)

// APIKeyLookup resolves the configured key for a provider, "" when unset
type APIKeyLookup func(provider string) string

// AnalyzeHandler validates analysis requests and creates background jobs
type AnalyzeHandler struct {
	store     *queue.Store
	pool      *queue.WorkerPool
	uploadDir string
	apiKey    APIKeyLookup
	prompts   *prompts.Manager

	defaultChunkMinutes float64
	defaultSplitMode    string
}

// NewAnalyzeHandler creates a new analyze handler
func NewAnalyzeHandler(store *queue.Store, pool *queue.WorkerPool, uploadDir string, apiKey APIKeyLookup, pm *prompts.Manager, defaultChunkMinutes float64, defaultSplitMode string) *AnalyzeHandler {
	return &AnalyzeHandler{
		store:               store,
		pool:                pool,
		uploadDir:           uploadDir,
		apiKey:              apiKey,
		prompts:             pm,
		defaultChunkMinutes: defaultChunkMinutes,
		defaultSplitMode:    defaultSplitMode,
	}
}

// Handle validates the job spec and enqueues a job. Validation failures are
// rejected here with 400; no job is created for a bad spec.
func (h *AnalyzeHandler) Handle(c *fiber.Ctx) error {
	filename := c.FormValue("filename")
	if filename == "" || filename != filepath.Base(filename) {
		return badRequest(c, "Filename is required", "ERR_NO_FILENAME")
	}

	filePath := filepath.Join(h.uploadDir, filename)
	if _, err := os.Stat(filePath); err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "Video file not found",
			"code":  "ERR_FILE_NOT_FOUND",
		})
	}

	provider := c.FormValue("provider")
	if provider != types.ProviderGemini && provider != types.ProviderOpenRouter {
		return badRequest(c, fmt.Sprintf("Unknown provider %q", provider), "ERR_INVALID_PROVIDER")
	}
	if h.apiKey(provider) == "" {
		return badRequest(c, fmt.Sprintf("API key for %s not configured", provider), "ERR_NO_API_KEY")
	}

	model := c.FormValue("model")
	if model == "" {
		return badRequest(c, "Model is required", "ERR_NO_MODEL")
	}

	videoType := c.FormValue("video_type")
	customPrompt := c.FormValue("custom_prompt")
	if strings.TrimSpace(customPrompt) == "" {
		if !prompts.IsValidType(videoType) {
			return badRequest(c, fmt.Sprintf("Unknown video type %q", videoType), "ERR_INVALID_VIDEO_TYPE")
		}
		if !h.prompts.IsAvailable(videoType) {
			return badRequest(c, fmt.Sprintf("No prompt template installed for video type %q", videoType), "ERR_INVALID_VIDEO_TYPE")
		}
	}

	splitMode := c.FormValue("split_mode", h.defaultSplitMode)
	if splitMode != types.SplitFixed && splitMode != types.SplitSilenceAware {
		return badRequest(c, fmt.Sprintf("Unknown split mode %q", splitMode), "ERR_INVALID_SPLIT_MODE")
	}

	chunkMinutes := h.defaultChunkMinutes
	if raw := c.FormValue("chunk_duration_minutes"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			return badRequest(c, "Chunk duration must be a positive number of minutes", "ERR_INVALID_CHUNK_DURATION")
		}
		chunkMinutes = parsed
	}

	withKeyframes := c.FormValue("with_keyframes") == "true"

	job := h.store.Create(queue.JobSpec{
		FilePath:          filePath,
		VideoName:         strings.TrimSuffix(filename, filepath.Ext(filename)),
		VideoType:         videoType,
		Provider:          provider,
		Model:             model,
		CustomPrompt:      customPrompt,
		WithKeyframes:     withKeyframes,
		KeyframesCriteria: c.FormValue("keyframes_criteria"),
		ChunkDuration:     chunkMinutes * 60,
		SplitMode:         splitMode,
	})

	h.pool.Enqueue(job)

	return c.JSON(fiber.Map{
		"job_id": job.ID,
		"status": types.StatusPending,
	})
}

// Status returns a consistent snapshot of one job
func (h *AnalyzeHandler) Status(c *fiber.Ctx) error {
	view, err := h.store.View(c.Params("id"))
	if err != nil {
		if errors.Is(err, queue.ErrJobNotFound) {
			return c.Status(404).JSON(fiber.Map{
				"error": "Job not found",
				"code":  "ERR_JOB_NOT_FOUND",
			})
		}
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(view)
}

// Cancel marks a job so its worker stops before the next stage
func (h *AnalyzeHandler) Cancel(c *fiber.Ctx) error {
	if err := h.store.Cancel(c.Params("id")); err != nil {
		if errors.Is(err, queue.ErrJobNotFound) {
			return c.Status(404).JSON(fiber.Map{
				"error": "Job not found",
				"code":  "ERR_JOB_NOT_FOUND",
			})
		}
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"job_id": c.Params("id"),
		"status": "cancelling",
	})
}

func badRequest(c *fiber.Ctx, msg, code string) error {
	return c.Status(400).JSON(fiber.Map{
		"error": msg,
		"code":  code,
	})
}
