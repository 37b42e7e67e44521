package handlers

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/vaibh/video-analyzer/internal/media"
	"github.com/vaibh/video-analyzer/internal/promptgen"
	"github.com/vaibh/video-analyzer/internal/queue"
	"github.com/vaibh/video-analyzer/internal/types"
)

// KeyframesHandler extracts still frames from an uploaded video and streams
// them back as a zip archive
type KeyframesHandler struct {
	uploadDir string
	store     *queue.Store
	archiver  *media.FrameArchiver
}

// NewKeyframesHandler creates a new keyframes handler
func NewKeyframesHandler(uploadDir string, store *queue.Store, archiver *media.FrameArchiver) *KeyframesHandler {
	return &KeyframesHandler{
		uploadDir: uploadDir,
		store:     store,
		archiver:  archiver,
	}
}

type keyframesRequest struct {
	JobID     string           `json:"job_id"`
	Filename  string           `json:"filename"`
	Keyframes []types.Keyframe `json:"keyframes"`
}

// Handle captures one frame per requested keyframe. The request either names
// a finished job, whose analysis text is parsed for the keyframe list, or
// carries an explicit filename plus keyframes. Out-of-range and failed
// captures are reported in the archive manifest and the X-Keyframes-Failed
// header; the call succeeds as long as the archive itself can be produced.
func (h *KeyframesHandler) Handle(c *fiber.Ctx) error {
	var req keyframesRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", "ERR_BAD_REQUEST")
	}

	var videoPath string
	keyframes := req.Keyframes

	if req.JobID != "" {
		job, err := h.store.Lookup(req.JobID)
		if err != nil {
			return c.Status(404).JSON(fiber.Map{
				"error": "Job not found",
				"code":  "ERR_JOB_NOT_FOUND",
			})
		}
		view := job.View()
		if view.Status != types.StatusCompleted || view.Result == nil {
			return c.Status(409).JSON(fiber.Map{
				"error": "Job has no analysis result yet",
				"code":  "ERR_JOB_NOT_DONE",
			})
		}
		if len(keyframes) == 0 {
			keyframes = promptgen.ParseKeyframes(*view.Result)
		}
		if len(keyframes) == 0 {
			return badRequest(c, "Analysis contains no keyframe list", "ERR_NO_KEYFRAMES")
		}
		videoPath = job.Spec.FilePath
	} else {
		if req.Filename == "" || req.Filename != filepath.Base(req.Filename) {
			return badRequest(c, "Filename is required", "ERR_NO_FILENAME")
		}
		videoPath = filepath.Join(h.uploadDir, req.Filename)
	}

	if _, err := os.Stat(videoPath); err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "Video file not found",
			"code":  "ERR_FILE_NOT_FOUND",
		})
	}

	filename := filepath.Base(videoPath)
	info, err := media.Probe(c.Context(), videoPath)
	if err != nil {
		log.Printf("Failed to probe %s for keyframes: %v", filename, err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to read video metadata",
			"code":  "ERR_PROBE_FAILED",
		})
	}

	var buf bytes.Buffer
	failures, err := h.archiver.Archive(c.Context(), videoPath, info.Duration, keyframes, &buf)
	if err != nil {
		log.Printf("Keyframe archive failed for %s: %v", filename, err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to build keyframes archive",
			"code":  "ERR_ARCHIVE_FAILED",
		})
	}

	stem := filename[:len(filename)-len(filepath.Ext(filename))]
	c.Set("Content-Type", "application/zip")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_keyframes.zip"`, stem))
	c.Set("X-Keyframes-Failed", fmt.Sprintf("%d", len(failures)))

	return c.Send(buf.Bytes())
}
