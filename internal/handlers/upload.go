package handlers

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/vaibh/video-analyzer/internal/media"
)

var allowedVideoExtensions = map[string]bool{
	".mp4": true, ".avi": true, ".mov": true, ".mkv": true,
	".webm": true, ".m4v": true, ".wmv": true, ".flv": true,
}

// ValidateVideoFormat reports whether the filename has a supported container extension
func ValidateVideoFormat(filename string) bool {
	return allowedVideoExtensions[strings.ToLower(filepath.Ext(filename))]
}

// UploadHandler handles video file uploads
type UploadHandler struct {
	uploadDir string
	maxSizeMB int
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploadDir string, maxSizeMB int) *UploadHandler {
	return &UploadHandler{
		uploadDir: uploadDir,
		maxSizeMB: maxSizeMB,
	}
}

// Handle processes the upload request
func (h *UploadHandler) Handle(c *fiber.Ctx) error {
	// Get uploaded file
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "No file uploaded",
			"code":  "ERR_NO_FILE",
		})
	}

	// Validate file size
	maxSize := int64(h.maxSizeMB) * 1024 * 1024
	if file.Size > maxSize {
		return c.Status(400).JSON(fiber.Map{
			"error": fmt.Sprintf("File too large (max %dMB)", h.maxSizeMB),
			"code":  "ERR_FILE_TOO_LARGE",
		})
	}

	// Validate file format
	if !ValidateVideoFormat(file.Filename) {
		return c.Status(400).JSON(fiber.Map{
			"error": "Unsupported video format",
			"code":  "ERR_INVALID_FORMAT",
		})
	}

	// Generate unique filename, keeping the original stem for readability
	fileID := uuid.New().String()[:8]
	extension := strings.ToLower(filepath.Ext(file.Filename))
	stem := strings.TrimSuffix(filepath.Base(file.Filename), filepath.Ext(file.Filename))
	safeName := fmt.Sprintf("%s_%s%s", fileID, stem, extension)
	destPath := filepath.Join(h.uploadDir, safeName)

	// Save file
	if err := c.SaveFile(file, destPath); err != nil {
		log.Printf("Failed to save uploaded file: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to save file",
			"code":  "ERR_SAVE_FAILED",
		})
	}

	// Probe container metadata so the client can show duration before analysis
	info, err := media.Probe(c.Context(), destPath)
	if err != nil {
		log.Printf("Failed to probe uploaded file %s: %v", safeName, err)
		return c.Status(400).JSON(fiber.Map{
			"error": "File is not a readable video",
			"code":  "ERR_PROBE_FAILED",
		})
	}

	return c.JSON(fiber.Map{
		"file_id":       fileID,
		"filename":      safeName,
		"original_name": file.Filename,
		"size_bytes":    file.Size,
		"video_info":    info,
	})
}
