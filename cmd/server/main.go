package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"gopkg.in/yaml.v3"

	"github.com/vaibh/video-analyzer/internal/analysis"
	"github.com/vaibh/video-analyzer/internal/cleanup"
	"github.com/vaibh/video-analyzer/internal/handlers"
	"github.com/vaibh/video-analyzer/internal/media"
	"github.com/vaibh/video-analyzer/internal/promptgen"
	"github.com/vaibh/video-analyzer/internal/prompts"
	"github.com/vaibh/video-analyzer/internal/queue"
	"github.com/vaibh/video-analyzer/internal/storage"
	"github.com/vaibh/video-analyzer/internal/types"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	} `yaml:"server"`

	Providers struct {
		Gemini struct {
			APIKey string `yaml:"api_key"`
			Model  string `yaml:"model"`
		} `yaml:"gemini"`
		OpenRouter struct {
			APIKey string `yaml:"api_key"`
			Model  string `yaml:"model"`
		} `yaml:"openrouter"`
	} `yaml:"providers"`

	Chunking struct {
		DurationMinutes     float64 `yaml:"duration_minutes"`
		SplitMode           string  `yaml:"split_mode"`
		SearchWindowSeconds float64 `yaml:"search_window_seconds"`
		MinSilenceSeconds   float64 `yaml:"min_silence_seconds"`
		NoiseDB             float64 `yaml:"noise_db"`
	} `yaml:"chunking"`

	Workers struct {
		Count            int `yaml:"count"`
		ParallelExtracts int `yaml:"parallel_extracts"`
	} `yaml:"workers"`

	Storage struct {
		UploadDir  string `yaml:"upload_dir"`
		TempDir    string `yaml:"temp_dir"`
		OutputDir  string `yaml:"output_dir"`
		PromptsDir string `yaml:"prompts_dir"`
		Database   string `yaml:"database"`
	} `yaml:"storage"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`

	GoogleDrive struct {
		CredentialsFile string `yaml:"credentials_file"`
		TokenFile       string `yaml:"token_file"`
		FolderName      string `yaml:"folder_name"`
	} `yaml:"google_drive"`

	Limits struct {
		MaxFileSizeMB int `yaml:"max_file_size_mb"`
	} `yaml:"limits"`
}

func main() {
	// Load configuration
	config, err := loadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ensure directories exist
	for _, dir := range []string{config.Storage.UploadDir, config.Storage.TempDir, config.Storage.OutputDir, filepath.Dir(config.Storage.Database)} {
		if err := cleanup.EnsureDirExists(dir); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}

	// Custom logger setup
	logBuffer := &LogBuffer{
		lines: make([]string, 0, 1000),
	}
	multiWriter := io.MultiWriter(os.Stdout, logBuffer)
	log.SetOutput(multiWriter)

	// Initialize components
	log.Println("Initializing components...")

	apiKey := func(provider string) string {
		switch provider {
		case types.ProviderGemini:
			return config.Providers.Gemini.APIKey
		case types.ProviderOpenRouter:
			return config.Providers.OpenRouter.APIKey
		}
		return ""
	}

	newAnalyzer := func(provider, model string) (analysis.Analyzer, error) {
		return analysis.NewAnalyzer(provider, model, apiKey(provider))
	}

	promptManager := prompts.NewManager(config.Storage.PromptsDir)

	// Local storage
	localStorage := storage.NewLocalStorage(config.Storage.OutputDir)

	// Google Drive client (optional - may fail if credentials not set up)
	var driveClient *storage.DriveClient
	if _, err := os.Stat(config.GoogleDrive.CredentialsFile); err == nil {
		driveClient, err = storage.NewDriveClient(
			config.GoogleDrive.CredentialsFile,
			config.GoogleDrive.TokenFile,
			config.GoogleDrive.FolderName,
		)
		if err != nil {
			log.Printf("WARNING: Google Drive not available: %v", err)
			log.Println("Reports will only be saved locally")
			driveClient = nil
		} else {
			log.Println("Google Drive integration enabled")
		}
	} else {
		log.Println("Google Drive credentials not found - saving locally only")
	}

	// Database
	db, err := storage.NewMetadataDB(config.Storage.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Job store and worker pool
	jobStore := queue.NewStore()
	workerPool := queue.NewWorkerPool(
		config.Workers.Count,
		config.Storage.TempDir,
		queue.PlannerConfig{
			SearchWindow: config.Chunking.SearchWindowSeconds,
			MinSilence:   config.Chunking.MinSilenceSeconds,
			NoiseDB:      config.Chunking.NoiseDB,
		},
		media.NewExtractor(config.Workers.ParallelExtracts),
		promptManager,
		newAnalyzer,
		localStorage,
		driveClient,
		db,
	)
	workerPool.Start()

	// Cleanup scheduler
	cleanupScheduler := cleanup.NewScheduler(
		[]string{config.Storage.TempDir, config.Storage.UploadDir},
		config.Cleanup.IntervalMinutes,
		config.Cleanup.MaxAgeHours,
	)
	cleanupScheduler.Start()
	defer cleanupScheduler.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: config.Limits.MaxFileSizeMB * 1024 * 1024,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	// Initialize handlers
	uploadHandler := handlers.NewUploadHandler(config.Storage.UploadDir, config.Limits.MaxFileSizeMB)
	analyzeHandler := handlers.NewAnalyzeHandler(
		jobStore,
		workerPool,
		config.Storage.UploadDir,
		apiKey,
		promptManager,
		config.Chunking.DurationMinutes,
		config.Chunking.SplitMode,
	)
	keyframesHandler := handlers.NewKeyframesHandler(
		config.Storage.UploadDir,
		jobStore,
		media.NewFrameArchiver(config.Storage.TempDir),
	)
	generateHandler := handlers.NewGenerateHandler(promptgen.NewService(promptManager), apiKey)
	validateKeyHandler := handlers.NewValidateKeyHandler(apiKey)
	progressHandler := handlers.NewProgressHandler(jobStore)

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	app.Post("/api/upload", uploadHandler.Handle)
	app.Post("/api/analyze", analyzeHandler.Handle)
	app.Get("/api/job/:id", analyzeHandler.Status)
	app.Post("/api/job/:id/cancel", analyzeHandler.Cancel)
	app.Post("/api/keyframes", keyframesHandler.Handle)
	app.Post("/api/generate-prompt", generateHandler.Handle)
	app.Post("/api/validate-key", validateKeyHandler.Handle)

	// WebSocket progress push
	app.Get("/ws/job/:id", websocket.New(progressHandler.Handle))

	// Video-type catalogue and resolved prompt text
	app.Get("/api/video-types", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"types": promptManager.AvailableTypes()})
	})

	app.Get("/api/prompt/:type", func(c *fiber.Ctx) error {
		videoType := c.Params("type")
		withKeyframes := c.Query("with_keyframes") == "true"
		prompt, err := promptManager.Load(videoType, withKeyframes, "")
		if err != nil {
			return c.Status(404).JSON(fiber.Map{
				"error": "Unknown video type",
				"code":  "ERR_INVALID_VIDEO_TYPE",
			})
		}
		return c.JSON(fiber.Map{"video_type": videoType, "prompt": prompt})
	})

	// Non-secret runtime configuration for the client
	app.Get("/api/config", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"chunk_duration_minutes": config.Chunking.DurationMinutes,
			"split_mode":             config.Chunking.SplitMode,
			"max_file_size_mb":       config.Limits.MaxFileSizeMB,
			"gemini_configured":      config.Providers.Gemini.APIKey != "",
			"openrouter_configured":  config.Providers.OpenRouter.APIKey != "",
			"gemini_model":           config.Providers.Gemini.Model,
			"openrouter_model":       config.Providers.OpenRouter.Model,
		})
	})

	// List saved analyses
	app.Get("/api/analyses", func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 50)
		analyses, err := db.ListAnalyses(limit)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(analyses)
	})

	// Get saved report text
	app.Get("/api/analyses/:id/report", func(c *fiber.Ctx) error {
		record, err := db.GetAnalysis(c.Params("id"))
		if err != nil {
			return c.Status(404).JSON(fiber.Map{"error": "Analysis not found"})
		}

		localPath, ok := record["local_path"].(string)
		if !ok || localPath == "" {
			return c.Status(404).JSON(fiber.Map{"error": "Report file path not found"})
		}

		content, err := os.ReadFile(localPath)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "Failed to read report file"})
		}

		return c.SendString(string(content))
	})

	// Get server logs
	app.Get("/logs", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"logs": logBuffer.GetLogs(),
		})
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	log.Printf("Server starting on %s", addr)
	log.Println("Endpoints:")
	log.Println("   POST /api/upload          - Upload video file")
	log.Println("   POST /api/analyze         - Start analysis job")
	log.Println("   GET  /api/job/:id         - Poll job status")
	log.Println("   POST /api/job/:id/cancel  - Cancel a job")
	log.Println("   GET  /ws/job/:id          - WebSocket progress push")
	log.Println("   POST /api/keyframes       - Extract keyframe archive")
	log.Println("   POST /api/generate-prompt - Generate prompt structure")
	log.Println("   POST /api/validate-key    - Check a provider API key")
	log.Println("   GET  /api/video-types     - List video types")
	log.Println("   GET  /api/analyses        - List saved analyses")
	log.Println("   GET  /logs                - View server logs")
	log.Println("   GET  /health              - Health check")

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down gracefully...")
		app.Shutdown()
	}()

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// LogBuffer captures logs in memory
type LogBuffer struct {
	lines []string
	mu    sync.Mutex
}

func (lb *LogBuffer) Write(p []byte) (n int, err error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	// Append new line
	lb.lines = append(lb.lines, string(p))

	// Keep last 1000 lines
	if len(lb.lines) > 1000 {
		lb.lines = lb.lines[len(lb.lines)-1000:]
	}

	return len(p), nil
}

func (lb *LogBuffer) GetLogs() []string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	// Return copy of slice
	logs := make([]string, len(lb.lines))
	copy(logs, lb.lines)
	return logs
}

// loadConfig loads configuration from YAML file
func loadConfig(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
