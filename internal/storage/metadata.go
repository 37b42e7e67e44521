package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vaibh/video-analyzer/internal/types"
)

// MetadataDB indexes completed analyses in SQLite
type MetadataDB struct {
	db *sql.DB
}

// NewMetadataDB opens (and if needed initializes) the analyses index
func NewMetadataDB(dbPath string) (*MetadataDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS analyses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT NOT NULL UNIQUE,
		video_name TEXT NOT NULL,
		video_type TEXT NOT NULL,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		duration REAL,
		chunk_count INTEGER,
		local_path TEXT NOT NULL,
		gdrive_url TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
	CREATE INDEX IF NOT EXISTS idx_analyses_video_name ON analyses(video_name);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create table: %v", err)
	}

	return &MetadataDB{db: db}, nil
}

// SaveAnalysis records a completed analysis
func (mdb *MetadataDB) SaveAnalysis(result *types.AnalysisResult) error {
	query := `
	INSERT INTO analyses (job_id, video_name, video_type, provider, model, duration, chunk_count, local_path, gdrive_url, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := mdb.db.Exec(query,
		result.JobID, result.VideoName, result.VideoType, result.Provider, result.Model,
		result.Duration, result.ChunkCount, result.LocalPath, result.GDriveURL, result.ProcessedAt)
	if err != nil {
		return fmt.Errorf("failed to save analysis metadata: %v", err)
	}

	return nil
}

// GetAnalysis retrieves one analysis record by job ID
func (mdb *MetadataDB) GetAnalysis(jobID string) (map[string]interface{}, error) {
	query := `
	SELECT job_id, video_name, video_type, provider, model, duration, chunk_count, local_path, gdrive_url, created_at
	FROM analyses WHERE job_id = ?
	`

	row := mdb.db.QueryRow(query, jobID)
	record, err := scanAnalysis(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %v", err)
	}
	return record, nil
}

// ListAnalyses returns the most recent analyses
func (mdb *MetadataDB) ListAnalyses(limit int) ([]map[string]interface{}, error) {
	query := `
	SELECT job_id, video_name, video_type, provider, model, duration, chunk_count, local_path, gdrive_url, created_at
	FROM analyses ORDER BY created_at DESC LIMIT ?
	`

	rows, err := mdb.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %v", err)
	}
	defer rows.Close()

	var analyses []map[string]interface{}
	for rows.Next() {
		record, err := scanAnalysis(rows.Scan)
		if err != nil {
			continue
		}
		analyses = append(analyses, record)
	}

	return analyses, nil
}

func scanAnalysis(scan func(...interface{}) error) (map[string]interface{}, error) {
	var (
		jobID, videoName, videoType, provider, model, localPath, gdriveURL string
		duration                                                           float64
		chunkCount                                                         int
		createdAt                                                          time.Time
	)

	if err := scan(&jobID, &videoName, &videoType, &provider, &model,
		&duration, &chunkCount, &localPath, &gdriveURL, &createdAt); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"job_id":      jobID,
		"video_name":  videoName,
		"video_type":  videoType,
		"provider":    provider,
		"model":       model,
		"duration":    duration,
		"chunk_count": chunkCount,
		"local_path":  localPath,
		"gdrive_url":  gdriveURL,
		"created_at":  createdAt,
	}, nil
}

// Close closes the database connection
func (mdb *MetadataDB) Close() error {
	return mdb.db.Close()
}
