package cleanup

import (
	"log"
	"os"
	"path/filepath"
	"time"
)

// Scheduler periodically sweeps stale uploads and leftover chunk
// directories. Chunk directories are normally removed when their job
// finishes; the sweep catches the ones orphaned by a crash.
type Scheduler struct {
	roots           []string
	intervalMinutes int
	maxAgeHours     int
	stopChan        chan struct{}
}

// NewScheduler creates a scheduler over the given directory roots
func NewScheduler(roots []string, intervalMinutes, maxAgeHours int) *Scheduler {
	return &Scheduler{
		roots:           roots,
		intervalMinutes: intervalMinutes,
		maxAgeHours:     maxAgeHours,
		stopChan:        make(chan struct{}),
	}
}

// Start runs one sweep immediately and then on the configured interval
func (s *Scheduler) Start() {
	log.Println("Running initial stale file sweep...")
	s.sweep()

	ticker := time.NewTicker(time.Duration(s.intervalMinutes) * time.Minute)

	go func() {
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stopChan:
				ticker.Stop()
				return
			}
		}
	}()

	log.Printf("Cleanup scheduler started (interval: %dm, max age: %dh)",
		s.intervalMinutes, s.maxAgeHours)
}

// Stop stops the cleanup scheduler
func (s *Scheduler) Stop() {
	close(s.stopChan)
	log.Println("Cleanup scheduler stopped")
}

func (s *Scheduler) sweep() {
	cutoff := time.Now().Add(-time.Duration(s.maxAgeHours) * time.Hour)

	var deletedCount int
	var deletedSize int64

	for _, root := range s.roots {
		filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() {
				return nil
			}
			if info.ModTime().After(cutoff) {
				return nil
			}
			size := info.Size()
			if err := os.Remove(path); err != nil {
				log.Printf("Failed to delete stale file %s: %v", path, err)
				return nil
			}
			deletedCount++
			deletedSize += size
			return nil
		})
		s.pruneEmptyDirs(root)
	}

	if deletedCount > 0 {
		log.Printf("Sweep complete: %d files deleted, %.2fMB freed",
			deletedCount, float64(deletedSize)/(1024*1024))
	}
}

// pruneEmptyDirs removes emptied per-job directories under root, leaving
// root itself in place
func (s *Scheduler) pruneEmptyDirs(root string) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		children, err := os.ReadDir(dir)
		if err != nil || len(children) > 0 {
			continue
		}
		if err := os.Remove(dir); err == nil {
			log.Printf("Removed empty job directory: %s", entry.Name())
		}
	}
}

// EnsureDirExists creates a working directory if it doesn't exist
func EnsureDirExists(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	log.Printf("Directory ready: %s", dir)
	return nil
}
