package services

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-co-op/gocron"

	"rag-assistant-platform/internal/logger"
)

// StorageSweeper periodically removes stale uploads from the storage
// directory. Queued ingestion deletes files on success; the sweeper
// catches files left behind by crashed workers or abandoned tasks.
type StorageSweeper struct {
	scheduler *gocron.Scheduler
	dir       string
	retention time.Duration
}

func NewStorageSweeper(dir string, retention time.Duration) *StorageSweeper {
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()

	return &StorageSweeper{
		scheduler: s,
		dir:       dir,
		retention: retention,
	}
}

// Start schedules the sweep to run hourly and returns immediately.
func (s *StorageSweeper) Start() error {
	_, err := s.scheduler.Every(1 * time.Hour).Tag("storage-sweep").Do(func() {
		removed, err := s.Sweep()
		if err != nil {
			logger.Error("storage sweep failed", "error", err)
			return
		}
		if removed > 0 {
			logger.Info("storage sweep complete", "removed", removed)
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *StorageSweeper) Stop() {
	s.scheduler.Stop()
}

// Sweep deletes regular files older than the retention window and
// returns the number removed.
func (s *StorageSweeper) Sweep() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := time.Now().Add(-s.retention)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			logger.Warn("failed to remove stale upload", "path", path, "error", err)
			continue
		}
		removed++
	}

	return removed, nil
}
