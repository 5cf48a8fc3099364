// Package download retrieves archive products to local files and records
// the outcome in a manifest.
package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/astrolab/voquery/internal/domain"
	"github.com/astrolab/voquery/internal/domain/entity"
)

// Fetcher streams the body of a product URL; the TAP client implements it
type Fetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, int64, error)
}

// Task tracks one product download
type Task struct {
	ID        string
	Product   entity.Product
	LocalPath string
	Status    entity.DownloadStatus
	Bytes     int64
	LastError string
	StartedAt time.Time
	EndedAt   time.Time
}

// Service downloads products with a bounded number of parallel fetches
type Service struct {
	fetcher     Fetcher
	destDir     string
	maxParallel int
	logger      *slog.Logger

	mu    sync.RWMutex
	tasks map[string]*Task
	paths map[string]int

	// onUpdate, when set, observes every task state change
	onUpdate func(*Task)
}

// NewService creates a download service writing into destDir
func NewService(fetcher Fetcher, destDir string, maxParallel int, logger *slog.Logger) *Service {
	if maxParallel <= 0 {
		maxParallel = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		fetcher:     fetcher,
		destDir:     destDir,
		maxParallel: maxParallel,
		logger:      logger,
		tasks:       make(map[string]*Task),
		paths:       make(map[string]int),
	}
}

// SetUpdateCallback sets the observer for task state changes
func (s *Service) SetUpdateCallback(callback func(*Task)) {
	s.onUpdate = callback
}

// Tasks returns a snapshot of all tasks
func (s *Service) Tasks() []*Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		copied := *t
		out = append(out, &copied)
	}
	return out
}

// DownloadAll fetches every product and returns the manifest. Individual
// failures do not stop the batch; they are recorded per entry. The batch
// stops early only when ctx is canceled.
func (s *Service) DownloadAll(ctx context.Context, archiveName string, products []entity.Product) (*entity.Manifest, error) {
	if len(products) == 0 {
		return nil, domain.NewInvalidQueryError("no products to download")
	}
	if err := os.MkdirAll(s.destDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}

	tasks := make([]*Task, len(products))
	for i, p := range products {
		tasks[i] = s.addTask(p)
	}

	sem := make(chan struct{}, s.maxParallel)
	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func(t *Task) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				s.fail(t, ctx.Err())
				return
			}
			s.run(ctx, t)
		}(task)
	}
	wg.Wait()

	manifest := &entity.Manifest{
		Archive:   archiveName,
		CreatedAt: time.Now().UTC(),
	}
	for _, t := range tasks {
		s.mu.RLock()
		entry := entity.ManifestEntry{
			Product:   t.Product,
			LocalPath: t.LocalPath,
			Status:    t.Status,
			Bytes:     t.Bytes,
			Error:     t.LastError,
			StartedAt: t.StartedAt,
			EndedAt:   t.EndedAt,
		}
		s.mu.RUnlock()
		manifest.Entries = append(manifest.Entries, entry)
	}
	return manifest, nil
}

// WriteManifest stores the manifest as JSON next to the downloaded files
func (s *Service) WriteManifest(manifest *entity.Manifest) (string, error) {
	data, err := sonic.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}
	path := filepath.Join(s.destDir, "manifest.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return path, nil
}

func (s *Service) addTask(p entity.Product) *Task {
	name := p.FileName
	if name == "" {
		name = p.Name
	}
	task := &Task{
		ID:      uuid.New().String(),
		Product: p,
		Status:  entity.DownloadPending,
	}
	s.mu.Lock()
	task.LocalPath = s.claimPath(filepath.Base(name))
	s.tasks[task.ID] = task
	s.mu.Unlock()
	return task
}

// claimPath reserves a local path for name, suffixing the stem when two
// products share a file name so parallel fetches never write the same
// file. Caller holds s.mu.
func (s *Service) claimPath(name string) string {
	n := s.paths[name]
	s.paths[name] = n + 1
	if n == 0 {
		return filepath.Join(s.destDir, name)
	}
	ext := filepath.Ext(name)
	stem := name[:len(name)-len(ext)]
	return filepath.Join(s.destDir, fmt.Sprintf("%s-%d%s", stem, n, ext))
}

func (s *Service) run(ctx context.Context, t *Task) {
	s.update(t, func() {
		t.Status = entity.DownloadInProgress
		t.StartedAt = time.Now()
	})

	if t.Product.AccessURL == "" {
		s.fail(t, domain.NewInvalidQueryError("product has no access url"))
		return
	}

	// a file of the expected size is already complete
	if info, err := os.Stat(t.LocalPath); err == nil &&
		t.Product.Size > 0 && info.Size() == t.Product.Size {
		s.logger.Debug("download skipped, file exists", "path", t.LocalPath)
		s.update(t, func() {
			t.Status = entity.DownloadSkipped
			t.Bytes = info.Size()
			t.EndedAt = time.Now()
		})
		return
	}

	body, _, err := s.fetcher.Fetch(ctx, t.Product.AccessURL)
	if err != nil {
		s.fail(t, err)
		return
	}
	defer body.Close()

	tmp := t.LocalPath + ".part"
	file, err := os.Create(tmp)
	if err != nil {
		s.fail(t, err)
		return
	}

	written, err := io.Copy(file, body)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		s.fail(t, err)
		return
	}
	if err := os.Rename(tmp, t.LocalPath); err != nil {
		os.Remove(tmp)
		s.fail(t, err)
		return
	}

	s.logger.Debug("download completed", "path", t.LocalPath, "bytes", written)
	s.update(t, func() {
		t.Status = entity.DownloadCompleted
		t.Bytes = written
		t.EndedAt = time.Now()
	})
}

func (s *Service) fail(t *Task, err error) {
	s.logger.Warn("download failed", "product", t.Product.Name, "error", err)
	s.update(t, func() {
		t.Status = entity.DownloadFailed
		t.LastError = err.Error()
		t.EndedAt = time.Now()
	})
}

// update mutates the task under the lock and notifies the observer
func (s *Service) update(t *Task, mutate func()) {
	s.mu.Lock()
	mutate()
	copied := *t
	s.mu.Unlock()
	if s.onUpdate != nil {
		s.onUpdate(&copied)
	}
}
