package application

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jobrunner/csiaudit/internal/domain"
	"github.com/jobrunner/csiaudit/internal/ports/output"
)

// FetchStats contains statistics from a fetch operation.
type FetchStats struct {
	Downloaded int
	Failed     int
	Skipped    int
	Removed    int // Cached files no longer present in storage
}

// DefaultFetchConcurrency is the number of parallel downloads.
const DefaultFetchConcurrency = 4

// DatasetFetcherConfig holds fetch configuration.
type DatasetFetcherConfig struct {
	CacheDir    string
	Concurrency int // Parallel downloads
}

// DatasetFetcher mirrors dataset files from object storage into a local
// cache directory so they can be audited like a local input.
type DatasetFetcher struct {
	storage output.ObjectStorage
	metrics output.MetricsCollector
	logger  *slog.Logger
	config  DatasetFetcherConfig
}

// NewDatasetFetcher creates a new dataset fetcher.
func NewDatasetFetcher(
	storage output.ObjectStorage,
	metrics output.MetricsCollector,
	logger *slog.Logger,
	config DatasetFetcherConfig,
) *DatasetFetcher {
	if config.Concurrency < 1 {
		config.Concurrency = DefaultFetchConcurrency
	}
	return &DatasetFetcher{
		storage: storage,
		metrics: metrics,
		logger:  logger,
		config:  config,
	}
}

// Fetch downloads every dataset file and returns the cache directory.
// Individual download failures are logged and counted; a failing listing is fatal.
// Cached dataset files whose key is no longer listed are removed.
func (f *DatasetFetcher) Fetch(ctx context.Context) (string, FetchStats, error) {
	cacheDir := f.config.CacheDir
	f.logger.Info("fetching datasets from storage", "cache_dir", cacheDir)

	start := time.Now()
	objects, err := f.storage.List(ctx)
	f.metrics.ObserveStorageDuration("list", time.Since(start))
	f.metrics.IncStorageOperations("list", err == nil)
	if err != nil {
		return "", FetchStats{}, &domain.StorageError{Operation: "list", Err: err}
	}

	if err := os.MkdirAll(cacheDir, 0750); err != nil {
		return "", FetchStats{}, &domain.StorageError{Operation: "mkdir", Key: cacheDir, Err: err}
	}

	var (
		mu    sync.Mutex
		stats FetchStats
	)
	count := func(n *int) {
		mu.Lock()
		*n++
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.config.Concurrency)

	listed := make(map[string]bool, len(objects))
	for _, obj := range objects {
		if !filepath.IsLocal(filepath.FromSlash(obj.Key)) || !output.IsDatasetFile(obj.Key) {
			f.logger.Warn("ignoring storage object", "key", obj.Key)
			count(&stats.Skipped)
			continue
		}
		listed[path.Clean(obj.Key)] = true

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			localPath := filepath.Join(cacheDir, filepath.FromSlash(obj.Key))
			start := time.Now()
			err := f.storage.Download(gctx, obj.Key, localPath)
			f.metrics.ObserveStorageDuration("download", time.Since(start))
			f.metrics.IncStorageOperations("download", err == nil)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				f.logger.Error("failed to download dataset file", "key", obj.Key, "error", err)
				count(&stats.Failed)
				return nil
			}

			f.logger.Debug("downloaded dataset file", "key", obj.Key, "path", localPath)
			count(&stats.Downloaded)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return "", stats, err
	}

	removed, err := f.prune(cacheDir, listed)
	stats.Removed = removed
	if err != nil {
		return "", stats, &domain.StorageError{Operation: "prune", Key: cacheDir, Err: err}
	}

	f.logger.Info("fetch completed",
		"downloaded", stats.Downloaded,
		"failed", stats.Failed,
		"skipped", stats.Skipped,
		"removed", stats.Removed,
	)
	return cacheDir, stats, nil
}

// prune deletes cached dataset files whose key is not in listed.
// Other files in the cache directory are left alone.
func (f *DatasetFetcher) prune(cacheDir string, listed map[string]bool) (int, error) {
	removed := 0
	err := filepath.WalkDir(cacheDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !output.IsDatasetFile(p) {
			return nil
		}

		rel, err := filepath.Rel(cacheDir, p)
		if err != nil {
			return err
		}
		if listed[filepath.ToSlash(rel)] {
			return nil
		}

		if err := os.Remove(p); err != nil {
			return err
		}
		f.logger.Debug("removed stale dataset file", "path", p)
		removed++
		return nil
	})
	return removed, err
}
