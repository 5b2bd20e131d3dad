package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// ListCacheFilename is the list cache file name inside the data directory.
const ListCacheFilename = "tasklists.json"

// ListCacheData is the cached list title to ID mapping.
type ListCacheData struct {
	UpdatedAt time.Time  `json:"updatedAt"`
	Lists     []TaskList `json:"lists"`
}

// ListCache stores list metadata so list selection does not need a
// round-trip on every command.
type ListCache struct {
	fs      afero.Fs
	dataDir string
}

// NewListCache creates a ListCache under dataDir.
func NewListCache(fs afero.Fs, dataDir string) *ListCache {
	return &ListCache{fs: fs, dataDir: dataDir}
}

// Path returns the cache file path.
func (c *ListCache) Path() string {
	return filepath.Join(c.dataDir, ListCacheFilename)
}

// Read reads and parses the cache file.
// Returns nil, nil if the cache file does not exist.
func (c *ListCache) Read() (*ListCacheData, error) {
	data, err := afero.ReadFile(c.fs, c.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read list cache: %w", err)
	}

	var cache ListCacheData
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, fmt.Errorf("failed to parse list cache: %w", err)
	}
	return &cache, nil
}

// Write replaces the cache with lists, creating the data dir if needed.
func (c *ListCache) Write(lists []TaskList) error {
	if err := c.fs.MkdirAll(c.dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	buf, err := json.MarshalIndent(ListCacheData{UpdatedAt: time.Now(), Lists: lists}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal list cache: %w", err)
	}

	if err := afero.WriteFile(c.fs, c.Path(), buf, 0o644); err != nil {
		return fmt.Errorf("failed to write list cache: %w", err)
	}
	return nil
}

// cachedResolver resolves selectors against the cache, refreshing it from
// the server when the title is unknown or the caller reports a stale ID.
type cachedResolver struct {
	cache   *ListCache
	refresh func(context.Context) ([]TaskList, error)
}

func (r cachedResolver) resolve(ctx context.Context, sel Selector) (TaskList, error) {
	if r.cache != nil {
		if data, err := r.cache.Read(); err == nil && data != nil && len(matchTitle(data.Lists, sel.Title)) > 0 {
			return selectList(data.Lists, sel)
		}
	}
	return r.resolveFresh(ctx, sel)
}

func (r cachedResolver) resolveFresh(ctx context.Context, sel Selector) (TaskList, error) {
	lists, err := r.refresh(ctx)
	if err != nil {
		return TaskList{}, err
	}
	if r.cache != nil {
		// The cache only saves a round-trip; failing to write it is not fatal.
		_ = r.cache.Write(lists)
	}
	return selectList(lists, sel)
}
