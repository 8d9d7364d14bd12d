package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/planory/draftguard/internal/logger"
)

// DefaultMaxBytes caps the serialised cache file at roughly the quota a
// browser grants synchronous storage. Entries beyond the cap still live in
// memory; the cache then reports itself limited.
const DefaultMaxBytes = 4 << 20

type fileCache struct {
	path     string
	maxBytes int
	logger   *logger.Logger

	mu       sync.RWMutex
	entries  map[string]string
	degraded bool
}

type persistedEntries struct {
	Entries map[string]string `json:"entries"`
}

// NewFileCache constructs a file-backed cache persisted at path. An empty
// path yields a purely in-memory cache that always reports itself limited.
// maxBytes <= 0 selects [DefaultMaxBytes]. A corrupt or unreadable state
// file is discarded, never fatal: the cache starts empty and degraded.
func NewFileCache(path string, maxBytes int, log *logger.Logger) Cache {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	c := &fileCache{
		path:     path,
		maxBytes: maxBytes,
		logger:   log,
		entries:  make(map[string]string),
		degraded: path == "",
	}
	c.load()
	return c
}

func (c *fileCache) load() {
	if c.path == "" {
		return
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn().Err(err).Str("func", "fileCache.load").Msg("cache file unreadable, starting degraded")
			c.degraded = true
		}
		return
	}

	var st persistedEntries
	if err = json.Unmarshal(data, &st); err != nil {
		c.logger.Warn().Err(err).Str("func", "fileCache.load").Msg("cache file corrupt, discarding and starting degraded")
		c.degraded = true
		return
	}
	if st.Entries != nil {
		c.entries = st.Entries
	}
}

// persist writes the current entries to disk. Caller must hold c.mu.
func (c *fileCache) persist() bool {
	if c.path == "" {
		return false
	}

	payload, err := json.Marshal(persistedEntries{Entries: c.entries})
	if err != nil {
		c.logger.Err(err).Str("func", "fileCache.persist").Msg("failed to encode cache state")
		c.degraded = true
		return false
	}

	if len(payload) > c.maxBytes {
		c.logger.Warn().
			Str("func", "fileCache.persist").
			Int("size", len(payload)).
			Int("max", c.maxBytes).
			Msg("cache over capacity, keeping entries in memory only")
		c.degraded = true
		return false
	}

	if dir := filepath.Dir(c.path); dir != "." {
		if err = os.MkdirAll(dir, 0o755); err != nil {
			c.logger.Err(err).Str("func", "fileCache.persist").Msg("failed to create cache dir")
			c.degraded = true
			return false
		}
	}

	// write-then-rename so a crash mid-write never truncates the
	// previous state file
	tmp := c.path + ".tmp"
	if err = os.WriteFile(tmp, payload, 0o600); err != nil {
		c.logger.Err(err).Str("func", "fileCache.persist").Msg("failed to write cache file")
		c.degraded = true
		return false
	}
	if err = os.Rename(tmp, c.path); err != nil {
		c.logger.Err(err).Str("func", "fileCache.persist").Msg("failed to replace cache file")
		c.degraded = true
		return false
	}

	c.degraded = false
	return true
}

func (c *fileCache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.entries[key]
	return v, ok
}

func (c *fileCache) Set(key, value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = value
	return c.persist()
}

func (c *fileCache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	c.persist()
}

func (c *fileCache) IsLimited() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.degraded
}
