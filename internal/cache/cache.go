package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/smokyabdulrahman/shaum/internal/forecast"
	"github.com/smokyabdulrahman/shaum/internal/geo"
	"github.com/smokyabdulrahman/shaum/internal/hijri"
)

const (
	calendarCacheFile = "calendar_%s.json" // keyed by hash
	geoCacheFile      = "geolocation.json"
	geoTTL            = 24 * time.Hour
	// CalendarTTL bounds how long a remote month is trusted. Sighting-based
	// calendars can be corrected after the fact.
	CalendarTTL = 30 * 24 * time.Hour
)

// Cache provides file-based caching for calendar months and geolocation data.
type Cache struct {
	dir string
}

// CalendarCacheEntry stores one month of date mappings along with the key
// that produced it.
type CalendarCacheEntry struct {
	Key      string          `json:"key"`
	Days     []hijri.Mapping `json:"days"`
	CachedAt time.Time       `json:"cached_at"`
}

// GeoCacheEntry stores a cached geolocation result with a timestamp.
type GeoCacheEntry struct {
	Location geo.Location `json:"location"`
	CachedAt time.Time    `json:"cached_at"`
}

// New creates a Cache rooted at the given directory.
// If dir is empty, it defaults to ~/.cache/shaum/.
func New(dir string) (*Cache, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".cache", "shaum")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create cache directory %s: %w", dir, err)
	}

	return &Cache{dir: dir}, nil
}

// cacheKey builds a deterministic file-name-safe hash of a calendar key.
func cacheKey(key forecast.Key) string {
	h := sha256.Sum256([]byte(key.String()))
	return fmt.Sprintf("%x", h[:8]) // 16 hex chars is plenty for uniqueness
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

func (c *Cache) calendarPath(key forecast.Key) string {
	return filepath.Join(c.dir, fmt.Sprintf(calendarCacheFile, cacheKey(key)))
}

// LoadCalendar reads a cached month. It reports a miss when the file is
// missing, corrupt, written for another key or older than CalendarTTL.
func (c *Cache) LoadCalendar(_ context.Context, key forecast.Key) ([]hijri.Mapping, bool) {
	data, err := os.ReadFile(c.calendarPath(key))
	if err != nil {
		return nil, false
	}

	var entry CalendarCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}

	// Guard against hash collisions and hand-edited files.
	if entry.Key != key.String() {
		return nil, false
	}
	if time.Since(entry.CachedAt) > CalendarTTL {
		return nil, false
	}

	return entry.Days, true
}

// SaveCalendar writes a month to the cache.
func (c *Cache) SaveCalendar(_ context.Context, key forecast.Key, days []hijri.Mapping) error {
	entry := CalendarCacheEntry{
		Key:      key.String(),
		Days:     days,
		CachedAt: time.Now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := writeFile(c.calendarPath(key), data); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}

// Clear removes every cached calendar month. Geolocation is kept.
func (c *Cache) Clear() (int, error) {
	matches, err := filepath.Glob(filepath.Join(c.dir, fmt.Sprintf(calendarCacheFile, "*")))
	if err != nil {
		return 0, err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			return 0, fmt.Errorf("failed to remove %s: %w", m, err)
		}
	}
	return len(matches), nil
}

// LoadGeo attempts to read a cached geolocation result.
// Returns nil if the cache is missing or older than the TTL (24 hours).
func (c *Cache) LoadGeo() *geo.Location {
	path := filepath.Join(c.dir, geoCacheFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var entry GeoCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil
	}

	if time.Since(entry.CachedAt) > geoTTL {
		return nil
	}

	return &entry.Location
}

// SaveGeo writes a geolocation result to the cache.
func (c *Cache) SaveGeo(loc *geo.Location) error {
	path := filepath.Join(c.dir, geoCacheFile)

	entry := GeoCacheEntry{
		Location: *loc,
		CachedAt: time.Now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal geo cache: %w", err)
	}

	if err := writeFile(path, data); err != nil {
		return fmt.Errorf("failed to write geo cache: %w", err)
	}

	return nil
}

// writeFile replaces path through a temporary file in the same directory, so
// readers in other processes never see a partial entry.
func writeFile(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	_, err = f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(tmp, 0o644)
	}
	if err == nil {
		err = os.Rename(tmp, path)
	}
	if err != nil {
		os.Remove(tmp)
	}
	return err
}
