package mast

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/transitscope/transitscope/internal/lightcurve"
)

// Cache stores stitched light curves on disk, msgpack-encoded, keyed by
// target/author/mission. There is no eviction; entries are small relative
// to the cost of re-downloading multi-sector photometry.
type Cache struct {
	dir    string
	logger *zap.SugaredLogger
}

// NewCache creates a cache rooted at dir. The directory is created lazily
// on the first Put.
func NewCache(dir string, logger *zap.SugaredLogger) *Cache {
	return &Cache{dir: dir, logger: logger}
}

type cachedCurve struct {
	Target    string    `msgpack:"target"`
	Author    string    `msgpack:"author"`
	Mission   string    `msgpack:"mission"`
	FetchedAt time.Time `msgpack:"fetched_at"`
	Time      []float64 `msgpack:"time"`
	Flux      []float64 `msgpack:"flux"`
}

// Get looks up a cached curve. Missing or corrupt entries are misses.
func (c *Cache) Get(target, author, mission string) (lightcurve.LightCurve, bool) {
	raw, err := os.ReadFile(c.path(target, author, mission))
	if err != nil {
		return lightcurve.LightCurve{}, false
	}

	var entry cachedCurve
	if err := msgpack.Unmarshal(raw, &entry); err != nil {
		c.logger.Warnf("discarding corrupt cache entry for %s: %v", target, err)
		return lightcurve.LightCurve{}, false
	}

	lc, err := lightcurve.New(entry.Time, entry.Flux)
	if err != nil {
		c.logger.Warnf("discarding invalid cache entry for %s: %v", target, err)
		return lightcurve.LightCurve{}, false
	}
	return lc, true
}

// Put stores a stitched curve.
func (c *Cache) Put(target, author, mission string, lc lightcurve.LightCurve) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}

	raw, err := msgpack.Marshal(cachedCurve{
		Target:    target,
		Author:    author,
		Mission:   mission,
		FetchedAt: time.Now().UTC(),
		Time:      lc.Time,
		Flux:      lc.Flux,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(c.path(target, author, mission), raw, 0o644)
}

func (c *Cache) path(target, author, mission string) string {
	key := strings.Join([]string{target, author, mission}, "_")
	sanitizer := strings.NewReplacer(" ", "-", "/", "-", string(filepath.Separator), "-")
	return filepath.Join(c.dir, sanitizer.Replace(key)+".msgpack")
}
