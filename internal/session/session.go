// Package session caches analyzed recordings so repeated queries against
// the same file reuse one pass.
package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/jerrinot/jfrlens/internal/jfr/analysis"
	"github.com/jerrinot/jfrlens/internal/jfr/source"
	"github.com/jerrinot/jfrlens/internal/telemetry"
)

const (
	DefaultSize = 8
	DefaultTTL  = 10 * time.Minute
)

// Key identifies a session: one file version analyzed for one set of
// dimensions.
type Key struct {
	Path    string
	ModTime time.Time
	Dims    analysis.Dimension
}

func (k Key) String() string {
	return fmt.Sprintf("%s@%d/%s", k.Path, k.ModTime.UnixNano(), k.Dims)
}

// Session is an analyzed recording. It is read-only once returned.
type Session struct {
	Key     Key
	Context *analysis.Context
	Result  *analysis.Result
	Built   time.Time
	Elapsed time.Duration
}

// Loader reads a recording into a fresh analysis context.
type Loader func(path string, opts analysis.Options) (*analysis.Context, error)

// Options configure a Cache.
type Options struct {
	Size     int
	TTL      time.Duration
	Analysis analysis.Options
	// Load defaults to source.Open.
	Load Loader
}

// Cache holds recently used sessions and builds each key at most once at a
// time.
type Cache struct {
	opts  Options
	log   *zap.Logger
	stats *telemetry.Metrics
	lru   *expirable.LRU[Key, *Session]
	sf    singleflight.Group
}

// New returns an empty cache.
func New(opts Options) *Cache {
	if opts.Size <= 0 {
		opts.Size = DefaultSize
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Load == nil {
		opts.Load = source.Open
	}
	log := opts.Analysis.Logger
	if log == nil {
		log = zap.NewNop()
	}
	c := &Cache{opts: opts, log: log, stats: opts.Analysis.Metrics}
	c.lru = expirable.NewLRU[Key, *Session](opts.Size, func(k Key, _ *Session) {
		c.log.Debug("session evicted", zap.Stringer("key", k))
	}, opts.TTL)
	return c
}

// Get returns the session for path and dims, analyzing the file on a miss.
// Concurrent callers for the same key share one build. Stdin ("-") is
// never cached.
func (c *Cache) Get(ctx context.Context, path string, dims analysis.Dimension) (*Session, error) {
	if path == "-" {
		return c.build(Key{Path: path, Dims: dims})
	}
	key, err := c.key(path, dims)
	if err != nil {
		return nil, err
	}
	if s, ok := c.lru.Get(key); ok {
		c.stats.CacheHit()
		return s, nil
	}
	c.stats.CacheMiss()

	ch := c.sf.DoChan(key.String(), func() (any, error) {
		if s, ok := c.lru.Get(key); ok {
			return s, nil
		}
		s, err := c.build(key)
		if err != nil {
			return nil, err
		}
		c.lru.Add(key, s)
		return s, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*Session), nil
	}
}

func (c *Cache) key(path string, dims analysis.Dimension) (Key, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Key{}, err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return Key{}, err
	}
	return Key{Path: abs, ModTime: fi.ModTime(), Dims: dims}, nil
}

func (c *Cache) build(key Key) (*Session, error) {
	start := time.Now()
	actx, err := c.opts.Load(key.Path, c.opts.Analysis)
	if err != nil {
		return nil, err
	}
	res, err := analysis.Run(actx, key.Dims)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", key.Path, err)
	}
	s := &Session{Key: key, Context: actx, Result: res, Built: start, Elapsed: time.Since(start)}
	c.log.Debug("session built", zap.Stringer("key", key), zap.Duration("elapsed", s.Elapsed))
	return s, nil
}

// Len reports the number of cached sessions.
func (c *Cache) Len() int { return c.lru.Len() }

// Purge drops every cached session.
func (c *Cache) Purge() { c.lru.Purge() }
