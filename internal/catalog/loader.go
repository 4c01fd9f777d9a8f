// Package catalog loads the pool of assignable techniques from the
// backend, preferring the activities endpoint and falling back to the
// paginated techniques endpoint.
package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/terra-clan/curriculum-engine/internal/models"
)

// ActivityTypeTechnique filters the primary source to technique content
const ActivityTypeTechnique = "TECHNIQUE"

const (
	// MaxSecondaryPageSize is the largest page the techniques endpoint serves
	MaxSecondaryPageSize = 100

	loadKey = "catalog"
)

// PrimarySource lists technique-type activities
type PrimarySource interface {
	ListActivities(ctx context.Context, activityType string, pageSize int) ([]models.Activity, error)
}

// SecondarySource serves the technique library one page at a time
type SecondarySource interface {
	ListTechniques(ctx context.Context, page, limit int) (*models.TechniquePage, error)
}

// Cache stores the normalized catalog between loads
type Cache interface {
	Get(ctx context.Context) ([]models.Technique, error)
	Set(ctx context.Context, techniques []models.Technique) error
}

// Options configures a Loader
type Options struct {
	PrimaryPageSize   int
	SecondaryPageSize int
	MaxPages          int
	LoadTimeout       time.Duration
	Bands             models.BandTable
}

func (o Options) withDefaults() Options {
	if o.PrimaryPageSize <= 0 {
		o.PrimaryPageSize = 1000
	}
	if o.SecondaryPageSize <= 0 || o.SecondaryPageSize > MaxSecondaryPageSize {
		o.SecondaryPageSize = MaxSecondaryPageSize
	}
	if o.MaxPages <= 0 {
		o.MaxPages = 50
	}
	if o.LoadTimeout <= 0 {
		o.LoadTimeout = 30 * time.Second
	}
	if o.Bands == nil {
		o.Bands = models.DefaultBandTable()
	}
	return o
}

// Loader fetches and holds the technique catalog. Concurrent Load calls
// share a single in-flight fetch.
type Loader struct {
	primary   PrimarySource
	secondary SecondarySource
	cache     Cache
	opts      Options

	group singleflight.Group

	mu         sync.RWMutex
	techniques []models.Technique
	byID       map[string]models.Technique
	loadedAt   time.Time

	readyOnce sync.Once
	ready     chan struct{}
}

// NewLoader creates a catalog loader. Any source or the cache may be nil.
func NewLoader(primary PrimarySource, secondary SecondarySource, cache Cache, opts Options) *Loader {
	return &Loader{
		primary:   primary,
		secondary: secondary,
		cache:     cache,
		opts:      opts.withDefaults(),
		byID:      make(map[string]models.Technique),
		ready:     make(chan struct{}),
	}
}

// Load fetches the catalog, joining an in-flight fetch when there is one.
// It never fails: transport problems degrade to an empty catalog. If ctx
// ends first the current snapshot is returned while the fetch completes
// in the background.
func (l *Loader) Load(ctx context.Context) []models.Technique {
	return l.load(ctx, true)
}

// Reload fetches the catalog bypassing the cache
func (l *Loader) Reload(ctx context.Context) []models.Technique {
	return l.load(ctx, false)
}

// Ensure returns the current snapshot, loading first if it is empty
func (l *Loader) Ensure(ctx context.Context) []models.Technique {
	if current := l.Catalog(); len(current) > 0 {
		return current
	}
	return l.Load(ctx)
}

func (l *Loader) load(ctx context.Context, useCache bool) []models.Technique {
	ch := l.group.DoChan(loadKey, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.opts.LoadTimeout)
		defer cancel()
		return l.fetch(fetchCtx, useCache), nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			slog.Debug("joined in-flight catalog load")
		}
		return copyTechniques(res.Val.([]models.Technique))
	case <-ctx.Done():
		slog.Warn("catalog load wait abandoned", "error", ctx.Err())
		return l.Catalog()
	}
}

// Ready is closed once the first load has completed, whatever its outcome
func (l *Loader) Ready() <-chan struct{} {
	return l.ready
}

// Catalog returns a copy of the current snapshot
func (l *Loader) Catalog() []models.Technique {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return copyTechniques(l.techniques)
}

// Lookup finds a technique by id in the current snapshot
func (l *Loader) Lookup(id string) (models.Technique, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.byID[id]
	return t, ok
}

// LoadedAt returns when the snapshot was last replaced
func (l *Loader) LoadedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loadedAt
}

func (l *Loader) fetch(ctx context.Context, useCache bool) []models.Technique {
	defer l.readyOnce.Do(func() { close(l.ready) })
	start := time.Now()

	if useCache && l.cache != nil {
		cached, err := l.cache.Get(ctx)
		if err != nil {
			slog.Warn("catalog cache read failed", "error", err)
		} else if len(cached) > 0 {
			slog.Info("catalog served from cache", "count", len(cached))
			return l.publish(cached)
		}
	}

	techniques := l.fetchPrimary(ctx)
	source := "activities"
	if len(techniques) == 0 {
		techniques = l.fetchSecondary(ctx)
		source = "techniques"
	}

	for i := range techniques {
		techniques[i].Position = i
	}

	slog.Info("catalog loaded",
		"source", source,
		"count", len(techniques),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if len(techniques) == 0 {
		return l.publish(techniques)
	}

	if l.cache != nil {
		if err := l.cache.Set(ctx, techniques); err != nil {
			slog.Warn("catalog cache write failed", "error", err)
		}
	}
	return l.publish(techniques)
}

// publish swaps the snapshot in. An empty result does not clobber a
// non-empty snapshot; stale-but-usable beats empty.
func (l *Loader) publish(techniques []models.Technique) []models.Technique {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(techniques) == 0 && len(l.techniques) > 0 {
		slog.Warn("catalog load returned nothing, keeping previous snapshot", "count", len(l.techniques))
		return copyTechniques(l.techniques)
	}

	l.techniques = copyTechniques(techniques)
	l.byID = make(map[string]models.Technique, len(techniques))
	for _, t := range techniques {
		l.byID[t.ID] = t
	}
	l.loadedAt = time.Now()
	return copyTechniques(l.techniques)
}

func (l *Loader) fetchPrimary(ctx context.Context) []models.Technique {
	if l.primary == nil {
		return nil
	}

	activities, err := l.primary.ListActivities(ctx, ActivityTypeTechnique, l.opts.PrimaryPageSize)
	if err != nil {
		slog.Warn("primary catalog source failed", "error", err)
		return nil
	}

	merged := newMerger(len(activities))
	for _, a := range activities {
		if t, ok := FromActivity(a, l.opts.Bands); ok {
			merged.add(t)
		}
	}
	return merged.items
}

func (l *Loader) fetchSecondary(ctx context.Context) []models.Technique {
	if l.secondary == nil {
		return nil
	}

	merged := newMerger(l.opts.SecondaryPageSize)
	for page := 1; ; page++ {
		if page > l.opts.MaxPages {
			slog.Warn("secondary catalog page ceiling reached", "max_pages", l.opts.MaxPages, "count", len(merged.items))
			break
		}

		res, err := l.secondary.ListTechniques(ctx, page, l.opts.SecondaryPageSize)
		if err != nil {
			slog.Warn("secondary catalog source failed", "page", page, "error", err)
			return nil
		}
		if res == nil || len(res.Techniques) == 0 {
			break
		}

		for _, s := range res.Techniques {
			if t, ok := FromSourceTechnique(s, l.opts.Bands); ok {
				merged.add(t)
			}
		}

		if page >= res.Pagination.TotalPages {
			break
		}
	}
	return merged.items
}

// merger accumulates techniques de-duplicated by id, first occurrence wins
type merger struct {
	seen  map[string]bool
	items []models.Technique
}

func newMerger(capacity int) *merger {
	return &merger{seen: make(map[string]bool, capacity), items: make([]models.Technique, 0, capacity)}
}

func (m *merger) add(t models.Technique) {
	if m.seen[t.ID] {
		return
	}
	m.seen[t.ID] = true
	m.items = append(m.items, t)
}

func copyTechniques(in []models.Technique) []models.Technique {
	out := make([]models.Technique, len(in))
	copy(out, in)
	return out
}
