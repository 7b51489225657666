// Package trends keeps a periodically refreshed in-memory snapshot of
// the trending charts for a set of regions, so browsing the UI does not
// burn YouTube API quota on every page load.
package trends

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/clipforge/creator-studio/internal/apierr"
	"github.com/clipforge/creator-studio/internal/youtube"
	"github.com/clipforge/creator-studio/pkg/icron"
	"github.com/clipforge/creator-studio/pkg/log"
)

// Fetcher loads the trending chart for one region.
type Fetcher interface {
	Trending(ctx context.Context, region, categoryID string, limit int) ([]youtube.Video, error)
}

// Snapshot is one region's cached chart.
type Snapshot struct {
	Region    string          `json:"region"`
	Videos    []youtube.Video `json:"videos"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Status reports the refresher's schedule position.
type Status struct {
	Regions       []string      `json:"regions"`
	CronExpr      string        `json:"cron_expr"`
	NextRefresh   time.Time     `json:"next_refresh"`
	LastRefresh   time.Time     `json:"last_refresh"`
	TimeUntilNext time.Duration `json:"time_until_next"`
}

// Cache holds trending snapshots per region and refreshes them on a
// cron schedule.
type Cache struct {
	fetcher    Fetcher
	cron       *cron.Cron
	cronExpr   string
	regions    []string
	maxResults int

	group singleflight.Group

	mu        sync.RWMutex
	snapshots map[string]Snapshot
}

// New creates a Cache covering the given regions.
func New(fetcher Fetcher, c *cron.Cron, cronExpr string, regions []string, maxResults int) *Cache {
	return &Cache{
		fetcher:    fetcher,
		cron:       c,
		cronExpr:   cronExpr,
		regions:    regions,
		maxResults: maxResults,
		snapshots:  make(map[string]Snapshot),
	}
}

// Schedule registers the periodic refresh with the cron engine. The
// cron engine itself is started by the caller.
func (c *Cache) Schedule(ctx context.Context) error {
	runFunc := func() {
		_, _, _ = c.group.Do("refresh", func() (any, error) {
			if err := c.Refresh(ctx); err != nil {
				log.Error("Trending refresh failed: %v", err)
			}
			return nil, nil
		})
	}
	_, err := c.cron.AddFunc(c.cronExpr, runFunc)
	return err
}

// Refresh reloads every configured region concurrently. A failing
// region keeps its previous snapshot; the first error is returned after
// all regions finished.
func (c *Cache) Refresh(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, region := range c.regions {
		region := region
		g.Go(func() error {
			return c.refreshRegion(gctx, region)
		})
	}
	return g.Wait()
}

func (c *Cache) refreshRegion(ctx context.Context, region string) error {
	videos, err := c.fetcher.Trending(ctx, region, "", c.maxResults)
	if err != nil {
		log.Error("Failed to refresh trending chart for %s: %v", region, err)
		return err
	}
	c.mu.Lock()
	c.snapshots[region] = Snapshot{
		Region:    region,
		Videos:    videos,
		FetchedAt: time.Now(),
	}
	c.mu.Unlock()
	log.Info("Refreshed trending chart for %s: %d videos", region, len(videos))
	return nil
}

// Get returns the cached snapshot for a region. On a cache miss it
// fetches the chart directly; concurrent misses for the same region
// collapse into one upstream call.
func (c *Cache) Get(ctx context.Context, region string) (Snapshot, error) {
	if err := youtube.ValidateRegion(region); err != nil {
		return Snapshot{}, err
	}

	c.mu.RLock()
	snapshot, ok := c.snapshots[region]
	c.mu.RUnlock()
	if ok {
		return snapshot, nil
	}

	v, err, _ := c.group.Do("get:"+region, func() (any, error) {
		if err := c.refreshRegion(ctx, region); err != nil {
			return Snapshot{}, err
		}
		c.mu.RLock()
		defer c.mu.RUnlock()
		return c.snapshots[region], nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return v.(Snapshot), nil
}

// Status describes the refresh schedule relative to now.
func (c *Cache) Status() (Status, error) {
	info, err := icron.GetTriggerInfo(c.cronExpr, time.Now())
	if err != nil {
		return Status{}, apierr.Wrap(err, apierr.ErrUnknown, "inspect refresh schedule")
	}
	return Status{
		Regions:       c.regions,
		CronExpr:      c.cronExpr,
		NextRefresh:   info.Next,
		LastRefresh:   info.Last,
		TimeUntilNext: info.TimeUntilNext,
	}, nil
}
