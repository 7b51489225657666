package trends

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipforge/creator-studio/internal/apierr"
	"github.com/clipforge/creator-studio/internal/youtube"
)

type fakeFetcher struct {
	mu      sync.Mutex
	calls   atomic.Int64
	perCall map[string]int
	err     error
	delay   time.Duration
}

func (f *fakeFetcher) Trending(_ context.Context, region, _ string, limit int) ([]youtube.Video, error) {
	f.calls.Add(1)
	f.mu.Lock()
	if f.perCall == nil {
		f.perCall = make(map[string]int)
	}
	f.perCall[region]++
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return []youtube.Video{
		{ID: region + "-1", Title: "Top in " + region, ViewCount: "100"},
	}, nil
}

func TestRefreshPopulatesAllRegions(t *testing.T) {
	fetcher := &fakeFetcher{}
	cache := New(fetcher, cron.New(), "0 * * * *", []string{"US", "GB", "JP"}, 20)

	require.NoError(t, cache.Refresh(context.Background()))
	assert.EqualValues(t, 3, fetcher.calls.Load())

	for _, region := range []string{"US", "GB", "JP"} {
		snapshot, err := cache.Get(context.Background(), region)
		require.NoError(t, err)
		assert.Equal(t, region, snapshot.Region)
		require.Len(t, snapshot.Videos, 1)
		assert.Equal(t, region+"-1", snapshot.Videos[0].ID)
		assert.False(t, snapshot.FetchedAt.IsZero())
	}
	assert.EqualValues(t, 3, fetcher.calls.Load(), "cached reads do not call upstream")
}

func TestGetOnMissFetchesOnce(t *testing.T) {
	fetcher := &fakeFetcher{delay: 20 * time.Millisecond}
	cache := New(fetcher, cron.New(), "0 * * * *", []string{"US"}, 20)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snapshot, err := cache.Get(context.Background(), "US")
			assert.NoError(t, err)
			assert.Equal(t, "US", snapshot.Region)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, fetcher.calls.Load(), "concurrent misses collapse into one fetch")
}

func TestGetRejectsUnknownRegion(t *testing.T) {
	cache := New(&fakeFetcher{}, cron.New(), "0 * * * *", []string{"US"}, 20)

	_, err := cache.Get(context.Background(), "XX")
	assert.True(t, apierr.IsType(err, apierr.ErrValidation))
}

func TestRefreshErrorKeepsPreviousSnapshot(t *testing.T) {
	fetcher := &fakeFetcher{}
	cache := New(fetcher, cron.New(), "0 * * * *", []string{"US"}, 20)

	require.NoError(t, cache.Refresh(context.Background()))
	before, err := cache.Get(context.Background(), "US")
	require.NoError(t, err)

	fetcher.err = apierr.New(apierr.ErrQuota, "quota exceeded")
	require.Error(t, cache.Refresh(context.Background()))

	after, err := cache.Get(context.Background(), "US")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestScheduleTriggersRefresh(t *testing.T) {
	fetcher := &fakeFetcher{}
	engine := cron.New(cron.WithSeconds())
	cache := New(fetcher, engine, "* * * * * *", []string{"US"}, 20)

	require.NoError(t, cache.Schedule(context.Background()))
	engine.Start()
	defer engine.Stop()

	require.Eventually(t, func() bool {
		return fetcher.calls.Load() >= 1
	}, 5*time.Second, 50*time.Millisecond)
}

func TestStatus(t *testing.T) {
	cache := New(&fakeFetcher{}, cron.New(), "0 * * * *", []string{"US", "GB"}, 20)

	status, err := cache.Status()
	require.NoError(t, err)
	assert.Equal(t, []string{"US", "GB"}, status.Regions)
	assert.Equal(t, "0 * * * *", status.CronExpr)
	assert.False(t, status.NextRefresh.IsZero())
	assert.Greater(t, status.TimeUntilNext, time.Duration(0))

	bad := New(&fakeFetcher{}, cron.New(), "garbage", nil, 20)
	_, err = bad.Status()
	assert.Error(t, err)
}
