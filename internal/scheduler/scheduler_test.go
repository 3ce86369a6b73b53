package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GoldBoard/internal/cache"
	"GoldBoard/internal/model"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeSource struct {
	clock *fakeClock
	calls atomic.Int32
	err   error
	// gate, when set, blocks Fetch until it is closed.
	gate    chan struct{}
	started chan struct{}
}

func (s *fakeSource) Fetch(ctx context.Context) (*model.MarketSnapshot, error) {
	s.calls.Add(1)
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.gate != nil {
		<-s.gate
	}
	if s.err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDataUnavailable, s.err)
	}
	return &model.MarketSnapshot{
		Prices:    []model.PricePoint{{CurrencyCode: "USD", Symbol: "$", PriceTroyOunce: 2650}},
		FetchedAt: s.clock.Now(),
	}, nil
}

type fixture struct {
	clock  *fakeClock
	source *fakeSource
	cache  *cache.Cache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)}
	return &fixture{
		clock:  clock,
		source: &fakeSource{clock: clock},
		cache:  cache.New(cache.NewFileStore(t.TempDir()), "", nil),
	}
}

func (f *fixture) controller(t *testing.T, onChange func(model.RefreshState)) *Controller {
	t.Helper()
	logger := zerolog.Nop()
	c, err := NewController(context.Background(), ControllerConfig{
		Source:   f.source,
		Cache:    f.cache,
		Interval: time.Hour,
		Now:      f.clock.Now,
		OnChange: onChange,
		Logger:   &logger,
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) seed(t *testing.T, age time.Duration) *model.MarketSnapshot {
	t.Helper()
	snap := &model.MarketSnapshot{
		Prices:    []model.PricePoint{{CurrencyCode: "EUR", Symbol: "€", PriceTroyOunce: 2300}},
		FetchedAt: f.clock.Now().Add(-age),
	}
	require.NoError(t, f.cache.Store(context.Background(), snap))
	return snap
}

func TestControllerConfigValidate(t *testing.T) {
	err := (&ControllerConfig{Interval: -1}).Validate()
	require.Error(t, err)
	for _, want := range []string{"source cannot be nil", "cache cannot be nil", "interval cannot be negative", "logger cannot be nil"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestColdStart_FailureWithoutCache(t *testing.T) {
	f := newFixture(t)
	f.source.err = errors.New("connection refused")
	c := f.controller(t, nil)

	st := c.State()
	assert.Equal(t, model.PhaseColdStart, st.Phase)
	assert.True(t, st.IsLoading)
	assert.True(t, c.NeedsFetch())

	c.Start(context.Background())
	c.Stop()

	st = c.State()
	assert.Equal(t, int32(1), f.source.calls.Load())
	assert.Equal(t, model.PhaseColdStart, st.Phase)
	assert.False(t, st.IsLoading)
	assert.ErrorIs(t, st.Err, model.ErrDataUnavailable)
	assert.NotEmpty(t, st.Message)
	assert.Empty(t, st.Prices())
}

func TestColdStart_SuccessPersists(t *testing.T) {
	f := newFixture(t)
	c := f.controller(t, nil)

	c.Start(context.Background())
	c.Stop()

	st := c.State()
	assert.Equal(t, model.PhaseReady, st.Phase)
	assert.Nil(t, st.Err)
	require.Len(t, st.Prices(), 1)

	cached, ok := f.cache.Load(context.Background())
	require.True(t, ok)
	assert.Equal(t, "USD", cached.Prices[0].CurrencyCode)
}

func TestFreshCache_NoFetch(t *testing.T) {
	f := newFixture(t)
	f.seed(t, time.Minute)
	c := f.controller(t, nil)

	assert.False(t, c.NeedsFetch())
	c.Start(context.Background())
	c.Stop()

	st := c.State()
	assert.Equal(t, model.PhaseReady, st.Phase)
	assert.Equal(t, int32(0), f.source.calls.Load())
	assert.Equal(t, "EUR", st.Prices()[0].CurrencyCode)
}

func TestStaleCache_ServedWhileRefreshing(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 2*time.Hour)
	f.source.gate = make(chan struct{})
	f.source.started = make(chan struct{}, 1)
	c := f.controller(t, nil)
	require.True(t, c.NeedsFetch())

	c.Start(context.Background())
	<-f.source.started

	st := c.State()
	assert.Equal(t, model.PhaseLoading, st.Phase)
	assert.True(t, st.IsLoading)
	require.NotNil(t, st.Snapshot)
	assert.Equal(t, "EUR", st.Prices()[0].CurrencyCode)

	// a trigger while the fetch is outstanding is ignored
	assert.False(t, c.Refresh(context.Background()))

	close(f.source.gate)
	c.Stop()

	st = c.State()
	assert.Equal(t, model.PhaseReady, st.Phase)
	assert.False(t, st.IsLoading)
	assert.Equal(t, "USD", st.Prices()[0].CurrencyCode)
	assert.Equal(t, int32(1), f.source.calls.Load())
}

func TestFailureKeepsPreviousSnapshot(t *testing.T) {
	f := newFixture(t)
	f.seed(t, time.Minute)
	f.source.err = errors.New("status 503")

	var phases []model.Phase
	c := f.controller(t, func(st model.RefreshState) { phases = append(phases, st.Phase) })

	assert.True(t, c.Refresh(context.Background()))
	st := c.State()
	assert.Equal(t, model.PhaseReadyWithError, st.Phase)
	assert.Equal(t, model.DataUnavailableMessage, st.Message)
	assert.Equal(t, "EUR", st.Prices()[0].CurrencyCode)
	assert.Equal(t, []model.Phase{model.PhaseLoading, model.PhaseReadyWithError}, phases)

	// recovery clears the error
	f.source.err = nil
	f.clock.Advance(DefaultCooldown)
	assert.True(t, c.Refresh(context.Background()))
	st = c.State()
	assert.Equal(t, model.PhaseReady, st.Phase)
	assert.Nil(t, st.Err)
	assert.Empty(t, st.Message)
}

func TestManualRefresh_Cooldown(t *testing.T) {
	f := newFixture(t)
	f.seed(t, time.Minute)
	c := f.controller(t, nil)

	assert.True(t, c.Refresh(context.Background()))
	assert.False(t, c.Refresh(context.Background()))
	assert.Equal(t, int32(1), f.source.calls.Load())

	f.clock.Advance(DefaultCooldown - time.Second)
	assert.False(t, c.Refresh(context.Background()))
	assert.Equal(t, int32(1), f.source.calls.Load())

	f.clock.Advance(time.Second)
	assert.True(t, c.Refresh(context.Background()))
	assert.Equal(t, int32(2), f.source.calls.Load())
}

func TestPeriodicRefresh(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the cron timer")
	}
	f := newFixture(t)
	f.seed(t, 0)
	logger := zerolog.Nop()
	c, err := NewController(context.Background(), ControllerConfig{
		Source:   f.source,
		Cache:    f.cache,
		Interval: time.Second,
		Now:      f.clock.Now,
		Logger:   &logger,
	})
	require.NoError(t, err)

	c.Start(context.Background())
	assert.Eventually(t, func() bool { return f.source.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
	c.Stop()

	n := f.source.calls.Load()
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, n, f.source.calls.Load(), "no refresh after Stop")
}
