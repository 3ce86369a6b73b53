package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"GoldBoard/internal/cache"
	"GoldBoard/internal/model"
)

const (
	// DefaultInterval is both the periodic refresh interval and the cache ttl.
	DefaultInterval = 5 * time.Minute
	// DefaultCooldown is the minimum gap between a completed attempt and a manual refresh.
	DefaultCooldown = 10 * time.Second
)

// Fetcher produces market snapshots.
type Fetcher interface {
	Fetch(ctx context.Context) (*model.MarketSnapshot, error)
}

// SnapshotCache persists the last successful snapshot.
type SnapshotCache interface {
	Load(ctx context.Context) (*model.MarketSnapshot, bool)
	Store(ctx context.Context, snap *model.MarketSnapshot) error
}

// ControllerConfig represents the configuration for the refresh controller.
type ControllerConfig struct {
	// Source fetches fresh snapshots.
	Source Fetcher
	// Cache holds the last successful snapshot.
	Cache SnapshotCache
	// Interval is the periodic refresh interval and staleness ttl.
	Interval time.Duration
	// Cooldown throttles manual refreshes.
	Cooldown time.Duration
	// Now returns the current time.
	Now func() time.Time
	// OnChange is called after every state transition, outside the lock.
	OnChange func(model.RefreshState)
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *ControllerConfig) Validate() error {
	var errs error
	if cfg.Source == nil {
		errs = errors.Join(errs, fmt.Errorf("source cannot be nil"))
	}
	if cfg.Cache == nil {
		errs = errors.Join(errs, fmt.Errorf("cache cannot be nil"))
	}
	if cfg.Interval < 0 {
		errs = errors.Join(errs, fmt.Errorf("interval cannot be negative"))
	}
	if cfg.Cooldown < 0 {
		errs = errors.Join(errs, fmt.Errorf("cooldown cannot be negative"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}
	return errs
}

// Controller owns the refresh lifecycle: initial load, periodic refresh,
// manual refresh throttling and the state exposed to the dashboard.
type Controller struct {
	cfg  ControllerConfig
	cron *cron.Cron

	mu          sync.Mutex
	state       model.RefreshState
	inFlight    bool
	lastAttempt time.Time
	needsFetch  bool

	initial sync.WaitGroup
}

// NewController creates a controller seeded from the cache.
func NewController(ctx context.Context, cfg ControllerConfig) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Cooldown == 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	c := &Controller{cfg: cfg}
	c.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{cfg.Logger})))

	snap, ok := cfg.Cache.Load(ctx)
	switch {
	case !ok:
		c.state = model.RefreshState{Phase: model.PhaseColdStart, IsLoading: true}
		c.needsFetch = true
		cfg.Logger.Info().Msg("no cached snapshot, cold start")
	case cache.IsStale(snap, cfg.Now(), cfg.Interval):
		c.state = model.RefreshState{Phase: model.PhaseReady, Snapshot: snap}
		c.needsFetch = true
		cfg.Logger.Info().Time("fetched_at", snap.FetchedAt).Msg("cached snapshot is stale, serving while refreshing")
	default:
		c.state = model.RefreshState{Phase: model.PhaseReady, Snapshot: snap}
		cfg.Logger.Info().Time("fetched_at", snap.FetchedAt).Msg("serving fresh cached snapshot")
	}
	return c, nil
}

// NeedsFetch reports whether Start will trigger an immediate fetch.
func (c *Controller) NeedsFetch() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.needsFetch
}

// State returns the current state. The snapshot is shared and must not be modified.
func (c *Controller) State() model.RefreshState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start runs the initial fetch when needed and registers the periodic refresh.
func (c *Controller) Start(ctx context.Context) {
	c.cron.Schedule(cron.Every(c.cfg.Interval), cron.FuncJob(func() {
		c.refresh(ctx, false)
	}))
	c.cron.Start()
	c.cfg.Logger.Info().Dur("interval", c.cfg.Interval).Msg("refresh scheduler started")

	if c.NeedsFetch() {
		c.initial.Add(1)
		go func() {
			defer c.initial.Done()
			c.refresh(ctx, false)
		}()
	}
}

// Stop cancels the periodic refresh and waits for a running fetch to finish.
func (c *Controller) Stop() {
	<-c.cron.Stop().Done()
	c.initial.Wait()
	c.cfg.Logger.Info().Msg("refresh scheduler stopped")
}

// Refresh performs a manual refresh. It reports false without fetching when
// a fetch is already in flight or the cooldown has not elapsed.
func (c *Controller) Refresh(ctx context.Context) bool {
	return c.refresh(ctx, true)
}

func (c *Controller) refresh(ctx context.Context, manual bool) bool {
	now := c.cfg.Now()

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		c.cfg.Logger.Debug().Bool("manual", manual).Msg("refresh already in flight, ignored")
		return false
	}
	if manual && !c.lastAttempt.IsZero() && now.Sub(c.lastAttempt) < c.cfg.Cooldown {
		c.mu.Unlock()
		c.cfg.Logger.Debug().Dur("since_last", now.Sub(c.lastAttempt)).Msg("manual refresh throttled")
		return false
	}
	c.inFlight = true
	c.needsFetch = false
	c.state.Phase = model.PhaseLoading
	c.state.IsLoading = true
	c.state.Err = nil
	c.state.Message = ""
	st := c.state
	c.mu.Unlock()
	c.notify(st)

	snap, err := c.cfg.Source.Fetch(ctx)
	if err == nil {
		if serr := c.cfg.Cache.Store(ctx, snap); serr != nil {
			c.cfg.Logger.Error().Err(serr).Msg("persist snapshot")
		}
	}

	c.mu.Lock()
	c.inFlight = false
	c.lastAttempt = c.cfg.Now()
	if err != nil {
		c.state.IsLoading = false
		c.state.Err = err
		c.state.Message = model.DataUnavailableMessage
		if c.state.Snapshot != nil {
			c.state.Phase = model.PhaseReadyWithError
		} else {
			c.state.Phase = model.PhaseColdStart
		}
	} else {
		c.state = model.RefreshState{Phase: model.PhaseReady, Snapshot: snap}
	}
	st = c.state
	c.mu.Unlock()

	if err != nil {
		c.cfg.Logger.Error().Err(err).Bool("manual", manual).Str("phase", string(st.Phase)).Msg("refresh failed")
	} else {
		c.cfg.Logger.Info().Bool("manual", manual).Int("prices", len(snap.Prices)).Msg("refresh complete")
	}
	c.notify(st)
	return true
}

func (c *Controller) notify(st model.RefreshState) {
	if c.cfg.OnChange != nil {
		c.cfg.OnChange(st)
	}
}

// cronLogger adapts zerolog to the cron.Logger interface.
type cronLogger struct {
	log *zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
