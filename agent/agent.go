// Package agent wires the cortex runtime together: the learner, the
// plugin loader, the memory table, the durable cache snapshot, and the
// maintenance loop.
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mindloop/cortex/feed"
	"github.com/mindloop/cortex/learn"
	"github.com/mindloop/cortex/logger"
	"github.com/mindloop/cortex/memory"
	"github.com/mindloop/cortex/plugin"
	"github.com/mindloop/cortex/recall"
	"github.com/mindloop/cortex/sensor"
	"github.com/mindloop/cortex/snapshot"
)

// Memory table keys written by the runtime.
const (
	// KeyLastUpdate holds the timestamp of the last daily update.
	KeyLastUpdate = "last_update"

	// KeyDataPoint is the fact seeded at bootstrap.
	KeyDataPoint = "data_point_1"
)

// sampleSize is the number of simulated sensor readings fitted at
// bootstrap.
const sampleSize = 100

// Config holds agent settings. Everything is explicit; the agent keeps
// no process-wide state.
type Config struct {
	// PluginPath is the native sensor plugin attempted at bootstrap.
	PluginPath string

	// Calibration is the additive Z-axis offset. Zero means raw Z data.
	Calibration float64

	// PollInterval is how often the maintenance loop checks the clock.
	PollInterval time.Duration

	// UpdateEvery is the elapsed time that triggers a maintenance
	// update. An update fires only when strictly more than this has
	// passed since the last one.
	UpdateEvery time.Duration
}

// Clock abstracts wall-clock reads so maintenance decisions are
// deterministic under test.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Agent is the cortex runtime.
type Agent struct {
	cfg     Config
	log     *logger.Logger
	table   *memory.Table
	store   *snapshot.Store
	learner learn.Learner
	recall  *recall.Manager // optional
	hub     *feed.Hub       // optional
	plugin  plugin.Handle   // absent unless a load succeeded
	clock   Clock

	mu         sync.Mutex // guards cache and lastUpdate
	cache      map[string]any
	lastUpdate time.Time
}

// Option configures the agent.
type Option func(*Agent)

// WithLearner replaces the built-in nearest-centroid learner.
func WithLearner(l learn.Learner) Option {
	return func(a *Agent) { a.learner = l }
}

// WithRecall enables episodic recall.
func WithRecall(m *recall.Manager) Option {
	return func(a *Agent) { a.recall = m }
}

// WithFeed publishes lifecycle events to hub.
func WithFeed(hub *feed.Hub) Option {
	return func(a *Agent) { a.hub = hub }
}

// WithClock replaces the system clock, for tests.
func WithClock(c Clock) Option {
	return func(a *Agent) { a.clock = c }
}

// WithLogger directs operational lines to log. Without it the agent
// is silent.
func WithLogger(log *logger.Logger) Option {
	return func(a *Agent) { a.log = log }
}

// New creates an agent over the given snapshot store.
func New(cfg Config, store *snapshot.Store, opts ...Option) *Agent {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 60 * time.Second
	}
	if cfg.UpdateEvery <= 0 {
		cfg.UpdateEvery = 24 * time.Hour
	}
	a := &Agent{
		cfg:   cfg,
		store: store,
		clock: systemClock{},
		cache: make(map[string]any),
	}
	for _, opt := range opts {
		opt(a)
	}
	// The table and the default learner share the agent's logger, so
	// options must be applied first.
	a.table = memory.NewTable(a.log)
	if a.learner == nil {
		a.learner = learn.NewCentroidLearner(a.log)
	}
	return a
}

// Table returns the memory table.
func (a *Agent) Table() *memory.Table {
	return a.table
}

// Plugin returns the loaded plugin handle, absent if no load succeeded.
func (a *Agent) Plugin() (plugin.Handle, bool) {
	return a.plugin, a.plugin != nil
}

// Bootstrap runs the startup sequence: fit the learner on simulated
// calibrated sensor data, attempt the plugin load, seed the memory
// table and cache, dump the snapshot, then self-heal from it. Every
// failure along the way is logged and survived; only context
// cancellation aborts.
func (a *Agent) Bootstrap(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Learn from simulated three-axis data.
	features, labels := sensor.Simulate(sampleSize)
	learn.Calibrate(features, a.cfg.Calibration, a.log)
	if err := a.learner.Fit(ctx, features, labels); err != nil {
		a.log.Errorf("[AGENT] learner fit failed: %v", err)
		a.publish(feed.LevelError, "fit", err.Error())
		a.record(ctx, recall.KindFit, fmt.Sprintf("fit on %d samples: %v", sampleSize, err), false)
	} else {
		a.log.Infof("[AGENT] learner fitted on %d simulated readings", sampleSize)
		a.publish(feed.LevelInfo, "fit", fmt.Sprintf("fitted on %d readings", sampleSize))
		a.record(ctx, recall.KindFit, fmt.Sprintf("fitted learner on %d readings", sampleSize), true)
	}

	// Attempt the sensor plugin. Absence is expected and non-fatal.
	if handle, ok := plugin.TryLoad(a.cfg.PluginPath, a.log); ok {
		a.plugin = handle
		a.publish(feed.LevelInfo, "plugin", "loaded "+handle.Name())
		a.record(ctx, recall.KindPlugin, "loaded "+handle.Name(), true)
	} else {
		a.publish(feed.LevelWarn, "plugin", a.cfg.PluginPath+" unavailable")
		a.record(ctx, recall.KindPlugin, a.cfg.PluginPath+" unavailable", false)
	}

	// Seed the memory table and the recoverable cache.
	a.table.Update(KeyDataPoint, "Important value")

	now := a.clock.Now()
	a.mu.Lock()
	a.cache["bootstrapped_at"] = now.Format(time.RFC3339)
	a.cache["plugin_loaded"] = a.plugin != nil
	a.cache["sample_size"] = sampleSize
	cache := a.snapshotCache()
	a.mu.Unlock()

	if err := a.store.Dump(cache); err != nil {
		// Dump already logged the failure; keep running on the
		// in-process cache.
		a.publish(feed.LevelError, "snapshot", err.Error())
	}

	a.SelfHeal()
	return ctx.Err()
}

// SelfHeal restores the cache from the last snapshot, replacing the
// in-process mapping wholesale. Failure is reported, never escalated.
func (a *Agent) SelfHeal() bool {
	a.log.Infof("[AGENT] attempting self-heal...")
	restored, err := a.store.Restore()
	if err != nil {
		a.log.Errorf("[AGENT] self-heal failed: %v", err)
		a.publish(feed.LevelError, "self_heal", err.Error())
		a.record(context.Background(), recall.KindSelfHeal, err.Error(), false)
		return false
	}

	a.mu.Lock()
	a.cache = restored
	n := len(restored)
	a.mu.Unlock()

	a.log.Infof("[AGENT] self-heal successful (%d entries)", n)
	a.publish(feed.LevelInfo, "self_heal", fmt.Sprintf("restored %d entries", n))
	a.record(context.Background(), recall.KindSelfHeal, fmt.Sprintf("restored %d entries", n), true)
	return true
}

// CacheSet stores a recoverable fact in the cache. It is not durable
// until the next DumpCache.
func (a *Agent) CacheSet(key string, value any) {
	a.mu.Lock()
	a.cache[key] = value
	a.mu.Unlock()
}

// CacheGet returns a cache entry.
func (a *Agent) CacheGet(key string) (any, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v, ok := a.cache[key]
	return v, ok
}

// DumpCache persists the current cache to the snapshot store.
func (a *Agent) DumpCache() error {
	a.mu.Lock()
	cache := a.snapshotCache()
	a.mu.Unlock()
	return a.store.Dump(cache)
}

// snapshotCache copies the cache for a dump outside the lock. Callers
// must hold a.mu.
func (a *Agent) snapshotCache() map[string]any {
	out := make(map[string]any, len(a.cache))
	for k, v := range a.cache {
		out[k] = v
	}
	return out
}

// publish sends a lifecycle event when a feed hub is configured.
func (a *Agent) publish(level, kind, message string) {
	if a.hub == nil {
		return
	}
	a.hub.Publish(feed.Event{Level: level, Kind: kind, Message: message})
}

// record stores an episode when recall is configured. Recall failures
// never propagate.
func (a *Agent) record(ctx context.Context, kind, note string, success bool) {
	if a.recall == nil {
		return
	}
	if err := a.recall.Record(ctx, recall.NewEpisode(kind, note, success)); err != nil {
		a.log.Warnf("[AGENT] episode not recorded: %v", err)
	}
}
