package agent_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mindloop/cortex/agent"
	"github.com/mindloop/cortex/recall"
	"github.com/mindloop/cortex/recall/embedder/mock"
	"github.com/mindloop/cortex/recall/store/chromem"
	"github.com/mindloop/cortex/snapshot"
)

func TestBootstrap_SurvivesMissingPlugin(t *testing.T) {
	dir := t.TempDir()
	store := snapshot.New(filepath.Join(dir, "snapshot.db"), nil)
	a := agent.New(agent.Config{
		PluginPath:  filepath.Join(dir, "sensors.so"), // does not exist
		Calibration: 0.2,
	}, store)

	if err := a.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}

	// The plugin failure must not interrupt the subsequent steps.
	if _, ok := a.Plugin(); ok {
		t.Error("expected absent plugin handle")
	}
	v, ok := a.Table().Get(agent.KeyDataPoint)
	if !ok {
		t.Fatal("memory table not seeded after plugin failure")
	}
	if v != "Important value" {
		t.Errorf("got %v, want seeded value", v)
	}

	// The cache was dumped and restored by the bootstrap self-heal.
	if v, ok := a.CacheGet("plugin_loaded"); !ok || v != false {
		t.Errorf("got plugin_loaded=%v (present=%t), want false", v, ok)
	}
	if _, ok := a.CacheGet("bootstrapped_at"); !ok {
		t.Error("expected bootstrapped_at in restored cache")
	}
	// The snapshot round trip keeps value types intact: the seeded int
	// must not come back as a float64.
	if v, ok := a.CacheGet("sample_size"); !ok || v != 100 {
		t.Errorf("got sample_size=%v (%T), want int 100", v, v)
	}
}

func TestSelfHeal_RestoresDumpedCache(t *testing.T) {
	store := snapshot.New(filepath.Join(t.TempDir(), "snapshot.db"), nil)
	a := agent.New(agent.Config{}, store)

	a.CacheSet("reading", 0.75)
	a.CacheSet("source", "bench")
	if err := a.DumpCache(); err != nil {
		t.Fatalf("DumpCache failed: %v", err)
	}

	// Mutate after the dump; self-heal rolls back to the snapshot.
	a.CacheSet("reading", 0.99)
	a.CacheSet("extra", "noise")

	if !a.SelfHeal() {
		t.Fatal("SelfHeal reported failure")
	}
	if v, _ := a.CacheGet("reading"); v != 0.75 {
		t.Errorf("got reading=%v, want 0.75 from snapshot", v)
	}
	if _, ok := a.CacheGet("extra"); ok {
		t.Error("self-heal kept an entry written after the dump")
	}
}

func TestSelfHeal_FreshStateWithoutSnapshot(t *testing.T) {
	store := snapshot.New(filepath.Join(t.TempDir(), "snapshot.db"), nil)
	a := agent.New(agent.Config{}, store)

	a.CacheSet("transient", 1)
	if !a.SelfHeal() {
		t.Fatal("SelfHeal must succeed when no snapshot exists")
	}
	if _, ok := a.CacheGet("transient"); ok {
		t.Error("expected empty cache after healing with no snapshot")
	}
}

func TestBootstrap_RecordsEpisodes(t *testing.T) {
	dir := t.TempDir()
	epStore, err := chromem.New(nil)
	if err != nil {
		t.Fatalf("create episode store: %v", err)
	}
	// Mock embeddings carry no semantics; accept any similarity so the
	// test only asserts that episodes were stored.
	mgr, err := recall.NewManager(epStore, mock.New(), &recall.Config{Enabled: true, MinSimilarity: -1}, nil)
	if err != nil {
		t.Fatalf("create recall manager: %v", err)
	}
	defer mgr.Close()

	store := snapshot.New(filepath.Join(dir, "snapshot.db"), nil)
	a := agent.New(agent.Config{
		PluginPath: filepath.Join(dir, "sensors.so"),
	}, store, agent.WithRecall(mgr))

	if err := a.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}

	episodes, err := mgr.Recall(context.Background(), "fitted learner on 100 readings", 10)
	if err != nil {
		t.Fatalf("Recall failed: %v", err)
	}
	if len(episodes) == 0 {
		t.Error("expected bootstrap episodes in the recall store")
	}
}

func TestBootstrap_CancelledContext(t *testing.T) {
	store := snapshot.New(filepath.Join(t.TempDir(), "snapshot.db"), nil)
	a := agent.New(agent.Config{PollInterval: time.Second}, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.Bootstrap(ctx); err == nil {
		t.Error("expected error from cancelled context")
	}
}
