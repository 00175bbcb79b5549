// cortexd is the cortex agent daemon.
//
// It fits the learner on simulated sensor data, attempts the sensor
// plugin, seeds and snapshots the cache, self-heals from the snapshot,
// then runs the maintenance loop until SIGINT/SIGTERM.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mindloop/cortex/agent"
	"github.com/mindloop/cortex/config"
	"github.com/mindloop/cortex/feed"
	"github.com/mindloop/cortex/logger"
	"github.com/mindloop/cortex/recall"
	"github.com/mindloop/cortex/recall/embedder/mock"
	"github.com/mindloop/cortex/recall/store/chromem"
	"github.com/mindloop/cortex/snapshot"
)

func main() {
	initConfig := flag.String("init-config", "", "write a default cortex.yaml to the given path and exit")
	flag.Parse()

	if *initConfig != "" {
		if err := config.WriteDefault(*initConfig); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println("wrote", *initConfig)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Close()
	log.Infof("[CORTEXD] starting (snapshot=%s, poll=%s)", cfg.SnapshotPath, cfg.PollInterval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := snapshot.New(cfg.SnapshotPath, log)

	opts := []agent.Option{agent.WithLogger(log)}

	if cfg.Recall.Enabled {
		mgr, err := buildRecall(cfg.Recall, log)
		if err != nil {
			// Recall is an enhancement; run without it rather than die.
			log.Errorf("[CORTEXD] recall disabled: %v", err)
		} else {
			defer mgr.Close()
			opts = append(opts, agent.WithRecall(mgr))
		}
	}

	var hub *feed.Hub
	if cfg.Listen != "" {
		hub = feed.NewHub()
		srv := feed.NewServer(hub, cfg.Listen, log)
		go func() {
			if err := srv.ListenAndServe(); err != nil {
				log.Errorf("[CORTEXD] feed server: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		opts = append(opts, agent.WithFeed(hub))
	}

	a := agent.New(agent.Config{
		PluginPath:   cfg.PluginPath,
		Calibration:  cfg.Calibration,
		PollInterval: cfg.PollInterval,
		UpdateEvery:  cfg.UpdateEvery,
	}, store, opts...)

	if err := a.Bootstrap(ctx); err != nil {
		log.Errorf("[CORTEXD] bootstrap aborted: %v", err)
		return
	}

	// Runs until signal; cancellation is checked once per poll interval.
	if err := a.Maintain(ctx); err != nil && ctx.Err() == nil {
		log.Errorf("[CORTEXD] maintenance loop: %v", err)
	}
	log.Infof("[CORTEXD] shut down")
}

func buildRecall(cfg config.RecallConfig, log *logger.Logger) (*recall.Manager, error) {
	var (
		store *chromem.ChromemStore
		err   error
	)
	if cfg.PersistPath != "" {
		store, err = chromem.NewPersistent(cfg.PersistPath, log)
	} else {
		store, err = chromem.New(log)
	}
	if err != nil {
		return nil, fmt.Errorf("episode store: %w", err)
	}

	// The deterministic embedder keeps the daemon self-contained; the
	// ONNX embedder (build tag onnx) is the semantic upgrade.
	return recall.NewManager(store, mock.New(), &recall.Config{
		Enabled:       true,
		MinSimilarity: cfg.MinSimilarity,
	}, log)
}
