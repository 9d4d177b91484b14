package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/corelink/gossipd/pkg/config"
	"github.com/corelink/gossipd/pkg/gossip"
	"github.com/corelink/gossipd/pkg/gpu"
	"github.com/corelink/gossipd/pkg/monitor"
)

var serveOpt struct {
	EnvFile string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run a gossip node until terminated",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(serveOpt.EnvFile)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveOpt.EnvFile, "env-file", "",
		"path to an env file; if unset, configuration is read from the process environment")
	rootCmd.AddCommand(serveCmd)
}

func runServe(envFile string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("corelinkd starting",
		zap.String("node_id", cfg.NodeID),
		zap.Int("gossip_port", cfg.GossipPort))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gpus := gpu.Collect(ctx)
	logger.Info("gpu inventory collected", zap.Int("count", len(gpus)))

	node := gossip.NewNode(cfg.NodeID, gpus, 0, 0, gossip.Config{
		Port:                cfg.GossipPort,
		HeartbeatInterval:   cfg.HeartbeatInterval,
		HeartbeatJitter:     cfg.HeartbeatJitter,
		NodeTimeout:         cfg.NodeTimeout,
		NodeRemove:          cfg.NodeRemove,
		AntiEntropyInterval: cfg.AntiEntropyInterval,
		Logger:              logger,
	})

	if err := node.Start(); err != nil {
		return fmt.Errorf("start gossip node: %w", err)
	}
	defer node.Stop()

	sampler := monitor.NewSampler(monitor.WithLogger(logger))
	go sampler.Run(ctx, monitor.Interval, func(netMbps, linkSpeed, linkSpeedMax float64) {
		node.SetNetKbps(netMbps * 1000)
		node.SetLinkSpeed(linkSpeed, linkSpeedMax)
	})

	srv := newDebugServer(cfg.MetricsAddr, node)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped unexpectedly", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	<-ctx.Done()
	logger.Info("corelinkd shutting down")
	return nil
}

// newDebugServer mounts the Prometheus metrics endpoint and a small JSON
// status endpoint exposing the node's cluster view, mirroring Atlas's
// single-mux debug-server pattern.
func newDebugServer(addr string, node *gossip.Node) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		node.Metrics().Set().WritePrometheus(w)
		metrics.WriteProcessMetrics(w)
	})

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(node.GetClusterState())
	})

	return &http.Server{Addr: addr, Handler: mux}
}

const shutdownTimeout = 5 * time.Second

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}
