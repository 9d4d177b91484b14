// Package config loads corelinkd's runtime configuration from the
// process environment or an env file, following the same env-file-or-
// process-env convention as Atlas's command entrypoint: pass a path to
// an env file and it replaces the process environment wholesale, pass
// nothing and the process environment is read directly.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-envparse"
)

// Config is corelinkd's full set of tunables. Every field has a default
// applied by Load when the corresponding environment variable is unset.
type Config struct {
	NodeID              string
	GossipPort          int
	HeartbeatInterval   time.Duration
	HeartbeatJitter     time.Duration
	NodeTimeout         time.Duration
	NodeRemove          time.Duration
	AntiEntropyInterval time.Duration
	MetricsAddr         string
	LogLevel            string
}

// defaults mirror the package-level constants in pkg/gossip; config
// does not import gossip so its zero-value story can be tested and
// reasoned about in isolation.
const (
	defaultGossipPort          = 47100
	defaultHeartbeatInterval   = 5 * time.Second
	defaultHeartbeatJitter     = 1500 * time.Millisecond
	defaultNodeTimeout         = 20 * time.Second
	defaultNodeRemove          = 60 * time.Second
	defaultAntiEntropyInterval = 10 * time.Second
	defaultMetricsAddr         = "127.0.0.1:9090"
	defaultLogLevel            = "info"
)

// Load reads configuration from an env file (when envFile is non-empty)
// or from the process environment, applying defaults for anything
// unset, and returns the fully resolved Config.
func Load(envFile string) (*Config, error) {
	env, err := resolveEnv(envFile)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	hostname, _ := os.Hostname()

	c := &Config{
		NodeID:              getString(env, "CORELINK_NODE_ID", hostname),
		GossipPort:          getInt(env, "CORELINK_GOSSIP_PORT", defaultGossipPort),
		HeartbeatInterval:   getDuration(env, "CORELINK_HEARTBEAT_INTERVAL", defaultHeartbeatInterval),
		HeartbeatJitter:     getDuration(env, "CORELINK_HEARTBEAT_JITTER", defaultHeartbeatJitter),
		NodeTimeout:         getDuration(env, "CORELINK_NODE_TIMEOUT", defaultNodeTimeout),
		NodeRemove:          getDuration(env, "CORELINK_NODE_REMOVE", defaultNodeRemove),
		AntiEntropyInterval: getDuration(env, "CORELINK_ANTI_ENTROPY_INTERVAL", defaultAntiEntropyInterval),
		MetricsAddr:         getString(env, "CORELINK_METRICS_ADDR", defaultMetricsAddr),
		LogLevel:            getString(env, "CORELINK_LOG_LEVEL", defaultLogLevel),
	}

	if c.NodeID == "" {
		return nil, fmt.Errorf("config: CORELINK_NODE_ID is required (hostname lookup also failed)")
	}
	return c, nil
}

// resolveEnv returns a k=v list: the parsed contents of envFile if
// given, otherwise os.Environ().
func resolveEnv(envFile string) ([]string, error) {
	if envFile == "" {
		return os.Environ(), nil
	}

	f, err := os.Open(envFile)
	if err != nil {
		return nil, fmt.Errorf("read env file: %w", err)
	}
	defer f.Close()

	m, err := envparse.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse env file: %w", err)
	}

	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+v)
	}
	return out, nil
}

func lookup(env []string, key string) (string, bool) {
	for _, kv := range env {
		if k, v, ok := strings.Cut(kv, "="); ok && k == key {
			return v, true
		}
	}
	return "", false
}

func getString(env []string, key, def string) string {
	if v, ok := lookup(env, key); ok && v != "" {
		return v
	}
	return def
}

func getInt(env []string, key string, def int) int {
	v, ok := lookup(env, key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getDuration(env []string, key string, def time.Duration) time.Duration {
	v, ok := lookup(env, key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
