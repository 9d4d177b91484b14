// Package gpu discovers the NVIDIA GPUs installed on the local host by
// shelling out to nvidia-smi. It never returns an error: a host with no
// driver, no nvidia-smi binary, or a timed-out query simply reports no
// GPUs, matching spec.md's requirement that GPU inventory never blocks
// node startup or a heartbeat tick.
package gpu

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/corelink/gossipd/pkg/gossip"
)

// queryTimeout bounds the nvidia-smi subprocess so a wedged driver can
// never stall the caller.
const queryTimeout = 10 * time.Second

// Collect queries nvidia-smi for the locally installed GPUs. On any
// failure — missing binary, non-zero exit, malformed output, or a
// timeout — it returns an empty slice rather than an error.
func Collect(ctx context.Context) []gossip.GPU {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "nvidia-smi",
		"--query-gpu=index,name",
		"--format=csv,noheader,nounits",
	)

	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil
	}

	return parse(out.String())
}

// parse turns nvidia-smi's CSV stdout into a list of GPUs. Lines that
// don't parse are skipped rather than aborting the whole scan.
func parse(stdout string) []gossip.GPU {
	var gpus []gossip.GPU
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ", ", 2)
		id, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			continue
		}
		model := "Unknown"
		if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
			model = strings.TrimSpace(parts[1])
		}
		gpus = append(gpus, gossip.GPU{ID: id, Model: model})
	}
	return gpus
}
