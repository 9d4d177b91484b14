// Package monitor samples this process's own CPU, RAM, network, and
// disk footprint from /proc and /sys and periodically pushes the
// network and link-speed figures into a gossip.Node so they ride along
// on every heartbeat. All reads are delta-based against the previous
// sample and every failure mode degrades to a zero reading rather than
// an error: a monitor hiccup must never take down the gossip loops.
package monitor

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Interval is the default sampling period.
const Interval = 3 * time.Second

// Metrics is one sample of local resource usage.
type Metrics struct {
	CPUPercent  float64
	RAMPercent  float64
	NetMbps     float64
	LinkSpeed   float64 // negotiated NIC speed in Mbps
	DiskPercent float64
}

// DriftSampler reports this node's clock offset against an external
// time source, in seconds. It exists purely as an injection point: the
// core sampler never constructs one and treats a nil DriftSampler as
// "no drift reporting". An embedder wanting real NTP-based drift wires
// one in via WithDriftSampler.
type DriftSampler interface {
	Drift(ctx context.Context) (float64, error)
}

// Sampler tracks delta-based resource usage for the current process
// tree, rooted at PID 1 inside its container (or the host's init
// outside one).
type Sampler struct {
	mu sync.Mutex

	prevCPUApp   uint64
	prevCPUTotal uint64
	prevIONet    uint64
	prevTime     time.Time

	linkSpeed float64
	drift     DriftSampler
	logger    *zap.Logger
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithDriftSampler attaches a DriftSampler used by DriftSeconds.
func WithDriftSampler(d DriftSampler) Option {
	return func(s *Sampler) { s.drift = d }
}

// WithLogger attaches a zap logger for sampling diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(s *Sampler) { s.logger = l }
}

// NewSampler primes the delta counters with an initial read so the
// first Collect call reports real deltas rather than zeros.
func NewSampler(opts ...Option) *Sampler {
	s := &Sampler{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.linkSpeed = detectLinkSpeed()
	s.prevCPUApp, s.prevCPUTotal = readCPU()
	s.prevIONet = readNetIO()
	s.prevTime = time.Now()
	return s
}

// Collect takes one delta-based sample. Safe to call from any goroutine
// and at any rate, though callers normally drive it on Interval.
func (s *Sampler) Collect() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	dt := now.Sub(s.prevTime)
	s.prevTime = now

	return Metrics{
		CPUPercent:  s.calcCPU(),
		RAMPercent:  calcRAM(),
		NetMbps:     s.calcNet(dt),
		LinkSpeed:   s.linkSpeed,
		DiskPercent: calcDisk(),
	}
}

func (s *Sampler) calcCPU() float64 {
	app, total := readCPU()
	dApp := int64(app) - int64(s.prevCPUApp)
	dTotal := int64(total) - int64(s.prevCPUTotal)
	s.prevCPUApp, s.prevCPUTotal = app, total
	if dTotal <= 0 {
		return 0
	}
	return round1(100 * float64(dApp) / float64(dTotal))
}

func (s *Sampler) calcNet(dt time.Duration) float64 {
	cur := readNetIO()
	delta := int64(cur) - int64(s.prevIONet)
	s.prevIONet = cur
	if dt <= 0 || delta <= 0 {
		return 0
	}
	bytesPerSec := float64(delta) / dt.Seconds()
	return round1(bytesPerSec * 8 / 1_000_000)
}

// Run drives Collect every interval (Interval when interval <= 0) and
// pushes net/link figures into the given pusher (normally a
// *gossip.Node) until ctx is canceled. It
// never returns an error: sampling failures simply report zero.
func (s *Sampler) Run(ctx context.Context, interval time.Duration, push func(netMbps, linkSpeed, linkSpeedMax float64)) {
	if interval <= 0 {
		interval = Interval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m := s.Collect()
			push(m.NetMbps, m.LinkSpeed, m.LinkSpeed)
			s.logger.Debug("monitor sample",
				zap.Float64("cpu_pct", m.CPUPercent),
				zap.Float64("ram_pct", m.RAMPercent),
				zap.Float64("net_mbps", m.NetMbps),
				zap.Float64("disk_pct", m.DiskPercent))
		}
	}
}

// DriftSeconds reports clock offset via the injected DriftSampler, or
// (0, false) if none was configured.
func (s *Sampler) DriftSeconds(ctx context.Context) (float64, bool) {
	if s.drift == nil {
		return 0, false
	}
	d, err := s.drift.Drift(ctx)
	if err != nil {
		return 0, false
	}
	return d, true
}

// readCPU returns (app_ticks, total_ticks). app_ticks sums utime+stime
// across every thread of PID 1; total_ticks sums the host's aggregate
// cpu line in /proc/stat.
func readCPU() (appTicks, totalTicks uint64) {
	entries, err := os.ReadDir("/proc/1/task")
	if err == nil {
		for _, e := range entries {
			data, err := os.ReadFile(filepath.Join("/proc/1/task", e.Name(), "stat"))
			if err != nil {
				continue
			}
			fields := strings.Fields(string(data))
			if len(fields) < 15 {
				continue
			}
			ut, err1 := strconv.ParseUint(fields[13], 10, 64)
			st, err2 := strconv.ParseUint(fields[14], 10, 64)
			if err1 == nil && err2 == nil {
				appTicks += ut + st
			}
		}
	}

	f, err := os.Open("/proc/stat")
	if err != nil {
		return appTicks, 0
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	if scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		for _, v := range fields[1:] {
			if n, err := strconv.ParseUint(v, 10, 64); err == nil {
				totalTicks += n
			}
		}
	}
	return appTicks, totalTicks
}

// calcRAM reports cgroup memory usage as a percentage of host MemTotal,
// trying cgroup v2 first and falling back to v1.
func calcRAM() float64 {
	memBytes, ok := readUintFile("/sys/fs/cgroup/memory.current")
	if !ok {
		memBytes, ok = readUintFile("/sys/fs/cgroup/memory/memory.usage_in_bytes")
		if !ok {
			return 0
		}
	}

	memTotal := readMemTotal()
	if memTotal == 0 {
		return 0
	}
	return round1(100 * float64(memBytes) / float64(memTotal))
}

func readMemTotal() uint64 {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "MemTotal:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0
		}
		return kb * 1024
	}
	return 0
}

// readNetIO approximates network bytes from /proc/1/io:
// (rchar-read_bytes)+(wchar-write_bytes) captures non-disk I/O, which
// for a gossip node is predominantly network traffic.
func readNetIO() uint64 {
	f, err := os.Open("/proc/1/io")
	if err != nil {
		return 0
	}
	defer f.Close()

	vals := map[string]int64{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, val, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			continue
		}
		vals[strings.TrimSpace(key)] = n
	}

	diff := (vals["rchar"] - vals["read_bytes"]) + (vals["wchar"] - vals["write_bytes"])
	if diff < 0 {
		return 0
	}
	return uint64(diff)
}

// calcDisk sums file sizes under /app and /data as a percentage of the
// root filesystem's total capacity.
func calcDisk() float64 {
	var appBytes int64
	for _, dir := range []string{"/app", "/data"} {
		_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if info, err := d.Info(); err == nil {
				appBytes += info.Size()
			}
			return nil
		})
	}

	total := rootFilesystemBytes("/")
	if total <= 0 {
		return 0
	}
	return round2(100 * float64(appBytes) / float64(total))
}

// rootFilesystemBytes returns the total capacity of the filesystem
// mounted at path, the Go equivalent of the source's
// os.statvfs("/").f_frsize * f_blocks. Returns 0 on any failure.
func rootFilesystemBytes(path string) int64 {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0
	}
	return int64(stat.Bsize) * int64(stat.Blocks)
}

// detectLinkSpeed returns the negotiated speed in Mbps of the first
// physical, up network interface, skipping loopback and virtual/bridge
// devices. Returns 0 if none can be determined.
func detectLinkSpeed() float64 {
	entries, err := os.ReadDir("/sys/class/net")
	if err != nil {
		return 0
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, iface := range names {
		if iface == "lo" || strings.HasPrefix(iface, "veth") ||
			strings.HasPrefix(iface, "docker") || strings.HasPrefix(iface, "br-") {
			continue
		}
		state, err := os.ReadFile(filepath.Join("/sys/class/net", iface, "operstate"))
		if err != nil || strings.TrimSpace(string(state)) != "up" {
			continue
		}
		speed, ok := readUintFile(filepath.Join("/sys/class/net", iface, "speed"))
		if ok && speed > 0 {
			return float64(speed)
		}
	}
	return 0
}

func readUintFile(path string) (uint64, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	n, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func round1(v float64) float64 { return roundN(v, 10) }
func round2(v float64) float64 { return roundN(v, 100) }

func roundN(v, scale float64) float64 {
	return float64(int64(v*scale+0.5)) / scale
}
