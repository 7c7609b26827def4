// Package sampler periodically appends CPU/memory samples for opted-in
// processes to per-process log files on disk. It is grounded on the
// teacher's Daemon.sampleMetrics ticker loop (daemon/metrics.go),
// generalized from the teacher's in-memory CPU/RSS bookkeeping to the
// spec's append-only on-disk float64 sample files.
package sampler

import (
	"encoding/binary"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/7c/pypm/internal/registry"
)

// Sampler periodically appends one float64 sample per opted-in process to
// <logdir>/<name>_log_cpu and <logdir>/<name>_log_mem.
type Sampler struct {
	reg    *registry.Registry
	logDir string
	period time.Duration
	stopCh chan struct{}
}

// New builds a Sampler. logFrequency is the spec's "log_frequency" knob:
// the daemon samples every 60/logFrequency seconds. A logFrequency <= 0
// falls back to sampling once a minute.
func New(reg *registry.Registry, logDir string, logFrequency float64) *Sampler {
	period := time.Minute
	if logFrequency > 0 {
		period = time.Duration(float64(time.Minute) / logFrequency)
	}
	return &Sampler{
		reg:    reg,
		logDir: logDir,
		period: period,
		stopCh: make(chan struct{}),
	}
}

// Run blocks, sampling on Sampler's period until Stop is called.
func (s *Sampler) Run() {
	if s.logDir == "" {
		slog.Warn("sampler disabled: no log directory configured")
		return
	}
	if err := os.MkdirAll(s.logDir, 0o755); err != nil {
		slog.Error("sampler cannot create log directory", "dir", s.logDir, "error", err)
		return
	}

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sampleOnce()
		case <-s.stopCh:
			return
		}
	}
}

// Stop halts the sampling loop. It is safe to call at most once.
func (s *Sampler) Stop() { close(s.stopCh) }

// sampleOnce appends one reading per opted-in process, active or not:
// GetCPUPerc/GetMemUsage already return 0 for an inactive process, and
// the log file's length must grow by 8 bytes every tick regardless of
// liveness (spec §4.5, §8 property 8).
func (s *Sampler) sampleOnce() {
	for _, name := range s.reg.LogCPUNames() {
		p, err := s.reg.Find(name)
		if err != nil {
			continue
		}
		s.appendSample(name, "_log_cpu", p.GetCPUPerc())
	}
	for _, name := range s.reg.LogMemNames() {
		p, err := s.reg.Find(name)
		if err != nil {
			continue
		}
		s.appendSample(name, "_log_mem", p.GetMemUsage())
	}
}

// CPULogPath and MemLogPath return the on-disk path for a process's
// sampled history, matching the suffixes appendSample writes.
func CPULogPath(logDir, name string) string { return filepath.Join(logDir, name+"_log_cpu") }
func MemLogPath(logDir, name string) string { return filepath.Join(logDir, name+"_log_mem") }

// ReadSamples reads back a log file written by appendSample: a flat
// sequence of little-endian float64 values, oldest first. A missing file
// is reported as zero samples, not an error, since a process that has
// never been sampled has no history yet.
func ReadSamples(path string) ([]float64, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	n := len(data) / 8
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}
	return samples, nil
}

func (s *Sampler) appendSample(name, suffix string, value float64) {
	path := filepath.Join(s.logDir, name+suffix)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		slog.Error("sampler cannot open log file", "path", path, "error", err)
		return
	}
	defer f.Close()

	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(value))
	if _, err := f.Write(b[:]); err != nil {
		slog.Error("sampler write failed", "path", path, "error", err)
	}
}
