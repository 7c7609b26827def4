package sampler

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/7c/pypm/internal/process"
	"github.com/7c/pypm/internal/registry"
)

func TestSampleOnceWritesLogFiles(t *testing.T) {
	dir := t.TempDir()
	reg := registry.New()
	p := process.New("p1", "sleep 5", "/tmp", true, true)
	if err := reg.Add(p); err != nil {
		t.Fatal(err)
	}
	if err := p.Start(true); err != nil {
		t.Fatal(err)
	}
	defer p.Kill()

	s := New(reg, dir, 60) // one sample per second
	s.sampleOnce()

	cpuPath := filepath.Join(dir, "p1_log_cpu")
	memPath := filepath.Join(dir, "p1_log_mem")

	cpuBytes, err := os.ReadFile(cpuPath)
	if err != nil {
		t.Fatalf("read cpu log: %v", err)
	}
	if len(cpuBytes) != 8 {
		t.Errorf("cpu log len = %d, want 8", len(cpuBytes))
	}

	memBytes, err := os.ReadFile(memPath)
	if err != nil {
		t.Fatalf("read mem log: %v", err)
	}
	if len(memBytes) != 8 {
		t.Errorf("mem log len = %d, want 8", len(memBytes))
	}
	v := math.Float64frombits(binary.LittleEndian.Uint64(memBytes))
	if v < 0 {
		t.Errorf("mem sample = %v, want >= 0", v)
	}
}

func TestSampleOnceAppendsAcrossCalls(t *testing.T) {
	dir := t.TempDir()
	reg := registry.New()
	p := process.New("p1", "sleep 5", "/tmp", false, true)
	reg.Add(p)
	if err := p.Start(true); err != nil {
		t.Fatal(err)
	}
	defer p.Kill()

	s := New(reg, dir, 60)
	s.sampleOnce()
	s.sampleOnce()

	memBytes, err := os.ReadFile(filepath.Join(dir, "p1_log_mem"))
	if err != nil {
		t.Fatal(err)
	}
	if len(memBytes) != 16 {
		t.Errorf("mem log len after two samples = %d, want 16", len(memBytes))
	}
}

func TestSampleOnceLogsZeroForInactiveProcess(t *testing.T) {
	dir := t.TempDir()
	reg := registry.New()
	p := process.New("p1", "sleep 5", "/tmp", true, true)
	reg.Add(p) // never started: PID stays the sentinel, never active

	s := New(reg, dir, 60)
	s.sampleOnce()

	cpuBytes, err := os.ReadFile(filepath.Join(dir, "p1_log_cpu"))
	if err != nil {
		t.Fatalf("read cpu log: %v", err)
	}
	if len(cpuBytes) != 8 {
		t.Fatalf("cpu log len = %d, want 8", len(cpuBytes))
	}
	if v := math.Float64frombits(binary.LittleEndian.Uint64(cpuBytes)); v != 0 {
		t.Errorf("cpu sample for inactive process = %v, want 0", v)
	}

	memBytes, err := os.ReadFile(filepath.Join(dir, "p1_log_mem"))
	if err != nil {
		t.Fatalf("read mem log: %v", err)
	}
	if v := math.Float64frombits(binary.LittleEndian.Uint64(memBytes)); v != 0 {
		t.Errorf("mem sample for inactive process = %v, want 0", v)
	}
}

func TestSampleOnceKeepsAppendingAfterProcessExits(t *testing.T) {
	dir := t.TempDir()
	reg := registry.New()
	p := process.New("p1", "sleep 5", "/tmp", true, false)
	reg.Add(p)
	if err := p.Start(true); err != nil {
		t.Fatal(err)
	}

	s := New(reg, dir, 60)
	s.sampleOnce()
	p.Kill()
	s.sampleOnce()
	s.sampleOnce()

	cpuBytes, err := os.ReadFile(filepath.Join(dir, "p1_log_cpu"))
	if err != nil {
		t.Fatal(err)
	}
	if len(cpuBytes) != 24 {
		t.Errorf("cpu log len after 3 ticks (1 active, 2 after exit) = %d, want 24", len(cpuBytes))
	}
}

func TestNewFallsBackToOneMinute(t *testing.T) {
	s := New(registry.New(), t.TempDir(), 0)
	if s.period != time.Minute {
		t.Errorf("period = %v, want 1m", s.period)
	}
}

func TestReadSamplesRoundTrips(t *testing.T) {
	dir := t.TempDir()
	reg := registry.New()
	p := process.New("p1", "sleep 5", "/tmp", true, false)
	reg.Add(p)
	if err := p.Start(true); err != nil {
		t.Fatal(err)
	}
	defer p.Kill()

	s := New(reg, dir, 60)
	s.sampleOnce()
	s.sampleOnce()

	samples, err := ReadSamples(CPULogPath(dir, "p1"))
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 2 {
		t.Fatalf("len(samples) = %d, want 2", len(samples))
	}
	for _, v := range samples {
		if v < 0 {
			t.Errorf("sample = %v, want >= 0", v)
		}
	}
}

func TestReadSamplesMissingFileIsEmpty(t *testing.T) {
	samples, err := ReadSamples(CPULogPath(t.TempDir(), "nope"))
	if err != nil {
		t.Fatal(err)
	}
	if samples != nil {
		t.Errorf("samples = %v, want nil", samples)
	}
}
