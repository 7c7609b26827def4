// Package process implements the daemon-internal representation of one
// supervised child: spawn, poll, kill, CPU/memory sampling, and bounded
// stdout/stderr tail capture. It is the daemon analog of the teacher's
// daemon.Process, generalized from a restart-policy-driven process model
// to the plain spawn/poll/kill/sample lifecycle this spec calls for.
package process

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/7c/pypm/internal/protocol"
	"github.com/7c/pypm/internal/tailbuf"
)

// ErrAlreadyRunning is returned by Start when the process is already active.
var ErrAlreadyRunning = errors.New("process already running")

// sampleWindow is how long GetCPUPerc observes the child before caching a
// fresh sample, per the spec's 500ms single-shot CPU sampler.
const sampleWindow = 500 * time.Millisecond

// Process is one supervised child process.
type Process struct {
	Name    string
	Command string
	WorkDir string
	LogCPU  bool
	LogMem  bool

	mu        sync.Mutex
	cmd       *exec.Cmd
	startedAt time.Time

	stdoutTail *tailbuf.Buffer
	stderrTail *tailbuf.Buffer

	cpuSample float64
	sampling  atomic.Bool
}

// New creates a Process. It does not spawn anything.
func New(name, command, workdir string, logCPU, logMem bool) *Process {
	return &Process{
		Name:       name,
		Command:    command,
		WorkDir:    workdir,
		LogCPU:     logCPU,
		LogMem:     logMem,
		stdoutTail: tailbuf.New(),
		stderrTail: tailbuf.New(),
	}
}

// Start spawns the child. When pipe is true, stdout/stderr are captured
// into this process's bounded tail buffers; otherwise they inherit the
// daemon's own stdout/stderr.
func (p *Process) Start(pipe bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.activeLocked() {
		return ErrAlreadyRunning
	}

	argv := strings.Fields(p.Command)
	if len(argv) == 0 {
		return fmt.Errorf("empty command")
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = p.WorkDir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if pipe {
		cmd.Stdout = p.stdoutTail
		cmd.Stderr = p.stderrTail
	} else {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start process %q: %w", p.Name, err)
	}

	p.cmd = cmd
	p.startedAt = time.Now()
	p.cpuSample = 0

	go p.reap(cmd)

	return nil
}

// reap waits for the child to exit and clears the active state. It runs
// for the lifetime of the child, independent of any dispatcher request.
func (p *Process) reap(cmd *exec.Cmd) {
	cmd.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == cmd {
		p.cmd = nil
		p.startedAt = time.Time{}
		p.cpuSample = 0
	}
}

// Kill sends a terminate signal to the child's process group. It does not
// reset started_at itself: reap clears it once the child has exited, so
// PID and Uptime keep reporting the child until then. The caller must
// ensure the process is active; Kill on an inactive process is a no-op.
func (p *Process) Kill() {
	p.mu.Lock()
	cmd := p.cmd
	p.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return
	}
	syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
}

// PollActive reports whether the child exists and has not yet exited.
func (p *Process) PollActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.activeLocked()
}

func (p *Process) activeLocked() bool {
	return p.cmd != nil && p.cmd.Process != nil
}

// PID returns the OS pid, or the sentinel -1 when not active.
func (p *Process) PID() int32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.activeLocked() {
		return protocol.PIDSentinel
	}
	return int32(p.cmd.Process.Pid)
}

// Uptime returns time since the last spawn, or zero when not active.
func (p *Process) Uptime() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.activeLocked() {
		return 0
	}
	return time.Since(p.startedAt)
}

// GetMemUsage returns the child's virtual memory size in bytes, or zero
// when not active or the OS probe fails.
func (p *Process) GetMemUsage() float64 {
	pid := p.PID()
	if pid < 0 {
		return 0
	}
	proc, err := process.NewProcess(pid)
	if err != nil {
		return 0
	}
	info, err := proc.MemoryInfo()
	if err != nil || info == nil {
		return 0
	}
	return float64(info.VMS)
}

// GetCPUPerc returns the last cached CPU-percent sample, normalized to a
// single logical core. If no sampler is currently in flight for this
// process, it starts one in the background (observing the child for
// 500ms) and returns immediately with whatever is cached now.
func (p *Process) GetCPUPerc() float64 {
	if !p.PollActive() {
		return 0
	}

	if p.sampling.CompareAndSwap(false, true) {
		pid := p.PID()
		go p.sampleCPU(pid)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cpuSample
}

func (p *Process) sampleCPU(pid int32) {
	defer p.sampling.Store(false)

	if pid < 0 {
		return
	}
	proc, err := process.NewProcess(pid)
	if err != nil {
		return
	}
	raw, err := proc.Percent(sampleWindow)
	if err != nil {
		return
	}

	cores := runtime.NumCPU()
	if cores < 1 {
		cores = 1
	}
	normalized := raw / float64(cores)

	p.mu.Lock()
	p.cpuSample = normalized
	p.mu.Unlock()
}

// StdoutTail returns a copy of the captured stdout tail (at most tailbuf.Cap
// bytes).
func (p *Process) StdoutTail() []byte { return p.stdoutTail.Bytes() }

// StderrTail returns a copy of the captured stderr tail (at most tailbuf.Cap
// bytes).
func (p *Process) StderrTail() []byte { return p.stderrTail.Bytes() }
