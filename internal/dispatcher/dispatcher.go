// Package dispatcher parses one request line and produces one response
// frame. It is the Go analog of the teacher's Daemon.handleRequest verb
// switch (daemon/daemon.go), generalized from the teacher's JSON-RPC
// verbs to the spec's shell-tokenized text verbs and binary DATA framing.
package dispatcher

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mattn/go-shellwords"

	"github.com/7c/pypm/internal/process"
	"github.com/7c/pypm/internal/protocol"
	"github.com/7c/pypm/internal/registry"
)

// Dispatcher parses and executes one request line at a time. All registry
// mutation happens here; the TCP server invokes Dispatch synchronously
// from the single goroutine handling a connection (spec §5 option (a)).
type Dispatcher struct {
	reg      *registry.Registry
	host     string
	port     int
	shutdown *atomic.Bool
}

// New returns a Dispatcher bound to reg. host/port are only used to render
// the "stop" verb's confirmation message; shutdown is the supervisor's
// shared shutdown flag.
func New(reg *registry.Registry, host string, port int, shutdown *atomic.Bool) *Dispatcher {
	return &Dispatcher{reg: reg, host: host, port: port, shutdown: shutdown}
}

// Dispatch parses line with shell-style quoting, validates arity, and
// returns exactly one response frame. It never panics the caller: any
// unexpected error from a verb handler is reduced to a Generic response.
func (d *Dispatcher) Dispatch(line string) (frame []byte) {
	tokens, err := shellwords.Parse(line)
	if err != nil {
		return protocol.MsgFrame("Error: Invalid command")
	}
	if len(tokens) == 0 {
		return protocol.MsgFrame("Error: Invalid command")
	}

	verb := protocol.Verb(tokens[0])
	args := tokens[1:]

	spec, ok := verbTable[verb]
	if !ok {
		return protocol.MsgFrame(fmt.Sprintf("Error: Unknown command '%s'", tokens[0]))
	}
	if !spec.arityOK(len(args)) {
		return protocol.MsgFrame("Error: Invalid number of arguments")
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("dispatcher verb panicked", "verb", verb, "recover", r)
			frame = protocol.MsgFrame(fmt.Sprintf("Error: Couldn't %s", verb))
		}
	}()

	return spec.handle(d, args)
}

// arityRange describes the accepted argument counts for a verb.
type arityRange struct {
	min, max int
}

func (a arityRange) arityOK(n int) bool { return n >= a.min && n <= a.max }

type verbSpec struct {
	arityRange
	handle func(d *Dispatcher, args []string) []byte
}

var verbTable = map[protocol.Verb]verbSpec{
	protocol.VerbList:    {arityRange{0, 0}, (*Dispatcher).handleList},
	protocol.VerbMem:     {arityRange{0, 1}, (*Dispatcher).handleMem},
	protocol.VerbCPU:     {arityRange{0, 1}, (*Dispatcher).handleCPU},
	protocol.VerbPID:     {arityRange{0, 1}, (*Dispatcher).handlePID},
	protocol.VerbUptime:  {arityRange{0, 1}, (*Dispatcher).handleUptime},
	protocol.VerbStdout:  {arityRange{1, 1}, (*Dispatcher).handleStdout},
	protocol.VerbStderr:  {arityRange{1, 1}, (*Dispatcher).handleStderr},
	protocol.VerbAdd:     {arityRange{5, 5}, (*Dispatcher).handleAdd},
	protocol.VerbStart:   {arityRange{0, 1}, (*Dispatcher).handleStart},
	protocol.VerbRestart: {arityRange{1, 1}, (*Dispatcher).handleRestart},
	protocol.VerbRem:     {arityRange{1, 1}, (*Dispatcher).handleRem},
	protocol.VerbKill:    {arityRange{1, 1}, (*Dispatcher).handleKill},
	protocol.VerbStop:    {arityRange{0, 0}, (*Dispatcher).handleStop},
	protocol.VerbStatus:  {arityRange{0, 0}, (*Dispatcher).handleStatus},
}

func notFoundMsg(name string) []byte {
	return protocol.MsgFrame(fmt.Sprintf("Error: Couldn't find process '%s'", name))
}

// --- multi/single process queries -----------------------------------------

func (d *Dispatcher) handleList(_ []string) []byte {
	procs := d.reg.List()
	var payload []byte
	for i, p := range procs {
		if i > 0 {
			payload = append(payload, protocol.ListSeparator...)
		}
		payload = append(payload, protocol.EncodeListRecord(p.Name, p.Command)...)
	}
	return protocol.DataFrame(payload)
}

func (d *Dispatcher) handleMem(args []string) []byte {
	procs, errFrame := d.resolveQueryTargets(args)
	if errFrame != nil {
		return errFrame
	}
	var payload []byte
	for _, p := range procs {
		payload = append(payload, protocol.EncodeMemRecord(p.Name, p.GetMemUsage())...)
	}
	return protocol.DataFrame(payload)
}

func (d *Dispatcher) handleCPU(args []string) []byte {
	procs, errFrame := d.resolveQueryTargets(args)
	if errFrame != nil {
		return errFrame
	}
	var payload []byte
	for _, p := range procs {
		payload = append(payload, protocol.EncodeCPURecord(p.Name, p.GetCPUPerc())...)
	}
	return protocol.DataFrame(payload)
}

func (d *Dispatcher) handlePID(args []string) []byte {
	procs, errFrame := d.resolveQueryTargets(args)
	if errFrame != nil {
		return errFrame
	}
	var payload []byte
	for _, p := range procs {
		payload = append(payload, protocol.EncodePIDRecord(p.Name, p.PID())...)
	}
	return protocol.DataFrame(payload)
}

func (d *Dispatcher) handleUptime(args []string) []byte {
	procs, errFrame := d.resolveQueryTargets(args)
	if errFrame != nil {
		return errFrame
	}
	var payload []byte
	for _, p := range procs {
		payload = append(payload, protocol.EncodeUptimeRecord(p.Name, protocol.FormatDuration(p.Uptime()))...)
	}
	return protocol.DataFrame(payload)
}

// resolveQueryTargets implements the "0 or 1 name" arity shared by
// mem/cpu/pid/uptime: with a name, a single matching process (or
// NotFound); without one, every registered process in insertion order.
func (d *Dispatcher) resolveQueryTargets(args []string) ([]*process.Process, []byte) {
	if len(args) == 0 {
		return d.reg.List(), nil
	}
	p, err := d.reg.Find(args[0])
	if err != nil {
		return nil, notFoundMsg(args[0])
	}
	return []*process.Process{p}, nil
}

func (d *Dispatcher) handleStdout(args []string) []byte {
	p, err := d.reg.Find(args[0])
	if err != nil {
		return notFoundMsg(args[0])
	}
	return protocol.DataFrame(p.StdoutTail())
}

func (d *Dispatcher) handleStderr(args []string) []byte {
	p, err := d.reg.Find(args[0])
	if err != nil {
		return notFoundMsg(args[0])
	}
	return protocol.DataFrame(p.StderrTail())
}

// --- lifecycle verbs -----------------------------------------------

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

func (d *Dispatcher) handleAdd(args []string) []byte {
	name, command, logCPUStr, logMemStr, dir := args[0], args[1], args[2], args[3], args[4]

	if _, err := d.reg.Find(name); err == nil {
		return protocol.MsgFrame(fmt.Sprintf("Error: There is already a process named '%s'", name))
	}

	p := process.New(name, command, dir, parseBool(logCPUStr), parseBool(logMemStr))
	if err := d.reg.Add(p); err != nil {
		return protocol.MsgFrame(fmt.Sprintf("Error: There is already a process named '%s'", name))
	}
	return protocol.MsgFrame(fmt.Sprintf("Successfully added process '%s'", name))
}

func (d *Dispatcher) handleStart(args []string) []byte {
	if len(args) == 1 {
		return d.startOne(args[0])
	}
	return d.startAll()
}

func (d *Dispatcher) startOne(name string) []byte {
	p, err := d.reg.Find(name)
	if err != nil {
		return notFoundMsg(name)
	}
	if p.PollActive() {
		return protocol.MsgFrame(fmt.Sprintf("Warning: Process '%s' is already running", name))
	}
	if err := p.Start(true); err != nil {
		return protocol.MsgFrame(fmt.Sprintf("Error: Couldn't start process '%s'", name))
	}
	return protocol.MsgFrame(fmt.Sprintf("Successfully started process '%s'", name))
}

func (d *Dispatcher) startAll() []byte {
	procs := d.reg.List()
	if len(procs) == 0 {
		return protocol.MsgFrame("Warning: No processes to start")
	}

	started := 0
	for _, p := range procs {
		if p.PollActive() {
			continue
		}
		if err := p.Start(true); err == nil {
			started++
		}
	}
	if started == 0 {
		return protocol.MsgFrame("Warning: No processes were started")
	}
	return protocol.MsgFrame(fmt.Sprintf("Started %d out of %d processes", started, len(procs)))
}

func (d *Dispatcher) handleRestart(args []string) []byte {
	name := args[0]
	p, err := d.reg.Find(name)
	if err != nil {
		return notFoundMsg(name)
	}
	if p.PollActive() {
		p.Kill()
		deadline := time.Now().Add(5 * time.Second)
		for p.PollActive() && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
	}
	if err := p.Start(true); err != nil {
		return protocol.MsgFrame(fmt.Sprintf("Error: Couldn't restart process '%s'", name))
	}
	return protocol.MsgFrame(fmt.Sprintf("Successfully restarted process '%s'", name))
}

func (d *Dispatcher) handleRem(args []string) []byte {
	name := args[0]
	p, err := d.reg.Find(name)
	if err != nil {
		return notFoundMsg(name)
	}
	if p.PollActive() {
		p.Kill()
	}
	d.reg.Remove(p)
	return protocol.MsgFrame(fmt.Sprintf("Successfully removed process '%s'", name))
}

func (d *Dispatcher) handleKill(args []string) []byte {
	name := args[0]
	p, err := d.reg.Find(name)
	if err != nil {
		return notFoundMsg(name)
	}
	if !p.PollActive() {
		return protocol.MsgFrame(fmt.Sprintf("Error: Process '%s' is not active", name))
	}
	p.Kill()
	return protocol.MsgFrame(fmt.Sprintf("Successfully killed process '%s'", name))
}

func (d *Dispatcher) handleStop(_ []string) []byte {
	d.shutdown.Store(true)
	return protocol.MsgFrame(fmt.Sprintf("Stopped pypm running on %s:%d", d.host, d.port))
}

func (d *Dispatcher) handleStatus(_ []string) []byte {
	procs := d.reg.List()
	active := 0
	for _, p := range procs {
		if p.PollActive() {
			active++
		}
	}
	return protocol.MsgFrame(fmt.Sprintf("pypm running on %s:%d, %d active out of %d processes",
		d.host, d.port, active, len(procs)))
}

// ParsePort parses a port string as a decimal integer. It does not check
// that the result lies in the valid port range.
func ParsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: %w", s, err)
	}
	return port, nil
}
