// Package registry holds the daemon's named set of managed processes.
// It is grounded on the teacher's Daemon.processes map plus its
// per-name secondary indexing in daemon/snapshots.go, generalized into a
// standalone type with explicit insertion-order iteration and the
// log_cpu_set/log_mem_set subsets the spec requires.
package registry

import (
	"fmt"
	"sync"

	"github.com/7c/pypm/internal/process"
)

// ErrDuplicateName is returned by Add when the name is already registered.
type ErrDuplicateName struct{ Name string }

func (e ErrDuplicateName) Error() string {
	return fmt.Sprintf("process %q already registered", e.Name)
}

// ErrNotFound is returned by Find when no process matches the name.
type ErrNotFound struct{ Name string }

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("process %q not found", e.Name)
}

// Registry is a named set of processes with insertion-order iteration.
// The TCP server serializes dispatcher mutation one connection at a
// time, but the metric sampler reads the registry from its own ticker
// goroutine concurrently with that, so Registry still needs its own
// lock, matching the teacher's Daemon.mu sync.RWMutex.
type Registry struct {
	mu sync.RWMutex

	byName map[string]*process.Process
	order  []string

	logCPUSet map[string]bool
	logMemSet map[string]bool
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		byName:    make(map[string]*process.Process),
		logCPUSet: make(map[string]bool),
		logMemSet: make(map[string]bool),
	}
}

// Add registers p, rejecting a duplicate name.
func (r *Registry) Add(p *process.Process) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[p.Name]; exists {
		return ErrDuplicateName{p.Name}
	}
	r.byName[p.Name] = p
	r.order = append(r.order, p.Name)
	if p.LogCPU {
		r.logCPUSet[p.Name] = true
	}
	if p.LogMem {
		r.logMemSet[p.Name] = true
	}
	return nil
}

// Remove deletes p from the registry and its subsets.
func (r *Registry) Remove(p *process.Process) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[p.Name]; !exists {
		return
	}
	delete(r.byName, p.Name)
	delete(r.logCPUSet, p.Name)
	delete(r.logMemSet, p.Name)
	for i, name := range r.order {
		if name == p.Name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Find returns the process registered under name, or ErrNotFound.
func (r *Registry) Find(name string) (*process.Process, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byName[name]
	if !ok {
		return nil, ErrNotFound{name}
	}
	return p, nil
}

// List returns all processes in insertion order.
func (r *Registry) List() []*process.Process {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*process.Process, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// LogCPUNames returns the names of processes opted into CPU sample
// logging, in insertion order.
func (r *Registry) LogCPUNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, name := range r.order {
		if r.logCPUSet[name] {
			out = append(out, name)
		}
	}
	return out
}

// LogMemNames returns the names of processes opted into memory sample
// logging, in insertion order.
func (r *Registry) LogMemNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, name := range r.order {
		if r.logMemSet[name] {
			out = append(out, name)
		}
	}
	return out
}

// Len returns the number of registered processes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
