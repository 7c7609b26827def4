// Package tailbuf implements a bounded, NUL-stripping tail buffer used to
// capture a managed process's stdout/stderr. It plays the role the
// teacher's logwriter.RotatingWriter plays for on-disk log rotation, but
// keeps only the last Cap bytes in memory instead of rotating files —
// the ring-buffer design called for by a supervised child whose output
// is read continuously rather than truncated on a timer.
package tailbuf

import "sync"

// Cap is the maximum number of bytes retained by a Buffer.
const Cap = 10_000

// Buffer is a fixed-capacity FIFO of the most recent bytes written to it.
// On overflow, the oldest bytes are discarded so the buffer never exceeds
// Cap. Embedded NUL bytes are stripped on ingest. It implements io.Writer.
type Buffer struct {
	mu   sync.Mutex
	data []byte
}

// New returns an empty tail buffer.
func New() *Buffer {
	return &Buffer{data: make([]byte, 0, Cap)}
}

// Write appends p to the buffer, stripping NUL bytes and trimming the
// front of the buffer so it never exceeds Cap bytes. It always reports
// success: a tail buffer never blocks or errors a writer.
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(p)
	clean := stripNUL(p)
	b.data = append(b.data, clean...)
	if over := len(b.data) - Cap; over > 0 {
		b.data = b.data[over:]
	}
	return n, nil
}

// Bytes returns a copy of the currently retained tail.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// Len reports the number of bytes currently retained.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

func stripNUL(p []byte) []byte {
	hasNUL := false
	for _, c := range p {
		if c == 0 {
			hasNUL = true
			break
		}
	}
	if !hasNUL {
		return p
	}
	out := make([]byte, 0, len(p))
	for _, c := range p {
		if c != 0 {
			out = append(out, c)
		}
	}
	return out
}
