// Package client is pypm's request/response library: it encodes a verb
// and its arguments, dials the daemon's loopback TCP port, and decodes
// the single response frame. It is grounded on the teacher's
// client.Client (internal/client/client.go) — same dial/send/decode
// shape — generalized from the teacher's persistent Unix-socket
// connection plus JSON request/response to the spec's one-shot TCP
// connection per request and binary tag-byte framing.
package client

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/7c/pypm/internal/protocol"
)

// Client dials the daemon fresh for every request: the wire protocol is
// one connection per request/response cycle (spec §4.4), so there is no
// persistent connection to hold open between calls.
type Client struct {
	addr    string
	timeout time.Duration
}

// New returns a Client targeting host:port. It does not dial yet.
func New(host string, port int) *Client {
	return &Client{addr: fmt.Sprintf("%s:%d", host, port), timeout: 5 * time.Second}
}

// Raw sends verb plus args as a single whitespace-joined request line and
// returns the decoded response tag and payload. Arguments containing
// spaces are wrapped in single quotes so the dispatcher's shell-style
// tokenizer recovers them as one token; no other quoting is applied.
func (c *Client) Raw(verb string, args ...string) (protocol.Tag, []byte, error) {
	line := buildLine(verb, args)

	conn, err := net.DialTimeout("tcp", c.addr, c.timeout)
	if err != nil {
		return 0, nil, fmt.Errorf("connect to pypm at %s: %w", c.addr, err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(line)); err != nil {
		return 0, nil, fmt.Errorf("send request: %w", err)
	}

	var resp []byte
	buf := make([]byte, protocol.MaxRequestBytes)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			resp = append(resp, buf[:n]...)
		}
		if err != nil || n < protocol.MaxRequestBytes {
			break
		}
	}

	return protocol.DecodeFrame(resp)
}

func buildLine(verb string, args []string) string {
	tokens := make([]string, 0, len(args)+1)
	tokens = append(tokens, verb)
	for _, a := range args {
		if strings.ContainsAny(a, " \t") {
			tokens = append(tokens, "'"+a+"'")
		} else {
			tokens = append(tokens, a)
		}
	}
	return strings.Join(tokens, " ")
}

// Msg sends a verb expected to return a MSG response and returns its
// text, colorized per §9 (Error: red, Warning: yellow) for terminal
// display.
func (c *Client) Msg(verb string, args ...string) (string, error) {
	tag, payload, err := c.Raw(verb, args...)
	if err != nil {
		return "", err
	}
	if tag != protocol.TagMsg {
		return "", fmt.Errorf("verb %q returned a DATA frame, not MSG", verb)
	}
	return Colorize(string(payload)), nil
}

// List returns the registered processes as (name, command) pairs.
func (c *Client) List() ([][2]string, error) {
	_, payload, err := c.Raw(string(protocol.VerbList))
	if err != nil {
		return nil, err
	}
	return protocol.DecodeListRecords(payload)
}

// Mem returns mem-bytes samples for name, or for every process when name
// is empty.
func (c *Client) Mem(name string) ([]protocol.NameValue[float64], error) {
	return c.floatQuery(protocol.VerbMem, name)
}

// CPU returns cpu-percent samples for name, or for every process when
// name is empty.
func (c *Client) CPU(name string) ([]protocol.NameValue[float64], error) {
	return c.floatQuery(protocol.VerbCPU, name)
}

func (c *Client) floatQuery(verb protocol.Verb, name string) ([]protocol.NameValue[float64], error) {
	var args []string
	if name != "" {
		args = append(args, name)
	}
	_, payload, err := c.Raw(string(verb), args...)
	if err != nil {
		return nil, err
	}
	return protocol.DecodeFloatRecords(payload)
}

// PID returns pid samples for name, or for every process when name is
// empty.
func (c *Client) PID(name string) ([]protocol.NameValue[int32], error) {
	var args []string
	if name != "" {
		args = append(args, name)
	}
	_, payload, err := c.Raw(string(protocol.VerbPID), args...)
	if err != nil {
		return nil, err
	}
	return protocol.DecodePIDRecords(payload)
}

// Uptime returns formatted uptime strings for name, or for every process
// when name is empty.
func (c *Client) Uptime(name string) ([][2]string, error) {
	var args []string
	if name != "" {
		args = append(args, name)
	}
	_, payload, err := c.Raw(string(protocol.VerbUptime), args...)
	if err != nil {
		return nil, err
	}
	return protocol.DecodeUptimeRecords(payload)
}

// Stdout returns the raw captured stdout tail for name.
func (c *Client) Stdout(name string) ([]byte, error) {
	_, payload, err := c.Raw(string(protocol.VerbStdout), name)
	return payload, err
}

// Stderr returns the raw captured stderr tail for name.
func (c *Client) Stderr(name string) ([]byte, error) {
	_, payload, err := c.Raw(string(protocol.VerbStderr), name)
	return payload, err
}

// Add registers a new process. logCPU/logMem select sampler opt-in.
func (c *Client) Add(name, command string, logCPU, logMem bool, dir string) (string, error) {
	return c.Msg(string(protocol.VerbAdd), name, command, boolStr(logCPU), boolStr(logMem), dir)
}

// Start starts name, or every inactive process when name is empty.
func (c *Client) Start(name string) (string, error) {
	if name == "" {
		return c.Msg(string(protocol.VerbStart))
	}
	return c.Msg(string(protocol.VerbStart), name)
}

// Restart kills (if active) then starts name.
func (c *Client) Restart(name string) (string, error) {
	return c.Msg(string(protocol.VerbRestart), name)
}

// Rem kills (if active) then removes name from the registry.
func (c *Client) Rem(name string) (string, error) {
	return c.Msg(string(protocol.VerbRem), name)
}

// Kill sends a terminate signal to name's child.
func (c *Client) Kill(name string) (string, error) {
	return c.Msg(string(protocol.VerbKill), name)
}

// Stop asks the daemon to shut down.
func (c *Client) Stop() (string, error) {
	return c.Msg(string(protocol.VerbStop))
}

// Status returns the daemon's one-line summary.
func (c *Client) Status() (string, error) {
	return c.Msg(string(protocol.VerbStatus))
}

func boolStr(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
