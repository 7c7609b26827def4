// Package protocol defines the wire framing, verb constants, and unit
// formatters shared by the pypm daemon and its client library.
package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Tag is the leading byte of every response frame.
type Tag byte

const (
	TagMsg  Tag = 0x01
	TagData Tag = 0x02
)

// MaxRequestBytes bounds a single request line per the wire protocol.
const MaxRequestBytes = 2048

// Verb is a dispatcher command name.
type Verb string

const (
	VerbList    Verb = "list"
	VerbMem     Verb = "mem"
	VerbCPU     Verb = "cpu"
	VerbPID     Verb = "pid"
	VerbUptime  Verb = "uptime"
	VerbStdout  Verb = "stdout"
	VerbStderr  Verb = "stderr"
	VerbAdd     Verb = "add"
	VerbStart   Verb = "start"
	VerbRestart Verb = "restart"
	VerbRem     Verb = "rem"
	VerbKill    Verb = "kill"
	VerbStop    Verb = "stop"
	VerbStatus  Verb = "status"
)

// PIDSentinel is reported for a process that is not currently active.
const PIDSentinel int32 = -1

// PypmHome returns the daemon's state directory, respecting PYPM_HOME.
func PypmHome() string {
	if h := os.Getenv("PYPM_HOME"); h != "" {
		return h
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".pypm")
}

// DefaultLogDir is the metric-sample directory used when the config omits one.
func DefaultLogDir() string { return filepath.Join(PypmHome(), "logs") }

// --- Frame construction -----------------------------------------------

// Frame builds a complete response frame: tag byte + payload.
func Frame(tag Tag, payload []byte) []byte {
	out := make([]byte, 0, len(payload)+1)
	out = append(out, byte(tag))
	out = append(out, payload...)
	return out
}

// MsgFrame builds a MSG response frame from a UTF-8 string.
func MsgFrame(s string) []byte { return Frame(TagMsg, []byte(s)) }

// DataFrame builds a DATA response frame from a raw payload.
func DataFrame(payload []byte) []byte { return Frame(TagData, payload) }

// DecodeFrame splits a raw frame into its tag and payload.
func DecodeFrame(raw []byte) (Tag, []byte, error) {
	if len(raw) == 0 {
		return 0, nil, fmt.Errorf("empty frame")
	}
	tag := Tag(raw[0])
	if tag != TagMsg && tag != TagData {
		return 0, nil, fmt.Errorf("unknown frame tag 0x%02x", raw[0])
	}
	return tag, raw[1:], nil
}

// --- Record encoding -----------------------------------------------

// ListSeparator delimits consecutive "list" records.
var ListSeparator = []byte{0x00, 0x00}

func appendCString(buf []byte, s string) []byte {
	buf = append(buf, s...)
	return append(buf, 0x00)
}

func appendFloat64(buf []byte, v float64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	return append(buf, b[:]...)
}

func appendInt32(buf []byte, v int32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	return append(buf, b[:]...)
}

// EncodeListRecord encodes one name/command pair for the "list" verb.
func EncodeListRecord(name, command string) []byte {
	buf := appendCString(nil, name)
	return append(buf, command...)
}

// EncodeMemRecord encodes one name/bytes pair for the "mem" verb.
func EncodeMemRecord(name string, bytesUsed float64) []byte {
	buf := appendCString(nil, name)
	return appendFloat64(buf, bytesUsed)
}

// EncodeCPURecord encodes one name/percent pair for the "cpu" verb.
func EncodeCPURecord(name string, percent float64) []byte {
	buf := appendCString(nil, name)
	return appendFloat64(buf, percent)
}

// EncodePIDRecord encodes one name/pid pair for the "pid" verb.
func EncodePIDRecord(name string, pid int32) []byte {
	buf := appendCString(nil, name)
	return appendInt32(buf, pid)
}

// EncodeUptimeRecord encodes one name/uptime-string pair for the "uptime" verb.
func EncodeUptimeRecord(name, uptime string) []byte {
	buf := appendCString(nil, name)
	return appendCString(buf, uptime)
}

// NameValue is a decoded (name, numeric) pair shared by the mem/cpu/pid
// decoders below.
type NameValue[T any] struct {
	Name  string
	Value T
}

// DecodeListRecords parses a "list" DATA payload into name/command pairs.
func DecodeListRecords(payload []byte) ([][2]string, error) {
	var records [][2]string
	for len(payload) > 0 {
		rec, rest, found := bytes.Cut(payload, ListSeparator)
		idx := bytes.IndexByte(rec, 0x00)
		if idx < 0 {
			return nil, fmt.Errorf("malformed list record: missing name terminator")
		}
		records = append(records, [2]string{string(rec[:idx]), string(rec[idx+1:])})
		if !found {
			break
		}
		payload = rest
	}
	return records, nil
}

// DecodeFloatRecords parses a "mem"/"cpu" DATA payload into name/float64 pairs.
func DecodeFloatRecords(payload []byte) ([]NameValue[float64], error) {
	var out []NameValue[float64]
	for len(payload) > 0 {
		idx := bytes.IndexByte(payload, 0x00)
		if idx < 0 {
			return nil, fmt.Errorf("malformed record: missing name terminator")
		}
		name := string(payload[:idx])
		payload = payload[idx+1:]
		if len(payload) < 8 {
			return nil, fmt.Errorf("malformed record: short float64 field")
		}
		bits := binary.LittleEndian.Uint64(payload[:8])
		payload = payload[8:]
		out = append(out, NameValue[float64]{name, math.Float64frombits(bits)})
	}
	return out, nil
}

// DecodePIDRecords parses a "pid" DATA payload into name/int32 pairs.
func DecodePIDRecords(payload []byte) ([]NameValue[int32], error) {
	var out []NameValue[int32]
	for len(payload) > 0 {
		idx := bytes.IndexByte(payload, 0x00)
		if idx < 0 {
			return nil, fmt.Errorf("malformed record: missing name terminator")
		}
		name := string(payload[:idx])
		payload = payload[idx+1:]
		if len(payload) < 4 {
			return nil, fmt.Errorf("malformed record: short int32 field")
		}
		pid := int32(binary.LittleEndian.Uint32(payload[:4]))
		payload = payload[4:]
		out = append(out, NameValue[int32]{name, pid})
	}
	return out, nil
}

// DecodeUptimeRecords parses an "uptime" DATA payload into name/string pairs.
func DecodeUptimeRecords(payload []byte) ([][2]string, error) {
	var records [][2]string
	for len(payload) > 0 {
		idx := bytes.IndexByte(payload, 0x00)
		if idx < 0 {
			return nil, fmt.Errorf("malformed record: missing name terminator")
		}
		name := string(payload[:idx])
		payload = payload[idx+1:]
		idx2 := bytes.IndexByte(payload, 0x00)
		if idx2 < 0 {
			return nil, fmt.Errorf("malformed record: missing uptime terminator")
		}
		records = append(records, [2]string{name, string(payload[:idx2])})
		payload = payload[idx2+1:]
	}
	return records, nil
}

// --- Unit formatters -----------------------------------------------

// FormatDuration formats a duration the way uptime responses render it:
// "0s" below one second; otherwise the non-zero days, hours and minutes,
// with seconds shown only for durations under one minute.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return "0s"
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if len(parts) == 0 && seconds > 0 {
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}
	return strings.Join(parts, " ")
}

// FormatBytes formats a byte count in a human-friendly way for the CLI,
// chart axis and dashboard (DATA payloads always carry the raw float64).
func FormatBytes(b float64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)
	switch {
	case b >= GB:
		return fmt.Sprintf("%.1f GB", b/GB)
	case b >= MB:
		return fmt.Sprintf("%.1f MB", b/MB)
	case b >= KB:
		return fmt.Sprintf("%.1f KB", b/KB)
	default:
		return fmt.Sprintf("%.0f B", b)
	}
}

// FormatPercent formats a CPU percentage to one decimal place.
func FormatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64) + "%"
}
