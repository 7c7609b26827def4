package dispatcher

import (
	"strings"
	"sync/atomic"
	"testing"

	"github.com/7c/pypm/internal/protocol"
	"github.com/7c/pypm/internal/registry"
)

func newTestDispatcher() (*Dispatcher, *registry.Registry) {
	reg := registry.New()
	var shutdown atomic.Bool
	return New(reg, "127.0.0.1", 9999, &shutdown), reg
}

func decodeMsg(t *testing.T, frame []byte) string {
	t.Helper()
	tag, payload, err := protocol.DecodeFrame(frame)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if tag != protocol.TagMsg {
		t.Fatalf("tag = %v, want TagMsg, payload=%q", tag, payload)
	}
	return string(payload)
}

func decodeData(t *testing.T, frame []byte) []byte {
	t.Helper()
	tag, payload, err := protocol.DecodeFrame(frame)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if tag != protocol.TagData {
		t.Fatalf("tag = %v, want TagData, payload=%q", tag, payload)
	}
	return payload
}

func TestDispatchListEmpty(t *testing.T) {
	d, _ := newTestDispatcher()
	payload := decodeData(t, d.Dispatch("list"))
	if len(payload) != 0 {
		t.Errorf("payload = %q, want empty", payload)
	}
}

func TestDispatchAddAndList(t *testing.T) {
	d, _ := newTestDispatcher()
	msg := decodeMsg(t, d.Dispatch("add p1 'sleep 30' False False /tmp"))
	if msg != "Successfully added process 'p1'" {
		t.Errorf("add msg = %q", msg)
	}

	payload := decodeData(t, d.Dispatch("list"))
	records, err := protocol.DecodeListRecords(payload)
	if err != nil {
		t.Fatalf("DecodeListRecords: %v", err)
	}
	if len(records) != 1 || records[0][0] != "p1" || records[0][1] != "sleep 30" {
		t.Errorf("records = %v", records)
	}
}

func TestDispatchAddDuplicate(t *testing.T) {
	d, _ := newTestDispatcher()
	d.Dispatch("add p1 'sleep 30' False False /tmp")
	msg := decodeMsg(t, d.Dispatch("add p1 'sleep 1' False False /tmp"))
	if msg != "Error: There is already a process named 'p1'" {
		t.Errorf("msg = %q", msg)
	}
}

func TestDispatchAddWrongArity(t *testing.T) {
	d, _ := newTestDispatcher()
	msg := decodeMsg(t, d.Dispatch("add p1 'sleep 30'"))
	if msg != "Error: Invalid number of arguments" {
		t.Errorf("msg = %q", msg)
	}
}

func TestDispatchUnknownVerb(t *testing.T) {
	d, _ := newTestDispatcher()
	msg := decodeMsg(t, d.Dispatch("frobnicate p1"))
	if !strings.HasPrefix(msg, "Error: Unknown command") {
		t.Errorf("msg = %q", msg)
	}
}

func TestDispatchEmptyLine(t *testing.T) {
	d, _ := newTestDispatcher()
	msg := decodeMsg(t, d.Dispatch(""))
	if msg != "Error: Invalid command" {
		t.Errorf("msg = %q", msg)
	}
}

func TestDispatchPIDNotFound(t *testing.T) {
	d, _ := newTestDispatcher()
	msg := decodeMsg(t, d.Dispatch("pid ghost"))
	if msg != "Error: Couldn't find process 'ghost'" {
		t.Errorf("msg = %q", msg)
	}
}

func TestDispatchPIDBeforeStart(t *testing.T) {
	d, _ := newTestDispatcher()
	d.Dispatch("add p1 'sleep 30' False False /tmp")
	payload := decodeData(t, d.Dispatch("pid p1"))
	records, err := protocol.DecodePIDRecords(payload)
	if err != nil {
		t.Fatalf("DecodePIDRecords: %v", err)
	}
	if len(records) != 1 || records[0].Value != protocol.PIDSentinel {
		t.Errorf("records = %v", records)
	}
}

func TestDispatchKillNotActive(t *testing.T) {
	d, _ := newTestDispatcher()
	d.Dispatch("add p1 'sleep 30' False False /tmp")
	msg := decodeMsg(t, d.Dispatch("kill p1"))
	if msg != "Error: Process 'p1' is not active" {
		t.Errorf("msg = %q", msg)
	}
}

func TestDispatchStartNoProcesses(t *testing.T) {
	d, _ := newTestDispatcher()
	msg := decodeMsg(t, d.Dispatch("start"))
	if msg != "Warning: No processes to start" {
		t.Errorf("msg = %q", msg)
	}
}

func TestDispatchStartAllLifecycle(t *testing.T) {
	d, _ := newTestDispatcher()
	d.Dispatch("add p1 'sleep 30' False False /tmp")
	msg := decodeMsg(t, d.Dispatch("start"))
	if msg != "Started 1 out of 1 processes" {
		t.Errorf("start msg = %q", msg)
	}
	defer d.Dispatch("kill p1")

	msg = decodeMsg(t, d.Dispatch("start"))
	if msg != "Warning: No processes were started" {
		t.Errorf("second start msg = %q", msg)
	}
}

func TestDispatchStop(t *testing.T) {
	d, reg := newTestDispatcher()
	_ = reg
	msg := decodeMsg(t, d.Dispatch("stop"))
	if msg != "Stopped pypm running on 127.0.0.1:9999" {
		t.Errorf("msg = %q", msg)
	}
	if !d.shutdown.Load() {
		t.Error("expected shutdown flag set")
	}
}

func TestDispatchRemNotFound(t *testing.T) {
	d, _ := newTestDispatcher()
	msg := decodeMsg(t, d.Dispatch("rem ghost"))
	if msg != "Error: Couldn't find process 'ghost'" {
		t.Errorf("msg = %q", msg)
	}
}

func TestDispatchQuotedCommandTokenizes(t *testing.T) {
	d, _ := newTestDispatcher()
	d.Dispatch(`add p1 'echo hello world' False False /tmp`)
	payload := decodeData(t, d.Dispatch("list"))
	records, err := protocol.DecodeListRecords(payload)
	if err != nil {
		t.Fatalf("DecodeListRecords: %v", err)
	}
	if records[0][1] != "echo hello world" {
		t.Errorf("command = %q, want single token 'echo hello world'", records[0][1])
	}
}
