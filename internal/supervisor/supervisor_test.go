package supervisor

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/7c/pypm/internal/protocol"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	_, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)
	return port
}

func dialAndSend(t *testing.T, addr, line string) []byte {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.Write([]byte(line))
	buf := make([]byte, protocol.MaxRequestBytes)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return buf[:n]
}

func TestRunServesAddListAndStop(t *testing.T) {
	port := freePort(t)
	s := New(Config{Host: "127.0.0.1", Port: port, LogDir: t.TempDir(), LogFrequency: 60})

	done := make(chan struct{})
	go func() {
		s.Run()
		close(done)
	}()
	time.Sleep(100 * time.Millisecond)

	addr := "127.0.0.1:" + strconv.Itoa(port)

	frame := dialAndSend(t, addr, "add p1 'sleep 30' False False /tmp")
	tag, payload, err := protocol.DecodeFrame(frame)
	if err != nil || tag != protocol.TagMsg || string(payload) != "Successfully added process 'p1'" {
		t.Fatalf("add response = %v %q err=%v", tag, payload, err)
	}

	frame = dialAndSend(t, addr, "list")
	_, payload, _ = protocol.DecodeFrame(frame)
	records, err := protocol.DecodeListRecords(payload)
	if err != nil || len(records) != 1 || records[0][0] != "p1" {
		t.Fatalf("list response = %v err=%v", records, err)
	}

	frame = dialAndSend(t, addr, "kill p1")
	_, payload, _ = protocol.DecodeFrame(frame)
	if string(payload) != "Error: Process 'p1' is not active" {
		t.Fatalf("kill response = %q", payload)
	}

	frame = dialAndSend(t, addr, "stop")
	tag, payload, err = protocol.DecodeFrame(frame)
	if err != nil || tag != protocol.TagMsg || string(payload) != "Stopped pypm running on 127.0.0.1:"+strconv.Itoa(port) {
		t.Fatalf("stop response = %v %q err=%v", tag, payload, err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after stop")
	}

	if _, err := net.DialTimeout("tcp", addr, 500*time.Millisecond); err == nil {
		t.Error("expected connection refused after stop, listener still reachable")
	}
}
