package tailbuf

import (
	"bytes"
	"testing"
)

func TestWriteWithinCap(t *testing.T) {
	b := New()
	b.Write([]byte("hello"))
	if got := b.Bytes(); string(got) != "hello" {
		t.Errorf("Bytes() = %q, want %q", got, "hello")
	}
}

func TestOverflowKeepsTail(t *testing.T) {
	b := New()
	total := Cap + 500
	data := make([]byte, total)
	for i := range data {
		data[i] = byte('a' + i%26)
	}
	b.Write(data)

	got := b.Bytes()
	if len(got) != Cap {
		t.Fatalf("len = %d, want %d", len(got), Cap)
	}
	want := data[total-Cap:]
	if !bytes.Equal(got, want) {
		t.Errorf("tail mismatch: did not keep the most recent %d bytes", Cap)
	}
}

func TestOverflowAcrossMultipleWrites(t *testing.T) {
	b := New()
	chunk := bytes.Repeat([]byte("x"), 4000)
	for i := 0; i < 4; i++ { // 16000 bytes total, cap is 10000
		b.Write(chunk)
	}
	if got := b.Len(); got != Cap {
		t.Fatalf("Len() = %d, want %d", got, Cap)
	}
}

func TestStripsEmbeddedNUL(t *testing.T) {
	b := New()
	b.Write([]byte("ab\x00cd\x00ef"))
	if got := b.Bytes(); string(got) != "abcdef" {
		t.Errorf("Bytes() = %q, want %q", got, "abcdef")
	}
}

func TestEmptyBuffer(t *testing.T) {
	b := New()
	if got := b.Bytes(); len(got) != 0 {
		t.Errorf("Bytes() = %q, want empty", got)
	}
}
