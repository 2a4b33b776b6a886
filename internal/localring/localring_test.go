package localring

import (
	"bytes"
	"testing"
)

func TestNewRoundsCapacity(t *testing.T) {
	tests := []struct {
		input    uint32
		expected uint32
	}{
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 4},
		{7, 8},
		{100, 128},
		{1024, 1024},
		{1025, 2048},
	}

	for _, tt := range tests {
		r := New(tt.input)
		if r.Capacity() != tt.expected {
			t.Errorf("New(%d): expected capacity %d, got %d", tt.input, tt.expected, r.Capacity())
		}
	}
}

func TestProduceConsume(t *testing.T) {
	r := New(16)

	data := []byte("hello")
	free := r.ContiguousFree()
	if len(free) < len(data) {
		t.Fatalf("expected at least %d free bytes, got %d", len(data), len(free))
	}
	copy(free, data)
	if err := r.Produce(uint32(len(data))); err != nil {
		t.Fatalf("Produce failed: %v", err)
	}

	if r.Used() != uint32(len(data)) {
		t.Errorf("Used: expected %d, got %d", len(data), r.Used())
	}

	used := r.ContiguousUsed()
	if !bytes.Equal(used, data) {
		t.Errorf("ContiguousUsed: expected %q, got %q", data, used)
	}
	if err := r.Consume(uint32(len(used))); err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if r.Used() != 0 {
		t.Errorf("Used after Consume: expected 0, got %d", r.Used())
	}
}

func TestWrapAround(t *testing.T) {
	r := New(8)

	data1 := []byte("abc")
	copy(r.ContiguousFree(), data1)
	if err := r.Produce(uint32(len(data1))); err != nil {
		t.Fatalf("Produce failed: %v", err)
	}
	if err := r.Consume(uint32(len(data1))); err != nil {
		t.Fatalf("Consume failed: %v", err)
	}

	data2 := []byte("defghij")
	var got []byte
	remaining := data2
	for len(remaining) > 0 {
		free := r.ContiguousFree()
		n := copy(free, remaining)
		if n == 0 {
			t.Fatalf("ContiguousFree returned no room for remaining %d bytes", len(remaining))
		}
		if err := r.Produce(uint32(n)); err != nil {
			t.Fatalf("Produce failed: %v", err)
		}
		remaining = remaining[n:]
	}

	for r.Used() > 0 {
		used := r.ContiguousUsed()
		got = append(got, used...)
		if err := r.Consume(uint32(len(used))); err != nil {
			t.Fatalf("Consume failed: %v", err)
		}
	}

	if !bytes.Equal(got, data2) {
		t.Errorf("read after wrap: expected %q, got %q", data2, got)
	}
}

func TestInsufficientSpace(t *testing.T) {
	r := New(8)

	if err := r.Produce(10); err != ErrInsufficientSpace {
		t.Errorf("Produce(10): expected ErrInsufficientSpace, got %v", err)
	}

	if err := r.Produce(8); err != nil {
		t.Fatalf("Produce(8) failed: %v", err)
	}
	if r.Free() != 0 {
		t.Errorf("Free: expected 0, got %d", r.Free())
	}
}

func TestInsufficientData(t *testing.T) {
	r := New(8)

	if err := r.Consume(1); err != ErrInsufficientData {
		t.Errorf("Consume(1) on empty ring: expected ErrInsufficientData, got %v", err)
	}
}

func TestContiguousFreeTruncatesAtWrap(t *testing.T) {
	r := New(8)

	// Produce 6, consume 6, so the write cursor sits at offset 6 with
	// capacity available to wrap — ContiguousFree must stop at the
	// physical end of the buffer, not report the full 8 bytes free.
	if err := r.Produce(6); err != nil {
		t.Fatalf("Produce failed: %v", err)
	}
	if err := r.Consume(6); err != nil {
		t.Fatalf("Consume failed: %v", err)
	}

	free := r.ContiguousFree()
	if len(free) != 2 {
		t.Errorf("ContiguousFree at wrap boundary: expected 2 contiguous bytes, got %d", len(free))
	}
	if r.Free() != 8 {
		t.Errorf("Free: expected 8 total, got %d", r.Free())
	}
}
