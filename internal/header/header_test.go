package header

import "testing"

func TestNewPanicsOnShortBuffer(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected New to panic on a buffer shorter than Size")
		}
	}()
	New(make([]byte, Size-1))
}

func TestCapacityNegotiation(t *testing.T) {
	h := New(make([]byte, Size))

	if h.Capacity() != 0 {
		t.Fatalf("expected initial capacity 0, got %d", h.Capacity())
	}

	if !h.CompareAndSwapCapacity(0, 4096) {
		t.Fatal("expected first CompareAndSwapCapacity to win")
	}
	if h.Capacity() != 4096 {
		t.Fatalf("expected capacity 4096, got %d", h.Capacity())
	}

	if h.CompareAndSwapCapacity(0, 8192) {
		t.Fatal("expected second CompareAndSwapCapacity with stale old value to lose")
	}
	if h.Capacity() != 4096 {
		t.Fatalf("capacity should be unchanged by a losing CAS, got %d", h.Capacity())
	}
}

func TestProducedConsumedRoundTrip(t *testing.T) {
	h := New(make([]byte, Size))

	h.SetProduced(42)
	if got := h.Produced(); got != 42 {
		t.Errorf("Produced: expected 42, got %d", got)
	}

	h.SetConsumed(7)
	if got := h.Consumed(); got != 7 {
		t.Errorf("Consumed: expected 7, got %d", got)
	}
}

func TestWaitedFlagsRoundTrip(t *testing.T) {
	h := New(make([]byte, Size))

	if h.ProducedWaited() || h.ConsumedWaited() {
		t.Fatal("expected both waited flags to start false")
	}

	h.SetProducedWaited(true)
	if !h.ProducedWaited() {
		t.Error("expected ProducedWaited true after SetProducedWaited(true)")
	}
	if h.ConsumedWaited() {
		t.Error("SetProducedWaited must not affect ConsumedWaited")
	}

	h.SetProducedWaited(false)
	if h.ProducedWaited() {
		t.Error("expected ProducedWaited false after SetProducedWaited(false)")
	}

	h.SetConsumedWaited(true)
	if !h.ConsumedWaited() {
		t.Error("expected ConsumedWaited true after SetConsumedWaited(true)")
	}
}

func TestFieldsAreIndependentAddresses(t *testing.T) {
	h := New(make([]byte, Size))

	addrs := []*uint32{
		h.CapacityAddr(),
		h.ProducedAddr(),
		h.ConsumedAddr(),
	}
	for i := range addrs {
		for j := range addrs {
			if i != j && addrs[i] == addrs[j] {
				t.Fatalf("fields %d and %d share an address", i, j)
			}
		}
	}
}
