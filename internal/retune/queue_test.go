package retune

import (
	"testing"

	"github.com/radio-control/retune/internal/radio"
)

func descriptorWithTag(tag uint32) radio.FrequencyDescriptor {
	return radio.FrequencyDescriptor{
		NInt:         uint16(tag & 0x1FF),
		NFrac:        tag,
		FreqSel:      uint8(tag & 0x3F),
		VCOCapResult: radio.VCOCapUnknown,
	}
}

func TestQueueEnqueueDequeueFIFO(t *testing.T) {
	q := NewQueue()

	for i := 0; i < 10; i++ {
		size, err := q.Enqueue(descriptorWithTag(uint32(i)), radio.ModuleRX, 1000+uint64(i))
		if err != nil {
			t.Fatalf("Enqueue %d failed: %v", i, err)
		}
		if size != i+1 {
			t.Errorf("Enqueue %d returned size %d, want %d", i, size, i+1)
		}
	}

	for i := 0; i < 10; i++ {
		var out EntrySnapshot
		size, err := q.Dequeue(&out)
		if err != nil {
			t.Fatalf("Dequeue %d failed: %v", i, err)
		}
		if size != 10-i-1 {
			t.Errorf("Dequeue %d returned size %d, want %d", i, size, 10-i-1)
		}
		if out.Freq.NFrac != uint32(i) {
			t.Errorf("Dequeue %d returned entry tagged %d, want %d (FIFO order)", i, out.Freq.NFrac, i)
		}
		if out.Target != 1000+uint64(i) {
			t.Errorf("Dequeue %d returned target %d, want %d", i, out.Target, 1000+uint64(i))
		}
		if out.State != EntryNew {
			t.Errorf("Dequeue %d returned state %v, want %v", i, out.State, EntryNew)
		}
	}
}

func TestQueueCapacityBoundary(t *testing.T) {
	q := NewQueue()

	for i := 0; i < QueueDepth; i++ {
		if _, err := q.Enqueue(descriptorWithTag(uint32(i)), radio.ModuleTX, 500); err != nil {
			t.Fatalf("Enqueue %d failed: %v", i, err)
		}
	}

	// The 33rd enqueue is rejected without touching existing entries.
	if _, err := q.Enqueue(descriptorWithTag(999), radio.ModuleTX, 500); err != ErrQueueFull {
		t.Fatalf("Enqueue at capacity returned %v, want ErrQueueFull", err)
	}
	if q.Len() != QueueDepth {
		t.Errorf("queue length after rejected enqueue = %d, want %d", q.Len(), QueueDepth)
	}

	for i := 0; i < QueueDepth; i++ {
		var out EntrySnapshot
		if _, err := q.Dequeue(&out); err != nil {
			t.Fatalf("Dequeue %d failed: %v", i, err)
		}
		if out.Freq.NFrac != uint32(i) {
			t.Errorf("Dequeue %d returned entry tagged %d, want %d (rejected enqueue corrupted the queue)", i, out.Freq.NFrac, i)
		}
	}

	if _, err := q.Dequeue(nil); err != ErrQueueEmpty {
		t.Errorf("Dequeue on empty queue returned %v, want ErrQueueEmpty", err)
	}
	if q.Len() != 0 {
		t.Errorf("queue length after failed dequeue = %d, want 0", q.Len())
	}
}

func TestQueueWraparound(t *testing.T) {
	q := NewQueue()

	// Push enough enqueue/dequeue pairs through to wrap the indices
	// several times over, with a standing population of 20.
	next := uint32(0)
	for i := 0; i < 20; i++ {
		if _, err := q.Enqueue(descriptorWithTag(next), radio.ModuleRX, 0); err != nil {
			t.Fatalf("priming Enqueue failed: %v", err)
		}
		next++
	}

	expect := uint32(0)
	for i := 0; i < 5*QueueDepth; i++ {
		if _, err := q.Enqueue(descriptorWithTag(next), radio.ModuleRX, 0); err != nil {
			t.Fatalf("Enqueue %d failed: %v", i, err)
		}
		next++

		var out EntrySnapshot
		if _, err := q.Dequeue(&out); err != nil {
			t.Fatalf("Dequeue %d failed: %v", i, err)
		}
		if out.Freq.NFrac != expect {
			t.Fatalf("Dequeue %d returned entry tagged %d, want %d (FIFO broke across wraparound)", i, out.Freq.NFrac, expect)
		}
		expect++
	}

	if q.Len() != 20 {
		t.Errorf("queue length after wraparound churn = %d, want 20", q.Len())
	}
}

func TestQueuePeek(t *testing.T) {
	q := NewQueue()

	if e := q.Peek(); e != nil {
		t.Fatalf("Peek on empty queue returned %v, want nil", e)
	}

	q.Enqueue(descriptorWithTag(7), radio.ModuleTX, 42)
	q.Enqueue(descriptorWithTag(8), radio.ModuleRX, 43)

	e := q.Peek()
	if e == nil {
		t.Fatal("Peek returned nil on non-empty queue")
	}
	if e.Freq.NFrac != 7 || e.Module != radio.ModuleTX || e.Target != 42 {
		t.Errorf("Peek returned wrong entry: %+v", e)
	}
	if q.Len() != 2 {
		t.Errorf("Peek mutated the queue: length %d, want 2", q.Len())
	}

	// Repeated peeks see the same head.
	if again := q.Peek(); again != e {
		t.Error("second Peek returned a different entry")
	}
}

func TestQueueReset(t *testing.T) {
	q := NewQueue()
	for i := 0; i < 5; i++ {
		q.Enqueue(descriptorWithTag(uint32(i)), radio.ModuleRX, 0)
	}

	q.Reset()

	if q.Len() != 0 {
		t.Errorf("length after Reset = %d, want 0", q.Len())
	}
	if e := q.Peek(); e != nil {
		t.Errorf("Peek after Reset returned %v, want nil", e)
	}
	if _, err := q.Dequeue(nil); err != ErrQueueEmpty {
		t.Errorf("Dequeue after Reset returned %v, want ErrQueueEmpty", err)
	}

	// The queue is fully usable again.
	if size, err := q.Enqueue(descriptorWithTag(1), radio.ModuleRX, 0); err != nil || size != 1 {
		t.Errorf("Enqueue after Reset = (%d, %v), want (1, nil)", size, err)
	}
}

func TestEntryMarkReady(t *testing.T) {
	q := NewQueue()
	q.Enqueue(descriptorWithTag(1), radio.ModuleRX, 100)

	e := q.Peek()
	if e.MarkReady() {
		t.Error("MarkReady succeeded on a New entry")
	}

	e.setState(EntryScheduled)
	if !e.MarkReady() {
		t.Error("MarkReady failed on a Scheduled entry")
	}
	if e.State() != EntryReady {
		t.Errorf("state after MarkReady = %v, want %v", e.State(), EntryReady)
	}

	// A second completion signal must not fire twice.
	if e.MarkReady() {
		t.Error("MarkReady succeeded on an already Ready entry")
	}
}

func TestQueueSequenceAdvances(t *testing.T) {
	q := NewQueue()

	seen := make(map[uint32]bool)
	for round := 0; round < 3; round++ {
		q.Enqueue(descriptorWithTag(0), radio.ModuleRX, 0)
		seq := q.Peek().Seq()
		if seen[seq] {
			t.Fatalf("slot generation %d reused", seq)
		}
		seen[seq] = true
		q.Dequeue(nil)
	}
}
