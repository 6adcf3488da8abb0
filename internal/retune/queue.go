package retune

import (
	"errors"
	"sync/atomic"

	"github.com/radio-control/retune/internal/radio"
)

// QueueDepth is the fixed capacity of the retune queue.
const QueueDepth = 32

const queueMask = QueueDepth - 1

// QueueDepth must stay a power of two: index advancement masks instead of
// dividing. Any other value makes this array length negative.
var _ [-(QueueDepth & queueMask)]struct{}

var (
	// ErrQueueFull rejects an enqueue at capacity. The queue is unchanged.
	ErrQueueFull = errors.New("QUEUE_FULL")
	// ErrQueueEmpty rejects a dequeue on an empty queue.
	ErrQueueEmpty = errors.New("QUEUE_EMPTY")
)

// EntryState is the lifecycle state of a queued retune.
type EntryState uint32

const (
	// EntryInvalid marks a free slot.
	EntryInvalid EntryState = iota
	// EntryNew is a freshly enqueued request the work loop has not seen.
	EntryNew
	// EntryScheduled means the timer service has been asked to signal
	// completion at the entry's target timestamp.
	EntryScheduled
	// EntryReady means the target timestamp has elapsed and the next work
	// loop pass must perform the retune.
	EntryReady
)

func (s EntryState) String() string {
	switch s {
	case EntryInvalid:
		return "invalid"
	case EntryNew:
		return "new"
	case EntryScheduled:
		return "scheduled"
	case EntryReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Entry is one slot of the retune queue.
//
// The state and seq words are shared with the timer service and are only
// ever accessed through atomic operations. Every other field is written by
// the dispatcher before the entry becomes visible and is stable until the
// slot is recycled.
type Entry struct {
	state uint32
	seq   uint32

	Module radio.Module
	Target uint64
	Freq   radio.FrequencyDescriptor
}

// State atomically reads the lifecycle state.
func (e *Entry) State() EntryState {
	return EntryState(atomic.LoadUint32(&e.state))
}

func (e *Entry) setState(s EntryState) {
	atomic.StoreUint32(&e.state, uint32(s))
}

// Seq atomically reads the slot generation. The timer service compares it
// against the value captured at scheduling time so a stale arm cannot act
// on a recycled slot.
func (e *Entry) Seq() uint32 {
	return atomic.LoadUint32(&e.seq)
}

// MarkReady flips the entry from Scheduled to Ready. It is the timer
// service's completion signal and the only mutation permitted from outside
// the run loop. It reports whether the transition happened.
func (e *Entry) MarkReady() bool {
	return atomic.CompareAndSwapUint32(&e.state, uint32(EntryScheduled), uint32(EntryReady))
}

// EntrySnapshot is a caller-owned copy of a queue entry.
type EntrySnapshot struct {
	State  EntryState
	Seq    uint32
	Module radio.Module
	Target uint64
	Freq   radio.FrequencyDescriptor
}

// Queue is a fixed-capacity FIFO ring of retune requests.
//
// The queue owns its entries. Peek hands out a borrowed reference to the
// head; nothing else aliases a slot. Structural fields (count and the two
// indices) are only touched by the run loop goroutine.
type Queue struct {
	count   uint8
	insIdx  uint8
	remIdx  uint8
	nextSeq uint32

	entries [QueueDepth]Entry
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Reset returns the queue to its startup state, invalidating every slot.
func (q *Queue) Reset() {
	for i := range q.entries {
		q.entries[i].setState(EntryInvalid)
	}
	q.count = 0
	q.insIdx = 0
	q.remIdx = 0
}

// Len returns the number of queued entries.
func (q *Queue) Len() int {
	return int(q.count)
}

// Enqueue appends a retune request and returns the new queue size. At
// capacity it returns ErrQueueFull and the queue is left untouched.
func (q *Queue) Enqueue(f radio.FrequencyDescriptor, m radio.Module, target uint64) (int, error) {
	if q.count >= QueueDepth {
		return int(q.count), ErrQueueFull
	}

	e := &q.entries[q.insIdx]
	q.nextSeq++
	atomic.StoreUint32(&e.seq, q.nextSeq)
	e.Module = m
	e.Target = target
	e.Freq = f
	// State goes last so the entry is fully populated before it reads as New.
	e.setState(EntryNew)

	q.insIdx = (q.insIdx + 1) & queueMask
	q.count++
	return int(q.count), nil
}

// Dequeue removes the oldest entry and returns the remaining queue size.
// When out is non-nil the removed entry is copied into it before the slot
// is invalidated. An empty queue returns ErrQueueEmpty without mutation.
func (q *Queue) Dequeue(out *EntrySnapshot) (int, error) {
	if q.count == 0 {
		return 0, ErrQueueEmpty
	}

	e := &q.entries[q.remIdx]
	if out != nil {
		out.State = e.State()
		out.Seq = e.Seq()
		out.Module = e.Module
		out.Target = e.Target
		out.Freq = e.Freq
	}
	e.setState(EntryInvalid)

	q.remIdx = (q.remIdx + 1) & queueMask
	q.count--
	return int(q.count), nil
}

// Peek returns a borrowed reference to the oldest entry, or nil when the
// queue is empty. It never mutates the queue.
func (q *Queue) Peek() *Entry {
	if q.count == 0 {
		return nil
	}
	return &q.entries[q.remIdx]
}
