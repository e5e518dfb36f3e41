// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package warp

import (
	"errors"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/lfq"
)

// DefaultQueueCapacity is the FIFO capacity of a CommandQueue built with
// a non-positive capacity.
const DefaultQueueCapacity = 256

// minQueueCapacity is the smallest FIFO lfq can build.
const minQueueCapacity = 2

// UpQueue holds command bodies waiting to be pulled up the link.
//
// Enqueue may be called from any goroutine; Dequeue and TakeCued are only
// called from PullUp, of which at most one runs per feed cycle.
type UpQueue interface {
	IsEmpty() bool
	Enqueue(body Value) error
	Dequeue() (Value, bool)
	TakeCued() (Value, bool)
}

// prioQueue is the optional extension used by CommandPrio.
type prioQueue interface {
	EnqueuePrio(prio float32, body Value) error
}

// cuer is the optional extension used by CueCommand.
type cuer interface {
	Cue(body Value)
}

// NopQueue is the queue of a downlink that only ever sends control
// envelopes.
type NopQueue struct{}

func (NopQueue) IsEmpty() bool           { return true }
func (NopQueue) Enqueue(Value) error     { return errors.ErrUnsupported }
func (NopQueue) Dequeue() (Value, bool)  { return nil, false }
func (NopQueue) TakeCued() (Value, bool) { return nil, false }

// cued boxes the latest coalesced body so that a nil body can be cued.
type cued struct {
	body Value
}

// CommandQueue is a bounded lock-free FIFO of command bodies plus a
// single coalescing cue slot.
//
// The FIFO is a multi-producer single-consumer queue from lfq: Enqueue
// returns iox.ErrWouldBlock when it is full. Cue overwrites whatever body
// was cued before and has not been taken yet.
type CommandQueue struct {
	fifo *lfq.MPSC[Value]
	size atomix.Int64
	cue  atomix.Pointer[cued]
}

// NewCommandQueue creates a CommandQueue for about capacity bodies.
// Non-positive capacity means DefaultQueueCapacity; anything below 2 is
// raised to 2. lfq rounds the capacity up to a power of two, so
// NewCommandQueue(3) holds 4 bodies.
func NewCommandQueue(capacity int) *CommandQueue {
	switch {
	case capacity <= 0:
		capacity = DefaultQueueCapacity
	case capacity < minQueueCapacity:
		capacity = minQueueCapacity
	}
	return &CommandQueue{fifo: lfq.NewMPSC[Value](capacity)}
}

// IsEmpty reports whether the FIFO holds no bodies. The cue slot is
// tracked by the downlink's CuedUp bit, not here.
func (q *CommandQueue) IsEmpty() bool {
	return q.size.Load() <= 0
}

// Enqueue appends body to the FIFO.
func (q *CommandQueue) Enqueue(body Value) error {
	if err := q.fifo.Enqueue(&body); err != nil {
		return err
	}
	q.size.Add(1)
	return nil
}

// Dequeue removes the oldest body.
func (q *CommandQueue) Dequeue() (Value, bool) {
	body, err := q.fifo.Dequeue()
	if err != nil {
		return nil, false
	}
	q.size.Add(-1)
	return body, true
}

// Cue replaces the coalesced body.
func (q *CommandQueue) Cue(body Value) {
	q.cue.Store(&cued{body: body})
}

// TakeCued removes and returns the coalesced body.
func (q *CommandQueue) TakeCued() (Value, bool) {
	c := q.cue.Swap(nil)
	if c == nil {
		return nil, false
	}
	return c.body, true
}
