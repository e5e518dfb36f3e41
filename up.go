// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package warp

import "errors"

// Command queues body to be sent to the lane as a CommandMessage.
// A full queue returns iox.ErrWouldBlock.
func (d *Downlink) Command(body Value) error {
	return d.PushUp(body)
}

// CommandPrio queues body with a priority. The priority is honored only by
// queues that implement EnqueuePrio; others treat it as Command.
func (d *Downlink) CommandPrio(prio float32, body Value) error {
	if d.Closed() {
		return ErrClosed
	}
	var err error
	if q, ok := d.cfg.Queue.(prioQueue); ok {
		err = q.EnqueuePrio(prio, body)
	} else {
		err = d.cfg.Queue.Enqueue(body)
	}
	if err != nil {
		return err
	}
	d.armUp()
	return nil
}

// CueCommand replaces the coalesced command body and arms the upstream.
// The queue must implement Cue.
func (d *Downlink) CueCommand(body Value) error {
	if d.Closed() {
		return ErrClosed
	}
	q, ok := d.cfg.Queue.(cuer)
	if !ok {
		return errors.ErrUnsupported
	}
	q.Cue(body)
	d.CueUp()
	return nil
}

// PushUp enqueues body and arms the upstream.
func (d *Downlink) PushUp(body Value) error {
	if d.Closed() {
		return ErrClosed
	}
	if err := d.cfg.Queue.Enqueue(body); err != nil {
		return err
	}
	d.armUp()
	return nil
}

func (d *Downlink) armUp() {
	before, after := d.status.update(func(s Status) Status { return s | StatusFeedingUp })
	if before != after {
		d.requestPullUp()
	}
}

// CueUp marks the queue's cue slot as pending and arms the upstream.
func (d *Downlink) CueUp() {
	if d.Closed() {
		return
	}
	before, _ := d.status.update(func(s Status) Status { return s | StatusFeedingUp | StatusCuedUp })
	if before&StatusFeedingUp == 0 {
		d.requestPullUp()
	}
}

// feedUp re-arms the upstream after a pull if work remains. With nothing
// cued or queued the channel goes idle until the next PushUp or CueUp.
func (d *Downlink) feedUp() {
	before, after := d.status.update(func(s Status) Status {
		if s&StatusCuedUp != 0 || !d.cfg.Queue.IsEmpty() {
			return s | StatusFeedingUp
		}
		return s
	})
	if before != after {
		d.requestPullUp()
	}
}

// PullUp produces the one envelope of a requested upstream pull and hands
// it to LinkContext.PushUp, or calls LinkContext.SkipUp when there is
// nothing to send. Control envelopes go first: unlink, then sync, then
// link, then queued commands, then the cued command.
func (d *Downlink) PullUp() {
	before, _ := d.status.update(func(s Status) Status {
		switch {
		case s&StatusUnlink != 0:
			return s &^ (StatusUnlink | StatusFeedingUp)
		case s&StatusSync != 0:
			return s &^ (StatusLink | StatusSync | StatusFeedingUp)
		case s&StatusLink != 0:
			return s &^ (StatusLink | StatusFeedingUp)
		default:
			return s &^ (StatusCuedUp | StatusFeedingUp)
		}
	})
	switch {
	case before&StatusUnlink != 0:
		req := d.unlinkRequest()
		d.willUnlink(req)
		d.link.PushUp(req)
	case before&StatusSync != 0:
		req := d.syncRequest()
		d.willSync(req)
		d.link.PushUp(req)
		d.feedUp()
	case before&StatusLink != 0:
		req := d.linkRequest()
		d.willLink(req)
		d.link.PushUp(req)
		d.feedUp()
	default:
		cued := before&StatusCuedUp != 0
		msg, queued := d.nextUpCommand(cued)
		if msg == nil {
			d.link.SkipUp()
			return
		}
		d.onCommand(msg)
		d.link.PushUp(msg)
		if queued && cued {
			// The cue is still in its slot; mark it pending again.
			d.CueUp()
		} else {
			d.feedUp()
		}
	}
}

// nextUpCommand takes the next queued body, falling back to the cued one.
// queued reports whether the body came from the FIFO.
func (d *Downlink) nextUpCommand(cued bool) (msg *CommandMessage, queued bool) {
	body, ok := d.cfg.Queue.Dequeue()
	queued = ok
	if !ok && cued {
		body, ok = d.cfg.Queue.TakeCued()
	}
	if !ok {
		return nil, false
	}
	return &CommandMessage{Address: d.addr, Body: body}, queued
}

func (d *Downlink) linkRequest() *LinkRequest {
	return &LinkRequest{Address: d.addr, Prio: d.id.Prio, Rate: d.id.Rate, Body: d.id.Body}
}

func (d *Downlink) syncRequest() *SyncRequest {
	return &SyncRequest{Address: d.addr, Prio: d.id.Prio, Rate: d.id.Rate, Body: d.id.Body}
}

func (d *Downlink) unlinkRequest() *UnlinkRequest {
	return &UnlinkRequest{Address: d.addr, Body: d.id.Body}
}

func (d *Downlink) onCommand(msg *CommandMessage) {
	d.metrics.commands.delta.Add(1)
	d.didUpdateMetrics()
	for _, o := range d.observers.snapshot() {
		if h, ok := o.(CommandHandler); ok {
			d.guard(func() error { return h.OnCommand(msg) })
		}
	}
}

func (d *Downlink) willLink(req *LinkRequest) {
	for _, o := range d.observers.snapshot() {
		if h, ok := o.(WillLinkHandler); ok {
			d.guard(func() error { return h.WillLink(req) })
		}
	}
}

func (d *Downlink) willSync(req *SyncRequest) {
	for _, o := range d.observers.snapshot() {
		if h, ok := o.(WillSyncHandler); ok {
			d.guard(func() error { return h.WillSync(req) })
		}
	}
}

func (d *Downlink) willUnlink(req *UnlinkRequest) {
	for _, o := range d.observers.snapshot() {
		if h, ok := o.(WillUnlinkHandler); ok {
			d.guard(func() error { return h.WillUnlink(req) })
		}
	}
}
