// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package warp

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/kont"
	"code.hybscloud.com/lfq"
)

// pipeCapacity is the bounded capacity of each direction of a Pipe.
const pipeCapacity = 8

// Pipe is an in-process LinkContext that connects a Downlink to a lane
// peer.
//
// Envelopes travel over two bounded lock-free SPSC queues (link→lane and
// lane→link). Pull requests from the downlink are counted atomically, so
// they may come from any goroutine; everything else, including the
// downlink's PullUp and PushDown callbacks, runs on the goroutine that
// calls Pump, Drain or Run.
type Pipe struct {
	link *Downlink
	lane laneContext
	peer *kont.Suspension[struct{}]

	upQ    lfq.SPSC[Envelope]
	downQ  lfq.SPSC[Envelope]
	hungup atomix.Uint32

	pullDown atomix.Int32
	pullUp   atomix.Int32
	skips    atomix.Uint64
	opened   atomix.Uint32
	closed   atomix.Uint32

	// upSlot holds the envelope of the last PullUp until the up queue
	// accepts it.
	upSlot Envelope
	upHeld bool
}

// NewPipe binds a new Pipe as link's LinkContext and starts lane on its
// remote end. lane is evaluated one effect at a time by Pump.
func NewPipe(link *Downlink, lane kont.Eff[struct{}]) *Pipe {
	p := &Pipe{link: link}
	p.upQ.Init(pipeCapacity)
	p.downQ.Init(pipeCapacity)
	p.lane = laneContext{
		upQ:    &p.upQ,
		downQ:  &p.downQ,
		hungup: &p.hungup,
	}
	_, p.peer = Step(kont.Reify(lane))
	link.SetLinkContext(p)
	return p
}

// RequestPullDown implements LinkContext.
func (p *Pipe) RequestPullDown() { p.pullDown.Add(1) }

// RequestPullUp implements LinkContext.
func (p *Pipe) RequestPullUp() { p.pullUp.Add(1) }

// PushUp implements LinkContext. It is only called from within PullUp.
func (p *Pipe) PushUp(env Envelope) {
	if p.upHeld {
		panic("warp: pipe received a second envelope for one pull")
	}
	p.upSlot, p.upHeld = env, true
}

// SkipUp implements LinkContext.
func (p *Pipe) SkipUp() { p.skips.Add(1) }

// DidOpenDown implements LinkContext.
func (p *Pipe) DidOpenDown() { p.opened.Store(1) }

// DidCloseDown implements LinkContext.
func (p *Pipe) DidCloseDown() { p.closed.Store(1) }

// Skips returns how many upstream pulls had nothing to send.
func (p *Pipe) Skips() uint64 { return p.skips.Load() }

// Opened reports whether the downlink opened on this pipe.
func (p *Pipe) Opened() bool { return p.opened.Load() != 0 }

// Closed reports whether the downlink closed on this pipe.
func (p *Pipe) Closed() bool { return p.closed.Load() != 0 }

// HungUp reports whether the lane peer performed Hangup.
func (p *Pipe) HungUp() bool { return p.hungup.Load() != 0 }
