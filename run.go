// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package warp

import (
	"context"

	"code.hybscloud.com/iox"
)

// Pump performs one non-blocking round of the pipe: it flushes the held
// up envelope, answers one upstream pull, advances the lane peer by one
// effect and answers one downstream pull. It returns iox.ErrWouldBlock
// when none of these made progress.
func (p *Pipe) Pump() error {
	progress := false
	if p.upHeld {
		if err := p.upQ.Enqueue(&p.upSlot); err == nil {
			p.upSlot, p.upHeld = nil, false
			progress = true
		}
	}
	if !p.upHeld && p.pullUp.Load() > 0 {
		p.pullUp.Add(-1)
		p.link.PullUp()
		progress = true
	}
	if p.peer != nil {
		var err error
		if _, p.peer, err = Advance(p, p.peer); err == nil {
			progress = true
		}
	}
	if p.pullDown.Load() > 0 {
		if env, err := p.downQ.Dequeue(); err == nil {
			p.pullDown.Add(-1)
			p.link.PushDown(env)
			progress = true
		}
	}
	if !progress {
		return iox.ErrWouldBlock
	}
	return nil
}

// Drain pumps until the pipe is quiescent.
func (p *Pipe) Drain() {
	for p.Pump() == nil {
	}
}

// Run pumps the pipe on the calling goroutine until ctx is done or the
// lane peer has finished and nothing is left to move. It waits with
// adaptive backoff (iox.Backoff) while neither side can make progress.
func (p *Pipe) Run(ctx context.Context) error {
	var bo iox.Backoff
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.Pump(); err != nil {
			if p.peer == nil {
				return nil
			}
			bo.Wait()
			continue
		}
		bo.Reset()
	}
}
