// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package warp

import (
	"code.hybscloud.com/kont"
)

// Recv is the effect by which a lane peer takes the next envelope the
// downlink sent up.
type Recv struct {
	kont.Phantom[Envelope]
}

// DispatchLane returns iox.ErrWouldBlock while nothing was sent up.
func (Recv) DispatchLane(ctx *laneContext) (kont.Resumed, error) {
	env, err := ctx.upQ.Dequeue()
	if err != nil {
		return nil, err
	}
	return env, nil
}

// Send is the effect by which a lane peer delivers an envelope down to
// the downlink. The downlink receives it on its next requested pull.
type Send struct {
	kont.Phantom[struct{}]
	Envelope Envelope
}

// DispatchLane returns iox.ErrWouldBlock while the down queue is full.
func (s Send) DispatchLane(ctx *laneContext) (kont.Resumed, error) {
	ctx.sendSlot = s.Envelope
	if err := ctx.downQ.Enqueue(&ctx.sendSlot); err != nil {
		return nil, err
	}
	return struct{}{}, nil
}

// Hangup is the effect by which a lane peer ends. Never blocks.
type Hangup struct {
	kont.Phantom[struct{}]
}

func (Hangup) DispatchLane(ctx *laneContext) (kont.Resumed, error) {
	ctx.hungup.Store(1)
	return struct{}{}, nil
}
