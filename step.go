// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package warp

import (
	"code.hybscloud.com/kont"
)

// Step runs a lane peer up to the first envelope it waits for or emits.
// A peer that never touches the pipe completes at once with a nil
// suspension.
func Step[R any](peer kont.Expr[R]) (R, *kont.Suspension[R]) {
	return kont.StepExpr(peer)
}

// Advance performs the pending lane effect of a peer against the remote
// end of p: Recv takes from the up queue, Send puts on the down queue,
// Hangup marks the pipe hung up.
//
// When the queue involved is empty or full, Advance returns
// iox.ErrWouldBlock together with the same suspension, which stays valid
// until the downlink side has pumped. Otherwise the suspension is spent
// and Advance returns the peer's next one, or nil with its result once the
// peer has finished. Effects other than the lane effects panic.
func Advance[R any](p *Pipe, susp *kont.Suspension[R]) (R, *kont.Suspension[R], error) {
	eff, ok := susp.Op().(laneDispatcher)
	if !ok {
		panic("warp: unhandled effect in Advance")
	}
	reply, err := eff.DispatchLane(&p.lane)
	if err != nil {
		var zero R
		return zero, susp, err
	}
	result, next := susp.Resume(reply)
	return result, next, nil
}
