// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package warp

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/kont"
	"code.hybscloud.com/lfq"
)

// laneContext is the remote end of a Pipe as seen by a lane peer.
// Both queues are single-producer single-consumer: the peer is the only
// consumer of upQ and the only producer of downQ.
type laneContext struct {
	upQ      *lfq.SPSC[Envelope]
	downQ    *lfq.SPSC[Envelope]
	hungup   *atomix.Uint32
	sendSlot Envelope
}

// laneDispatcher is the structural interface of lane peer effects.
// DispatchLane is non-blocking: it returns iox.ErrWouldBlock at the queue
// boundary.
type laneDispatcher interface {
	DispatchLane(ctx *laneContext) (kont.Resumed, error)
}

// Serve answers every envelope sent up with the envelopes respond returns,
// until respond reports done. The peer then hangs up.
func Serve(respond func(Envelope) (replies []Envelope, done bool)) kont.Eff[struct{}] {
	return RecvBind(func(env Envelope) kont.Eff[struct{}] {
		replies, done := respond(env)
		if done {
			return SendAll(replies, HangupDone(struct{}{}))
		}
		return SendAll(replies, Serve(respond))
	})
}

// EchoLane is a lane that acknowledges every control request and echoes
// each command body back as an event. It never hangs up.
func EchoLane() kont.Eff[struct{}] {
	return Serve(func(env Envelope) ([]Envelope, bool) {
		return echo(env), false
	})
}

func echo(env Envelope) []Envelope {
	switch env := env.(type) {
	case *LinkRequest:
		return []Envelope{&LinkedResponse{Address: env.Address, Prio: env.Prio, Rate: env.Rate, Body: env.Body}}
	case *SyncRequest:
		return []Envelope{
			&LinkedResponse{Address: env.Address, Prio: env.Prio, Rate: env.Rate, Body: env.Body},
			&SyncedResponse{Address: env.Address},
		}
	case *UnlinkRequest:
		return []Envelope{&UnlinkedResponse{Address: env.Address, Body: env.Body}}
	case *CommandMessage:
		return []Envelope{&EventMessage{Address: env.Address, Body: env.Body}}
	}
	return nil
}
