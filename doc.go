// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package warp provides the link engine of a streaming pub/sub downlink:
// the lifecycle of one subscription to a remote lane and the flow control
// of both of its directions.
//
// A [Downlink] is a lock-free state machine over a single status word.
// Every operation is a non-blocking call that may come from any goroutine;
// the engine never waits, it arms a flag and asks its [LinkContext] for a
// pull, which the context answers later with [Downlink.PushDown] or
// [Downlink.PullUp].
//
// # Architecture
//
//   - Status: lifecycle bits (opened, link, linking, linked, sync, syncing,
//     unlink, unlinking) and flow bits (feeding/pulling down, cued/feeding up)
//     in one [code.hybscloud.com/atomix.Uint32], updated by compare-and-swap.
//   - Lifecycle: [Downlink.Link], [Downlink.Sync], [Downlink.Unlink] and the
//     transport events [Downlink.OpenDown], [Downlink.DidConnect],
//     [Downlink.DidDisconnect], [Downlink.DidCloseUp], [Downlink.CloseDown].
//   - Downstream: [Downlink.FeedDown], [Downlink.CueDown], [Downlink.PushDown],
//     [Downlink.SkipDown].
//   - Upstream: [Downlink.Command], [Downlink.CueCommand], [Downlink.PullUp].
//     Unlink, sync and link requests go before queued commands.
//   - Queue: [UpQueue]; [CommandQueue] is a bounded lock-free MPSC queue from
//     [code.hybscloud.com/lfq]. A full queue returns
//     [code.hybscloud.com/iox.ErrWouldBlock].
//   - Metrics: lock-free counters reported to the [CellContext] at most once
//     per [Config.ReportInterval], and unconditionally on open and close.
//   - Faults: handler errors and panics are caught at the dispatch boundary.
//     Non-fatal faults go to [Downlink.DidFail]; fatal ones ([Fatal],
//     runtime errors) are re-panicked.
//
// # Loopback
//
// [Pipe] is an in-process [LinkContext] that connects a downlink to a lane
// peer written with the [Recv], [Send] and [Hangup] effects on
// [code.hybscloud.com/kont]. [Pipe.Pump] moves one step at a time, making it
// easy to drive deterministically from tests or from a proactor loop.
//
// # Example
//
//	link := warp.New(warp.Identity{Node: "/house", Lane: "lights"},
//		warp.Config{KeepLinked: true, Queue: warp.NewCommandQueue(0)})
//	pipe := warp.NewPipe(link, warp.EchoLane())
//	link.OpenDown()
//	link.FeedDown()
//	_ = link.Command("on")
//	pipe.Drain()
package warp
