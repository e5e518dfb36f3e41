// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package warp

// LinkContext is the transport side of a downlink.
//
// RequestPullDown and RequestPullUp are fire-and-forget: the context answers
// them later, from any goroutine, with one PushDown/SkipDown or one PullUp.
// None of the methods may block or call back into the downlink
// synchronously.
type LinkContext interface {
	RequestPullDown()
	RequestPullUp()
	PushUp(env Envelope)
	SkipUp()
	DidOpenDown()
	DidCloseDown()
}

// CellContext is the host side of a downlink: the node that registered it
// and collects its metrics.
type CellContext interface {
	OpenMetaDownlink(link *Downlink, meta any)
	CloseDownlink(link *Downlink)
	ReportDown(profile Profile)
}
