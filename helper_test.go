// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package warp_test

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/warp"
)

var testID = warp.Identity{
	Mesh: "warp://mesh",
	Host: "warp://host",
	Node: "/house/kitchen",
	Lane: "light",
	Prio: 1,
	Rate: 10,
	Body: "init",
}

// linkRecorder is a LinkContext that records every call.
// Envelopes pushed up are kept in order; it is not safe for concurrent
// PullUp.
type linkRecorder struct {
	pullDowns atomix.Int64
	pullUps   atomix.Int64
	skips     int
	opened    int
	closed    int
	up        []warp.Envelope
}

func (r *linkRecorder) RequestPullDown()         { r.pullDowns.Add(1) }
func (r *linkRecorder) RequestPullUp()           { r.pullUps.Add(1) }
func (r *linkRecorder) PushUp(env warp.Envelope) { r.up = append(r.up, env) }
func (r *linkRecorder) SkipUp()                  { r.skips++ }
func (r *linkRecorder) DidOpenDown()             { r.opened++ }
func (r *linkRecorder) DidCloseDown()            { r.closed++ }

// last returns the most recent envelope pushed up, or nil.
func (r *linkRecorder) last() warp.Envelope {
	if len(r.up) == 0 {
		return nil
	}
	return r.up[len(r.up)-1]
}

// cellRecorder is a CellContext that records reports. onReport, when set,
// runs inside ReportDown.
type cellRecorder struct {
	profiles []warp.Profile
	closed   []*warp.Downlink
	metas    int
	onReport func(warp.Profile)
}

func (c *cellRecorder) OpenMetaDownlink(*warp.Downlink, any) { c.metas++ }
func (c *cellRecorder) CloseDownlink(link *warp.Downlink)    { c.closed = append(c.closed, link) }
func (c *cellRecorder) ReportDown(p warp.Profile) {
	c.profiles = append(c.profiles, p)
	if c.onReport != nil {
		c.onReport(p)
	}
}

// openLink creates a downlink bound to a fresh recorder and opens it.
func openLink(cfg warp.Config) (*warp.Downlink, *linkRecorder) {
	d := warp.New(testID, cfg)
	rec := &linkRecorder{}
	d.SetLinkContext(rec)
	d.OpenDown()
	return d, rec
}

// feeder returns an observer that feeds the downlink again after every
// delivered envelope, keeping the downstream primed.
func feeder(d *warp.Downlink, events *[]warp.Value) *warp.Funcs {
	return &warp.Funcs{
		EventFn: func(msg *warp.EventMessage) error {
			*events = append(*events, msg.Body)
			d.FeedDown()
			return nil
		},
		DidLinkFn: func(*warp.LinkedResponse) error {
			d.FeedDown()
			return nil
		},
		DidSyncFn: func(*warp.SyncedResponse) error {
			d.FeedDown()
			return nil
		},
	}
}
