// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package warp

import "github.com/golang/glog"

// CueDown ends a downstream round. If the consumer fed again while the
// round was in flight, the next pull is requested right away; otherwise
// the channel goes idle until the next FeedDown.
func (d *Downlink) CueDown() {
	if d.Closed() {
		return
	}
	before, _ := d.status.update(func(s Status) Status {
		if s&StatusFeedingDown != 0 {
			return s&^StatusFeedingDown | StatusPullingDown
		}
		return s &^ StatusPullingDown
	})
	if before&StatusFeedingDown != 0 {
		d.requestPullDown()
	}
}

// FeedDown declares the consumer ready for one more envelope.
func (d *Downlink) FeedDown() {
	if d.Closed() {
		return
	}
	before, _ := d.status.update(func(s Status) Status {
		if s&StatusPullingDown == 0 {
			return s&^StatusFeedingDown | StatusPullingDown
		}
		return s | StatusFeedingDown
	})
	if before&StatusPullingDown == 0 {
		d.requestPullDown()
	}
}

// SkipDown is called by the context when a requested pull had nothing to
// deliver.
func (d *Downlink) SkipDown() {
	d.CueDown()
}

// PushDown delivers the one envelope of a requested pull.
func (d *Downlink) PushDown(env Envelope) {
	switch env := env.(type) {
	case *EventMessage:
		d.pushDownEvent(env)
	case *LinkedResponse:
		d.pushDownLinked(env)
	case *SyncedResponse:
		d.pushDownSynced(env)
	case *UnlinkedResponse:
		d.pushDownUnlinked(env)
	default:
		// Requests and commands only travel up; nothing to do.
	}
}

func (d *Downlink) pushDownEvent(msg *EventMessage) {
	defer d.CueDown()
	d.onEvent(msg)
}

func (d *Downlink) pushDownLinked(resp *LinkedResponse) {
	defer d.CueDown()
	d.didLink(resp)
}

func (d *Downlink) pushDownSynced(resp *SyncedResponse) {
	defer d.CueDown()
	d.didSync(resp)
}

// pushDownUnlinked does not cue: the link is ending.
func (d *Downlink) pushDownUnlinked(resp *UnlinkedResponse) {
	d.didUnlink(resp)
}

func (d *Downlink) onEvent(msg *EventMessage) {
	d.metrics.events.delta.Add(1)
	d.didUpdateMetrics()
	for _, o := range d.observers.snapshot() {
		if h, ok := o.(EventHandler); ok {
			d.guard(func() error { return h.OnEvent(msg) })
		}
	}
}

func (d *Downlink) didLink(resp *LinkedResponse) {
	d.status.update(func(s Status) Status { return s &^ StatusLinking })
	glog.V(2).Infof("[downlink %d]linked\n", d.serial)
	for _, o := range d.observers.snapshot() {
		if h, ok := o.(DidLinkHandler); ok {
			d.guard(func() error { return h.DidLink(resp) })
		}
	}
}

func (d *Downlink) didSync(resp *SyncedResponse) {
	d.status.update(func(s Status) Status { return s &^ StatusSyncing })
	glog.V(2).Infof("[downlink %d]synced\n", d.serial)
	for _, o := range d.observers.snapshot() {
		if h, ok := o.(DidSyncHandler); ok {
			d.guard(func() error { return h.DidSync(resp) })
		}
	}
}

func (d *Downlink) didUnlink(resp *UnlinkedResponse) {
	d.status.update(func(s Status) Status { return s &^ didUnlinkMask })
	glog.V(2).Infof("[downlink %d]unlinked\n", d.serial)
	for _, o := range d.observers.snapshot() {
		if h, ok := o.(DidUnlinkHandler); ok {
			d.guard(func() error { return h.DidUnlink(resp) })
		}
	}
}
