// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package warp

import (
	"time"

	"code.hybscloud.com/atomix"
	"github.com/golang/glog"
	"k8s.io/utils/clock"
)

// DefaultReportInterval is the minimum time between two throttled metric
// reports.
const DefaultReportInterval = time.Second

// Config holds the policy of a downlink. The zero value is a control-only
// downlink that links on demand and reports metrics at most once a second.
type Config struct {
	// KeepLinked links the downlink on open and on every reconnect.
	KeepLinked bool
	// KeepSynced makes KeepLinked sync instead of link.
	KeepSynced bool
	// Queue holds outbound command bodies. Nil means NopQueue.
	Queue UpQueue
	// ReportInterval throttles metric reports. Zero means
	// DefaultReportInterval.
	ReportInterval time.Duration
	// Clock is the metrics time source. Nil means the wall clock.
	Clock clock.PassiveClock
}

func (c Config) withDefaults() Config {
	if c.Queue == nil {
		c.Queue = NopQueue{}
	}
	if c.ReportInterval <= 0 {
		c.ReportInterval = DefaultReportInterval
	}
	if c.Clock == nil {
		c.Clock = clock.RealClock{}
	}
	return c
}

// Downlink is the link engine of one subscription to a remote lane.
//
// Every method is non-blocking and safe for concurrent use. Lifecycle and
// flow control share one status word updated by compare-and-swap; the
// callbacks into the LinkContext are decided from the transition each call
// performed, so a pull is requested once per transition that needs it.
//
// SetLinkContext and SetCellContext must be called before OpenDown.
type Downlink struct {
	id     Identity
	addr   Address
	serial Serial
	cfg    Config

	link LinkContext
	cell CellContext

	status     statusWord
	closed     atomix.Uint32
	deferredUp atomix.Uint32

	observers observers
	metrics   metrics
}

// New creates a closed downlink for id.
func New(id Identity, cfg Config) *Downlink {
	cfg = cfg.withDefaults()
	d := &Downlink{
		id:     id,
		addr:   id.Address(),
		serial: nextSerial(),
		cfg:    cfg,
	}
	d.metrics.lastReport.Store(cfg.Clock.Now().UnixNano())
	return d
}

// SetLinkContext binds the transport side.
func (d *Downlink) SetLinkContext(link LinkContext) { d.link = link }

// LinkContext returns the bound transport side.
func (d *Downlink) LinkContext() LinkContext { return d.link }

// SetCellContext binds the host side.
func (d *Downlink) SetCellContext(cell CellContext) { d.cell = cell }

// CellContext returns the bound host side.
func (d *Downlink) CellContext() CellContext { return d.cell }

func (d *Downlink) Identity() Identity { return d.id }
func (d *Downlink) Address() Address   { return d.addr }
func (d *Downlink) Prio() float32      { return d.id.Prio }
func (d *Downlink) Rate() float32      { return d.id.Rate }
func (d *Downlink) Body() Value        { return d.id.Body }
func (d *Downlink) Serial() Serial     { return d.serial }
func (d *Downlink) KeepLinked() bool   { return d.cfg.KeepLinked }
func (d *Downlink) KeepSynced() bool   { return d.cfg.KeepSynced }

// Status returns the current status word.
func (d *Downlink) Status() Status { return d.status.load() }

// Link asks the lane to start streaming. It only acts on an opened,
// unlinked downlink.
func (d *Downlink) Link() {
	before, after := d.status.update(func(s Status) Status {
		if s&(StatusLinked|StatusOpened) == StatusOpened {
			return s | StatusFeedingUp | StatusLinking | StatusLink | StatusLinked
		}
		return s
	})
	if before&StatusFeedingUp == 0 && after&StatusFeedingUp != 0 {
		d.requestPullUp()
	}
}

// Sync asks the lane to link and replay its state. It only acts on an
// opened, unlinked downlink.
func (d *Downlink) Sync() {
	before, after := d.status.update(func(s Status) Status {
		if s&(StatusLinked|StatusOpened) == StatusOpened {
			return s | StatusFeedingUp | StatusSyncing | StatusSync | StatusLinking | StatusLink | StatusLinked
		}
		return s
	})
	if before&StatusFeedingUp == 0 && after&StatusFeedingUp != 0 {
		d.requestPullUp()
	}
}

// Unlink cancels the link. A link or sync that has not been sent yet is
// dropped without touching the wire; a live link is torn down with an
// UnlinkRequest. Unlink is idempotent.
func (d *Downlink) Unlink() {
	before, after := d.status.update(func(s Status) Status {
		if s&StatusLink != 0 {
			return s &^ (StatusFeedingUp | linkBits)
		}
		if s&(StatusUnlinking|StatusLinked) == StatusLinked {
			return (s | StatusFeedingUp | StatusUnlinking | StatusUnlink) &^ (StatusSyncing | StatusSync | StatusLinking | StatusLink)
		}
		return s
	})
	if before&StatusFeedingUp == 0 && after&StatusFeedingUp != 0 {
		d.requestPullUp()
	}
}

// Reopen is a no-op: a downlink is opened once.
func (d *Downlink) Reopen() {}

// OpenDown opens the downlink on its transport. A closed downlink stays
// closed.
func (d *Downlink) OpenDown() {
	if d.Closed() {
		return
	}
	d.didOpen()
	d.link.DidOpenDown()
	// A pull armed before the link context was bound was never requested.
	if d.deferredUp.Swap(0) != 0 && d.status.load()&StatusFeedingUp != 0 {
		d.link.RequestPullUp()
	}
}

func (d *Downlink) didOpen() {
	d.status.update(func(s Status) Status { return s | StatusOpened })
	if glog.V(2) {
		glog.Infof("[downlink %d]open %s/%s\n", d.serial, d.addr.Node, d.addr.Lane)
	}
	d.keepLink()
}

func (d *Downlink) keepLink() {
	if !d.cfg.KeepLinked {
		return
	}
	if d.cfg.KeepSynced {
		d.Sync()
	} else {
		d.Link()
	}
}

// DidConnect re-applies the keep-linked policy after the transport
// reconnected.
func (d *Downlink) DidConnect() {
	if d.Closed() {
		return
	}
	d.keepLink()
	for _, o := range d.observers.snapshot() {
		if h, ok := o.(DidConnectHandler); ok {
			h.DidConnect()
		}
	}
}

// DidDisconnect forgets every link state: the link has to be negotiated
// again on reconnect.
func (d *Downlink) DidDisconnect() {
	if d.Closed() {
		return
	}
	d.status.update(func(s Status) Status { return s &^ disconnectMask })
	glog.V(2).Infof("[downlink %d]disconnect\n", d.serial)
	for _, o := range d.observers.snapshot() {
		if h, ok := o.(DidDisconnectHandler); ok {
			h.DidDisconnect()
		}
	}
}

// DidCloseUp tears the downlink down after its transport closed.
func (d *Downlink) DidCloseUp() {
	if !d.closed.CompareAndSwap(0, 1) {
		return
	}
	for _, o := range d.observers.snapshot() {
		if h, ok := o.(DidCloseHandler); ok {
			h.DidClose()
		}
	}
	d.didClose()
}

// CloseDown closes the downlink from the local side: the cell forgets it,
// it is torn down, and the transport is told.
func (d *Downlink) CloseDown() {
	if !d.closed.CompareAndSwap(0, 1) {
		return
	}
	if cell := d.cell; cell != nil {
		cell.CloseDownlink(d)
	}
	d.didClose()
	if link := d.link; link != nil {
		link.DidCloseDown()
	}
}

// didClose resets the status, detaches all observers and flushes the
// metrics. The closed flag makes it run once.
func (d *Downlink) didClose() {
	d.status.store(0)
	d.removeObservers()
	d.flushMetrics()
	glog.V(2).Infof("[downlink %d]close\n", d.serial)
}

// Closed reports whether the downlink was torn down.
func (d *Downlink) Closed() bool {
	return d.closed.Load() != 0
}

// DidFail is the funnel of every non-fatal fault. The downlink keeps
// whatever state it is in.
func (d *Downlink) DidFail(err error) {
	glog.Errorf("[downlink %d]%s/%s fail = %v\n", d.serial, d.addr.Node, d.addr.Lane, err)
	for _, o := range d.observers.snapshot() {
		if h, ok := o.(DidFailHandler); ok {
			h.DidFail(err)
		}
	}
}

// OpenMetaDownlink asks the cell to open a meta downlink for link.
func (d *Downlink) OpenMetaDownlink(link *Downlink, meta any) {
	if cell := d.cell; cell != nil {
		cell.OpenMetaDownlink(link, meta)
	}
}

// requestPullUp and requestPullDown drop requests once closed, so a call
// racing with teardown never reaches the dead context.
func (d *Downlink) requestPullUp() {
	if d.Closed() {
		return
	}
	link := d.link
	if link == nil {
		d.deferredUp.Store(1)
		return
	}
	link.RequestPullUp()
}

func (d *Downlink) requestPullDown() {
	if d.Closed() {
		return
	}
	if link := d.link; link != nil {
		link.RequestPullDown()
	}
}
