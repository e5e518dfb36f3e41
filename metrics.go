// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package warp

import (
	"math"
	"time"

	"code.hybscloud.com/atomix"
)

// minReportSpan bounds the divisor of per-second rates.
const minReportSpan = time.Millisecond

// Profile is one metrics report of a downlink. Deltas cover the span since
// the previous report; counts are cumulative and never reset. Rates are per
// second, rounded up.
type Profile struct {
	Address Address
	Span    time.Duration

	ExecDelta time.Duration
	ExecRate  time.Duration
	ExecTime  time.Duration

	OpenDelta  int64
	OpenCount  int64
	CloseDelta int64
	CloseCount int64

	EventDelta int64
	EventRate  int64
	EventCount int64

	CommandDelta int64
	CommandRate  int64
	CommandCount int64
}

type counter struct {
	delta atomix.Int64
	total atomix.Int64
}

// roll moves the delta into the total and returns both.
func (c *counter) roll() (delta, total int64) {
	delta = c.delta.Swap(0)
	total = c.total.Add(delta)
	return delta, total
}

type metrics struct {
	exec     counter
	opens    counter
	closes   counter
	events   counter
	commands counter

	// lastReport is the wall time of the last report, in Unix nanoseconds.
	lastReport atomix.Int64
}

// AccumulateExecTime adds time spent running this downlink's callbacks.
func (d *Downlink) AccumulateExecTime(dt time.Duration) {
	d.metrics.exec.delta.Add(int64(dt))
	d.didUpdateMetrics()
}

// didUpdateMetrics reports if ReportInterval has elapsed since the last
// report. Concurrent callers race for the report by CAS on the timestamp;
// only the winner reports.
func (d *Downlink) didUpdateMetrics() {
	for {
		last := d.metrics.lastReport.Load()
		now := d.cfg.Clock.Now().UnixNano()
		dt := time.Duration(now - last)
		if dt < d.cfg.ReportInterval {
			return
		}
		if d.metrics.lastReport.CompareAndSwap(last, now) {
			d.reportMetrics(dt)
			return
		}
	}
}

// flushMetrics reports unconditionally.
func (d *Downlink) flushMetrics() {
	now := d.cfg.Clock.Now().UnixNano()
	last := d.metrics.lastReport.Swap(now)
	d.reportMetrics(time.Duration(now - last))
}

func (d *Downlink) reportMetrics(dt time.Duration) {
	cell := d.cell
	if cell == nil {
		return
	}
	profile := d.collectProfile(dt)
	d.guard(func() error {
		cell.ReportDown(profile)
		return nil
	})
}

func (d *Downlink) collectProfile(dt time.Duration) Profile {
	if dt < minReportSpan {
		dt = minReportSpan
	}
	p := Profile{Address: d.addr, Span: dt}

	execDelta, execTime := d.metrics.exec.roll()
	p.ExecDelta = time.Duration(execDelta)
	p.ExecRate = time.Duration(perSecond(execDelta, dt))
	p.ExecTime = time.Duration(execTime)

	p.OpenDelta, p.OpenCount = d.metrics.opens.roll()
	p.CloseDelta, p.CloseCount = d.metrics.closes.roll()

	p.EventDelta, p.EventCount = d.metrics.events.roll()
	p.EventRate = perSecond(p.EventDelta, dt)

	p.CommandDelta, p.CommandCount = d.metrics.commands.roll()
	p.CommandRate = perSecond(p.CommandDelta, dt)
	return p
}

func perSecond(delta int64, dt time.Duration) int64 {
	return int64(math.Ceil(float64(delta) * float64(time.Second) / float64(dt)))
}
