// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package promsink exports downlink metric profiles to Prometheus.
package promsink

import (
	"code.hybscloud.com/warp"
	"github.com/prometheus/client_golang/prometheus"
)

const subsystem = "downlink"

var labelNames = []string{"node", "lane"}

// Sink is a [warp.CellContext] that turns every reported [warp.Profile]
// into Prometheus counters and rate gauges labelled by node and lane.
type Sink struct {
	execSeconds *prometheus.CounterVec
	opens       *prometheus.CounterVec
	closes      *prometheus.CounterVec
	events      *prometheus.CounterVec
	commands    *prometheus.CounterVec
	eventRate   *prometheus.GaugeVec
	commandRate *prometheus.GaugeVec
}

// New creates a Sink and registers its collectors with reg.
func New(reg prometheus.Registerer, namespace string) (*Sink, error) {
	counter := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		}, labelNames)
	}
	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		}, labelNames)
	}
	s := &Sink{
		execSeconds: counter("exec_seconds_total", "Time spent in downlink callbacks."),
		opens:       counter("opens_total", "Observers attached to downlinks."),
		closes:      counter("closes_total", "Observers detached from downlinks."),
		events:      counter("events_total", "Events received from lanes."),
		commands:    counter("commands_total", "Commands sent to lanes."),
		eventRate:   gauge("event_rate", "Events per second over the last report span."),
		commandRate: gauge("command_rate", "Commands per second over the last report span."),
	}
	for _, c := range []prometheus.Collector{
		s.execSeconds, s.opens, s.closes, s.events, s.commands, s.eventRate, s.commandRate,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ReportDown implements warp.CellContext.
func (s *Sink) ReportDown(p warp.Profile) {
	labels := prometheus.Labels{"node": p.Address.Node, "lane": p.Address.Lane}
	s.execSeconds.With(labels).Add(p.ExecDelta.Seconds())
	s.opens.With(labels).Add(float64(p.OpenDelta))
	s.closes.With(labels).Add(float64(p.CloseDelta))
	s.events.With(labels).Add(float64(p.EventDelta))
	s.commands.With(labels).Add(float64(p.CommandDelta))
	s.eventRate.With(labels).Set(float64(p.EventRate))
	s.commandRate.With(labels).Set(float64(p.CommandRate))
}

// OpenMetaDownlink implements warp.CellContext. Meta downlinks are not
// exported.
func (s *Sink) OpenMetaDownlink(*warp.Downlink, any) {}

// CloseDownlink implements warp.CellContext. Series outlive their
// downlink: the final flush that follows a close still lands here.
func (s *Sink) CloseDownlink(*warp.Downlink) {}
