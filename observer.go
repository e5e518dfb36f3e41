// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package warp

import (
	"slices"

	"code.hybscloud.com/atomix"
)

// Observer callbacks. An observer implements any subset of them; the
// downlink dispatches by structural assertion, so a missing method is
// simply skipped. Observers are compared with ==, so register pointers.
type (
	EventHandler         interface{ OnEvent(msg *EventMessage) error }
	CommandHandler       interface{ OnCommand(msg *CommandMessage) error }
	WillLinkHandler      interface{ WillLink(req *LinkRequest) error }
	DidLinkHandler       interface{ DidLink(resp *LinkedResponse) error }
	WillSyncHandler      interface{ WillSync(req *SyncRequest) error }
	DidSyncHandler       interface{ DidSync(resp *SyncedResponse) error }
	WillUnlinkHandler    interface{ WillUnlink(req *UnlinkRequest) error }
	DidUnlinkHandler     interface{ DidUnlink(resp *UnlinkedResponse) error }
	DidConnectHandler    interface{ DidConnect() }
	DidDisconnectHandler interface{ DidDisconnect() }
	DidCloseHandler      interface{ DidClose() }
	DidFailHandler       interface{ DidFail(err error) }
)

// Funcs adapts plain functions to every observer interface. Nil fields
// are no-ops.
type Funcs struct {
	EventFn      func(*EventMessage) error
	CommandFn    func(*CommandMessage) error
	WillLinkFn   func(*LinkRequest) error
	DidLinkFn    func(*LinkedResponse) error
	WillSyncFn   func(*SyncRequest) error
	DidSyncFn    func(*SyncedResponse) error
	WillUnlinkFn func(*UnlinkRequest) error
	DidUnlinkFn  func(*UnlinkedResponse) error
	ConnectFn    func()
	DisconnectFn func()
	CloseFn      func()
	FailFn       func(error)
}

func (f *Funcs) OnEvent(msg *EventMessage) error        { return call1(f.EventFn, msg) }
func (f *Funcs) OnCommand(msg *CommandMessage) error    { return call1(f.CommandFn, msg) }
func (f *Funcs) WillLink(req *LinkRequest) error        { return call1(f.WillLinkFn, req) }
func (f *Funcs) DidLink(resp *LinkedResponse) error     { return call1(f.DidLinkFn, resp) }
func (f *Funcs) WillSync(req *SyncRequest) error        { return call1(f.WillSyncFn, req) }
func (f *Funcs) DidSync(resp *SyncedResponse) error     { return call1(f.DidSyncFn, resp) }
func (f *Funcs) WillUnlink(req *UnlinkRequest) error    { return call1(f.WillUnlinkFn, req) }
func (f *Funcs) DidUnlink(resp *UnlinkedResponse) error { return call1(f.DidUnlinkFn, resp) }

func (f *Funcs) DidConnect() {
	if f.ConnectFn != nil {
		f.ConnectFn()
	}
}

func (f *Funcs) DidDisconnect() {
	if f.DisconnectFn != nil {
		f.DisconnectFn()
	}
}

func (f *Funcs) DidClose() {
	if f.CloseFn != nil {
		f.CloseFn()
	}
}

func (f *Funcs) DidFail(err error) {
	if f.FailFn != nil {
		f.FailFn(err)
	}
}

func call1[T any](fn func(T) error, v T) error {
	if fn == nil {
		return nil
	}
	return fn(v)
}

// observers is a copy-on-write set. Readers take a snapshot without
// synchronization; writers swap in a new slice by CAS.
type observers struct {
	p atomix.Pointer[[]any]
}

func (o *observers) snapshot() []any {
	if s := o.p.Load(); s != nil {
		return *s
	}
	return nil
}

func (o *observers) add(v any) {
	for {
		old := o.p.Load()
		var next []any
		if old != nil {
			next = slices.Clone(*old)
		}
		next = append(next, v)
		if o.p.CompareAndSwap(old, &next) {
			return
		}
	}
}

// remove deletes the first occurrence of v and reports whether it was
// present.
func (o *observers) remove(v any) bool {
	for {
		old := o.p.Load()
		if old == nil {
			return false
		}
		i := slices.Index(*old, v)
		if i < 0 {
			return false
		}
		next := slices.Delete(slices.Clone(*old), i, i+1)
		if o.p.CompareAndSwap(old, &next) {
			return true
		}
	}
}

// clear detaches every observer and returns them.
func (o *observers) clear() []any {
	old := o.p.Swap(nil)
	if old == nil {
		return nil
	}
	return *old
}

// AddObserver registers v for callbacks. Each registration counts as an
// open in the metrics and forces a report.
func (d *Downlink) AddObserver(v any) {
	d.observers.add(v)
	d.metrics.opens.delta.Add(1)
	d.flushMetrics()
}

// RemoveObserver detaches v. It reports false when v was not registered.
func (d *Downlink) RemoveObserver(v any) bool {
	if !d.observers.remove(v) {
		return false
	}
	d.metrics.closes.delta.Add(1)
	return true
}

// Observers returns a snapshot of the registered observers.
func (d *Downlink) Observers() []any {
	return slices.Clone(d.observers.snapshot())
}

func (d *Downlink) removeObservers() {
	if removed := d.observers.clear(); len(removed) > 0 {
		d.metrics.closes.delta.Add(int64(len(removed)))
	}
}
