// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package warp_test

import (
	"errors"
	"testing"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/warp"
	"github.com/google/go-cmp/cmp"
)

// bodies returns the bodies of the command messages in envs.
func bodies(envs []warp.Envelope) []warp.Value {
	var out []warp.Value
	for _, env := range envs {
		if msg, ok := env.(*warp.CommandMessage); ok {
			out = append(out, msg.Body)
		}
	}
	return out
}

func TestCommandsPulledInOrder(t *testing.T) {
	d, rec := openLink(warp.Config{Queue: warp.NewCommandQueue(8)})
	for _, body := range []string{"a", "b", "c"} {
		if err := d.Command(body); err != nil {
			t.Fatalf("Command(%q): %v", body, err)
		}
	}
	if n := rec.pullUps.Load(); n != 1 {
		t.Fatalf("pull ups got %d, want 1", n)
	}
	for range 3 {
		d.PullUp()
	}
	want := []warp.Value{"a", "b", "c"}
	if diff := cmp.Diff(want, bodies(rec.up)); diff != "" {
		t.Fatalf("bodies mismatch (-want +got):\n%s", diff)
	}
	// One request per pull that left work behind.
	if n := rec.pullUps.Load(); n != 3 {
		t.Fatalf("pull ups got %d, want 3", n)
	}
	if d.Status().Has(warp.StatusFeedingUp) {
		t.Fatalf("status got %v, upstream still armed", d.Status())
	}

	d.PullUp()
	if rec.skips != 1 {
		t.Fatalf("skips got %d, want 1", rec.skips)
	}
}

func TestCommandMessageAddress(t *testing.T) {
	d, rec := openLink(warp.Config{Queue: warp.NewCommandQueue(8)})
	if err := d.Command("on"); err != nil {
		t.Fatal(err)
	}
	d.PullUp()
	want := &warp.CommandMessage{
		Address: warp.Address{Node: testID.Node, Lane: testID.Lane},
		Body:    "on",
	}
	if diff := cmp.Diff(want, rec.last()); diff != "" {
		t.Fatalf("command mismatch (-want +got):\n%s", diff)
	}
}

func TestCueCoalesces(t *testing.T) {
	d, rec := openLink(warp.Config{Queue: warp.NewCommandQueue(8)})
	for _, body := range []string{"x", "y", "z"} {
		if err := d.CueCommand(body); err != nil {
			t.Fatalf("CueCommand(%q): %v", body, err)
		}
	}
	if n := rec.pullUps.Load(); n != 1 {
		t.Fatalf("pull ups got %d, want 1", n)
	}
	d.PullUp()
	d.PullUp()
	if diff := cmp.Diff([]warp.Value{"z"}, bodies(rec.up)); diff != "" {
		t.Fatalf("bodies mismatch (-want +got):\n%s", diff)
	}
	if rec.skips != 1 {
		t.Fatalf("skips got %d, want 1", rec.skips)
	}
}

func TestQueuedBeforeCued(t *testing.T) {
	d, rec := openLink(warp.Config{Queue: warp.NewCommandQueue(8)})
	if err := d.CueCommand("cued"); err != nil {
		t.Fatal(err)
	}
	if err := d.Command("queued"); err != nil {
		t.Fatal(err)
	}
	d.PullUp()
	if !d.Status().Has(warp.StatusCuedUp | warp.StatusFeedingUp) {
		t.Fatalf("status got %v, cue lost", d.Status())
	}
	d.PullUp()
	d.PullUp()
	if diff := cmp.Diff([]warp.Value{"queued", "cued"}, bodies(rec.up)); diff != "" {
		t.Fatalf("bodies mismatch (-want +got):\n%s", diff)
	}
	if rec.skips != 1 {
		t.Fatalf("skips got %d, want 1", rec.skips)
	}
}

func TestCueUpWithoutBody(t *testing.T) {
	d, rec := openLink(warp.Config{Queue: warp.NewCommandQueue(8)})
	d.CueUp()
	if !d.Status().Has(warp.StatusCuedUp | warp.StatusFeedingUp) {
		t.Fatalf("status got %v", d.Status())
	}
	d.PullUp()
	if rec.skips != 1 || len(rec.up) != 0 {
		t.Fatalf("got %d skips and %d envelopes, want a skip", rec.skips, len(rec.up))
	}
	if d.Status().Has(warp.StatusCuedUp) {
		t.Fatalf("status got %v, cue not cleared", d.Status())
	}
}

func TestControlBeforeCommands(t *testing.T) {
	d, rec := openLink(warp.Config{Queue: warp.NewCommandQueue(8)})
	if err := d.Command("a"); err != nil {
		t.Fatal(err)
	}
	d.Link()
	d.PullUp()
	d.PullUp()
	if _, ok := rec.up[0].(*warp.LinkRequest); !ok {
		t.Fatalf("first pull got %T, want *warp.LinkRequest", rec.up[0])
	}
	if msg, ok := rec.up[1].(*warp.CommandMessage); !ok || msg.Body != "a" {
		t.Fatalf("second pull got %#v, want command a", rec.up[1])
	}
}

func TestWillObservers(t *testing.T) {
	d, rec := openLink(warp.Config{Queue: warp.NewCommandQueue(8)})
	var calls []string
	d.AddObserver(&warp.Funcs{
		WillLinkFn: func(*warp.LinkRequest) error {
			calls = append(calls, "link")
			return nil
		},
		WillSyncFn: func(*warp.SyncRequest) error {
			calls = append(calls, "sync")
			return nil
		},
		WillUnlinkFn: func(*warp.UnlinkRequest) error {
			calls = append(calls, "unlink")
			return nil
		},
		CommandFn: func(msg *warp.CommandMessage) error {
			calls = append(calls, msg.Body.(string))
			return nil
		},
	})

	d.Link()
	d.PullUp()
	d.PushDown(&warp.LinkedResponse{})
	if err := d.Command("cmd"); err != nil {
		t.Fatal(err)
	}
	d.PullUp()
	d.Unlink()
	d.PullUp()
	d.PushDown(&warp.UnlinkedResponse{})
	d.Sync()
	d.PullUp()

	want := []string{"link", "cmd", "unlink", "sync"}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
	if len(rec.up) != 4 {
		t.Fatalf("pulled %d envelopes, want 4", len(rec.up))
	}
}

func TestWillLinkFaultStillSends(t *testing.T) {
	d, rec := openLink(warp.Config{})
	var fails int
	d.AddObserver(&warp.Funcs{
		WillLinkFn: func(*warp.LinkRequest) error { return errors.New("veto") },
		FailFn:     func(error) { fails++ },
	})
	d.Link()
	d.PullUp()
	if fails != 1 {
		t.Fatalf("DidFail calls got %d, want 1", fails)
	}
	if _, ok := rec.last().(*warp.LinkRequest); !ok {
		t.Fatalf("pulled %T, want *warp.LinkRequest", rec.last())
	}
}

func TestNopQueueRejectsCommands(t *testing.T) {
	d, rec := openLink(warp.Config{})
	if err := d.Command("a"); !errors.Is(err, errors.ErrUnsupported) {
		t.Fatalf("Command got %v, want ErrUnsupported", err)
	}
	if err := d.CueCommand("a"); !errors.Is(err, errors.ErrUnsupported) {
		t.Fatalf("CueCommand got %v, want ErrUnsupported", err)
	}
	if n := rec.pullUps.Load(); n != 0 {
		t.Fatalf("pull ups got %d, want 0", n)
	}
}

// fullQueue is an UpQueue that is always full.
type fullQueue struct{ warp.NopQueue }

func (fullQueue) Enqueue(warp.Value) error { return iox.ErrWouldBlock }

func TestFullQueueWouldBlock(t *testing.T) {
	d, rec := openLink(warp.Config{Queue: fullQueue{}})
	if err := d.Command("a"); !iox.IsWouldBlock(err) {
		t.Fatalf("Command got %v, want ErrWouldBlock", err)
	}
	if d.Status().Has(warp.StatusFeedingUp) || rec.pullUps.Load() != 0 {
		t.Fatalf("rejected command armed the upstream: %v", d.Status())
	}
}

func TestCommandQueueCapacity(t *testing.T) {
	d, _ := openLink(warp.Config{Queue: warp.NewCommandQueue(2)})
	var err error
	n := 0
	for ; n < 64; n++ {
		if err = d.Command(n); err != nil {
			break
		}
	}
	if !iox.IsWouldBlock(err) {
		t.Fatalf("overflow got %v after %d commands, want ErrWouldBlock", err, n)
	}
	if n < 2 {
		t.Fatalf("accepted %d commands, want at least 2", n)
	}
}

// prioQueue orders bodies by descending priority.
type prioQueue struct {
	warp.NopQueue
	bodies []warp.Value
	prios  []float32
}

func (q *prioQueue) IsEmpty() bool { return len(q.bodies) == 0 }

func (q *prioQueue) Enqueue(body warp.Value) error { return q.EnqueuePrio(0, body) }

func (q *prioQueue) EnqueuePrio(prio float32, body warp.Value) error {
	i := 0
	for i < len(q.prios) && q.prios[i] >= prio {
		i++
	}
	q.prios = append(q.prios[:i], append([]float32{prio}, q.prios[i:]...)...)
	q.bodies = append(q.bodies[:i], append([]warp.Value{body}, q.bodies[i:]...)...)
	return nil
}

func (q *prioQueue) Dequeue() (warp.Value, bool) {
	if len(q.bodies) == 0 {
		return nil, false
	}
	body := q.bodies[0]
	q.bodies, q.prios = q.bodies[1:], q.prios[1:]
	return body, true
}

func TestCommandPrio(t *testing.T) {
	d, rec := openLink(warp.Config{Queue: &prioQueue{}})
	if err := d.Command("low"); err != nil {
		t.Fatal(err)
	}
	if err := d.CommandPrio(5, "high"); err != nil {
		t.Fatal(err)
	}
	d.PullUp()
	d.PullUp()
	if diff := cmp.Diff([]warp.Value{"high", "low"}, bodies(rec.up)); diff != "" {
		t.Fatalf("bodies mismatch (-want +got):\n%s", diff)
	}
}

func TestCommandPrioFallsBackToEnqueue(t *testing.T) {
	d, rec := openLink(warp.Config{Queue: warp.NewCommandQueue(4)})
	if err := d.CommandPrio(9, "a"); err != nil {
		t.Fatal(err)
	}
	d.PullUp()
	if diff := cmp.Diff([]warp.Value{"a"}, bodies(rec.up)); diff != "" {
		t.Fatalf("bodies mismatch (-want +got):\n%s", diff)
	}
}

func TestCommandsAfterClose(t *testing.T) {
	d, _ := openLink(warp.Config{Queue: warp.NewCommandQueue(4)})
	d.CloseDown()
	for name, err := range map[string]error{
		"Command":     d.Command("a"),
		"CommandPrio": d.CommandPrio(1, "a"),
		"CueCommand":  d.CueCommand("a"),
		"PushUp":      d.PushUp("a"),
	} {
		if !errors.Is(err, warp.ErrClosed) {
			t.Fatalf("%s got %v, want ErrClosed", name, err)
		}
	}
}
