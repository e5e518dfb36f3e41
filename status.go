// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package warp

import (
	"strings"

	"code.hybscloud.com/atomix"
)

// Status is the packed state of a downlink: lifecycle bits in the low
// byte, flow-control bits above them.
type Status uint32

const (
	StatusOpened Status = 1 << iota
	StatusLinked
	StatusLink
	StatusLinking
	StatusSync
	StatusSyncing
	StatusUnlink
	StatusUnlinking
	StatusFeedingDown
	StatusPullingDown
	StatusCuedUp
	StatusFeedingUp
)

// Bit groups cleared together by remote acks and transport events.
const (
	linkBits       = StatusSyncing | StatusSync | StatusLinking | StatusLink | StatusLinked
	protocolBits   = StatusUnlinking | StatusUnlink | linkBits
	didUnlinkMask  = StatusPullingDown | protocolBits
	disconnectMask = StatusFeedingUp | protocolBits
)

var statusNames = [...]string{
	"opened", "linked", "link", "linking", "sync", "syncing",
	"unlink", "unlinking", "feeding-down", "pulling-down", "cued-up", "feeding-up",
}

// Has reports whether every bit of bits is set.
func (s Status) Has(bits Status) bool {
	return s&bits == bits
}

func (s Status) String() string {
	if s == 0 {
		return "closed"
	}
	var b strings.Builder
	for i, name := range statusNames {
		if s&(1<<i) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('|')
		}
		b.WriteString(name)
	}
	return b.String()
}

// statusWord is the single shared mutable word of a downlink.
// All writers go through update, except teardown which stores zero.
type statusWord struct {
	v atomix.Uint32
}

func (w *statusWord) load() Status {
	return Status(w.v.Load())
}

// update applies next atomically and returns the pair from the attempt that
// took effect. When next leaves the word unchanged no store happens and
// before == after. Callers decide side effects from this pair only.
func (w *statusWord) update(next func(Status) Status) (before, after Status) {
	for {
		before = Status(w.v.Load())
		after = next(before)
		if after == before || w.v.CompareAndSwap(uint32(before), uint32(after)) {
			return before, after
		}
	}
}

func (w *statusWord) store(s Status) {
	w.v.Store(uint32(s))
}
