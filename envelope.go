// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package warp

// Value is a structured envelope body. Its encoding belongs to the codec
// layer; the engine only carries it.
type Value = any

// Address names the remote lane an envelope is routed to.
type Address struct {
	Node string
	Lane string
}

// Identity is the immutable description of a downlink, fixed at New.
type Identity struct {
	Mesh string
	Host string
	Node string
	Lane string
	Prio float32
	Rate float32
	Body Value
}

// Address returns the node/lane pair carried by every envelope.
func (id Identity) Address() Address {
	return Address{Node: id.Node, Lane: id.Lane}
}

// Kind discriminates the closed set of envelopes.
type Kind uint8

const (
	KindEvent Kind = iota + 1
	KindCommand
	KindLinkRequest
	KindLinkedResponse
	KindSyncRequest
	KindSyncedResponse
	KindUnlinkRequest
	KindUnlinkedResponse
)

func (k Kind) String() string {
	switch k {
	case KindEvent:
		return "event"
	case KindCommand:
		return "command"
	case KindLinkRequest:
		return "link"
	case KindLinkedResponse:
		return "linked"
	case KindSyncRequest:
		return "sync"
	case KindSyncedResponse:
		return "synced"
	case KindUnlinkRequest:
		return "unlink"
	case KindUnlinkedResponse:
		return "unlinked"
	}
	return "unknown"
}

// Envelope is a protocol message unit. The set of implementations is
// closed: only the types in this file satisfy it.
type Envelope interface {
	Kind() Kind
	Addr() Address
	envelope()
}

// Addr returns the receiver; it lets every envelope expose its address
// through the embedded field.
func (a Address) Addr() Address { return a }

func (Address) envelope() {}

// EventMessage is a data envelope delivered down from the lane.
type EventMessage struct {
	Address
	Body Value
}

// CommandMessage is a data envelope sent up to the lane.
type CommandMessage struct {
	Address
	Body Value
}

// LinkRequest asks the lane to start streaming events.
type LinkRequest struct {
	Address
	Prio float32
	Rate float32
	Body Value
}

// LinkedResponse acknowledges a LinkRequest or SyncRequest.
type LinkedResponse struct {
	Address
	Prio float32
	Rate float32
	Body Value
}

// SyncRequest asks the lane to link and replay its current state.
type SyncRequest struct {
	Address
	Prio float32
	Rate float32
	Body Value
}

// SyncedResponse marks the end of the state replay that follows a sync.
type SyncedResponse struct {
	Address
	Body Value
}

// UnlinkRequest asks the lane to stop streaming.
type UnlinkRequest struct {
	Address
	Body Value
}

// UnlinkedResponse acknowledges an UnlinkRequest, or reports that the lane
// dropped the link on its own.
type UnlinkedResponse struct {
	Address
	Body Value
}

func (*EventMessage) Kind() Kind     { return KindEvent }
func (*CommandMessage) Kind() Kind   { return KindCommand }
func (*LinkRequest) Kind() Kind      { return KindLinkRequest }
func (*LinkedResponse) Kind() Kind   { return KindLinkedResponse }
func (*SyncRequest) Kind() Kind      { return KindSyncRequest }
func (*SyncedResponse) Kind() Kind   { return KindSyncedResponse }
func (*UnlinkRequest) Kind() Kind    { return KindUnlinkRequest }
func (*UnlinkedResponse) Kind() Kind { return KindUnlinkedResponse }
