package socket

import "errors"

var (
	ErrNotConnected  = errors.New("transport is not connected")
	ErrBusy          = errors.New("transport is already connecting or connected")
	ErrReentrant     = errors.New("transport update already running")
	ErrZeroRead      = errors.New("socket read returned no data")
	ErrSendQueueFull = errors.New("send queue full")
	ErrStreamCorrupt = errors.New("inbound stream corrupt")
	ErrUnknownDialer = errors.New("unknown proxy type")
)

type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	}
	return "disconnected"
}

// Reason says why a transport left the Connected state.
type Reason uint8

const (
	ReasonLocal Reason = iota
	ReasonConnectFailed
	ReasonRemoteClosed
	ReasonSocketError
	ReasonStreamCorrupt
	ReasonRelay
)

var reasonNames = [...]string{"local", "connect_failed", "remote_closed", "socket_error", "stream_corrupt", "relay"}

func (r Reason) String() string {
	if int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return "unknown"
}
