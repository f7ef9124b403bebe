package protocol

import (
	"encoding/json"
)

const (
	MsgHello       = "hello"
	MsgFrame       = "frame"
	MsgProbe       = "probe"
	MsgWelcome     = "welcome"
	MsgState       = "state"
	MsgProbeResult = "probe_result"
	MsgError       = "error"
)

const (
	Version        = 1
	BroadcastHz    = 20
	FrameInboxSize = 256 // frames beyond this are dropped, not queued
)

type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p"` // raw payload bytes
}
