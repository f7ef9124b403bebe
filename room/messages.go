package room

import (
	"ballpit/game"
	"ballpit/protocol"
)

type Conn interface {
	Send([]byte) error
	Close() error
}

// Join: issued once after hello parsed
type Join struct {
	Conn  Conn
	Name  string
	Reply chan<- JoinResult
}

type JoinResult struct {
	ClientID string
	Bounds   game.Bounds
}

// Frame: one tracker frame, drives exactly one simulation tick
type Frame struct {
	ClientID string
	Input    game.Input
}

// Probe: hit-test against the current state
type Probe struct {
	Point game.Vector
	Reply chan<- protocol.ProbeResult
}

// Leave: issued on disconnect
type Leave struct {
	ClientID string
}

// FrameInput converts a wire frame into simulation input.
func FrameInput(f protocol.Frame) game.Input {
	in := game.Input{Points: make([]game.TrackedPoint, 0, len(f.Points))}
	for _, p := range f.Points {
		in.Points = append(in.Points, game.TrackedPoint{
			Joint: p.Joint,
			Pos:   game.Vector{X: p.X, Y: p.Y},
		})
	}
	return in
}
