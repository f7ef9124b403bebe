package game

import "math"

// Input is everything the tracker reported for one frame.
type Input struct {
	Points []TrackedPoint
}

type TrackedPoint struct {
	Joint string
	Pos   Vector
}

func Step(s *State, in Input) {
	s.Tick++
	cfg := s.Config

	for _, b := range s.Balls {
		b.ResolveBoundary(cfg.WallDamping, cfg.Bounds)
		b.Integrate()
		if cfg.MaxSpeed > 0 && b.Velocity().Length() > cfg.MaxSpeed {
			b.SetSpeed(cfg.MaxSpeed)
		}
	}

	for _, b := range s.Balls {
		if s.LeftHand != nil {
			s.LeftHand.ResolveCollisionInto(b)
		}
		if s.RightHand != nil {
			s.RightHand.ResolveCollisionInto(b)
		}
		b.ResolveCollisions(s.Balls)
	}

	// Moved only reports motion seen in this frame
	for _, h := range []*Body{s.LeftHand, s.RightHand} {
		if h != nil {
			h.Moved = Vector{}
		}
	}
	for _, p := range in.Points {
		if !p.Pos.IsFinite() {
			continue
		}
		switch p.Joint {
		case cfg.LeftJoint:
			s.LeftHand = moveHand(s.LeftHand, p.Pos, cfg)
		case cfg.RightJoint:
			s.RightHand = moveHand(s.RightHand, p.Pos, cfg)
		}
	}
}

// moveHand creates the hand on first sighting, otherwise snaps it to pos.
// Tracked points land on whole pixels.
func moveHand(h *Body, pos Vector, cfg Config) *Body {
	pos = Vector{math.Trunc(pos.X), math.Trunc(pos.Y)}
	if h == nil {
		return NewBodyWithMass(pos, Vector{}, cfg.HandRadius, cfg.HandMass)
	}
	h.Pos = pos
	h.RefreshVelocity()
	return h
}
