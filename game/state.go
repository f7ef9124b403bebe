package game

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Internal truth authoritative simulation state

type State struct {
	Tick   int
	Config Config
	Balls  []*Body

	// nil until the first valid tracked point for that side arrives
	LeftHand  *Body
	RightHand *Body
}

type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

type Config struct {
	BallCount   int
	BallRadius  float64
	Gravity     Vector
	Bounds      Bounds
	WallDamping float64
	HandRadius  float64
	HandMass    float64
	MaxSpeed    float64 // 0 leaves balls uncapped
	LeftJoint   string
	RightJoint  string
}

func DefaultConfig() Config {
	return Config{
		BallCount:   BallCount,
		BallRadius:  BallRadius,
		Gravity:     Vector{0, GravityY},
		WallDamping: WallDamping,
		HandRadius:  HandRadius,
		HandMass:    HandMass,
		LeftJoint:   LeftHandJoint,
		RightJoint:  RightHandJoint,
		Bounds: Bounds{
			MinX: BallRadius * BallSideMargin,
			MinY: 0,
			MaxX: FrameWidth - BallRadius*BallSideMargin,
			MaxY: FrameHeight - BallRadius*BallFloorGap,
		},
	}
}

func (c Config) Validate() error {
	values := []struct {
		name string
		v    float64
	}{
		{"ball radius", c.BallRadius},
		{"gravity x", c.Gravity.X},
		{"gravity y", c.Gravity.Y},
		{"bounds min x", c.Bounds.MinX},
		{"bounds min y", c.Bounds.MinY},
		{"bounds max x", c.Bounds.MaxX},
		{"bounds max y", c.Bounds.MaxY},
		{"wall damping", c.WallDamping},
		{"hand radius", c.HandRadius},
		{"hand mass", c.HandMass},
		{"max speed", c.MaxSpeed},
	}
	// NaN fails every ordered comparison below, so reject it up front
	for _, f := range values {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%s must be finite, got %f", f.name, f.v)
		}
	}
	if c.BallCount < 0 {
		return fmt.Errorf("ball count must not be negative, got %d", c.BallCount)
	}
	if c.BallRadius <= 0 {
		return fmt.Errorf("ball radius must be positive, got %f", c.BallRadius)
	}
	if c.HandRadius <= 0 || c.HandMass <= 0 {
		return fmt.Errorf("hand radius and mass must be positive, got %f and %f", c.HandRadius, c.HandMass)
	}
	if c.Bounds.MaxX <= c.Bounds.MinX || c.Bounds.MaxY <= c.Bounds.MinY {
		return fmt.Errorf("empty bounds %+v", c.Bounds)
	}
	if c.WallDamping < 0 || c.WallDamping > 1 {
		return fmt.Errorf("wall damping must be within [0,1], got %f", c.WallDamping)
	}
	if c.MaxSpeed < 0 {
		return fmt.Errorf("max speed must not be negative, got %f", c.MaxSpeed)
	}
	if c.LeftJoint == "" || c.RightJoint == "" || c.LeftJoint == c.RightJoint {
		return fmt.Errorf("hand joints must be distinct and non-empty, got %q and %q", c.LeftJoint, c.RightJoint)
	}
	return nil
}

// NewState drops BallCount balls at random x positions along the top bound.
func NewState(cfg Config, rng *rand.Rand) *State {
	s := &State{
		Config: cfg,
		Balls:  make([]*Body, 0, cfg.BallCount),
	}
	span := int(cfg.Bounds.MaxX - cfg.Bounds.MinX)
	for i := 0; i < cfg.BallCount; i++ {
		x := cfg.Bounds.MinX
		if span > 0 {
			x += float64(rng.IntN(span))
		}
		pos := Vector{x, cfg.Bounds.MinY}
		s.Balls = append(s.Balls, NewBody(pos, cfg.Gravity, cfg.BallRadius))
	}
	return s
}

func (s *State) Hand(side Side) *Body {
	switch side {
	case Left:
		return s.LeftHand
	case Right:
		return s.RightHand
	}
	return nil
}

// BallsAt returns the indices of balls covering p.
func (s *State) BallsAt(p Vector) []int {
	var out []int
	for i, b := range s.Balls {
		if b.Contains(p) {
			out = append(out, i)
		}
	}
	return out
}

func (s *State) HandsAt(p Vector) []Side {
	var out []Side
	for _, side := range []Side{Left, Right} {
		if h := s.Hand(side); h != nil && h.Contains(p) {
			out = append(out, side)
		}
	}
	return out
}
