package game

import "math"

// Body is a circle integrated with Verlet steps. Velocity is never stored:
// it is always Pos - PrevPos, so corrections that move PrevPos change the
// velocity used by the next Integrate.
type Body struct {
	Pos     Vector
	PrevPos Vector
	Acc     Vector

	Radius float64
	Mass   float64

	// Moved is the displacement consumed by RefreshVelocity in the current
	// tick. Step zeroes it for hands that got no tracked point.
	Moved Vector
}

type Bounds struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// NewBody creates a body at rest whose mass equals its radius.
func NewBody(pos, acc Vector, radius float64) *Body {
	return NewBodyWithMass(pos, acc, radius, radius)
}

func NewBodyWithMass(pos, acc Vector, radius, mass float64) *Body {
	return &Body{
		Pos:     pos,
		PrevPos: pos,
		Acc:     acc,
		Radius:  radius,
		Mass:    mass,
	}
}

func (b *Body) Velocity() Vector {
	return b.Pos.Sub(b.PrevPos)
}

// Integrate advances one tick: pos += (pos - prev) + acc.
func (b *Body) Integrate() {
	vel := b.Velocity()
	b.PrevPos = b.Pos
	b.Pos = b.Pos.Add(vel.Add(b.Acc))
}

// RefreshVelocity is for bodies whose Pos is set from outside each tick.
// It records the position delta in Moved and rebases PrevPos without
// applying acceleration.
func (b *Body) RefreshVelocity() {
	b.Moved = b.Velocity()
	b.PrevPos = b.Pos
}

// SetSpeed rescales the implicit velocity to speed, keeping its heading.
// A body at rest has no heading and is left alone.
func (b *Body) SetSpeed(speed float64) {
	vel := b.Velocity()
	if vel.X == 0 && vel.Y == 0 {
		return
	}
	b.PrevPos = b.Pos.Sub(vel.WithLength(speed))
}

// ResolveBoundary clamps the body inside r and reflects the velocity on
// every crossed axis, scaled by damping.
func (b *Body) ResolveBoundary(damping float64, r Bounds) {
	vx := (b.Pos.X - b.PrevPos.X) * damping
	vy := (b.Pos.Y - b.PrevPos.Y) * damping

	if b.Pos.X-b.Radius < r.MinX {
		b.Pos.X = r.MinX + b.Radius
		b.PrevPos.X = b.Pos.X + vx
	}
	if b.Pos.X+b.Radius > r.MaxX {
		b.Pos.X = r.MaxX - b.Radius
		b.PrevPos.X = b.Pos.X + vx
	}
	if b.Pos.Y-b.Radius < r.MinY {
		b.Pos.Y = r.MinY + b.Radius
		b.PrevPos.Y = b.Pos.Y + vy
	}
	if b.Pos.Y+b.Radius > r.MaxY {
		b.Pos.Y = r.MaxY - b.Radius
		b.PrevPos.Y = b.Pos.Y + vy
	}
}

func (b *Body) ResolveBoundaryDefault(damping, maxX, maxY float64) {
	b.ResolveBoundary(damping, Bounds{MaxX: maxX, MaxY: maxY})
}

// separation returns the vector from b to o with length equal to their
// penetration depth, or false when they do not overlap.
func (b *Body) separation(o *Body) (Vector, bool) {
	distSq := o.Pos.DistanceSq(b.Pos)
	rad := o.Radius + b.Radius
	if distSq >= rad*rad {
		return Vector{}, false
	}
	d := o.Pos.Sub(b.Pos)
	if distSq == 0 {
		// coincident centers have no direction; push along +X
		distSq = 1
		d = Vector{X: 1}
	}
	return d.WithLength(rad - math.Sqrt(distSq)), true
}

// ResolveCollisionInto pushes o out of b. Only o moves.
func (b *Body) ResolveCollisionInto(o *Body) {
	d, ok := b.separation(o)
	if !ok {
		return
	}
	o.Pos = o.Pos.Add(d.Scale(b.Mass / (b.Mass + o.Mass)))
}

// ResolveCollisions separates b from every other overlapping body in
// bodies. Both sides move, weighted by the other's share of the mass, so
// the pair's center of mass stays put.
func (b *Body) ResolveCollisions(bodies []*Body) {
	for _, o := range bodies {
		if o == b {
			continue
		}
		d, ok := b.separation(o)
		if !ok {
			continue
		}
		total := b.Mass + o.Mass
		o.Pos = o.Pos.Add(d.Scale(b.Mass / total))
		b.Pos = b.Pos.Sub(d.Scale(o.Mass / total))
	}
}

func (b *Body) Contains(p Vector) bool {
	return b.Pos.Distance(p) <= b.Radius
}
