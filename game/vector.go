package game

import (
	"fmt"
	"math"
)

type Vector struct {
	X, Y float64
}

func (v Vector) String() string {
	return fmt.Sprintf("%f,%f", v.X, v.Y)
}

func (v Vector) Distance(o Vector) float64 {
	return math.Sqrt(v.DistanceSq(o))
}

// DistanceSq skips the square root; collision checks compare it against r².
func (v Vector) DistanceSq(o Vector) float64 {
	dx := v.X - o.X
	dy := v.Y - o.Y
	return dx*dx + dy*dy
}

func (v Vector) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// WithLength returns v rescaled to length l, keeping its direction.
// v must have non-zero length; a zero vector yields NaN components.
func (v Vector) WithLength(l float64) Vector {
	cur := v.Length()
	return Vector{v.X / cur * l, v.Y / cur * l}
}

func (v Vector) Add(o Vector) Vector {
	return Vector{v.X + o.X, v.Y + o.Y}
}

func (v Vector) Sub(o Vector) Vector {
	return Vector{v.X - o.X, v.Y - o.Y}
}

// Mul multiplies component-wise.
func (v Vector) Mul(o Vector) Vector {
	return Vector{v.X * o.X, v.Y * o.Y}
}

func (v Vector) Scale(s float64) Vector {
	return Vector{v.X * s, v.Y * s}
}

// Div divides component-wise.
func (v Vector) Div(o Vector) Vector {
	return Vector{v.X / o.X, v.Y / o.Y}
}

func (v Vector) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
