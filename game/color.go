package game

import "image/color"

// ColorFor maps an integer to a display color. Bits 16-23 and 8-15 are
// shifted down by 4 and 2 before truncating to a byte.
func ColorFor(v int) color.RGBA {
	return color.RGBA{
		R: byte((v & 0xFF0000) >> 4),
		G: byte((v & 0x00FF00) >> 2),
		B: byte(v & 0x0000FF),
		A: 0xFF,
	}
}

func BodyColor(b *Body) color.RGBA {
	return ColorFor(int(b.Pos.X + b.Pos.Y))
}
