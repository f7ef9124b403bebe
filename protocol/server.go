package protocol

type Welcome struct {
	ClientID string `json:"clientId"`
	Room     string `json:"room,omitempty"`
	Bounds   Bounds `json:"bounds"`
}

type Bounds struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

type State struct {
	Tick  int            `json:"tick"`
	Balls []BallSnapshot `json:"balls"`
	Hands []HandSnapshot `json:"hands,omitempty"`
}

type BallSnapshot struct {
	ID    int     `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	R     float64 `json:"r"`
	Color string  `json:"color"` // #rrggbb
}

type HandSnapshot struct {
	Side string  `json:"side"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	R    float64 `json:"r"`
	VX   float64 `json:"vx,omitempty"`
	VY   float64 `json:"vy,omitempty"`
}

type ProbeResult struct {
	Balls []int    `json:"balls"`
	Hands []string `json:"hands,omitempty"`
}

type Error struct {
	Message string `json:"message"`
}
