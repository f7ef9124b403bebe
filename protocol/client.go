package protocol

// messages coming in from the tracker / viewer client.

type Hello struct {
	V    int    `json:"v"`              // version
	Name string `json:"name,omitempty"` // optional name
}

// Frame carries every joint the tracker resolved for one camera frame,
// already mapped into screen pixels.
type Frame struct {
	Points []Point `json:"points"`
}

type Point struct {
	Joint string  `json:"joint"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

type Probe struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
