package domain

// Point is a canvas coordinate normalized to [0,1]x[0,1].
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one drawing action. The id is client-generated and unique per
// room; updates address strokes by it.
type Stroke struct {
	ID        string  `json:"id"`
	Color     string  `json:"color,omitempty"`
	FillColor string  `json:"fillColor,omitempty"`
	Size      float64 `json:"size,omitempty"`
	Mode      string  `json:"mode,omitempty"` // stroke, fill or both
	Points    []Point `json:"points"`
}
