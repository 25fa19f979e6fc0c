package geometry

import (
	"encoding/json"
	"strconv"
)

// formatCoord writes the shortest decimal that parses back to v.
func formatCoord(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func (b Box) MarshalJSON() ([]byte, error) {
	c := b.Centroid()
	return []byte(`{"x":` + formatCoord(b.X) +
		`,"y":` + formatCoord(b.Y) +
		`,"w":` + formatCoord(b.W) +
		`,"h":` + formatCoord(b.H) +
		`,"centroid":{"x":` + formatCoord(c.X) + `,"y":` + formatCoord(c.Y) + `}}`), nil
}

// UnmarshalJSON accepts the MarshalJSON shape; the centroid is recomputed, never read.
func (b *Box) UnmarshalJSON(data []byte) error {
	var raw struct{ X, Y, W, H float64 }
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = Box{X: raw.X, Y: raw.Y, W: raw.W, H: raw.H}
	return nil
}
