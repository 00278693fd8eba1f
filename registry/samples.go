package registry

import (
	"encoding/json"

	"github.com/andishehs/MetaGen/core"
)

// Samples returns the orchestras a fresh registry is seeded with.
func Samples() []core.Orchestra {
	return []core.Orchestra{
		{
			Name:        "Symphony of Stars",
			Description: "An orchestra that performs celestial-themed music.",
			Date:        "2024-01-15",
			Definition:  json.RawMessage(`{"type":"celestial","theme":"stars"}`),
		},
		{
			Name:        "Harmonic Horizons",
			Description: "A group focused on blending classical and modern styles.",
			Date:        "2024-02-20",
			Definition:  json.RawMessage(`{"type":"blend","theme":"horizons"}`),
		},
		{
			Name:        "Melody Makers",
			Description: "A family-friendly orchestra with lighthearted performances.",
			Date:        "2024-03-10",
			Definition:  json.RawMessage(`{"type":"family","theme":"melody"}`),
		},
	}
}
