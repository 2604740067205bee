package material

import (
	"testing"

	"github.com/df07/go-weekend-raytracer/pkg/core"
)

// scriptedSampler replays fixed unit draws, scaled into the requested range
type scriptedSampler struct {
	values []float64
	next   int
}

func (s *scriptedSampler) Uniform(min, max float64) float64 {
	v := s.values[s.next%len(s.values)]
	s.next++
	return min + (max-min)*v
}

// forbiddenSampler fails the test if any randomness is consumed
type forbiddenSampler struct {
	t *testing.T
}

func (f forbiddenSampler) Uniform(min, max float64) float64 {
	f.t.Helper()
	f.t.Fatalf("Unexpected random draw in [%g, %g)", min, max)
	return 0
}

func vecClose(a, b core.Vec3, tolerance float64) bool {
	return a.Subtract(b).Length() <= tolerance
}
