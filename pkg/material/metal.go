package material

import (
	"github.com/df07/go-weekend-raytracer/pkg/core"
)

// NewMetal creates a new metal material. Fuzz is expected in [0, 1] but is
// not clamped.
func NewMetal(albedo core.Vec3, fuzz float64) Material {
	return Material{Kind: KindMetal, Albedo: albedo, Fuzz: fuzz}
}

func (m Material) scatterMetal(rayIn core.Ray, hit HitRecord, sampler core.Sampler) (ScatterResult, bool) {
	unitDirection, ok := rayIn.Direction.Unit()
	if !ok {
		return ScatterResult{}, false
	}
	reflected := core.Reflect(unitDirection, hit.Normal)

	perturbation, ok := core.RandomUnitVector(sampler)
	if !ok {
		return ScatterResult{}, false
	}
	reflected = reflected.Add(perturbation.Multiply(m.Fuzz))

	return ScatterResult{
		Scattered:   core.NewRay(hit.Point, reflected),
		Attenuation: m.Albedo,
	}, true
}
