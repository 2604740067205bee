package scene

import (
	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/material"
	"github.com/df07/go-weekend-raytracer/pkg/renderer"
)

// NewRandomSpheresScene creates the field of small random spheres around
// three large ones: glass, diffuse brown and polished metal. Sphere
// placement and materials are drawn from sampler.
func NewRandomSpheresScene(sampler core.Sampler, cameraOverrides ...renderer.CameraConfig) *Scene {
	defaultCameraConfig := renderer.CameraConfig{
		LookFrom:        core.NewVec3(13, 2, 3),
		LookAt:          core.NewVec3(0, 0, 0),
		Up:              core.NewVec3(0, 1, 0),
		Width:           720,
		AspectRatio:     16.0 / 9.0,
		VFov:            20.0,
		FocusDistance:   10.0,
		DefocusAngle:    0.6,
		SamplesPerPixel: 500,
	}

	s := New("random-spheres", applyOverrides(defaultCameraConfig, cameraOverrides))

	// Keep the small spheres clear of the big metal one
	clearing := core.NewVec3(4, 0.2, 0)
	for a := -11; a < 11; a++ {
		for b := -11; b < 11; b++ {
			chooseMat := sampler.Uniform(0, 1)
			center := core.NewVec3(
				float64(a)+0.9*sampler.Uniform(0, 1),
				0.2,
				float64(b)+0.9*sampler.Uniform(0, 1),
			)
			if center.Subtract(clearing).Length() <= 0.9 {
				continue
			}

			switch {
			case chooseMat < 0.8:
				albedo := core.RandomVec3(sampler, 0, 1).MultiplyVec(core.RandomVec3(sampler, 0, 1))
				s.AddSphere(center, 0.2, material.NewLambertian(albedo))
			case chooseMat < 0.95:
				albedo := core.RandomVec3(sampler, 0, 1)
				fuzz := sampler.Uniform(0, 0.5)
				s.AddSphere(center, 0.2, material.NewMetal(albedo, fuzz))
			default:
				s.AddSphere(center, 0.2, material.NewDielectric(1.5))
			}
		}
	}

	s.AddSphere(core.NewVec3(0, -1000, -1), 1000, material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5)))
	s.AddSphere(core.NewVec3(-4, 1, 0), 1, material.NewLambertian(core.NewVec3(0.4, 0.2, 0.1)))
	s.AddSphere(core.NewVec3(0, 1, 0), 1, material.NewDielectric(1.5))
	s.AddSphere(core.NewVec3(4, 1, 0), 1, material.NewMetal(core.NewVec3(0.7, 0.6, 0.5), 0.0))

	return s
}
