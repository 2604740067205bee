package renderer

import (
	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/geometry"
	"github.com/df07/go-weekend-raytracer/pkg/material"
)

// fixedSampler always returns the same fraction of the requested range
type fixedSampler struct {
	fraction float64
}

func (f fixedSampler) Uniform(min, max float64) float64 {
	return min + (max-min)*f.fraction
}

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

// recordingLogger captures formatted log lines
type recordingLogger struct {
	lines []string
}

func (r *recordingLogger) Printf(format string, args ...interface{}) {
	r.lines = append(r.lines, format)
}

func pinholeConfig(width int, aspectRatio float64, samples int) CameraConfig {
	return CameraConfig{
		LookFrom:        core.NewVec3(0, 0, 0),
		LookAt:          core.NewVec3(0, 0, -1),
		Up:              core.NewVec3(0, 1, 0),
		Width:           width,
		AspectRatio:     aspectRatio,
		VFov:            90,
		FocusDistance:   1,
		SamplesPerPixel: samples,
	}
}

var testAlbedo = core.NewVec3(0.1, 0.2, 0.5)

func singleSphereWorld() *geometry.HittableList {
	return geometry.NewHittableList(
		geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, material.NewLambertian(testAlbedo)),
	)
}

func threeSphereWorld() *geometry.HittableList {
	return geometry.NewHittableList(
		geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, material.NewLambertian(core.NewVec3(0.8, 0.8, 0))),
		geometry.NewSphere(core.NewVec3(0, 0, -1.2), 0.5, material.NewLambertian(core.NewVec3(0.1, 0.2, 0.5))),
		geometry.NewSphere(core.NewVec3(-1, 0, -1), 0.5, material.NewDielectric(1.5)),
		geometry.NewSphere(core.NewVec3(1, 0, -1), 0.5, material.NewMetal(core.NewVec3(0.8, 0.6, 0.2), 0.3)),
	)
}
