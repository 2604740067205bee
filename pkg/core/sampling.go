package core

import (
	"math/rand"
)

// Sampler is the uniform random source used by materials, the camera lens and
// pixel jitter. It can be swapped out for deterministic testing.
type Sampler interface {
	// Uniform returns a value in the half-open range [min, max)
	Uniform(min, max float64) float64
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// NewSeededSampler creates a sampler with its own generator seeded by seed
func NewSeededSampler(seed int64) *RandomSampler {
	return NewRandomSampler(rand.New(rand.NewSource(seed)))
}

// Uniform returns a random float64 in [min, max)
func (r *RandomSampler) Uniform(min, max float64) float64 {
	return min + (max-min)*r.random.Float64()
}

// RandomVec3 returns a vector with each component uniform in [min, max)
func RandomVec3(sampler Sampler, min, max float64) Vec3 {
	return NewVec3(
		sampler.Uniform(min, max),
		sampler.Uniform(min, max),
		sampler.Uniform(min, max),
	)
}

// RandomInUnitSphere rejection-samples a point strictly inside the unit ball
func RandomInUnitSphere(sampler Sampler) Vec3 {
	for {
		p := RandomVec3(sampler, -1, 1)
		if p.LengthSquared() < 1 {
			return p
		}
	}
}

// RandomUnitVector returns a random direction on the unit sphere.
// It fails only when the rejection sample lands exactly on the origin.
func RandomUnitVector(sampler Sampler) (Vec3, bool) {
	return RandomInUnitSphere(sampler).Unit()
}

// RandomInUnitDisk rejection-samples a point inside the unit disk at z = 0 (for depth of field)
func RandomInUnitDisk(sampler Sampler) Vec3 {
	for {
		p := NewVec3(sampler.Uniform(-1, 1), sampler.Uniform(-1, 1), 0)
		if p.LengthSquared() < 1 {
			return p
		}
	}
}
