package loaders

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/material"
	"github.com/df07/go-weekend-raytracer/pkg/renderer"
	"github.com/df07/go-weekend-raytracer/pkg/scene"
	"golang.org/x/xerrors"
	"sigs.k8s.io/yaml"
)

var (
	// ErrInvalidScene is wrapped by every error describing a malformed scene file
	ErrInvalidScene = xerrors.New("invalid scene file")
)

// Vec3 is a vector written as a three element list, e.g. [0.5, 0.7, 1.0]
type Vec3 [3]float64

// UnmarshalJSON rejects lists that do not have exactly three components
func (v *Vec3) UnmarshalJSON(data []byte) error {
	var components []float64
	if err := json.Unmarshal(data, &components); err != nil {
		return err
	}
	if len(components) != len(v) {
		return xerrors.Errorf("vector %s must have %d components, got %d", data, len(v), len(components))
	}
	copy(v[:], components)
	return nil
}

func (v Vec3) toCore() core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}

// SceneFile is the on-disk description of a scene
type SceneFile struct {
	Camera    CameraSpec              `json:"camera"`
	Materials map[string]MaterialSpec `json:"materials"`
	Spheres   []SphereSpec            `json:"spheres"`
}

// CameraSpec mirrors renderer.CameraConfig with list-valued vectors.
// Omitted fields keep the defaults of DefaultCameraConfig.
type CameraSpec struct {
	LookFrom        *Vec3   `json:"lookFrom,omitempty"`
	LookAt          *Vec3   `json:"lookAt,omitempty"`
	Up              *Vec3   `json:"up,omitempty"`
	Width           int     `json:"width,omitempty"`
	AspectRatio     float64 `json:"aspectRatio,omitempty"`
	VFov            float64 `json:"vfov,omitempty"`
	FocusDistance   float64 `json:"focusDistance,omitempty"`
	DefocusAngle    float64 `json:"defocusAngle,omitempty"`
	SamplesPerPixel int     `json:"samplesPerPixel,omitempty"`
}

// MaterialSpec describes one named material
type MaterialSpec struct {
	Type            string  `json:"type"` // lambertian, metal or dielectric
	Albedo          *Vec3   `json:"albedo,omitempty"`
	Fuzz            float64 `json:"fuzz,omitempty"`
	RefractiveIndex float64 `json:"refractiveIndex,omitempty"`
}

// SphereSpec places a sphere with a named material
type SphereSpec struct {
	Center   Vec3    `json:"center"`
	Radius   float64 `json:"radius"`
	Material string  `json:"material"`
}

// DefaultCameraConfig frames a scene file that does not override the camera
func DefaultCameraConfig() renderer.CameraConfig {
	return renderer.CameraConfig{
		LookFrom:        core.NewVec3(0, 0, 0),
		LookAt:          core.NewVec3(0, 0, -1),
		Up:              core.NewVec3(0, 1, 0),
		Width:           400,
		AspectRatio:     16.0 / 9.0,
		VFov:            90.0,
		SamplesPerPixel: 100,
	}
}

// LoadScene reads and parses a YAML scene file
func LoadScene(filename string) (*scene.Scene, error) {
	if err := validateFilePath(filename); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, xerrors.Errorf("while reading scene file: %w", err)
	}

	base := filepath.Base(filename)
	return ParseScene(data, strings.TrimSuffix(base, filepath.Ext(base)))
}

// ParseScene builds a scene from a YAML document
func ParseScene(data []byte, name string) (*scene.Scene, error) {
	var file SceneFile
	if err := yaml.UnmarshalStrict(data, &file); err != nil {
		return nil, xerrors.Errorf("while decoding scene %q: %v: %w", name, err, ErrInvalidScene)
	}

	materials := make(map[string]material.Material, len(file.Materials))
	for matName, spec := range file.Materials {
		mat, err := spec.build()
		if err != nil {
			return nil, xerrors.Errorf("while building material %q: %w", matName, err)
		}
		materials[matName] = mat
	}

	s := scene.New(name, file.Camera.merge(DefaultCameraConfig()))
	for n, sphere := range file.Spheres {
		mat, ok := materials[sphere.Material]
		if !ok {
			return nil, xerrors.Errorf("sphere %d references unknown material %q: %w", n, sphere.Material, ErrInvalidScene)
		}
		if sphere.Radius == 0 {
			return nil, xerrors.Errorf("sphere %d has zero radius: %w", n, ErrInvalidScene)
		}
		s.AddSphere(sphere.Center.toCore(), sphere.Radius, mat)
	}

	return s, nil
}

func (spec MaterialSpec) build() (material.Material, error) {
	albedo := core.NewVec3(0.5, 0.5, 0.5)
	if spec.Albedo != nil {
		albedo = spec.Albedo.toCore()
	}

	switch strings.ToLower(spec.Type) {
	case "lambertian":
		return material.NewLambertian(albedo), nil
	case "metal":
		return material.NewMetal(albedo, spec.Fuzz), nil
	case "dielectric":
		if spec.RefractiveIndex <= 0 {
			return material.Material{}, xerrors.Errorf("dielectric needs a positive refractive index, got %g: %w", spec.RefractiveIndex, ErrInvalidScene)
		}
		return material.NewDielectric(spec.RefractiveIndex), nil
	default:
		return material.Material{}, xerrors.Errorf("unknown material type %q: %w", spec.Type, ErrInvalidScene)
	}
}

func (spec CameraSpec) merge(defaults renderer.CameraConfig) renderer.CameraConfig {
	override := renderer.CameraConfig{
		Width:           spec.Width,
		AspectRatio:     spec.AspectRatio,
		VFov:            spec.VFov,
		FocusDistance:   spec.FocusDistance,
		DefocusAngle:    spec.DefocusAngle,
		SamplesPerPixel: spec.SamplesPerPixel,
	}
	result := renderer.MergeCameraConfig(defaults, override)
	// Vectors are applied even when zero, so a camera can sit at the origin
	if spec.LookFrom != nil {
		result.LookFrom = spec.LookFrom.toCore()
	}
	if spec.LookAt != nil {
		result.LookAt = spec.LookAt.toCore()
	}
	if spec.Up != nil {
		result.Up = spec.Up.toCore()
	}
	return result
}

// validateFilePath rejects paths that cannot name a scene file
func validateFilePath(filename string) error {
	if filename == "" {
		return xerrors.New("filename cannot be empty")
	}
	if strings.Contains(filename, "\x00") {
		return xerrors.New("invalid file path: null bytes not allowed")
	}

	cleanPath := filepath.Clean(filename)
	if len(cleanPath) > 512 {
		return xerrors.New("file path too long: maximum 512 characters allowed")
	}

	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".yaml" && ext != ".yml" {
		return xerrors.Errorf("invalid file type %q: only .yaml and .yml files are allowed", ext)
	}

	return nil
}
