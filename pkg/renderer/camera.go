package renderer

import (
	"math"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"golang.org/x/xerrors"
)

var (
	// ErrInvalidCamera is wrapped by every camera configuration error
	ErrInvalidCamera = xerrors.New("invalid camera configuration")
)

// CameraConfig contains the framing parameters a camera is derived from
type CameraConfig struct {
	LookFrom        core.Vec3 `json:"lookFrom"`        // Camera position
	LookAt          core.Vec3 `json:"lookAt"`          // Point the camera looks at
	Up              core.Vec3 `json:"up"`              // Up direction
	Width           int       `json:"width"`           // Image width in pixels
	AspectRatio     float64   `json:"aspectRatio"`     // Nominal width / height
	VFov            float64   `json:"vfov"`            // Vertical field of view in degrees
	FocusDistance   float64   `json:"focusDistance"`   // Distance to the plane of perfect focus (0 = auto-calculate)
	DefocusAngle    float64   `json:"defocusAngle"`    // Cone angle in degrees through each pixel (0 = pinhole)
	SamplesPerPixel int       `json:"samplesPerPixel"` // Rays averaged per pixel
}

// Camera generates rays for rendering. Everything is derived once in
// NewCamera and never changes afterwards.
type Camera struct {
	config       CameraConfig
	imageHeight  int
	center       core.Vec3
	pixel00Loc   core.Vec3 // Center of pixel (0, 0), the upper-left pixel
	pixelDeltaU  core.Vec3 // Offset to the pixel to the right
	pixelDeltaV  core.Vec3 // Offset to the pixel below
	u, v, w      core.Vec3 // Camera frame basis vectors
	defocusDiskU core.Vec3 // Defocus disk horizontal radius
	defocusDiskV core.Vec3 // Defocus disk vertical radius
}

// NewCamera validates config and derives the viewport geometry
func NewCamera(config CameraConfig) (*Camera, error) {
	if config.Width <= 0 {
		return nil, xerrors.Errorf("width must be positive, got %d: %w", config.Width, ErrInvalidCamera)
	}
	if !(config.AspectRatio > 0) || math.IsInf(config.AspectRatio, 0) {
		return nil, xerrors.Errorf("aspect ratio must be positive, got %g: %w", config.AspectRatio, ErrInvalidCamera)
	}
	if !(config.VFov > 0 && config.VFov < 180) {
		return nil, xerrors.Errorf("vertical field of view must be in (0, 180) degrees, got %g: %w", config.VFov, ErrInvalidCamera)
	}
	if config.SamplesPerPixel <= 0 {
		return nil, xerrors.Errorf("samples per pixel must be positive, got %d: %w", config.SamplesPerPixel, ErrInvalidCamera)
	}
	if !(config.FocusDistance >= 0) || math.IsInf(config.FocusDistance, 0) {
		return nil, xerrors.Errorf("focus distance must be finite and not negative, got %g: %w", config.FocusDistance, ErrInvalidCamera)
	}
	if math.IsNaN(config.DefocusAngle) || math.IsInf(config.DefocusAngle, 0) {
		return nil, xerrors.Errorf("defocus angle must be finite, got %g: %w", config.DefocusAngle, ErrInvalidCamera)
	}
	for _, vec := range []struct {
		name  string
		value core.Vec3
	}{{"look-from", config.LookFrom}, {"look-at", config.LookAt}, {"up", config.Up}} {
		if !vec.value.IsFinite() {
			return nil, xerrors.Errorf("%s vector %v is not finite: %w", vec.name, vec.value, ErrInvalidCamera)
		}
	}

	// Orthonormal camera basis
	view := config.LookFrom.Subtract(config.LookAt)
	w, ok := view.Unit()
	if !ok {
		return nil, xerrors.Errorf("look-from and look-at are the same point %v: %w", config.LookFrom, ErrInvalidCamera)
	}
	u, ok := config.Up.Cross(w).Unit()
	if !ok {
		return nil, xerrors.Errorf("up vector %v is zero or parallel to the view direction: %w", config.Up, ErrInvalidCamera)
	}
	v := w.Cross(u)

	if config.FocusDistance == 0 {
		config.FocusDistance = view.Length()
	}

	imageHeight := max(1, int(math.Round(float64(config.Width)/config.AspectRatio)))

	// Viewport dimensions use the real pixel aspect ratio, not the nominal one
	theta := degreesToRadians(config.VFov)
	viewportHeight := 2 * math.Tan(theta/2) * config.FocusDistance
	viewportWidth := viewportHeight * float64(config.Width) / float64(imageHeight)

	// Vectors across the horizontal and down the vertical viewport edges
	viewportU := u.Multiply(viewportWidth)
	viewportV := v.Multiply(-viewportHeight)

	pixelDeltaU, _ := viewportU.Divide(float64(config.Width))
	pixelDeltaV, _ := viewportV.Divide(float64(imageHeight))

	viewportUpperLeft := config.LookFrom.
		Subtract(w.Multiply(config.FocusDistance)).
		Subtract(viewportU.Multiply(0.5)).
		Subtract(viewportV.Multiply(0.5))
	pixel00Loc := viewportUpperLeft.Add(pixelDeltaU.Add(pixelDeltaV).Multiply(0.5))

	defocusRadius := config.FocusDistance * math.Tan(degreesToRadians(config.DefocusAngle/2))

	return &Camera{
		config:       config,
		imageHeight:  imageHeight,
		center:       config.LookFrom,
		pixel00Loc:   pixel00Loc,
		pixelDeltaU:  pixelDeltaU,
		pixelDeltaV:  pixelDeltaV,
		u:            u,
		v:            v,
		w:            w,
		defocusDiskU: u.Multiply(defocusRadius),
		defocusDiskV: v.Multiply(defocusRadius),
	}, nil
}

// Config returns the configuration the camera was built from, with the
// focus distance resolved
func (c *Camera) Config() CameraConfig {
	return c.config
}

// Width returns the image width in pixels
func (c *Camera) Width() int {
	return c.config.Width
}

// Height returns the image height in pixels
func (c *Camera) Height() int {
	return c.imageHeight
}

// SamplesPerPixel returns the number of rays averaged per pixel
func (c *Camera) SamplesPerPixel() int {
	return c.config.SamplesPerPixel
}

// Basis returns the camera frame: u points right, v up, and w backwards
// from the view direction
func (c *Camera) Basis() (u, v, w core.Vec3) {
	return c.u, c.v, c.w
}

// PixelCenter returns the world-space center of pixel (i, j)
func (c *Camera) PixelCenter(i, j int) core.Vec3 {
	return c.pixel00Loc.
		Add(c.pixelDeltaU.Multiply(float64(i))).
		Add(c.pixelDeltaV.Multiply(float64(j)))
}

// GetRay generates a ray through a random point inside pixel (i, j),
// starting from a random point on the defocus disk
func (c *Camera) GetRay(i, j int, sampler core.Sampler) core.Ray {
	pixelSample := c.PixelCenter(i, j).Add(c.pixelSampleSquare(sampler))

	origin := c.center
	if c.config.DefocusAngle > 0 {
		origin = c.defocusDiskSample(sampler)
	}

	return core.NewRay(origin, pixelSample.Subtract(origin))
}

// pixelSampleSquare returns a random offset within the footprint of one pixel
func (c *Camera) pixelSampleSquare(sampler core.Sampler) core.Vec3 {
	px := -0.5 + sampler.Uniform(0, 1)
	py := -0.5 + sampler.Uniform(0, 1)
	return c.pixelDeltaU.Multiply(px).Add(c.pixelDeltaV.Multiply(py))
}

// defocusDiskSample returns a random point on the camera lens
func (c *Camera) defocusDiskSample(sampler core.Sampler) core.Vec3 {
	p := core.RandomInUnitDisk(sampler)
	return c.center.Add(c.defocusDiskU.Multiply(p.X)).Add(c.defocusDiskV.Multiply(p.Y))
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

// MergeCameraConfig returns base with every non-zero field of override applied on top
func MergeCameraConfig(base, override CameraConfig) CameraConfig {
	result := base
	if override.LookFrom != (core.Vec3{}) {
		result.LookFrom = override.LookFrom
	}
	if override.LookAt != (core.Vec3{}) {
		result.LookAt = override.LookAt
	}
	if override.Up != (core.Vec3{}) {
		result.Up = override.Up
	}
	if override.Width != 0 {
		result.Width = override.Width
	}
	if override.AspectRatio != 0 {
		result.AspectRatio = override.AspectRatio
	}
	if override.VFov != 0 {
		result.VFov = override.VFov
	}
	if override.FocusDistance != 0 {
		result.FocusDistance = override.FocusDistance
	}
	if override.DefocusAngle != 0 {
		result.DefocusAngle = override.DefocusAngle
	}
	if override.SamplesPerPixel != 0 {
		result.SamplesPerPixel = override.SamplesPerPixel
	}
	return result
}
