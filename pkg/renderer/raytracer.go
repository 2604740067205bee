package renderer

import (
	"context"
	"image"
	"time"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/geometry"
	"github.com/df07/go-weekend-raytracer/pkg/integrator"
	"github.com/dustin/go-humanize"
	"golang.org/x/xerrors"
)

// SamplingConfig contains rendering configuration that is not part of the camera
type SamplingConfig struct {
	MaxDepth int // Maximum ray bounce depth
}

// DefaultSamplingConfig returns the fixed bounce budget
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		MaxDepth: integrator.DefaultMaxDepth,
	}
}

// ProgressFunc is notified as a render advances. It is cosmetic and must not
// block for long; it is called from the goroutine that finished the work.
type ProgressFunc func(completed, total int)

// Raytracer renders a world as seen through a camera
type Raytracer struct {
	camera     *Camera
	world      geometry.Hittable
	config     SamplingConfig
	integrator integrator.Integrator
	logger     core.Logger
	progress   ProgressFunc
}

// NewRaytracer creates a new raytracer with the default sampling configuration
func NewRaytracer(camera *Camera, world geometry.Hittable) *Raytracer {
	config := DefaultSamplingConfig()
	return &Raytracer{
		camera:     camera,
		world:      world,
		config:     config,
		integrator: integrator.NewPathTracingIntegrator(config.MaxDepth),
		logger:     nopLogger{},
	}
}

// SetSamplingConfig updates the sampling configuration
func (rt *Raytracer) SetSamplingConfig(config SamplingConfig) {
	rt.config = config
	rt.integrator = integrator.NewPathTracingIntegrator(config.MaxDepth)
}

// SamplingConfig returns the active sampling configuration
func (rt *Raytracer) SamplingConfig() SamplingConfig {
	return rt.config
}

// SetLogger routes render summaries to logger
func (rt *Raytracer) SetLogger(logger core.Logger) {
	if logger == nil {
		logger = nopLogger{}
	}
	rt.logger = logger
}

// SetProgress installs a progress observer; nil disables reporting
func (rt *Raytracer) SetProgress(progress ProgressFunc) {
	rt.progress = progress
}

// Camera returns the camera the raytracer renders through
func (rt *Raytracer) Camera() *Camera {
	return rt.camera
}

// SamplePixel traces the camera's samples-per-pixel rays through pixel (i, j)
// and accumulates them into ps
func (rt *Raytracer) SamplePixel(i, j int, ps *PixelStats, sampler core.Sampler) {
	for s := 0; s < rt.camera.SamplesPerPixel(); s++ {
		ray := rt.camera.GetRay(i, j, sampler)
		ps.AddSample(rt.integrator.RayColor(ray, rt.world, sampler))
	}
}

// RenderBounds samples every pixel inside bounds, in row-major order, into pixelStats
func (rt *Raytracer) RenderBounds(bounds image.Rectangle, pixelStats [][]PixelStats, sampler core.Sampler) RenderStats {
	stats := RenderStats{Tiles: 1}
	for j := bounds.Min.Y; j < bounds.Max.Y; j++ {
		for i := bounds.Min.X; i < bounds.Max.X; i++ {
			before := pixelStats[j][i].SampleCount
			rt.SamplePixel(i, j, &pixelStats[j][i], sampler)
			stats.TotalPixels++
			stats.TotalSamples += pixelStats[j][i].SampleCount - before
		}
	}
	stats.finalize()
	return stats
}

// Render renders the whole image on the calling goroutine, one scanline at a
// time from the top, drawing every random number from sampler
func (rt *Raytracer) Render(ctx context.Context, sampler core.Sampler) (*image.RGBA, RenderStats, error) {
	start := time.Now()
	width, height := rt.camera.Width(), rt.camera.Height()
	pixelStats := newPixelStats(width, height)

	stats := RenderStats{}
	for j := 0; j < height; j++ {
		if err := ctx.Err(); err != nil {
			return nil, stats, xerrors.Errorf("while rendering scanline %d of %d: %w", j, height, err)
		}
		row := image.Rect(0, j, width, j+1)
		stats.merge(rt.RenderBounds(row, pixelStats, sampler))
		if rt.progress != nil {
			rt.progress(j+1, height)
		}
	}
	stats.Tiles = 1
	stats.finalize()
	stats.Duration = time.Since(start)

	rt.logSummary(stats)
	return ToImage(pixelStats), stats, nil
}

func (rt *Raytracer) logSummary(stats RenderStats) {
	rt.logger.Printf("rendered %dx%d: %s pixels, %s samples (%.1f/pixel), %d tiles in %v",
		rt.camera.Width(), rt.camera.Height(),
		humanize.Comma(int64(stats.TotalPixels)), humanize.Comma(int64(stats.TotalSamples)),
		stats.AverageSamples, stats.Tiles, stats.Duration.Round(time.Millisecond))
}
