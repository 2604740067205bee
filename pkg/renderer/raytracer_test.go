package renderer

import (
	"context"
	"image/color"
	"math"
	"testing"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/integrator"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/xerrors"
)

func colorDistance(a, b color.RGBA) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

func TestRaytracer_SingleSphereEndToEnd(t *testing.T) {
	camera, err := NewCamera(pinholeConfig(9, 1, 1))
	if err != nil {
		t.Fatalf("NewCamera() error = %v", err)
	}
	rt := NewRaytracer(camera, singleSphereWorld())
	rt.SetSamplingConfig(SamplingConfig{MaxDepth: 1})

	// Midpoint draws remove the jitter so every ray passes through its pixel center
	img, stats, err := rt.Render(context.Background(), fixedSampler{fraction: 0.5})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got := img.Bounds().Dx() * img.Bounds().Dy(); got != 81 {
		t.Fatalf("Image has %d pixels, want 81", got)
	}
	if stats.TotalPixels != 81 || stats.TotalSamples != 81 {
		t.Errorf("stats = %+v, want 81 pixels and 81 samples", stats)
	}

	center := img.RGBAAt(4, 4)
	centerSky := Vec3ToColor(integrator.BackgroundGradient(core.NewRay(core.Vec3{}, camera.PixelCenter(4, 4))))
	albedo := Vec3ToColor(testAlbedo)
	if colorDistance(center, albedo) >= colorDistance(center, centerSky) {
		t.Errorf("Center pixel %v is closer to the sky %v than to the albedo %v", center, centerSky, albedo)
	}

	for _, corner := range [][2]int{{0, 0}, {8, 0}, {0, 8}, {8, 8}} {
		i, j := corner[0], corner[1]
		ray := core.NewRay(core.Vec3{}, camera.PixelCenter(i, j))
		want := Vec3ToColor(integrator.BackgroundGradient(ray))
		if got := img.RGBAAt(i, j); got != want {
			t.Errorf("Corner pixel (%d, %d) = %v, want sky gradient %v", i, j, got, want)
		}
	}
}

func TestRaytracer_CornerPixelMatchesGradientUnderJitter(t *testing.T) {
	camera, err := NewCamera(pinholeConfig(9, 1, 1))
	if err != nil {
		t.Fatalf("NewCamera() error = %v", err)
	}
	rt := NewRaytracer(camera, singleSphereWorld())
	rt.SetSamplingConfig(SamplingConfig{MaxDepth: 1})

	draws := []float64{0.13, 0.87}
	var ps PixelStats
	rt.SamplePixel(0, 8, &ps, &scriptedSampler{values: draws})

	ray := camera.GetRay(0, 8, &scriptedSampler{values: draws})
	want := integrator.BackgroundGradient(ray)
	if diff := cmp.Diff(want, ps.GetColor()); diff != "" {
		t.Errorf("Corner color mismatch (-want +got):\n%s", diff)
	}
}

func TestRaytracer_SamplePixelTakesConfiguredSamples(t *testing.T) {
	camera, err := NewCamera(pinholeConfig(4, 1, 7))
	if err != nil {
		t.Fatalf("NewCamera() error = %v", err)
	}
	rt := NewRaytracer(camera, singleSphereWorld())

	var ps PixelStats
	rt.SamplePixel(1, 1, &ps, core.NewSeededSampler(1))
	if ps.SampleCount != 7 {
		t.Errorf("SampleCount = %d, want 7", ps.SampleCount)
	}
}

func TestRaytracer_MoreSamplesReduceVariance(t *testing.T) {
	const runs = 300
	pixelMean := func(samples int, seed int64) (mean, variance float64) {
		camera, err := NewCamera(pinholeConfig(9, 1, samples))
		if err != nil {
			t.Fatalf("NewCamera() error = %v", err)
		}
		rt := NewRaytracer(camera, singleSphereWorld())
		sampler := core.NewSeededSampler(seed)

		sum, sumSq := 0.0, 0.0
		for n := 0; n < runs; n++ {
			var ps PixelStats
			rt.SamplePixel(4, 4, &ps, sampler)
			l := ps.GetColor().Luminance()
			sum += l
			sumSq += l * l
		}
		mean = sum / runs
		return mean, sumSq/runs - mean*mean
	}

	mean1, var1 := pixelMean(1, 11)
	mean16, var16 := pixelMean(16, 12)

	if var1 <= 0 {
		t.Fatalf("Single-sample variance = %v, want positive", var1)
	}
	if var16 >= var1/4 {
		t.Errorf("16-sample variance %v is not well below single-sample variance %v", var16, var1)
	}
	if limit := 5 * math.Sqrt(var1/runs+var16/runs); math.Abs(mean1-mean16) > limit {
		t.Errorf("Means differ: 1 sample %v, 16 samples %v (limit %v)", mean1, mean16, limit)
	}
}

func TestRaytracer_RenderIsReproducible(t *testing.T) {
	camera, err := NewCamera(pinholeConfig(12, 1.5, 2))
	if err != nil {
		t.Fatalf("NewCamera() error = %v", err)
	}
	rt := NewRaytracer(camera, threeSphereWorld())

	first, _, err := rt.Render(context.Background(), core.NewSeededSampler(99))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	second, _, err := rt.Render(context.Background(), core.NewSeededSampler(99))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if diff := cmp.Diff(first.Pix, second.Pix); diff != "" {
		t.Errorf("Renders with the same seed differ (-first +second):\n%s", diff)
	}
}

func TestRaytracer_RenderReportsProgress(t *testing.T) {
	camera, err := NewCamera(pinholeConfig(6, 2, 1))
	if err != nil {
		t.Fatalf("NewCamera() error = %v", err)
	}
	rt := NewRaytracer(camera, singleSphereWorld())

	var calls [][2]int
	rt.SetProgress(func(completed, total int) {
		calls = append(calls, [2]int{completed, total})
	})
	logger := &recordingLogger{}
	rt.SetLogger(logger)

	if _, _, err := rt.Render(context.Background(), core.NewSeededSampler(1)); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	want := [][2]int{{1, 3}, {2, 3}, {3, 3}}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("progress calls mismatch (-want +got):\n%s", diff)
	}
	if len(logger.lines) != 1 {
		t.Errorf("Logged %d lines, want 1 summary", len(logger.lines))
	}
}

func TestRaytracer_RenderCancelled(t *testing.T) {
	camera, err := NewCamera(pinholeConfig(8, 1, 1))
	if err != nil {
		t.Fatalf("NewCamera() error = %v", err)
	}
	rt := NewRaytracer(camera, singleSphereWorld())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	img, _, err := rt.Render(ctx, core.NewSeededSampler(1))
	if !xerrors.Is(err, context.Canceled) {
		t.Errorf("Render() error = %v, want context.Canceled", err)
	}
	if img != nil {
		t.Error("Render() returned an image after cancellation")
	}
}

func TestRaytracer_DefaultSamplingConfig(t *testing.T) {
	camera, err := NewCamera(pinholeConfig(4, 1, 1))
	if err != nil {
		t.Fatalf("NewCamera() error = %v", err)
	}
	rt := NewRaytracer(camera, singleSphereWorld())
	if got := rt.SamplingConfig().MaxDepth; got != 50 {
		t.Errorf("MaxDepth = %d, want 50", got)
	}
}
