package main

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const testSceneFile = `camera:
  width: 12
  aspectRatio: 1.5
  samplesPerPixel: 1
materials:
  blue:
    type: lambertian
    albedo: [0.1, 0.2, 0.5]
spheres:
  - center: [0, 0, -1]
    radius: 0.5
    material: blue
`

func writeSceneFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blue.yaml")
	if err := os.WriteFile(path, []byte(testSceneFile), 0o644); err != nil {
		t.Fatalf("Failed to write scene file: %v", err)
	}
	return path
}

func TestCreateScene(t *testing.T) {
	sceneFile := writeSceneFile(t)

	tests := []struct {
		name        string
		opts        options
		wantName    string
		expectError bool
	}{
		{"random spheres", options{scene: "random-spheres", seed: 1}, "random-spheres", false},
		{"three spheres", options{scene: "three-spheres"}, "three-spheres", false},
		{"single sphere", options{scene: "single-sphere"}, "single-sphere", false},
		{"scene file", options{sceneFile: sceneFile}, "blue", false},
		{"scene file wins over name", options{scene: "nonexistent", sceneFile: sceneFile}, "blue", false},
		{"unknown scene", options{scene: "nonexistent"}, "", true},
		{"empty scene name", options{}, "", true},
		{"missing scene file", options{sceneFile: filepath.Join(t.TempDir(), "missing.yaml")}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := createScene(tt.opts)
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error, got scene %q", s.Name)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if s.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", s.Name, tt.wantName)
			}
			if s.CameraConfig.Width <= 0 {
				t.Errorf("Scene camera width should be positive, got %d", s.CameraConfig.Width)
			}
			if s.GetPrimitiveCount() == 0 {
				t.Error("Scene has no primitives")
			}
		})
	}
}

func TestCreateScene_Overrides(t *testing.T) {
	for _, opts := range []options{
		{scene: "three-spheres", width: 32, samples: 3},
		{sceneFile: writeSceneFile(t), width: 32, samples: 3},
	} {
		s, err := createScene(opts)
		if err != nil {
			t.Fatalf("createScene(%+v) error: %v", opts, err)
		}
		if s.CameraConfig.Width != 32 || s.CameraConfig.SamplesPerPixel != 3 {
			t.Errorf("createScene(%+v) camera = %+v, want width 32 and 3 spp", opts, s.CameraConfig)
		}
	}
}

func TestRun_WritesPNGAndUsesCache(t *testing.T) {
	dir := t.TempDir()
	opts := options{
		scene:    "single-sphere",
		width:    16,
		samples:  1,
		seed:     3,
		workers:  2,
		tileSize: 4,
		out:      filepath.Join(dir, "out", "first.png"),
		cacheDir: filepath.Join(dir, "cache"),
	}

	path, err := run(context.Background(), opts, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("run() error: %v", err)
	}
	if path != opts.out {
		t.Errorf("run() wrote %s, want %s", path, opts.out)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(first))
	if err != nil {
		t.Fatalf("Output is not a PNG: %v", err)
	}
	if got := img.Bounds().Size(); got.X != 16 || got.Y != 9 {
		t.Errorf("image size = %v, want 16x9", got)
	}

	// The second run is served from the cache and must be byte-identical
	opts.out = filepath.Join(dir, "out", "second.png")
	path, err = run(context.Background(), opts, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("second run() error: %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("cached render differs from the original")
	}
}

func TestRun_SequentialMatchesItself(t *testing.T) {
	dir := t.TempDir()
	render := func(name string) []byte {
		opts := options{sceneFile: writeSceneFile(t), seed: 9, workers: 1, out: filepath.Join(dir, name)}
		path, err := run(context.Background(), opts, &bytes.Buffer{})
		if err != nil {
			t.Fatalf("run() error: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("Failed to read output: %v", err)
		}
		return data
	}

	if !bytes.Equal(render("a.png"), render("b.png")) {
		t.Error("sequential renders with the same seed differ")
	}
}

func TestRun_UnknownScene(t *testing.T) {
	_, err := run(context.Background(), options{scene: "nonexistent", seed: 1}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "unknown scene") {
		t.Errorf("run() error = %v, want unknown scene", err)
	}
}

func TestCacheKey(t *testing.T) {
	s, err := createScene(options{scene: "single-sphere"})
	if err != nil {
		t.Fatalf("createScene() error: %v", err)
	}

	base := options{scene: "single-sphere", seed: 1, workers: 4, tileSize: 16}
	baseKey, err := cacheKey(base, s)
	if err != nil {
		t.Fatalf("cacheKey() error: %v", err)
	}

	variants := map[string]options{
		"seed":       {scene: "single-sphere", seed: 2, workers: 4, tileSize: 16},
		"sequential": {scene: "single-sphere", seed: 1, workers: 1, tileSize: 16},
		"tile size":  {scene: "single-sphere", seed: 1, workers: 4, tileSize: 8},
	}
	for name, opts := range variants {
		key, err := cacheKey(opts, s)
		if err != nil {
			t.Fatalf("cacheKey() error: %v", err)
		}
		if bytes.Equal(key, baseKey) {
			t.Errorf("changing %s did not change the cache key", name)
		}
	}

	// Worker count alone does not change a tiled render
	same, err := cacheKey(options{scene: "single-sphere", seed: 1, workers: 8, tileSize: 16}, s)
	if err != nil {
		t.Fatalf("cacheKey() error: %v", err)
	}
	if !bytes.Equal(same, baseKey) {
		t.Error("worker count changed the cache key")
	}
}

func TestProgressBar(t *testing.T) {
	var buf bytes.Buffer
	progress := newProgressBar(&buf)
	progress(1, 4)
	progress(4, 4)

	want := "\r[==========                              ]  25%" +
		"\r[========================================] 100%\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("progress output mismatch (-want +got):\n%s", diff)
	}
	if isTerminal(&buf) {
		t.Error("isTerminal() = true for a buffer")
	}
}
