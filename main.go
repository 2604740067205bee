package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/loaders"
	"github.com/df07/go-weekend-raytracer/pkg/rendercache"
	"github.com/df07/go-weekend-raytracer/pkg/renderer"
	"github.com/df07/go-weekend-raytracer/pkg/scene"
	"github.com/dustin/go-humanize"
	"github.com/golang/glog"
	"golang.org/x/term"
	"golang.org/x/xerrors"
)

// options holds the parsed command line
type options struct {
	scene     string
	sceneFile string
	width     int
	samples   int
	seed      int64
	workers   int
	tileSize  int
	out       string
	cacheDir  string
	progress  bool
}

func main() {
	var opts options
	flag.StringVar(&opts.scene, "scene", "random-spheres", "Built-in scene: "+strings.Join(scene.Names(), ", "))
	flag.StringVar(&opts.sceneFile, "scene-file", "", "YAML scene description to render instead of a built-in scene")
	flag.IntVar(&opts.width, "width", 0, "Image width in pixels (0 = scene default)")
	flag.IntVar(&opts.samples, "samples", 0, "Samples per pixel (0 = scene default)")
	flag.Int64Var(&opts.seed, "seed", 0, "Random seed (0 = seed from the clock, disables the cache)")
	flag.IntVar(&opts.workers, "workers", 0, "Parallel workers (0 = number of CPUs, 1 = sequential scanline render)")
	flag.IntVar(&opts.tileSize, "tile-size", renderer.DefaultTileSize, "Tile edge in pixels for parallel rendering")
	flag.StringVar(&opts.out, "out", "", "Output PNG path (default output/<scene>/render_<timestamp>.png)")
	flag.StringVar(&opts.cacheDir, "cache-dir", "", "Directory of the render cache (empty disables caching)")
	flag.BoolVar(&opts.progress, "progress", true, "Draw a progress bar when stderr is a terminal")
	flag.Parse()
	defer glog.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	path, err := run(ctx, opts, os.Stderr)
	if err != nil {
		glog.Flush()
		glog.Exitf("Render failed: %v", err)
	}
	glog.Infof("Render saved as %s", path)
}

// run renders according to opts and returns the path of the written PNG
func run(ctx context.Context, opts options, stderr io.Writer) (string, error) {
	if opts.seed == 0 {
		opts.seed = time.Now().UnixNano()
		// Clock-seeded renders are never cached
		opts.cacheDir = ""
	}

	s, err := createScene(opts)
	if err != nil {
		return "", err
	}
	glog.Infof("Rendering scene %q: width %d, aspect %.3g, %d spp, %s primitives, seed %d",
		s.Name, s.CameraConfig.Width, s.CameraConfig.AspectRatio, s.CameraConfig.SamplesPerPixel,
		humanize.Comma(int64(s.GetPrimitiveCount())), opts.seed)

	var cache *rendercache.Cache
	var key []byte
	if opts.cacheDir != "" {
		cache, err = rendercache.Open(opts.cacheDir)
		if err != nil {
			return "", err
		}
		defer cache.Close()

		key, err = cacheKey(opts, s)
		if err != nil {
			return "", err
		}
		data, found, err := cache.Get(key)
		if err != nil {
			return "", err
		}
		if found {
			glog.Infof("Cache hit: %s", humanize.Bytes(uint64(len(data))))
			return writeOutput(opts, s.Name, data)
		}
	}

	rt, err := s.NewRaytracer()
	if err != nil {
		return "", err
	}
	rt.SetLogger(renderer.NewDefaultLogger())
	if opts.progress && isTerminal(stderr) {
		rt.SetProgress(newProgressBar(stderr))
	}

	var img image.Image
	var stats renderer.RenderStats
	if opts.workers == 1 {
		img, stats, err = rt.Render(ctx, core.NewSeededSampler(opts.seed))
	} else {
		img, stats, err = rt.RenderParallel(ctx, renderer.ParallelConfig{
			Workers:  opts.workers,
			TileSize: opts.tileSize,
			Seed:     opts.seed,
		})
	}
	if err != nil {
		return "", err
	}
	glog.Infof("Render completed in %v (%.1f samples per pixel)", stats.Duration.Round(time.Millisecond), stats.AverageSamples)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", xerrors.Errorf("while encoding PNG: %w", err)
	}
	if cache != nil {
		if err := cache.Put(key, buf.Bytes()); err != nil {
			glog.Warningf("Failed to cache render: %v", err)
		}
	}
	return writeOutput(opts, s.Name, buf.Bytes())
}

// createScene builds the scene selected by opts with size overrides applied
func createScene(opts options) (*scene.Scene, error) {
	overrides := renderer.CameraConfig{
		Width:           opts.width,
		SamplesPerPixel: opts.samples,
	}

	if opts.sceneFile != "" {
		s, err := loaders.LoadScene(opts.sceneFile)
		if err != nil {
			return nil, xerrors.Errorf("while loading scene file %s: %w", opts.sceneFile, err)
		}
		s.CameraConfig = renderer.MergeCameraConfig(s.CameraConfig, overrides)
		return s, nil
	}

	build, ok := scene.Lookup(opts.scene)
	if !ok {
		return nil, xerrors.Errorf("unknown scene %q (available: %s)", opts.scene, strings.Join(scene.Names(), ", "))
	}
	return build(opts.seed, overrides), nil
}

// cacheKey identifies everything that determines the rendered image
func cacheKey(opts options, s *scene.Scene) ([]byte, error) {
	source := "builtin:" + s.Name
	if opts.sceneFile != "" {
		data, err := os.ReadFile(opts.sceneFile)
		if err != nil {
			return nil, xerrors.Errorf("while reading scene file for cache key: %w", err)
		}
		source = "file:" + string(data)
	}

	mode := "sequential"
	if opts.workers != 1 {
		mode = "tiled:" + strconv.Itoa(opts.tileSize)
	}

	return rendercache.Key(
		source,
		fmt.Sprintf("%+v", s.CameraConfig),
		strconv.Itoa(s.SamplingConfig.MaxDepth),
		strconv.FormatInt(opts.seed, 10),
		mode,
	), nil
}

// writeOutput writes the encoded image to the configured or timestamped path
func writeOutput(opts options, sceneName string, data []byte) (string, error) {
	filename := opts.out
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = filepath.Join("output", sceneName, fmt.Sprintf("render_%s.png", timestamp))
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return "", xerrors.Errorf("while creating output directory: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", xerrors.Errorf("while writing %s: %w", filename, err)
	}
	glog.Infof("Wrote %s", humanize.Bytes(uint64(len(data))))
	return filename, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// newProgressBar returns a ProgressFunc that redraws a bar in place on w
func newProgressBar(w io.Writer) renderer.ProgressFunc {
	const barWidth = 40
	return func(completed, total int) {
		if total <= 0 {
			return
		}
		filled := barWidth * completed / total
		fmt.Fprintf(w, "\r[%s%s] %3d%%", strings.Repeat("=", filled), strings.Repeat(" ", barWidth-filled), 100*completed/total)
		if completed == total {
			fmt.Fprintln(w)
		}
	}
}
