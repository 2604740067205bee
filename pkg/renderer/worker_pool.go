package renderer

import (
	"context"
	"image"
	"runtime"
	"sync"
	"time"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/xerrors"
)

// ParallelConfig controls a tiled, multi-goroutine render
type ParallelConfig struct {
	Workers  int   // Concurrent tiles; 0 means runtime.NumCPU()
	TileSize int   // Tile edge in pixels; 0 means DefaultTileSize
	Seed     int64 // Seed every tile's random source is derived from
}

// RenderParallel renders the image as a grid of tiles on a bounded pool of
// goroutines. Each tile draws from its own seeded sampler and writes a
// disjoint region of the pixel grid, so the result is the same for every
// worker count.
func (rt *Raytracer) RenderParallel(ctx context.Context, config ParallelConfig) (*image.RGBA, RenderStats, error) {
	start := time.Now()
	workers := config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	width, height := rt.camera.Width(), rt.camera.Height()
	pixelStats := newPixelStats(width, height)
	tiles := NewTileGrid(width, height, config.TileSize, config.Seed)

	var (
		mu        sync.Mutex
		stats     RenderStats
		completed int
	)
	sem := semaphore.NewWeighted(int64(workers))
	g, gctx := errgroup.WithContext(ctx)
	for _, tile := range tiles {
		tile := tile
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			if err := gctx.Err(); err != nil {
				return err
			}
			tileStats := rt.RenderBounds(tile.Bounds, pixelStats, core.NewSeededSampler(tile.Seed))

			mu.Lock()
			defer mu.Unlock()
			stats.merge(tileStats)
			completed++
			if rt.progress != nil {
				rt.progress(completed, len(tiles))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, xerrors.Errorf("while rendering %d tiles: %w", len(tiles), err)
	}
	if err := ctx.Err(); err != nil {
		return nil, stats, xerrors.Errorf("while rendering %d tiles: %w", len(tiles), err)
	}

	stats.finalize()
	stats.Duration = time.Since(start)
	rt.logSummary(stats)
	return ToImage(pixelStats), stats, nil
}
