package renderer

import (
	"image"
)

// DefaultTileSize is the edge length of a square tile in pixels
const DefaultTileSize = 32

// golden-ratio increment used to spread tile seeds apart
const tileSeedIncrement = 0x9E3779B97F4A7C15

// Tile is a rectangular block of pixels rendered by a single worker
type Tile struct {
	ID     int             // Position in row-major tile order
	Bounds image.Rectangle // Pixel bounds, Max exclusive
	Seed   int64           // Seed of the tile's own random source
}

// NewTileGrid splits a width x height image into tiles of at most
// tileSize x tileSize pixels, in row-major order. Tile seeds depend only on
// seed and the tile's position, never on which worker renders it.
func NewTileGrid(width, height, tileSize int, seed int64) []Tile {
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}
	tilesX := (width + tileSize - 1) / tileSize
	tilesY := (height + tileSize - 1) / tileSize

	tiles := make([]Tile, 0, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			id := ty*tilesX + tx
			bounds := image.Rect(tx*tileSize, ty*tileSize, (tx+1)*tileSize, (ty+1)*tileSize).
				Intersect(image.Rect(0, 0, width, height))
			tiles = append(tiles, Tile{
				ID:     id,
				Bounds: bounds,
				Seed:   TileSeed(seed, id),
			})
		}
	}
	return tiles
}

// TileSeed derives the seed of tile id from the render seed
func TileSeed(seed int64, id int) int64 {
	return int64(uint64(seed) + uint64(id+1)*tileSeedIncrement)
}
