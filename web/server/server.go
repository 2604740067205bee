package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/df07/go-weekend-raytracer/pkg/loaders"
	"github.com/df07/go-weekend-raytracer/pkg/rendercache"
	"github.com/df07/go-weekend-raytracer/pkg/renderer"
	"github.com/df07/go-weekend-raytracer/pkg/scene"
	"github.com/dustin/go-humanize"
	"github.com/golang/glog"
	"golang.org/x/xerrors"
)

// Request parameter limits
const (
	minWidth, maxWidth, defaultWidth       = 16, 2000, 400
	minSamples, maxSamples, defaultSamples = 1, 10000, 10
	defaultSeed                            = 1
	defaultScene                           = "three-spheres"
)

// Config configures a Server
type Config struct {
	Port      int                // Port to serve on
	ScenesDir string             // Directory scanned for YAML scenes ("" searches scenes/ and ../scenes/)
	StaticDir string             // Directory of static UI files ("" disables the file server)
	Cache     *rendercache.Cache // Optional render cache
	Workers   int                // Parallel workers per render (0 = number of CPUs)
}

// Server handles web requests for the raytracer
type Server struct {
	config Config
}

// NewServer creates a new web server
func NewServer(config Config) *Server {
	return &Server{config: config}
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene   string `json:"scene"`   // Scene id (e.g., "random-spheres" or "yaml:marbles")
	Width   int    `json:"width"`   // Image width
	Samples int    `json:"samples"` // Samples per pixel
	Seed    int64  `json:"seed"`    // Seed of the render's random sources
}

// Stats represents render statistics
type Stats struct {
	TotalPixels    int     `json:"totalPixels"`
	TotalSamples   int64   `json:"totalSamples"`
	AverageSamples float64 `json:"averageSamples"`
	Tiles          int     `json:"tiles"`
}

// Handler returns the server's request router
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.config.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/scene-config", s.handleSceneConfig)
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/render-stream", s.handleRenderStream)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	glog.Infof("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists built-in and discovered scenes
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	response, err := scene.ListAllScenes(s.config.ScenesDir)
	if err != nil {
		glog.Errorf("Listing scenes: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list scenes")
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// handleRender renders a scene and responds with the PNG
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRenderRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	sceneObj, err := s.createScene(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, cached, _, err := s.renderPNG(r.Context(), req, sceneObj, nil)
	if err != nil {
		if r.Context().Err() != nil {
			glog.Infof("Render of %s abandoned by client", req.Scene)
			return
		}
		glog.Errorf("Render of %s failed: %v", req.Scene, err)
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if cached {
		w.Header().Set("X-Render-Cache", "hit")
	} else {
		w.Header().Set("X-Render-Cache", "miss")
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// renderPNG renders sceneObj as a PNG, consulting the cache when one is
// configured. configure, if set, can install a logger or progress observer.
func (s *Server) renderPNG(ctx context.Context, req *RenderRequest, sceneObj *scene.Scene, configure func(*renderer.Raytracer)) ([]byte, bool, renderer.RenderStats, error) {
	key := s.cacheKey(req, sceneObj)
	if s.config.Cache != nil {
		data, found, err := s.config.Cache.Get(key)
		if err != nil {
			glog.Warningf("Render cache read failed: %v", err)
		} else if found {
			return data, true, renderer.RenderStats{}, nil
		}
	}

	rt, err := sceneObj.NewRaytracer()
	if err != nil {
		return nil, false, renderer.RenderStats{}, err
	}
	rt.SetLogger(renderer.NewDefaultLogger())
	if configure != nil {
		configure(rt)
	}

	img, stats, err := rt.RenderParallel(ctx, renderer.ParallelConfig{
		Workers: s.config.Workers,
		Seed:    req.Seed,
	})
	if err != nil {
		return nil, false, stats, err
	}

	data, err := encodePNG(img)
	if err != nil {
		return nil, false, stats, err
	}
	glog.Infof("Rendered %s at %dpx, %d spp: %s PNG", req.Scene, req.Width, req.Samples, humanize.Bytes(uint64(len(data))))

	if s.config.Cache != nil {
		if err := s.config.Cache.Put(key, data); err != nil {
			glog.Warningf("Render cache write failed: %v", err)
		}
	}
	return data, false, stats, nil
}

func (s *Server) cacheKey(req *RenderRequest, sceneObj *scene.Scene) []byte {
	return rendercache.Key(
		"web",
		req.Scene,
		fmt.Sprintf("%+v", sceneObj.CameraConfig),
		strconv.Itoa(sceneObj.SamplingConfig.MaxDepth),
		strconv.FormatInt(req.Seed, 10),
		strconv.Itoa(renderer.DefaultTileSize),
	)
}

// parseRenderRequest parses and range-checks request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	query := r.URL.Query()
	req := &RenderRequest{Scene: defaultScene}
	if sceneName := query.Get("scene"); sceneName != "" {
		req.Scene = sceneName
	}

	var err error
	if req.Width, err = parseIntParam(query, "width", defaultWidth, minWidth, maxWidth); err != nil {
		return nil, err
	}
	if req.Samples, err = parseIntParam(query, "samples", defaultSamples, minSamples, maxSamples); err != nil {
		return nil, err
	}
	if req.Seed, err = parseInt64Param(query, "seed", defaultSeed); err != nil {
		return nil, err
	}

	if req.Width*req.Width > 800*800 && req.Samples > 100 {
		glog.Warningf("Render warning: large image with high samples may render slowly")
	}

	return req, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, xerrors.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, xerrors.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseInt64Param parses a 64-bit integer parameter from URL query
func parseInt64Param(values url.Values, key string, defaultValue int64) (int64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, xerrors.Errorf("invalid %s: %s", key, value)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// createScene resolves a built-in or discovered scene and applies the request size
func (s *Server) createScene(req *RenderRequest) (*scene.Scene, error) {
	overrides := renderer.CameraConfig{Width: req.Width, SamplesPerPixel: req.Samples}

	if build, ok := scene.Lookup(req.Scene); ok {
		return build(req.Seed, overrides), nil
	}

	if strings.HasPrefix(req.Scene, "yaml:") {
		files, err := scene.ListYAMLScenes(s.config.ScenesDir)
		if err != nil {
			return nil, xerrors.Errorf("while listing scene files: %w", err)
		}
		for _, info := range files {
			if info.ID != req.Scene {
				continue
			}
			sceneObj, err := loaders.LoadScene(info.FilePath)
			if err != nil {
				return nil, xerrors.Errorf("while loading %s: %w", req.Scene, err)
			}
			sceneObj.CameraConfig = renderer.MergeCameraConfig(sceneObj.CameraConfig, overrides)
			return sceneObj, nil
		}
	}

	return nil, xerrors.Errorf("unknown scene: %s", req.Scene)
}

// handleSceneConfig returns the default configuration for a scene
func (s *Server) handleSceneConfig(w http.ResponseWriter, r *http.Request) {
	sceneName := r.URL.Query().Get("scene")
	if sceneName == "" {
		sceneName = defaultScene
	}

	sceneObj, err := s.createScene(&RenderRequest{Scene: sceneName, Seed: defaultSeed})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	config := sceneObj.CameraConfig
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scene": sceneName,
		"defaults": map[string]interface{}{
			"width":           config.Width,
			"aspectRatio":     config.AspectRatio,
			"samplesPerPixel": config.SamplesPerPixel,
			"maxDepth":        sceneObj.SamplingConfig.MaxDepth,
			"camera":          config,
		},
		"limits": map[string]interface{}{
			"width":   map[string]int{"min": minWidth, "max": maxWidth},
			"samples": map[string]int{"min": minSamples, "max": maxSamples},
		},
	})
}

// encodePNG encodes an image as PNG bytes
func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, xerrors.Errorf("while encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// pngToBase64 converts PNG bytes for embedding in JSON
func pngToBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

func toStats(stats renderer.RenderStats) Stats {
	return Stats{
		TotalPixels:    stats.TotalPixels,
		TotalSamples:   int64(stats.TotalSamples),
		AverageSamples: stats.AverageSamples,
		Tiles:          stats.Tiles,
	}
}

func elapsedMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		glog.Warningf("Writing JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
