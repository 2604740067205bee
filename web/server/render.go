package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/df07/go-weekend-raytracer/pkg/renderer"
	"github.com/golang/glog"
)

// SSEEvent is a single server-sent event
type SSEEvent struct {
	Type string `json:"type"` // "console", "progress", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// ProgressUpdate reports how many tiles of a render are finished
type ProgressUpdate struct {
	Completed int   `json:"completed"`
	Total     int   `json:"total"`
	ElapsedMs int64 `json:"elapsedMs"`
}

// RenderResult is the payload of the final "complete" event
type RenderResult struct {
	ImageData string `json:"imageData"` // Base64 encoded PNG
	Stats     Stats  `json:"stats"`
	Cached    bool   `json:"cached"`
	ElapsedMs int64  `json:"elapsedMs"`
}

var renderCounter int64

type renderOutcome struct {
	data   []byte
	cached bool
	stats  renderer.RenderStats
	err    error
}

// handleRenderStream renders a scene while streaming progress and log lines via SSE
func (s *Server) handleRenderStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	s.setSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	send := func(event SSEEvent) bool {
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	req, err := s.parseRenderRequest(r)
	if err != nil {
		send(SSEEvent{Type: "error", Data: fmt.Sprintf("Invalid request: %v", err)})
		return
	}
	sceneObj, err := s.createScene(req)
	if err != nil {
		send(SSEEvent{Type: "error", Data: err.Error()})
		return
	}

	renderID := "render-" + strconv.FormatInt(atomic.AddInt64(&renderCounter, 1), 10)
	consoleChan := make(chan ConsoleMessage, 100)
	progressChan := make(chan ProgressUpdate, 100)
	done := make(chan renderOutcome, 1)
	start := time.Now()

	logger := newConsoleLogger(renderID, consoleChan)
	go func() {
		data, cached, stats, err := s.renderPNG(ctx, req, sceneObj, func(rt *renderer.Raytracer) {
			rt.SetLogger(logger)
			rt.SetProgress(func(completed, total int) {
				select {
				case progressChan <- ProgressUpdate{Completed: completed, Total: total, ElapsedMs: elapsedMs(start)}:
				default:
					// Progress is cosmetic; drop updates the client cannot keep up with
				}
			})
		})
		done <- renderOutcome{data: data, cached: cached, stats: stats, err: err}
	}()

	for {
		select {
		case update := <-progressChan:
			if !send(jsonEvent("progress", update)) {
				return
			}
		case msg := <-consoleChan:
			if !send(jsonEvent("console", msg)) {
				return
			}
		case outcome := <-done:
			s.drainConsole(consoleChan, send)
			if dropped := logger.Dropped(); dropped > 0 {
				glog.Warningf("[%s] %d console lines were not streamed", renderID, dropped)
			}
			if outcome.err != nil {
				glog.Errorf("[%s] render of %s failed: %v", renderID, req.Scene, outcome.err)
				send(SSEEvent{Type: "error", Data: "render failed"})
				return
			}
			send(jsonEvent("complete", RenderResult{
				ImageData: pngToBase64(outcome.data),
				Stats:     toStats(outcome.stats),
				Cached:    outcome.cached,
				ElapsedMs: elapsedMs(start),
			}))
			return
		case <-ctx.Done():
			// Client disconnected; the render observes the same context and stops
			return
		}
	}
}

// drainConsole forwards log lines that arrived before the render finished
func (s *Server) drainConsole(consoleChan chan ConsoleMessage, send func(SSEEvent) bool) {
	for {
		select {
		case msg := <-consoleChan:
			if !send(jsonEvent("console", msg)) {
				return
			}
		default:
			return
		}
	}
}

func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

func jsonEvent(eventType string, v interface{}) SSEEvent {
	data, err := json.Marshal(v)
	if err != nil {
		glog.Errorf("Error marshaling %s event: %v", eventType, err)
		return SSEEvent{Type: "error", Data: "internal error"}
	}
	return SSEEvent{Type: eventType, Data: string(data)}
}
