package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/google/go-cmp/cmp"
)

var _ core.Logger = (*consoleLogger)(nil)

func receive(t *testing.T, ch <-chan ConsoleMessage) ConsoleMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for console message")
		return ConsoleMessage{}
	}
}

func TestConsoleLogger_FormatsAndForwards(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	logger := newConsoleLogger("render-1", messageChan)

	logger.Printf("Rendering %s with %d spheres\n", "random-spheres", 488)

	msg := receive(t, messageChan)
	if msg.Message != "Rendering random-spheres with 488 spheres" {
		t.Errorf("Message = %q, want the line without its trailing newline", msg.Message)
	}
	if msg.RenderID != "render-1" {
		t.Errorf("RenderID = %q, want render-1", msg.RenderID)
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Errorf("Timestamp seems too old: %v", msg.Timestamp)
	}
}

func TestConsoleLogger_PreservesOrder(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	logger := newConsoleLogger("render-2", messageChan)

	want := []string{"tile 1", "tile 2", "tile 3"}
	for _, m := range want {
		logger.Printf("%s", m)
	}

	var got []string
	for range want {
		got = append(got, receive(t, messageChan).Message)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
	if logger.Dropped() != 0 {
		t.Errorf("Dropped() = %d, want 0", logger.Dropped())
	}
}

func TestConsoleLogger_FullChannelCountsDrops(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 1)
	logger := newConsoleLogger("render-3", messageChan)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			logger.Printf("message %d", i)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Printf blocked on a full channel")
	}
	if got := receive(t, messageChan).Message; got != "message 0" {
		t.Errorf("first message = %q, want message 0", got)
	}
	if logger.Dropped() != 4 {
		t.Errorf("Dropped() = %d, want 4", logger.Dropped())
	}
}

func TestConsoleLogger_NilChannel(t *testing.T) {
	logger := newConsoleLogger("render-nil", nil)
	logger.Printf("Test message with nil channel\n")
	if logger.Dropped() != 0 {
		t.Errorf("Dropped() = %d, want 0 without a channel", logger.Dropped())
	}
}

func TestConsoleMessage_JSON(t *testing.T) {
	msg := ConsoleMessage{
		RenderID:  "render-7",
		Message:   "done",
		Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	want := `{"renderId":"render-7","message":"done","timestamp":"2024-01-02T03:04:05Z"}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}
