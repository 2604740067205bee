package server

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
)

// ConsoleMessage is one render log line forwarded to the browser
type ConsoleMessage struct {
	RenderID  string    `json:"renderId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// consoleLogger is the logger of a streamed render. Every line goes to glog;
// lines are forwarded to out only while it has room, and the rest are counted.
type consoleLogger struct {
	renderID string
	out      chan<- ConsoleMessage
	dropped  int64 // accessed atomically
}

func newConsoleLogger(renderID string, out chan<- ConsoleMessage) *consoleLogger {
	return &consoleLogger{renderID: renderID, out: out}
}

// Printf implements core.Logger
func (l *consoleLogger) Printf(format string, args ...interface{}) {
	line := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	glog.Infof("[%s] %s", l.renderID, line)

	if l.out == nil {
		return
	}
	select {
	case l.out <- ConsoleMessage{RenderID: l.renderID, Message: line, Timestamp: time.Now()}:
	default:
		atomic.AddInt64(&l.dropped, 1)
	}
}

// Dropped returns the number of lines that did not fit in the channel
func (l *consoleLogger) Dropped() int64 {
	return atomic.LoadInt64(&l.dropped)
}
