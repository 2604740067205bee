package renderer

import (
	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/golang/glog"
)

// DefaultLogger implements core.Logger by writing to glog at info level
type DefaultLogger struct{}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	glog.Infof(format, args...)
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{}
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...interface{}) {}
