// Package logging is the injected logger contract for the slave core.
// The backend is chosen at configuration time; library code never picks
// one itself.
package logging

import "github.com/golang/glog"

// Logger is the minimal surface the core needs. Implementations must be
// safe to call from the single poll context without blocking.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// Nop discards everything. It is the default for tests and for
// components constructed without a logger.
type Nop struct{}

func (Nop) Debugf(string, ...any) {}
func (Nop) Infof(string, ...any)  {}
func (Nop) Errorf(string, ...any) {}

// Glog forwards to github.com/golang/glog. Debug output lands at
// verbosity 1 and is enabled with -v=1.
type Glog struct{}

func (Glog) Debugf(format string, args ...any) { glog.V(1).Infof(format, args...) }
func (Glog) Infof(format string, args ...any)  { glog.Infof(format, args...) }
func (Glog) Errorf(format string, args ...any) { glog.Errorf(format, args...) }
