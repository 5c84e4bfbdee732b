// Package clog is the leveled tracing cmd/subc's -v flag turns on: entry
// into each pipeline stage with its token, global and function counts. It is
// deliberately separate from internal/diag, which owns the compiler's
// actual (always-fatal, always-one-line) diagnostic output — tracing
// here is purely developer-facing and never affects exit status.
package clog

import "github.com/golang/glog"

// Stage logs entry into a pipeline stage at -v=1.
func Stage(name string, format string, args ...any) {
	if glog.V(1) {
		glog.Infof("[%s] "+format, append([]any{name}, args...)...)
	}
}

// Detail logs finer-grained progress (per-function, per-global) at -v=2.
func Detail(format string, args ...any) {
	if glog.V(2) {
		glog.Infof(format, args...)
	}
}

// Flush flushes glog's buffered output; cmd/subc calls this on every
// exit path so -v output is never lost on a fatal diagnostic.
func Flush() {
	glog.Flush()
}
