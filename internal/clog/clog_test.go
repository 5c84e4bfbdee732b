package clog_test

import (
	"testing"

	"github.com/gmofishsauce/subc/internal/clog"
)

// At the default verbosity these are no-ops; the test only confirms
// they never panic regardless of argument shape.
func TestStageDetailFlushDoNotPanic(t *testing.T) {
	clog.Stage("parse", "%d tokens", 42)
	clog.Detail("global %s", "counter")
	clog.Flush()
}
