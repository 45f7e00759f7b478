package logging

import "testing"

type testWriter struct {
	tb testing.TB
}

func (w testWriter) Write(p []byte) (int, error) {
	w.tb.Helper()
	w.tb.Logf("%s", p)
	return len(p), nil
}

// NewTestLogger returns a DEBUG-level Logger that routes output through tb.Logf,
// so planner diagnostics show up attached to the failing test.
func NewTestLogger(tb testing.TB) Logger {
	return NewObservedLogger(tb.Name(), NewWriterAppender(testWriter{tb}))
}
