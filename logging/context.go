package logging

import "context"

type debugModeKeyType struct{}

// EnableDebugModeWithKey returns a derived context that makes CDebug*/CInfo*/...
// calls emit regardless of the logger's configured level. Lines that are only
// emitted because of this are tagged with traceKey; lines the configured level
// already allows are written untagged. A single plan() invocation can opt a
// caller into verbose roadmap/search tracing without flipping the
// process-wide log level.
func EnableDebugModeWithKey(ctx context.Context, traceKey string) context.Context {
	return context.WithValue(ctx, debugModeKeyType{}, traceKey)
}

// debugTraceKey returns the trace key set by EnableDebugModeWithKey, if any.
func debugTraceKey(ctx context.Context) (string, bool) {
	v := ctx.Value(debugModeKeyType{})
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
