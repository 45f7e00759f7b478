// Package trace renders roadmap growth and lazy-evaluation events to
// line-oriented, comma-separated sinks for offline inspection. Both sinks
// are entirely optional; a planner with none wired in pays no cost beyond a
// nil check.
package trace

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func joinComma(parts []string) string {
	return strings.Join(parts, ", ")
}

// NodeSink records one line per roadmap node creation: `<uid>, <D>, x1, ..., xD`.
type NodeSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewNodeSink wraps w as a roadmap node trace sink.
func NewNodeSink(w io.Writer) *NodeSink {
	return &NodeSink{w: w}
}

// WriteNode appends one line describing a newly created node.
func (s *NodeSink) WriteNode(uid uint64, coords []float64) error {
	parts := make([]string, 0, len(coords)+2)
	parts = append(parts, strconv.FormatUint(uid, 10), strconv.Itoa(len(coords)))
	for _, c := range coords {
		parts = append(parts, formatFloat(c))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.w, joinComma(parts))
	return err
}

// EventSink records validity checks and edge-cost resolutions as they
// happen, one line per event.
type EventSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewEventSink wraps w as an event trace sink.
func NewEventSink(w io.Writer) *EventSink {
	return &EventSink{w: w}
}

// WriteValBase records the outcome of an unconditional validity check.
func (s *EventSink) WriteValBase(uid uint64, valid bool) error {
	return s.writeLine("VAL_BASE", strconv.FormatUint(uid, 10), boolFlag(valid))
}

// WriteValGrasp records the outcome of a grasp-conditional validity check.
func (s *EventSink) WriteValGrasp(uid uint64, gid string, valid bool) error {
	return s.writeLine("VAL_GRASP", strconv.FormatUint(uid, 10), gid, boolFlag(valid))
}

// WriteEdgeCost records a resolved unconditional edge cost.
func (s *EventSink) WriteEdgeCost(a, b uint64, cost float64) error {
	return s.writeLine("EDGE_COST", strconv.FormatUint(a, 10), strconv.FormatUint(b, 10), formatFloat(cost))
}

// WriteEdgeCostGrasp records a resolved grasp-conditional edge cost.
func (s *EventSink) WriteEdgeCostGrasp(a, b uint64, gid string, cost float64) error {
	return s.writeLine("EDGE_COST_GRASP", strconv.FormatUint(a, 10), strconv.FormatUint(b, 10), gid, formatFloat(cost))
}

func (s *EventSink) writeLine(parts ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.w, joinComma(parts))
	return err
}

// Sinks bundles the two optional trace sinks a roadmap can be configured
// with. A nil *Sinks, or a Sinks value with either field nil, is valid: the
// roadmap checks before writing.
type Sinks struct {
	Nodes  *NodeSink
	Events *EventSink
}
