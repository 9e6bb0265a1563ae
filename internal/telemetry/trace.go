package telemetry

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

// TraceContext correlates the log lines of one CLI invocation or embedded
// operation. TraceID spans the whole invocation, SpanID one unit of work
// within it.
type TraceContext struct {
	AgentID  string `json:"agent_id"`
	TraceID  string `json:"trace_id"`
	SpanID   string `json:"span_id"`
	ParentID string `json:"parent_id,omitempty"`
	Op       string `json:"op,omitempty"` // remember, search, get, ...
}

// NewTraceContext starts a fresh trace rooted at the given agent.
func NewTraceContext(agentID string) *TraceContext {
	return &TraceContext{
		AgentID: agentID,
		TraceID: newHexID(16),
		SpanID:  newHexID(8),
	}
}

// ChildSpan opens a sub-span: same trace, new span, parent recorded.
func (tc *TraceContext) ChildSpan() *TraceContext {
	return &TraceContext{
		AgentID:  tc.AgentID,
		TraceID:  tc.TraceID,
		SpanID:   newHexID(8),
		ParentID: tc.SpanID,
	}
}

// WithOp returns a copy labelled with the operation name.
func (tc *TraceContext) WithOp(op string) *TraceContext {
	out := *tc
	out.Op = op
	return &out
}

// Fields renders the trace as structured-logging fields. Empty optional
// fields are omitted.
func (tc *TraceContext) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		"agent":    tc.AgentID,
		"trace_id": tc.TraceID,
		"span_id":  tc.SpanID,
	}
	if tc.ParentID != "" {
		fields["parent_id"] = tc.ParentID
	}
	if tc.Op != "" {
		fields["op"] = tc.Op
	}
	return fields
}

type traceKey struct{}

// ContextWithTrace attaches a trace to a context.
func ContextWithTrace(ctx context.Context, tc *TraceContext) context.Context {
	return context.WithValue(ctx, traceKey{}, tc)
}

// TraceFromContext returns the attached trace, or nil.
func TraceFromContext(ctx context.Context) *TraceContext {
	tc, _ := ctx.Value(traceKey{}).(*TraceContext)
	return tc
}

// WithTrace returns a derived logger carrying the context's trace fields.
// Without a trace in the context it returns the logger unchanged.
func (l *Logger) WithTrace(ctx context.Context) *Logger {
	tc := TraceFromContext(ctx)
	if tc == nil {
		return l
	}
	return l.WithFields(tc.Fields())
}

// newHexID returns n random bytes hex encoded. crypto/rand never fails on
// the supported platforms; a short read would surface as a short id in
// logs rather than an error in an operation path.
func newHexID(n int) string {
	b := make([]byte, n)
	rand.Read(b)
	return hex.EncodeToString(b)
}
