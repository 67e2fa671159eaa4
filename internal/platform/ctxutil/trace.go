package ctxutil

import "context"

type traceDataKey struct{}

// TraceData correlates log lines of one inbound request and the run it starts.
type TraceData struct {
	TraceID   string
	RequestID string
	RunID     string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	val := ctx.Value(traceDataKey{})
	if td, ok := val.(*TraceData); ok {
		return td
	}
	return nil
}

// Detach returns a fresh background context carrying a copy of ctx's trace
// data. Cancelling ctx does not affect the result.
func Detach(ctx context.Context) context.Context {
	out := context.Background()
	if td := GetTraceData(ctx); td != nil {
		cp := *td
		out = WithTraceData(out, &cp)
	}
	return out
}

// LogFields renders the trace data as logger key/value pairs.
func LogFields(ctx context.Context) []interface{} {
	td := GetTraceData(ctx)
	if td == nil {
		return nil
	}
	fields := make([]interface{}, 0, 6)
	if td.TraceID != "" {
		fields = append(fields, "trace_id", td.TraceID)
	}
	if td.RequestID != "" {
		fields = append(fields, "request_id", td.RequestID)
	}
	if td.RunID != "" {
		fields = append(fields, "run_id", td.RunID)
	}
	return fields
}
