package response

import (
	"context"
	"time"
)

type contextKey string

const (
	requestIDKey   contextKey = "swiftbase_request_id"
	requestTimeKey contextKey = "swiftbase_request_time"
	apiVersionKey  contextKey = "swiftbase_api_version"
)

// WithRequestID attaches the per-request id to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// WithRequestTime attaches the request start time to the context.
func WithRequestTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey, t)
}

// WithAPIVersion attaches the negotiated API version to the context.
func WithAPIVersion(ctx context.Context, version string) context.Context {
	return context.WithValue(ctx, apiVersionKey, version)
}

// RequestID returns the per-request id assigned by RequestLogMiddleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RequestTime returns the time the request started.
func RequestTime(ctx context.Context) time.Time {
	t, _ := ctx.Value(requestTimeKey).(time.Time)
	return t
}

func apiVersion(ctx context.Context) string {
	v, _ := ctx.Value(apiVersionKey).(string)
	return v
}
