package obs

import (
	"context"
	"log"
	"time"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

// WithRequestID returns a copy of ctx carrying id for log correlation.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// RequestID returns the request id stored in ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// Time logs the duration of op when the returned func is deferred.
// Pass a pointer to the named error result so failures are logged too.
func Time(ctx context.Context, op string) func(errp *error) {
	began := time.Now()
	id := RequestID(ctx)

	return func(errp *error) {
		ms := time.Since(began).Milliseconds()
		if errp == nil || *errp == nil {
			log.Printf("req_id=%s op=%s dur=%dms", id, op, ms)
			return
		}
		log.Printf("req_id=%s op=%s dur=%dms err=%v", id, op, ms, *errp)
	}
}
