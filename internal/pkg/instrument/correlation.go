package instrument

import "context"

type correlationIDKey struct{}

// SetCorrelationID stores a correlation ID in the context.
func SetCorrelationID(ctx context.Context, cID string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, cID)
}

// GetCorrelationID returns the correlation ID from the context, or "".
func GetCorrelationID(ctx context.Context) string {
	if cID, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return cID
	}

	return ""
}
