// Package ctxkeys defines typed context keys to avoid SA1029 lint warnings
// and prevent key collisions across packages.
package ctxkeys

import "context"

// Key is a typed context key to prevent collisions.
type Key string

// Request context keys
const (
	KeyRequestID      Key = "request_id"
	KeyConversationID Key = "conversation_id"
)

// GetRequestID extracts request_id from context.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(KeyRequestID).(string); ok {
		return v
	}
	return ""
}

// GetConversationID extracts conversation_id from context.
func GetConversationID(ctx context.Context) string {
	if v, ok := ctx.Value(KeyConversationID).(string); ok {
		return v
	}
	return ""
}
