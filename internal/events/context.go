package events

import "context"

type studentIDKey struct{}

// ContextWithStudentID returns a new context carrying the student ID.
func ContextWithStudentID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, studentIDKey{}, id)
}

// StudentIDFromContext extracts the student ID from the context, or "" if absent.
func StudentIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(studentIDKey{}).(string); ok {
		return id
	}
	return ""
}
