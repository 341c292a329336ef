package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Handlers and services enrich the context once; every log statement below
// picks up the workspace and dataset it is working on.
type LogFields struct {
	WorkspaceSlug *string // Tenant slug from the request path
	Namespace     *string // Derived storage namespace (ws_<slug>)
	DatasetID     *string // Dataset catalog ID
	Table         *string // Sanitized dataset table name
	ImportRunID   *int64  // Import run snowflake ID
	Component     string  // Component name (OTel semantic convention style, e.g., "pinn.service.dataset")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
// Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.WorkspaceSlug != nil {
		result.WorkspaceSlug = new.WorkspaceSlug
	}
	if new.Namespace != nil {
		result.Namespace = new.Namespace
	}
	if new.DatasetID != nil {
		result.DatasetID = new.DatasetID
	}
	if new.Table != nil {
		result.Table = new.Table
	}
	if new.ImportRunID != nil {
		result.ImportRunID = new.ImportRunID
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{Table: logger.Ptr(table)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if truncated.
// Useful for logging potentially long strings like SQL or error messages.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
