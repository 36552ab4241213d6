package logging

import (
	"context"
	"maps"

	"github.com/goliatone/go-cms-locales/pkg/interfaces"
)

// WithFields applies fields when logger implements interfaces.FieldsLogger and
// returns logger unchanged otherwise. The map is cloned before it is handed over.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}
	with, ok := logger.(interfaces.FieldsLogger)
	if !ok {
		return logger
	}
	return with.WithFields(maps.Clone(fields))
}

type requestFieldsKey struct{}

// ContextWithFields records request-scoped fields (role, locale, collection)
// on ctx. Later calls override earlier keys.
func ContextWithFields(ctx context.Context, fields map[string]any) context.Context {
	if ctx == nil || len(fields) == 0 {
		return ctx
	}
	merged := ContextFields(ctx)
	if merged == nil {
		merged = make(map[string]any, len(fields))
	}
	maps.Copy(merged, fields)
	return context.WithValue(ctx, requestFieldsKey{}, merged)
}

// ContextFields returns a copy of the fields recorded on ctx, or nil.
func ContextFields(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(requestFieldsKey{}).(map[string]any)
	if len(fields) == 0 {
		return nil
	}
	return maps.Clone(fields)
}
