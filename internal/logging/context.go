// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	requestIDKey     contextKey = "request_id"
	householdIDKey   contextKey = "household_id"
)

// GenerateCorrelationID returns a short (8 char) correlation ID.
func GenerateCorrelationID() string {
	return uuid.New().String()[:8]
}

// GenerateRequestID returns a full UUID request ID.
func GenerateRequestID() string {
	return uuid.New().String()
}

// ContextWithCorrelationID stores a correlation ID on ctx.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// ContextWithNewCorrelationID stores a freshly generated correlation ID on ctx.
func ContextWithNewCorrelationID(ctx context.Context) context.Context {
	return ContextWithCorrelationID(ctx, GenerateCorrelationID())
}

// CorrelationIDFromContext returns the correlation ID or "".
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithRequestID stores a request ID on ctx.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request ID or "".
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithHouseholdID stores the household being served on ctx.
func ContextWithHouseholdID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, householdIDKey, id)
}

// HouseholdIDFromContext returns the household ID or "".
func HouseholdIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(householdIDKey).(string); ok {
		return id
	}
	return ""
}

// Ctx returns a logger carrying the request-scoped fields found on ctx.
//
//	logging.Ctx(ctx).Info().Msg("slate served")
func Ctx(ctx context.Context) *zerolog.Logger {
	return withRequestFields(ctx, Logger())
}

//nolint:gocritic // zerolog.Logger is designed to be passed by value
func withRequestFields(ctx context.Context, base zerolog.Logger) *zerolog.Logger {
	logCtx := base.With()
	if id := CorrelationIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("correlation_id", id)
	}
	if id := RequestIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("request_id", id)
	}
	if id := HouseholdIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("household_id", id)
	}
	l := logCtx.Logger()
	return &l
}
