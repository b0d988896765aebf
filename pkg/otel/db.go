package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// WithCollectionSpan wraps a MongoDB collection operation with a DB client span.
// Works even if tracing was never explicitly initialized.
func WithCollectionSpan(ctx context.Context, collection, operation string, fn func(ctx context.Context) error) error {
	tracer := otel.Tracer("voicehub")

	spanCtx, span := tracer.Start(ctx, fmt.Sprintf("db.%s", operation),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemKey.String("mongodb"),
			semconv.DBOperationKey.String(operation),
			attribute.String("db.collection", collection),
		),
	)
	defer span.End()

	err := fn(spanCtx)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("db.error", true))
	}
	return err
}
