// Package otel holds the span helpers and attribute keys shared by the sync
// manager, the package walker and the database read service.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys
const (
	AttrOrganization = attribute.Key("github.organization")
	AttrRepository   = attribute.Key("github.repository")
	AttrPageCount    = attribute.Key("pagination.pages")
	AttrPageKind     = attribute.Key("pagination.page_kind")
	AttrTagCount     = attribute.Key("result.tag_count")
	AttrResultCount  = attribute.Key("result.count")
	AttrForced       = attribute.Key("sync.forced")
	AttrImageName    = attribute.Key("image.name")
	AttrStableOnly   = attribute.Key("image.stable_only")
)

// failedStatus is the only status description ever set. Error text can carry
// queries or URLs, so it goes on the exception event instead.
const failedStatus = "operation failed"

// StartSpan starts name on tracer with attrs. A nil tracer hands back the
// span already in ctx, which is a no-op span outside any trace.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	attrs ...attribute.KeyValue,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// RecordError marks span as failed with err. Nil spans and nil errors are ignored.
func RecordError(span trace.Span, err error) {
	if err == nil || span == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, failedStatus)
}

// EndSpan records *errp, if set, and ends span. Meant to be deferred with a
// named error return:
//
//	ctx, span := otel.StartSpan(ctx, tracer, "op")
//	defer otel.EndSpan(span, &err)
func EndSpan(span trace.Span, errp *error) {
	if span == nil {
		return
	}
	if errp != nil {
		RecordError(span, *errp)
	}
	span.End()
}
