package service

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/spellbee/spellbee-server/internal/validation"
)

// tracer resolves against the global provider, which is a no-op until main installs one.
var tracer = otel.Tracer("github.com/spellbee/spellbee-server/internal/service")

// validate is a shared validator instance for request validation.
var validate = validation.New()

// endSpan records err on the span, if any, and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
