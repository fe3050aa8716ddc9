package tracing

import (
	"go.opentelemetry.io/otel"
)

// GlobalTracer produces no-op spans unless an OpenTelemetry SDK
// is installed as the global tracer provider.
var GlobalTracer = otel.Tracer("blogbox-backend")
