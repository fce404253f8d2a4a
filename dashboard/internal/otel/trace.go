package otel

import (
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/dashboard/internal/constants"
)

var Tracer = otel.Tracer(
	constants.AppDashboard,
	trace.WithInstrumentationAttributes(semconv.ServiceName(constants.AppDashboard)),
)
