package otel

import (
	"go.opentelemetry.io/otel"

	"github.com/Alturino/dashboard/internal/constants"
)

var Tracer = otel.Tracer(constants.AppMain)
