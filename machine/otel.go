package machine

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "flowstate/machine"

// startDispatchSpan creates the root span for one dispatch. The caller is
// responsible for ending it via endDispatchSpan.
//
//nolint:spancheck // Span lifecycle managed by caller
func startDispatchSpan(
	ctx context.Context,
	machineID, instanceID, state string,
	ev Event,
) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)

	ctx, span := tracer.Start(ctx, "machine.dispatch")
	span.SetAttributes(
		attribute.String("machine", machineID),
		attribute.String("instance_hash", hashInstanceID(instanceID)),
		attribute.String("event", ev.Type),
		attribute.String("from_state", state),
	)

	return ctx, span
}

func endDispatchSpan(span trace.Span, finalState string, err error) {
	span.SetAttributes(attribute.String("to_state", finalState))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "completed")
	}

	span.End()
}

// startActionSpan creates a child span for one action body. The caller is
// responsible for ending it via endActionSpan.
//
//nolint:spancheck // Span lifecycle managed by caller
func startActionSpan(ctx context.Context, machineID string, phase Phase, state string) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)

	ctx, span := tracer.Start(ctx, "machine.action."+string(phase))
	span.SetAttributes(
		attribute.String("machine", machineID),
		attribute.String("phase", string(phase)),
		attribute.String("state", state),
	)

	return ctx, span
}

func endActionSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "completed")
	}

	span.End()
}
