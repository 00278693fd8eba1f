package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/andishehs/MetaGen/core"
	"github.com/andishehs/MetaGen/internal/testutil"
)

func recordingCoordinator() (*Coordinator, *tracetest.SpanRecorder) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	return fastCoordinator(func(o *Options) { o.Tracer = tp.Tracer(TracerName) }), sr
}

func attr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestCoordinator_Spans(t *testing.T) {
	coord, sr := recordingCoordinator()
	r := testutil.NewRosterBuilder().Rule(core.FixedOrder).Echo("A", "B").Build(t)

	out := coord.StartSession(context.Background(), r, "go", 3, nil)
	require.Equal(t, core.StatusCompletedByRoundLimit, out.Status)

	var sessions, rounds []sdktrace.ReadOnlySpan
	for _, s := range sr.Ended() {
		switch s.Name() {
		case "metagen.session":
			sessions = append(sessions, s)
		case "metagen.round":
			rounds = append(rounds, s)
		}
	}
	require.Len(t, sessions, 1)
	assert.Len(t, rounds, 3)

	v, ok := attr(sessions[0], "session.id")
	require.True(t, ok)
	assert.Equal(t, out.SessionID, v.AsString())

	v, ok = attr(sessions[0], "session.status")
	require.True(t, ok)
	assert.Equal(t, "completed_by_round_limit", v.AsString())

	for _, round := range rounds {
		assert.Equal(t, sessions[0].SpanContext().TraceID(), round.SpanContext().TraceID())
	}
}

func TestCoordinator_FailedSessionSpanStatus(t *testing.T) {
	coord, sr := recordingCoordinator()
	r := testutil.NewRosterBuilder().Echo("A").Agent("B", testutil.Reply("")).Rule(core.FixedOrder).Build(t)

	out := coord.StartSession(context.Background(), r, "go", 5, nil)
	require.Equal(t, core.StatusFailed, out.Status)

	for _, s := range sr.Ended() {
		if s.Name() == "metagen.session" {
			assert.Equal(t, codes.Error, s.Status().Code)
			return
		}
	}
	t.Fatal("no session span recorded")
}
