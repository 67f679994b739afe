package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitNoneIsNoop(t *testing.T) {
	p, err := Init(context.Background(), "odyssey-mfg", "test", "")
	require.NoError(t, err)

	_, span := p.Tracer("test").Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestInitStdoutRecordsSpans(t *testing.T) {
	p, err := Init(context.Background(), "odyssey-mfg", "test", "stdout")
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	_, span := p.Tracer("test").Start(context.Background(), "transition")
	assert.True(t, span.SpanContext().IsValid())
	span.End()
}

func TestInitRejectsUnknownExporter(t *testing.T) {
	_, err := Init(context.Background(), "odyssey-mfg", "test", "zipkin")
	assert.Error(t, err)
}
