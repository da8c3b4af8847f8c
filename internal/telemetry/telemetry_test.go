package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetup_None(t *testing.T) {
	shutdown, err := Setup("none", nil)
	require.NoError(t, err)

	assert.NoError(t, shutdown(context.Background()))
}

func TestSetup_Unknown(t *testing.T) {
	_, err := Setup("jaeger", nil)

	assert.EqualError(t, err, `unknown telemetry mode "jaeger" (want stdout or none)`)
}

func TestSetup_StdoutExportsSpans(t *testing.T) {
	var buf bytes.Buffer

	shutdown, err := Setup("stdout", &buf)
	require.NoError(t, err)

	_, span := otel.Tracer("telemetry_test").Start(context.Background(), "lookup customer")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "lookup customer")
}
