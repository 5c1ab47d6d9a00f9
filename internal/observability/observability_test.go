package observability

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	logger, err := NewLogger("warn", FormatJSON, false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1))

	logger, err = NewLogger("warn", FormatConsole, true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))

	_, err = NewLogger("loud", FormatJSON, false)
	require.Error(t, err)

	_, err = NewLogger("info", "xml", false)
	require.Error(t, err)
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.CategoryAnalyzed("ok")
	m.CategoryAnalyzed("ok")
	m.CategoryAnalyzed("failed")
	m.FieldsProfiled(7)
	m.CheckCompleted("passed")
	m.ArtifactsWritten(3)

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `schemadrift_categories_total{outcome="failed"} 1`)
	assert.Contains(t, string(data), `schemadrift_categories_total{outcome="ok"} 2`)
	assert.Contains(t, string(data), `schemadrift_checks_total{status="passed"} 1`)
	assert.Contains(t, string(data), "schemadrift_fields_profiled_total 7")
	assert.Contains(t, string(data), "schemadrift_artifacts_written_total 3")
}

func TestMetrics_NilSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.CategoryAnalyzed("ok")
	m.FieldsProfiled(1)
	m.CheckCompleted("failed")
	m.ArtifactsWritten(1)
	assert.Nil(t, m.Registry())
	require.NoError(t, m.WriteTextfile("ignored"))
}

func TestTracer(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	_, span := Tracer(tp).Start(context.Background(), "analyze")
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, TracerName, spans[0].InstrumentationScope.Name)
	assert.NotNil(t, Tracer(nil))
}
