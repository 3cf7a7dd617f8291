package tracing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func decodeRecords(t *testing.T, data []byte) []SpanRecord {
	t.Helper()
	var records []SpanRecord
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var r SpanRecord
		require.NoError(t, dec.Decode(&r))
		records = append(records, r)
	}
	return records
}

func TestNewFileExporter_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "traces.jsonl")

	exporter, err := NewFileExporter(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err, "trace file should be created with parent dirs")
	require.NoError(t, exporter.Shutdown(context.Background()))
}

func TestNewFileExporter_AppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"existing"}`+"\n"), 0o644))

	exporter, err := NewFileExporter(path)
	require.NoError(t, err)

	stub := tracetest.SpanStub{Name: SpanTokenize, StartTime: time.Now(), EndTime: time.Now().Add(time.Millisecond)}
	require.NoError(t, exporter.ExportSpans(context.Background(), []sdktrace.ReadOnlySpan{stub.Snapshot()}))
	require.NoError(t, exporter.Shutdown(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	records := decodeRecords(t, data)
	require.Len(t, records, 2)
	require.Equal(t, "existing", records[0].Name)
	require.Equal(t, SpanTokenize, records[1].Name)
}

func TestFileExporter_WritesRecord(t *testing.T) {
	var buf bytes.Buffer
	exporter := NewWriterExporter(&buf)

	start := time.Now()
	stub := tracetest.SpanStub{
		Name:      SpanComplete,
		SpanKind:  trace.SpanKindInternal,
		StartTime: start,
		EndTime:   start.Add(100 * time.Millisecond),
		Status:    sdktrace.Status{Code: codes.Ok},
		Attributes: []attribute.KeyValue{
			attribute.String(AttrMatchAlgorithm, "subletters"),
			attribute.Int(AttrCandidateCount, 12),
		},
		Events: []sdktrace.Event{{
			Name:       "language.reloaded",
			Time:       start,
			Attributes: []attribute.KeyValue{attribute.String(AttrLanguageName, "css")},
		}},
	}
	require.NoError(t, exporter.ExportSpans(context.Background(), []sdktrace.ReadOnlySpan{stub.Snapshot()}))

	records := decodeRecords(t, buf.Bytes())
	require.Len(t, records, 1)
	r := records[0]
	require.Equal(t, SpanComplete, r.Name)
	require.Equal(t, "INTERNAL", r.Kind)
	require.Equal(t, "OK", r.Status)
	require.InDelta(t, 100.0, r.DurationMs, 0.001)
	require.Equal(t, "subletters", r.Attributes[AttrMatchAlgorithm])
	require.EqualValues(t, 12, r.Attributes[AttrCandidateCount])
	require.Len(t, r.Events, 1)
	require.Equal(t, "css", r.Events[0].Attributes[AttrLanguageName])
	require.Empty(t, r.ParentSpanID)
}

func TestFileExporter_ErrorStatus(t *testing.T) {
	var buf bytes.Buffer
	exporter := NewWriterExporter(&buf)

	stub := tracetest.SpanStub{
		Name:      SpanHighlight,
		StartTime: time.Now(),
		EndTime:   time.Now(),
		Status:    sdktrace.Status{Code: codes.Error, Description: "unknown language"},
	}
	require.NoError(t, exporter.ExportSpans(context.Background(), []sdktrace.ReadOnlySpan{stub.Snapshot()}))

	r := decodeRecords(t, buf.Bytes())[0]
	require.Equal(t, "ERROR", r.Status)
	require.Equal(t, "unknown language", r.StatusMsg)
}

func TestFileExporter_Concurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.jsonl")
	exporter, err := NewFileExporter(path)
	require.NoError(t, err)

	const workers, perWorker = 8, 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				stub := tracetest.SpanStub{
					Name:       "concurrent",
					StartTime:  time.Now(),
					EndTime:    time.Now(),
					Attributes: []attribute.KeyValue{attribute.Int("worker", id)},
				}
				_ = exporter.ExportSpans(context.Background(), []sdktrace.ReadOnlySpan{stub.Snapshot()})
			}
		}(i)
	}
	wg.Wait()
	require.NoError(t, exporter.Shutdown(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, decodeRecords(t, data), workers*perWorker)
}

func TestFileExporter_Shutdown(t *testing.T) {
	exporter, err := NewFileExporter(filepath.Join(t.TempDir(), "traces.jsonl"))
	require.NoError(t, err)

	require.NoError(t, exporter.Shutdown(context.Background()))
	require.NoError(t, exporter.Shutdown(context.Background()), "shutdown is idempotent")

	stub := tracetest.SpanStub{Name: "late"}
	err = exporter.ExportSpans(context.Background(), []sdktrace.ReadOnlySpan{stub.Snapshot()})
	require.ErrorIs(t, err, ErrExporterShutdown)
	require.NoError(t, exporter.ExportSpans(context.Background(), nil))
}

func TestSpanKindString(t *testing.T) {
	tests := []struct {
		kind trace.SpanKind
		want string
	}{
		{trace.SpanKindInternal, "INTERNAL"},
		{trace.SpanKindServer, "SERVER"},
		{trace.SpanKindClient, "CLIENT"},
		{trace.SpanKindProducer, "PRODUCER"},
		{trace.SpanKindConsumer, "CONSUMER"},
		{trace.SpanKindUnspecified, "UNSPECIFIED"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			require.Equal(t, tt.want, spanKindString(tt.kind))
		})
	}
}

func TestEnd_RecordsError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")

	_, span := Start(context.Background(), tracer, SpanTokenize, attribute.Int(AttrTextLength, 3))
	End(span, errors.New("boom"))
	_, span = Start(context.Background(), tracer, SpanSerialize)
	End(span, nil)

	ended := recorder.Ended()
	require.Len(t, ended, 2)

	failed := ended[0]
	require.Equal(t, codes.Error, failed.Status().Code)
	require.Equal(t, "boom", failed.Status().Description)
	require.Equal(t, trace.SpanKindInternal, failed.SpanKind())
	var attrs []string
	for _, kv := range failed.Attributes() {
		attrs = append(attrs, string(kv.Key))
	}
	require.ElementsMatch(t, []string{AttrTextLength, AttrErrorMessage, AttrErrorType}, attrs)
	require.Len(t, failed.Events(), 1, "error recorded as an event")

	require.Equal(t, codes.Ok, ended[1].Status().Code)
}
