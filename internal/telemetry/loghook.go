package telemetry

import (
	"context"
	"fmt"

	otellog "go.opentelemetry.io/otel/log"

	"github.com/matera-dldn/qualisentinel/internal/logging"
)

// NewLogHook returns a logging.Hook that forwards entries to the OTLP log
// exporter. Returns nil when telemetry is disabled.
func (t *Telemetry) NewLogHook() logging.Hook {
	if !t.Enabled() {
		return nil
	}
	logger := t.logger

	return func(level logging.Level, msg string, attrs map[string]interface{}) {
		var record otellog.Record
		record.SetBody(otellog.StringValue(msg))
		record.SetSeverity(severity(level))
		record.SetSeverityText(string(level))

		if len(attrs) > 0 {
			kvs := make([]otellog.KeyValue, 0, len(attrs))
			for k, v := range attrs {
				kvs = append(kvs, otellog.KeyValue{Key: k, Value: value(v)})
			}
			record.AddAttributes(kvs...)
		}
		logger.Emit(context.Background(), record)
	}
}

func severity(level logging.Level) otellog.Severity {
	switch level {
	case logging.LevelWarn:
		return otellog.SeverityWarn
	case logging.LevelError:
		return otellog.SeverityError
	case logging.LevelFatal:
		return otellog.SeverityFatal
	default:
		return otellog.SeverityInfo
	}
}

func value(v interface{}) otellog.Value {
	switch val := v.(type) {
	case nil:
		return otellog.StringValue("<nil>")
	case string:
		return otellog.StringValue(val)
	case int:
		return otellog.IntValue(val)
	case int64:
		return otellog.Int64Value(val)
	case float64:
		return otellog.Float64Value(val)
	case bool:
		return otellog.BoolValue(val)
	default:
		return otellog.StringValue(fmt.Sprint(val))
	}
}
