package mylog

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/MarcGrol/paymentsession/lib/mycontext"
)

func init() {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") != "" {
		New = newGcloudLogger
	}
}

// Cloud Logging parses these field names from a JSON line on stdout.
const (
	gcloudSeverityField = "severity"
	gcloudMessageField  = "message"
	gcloudTraceField    = "logging.googleapis.com/trace"
	gcloudLabelsField   = "logging.googleapis.com/labels"
)

type structuredLogger struct {
	componentName string
	logger        zerolog.Logger
}

func newGcloudLogger(componentName string) Logger {
	// Timestamps are added by Cloud Logging.
	return structuredLogger{
		componentName: componentName,
		logger:        zerolog.New(os.Stdout).With().Str("component", componentName).Logger(),
	}
}

func (l structuredLogger) Log(c context.Context, traceLabel string, severity Severity, format string, a ...any) {
	event := l.logger.Log().
		Str(gcloudSeverityField, string(severity)).
		Dict(gcloudLabelsField, zerolog.Dict().Str("aggregate", traceLabel))

	if trace := mycontext.TraceFromContext(c); trace != "" {
		event = event.Str(gcloudTraceField, trace)
	}

	event.Str(gcloudMessageField, l.componentName+":"+fmt.Sprintf(format, a...)).Send()
}
