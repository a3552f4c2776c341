package mylog

import "context"

type Severity string

const (
	SeverityDebug Severity = "DEBUG"
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityError Severity = "ERROR"
)

// New creates a logger for the named component. The backend is selected at init time.
var New func(componentName string) Logger

type Logger interface {
	// Log writes one entry. traceLabel groups entries of one aggregate, typically a payment token.
	Log(c context.Context, traceLabel string, severity Severity, format string, a ...any)
}
