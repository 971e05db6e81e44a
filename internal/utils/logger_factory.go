package utils

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logLevelDebugStringConstant       = "debug"
	logLevelInfoStringConstant        = "info"
	logLevelWarnStringConstant        = "warn"
	logLevelErrorStringConstant       = "error"
	logFormatStructuredStringConstant = "structured"
	logFormatConsoleStringConstant    = "console"
	unsupportedLogLevelKindConstant   = "log level"
	unsupportedLogFormatKindConstant  = "log format"
	structuredTimeKeyConstant         = "ts"
	structuredLevelKeyConstant        = "level"
	structuredMessageKeyConstant      = "msg"
	structuredCallerKeyConstant       = "caller"
	structuredStacktraceKeyConstant   = "stacktrace"
	consoleMessageKeyConstant         = "message"
)

// LogLevel enumerates supported logging granularities.
type LogLevel string

// Supported log levels.
const (
	LogLevelDebug LogLevel = LogLevel(logLevelDebugStringConstant)
	LogLevelInfo  LogLevel = LogLevel(logLevelInfoStringConstant)
	LogLevelWarn  LogLevel = LogLevel(logLevelWarnStringConstant)
	LogLevelError LogLevel = LogLevel(logLevelErrorStringConstant)
)

// LogFormat enumerates supported logger output encodings.
type LogFormat string

// Supported log formats. Structured writes JSON lines; console writes tab separated text.
const (
	LogFormatStructured LogFormat = LogFormat(logFormatStructuredStringConstant)
	LogFormatConsole    LogFormat = LogFormat(logFormatConsoleStringConstant)
)

var logLevelMapping = map[LogLevel]zapcore.Level{
	LogLevelDebug: zapcore.DebugLevel,
	LogLevelInfo:  zapcore.InfoLevel,
	LogLevelWarn:  zapcore.WarnLevel,
	LogLevelError: zapcore.ErrorLevel,
}

// UnsupportedLoggingOptionError reports a log level or format outside the supported set.
type UnsupportedLoggingOptionError struct {
	Kind  string
	Value string
}

// Error names the rejected option.
func (optionError UnsupportedLoggingOptionError) Error() string {
	return strings.Join([]string{"unsupported", optionError.Kind + ":", optionError.Value}, " ")
}

// LoggerOutputs bundles the diagnostic logger with the message-only logger used for human-readable progress.
type LoggerOutputs struct {
	DiagnosticLogger *zap.Logger
	ConsoleLogger    *zap.Logger
}

// LoggerFactory builds the loggers of one invocation. Every logger writes to the same sink,
// standard error unless configured otherwise.
type LoggerFactory struct {
	sink zapcore.WriteSyncer
}

// NewLoggerFactory constructs a factory writing to standard error.
func NewLoggerFactory() *LoggerFactory {
	return NewLoggerFactoryWithWriter(os.Stderr)
}

// NewLoggerFactoryWithWriter constructs a factory writing to writer.
func NewLoggerFactoryWithWriter(writer io.Writer) *LoggerFactory {
	if writer == nil {
		writer = os.Stderr
	}
	return &LoggerFactory{sink: zapcore.Lock(zapcore.AddSync(writer))}
}

// CreateLogger produces the diagnostic logger. Levels and formats are matched case-insensitively.
// Entries are never sampled so that every per-target outcome is kept.
func (factory *LoggerFactory) CreateLogger(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (*zap.Logger, error) {
	level, levelError := resolveLogLevel(requestedLogLevel)
	if levelError != nil {
		return nil, levelError
	}

	var encoder zapcore.Encoder
	switch LogFormat(strings.ToLower(strings.TrimSpace(string(requestedLogFormat)))) {
	case LogFormatStructured:
		encoder = zapcore.NewJSONEncoder(diagnosticEncoderConfiguration())
	case LogFormatConsole:
		encoder = zapcore.NewConsoleEncoder(diagnosticEncoderConfiguration())
	default:
		return nil, UnsupportedLoggingOptionError{Kind: unsupportedLogFormatKindConstant, Value: string(requestedLogFormat)}
	}

	core := zapcore.NewCore(encoder, factory.sink, level)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// CreateLoggerOutputs builds the diagnostic logger together with a console logger that prints bare messages.
func (factory *LoggerFactory) CreateLoggerOutputs(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (LoggerOutputs, error) {
	diagnosticLogger, diagnosticError := factory.CreateLogger(requestedLogLevel, requestedLogFormat)
	if diagnosticError != nil {
		return LoggerOutputs{}, diagnosticError
	}
	level, _ := resolveLogLevel(requestedLogLevel)

	consoleEncoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey: consoleMessageKeyConstant,
		LineEnding: zapcore.DefaultLineEnding,
	})
	consoleLogger := zap.New(zapcore.NewCore(consoleEncoder, factory.sink, level))

	return LoggerOutputs{DiagnosticLogger: diagnosticLogger, ConsoleLogger: consoleLogger}, nil
}

func resolveLogLevel(requestedLogLevel LogLevel) (zapcore.Level, error) {
	level, known := logLevelMapping[LogLevel(strings.ToLower(strings.TrimSpace(string(requestedLogLevel))))]
	if !known {
		return zapcore.InfoLevel, UnsupportedLoggingOptionError{Kind: unsupportedLogLevelKindConstant, Value: string(requestedLogLevel)}
	}
	return level, nil
}

func diagnosticEncoderConfiguration() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        structuredTimeKeyConstant,
		LevelKey:       structuredLevelKeyConstant,
		MessageKey:     structuredMessageKeyConstant,
		CallerKey:      structuredCallerKeyConstant,
		StacktraceKey:  structuredStacktraceKeyConstant,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}
