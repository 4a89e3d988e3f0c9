package logger

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// serviceName is attached to every entry so mixed container logs can be split.
const serviceName = "finance_tracker"

// Logger wraps zap's SugaredLogger.
type Logger struct {
	*zap.SugaredLogger
}

// parseLevel reads the log_level config value. Blank or unknown values
// mean info, the same as the config default.
func parseLevel(s string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(s))
	if err != nil || lvl < zapcore.DebugLevel || lvl > zapcore.ErrorLevel {
		return zapcore.InfoLevel
	}
	return lvl
}

func build(w io.Writer, level string) *Logger {
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.RFC3339TimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(enc),
		zapcore.Lock(zapcore.AddSync(w)),
		zap.NewAtomicLevelAt(parseLevel(level)),
	)
	return &Logger{
		SugaredLogger: zap.New(core, zap.AddCaller(), zap.Fields(zap.String("service", serviceName))).Sugar(),
	}
}

func stdout(level string) *Logger {
	return build(os.Stdout, level)
}
