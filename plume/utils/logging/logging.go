package logging

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	AppLogger     *zap.Logger
	RequestLogger *zap.Logger
	TimerLogger   *zap.Logger
	ErrorLogger   *zap.Logger
)

const logsDir = "./logs"

func rotatingCore(encoder zapcore.Encoder, file string, maxSize, maxAge int, level zapcore.Level) zapcore.Core {
	return zapcore.NewCore(encoder,
		zapcore.AddSync(&lumberjack.Logger{
			Filename: filepath.Join(logsDir, file),
			MaxSize:  maxSize,
			MaxAge:   maxAge,
			Compress: true,
		}),
		level,
	)
}

func InitLogger() {
	if err := os.MkdirAll(logsDir, os.ModePerm); err != nil {
		panic("failed to create logs directory: " + err.Error())
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderConfig)

	AppLogger = zap.New(rotatingCore(encoder, "app.log", 100, 28, zap.InfoLevel))
	RequestLogger = zap.New(rotatingCore(encoder, "request.log", 50, 7, zap.InfoLevel))
	TimerLogger = zap.New(rotatingCore(encoder, "timer.log", 50, 7, zap.InfoLevel))
	ErrorLogger = zap.New(rotatingCore(encoder, "error.log", 100, 30, zap.ErrorLevel))
}

// LogDuration lets you do: defer logging.LogDuration(ctx, "FuncName")()
func LogDuration(ctx context.Context, name string) func() {
	start := time.Now()
	traceID, _ := ctx.Value("trace_id").(string)

	return func() {
		fields := []zap.Field{
			zap.String("func", name),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		if traceID != "" {
			fields = append(fields, zap.String("trace_id", traceID))
		}
		TimerLogger.Info("function timed", fields...)
	}
}
