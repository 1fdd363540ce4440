package logging

import (
	"io"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewFileLogger returns a logger that writes JSON lines at level and above to a size-rotated file
// at path. The returned closer releases the file.
func NewFileLogger(name, path string, level Level) (Logger, io.Closer) {
	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    16,
		MaxBackups: 2,
		Compress:   true,
	}
	atomicLevel := NewAtomicLevelAt(level)
	encoderConfig := NewLoggerConfig().EncoderConfig
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewJSONEncoder(encoderConfig)
	core := zapcore.NewCore(encoder, zapcore.AddSync(rotator), atomicLevel)
	return newImpl(name, atomicLevel, core), rotator
}
