package log

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"video-summary/internal/appdirs"
)

// Logger stays a nop logger until InitLogger runs, so packages can log from tests.
var Logger = zap.NewNop()

const logFileName = "app.log"

var appDirsResolver = appdirs.Resolve

// InitLogger tees JSON debug logs into the log file and info logs to stdout.
// With verbose the console also shows debug output.
func InitLogger(verbose ...bool) {
	logFilePath, err := ResolveLogFilePath()
	if err != nil {
		panic("无法解析日志目录: " + err.Error())
	}
	if err = os.MkdirAll(filepath.Dir(logFilePath), 0o755); err != nil {
		panic("无法创建日志目录: " + err.Error())
	}
	file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		panic("无法打开日志文件: " + err.Error())
	}

	consoleLevel := zap.InfoLevel
	if len(verbose) > 0 && verbose[0] {
		consoleLevel = zap.DebugLevel
	}
	Logger = zap.New(newCore(zapcore.AddSync(file), zapcore.AddSync(os.Stdout), consoleLevel), zap.AddCaller())
}

func newCore(file, console zapcore.WriteSyncer, consoleLevel zapcore.Level) zapcore.Core {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), file, zap.DebugLevel),
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), console, consoleLevel),
	)
}

// ResolveLogDir is the configured log dir, "." when none is set.
func ResolveLogDir() (string, error) {
	dirs, err := appDirsResolver()
	if err != nil {
		return "", err
	}
	if logDir := strings.TrimSpace(dirs.LogDir); logDir != "" {
		return logDir, nil
	}
	return ".", nil
}

func ResolveLogFilePath() (string, error) {
	logDir, err := ResolveLogDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(logDir, logFileName), nil
}

func GetLogger() *zap.Logger {
	return Logger
}
