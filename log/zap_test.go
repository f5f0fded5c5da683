package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"video-summary/internal/appdirs"
)

func setAppDirsResolverForTest(t *testing.T, resolver func() (appdirs.Paths, error)) {
	t.Helper()

	originalResolver := appDirsResolver
	appDirsResolver = resolver
	t.Cleanup(func() {
		appDirsResolver = originalResolver
	})
}

func keepLogger(t *testing.T) {
	t.Helper()
	original := Logger
	t.Cleanup(func() { Logger = original })
}

func TestResolveLogDir(t *testing.T) {
	t.Run("uses resolved log dir", func(t *testing.T) {
		expectedDir := filepath.Join("tmp", "logs")
		setAppDirsResolverForTest(t, func() (appdirs.Paths, error) {
			return appdirs.Paths{LogDir: expectedDir}, nil
		})

		logDir, err := ResolveLogDir()
		require.NoError(t, err)
		assert.Equal(t, expectedDir, logDir)

		logFile, err := ResolveLogFilePath()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(expectedDir, "app.log"), logFile)
	})

	t.Run("falls back to current dir when empty", func(t *testing.T) {
		setAppDirsResolverForTest(t, func() (appdirs.Paths, error) {
			return appdirs.Paths{LogDir: " \t "}, nil
		})

		logDir, err := ResolveLogDir()
		require.NoError(t, err)
		assert.Equal(t, ".", logDir)
	})

	t.Run("returns resolver error", func(t *testing.T) {
		setAppDirsResolverForTest(t, func() (appdirs.Paths, error) {
			return appdirs.Paths{}, errors.New("resolve failed")
		})

		_, err := ResolveLogDir()
		assert.ErrorContains(t, err, "resolve failed")
		_, err = ResolveLogFilePath()
		assert.ErrorContains(t, err, "resolve failed")
	})
}

func TestGetLoggerBeforeInitIsUsable(t *testing.T) {
	require.NotNil(t, GetLogger())
	GetLogger().Info("nop logger line")
}

func TestNewCoreSplitsLevels(t *testing.T) {
	var file, console bytes.Buffer
	logger := zap.New(newCore(zapcore.AddSync(&file), zapcore.AddSync(&console), zap.InfoLevel))

	logger.Debug("debug line", zap.String("url", "BV1xx"))
	logger.Info("info line")
	require.NoError(t, logger.Sync())

	assert.NotContains(t, console.String(), "debug line")
	assert.Contains(t, console.String(), "info line")

	lines := bytes.Split(bytes.TrimSpace(file.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "debug line", entry["msg"])
	assert.Equal(t, "BV1xx", entry["url"])
}

func TestInitLoggerCreatesLogFile(t *testing.T) {
	keepLogger(t)
	targetLogDir := filepath.Join(t.TempDir(), "data", "logs")
	setAppDirsResolverForTest(t, func() (appdirs.Paths, error) {
		return appdirs.Paths{LogDir: targetLogDir}, nil
	})

	InitLogger(true)
	require.NotNil(t, GetLogger())

	GetLogger().Info("logger test line")
	_ = GetLogger().Sync()

	content, err := os.ReadFile(filepath.Join(targetLogDir, logFileName))
	require.NoError(t, err)
	assert.Contains(t, string(content), "logger test line")
}
