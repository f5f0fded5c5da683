package appdirs

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnvironment struct {
	goos        string
	vars        map[string]string
	exePath     string
	configRoot  string
	cacheRoot   string
	lookupErr   error
	exeCalls    int
	configCalls int
}

func (f *fakeEnvironment) environment() environment {
	return environment{
		goos:   f.goos,
		getenv: func(key string) string { return f.vars[key] },
		executable: func() (string, error) {
			f.exeCalls++
			return f.exePath, f.lookupErr
		},
		userConfigDir: func() (string, error) {
			f.configCalls++
			return f.configRoot, f.lookupErr
		},
		userCacheDir: func() (string, error) {
			return f.cacheRoot, f.lookupErr
		},
	}
}

func TestResolveHomeOverridesEverything(t *testing.T) {
	home := filepath.Join("/", "srv", "vidsum")
	fake := &fakeEnvironment{goos: "windows", vars: map[string]string{HomeEnv: home + "/", PortableEnv: "1"}}

	got, err := resolve(fake.environment())
	require.NoError(t, err)

	assert.Equal(t, Paths{
		ConfigDir:  filepath.Join(home, "config"),
		ConfigFile: filepath.Join(home, "config", "config.toml"),
		LogDir:     filepath.Join(home, "logs"),
		OutputDir:  filepath.Join(home, "output"),
		CacheDir:   filepath.Join(home, "cache"),
	}, got)
	assert.Zero(t, fake.exeCalls)
	assert.Zero(t, fake.configCalls)
}

func TestResolvePortableNextToExecutable(t *testing.T) {
	exePath := filepath.Join("/", "apps", "VideoSummary", "vidsum.exe")
	dataDir := filepath.Join("/", "apps", "VideoSummary", "data")
	fake := &fakeEnvironment{goos: "linux", vars: map[string]string{PortableEnv: "true"}, exePath: exePath}

	got, err := resolve(fake.environment())
	require.NoError(t, err)

	assert.True(t, got.Portable)
	assert.Equal(t, filepath.Join(dataDir, "config", "config.toml"), got.ConfigFile)
	assert.Equal(t, filepath.Join(dataDir, "logs"), got.LogDir)
	assert.Equal(t, filepath.Join(dataDir, "output"), got.OutputDir)
	assert.Equal(t, filepath.Join(dataDir, "cache"), got.CacheDir)
	assert.Equal(t, 1, fake.exeCalls)
}

func TestResolveWindowsPerUser(t *testing.T) {
	configRoot := filepath.Join("C:", "Users", "alice", "AppData", "Roaming")
	cacheRoot := filepath.Join("C:", "Users", "alice", "AppData", "Local")
	fake := &fakeEnvironment{goos: "windows", configRoot: configRoot, cacheRoot: cacheRoot}

	got, err := resolve(fake.environment())
	require.NoError(t, err)

	assert.False(t, got.Portable)
	assert.Equal(t, filepath.Join(configRoot, "VideoSummary", "config.toml"), got.ConfigFile)
	assert.Equal(t, filepath.Join(cacheRoot, "VideoSummary", "logs"), got.LogDir)
	assert.Equal(t, filepath.Join(cacheRoot, "VideoSummary", "output"), got.OutputDir)
	assert.Equal(t, filepath.Join(cacheRoot, "VideoSummary", "cache"), got.CacheDir)
	assert.Zero(t, fake.exeCalls)
}

func TestResolveWorkingDirLayout(t *testing.T) {
	fake := &fakeEnvironment{goos: "darwin"}

	got, err := resolve(fake.environment())
	require.NoError(t, err)
	assert.Equal(t, workingDirLayout(), got)
	assert.Equal(t, filepath.Join("config", "config.toml"), got.ConfigFile)
	assert.Equal(t, "output", got.OutputDir)
	assert.Zero(t, fake.configCalls)
}

func TestResolveErrors(t *testing.T) {
	t.Run("portable executable lookup", func(t *testing.T) {
		fake := &fakeEnvironment{goos: "linux", vars: map[string]string{PortableEnv: "1"}, lookupErr: errors.New("no executable")}
		_, err := resolve(fake.environment())
		assert.ErrorContains(t, err, "no executable")
	})

	t.Run("windows config dir lookup", func(t *testing.T) {
		fake := &fakeEnvironment{goos: "windows", lookupErr: errors.New("no profile")}
		_, err := resolve(fake.environment())
		assert.ErrorContains(t, err, "user config dir: no profile")
	})

	t.Run("windows empty cache dir", func(t *testing.T) {
		fake := &fakeEnvironment{goos: "windows", configRoot: "C:\\Roaming", cacheRoot: "  "}
		_, err := resolve(fake.environment())
		assert.ErrorContains(t, err, "user cache dir is empty")
	})
}

func TestIsTruthy(t *testing.T) {
	for value, want := range map[string]bool{
		"":         false,
		"0":        false,
		"false":    false,
		"1":        true,
		"TRUE":     true,
		"  true  ": true,
		"yes":      true,
		"on":       true,
	} {
		assert.Equal(t, want, isTruthy(value), "isTruthy(%q)", value)
	}
}
