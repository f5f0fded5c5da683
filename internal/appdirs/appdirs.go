// Package appdirs decides where config, logs, output files and the cache
// database live.
package appdirs

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	// HomeEnv puts every directory under one root, e.g. for containers.
	HomeEnv = "VIDSUM_HOME"
	// PortableEnv keeps everything in a data dir next to the executable.
	PortableEnv = "VIDSUM_PORTABLE"

	appName        = "VideoSummary"
	configFileName = "config.toml"
)

type Paths struct {
	Portable   bool
	ConfigDir  string
	ConfigFile string
	LogDir     string
	OutputDir  string
	CacheDir   string
}

type environment struct {
	goos          string
	getenv        func(string) string
	executable    func() (string, error)
	userConfigDir func() (string, error)
	userCacheDir  func() (string, error)
}

func systemEnvironment() environment {
	return environment{
		goos:          runtime.GOOS,
		getenv:        os.Getenv,
		executable:    os.Executable,
		userConfigDir: os.UserConfigDir,
		userCacheDir:  os.UserCacheDir,
	}
}

func Resolve() (Paths, error) {
	return resolve(systemEnvironment())
}

// resolve picks the first layout that applies: an explicit home dir, the
// portable data dir, per-user dirs on Windows, then the working directory.
func resolve(env environment) (Paths, error) {
	env = env.withDefaults()

	if home := strings.TrimSpace(env.getenv(HomeEnv)); home != "" {
		return layoutUnder(filepath.Clean(home), false), nil
	}

	if isTruthy(env.getenv(PortableEnv)) {
		executablePath, err := env.executable()
		if err != nil {
			return Paths{}, fmt.Errorf("locate executable: %w", err)
		}
		return layoutUnder(filepath.Join(filepath.Dir(executablePath), "data"), true), nil
	}

	if env.goos == "windows" {
		return perUserLayout(env)
	}
	return workingDirLayout(), nil
}

func (env environment) withDefaults() environment {
	system := systemEnvironment()
	if env.goos == "" {
		env.goos = system.goos
	}
	if env.getenv == nil {
		env.getenv = system.getenv
	}
	if env.executable == nil {
		env.executable = system.executable
	}
	if env.userConfigDir == nil {
		env.userConfigDir = system.userConfigDir
	}
	if env.userCacheDir == nil {
		env.userCacheDir = system.userCacheDir
	}
	return env
}

func layoutUnder(root string, portable bool) Paths {
	configDir := filepath.Join(root, "config")
	return Paths{
		Portable:   portable,
		ConfigDir:  configDir,
		ConfigFile: filepath.Join(configDir, configFileName),
		LogDir:     filepath.Join(root, "logs"),
		OutputDir:  filepath.Join(root, "output"),
		CacheDir:   filepath.Join(root, "cache"),
	}
}

// perUserLayout keeps config under %AppData% and everything else under
// %LocalAppData%.
func perUserLayout(env environment) (Paths, error) {
	configRoot, err := requireDir(env.userConfigDir, "user config dir")
	if err != nil {
		return Paths{}, err
	}
	cacheRoot, err := requireDir(env.userCacheDir, "user cache dir")
	if err != nil {
		return Paths{}, err
	}

	configDir := filepath.Join(configRoot, appName)
	dataDir := filepath.Join(cacheRoot, appName)
	return Paths{
		ConfigDir:  configDir,
		ConfigFile: filepath.Join(configDir, configFileName),
		LogDir:     filepath.Join(dataDir, "logs"),
		OutputDir:  filepath.Join(dataDir, "output"),
		CacheDir:   filepath.Join(dataDir, "cache"),
	}, nil
}

func workingDirLayout() Paths {
	return Paths{
		ConfigDir:  "config",
		ConfigFile: filepath.Join("config", configFileName),
		LogDir:     ".",
		OutputDir:  "output",
		CacheDir:   "cache",
	}
}

func requireDir(lookup func() (string, error), name string) (string, error) {
	dir, err := lookup()
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	if strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("%s is empty", name)
	}
	return dir, nil
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
