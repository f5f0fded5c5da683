package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"video-summary/internal/appdirs"
	"video-summary/internal/types"
	"video-summary/log"
)

type App struct {
	RequestTimeout int    `toml:"request_timeout"` // seconds
	MaxRetry       int    `toml:"max_retry"`
	OutputDir      string `toml:"output_dir"`
	Proxy          string `toml:"proxy"`
	SubtitleFormat string `toml:"subtitle_format"`
}

type Bilibili struct {
	Cookie     string `toml:"cookie"`
	CookieFile string `toml:"cookie_file"`
}

type Llm struct {
	BaseUrl     string  `toml:"base_url"`
	ApiKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Temperature float32 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
}

type Server struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type Config struct {
	App      App      `toml:"app"`
	Bilibili Bilibili `toml:"bilibili"`
	Llm      Llm      `toml:"llm"`
	Server   Server   `toml:"server"`
}

var Conf = defaultConfig()

var resolveConfigPath = func() (string, error) {
	paths, err := appdirs.Resolve()
	if err != nil {
		return "", err
	}
	return paths.ConfigFile, nil
}

func defaultConfig() Config {
	return Config{
		App: App{
			RequestTimeout: 30,
			MaxRetry:       3,
			OutputDir:      "output",
			SubtitleFormat: string(types.SubtitleFormatSrt),
		},
		Llm: Llm{
			BaseUrl:     "https://open.bigmodel.cn/api/paas/v4",
			Model:       "GLM-4.7",
			Temperature: 0.7,
			MaxTokens:   1500,
		},
		Server: Server{
			Host: "127.0.0.1",
			Port: 8888,
		},
	}
}

func ResolveConfigPath() (string, error) {
	return resolveConfigPath()
}

// LoadOrCreateConfig reads the config file, writing the defaults first when it
// does not exist yet. Keys missing from the file keep their default values.
func LoadOrCreateConfig() (created bool, err error) {
	configPath, err := ResolveConfigPath()
	if err != nil {
		return false, err
	}

	if _, statErr := os.Stat(configPath); errors.Is(statErr, os.ErrNotExist) {
		Conf = defaultConfig()
		if err = SaveConfig(); err != nil {
			return false, err
		}
		log.GetLogger().Info("已生成默认配置文件 Default config created", zap.String("path", configPath))
		created = true
	} else {
		loaded := defaultConfig()
		if _, err = toml.DecodeFile(configPath, &loaded); err != nil {
			return false, fmt.Errorf("解析配置文件失败 decode config %s: %w", configPath, err)
		}
		Conf = loaded
		log.GetLogger().Info("已加载配置文件 Config loaded", zap.String("path", configPath))
	}

	applyEnvOverrides(&Conf)
	return created, nil
}

// SaveConfig writes Conf to the resolved config path, creating parent dirs.
func SaveConfig() error {
	configPath, err := ResolveConfigPath()
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(Conf)
}

var envOverrides = []struct {
	keys  []string
	apply func(c *Config, v string)
}{
	{[]string{"AI_API_KEY", "OPENAI_API_KEY"}, func(c *Config, v string) { c.Llm.ApiKey = v }},
	{[]string{"AI_BASE_URL"}, func(c *Config, v string) { c.Llm.BaseUrl = v }},
	{[]string{"DEFAULT_MODEL"}, func(c *Config, v string) { c.Llm.Model = v }},
	{[]string{"BILIBILI_COOKIE"}, func(c *Config, v string) { c.Bilibili.Cookie = v }},
	{[]string{"BILIBILI_COOKIE_FILE"}, func(c *Config, v string) { c.Bilibili.CookieFile = v }},
}

// applyEnvOverrides lets the environment win over the file. The first
// non-empty key of each group is used.
func applyEnvOverrides(c *Config) {
	for _, o := range envOverrides {
		for _, key := range o.keys {
			if v := strings.TrimSpace(os.Getenv(key)); v != "" {
				o.apply(c, v)
				break
			}
		}
	}
}

// CheckConfig fills zero values with defaults and rejects values that can not work.
func CheckConfig() error {
	def := defaultConfig()
	if Conf.App.RequestTimeout <= 0 {
		Conf.App.RequestTimeout = def.App.RequestTimeout
	}
	if Conf.App.MaxRetry <= 0 {
		Conf.App.MaxRetry = def.App.MaxRetry
	}
	if strings.TrimSpace(Conf.App.OutputDir) == "" {
		Conf.App.OutputDir = def.App.OutputDir
	}
	if Conf.App.SubtitleFormat == "" {
		Conf.App.SubtitleFormat = def.App.SubtitleFormat
	}
	raw := strings.ToLower(strings.TrimSpace(Conf.App.SubtitleFormat))
	format := types.ParseSubtitleFormat(raw)
	if format == types.SubtitleFormatText && raw != "txt" && raw != "text" {
		return fmt.Errorf("不支持的字幕格式 unsupported subtitle_format %q, want one of txt/srt/vtt/lrc", Conf.App.SubtitleFormat)
	}
	Conf.App.SubtitleFormat = string(format)

	if Conf.Llm.BaseUrl == "" {
		Conf.Llm.BaseUrl = def.Llm.BaseUrl
	}
	if Conf.Llm.Model == "" {
		Conf.Llm.Model = def.Llm.Model
	}
	if Conf.Llm.Temperature < 0 || Conf.Llm.Temperature > 2 {
		return fmt.Errorf("temperature 需在 0-2 之间 temperature must be within [0, 2], got %v", Conf.Llm.Temperature)
	}
	if Conf.Llm.MaxTokens <= 0 {
		Conf.Llm.MaxTokens = def.Llm.MaxTokens
	}

	if Conf.Server.Host == "" {
		Conf.Server.Host = def.Server.Host
	}
	if Conf.Server.Port == 0 {
		Conf.Server.Port = def.Server.Port
	}
	if Conf.Server.Port < 0 || Conf.Server.Port > 65535 {
		return fmt.Errorf("端口无效 invalid server port %d", Conf.Server.Port)
	}
	return nil
}

func RequestTimeout() time.Duration {
	if Conf.App.RequestTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(Conf.App.RequestTimeout) * time.Second
}

// LlmConfigured reports whether an API key is available for summary and chat.
func LlmConfigured() bool {
	return strings.TrimSpace(Conf.Llm.ApiKey) != ""
}
