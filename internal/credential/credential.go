// Package credential loads platform login cookies from the configured cookie
// header, an exported JSON cookie file or a Netscape cookies.txt file.
package credential

import (
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"video-summary/log"
)

const BilibiliDomain = "bilibili.com"

// DefaultCookieFileCandidates are probed in the working directory when no
// cookie file is configured.
var DefaultCookieFileCandidates = []string{"key.json", "key2.json", "cookies.json", "bilibili_cookies.json", "cookies.txt"}

type Source interface {
	Cookies() map[string]string
}

// Static is a fixed cookie map, mostly used by tests.
type Static map[string]string

func (s Static) Cookies() map[string]string {
	return maps.Clone(map[string]string(s))
}

// FileSource resolves cookies for one domain: the header string wins, a
// cookie file only fills in when the header has no SESSDATA.
type FileSource struct {
	Header     string
	File       string
	Domain     string
	Candidates []string
	WorkDir    string
}

func (s FileSource) Cookies() map[string]string {
	cookies := ParseCookieHeader(s.Header)
	if cookies["SESSDATA"] != "" {
		return cookies
	}

	path := s.resolveFile()
	if path == "" {
		return cookies
	}
	fromFile, err := LoadCookieFile(path, s.Domain)
	if err != nil {
		log.GetLogger().Warn("读取cookie文件失败 Failed to read cookie file", zap.String("path", path), zap.Error(err))
		return cookies
	}
	if fromFile["SESSDATA"] != "" {
		log.GetLogger().Info("已从cookie文件加载登录态 Loaded login cookies from file", zap.String("path", path))
	}
	for k, v := range fromFile {
		cookies[k] = v
	}
	return cookies
}

func (s FileSource) resolveFile() string {
	workDir := s.WorkDir
	if workDir == "" {
		workDir, _ = os.Getwd()
	}
	if s.File != "" {
		p := s.File
		if !filepath.IsAbs(p) {
			p = filepath.Join(workDir, p)
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
		return ""
	}
	candidates := s.Candidates
	if candidates == nil {
		candidates = DefaultCookieFileCandidates
	}
	for _, name := range candidates {
		p := filepath.Join(workDir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// ParseCookieHeader turns "a=1; b=2" into a map, skipping empty names and values.
func ParseCookieHeader(header string) map[string]string {
	parsed := make(map[string]string)
	for _, part := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if name != "" && value != "" {
			parsed[name] = value
		}
	}
	return parsed
}

// HasLoginState reports whether cookies carry any usable Bilibili login token.
func HasLoginState(cookies map[string]string) bool {
	return cookies["SESSDATA"] != "" || cookies["DedeUserID"] != "" || cookies["bili_jct"] != ""
}

// Cell computes the cookies of a Source once and serves copies afterwards.
// It is never invalidated.
type Cell struct {
	source Source
	once   sync.Once
	value  map[string]string
}

func NewCell(source Source) *Cell {
	return &Cell{source: source}
}

func (c *Cell) Get() map[string]string {
	c.once.Do(func() {
		if c.source != nil {
			c.value = c.source.Cookies()
		}
		if c.value == nil {
			c.value = map[string]string{}
		}
	})
	return maps.Clone(c.value)
}
