package credential

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type exportedCookie struct {
	Domain         string  `json:"domain"`
	Name           string  `json:"name"`
	Value          string  `json:"value"`
	ExpirationDate float64 `json:"expirationDate"`
}

// CookieEntry is one cookie read from a file, with expiry when the file has one.
type CookieEntry struct {
	Domain string
	Name   string
	Value  string
	Expiry int64 // unix seconds, 0 for session cookies
}

// LoadCookieFile reads a browser JSON export or a Netscape cookies.txt and
// returns the cookies whose domain contains domain.
func LoadCookieFile(path, domain string) (map[string]string, error) {
	entries, err := ReadCookieEntries(path)
	if err != nil {
		return nil, err
	}
	parsed := make(map[string]string)
	for _, e := range entries {
		if domain != "" && !strings.Contains(e.Domain, domain) {
			continue
		}
		if e.Name != "" && e.Value != "" {
			parsed[e.Name] = e.Value
		}
	}
	return parsed, nil
}

func ReadCookieEntries(path string) ([]CookieEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCookieEntries(data)
}

// ParseCookieEntries detects the layout: a JSON array export or cookies.txt.
func ParseCookieEntries(data []byte) ([]CookieEntry, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return parseJSONExport(trimmed)
	}
	return parseNetscape(trimmed), nil
}

func parseJSONExport(data []byte) ([]CookieEntry, error) {
	var raw []exportedCookie
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode cookie json: %w", err)
	}
	entries := make([]CookieEntry, 0, len(raw))
	for _, c := range raw {
		entries = append(entries, CookieEntry{
			Domain: c.Domain,
			Name:   strings.TrimSpace(c.Name),
			Value:  strings.TrimSpace(c.Value),
			Expiry: int64(c.ExpirationDate),
		})
	}
	return entries, nil
}

// parseNetscape reads the tab separated cookies.txt layout:
// domain, include-subdomains, path, secure, expiry, name, value.
func parseNetscape(data []byte) []CookieEntry {
	var entries []CookieEntry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		// curl writes HttpOnly cookies with this prefix
		line = strings.TrimPrefix(line, "#HttpOnly_")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 7 {
			continue
		}
		expiry, _ := strconv.ParseInt(fields[4], 10, 64)
		entries = append(entries, CookieEntry{
			Domain: fields[0],
			Name:   strings.TrimSpace(fields[5]),
			Value:  strings.TrimSpace(fields[6]),
			Expiry: expiry,
		})
	}
	return entries
}

// Status summarizes a cookie file for the cookie status endpoint.
type Status struct {
	Exists           bool   `json:"exists"`
	Path             string `json:"path"`
	LastModified     string `json:"lastModified"`
	CookieCount      int    `json:"cookieCount"`
	HasLogin         bool   `json:"hasLogin"`
	EarliestExpiry   string `json:"earliestExpiry"`
	EarliestExpiryTs int64  `json:"earliestExpiryTs"`
	DaysUntilExpiry  int    `json:"daysUntilExpiry"`
	Status           string `json:"status"` // "valid", "expiring_soon", "expired", "not_found", "header_only"
	StatusMsg        string `json:"statusMsg"`
}

// Inspect reports on the cookie file used by s. A configured header without a
// file is reported as "header_only".
func Inspect(s FileSource, now time.Time) Status {
	path := s.resolveFile()
	if path == "" {
		header := ParseCookieHeader(s.Header)
		if len(header) > 0 {
			return Status{
				CookieCount:     len(header),
				HasLogin:        HasLoginState(header),
				DaysUntilExpiry: -1,
				Status:          "header_only",
				StatusMsg:       "使用配置中的Cookie Using cookie from config",
			}
		}
		return Status{Status: "not_found", StatusMsg: "Cookie文件不存在 Cookie file not found"}
	}

	result := Status{Exists: true, Path: path}
	if info, err := os.Stat(path); err == nil {
		result.LastModified = info.ModTime().Format("2006-01-02 15:04:05")
	}

	entries, err := ReadCookieEntries(path)
	if err != nil {
		result.Status = "not_found"
		result.StatusMsg = "读取Cookie文件失败 Failed to read cookie file"
		return result
	}

	cookies := make(map[string]string)
	var earliest int64
	for _, e := range entries {
		if s.Domain != "" && !strings.Contains(e.Domain, s.Domain) {
			continue
		}
		result.CookieCount++
		cookies[e.Name] = e.Value
		if e.Expiry > 0 && (earliest == 0 || e.Expiry < earliest) {
			earliest = e.Expiry
		}
	}
	result.HasLogin = HasLoginState(cookies)

	if earliest == 0 {
		result.DaysUntilExpiry = -1
		result.Status = "valid"
		result.StatusMsg = "Cookie文件存在 Cookie file exists"
		return result
	}

	expiry := time.Unix(earliest, 0)
	days := int(expiry.Sub(now).Hours() / 24)
	result.EarliestExpiry = expiry.Format("2006-01-02 15:04:05")
	result.EarliestExpiryTs = earliest
	result.DaysUntilExpiry = days
	switch {
	case expiry.Before(now):
		result.Status = "expired"
		result.StatusMsg = fmt.Sprintf("Cookie已过期%d天 Cookie expired %d days ago", -days, -days)
	case days < 7:
		result.Status = "expiring_soon"
		result.StatusMsg = fmt.Sprintf("Cookie将在%d天后过期 Cookie expires in %d days", days, days)
	default:
		result.Status = "valid"
		result.StatusMsg = fmt.Sprintf("Cookie有效，%d天后过期 Cookie valid, expires in %d days", days, days)
	}
	return result
}
