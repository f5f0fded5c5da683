package handler

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"video-summary/internal/appdirs"
	"video-summary/internal/response"
	apperrors "video-summary/pkg/errors"
)

var appDirsResolver = appdirs.Resolve

// outputAlias prefixes download paths of generated files, e.g.
// /api/file/output/BV1xx_summary.md.
const outputAlias = "output"

// outputRootCandidates lists where generated files may live: the service's
// output dir first, then the application subtitle and summary roots.
func (h Handler) outputRootCandidates() []string {
	candidates := make([]string, 0, 3)
	if h.Service != nil {
		if dir, err := h.Service.ResolveOutputDir(); err == nil {
			candidates = append(candidates, dir)
		}
	}
	if dirs, err := appDirsResolver(); err == nil {
		candidates = append(candidates, appdirs.SubtitleRootFor(dirs), appdirs.SummaryRootFor(dirs))
	}
	return uniquePaths(candidates...)
}

// resolveDownloadPath maps a requested "output/<file>" path onto an existing
// file inside one of the output roots.
func (h Handler) resolveDownloadPath(requested string) (string, bool) {
	requested = strings.TrimSpace(requested)
	requested = strings.TrimPrefix(requested, "/")
	if hasParentTraversal(requested) {
		return "", false
	}
	requested = filepath.ToSlash(filepath.Clean(requested))
	relativePath, ok := strings.CutPrefix(requested, outputAlias+"/")
	if !ok || relativePath == "" {
		return "", false
	}

	for _, rootDir := range h.outputRootCandidates() {
		candidate := filepath.Clean(filepath.Join(rootDir, filepath.FromSlash(relativePath)))
		if !isPathWithinRoot(rootDir, candidate) {
			continue
		}
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

func (h Handler) DownloadFile(c *gin.Context) {
	requested := c.Param("filepath")
	if hasParentTraversal(requested) {
		response.Abort(c, http.StatusForbidden, apperrors.Wrap(apperrors.CodeUnauthorized, "非法路径 Invalid path", errors.New(requested)))
		return
	}
	localPath, ok := h.resolveDownloadPath(requested)
	if !ok {
		response.Abort(c, http.StatusNotFound, apperrors.ErrFileNotFound)
		return
	}
	c.FileAttachment(localPath, filepath.Base(localPath))
}

func uniquePaths(values ...string) []string {
	seen := make(map[string]struct{}, len(values))
	paths := make([]string, 0, len(values))
	for _, value := range values {
		cleaned := strings.TrimSpace(value)
		if cleaned == "" {
			continue
		}
		cleaned = filepath.Clean(cleaned)
		if _, exists := seen[cleaned]; exists {
			continue
		}
		seen[cleaned] = struct{}{}
		paths = append(paths, cleaned)
	}
	return paths
}

func isPathWithinRoot(root, candidate string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(candidate))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func hasParentTraversal(path string) bool {
	for _, part := range strings.Split(strings.ReplaceAll(path, "\\", "/"), "/") {
		if part == ".." {
			return true
		}
	}
	return false
}
