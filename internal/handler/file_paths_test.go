package handler

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-summary/internal/appdirs"
)

func headFile(t *testing.T, h Handler, path string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodHead, path, nil)
	w := httptest.NewRecorder()
	buildRouter(h).ServeHTTP(w, req)
	return w.Code
}

func TestDownloadFile_NotFound(t *testing.T) {
	configurePathResolverForTest(t)

	code := headFile(t, Handler{}, "/api/file/output/nonexistent_summary.md")
	assert.Equal(t, http.StatusNotFound, code, "Should return 404 for non-existent file")
}

func TestDownloadFile_FromServiceOutputDir(t *testing.T) {
	configurePathResolverForTest(t)
	svc := newTestService(t)
	require.NoError(t, os.MkdirAll(svc.OutputDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(svc.OutputDir, "BV1xx_summary.md"), []byte("# 总结"), 0o644))

	req := httptest.NewRequest(http.MethodGet, "/api/file/output/BV1xx_summary.md", nil)
	w := httptest.NewRecorder()
	buildRouter(Handler{Service: svc}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "# 总结", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "BV1xx_summary.md")
}

func TestDownloadFile_FromSummaryRoot(t *testing.T) {
	tempDir := configurePathResolverForTest(t)
	summaryRoot := appdirs.SummaryRootFor(appdirs.Paths{OutputDir: filepath.Join(tempDir, "output")})
	require.NoError(t, os.MkdirAll(summaryRoot, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(summaryRoot, "dQw4w9WgXcQ_summary.md"), []byte("hello"), 0o644))

	code := headFile(t, Handler{}, "/api/file/output/dQw4w9WgXcQ_summary.md")
	assert.Equal(t, http.StatusOK, code, "Should return 200 for existing file")
}

func TestDownloadFile_EmptyPath(t *testing.T) {
	configurePathResolverForTest(t)

	assert.Equal(t, http.StatusNotFound, headFile(t, Handler{}, "/api/file/"))
	assert.Equal(t, http.StatusNotFound, headFile(t, Handler{}, "/api/file/output/"))
}

func TestDownloadFile_OutsideAlias(t *testing.T) {
	tempDir := configurePathResolverForTest(t)
	root := appdirs.SubtitleRootFor(appdirs.Paths{OutputDir: filepath.Join(tempDir, "output")})
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.srt"), []byte("1"), 0o644))

	assert.Equal(t, http.StatusNotFound, headFile(t, Handler{}, "/api/file/tasks/a.srt"))
}

func TestDownloadFile_PathTraversal(t *testing.T) {
	configurePathResolverForTest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/file/output/..%2F..%2Fetc%2Fpasswd", nil)
	w := httptest.NewRecorder()
	buildRouter(Handler{}).ServeHTTP(w, req)
	assert.Contains(t, []int{http.StatusForbidden, http.StatusNotFound}, w.Code)
	assert.NotEqual(t, http.StatusOK, w.Code)
}

func TestHasParentTraversal(t *testing.T) {
	assert.True(t, hasParentTraversal("output/../secret"))
	assert.True(t, hasParentTraversal(`output\..\secret`))
	assert.False(t, hasParentTraversal("output/a..b.md"))
}

func TestIsPathWithinRoot(t *testing.T) {
	root := filepath.Join("srv", "out")
	assert.True(t, isPathWithinRoot(root, filepath.Join(root, "a.md")))
	assert.True(t, isPathWithinRoot(root, root))
	assert.False(t, isPathWithinRoot(root, filepath.Join("srv", "other", "a.md")))
	assert.False(t, isPathWithinRoot(root, filepath.Join(root, "..", "out2")))
}

func TestUniquePaths(t *testing.T) {
	assert.Equal(t, []string{"a", filepath.Join("b", "c")}, uniquePaths("a", " ", "a/", "b/./c"))
}
