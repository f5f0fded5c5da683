package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	assert.Equal(t, "hello world", CleanText("  <font color=\"#fff\">hello</font>\n\t world "))
	assert.Equal(t, "", CleanText(""))
	assert.Equal(t, "", CleanText("<br/>"))
}

func TestSanitizePathName(t *testing.T) {
	assert.Equal(t, "标题with spaces", SanitizePathName("标题/with spaces?", 0))
	assert.Equal(t, "a-b_c", SanitizePathName("a-b_c:*", 10))
	assert.Equal(t, "视频标", SanitizePathName("视频标题", 3))
	assert.Equal(t, "x", SanitizePathName("x  ", 0))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "短", TruncateRunes("短", 5))
	assert.Equal(t, "一二...", TruncateRunes("一二三四", 2))
	assert.Equal(t, "abc", TruncateRunes("abc", 0))
}
