package ctschema

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersion(t *testing.T) {
	result := Version()
	assert.NotEmpty(t, result)
	// "dev" from source, a tag such as "v1.2.3" from a release build
	assert.True(t, result == "dev" || strings.HasPrefix(result, "v"), "got: %s", result)
}

func TestCommit(t *testing.T) {
	result := Commit()
	assert.NotEmpty(t, result)
	if result != "unknown" {
		assert.GreaterOrEqual(t, len(result), 7, "short hash expected, got: %s", result)
	}
}

func TestGoVersion(t *testing.T) {
	assert.Equal(t, runtime.Version(), GoVersion())
}

func TestBuildInfo(t *testing.T) {
	result := BuildInfo()
	for _, label := range []string{"Version:", "Commit:", "Build Time:", "Go Version:"} {
		assert.Contains(t, result, label)
	}
	assert.Contains(t, result, Version())
	assert.Contains(t, result, BuildTime())
	assert.Contains(t, result, GoVersion())
}
