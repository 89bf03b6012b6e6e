package naming

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseNameFromImage(t *testing.T) {
	cases := []struct {
		image string
		want  string
	}{
		{"cruncher", "cruncher"},
		{"cruncher:latest", "cruncher"},
		{"ghcr.io/acme/cruncher:1.2", "cruncher"},
		{"registry.local:5000/team/cruncher@sha256:abc123", "cruncher"},
		{"", "processing"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, BaseNameFromImage(tc.image), "image %q", tc.image)
	}
}

func TestNameFromBase(t *testing.T) {
	name := NameFromBase("cruncher")
	assert.Regexp(t, regexp.MustCompile(`^cruncher-\d{4}-\d{2}-\d{2}-\d{2}-\d{2}-\d{2}-[0-9a-f]{8}$`), name)
	assert.LessOrEqual(t, len(name), 63)

	// Names must be unique across calls.
	assert.NotEqual(t, name, NameFromBase("cruncher"))

	long := NameFromBase(strings.Repeat("x", 100))
	assert.LessOrEqual(t, len(long), 63)
}
