// Package naming derives default processing job names from container image
// references.
package naming

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxNameLength = 63

// BaseNameFromImage extracts a short base name from an image reference,
// dropping the registry, tag and digest. "ghcr.io/acme/cruncher:1.2" yields
// "cruncher".
func BaseNameFromImage(image string) string {
	ref := image
	if i := strings.IndexByte(ref, '@'); i >= 0 {
		ref = ref[:i]
	}
	if i := strings.LastIndexByte(ref, '/'); i >= 0 {
		ref = ref[i+1:]
	}
	if i := strings.IndexByte(ref, ':'); i >= 0 {
		ref = ref[:i]
	}
	if ref == "" {
		ref = "processing"
	}
	return ref
}

// NameFromBase appends a UTC timestamp and a short random suffix so repeated
// runs from the same base never collide. The result fits the service's
// 63-character name limit.
func NameFromBase(base string) string {
	stamp := time.Now().UTC().Format("2006-01-02-15-04-05")
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]

	// Reserve room for "-stamp-suffix".
	budget := maxNameLength - len(stamp) - len(suffix) - 2
	if len(base) > budget {
		base = base[:budget]
	}
	return fmt.Sprintf("%s-%s-%s", base, stamp, suffix)
}
