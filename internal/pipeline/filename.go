package pipeline

import (
	"regexp"
	"strings"
)

var (
	illegalChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	multiSpace   = regexp.MustCompile(`\s+`)
)

// safeFileName derives a filesystem-safe output name from a video title.
// Characters illegal on common filesystems are stripped, whitespace is
// collapsed, and the id suffix keeps duplicate titles from colliding.
func safeFileName(title, idSuffix, ext string) string {
	name := illegalChars.ReplaceAllString(title, "")
	name = multiSpace.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)
	if name == "" {
		name = "YouTube-Audio"
	}
	return name + "-" + idSuffix + "." + ext
}
