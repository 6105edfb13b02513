package routes

import "strings"

var skipPrefixes = []string{
	"/static/",
	"/assets/",
	"/api/",
	"/icons/",
}

var skipFiles = map[string]bool{
	"/favicon.ico":   true,
	"/sw.js":         true,
	"/manifest.json": true,
	"/robots.txt":    true,
}

var skipExtensions = []string{
	".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".ico",
	".css", ".js", ".map",
	".woff", ".woff2", ".ttf", ".otf",
}

// Skip reports whether the gate should ignore the path entirely:
// framework assets, the API tree, icons, well-known static files, and
// anything with a static-asset extension.
func Skip(path string) bool {
	for _, prefix := range skipPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	if skipFiles[path] {
		return true
	}
	for _, ext := range skipExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
