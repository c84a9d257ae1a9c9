package stacktrace

import "strings"

// InternalPaths extracts the internal-package frames from a raw stack trace,
// trimmed to "internal/<pkg>/<file>.go:<line>" so logs stay readable.
func InternalPaths(stack []byte) []string {
	lines := strings.Split(string(stack), "\n")
	paths := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, "/internal/") || !strings.Contains(line, ".go:") {
			continue
		}

		end := strings.Index(line, ".go:")
		rest := line[end:]
		if sp := strings.IndexByte(rest, ' '); sp != -1 {
			line = line[:end+sp]
		}

		if idx := strings.Index(line, "/internal/"); idx != -1 {
			paths = append(paths, line[idx+1:])
		}
	}

	return paths
}
