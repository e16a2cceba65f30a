package capture

import (
	"fmt"
	"path/filepath"
	"sort"
)

// Expand resolves capture paths and glob patterns into a sorted, deduplicated
// list. A pattern that matches nothing is kept literally so that the read
// reports a useful file-not-found error. The stdin marker is kept as is and
// placed first.
func Expand(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	stdin := false

	for _, pattern := range patterns {
		if pattern == StdinName {
			stdin = true
			continue
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid capture pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			matches = []string{pattern}
		}

		for _, m := range matches {
			if seen[m] {
				continue
			}
			seen[m] = true
			paths = append(paths, m)
		}
	}

	sort.Strings(paths)
	if stdin {
		paths = append([]string{StdinName}, paths...)
	}

	return paths, nil
}
