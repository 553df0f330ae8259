package fits

import (
	"bufio"
	"io"
	"strings"
)

// ReadIndex reads an index stream (§6): UTF-8 text, one descriptor per
// non-blank, non-comment ('#'-prefixed) line, order preserved. Order is
// semantically significant — it fixes the canonical ordering Global
// Histogram aggregation reproducibility relies on (§4.1).
//
// ReadIndex is pure and stateless: identical input always yields an
// identical, identically-ordered result.
func ReadIndex(r io.Reader) ([]string, error) {
	var descriptors []string
	scanner := bufio.NewScanner(r)
	// descriptor lines (object-store URLs in particular) can exceed the
	// default 64KiB token size once query parameters are involved.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		descriptors = append(descriptors, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return descriptors, nil
}
