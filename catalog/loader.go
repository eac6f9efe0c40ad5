// Package catalog provides the drug name suggestion list offered on the
// name-entry inputs. Suggestions are a typing aid only; they never affect
// validation or the result.
package catalog

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/giygas/medsafe/interfaces"
	"github.com/giygas/medsafe/logging"
	"github.com/giygas/medsafe/validation"
	"golang.org/x/text/encoding/charmap"
)

// maxNameLength drops malformed lines with absurdly long name columns
const maxNameLength = 200

// Compile-time check to ensure FileLoader implements CatalogLoader
var _ interfaces.CatalogLoader = (*FileLoader)(nil)

// FileLoader reads drug names from a tab-separated file.
// With two or more columns the name is the second one (BDPM CIS_bdpm.txt layout:
// CIS code, denomination, ...); otherwise it is the whole line.
type FileLoader struct {
	path string
}

// NewFileLoader creates a loader for path
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: filepath.Clean(path)}
}

// Load implements interfaces.CatalogLoader
func (l *FileLoader) Load() ([]string, error) {
	content, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", l.path, err)
	}

	names, err := Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", l.path, err)
	}

	return names, nil
}

// Parse reads a catalog. Content that is not valid UTF-8 is decoded as
// ISO-8859-1, the encoding of part of the public drug database exports.
func Parse(r io.Reader) ([]string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog content: %w", err)
	}

	var reader io.Reader = bytes.NewReader(raw)
	if !utf8.Valid(raw) {
		reader = charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(raw))
	}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	seen := make(map[string]struct{})
	var names []string
	lineCount := 0
	skipped := 0

	for scanner.Scan() {
		lineCount++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		name := fields[0]
		if len(fields) >= 2 {
			name = fields[1]
		}

		name = validation.NormalizeName(name)
		if name == "" || len(name) > maxNameLength {
			skipped++
			continue
		}

		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error: %w", err)
	}

	if skipped > 0 {
		logging.Debug("Skipped catalog lines", "skipped", skipped, "lines", lineCount)
	}

	sort.Strings(names)
	return names, nil
}
