package content

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"path"
	"strconv"
	"strings"
	"unicode"

	"github.com/milk9111/commscreen/common"
)

// Entry is one parsed manifest line.
type Entry struct {
	Path    string
	Hotspot image.Point
}

// ParseManifest parses .ani manifest data. Each line is
//
//	filename <ignored> <ignored> hotspotX hotspotY
//
// The hotspot y is everything after the fourth whitespace boundary. File
// names are joined onto dir, and hotspots are stored as absolute values.
func ParseManifest(dir string, data []byte) ([]Entry, error) {
	var entries []Entry
	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		e, err := parseLine(text)
		if err != nil {
			return nil, fmt.Errorf("content: manifest line %d: %w: %w", line, ErrManifest, err)
		}
		e.Path = path.Join(dir, e.Path)
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("content: manifest: %w: %w", ErrManifest, err)
	}
	return entries, nil
}

func parseLine(text string) (Entry, error) {
	fields := splitN(text, 5)
	if len(fields) < 5 {
		return Entry{}, fmt.Errorf("expected 5 fields, got %d in %q", len(fields), text)
	}
	x, err := strconv.Atoi(fields[3])
	if err != nil {
		return Entry{}, fmt.Errorf("hotspot x: %w", err)
	}
	y, err := strconv.Atoi(fields[4])
	if err != nil {
		return Entry{}, fmt.Errorf("hotspot y: %w", err)
	}
	return Entry{
		Path:    fields[0],
		Hotspot: image.Pt(common.Abs(x), common.Abs(y)),
	}, nil
}

// splitN splits s around runs of whitespace into at most n fields; the last
// field holds the unsplit remainder.
func splitN(s string, n int) []string {
	var out []string
	for len(out) < n-1 {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		if s == "" {
			return out
		}
		i := strings.IndexFunc(s, unicode.IsSpace)
		if i < 0 {
			return append(out, s)
		}
		out = append(out, s[:i])
		s = s[i:]
	}
	if s = strings.TrimLeftFunc(s, unicode.IsSpace); s != "" {
		out = append(out, s)
	}
	return out
}
