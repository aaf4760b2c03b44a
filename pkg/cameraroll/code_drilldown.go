package cameraroll

import (
	"context"
	"fmt"
	"strings"

	"github.com/specmem/specmem/pkg/models"
)

// CodeFetcher is the storage dependency for code-flavored drilldowns.
type CodeFetcher interface {
	GetDefinition(ctx context.Context, filePath, name string) (*models.CodeDefinition, error)
	GetFile(ctx context.Context, filePath string) (*models.CodebaseFile, error)
}

// CodeDrilldownResult is the expansion of a code handle: either a single
// definition or a whole file, content-extent-limited by zoom.
type CodeDrilldownResult struct {
	FilePath   string
	DefName    string
	Content    string
	Truncated  bool
	TotalChars int
}

// CodeDrilldown resolves a code memoryID ("filePath" or
// "filePath:defName") to its content, sized by zoom level.
type CodeDrilldown struct {
	fetcher CodeFetcher
}

// NewCodeDrilldown constructs a CodeDrilldown.
func NewCodeDrilldown(fetcher CodeFetcher) *CodeDrilldown {
	return &CodeDrilldown{fetcher: fetcher}
}

// ParseCodeKey splits a code drilldown key into filePath and an optional
// defName. The key's last colon is the candidate separator, but a
// Windows drive letter ("C:\foo\bar.go") would otherwise be misread as
// the separator, so the split is rejected (treated as having no defName)
// when the text before the last colon is a bare drive prefix like "C".
func ParseCodeKey(key string) (filePath, defName string) {
	idx := strings.LastIndex(key, ":")
	if idx < 0 {
		return key, ""
	}

	before := key[:idx]
	after := key[idx+1:]

	if isDriveLetterPrefix(before) {
		return key, ""
	}

	return before, after
}

// isDriveLetterPrefix reports whether s is a bare single-letter Windows
// drive prefix ("C", "d"), the shape that would otherwise be mistaken
// for a "filePath:defName" separator when the real path is
// "C:\foo\bar.go".
func isDriveLetterPrefix(s string) bool {
	if len(s) != 1 {
		return false
	}
	c := s[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// signatureOnlyZoom is the zoom percentage at or below which a
// definition drilldown shows only its signature.
const signatureOnlyZoom = 10

// contentExtentStaircase maps a zoom percentage (0-100) to a maximum
// content length in characters; 100 means unlimited (0 sentinel).
func contentExtentStaircase(zoom int) int {
	switch {
	case zoom <= 0:
		return 200
	case zoom <= 10:
		return 200
	case zoom <= 30:
		return 500
	case zoom <= 50:
		return 1500
	case zoom <= 70:
		return 3000
	case zoom <= 90:
		return 5000
	default:
		return 0
	}
}

// Expand resolves key at the given zoom percentage (0-100).
func (d *CodeDrilldown) Expand(ctx context.Context, key string, zoom int) (*CodeDrilldownResult, error) {
	filePath, defName := ParseCodeKey(key)

	var full string
	if defName != "" {
		def, err := d.fetcher.GetDefinition(ctx, filePath, defName)
		if err != nil {
			return nil, err
		}
		if def == nil {
			return nil, nil
		}
		full = def.Content
		// At the lowest zoom only the signature is shown, not the body.
		if zoom <= signatureOnlyZoom && def.Signature != "" {
			full = def.Signature
		}
	} else {
		file, err := d.fetcher.GetFile(ctx, filePath)
		if err != nil {
			return nil, err
		}
		if file == nil {
			return nil, nil
		}
		full = file.Content
	}

	maxChars := contentExtentStaircase(zoom)
	content, truncated := truncateAtLineBoundary(full, maxChars)

	return &CodeDrilldownResult{
		FilePath:   filePath,
		DefName:    defName,
		Content:    content,
		Truncated:  truncated,
		TotalChars: len(full),
	}, nil
}

// truncateAtLineBoundary limits content to maxChars (0 means unlimited),
// cutting only at a newline so no line is sliced mid-way, and appends a
// marker noting how much more content exists.
func truncateAtLineBoundary(content string, maxChars int) (string, bool) {
	if maxChars <= 0 || len(content) <= maxChars {
		return content, false
	}

	cut := strings.LastIndex(content[:maxChars], "\n")
	if cut <= 0 {
		cut = maxChars
	}

	remaining := len(content) - cut
	return content[:cut] + fmt.Sprintf("\n... [%d more chars — use zoom:100 for full content]", remaining), true
}
