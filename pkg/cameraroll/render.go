package cameraroll

import (
	"fmt"
	"strings"

	"github.com/specmem/specmem/pkg/minicot"
	"github.com/specmem/specmem/pkg/models"
)

// RollItem is one displayed hit in a rendered camera roll: a truncated,
// attributed, registered view over a Memory search hit. Similarity
// carries the hybrid combined score once rescoring has run; Attribution
// classifies who produced the underlying memory.
type RollItem struct {
	DrilldownID int
	Similarity  float64
	Role        models.Role
	Attribution minicot.Attribution
	Content     string
	Response    string
	Date        string
}

// Roll is the full result of a camera-roll search, ready to render.
type Roll struct {
	Query string
	Zoom  models.ZoomLevel
	Found int
	Total int
	Items []RollItem
}

// Render produces the stable, human-readable [CAMERA-ROLL] block.
func Render(r Roll) string {
	var b strings.Builder
	b.WriteString("[CAMERA-ROLL]\n")
	fmt.Fprintf(&b, "Query: %q\n", r.Query)
	fmt.Fprintf(&b, "Zoom: %s | Found: %d/%d\n\n", r.Zoom, r.Found, r.Total)

	for i, item := range r.Items {
		roleTag := ""
		if item.Role != models.RoleUnknown {
			roleTag = fmt.Sprintf(" [%s]", strings.ToUpper(string(item.Role)))
		}
		pct := item.Similarity * 100
		fmt.Fprintf(&b, "[%d] %.0f%% #%d%s %s\n", i+1, pct, item.DrilldownID, roleTag, item.Content)
		if item.Response != "" {
			fmt.Fprintf(&b, "    [CR] %s\n", item.Response)
		}
	}

	b.WriteString("\ndrill_down(ID) for full content | get_memory_by_id(ID) for quick view\n")
	b.WriteString("[/CAMERA-ROLL]")
	return b.String()
}

// truncate shortens s to maxChars, respecting rune boundaries and
// appending an ellipsis marker when it cuts content.
func truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars]) + "..."
}

// roundTo2 rounds a similarity score to two decimal places for display.
func roundTo2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

// dateOnly reduces an RFC3339-capable timestamp to YYYY-MM-DD.
func dateOnly(s string) string {
	if len(s) >= 10 {
		return s[:10]
	}
	return s
}
