package reports

import (
	"strconv"
	"strings"
)

// Chart colours shared by the PNG and PDF renderers.
var (
	statusColors = map[string]string{
		"TODO":        "#6B7280",
		"IN PROGRESS": "#3B82F6",
		"REVIEW":      "#F59E0B",
		"DONE":        "#10B981",
		"ARCHIVED":    "#8B5CF6",
	}
	priorityColors = map[string]string{
		"LOW":    "#10B981",
		"MEDIUM": "#EAB308",
		"HIGH":   "#F97316",
		"URGENT": "#EF4444",
	}
	fallbackColors = []string{"#0EA5E9", "#14B8A6", "#A855F7", "#F43F5E", "#84CC16", "#64748B"}
)

const (
	brandColor = "#4F46E5"
	textColor  = "#1F2937"
	mutedColor = "#6B7280"
	lineColor  = "#E5E7EB"
	alertColor = "#DC2626"
)

func colorFor(palette map[string]string, name string, index int) string {
	if c, ok := palette[name]; ok {
		return c
	}
	return fallbackColors[index%len(fallbackColors)]
}

// rgb parses #RRGGBB into components. Malformed input yields black.
func rgb(hex string) (r, g, b int) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xFF), int(v >> 8 & 0xFF), int(v & 0xFF)
}
